// internal/database/db.go
package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// ConnectDB opens a pgx pool for connStr and verifies it with a ping.
func ConnectDB(ctx context.Context, connStr string) (*pgxpool.Pool, error) {
	config, err := pgxpool.ParseConfig(connStr)
	if err != nil {
		return nil, fmt.Errorf("unable to parse pgx config: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("unable to create pgx pool: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("db ping error: %w", err)
	}
	return pool, nil
}

// schema creates the match history tables if they do not exist.
const schema = `
CREATE TABLE IF NOT EXISTS matches (
	id          UUID PRIMARY KEY,
	room_code   TEXT NOT NULL,
	status      TEXT NOT NULL DEFAULT 'in_progress',
	score_a     INTEGER NOT NULL DEFAULT 0,
	score_b     INTEGER NOT NULL DEFAULT 0,
	total_turns INTEGER NOT NULL DEFAULT 0,
	start_time  TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	end_time    TIMESTAMPTZ
);

CREATE TABLE IF NOT EXISTS match_actions (
	match_id       UUID NOT NULL REFERENCES matches(id) ON DELETE CASCADE,
	action_index   INTEGER NOT NULL,
	action_type    TEXT NOT NULL,
	action_payload JSONB NOT NULL DEFAULT '{}'::jsonb,
	created_at     TIMESTAMPTZ NOT NULL,
	PRIMARY KEY (match_id, action_index)
);

CREATE INDEX IF NOT EXISTS matches_start_time_idx ON matches (start_time DESC);
`

// EnsureSchema creates the tables the historian writes to.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}
