// internal/database/match.go
package database

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jason-s-yu/ciziko/internal/cache"
)

// Match statuses stored in the matches table.
const (
	MatchInProgress = "in_progress"
	MatchCompleted  = "completed"
	MatchAbandoned  = "abandoned"
)

// MatchSummary is one row of the matches table.
type MatchSummary struct {
	ID         uuid.UUID  `json:"id"`
	RoomCode   string     `json:"roomCode"`
	Status     string     `json:"status"`
	ScoreA     int        `json:"scoreA"`
	ScoreB     int        `json:"scoreB"`
	TotalTurns int        `json:"totalTurns"`
	StartTime  time.Time  `json:"startTime"`
	EndTime    *time.Time `json:"endTime,omitempty"`
}

// MatchStore reads and writes match history.
type MatchStore struct {
	Pool *pgxpool.Pool
}

// NewMatchStore wraps an open pool.
func NewMatchStore(pool *pgxpool.Pool) *MatchStore {
	return &MatchStore{Pool: pool}
}

// OpenMatchStore connects to connStr and creates the history tables if they are missing,
// so readers work against a fresh database before the historian has written anything.
func OpenMatchStore(ctx context.Context, connStr string) (*MatchStore, error) {
	pool, err := ConnectDB(ctx, connStr)
	if err != nil {
		return nil, err
	}
	if err := EnsureSchema(ctx, pool); err != nil {
		pool.Close()
		return nil, err
	}
	return NewMatchStore(pool), nil
}

// Close releases the underlying pool.
func (s *MatchStore) Close() {
	s.Pool.Close()
}

// SaveActions writes a batch of records in one transaction.
func (s *MatchStore) SaveActions(ctx context.Context, recs []cache.MatchActionRecord) error {
	return beginTxFunc(ctx, s.Pool, pgx.TxOptions{}, func(tx pgx.Tx) error {
		for _, rec := range recs {
			if err := insertMatchActionTx(ctx, tx, rec); err != nil {
				return fmt.Errorf("insertMatchActionTx %s#%d: %w", rec.MatchID, rec.ActionIndex, err)
			}
		}
		return nil
	})
}

// MarkAbandoned flags a match that is still in progress. Returns whether a row changed.
func (s *MatchStore) MarkAbandoned(ctx context.Context, matchID uuid.UUID) (bool, error) {
	var changed bool
	err := beginTxFunc(ctx, s.Pool, pgx.TxOptions{}, func(tx pgx.Tx) error {
		q := `
			UPDATE matches
			SET status = $2, end_time = NOW()
			WHERE id = $1 AND status = $3
		`
		tag, e := tx.Exec(ctx, q, matchID, MatchAbandoned, MatchInProgress)
		if e != nil {
			return e
		}
		changed = tag.RowsAffected() > 0
		return nil
	})
	return changed, err
}

// ListRecent returns the latest matches, newest first.
func (s *MatchStore) ListRecent(ctx context.Context, limit int) ([]MatchSummary, error) {
	q := `
		SELECT id, room_code, status, score_a, score_b, total_turns, start_time, end_time
		FROM matches
		ORDER BY start_time DESC
		LIMIT $1
	`
	rows, err := s.Pool.Query(ctx, q, limit)
	if err != nil {
		return nil, fmt.Errorf("query matches: %w", err)
	}
	defer rows.Close()

	out := []MatchSummary{}
	for rows.Next() {
		var m MatchSummary
		if err := rows.Scan(&m.ID, &m.RoomCode, &m.Status, &m.ScoreA, &m.ScoreB, &m.TotalTurns, &m.StartTime, &m.EndTime); err != nil {
			return nil, fmt.Errorf("scan match: %w", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// insertMatchActionTx upserts the match row and appends one action. A match_end action
// finalizes the match with its scores.
func insertMatchActionTx(ctx context.Context, tx pgx.Tx, rec cache.MatchActionRecord) error {
	at := time.UnixMilli(rec.Timestamp)

	upsertMatchQ := `
		INSERT INTO matches (id, room_code, status, start_time)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO NOTHING
	`
	if _, err := tx.Exec(ctx, upsertMatchQ, rec.MatchID, rec.RoomCode, MatchInProgress, at); err != nil {
		return err
	}

	jsonPayload, err := json.Marshal(rec.ActionPayload)
	if err != nil {
		return err
	}
	actionInsertQ := `
		INSERT INTO match_actions (match_id, action_index, action_type, action_payload, created_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (match_id, action_index) DO NOTHING
	`
	if _, err := tx.Exec(ctx, actionInsertQ, rec.MatchID, rec.ActionIndex, rec.ActionType, jsonPayload, at); err != nil {
		return err
	}

	switch rec.ActionType {
	case cache.ActionMatchStart:
		q := `UPDATE matches SET total_turns = $2, start_time = $3 WHERE id = $1`
		_, err = tx.Exec(ctx, q, rec.MatchID, payloadInt(rec.ActionPayload, "totalTurns"), at)
	case cache.ActionMatchEnd:
		q := `
			UPDATE matches
			SET status = $2, score_a = $3, score_b = $4, end_time = $5
			WHERE id = $1
		`
		_, err = tx.Exec(ctx, q, rec.MatchID, MatchCompleted,
			payloadInt(rec.ActionPayload, "scoreA"), payloadInt(rec.ActionPayload, "scoreB"), at)
	}
	return err
}

// payloadInt reads a number from a decoded JSON payload.
func payloadInt(payload map[string]interface{}, key string) int {
	switch v := payload[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	case json.Number:
		i, _ := v.Int64()
		return int(i)
	}
	return 0
}

// beginTxFunc starts a transaction using the provided pool, calls f with it, and commits
// or rolls back as needed.
func beginTxFunc(ctx context.Context, pool *pgxpool.Pool, txOptions pgx.TxOptions, f func(tx pgx.Tx) error) error {
	tx, err := pool.BeginTx(ctx, txOptions)
	if err != nil {
		return err
	}
	if err := f(tx); err != nil {
		if rbErr := tx.Rollback(ctx); rbErr != nil {
			return fmt.Errorf("tx rollback error: %v; original error: %w", rbErr, err)
		}
		return err
	}
	return tx.Commit(ctx)
}
