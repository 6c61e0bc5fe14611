// internal/cache/redis.go
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// DefaultQueueName is the Redis list match history records are pushed to.
const DefaultQueueName = "ciziko_match_actions"

// Match action types recorded by the room coordinator.
const (
	ActionMatchStart  = "match_start"
	ActionTurnResult  = "turn_result"
	ActionTurnSkipped = "turn_skipped"
	ActionMatchEnd    = "match_end"
)

// MatchActionRecord is one entry of a match's history, consumed by the historian.
type MatchActionRecord struct {
	MatchID       uuid.UUID              `json:"match_id"`
	RoomCode      string                 `json:"room_code"`
	ActionIndex   int                    `json:"action_index"`
	ActionType    string                 `json:"action_type"`
	ActionPayload map[string]interface{} `json:"action_payload"`
	Timestamp     int64                  `json:"timestamp"`
}

// Publisher pushes match history records onto a Redis list.
type Publisher struct {
	rdb   *redis.Client
	queue string
}

// Connect creates a Redis client for addr/db and verifies it with a ping.
func Connect(ctx context.Context, addr string, db int) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr: addr,
		DB:   db,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("failed to connect to Redis at %s: %w", addr, err)
	}
	return rdb, nil
}

// NewPublisher wraps an existing client. An empty queue name falls back to DefaultQueueName.
func NewPublisher(rdb *redis.Client, queue string) *Publisher {
	if queue == "" {
		queue = DefaultQueueName
	}
	return &Publisher{rdb: rdb, queue: queue}
}

// Queue returns the list name records are pushed to.
func (p *Publisher) Queue() string {
	return p.queue
}

// PublishMatchAction serializes the record to JSON and appends it to the queue.
func (p *Publisher) PublishMatchAction(ctx context.Context, rec MatchActionRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal MatchActionRecord: %w", err)
	}
	if err := p.rdb.RPush(ctx, p.queue, data).Err(); err != nil {
		return fmt.Errorf("failed to RPush to Redis list '%s': %w", p.queue, err)
	}
	return nil
}

// DecodeMatchAction parses a record popped from the queue.
func DecodeMatchAction(data []byte) (MatchActionRecord, error) {
	var rec MatchActionRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return rec, fmt.Errorf("invalid match action record: %w", err)
	}
	if rec.MatchID == uuid.Nil {
		return rec, fmt.Errorf("invalid match action record: missing match_id")
	}
	return rec, nil
}
