// internal/game/history.go
package game

import (
	"context"
	"sync"
	"time"

	"github.com/jason-s-yu/ciziko/internal/cache"
	"github.com/sirupsen/logrus"
)

const (
	publishTimeout = 2 * time.Second

	// DefaultHistoryBuffer is how many records may wait for the publisher before new ones
	// are dropped.
	DefaultHistoryBuffer = 256
)

// historyQueue feeds match history records to the publisher from a single goroutine, so
// records reach the queue in the order they were logged.
type historyQueue struct {
	pub    ActionPublisher
	logger *logrus.Logger

	mu     sync.RWMutex
	closed bool
	ch     chan cache.MatchActionRecord
	done   chan struct{}
}

func newHistoryQueue(pub ActionPublisher, size int, logger *logrus.Logger) *historyQueue {
	if size <= 0 {
		size = DefaultHistoryBuffer
	}
	q := &historyQueue{
		pub:    pub,
		logger: logger,
		ch:     make(chan cache.MatchActionRecord, size),
		done:   make(chan struct{}),
	}
	go q.run()
	return q
}

// enqueue hands a record to the publishing goroutine without blocking. Returns false if the
// record was dropped because the buffer is full or the queue is closed.
func (q *historyQueue) enqueue(rec cache.MatchActionRecord) bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.closed {
		return false
	}
	select {
	case q.ch <- rec:
		return true
	default:
		return false
	}
}

func (q *historyQueue) run() {
	defer close(q.done)
	for rec := range q.ch {
		ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
		if err := q.pub.PublishMatchAction(ctx, rec); err != nil {
			q.logger.WithField("room", rec.RoomCode).
				Warnf("failed to publish match action %d (%s): %v", rec.ActionIndex, rec.ActionType, err)
		}
		cancel()
	}
}

// close stops accepting records and waits until the buffered ones are published.
func (q *historyQueue) close() {
	q.mu.Lock()
	if !q.closed {
		q.closed = true
		close(q.ch)
	}
	q.mu.Unlock()
	<-q.done
}

// logActionUnsafe records a match history entry. The record is built under the room lock
// and handed to the publishing goroutine so Redis latency never holds up the room.
func (c *Coordinator) logActionUnsafe(r *Room, actionType string, payload map[string]interface{}) {
	q := c.historyQueue()
	if q == nil {
		return
	}
	r.actionIndex++
	if payload == nil {
		payload = make(map[string]interface{})
	}
	rec := cache.MatchActionRecord{
		MatchID:       r.MatchID,
		RoomCode:      r.Code,
		ActionIndex:   r.actionIndex,
		ActionType:    actionType,
		ActionPayload: payload,
		Timestamp:     c.Scheduler.Now().UnixMilli(),
	}
	if !q.enqueue(rec) {
		c.log(r).Warnf("history queue full or closed, dropped match action %d (%s)", rec.ActionIndex, rec.ActionType)
	}
}

// historyQueue returns the publishing queue, starting it on first use. Nil when no
// publisher is configured or the coordinator was closed before anything was logged.
func (c *Coordinator) historyQueue() *historyQueue {
	if c.Publisher == nil {
		return nil
	}
	c.historyMu.Lock()
	defer c.historyMu.Unlock()
	if c.history == nil && !c.historyClosed {
		c.history = newHistoryQueue(c.Publisher, c.HistoryBuffer, c.Logger)
	}
	return c.history
}

// Close flushes pending match history records and stops the publishing goroutine. Records
// logged afterwards are dropped.
func (c *Coordinator) Close() {
	c.historyMu.Lock()
	q := c.history
	c.historyClosed = true
	c.historyMu.Unlock()
	if q != nil {
		q.close()
	}
}
