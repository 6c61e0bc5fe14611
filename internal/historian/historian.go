// internal/historian/historian.go is an asynchronous historian service that pops match
// records from a Redis queue and persists them to PostgreSQL in batches.
package historian

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jason-s-yu/ciziko/internal/cache"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// Sink persists match history. database.MatchStore is the production implementation.
type Sink interface {
	SaveActions(ctx context.Context, recs []cache.MatchActionRecord) error
	MarkAbandoned(ctx context.Context, matchID uuid.UUID) (bool, error)
}

// Service drains the history queue. Records are buffered and written in one transaction
// once BatchSize is reached or every FlushDelay, whichever comes first.
type Service struct {
	BatchSize  int
	FlushDelay time.Duration
	// Inactivity is how long a match may go without records before it is marked abandoned.
	Inactivity time.Duration
	PopTimeout time.Duration
	SweepEvery time.Duration

	rdb    *redis.Client
	sink   Sink
	queue  string
	logger *logrus.Logger

	lastActivity sync.Map // map[uuid.UUID]time.Time

	batchMu sync.Mutex
	batch   []cache.MatchActionRecord

	now func() time.Time
}

// New constructs a service with default batching.
func New(rdb *redis.Client, sink Sink, queue string, logger *logrus.Logger) *Service {
	if queue == "" {
		queue = cache.DefaultQueueName
	}
	return &Service{
		BatchSize:  20,
		FlushDelay: 500 * time.Millisecond,
		Inactivity: 10 * time.Minute,
		PopTimeout: 3 * time.Second,
		SweepEvery: time.Minute,
		rdb:        rdb,
		sink:       sink,
		queue:      queue,
		logger:     logger,
		now:        time.Now,
	}
}

// Run reads the queue until ctx is cancelled, then flushes whatever is still buffered.
func (s *Service) Run(ctx context.Context) {
	s.logger.Infof("historian started on queue %s", s.queue)
	go s.inactivityLoop(ctx)
	s.readLoop(ctx)

	flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	s.Flush(flushCtx)
	s.logger.Info("historian stopped")
}

// readLoop uses BLPop with a timeout so cancellation and the flush ticker are noticed.
func (s *Service) readLoop(ctx context.Context) {
	if s.FlushDelay <= 0 {
		s.FlushDelay = 500 * time.Millisecond
	}
	ticker := time.NewTicker(s.FlushDelay)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case <-ticker.C:
			s.Flush(ctx)

		default:
			res, err := s.rdb.BLPop(ctx, s.PopTimeout, s.queue).Result()
			if err != nil {
				if !errors.Is(err, redis.Nil) && ctx.Err() == nil {
					s.logger.Errorf("BLPop: %v", err)
					time.Sleep(time.Second)
				}
				continue
			}
			if len(res) < 2 {
				continue
			}
			// res[0] is the queue name and res[1] the payload.
			s.Ingest(ctx, []byte(res[1]))
		}
	}
}

// Ingest decodes one queued record and adds it to the batch, flushing when full.
func (s *Service) Ingest(ctx context.Context, data []byte) {
	rec, err := cache.DecodeMatchAction(data)
	if err != nil {
		s.logger.Warnf("dropping record: %v", err)
		return
	}

	// Finished matches no longer need watching for abandonment.
	if rec.ActionType == cache.ActionMatchEnd {
		s.lastActivity.Delete(rec.MatchID)
	} else {
		s.lastActivity.Store(rec.MatchID, s.now())
	}

	s.batchMu.Lock()
	s.batch = append(s.batch, rec)
	full := len(s.batch) >= s.BatchSize
	s.batchMu.Unlock()

	if full {
		s.Flush(ctx)
	}
}

// Pending returns the number of buffered records.
func (s *Service) Pending() int {
	s.batchMu.Lock()
	defer s.batchMu.Unlock()
	return len(s.batch)
}

// Flush writes the current batch. A failed batch is logged and dropped.
func (s *Service) Flush(ctx context.Context) {
	s.batchMu.Lock()
	if len(s.batch) == 0 {
		s.batchMu.Unlock()
		return
	}
	batchCopy := make([]cache.MatchActionRecord, len(s.batch))
	copy(batchCopy, s.batch)
	s.batch = s.batch[:0]
	s.batchMu.Unlock()

	// Write outside the lock so Ingest keeps buffering during a slow transaction.
	if err := s.sink.SaveActions(ctx, batchCopy); err != nil {
		s.logger.Errorf("flush of %d records failed: %v", len(batchCopy), err)
		return
	}
	s.logger.Debugf("flushed %d records", len(batchCopy))
}

func (s *Service) inactivityLoop(ctx context.Context) {
	if s.SweepEvery <= 0 {
		return
	}
	ticker := time.NewTicker(s.SweepEvery)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.SweepInactive(ctx)
		}
	}
}

// SweepInactive marks matches abandoned once they have been silent longer than Inactivity.
// Returns how many were marked.
func (s *Service) SweepInactive(ctx context.Context) int {
	now := s.now()
	marked := 0
	s.lastActivity.Range(func(key, val interface{}) bool {
		matchID, ok1 := key.(uuid.UUID)
		last, ok2 := val.(time.Time)
		if !ok1 || !ok2 || now.Sub(last) <= s.Inactivity {
			return true
		}
		changed, err := s.sink.MarkAbandoned(ctx, matchID)
		if err != nil {
			s.logger.Warnf("failed to mark match %v abandoned: %v", matchID, err)
			return true
		}
		s.lastActivity.Delete(matchID)
		if changed {
			marked++
			s.logger.Infof("marked match %v abandoned after %s of inactivity", matchID, now.Sub(last).Round(time.Second))
		}
		return true
	})
	return marked
}
