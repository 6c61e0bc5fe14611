// internal/idle/monitor.go
package idle

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Defaults used when the configured values are not positive.
const (
	DefaultThreshold = 45 * time.Second
	DefaultTick      = 10 * time.Second
)

// ResolveFunc maps a connection to the room and player it currently plays as.
// ok is false when the connection is not in a room.
type ResolveFunc func(connID uuid.UUID) (roomCode string, playerID uuid.UUID, ok bool)

// UnreadyFunc clears the ready flag of an idle player.
type UnreadyFunc func(roomCode string, playerID uuid.UUID)

// WarnFunc tells an idle connection it was flagged, with how long it had been quiet.
type WarnFunc func(connID uuid.UUID, idleFor time.Duration)

// Monitor tracks when each connection last sent anything and force-unreadies players who
// stay quiet longer than Threshold. A flagged connection's clock is reset, so it is flagged
// at most once per idle period.
type Monitor struct {
	Threshold time.Duration
	Tick      time.Duration

	Resolve ResolveFunc
	Unready UnreadyFunc
	Warn    WarnFunc

	mu       sync.Mutex
	lastSeen map[uuid.UUID]time.Time
	now      func() time.Time
	logger   *logrus.Logger
}

// NewMonitor creates a monitor. Callbacks are set on the returned value before Run.
func NewMonitor(threshold, tick time.Duration, logger *logrus.Logger) *Monitor {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	if tick <= 0 {
		tick = DefaultTick
	}
	return &Monitor{
		Threshold: threshold,
		Tick:      tick,
		lastSeen:  make(map[uuid.UUID]time.Time),
		now:       time.Now,
		logger:    logger,
	}
}

// Touch records activity on a connection.
func (m *Monitor) Touch(connID uuid.UUID) {
	m.mu.Lock()
	m.lastSeen[connID] = m.now()
	m.mu.Unlock()
}

// Forget stops tracking a closed connection.
func (m *Monitor) Forget(connID uuid.UUID) {
	m.mu.Lock()
	delete(m.lastSeen, connID)
	m.mu.Unlock()
}

// Tracked returns the number of connections being watched.
func (m *Monitor) Tracked() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.lastSeen)
}

type idleConn struct {
	id      uuid.UUID
	idleFor time.Duration
}

// Check runs one sweep and returns how many connections were flagged. Callbacks are
// invoked after the monitor's lock is released.
func (m *Monitor) Check() int {
	now := m.now()

	m.mu.Lock()
	var flagged []idleConn
	for id, seen := range m.lastSeen {
		if idleFor := now.Sub(seen); idleFor > m.Threshold {
			flagged = append(flagged, idleConn{id: id, idleFor: idleFor})
			m.lastSeen[id] = now
		}
	}
	m.mu.Unlock()

	for _, c := range flagged {
		if m.Resolve == nil {
			continue
		}
		code, playerID, ok := m.Resolve(c.id)
		if !ok {
			continue
		}
		m.logger.WithFields(logrus.Fields{
			"room":   code,
			"player": playerID,
			"idle":   c.idleFor.Round(time.Second),
		}).Info("idle player forced unready")
		if m.Unready != nil {
			m.Unready(code, playerID)
		}
		if m.Warn != nil {
			m.Warn(c.id, c.idleFor)
		}
	}
	return len(flagged)
}

// Run sweeps every Tick until ctx is cancelled.
func (m *Monitor) Run(ctx context.Context) {
	ticker := time.NewTicker(m.Tick)
	defer ticker.Stop()

	m.logger.Infof("idle monitor started (threshold %s, tick %s)", m.Threshold, m.Tick)
	for {
		select {
		case <-ctx.Done():
			m.logger.Info("idle monitor stopped")
			return
		case <-ticker.C:
			m.Check()
		}
	}
}
