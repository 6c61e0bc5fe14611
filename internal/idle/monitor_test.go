// internal/idle/monitor_test.go
package idle

import (
	"context"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

type unreadyCall struct {
	code     string
	playerID uuid.UUID
}

type recorder struct {
	mu       sync.Mutex
	unreadys []unreadyCall
	warns    map[uuid.UUID]time.Duration
}

func newTestMonitor(rooms map[uuid.UUID]string) (*Monitor, *fakeClock, *recorder) {
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	clock := &fakeClock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	rec := &recorder{warns: make(map[uuid.UUID]time.Duration)}

	m := NewMonitor(45*time.Second, 10*time.Second, logger)
	m.now = clock.Now
	m.Resolve = func(connID uuid.UUID) (string, uuid.UUID, bool) {
		code, ok := rooms[connID]
		return code, connID, ok
	}
	m.Unready = func(code string, playerID uuid.UUID) {
		rec.mu.Lock()
		defer rec.mu.Unlock()
		rec.unreadys = append(rec.unreadys, unreadyCall{code, playerID})
	}
	m.Warn = func(connID uuid.UUID, idleFor time.Duration) {
		rec.mu.Lock()
		defer rec.mu.Unlock()
		rec.warns[connID] = idleFor
	}
	return m, clock, rec
}

func TestMonitorFlagsIdleOncePerPeriod(t *testing.T) {
	a, b := uuid.New(), uuid.New()
	m, clock, rec := newTestMonitor(map[uuid.UUID]string{a: "R1", b: "R1"})

	m.Touch(a)
	m.Touch(b)

	clock.Advance(30 * time.Second)
	m.Touch(b)
	assert.Zero(t, m.Check(), "nobody idle yet")

	clock.Advance(20 * time.Second)
	assert.Equal(t, 1, m.Check())
	require.Len(t, rec.unreadys, 1)
	assert.Equal(t, unreadyCall{"R1", a}, rec.unreadys[0])
	assert.Equal(t, 50*time.Second, rec.warns[a])

	// The clock was reset, so the next sweep does not flag a again.
	clock.Advance(10 * time.Second)
	m.Check()
	assert.Len(t, rec.unreadys, 1)

	// b has been quiet for 30s; another 20s puts it over.
	clock.Advance(20 * time.Second)
	m.Check()
	require.Len(t, rec.unreadys, 2)
	assert.Equal(t, b, rec.unreadys[1].playerID)
}

func TestMonitorActivityPreventsFlag(t *testing.T) {
	a := uuid.New()
	m, clock, rec := newTestMonitor(map[uuid.UUID]string{a: "R1"})
	m.Touch(a)
	for i := 0; i < 10; i++ {
		clock.Advance(40 * time.Second)
		m.Touch(a)
		m.Check()
	}
	assert.Empty(t, rec.unreadys)
}

func TestMonitorUnresolvedOnlyResets(t *testing.T) {
	lonely := uuid.New()
	m, clock, rec := newTestMonitor(map[uuid.UUID]string{})
	m.Touch(lonely)

	clock.Advance(time.Minute)
	assert.Equal(t, 1, m.Check())
	assert.Empty(t, rec.unreadys)
	assert.Empty(t, rec.warns)

	clock.Advance(10 * time.Second)
	assert.Zero(t, m.Check(), "clock was reset")
}

func TestMonitorForget(t *testing.T) {
	a := uuid.New()
	m, clock, rec := newTestMonitor(map[uuid.UUID]string{a: "R1"})
	m.Touch(a)
	require.Equal(t, 1, m.Tracked())
	m.Forget(a)
	assert.Zero(t, m.Tracked())

	clock.Advance(time.Hour)
	m.Check()
	assert.Empty(t, rec.unreadys)
}

func TestMonitorDefaults(t *testing.T) {
	m := NewMonitor(0, -1, logrus.New())
	assert.Equal(t, DefaultThreshold, m.Threshold)
	assert.Equal(t, DefaultTick, m.Tick)
}

func TestMonitorRunStopsOnCancel(t *testing.T) {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	m := NewMonitor(time.Millisecond, time.Millisecond, logger)

	var mu sync.Mutex
	flagged := 0
	m.Resolve = func(connID uuid.UUID) (string, uuid.UUID, bool) { return "R1", connID, true }
	m.Unready = func(string, uuid.UUID) {
		mu.Lock()
		flagged++
		mu.Unlock()
	}
	m.Touch(uuid.New())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		m.Run(ctx)
		close(done)
	}()

	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return flagged > 0
	}, time.Second, 5*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
