// internal/game/scheduler.go
package game

import "time"

// Task is a single scheduled callback that can be cancelled.
// Stop reports whether the call prevented the callback from running.
type Task interface {
	Stop() bool
}

// Scheduler runs callbacks in the future. The production implementation is backed by
// time.AfterFunc; tests substitute a manually advanced clock.
type Scheduler interface {
	Now() time.Time
	AfterFunc(d time.Duration, f func()) Task
}

type wallScheduler struct{}

// WallClock returns a Scheduler backed by the real clock.
func WallClock() Scheduler {
	return wallScheduler{}
}

func (wallScheduler) Now() time.Time {
	return time.Now()
}

func (wallScheduler) AfterFunc(d time.Duration, f func()) Task {
	return time.AfterFunc(d, f)
}

// stopTask stops t if it is set. Safe to call with a nil task.
func stopTask(t Task) {
	if t != nil {
		t.Stop()
	}
}
