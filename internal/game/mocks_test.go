package game

import (
	"io"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// manualScheduler is a fake clock. Callbacks only run from Advance, on the caller's
// goroutine, in deadline order.
type manualScheduler struct {
	mu    sync.Mutex
	now   time.Time
	tasks []*manualTask
	seq   int
}

type manualTask struct {
	s       *manualScheduler
	at      time.Time
	seq     int
	fn      func()
	stopped bool
	fired   bool
}

func newManualScheduler() *manualScheduler {
	return &manualScheduler{now: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}
}

func (s *manualScheduler) Now() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.now
}

func (s *manualScheduler) AfterFunc(d time.Duration, f func()) Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	t := &manualTask{s: s, at: s.now.Add(d), seq: s.seq, fn: f}
	s.tasks = append(s.tasks, t)
	return t
}

func (t *manualTask) Stop() bool {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	if t.stopped || t.fired {
		return false
	}
	t.stopped = true
	return true
}

// Advance moves the clock forward by d, running every task that comes due on the way.
func (s *manualScheduler) Advance(d time.Duration) {
	s.mu.Lock()
	target := s.now.Add(d)
	s.mu.Unlock()

	for {
		s.mu.Lock()
		var due []*manualTask
		for _, t := range s.tasks {
			if !t.stopped && !t.fired && !t.at.After(target) {
				due = append(due, t)
			}
		}
		if len(due) == 0 {
			s.now = target
			s.mu.Unlock()
			return
		}
		sort.Slice(due, func(i, j int) bool {
			if due[i].at.Equal(due[j].at) {
				return due[i].seq < due[j].seq
			}
			return due[i].at.Before(due[j].at)
		})
		next := due[0]
		next.fired = true
		s.now = next.at
		s.mu.Unlock()

		next.fn()
	}
}

// Pending counts tasks that are still scheduled.
func (s *manualScheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, t := range s.tasks {
		if !t.stopped && !t.fired {
			n++
		}
	}
	return n
}

// recordingNotifier collects events per recipient instead of sending them over a socket.
type recordingNotifier struct {
	mu     sync.Mutex
	events map[uuid.UUID][]Event
	all    []sentEvent
}

type sentEvent struct {
	to uuid.UUID
	ev Event
}

func newRecordingNotifier() *recordingNotifier {
	return &recordingNotifier{events: make(map[uuid.UUID][]Event)}
}

func (n *recordingNotifier) SendToPlayer(id uuid.UUID, ev Event) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events[id] = append(n.events[id], ev)
	n.all = append(n.all, sentEvent{to: id, ev: ev})
}

func (n *recordingNotifier) clear() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = make(map[uuid.UUID][]Event)
	n.all = nil
}

// ofType returns the events of type typ received by id.
func (n *recordingNotifier) ofType(id uuid.UUID, typ EventType) []Event {
	n.mu.Lock()
	defer n.mu.Unlock()
	var out []Event
	for _, ev := range n.events[id] {
		if ev.Type == typ {
			out = append(out, ev)
		}
	}
	return out
}

// last returns the most recent event of type typ received by id.
func (n *recordingNotifier) last(id uuid.UUID, typ EventType) (Event, bool) {
	evs := n.ofType(id, typ)
	if len(evs) == 0 {
		return Event{}, false
	}
	return evs[len(evs)-1], true
}

// countType counts events of type typ across all recipients.
func (n *recordingNotifier) countType(typ EventType) int {
	n.mu.Lock()
	defer n.mu.Unlock()
	c := 0
	for _, s := range n.all {
		if s.ev.Type == typ {
			c++
		}
	}
	return c
}

// fixedWords hands out w0, w1, ... in order, marking them used.
type fixedWords struct {
	mu   sync.Mutex
	next int
}

func (f *fixedWords) PickOptions(used map[string]struct{}, count int) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, count)
	for len(out) < count {
		w := "w" + strconv.Itoa(f.next)
		f.next++
		if _, ok := used[w]; ok {
			continue
		}
		used[w] = struct{}{}
		out = append(out, w)
	}
	return out
}

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}
