// internal/game/registry.go
package game

import (
	"sort"
	"sync"

	"github.com/sirupsen/logrus"
)

// Registry holds the live rooms of the process keyed by room code.
// It only guards its own map; room state is guarded by each room's lock.
type Registry struct {
	mu     sync.Mutex
	rooms  map[string]*Room
	logger *logrus.Logger
}

// NewRegistry returns an empty in-memory registry.
func NewRegistry(logger *logrus.Logger) *Registry {
	return &Registry{
		rooms:  make(map[string]*Room),
		logger: logger,
	}
}

// GetOrCreate returns the room for code, creating it on first use. A room that has been
// disposed but not yet removed is replaced by a fresh one.
func (s *Registry) GetOrCreate(code string) *Room {
	s.mu.Lock()
	defer s.mu.Unlock()
	if r, ok := s.rooms[code]; ok && !r.Disposed() {
		return r
	}
	r := NewRoom(code)
	s.rooms[code] = r
	s.logger.WithField("room", code).Info("room created")
	return r
}

// Get looks up a live room.
func (s *Registry) Get(code string) (*Room, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.rooms[code]
	if !ok || r.Disposed() {
		return nil, false
	}
	return r, true
}

// Remove deletes the entry for code only if it still points at r, so a room created after
// r was disposed is left alone.
func (s *Registry) Remove(code string, r *Room) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if cur, ok := s.rooms[code]; ok && cur == r {
		delete(s.rooms, code)
		s.logger.WithField("room", code).Info("room removed")
	}
}

// Rooms returns the live rooms ordered by code.
func (s *Registry) Rooms() []*Room {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*Room, 0, len(s.rooms))
	for _, r := range s.rooms {
		if !r.Disposed() {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out
}

// Len returns the number of registered rooms.
func (s *Registry) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.rooms)
}
