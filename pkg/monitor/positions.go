package monitor

import (
	"fmt"

	"github.com/safetravel/groupwatch/pkg/models"
)

// Entry is one member's position in insertion order
type Entry struct {
	Username string
	Position models.Position
}

// PositionStore holds the current position of every group member.
// It is not safe for concurrent use; Session serializes access.
type PositionStore struct {
	order     []string
	positions map[string]models.Position
}

// NewPositionStore creates an empty store
func NewPositionStore() *PositionStore {
	return &PositionStore{positions: make(map[string]models.Position)}
}

// Get returns the position of username or ErrNotFound
func (s *PositionStore) Get(username string) (models.Position, error) {
	pos, ok := s.positions[username]
	if !ok {
		return models.Position{}, fmt.Errorf("position for %s: %w", username, ErrNotFound)
	}
	return pos, nil
}

// Set upserts the position of username; new usernames go to the end
func (s *PositionStore) Set(username string, pos models.Position) {
	if _, ok := s.positions[username]; !ok {
		s.order = append(s.order, username)
	}
	s.positions[username] = pos
}

// Remove deletes username, reporting whether it was present
func (s *PositionStore) Remove(username string) bool {
	if _, ok := s.positions[username]; !ok {
		return false
	}
	delete(s.positions, username)
	for i, u := range s.order {
		if u == username {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return true
}

// Has reports whether username has a position
func (s *PositionStore) Has(username string) bool {
	_, ok := s.positions[username]
	return ok
}

// Len returns the number of positions
func (s *PositionStore) Len() int { return len(s.order) }

// All returns every position in insertion order
func (s *PositionStore) All() []Entry {
	entries := make([]Entry, 0, len(s.order))
	for _, u := range s.order {
		entries = append(entries, Entry{Username: u, Position: s.positions[u]})
	}
	return entries
}

// Snapshot copies the positions into a map for the wire
func (s *PositionStore) Snapshot() map[string]models.Position {
	snap := make(map[string]models.Position, len(s.positions))
	for u, p := range s.positions {
		snap[u] = p
	}
	return snap
}
