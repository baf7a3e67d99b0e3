// Package memory keeps a short rolling history of each persona's posts so
// the content pipeline can avoid publishing near-identical captions.
package memory

import (
	"sync"
	"time"

	"go.uber.org/zap"
)

const (
	DefaultWindow    = 10
	DefaultThreshold = 0.6
)

// Entry is one remembered post.
type Entry struct {
	Content     string    `json:"content"`
	Topic       string    `json:"topic,omitempty"`
	Mood        string    `json:"mood,omitempty"`
	TimeContext string    `json:"time_context,omitempty"`
	RecordedAt  time.Time `json:"recorded_at"`
}

// Store holds per-persona history, most recent first, bounded to window
// entries per persona.
type Store struct {
	history   map[string][]Entry
	window    int
	threshold float64
	mu        sync.RWMutex
	logger    *zap.Logger
}

// NewStore creates a memory store. Non-positive arguments select defaults.
func NewStore(window int, threshold float64, logger *zap.Logger) *Store {
	if window <= 0 {
		window = DefaultWindow
	}
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	return &Store{
		history:   make(map[string][]Entry),
		window:    window,
		threshold: threshold,
		logger:    logger,
	}
}

// Record pushes content to the front of the persona's history and drops
// the oldest entry once the window is exceeded.
func (s *Store) Record(personaID string, e Entry) {
	if e.RecordedAt.IsZero() {
		e.RecordedAt = time.Now()
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	h := append([]Entry{e}, s.history[personaID]...)
	if len(h) > s.window {
		h = h[:s.window]
	}
	s.history[personaID] = h
}

// IsTooSimilar reports whether candidate duplicates, or overlaps above the
// threshold with, any retained post of the persona.
func (s *Store) IsTooSimilar(personaID, candidate string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	norm := normalize(candidate)
	for _, e := range s.history[personaID] {
		if normalize(e.Content) == norm {
			return true
		}
		if ratio := overlapRatio(e.Content, candidate); ratio > s.threshold {
			s.logger.Debug("candidate too similar",
				zap.String("persona", personaID),
				zap.Float64("overlap", ratio))
			return true
		}
	}
	return false
}

// Recent returns a copy of the persona's retained history.
func (s *Store) Recent(personaID string) []Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Entry(nil), s.history[personaID]...)
}

// Last returns the most recent entry.
func (s *Store) Last(personaID string) (Entry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	h := s.history[personaID]
	if len(h) == 0 {
		return Entry{}, false
	}
	return h[0], true
}

// Forget drops a persona's history.
func (s *Store) Forget(personaID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.history, personaID)
}
