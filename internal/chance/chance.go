// Package chance provides the random source used by every probabilistic
// policy in the poster. Production code uses a time-seeded source; tests
// inject a fixed seed or a scripted source to force branches.
package chance

import (
	"math/rand/v2"
	"sync"
	"time"
)

// Source is the subset of randomness the poster needs.
type Source interface {
	// Float64 returns a value in [0.0, 1.0).
	Float64() float64
	// IntN returns a value in [0, n). n must be > 0.
	IntN(n int) int
}

// lockedSource serializes access to a *rand.Rand so the scheduler loop and
// manual triggers can share it.
type lockedSource struct {
	mu sync.Mutex
	r  *rand.Rand
}

// New returns a Source seeded from the wall clock.
func New() Source {
	return NewSeeded(uint64(time.Now().UnixNano()))
}

// NewSeeded returns a deterministic Source.
func NewSeeded(seed uint64) Source {
	return &lockedSource{r: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

func (s *lockedSource) Float64() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.r.Float64()
}

func (s *lockedSource) IntN(n int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.r.IntN(n)
}

// Between returns a value in [lo, hi] inclusive.
func Between(src Source, lo, hi int) int {
	if hi <= lo {
		return lo
	}
	return lo + src.IntN(hi-lo+1)
}

// Chance reports whether an event with probability p happens.
func Chance(src Source, p float64) bool {
	return src.Float64() < p
}

// Pick returns a uniformly chosen element. It panics on an empty slice.
func Pick[T any](src Source, items []T) T {
	return items[src.IntN(len(items))]
}

// Shuffle permutes items in place (Fisher-Yates).
func Shuffle[T any](src Source, items []T) {
	for i := len(items) - 1; i > 0; i-- {
		j := src.IntN(i + 1)
		items[i], items[j] = items[j], items[i]
	}
}

// Sample returns up to n distinct elements in random order without
// modifying items.
func Sample[T any](src Source, items []T, n int) []T {
	cp := make([]T, len(items))
	copy(cp, items)
	Shuffle(src, cp)
	if n > len(cp) {
		n = len(cp)
	}
	return cp[:n]
}

// Scripted replays fixed Float64 values (then repeats the last one) and
// returns IntN results from ints, falling back to 0. Useful in tests that
// need to force a particular branch.
type Scripted struct {
	mu     sync.Mutex
	Floats []float64
	Ints   []int
	fi, ii int
}

func (s *Scripted) Float64() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.Floats) == 0 {
		return 0
	}
	v := s.Floats[min(s.fi, len(s.Floats)-1)]
	s.fi++
	return v
}

func (s *Scripted) IntN(n int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ii >= len(s.Ints) {
		return 0
	}
	v := s.Ints[s.ii]
	s.ii++
	if v >= n {
		v = n - 1
	}
	if v < 0 {
		v = 0
	}
	return v
}
