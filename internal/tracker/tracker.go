// Package tracker remembers which images have already been posted so no two
// posts share a photo, even when a provider returns the same photo under a
// different URL variant.
package tracker

import (
	"net/url"
	"strings"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"
)

// DefaultCapacity bounds memory when no capacity is configured.
const DefaultCapacity = 50000

// Record identifies a consumed image.
type Record struct {
	ID       string    `json:"id"`
	URL      string    `json:"url"`
	MarkedAt time.Time `json:"marked_at"`
}

// Stats reports tracker size.
type Stats struct {
	Tracked  int `json:"tracked_count"`
	Capacity int `json:"capacity"`
}

// Tracker is a process-wide registry of used images. It holds at most
// capacity records and evicts the least recently marked one when full.
type Tracker struct {
	records  *lru.Cache[string, Record] // record key -> record
	byURL    map[string]string          // canonical url -> record key
	capacity int
	now      func() time.Time
	mu       sync.Mutex
	logger   *zap.Logger
}

// New creates a tracker holding up to capacity images.
func New(capacity int, logger *zap.Logger) *Tracker {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	t := &Tracker{
		byURL:    make(map[string]string),
		capacity: capacity,
		now:      time.Now,
		logger:   logger,
	}
	// The eviction callback runs inside Add, which is only called with mu held.
	cache, err := lru.NewWithEvict(capacity, func(_ string, r Record) {
		if r.URL != "" {
			delete(t.byURL, r.URL)
		}
	})
	if err != nil {
		// only returned for a non-positive size
		panic(err)
	}
	t.records = cache
	return t
}

// IsUsed reports whether an image with this provider ID or this URL has been
// marked. Either match counts.
func (t *Tracker) IsUsed(id, rawURL string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.usedLocked(id, Canonical(rawURL))
}

// MarkUsed records the image. Marking an already-used image is a no-op.
func (t *Tracker) MarkUsed(id, rawURL string) {
	t.Claim(id, rawURL)
}

// Claim atomically checks and marks the image. It returns true when the
// caller is the first to use it.
func (t *Tracker) Claim(id, rawURL string) bool {
	canon := Canonical(rawURL)
	if id == "" && canon == "" {
		return false
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if t.usedLocked(id, canon) {
		return false
	}
	key := id
	if key == "" {
		key = "url:" + canon
	}
	t.records.Add(key, Record{ID: id, URL: canon, MarkedAt: t.now()})
	if canon != "" {
		t.byURL[canon] = key
	}
	return true
}

func (t *Tracker) usedLocked(id, canon string) bool {
	if id != "" && t.records.Contains(id) {
		return true
	}
	if canon != "" {
		if _, ok := t.byURL[canon]; ok {
			return true
		}
	}
	return false
}

// Stats returns the number of tracked images.
func (t *Tracker) Stats() Stats {
	t.mu.Lock()
	defer t.mu.Unlock()
	return Stats{Tracked: t.records.Len(), Capacity: t.capacity}
}

// Reset forgets every record.
func (t *Tracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.records.Purge()
	t.byURL = make(map[string]string)
	t.logger.Info("image tracker reset")
}

// Canonical normalizes an image URL: lower-case scheme and host, no query
// string or fragment, no trailing slash. Providers append sizing and
// tracking parameters to the same underlying photo.
func Canonical(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return strings.ToLower(raw)
	}
	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)
	u.RawQuery = ""
	u.Fragment = ""
	u.Path = strings.TrimRight(u.Path, "/")
	return u.String()
}
