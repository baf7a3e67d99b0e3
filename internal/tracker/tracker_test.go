package tracker

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestMarkUsedIsIdempotent(t *testing.T) {
	tr := New(10, zap.NewNop())
	tr.MarkUsed("abc", "https://images.example.com/photo-1?w=1080")
	tr.MarkUsed("abc", "https://images.example.com/photo-1?w=1080")

	assert.True(t, tr.IsUsed("abc", ""))
	assert.True(t, tr.IsUsed("", "https://images.example.com/photo-1"))
	assert.Equal(t, 1, tr.Stats().Tracked)
}

func TestIsUsedMatchesEitherKey(t *testing.T) {
	tr := New(10, zap.NewNop())
	tr.MarkUsed("id-1", "https://cdn.example.com/a.jpg")

	// same photo, different id from another provider
	assert.True(t, tr.IsUsed("other-id", "https://CDN.example.com/a.jpg?ixid=123#frag"))
	// same id, different URL variant
	assert.True(t, tr.IsUsed("id-1", "https://cdn.example.com/a-small.jpg"))
	assert.False(t, tr.IsUsed("id-2", "https://cdn.example.com/b.jpg"))
}

func TestClaimOnlyOnce(t *testing.T) {
	tr := New(100, zap.NewNop())
	var wg sync.WaitGroup
	wins := make(chan bool, 50)
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			wins <- tr.Claim("shared", "https://cdn.example.com/shared.jpg")
		}()
	}
	wg.Wait()
	close(wins)

	won := 0
	for w := range wins {
		if w {
			won++
		}
	}
	assert.Equal(t, 1, won)
}

func TestEvictsLeastRecentlyMarked(t *testing.T) {
	tr := New(3, zap.NewNop())
	for i := 0; i < 4; i++ {
		tr.MarkUsed(fmt.Sprintf("id-%d", i), fmt.Sprintf("https://cdn.example.com/%d.jpg", i))
	}
	assert.Equal(t, 3, tr.Stats().Tracked)
	assert.False(t, tr.IsUsed("id-0", "https://cdn.example.com/0.jpg"))
	assert.True(t, tr.IsUsed("id-3", ""))
}

func TestClaimRejectsEmptyIdentity(t *testing.T) {
	tr := New(3, zap.NewNop())
	assert.False(t, tr.Claim("", ""))
	assert.Equal(t, 0, tr.Stats().Tracked)
}

func TestReset(t *testing.T) {
	tr := New(3, zap.NewNop())
	tr.MarkUsed("x", "https://cdn.example.com/x.jpg")
	tr.Reset()
	assert.False(t, tr.IsUsed("x", "https://cdn.example.com/x.jpg"))
}

func TestCanonical(t *testing.T) {
	assert.Equal(t, "https://images.unsplash.com/photo-1", Canonical("HTTPS://Images.Unsplash.com/photo-1/?w=400&q=80"))
	assert.Equal(t, "", Canonical("  "))
}
