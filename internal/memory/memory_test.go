package memory

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestExactDuplicateIsTooSimilar(t *testing.T) {
	s := NewStore(10, 0.6, zap.NewNop())
	s.Record("p1", Entry{Content: "Beautiful sunset moment ✨ #sunset"})

	assert.True(t, s.IsTooSimilar("p1", "Beautiful sunset moment ✨ #sunset"))
	assert.True(t, s.IsTooSimilar("p1", "  beautiful  SUNSET moment ✨ #sunset "))
	assert.False(t, s.IsTooSimilar("p2", "Beautiful sunset moment ✨ #sunset"), "history is per persona")
}

func TestOverlapThreshold(t *testing.T) {
	s := NewStore(10, 0.6, zap.NewNop())
	s.Record("p1", Entry{Content: "Morning coffee by the window with a good book"})

	assert.True(t, s.IsTooSimilar("p1", "Morning coffee by the window with good book"))
	assert.False(t, s.IsTooSimilar("p1", "Exploring neon streets after midnight in Tokyo"))
}

func TestWindowEvictsOldest(t *testing.T) {
	s := NewStore(3, 0.6, zap.NewNop())
	posts := []string{"alpha bravo charlie", "delta echo foxtrot", "golf hotel india", "juliet kilo lima"}
	for i, p := range posts {
		s.Record("p1", Entry{Content: p, Topic: fmt.Sprintf("t%d", i)})
	}

	recent := s.Recent("p1")
	assert.Len(t, recent, 3)
	assert.Equal(t, "juliet kilo lima", recent[0].Content)
	assert.Equal(t, "delta echo foxtrot", recent[2].Content)
	assert.False(t, s.IsTooSimilar("p1", "alpha bravo charlie"))
	assert.True(t, s.IsTooSimilar("p1", "delta echo foxtrot"))

	last, ok := s.Last("p1")
	assert.True(t, ok)
	assert.Equal(t, "t3", last.Topic)
}

func TestForget(t *testing.T) {
	s := NewStore(0, 0, zap.NewNop())
	s.Record("p1", Entry{Content: "hello world again"})
	s.Forget("p1")
	_, ok := s.Last("p1")
	assert.False(t, ok)
}

func TestOverlapRatio(t *testing.T) {
	assert.Equal(t, 1.0, overlapRatio("a cat sat", "cat sat"))
	assert.Equal(t, 0.0, overlapRatio("", "cat"))
	assert.InDelta(t, 1.0/3.0, overlapRatio("red blue", "blue green"), 1e-9)
}

func TestTokenizeFoldsHashtags(t *testing.T) {
	assert.Equal(t, []string{"golden", "hour", "sunset", "café"}, tokenize("Golden hour ✨ #sunset #café!"))
	assert.Equal(t, 1.0, overlapRatio("sunset vibes", "#sunset #vibes"))
}
