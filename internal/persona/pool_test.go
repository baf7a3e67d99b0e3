package persona

import (
	"sync"
	"testing"
	"time"

	"github.com/nidhogg/autoposter/internal/chance"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestPool(t *testing.T, rnd chance.Source) *Pool {
	t.Helper()
	if rnd == nil {
		rnd = chance.NewSeeded(42)
	}
	return NewPool(Options{MinSize: 5, MaxGrowthPerRun: 5}, rnd, zap.NewNop())
}

func TestParseTypeFallsBackToLifestyle(t *testing.T) {
	assert.Equal(t, TypeArtist, ParseType(" Artist "))
	assert.Equal(t, TypeLifestyle, ParseType("influencer"))
	assert.Equal(t, TypeLifestyle, ParseType(""))
}

func TestSeedsRegistered(t *testing.T) {
	pool := newTestPool(t, nil)
	st := pool.Stats()
	assert.Equal(t, len(Seeds), st.ActivePersonas)
	assert.Equal(t, len(Seeds), st.TotalPersonas)
	for _, p := range pool.List() {
		assert.NotEmpty(t, p.ID)
		assert.NotEmpty(t, p.Avatar)
		assert.True(t, p.Active)
	}
}

func TestSelectForRunIsDistinctWithinRun(t *testing.T) {
	for seed := uint64(0); seed < 20; seed++ {
		pool := newTestPool(t, chance.NewSeeded(seed))
		size := len(pool.Active())
		used := map[string]struct{}{}
		for i := 0; i < size; i++ {
			p := pool.SelectForRun(used)
			_, dup := used[p.ID]
			require.False(t, dup, "persona %s selected twice", p.Handle)
			used[p.ID] = struct{}{}
		}
		assert.Equal(t, size, len(pool.List()), "no growth expected while pool has free personas")
	}
}

func TestSelectForRunGrowsThenReuses(t *testing.T) {
	pool := NewPool(Options{MinSize: 5, MaxGrowthPerRun: 6}, chance.NewSeeded(3), zap.NewNop())
	used := map[string]struct{}{}
	for _, p := range pool.Active() {
		used[p.ID] = struct{}{}
	}

	grown := pool.SelectForRun(used)
	_, known := used[grown.ID]
	assert.False(t, known)
	assert.Len(t, pool.List(), 6)
	used[grown.ID] = struct{}{}

	// six used personas reach the growth cap, so the pool stops growing
	again := pool.SelectForRun(used)
	_, known = used[again.ID]
	assert.True(t, known)
	assert.Len(t, pool.List(), 6)
}

func TestSelectByExpertisePrefersTopScorer(t *testing.T) {
	rnd := &chance.Scripted{Floats: []float64{0.1}}
	pool := newTestPool(t, rnd)
	p := pool.SelectByExpertise("travel adventure", nil)
	assert.Equal(t, "maya_wanderlust", p.Handle)
}

func TestSelectByExpertiseRandomBranch(t *testing.T) {
	// 0.95 fails the 0.8 bias, so the first active persona (Ints default 0) wins
	rnd := &chance.Scripted{Floats: []float64{0.95}}
	pool := newTestPool(t, rnd)
	p := pool.SelectByExpertise("travel adventure", nil)
	assert.Equal(t, pool.Active()[0].ID, p.ID)
}

func TestExpertiseScore(t *testing.T) {
	assert.Equal(t, 2, expertiseScore([]string{"travel"}, "travel tips", []string{"travel", "tips"}))
	assert.Equal(t, 1, expertiseScore([]string{"photography"}, "photo", []string{"photo"}))
	assert.Equal(t, 0, expertiseScore([]string{"food"}, "city", []string{"city"}))
}

func TestUpdateActivityAndCleanup(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	pool := NewPool(Options{MinSize: 5, RemoveAfter: time.Hour}, chance.NewSeeded(1), zap.NewNop())
	pool.SetClock(func() time.Time { return now })

	target := pool.Active()[0]
	pool.UpdateActivity(target.ID, false)
	assert.Equal(t, 0, pool.CleanupInactive(), "single failure must not retire")

	for i := 0; i < 5; i++ {
		pool.UpdateActivity(target.ID, false)
	}
	healthy := pool.Active()[1]
	pool.UpdateActivity(healthy.ID, true)

	assert.Equal(t, 1, pool.CleanupInactive())
	got, ok := pool.Get(target.ID)
	require.True(t, ok)
	assert.False(t, got.Active)
	assert.Less(t, got.Engagement, 0.5)

	h, _ := pool.Get(healthy.ID)
	assert.Equal(t, 1, h.TotalPosts)
	assert.Equal(t, now, h.LastActive)

	now = now.Add(2 * time.Hour)
	pool.CleanupInactive()
	_, ok = pool.Get(target.ID)
	assert.False(t, ok, "retired persona should be removed after RemoveAfter")

	assert.Equal(t, 1, pool.EnsureMinimum())
	assert.Equal(t, 5, pool.Stats().ActivePersonas)
}

func TestEmptyPoolCreatesPersona(t *testing.T) {
	pool := newTestPool(t, nil)
	for _, p := range pool.Active() {
		for i := 0; i < minOutcomes; i++ {
			pool.UpdateActivity(p.ID, false)
		}
	}
	require.Equal(t, len(Seeds), pool.CleanupInactive())
	require.Empty(t, pool.Active())

	p := pool.SelectForRun(nil)
	assert.True(t, p.Active)
	assert.Len(t, pool.Active(), 1)

	q := pool.SelectByExpertise("anything", nil)
	assert.True(t, q.Active)
}

func TestGenerateUsesKnownType(t *testing.T) {
	src := chance.NewSeeded(9)
	for i := 0; i < 50; i++ {
		g := Generate(src)
		assert.Equal(t, g.Type, ParseType(string(g.Type)))
		assert.NotEmpty(t, g.Handle)
		assert.Len(t, g.Interests, 3)
	}
}

func TestSelectByExpertiseSkipsExcluded(t *testing.T) {
	rnd := &chance.Scripted{Floats: []float64{0.1}}
	pool := newTestPool(t, rnd)
	first := pool.SelectByExpertise("travel adventure", nil)
	require.Equal(t, "maya_wanderlust", first.Handle)

	next := pool.SelectByExpertise("travel adventure", map[string]struct{}{first.ID: {}})
	assert.NotEqual(t, first.ID, next.ID)

	// with everyone excluded the whole pool is eligible again
	all := map[string]struct{}{}
	for _, p := range pool.Active() {
		all[p.ID] = struct{}{}
	}
	again := pool.SelectByExpertise("travel adventure", all)
	assert.Equal(t, "maya_wanderlust", again.Handle)
}

func TestConcurrentSelectForRun(t *testing.T) {
	pool := newTestPool(t, chance.NewSeeded(5))
	size := len(pool.Active())

	var wg sync.WaitGroup
	errs := make(chan string, 8*size)
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			used := map[string]struct{}{}
			for i := 0; i < size; i++ {
				p := pool.SelectForRun(used)
				if _, dup := used[p.ID]; dup {
					errs <- p.Handle
				}
				used[p.ID] = struct{}{}
				pool.UpdateActivity(p.ID, true)
			}
		}()
	}
	wg.Wait()
	close(errs)

	for handle := range errs {
		t.Errorf("persona %s selected twice within one run", handle)
	}
	st := pool.Stats()
	assert.Equal(t, size, st.TotalPersonas, "no growth while free personas remain")
	assert.Equal(t, 8*size, st.TotalPosts)
}
