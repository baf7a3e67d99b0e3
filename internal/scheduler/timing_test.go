package scheduler

import (
	"testing"
	"time"

	"github.com/nidhogg/autoposter/internal/chance"
	"github.com/stretchr/testify/assert"
)

func at(hour int) time.Time {
	return time.Date(2026, 10, 12, hour, 0, 0, 0, time.UTC)
}

func TestShouldPostNowPrimeTimeIgnoresDraw(t *testing.T) {
	for _, draw := range []float64{0, 0.5, 0.99} {
		timing := NewTiming(nil, &chance.Scripted{Floats: []float64{draw}})
		ok, reason := timing.ShouldPostNow(at(13))
		assert.True(t, ok)
		assert.Contains(t, reason, "prime time")
	}
}

func TestShouldPostNowLowActivity(t *testing.T) {
	timing := NewTiming(nil, &chance.Scripted{Floats: []float64{0.99}})
	ok, reason := timing.ShouldPostNow(at(4))
	assert.False(t, ok)
	assert.Contains(t, reason, "low activity")
}

func TestShouldPostNowZones(t *testing.T) {
	timing := NewTiming(nil, &chance.Scripted{Floats: []float64{0.99}})
	// 16:00 UTC: New York 12, Los Angeles 09, London 17.
	ok, reason := timing.ShouldPostNow(at(16))
	assert.True(t, ok)
	assert.Contains(t, reason, "US/Eastern lunch")
	assert.Contains(t, reason, "Europe/London evening")
}

func TestShouldPostNowOpportunistic(t *testing.T) {
	// 07:00 UTC only London is inside a window.
	ok, reason := NewTiming(nil, &chance.Scripted{Floats: []float64{0.1}}).ShouldPostNow(at(7))
	assert.True(t, ok)
	assert.Equal(t, "opportunistic post", reason)

	ok, reason = NewTiming(nil, &chance.Scripted{Floats: []float64{0.9}}).ShouldPostNow(at(7))
	assert.False(t, ok)
	assert.Contains(t, reason, "waiting")
}

func TestShouldPostNowCustomZones(t *testing.T) {
	utc := []Zone{{Name: "a", Location: time.UTC}, {Name: "b", Location: time.UTC}}
	ok, reason := NewTiming(utc, &chance.Scripted{Floats: []float64{0.99}}).ShouldPostNow(at(9))
	assert.True(t, ok)
	assert.Equal(t, "peak hours in a morning, b morning", reason)
}

func TestSmartIntervalBounds(t *testing.T) {
	assert.Equal(t, 10*time.Minute, NewTiming(nil, &chance.Scripted{Ints: []int{0}}).SmartInterval(at(20)))
	assert.Equal(t, 35*time.Minute, NewTiming(nil, &chance.Scripted{Ints: []int{900}}).SmartInterval(at(8)))
	assert.Equal(t, 40*time.Minute, NewTiming(nil, &chance.Scripted{Ints: []int{0}}).SmartInterval(at(3)))

	for seed := uint64(0); seed < 200; seed++ {
		timing := NewTiming(nil, chance.NewSeeded(seed))
		for h := 0; h < 24; h++ {
			assert.GreaterOrEqual(t, timing.SmartInterval(at(h)), 5*time.Minute)
		}
	}
}
