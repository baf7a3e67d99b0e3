package scheduler

import (
	"fmt"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/nidhogg/autoposter/internal/chance"
)

// Zone is a reference audience timezone.
type Zone struct {
	Name     string
	Location *time.Location
}

// DefaultZones are the audiences the timing heuristic tracks.
var DefaultZones = []Zone{
	mustZone("US/Eastern", "America/New_York"),
	mustZone("US/Pacific", "America/Los_Angeles"),
	mustZone("Europe/London", "Europe/London"),
	mustZone("Asia/Tokyo", "Asia/Tokyo"),
}

func mustZone(name, tz string) Zone {
	loc, err := time.LoadLocation(tz)
	if err != nil {
		panic(fmt.Sprintf("load zone %s: %v", tz, err))
	}
	return Zone{Name: name, Location: loc}
}

type window struct {
	name       string
	start, end int
}

// optimalWindows are local dayparts, inclusive on both ends.
var optimalWindows = []window{
	{"morning", 7, 10},
	{"lunch", 11, 14},
	{"evening", 17, 21},
	{"late", 21, 23},
}

var primeHours = map[int]bool{12: true, 13: true, 14: true, 19: true, 20: true, 21: true}

const (
	opportunisticChance = 0.3
	minInterval         = 5 * time.Minute
)

// Timing decides when to post and how long to wait between cycles.
type Timing struct {
	zones []Zone
	rnd   chance.Source
}

// NewTiming creates a Timing over zones; nil means DefaultZones.
func NewTiming(zones []Zone, rnd chance.Source) *Timing {
	if zones == nil {
		zones = DefaultZones
	}
	return &Timing{zones: zones, rnd: rnd}
}

// ShouldPostNow reports whether now is a good moment to post and why.
// The fixed UTC rules (global prime time, low-activity band) are checked
// before the per-zone dayparts.
func (t *Timing) ShouldPostNow(now time.Time) (bool, string) {
	hour := now.UTC().Hour()
	if primeHours[hour] {
		return true, fmt.Sprintf("global prime time (%02d:00 UTC)", hour)
	}
	if hour >= 2 && hour <= 6 {
		return false, fmt.Sprintf("low activity hours (%02d:00 UTC)", hour)
	}
	if active := t.activeZones(now); len(active) >= 2 {
		return true, "peak hours in " + strings.Join(active, ", ")
	}
	if chance.Chance(t.rnd, opportunisticChance) {
		return true, "opportunistic post"
	}
	return false, fmt.Sprintf("waiting for peak hours (%02d:00 UTC)", hour)
}

// activeZones lists zones currently inside an optimal window, one entry
// per zone.
func (t *Timing) activeZones(now time.Time) []string {
	var out []string
	for _, z := range t.zones {
		h := now.In(z.Location).Hour()
		for _, w := range optimalWindows {
			if h >= w.start && h <= w.end {
				out = append(out, z.Name+" "+w.name)
				break
			}
		}
	}
	return out
}

// SmartInterval returns the wait before the next cycle: a base chosen by
// UTC hour plus a random offset of -5 to +10 minutes, never below 5 minutes.
func (t *Timing) SmartInterval(now time.Time) time.Duration {
	hour := now.UTC().Hour()
	var base time.Duration
	switch {
	case primeHours[hour]:
		base = 15 * time.Minute
	case hour >= 7 && hour <= 22:
		base = 25 * time.Minute
	default:
		base = 45 * time.Minute
	}
	offset := time.Duration(chance.Between(t.rnd, -300, 600)) * time.Second
	return max(minInterval, base+offset)
}
