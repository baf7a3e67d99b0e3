package content

import (
	"strings"
	"time"

	"github.com/nidhogg/autoposter/internal/chance"
	"github.com/nidhogg/autoposter/internal/persona"
)

// personaTopics are the topics each persona type gravitates to.
var personaTopics = map[persona.Type][]string{
	persona.TypePhotographer: {"photography", "art", "nature", "urban", "portrait"},
	persona.TypeTraveler:     {"travel", "adventure", "culture", "landscape", "city"},
	persona.TypeArtist:       {"art", "design", "creative", "abstract", "color"},
	persona.TypeLifestyle:    {"lifestyle", "wellness", "home", "fashion", "food"},
	persona.TypeTech:         {"technology", "innovation", "modern", "digital", "startup"},
	persona.TypeNature:       {"nature", "wildlife", "forest", "ocean", "mountains"},
	persona.TypeFoodie:       {"food", "cooking", "restaurant", "coffee", "healthy"},
}

var periodTopics = map[string][]string{
	"morning":   {"coffee", "sunrise", "morning", "breakfast", "workout", "nature"},
	"lunch":     {"food", "lifestyle", "work", "office", "city", "business"},
	"afternoon": {"technology", "art", "design", "creativity", "innovation"},
	"evening":   {"travel", "sunset", "architecture", "culture", "photography"},
	"night":     {"night", "lights", "urban", "music", "entertainment", "mood"},
}

var (
	weekendTopics = []string{"travel", "nature", "adventure", "leisure", "fun", "weekend"}
	weekdayTopics = []string{"business", "technology", "work", "productivity", "innovation"}
)

// DayPeriod buckets a UTC hour into the named posting periods.
func DayPeriod(hour int) string {
	switch {
	case hour >= 6 && hour < 11:
		return "morning"
	case hour >= 11 && hour < 14:
		return "lunch"
	case hour >= 14 && hour < 18:
		return "afternoon"
	case hour >= 18 && hour < 22:
		return "evening"
	default:
		return "night"
	}
}

// Candidates merges persona preferences, interests and trending topics,
// de-duplicated in that order.
func Candidates(p persona.Persona, trending []string) []string {
	seen := make(map[string]struct{})
	var out []string
	add := func(items []string) {
		for _, it := range items {
			it = strings.ToLower(strings.TrimSpace(it))
			if it == "" {
				continue
			}
			if _, ok := seen[it]; ok {
				continue
			}
			seen[it] = struct{}{}
			out = append(out, it)
		}
	}
	add(personaTopics[p.Type])
	add(p.Interests)
	add(trending)
	return out
}

// biasFor returns the preferred keywords for the moment now.
func biasFor(now time.Time) []string {
	now = now.UTC()
	prefs := append([]string{}, periodTopics[DayPeriod(now.Hour())]...)
	if wd := now.Weekday(); wd == time.Saturday || wd == time.Sunday {
		return append(prefs, weekendTopics...)
	}
	return append(prefs, weekdayTopics...)
}

// SelectTopic picks a topic from candidates, favoring the time-of-day and
// weekday bias 70% of the time.
func SelectTopic(src chance.Source, candidates []string, now time.Time) string {
	if len(candidates) == 0 {
		return "lifestyle"
	}
	prefs := biasFor(now)
	var matching []string
	for _, c := range candidates {
		for _, pref := range prefs {
			if strings.Contains(c, pref) {
				matching = append(matching, c)
				break
			}
		}
	}
	if len(matching) > 0 && chance.Chance(src, 0.7) {
		return chance.Pick(src, matching)
	}
	return chance.Pick(src, candidates)
}

var personaFlavors = map[persona.Type][]string{
	persona.TypePhotographer: {"%s photography", "%s aesthetic", "%s composition"},
	persona.TypeTraveler:     {"%s travel", "%s destination", "%s landscape"},
	persona.TypeArtist:       {"%s art", "%s abstract", "%s colorful"},
	persona.TypeLifestyle:    {"%s lifestyle", "%s cozy", "%s aesthetic"},
	persona.TypeTech:         {"%s technology", "%s modern", "%s futuristic"},
	persona.TypeNature:       {"%s wildlife", "%s landscape", "%s outdoors"},
	persona.TypeFoodie:       {"%s food", "%s dish", "%s cafe"},
}

var periodFlavors = map[string]string{
	"morning":   "%s morning light",
	"lunch":     "%s daylight",
	"afternoon": "%s afternoon",
	"evening":   "%s golden hour",
	"night":     "%s at night",
}

// Variations rewrites topic with persona-type and time-of-day flavors.
func Variations(src chance.Source, t persona.Type, topic string, now time.Time) []string {
	topic = strings.TrimSpace(strings.ReplaceAll(topic, "_", " "))
	flavors := personaFlavors[t]
	if len(flavors) == 0 {
		flavors = personaFlavors[persona.TypeLifestyle]
	}
	var out []string
	for _, f := range chance.Sample(src, flavors, 2) {
		out = append(out, strings.Replace(f, "%s", topic, 1))
	}
	out = append(out, strings.Replace(periodFlavors[DayPeriod(now.UTC().Hour())], "%s", topic, 1))
	return out
}
