package content

import (
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/nidhogg/autoposter/internal/imagesource"
)

// Analysis is what keyword matching can infer about an image.
type Analysis struct {
	Color     string `json:"color"`
	Mood      string `json:"mood"`
	TimeOfDay string `json:"time_of_day"`
	Setting   string `json:"setting"`
}

type keywordGroup struct {
	label    string
	keywords []string
}

var timeKeywords = []keywordGroup{
	{"morning", []string{"sunrise", "dawn", "morning", "early"}},
	{"afternoon", []string{"noon", "afternoon", "midday", "bright"}},
	{"evening", []string{"sunset", "dusk", "evening", "golden hour"}},
	{"night", []string{"night", "dark", "stars", "moon", "lights"}},
}

var settingKeywords = []keywordGroup{
	{"urban", []string{"city", "building", "street", "urban", "downtown"}},
	{"nature", []string{"forest", "mountain", "beach", "lake", "tree", "outdoor"}},
	{"indoor", []string{"room", "interior", "inside", "home", "office"}},
	{"water", []string{"ocean", "sea", "river", "water"}},
}

var colorMoods = []keywordGroup{
	{"calm", []string{"blue", "teal", "cyan"}},
	{"energetic", []string{"red", "orange", "yellow"}},
	{"natural", []string{"green", "lime"}},
	{"creative", []string{"purple", "pink"}},
}

// Analyze infers mood, time of day and setting for img.
func Analyze(img imagesource.Image) Analysis {
	a := Analysis{Mood: "neutral", TimeOfDay: "unknown", Setting: "unknown"}
	a.Color = ColorName(img.Color)
	if a.Color != "" {
		a.Mood = firstMatch(colorMoods, a.Color, a.Mood)
	}
	text := img.Text()
	a.TimeOfDay = firstMatch(timeKeywords, text, a.TimeOfDay)
	a.Setting = firstMatch(settingKeywords, text, a.Setting)
	return a
}

func firstMatch(groups []keywordGroup, text, fallback string) string {
	for _, g := range groups {
		for _, kw := range g.keywords {
			if strings.Contains(text, kw) {
				return g.label
			}
		}
	}
	return fallback
}

// ColorName maps a "#rrggbb" hex or a plain color word to a coarse name.
func ColorName(color string) string {
	c := strings.ToLower(strings.TrimSpace(color))
	if !strings.HasPrefix(c, "#") {
		return c
	}
	hex := strings.TrimPrefix(c, "#")
	if len(hex) == 3 {
		hex = string([]byte{hex[0], hex[0], hex[1], hex[1], hex[2], hex[2]})
	}
	if len(hex) != 6 {
		return ""
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return ""
	}
	r := float64(v>>16&0xff) / 255
	g := float64(v>>8&0xff) / 255
	b := float64(v&0xff) / 255

	hi := math.Max(r, math.Max(g, b))
	lo := math.Min(r, math.Min(g, b))
	delta := hi - lo
	switch {
	case hi < 0.15:
		return "black"
	case delta < 0.1 && hi > 0.85:
		return "white"
	case delta < 0.1:
		return "gray"
	}

	var hue float64
	switch hi {
	case r:
		hue = math.Mod((g-b)/delta, 6)
	case g:
		hue = (b-r)/delta + 2
	default:
		hue = (r-g)/delta + 4
	}
	hue *= 60
	if hue < 0 {
		hue += 360
	}
	switch {
	case hue < 15 || hue >= 345:
		return "red"
	case hue < 40:
		return "orange"
	case hue < 70:
		return "yellow"
	case hue < 160:
		return "green"
	case hue < 200:
		return "teal"
	case hue < 255:
		return "blue"
	case hue < 290:
		return "purple"
	default:
		return "pink"
	}
}

// cohesionScore rates how well an image fits a gallery about topic.
func cohesionScore(img imagesource.Image, topic string) int {
	score := 0
	switch ColorName(img.Color) {
	case "blue", "green", "white", "teal":
		score += 2
	case "orange", "yellow", "red":
		score++
	}
	if t := strings.ToLower(topic); t != "" && strings.Contains(img.Text(), t) {
		score += 3
	}
	if img.Likes > 100 {
		score++
	}
	if img.Width > 2000 {
		score++
	}
	return score
}

// orderCohesive sorts images best-first, keeping source order on ties.
func orderCohesive(images []imagesource.Image, topic string) {
	sort.SliceStable(images, func(i, j int) bool {
		return cohesionScore(images[i], topic) > cohesionScore(images[j], topic)
	})
}
