package content

import (
	"strings"
	"unicode"

	"github.com/nidhogg/autoposter/internal/chance"
	"github.com/nidhogg/autoposter/internal/persona"
)

var personaHashtags = map[persona.Type][]string{
	persona.TypePhotographer: {"#photography", "#photooftheday", "#capture"},
	persona.TypeTraveler:     {"#travelgram", "#wanderer", "#journey"},
	persona.TypeArtist:       {"#artistlife", "#creativity", "#design"},
	persona.TypeLifestyle:    {"#goodvibes", "#mindful", "#grateful"},
	persona.TypeTech:         {"#techlife", "#innovation", "#startup"},
	persona.TypeNature:       {"#naturelovers", "#wildlife", "#earthfocus"},
	persona.TypeFoodie:       {"#foodporn", "#yummy", "#chef"},
}

// topicHashtags is checked in order; the first key contained in the topic wins.
var topicHashtags = []struct {
	key  string
	tags []string
}{
	{"nature", []string{"#nature", "#peaceful", "#green", "#outdoors", "#natural"}},
	{"tech", []string{"#tech", "#innovation", "#future", "#digital", "#modern"}},
	{"lifestyle", []string{"#lifestyle", "#happiness", "#chill", "#mood", "#vibes"}},
	{"travel", []string{"#travel", "#explore", "#wanderlust", "#adventure", "#journey"}},
	{"art", []string{"#art", "#creative", "#inspiration", "#artistic", "#design"}},
	{"food", []string{"#food", "#delicious", "#foodie", "#cooking", "#tasty"}},
	{"coffee", []string{"#coffee", "#caffeine", "#coffeetime", "#brew"}},
	{"architecture", []string{"#architecture", "#design", "#building", "#urban"}},
	{"fashion", []string{"#fashion", "#style", "#outfit", "#ootd"}},
	{"fitness", []string{"#fitness", "#healthy", "#workout", "#wellness"}},
	{"business", []string{"#business", "#success", "#entrepreneur", "#growth"}},
	{"minimal", []string{"#minimal", "#clean", "#aesthetic", "#minimalism"}},
}

var moodHashtags = map[string][]string{
	"calm":      {"#peaceful", "#serene", "#tranquil"},
	"energetic": {"#vibrant", "#dynamic", "#bold"},
	"creative":  {"#artistic", "#inspiring", "#imaginative"},
	"natural":   {"#organic", "#pure", "#authentic"},
}

var timeHashtags = map[string][]string{
	"morning": {"#sunrise", "#morningvibes", "#newday"},
	"evening": {"#sunset", "#goldenhour", "#eveninglight"},
	"night":   {"#nighttime", "#afterdark", "#nightvibes"},
}

var settingHashtags = map[string][]string{
	"urban":  {"#citylife", "#urban", "#metropolitan"},
	"nature": {"#outdoors", "#wilderness", "#naturalbeauty"},
	"water":  {"#waterscape", "#reflection", "#aquatic"},
}

var popularHashtags = []string{"#instagood", "#photooftheday", "#amazing", "#love", "#life", "#daily"}

// hashtagSet collects unique tags in insertion order.
type hashtagSet struct {
	seen map[string]struct{}
	tags []string
}

func newHashtagSet(existing string) *hashtagSet {
	s := &hashtagSet{seen: make(map[string]struct{})}
	for _, f := range strings.Fields(existing) {
		if strings.HasPrefix(f, "#") {
			s.seen[strings.ToLower(f)] = struct{}{}
		}
	}
	return s
}

func (s *hashtagSet) add(tags ...string) {
	for _, t := range tags {
		key := strings.ToLower(t)
		if _, ok := s.seen[key]; ok || len(t) < 2 {
			continue
		}
		s.seen[key] = struct{}{}
		s.tags = append(s.tags, t)
	}
}

// Hashtags assembles persona, topic and image-context tags. Tags already
// present in caption are skipped. Image posts get 5-8 tags, text posts 3-4.
func Hashtags(src chance.Source, t persona.Type, topic, caption string, img *Analysis) []string {
	set := newHashtagSet(caption)
	set.add(chance.Sample(src, topicTags(topic), 2)...)
	set.add(chance.Sample(src, personaHashtags[t], 2)...)

	lo, hi := 3, 4
	if img != nil {
		lo, hi = 5, 8
		for _, group := range [][]string{moodHashtags[img.Mood], timeHashtags[img.TimeOfDay], settingHashtags[img.Setting]} {
			if len(group) > 0 {
				set.add(chance.Pick(src, group))
			}
		}
	}
	want := chance.Between(src, lo, hi)
	for _, tag := range chance.Sample(src, popularHashtags, len(popularHashtags)) {
		if len(set.tags) >= want {
			break
		}
		set.add(tag)
	}
	if len(set.tags) > want {
		set.tags = set.tags[:want]
	}
	return set.tags
}

func topicTags(topic string) []string {
	lower := strings.ToLower(topic)
	for _, th := range topicHashtags {
		if strings.Contains(lower, th.key) {
			return th.tags
		}
	}
	if tag := slugTag(topic); tag != "" {
		return []string{tag, "#inspiration"}
	}
	return []string{"#inspiration"}
}

// slugTag turns "street food" into "#streetfood".
func slugTag(topic string) string {
	var sb strings.Builder
	for _, r := range strings.ToLower(topic) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			sb.WriteRune(r)
		}
	}
	if sb.Len() == 0 {
		return ""
	}
	return "#" + sb.String()
}
