package memory

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// overlapRatio is the Jaccard overlap of the two texts' token sets.
func overlapRatio(a, b string) float64 {
	ta := tokenSet(a)
	tb := tokenSet(b)
	if len(ta) == 0 || len(tb) == 0 {
		return 0
	}
	shared := 0
	for w := range ta {
		if tb[w] {
			shared++
		}
	}
	union := len(ta) + len(tb) - shared
	return float64(shared) / float64(union)
}

func tokenSet(text string) map[string]bool {
	words := tokenize(text)
	set := make(map[string]bool, len(words))
	for _, w := range words {
		set[w] = true
	}
	return set
}

// tokenize splits a caption into lowercase word tokens. Hashtags fold into
// their bare word, so "#sunset" and "sunset" are the same token; emoji and
// punctuation separate words.
func tokenize(text string) []string {
	fields := strings.FieldsFunc(text, func(r rune) bool {
		return !(unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' || r == '\'')
	})
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		if w := strings.ToLower(f); utf8.RuneCountInString(w) > 1 {
			out = append(out, w)
		}
	}
	return out
}

func normalize(text string) string {
	return strings.Join(strings.Fields(strings.ToLower(text)), " ")
}
