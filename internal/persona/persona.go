package persona

import (
	"strings"
	"time"
)

// Type is the closed set of persona archetypes.
type Type string

const (
	TypePhotographer Type = "photographer"
	TypeTraveler     Type = "traveler"
	TypeArtist       Type = "artist"
	TypeLifestyle    Type = "lifestyle"
	TypeTech         Type = "tech"
	TypeNature       Type = "nature"
	TypeFoodie       Type = "foodie"
)

// Types lists every known persona type.
var Types = []Type{
	TypePhotographer, TypeTraveler, TypeArtist, TypeLifestyle,
	TypeTech, TypeNature, TypeFoodie,
}

// ParseType maps a free-form value onto the closed set. Unknown values fall
// back to lifestyle.
func ParseType(s string) Type {
	t := Type(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Types {
		if t == known {
			return t
		}
	}
	return TypeLifestyle
}

// outcomeWindow bounds the recent publish outcomes kept per persona.
const outcomeWindow = 10

// Persona is a synthetic account used for posting.
type Persona struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Handle     string    `json:"username"`
	Type       Type      `json:"persona_type"`
	Bio        string    `json:"bio"`
	Interests  []string  `json:"interests"`
	Style      string    `json:"posting_style"`
	Avatar     string    `json:"avatar"`
	Engagement float64   `json:"engagement_score"`
	CreatedAt  time.Time `json:"created_at"`
	LastActive time.Time `json:"last_active"`
	TotalPosts int       `json:"total_posts"`
	Active     bool      `json:"active"`

	// recent holds the latest publish outcomes, oldest first.
	recent    []bool
	retiredAt time.Time
}

// SuccessRatio returns the fraction of successful recent outcomes and how
// many outcomes it is based on.
func (p *Persona) SuccessRatio() (float64, int) {
	if len(p.recent) == 0 {
		return 1, 0
	}
	ok := 0
	for _, r := range p.recent {
		if r {
			ok++
		}
	}
	return float64(ok) / float64(len(p.recent)), len(p.recent)
}

func (p *Persona) recordOutcome(success bool) {
	p.recent = append(p.recent, success)
	if len(p.recent) > outcomeWindow {
		p.recent = p.recent[len(p.recent)-outcomeWindow:]
	}
}

// clone returns a copy that shares no slices with p.
func (p *Persona) clone() Persona {
	cp := *p
	cp.Interests = append([]string(nil), p.Interests...)
	cp.recent = append([]bool(nil), p.recent...)
	return cp
}

// Keywords returns the expertise keywords used to match topics.
func (p *Persona) Keywords() []string {
	kw := append([]string(nil), expertise[p.Type]...)
	for _, in := range p.Interests {
		kw = append(kw, strings.ToLower(in))
	}
	return kw
}
