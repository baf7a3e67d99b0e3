package persona

import (
	"fmt"
	"strings"

	"github.com/nidhogg/autoposter/internal/chance"
)

// expertise maps each type to keywords scored against topics.
var expertise = map[Type][]string{
	TypePhotographer: {"photography", "art", "visual", "creative", "aesthetic", "composition"},
	TypeTraveler:     {"travel", "adventure", "culture", "exploration", "journey", "wanderlust"},
	TypeArtist:       {"art", "design", "creative", "innovation", "artistic", "inspiration"},
	TypeLifestyle:    {"lifestyle", "wellness", "happiness", "mood", "positive", "life"},
	TypeTech:         {"technology", "innovation", "future", "digital", "tech", "modern"},
	TypeNature:       {"nature", "wildlife", "forest", "mountain", "ocean", "landscape"},
	TypeFoodie:       {"food", "cooking", "restaurant", "coffee", "recipe", "healthy"},
}

// Seeds are the personas every pool starts with.
var Seeds = []Persona{
	{
		Name: "Alex Chen", Handle: "alexchen_photo", Type: TypePhotographer,
		Bio:       "Capturing light one frame at a time 📸",
		Interests: []string{"photography", "street", "portrait"}, Style: "artistic",
	},
	{
		Name: "Maya Patel", Handle: "maya_wanderlust", Type: TypeTraveler,
		Bio:       "Collecting passport stamps and sunsets 🌍",
		Interests: []string{"travel", "culture", "mountains"}, Style: "adventurous",
	},
	{
		Name: "Jordan Lee", Handle: "jordan_creates", Type: TypeArtist,
		Bio:       "Color, texture, and too much coffee 🎨",
		Interests: []string{"art", "design", "abstract"}, Style: "creative",
	},
	{
		Name: "Sophie Martin", Handle: "sophie_lifestyle", Type: TypeLifestyle,
		Bio:       "Slow mornings, good vibes, mindful living 🌸",
		Interests: []string{"wellness", "home", "fashion"}, Style: "positive",
	},
	{
		Name: "Ryan Park", Handle: "ryan_tech", Type: TypeTech,
		Bio:       "Building tomorrow, one commit at a time 🚀",
		Interests: []string{"technology", "startup", "gadgets"}, Style: "innovative",
	},
}

var firstNames = []string{
	"Emma", "Liam", "Olivia", "Noah", "Ava", "Lucas", "Mia", "Ethan",
	"Zoe", "Kai", "Luna", "Leo", "Aria", "Finn", "Nora", "Milo",
}

var lastNames = []string{
	"Nguyen", "Garcia", "Kim", "Silva", "Rossi", "Novak", "Tanaka",
	"Haddad", "Berg", "Okafor", "Reyes", "Walsh",
}

var handleSuffix = map[Type][]string{
	TypePhotographer: {"shoots", "lens", "frames", "photo"},
	TypeTraveler:     {"roams", "travels", "abroad", "explores"},
	TypeArtist:       {"paints", "creates", "studio", "draws"},
	TypeLifestyle:    {"daily", "living", "vibes", "life"},
	TypeTech:         {"codes", "builds", "tech", "dev"},
	TypeNature:       {"wild", "outdoors", "trails", "green"},
	TypeFoodie:       {"eats", "kitchen", "bites", "cooks"},
}

var bios = map[Type][]string{
	TypePhotographer: {"Chasing golden hour everywhere 📷", "Light, shadow, and the moments between ✨"},
	TypeTraveler:     {"Wherever the next ticket goes ✈️", "Home is where the backpack is 🧳"},
	TypeArtist:       {"Making art out of ordinary days 🖌️", "Sketchbook always within reach 🎨"},
	TypeLifestyle:    {"Simple pleasures, big joy 😊", "Finding balance one day at a time 🌱"},
	TypeTech:         {"Gadgets, code, and the future 💻", "Curious about everything digital ⚡"},
	TypeNature:       {"Happiest on a trail 🌿", "Protect what you love 🌊"},
	TypeFoodie:       {"Eating my way around the world 🍜", "Home cook with big dreams 👩‍🍳"},
}

var interestPool = map[Type][]string{
	TypePhotographer: {"photography", "portrait", "street", "landscape", "film"},
	TypeTraveler:     {"travel", "culture", "beach", "mountains", "city"},
	TypeArtist:       {"art", "design", "abstract", "color", "illustration"},
	TypeLifestyle:    {"wellness", "home", "fashion", "fitness", "coffee"},
	TypeTech:         {"technology", "startup", "gadgets", "ai", "coding"},
	TypeNature:       {"nature", "forest", "wildlife", "ocean", "hiking"},
	TypeFoodie:       {"food", "coffee", "baking", "restaurant", "healthy"},
}

var styles = map[Type]string{
	TypePhotographer: "artistic",
	TypeTraveler:     "adventurous",
	TypeArtist:       "creative",
	TypeLifestyle:    "positive",
	TypeTech:         "innovative",
	TypeNature:       "calm",
	TypeFoodie:       "playful",
}

// Generate builds a fresh persona of a random type. The caller assigns the
// ID and timestamps.
func Generate(src chance.Source) Persona {
	t := chance.Pick(src, Types)
	first := chance.Pick(src, firstNames)
	last := chance.Pick(src, lastNames)
	handle := fmt.Sprintf("%s_%s%d",
		strings.ToLower(first), chance.Pick(src, handleSuffix[t]), chance.Between(src, 10, 99))
	return Persona{
		Name:      first + " " + last,
		Handle:    handle,
		Type:      t,
		Bio:       chance.Pick(src, bios[t]),
		Interests: chance.Sample(src, interestPool[t], 3),
		Style:     styles[t],
	}
}

// avatarURL derives a stable generated avatar from the handle.
func avatarURL(handle string) string {
	return "https://api.dicebear.com/7.x/avataaars/svg?seed=" + handle
}
