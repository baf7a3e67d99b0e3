package caption

import (
	"strconv"
	"strings"

	"github.com/nidhogg/autoposter/internal/chance"
	"github.com/nidhogg/autoposter/internal/persona"
)

// textTemplates are used for text-only posts.
var textTemplates = map[persona.Type][]string{
	persona.TypeTech: {
		"🚀 Excited to share some thoughts about {topic}! Innovation never stops amazing me.",
		"💻 Working on {topic} ideas that could change everything. The future is now!",
		"⚡ {topic} is changing how we think about technology. What's your take?",
	},
	persona.TypePhotographer: {
		"📸 Spent the whole day chasing {topic}. Light and composition finally came together!",
		"🌅 {topic} session today. Every frame tells a story worth sharing.",
		"✨ When {topic} meets golden hour magic. This is why I love what I do!",
	},
	persona.TypeArtist: {
		"🎨 Creating something inspired by {topic}. Every stroke carries a feeling.",
		"✨ {topic} sparked my creativity today. Art is how we make sense of the world.",
		"🌈 Exploring {topic} through colors and textures. Art speaks what words cannot.",
	},
	persona.TypeTraveler: {
		"✈️ Discovering {topic} somewhere new. Travel opens minds and hearts!",
		"🌍 {topic} adventure today! Every journey teaches us something about ourselves.",
		"🗺️ Found an incredible {topic} spot off the beaten path. Hidden gems everywhere!",
	},
	persona.TypeLifestyle: {
		"🌱 Embracing {topic} as part of mindful living. Small changes, big impact!",
		"✨ {topic} moments like these remind me what truly matters.",
		"💫 Finding balance through {topic}. Wellness is a journey, not a destination.",
	},
	persona.TypeNature: {
		"🌿 Witnessed incredible {topic} in the wild today. Nature never stops amazing me!",
		"🦋 {topic} deserves our protection. Every small action makes a difference.",
		"🌊 {topic} reminds us of our connection to the natural world.",
	},
	persona.TypeFoodie: {
		"🍜 Today's obsession: {topic}. Food is love made visible.",
		"👩‍🍳 Tried a new take on {topic} and my taste buds are dancing.",
		"😋 {topic} hits different when you make it yourself.",
	},
}

// imageTemplates are used for single-image posts.
var imageTemplates = map[persona.Type][]string{
	persona.TypePhotographer: {
		"Caught this moment and couldn't resist sharing 📸",
		"When the light hits just right ✨",
		"Frame-worthy moment right here 🎯",
		"This composition spoke to me 📷",
		"Sometimes the shot finds you 🌟",
	},
	persona.TypeTraveler: {
		"Another day, another adventure! 🌍",
		"This place stole my heart ✈️",
		"Travel memories in the making 📖",
		"Found my happy place 💎",
		"Wanderlust level: maximum 🧳",
	},
	persona.TypeArtist: {
		"Inspiration strikes everywhere 🎨",
		"Art is all around us ✨",
		"Creative energy captured 💡",
		"When reality becomes art 🖼️",
		"Visual poetry in motion 🎭",
	},
	persona.TypeLifestyle: {
		"Living for moments like these ✨",
		"Good vibes only today 🌸",
		"Life is beautiful when you notice 💕",
		"Grateful for this moment 🙏",
		"Simple pleasures, big joy 😊",
	},
	persona.TypeTech: {
		"Future is happening now 🚀",
		"Innovation meets beauty 💻",
		"Tech aesthetics at their finest ⚡",
		"Digital world, analog feelings 🔮",
		"Progress has never looked better 🌐",
	},
	persona.TypeNature: {
		"Nature therapy at its finest 🌿",
		"Earth's masterpiece 🌍",
		"Breathing it all in 🍃",
		"Wild and free 🦋",
		"The outdoors always calls me back 🏔️",
	},
	persona.TypeFoodie: {
		"Food is love made visible 🍜",
		"Culinary art at its finest 👨‍🍳",
		"Taste buds are dancing 😋",
		"Food photography is my passion 📸",
		"Flavor explosion incoming 🌶️",
	},
}

// multiTemplates are used for posts with more than one image.
var multiTemplates = map[persona.Type][]string{
	persona.TypePhotographer: {
		"A visual story in {count} frames 📸✨",
		"Capturing different perspectives of {topic} 📷",
		"When one shot isn't enough to tell the story 🎯",
		"The complete picture in {count} shots ✨",
	},
	persona.TypeTraveler: {
		"Journey highlights: {topic} ✈️",
		"{count} moments that made this trip unforgettable 🌍",
		"Travel diary: {topic} edition 📖",
		"Adventure recap in {count} photos 🗺️",
	},
	persona.TypeArtist: {
		"Creative exploration: {topic} series 🎨",
		"Artistic interpretation in {count} pieces ✨",
		"Visual narrative about {topic} 🖼️",
		"Art collection: {topic} theme 🎭",
	},
	persona.TypeLifestyle: {
		"Life moments worth sharing ✨",
		"{count} reasons why life is beautiful 💕",
		"Lifestyle highlights: {topic} vibes 🌸",
		"Good vibes in {count} frames 😊",
	},
	persona.TypeTech: {
		"Tech showcase: {topic} evolution 💻",
		"Innovation in {count} perspectives 🚀",
		"Future is here: {topic} breakdown ⚡",
		"Digital world in {count} frames 📱",
	},
	persona.TypeNature: {
		"{count} views I can't stop thinking about 🌿",
		"Nature diary: {topic} 🍃",
		"The wild side of {topic} in {count} frames 🌲",
	},
	persona.TypeFoodie: {
		"Food journey: {topic} edition 🍜",
		"Culinary adventure in {count} dishes 👨‍🍳",
		"Flavor story told in {count} photos 📸",
	},
}

// Template picks a persona-type template and fills in topic and count.
// imageCount 0 selects text-only templates, 1 single-image, more multi-image.
func Template(src chance.Source, t persona.Type, topic string, imageCount int) string {
	var lib map[persona.Type][]string
	switch {
	case imageCount <= 0:
		lib = textTemplates
	case imageCount == 1:
		lib = imageTemplates
	default:
		lib = multiTemplates
	}
	options, ok := lib[t]
	if !ok {
		options = lib[persona.TypeLifestyle]
	}
	return Fill(chance.Pick(src, options), topic, imageCount)
}

// Fill substitutes {topic} and {count} placeholders.
func Fill(tmpl, topic string, count int) string {
	return strings.NewReplacer(
		"{topic}", DisplayTopic(topic),
		"{count}", strconv.Itoa(count),
	).Replace(tmpl)
}

// DisplayTopic turns "street_food" into "street food".
func DisplayTopic(topic string) string {
	return strings.TrimSpace(strings.ReplaceAll(topic, "_", " "))
}
