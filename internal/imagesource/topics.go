package imagesource

import "context"

// TrendingTopics is the curated topic list used when a provider has no
// trending endpoint of its own.
var TrendingTopics = []string{
	"nature", "travel", "food", "architecture", "technology", "lifestyle",
	"art", "fashion", "coffee", "fitness", "business", "minimal",
	"sunset", "sunrise", "mountains", "ocean", "city", "street",
	"portrait", "abstract", "design", "culture", "adventure", "wellness",
	"interior", "night", "photography", "music",
}

// TopicLister is implemented by sources that can suggest topics.
type TopicLister interface {
	Trending(ctx context.Context) []string
}

// Trending returns the curated topic list. Unsplash has no trending
// endpoint that fits the quota budget.
func (u *Unsplash) Trending(ctx context.Context) []string {
	out := make([]string, len(TrendingTopics))
	copy(out, TrendingTopics)
	return out
}
