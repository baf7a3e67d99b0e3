// Package content turns a persona and an optional topic into a post draft:
// topic choice, image sourcing with global de-duplication, captioning with
// template fallback and hashtag assembly.
package content

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/nidhogg/autoposter/internal/caption"
	"github.com/nidhogg/autoposter/internal/chance"
	"github.com/nidhogg/autoposter/internal/imagesource"
	"github.com/nidhogg/autoposter/internal/memory"
	"github.com/nidhogg/autoposter/internal/persona"
	"github.com/nidhogg/autoposter/internal/tracker"
	"go.uber.org/zap"
)

// ErrNoContent is returned when no post could be produced this attempt.
var ErrNoContent = errors.New("no content produced")

// textOnlyRatio is the share of posts that carry no images.
const textOnlyRatio = 0.3

const (
	PostTextOnly    = "text_only"
	PostSingleImage = "single_image"
)

// PostType names a post by its image count.
func PostType(images int) string {
	switch {
	case images <= 0:
		return PostTextOnly
	case images == 1:
		return PostSingleImage
	default:
		return fmt.Sprintf("multi_image_%d", images)
	}
}

// PostDraft is an assembled post ready for publishing.
type PostDraft struct {
	ID            string              `json:"id"`
	Content       string              `json:"content"`
	Caption       string              `json:"caption"`
	Hashtags      []string            `json:"hashtags"`
	Images        []string            `json:"images"`
	Persona       persona.Persona     `json:"persona"`
	Topic         string              `json:"topic"`
	PostType      string              `json:"post_type"`
	Mood          string              `json:"mood,omitempty"`
	TimeContext   string              `json:"time_context,omitempty"`
	CaptionSource string              `json:"caption_source"`
	Photos        []imagesource.Image `json:"photos,omitempty"`
	CreatedAt     time.Time           `json:"created_at"`
}

// Pipeline generates post drafts.
type Pipeline struct {
	images    imagesource.Source
	tracker   *tracker.Tracker
	memory    *memory.Store
	captioner caption.Captioner
	rnd       chance.Source
	now       func() time.Time
	logger    *zap.Logger
}

// NewPipeline creates a pipeline. captioner may be nil, in which case only
// templates are used.
func NewPipeline(images imagesource.Source, tr *tracker.Tracker, mem *memory.Store, captioner caption.Captioner, rnd chance.Source, logger *zap.Logger) *Pipeline {
	return &Pipeline{
		images:    images,
		tracker:   tr,
		memory:    mem,
		captioner: captioner,
		rnd:       rnd,
		now:       time.Now,
		logger:    logger,
	}
}

// SetClock replaces the time source.
func (p *Pipeline) SetClock(now func() time.Time) {
	p.now = now
}

// Generate builds a post for author. An empty topic is chosen from the
// persona's preferences and trending topics. Collaborator failures are
// absorbed; ErrNoContent is the only error returned.
func (p *Pipeline) Generate(ctx context.Context, author persona.Persona, topic string) (*PostDraft, error) {
	now := p.now()
	if strings.TrimSpace(topic) == "" {
		topic = SelectTopic(p.rnd, Candidates(author, p.trending(ctx)), now)
	}

	if !chance.Chance(p.rnd, textOnlyRatio) {
		want := imageCount(p.rnd, author.Type)
		imgs := p.sourceImages(ctx, author.Type, topic, want, now)
		if len(imgs) > 0 {
			return p.imagePost(ctx, author, topic, imgs, now), nil
		}
		p.logger.Warn("no images found, falling back to text post",
			zap.String("persona", author.Handle),
			zap.String("topic", topic),
			zap.Int("wanted", want))
	}
	if ctx.Err() != nil {
		return nil, ErrNoContent
	}
	return p.textPost(ctx, author, topic, now), nil
}

// GenerateText builds a text-only post, skipping image sourcing.
func (p *Pipeline) GenerateText(ctx context.Context, author persona.Persona, topic string) (*PostDraft, error) {
	now := p.now()
	if strings.TrimSpace(topic) == "" {
		topic = SelectTopic(p.rnd, Candidates(author, p.trending(ctx)), now)
	}
	if ctx.Err() != nil {
		return nil, ErrNoContent
	}
	return p.textPost(ctx, author, topic, now), nil
}

func (p *Pipeline) textPost(ctx context.Context, author persona.Persona, topic string, now time.Time) *PostDraft {
	text, source := p.caption(ctx, author, topic, nil, 0)
	if p.memory != nil && p.memory.IsTooSimilar(author.ID, text) {
		p.logger.Info("caption too similar to recent post, using template",
			zap.String("persona", author.Handle))
		text, source = caption.Template(p.rnd, author.Type, topic, 0), "template"
	}
	tags := Hashtags(p.rnd, author.Type, topic, text, nil)
	return p.draft(author, topic, text, source, tags, nil, "", DayPeriod(now.UTC().Hour()), now)
}

var moodAdditions = map[string]string{
	"calm":      "So peaceful 💫",
	"energetic": "Energy is everything ⚡",
	"creative":  "Creativity flowing 🎨",
	"natural":   "Nature therapy 🌿",
}

func (p *Pipeline) imagePost(ctx context.Context, author persona.Persona, topic string, imgs []imagesource.Image, now time.Time) *PostDraft {
	orderCohesive(imgs, topic)
	lead := imgs[0]
	a := Analyze(lead)

	desc := lead.Description
	if desc == "" {
		desc = lead.AltDescription
	}
	ic := &caption.ImageContext{
		Description: desc,
		Mood:        a.Mood,
		TimeOfDay:   a.TimeOfDay,
		Setting:     a.Setting,
		Count:       len(imgs),
	}
	text, source := p.caption(ctx, author, topic, ic, len(imgs))
	if add, ok := moodAdditions[a.Mood]; ok && source == "template" && chance.Chance(p.rnd, 0.3) {
		text += " " + add
	}

	timeContext := a.TimeOfDay
	if timeContext == "unknown" {
		timeContext = DayPeriod(now.UTC().Hour())
	}
	tags := Hashtags(p.rnd, author.Type, topic, text, &a)
	return p.draft(author, topic, text, source, tags, imgs, a.Mood, timeContext, now)
}

// caption asks the AI captioner first and falls back to a template.
func (p *Pipeline) caption(ctx context.Context, author persona.Persona, topic string, ic *caption.ImageContext, images int) (string, string) {
	if p.captioner != nil {
		text, err := p.captioner.Caption(ctx, author, topic, ic)
		if err == nil && strings.TrimSpace(text) != "" {
			return text, "ai"
		}
		if err != nil {
			p.logger.Warn("ai caption failed, using template",
				zap.String("persona", author.Handle),
				zap.Error(err))
		}
	}
	return caption.Template(p.rnd, author.Type, topic, images), "template"
}

func (p *Pipeline) draft(author persona.Persona, topic, text, source string, tags []string, imgs []imagesource.Image, mood, timeContext string, now time.Time) *PostDraft {
	body := text
	if len(tags) > 0 {
		body += "\n\n" + strings.Join(tags, " ")
	}
	urls := make([]string, 0, len(imgs))
	for _, img := range imgs {
		urls = append(urls, img.URL)
	}
	return &PostDraft{
		ID:            uuid.NewString(),
		Content:       body,
		Caption:       text,
		Hashtags:      tags,
		Images:        urls,
		Persona:       author,
		Topic:         topic,
		PostType:      PostType(len(imgs)),
		Mood:          mood,
		TimeContext:   timeContext,
		CaptionSource: source,
		Photos:        imgs,
		CreatedAt:     now.UTC(),
	}
}

func (p *Pipeline) trending(ctx context.Context) []string {
	if tl, ok := p.images.(imagesource.TopicLister); ok {
		if topics := tl.Trending(ctx); len(topics) > 0 {
			return topics
		}
	}
	return imagesource.TrendingTopics
}

// imageCount draws how many images a persona type posts at once.
func imageCount(src chance.Source, t persona.Type) int {
	switch t {
	case persona.TypePhotographer:
		return chance.Between(src, 1, 4)
	case persona.TypeArtist:
		return chance.Between(src, 1, 3)
	default:
		return chance.Between(src, 1, 2)
	}
}
