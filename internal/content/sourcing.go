package content

import (
	"context"
	"time"

	"github.com/nidhogg/autoposter/internal/chance"
	"github.com/nidhogg/autoposter/internal/imagesource"
	"github.com/nidhogg/autoposter/internal/persona"
	"go.uber.org/zap"
)

const perPage = 30

var genericTerms = []string{"beautiful", "nature", "abstract", "minimal"}

// strategy tries to obtain up to need unused images.
type strategy struct {
	name string
	run  func(ctx context.Context, need int) []imagesource.Image
}

// collect runs strategies in order until want images are gathered or the
// list is exhausted. A short result is returned as is.
func collect(ctx context.Context, strategies []strategy, want int, logger *zap.Logger) []imagesource.Image {
	var got []imagesource.Image
	for _, s := range strategies {
		if len(got) >= want || ctx.Err() != nil {
			break
		}
		found := s.run(ctx, want-len(got))
		logger.Debug("image strategy finished",
			zap.String("strategy", s.name),
			zap.Int("found", len(found)),
			zap.Int("need", want-len(got)))
		got = append(got, found...)
	}
	return got
}

// sourceImages runs the layered fallback chain for topic.
func (p *Pipeline) sourceImages(ctx context.Context, t persona.Type, topic string, want int, now time.Time) []imagesource.Image {
	return collect(ctx, []strategy{
		{name: "deep_page", run: func(ctx context.Context, need int) []imagesource.Image {
			return p.deepPage(ctx, topic, need)
		}},
		{name: "variations", run: func(ctx context.Context, need int) []imagesource.Image {
			return p.variations(ctx, Variations(p.rnd, t, topic, now), need)
		}},
		{name: "random", run: p.random},
		{name: "generic", run: p.generic},
	}, want, p.logger)
}

func (p *Pipeline) deepPage(ctx context.Context, topic string, need int) []imagesource.Image {
	page := chance.Between(p.rnd, 3, 15)
	order := chance.Pick(p.rnd, imagesource.Orders)
	results := p.search(ctx, topic, page, order)
	if len(results) == 0 {
		return nil
	}
	chance.Shuffle(p.rnd, results)
	skip := p.rnd.IntN(len(results)/3 + 1)
	return p.claim(results[skip:], need)
}

func (p *Pipeline) variations(ctx context.Context, queries []string, need int) []imagesource.Image {
	var got []imagesource.Image
	for _, q := range queries {
		for _, page := range []int{chance.Between(p.rnd, 1, 3), chance.Between(p.rnd, 4, 8)} {
			if len(got) >= need || ctx.Err() != nil {
				return got
			}
			results := p.search(ctx, q, page, chance.Pick(p.rnd, imagesource.Orders))
			chance.Shuffle(p.rnd, results)
			got = append(got, p.claim(results, need-len(got))...)
		}
	}
	return got
}

func (p *Pipeline) random(ctx context.Context, need int) []imagesource.Image {
	results, err := p.images.Random(ctx, min(need*3, perPage), "")
	if err != nil {
		p.logger.Warn("random images failed", zap.Error(err))
		return nil
	}
	return p.claim(results, need)
}

func (p *Pipeline) generic(ctx context.Context, need int) []imagesource.Image {
	var got []imagesource.Image
	for _, term := range chance.Sample(p.rnd, genericTerms, len(genericTerms)) {
		if len(got) >= need || ctx.Err() != nil {
			break
		}
		results := p.search(ctx, term, chance.Between(p.rnd, 1, 10), imagesource.OrderRelevant)
		chance.Shuffle(p.rnd, results)
		got = append(got, p.claim(results, need-len(got))...)
	}
	return got
}

func (p *Pipeline) search(ctx context.Context, query string, page int, order imagesource.Order) []imagesource.Image {
	results, err := p.images.Search(ctx, query, page, perPage, order)
	if err != nil {
		p.logger.Warn("image search failed",
			zap.String("query", query),
			zap.Int("page", page),
			zap.Error(err))
		return nil
	}
	return results
}

// claim marks and returns up to need images nobody has used yet.
func (p *Pipeline) claim(candidates []imagesource.Image, need int) []imagesource.Image {
	var out []imagesource.Image
	for _, img := range candidates {
		if len(out) >= need {
			break
		}
		if img.URL == "" {
			continue
		}
		if p.tracker.Claim(img.ID, img.URL) {
			out = append(out, img)
		}
	}
	return out
}
