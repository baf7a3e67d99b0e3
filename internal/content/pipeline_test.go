package content

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/nidhogg/autoposter/internal/caption"
	"github.com/nidhogg/autoposter/internal/chance"
	"github.com/nidhogg/autoposter/internal/imagesource"
	"github.com/nidhogg/autoposter/internal/memory"
	"github.com/nidhogg/autoposter/internal/persona"
	"github.com/nidhogg/autoposter/internal/tracker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeSource struct {
	mu       sync.Mutex
	images   []imagesource.Image
	err      error
	searches int
	randoms  int
}

func (f *fakeSource) Search(_ context.Context, _ string, _, _ int, _ imagesource.Order) ([]imagesource.Image, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.searches++
	if f.err != nil {
		return nil, f.err
	}
	out := make([]imagesource.Image, len(f.images))
	copy(out, f.images)
	return out, nil
}

func (f *fakeSource) Random(_ context.Context, _ int, _ string) ([]imagesource.Image, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.randoms++
	if f.err != nil {
		return nil, f.err
	}
	out := make([]imagesource.Image, len(f.images))
	copy(out, f.images)
	return out, nil
}

type fakeCaptioner struct {
	text  string
	err   error
	calls int
}

func (f *fakeCaptioner) Caption(context.Context, persona.Persona, string, *caption.ImageContext) (string, error) {
	f.calls++
	return f.text, f.err
}

var (
	artist       = persona.Persona{ID: "p-artist", Name: "Jordan Lee", Handle: "jordan_creates", Type: persona.TypeArtist}
	photographer = persona.Persona{ID: "p-photo", Name: "Alex Chen", Handle: "alexchen_photo", Type: persona.TypePhotographer}
	monday7am    = time.Date(2026, 10, 12, 7, 0, 0, 0, time.UTC)
)

func photos(n int) []imagesource.Image {
	out := make([]imagesource.Image, n)
	for i := range out {
		out[i] = imagesource.Image{
			ID:  fmt.Sprintf("img-%d", i),
			URL: fmt.Sprintf("https://images.example.com/photo-%d", i),
		}
	}
	return out
}

func newTestPipeline(src imagesource.Source, capt caption.Captioner, rnd chance.Source) (*Pipeline, *tracker.Tracker, *memory.Store) {
	tr := tracker.New(100, zap.NewNop())
	mem := memory.NewStore(10, 0.6, zap.NewNop())
	p := NewPipeline(src, tr, mem, capt, rnd, zap.NewNop())
	p.SetClock(func() time.Time { return monday7am })
	return p, tr, mem
}

func TestGenerateWithoutImagesFallsBackToText(t *testing.T) {
	src := &fakeSource{}
	// 0.9 skips the text-only draw, Ints[0]=2 asks an artist for 3 images.
	p, _, _ := newTestPipeline(src, nil, &chance.Scripted{Floats: []float64{0.9}, Ints: []int{2}})

	draft, err := p.Generate(context.Background(), artist, "sunset")
	require.NoError(t, err)
	require.NotNil(t, draft)
	assert.Equal(t, PostTextOnly, draft.PostType)
	assert.Empty(t, draft.Images)
	assert.NotEmpty(t, draft.Content)
	assert.Equal(t, "template", draft.CaptionSource)
	assert.Greater(t, src.searches, 0)
	assert.Equal(t, 1, src.randoms)
}

func TestGenerateSourceErrorsAreAbsorbed(t *testing.T) {
	src := &fakeSource{err: errors.New("unsplash 403")}
	p, _, _ := newTestPipeline(src, &fakeCaptioner{err: errors.New("timeout")}, &chance.Scripted{Floats: []float64{0.9}})

	draft, err := p.Generate(context.Background(), photographer, "city")
	require.NoError(t, err)
	assert.Equal(t, PostTextOnly, draft.PostType)
}

func TestGenerateAcceptsPartialImages(t *testing.T) {
	src := &fakeSource{images: photos(2)}
	p, tr, _ := newTestPipeline(src, nil, &chance.Scripted{Floats: []float64{0.9}, Ints: []int{2}})

	draft, err := p.Generate(context.Background(), artist, "abstract")
	require.NoError(t, err)
	require.NotNil(t, draft)
	assert.Len(t, draft.Images, 2)
	assert.Equal(t, "multi_image_2", draft.PostType)
	for _, img := range draft.Photos {
		assert.True(t, tr.IsUsed(img.ID, img.URL))
	}
}

func TestGenerateNeverReusesImages(t *testing.T) {
	src := &fakeSource{images: photos(6)}
	p, _, _ := newTestPipeline(src, nil, chance.NewSeeded(7))

	seen := make(map[string]struct{})
	for i := 0; i < 20; i++ {
		draft, err := p.Generate(context.Background(), photographer, "")
		require.NoError(t, err)
		for _, u := range draft.Images {
			_, dup := seen[u]
			require.False(t, dup, "image %s used twice", u)
			seen[u] = struct{}{}
		}
	}
	assert.LessOrEqual(t, len(seen), 6)
}

func TestTextPostAntiRepetition(t *testing.T) {
	const recent = "Beautiful sunset moment ✨ #sunset"
	capt := &fakeCaptioner{text: recent}
	// 0.1 selects the text-only path.
	p, _, mem := newTestPipeline(&fakeSource{}, capt, &chance.Scripted{Floats: []float64{0.1}})
	mem.Record(photographer.ID, memory.Entry{Content: recent})
	require.True(t, mem.IsTooSimilar(photographer.ID, recent))

	draft, err := p.Generate(context.Background(), photographer, "sunset")
	require.NoError(t, err)
	assert.NotEqual(t, recent, draft.Caption)
	assert.Equal(t, "template", draft.CaptionSource)
	assert.Equal(t, 1, capt.calls)
	assert.Equal(t, PostTextOnly, draft.PostType)
}

func TestTextPostUsesAICaption(t *testing.T) {
	capt := &fakeCaptioner{text: "Morning espresso and a blank page ☕ #coffee"}
	p, _, _ := newTestPipeline(&fakeSource{}, capt, &chance.Scripted{Floats: []float64{0.1}})

	draft, err := p.GenerateText(context.Background(), photographer, "coffee")
	require.NoError(t, err)
	assert.Equal(t, "ai", draft.CaptionSource)
	assert.True(t, strings.HasPrefix(draft.Content, capt.text))
	assert.Equal(t, "morning", draft.TimeContext)
}

func TestImagePostCarriesAnalysis(t *testing.T) {
	src := &fakeSource{images: []imagesource.Image{{
		ID: "a", URL: "https://images.example.com/a", Color: "#1e6fd9",
		Description: "Sunset over the city skyline",
	}}}
	p, _, _ := newTestPipeline(src, nil, &chance.Scripted{Floats: []float64{0.9}})

	draft, err := p.Generate(context.Background(), persona.Persona{ID: "x", Type: persona.TypeTech}, "city")
	require.NoError(t, err)
	assert.Equal(t, PostSingleImage, draft.PostType)
	assert.Equal(t, "calm", draft.Mood)
	assert.Equal(t, "evening", draft.TimeContext)
}

func TestGenerateCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	p, _, _ := newTestPipeline(&fakeSource{}, nil, &chance.Scripted{Floats: []float64{0.9}})

	draft, err := p.Generate(ctx, artist, "art")
	assert.ErrorIs(t, err, ErrNoContent)
	assert.Nil(t, draft)
}

func TestCollectStopsAtQuota(t *testing.T) {
	var second bool
	got := collect(context.Background(), []strategy{
		{name: "first", run: func(context.Context, int) []imagesource.Image { return photos(3) }},
		{name: "second", run: func(context.Context, int) []imagesource.Image { second = true; return nil }},
	}, 3, zap.NewNop())
	assert.Len(t, got, 3)
	assert.False(t, second)
}

func TestPostType(t *testing.T) {
	assert.Equal(t, "text_only", PostType(0))
	assert.Equal(t, "single_image", PostType(1))
	assert.Equal(t, "multi_image_4", PostType(4))
}
