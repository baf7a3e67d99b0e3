// Package caption writes post captions with an LLM and sanitizes the
// result. Template captions live alongside for the deterministic path.
package caption

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/nidhogg/autoposter/internal/persona"
	"github.com/nidhogg/autoposter/internal/provider"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

var (
	// ErrEmptyCaption is returned when the model produced no usable text.
	ErrEmptyCaption = errors.New("empty caption")
	// ErrCircuitOpen is returned while the breaker rejects calls.
	ErrCircuitOpen = errors.New("caption circuit breaker is open")
)

// defaultHashtags are appended when the model wrote none.
const defaultHashtags = "#beautiful #instagood #amazing"

// Config tunes the AI captioner.
type Config struct {
	Model       string
	Timeout     time.Duration
	MaxLength   int
	Temperature float64
	// MaxFailures consecutive failures open the breaker for OpenFor.
	MaxFailures uint32
	OpenFor     time.Duration
}

// ImageContext describes the lead image of an image post.
type ImageContext struct {
	Description string
	Mood        string
	TimeOfDay   string
	Setting     string
	Count       int
}

// Captioner generates captions. A failure is an expected outcome.
type Captioner interface {
	Caption(ctx context.Context, p persona.Persona, topic string, img *ImageContext) (string, error)
}

// AICaptioner asks an LLM provider for a caption.
type AICaptioner struct {
	provider provider.Provider
	breaker  *gobreaker.CircuitBreaker
	config   Config
	logger   *zap.Logger
}

// NewAICaptioner creates a captioner over p.
func NewAICaptioner(p provider.Provider, cfg Config, logger *zap.Logger) *AICaptioner {
	if cfg.Timeout == 0 {
		cfg.Timeout = 15 * time.Second
	}
	if cfg.MaxLength == 0 {
		cfg.MaxLength = 300
	}
	if cfg.Temperature == 0 {
		cfg.Temperature = 0.7
	}
	if cfg.MaxFailures == 0 {
		cfg.MaxFailures = 3
	}
	if cfg.OpenFor == 0 {
		cfg.OpenFor = time.Minute
	}
	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "caption",
		MaxRequests: 1,
		Timeout:     cfg.OpenFor,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.MaxFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("caption breaker state change",
				zap.String("from", from.String()),
				zap.String("to", to.String()))
		},
	})
	return &AICaptioner{provider: p, breaker: breaker, config: cfg, logger: logger}
}

// State returns the breaker state ("closed", "open", "half-open").
func (c *AICaptioner) State() string {
	return c.breaker.State().String()
}

// Caption implements Captioner.
func (c *AICaptioner) Caption(ctx context.Context, p persona.Persona, topic string, img *ImageContext) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.config.Timeout)
	defer cancel()

	out, err := c.breaker.Execute(func() (interface{}, error) {
		resp, err := c.provider.Chat(ctx, &provider.ChatRequest{
			Model: c.config.Model,
			Messages: []provider.Message{
				{Role: "user", Content: buildPrompt(p, topic, img)},
			},
			Temperature: c.config.Temperature,
			MaxTokens:   150,
			TopP:        0.9,
		})
		if err != nil {
			return nil, err
		}
		text := Sanitize(resp.Content, c.config.MaxLength)
		if text == "" {
			return nil, ErrEmptyCaption
		}
		return text, nil
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return "", ErrCircuitOpen
		}
		return "", fmt.Errorf("caption for %s: %w", p.Handle, err)
	}
	return out.(string), nil
}

func buildPrompt(p persona.Persona, topic string, img *ImageContext) string {
	interests := "general"
	if len(p.Interests) > 0 {
		interests = strings.Join(p.Interests, ", ")
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "You are %s (@%s), a %s creator. %s\n\n", p.Name, p.Handle, p.Type, p.Bio)
	fmt.Fprintf(&sb, "Write a social media caption about %s in your own style.\n", DisplayTopic(topic))
	fmt.Fprintf(&sb, "Interests: %s\n", interests)
	if img != nil {
		if img.Description != "" {
			fmt.Fprintf(&sb, "The photo shows: %s\n", img.Description)
		}
		if img.Mood != "" && img.Mood != "neutral" {
			fmt.Fprintf(&sb, "Mood of the photo: %s\n", img.Mood)
		}
		if img.Count > 1 {
			fmt.Fprintf(&sb, "The post is a gallery of %d photos.\n", img.Count)
		}
	}
	sb.WriteString("\nRequirements:\n")
	sb.WriteString("- Write in first person\n")
	sb.WriteString("- Include relevant emojis\n")
	sb.WriteString("- Add 3-5 relevant hashtags\n")
	sb.WriteString("- Keep under 280 characters\n")
	sb.WriteString("- Output only the caption")
	return sb.String()
}

// Sanitize strips wrapping quotes and a leading "Caption:" label, truncates
// to maxLen runes and appends generic hashtags when none are present.
func Sanitize(text string, maxLen int) string {
	text = strings.TrimSpace(text)
	for _, q := range []string{`"`, "'", "“"} {
		closing := q
		if q == "“" {
			closing = "”"
		}
		if len(text) >= 2 && strings.HasPrefix(text, q) && strings.HasSuffix(text, closing) {
			text = strings.TrimSpace(text[len(q) : len(text)-len(closing)])
		}
	}
	if len(text) >= 8 && strings.EqualFold(text[:8], "caption:") {
		text = strings.TrimSpace(text[8:])
	}
	if text == "" {
		return ""
	}
	if maxLen > 0 && utf8.RuneCountInString(text) > maxLen {
		runes := []rune(text)
		text = strings.TrimSpace(string(runes[:maxLen])) + "..."
	}
	if !strings.Contains(text, "#") {
		text += " " + defaultHashtags
	}
	return text
}
