package imagesource

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// UnsplashConfig configures the Unsplash client.
type UnsplashConfig struct {
	Endpoint  string
	AccessKey string
	// RequestsPerHour is the API quota; the client spaces calls to stay
	// under it.
	RequestsPerHour int
	Timeout         time.Duration
	// MaxWait caps how long a call queues for quota. A call that would
	// wait longer fails with ErrRateLimited instead.
	MaxWait time.Duration
}

// ErrRateLimited is returned when the hourly quota is spent for longer than
// MaxWait.
var ErrRateLimited = errors.New("image search quota exhausted")

// maxPerPage is the largest page Unsplash serves; maxRandom the largest
// random batch.
const (
	maxPerPage = 30
	maxRandom  = 30
)

// Unsplash implements Source against the Unsplash REST API.
type Unsplash struct {
	config  UnsplashConfig
	client  *http.Client
	limiter *rate.Limiter
	logger  *zap.Logger
}

// NewUnsplash creates an Unsplash client.
func NewUnsplash(cfg UnsplashConfig, logger *zap.Logger) *Unsplash {
	if cfg.Endpoint == "" {
		cfg.Endpoint = "https://api.unsplash.com"
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 15 * time.Second
	}
	if cfg.MaxWait == 0 {
		cfg.MaxWait = 10 * time.Second
	}
	limit := rate.Inf
	if cfg.RequestsPerHour > 0 {
		limit = rate.Every(time.Hour / time.Duration(cfg.RequestsPerHour))
	}
	return &Unsplash{
		config:  cfg,
		client:  &http.Client{Timeout: cfg.Timeout},
		limiter: rate.NewLimiter(limit, 5),
		logger:  logger,
	}
}

// reserve takes one request from the quota, waiting at most MaxWait.
func (u *Unsplash) reserve(ctx context.Context) error {
	r := u.limiter.Reserve()
	delay := r.Delay()
	if delay == 0 {
		return nil
	}
	if delay > u.config.MaxWait {
		r.Cancel()
		return fmt.Errorf("%w: next slot in %s", ErrRateLimited, delay.Round(time.Second))
	}
	t := time.NewTimer(delay)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		r.Cancel()
		return ctx.Err()
	}
}

// Search implements Source.
func (u *Unsplash) Search(ctx context.Context, topic string, page, perPage int, order Order) ([]Image, error) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 || perPage > maxPerPage {
		perPage = maxPerPage
	}
	if order == "" {
		order = OrderRelevant
	}
	q := url.Values{}
	q.Set("query", topic)
	q.Set("page", strconv.Itoa(page))
	q.Set("per_page", strconv.Itoa(perPage))
	q.Set("order_by", string(order))

	var result struct {
		Results []unsplashPhoto `json:"results"`
	}
	if err := u.get(ctx, "/search/photos", q, &result); err != nil {
		return nil, fmt.Errorf("search %q page %d: %w", topic, page, err)
	}
	return convertPhotos(result.Results), nil
}

// Random implements Source.
func (u *Unsplash) Random(ctx context.Context, count int, topic string) ([]Image, error) {
	if count < 1 {
		count = 1
	}
	if count > maxRandom {
		count = maxRandom
	}
	q := url.Values{}
	q.Set("count", strconv.Itoa(count))
	if topic != "" {
		q.Set("query", topic)
	}

	var photos []unsplashPhoto
	if err := u.get(ctx, "/photos/random", q, &photos); err != nil {
		return nil, fmt.Errorf("random %q: %w", topic, err)
	}
	return convertPhotos(photos), nil
}

func (u *Unsplash) get(ctx context.Context, path string, q url.Values, out interface{}) error {
	if err := u.reserve(ctx); err != nil {
		return err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet,
		u.config.Endpoint+path+"?"+q.Encode(), nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Accept-Version", "v1")
	httpReq.Header.Set("Authorization", "Client-ID "+u.config.AccessKey)

	resp, err := u.client.Do(httpReq)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("API error %d: %s", resp.StatusCode, string(respBody))
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	u.logger.Debug("unsplash request",
		zap.String("path", path),
		zap.String("remaining", resp.Header.Get("X-Ratelimit-Remaining")))
	return nil
}

// unsplash-specific response types
type unsplashPhoto struct {
	ID             string `json:"id"`
	Description    string `json:"description"`
	AltDescription string `json:"alt_description"`
	Color          string `json:"color"`
	Width          int    `json:"width"`
	Height         int    `json:"height"`
	Likes          int    `json:"likes"`
	URLs           struct {
		Regular string `json:"regular"`
		Full    string `json:"full"`
	} `json:"urls"`
	User struct {
		Name string `json:"name"`
	} `json:"user"`
}

func convertPhotos(in []unsplashPhoto) []Image {
	out := make([]Image, 0, len(in))
	for _, p := range in {
		u := p.URLs.Regular
		if u == "" {
			u = p.URLs.Full
		}
		if u == "" {
			continue
		}
		out = append(out, Image{
			ID:             p.ID,
			URL:            u,
			Description:    p.Description,
			AltDescription: p.AltDescription,
			Color:          p.Color,
			Width:          p.Width,
			Height:         p.Height,
			Likes:          p.Likes,
			Author:         p.User.Name,
		})
	}
	return out
}
