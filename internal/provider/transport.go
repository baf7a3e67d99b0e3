package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const defaultTimeout = 15 * time.Second

// APIError is a non-2xx reply from a provider.
type APIError struct {
	Provider string
	Status   int
	Body     string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: API error %d: %s", e.Provider, e.Status, e.Body)
}

// Temporary reports whether retrying later may succeed (rate limits and
// server faults).
func (e *APIError) Temporary() bool {
	return e.Status == http.StatusTooManyRequests || e.Status >= 500
}

// transport posts JSON to one provider API.
type transport struct {
	provider string
	client   *http.Client
	headers  map[string]string
}

func newTransport(provider string, timeout time.Duration, headers map[string]string) transport {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return transport{
		provider: provider,
		client:   &http.Client{Timeout: timeout},
		headers:  headers,
	}
}

// post sends in as JSON to url and decodes a 200 reply into out.
func (t transport) post(ctx context.Context, url string, in, out interface{}) error {
	body, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range t.headers {
		req.Header.Set(k, v)
	}

	resp, err := t.client.Do(req)
	if err != nil {
		return fmt.Errorf("%s: send request: %w", t.provider, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return &APIError{Provider: t.provider, Status: resp.StatusCode, Body: string(raw)}
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%s: decode response: %w", t.provider, err)
	}
	return nil
}
