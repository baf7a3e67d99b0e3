// Package publish forwards finished drafts to the posting backend and
// announces them on a Redis stream.
package publish

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/nidhogg/autoposter/internal/content"
	"github.com/nidhogg/autoposter/internal/imagesource"
	"go.uber.org/zap"
)

// ErrRejected is returned when the backend answers with a non-2xx status.
var ErrRejected = errors.New("backend rejected post")

// Result is the backend's answer to a publish call.
type Result struct {
	PostID string                 `json:"post_id,omitempty"`
	Status int                    `json:"status"`
	Body   map[string]interface{} `json:"body,omitempty"`
}

// Sink delivers drafts to the backend.
type Sink interface {
	Publish(ctx context.Context, draft *content.PostDraft) (*Result, error)
}

// HTTPSink posts drafts to {backend}/api/bot/create-post.
type HTTPSink struct {
	endpoint string
	client   *http.Client
	logger   *zap.Logger
}

// NewHTTPSink creates a sink for backendURL.
func NewHTTPSink(backendURL string, timeout time.Duration, logger *zap.Logger) *HTTPSink {
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &HTTPSink{
		endpoint: strings.TrimRight(backendURL, "/") + "/api/bot/create-post",
		client:   &http.Client{Timeout: timeout},
		logger:   logger,
	}
}

type botUser struct {
	Name     string `json:"name"`
	Username string `json:"username"`
	Bio      string `json:"bio"`
	Avatar   string `json:"avatar"`
}

type botMetadata struct {
	BotUser   botUser             `json:"bot_user"`
	PhotoData []imagesource.Image `json:"photo_data"`
	Topic     string              `json:"topic"`
	CreatedBy string              `json:"created_by"`
	CreatedAt string              `json:"created_at"`
}

type createPostRequest struct {
	Content     string      `json:"content"`
	Images      []string    `json:"images"`
	PostType    string      `json:"post_type"`
	Mood        string      `json:"mood,omitempty"`
	TimeContext string      `json:"time_context,omitempty"`
	BotMetadata botMetadata `json:"bot_metadata"`
}

func payloadFor(d *content.PostDraft) createPostRequest {
	images := d.Images
	if images == nil {
		images = []string{}
	}
	photos := d.Photos
	if photos == nil {
		photos = []imagesource.Image{}
	}
	return createPostRequest{
		Content:     d.Content,
		Images:      images,
		PostType:    d.PostType,
		Mood:        d.Mood,
		TimeContext: d.TimeContext,
		BotMetadata: botMetadata{
			BotUser: botUser{
				Name:     d.Persona.Name,
				Username: d.Persona.Handle,
				Bio:      d.Persona.Bio,
				Avatar:   d.Persona.Avatar,
			},
			PhotoData: photos,
			Topic:     d.Topic,
			CreatedBy: "autoposter",
			CreatedAt: d.CreatedAt.UTC().Format(time.RFC3339),
		},
	}
}

// Publish sends draft once. There is no retry.
func (s *HTTPSink) Publish(ctx context.Context, draft *content.PostDraft) (*Result, error) {
	body, err := json.Marshal(payloadFor(draft))
	if err != nil {
		return nil, fmt.Errorf("marshal post: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("send post: %w", err)
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: status %d: %s", ErrRejected, resp.StatusCode, truncate(string(raw), 200))
	}

	res := &Result{Status: resp.StatusCode}
	if len(raw) > 0 && json.Unmarshal(raw, &res.Body) == nil {
		res.PostID = postID(res.Body)
	}
	s.logger.Info("post published",
		zap.String("persona", draft.Persona.Handle),
		zap.String("post_type", draft.PostType),
		zap.String("post_id", res.PostID))
	return res, nil
}

// postID digs the created post's id out of the common response shapes.
func postID(body map[string]interface{}) string {
	for _, key := range []string{"id", "_id", "postId"} {
		if v, ok := body[key].(string); ok && v != "" {
			return v
		}
	}
	for _, key := range []string{"post", "data"} {
		if nested, ok := body[key].(map[string]interface{}); ok {
			if id := postID(nested); id != "" {
				return id
			}
		}
	}
	return ""
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
