package publish

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/nidhogg/autoposter/internal/content"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// maxStreamLen caps the event stream; older entries are trimmed.
const maxStreamLen = 1000

// PostEvent announces a published post.
type PostEvent struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`
	DraftID   string    `json:"draft_id"`
	PostID    string    `json:"post_id,omitempty"`
	PersonaID string    `json:"persona_id"`
	Handle    string    `json:"username"`
	Topic     string    `json:"topic"`
	PostType  string    `json:"post_type"`
	Images    int       `json:"images"`
	Timestamp time.Time `json:"timestamp"`
}

// EventBus appends post events to a Redis stream.
type EventBus struct {
	rdb    *redis.Client
	stream string
	logger *zap.Logger
}

// NewEventBus connects to redisURL and checks the connection.
func NewEventBus(redisURL, stream string, logger *zap.Logger) (*EventBus, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	rdb := redis.NewClient(opts)
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return NewEventBusFromClient(rdb, stream, logger), nil
}

// NewEventBusFromClient wraps an existing client.
func NewEventBusFromClient(rdb *redis.Client, stream string, logger *zap.Logger) *EventBus {
	return &EventBus{rdb: rdb, stream: stream, logger: logger}
}

// Announce records a post.published event for draft.
func (b *EventBus) Announce(ctx context.Context, draft *content.PostDraft, res *Result) error {
	ev := PostEvent{
		ID:        uuid.NewString(),
		Type:      "post.published",
		DraftID:   draft.ID,
		PersonaID: draft.Persona.ID,
		Handle:    draft.Persona.Handle,
		Topic:     draft.Topic,
		PostType:  draft.PostType,
		Images:    len(draft.Images),
		Timestamp: time.Now().UTC(),
	}
	if res != nil {
		ev.PostID = res.PostID
	}
	data, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	_, err = b.rdb.XAdd(ctx, &redis.XAddArgs{
		Stream: b.stream,
		MaxLen: maxStreamLen,
		Approx: true,
		Values: map[string]interface{}{
			"type": ev.Type,
			"data": string(data),
		},
	}).Result()
	if err != nil {
		return fmt.Errorf("publish to %s: %w", b.stream, err)
	}
	b.logger.Debug("announced post",
		zap.String("persona", ev.Handle),
		zap.String("post_type", ev.PostType))
	return nil
}

// Recent returns up to n events, newest first.
func (b *EventBus) Recent(ctx context.Context, n int64) ([]PostEvent, error) {
	msgs, err := b.rdb.XRevRangeN(ctx, b.stream, "+", "-", n).Result()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", b.stream, err)
	}
	out := make([]PostEvent, 0, len(msgs))
	for _, m := range msgs {
		data, ok := m.Values["data"].(string)
		if !ok {
			continue
		}
		var ev PostEvent
		if json.Unmarshal([]byte(data), &ev) == nil {
			out = append(out, ev)
		}
	}
	return out, nil
}

// Close shuts down the Redis connection.
func (b *EventBus) Close() error {
	return b.rdb.Close()
}
