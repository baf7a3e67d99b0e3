package publish

import (
	"context"

	"github.com/nidhogg/autoposter/internal/content"
	"go.uber.org/zap"
)

// Publisher sends drafts through a Sink and, when a bus is configured,
// announces each successful publish.
type Publisher struct {
	sink   Sink
	bus    *EventBus
	logger *zap.Logger
}

// NewPublisher creates a Publisher. bus may be nil.
func NewPublisher(sink Sink, bus *EventBus, logger *zap.Logger) *Publisher {
	return &Publisher{sink: sink, bus: bus, logger: logger}
}

// Publish forwards draft. An announcement failure does not fail the publish.
func (p *Publisher) Publish(ctx context.Context, draft *content.PostDraft) (*Result, error) {
	res, err := p.sink.Publish(ctx, draft)
	if err != nil {
		return nil, err
	}
	if p.bus != nil {
		if err := p.bus.Announce(ctx, draft, res); err != nil {
			p.logger.Warn("announce post failed", zap.String("draft", draft.ID), zap.Error(err))
		}
	}
	return res, nil
}

// Events returns the bus, or nil when announcements are disabled.
func (p *Publisher) Events() *EventBus {
	return p.bus
}
