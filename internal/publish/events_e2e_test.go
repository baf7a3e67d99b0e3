//go:build e2e

package publish

import (
	"context"
	"testing"
	"time"

	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"
	"go.uber.org/zap"
)

// TestEventBusRealRedis runs the stream round trip against a Redis container.
func TestEventBusRealRedis(t *testing.T) {
	ctx := context.Background()
	container, err := tcredis.Run(ctx, "redis:7-alpine")
	if err != nil {
		t.Skipf("start redis: %v", err)
	}
	defer container.Terminate(ctx)

	endpoint, err := container.Endpoint(ctx, "")
	if err != nil {
		t.Fatalf("redis endpoint: %v", err)
	}

	bus, err := NewEventBus("redis://"+endpoint, "autoposter:e2e", zap.NewNop())
	if err != nil {
		t.Fatalf("new event bus: %v", err)
	}
	defer bus.Close()

	for i := 0; i < 3; i++ {
		d := testDraft()
		d.Topic = []string{"sunset", "coffee", "travel"}[i]
		if err := bus.Announce(ctx, d, &Result{PostID: d.Topic}); err != nil {
			t.Fatalf("announce %d: %v", i, err)
		}
		time.Sleep(2 * time.Millisecond)
	}

	events, err := bus.Recent(ctx, 2)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(events))
	}
	if events[0].Topic != "travel" || events[1].Topic != "coffee" {
		t.Errorf("expected newest first, got %s then %s", events[0].Topic, events[1].Topic)
	}
}
