package provider

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"
)

// ErrNoProvider is returned when the router has nothing registered.
var ErrNoProvider = errors.New("no provider registered")

// Router sends requests to the primary provider and walks the fallback
// chain, in registration order, when it fails.
type Router struct {
	providers []Provider
	mu        sync.RWMutex
	logger    *zap.Logger
}

// NewRouter creates a new provider router.
func NewRouter(logger *zap.Logger) *Router {
	return &Router{logger: logger}
}

// Register appends a provider. The first registered provider is primary.
func (r *Router) Register(p Provider) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.providers = append(r.providers, p)
	r.logger.Info("registered provider", zap.String("id", p.ID()), zap.String("name", p.Name()))
}

// Len returns the number of registered providers.
func (r *Router) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.providers)
}

// Chat implements Provider over the whole chain.
func (r *Router) Chat(ctx context.Context, req *ChatRequest) (*ChatResponse, error) {
	r.mu.RLock()
	chain := append([]Provider(nil), r.providers...)
	r.mu.RUnlock()

	if len(chain) == 0 {
		return nil, ErrNoProvider
	}

	var lastErr error
	for i, p := range chain {
		// each provider gets its own copy; providers may fill in a model
		attempt := *req
		resp, err := p.Chat(ctx, &attempt)
		if err == nil {
			return resp, nil
		}
		lastErr = err
		if ctx.Err() != nil {
			break
		}
		if i < len(chain)-1 {
			r.logger.Warn("provider failed, trying fallback",
				zap.String("provider", p.ID()), zap.Error(err))
		}
	}
	return nil, fmt.Errorf("all providers failed: %w", lastErr)
}

func (r *Router) ID() string   { return "router" }
func (r *Router) Name() string { return "Provider Router" }

// Build constructs a provider from config. Unknown types return nil.
func Build(cfg ProviderConfig, logger *zap.Logger) Provider {
	switch cfg.Type {
	case "openai", "groq", "openai-compatible":
		return NewOpenAIProvider(cfg, logger)
	case "anthropic":
		return NewAnthropicProvider(cfg, logger)
	default:
		return nil
	}
}
