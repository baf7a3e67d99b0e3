package provider

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"
)

// ErrEmptyCompletion is returned when a provider answers with no choices.
var ErrEmptyCompletion = errors.New("provider returned no completion")

// OpenAIProvider speaks the chat-completions dialect shared by OpenAI, Groq
// and most self-hosted gateways.
type OpenAIProvider struct {
	cfg    ProviderConfig
	http   transport
	logger *zap.Logger
}

// NewOpenAIProvider defaults the endpoint to Groq.
func NewOpenAIProvider(cfg ProviderConfig, logger *zap.Logger) *OpenAIProvider {
	if cfg.Endpoint == "" {
		cfg.Endpoint = "https://api.groq.com/openai/v1"
	}
	cfg.Endpoint = strings.TrimRight(cfg.Endpoint, "/")
	return &OpenAIProvider{
		cfg:    cfg,
		http:   newTransport(cfg.ID, cfg.Timeout, map[string]string{"Authorization": "Bearer " + cfg.APIKey}),
		logger: logger,
	}
}

func (p *OpenAIProvider) ID() string   { return p.cfg.ID }
func (p *OpenAIProvider) Name() string { return p.cfg.Name }

type completionReply struct {
	ID      string `json:"id"`
	Model   string `json:"model"`
	Choices []struct {
		Message      Message `json:"message"`
		FinishReason string  `json:"finish_reason"`
	} `json:"choices"`
	Usage Usage `json:"usage"`
}

func (p *OpenAIProvider) Chat(ctx context.Context, req *ChatRequest) (*ChatResponse, error) {
	if req.Model == "" {
		req.Model = p.cfg.DefaultModel("llama-3.1-8b-instant")
	}
	var reply completionReply
	if err := p.http.post(ctx, p.cfg.Endpoint+"/chat/completions", req, &reply); err != nil {
		return nil, err
	}
	if len(reply.Choices) == 0 {
		return nil, ErrEmptyCompletion
	}
	p.logger.Debug("completion",
		zap.String("provider", p.cfg.ID),
		zap.String("model", reply.Model),
		zap.Int("tokens", reply.Usage.TotalTokens))
	first := reply.Choices[0]
	return &ChatResponse{
		ID:           reply.ID,
		Model:        reply.Model,
		ProviderID:   p.cfg.ID,
		Content:      first.Message.Content,
		FinishReason: first.FinishReason,
		Usage:        reply.Usage,
	}, nil
}
