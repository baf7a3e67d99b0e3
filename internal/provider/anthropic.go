package provider

import (
	"context"
	"strings"

	"go.uber.org/zap"
)

// AnthropicProvider talks to the Claude Messages API.
type AnthropicProvider struct {
	cfg    ProviderConfig
	http   transport
	logger *zap.Logger
}

func NewAnthropicProvider(cfg ProviderConfig, logger *zap.Logger) *AnthropicProvider {
	if cfg.Endpoint == "" {
		cfg.Endpoint = "https://api.anthropic.com/v1"
	}
	cfg.Endpoint = strings.TrimRight(cfg.Endpoint, "/")
	return &AnthropicProvider{
		cfg: cfg,
		http: newTransport(cfg.ID, cfg.Timeout, map[string]string{
			"x-api-key":         cfg.APIKey,
			"anthropic-version": "2023-06-01",
		}),
		logger: logger,
	}
}

func (p *AnthropicProvider) ID() string   { return p.cfg.ID }
func (p *AnthropicProvider) Name() string { return p.cfg.Name }

type messagesRequest struct {
	Model       string    `json:"model"`
	System      string    `json:"system,omitempty"`
	Messages    []Message `json:"messages"`
	MaxTokens   int       `json:"max_tokens"`
	Temperature float64   `json:"temperature,omitempty"`
	TopP        float64   `json:"top_p,omitempty"`
}

type messagesReply struct {
	ID      string `json:"id"`
	Model   string `json:"model"`
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	StopReason string `json:"stop_reason"`
	Usage      struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage"`
}

// Chat moves system turns into the top-level system field, which the
// Messages API requires.
func (p *AnthropicProvider) Chat(ctx context.Context, req *ChatRequest) (*ChatResponse, error) {
	in := messagesRequest{
		Model:       req.Model,
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
		TopP:        req.TopP,
	}
	if in.Model == "" {
		in.Model = p.cfg.DefaultModel("claude-3-5-haiku-20241022")
	}
	if in.MaxTokens == 0 {
		in.MaxTokens = 300
	}
	var system []string
	for _, m := range req.Messages {
		if m.Role == "system" {
			system = append(system, m.Content)
			continue
		}
		in.Messages = append(in.Messages, m)
	}
	in.System = strings.Join(system, "\n\n")

	var reply messagesReply
	if err := p.http.post(ctx, p.cfg.Endpoint+"/messages", in, &reply); err != nil {
		return nil, err
	}

	var text strings.Builder
	for _, block := range reply.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}
	if text.Len() == 0 {
		return nil, ErrEmptyCompletion
	}
	return &ChatResponse{
		ID:           reply.ID,
		Model:        reply.Model,
		ProviderID:   p.cfg.ID,
		Content:      text.String(),
		FinishReason: reply.StopReason,
		Usage: Usage{
			PromptTokens:     reply.Usage.InputTokens,
			CompletionTokens: reply.Usage.OutputTokens,
			TotalTokens:      reply.Usage.InputTokens + reply.Usage.OutputTokens,
		},
	}, nil
}
