package gateway

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/scout-group/discover-cli/pkg/anthropic"
	"github.com/scout-group/discover-cli/pkg/perplexity"
)

// AnthropicProvider adapts an anthropic.Client to the Provider interface.
type AnthropicProvider struct {
	Client anthropic.Client
	Model  string
	Prio   int
}

func (p *AnthropicProvider) Name() string  { return "anthropic" }
func (p *AnthropicProvider) Priority() int { return p.Prio }

func (p *AnthropicProvider) Complete(ctx context.Context, req Request) (*Response, error) {
	msgs := make([]anthropic.Message, len(req.Messages))
	for i, m := range req.Messages {
		msgs[i] = anthropic.Message{Role: m.Role, Content: m.Content}
	}

	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 1024
	}

	resp, err := p.Client.CreateMessage(ctx, anthropic.MessageRequest{
		Model:       p.Model,
		MaxTokens:   maxTokens,
		Messages:    msgs,
		Temperature: req.Temperature,
	})
	if err != nil {
		return nil, eris.Wrap(err, "anthropic provider")
	}
	if resp.Text == "" {
		return nil, eris.New("anthropic provider: empty response")
	}
	resp.Usage.LogUsage(p.Model, "complete")
	return &Response{Text: resp.Text}, nil
}

func (p *AnthropicProvider) Probe(ctx context.Context) error {
	_, err := p.Client.CreateMessage(ctx, anthropic.MessageRequest{
		Model:     p.Model,
		MaxTokens: 1,
		Messages:  []anthropic.Message{{Role: "user", Content: "ping"}},
	})
	return eris.Wrap(err, "anthropic probe")
}

// PerplexityProvider adapts a perplexity.Client to the Provider interface.
type PerplexityProvider struct {
	Client perplexity.Client
	Model  string
	Prio   int
}

func (p *PerplexityProvider) Name() string  { return "perplexity" }
func (p *PerplexityProvider) Priority() int { return p.Prio }

func (p *PerplexityProvider) Complete(ctx context.Context, req Request) (*Response, error) {
	msgs := make([]perplexity.Message, len(req.Messages))
	for i, m := range req.Messages {
		msgs[i] = perplexity.Message{Role: m.Role, Content: m.Content}
	}

	preq := perplexity.ChatCompletionRequest{
		Model:       p.Model,
		Messages:    msgs,
		Temperature: req.Temperature,
	}
	if req.MaxTokens > 0 {
		mt := int(req.MaxTokens)
		preq.MaxTokens = &mt
	}

	resp, err := p.Client.ChatCompletion(ctx, preq)
	if err != nil {
		return nil, eris.Wrap(err, "perplexity provider")
	}
	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return nil, eris.New("perplexity provider: empty response")
	}
	return &Response{Text: resp.Choices[0].Message.Content}, nil
}

func (p *PerplexityProvider) Probe(ctx context.Context) error {
	one := 1
	_, err := p.Client.ChatCompletion(ctx, perplexity.ChatCompletionRequest{
		Model:     p.Model,
		Messages:  []perplexity.Message{{Role: "user", Content: "ping"}},
		MaxTokens: &one,
	})
	return eris.Wrap(err, "perplexity probe")
}
