package distance

import (
	"context"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/destinos-group/destinos-cli/pkg/anthropic"
)

const (
	defaultLLMModel    = "claude-haiku-4-5-20251001"
	llmSystemPrompt    = "You estimate road distances between Spanish localities. Answer with a single number: the road distance in kilometers. No units, no explanation."
	llmMaxOutputTokens = 64
)

// LLMProvider estimates distances with an Anthropic model when routing
// and geocoding both fail. Estimates are approximate and marked as such
// by their source.
type LLMProvider struct {
	client anthropic.Client
	model  string
}

// LLMOption configures the LLMProvider.
type LLMOption func(*LLMProvider)

// WithLLMModel overrides the model used for estimation.
func WithLLMModel(model string) LLMOption {
	return func(p *LLMProvider) {
		p.model = model
	}
}

// NewLLMProvider creates an LLMProvider backed by the given client.
func NewLLMProvider(client anthropic.Client, opts ...LLMOption) *LLMProvider {
	p := &LLMProvider{
		client: client,
		model:  defaultLLMModel,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Name implements Provider.
func (p *LLMProvider) Name() string { return "llm" }

// Available implements Provider.
func (p *LLMProvider) Available() bool { return p.client != nil }

// Distance implements Provider.
func (p *LLMProvider) Distance(ctx context.Context, a, b Place) (*Result, error) {
	temp := 0.0
	resp, err := p.client.CreateMessage(ctx, anthropic.MessageRequest{
		Model:       p.model,
		MaxTokens:   llmMaxOutputTokens,
		System:      llmSystemPrompt,
		Temperature: &temp,
		Messages: []anthropic.Message{
			{Role: "user", Content: "Road distance in km from " + a.String() + " to " + b.String() + "?"},
		},
	})
	if err != nil {
		return nil, eris.Wrap(err, "llm: estimate distance")
	}
	resp.Usage.LogUsage(p.model, "distance-estimate")

	km, err := parseKM(resp.Text())
	if err != nil {
		return nil, err
	}

	zap.L().Debug("llm distance estimate",
		zap.String("from", a.String()),
		zap.String("to", b.String()),
		zap.Float64("km", km),
	)
	return &Result{KM: km, Source: p.Name()}, nil
}

// parseKM extracts a non-negative kilometer value from model output.
// Tolerates surrounding whitespace, a trailing unit, and comma decimals.
func parseKM(text string) (float64, error) {
	s := strings.TrimSpace(text)
	s = strings.TrimSuffix(strings.ToLower(s), "km")
	s = strings.TrimSpace(s)
	s = strings.ReplaceAll(s, ",", ".")

	km, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, eris.Errorf("llm: unparseable distance %q", text)
	}
	if km < 0 {
		return 0, eris.Errorf("llm: negative distance %q", text)
	}
	return km, nil
}
