package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"revenue-forecast-lab/internal/observability"
)

// Default Claude settings. The explainer payload is small, so a modest
// token budget is enough for ten rationales.
const (
	defaultModel       = "claude-sonnet-4-20250514"
	defaultMaxTokens   = 2048
	defaultTimeout     = 60 * time.Second
	defaultTemperature = 0.2
)

// ClaudeGenerator implements Generator using the Anthropic Claude API.
type ClaudeGenerator struct {
	client      anthropic.Client
	model       string
	maxTokens   int64
	timeout     time.Duration
	temperature float64
}

// ClaudeOptions configures a ClaudeGenerator. Zero values fall back to
// package defaults.
type ClaudeOptions struct {
	APIKey    string // required
	Model     string
	MaxTokens int64
	Timeout   time.Duration
}

// NewClaudeGenerator creates a Claude-backed text generator.
func NewClaudeGenerator(opts ClaudeOptions) (*ClaudeGenerator, error) {
	if opts.APIKey == "" {
		return nil, fmt.Errorf("anthropic api key is required (set ANTHROPIC_API_KEY)")
	}
	if opts.Model == "" {
		opts.Model = defaultModel
	}
	if opts.MaxTokens <= 0 {
		opts.MaxTokens = defaultMaxTokens
	}
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}

	return &ClaudeGenerator{
		client:      anthropic.NewClient(option.WithAPIKey(opts.APIKey)),
		model:       opts.Model,
		maxTokens:   opts.MaxTokens,
		timeout:     opts.Timeout,
		temperature: defaultTemperature,
	}, nil
}

// Generate sends the prompt to Claude and returns the accumulated text
// content. The call is bounded by the configured timeout so the forecast
// pipeline can never hang on an unreachable model.
func (g *ClaudeGenerator) Generate(ctx context.Context, system, prompt string) (string, error) {
	timeoutCtx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	params := anthropic.MessageNewParams{
		Model:       anthropic.Model(g.model),
		MaxTokens:   g.maxTokens,
		Temperature: anthropic.Float(g.temperature),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	}
	if system != "" {
		params.System = []anthropic.TextBlockParam{{Text: system}}
	}

	start := time.Now()
	resp, err := g.client.Messages.New(timeoutCtx, params)
	observability.RecordLLMRequest(time.Since(start).Seconds(), err)
	if err != nil {
		return "", fmt.Errorf("claude api call: %w", err)
	}

	var sb strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}
	if sb.Len() == 0 {
		return "", fmt.Errorf("claude returned no text content")
	}
	return sb.String(), nil
}

var _ Generator = (*ClaudeGenerator)(nil)
