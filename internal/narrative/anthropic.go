package narrative

import (
	"context"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	anthropicopt "github.com/anthropics/anthropic-sdk-go/option"
)

// anthropicDefaultMaxTokens is required by the Messages API.
const anthropicDefaultMaxTokens = 2000

// AnthropicLLM implements the LLM interface using the Messages API.
type AnthropicLLM struct {
	client anthropic.Client
	config LLMConfig
}

// NewAnthropicLLM creates an Anthropic-backed LLM implementation.
func NewAnthropicLLM(config LLMConfig) (*AnthropicLLM, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("%w: missing API key (set ANTHROPIC_API_KEY)", ErrInvalidConfig)
	}
	if config.Model == "" {
		return nil, fmt.Errorf("%w: missing model name", ErrInvalidConfig)
	}

	opts := []anthropicopt.RequestOption{anthropicopt.WithAPIKey(config.APIKey)}
	if config.BaseURL != "" {
		opts = append(opts, anthropicopt.WithBaseURL(config.BaseURL))
	}

	return &AnthropicLLM{
		client: anthropic.NewClient(opts...),
		config: config,
	}, nil
}

// Generate sends the prompt as a single user turn and joins the text blocks
// of the reply.
func (a *AnthropicLLM) Generate(ctx context.Context, system, prompt string) (string, error) {
	if prompt == "" {
		return "", fmt.Errorf("%w: prompt cannot be empty", ErrInvalidConfig)
	}

	maxTokens := a.config.MaxTokens
	if maxTokens <= 0 {
		maxTokens = anthropicDefaultMaxTokens
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(a.config.Model),
		MaxTokens: int64(maxTokens),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	}
	if system != "" {
		params.System = []anthropic.TextBlockParam{{Text: system}}
	}
	if a.config.Temperature > 0 {
		params.Temperature = anthropic.Float(float64(a.config.Temperature))
	}

	msg, err := a.client.Messages.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrLLMFailed, err)
	}

	var b strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			b.WriteString(block.Text)
		}
	}
	if b.Len() == 0 {
		return "", fmt.Errorf("%w: no text in response", ErrLLMFailed)
	}
	return b.String(), nil
}
