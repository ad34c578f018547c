// Package narrative turns a fetched team-reveal article into a short summary.
// It defines a provider-agnostic LLM interface with concrete implementations
// for OpenAI-compatible endpoints (OpenAI, Gemini) and Anthropic, plus a
// deterministic mock for testing.
package narrative

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
)

var (
	ErrLLMFailed     = errors.New("LLM request failed")
	ErrInvalidConfig = errors.New("invalid LLM configuration")
)

// Provider identifies an LLM backend.
type Provider string

const (
	ProviderGemini    Provider = "gemini"
	ProviderOpenAI    Provider = "openai"
	ProviderAnthropic Provider = "anthropic"
)

// GeminiOpenAIBaseURL is Google's OpenAI-compatible endpoint.
const GeminiOpenAIBaseURL = "https://generativelanguage.googleapis.com/v1beta/openai/"

// LLM defines the interface for interacting with language models.
// Implementations must be stateless and thread-safe.
type LLM interface {
	// Generate produces text for prompt under the given system instruction.
	Generate(ctx context.Context, system, prompt string) (string, error)
}

// LLMConfig holds common configuration options for LLM providers.
type LLMConfig struct {
	// Provider selects the backend (gemini, openai, anthropic)
	Provider Provider `env:"LLM_PROVIDER" envDefault:"gemini"`

	// Model specifies the model identifier; empty selects the provider default
	Model string `env:"LLM_MODEL"`

	// Temperature controls randomness (0 = provider default)
	Temperature float32 `env:"LLM_TEMPERATURE" envDefault:"0"`

	// MaxTokens limits the response length (0 = use provider default)
	MaxTokens int `env:"LLM_MAX_TOKENS" envDefault:"2000"`

	// BaseURL overrides the provider endpoint
	BaseURL string `env:"LLM_BASE_URL"`

	// APIKey is the authentication key for the provider. When empty the
	// provider's conventional environment variable is consulted.
	APIKey string `env:"LLM_API_KEY"`
}

// DefaultLLMConfig returns sensible defaults for article summaries.
func DefaultLLMConfig() LLMConfig {
	return LLMConfig{
		Provider:  ProviderGemini,
		Model:     "gemini-2.5-flash",
		MaxTokens: 2000,
	}
}

// DefaultModel returns the model used when none is configured.
func DefaultModel(p Provider) string {
	switch p {
	case ProviderOpenAI:
		return "gpt-4o"
	case ProviderAnthropic:
		return "claude-3-5-haiku-latest"
	default:
		return "gemini-2.5-flash"
	}
}

// apiKeyEnv names the environment variable each provider reads its key from.
func apiKeyEnv(p Provider) string {
	switch p {
	case ProviderOpenAI:
		return "OPENAI_API_KEY"
	case ProviderAnthropic:
		return "ANTHROPIC_API_KEY"
	default:
		return "GOOGLE_STUDIO_API_KEY"
	}
}

// resolve fills the model and API key from defaults and the environment.
func (c LLMConfig) resolve() (LLMConfig, error) {
	c.Provider = Provider(strings.ToLower(strings.TrimSpace(string(c.Provider))))
	if c.Provider == "" {
		c.Provider = ProviderGemini
	}
	switch c.Provider {
	case ProviderGemini, ProviderOpenAI, ProviderAnthropic:
	default:
		return c, fmt.Errorf("%w: unknown provider %q", ErrInvalidConfig, c.Provider)
	}

	if c.Model == "" {
		c.Model = DefaultModel(c.Provider)
	}
	if c.APIKey == "" {
		c.APIKey = os.Getenv(apiKeyEnv(c.Provider))
	}
	if c.APIKey == "" {
		return c, fmt.Errorf("%w: missing API key (set %s or LLM_API_KEY)", ErrInvalidConfig, apiKeyEnv(c.Provider))
	}
	if c.BaseURL == "" && c.Provider == ProviderGemini {
		c.BaseURL = GeminiOpenAIBaseURL
	}
	return c, nil
}

// NewLLM builds the LLM for the configured provider. The returned config has
// the model and key resolved.
func NewLLM(config LLMConfig) (LLM, LLMConfig, error) {
	resolved, err := config.resolve()
	if err != nil {
		return nil, config, err
	}

	switch resolved.Provider {
	case ProviderAnthropic:
		llm, err := NewAnthropicLLM(resolved)
		return llm, resolved, err
	default:
		llm, err := NewOpenAILLM(resolved)
		return llm, resolved, err
	}
}
