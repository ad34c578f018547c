package narrative

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Yates-Labs/fplab/internal/fpl"
)

var (
	ErrGenerationFailed = errors.New("summary generation failed")
)

// Summary is the generated digest of one article.
type Summary struct {
	// ArticleTitle is the headline of the summarized article
	ArticleTitle string `json:"article_title,omitempty"`

	// Text is the generated summary
	Text string `json:"text"`

	// GeneratedAt is when this summary was created
	GeneratedAt time.Time `json:"generated_at"`

	// Model is the LLM model used to generate this summary
	Model string `json:"model"`
}

// Generator produces summaries from article text using an LLM.
type Generator struct {
	llm    LLM
	config LLMConfig
	tone   string
	extra  string
}

// GeneratorOption customizes a Generator.
type GeneratorOption func(*Generator)

// WithTone overrides the tone line of the system prompt.
func WithTone(tone string) GeneratorOption {
	return func(g *Generator) { g.tone = tone }
}

// WithExtraInstructions appends operator instructions to the system prompt.
func WithExtraInstructions(extra string) GeneratorOption {
	return func(g *Generator) { g.extra = extra }
}

// NewGenerator creates a summary generator with the given LLM implementation.
func NewGenerator(llm LLM, config LLMConfig, opts ...GeneratorOption) *Generator {
	g := &Generator{
		llm:    llm,
		config: config,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Model returns the configured model name.
func (g *Generator) Model() string {
	return g.config.Model
}

// Summarize assembles the prompts for the article and schedule and invokes
// the LLM.
func (g *Generator) Summarize(ctx context.Context, title, text string, schedule fpl.Schedule) (*Summary, error) {
	if g.llm == nil {
		return nil, fmt.Errorf("%w: LLM is required", ErrGenerationFailed)
	}

	prompt, err := AssembleArticlePrompt(title, text)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrGenerationFailed, err)
	}
	system := AssembleSystemPrompt(PromptInput{
		Schedule:          schedule,
		Tone:              g.tone,
		ExtraInstructions: g.extra,
	})

	out, err := g.llm.Generate(ctx, system, prompt)
	if err != nil {
		return nil, fmt.Errorf("%w: LLM invocation failed: %w", ErrGenerationFailed, err)
	}
	out = strings.TrimSpace(out)
	if out == "" {
		return nil, fmt.Errorf("%w: empty response", ErrGenerationFailed)
	}

	return &Summary{
		ArticleTitle: strings.TrimSpace(title),
		Text:         out,
		GeneratedAt:  time.Now(),
		Model:        g.config.Model,
	}, nil
}
