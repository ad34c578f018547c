package cmd

import (
	"fmt"

	"github.com/Yates-Labs/fplab/internal/config"
	"github.com/Yates-Labs/fplab/internal/fpl"
	"github.com/Yates-Labs/fplab/internal/hub"
	"github.com/Yates-Labs/fplab/internal/logger"
	"github.com/Yates-Labs/fplab/internal/metrics"
	"github.com/Yates-Labs/fplab/internal/narrative"
	"github.com/Yates-Labs/fplab/internal/orchestrator"
)

// newLogger builds the process logger from cfg.
func newLogger(cfg *config.Config) (logger.Logger, error) {
	log, err := logger.New(cfg.Log)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}
	return log, nil
}

// newGenerator resolves the LLM provider and wraps it in a summary generator.
func newGenerator(cfg *config.Config, log logger.Logger) (*narrative.Generator, error) {
	llm, resolved, err := cfg.RequireLLM()
	if err != nil {
		return nil, err
	}
	log.Info("Using LLM",
		logger.String("provider", string(resolved.Provider)),
		logger.String("model", resolved.Model),
	)

	var opts []narrative.GeneratorOption
	if cfg.Summary.Tone != "" {
		opts = append(opts, narrative.WithTone(cfg.Summary.Tone))
	}
	if cfg.Summary.ExtraInstructions != "" {
		opts = append(opts, narrative.WithExtraInstructions(cfg.Summary.ExtraInstructions))
	}
	return narrative.NewGenerator(llm, resolved, opts...), nil
}

// newPipeline wires the schedule client, the article fetcher and the
// generator. m may be nil.
func newPipeline(cfg *config.Config, log logger.Logger, m *metrics.Metrics) (*orchestrator.Pipeline, error) {
	if err := cfg.RequireHubCredentials(); err != nil {
		return nil, err
	}
	if err := cfg.Hub.Validate(); err != nil {
		return nil, err
	}
	gen, err := newGenerator(cfg, log)
	if err != nil {
		return nil, err
	}

	return orchestrator.NewPipeline(orchestrator.Options{
		Schedule:   fpl.NewClient(cfg.FPL),
		Fetcher:    hub.NewFetcher(cfg.Hub, log),
		Summarizer: gen,
		Logger:     log,
		Metrics:    m,
	}), nil
}
