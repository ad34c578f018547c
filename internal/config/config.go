// Package config loads settings from the environment and an optional .env
// file.
package config

import (
	"errors"
	"fmt"

	"github.com/Yates-Labs/fplab/internal/dedup"
	"github.com/Yates-Labs/fplab/internal/fpl"
	"github.com/Yates-Labs/fplab/internal/hub"
	"github.com/Yates-Labs/fplab/internal/logger"
	"github.com/Yates-Labs/fplab/internal/narrative"
	"github.com/Yates-Labs/fplab/internal/telegram"
	"github.com/Yates-Labs/fplab/internal/webhook"
	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"
)

var ErrMissingSetting = errors.New("missing required setting")

// Summary tunes the generated text.
type Summary struct {
	Tone              string `env:"SUMMARY_TONE"`
	ExtraInstructions string `env:"SUMMARY_EXTRA_INSTRUCTIONS"`
}

// Config is every setting the commands use.
type Config struct {
	Log      logger.Config
	Telegram telegram.Config
	Hub      hub.Config
	FPL      fpl.Config
	LLM      narrative.LLMConfig
	Summary  Summary
	Server   webhook.Config
	Dedup    dedup.Config
}

// Load reads .env files (missing files are ignored; real environment
// variables win) and parses the environment.
func Load(files ...string) (*Config, error) {
	_ = godotenv.Load(files...)
	return Parse()
}

// Parse reads the environment without touching .env files.
func Parse() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("can't read config: %w", err)
	}
	return cfg, nil
}

// RequireTelegram checks the settings needed to talk to the Bot API.
func (c *Config) RequireTelegram() error {
	if c.Telegram.Token == "" {
		return fmt.Errorf("%w: TELEGRAM_BOT_TOKEN", ErrMissingSetting)
	}
	return nil
}

// RequireHubCredentials checks the site login.
func (c *Config) RequireHubCredentials() error {
	if c.Hub.Email == "" || c.Hub.Password == "" {
		return fmt.Errorf("%w: FFH_EMAIL and FFH_PASSWORD", ErrMissingSetting)
	}
	return nil
}

// RequireLLM resolves the provider settings, reporting a missing API key.
func (c *Config) RequireLLM() (narrative.LLM, narrative.LLMConfig, error) {
	llm, resolved, err := narrative.NewLLM(c.LLM)
	if err != nil {
		return nil, resolved, fmt.Errorf("%w: %w", ErrMissingSetting, err)
	}
	return llm, resolved, nil
}
