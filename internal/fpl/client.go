// Package fpl reads the gameweek calendar from the public Fantasy Premier
// League API.
package fpl

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

var (
	ErrFetchFailed      = errors.New("gameweek fetch failed")
	ErrUnexpectedStatus = errors.New("unexpected status from FPL API")
)

const bootstrapPath = "/bootstrap-static/"

// Config holds the FPL API client settings.
type Config struct {
	BaseURL string        `env:"FPL_API_URL" envDefault:"https://fantasy.premierleague.com/api"`
	Timeout time.Duration `env:"FPL_TIMEOUT" envDefault:"15s"`
}

// DefaultConfig returns the public API endpoint with a 15 second timeout.
func DefaultConfig() Config {
	return Config{
		BaseURL: "https://fantasy.premierleague.com/api",
		Timeout: 15 * time.Second,
	}
}

// Client fetches gameweeks. It is safe for concurrent use.
type Client struct {
	http *resty.Client
}

// NewClient creates a client for the given configuration.
func NewClient(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultConfig().BaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultConfig().Timeout
	}

	client := resty.New().
		SetBaseURL(strings.TrimRight(cfg.BaseURL, "/")).
		SetTimeout(cfg.Timeout).
		SetHeader("Accept", "application/json").
		SetHeader("User-Agent", "fplab/1.0")

	return &Client{http: client}
}

// Events returns every gameweek of the season.
func (c *Client) Events(ctx context.Context) ([]Gameweek, error) {
	var body bootstrap
	resp, err := c.http.R().
		SetContext(ctx).
		SetResult(&body).
		ForceContentType("application/json").
		Get(bootstrapPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFetchFailed, err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("%w: %s", ErrUnexpectedStatus, resp.Status())
	}

	return body.Events, nil
}

// Gameweeks returns the current and next gameweek.
func (c *Client) Gameweeks(ctx context.Context) (Schedule, error) {
	events, err := c.Events(ctx)
	if err != nil {
		return Schedule{}, err
	}
	return SelectGameweeks(events), nil
}
