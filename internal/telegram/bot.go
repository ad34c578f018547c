// Package telegram is the chat front end: command handlers, progress
// messages and message splitting on top of github.com/go-telegram/bot.
package telegram

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Yates-Labs/fplab/internal/logger"
	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

var (
	ErrMissingToken  = errors.New("telegram bot token not configured")
	ErrWebhookFailed = errors.New("telegram webhook request failed")
)

// DefaultRevealCommand triggers a fetch-and-summarize run.
const DefaultRevealCommand = "reveal"

// Config holds the bot credentials and webhook settings.
type Config struct {
	Token           string `env:"TELEGRAM_BOT_TOKEN"`
	WebhookSecret   string `env:"TELEGRAM_WEBHOOK_SECRET"`
	WebhookURL      string `env:"TELEGRAM_WEBHOOK_URL"`
	APIURL          string `env:"TELEGRAM_API_URL" envDefault:"https://api.telegram.org"`
	Username        string `env:"TELEGRAM_BOT_USERNAME"`
	RevealCommand   string `env:"BOT_REVEAL_COMMAND" envDefault:"reveal"`
	VerboseProgress bool   `env:"BOT_VERBOSE_PROGRESS" envDefault:"false"`
}

// Bot routes updates to Handlers.
type Bot struct {
	api *bot.Bot
	cfg Config
	log logger.Logger
}

// New creates the bot and registers the /start and reveal commands. Extra
// options are passed to the underlying client.
func New(cfg Config, h *Handlers, log logger.Logger, opts ...bot.Option) (*Bot, error) {
	if strings.TrimSpace(cfg.Token) == "" {
		return nil, ErrMissingToken
	}
	if log == nil {
		log = logger.NewNop()
	}
	log = log.With(logger.String("component", "bot"))

	options := []bot.Option{
		bot.WithSkipGetMe(),
		bot.WithDefaultHandler(func(ctx context.Context, b *bot.Bot, update *models.Update) {
			h.Fallback(ctx, b, update.Message)
		}),
		bot.WithErrorsHandler(func(err error) {
			log.Warn("Telegram client error", logger.Error(err))
		}),
	}
	if cfg.APIURL != "" {
		options = append(options, bot.WithServerURL(strings.TrimRight(cfg.APIURL, "/")))
	}
	options = append(options, opts...)

	api, err := bot.New(cfg.Token, options...)
	if err != nil {
		return nil, fmt.Errorf("create telegram client: %w", err)
	}

	api.RegisterHandlerMatchFunc(commandMatcher("start", cfg.Username), func(ctx context.Context, b *bot.Bot, update *models.Update) {
		h.Start(ctx, b, update.Message)
	})
	api.RegisterHandlerMatchFunc(commandMatcher(h.Command(), cfg.Username), func(ctx context.Context, b *bot.Bot, update *models.Update) {
		h.Reveal(ctx, b, update.Message)
	})

	return &Bot{api: api, cfg: cfg, log: log}, nil
}

// ProcessUpdate dispatches one update to the matching handler.
func (b *Bot) ProcessUpdate(ctx context.Context, update *models.Update) {
	b.api.ProcessUpdate(ctx, update)
}

// StartPolling receives updates by long polling until ctx is done.
func (b *Bot) StartPolling(ctx context.Context) {
	b.log.Info("Polling for updates")
	b.api.Start(ctx)
}

// SetWebhook points the platform at url. The configured secret is sent back
// on every delivery.
func (b *Bot) SetWebhook(ctx context.Context, url string) error {
	if url == "" {
		url = b.cfg.WebhookURL
	}
	if url == "" {
		return fmt.Errorf("%w: no webhook URL", ErrWebhookFailed)
	}
	ok, err := b.api.SetWebhook(ctx, &bot.SetWebhookParams{
		URL:            url,
		SecretToken:    b.cfg.WebhookSecret,
		AllowedUpdates: []string{"message"},
	})
	if err != nil {
		return fmt.Errorf("%w: set: %w", ErrWebhookFailed, err)
	}
	if !ok {
		return fmt.Errorf("%w: set returned false", ErrWebhookFailed)
	}
	b.log.Info("Webhook registered", logger.String("url", url))
	return nil
}

// DeleteWebhook removes any registered webhook so polling can be used.
func (b *Bot) DeleteWebhook(ctx context.Context, dropPending bool) error {
	ok, err := b.api.DeleteWebhook(ctx, &bot.DeleteWebhookParams{DropPendingUpdates: dropPending})
	if err != nil {
		return fmt.Errorf("%w: delete: %w", ErrWebhookFailed, err)
	}
	if !ok {
		return fmt.Errorf("%w: delete returned false", ErrWebhookFailed)
	}
	b.log.Info("Webhook deleted")
	return nil
}

// WebhookInfo reports the platform's view of the webhook.
func (b *Bot) WebhookInfo(ctx context.Context) (*models.WebhookInfo, error) {
	info, err := b.api.GetWebhookInfo(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: info: %w", ErrWebhookFailed, err)
	}
	return info, nil
}
