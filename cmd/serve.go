package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/Yates-Labs/fplab/internal/config"
	"github.com/Yates-Labs/fplab/internal/dedup"
	"github.com/Yates-Labs/fplab/internal/logger"
	"github.com/Yates-Labs/fplab/internal/metrics"
	"github.com/Yates-Labs/fplab/internal/telegram"
	"github.com/Yates-Labs/fplab/internal/webhook"
	"github.com/spf13/cobra"
)

var registerWebhook bool

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the Telegram bot behind an HTTP webhook",
	Long: `Start the webhook server. Telegram delivers updates to POST <WEBHOOK_PATH>;
each update id is handled at most once per DEDUP_TTL.

Required environment variables:
  TELEGRAM_BOT_TOKEN     - bot token from BotFather
  FFH_EMAIL, FFH_PASSWORD - Fantasy Football Hub login
  GOOGLE_STUDIO_API_KEY  - or the key for the selected LLM_PROVIDER

Examples:
  fplab serve
  fplab serve --register   # also point the bot at TELEGRAM_WEBHOOK_URL`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().BoolVar(&registerWebhook, "register", false, "Register TELEGRAM_WEBHOOK_URL with Telegram before serving")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := cfg.RequireTelegram(); err != nil {
		return err
	}
	log, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := metrics.New()
	b, err := newBot(cfg, log, m)
	if err != nil {
		return err
	}

	if registerWebhook {
		if err := b.SetWebhook(ctx, cfg.Telegram.WebhookURL); err != nil {
			return err
		}
	}

	store, err := dedup.New(ctx, cfg.Dedup, log)
	if err != nil {
		return fmt.Errorf("failed to create dedup store: %w", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			log.Warn("Failed to close dedup store", logger.Error(err))
		}
	}()

	server := webhook.NewServer(cfg.Server, b, store, log, m)
	return server.Run(ctx)
}

// newBot builds the pipeline, the command handlers and the Telegram client.
func newBot(cfg *config.Config, log logger.Logger, m *metrics.Metrics) (*telegram.Bot, error) {
	pipeline, err := newPipeline(cfg, log, m)
	if err != nil {
		return nil, err
	}
	h := telegram.NewHandlers(pipeline, cfg.Telegram.RevealCommand, cfg.Telegram.VerboseProgress, log, m)
	return telegram.New(cfg.Telegram, h, log)
}
