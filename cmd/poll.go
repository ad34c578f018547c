package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/Yates-Labs/fplab/internal/metrics"
	"github.com/spf13/cobra"
)

var dropPending bool

var pollCmd = &cobra.Command{
	Use:   "poll",
	Short: "Run the Telegram bot with long polling",
	Long: `Run the bot without a public URL. Any registered webhook is removed first,
since Telegram refuses getUpdates while one is set.

Examples:
  fplab poll
  fplab poll --drop-pending`,
	Args: cobra.NoArgs,
	RunE: runPoll,
}

func init() {
	rootCmd.AddCommand(pollCmd)
	pollCmd.Flags().BoolVar(&dropPending, "drop-pending", false, "Discard updates queued while the bot was offline")
}

func runPoll(cmd *cobra.Command, args []string) error {
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

	b, err := newBot(cfg, log, metrics.New())
	if err != nil {
		return err
	}
	if err := b.DeleteWebhook(ctx, dropPending); err != nil {
		return err
	}

	b.StartPolling(ctx)
	return nil
}
