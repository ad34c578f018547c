package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/Yates-Labs/fplab/internal/telegram"
	"github.com/spf13/cobra"
)

var webhookCmd = &cobra.Command{
	Use:   "webhook",
	Short: "Manage the Telegram webhook registration",
}

var webhookSetCmd = &cobra.Command{
	Use:   "set [url]",
	Short: "Point Telegram at url (default TELEGRAM_WEBHOOK_URL)",
	Long: `Register the webhook URL with Telegram. TELEGRAM_WEBHOOK_SECRET, if set,
is sent back on every delivery in the X-Telegram-Bot-Api-Secret-Token header.

Examples:
  fplab webhook set https://example.com/webhook
  fplab webhook set`,
	Args: cobra.MaximumNArgs(1),
	RunE: runWebhookSet,
}

var webhookDeleteCmd = &cobra.Command{
	Use:   "delete",
	Short: "Remove the registered webhook",
	Args:  cobra.NoArgs,
	RunE:  runWebhookDelete,
}

var webhookInfoCmd = &cobra.Command{
	Use:   "info",
	Short: "Show what Telegram knows about the webhook",
	Args:  cobra.NoArgs,
	RunE:  runWebhookInfo,
}

func init() {
	rootCmd.AddCommand(webhookCmd)
	webhookCmd.AddCommand(webhookSetCmd, webhookDeleteCmd, webhookInfoCmd)
	webhookDeleteCmd.Flags().BoolVar(&dropPending, "drop-pending", false, "Discard queued updates")
}

// newAdminBot creates a client for webhook management. It never handles
// updates, so it gets no pipeline.
func newAdminBot() (*telegram.Bot, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	if err := cfg.RequireTelegram(); err != nil {
		return nil, err
	}
	log, err := newLogger(cfg)
	if err != nil {
		return nil, err
	}
	h := telegram.NewHandlers(nil, cfg.Telegram.RevealCommand, false, log, nil)
	return telegram.New(cfg.Telegram, h, log)
}

func adminContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	return context.WithTimeout(cmd.Context(), 30*time.Second)
}

func runWebhookSet(cmd *cobra.Command, args []string) error {
	b, err := newAdminBot()
	if err != nil {
		return err
	}
	ctx, cancel := adminContext(cmd)
	defer cancel()

	var url string
	if len(args) == 1 {
		url = args[0]
	}
	if err := b.SetWebhook(ctx, url); err != nil {
		return fmt.Errorf("%s %w", errorStyle.Render("Error:"), err)
	}
	fmt.Println(successStyle.Render("✓ Webhook registered"))
	return nil
}

func runWebhookDelete(cmd *cobra.Command, args []string) error {
	b, err := newAdminBot()
	if err != nil {
		return err
	}
	ctx, cancel := adminContext(cmd)
	defer cancel()

	if err := b.DeleteWebhook(ctx, dropPending); err != nil {
		return fmt.Errorf("%s %w", errorStyle.Render("Error:"), err)
	}
	fmt.Println(successStyle.Render("✓ Webhook deleted"))
	return nil
}

func runWebhookInfo(cmd *cobra.Command, args []string) error {
	b, err := newAdminBot()
	if err != nil {
		return err
	}
	ctx, cancel := adminContext(cmd)
	defer cancel()

	info, err := b.WebhookInfo(ctx)
	if err != nil {
		return fmt.Errorf("%s %w", errorStyle.Render("Error:"), err)
	}

	url := info.URL
	if url == "" {
		url = "(none)"
	}
	fmt.Printf("%s %s\n", accentStyle.Render("URL:"), textStyle.Render(url))
	fmt.Printf("%s %s\n", accentStyle.Render("Pending updates:"), numberStyle.Render(fmt.Sprintf("%d", info.PendingUpdateCount)))
	if info.LastErrorMessage != "" {
		at := time.Unix(int64(info.LastErrorDate), 0).UTC().Format(time.RFC3339)
		fmt.Printf("%s %s %s\n", accentStyle.Render("Last error:"), errorStyle.Render(info.LastErrorMessage), mutedStyle.Render(at))
	}
	return nil
}
