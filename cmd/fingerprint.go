package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/Yates-Labs/fplab/internal/hub"
	"github.com/spf13/cobra"
)

var (
	fingerprintOut string
	fingerprintURL string
)

var fingerprintCmd = &cobra.Command{
	Use:   "fingerprint",
	Short: "Screenshot a bot-detection page with the fetch browser settings",
	Long: `Open a browser fingerprinting page using the same launch options, user
agent and stealth script as the article fetch, and save a full-page screenshot.
Useful when the site starts blocking logins.

Examples:
  fplab fingerprint
  fplab fingerprint --out fp.png --headed`,
	Args: cobra.NoArgs,
	RunE: runFingerprint,
}

func init() {
	rootCmd.AddCommand(fingerprintCmd)
	fingerprintCmd.Flags().StringVar(&fingerprintOut, "out", "fingerprint.png", "Screenshot file")
	fingerprintCmd.Flags().StringVar(&fingerprintURL, "url", hub.DefaultFingerprintURL, "Page to open")
	fingerprintCmd.Flags().BoolVar(&headed, "headed", false, "Show the browser window")
}

func runFingerprint(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if headed {
		cfg.Hub.Headless = false
	}
	log, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fp, err := hub.CaptureFingerprint(ctx, cfg.Hub, log, fingerprintURL, fingerprintOut)
	if err != nil {
		return fmt.Errorf("%s %w", errorStyle.Render("Error:"), err)
	}

	fmt.Printf("%s %s\n", accentStyle.Render("User agent:"), textStyle.Render(fp.UserAgent))
	fmt.Printf("%s %v\n", accentStyle.Render("navigator.webdriver:"), fp.Webdriver)
	fmt.Println(successStyle.Render("✓ Saved screenshot to " + fp.Screenshot))
	return nil
}
