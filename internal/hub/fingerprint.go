package hub

import (
	"context"
	"fmt"

	"github.com/Yates-Labs/fplab/internal/logger"
	"github.com/playwright-community/playwright-go"
)

// DefaultFingerprintURL renders a table of common automation checks.
const DefaultFingerprintURL = "https://bot.sannysoft.com"

// Fingerprint is what a detection page sees of the configured browser.
type Fingerprint struct {
	URL        string
	Screenshot string
	UserAgent  string
	Webdriver  any
}

// CaptureFingerprint opens url with the same browser setup the fetch uses and
// saves a full-page screenshot to path.
func CaptureFingerprint(ctx context.Context, cfg Config, log logger.Logger, url, path string) (*Fingerprint, error) {
	if log == nil {
		log = logger.NewNop()
	}
	if url == "" {
		url = DefaultFingerprintURL
	}

	sess, err := launch(ctx, cfg, log)
	if err != nil {
		return nil, err
	}
	defer sess.Close()

	page := sess.page
	_, err = page.Goto(url, playwright.PageGotoOptions{
		WaitUntil: playwright.WaitUntilStateNetworkidle,
		Timeout:   playwright.Float(millis(cfg.StepTimeout)),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrNavigation, url, err)
	}
	if err := settle(ctx, cfg.RenderSettle); err != nil {
		return nil, err
	}

	fp := &Fingerprint{URL: url, Screenshot: path}
	if ua, err := page.Evaluate("() => navigator.userAgent"); err == nil {
		fp.UserAgent, _ = ua.(string)
	}
	if wd, err := page.Evaluate("() => navigator.webdriver"); err == nil {
		fp.Webdriver = wd
	}

	if _, err := page.Screenshot(playwright.PageScreenshotOptions{
		Path:     playwright.String(path),
		FullPage: playwright.Bool(true),
	}); err != nil {
		return nil, fmt.Errorf("screenshot: %w", err)
	}
	log.Info("Saved fingerprint screenshot", logger.String("path", path), logger.String("url", url))
	return fp, nil
}
