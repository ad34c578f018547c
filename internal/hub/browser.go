package hub

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/Yates-Labs/fplab/internal/logger"
	"github.com/playwright-community/playwright-go"
)

var (
	ErrBrowserLaunch = errors.New("browser launch failed")
)

var (
	installOnce sync.Once
	installErr  error
)

// installDriver downloads the playwright driver and Chromium at most once per
// process.
func installDriver(log logger.Logger) error {
	installOnce.Do(func() {
		log.Info("Installing playwright driver")
		installErr = playwright.Install(&playwright.RunOptions{
			Browsers: []string{"chromium"},
		})
		if installErr != nil {
			log.Warn("Playwright driver installation failed", logger.Error(installErr))
		}
	})
	return installErr
}

// stealthScript hides the most common automation tells before any page
// script runs.
const stealthScript = `
Object.defineProperty(navigator, 'webdriver', { get: () => undefined });
Object.defineProperty(navigator, 'languages', { get: () => ['en-GB', 'en'] });
Object.defineProperty(navigator, 'plugins', { get: () => [1, 2, 3, 4, 5] });
window.chrome = window.chrome || { runtime: {} };
const originalQuery = window.navigator.permissions && window.navigator.permissions.query;
if (originalQuery) {
  window.navigator.permissions.query = (parameters) =>
    parameters.name === 'notifications'
      ? Promise.resolve({ state: Notification.permission })
      : originalQuery(parameters);
}
`

func launchArgs(cfg Config) []string {
	args := []string{
		"--no-sandbox",
		"--disable-dev-shm-usage",
		"--disable-gpu",
		fmt.Sprintf("--window-size=%d,%d", cfg.ViewportWidth, cfg.ViewportHeight),
	}
	if cfg.Stealth {
		args = append(args, "--disable-blink-features=AutomationControlled")
	}
	return args
}

// session owns every playwright resource of one run.
type session struct {
	pw      *playwright.Playwright
	browser playwright.Browser
	context playwright.BrowserContext
	page    playwright.Page

	stopWatch func() bool
	closeOnce sync.Once
	closeErr  error
}

// launch starts the driver, the browser and a fresh page. Cancelling ctx
// closes the browser, which aborts whatever step is in flight.
func launch(ctx context.Context, cfg Config, log logger.Logger) (*session, error) {
	if cfg.InstallDriver {
		if err := installDriver(log); err != nil {
			return nil, fmt.Errorf("%w: install driver: %w", ErrBrowserLaunch, err)
		}
	}

	s := &session{}
	pw, err := playwright.Run()
	if err != nil {
		return nil, fmt.Errorf("%w: start playwright: %w", ErrBrowserLaunch, err)
	}
	s.pw = pw

	opts := playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(cfg.Headless),
		Args:     launchArgs(cfg),
	}
	if cfg.BrowserPath != "" {
		opts.ExecutablePath = playwright.String(cfg.BrowserPath)
	}
	browser, err := pw.Chromium.Launch(opts)
	if err != nil {
		s.Close()
		return nil, fmt.Errorf("%w: chromium: %w", ErrBrowserLaunch, err)
	}
	s.browser = browser
	s.stopWatch = context.AfterFunc(ctx, func() {
		log.Warn("Run cancelled, closing browser")
		_ = browser.Close()
	})

	ctxOpts := playwright.BrowserNewContextOptions{
		Viewport: &playwright.Size{Width: cfg.ViewportWidth, Height: cfg.ViewportHeight},
		Locale:   playwright.String("en-GB"),
	}
	if cfg.Stealth {
		ctxOpts.UserAgent = playwright.String(cfg.userAgent())
	}
	bctx, err := browser.NewContext(ctxOpts)
	if err != nil {
		s.Close()
		return nil, fmt.Errorf("%w: new context: %w", ErrBrowserLaunch, err)
	}
	s.context = bctx

	if cfg.Stealth {
		if err := bctx.AddInitScript(playwright.Script{Content: playwright.String(stealthScript)}); err != nil {
			s.Close()
			return nil, fmt.Errorf("%w: init script: %w", ErrBrowserLaunch, err)
		}
	}

	page, err := bctx.NewPage()
	if err != nil {
		s.Close()
		return nil, fmt.Errorf("%w: new page: %w", ErrBrowserLaunch, err)
	}
	page.SetDefaultTimeout(millis(cfg.StepTimeout))
	page.SetDefaultNavigationTimeout(millis(cfg.StepTimeout))
	s.page = page

	return s, nil
}

// Close releases the page, context, browser and driver. Safe to call more
// than once.
func (s *session) Close() error {
	s.closeOnce.Do(func() {
		if s.stopWatch != nil {
			s.stopWatch()
		}
		var errs []error
		if s.page != nil {
			errs = append(errs, s.page.Close())
		}
		if s.context != nil {
			errs = append(errs, s.context.Close())
		}
		if s.browser != nil {
			errs = append(errs, s.browser.Close())
		}
		if s.pw != nil {
			errs = append(errs, s.pw.Stop())
		}
		s.closeErr = errors.Join(errs...)
	})
	return s.closeErr
}

func millis(d time.Duration) float64 {
	return float64(d.Milliseconds())
}
