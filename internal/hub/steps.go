package hub

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Yates-Labs/fplab/internal/logger"
	"github.com/Yates-Labs/fplab/internal/progress"
	"github.com/playwright-community/playwright-go"
)

// run is one pass through the navigation sequence on an open page.
type run struct {
	cfg      Config
	page     playwright.Page
	log      logger.Logger
	reporter progress.Reporter
}

func (r *run) execute(ctx context.Context) (*Article, error) {
	if err := r.goTo(r.cfg.HomeURL(), "home"); err != nil {
		return nil, err
	}
	if err := r.dismissConsent(ctx); err != nil {
		return nil, err
	}
	if err := r.login(ctx); err != nil {
		return nil, err
	}

	progress.Emit(ctx, r.reporter, progress.StepTargetPage, "Opening team reveals")
	if err := r.goTo(r.cfg.TargetURL(), "target page"); err != nil {
		return nil, err
	}

	title, err := r.openArticle(ctx)
	if err != nil {
		return nil, err
	}

	body, err := r.waitForRender(ctx)
	if err != nil {
		return nil, err
	}

	text, err := r.extract(body)
	if err != nil {
		return nil, err
	}
	progress.Emit(ctx, r.reporter, progress.StepExtracted, fmt.Sprintf("Extracted %d characters", len([]rune(text))))

	return &Article{
		Title:     title,
		URL:       r.page.URL(),
		Text:      text,
		FetchedAt: time.Now(),
	}, nil
}

func (r *run) timeout() *float64 {
	return playwright.Float(millis(r.cfg.StepTimeout))
}

func (r *run) visible() playwright.LocatorWaitForOptions {
	return playwright.LocatorWaitForOptions{
		State:   playwright.WaitForSelectorStateVisible,
		Timeout: r.timeout(),
	}
}

func (r *run) goTo(url, step string) error {
	r.log.Debug("Navigating", logger.String("step", step), logger.String("url", url))
	if _, err := r.page.Goto(url, playwright.PageGotoOptions{Timeout: r.timeout()}); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrNavigation, step, err)
	}
	return nil
}

// dismissConsent accepts the cookie banner when it shows. The banner is
// region dependent, so its absence is not an error.
func (r *run) dismissConsent(ctx context.Context) error {
	accept := r.page.Locator(selConsentAccept).First()
	err := accept.WaitFor(playwright.LocatorWaitForOptions{
		State:   playwright.WaitForSelectorStateVisible,
		Timeout: playwright.Float(millis(r.cfg.ConsentWait)),
	})
	if err != nil {
		if ctx.Err() != nil {
			return fmt.Errorf("%w: consent: %w", ErrNavigation, ctx.Err())
		}
		r.log.Debug("No consent banner", logger.Duration("waited", r.cfg.ConsentWait))
		return nil
	}

	progress.Emit(ctx, r.reporter, progress.StepConsent, "Accepting cookies")
	if err := accept.Click(); err != nil {
		return fmt.Errorf("%w: consent: %w", ErrNavigation, err)
	}
	err = r.page.Locator(selConsentOverlay).First().WaitFor(playwright.LocatorWaitForOptions{
		State:   playwright.WaitForSelectorStateHidden,
		Timeout: r.timeout(),
	})
	if err != nil {
		return fmt.Errorf("%w: consent overlay still visible: %w", ErrNavigation, err)
	}
	return nil
}

func (r *run) login(ctx context.Context) error {
	progress.Emit(ctx, r.reporter, progress.StepLogin, "Logging in")

	link := r.page.Locator(selLoginLink).First()
	if err := link.WaitFor(r.visible()); err != nil {
		return fmt.Errorf("%w: login link: %w", ErrLoginFailed, err)
	}
	if err := link.Click(); err != nil {
		return fmt.Errorf("%w: login link: %w", ErrLoginFailed, err)
	}
	if err := r.page.WaitForURL(r.cfg.LoginURLPattern, playwright.PageWaitForURLOptions{Timeout: r.timeout()}); err != nil {
		return fmt.Errorf("%w: login page: %w", ErrLoginFailed, err)
	}

	if err := r.page.Locator(selUsernameInput).Fill(r.cfg.Email); err != nil {
		return fmt.Errorf("%w: username field: %w", ErrLoginFailed, err)
	}
	if err := r.page.Locator(selPasswordInput).Fill(r.cfg.Password); err != nil {
		return fmt.Errorf("%w: password field: %w", ErrLoginFailed, err)
	}
	if err := settle(ctx, r.cfg.FormSettle); err != nil {
		return fmt.Errorf("%w: %w", ErrLoginFailed, err)
	}

	if err := r.page.Locator(selSubmitButton).First().Click(); err != nil {
		return fmt.Errorf("%w: submit: %w", ErrLoginFailed, err)
	}
	if err := r.page.WaitForURL(r.cfg.HomeURL(), playwright.PageWaitForURLOptions{Timeout: r.timeout()}); err != nil {
		return fmt.Errorf("%w: no redirect to %s: %w", ErrLoginFailed, r.cfg.HomeURL(), err)
	}

	r.log.Info("Logged in")
	progress.Emit(ctx, r.reporter, progress.StepLoggedIn, "Logged in")
	return nil
}

// openArticle clicks the newest preview on the listing and returns its title.
func (r *run) openArticle(ctx context.Context) (string, error) {
	preview := r.page.Locator(selArticlePreview).First()
	if err := preview.WaitFor(r.visible()); err != nil {
		return "", fmt.Errorf("%w: no article preview on %s: %w", ErrArticleNotFound, r.cfg.TargetPath, err)
	}

	title, err := preview.Locator(selArticleTitle).First().TextContent(playwright.LocatorTextContentOptions{Timeout: r.timeout()})
	if err != nil {
		r.log.Warn("Article title not readable", logger.Error(err))
	}
	title = strings.Join(strings.Fields(title), " ")
	r.log.Info("Found article", logger.String("title", title))
	progress.Emit(ctx, r.reporter, progress.StepArticleFound, title)

	if err := preview.Click(); err != nil {
		return "", fmt.Errorf("%w: open article: %w", ErrNavigation, err)
	}
	progress.Emit(ctx, r.reporter, progress.StepArticleOpened, "Opened article")
	return title, nil
}

// waitForRender waits for the article body, then for the network to go idle,
// then for a fixed settle period to let client-side rendering finish.
func (r *run) waitForRender(ctx context.Context) (playwright.Locator, error) {
	body := r.page.Locator(selArticleBody).First()
	if err := body.WaitFor(r.visible()); err != nil {
		return nil, fmt.Errorf("%w: article body: %w", ErrArticleNotFound, err)
	}

	err := r.page.WaitForLoadState(playwright.PageWaitForLoadStateOptions{
		State:   playwright.LoadStateNetworkidle,
		Timeout: r.timeout(),
	})
	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("%w: render: %w", ErrNavigation, ctx.Err())
		}
		r.log.Warn("Network did not go idle, continuing", logger.Error(err))
	}

	if err := settle(ctx, r.cfg.RenderSettle); err != nil {
		return nil, fmt.Errorf("%w: render: %w", ErrNavigation, err)
	}
	progress.Emit(ctx, r.reporter, progress.StepRendered, "Article rendered")
	return body, nil
}

func (r *run) extract(body playwright.Locator) (string, error) {
	html, err := body.InnerHTML()
	if err == nil {
		text, xerr := ExtractText(html)
		if xerr == nil && text != "" {
			return text, nil
		}
		if xerr != nil {
			r.log.Warn("HTML extraction failed, using text content", logger.Error(xerr))
		}
	} else {
		r.log.Warn("Article HTML not readable, using text content", logger.Error(err))
	}

	raw, err := body.TextContent()
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrEmptyArticle, err)
	}
	text := normalizeText(raw)
	if text == "" {
		return "", ErrEmptyArticle
	}
	return text, nil
}

// settle pauses for d unless ctx ends first.
func settle(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
