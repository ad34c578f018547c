// Package hub fetches the latest team-reveal article from behind the site's
// login wall by driving a real browser.
//
// The navigation sequence is fixed: open the home page, dismiss the cookie
// banner if one shows, log in, open the team-reveal listing, open the newest
// article and read its body once client-side rendering has settled.
package hub

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Yates-Labs/fplab/internal/logger"
	"github.com/Yates-Labs/fplab/internal/progress"
)

var (
	ErrNavigation      = errors.New("navigation failed")
	ErrLoginFailed     = errors.New("login failed")
	ErrArticleNotFound = errors.New("article not found")
	ErrEmptyArticle    = errors.New("article has no text")
)

// Article is the text of one team-reveal post.
type Article struct {
	Title     string    `json:"title"`
	URL       string    `json:"url"`
	Text      string    `json:"text"`
	FetchedAt time.Time `json:"fetched_at"`
}

// Fetcher runs the authenticated fetch. Each call to Fetch uses its own
// browser; a Fetcher holds no browser state between calls.
type Fetcher struct {
	cfg Config
	log logger.Logger
}

// NewFetcher creates a fetcher for cfg.
func NewFetcher(cfg Config, log logger.Logger) *Fetcher {
	if log == nil {
		log = logger.NewNop()
	}
	return &Fetcher{
		cfg: cfg,
		log: log.With(logger.String("component", "hub")),
	}
}

// Fetch logs in and returns the newest article on the target page.
func (f *Fetcher) Fetch(ctx context.Context, reporter progress.Reporter) (*Article, error) {
	if err := f.cfg.Validate(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	progress.Emit(ctx, reporter, progress.StepLaunch, "Launching browser")
	sess, err := launch(ctx, f.cfg, f.log)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := sess.Close(); cerr != nil {
			f.log.Debug("Browser cleanup reported errors", logger.Error(cerr))
		}
	}()

	r := &run{
		cfg:      f.cfg,
		page:     sess.page,
		log:      f.log,
		reporter: reporter,
	}

	article, err := r.execute(ctx)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("fetch aborted: %w", ctxErr)
		}
		return nil, err
	}
	return article, nil
}
