// Package orchestrator runs the end-to-end flow: look up the gameweeks, fetch
// the newest team-reveal article and summarize it against those gameweeks.
package orchestrator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/Yates-Labs/fplab/internal/fpl"
	"github.com/Yates-Labs/fplab/internal/hub"
	"github.com/Yates-Labs/fplab/internal/logger"
	"github.com/Yates-Labs/fplab/internal/metrics"
	"github.com/Yates-Labs/fplab/internal/narrative"
	"github.com/Yates-Labs/fplab/internal/progress"
	"golang.org/x/sync/singleflight"
)

var (
	ErrNoGameweeks   = errors.New("could not fetch gameweek information")
	ErrNoArticle     = errors.New("could not extract article text")
	ErrSummaryFailed = errors.New("could not summarize article")
)


// ScheduleSource looks up the current and next gameweek.
type ScheduleSource interface {
	Gameweeks(ctx context.Context) (fpl.Schedule, error)
}

// ArticleFetcher retrieves the newest article.
type ArticleFetcher interface {
	Fetch(ctx context.Context, reporter progress.Reporter) (*hub.Article, error)
}

// Summarizer turns article text into a summary.
type Summarizer interface {
	Summarize(ctx context.Context, title, text string, schedule fpl.Schedule) (*narrative.Summary, error)
}

// Report is the result of one run.
type Report struct {
	Schedule fpl.Schedule       `json:"schedule"`
	Article  *hub.Article       `json:"article"`
	Summary  *narrative.Summary `json:"summary"`
	Duration time.Duration      `json:"-"`
}

// MarshalJSON writes Duration as a string such as "42.5s".
func (r Report) MarshalJSON() ([]byte, error) {
	type report Report
	return json.Marshal(struct {
		report
		Duration string `json:"duration"`
	}{report(r), r.Duration.String()})
}

// Options wires a Pipeline. Logger and Metrics are optional.
type Options struct {
	Schedule   ScheduleSource
	Fetcher    ArticleFetcher
	Summarizer Summarizer
	Logger     logger.Logger
	Metrics    *metrics.Metrics
}

// Pipeline runs fetch-and-summarize. Concurrent calls to Run share a single
// in-flight run.
type Pipeline struct {
	schedule   ScheduleSource
	fetcher    ArticleFetcher
	summarizer Summarizer
	log        logger.Logger
	metrics    *metrics.Metrics

	group  singleflight.Group
	mu     sync.Mutex
	active *broadcast
	seq    uint64
}

// NewPipeline creates a pipeline from opts.
func NewPipeline(opts Options) *Pipeline {
	log := opts.Logger
	if log == nil {
		log = logger.NewNop()
	}
	return &Pipeline{
		schedule:   opts.Schedule,
		fetcher:    opts.Fetcher,
		summarizer: opts.Summarizer,
		log:        log.With(logger.String("component", "pipeline")),
		metrics:    opts.Metrics,
	}
}

// Run executes the pipeline, or joins the run already in flight. A caller
// that joins receives a StepJoined event, the remaining progress of the
// shared run and the same result.
//
// The shared run executes under the context of the caller that started it.
// Cancelling a joining caller's ctx only stops that caller waiting; cancelling
// the starting caller's ctx aborts the run for everyone attached to it.
func (p *Pipeline) Run(ctx context.Context, reporter progress.Reporter) (*Report, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context cancelled before run: %w", err)
	}

	p.mu.Lock()
	b := p.active
	joined := b != nil
	if joined {
		b.join(ctx, reporter)
	} else {
		// a fresh key per run, so a caller arriving after active is cleared
		// never picks up a finishing call
		p.seq++
		b = &broadcast{key: strconv.FormatUint(p.seq, 10)}
		b.add(reporter)
		p.active = b
	}
	ch := p.group.DoChan(b.key, func() (any, error) {
		defer func() {
			p.mu.Lock()
			if p.active == b {
				p.active = nil
			}
			p.mu.Unlock()
		}()
		return p.run(ctx, b)
	})
	p.mu.Unlock()

	if joined {
		p.metrics.RunCoalesced()
		p.log.Info("Joined run already in progress")
	}

	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*Report), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (p *Pipeline) run(ctx context.Context, reporter progress.Reporter) (rep *Report, err error) {
	start := time.Now()
	defer func() {
		p.metrics.RunFinished(outcome(ctx, err), time.Since(start))
		if err != nil {
			p.log.Warn("Run failed", logger.Error(err), logger.Duration("duration", time.Since(start)))
		}
	}()

	// Step 1: Gameweeks
	progress.Emit(ctx, reporter, progress.StepGameweeks, "Fetching gameweek information")
	schedule, err := p.schedule.Gameweeks(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNoGameweeks, err)
	}
	if schedule.Empty() {
		return nil, fmt.Errorf("%w: neither a current nor a next gameweek is flagged", ErrNoGameweeks)
	}

	// Step 2: Article
	article, err := p.fetcher.Fetch(ctx, reporter)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNoArticle, err)
	}
	if article == nil || strings.TrimSpace(article.Text) == "" {
		return nil, fmt.Errorf("%w: empty article", ErrNoArticle)
	}

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context cancelled after fetch: %w", err)
	}

	// Step 3: Summary
	progress.Emit(ctx, reporter, progress.StepSummarizing, "Summarizing")
	summary, err := p.summarizer.Summarize(ctx, article.Title, article.Text, schedule)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSummaryFailed, err)
	}

	rep = &Report{
		Schedule: schedule,
		Article:  article,
		Summary:  summary,
		Duration: time.Since(start),
	}
	p.log.Info("Run complete",
		logger.String("article", article.Title),
		logger.Int("article_chars", len([]rune(article.Text))),
		logger.Int("summary_chars", len([]rune(summary.Text))),
		logger.Duration("duration", rep.Duration),
	)
	progress.Emit(ctx, reporter, progress.StepDone, "Done")
	return rep, nil
}

// outcome maps a run error to its metrics label.
func outcome(ctx context.Context, err error) string {
	switch {
	case err == nil:
		return metrics.OutcomeSuccess
	case ctx.Err() != nil:
		return metrics.OutcomeCancelled
	case errors.Is(err, ErrNoGameweeks):
		return metrics.OutcomeNoSchedule
	case errors.Is(err, ErrNoArticle):
		return metrics.OutcomeNoArticle
	default:
		return metrics.OutcomeNoSummary
	}
}

// broadcast forwards events to every caller attached to a run.
type broadcast struct {
	key       string
	mu        sync.Mutex
	reporters []progress.Reporter
}

func (b *broadcast) add(r progress.Reporter) {
	if r == nil {
		return
	}
	b.mu.Lock()
	b.reporters = append(b.reporters, r)
	b.mu.Unlock()
}

// join tells r it is sharing the run before any later event reaches it.
func (b *broadcast) join(ctx context.Context, r progress.Reporter) {
	if r == nil {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	progress.Emit(ctx, r, progress.StepJoined, "A run is already in progress, you will get the same result.")
	b.reporters = append(b.reporters, r)
}

func (b *broadcast) Report(ctx context.Context, ev progress.Event) {
	b.mu.Lock()
	reporters := make([]progress.Reporter, len(b.reporters))
	copy(reporters, b.reporters)
	b.mu.Unlock()

	for _, r := range reporters {
		r.Report(ctx, ev)
	}
}
