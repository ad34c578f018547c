package orchestrator

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Yates-Labs/fplab/internal/fpl"
	"github.com/Yates-Labs/fplab/internal/hub"
	"github.com/Yates-Labs/fplab/internal/logger"
	"github.com/Yates-Labs/fplab/internal/metrics"
	"github.com/Yates-Labs/fplab/internal/narrative"
	"github.com/Yates-Labs/fplab/internal/progress"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSchedule struct {
	schedule fpl.Schedule
	err      error
}

func (f fakeSchedule) Gameweeks(context.Context) (fpl.Schedule, error) {
	return f.schedule, f.err
}

type fakeFetcher struct {
	article *hub.Article
	err     error
	calls   atomic.Int32
	started chan struct{}
	release chan struct{}
}

func (f *fakeFetcher) Fetch(ctx context.Context, r progress.Reporter) (*hub.Article, error) {
	f.calls.Add(1)
	progress.Emit(ctx, r, progress.StepArticleFound, f.articleTitle())
	if f.started != nil {
		close(f.started)
	}
	if f.release != nil {
		select {
		case <-f.release:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return f.article, f.err
}

func (f *fakeFetcher) articleTitle() string {
	if f.article == nil {
		return ""
	}
	return f.article.Title
}

type recorder struct {
	mu     sync.Mutex
	events []progress.Event
	joined chan struct{}
}

func (r *recorder) Report(_ context.Context, ev progress.Event) {
	r.mu.Lock()
	r.events = append(r.events, ev)
	r.mu.Unlock()
	if ev.Step == progress.StepJoined && r.joined != nil {
		close(r.joined)
	}
}

func (r *recorder) steps() []progress.Step {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]progress.Step, 0, len(r.events))
	for _, ev := range r.events {
		out = append(out, ev.Step)
	}
	return out
}

func gw(id int, current, next bool) *fpl.Gameweek {
	return &fpl.Gameweek{ID: id, Name: "Gameweek", IsCurrent: current, IsNext: next}
}

func newTestPipeline(s ScheduleSource, f ArticleFetcher, llm narrative.LLM, m *metrics.Metrics) *Pipeline {
	return NewPipeline(Options{
		Schedule:   s,
		Fetcher:    f,
		Summarizer: narrative.NewGenerator(llm, narrative.LLMConfig{Model: "mock"}),
		Logger:     logger.NewNop(),
		Metrics:    m,
	})
}

func TestPipeline_Run_Success(t *testing.T) {
	m := metrics.New()
	fetcher := &fakeFetcher{article: &hub.Article{Title: "GW9 Reveal", Text: "Salah in."}}
	llm := narrative.NewMockLLM("Summary text")
	p := newTestPipeline(fakeSchedule{schedule: fpl.Schedule{Current: gw(8, true, false), Next: gw(9, false, true)}}, fetcher, llm, m)

	rec := &recorder{}
	report, err := p.Run(context.Background(), rec)
	require.NoError(t, err)

	assert.Equal(t, "Summary text", report.Summary.Text)
	assert.Equal(t, "GW9 Reveal", report.Article.Title)
	assert.Equal(t, 8, report.Schedule.Current.ID)
	assert.Contains(t, llm.LastSystem(), "id 9")
	assert.Equal(t, []progress.Step{
		progress.StepGameweeks,
		progress.StepArticleFound,
		progress.StepSummarizing,
		progress.StepDone,
	}, rec.steps())
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RunsTotal.WithLabelValues(metrics.OutcomeSuccess)))
}

func TestPipeline_Run_Errors(t *testing.T) {
	schedule := fpl.Schedule{Next: gw(1, false, true)}
	article := &hub.Article{Title: "t", Text: "body"}

	tests := []struct {
		name     string
		schedule fakeSchedule
		fetcher  *fakeFetcher
		llm      narrative.LLM
		wantErr  error
		outcome  string
		fetches  int32
	}{
		{
			name:     "schedule unavailable",
			schedule: fakeSchedule{err: fpl.ErrUnexpectedStatus},
			fetcher:  &fakeFetcher{article: article},
			llm:      narrative.NewMockLLM("x"),
			wantErr:  ErrNoGameweeks,
			outcome:  metrics.OutcomeNoSchedule,
		},
		{
			name:     "no gameweek flagged",
			schedule: fakeSchedule{},
			fetcher:  &fakeFetcher{article: article},
			llm:      narrative.NewMockLLM("x"),
			wantErr:  ErrNoGameweeks,
			outcome:  metrics.OutcomeNoSchedule,
		},
		{
			name:     "fetch failed",
			schedule: fakeSchedule{schedule: schedule},
			fetcher:  &fakeFetcher{err: hub.ErrLoginFailed},
			llm:      narrative.NewMockLLM("x"),
			wantErr:  hub.ErrLoginFailed,
			outcome:  metrics.OutcomeNoArticle,
			fetches:  1,
		},
		{
			name:     "empty article",
			schedule: fakeSchedule{schedule: schedule},
			fetcher:  &fakeFetcher{article: &hub.Article{Title: "t", Text: "  "}},
			llm:      narrative.NewMockLLM("x"),
			wantErr:  ErrNoArticle,
			outcome:  metrics.OutcomeNoArticle,
			fetches:  1,
		},
		{
			name:     "model failed",
			schedule: fakeSchedule{schedule: schedule},
			fetcher:  &fakeFetcher{article: article},
			llm:      narrative.NewMockLLMWithError(errors.New("quota")),
			wantErr:  ErrSummaryFailed,
			outcome:  metrics.OutcomeNoSummary,
			fetches:  1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := metrics.New()
			p := newTestPipeline(tt.schedule, tt.fetcher, tt.llm, m)

			report, err := p.Run(context.Background(), nil)
			assert.Nil(t, report)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Equal(t, tt.fetches, tt.fetcher.calls.Load())
			assert.Equal(t, 1.0, testutil.ToFloat64(m.RunsTotal.WithLabelValues(tt.outcome)))
		})
	}
}

func TestPipeline_Run_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	fetcher := &fakeFetcher{}
	p := newTestPipeline(fakeSchedule{}, fetcher, narrative.NewMockLLM("x"), nil)
	_, err := p.Run(ctx, nil)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, int32(0), fetcher.calls.Load())
}

func TestPipeline_Run_CoalescesConcurrentCalls(t *testing.T) {
	m := metrics.New()
	fetcher := &fakeFetcher{
		article: &hub.Article{Title: "GW9 Reveal", Text: "body"},
		started: make(chan struct{}),
		release: make(chan struct{}),
	}
	llm := narrative.NewMockLLM("shared summary")
	p := newTestPipeline(fakeSchedule{schedule: fpl.Schedule{Current: gw(8, true, false)}}, fetcher, llm, m)

	type result struct {
		report *Report
		err    error
	}
	first := make(chan result, 1)
	second := make(chan result, 1)

	leader := &recorder{}
	go func() {
		r, err := p.Run(context.Background(), leader)
		first <- result{r, err}
	}()
	<-fetcher.started

	follower := &recorder{joined: make(chan struct{})}
	go func() {
		r, err := p.Run(context.Background(), follower)
		second <- result{r, err}
	}()

	select {
	case <-follower.joined:
	case <-time.After(5 * time.Second):
		t.Fatal("second caller never joined the run")
	}
	close(fetcher.release)

	a, b := <-first, <-second
	require.NoError(t, a.err)
	require.NoError(t, b.err)
	assert.Same(t, a.report, b.report)
	assert.Equal(t, int32(1), fetcher.calls.Load())
	assert.Equal(t, 1, llm.Calls())

	assert.Equal(t, progress.StepJoined, follower.steps()[0])
	assert.Contains(t, follower.steps(), progress.StepSummarizing)
	assert.NotContains(t, leader.steps(), progress.StepJoined)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RunsCoalesced))

	// the next call after completion starts a fresh run
	fetcher.started, fetcher.release = nil, nil
	_, err := p.Run(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, int32(2), fetcher.calls.Load())
}

func TestPipeline_Run_FollowerCancelDoesNotStopLeader(t *testing.T) {
	fetcher := &fakeFetcher{
		article: &hub.Article{Title: "t", Text: "body"},
		started: make(chan struct{}),
		release: make(chan struct{}),
	}
	p := newTestPipeline(fakeSchedule{schedule: fpl.Schedule{Current: gw(8, true, false)}}, fetcher, narrative.NewMockLLM("ok"), nil)

	done := make(chan error, 1)
	go func() {
		_, err := p.Run(context.Background(), nil)
		done <- err
	}()
	<-fetcher.started

	ctx, cancel := context.WithCancel(context.Background())
	follower := &recorder{joined: make(chan struct{})}
	errc := make(chan error, 1)
	go func() {
		_, err := p.Run(ctx, follower)
		errc <- err
	}()
	<-follower.joined
	cancel()
	assert.ErrorIs(t, <-errc, context.Canceled)

	close(fetcher.release)
	assert.NoError(t, <-done)
}

func TestOutcome(t *testing.T) {
	cancelled, cancel := context.WithCancel(context.Background())
	cancel()

	assert.Equal(t, metrics.OutcomeSuccess, outcome(context.Background(), nil))
	assert.Equal(t, metrics.OutcomeCancelled, outcome(cancelled, ErrNoArticle))
	assert.Equal(t, metrics.OutcomeNoSchedule, outcome(context.Background(), ErrNoGameweeks))
	assert.Equal(t, metrics.OutcomeNoSummary, outcome(context.Background(), errors.New("other")))
}

// gatedFetcher blocks every call until the test releases it.
type gatedFetcher struct {
	calls   atomic.Int32
	started chan struct{}
	release chan struct{}
}

func (f *gatedFetcher) Fetch(ctx context.Context, r progress.Reporter) (*hub.Article, error) {
	f.calls.Add(1)
	f.started <- struct{}{}
	select {
	case <-f.release:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	return &hub.Article{Title: "t", Text: "body"}, nil
}

// A caller that is not attached to the active run must get a run of its own,
// even while an earlier call is still finishing.
func TestPipeline_Run_DetachedRunIsNotShared(t *testing.T) {
	m := metrics.New()
	fetcher := &gatedFetcher{started: make(chan struct{}, 2), release: make(chan struct{})}
	p := newTestPipeline(fakeSchedule{schedule: fpl.Schedule{Current: gw(8, true, false)}}, fetcher, narrative.NewMockLLM("ok"), m)

	first := make(chan error, 1)
	go func() {
		_, err := p.Run(context.Background(), nil)
		first <- err
	}()
	<-fetcher.started

	// the first run has cleared active but its call has not returned yet
	p.mu.Lock()
	p.active = nil
	p.mu.Unlock()

	rec := &recorder{}
	second := make(chan error, 1)
	go func() {
		_, err := p.Run(context.Background(), rec)
		second <- err
	}()
	select {
	case <-fetcher.started:
	case <-time.After(5 * time.Second):
		t.Fatal("second caller did not start its own run")
	}

	close(fetcher.release)
	require.NoError(t, <-first)
	require.NoError(t, <-second)
	assert.Equal(t, int32(2), fetcher.calls.Load())
	assert.NotContains(t, rec.steps(), progress.StepJoined)
	assert.Contains(t, rec.steps(), progress.StepDone)

	after := &recorder{}
	_, err := p.Run(context.Background(), after)
	require.NoError(t, err)
	assert.NotContains(t, after.steps(), progress.StepJoined)
	assert.Equal(t, 0.0, testutil.ToFloat64(m.RunsCoalesced))
}

func TestReport_MarshalJSON(t *testing.T) {
	rep := Report{
		Schedule: fpl.Schedule{Current: gw(8, true, false)},
		Article:  &hub.Article{Title: "GW8 Reveal"},
		Summary:  &narrative.Summary{Text: "s", Model: "mock"},
		Duration: 1500 * time.Millisecond,
	}

	data, err := json.Marshal(rep)
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, "1.5s", got["duration"])
	assert.Contains(t, got, "schedule")
	assert.Contains(t, got, "summary")
	assert.Equal(t, "GW8 Reveal", got["article"].(map[string]any)["title"])
	assert.NotContains(t, got, "Duration")
}
