package progress

import (
	"context"
	"testing"

	"github.com/Yates-Labs/fplab/internal/logger"
	"github.com/stretchr/testify/assert"
)

type recorder struct {
	events []Event
}

func (r *recorder) Report(_ context.Context, ev Event) {
	r.events = append(r.events, ev)
}

func TestMulti_FansOutInOrder(t *testing.T) {
	a, b := &recorder{}, &recorder{}
	r := Multi(a, nil, b)

	Emit(context.Background(), r, StepLogin, "logging in")
	Emit(context.Background(), r, StepDone, "done")

	assert.Equal(t, []Event{{StepLogin, "logging in"}, {StepDone, "done"}}, a.events)
	assert.Equal(t, a.events, b.events)
}

func TestOnly_FiltersSteps(t *testing.T) {
	rec := &recorder{}
	r := Only(rec, StepArticleFound, StepSummarizing)

	for _, s := range []Step{StepLaunch, StepArticleFound, StepRendered, StepSummarizing} {
		Emit(context.Background(), r, s, string(s))
	}

	assert.Equal(t, []Event{
		{StepArticleFound, "article_found"},
		{StepSummarizing, "summarizing"},
	}, rec.events)
}

func TestEmit_NilReporter(t *testing.T) {
	assert.NotPanics(t, func() {
		Emit(context.Background(), nil, StepLaunch, "x")
		Discard.Report(context.Background(), Event{Step: StepLaunch})
		Log(logger.NewNop()).Report(context.Background(), Event{Step: StepLaunch})
	})
}
