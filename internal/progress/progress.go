// Package progress reports the stages of a team-reveal run to whoever is
// watching: the console, the log, or a chat.
package progress

import (
	"context"

	"github.com/Yates-Labs/fplab/internal/logger"
)

// Step names a stage of a run.
type Step string

const (
	StepLaunch        Step = "launch"
	StepConsent       Step = "consent"
	StepLogin         Step = "login"
	StepLoggedIn      Step = "logged_in"
	StepTargetPage    Step = "target_page"
	StepArticleFound  Step = "article_found"
	StepArticleOpened Step = "article_opened"
	StepRendered      Step = "rendered"
	StepExtracted     Step = "extracted"
	StepGameweeks     Step = "gameweeks"
	StepSummarizing   Step = "summarizing"
	StepDone          Step = "done"

	// StepJoined tells a caller it is sharing a run that was already going.
	StepJoined Step = "joined"
)

// Event is a single progress notification.
type Event struct {
	Step    Step
	Message string
}

// Reporter receives progress events. Implementations must not block for long;
// a slow reporter slows the run.
type Reporter interface {
	Report(ctx context.Context, ev Event)
}

// Func adapts a function to a Reporter.
type Func func(ctx context.Context, ev Event)

func (f Func) Report(ctx context.Context, ev Event) { f(ctx, ev) }

// Discard drops every event.
var Discard Reporter = Func(func(context.Context, Event) {})

// Log writes every event to log at info level.
func Log(log logger.Logger) Reporter {
	return Func(func(_ context.Context, ev Event) {
		log.Info(ev.Message, logger.String("step", string(ev.Step)))
	})
}

// Multi fans each event out to every non-nil reporter in order.
func Multi(reporters ...Reporter) Reporter {
	return Func(func(ctx context.Context, ev Event) {
		for _, r := range reporters {
			if r != nil {
				r.Report(ctx, ev)
			}
		}
	})
}

// Only forwards events whose step is listed and drops the rest.
func Only(r Reporter, steps ...Step) Reporter {
	allowed := make(map[Step]struct{}, len(steps))
	for _, s := range steps {
		allowed[s] = struct{}{}
	}
	return Func(func(ctx context.Context, ev Event) {
		if _, ok := allowed[ev.Step]; ok {
			r.Report(ctx, ev)
		}
	})
}

// Emit reports to r, treating a nil reporter as Discard.
func Emit(ctx context.Context, r Reporter, step Step, msg string) {
	if r == nil {
		return
	}
	r.Report(ctx, Event{Step: step, Message: msg})
}
