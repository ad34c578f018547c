package telegram

import (
	"context"
	"fmt"

	"github.com/Yates-Labs/fplab/internal/logger"
	"github.com/Yates-Labs/fplab/internal/metrics"
	"github.com/Yates-Labs/fplab/internal/progress"
	"github.com/go-telegram/bot"
)

// chatReporter posts progress events to one chat.
type chatReporter struct {
	sender  Sender
	chatID  int64
	log     logger.Logger
	metrics *metrics.Metrics
}

// NewChatReporter reports progress to chatID. Unless verbose, only the
// found-article, summarizing and joined steps are posted.
func NewChatReporter(s Sender, chatID int64, verbose bool, log logger.Logger, m *metrics.Metrics) progress.Reporter {
	if log == nil {
		log = logger.NewNop()
	}
	r := &chatReporter{sender: s, chatID: chatID, log: log, metrics: m}
	if verbose {
		return r
	}
	return progress.Only(r, progress.StepArticleFound, progress.StepSummarizing, progress.StepJoined)
}

func (r *chatReporter) Report(ctx context.Context, ev progress.Event) {
	_, err := r.sender.SendMessage(ctx, &bot.SendMessageParams{
		ChatID: r.chatID,
		Text:   eventText(ev),
	})
	r.metrics.MessageSent(err)
	if err != nil {
		r.log.Warn("Progress message not sent", logger.String("step", string(ev.Step)), logger.Error(err))
	}
}

func eventText(ev progress.Event) string {
	switch ev.Step {
	case progress.StepArticleFound:
		if ev.Message == "" {
			return "Found the latest article."
		}
		return fmt.Sprintf("Found article: %s", ev.Message)
	case progress.StepSummarizing:
		return "Summarizing the article..."
	default:
		return ev.Message
	}
}
