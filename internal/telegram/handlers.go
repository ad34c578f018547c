package telegram

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Yates-Labs/fplab/internal/logger"
	"github.com/Yates-Labs/fplab/internal/metrics"
	"github.com/Yates-Labs/fplab/internal/orchestrator"
	"github.com/Yates-Labs/fplab/internal/progress"
	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// Sender sends chat messages. *bot.Bot satisfies it.
type Sender interface {
	SendMessage(ctx context.Context, params *bot.SendMessageParams) (*models.Message, error)
}

// Runner executes one fetch-and-summarize run.
type Runner interface {
	Run(ctx context.Context, reporter progress.Reporter) (*orchestrator.Report, error)
}

// Handlers answers chat commands.
type Handlers struct {
	runner  Runner
	command string
	verbose bool
	log     logger.Logger
	metrics *metrics.Metrics
}

// NewHandlers creates handlers that answer command by running runner.
func NewHandlers(runner Runner, command string, verbose bool, log logger.Logger, m *metrics.Metrics) *Handlers {
	if log == nil {
		log = logger.NewNop()
	}
	command = strings.TrimPrefix(strings.TrimSpace(command), "/")
	if command == "" {
		command = DefaultRevealCommand
	}
	return &Handlers{
		runner:  runner,
		command: strings.ToLower(command),
		verbose: verbose,
		log:     log.With(logger.String("component", "telegram")),
		metrics: m,
	}
}

// Command is the reveal command name, without the slash.
func (h *Handlers) Command() string {
	return h.command
}

// Start greets the user and lists the commands.
func (h *Handlers) Start(ctx context.Context, s Sender, msg *models.Message) {
	if msg == nil {
		return
	}
	text := fmt.Sprintf("Welcome to the FPL Lab!\n\nAvailable commands:\n/%s - Get the latest team reveal and a summary", h.command)
	h.reply(ctx, s, msg.Chat.ID, text)
}

// Reveal runs the pipeline and replies with the summary, split to fit the
// message limit, or with an error message.
func (h *Handlers) Reveal(ctx context.Context, s Sender, msg *models.Message) {
	if msg == nil {
		return
	}
	chatID := msg.Chat.ID
	log := h.log.With(logger.Int64("chat_id", chatID))
	log.Info("Reveal requested")

	h.reply(ctx, s, chatID, "Fetching the latest team reveal... This may take a moment.")

	reporter := NewChatReporter(s, chatID, h.verbose, log, h.metrics)
	report, err := h.runner.Run(ctx, reporter)
	if err != nil {
		log.Warn("Reveal failed", logger.Error(err))
		h.reply(ctx, s, chatID, ErrorMessage(err))
		return
	}

	h.reply(ctx, s, chatID, report.Summary.Text)
}

// Fallback points plain-text messages at the reveal command. Anything else
// is ignored.
func (h *Handlers) Fallback(ctx context.Context, s Sender, msg *models.Message) {
	if !isPlainText(msg) {
		return
	}
	h.reply(ctx, s, msg.Chat.ID, fmt.Sprintf("Send /%s to get the latest team reveal and a summary.", h.command))
}

// reply sends text in as many messages as the length limit requires.
func (h *Handlers) reply(ctx context.Context, s Sender, chatID int64, text string) {
	for _, chunk := range SplitMessage(text, MaxMessageLength) {
		_, err := s.SendMessage(ctx, &bot.SendMessageParams{
			ChatID: chatID,
			Text:   chunk,
		})
		h.metrics.MessageSent(err)
		if err != nil {
			h.log.Error("Send message failed", logger.Int64("chat_id", chatID), logger.Error(err))
			return
		}
	}
}

// ErrorMessage is the chat text shown for a failed run.
func ErrorMessage(err error) string {
	switch {
	case errors.Is(err, orchestrator.ErrNoGameweeks):
		return "Error: Could not fetch gameweek information from FPL API."
	case errors.Is(err, orchestrator.ErrNoArticle):
		return "Error: Could not extract text from Fantasy Football Hub page."
	case errors.Is(err, context.DeadlineExceeded):
		return "Error: The request timed out. Please try again."
	default:
		return fmt.Sprintf("An error occurred: %v", err)
	}
}
