package telegram

import (
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// parseCommand splits "/name@bot args" into its lower-cased name and the
// addressed bot username. ok is false for text that is not a command.
func parseCommand(text string) (name, mention string, ok bool) {
	if !strings.HasPrefix(text, "/") {
		return "", "", false
	}
	word, _, _ := strings.Cut(text[1:], " ")
	word, _, _ = strings.Cut(word, "\n")
	name, mention, _ = strings.Cut(word, "@")
	if name == "" {
		return "", "", false
	}
	return strings.ToLower(name), mention, true
}

// commandMatcher matches messages invoking command. When username is known,
// commands addressed to another bot are ignored.
func commandMatcher(command, username string) bot.MatchFunc {
	command = strings.ToLower(strings.TrimPrefix(command, "/"))
	return func(update *models.Update) bool {
		if update.Message == nil {
			return false
		}
		name, mention, ok := parseCommand(update.Message.Text)
		if !ok || name != command {
			return false
		}
		return mention == "" || username == "" || strings.EqualFold(mention, username)
	}
}

// isPlainText reports whether msg carries non-command text.
func isPlainText(msg *models.Message) bool {
	if msg == nil || strings.TrimSpace(msg.Text) == "" {
		return false
	}
	_, _, isCmd := parseCommand(msg.Text)
	return !isCmd
}
