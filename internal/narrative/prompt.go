package narrative

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Yates-Labs/fplab/internal/fpl"
)

var (
	ErrMissingArticle = errors.New("article text required for summary")
)

// DefaultTone is used when no tone is configured.
const DefaultTone = "Knowledgeable, direct, helpful. Avoid speculation unless clearly labeled as such."

// PromptInput carries everything the system prompt is built from.
type PromptInput struct {
	Schedule fpl.Schedule

	// Tone replaces DefaultTone when set
	Tone string

	// ExtraInstructions are appended verbatim after the tone
	ExtraInstructions string
}

// AssembleSystemPrompt builds the system instruction for a team-reveal summary.
func AssembleSystemPrompt(in PromptInput) string {
	var b strings.Builder

	b.WriteString("You are an FPL (Fantasy Premier League) assistant that summarizes transfer activity, captaincy decisions, and team news.\n")
	b.WriteString("You will be given the text of a team reveal article from an FPL website. Extract the relevant information and summarize it.\n")
	b.WriteString("At the end of the summary, give a quick recap of the author's transfers (if any) and captaincy decision (if any).\n\n")

	b.WriteString("# Gameweeks\n\n")
	b.WriteString(fmt.Sprintf("Current gameweek: %s\n", describeGameweek(in.Schedule.Current)))
	b.WriteString(fmt.Sprintf("Next gameweek: %s\n", describeGameweek(in.Schedule.Next)))
	b.WriteString("If the article is not about the current or next gameweek, say so clearly at the start of the summary.\n\n")

	b.WriteString("# Your role\n\n")
	b.WriteString("- Summarize key transfer moves (players in/out, prices, timing)\n")
	b.WriteString("- Highlight captaincy choices and rationale\n")
	b.WriteString("- Note important team news affecting decisions\n")
	b.WriteString("- Present information clearly and concisely\n")
	b.WriteString("- Focus on actionable insights\n\n")

	b.WriteString("# Format\n\n")
	b.WriteString("- Lead with the most critical information\n")
	b.WriteString("- Use natural paragraphs, not bullet points unless asked\n")
	b.WriteString("- Keep summaries brief but complete\n")
	b.WriteString("- Mention price changes, injuries, and form when relevant\n")
	b.WriteString("- Plain text only; the reply is delivered as a chat message\n\n")

	tone := strings.TrimSpace(in.Tone)
	if tone == "" {
		tone = DefaultTone
	}
	b.WriteString(fmt.Sprintf("Tone: %s\n", tone))

	if extra := strings.TrimSpace(in.ExtraInstructions); extra != "" {
		b.WriteString("\n")
		b.WriteString(extra)
		b.WriteString("\n")
	}

	return b.String()
}

// AssembleArticlePrompt wraps the article text as the user turn.
func AssembleArticlePrompt(title, text string) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", ErrMissingArticle
	}

	var b strings.Builder
	if title = strings.TrimSpace(title); title != "" {
		b.WriteString(fmt.Sprintf("Article: %s\n\n", title))
	}
	b.WriteString(text)
	b.WriteString("\n")
	return b.String(), nil
}

func describeGameweek(gw *fpl.Gameweek) string {
	if gw == nil {
		return "unknown"
	}
	name := gw.Name
	if name == "" {
		name = fmt.Sprintf("Gameweek %d", gw.ID)
	}
	return fmt.Sprintf("%s (id %d, deadline %s)", name, gw.ID, formatDeadline(gw.DeadlineTime))
}

func formatDeadline(t time.Time) string {
	if t.IsZero() {
		return "N/A"
	}
	return t.UTC().Format("Mon 02 Jan 2006 15:04 MST")
}
