package narrative

import (
	"strings"
	"testing"
	"time"

	"github.com/Yates-Labs/fplab/internal/fpl"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAssembleSystemPrompt_Gameweeks(t *testing.T) {
	system := AssembleSystemPrompt(PromptInput{Schedule: testSchedule()})

	assert.Contains(t, system, "Current gameweek: Gameweek 8 (id 8, deadline Sat 18 Oct 2025 10:00 UTC)")
	assert.Contains(t, system, "Next gameweek: Gameweek 9 (id 9, deadline Fri 24 Oct 2025 17:30 UTC)")
	assert.Contains(t, system, "not about the current or next gameweek")
	assert.Contains(t, system, "Tone: "+DefaultTone)
}

func TestAssembleSystemPrompt_UnknownGameweeks(t *testing.T) {
	system := AssembleSystemPrompt(PromptInput{})
	assert.Contains(t, system, "Current gameweek: unknown")
	assert.Contains(t, system, "Next gameweek: unknown")
}

func TestAssembleSystemPrompt_UnnamedGameweek(t *testing.T) {
	system := AssembleSystemPrompt(PromptInput{
		Schedule: fpl.Schedule{Next: &fpl.Gameweek{ID: 38}},
	})
	assert.Contains(t, system, "Next gameweek: Gameweek 38 (id 38, deadline N/A)")
}

func TestAssembleSystemPrompt_ExtraInstructionsLast(t *testing.T) {
	system := AssembleSystemPrompt(PromptInput{ExtraInstructions: "  Reply in French.  "})
	assert.True(t, strings.HasSuffix(system, "\nReply in French.\n"))
}

func TestAssembleArticlePrompt(t *testing.T) {
	tests := []struct {
		name    string
		title   string
		text    string
		want    string
		wantErr error
	}{
		{
			name:  "with title",
			title: " GW9 Reveal ",
			text:  "Salah in.\n",
			want:  "Article: GW9 Reveal\n\nSalah in.\n",
		},
		{
			name: "without title",
			text: "Salah in.",
			want: "Salah in.\n",
		},
		{
			name:    "blank text",
			title:   "GW9 Reveal",
			text:    " \n\t",
			wantErr: ErrMissingArticle,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := AssembleArticlePrompt(tt.title, tt.text)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFormatDeadline_ConvertsToUTC(t *testing.T) {
	london := time.FixedZone("BST", 3600)
	got := formatDeadline(time.Date(2025, 10, 18, 11, 0, 0, 0, london))
	assert.Equal(t, "Sat 18 Oct 2025 10:00 UTC", got)
}
