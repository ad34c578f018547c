package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/Yates-Labs/fplab/internal/fpl"
	"github.com/Yates-Labs/fplab/internal/hub"
	"github.com/Yates-Labs/fplab/internal/progress"
	"github.com/spf13/cobra"
)

var (
	textOnly   bool
	headed     bool
	jsonOutput bool
	quiet      bool
)

var revealCmd = &cobra.Command{
	Use:   "reveal",
	Short: "Fetch the latest team reveal and summarize it in the terminal",
	Long: `Run the same pipeline the bot runs and print the result.

This command:
1. Looks up the current and next gameweek from the FPL API
2. Logs into Fantasy Football Hub and opens the newest team reveal
3. Extracts the article text
4. Summarizes it with the configured LLM

Examples:
  fplab reveal
  fplab reveal --text-only        # print the article, skip the LLM
  fplab reveal --headed           # watch the browser
  fplab reveal --json > reveal.json`,
	Args: cobra.NoArgs,
	RunE: runReveal,
}

func init() {
	rootCmd.AddCommand(revealCmd)
	revealCmd.Flags().BoolVar(&textOnly, "text-only", false, "Print the extracted article text instead of a summary")
	revealCmd.Flags().BoolVar(&headed, "headed", false, "Show the browser window")
	revealCmd.Flags().BoolVar(&jsonOutput, "json", false, "Print the result as JSON")
	revealCmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "Hide progress output")
}

func runReveal(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if headed {
		cfg.Hub.Headless = false
	}
	log, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	reporter := consoleReporter()
	if quiet || jsonOutput {
		reporter = progress.Discard
	}

	if textOnly {
		if err := cfg.RequireHubCredentials(); err != nil {
			return err
		}
		article, err := hub.NewFetcher(cfg.Hub, log).Fetch(ctx, reporter)
		if err != nil {
			return fmt.Errorf("%s %w", errorStyle.Render("Error:"), err)
		}
		if jsonOutput {
			return printJSON(article)
		}
		printArticle(article)
		return nil
	}

	pipeline, err := newPipeline(cfg, log, nil)
	if err != nil {
		return err
	}
	report, err := pipeline.Run(ctx, reporter)
	if err != nil {
		return fmt.Errorf("%s %w", errorStyle.Render("Error:"), err)
	}
	if jsonOutput {
		return printJSON(report)
	}

	fmt.Println()
	printSchedule(report.Schedule)
	fmt.Println()
	fmt.Println(headerStyle.Render(report.Article.Title))
	fmt.Println(mutedStyle.Render(report.Article.URL))
	fmt.Println()
	fmt.Println(textStyle.Render(strings.TrimSpace(report.Summary.Text)))
	fmt.Println()
	fmt.Println(mutedStyle.Render(fmt.Sprintf("%s in %s", report.Summary.Model, report.Duration.Round(100*time.Millisecond))))
	return nil
}

// consoleReporter prints each step as it happens.
func consoleReporter() progress.Reporter {
	return progress.Func(func(_ context.Context, ev progress.Event) {
		if ev.Step == progress.StepDone {
			fmt.Println(successStyle.Render("✓ " + ev.Message))
			return
		}
		fmt.Println(mutedStyle.Render("→ " + ev.Message))
	})
}

func printArticle(a *hub.Article) {
	fmt.Println()
	fmt.Println(headerStyle.Render(a.Title))
	fmt.Println(mutedStyle.Render(a.URL))
	fmt.Println()
	fmt.Println(textStyle.Render(a.Text))
}

func printSchedule(s fpl.Schedule) {
	fmt.Println(headerStyle.Render("Gameweeks:"))
	fmt.Println(formatGameweek("Current", s.Current))
	fmt.Println(formatGameweek("Next", s.Next))
}

func formatGameweek(label string, gw *fpl.Gameweek) string {
	if gw == nil {
		return fmt.Sprintf("  %s %s", accentStyle.Render(label+":"), mutedStyle.Render("unknown"))
	}
	deadline := "N/A"
	if !gw.DeadlineTime.IsZero() {
		deadline = gw.DeadlineTime.UTC().Format("Mon 02 Jan 2006 15:04 MST")
	}
	return fmt.Sprintf("  %s %s %s",
		accentStyle.Render(label+":"),
		numberStyle.Render(gw.Name),
		mutedStyle.Render("(deadline "+deadline+")"),
	)
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
