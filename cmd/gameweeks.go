package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/Yates-Labs/fplab/internal/fpl"
	"github.com/spf13/cobra"
)

var gameweeksCmd = &cobra.Command{
	Use:   "gameweeks",
	Short: "Show the current and next FPL gameweek",
	Long: `Query the FPL bootstrap-static endpoint and print the current and next
gameweek with their deadlines. No credentials are needed.

Examples:
  fplab gameweeks
  fplab gameweeks --json`,
	Args: cobra.NoArgs,
	RunE: runGameweeks,
}

func init() {
	rootCmd.AddCommand(gameweeksCmd)
	gameweeksCmd.Flags().BoolVar(&jsonOutput, "json", false, "Print the schedule as JSON")
}

func runGameweeks(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), cfg.FPL.Timeout+5*time.Second)
	defer cancel()

	schedule, err := fpl.NewClient(cfg.FPL).Gameweeks(ctx)
	if err != nil {
		return fmt.Errorf("%s %w", errorStyle.Render("Error:"), err)
	}
	if jsonOutput {
		return printJSON(schedule)
	}
	if schedule.Empty() {
		fmt.Println(mutedStyle.Render("No current or next gameweek is scheduled"))
		return nil
	}

	fmt.Println()
	printSchedule(schedule)
	return nil
}
