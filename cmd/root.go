package cmd

import (
	"fmt"
	"os"

	"github.com/Yates-Labs/fplab/internal/config"
	"github.com/spf13/cobra"
)

var envFile string

var rootCmd = &cobra.Command{
	Use:   "fplab",
	Short: "FPL Lab - team reveal summaries for Telegram",
	Long: `FPL Lab logs into Fantasy Football Hub, pulls the latest team-reveal
article, looks up the current and next gameweek from the FPL API and
summarizes the article with an LLM.

Run it as a Telegram bot (serve, poll) or from the terminal (reveal).
Settings are read from the environment and an optional .env file.`,
	SilenceUsage: true,
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "Path to a .env file (ignored if missing)")
}

// loadConfig reads the .env file named by --env-file and the environment.
func loadConfig() (*config.Config, error) {
	return config.Load(envFile)
}
