package commands

import (
	"github.com/spf13/cobra"
)

var (
	// Global flags
	env     string
	verbose bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "statusboard",
	Short: "Mobile data status dashboard",
	Long: `statusboard - mobile data status dashboard

Fetches the published mobile-data sheet, cleans the free-text cells into
typed counts and status categories, and serves the result as a dashboard
with summary cards, a per-state bar chart and a CSV export.

Usage:
  go run ./cmd/statusboard [command]

Examples:
  go run ./cmd/statusboard serve
  go run ./cmd/statusboard fetch
  go run ./cmd/statusboard fetch --csv out.csv`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVar(&env, "env", "development", "environment (development|staging|production)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
