package commands

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/statusboard/internal/api/handlers"
	"github.com/wonny/statusboard/internal/pipeline"
	"github.com/wonny/statusboard/internal/source"
	"github.com/wonny/statusboard/internal/store"
	"github.com/wonny/statusboard/pkg/config"
	"github.com/wonny/statusboard/pkg/httputil"
	"github.com/wonny/statusboard/pkg/logger"
)

// fetchCmd represents the fetch command
var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Fetch the sheet once and print upload tallies",
	Long: `Fetches the published sheet, runs the cleaning pipeline and prints
per-metric upload tallies to stdout. Useful for checking the source
data without starting the server.

Example:
  go run ./cmd/statusboard fetch
  go run ./cmd/statusboard fetch --csv out.csv
  go run ./cmd/statusboard fetch --state Goa --csv goa.csv`,
	RunE: runFetch,
}

var (
	fetchCSVPath string
	fetchState   string
)

func init() {
	rootCmd.AddCommand(fetchCmd)

	fetchCmd.Flags().StringVar(&fetchCSVPath, "csv", "", "write detail rows to this CSV file")
	fetchCmd.Flags().StringVar(&fetchState, "state", "", "restrict CSV output to one state")
}

func runFetch(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log := logger.New(cfg)

	httpClient := httputil.New(cfg, log).WithRateLimit(cfg.Source.RatePerSec)
	sheet := source.NewClient(httpClient, log, cfg.Source.SheetURL)
	snapshots := store.New(sheet, log, cfg.CacheTTL)

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	snapshot, err := snapshots.Refresh(ctx)
	if err != nil {
		return fmt.Errorf("fetch sheet: %w", err)
	}

	fmt.Printf("Fetched %d states at %s\n\n", len(snapshot.Rows), snapshot.FetchedAt.Format(time.RFC3339))

	fmt.Printf("%-16s %10s %10s %10s %8s\n", "Metric", "Uploaded", "Pending", "No Data", "Total")
	for _, metric := range pipeline.Metrics() {
		tally := snapshot.Tallies[metric]
		fmt.Printf("%-16s %10d %10d %10d %8d\n",
			metric.Label(), tally.Uploaded, tally.Pending, tally.NoData, tally.Total())
	}

	if fetchCSVPath == "" {
		return nil
	}

	rows := snapshot.FilterRows(fetchState)

	f, err := os.Create(fetchCSVPath)
	if err != nil {
		return fmt.Errorf("create %s: %w", fetchCSVPath, err)
	}
	defer f.Close()

	if err := handlers.WriteCSV(f, rows); err != nil {
		return fmt.Errorf("write %s: %w", fetchCSVPath, err)
	}

	fmt.Printf("\nWrote %d rows to %s\n", len(rows), fetchCSVPath)
	return nil
}
