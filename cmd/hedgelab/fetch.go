package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/alejandrodnm/hedgelab/internal/adapters/csvfile"
	"github.com/alejandrodnm/hedgelab/internal/adapters/notify"
	"github.com/alejandrodnm/hedgelab/internal/domain"
)

var fetchCmd = &cobra.Command{
	Use:   "fetch CONTRACT",
	Short: "Download daily futures prices",
	Long: `Download the daily K-line of a futures contract through the quote cache
and print it, or save it as a CSV usable with --future.

Examples:
  hedgelab fetch CU0
  hedgelab fetch AL0 --from 2023-01-01 --to 2023-12-31 --out al0.csv`,
	Args: cobra.ExactArgs(1),
	RunE: runFetch,
}

var (
	fetchFrom string
	fetchTo   string
	fetchOut  string
)

func init() {
	rootCmd.AddCommand(fetchCmd)

	fetchCmd.Flags().StringVar(&fetchFrom, "from", "", "first day (YYYY-MM-DD)")
	fetchCmd.Flags().StringVar(&fetchTo, "to", "", "last day (YYYY-MM-DD)")
	fetchCmd.Flags().StringVar(&fetchOut, "out", "", "write the series to this CSV instead of printing it")
}

func runFetch(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	contract := args[0]

	from, err := optionalDate("from", fetchFrom)
	if err != nil {
		return err
	}
	to, err := optionalDate("to", fetchTo)
	if err != nil {
		return err
	}
	if !from.IsZero() && !to.IsZero() && from.After(to) {
		return fmt.Errorf("--from %s after --to %s: %w", fetchFrom, fetchTo, domain.ErrConfiguration)
	}

	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	series, err := a.provider.FetchFutures(ctx, contract, from, to)
	if err != nil {
		return err
	}

	if fetchOut != "" {
		if err := csvfile.SaveSeries(fetchOut, series, cfg.MarketData.PriceField); err != nil {
			return err
		}
		slog.Info("series saved", "contract", contract, "points", series.Len(), "path", fetchOut)
		return nil
	}
	notify.NewConsole(compact).ReportSeries(series)
	return nil
}
