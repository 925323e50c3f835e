package main

import (
	"github.com/spf13/cobra"

	"github.com/alejandrodnm/hedgelab/internal/adapters/notify"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List previous analysis runs",
	RunE:  runHistory,
}

var historyLimit int

func init() {
	rootCmd.AddCommand(historyCmd)
	historyCmd.Flags().IntVar(&historyLimit, "limit", 20, "number of runs to show (0 = all)")
}

func runHistory(cmd *cobra.Command, _ []string) error {
	a, err := openApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	runs, err := a.store.ListRuns(cmd.Context(), historyLimit)
	if err != nil {
		return err
	}
	notify.NewConsole(compact).ReportRuns(runs)
	return nil
}
