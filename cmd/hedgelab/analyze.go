package main

import (
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/alejandrodnm/hedgelab/internal/adapters/csvfile"
	"github.com/alejandrodnm/hedgelab/internal/adapters/notify"
	"github.com/alejandrodnm/hedgelab/internal/application/pipeline"
	"github.com/alejandrodnm/hedgelab/internal/backtest"
	"github.com/alejandrodnm/hedgelab/internal/domain"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Estimate the hedge ratio and backtest the hedge",
	Long: `Align the spot series with the futures series, estimate the hedge ratio,
backtest the hedged position, detect stress periods and print the report.
The run is saved to the history database.

Examples:
  hedgelab analyze --spot copper.csv --contract CU0
  hedgelab analyze --spot copper.csv --future cu0.csv --from 2023-01-01
  hedgelab analyze --spot copper.csv --contract CU0 --export out/ --scenarios 0,0.5,1,1.5
  hedgelab analyze --spot copper.csv --contract CU0 --period 2024-03-01:2024-03-20`,
	RunE: runAnalyze,
}

var (
	analyzeIn        inputFlags
	analyzeExportDir string
	analyzeScenarios []float64
	analyzePeriod    string
)

func init() {
	rootCmd.AddCommand(analyzeCmd)

	analyzeIn.bind(analyzeCmd)
	analyzeCmd.Flags().StringVar(&analyzeExportDir, "export", "", "directory for CSV exports of every table")
	analyzeCmd.Flags().Float64SliceVar(&analyzeScenarios, "scenarios", nil, "extra hedge ratios to backtest side by side")
	analyzeCmd.Flags().StringVar(&analyzePeriod, "period", "", "also report the backtest over FROM:TO (either side may be empty)")
}

func runAnalyze(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	pc, err := cfg.Pipeline()
	if err != nil {
		return err
	}
	req, err := analyzeIn.request()
	if err != nil {
		return err
	}
	var periodFrom, periodTo time.Time
	if analyzePeriod != "" {
		if periodFrom, periodTo, err = parsePeriod(analyzePeriod); err != nil {
			return err
		}
	}

	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	console := notify.NewConsole(compact)
	p := pipeline.New(pc, a.provider, a.store, console)

	slog.Info("analysis starting",
		"spot", analyzeIn.spot,
		"contract", req.Contract,
		"method", pc.Method,
		"direction", pc.Direction,
	)
	res, err := p.Analyze(ctx, req)
	if err != nil {
		return err
	}

	if analyzeExportDir != "" {
		if err := export(analyzeExportDir, res); err != nil {
			return err
		}
	}

	if analyzePeriod != "" {
		perf, err := backtest.Period(res.Ledger, periodFrom, periodTo)
		if err != nil {
			return err
		}
		console.ReportPeriod(perf)
	}

	if len(analyzeScenarios) > 0 {
		results, err := p.Scenarios(ctx, res.Panel, analyzeScenarios)
		if err != nil {
			return err
		}
		console.ReportScenarios(results)
	}
	return nil
}

func export(dir string, res domain.Analysis) error {
	exp, err := csvfile.NewExporter(dir)
	if err != nil {
		return err
	}
	paths, err := exp.Export(res)
	if err != nil {
		return err
	}
	slog.Info("analysis exported", "dir", dir, "files", len(paths))
	return nil
}
