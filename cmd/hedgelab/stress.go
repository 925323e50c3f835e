package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/alejandrodnm/hedgelab/internal/adapters/notify"
	"github.com/alejandrodnm/hedgelab/internal/application/pipeline"
	"github.com/alejandrodnm/hedgelab/internal/domain"
)

var stressCmd = &cobra.Command{
	Use:   "stress",
	Short: "Compare hedge effectiveness inside and outside stress periods",
	Long: `Run the analysis with a stress period chosen by hand (--start/--end) or
detected with a custom threshold and run length.

Examples:
  hedgelab stress --spot copper.csv --contract CU0 --start 2024-03-01 --end 2024-03-20
  hedgelab stress --spot copper.csv --future cu0.csv --threshold 3 --min-days 2`,
	RunE: runStress,
}

var (
	stressIn        inputFlags
	stressStart     string
	stressEnd       string
	stressThreshold float64
	stressMinDays   int
)

func init() {
	rootCmd.AddCommand(stressCmd)

	stressIn.bind(stressCmd)
	stressCmd.Flags().StringVar(&stressStart, "start", "", "first day of the stress period (YYYY-MM-DD)")
	stressCmd.Flags().StringVar(&stressEnd, "end", "", "last day of the stress period (YYYY-MM-DD)")
	stressCmd.Flags().Float64Var(&stressThreshold, "threshold", 0, "price change threshold in % (overrides config)")
	stressCmd.Flags().IntVar(&stressMinDays, "min-days", 0, "minimum consecutive days (overrides config)")
}

func runStress(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	pc, err := cfg.Pipeline()
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("threshold") {
		if stressThreshold <= 0 {
			return fmt.Errorf("--threshold %v must be positive: %w", stressThreshold, domain.ErrConfiguration)
		}
		pc.StressThresholdPct = stressThreshold
	}
	if cmd.Flags().Changed("min-days") {
		if stressMinDays < 1 {
			return fmt.Errorf("--min-days %d must be positive: %w", stressMinDays, domain.ErrConfiguration)
		}
		pc.StressMinDays = stressMinDays
	}

	req, err := stressIn.request()
	if err != nil {
		return err
	}
	if req.StressStart, err = optionalDate("start", stressStart); err != nil {
		return err
	}
	if req.StressEnd, err = optionalDate("end", stressEnd); err != nil {
		return err
	}

	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	p := pipeline.New(pc, a.provider, a.store, notify.NewConsole(compact))
	_, err = p.Analyze(ctx, req)
	return err
}
