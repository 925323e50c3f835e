package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/alejandrodnm/hedgelab/config"
)

var (
	configPath string
	verbose    bool
	logFormat  string
	compact    bool

	// cfg se carga en PersistentPreRunE antes de cualquier subcomando.
	cfg *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "hedgelab",
	Short: "Futures hedge effectiveness analyzer",
	Long: `hedgelab estimates the optimal hedge ratio between a spot commodity
series and a futures contract, backtests the hedged position and checks
how the hedge behaves during periods of market stress.

Example usage:
  hedgelab analyze --spot copper.csv --contract CU0
  hedgelab analyze --spot copper.csv --future cu0.csv --export out/
  hedgelab stress --spot copper.csv --contract CU0 --start 2024-03-01 --end 2024-03-20
  hedgelab fetch CU0 --from 2023-01-01 --out cu0.csv
  hedgelab history --limit 10`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		var err error
		cfg, err = config.Load(configPath)
		if err != nil {
			return err
		}
		if verbose {
			cfg.Log.Level = "debug"
		}
		if logFormat != "" {
			cfg.Log.Format = logFormat
		}
		setupLogger(cfg.Log)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "config/config.yaml", "path to config file")
	rootCmd.PersistentFlags().BoolVar(&verbose, "verbose", false, "set log level to debug")
	rootCmd.PersistentFlags().StringVar(&logFormat, "format", "", "log format: text|json (overrides config)")
	rootCmd.PersistentFlags().BoolVar(&compact, "compact", false, "print a 1-line summary instead of full tables")
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		slog.Error("hedgelab failed", "err", err)
		cancel()
		os.Exit(1)
	}
}

func setupLogger(cfg config.LogConfig) {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}
	slog.SetDefault(slog.New(handler))
}
