package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/alejandrodnm/hedgelab/internal/adapters/csvfile"
	"github.com/alejandrodnm/hedgelab/internal/application/pipeline"
	"github.com/alejandrodnm/hedgelab/internal/domain"
)

// inputFlags son las fuentes de datos comunes a analyze y stress.
type inputFlags struct {
	spot         string
	spotColumn   string
	future       string
	futureColumn string
	contract     string
	from         string
	to           string
}

func (f *inputFlags) bind(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.spot, "spot", "", "spot price CSV (date,<column>)")
	cmd.Flags().StringVar(&f.spotColumn, "spot-column", "price", "price column in the spot CSV")
	cmd.Flags().StringVar(&f.future, "future", "", "futures price CSV; if empty the contract is downloaded")
	cmd.Flags().StringVar(&f.futureColumn, "future-column", "close", "price column in the futures CSV")
	cmd.Flags().StringVar(&f.contract, "contract", "", "futures contract to download, e.g. CU0")
	cmd.Flags().StringVar(&f.from, "from", "", "first day of the analysis (YYYY-MM-DD)")
	cmd.Flags().StringVar(&f.to, "to", "", "last day of the analysis (YYYY-MM-DD)")
	_ = cmd.MarkFlagRequired("spot")
}

// request carga los CSV y construye el Request del pipeline.
func (f *inputFlags) request() (pipeline.Request, error) {
	if f.future == "" && f.contract == "" {
		return pipeline.Request{}, fmt.Errorf("need --future or --contract: %w", domain.ErrConfiguration)
	}

	var req pipeline.Request
	var err error
	if req.From, err = optionalDate("from", f.from); err != nil {
		return pipeline.Request{}, err
	}
	if req.To, err = optionalDate("to", f.to); err != nil {
		return pipeline.Request{}, err
	}
	if !req.From.IsZero() && !req.To.IsZero() && req.From.After(req.To) {
		return pipeline.Request{}, fmt.Errorf("--from %s after --to %s: %w", f.from, f.to, domain.ErrConfiguration)
	}

	if req.Spot, err = csvfile.LoadSeries(f.spot, "spot", f.spotColumn); err != nil {
		return pipeline.Request{}, err
	}
	req.Contract = f.contract
	if f.future != "" {
		instrument := f.contract
		if instrument == "" {
			instrument = "future"
		}
		if req.Future, err = csvfile.LoadSeries(f.future, instrument, f.futureColumn); err != nil {
			return pipeline.Request{}, err
		}
	}
	return req, nil
}

// optionalDate parsea una fecha de flag; vacío devuelve el time.Time cero.
func optionalDate(name, value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	t, err := domain.ParseDate(value)
	if err != nil {
		return time.Time{}, fmt.Errorf("--%s: %v: %w", name, err, domain.ErrConfiguration)
	}
	return t, nil
}

// parsePeriod parsea "FROM:TO"; cualquiera de los dos lados puede quedar
// vacío para dejar ese extremo abierto.
func parsePeriod(value string) (from, to time.Time, err error) {
	lo, hi, ok := strings.Cut(value, ":")
	if !ok {
		return time.Time{}, time.Time{}, fmt.Errorf("--period %q: want FROM:TO: %w", value, domain.ErrConfiguration)
	}
	if from, err = optionalDate("period", strings.TrimSpace(lo)); err != nil {
		return time.Time{}, time.Time{}, err
	}
	if to, err = optionalDate("period", strings.TrimSpace(hi)); err != nil {
		return time.Time{}, time.Time{}, err
	}
	return from, to, nil
}
