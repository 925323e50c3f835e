package csvfile

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"

	"github.com/alejandrodnm/hedgelab/internal/domain"
)

// Exporter escribe cada tabla del análisis en un CSV dentro de Dir.
type Exporter struct {
	Dir string
}

// NewExporter crea el directorio si no existe.
func NewExporter(dir string) (*Exporter, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("csvfile.NewExporter: %w", err)
	}
	return &Exporter{Dir: dir}, nil
}

// Export escribe panel, ledger, rolling, sensitivity y stress. Devuelve las
// rutas escritas.
func (e *Exporter) Export(a domain.Analysis) ([]string, error) {
	files := []struct {
		name  string
		write func(io.Writer) error
	}{
		{"panel.csv", func(w io.Writer) error { return WritePanel(w, a.Panel) }},
		{"ledger.csv", func(w io.Writer) error { return WriteLedger(w, a.Ledger) }},
		{"rolling.csv", func(w io.Writer) error { return WriteRolling(w, a.Rolling) }},
		{"sensitivity.csv", func(w io.Writer) error { return WriteSensitivity(w, a.Sensitivity) }},
		{"stress.csv", func(w io.Writer) error { return WriteStress(w, a.Stress) }},
	}

	var paths []string
	for _, f := range files {
		path := filepath.Join(e.Dir, f.name)
		if err := writeFile(path, f.write); err != nil {
			return paths, fmt.Errorf("csvfile.Export: %s: %w", f.name, err)
		}
		paths = append(paths, path)
	}
	return paths, nil
}

func writeFile(path string, write func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// WriteSeries escribe una serie con cabecera date,<priceColumn>; el
// resultado se puede volver a leer con ReadSeries.
func WriteSeries(w io.Writer, s domain.Series, priceColumn string) error {
	rows := [][]string{{DateColumn, priceColumn}}
	for _, p := range s.Points {
		rows = append(rows, []string{p.Date.Format(domain.DateLayout), num(p.Price)})
	}
	return writeAll(w, rows)
}

// SaveSeries escribe la serie en path.
func SaveSeries(path string, s domain.Series, priceColumn string) error {
	if err := writeFile(path, func(w io.Writer) error { return WriteSeries(w, s, priceColumn) }); err != nil {
		return fmt.Errorf("csvfile.SaveSeries: %w", err)
	}
	return nil
}

// WritePanel escribe el panel alineado.
func WritePanel(w io.Writer, p domain.Panel) error {
	rows := [][]string{{"date", "spot_price", "future_price", "spot_change", "future_change"}}
	for _, r := range p.Rows {
		rows = append(rows, []string{
			r.Date.Format(domain.DateLayout), num(r.SpotPrice), num(r.FuturePrice),
			num(r.SpotChange), num(r.FutureChange),
		})
	}
	return writeAll(w, rows)
}

// WriteLedger escribe el P&L por periodo.
func WriteLedger(w io.Writer, l domain.Ledger) error {
	rows := [][]string{{
		"date", "spot_change", "future_change", "spot_pnl", "future_pnl",
		"unhedged_pnl", "hedged_pnl", "cumulative_unhedged", "cumulative_hedged",
	}}
	for _, r := range l.Rows {
		rows = append(rows, []string{
			r.Date.Format(domain.DateLayout), num(r.SpotChange), num(r.FutureChange),
			num(r.SpotPnL), num(r.FuturePnL), num(r.UnhedgedPnL), num(r.HedgedPnL),
			num(r.CumulativeUnhedged), num(r.CumulativeHedged),
		})
	}
	return writeAll(w, rows)
}

// WriteRolling escribe las métricas de ventana móvil.
func WriteRolling(w io.Writer, rolling []domain.RollingSummary) error {
	rows := [][]string{{
		"date", "correlation", "volatility_unhedged", "volatility_hedged",
		"sharpe_unhedged", "sharpe_hedged", "max_drawdown_unhedged", "max_drawdown_hedged",
		"hedge_effectiveness", "risk_reduction",
	}}
	for _, r := range rolling {
		s := r.Summary
		rows = append(rows, []string{
			r.Date.Format(domain.DateLayout), num(r.Correlation),
			num(s.VolatilityUnhedged), num(s.VolatilityHedged),
			num(s.SharpeUnhedged), num(s.SharpeHedged),
			num(s.MaxDrawdownUnhedged), num(s.MaxDrawdownHedged),
			num(s.HedgeEffectiveness), num(s.RiskReductionRate),
		})
	}
	return writeAll(w, rows)
}

// WriteSensitivity escribe la curva de sensibilidad del ratio.
func WriteSensitivity(w io.Writer, c domain.SensitivityCurve) error {
	rows := [][]string{{"multiplier", "ratio", "deviation_pct", "variance", "volatility", "effectiveness", "risk_reduction"}}
	for _, p := range c.Points {
		rows = append(rows, []string{
			num(p.Multiplier), num(p.Ratio), num(p.DeviationPct), num(p.Variance),
			num(p.Volatility), num(p.Effectiveness), num(p.RiskReduction),
		})
	}
	return writeAll(w, rows)
}

// WriteStress escribe un periodo por fila con su resultado.
func WriteStress(w io.Writer, r domain.StressReport) error {
	rows := [][]string{{
		"start", "end", "kind", "days", "price_change_pct", "future_change_pct",
		"max_daily_move_pct", "total_unhedged", "total_hedged", "hedge_advantage", "trigger",
	}}
	for i, p := range r.Periods {
		var perf domain.PeriodPerformance
		if i < len(r.PeriodResults) {
			perf = r.PeriodResults[i]
		}
		rows = append(rows, []string{
			p.Start.Format(domain.DateLayout), p.End.Format(domain.DateLayout), p.Kind.String(),
			strconv.Itoa(p.Days), num(p.PriceChangePct), num(p.FutureChangePct), num(p.MaxDailyMovePct),
			num(perf.TotalUnhedged), num(perf.TotalHedged), num(perf.HedgeAdvantage), p.TriggerReason,
		})
	}
	return writeAll(w, rows)
}

func writeAll(w io.Writer, rows [][]string) error {
	cw := csv.NewWriter(w)
	if err := cw.WriteAll(rows); err != nil {
		return fmt.Errorf("write csv: %w", err)
	}
	return nil
}

// num formatea con la precisión mínima exacta; NaN se escribe vacío.
func num(x float64) string {
	if math.IsNaN(x) {
		return ""
	}
	return strconv.FormatFloat(x, 'f', -1, 64)
}
