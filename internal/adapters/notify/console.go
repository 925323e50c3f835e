package notify

import (
	"context"
	"fmt"
	"io"
	"math"
	"os"
	"time"

	"github.com/olekukonko/tablewriter"

	"github.com/alejandrodnm/hedgelab/internal/domain"
	"github.com/alejandrodnm/hedgelab/internal/ports"
)

// Console implementa ports.Reporter.
type Console struct {
	out     io.Writer
	compact bool
}

var _ ports.Reporter = (*Console)(nil)

// NewConsole crea un reporter que escribe a stdout.
func NewConsole(compact bool) *Console {
	return &Console{out: os.Stdout, compact: compact}
}

// NewConsoleWriter crea un reporter sobre un writer arbitrario (tests).
func NewConsoleWriter(w io.Writer, compact bool) *Console {
	return &Console{out: w, compact: compact}
}

// Report imprime el análisis en el modo configurado.
func (c *Console) Report(_ context.Context, a domain.Analysis) error {
	if c.compact {
		c.printCompact(a)
		return nil
	}

	fmt.Fprintf(c.out, "\n=== HEDGE ANALYSIS %s — %s → %s (%d periods) ===\n",
		a.Contract, day(a.Panel.Start()), day(a.Panel.End()), a.Panel.Len())
	c.printData(a)
	c.printHedge(a)
	c.printSummary(a.Summary)
	c.printSensitivity(a.Sensitivity)
	c.printStress(a.Stress)
	return nil
}

// printCompact imprime lo esencial en una línea.
func (c *Console) printCompact(a domain.Analysis) {
	fmt.Fprintf(c.out, "[%s] %s ratio %s (%s) eff %s risk↓ %s stress %d %s\n",
		time.Now().Format("15:04:05"), a.Contract,
		num(a.Hedge.Ratio, "%.4f"), a.Hedge.Method,
		pct(a.Summary.HedgeEffectiveness), pct(a.Summary.RiskReductionRate),
		len(a.Stress.Periods), stressVerdict(a.Stress))
}

// printData imprime las estadísticas de precio del panel alineado.
func (c *Console) printData(a domain.Analysis) {
	d := a.Data
	if d.Rows == 0 {
		return
	}
	table := tablewriter.NewWriter(c.out)
	table.Header("Series", "N", "Mean", "Std", "Min", "Max", "CV")
	for _, r := range []struct {
		name string
		s    domain.PriceStats
	}{
		{"spot", d.Spot},
		{a.Contract, d.Future},
	} {
		table.Append(
			r.name,
			fmt.Sprintf("%d", r.s.Count),
			num(r.s.Mean, "%.2f"),
			num(r.s.StdDev, "%.2f"),
			num(r.s.Min, "%.2f"),
			num(r.s.Max, "%.2f"),
			num(r.s.CVPct, "%.2f%%"),
		)
	}
	table.Render()
}

func (c *Console) printHedge(a domain.Analysis) {
	h := a.Hedge
	window := "full"
	if h.Window > 0 {
		window = fmt.Sprintf("%d", h.Window)
	}

	table := tablewriter.NewWriter(c.out)
	table.Header("Method", "Ratio", "R²", "Adj R²", "F", "p-value", "Corr", "σ spot", "σ fut", "N", "Window")
	table.Append(
		h.Method.String(),
		num(h.Ratio, "%.4f"),
		num(h.RSquared, "%.4f"),
		num(h.AdjRSquared, "%.4f"),
		num(h.FStatistic, "%.2f"),
		num(h.FPValue, "%.4f"),
		num(h.Correlation, "%.4f"),
		num(h.SpotVolatility, "%.4f"),
		num(h.FutureVolatility, "%.4f"),
		fmt.Sprintf("%d", h.Observations),
		window,
	)
	table.Render()

	fmt.Fprintf(c.out, "  min-var %s | ols %s | corr-adj %s | intercept %s ± slope SE %s\n",
		num(h.MinVarianceRatio, "%.4f"), num(h.OLSRatio, "%.4f"), num(h.CorrelationRatio, "%.4f"),
		num(h.Intercept, "%.4f"), num(h.SlopeStdErr, "%.4f"))

	q := a.Quantity
	if q.ContractSize > 0 {
		fmt.Fprintf(c.out, "  %s %.2f spot → %.2f futures = %.2f contracts (size %.0f) → %d contracts, effective ratio %s\n",
			a.Ledger.Direction, q.SpotQuantity, q.FutureQuantity, q.Contracts, q.ContractSize,
			q.RoundedContracts, num(q.EffectiveRatio, "%.4f"))
	}
	mark := "✓"
	if !a.Assessment.Acceptable {
		mark = "⚠"
	}
	fmt.Fprintf(c.out, "  %s %s\n", mark, a.Assessment.Advice)
}

func (c *Console) printSummary(s domain.PerformanceSummary) {
	fmt.Fprintf(c.out, "\n=== BACKTEST %s → %s ===\n", day(s.Start), day(s.End))

	table := tablewriter.NewWriter(c.out)
	table.Header("Metric", "Unhedged", "Hedged")
	rows := []struct {
		name string
		u, h float64
		f    string
	}{
		{"Total P&L", s.TotalUnhedged, s.TotalHedged, "%.2f"},
		{"Mean P&L", s.MeanUnhedged, s.MeanHedged, "%.4f"},
		{"Volatility", s.VolatilityUnhedged, s.VolatilityHedged, "%.4f"},
		{"Max drawdown", s.MaxDrawdownUnhedged, s.MaxDrawdownHedged, "%.2f"},
		{"Sharpe", s.SharpeUnhedged, s.SharpeHedged, "%.4f"},
		{"VaR 95%", s.VaR95Unhedged, s.VaR95Hedged, "%.4f"},
		{"Win rate", s.WinRateUnhedged * 100, s.WinRateHedged * 100, "%.1f%%"},
		{"Best day", s.BestDayUnhedged, s.BestDayHedged, "%.2f"},
		{"Worst day", s.WorstDayUnhedged, s.WorstDayHedged, "%.2f"},
	}
	for _, r := range rows {
		table.Append(r.name, num(r.u, r.f), num(r.h, r.f))
	}
	table.Render()

	fmt.Fprintf(c.out, "  Hedge effectiveness: %s | Risk reduction: %s\n",
		pct(s.HedgeEffectiveness), pct(s.RiskReductionRate))
}

func (c *Console) printSensitivity(curve domain.SensitivityCurve) {
	if len(curve.Points) == 0 {
		return
	}
	best, _ := curve.Minimum()

	fmt.Fprintf(c.out, "\n=== RATIO SENSITIVITY (base %s) ===\n", num(curve.BaseRatio, "%.4f"))
	table := tablewriter.NewWriter(c.out)
	table.Header("", "Ratio", "Dev", "Volatility", "Effectiveness", "Risk↓")
	for _, p := range curve.Points {
		mark := ""
		if p.Multiplier == best.Multiplier {
			mark = "*"
		}
		table.Append(
			mark,
			num(p.Ratio, "%.4f"),
			num(p.DeviationPct, "%+.0f%%"),
			num(p.Volatility, "%.4f"),
			pct(p.Effectiveness),
			pct(p.RiskReduction),
		)
	}
	table.Render()
}

func (c *Console) printStress(r domain.StressReport) {
	if len(r.Periods) == 0 {
		fmt.Fprintf(c.out, "\n  No stress periods detected\n\n")
		return
	}

	title := "STRESS PERIODS"
	if r.Custom {
		title = "CUSTOM STRESS RANGE"
	}
	fmt.Fprintf(c.out, "\n=== %s (%d, %d days) ===\n", title, len(r.Periods), r.StressDays())

	table := tablewriter.NewWriter(c.out)
	table.Header("#", "Kind", "Start", "End", "Days", "Spot Δ", "Fut Δ", "Max day", "Unhedged", "Hedged", "Advantage")
	for i, p := range r.Periods {
		perf := undefinedPerformance()
		if i < len(r.PeriodResults) {
			perf = r.PeriodResults[i]
		}
		table.Append(
			fmt.Sprintf("%d", i+1),
			p.Kind.String(),
			day(p.Start),
			day(p.End),
			fmt.Sprintf("%d", p.Days),
			num(p.PriceChangePct, "%+.2f%%"),
			num(p.FutureChangePct, "%+.2f%%"),
			num(p.MaxDailyMovePct, "%.2f%%"),
			num(perf.TotalUnhedged, "%.2f"),
			num(perf.TotalHedged, "%.2f"),
			num(perf.HedgeAdvantage, "%+.2f"),
		)
	}
	table.Render()

	fmt.Fprintf(c.out, "  Inside stress:  %d days, effectiveness %s, volatility %s → %s\n",
		r.Inside.Days, pct(r.EffectivenessInside),
		num(r.Inside.VolatilityUnhedged, "%.4f"), num(r.Inside.VolatilityHedged, "%.4f"))
	fmt.Fprintf(c.out, "  Outside stress: %d days, effectiveness %s, volatility %s → %s\n",
		r.Outside.Days, pct(r.EffectivenessOutside),
		num(r.Outside.VolatilityUnhedged, "%.4f"), num(r.Outside.VolatilityHedged, "%.4f"))
	fmt.Fprintf(c.out, "\n  VERDICT: %s (Δ effectiveness %s)\n\n", stressVerdict(r), num(r.Delta*100, "%+.1f pp"))
}

// ReportPeriod imprime el rendimiento de un intervalo del ledger.
func (c *Console) ReportPeriod(p domain.PeriodPerformance) {
	fmt.Fprintf(c.out, "\n=== PERIOD %s → %s (%d days) ===\n", day(p.Start), day(p.End), p.Days)
	table := tablewriter.NewWriter(c.out)
	table.Header("", "Unhedged", "Hedged")
	table.Append("Total P&L", num(p.TotalUnhedged, "%.2f"), num(p.TotalHedged, "%.2f"))
	table.Append("Volatility", num(p.VolatilityUnhedged, "%.4f"), num(p.VolatilityHedged, "%.4f"))
	table.Append("Worst day", num(p.WorstDayUnhedged, "%.2f"), num(p.WorstDayHedged, "%.2f"))
	table.Append("VaR 95%", num(p.VaR95Unhedged, "%.4f"), num(p.VaR95Hedged, "%.4f"))
	table.Append("Max drawdown", num(p.MaxDrawdownUnhedged, "%.2f"), num(p.MaxDrawdownHedged, "%.2f"))
	table.Render()
	fmt.Fprintf(c.out, "  Hedge advantage %s, risk reduction %s\n\n",
		num(p.HedgeAdvantage, "%+.2f"), pct(p.RiskReductionRate))
}

// ReportRuns imprime el historial de análisis.
func (c *Console) ReportRuns(runs []domain.RunRecord) {
	if len(runs) == 0 {
		fmt.Fprintln(c.out, "No analysis runs recorded")
		return
	}
	table := tablewriter.NewWriter(c.out)
	table.Header("When", "Contract", "Range", "N", "Method", "Direction", "Ratio", "Eff", "Risk↓", "Stress", "Eff in/out", "ID")
	for _, r := range runs {
		table.Append(
			r.CreatedAt.Local().Format("2006-01-02 15:04"),
			r.Contract,
			day(r.Start)+" → "+day(r.End),
			fmt.Sprintf("%d", r.Periods),
			r.Method.String(),
			r.Direction.String(),
			num(r.Ratio, "%.4f"),
			pct(r.HedgeEffectiveness),
			pct(r.RiskReductionRate),
			fmt.Sprintf("%d", r.StressPeriods),
			pct(r.EffectivenessInside)+" / "+pct(r.EffectivenessOutside),
			shortID(r.ID),
		)
	}
	table.Render()
}

// ReportScenarios imprime la comparación de ratios alternativos.
func (c *Console) ReportScenarios(results []domain.ScenarioResult) {
	if len(results) == 0 {
		return
	}
	fmt.Fprintf(c.out, "\n=== RATIO SCENARIOS (%d) ===\n", len(results))
	table := tablewriter.NewWriter(c.out)
	table.Header("Ratio", "Total hedged", "Volatility", "Max DD", "Sharpe", "VaR 95%", "Effectiveness", "Risk↓")
	for _, r := range results {
		if r.Err != nil {
			table.Append(num(r.Ratio, "%.4f"), "error: "+r.Err.Error(), "", "", "", "", "", "")
			continue
		}
		s := r.Summary
		table.Append(
			num(r.Ratio, "%.4f"),
			num(s.TotalHedged, "%.2f"),
			num(s.VolatilityHedged, "%.4f"),
			num(s.MaxDrawdownHedged, "%.2f"),
			num(s.SharpeHedged, "%.4f"),
			num(s.VaR95Hedged, "%.4f"),
			pct(s.HedgeEffectiveness),
			pct(s.RiskReductionRate),
		)
	}
	table.Render()
}

// ReportSeries imprime un resumen de una serie descargada.
func (c *Console) ReportSeries(s domain.Series) {
	if s.Len() == 0 {
		fmt.Fprintf(c.out, "%s: no quotes\n", s.Instrument)
		return
	}
	missing := 0
	for _, p := range s.Points {
		if p.Missing() {
			missing++
		}
	}
	first, last := s.Points[0], s.Points[s.Len()-1]
	st := domain.NewPriceStats(s.Prices())
	fmt.Fprintf(c.out, "%s: %d quotes %s → %s (%d missing), first %s last %s\n",
		s.Instrument, s.Len(), day(first.Date), day(last.Date), missing,
		num(first.Price, "%.2f"), num(last.Price, "%.2f"))
	fmt.Fprintf(c.out, "  mean %s std %s min %s max %s CV %s\n",
		num(st.Mean, "%.2f"), num(st.StdDev, "%.2f"), num(st.Min, "%.2f"),
		num(st.Max, "%.2f"), num(st.CVPct, "%.2f%%"))
}

// --- helpers de formato ---

func stressVerdict(r domain.StressReport) string {
	if len(r.Periods) == 0 || math.IsNaN(r.EffectivenessInside) {
		return "n/a"
	}
	return string(r.Verdict())
}

func undefinedPerformance() domain.PeriodPerformance {
	nan := math.NaN()
	return domain.PeriodPerformance{TotalUnhedged: nan, TotalHedged: nan, HedgeAdvantage: nan}
}

// num formatea un float; NaN → "-", ±Inf → "INF".
func num(x float64, format string) string {
	switch {
	case math.IsNaN(x):
		return "-"
	case math.IsInf(x, 0):
		if x < 0 {
			return "-INF"
		}
		return "INF"
	}
	return fmt.Sprintf(format, x)
}

func pct(x float64) string {
	return num(x*100, "%.1f%%")
}

func day(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Format(domain.DateLayout)
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
