package backtest

import (
	"fmt"
	"math"
	"time"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/alejandrodnm/hedgelab/internal/domain"
)

// Summarize calcula las métricas de riesgo del ledger completo.
func Summarize(ledger domain.Ledger, opts domain.SummaryOptions) (domain.PerformanceSummary, error) {
	if !finite(opts.AnnualizationFactor) || opts.AnnualizationFactor <= 0 {
		return domain.PerformanceSummary{}, fmt.Errorf("backtest.Summarize: annualization factor %v: %w",
			opts.AnnualizationFactor, domain.ErrConfiguration)
	}
	if ledger.Len() < 2 {
		return domain.PerformanceSummary{}, fmt.Errorf("backtest.Summarize: %d rows: %w",
			ledger.Len(), domain.ErrInsufficientData)
	}
	return summarize(ledger, opts), nil
}

func summarize(ledger domain.Ledger, opts domain.SummaryOptions) domain.PerformanceSummary {
	u, h := ledger.UnhedgedPnL(), ledger.HedgedPnL()
	cumU, cumH := cumulative(ledger)

	varU, varH := domain.Variance(u), domain.Variance(h)
	sdU, sdH := math.Sqrt(varU), math.Sqrt(varH)

	return domain.PerformanceSummary{
		Start:   ledger.Start(),
		End:     ledger.End(),
		Periods: ledger.Len(),

		TotalUnhedged: floats.Sum(u),
		TotalHedged:   floats.Sum(h),
		MeanUnhedged:  stat.Mean(u, nil),
		MeanHedged:    stat.Mean(h, nil),

		VolatilityUnhedged:  sdU,
		VolatilityHedged:    sdH,
		MaxDrawdownUnhedged: domain.MaxDrawdown(cumU),
		MaxDrawdownHedged:   domain.MaxDrawdown(cumH),
		SharpeUnhedged:      domain.Sharpe(u, opts.AnnualizationFactor),
		SharpeHedged:        domain.Sharpe(h, opts.AnnualizationFactor),
		VaR95Unhedged:       domain.VaR95(u),
		VaR95Hedged:         domain.VaR95(h),

		WinRateUnhedged:  domain.WinRate(u),
		WinRateHedged:    domain.WinRate(h),
		BestDayUnhedged:  floats.Max(u),
		WorstDayUnhedged: floats.Min(u),
		BestDayHedged:    floats.Max(h),
		WorstDayHedged:   floats.Min(h),

		HedgeEffectiveness: domain.Effectiveness(varH, varU),
		RiskReductionRate:  domain.RiskReduction(sdH, sdU),
	}
}

// Rolling calcula un resumen por cada ventana de `window` filas que termina
// en cada periodo disponible (n − window + 1 entradas). La curva acumulada
// de cada ventana se recalcula desde cero.
func Rolling(ledger domain.Ledger, window int, opts domain.SummaryOptions) ([]domain.RollingSummary, error) {
	if window < 2 {
		return nil, fmt.Errorf("backtest.Rolling: window %d: %w", window, domain.ErrConfiguration)
	}
	if !finite(opts.AnnualizationFactor) || opts.AnnualizationFactor <= 0 {
		return nil, fmt.Errorf("backtest.Rolling: annualization factor %v: %w",
			opts.AnnualizationFactor, domain.ErrConfiguration)
	}
	if ledger.Len() < window {
		return nil, fmt.Errorf("backtest.Rolling: %d rows for window %d: %w",
			ledger.Len(), window, domain.ErrInsufficientData)
	}

	out := make([]domain.RollingSummary, 0, ledger.Len()-window+1)
	for end := window; end <= ledger.Len(); end++ {
		w := ledger.Window(end-window, end)
		ds, df := changes(w)
		out = append(out, domain.RollingSummary{
			Date:        w.End(),
			Correlation: domain.Correlation(ds, df),
			Summary:     summarize(w, opts),
		})
	}
	return out, nil
}

// Period devuelve las métricas de las filas con fecha en [from, to].
// Un from o to cero deja ese extremo abierto.
func Period(ledger domain.Ledger, from, to time.Time) (domain.PeriodPerformance, error) {
	if !from.IsZero() && !to.IsZero() && from.After(to) {
		return domain.PeriodPerformance{}, fmt.Errorf("backtest.Period: %s after %s: %w",
			from.Format(domain.DateLayout), to.Format(domain.DateLayout), domain.ErrConfiguration)
	}
	sub := ledger.Select(func(_ int, r domain.LedgerRow) bool {
		return (from.IsZero() || !r.Date.Before(from)) && (to.IsZero() || !r.Date.After(to))
	})
	if sub.Len() == 0 {
		return domain.PeriodPerformance{}, fmt.Errorf("backtest.Period: no rows in range: %w", domain.ErrInsufficientData)
	}
	return Performance(sub), nil
}

// Performance resume un subconjunto ya seleccionado del ledger. Con una
// sola fila la volatilidad queda en NaN; sin filas todas las métricas.
func Performance(ledger domain.Ledger) domain.PeriodPerformance {
	if ledger.Len() == 0 {
		nan := math.NaN()
		return domain.PeriodPerformance{
			TotalUnhedged: nan, TotalHedged: nan,
			VolatilityUnhedged: nan, VolatilityHedged: nan,
			WorstDayUnhedged: nan, WorstDayHedged: nan,
			VaR95Unhedged: nan, VaR95Hedged: nan,
			MaxDrawdownUnhedged: nan, MaxDrawdownHedged: nan,
			HedgeAdvantage: nan, RiskReductionRate: nan,
		}
	}
	u, h := ledger.UnhedgedPnL(), ledger.HedgedPnL()
	cumU, cumH := cumulative(ledger)
	sdU, sdH := domain.StdDev(u), domain.StdDev(h)
	totU, totH := floats.Sum(u), floats.Sum(h)

	return domain.PeriodPerformance{
		Start: ledger.Start(),
		End:   ledger.End(),
		Days:  ledger.Len(),

		TotalUnhedged:       totU,
		TotalHedged:         totH,
		VolatilityUnhedged:  sdU,
		VolatilityHedged:    sdH,
		WorstDayUnhedged:    floats.Min(u),
		WorstDayHedged:      floats.Min(h),
		VaR95Unhedged:       domain.VaR95(u),
		VaR95Hedged:         domain.VaR95(h),
		MaxDrawdownUnhedged: domain.MaxDrawdown(cumU),
		MaxDrawdownHedged:   domain.MaxDrawdown(cumH),

		HedgeAdvantage:    totH - totU,
		RiskReductionRate: domain.RiskReduction(sdH, sdU),
	}
}

func cumulative(l domain.Ledger) (unhedged, hedged []float64) {
	unhedged = make([]float64, l.Len())
	hedged = make([]float64, l.Len())
	for i, r := range l.Rows {
		unhedged[i] = r.CumulativeUnhedged
		hedged[i] = r.CumulativeHedged
	}
	return unhedged, hedged
}

func changes(l domain.Ledger) (ds, df []float64) {
	ds = make([]float64, l.Len())
	df = make([]float64, l.Len())
	for i, r := range l.Rows {
		ds[i] = r.SpotChange
		df[i] = r.FutureChange
	}
	return ds, df
}
