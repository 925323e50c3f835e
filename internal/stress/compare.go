package stress

import (
	"fmt"
	"math"
	"time"

	"github.com/alejandrodnm/hedgelab/internal/backtest"
	"github.com/alejandrodnm/hedgelab/internal/domain"
)

// MinPartitionRows es el mínimo de filas dentro y fuera del estrés para
// que la varianza de cada parte esté definida.
const MinPartitionRows = 2

// Compare calcula la efectividad de la cobertura en las filas del ledger que
// caen dentro de la unión de periodos y en el resto.
func Compare(ledger domain.Ledger, periods []domain.StressPeriod) (domain.StressReport, error) {
	inside, outside := partition(ledger, periods)
	if inside.Len() < MinPartitionRows || outside.Len() < MinPartitionRows {
		return domain.StressReport{}, fmt.Errorf("stress.Compare: %d rows inside, %d outside: %w",
			inside.Len(), outside.Len(), domain.ErrInsufficientData)
	}

	report := describe(ledger, periods, inside, outside)
	report.EffectivenessInside = effectiveness(inside)
	report.EffectivenessOutside = effectiveness(outside)
	report.Delta = report.EffectivenessInside - report.EffectivenessOutside
	return report, nil
}

// Describe resume los periodos y las dos particiones sin exigir un mínimo de
// filas. La efectividad y Delta quedan en NaN.
func Describe(ledger domain.Ledger, periods []domain.StressPeriod) domain.StressReport {
	inside, outside := partition(ledger, periods)
	return describe(ledger, periods, inside, outside)
}

func describe(ledger domain.Ledger, periods []domain.StressPeriod, inside, outside domain.Ledger) domain.StressReport {
	report := domain.StressReport{
		Periods:              append([]domain.StressPeriod(nil), periods...),
		PeriodResults:        make([]domain.PeriodPerformance, len(periods)),
		Inside:               backtest.Performance(inside),
		Outside:              backtest.Performance(outside),
		EffectivenessInside:  math.NaN(),
		EffectivenessOutside: math.NaN(),
		Delta:                math.NaN(),
	}
	for i, p := range periods {
		sub := ledger.Select(func(_ int, r domain.LedgerRow) bool { return p.Contains(r.Date) })
		report.PeriodResults[i] = backtest.Performance(sub)
	}
	return report
}

// partition separa las filas dentro de la unión de periodos del resto.
func partition(ledger domain.Ledger, periods []domain.StressPeriod) (inside, outside domain.Ledger) {
	inStress := func(_ int, r domain.LedgerRow) bool {
		for _, p := range periods {
			if p.Contains(r.Date) {
				return true
			}
		}
		return false
	}
	inside = ledger.Select(inStress)
	outside = ledger.Select(func(i int, r domain.LedgerRow) bool { return !inStress(i, r) })
	return inside, outside
}

// Custom usa el intervalo [start, end] como único periodo de estrés.
func Custom(ledger domain.Ledger, start, end time.Time) (domain.StressReport, error) {
	start, end = domain.Day(start), domain.Day(end)
	if start.After(end) {
		return domain.StressReport{}, fmt.Errorf("stress.Custom: %s after %s: %w",
			start.Format(domain.DateLayout), end.Format(domain.DateLayout), domain.ErrConfiguration)
	}

	period := domain.StressPeriod{
		Start:           start,
		End:             end,
		Kind:            domain.StressCustom,
		TriggerReason:   fmt.Sprintf("custom range %s to %s", start.Format(domain.DateLayout), end.Format(domain.DateLayout)),
		PriceChangePct:  math.NaN(),
		FutureChangePct: math.NaN(),
		MaxDailyMovePct: math.NaN(),
		VolatilityPct:   math.NaN(),
		StartIndex:      -1,
		EndIndex:        -1,
	}
	for i, r := range ledger.Rows {
		if !period.Contains(r.Date) {
			continue
		}
		if period.StartIndex < 0 {
			period.StartIndex = i
		}
		period.EndIndex = i
		period.Days++
	}

	report, err := Compare(ledger, []domain.StressPeriod{period})
	if err != nil {
		return domain.StressReport{}, fmt.Errorf("stress.Custom: %w", err)
	}
	report.Custom = true
	return report, nil
}

// ComparePanel compara sobre un ledger unitario de inventario. La
// efectividad no depende de la cantidad ni de la dirección.
func ComparePanel(panel domain.Panel, ratio float64, periods []domain.StressPeriod) (domain.StressReport, error) {
	ledger, err := backtest.Run(panel, ratio, 1, domain.DirectionInventory)
	if err != nil {
		return domain.StressReport{}, fmt.Errorf("stress.ComparePanel: %w", err)
	}
	return Compare(ledger, periods)
}

func effectiveness(l domain.Ledger) float64 {
	return domain.Effectiveness(domain.Variance(l.HedgedPnL()), domain.Variance(l.UnhedgedPnL()))
}
