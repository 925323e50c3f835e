package stress

import (
	"math"
	"testing"

	"github.com/alejandrodnm/hedgelab/internal/backtest"
	"github.com/alejandrodnm/hedgelab/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// pricePanel construye el panel de cambios a partir de precios; la fila i
// corresponde al precio i+1 y la fecha 2024-01-02 + i.
func pricePanel(spot, fut []float64) domain.Panel {
	start := domain.MustDate("2024-01-01")
	rows := make([]domain.PanelRow, len(spot)-1)
	for i := 1; i < len(spot); i++ {
		rows[i-1] = domain.PanelRow{
			Date:         start.AddDate(0, 0, i),
			SpotPrice:    spot[i],
			FuturePrice:  fut[i],
			SpotChange:   spot[i] - spot[i-1],
			FutureChange: fut[i] - fut[i-1],
		}
	}
	return domain.Panel{Rows: rows}
}

func halfOf(x []float64) []float64 {
	out := make([]float64, len(x))
	for i, v := range x {
		out[i] = v / 2
	}
	return out
}

func TestDetect_ScenarioC(t *testing.T) {
	spot := []float64{100, 101, 100, 100, 98.5, 97, 95.5, 94, 94, 94, 94, 94}
	panel := pricePanel(spot, halfOf(spot))

	periods, err := Detect(panel, 5, 3)
	require.NoError(t, err)
	require.Len(t, periods, 1)

	p := periods[0]
	assert.Equal(t, domain.StressDecline, p.Kind)
	assert.Equal(t, 4, p.Days)
	assert.Equal(t, 3, p.StartIndex)
	assert.Equal(t, 6, p.EndIndex)
	assert.Equal(t, panel.Rows[3].Date, p.Start)
	assert.Equal(t, panel.Rows[6].Date, p.End)
	assert.InDelta(t, -6.0, p.PriceChangePct, 1e-9)
	assert.InDelta(t, -6.0, p.FutureChangePct, 1e-9)
	assert.InDelta(t, 1.5/95.5*100, p.MaxDailyMovePct, 1e-9)
	assert.NotEmpty(t, p.TriggerReason)
}

func TestDetect_BelowThresholdOrTooShort(t *testing.T) {
	spot := []float64{100, 98.5, 97, 95.5, 94, 94}
	panel := pricePanel(spot, halfOf(spot))

	periods, err := Detect(panel, 7, 3) // -6% no supera 7%
	require.NoError(t, err)
	assert.Empty(t, periods)

	periods, err = Detect(panel, 5, 5) // 4 días < 5
	require.NoError(t, err)
	assert.Empty(t, periods)
}

func TestDetect_MergesTouchingRuns(t *testing.T) {
	spot := []float64{100, 94, 88, 95, 101, 101, 101}
	panel := pricePanel(spot, halfOf(spot))

	periods, err := Detect(panel, 5, 2)
	require.NoError(t, err)
	require.Len(t, periods, 1)

	p := periods[0]
	assert.Equal(t, domain.StressVolatile, p.Kind)
	assert.Equal(t, 4, p.Days)
	assert.Equal(t, 0, p.StartIndex)
	assert.Equal(t, 3, p.EndIndex)
	assert.InDelta(t, 1.0, p.PriceChangePct, 1e-9) // 100 → 101 neto
}

func TestDetect_SeparatedRunsStaySeparate(t *testing.T) {
	spot := []float64{100, 94, 88, 88, 95, 101, 101}
	panel := pricePanel(spot, halfOf(spot))

	periods, err := Detect(panel, 5, 2)
	require.NoError(t, err)
	require.Len(t, periods, 2)
	assert.Equal(t, domain.StressDecline, periods[0].Kind)
	assert.Equal(t, domain.StressRally, periods[1].Kind)
	assert.True(t, periods[0].End.Before(periods[1].Start))
}

func TestDetect_Deterministic(t *testing.T) {
	spot := []float64{100, 94, 88, 95, 101, 90, 80, 80, 85, 92}
	panel := pricePanel(spot, halfOf(spot))

	a, err := Detect(panel, 5, 2)
	require.NoError(t, err)
	b, err := Detect(panel, 5, 2)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestDetect_ConfigurationErrors(t *testing.T) {
	panel := pricePanel([]float64{1, 2, 3}, []float64{1, 2, 3})
	_, err := Detect(panel, 0, 3)
	assert.ErrorIs(t, err, domain.ErrConfiguration)
	_, err = Detect(panel, 5, 0)
	assert.ErrorIs(t, err, domain.ErrConfiguration)
}

// stressLedger: filas 0-3 con ds = 2·df exacto (dentro), resto con ruido.
func stressLedger(t *testing.T) (domain.Ledger, []domain.StressPeriod) {
	t.Helper()
	df := []float64{1, -2, 1.5, -1, 0.5, -0.5, 1, -1, 0.5, 2}
	ds := []float64{2, -4, 3, -2, 1.6, -0.2, 1.7, -2.4, 0.1, 3.1}
	start := domain.MustDate("2024-01-01")
	rows := make([]domain.PanelRow, len(ds))
	for i := range ds {
		rows[i] = domain.PanelRow{Date: start.AddDate(0, 0, i+1), SpotChange: ds[i], FutureChange: df[i]}
	}
	ledger, err := backtest.Run(domain.Panel{Rows: rows}, 2, 1, domain.DirectionInventory)
	require.NoError(t, err)

	periods := []domain.StressPeriod{{Start: rows[0].Date, End: rows[3].Date, Kind: domain.StressDecline, Days: 4}}
	return ledger, periods
}

func TestCompare(t *testing.T) {
	ledger, periods := stressLedger(t)

	report, err := Compare(ledger, periods)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, report.EffectivenessInside, 1e-12)
	assert.Less(t, report.EffectivenessOutside, 1.0)
	assert.InDelta(t, report.EffectivenessInside-report.EffectivenessOutside, report.Delta, 1e-12)
	assert.Equal(t, domain.VerdictGood, report.Verdict())
	assert.Equal(t, 4, report.StressDays())
	assert.Equal(t, 6, report.Outside.Days)
	require.Len(t, report.PeriodResults, 1)
	assert.Equal(t, 4, report.PeriodResults[0].Days)
	assert.InDelta(t, 0.0, report.Inside.TotalHedged, 1e-12)
	assert.False(t, report.Custom)
}

func TestCompare_InsufficientPartitions(t *testing.T) {
	ledger, _ := stressLedger(t)

	all := []domain.StressPeriod{{Start: ledger.Start(), End: ledger.End()}}
	_, err := Compare(ledger, all)
	assert.ErrorIs(t, err, domain.ErrInsufficientData)

	one := []domain.StressPeriod{{Start: ledger.Start(), End: ledger.Start()}}
	_, err = Compare(ledger, one)
	assert.ErrorIs(t, err, domain.ErrInsufficientData)

	_, err = Compare(ledger, nil)
	assert.ErrorIs(t, err, domain.ErrInsufficientData)
}

func TestDescribe_FillsPeriodsWithoutEffectiveness(t *testing.T) {
	ledger, _ := stressLedger(t)
	all := []domain.StressPeriod{{Start: ledger.Start(), End: ledger.End(), Days: 10}}

	report := Describe(ledger, all)
	require.Len(t, report.PeriodResults, 1)
	assert.Equal(t, 10, report.PeriodResults[0].Days)
	assert.InDelta(t, 2.9, report.PeriodResults[0].TotalUnhedged, 1e-9)
	assert.Equal(t, 10, report.Inside.Days)
	assert.Equal(t, 0, report.Outside.Days)
	assert.True(t, math.IsNaN(report.Outside.TotalUnhedged))
	assert.True(t, math.IsNaN(report.EffectivenessInside))
	assert.True(t, math.IsNaN(report.EffectivenessOutside))
	assert.True(t, math.IsNaN(report.Delta))
	assert.Equal(t, domain.VerdictPoor, report.Verdict())
}

func TestCustom(t *testing.T) {
	ledger, _ := stressLedger(t)

	report, err := Custom(ledger, domain.MustDate("2024-01-02"), domain.MustDate("2024-01-05"))
	require.NoError(t, err)
	assert.True(t, report.Custom)
	require.Len(t, report.Periods, 1)
	p := report.Periods[0]
	assert.Equal(t, domain.StressCustom, p.Kind)
	assert.Equal(t, 4, p.Days)
	assert.Equal(t, 0, p.StartIndex)
	assert.Equal(t, 3, p.EndIndex)
	assert.True(t, math.IsNaN(p.PriceChangePct))
	assert.InDelta(t, 1.0, report.EffectivenessInside, 1e-12)

	_, err = Custom(ledger, domain.MustDate("2024-01-05"), domain.MustDate("2024-01-02"))
	assert.ErrorIs(t, err, domain.ErrConfiguration)
}

func TestComparePanel_InvariantToQuantityAndDirection(t *testing.T) {
	spot := []float64{100, 101, 99, 100.5, 98.5, 97, 95.5, 94, 94.5, 93.8, 95, 96.2}
	fut := []float64{50, 50.4, 49.6, 50.1, 49.3, 48.6, 47.9, 47.2, 47.3, 47.1, 47.6, 48.2}
	panel := pricePanel(spot, fut)
	periods := []domain.StressPeriod{{Start: panel.Rows[3].Date, End: panel.Rows[6].Date}}

	fromPanel, err := ComparePanel(panel, 1.8, periods)
	require.NoError(t, err)

	ledger, err := backtest.Run(panel, 1.8, 250, domain.DirectionProcurement)
	require.NoError(t, err)
	fromLedger, err := Compare(ledger, periods)
	require.NoError(t, err)

	assert.InDelta(t, fromPanel.EffectivenessInside, fromLedger.EffectivenessInside, 1e-9)
	assert.InDelta(t, fromPanel.EffectivenessOutside, fromLedger.EffectivenessOutside, 1e-9)
}
