package pipeline

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alejandrodnm/hedgelab/internal/backtest"
	"github.com/alejandrodnm/hedgelab/internal/domain"
)

// crashIndex es la primera fila del desplome de 5 días del spot.
const crashIndex = 60

// marketSeries genera n precios diarios: spot ≈ 1.3·futuro + ruido, con un
// desplome de cinco días a partir de crashIndex.
func marketSeries(n int) (spot, fut domain.Series) {
	start := domain.MustDate("2024-01-01")
	s, f := 200.0, 100.0
	sp := make([]domain.PricePoint, n)
	fp := make([]domain.PricePoint, n)
	for i := 0; i < n; i++ {
		if i > 0 {
			x := float64(i)
			df := math.Sin(x*0.9) * 0.8
			ds := 1.3*df + 0.3*math.Cos(x*2.1)
			if i >= crashIndex && i < crashIndex+5 {
				df, ds = -2.5, -3.5
			}
			s += ds
			f += df
		}
		d := start.AddDate(0, 0, i)
		sp[i] = domain.PricePoint{Date: d, Price: s}
		fp[i] = domain.PricePoint{Date: d, Price: f}
	}
	return domain.NewSeries("spot", sp), domain.NewSeries("CU0", fp)
}

func testConfig() Config {
	return Config{
		MissingPolicy:      domain.MissingDrop,
		Method:             domain.MethodMinVariance,
		Direction:          domain.DirectionInventory,
		SpotQuantity:       100,
		ContractSize:       5,
		StressThresholdPct: 5,
		StressMinDays:      3,
		RollingWindow:      30,
		Summary:            domain.DefaultSummaryOptions(),
		Sensitivity:        domain.DefaultSensitivityGrid(),
		Workers:            4,
	}
}

type stubProvider struct {
	series   domain.Series
	contract string
	calls    int
}

func (s *stubProvider) FetchFutures(_ context.Context, contract string, _, _ time.Time) (domain.Series, error) {
	s.calls++
	s.contract = contract
	return s.series, nil
}

type stubStore struct{ runs []domain.RunRecord }

func (s *stubStore) SaveRun(_ context.Context, r domain.RunRecord) error {
	s.runs = append(s.runs, r)
	return nil
}

func (s *stubStore) ListRuns(context.Context, int) ([]domain.RunRecord, error) { return s.runs, nil }

type stubReporter struct{ reported []domain.Analysis }

func (s *stubReporter) Report(_ context.Context, a domain.Analysis) error {
	s.reported = append(s.reported, a)
	return nil
}

func TestPipeline_Run(t *testing.T) {
	spot, fut := marketSeries(120)
	p := New(testConfig(), nil, nil, nil)

	a, err := p.Run(context.Background(), spot, fut)
	require.NoError(t, err)

	_, err = uuid.Parse(a.ID)
	assert.NoError(t, err)
	assert.Equal(t, "CU0", a.Contract)
	assert.Equal(t, 119, a.Panel.Len())
	assert.Equal(t, a.Panel.Summary(), a.Data)
	assert.Equal(t, 119, a.Data.Rows)
	assert.Greater(t, a.Data.Spot.Mean, a.Data.Future.Mean)
	assert.Equal(t, 119, a.Ledger.Len())
	assert.Equal(t, 119, a.Summary.Periods)
	assert.Len(t, a.Rolling, 119-30+1)
	assert.Len(t, a.Sensitivity.Points, 21)
	assert.InDelta(t, a.Hedge.Ratio, a.Ledger.Ratio, 1e-12)
	assert.Greater(t, a.Summary.HedgeEffectiveness, 0.5)
	assert.LessOrEqual(t, a.Summary.HedgeEffectiveness, 1.0)
	assert.True(t, a.Assessment.Acceptable)
	assert.InDelta(t, 100*a.Hedge.Ratio, a.Quantity.FutureQuantity, 1e-9)

	require.NotEmpty(t, a.Stress.Periods)
	crashDay := spot.Points[crashIndex].Date
	found := false
	for _, period := range a.Stress.Periods {
		if period.Contains(crashDay) {
			found = true
			assert.Equal(t, domain.StressDecline, period.Kind)
		}
	}
	assert.True(t, found, "crash must be detected")
	assert.Len(t, a.Stress.PeriodResults, len(a.Stress.Periods))
	assert.Equal(t, a.Ledger.Len(), a.Stress.Inside.Days+a.Stress.Outside.Days)
}

func TestPipeline_Analyze_FetchesSavesAndReports(t *testing.T) {
	spot, fut := marketSeries(90)
	provider := &stubProvider{series: fut}
	store := &stubStore{}
	reporter := &stubReporter{}
	p := New(testConfig(), provider, store, reporter)

	a, err := p.Analyze(context.Background(), Request{Spot: spot, Contract: "CU0"})
	require.NoError(t, err)

	assert.Equal(t, 1, provider.calls)
	assert.Equal(t, "CU0", provider.contract)
	require.Len(t, store.runs, 1)
	assert.Equal(t, a.ID, store.runs[0].ID)
	assert.InDelta(t, a.Hedge.Ratio, store.runs[0].Ratio, 1e-12)
	require.Len(t, reporter.reported, 1)
	assert.Equal(t, a.ID, reporter.reported[0].ID)
}

func TestPipeline_Analyze_DateRange(t *testing.T) {
	spot, fut := marketSeries(90)
	p := New(testConfig(), nil, nil, nil)

	from, to := spot.Points[10].Date, spot.Points[69].Date
	a, err := p.Analyze(context.Background(), Request{Spot: spot, Future: fut, From: from, To: to})
	require.NoError(t, err)
	assert.Equal(t, 59, a.Panel.Len())
	assert.Equal(t, spot.Points[11].Date, a.Panel.Start())
	assert.Equal(t, to, a.Panel.End())
}

func TestPipeline_Analyze_NoFuturesSource(t *testing.T) {
	spot, _ := marketSeries(40)
	p := New(testConfig(), nil, nil, nil)

	_, err := p.Analyze(context.Background(), Request{Spot: spot, Contract: "CU0"})
	assert.ErrorIs(t, err, domain.ErrConfiguration)
}

func TestPipeline_Analyze_CustomStress(t *testing.T) {
	spot, fut := marketSeries(120)
	p := New(testConfig(), nil, nil, nil)

	start, end := spot.Points[crashIndex].Date, spot.Points[crashIndex+4].Date
	a, err := p.Analyze(context.Background(), Request{Spot: spot, Future: fut, StressStart: start, StressEnd: end})
	require.NoError(t, err)
	assert.True(t, a.Stress.Custom)
	require.Len(t, a.Stress.Periods, 1)
	assert.Equal(t, domain.StressCustom, a.Stress.Periods[0].Kind)
	assert.Equal(t, 5, a.Stress.Inside.Days)
}

func TestPipeline_Run_RollingSkippedWhenTooShort(t *testing.T) {
	spot, fut := marketSeries(20)
	cfg := testConfig()
	cfg.RollingWindow = 60
	p := New(cfg, nil, nil, nil)

	a, err := p.Run(context.Background(), spot, fut)
	require.NoError(t, err)
	assert.Empty(t, a.Rolling)
}

func TestPipeline_Run_StressFallbackKeepsPeriodResults(t *testing.T) {
	// cuatro días de caída y uno de rebote: fuera del estrés queda una sola fila
	start := domain.MustDate("2024-01-01")
	sp, fp := []float64{100, 90, 80, 70, 60, 60.5}, []float64{50, 44, 41, 35, 31, 32}
	spotPts := make([]domain.PricePoint, len(sp))
	futPts := make([]domain.PricePoint, len(fp))
	for i := range sp {
		d := start.AddDate(0, 0, i)
		spotPts[i] = domain.PricePoint{Date: d, Price: sp[i]}
		futPts[i] = domain.PricePoint{Date: d, Price: fp[i]}
	}

	a, err := New(testConfig(), nil, nil, nil).Run(context.Background(),
		domain.NewSeries("spot", spotPts), domain.NewSeries("CU0", futPts))
	require.NoError(t, err)

	require.Len(t, a.Stress.Periods, 1)
	require.Len(t, a.Stress.PeriodResults, 1)
	assert.Equal(t, 4, a.Stress.PeriodResults[0].Days)
	assert.InDelta(t, -4000.0, a.Stress.PeriodResults[0].TotalUnhedged, 1e-9)
	assert.Equal(t, 4, a.Stress.StressDays())
	assert.Equal(t, 1, a.Stress.Outside.Days)
	assert.True(t, math.IsNaN(a.Stress.EffectivenessInside))
	assert.True(t, math.IsNaN(a.Stress.Delta))
}

func TestPipeline_Run_PropagatesCoreErrors(t *testing.T) {
	spot, fut := marketSeries(30)
	for i := range fut.Points {
		fut.Points[i].Price = 100 // futuro plano
	}
	p := New(testConfig(), nil, nil, nil)

	_, err := p.Run(context.Background(), spot, fut)
	assert.ErrorIs(t, err, domain.ErrDegenerateVariance)

	cfg := testConfig()
	cfg.SpotQuantity = 0
	spot, fut = marketSeries(30)
	_, err = New(cfg, nil, nil, nil).Run(context.Background(), spot, fut)
	assert.ErrorIs(t, err, domain.ErrConfiguration)
}

func TestPipeline_Scenarios(t *testing.T) {
	spot, fut := marketSeries(100)
	p := New(testConfig(), nil, nil, nil)
	a, err := p.Run(context.Background(), spot, fut)
	require.NoError(t, err)

	ratios := []float64{0, 0.5, a.Hedge.Ratio, math.NaN(), 2, 3}
	results, err := p.Scenarios(context.Background(), a.Panel, ratios)
	require.NoError(t, err)
	require.Len(t, results, len(ratios))

	for i, r := range results {
		if i == 3 {
			assert.ErrorIs(t, r.Err, domain.ErrConfiguration)
			continue
		}
		require.NoError(t, r.Err)
		assert.Equal(t, ratios[i], r.Ratio)

		ledger, err := backtest.Run(a.Panel, ratios[i], 100, domain.DirectionInventory)
		require.NoError(t, err)
		want, err := backtest.Summarize(ledger, domain.DefaultSummaryOptions())
		require.NoError(t, err)
		assert.Equal(t, want, r.Summary)
	}

	// el ratio de mínima varianza no puede perder contra los demás
	for i, r := range results {
		if r.Err == nil && i != 2 {
			assert.GreaterOrEqual(t, results[2].Summary.HedgeEffectiveness+1e-12, r.Summary.HedgeEffectiveness)
		}
	}
}

func TestPipeline_Scenarios_Canceled(t *testing.T) {
	spot, fut := marketSeries(50)
	p := New(testConfig(), nil, nil, nil)
	a, err := p.Run(context.Background(), spot, fut)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = p.Scenarios(ctx, a.Panel, []float64{1, 2})
	assert.ErrorIs(t, err, context.Canceled)
}
