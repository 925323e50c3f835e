package align

import (
	"math"
	"testing"

	"github.com/alejandrodnm/hedgelab/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func series(name string, dates []string, prices []float64) domain.Series {
	points := make([]domain.PricePoint, len(dates))
	for i, d := range dates {
		points[i] = domain.PricePoint{Date: domain.MustDate(d), Price: prices[i]}
	}
	return domain.NewSeries(name, points)
}

func TestAlign_ScenarioA(t *testing.T) {
	dates := []string{"2024-01-02", "2024-01-03", "2024-01-04"}
	spot := series("spot", dates, []float64{100, 101, 103})
	fut := series("fut", dates, []float64{50, 50.5, 51.5})

	panel, err := Align(spot, fut, domain.MissingDrop)
	require.NoError(t, err)
	require.Equal(t, 2, panel.Len())

	assert.Equal(t, []float64{1, 2}, panel.SpotChanges())
	assert.Equal(t, []float64{0.5, 1}, panel.FutureChanges())
	assert.Equal(t, domain.MustDate("2024-01-03"), panel.Start())
	assert.Equal(t, 103.0, panel.Rows[1].SpotPrice)
	assert.Equal(t, 101.0, panel.Rows[1].PrevSpotPrice())
}

func TestAlign_InnerJoinDropsUnmatchedDates(t *testing.T) {
	spot := series("spot",
		[]string{"2024-01-01", "2024-01-02", "2024-01-03", "2024-01-04", "2024-01-05"},
		[]float64{10, 11, 12, 13, 14})
	fut := series("fut",
		[]string{"2024-01-02", "2024-01-04", "2024-01-05", "2024-01-06"},
		[]float64{20, 22, 23, 24})

	panel, err := Align(spot, fut, domain.MissingDrop)
	require.NoError(t, err)

	// fechas comunes: 02, 04, 05 → 2 filas de cambios
	require.Equal(t, 2, panel.Len())
	assert.Equal(t, domain.MustDate("2024-01-04"), panel.Rows[0].Date)
	assert.Equal(t, 2.0, panel.Rows[0].SpotChange)  // 13 - 11
	assert.Equal(t, 2.0, panel.Rows[0].FutureChange) // 22 - 20

	// longitud ≤ min(len) - 1 y fechas estrictamente crecientes
	assert.LessOrEqual(t, panel.Len(), min(spot.Len(), fut.Len())-1)
	for i := 1; i < panel.Len(); i++ {
		assert.True(t, panel.Rows[i].Date.After(panel.Rows[i-1].Date))
	}
}

func TestAlign_DropMissing(t *testing.T) {
	dates := []string{"2024-01-01", "2024-01-02", "2024-01-03", "2024-01-04"}
	spot := series("spot", dates, []float64{10, math.NaN(), 12, 13})
	fut := series("fut", dates, []float64{20, 21, 22, 23})

	panel, err := Align(spot, fut, domain.MissingDrop)
	require.NoError(t, err)
	require.Equal(t, 2, panel.Len())
	assert.Equal(t, 2.0, panel.Rows[0].SpotChange) // 12 - 10, fila del día 2 eliminada
	assert.Equal(t, 2.0, panel.Rows[0].FutureChange)
}

func TestAlign_InterpolateByDateDistance(t *testing.T) {
	// hueco el día 2; vecinos el 1 (10) y el 4 (16) → 10 + (1/3)*6 = 12
	dates := []string{"2024-01-01", "2024-01-02", "2024-01-04", "2024-01-05"}
	spot := series("spot", dates, []float64{10, math.NaN(), 16, 17})
	fut := series("fut", dates, []float64{20, 21, 22, 23})

	panel, err := Align(spot, fut, domain.MissingInterpolate)
	require.NoError(t, err)
	require.Equal(t, 3, panel.Len())
	assert.InDelta(t, 12.0, panel.Rows[0].SpotPrice, 1e-9)
	assert.InDelta(t, 2.0, panel.Rows[0].SpotChange, 1e-9)
	assert.InDelta(t, 4.0, panel.Rows[1].SpotChange, 1e-9)
}

func TestAlign_InterpolateBoundaryGapFails(t *testing.T) {
	dates := []string{"2024-01-01", "2024-01-02", "2024-01-03"}
	spot := series("spot", dates, []float64{10, 11, math.NaN()})
	fut := series("fut", dates, []float64{20, 21, 22})

	_, err := Align(spot, fut, domain.MissingInterpolate)
	assert.ErrorIs(t, err, domain.ErrValidation)

	spot = series("spot", dates, []float64{10, 11, 12})
	fut = series("fut", dates, []float64{math.NaN(), 21, 22})
	_, err = Align(spot, fut, domain.MissingInterpolate)
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestAlign_InsufficientData(t *testing.T) {
	spot := series("spot", []string{"2024-01-01", "2024-01-02"}, []float64{1, 2})
	fut := series("fut", []string{"2024-01-01", "2024-01-02"}, []float64{1, 2})

	_, err := Align(spot, fut, domain.MissingDrop)
	assert.ErrorIs(t, err, domain.ErrInsufficientData)

	fut = series("fut", []string{"2024-02-01", "2024-02-02"}, []float64{1, 2})
	_, err = Align(spot, fut, domain.MissingDrop)
	assert.ErrorIs(t, err, domain.ErrInsufficientData)
}

func TestAlign_RejectsUnsortedInput(t *testing.T) {
	spot := domain.Series{Instrument: "spot", Points: []domain.PricePoint{
		{Date: domain.MustDate("2024-01-03"), Price: 1},
		{Date: domain.MustDate("2024-01-02"), Price: 2},
	}}
	fut := series("fut", []string{"2024-01-02", "2024-01-03"}, []float64{1, 2})

	_, err := Align(spot, fut, domain.MissingDrop)
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestAlign_UnknownPolicy(t *testing.T) {
	_, err := Align(domain.Series{}, domain.Series{}, domain.MissingPolicy(9))
	assert.ErrorIs(t, err, domain.ErrConfiguration)
}

func TestAlign_DoesNotMutateInputs(t *testing.T) {
	dates := []string{"2024-01-01", "2024-01-02", "2024-01-04", "2024-01-05"}
	spot := series("spot", dates, []float64{10, math.NaN(), 16, 17})
	fut := series("fut", dates, []float64{20, 21, 22, 23})

	_, err := Align(spot, fut, domain.MissingInterpolate)
	require.NoError(t, err)
	assert.True(t, spot.Points[1].Missing())
}
