package domain

import (
	"math"
	"time"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// PriceStats resume una columna de precios. Los precios ausentes (NaN) se
// ignoran; sin datos todo queda en NaN.
type PriceStats struct {
	Count  int
	Mean   float64
	StdDev float64 // muestral
	Min    float64
	Max    float64
	CVPct  float64 // coeficiente de variación, σ/μ en %
}

// DataSummary describe el panel alineado antes de analizarlo.
type DataSummary struct {
	Rows   int
	Start  time.Time
	End    time.Time
	Spot   PriceStats
	Future PriceStats
}

// NewPriceStats calcula media, desviación, extremos y CV de los precios.
func NewPriceStats(prices []float64) PriceStats {
	x := make([]float64, 0, len(prices))
	for _, p := range prices {
		if !math.IsNaN(p) {
			x = append(x, p)
		}
	}
	if len(x) == 0 {
		nan := math.NaN()
		return PriceStats{Mean: nan, StdDev: nan, Min: nan, Max: nan, CVPct: nan}
	}

	s := PriceStats{
		Count:  len(x),
		Mean:   stat.Mean(x, nil),
		StdDev: StdDev(x),
		Min:    floats.Min(x),
		Max:    floats.Max(x),
		CVPct:  math.NaN(),
	}
	if s.Mean != 0 {
		s.CVPct = s.StdDev / s.Mean * 100
	}
	return s
}

// Summary resume las columnas de precio del panel.
func (p Panel) Summary() DataSummary {
	spot := make([]float64, len(p.Rows))
	fut := make([]float64, len(p.Rows))
	for i, r := range p.Rows {
		spot[i], fut[i] = r.SpotPrice, r.FuturePrice
	}
	return DataSummary{
		Rows:   p.Len(),
		Start:  p.Start(),
		End:    p.End(),
		Spot:   NewPriceStats(spot),
		Future: NewPriceStats(fut),
	}
}

// Prices devuelve una copia de los precios de la serie, NaN incluidos.
func (s Series) Prices() []float64 {
	out := make([]float64, len(s.Points))
	for i, p := range s.Points {
		out[i] = p.Price
	}
	return out
}
