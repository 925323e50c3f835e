package domain

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// Fórmulas estadísticas compartidas por hedge, backtest y stress.
// Todas usan estadísticos muestrales (denominador n-1) y devuelven NaN
// cuando no hay datos suficientes.

// Variance devuelve la varianza muestral.
func Variance(x []float64) float64 {
	if len(x) < 2 {
		return math.NaN()
	}
	return stat.Variance(x, nil)
}

// StdDev devuelve la desviación típica muestral.
func StdDev(x []float64) float64 {
	if len(x) < 2 {
		return math.NaN()
	}
	return stat.StdDev(x, nil)
}

// Sharpe devuelve mean/std × √annualization; NaN si std es cero.
func Sharpe(x []float64, annualization float64) float64 {
	sd := StdDev(x)
	if math.IsNaN(sd) || sd == 0 {
		return math.NaN()
	}
	return stat.Mean(x, nil) / sd * math.Sqrt(annualization)
}

// Percentile devuelve el percentil p (0-100) con interpolación lineal entre
// rangos adyacentes, la misma definición que numpy.percentile por defecto.
func Percentile(x []float64, p float64) float64 {
	if len(x) == 0 {
		return math.NaN()
	}
	sorted := make([]float64, len(x))
	copy(sorted, x)
	sort.Float64s(sorted)

	h := (float64(len(sorted)) - 1) * p / 100
	lo := math.Floor(h)
	i := int(lo)
	if i >= len(sorted)-1 {
		return sorted[len(sorted)-1]
	}
	return sorted[i] + (h-lo)*(sorted[i+1]-sorted[i])
}

// VaR95 es el VaR histórico al 95%: el percentil 5 del P&L por periodo.
func VaR95(pnl []float64) float64 {
	return Percentile(pnl, 5)
}

// MaxDrawdown devuelve la mayor caída pico-valle de una curva acumulada.
// El pico es el máximo corrido de la propia curva, empezando por su primer
// valor.
func MaxDrawdown(cumulative []float64) float64 {
	if len(cumulative) == 0 {
		return 0
	}
	peak, worst := cumulative[0], 0.0
	for _, v := range cumulative {
		peak = math.Max(peak, v)
		worst = math.Max(worst, peak-v)
	}
	return worst
}

// WinRate devuelve la fracción de valores estrictamente positivos.
func WinRate(x []float64) float64 {
	if len(x) == 0 {
		return math.NaN()
	}
	wins := 0
	for _, v := range x {
		if v > 0 {
			wins++
		}
	}
	return float64(wins) / float64(len(x))
}

// Correlation devuelve la correlación de Pearson; NaN si alguna serie es constante.
func Correlation(x, y []float64) float64 {
	if len(x) < 2 {
		return math.NaN()
	}
	sx, sy := stat.StdDev(x, nil), stat.StdDev(y, nil)
	if sx == 0 || sy == 0 {
		return math.NaN()
	}
	return stat.Correlation(x, y, nil)
}
