package domain

import "math"

// DegenerateVarianceEpsilon es la varianza mínima de los cambios del futuro
// por debajo de la cual el ratio de cobertura no está definido.
const DegenerateVarianceEpsilon = 1e-12

// HedgeRatio es el resultado de estimar el ratio de cobertura sobre una ventana.
//
// Los tres estimadores se calculan siempre sobre la misma ventana; Ratio es el
// del método pedido. Por la identidad de la pendiente de regresión los tres
// coinciden salvo error de redondeo.
type HedgeRatio struct {
	Method HedgeMethod
	Ratio  float64

	MinVarianceRatio float64 // Cov(ds, df) / Var(df)
	OLSRatio         float64 // pendiente de ds sobre df
	CorrelationRatio float64 // ρ × σs / σf

	// Diagnósticos de ajuste de la regresión
	RSquared    float64
	AdjRSquared float64
	FStatistic  float64 // NaN con n = 2 (sin grados de libertad residuales)
	FPValue     float64
	Intercept   float64
	SlopeStdErr float64

	Correlation      float64
	SpotVolatility   float64 // desviación típica muestral de ds
	FutureVolatility float64 // desviación típica muestral de df

	Observations int // filas usadas
	Window       int // 0 = panel completo
}

// SensitivityGrid define los multiplicadores aplicados al ratio base.
type SensitivityGrid struct {
	MinMultiplier float64
	MaxMultiplier float64
	Steps         int
}

// DefaultSensitivityGrid recorre del 0% al 200% del ratio base en pasos de 10%.
func DefaultSensitivityGrid() SensitivityGrid {
	return SensitivityGrid{MinMultiplier: 0, MaxMultiplier: 2, Steps: 21}
}

// Multipliers devuelve los puntos equiespaciados de la rejilla.
func (g SensitivityGrid) Multipliers() []float64 {
	if g.Steps == 1 {
		return []float64{g.MinMultiplier}
	}
	out := make([]float64, g.Steps)
	step := (g.MaxMultiplier - g.MinMultiplier) / float64(g.Steps-1)
	for i := range out {
		out[i] = g.MinMultiplier + float64(i)*step
	}
	out[len(out)-1] = g.MaxMultiplier
	return out
}

// SensitivityPoint es la varianza cubierta resultante de un ratio concreto.
type SensitivityPoint struct {
	Multiplier    float64
	Ratio         float64
	Variance      float64
	Volatility    float64
	Effectiveness float64
	RiskReduction float64
	DeviationPct  float64 // (ratio - base) / base × 100; NaN si base = 0
}

// SensitivityCurve es orientativa: sirve para visualizar la robustez del
// ratio, no para elegirlo.
type SensitivityCurve struct {
	BaseRatio float64
	Points    []SensitivityPoint
}

// Minimum devuelve el punto con menor varianza cubierta.
func (c SensitivityCurve) Minimum() (SensitivityPoint, bool) {
	if len(c.Points) == 0 {
		return SensitivityPoint{}, false
	}
	best := c.Points[0]
	for _, p := range c.Points[1:] {
		if p.Variance < best.Variance {
			best = p
		}
	}
	return best, true
}

// HedgeQuantity traduce el ratio a cantidad de futuros y contratos.
type HedgeQuantity struct {
	SpotQuantity     float64
	Ratio            float64
	FutureQuantity   float64
	ContractSize     float64
	Contracts        float64
	RoundedContracts int64
	EffectiveRatio   float64 // ratio real tras redondear contratos
}

// RatioAssessment es una recomendación sobre la razonabilidad de un ratio.
type RatioAssessment struct {
	Acceptable bool
	Advice     string
}

// Effectiveness calcula 1 - Var(cubierto)/Var(descubierto).
// NaN si la varianza descubierta es cero.
func Effectiveness(hedgedVar, unhedgedVar float64) float64 {
	if unhedgedVar == 0 {
		return math.NaN()
	}
	return 1 - hedgedVar/unhedgedVar
}

// RiskReduction calcula 1 - σ(cubierto)/σ(descubierto).
// NaN si la volatilidad descubierta es cero.
func RiskReduction(hedgedStd, unhedgedStd float64) float64 {
	if unhedgedStd == 0 {
		return math.NaN()
	}
	return 1 - hedgedStd/unhedgedStd
}
