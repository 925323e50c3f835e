// Package hedge estima el ratio de cobertura óptimo y sus diagnósticos.
package hedge

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/alejandrodnm/hedgelab/internal/domain"
)

// Estimate calcula el ratio de cobertura sobre las últimas `window` filas del
// panel (0 = panel completo; una ventana mayor que el panel usa el panel
// completo).
//
// Los tres estimadores salen de la misma ventana:
//
//	min varianza:  h = Cov(ds, df) / Var(df)
//	OLS:           pendiente de ds = a + h·df
//	correlación:   h = ρ · σs / σf
//
// Falla con ErrDegenerateVariance si Var(df) es prácticamente cero.
func Estimate(panel domain.Panel, method domain.HedgeMethod, window int) (domain.HedgeRatio, error) {
	if !method.Valid() {
		return domain.HedgeRatio{}, fmt.Errorf("hedge.Estimate: method %v: %w", method, domain.ErrConfiguration)
	}
	if window < 0 || window == 1 {
		return domain.HedgeRatio{}, fmt.Errorf("hedge.Estimate: window %d must be 0 or >= 2: %w",
			window, domain.ErrConfiguration)
	}
	if panel.Len() < 2 {
		return domain.HedgeRatio{}, fmt.Errorf("hedge.Estimate: %d rows: %w",
			panel.Len(), domain.ErrInsufficientData)
	}

	data := panel.Tail(window)
	ds, df := data.SpotChanges(), data.FutureChanges()
	n := float64(len(ds))

	varF := stat.Variance(df, nil)
	if varF < domain.DegenerateVarianceEpsilon {
		return domain.HedgeRatio{}, fmt.Errorf("hedge.Estimate: futures change variance %g: %w",
			varF, domain.ErrDegenerateVariance)
	}
	varS := stat.Variance(ds, nil)
	cov := stat.Covariance(ds, df, nil)
	sdS, sdF := math.Sqrt(varS), math.Sqrt(varF)

	res := domain.HedgeRatio{
		Method:           method,
		SpotVolatility:   sdS,
		FutureVolatility: sdF,
		Observations:     len(ds),
		Window:           window,
	}

	// min varianza
	res.MinVarianceRatio = cov / varF

	// OLS con intercepto: y = spot, x = futuro
	alpha, beta := stat.LinearRegression(df, ds, nil, false)
	res.OLSRatio = beta
	res.Intercept = alpha

	// correlación ajustada; con σs = 0 la covarianza es 0 y el ratio también,
	// pero correlación y R² no están definidos
	if sdS > 0 {
		res.Correlation = cov / (sdS * sdF)
		res.CorrelationRatio = res.Correlation * (sdS / sdF)
		res.RSquared = stat.RSquared(df, ds, nil, alpha, beta)
	} else {
		res.Correlation = math.NaN()
		res.RSquared = math.NaN()
	}

	res.AdjRSquared, res.FStatistic, res.FPValue, res.SlopeStdErr = fitDiagnostics(res.RSquared, varS, varF, n)

	switch method {
	case domain.MethodOLS:
		res.Ratio = res.OLSRatio
	case domain.MethodCorrelationAdjusted:
		res.Ratio = res.CorrelationRatio
	default:
		res.Ratio = res.MinVarianceRatio
	}

	if math.IsNaN(res.Ratio) || math.IsInf(res.Ratio, 0) {
		return domain.HedgeRatio{}, fmt.Errorf("hedge.Estimate: non-finite ratio: %w", domain.ErrDegenerateVariance)
	}
	return res, nil
}

// fitDiagnostics deriva R² ajustado, el estadístico F de la regresión simple
// con su p-valor F(1, n-2) y el error estándar de la pendiente.
// Con n = 2 no hay grados de libertad residuales y todo queda en NaN.
func fitDiagnostics(r2, varS, varF, n float64) (adjR2, f, pValue, slopeSE float64) {
	dfResid := n - 2
	if dfResid <= 0 || varS == 0 {
		return math.NaN(), math.NaN(), math.NaN(), math.NaN()
	}
	adjR2 = 1 - (1-r2)*(n-1)/dfResid

	// SSR = (1-R²)·SST, SST = (n-1)·Var(ds); Sxx = (n-1)·Var(df)
	ssr := (1 - r2) * (n - 1) * varS
	if ssr <= 0 {
		// ajuste perfecto
		return adjR2, math.Inf(1), 0, 0
	}
	f = r2 / (1 - r2) * dfResid
	pValue = 1 - distuv.F{D1: 1, D2: dfResid}.CDF(f)
	slopeSE = math.Sqrt(ssr / dfResid / ((n - 1) * varF))
	return adjR2, f, pValue, slopeSE
}
