package hedge

import (
	"fmt"
	"math"

	"github.com/shopspring/decimal"

	"github.com/alejandrodnm/hedgelab/internal/domain"
)

// Sensitivity recalcula la varianza de la posición cubierta, Var(ds - r·df),
// para cada multiplicador de la rejilla aplicado a baseRatio. La varianza es
// cuadrática en r, así que con baseRatio = ratio de mínima varianza la curva
// baja y luego sube alrededor del multiplicador 1.
func Sensitivity(panel domain.Panel, baseRatio float64, grid domain.SensitivityGrid) (domain.SensitivityCurve, error) {
	if grid.Steps < 1 || grid.MaxMultiplier < grid.MinMultiplier {
		return domain.SensitivityCurve{}, fmt.Errorf("hedge.Sensitivity: grid %+v: %w", grid, domain.ErrConfiguration)
	}
	if math.IsNaN(baseRatio) || math.IsInf(baseRatio, 0) {
		return domain.SensitivityCurve{}, fmt.Errorf("hedge.Sensitivity: base ratio %v: %w", baseRatio, domain.ErrConfiguration)
	}
	if panel.Len() < 2 {
		return domain.SensitivityCurve{}, fmt.Errorf("hedge.Sensitivity: %d rows: %w", panel.Len(), domain.ErrInsufficientData)
	}

	ds, df := panel.SpotChanges(), panel.FutureChanges()
	unhedgedVar := domain.Variance(ds)
	unhedgedStd := math.Sqrt(unhedgedVar)

	curve := domain.SensitivityCurve{BaseRatio: baseRatio}
	hedged := make([]float64, len(ds))
	for _, m := range grid.Multipliers() {
		r := baseRatio * m
		for i := range ds {
			hedged[i] = ds[i] - r*df[i]
		}
		v := domain.Variance(hedged)
		sd := math.Sqrt(v)

		dev := math.NaN()
		if baseRatio != 0 {
			dev = (r - baseRatio) / baseRatio * 100
		}
		curve.Points = append(curve.Points, domain.SensitivityPoint{
			Multiplier:    m,
			Ratio:         r,
			Variance:      v,
			Volatility:    sd,
			Effectiveness: domain.Effectiveness(v, unhedgedVar),
			RiskReduction: domain.RiskReduction(sd, unhedgedStd),
			DeviationPct:  dev,
		})
	}
	return curve, nil
}

// Effectiveness mide la reducción de varianza de un ratio dado sobre el
// panel completo: 1 - Var(ds - r·df)/Var(ds).
func Effectiveness(panel domain.Panel, ratio float64) (float64, error) {
	if panel.Len() < 2 {
		return 0, fmt.Errorf("hedge.Effectiveness: %d rows: %w", panel.Len(), domain.ErrInsufficientData)
	}
	ds, df := panel.SpotChanges(), panel.FutureChanges()
	hedged := make([]float64, len(ds))
	for i := range ds {
		hedged[i] = ds[i] - ratio*df[i]
	}
	return domain.Effectiveness(domain.Variance(hedged), domain.Variance(ds)), nil
}

// Quantity traduce el ratio a cantidad de futuros y número de contratos.
// El redondeo de contratos es bancario (mitades al par) y se hace en
// decimal para no arrastrar error binario en cantidades como 2.5.
func Quantity(spotQuantity, ratio, contractSize float64) (domain.HedgeQuantity, error) {
	if spotQuantity <= 0 || math.IsInf(spotQuantity, 0) || math.IsNaN(spotQuantity) {
		return domain.HedgeQuantity{}, fmt.Errorf("hedge.Quantity: spot quantity %v: %w", spotQuantity, domain.ErrConfiguration)
	}
	if contractSize <= 0 || math.IsInf(contractSize, 0) || math.IsNaN(contractSize) {
		return domain.HedgeQuantity{}, fmt.Errorf("hedge.Quantity: contract size %v: %w", contractSize, domain.ErrConfiguration)
	}

	futQty := decimal.NewFromFloat(spotQuantity).Mul(decimal.NewFromFloat(ratio))
	contracts := futQty.Div(decimal.NewFromFloat(contractSize))
	rounded := contracts.RoundBank(0)
	effective := rounded.Mul(decimal.NewFromFloat(contractSize)).Div(decimal.NewFromFloat(spotQuantity))

	return domain.HedgeQuantity{
		SpotQuantity:     spotQuantity,
		Ratio:            ratio,
		FutureQuantity:   futQty.InexactFloat64(),
		ContractSize:     contractSize,
		Contracts:        contracts.InexactFloat64(),
		RoundedContracts: rounded.IntPart(),
		EffectiveRatio:   effective.InexactFloat64(),
	}, nil
}

// Assess da una recomendación sobre la razonabilidad del ratio.
func Assess(ratio float64) domain.RatioAssessment {
	abs := math.Abs(ratio)
	switch {
	case math.IsNaN(ratio):
		return domain.RatioAssessment{Acceptable: false, Advice: "hedge ratio is NaN"}
	case math.IsInf(ratio, 0):
		return domain.RatioAssessment{Acceptable: false, Advice: "hedge ratio is infinite"}
	case abs > 10:
		return domain.RatioAssessment{Acceptable: false, Advice: fmt.Sprintf("hedge ratio %.4f is too large, check the input data", ratio)}
	case abs < 0.01:
		return domain.RatioAssessment{Acceptable: true, Advice: "hedge ratio is very small, the hedge will have limited effect"}
	case abs > 5:
		return domain.RatioAssessment{Acceptable: true, Advice: "hedge ratio is large, confirm the futures contract matches the spot commodity"}
	default:
		return domain.RatioAssessment{Acceptable: true, Advice: "hedge ratio is within a reasonable range"}
	}
}
