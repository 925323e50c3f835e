package domain

import "time"

// Analysis agrupa todas las salidas de una ejecución del pipeline.
type Analysis struct {
	ID        string
	CreatedAt time.Time
	Contract  string

	Panel       Panel
	Data        DataSummary
	Hedge       HedgeRatio
	Sensitivity SensitivityCurve
	Quantity    HedgeQuantity
	Assessment  RatioAssessment

	Ledger  Ledger
	Summary PerformanceSummary
	Rolling []RollingSummary

	Stress StressReport
}

// RunRecord es la fila persistida de un análisis (solo métricas principales).
type RunRecord struct {
	ID        string
	CreatedAt time.Time
	Contract  string
	Start     time.Time
	End       time.Time
	Periods   int

	Method    HedgeMethod
	Direction Direction
	Ratio     float64
	RSquared  float64
	Quantity  float64

	HedgeEffectiveness float64
	RiskReductionRate  float64
	VolatilityUnhedged float64
	VolatilityHedged   float64
	SharpeUnhedged     float64
	SharpeHedged       float64

	StressPeriods        int
	EffectivenessInside  float64
	EffectivenessOutside float64
}

// Record extrae el RunRecord de un análisis.
func (a Analysis) Record() RunRecord {
	return RunRecord{
		ID:                   a.ID,
		CreatedAt:            a.CreatedAt,
		Contract:             a.Contract,
		Start:                a.Panel.Start(),
		End:                  a.Panel.End(),
		Periods:              a.Panel.Len(),
		Method:               a.Hedge.Method,
		Direction:            a.Ledger.Direction,
		Ratio:                a.Ledger.Ratio,
		RSquared:             a.Hedge.RSquared,
		Quantity:             a.Ledger.SpotQuantity,
		HedgeEffectiveness:   a.Summary.HedgeEffectiveness,
		RiskReductionRate:    a.Summary.RiskReductionRate,
		VolatilityUnhedged:   a.Summary.VolatilityUnhedged,
		VolatilityHedged:     a.Summary.VolatilityHedged,
		SharpeUnhedged:       a.Summary.SharpeUnhedged,
		SharpeHedged:         a.Summary.SharpeHedged,
		StressPeriods:        len(a.Stress.Periods),
		EffectivenessInside:  a.Stress.EffectivenessInside,
		EffectivenessOutside: a.Stress.EffectivenessOutside,
	}
}
