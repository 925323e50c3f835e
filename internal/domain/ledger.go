package domain

import "time"

// LedgerRow es el P&L de un periodo, cubierto y descubierto lado a lado.
type LedgerRow struct {
	Date         time.Time
	SpotChange   float64
	FutureChange float64

	SpotPnL     float64 // P&L de la pata spot
	FuturePnL   float64 // P&L de la pata futuro
	UnhedgedPnL float64 // contrafactual sin cobertura (= SpotPnL)
	HedgedPnL   float64 // SpotPnL + FuturePnL

	CumulativeUnhedged float64
	CumulativeHedged   float64
}

// Ledger es el resultado inmutable de un backtest. Las filas siguen el
// orden del panel y los acumulados son sumas corridas desde cero.
type Ledger struct {
	Ratio          float64
	SpotQuantity   float64
	FutureQuantity float64
	Direction      Direction
	Rows           []LedgerRow
}

// Len devuelve el número de periodos.
func (l Ledger) Len() int {
	return len(l.Rows)
}

// Start devuelve la fecha del primer periodo.
func (l Ledger) Start() time.Time {
	if len(l.Rows) == 0 {
		return time.Time{}
	}
	return l.Rows[0].Date
}

// End devuelve la fecha del último periodo.
func (l Ledger) End() time.Time {
	if len(l.Rows) == 0 {
		return time.Time{}
	}
	return l.Rows[len(l.Rows)-1].Date
}

// HedgedPnL devuelve una copia de la columna de P&L cubierto.
func (l Ledger) HedgedPnL() []float64 {
	out := make([]float64, len(l.Rows))
	for i, r := range l.Rows {
		out[i] = r.HedgedPnL
	}
	return out
}

// UnhedgedPnL devuelve una copia de la columna de P&L descubierto.
func (l Ledger) UnhedgedPnL() []float64 {
	out := make([]float64, len(l.Rows))
	for i, r := range l.Rows {
		out[i] = r.UnhedgedPnL
	}
	return out
}

// Window devuelve un ledger nuevo con las filas [from, to) y los acumulados
// recalculados desde cero.
func (l Ledger) Window(from, to int) Ledger {
	out := l
	out.Rows = make([]LedgerRow, 0, to-from)
	var cumU, cumH float64
	for _, r := range l.Rows[from:to] {
		cumU += r.UnhedgedPnL
		cumH += r.HedgedPnL
		r.CumulativeUnhedged = cumU
		r.CumulativeHedged = cumH
		out.Rows = append(out.Rows, r)
	}
	return out
}

// Select devuelve un ledger nuevo con las filas para las que keep es true,
// con acumulados recalculados.
func (l Ledger) Select(keep func(i int, r LedgerRow) bool) Ledger {
	out := l
	out.Rows = nil
	var cumU, cumH float64
	for i, r := range l.Rows {
		if !keep(i, r) {
			continue
		}
		cumU += r.UnhedgedPnL
		cumH += r.HedgedPnL
		r.CumulativeUnhedged = cumU
		r.CumulativeHedged = cumH
		out.Rows = append(out.Rows, r)
	}
	return out
}

// SummaryOptions parametriza el cálculo de métricas.
type SummaryOptions struct {
	// AnnualizationFactor multiplica el Sharpe por √factor (1 = por periodo,
	// 252 = diario anualizado).
	AnnualizationFactor float64
}

// DefaultSummaryOptions devuelve métricas por periodo, sin anualizar.
func DefaultSummaryOptions() SummaryOptions {
	return SummaryOptions{AnnualizationFactor: 1}
}

// PerformanceSummary son las métricas de riesgo derivadas de un Ledger.
// NaN indica "no definido" (Sharpe con σ = 0, efectividad con varianza
// descubierta nula).
type PerformanceSummary struct {
	Start   time.Time
	End     time.Time
	Periods int

	TotalUnhedged float64
	TotalHedged   float64
	MeanUnhedged  float64
	MeanHedged    float64

	VolatilityUnhedged  float64
	VolatilityHedged    float64
	MaxDrawdownUnhedged float64 // pico - valle, >= 0
	MaxDrawdownHedged   float64
	SharpeUnhedged      float64
	SharpeHedged        float64
	VaR95Unhedged       float64 // percentil 5 del P&L por periodo
	VaR95Hedged         float64

	WinRateUnhedged  float64 // fracción de periodos con P&L > 0
	WinRateHedged    float64
	BestDayUnhedged  float64
	WorstDayUnhedged float64
	BestDayHedged    float64
	WorstDayHedged   float64

	HedgeEffectiveness float64 // 1 - Var(h)/Var(u)
	RiskReductionRate  float64 // 1 - σh/σu
}

// RollingSummary son las métricas de la ventana que termina en Date.
type RollingSummary struct {
	Date        time.Time
	Correlation float64 // correlación de ds y df en la ventana
	Summary     PerformanceSummary
}

// PeriodPerformance son las métricas de un subconjunto del ledger
// (un periodo de estrés, el resto de la muestra o un intervalo pedido).
type PeriodPerformance struct {
	Start time.Time
	End   time.Time
	Days  int

	TotalUnhedged       float64
	TotalHedged         float64
	VolatilityUnhedged  float64
	VolatilityHedged    float64
	WorstDayUnhedged    float64
	WorstDayHedged      float64
	VaR95Unhedged       float64
	VaR95Hedged         float64
	MaxDrawdownUnhedged float64
	MaxDrawdownHedged   float64

	HedgeAdvantage    float64 // TotalHedged - TotalUnhedged
	RiskReductionRate float64
}

// ScenarioResult es el backtest de un ratio alternativo sobre el mismo panel.
type ScenarioResult struct {
	Ratio   float64
	Summary PerformanceSummary
	Err     error
}
