package domain

import (
	"fmt"
	"time"
)

// StressKind clasifica un periodo de estrés.
type StressKind int

const (
	StressDecline StressKind = iota
	StressRally
	StressVolatile
	StressCustom
)

// String implements fmt.Stringer.
func (k StressKind) String() string {
	switch k {
	case StressDecline:
		return "decline"
	case StressRally:
		return "rally"
	case StressVolatile:
		return "volatile"
	case StressCustom:
		return "custom"
	default:
		return fmt.Sprintf("StressKind(%d)", int(k))
	}
}

// StressPeriod es un tramo de fechas con movimiento spot grande y sostenido.
// StartIndex y EndIndex son posiciones (inclusivas) en el panel de origen.
type StressPeriod struct {
	Start         time.Time
	End           time.Time
	Kind          StressKind
	TriggerReason string

	PriceChangePct  float64 // movimiento spot acumulado del tramo, en %
	FutureChangePct float64 // movimiento del futuro en el mismo tramo, en %
	MaxDailyMovePct float64 // mayor |cambio diario| spot, en %
	VolatilityPct   float64 // desviación típica de los cambios diarios spot, en %

	Days       int
	StartIndex int
	EndIndex   int
}

// Contains devuelve true si la fecha cae dentro del periodo.
func (p StressPeriod) Contains(t time.Time) bool {
	return !t.Before(p.Start) && !t.After(p.End)
}

// StressVerdict resume el comportamiento de la cobertura bajo estrés.
type StressVerdict string

const (
	VerdictGood     StressVerdict = "GOOD"
	VerdictModerate StressVerdict = "MODERATE"
	VerdictPoor     StressVerdict = "POOR"
)

// StressReport compara la efectividad dentro y fuera de los periodos de estrés.
type StressReport struct {
	Periods       []StressPeriod
	PeriodResults []PeriodPerformance // uno por periodo, mismo orden
	Inside        PeriodPerformance
	Outside       PeriodPerformance

	EffectivenessInside  float64
	EffectivenessOutside float64
	Delta                float64 // inside - outside

	Custom bool // intervalo dado por el usuario, sin detección
}

// Verdict clasifica la efectividad dentro del estrés: > 0.5 buena,
// > 0.2 moderada, resto (o indefinida) pobre.
func (r StressReport) Verdict() StressVerdict {
	switch {
	case r.EffectivenessInside > 0.5:
		return VerdictGood
	case r.EffectivenessInside > 0.2:
		return VerdictModerate
	default:
		return VerdictPoor
	}
}

// StressDays devuelve el número de días del ledger dentro de estrés.
func (r StressReport) StressDays() int {
	return r.Inside.Days
}
