// Package stress detecta periodos de movimiento spot extremo y compara la
// efectividad de la cobertura dentro y fuera de ellos.
package stress

import (
	"fmt"
	"math"

	"github.com/alejandrodnm/hedgelab/internal/domain"
)

// run es un tramo máximo de cambios spot del mismo signo, índices inclusivos.
type run struct {
	start, end int
	sign       float64
}

// Detect busca tramos de cambios spot consecutivos del mismo signo cuyo
// movimiento acumulado supera thresholdPct (en valor absoluto) y que duran
// al menos minDays filas. Los tramos que se tocan se fusionan en un único
// periodo de tipo Volatile. Un cambio cero corta el tramo; un tramo con
// precio base cero no califica.
func Detect(panel domain.Panel, thresholdPct float64, minDays int) ([]domain.StressPeriod, error) {
	if math.IsNaN(thresholdPct) || thresholdPct <= 0 {
		return nil, fmt.Errorf("stress.Detect: threshold %v: %w", thresholdPct, domain.ErrConfiguration)
	}
	if minDays < 1 {
		return nil, fmt.Errorf("stress.Detect: min days %d: %w", minDays, domain.ErrConfiguration)
	}

	var qualified []run
	for _, r := range signRuns(panel) {
		if r.end-r.start+1 < minDays {
			continue
		}
		move, ok := spotMovePct(panel, r.start, r.end)
		if ok && math.Abs(move) > thresholdPct {
			qualified = append(qualified, r)
		}
	}

	var periods []domain.StressPeriod
	for i := 0; i < len(qualified); {
		j := i
		for j+1 < len(qualified) && qualified[j+1].start == qualified[j].end+1 {
			j++
		}
		periods = append(periods, buildPeriod(panel, qualified[i:j+1], thresholdPct))
		i = j + 1
	}
	return periods, nil
}

// signRuns parte el panel en tramos máximos de cambios spot no nulos del
// mismo signo.
func signRuns(panel domain.Panel) []run {
	var runs []run
	cur := run{start: -1}
	for i, row := range panel.Rows {
		s := sign(row.SpotChange)
		switch {
		case s == 0:
			if cur.start >= 0 {
				runs = append(runs, cur)
			}
			cur = run{start: -1}
		case cur.start >= 0 && s == cur.sign:
			cur.end = i
		default:
			if cur.start >= 0 {
				runs = append(runs, cur)
			}
			cur = run{start: i, end: i, sign: s}
		}
	}
	if cur.start >= 0 {
		runs = append(runs, cur)
	}
	return runs
}

func buildPeriod(panel domain.Panel, runs []run, thresholdPct float64) domain.StressPeriod {
	first, last := runs[0], runs[len(runs)-1]
	rows := panel.Rows[first.start : last.end+1]

	kind := domain.StressRally
	if first.sign < 0 {
		kind = domain.StressDecline
	}
	if len(runs) > 1 {
		kind = domain.StressVolatile
	}

	move, _ := spotMovePct(panel, first.start, last.end)
	futMove := math.NaN()
	if base := rows[0].PrevFuturePrice(); base != 0 {
		futMove = (rows[len(rows)-1].FuturePrice/base - 1) * 100
	}

	daily := make([]float64, 0, len(rows))
	maxMove := 0.0
	for _, r := range rows {
		prev := r.PrevSpotPrice()
		if prev == 0 {
			continue
		}
		pct := r.SpotChange / prev * 100
		daily = append(daily, pct)
		maxMove = math.Max(maxMove, math.Abs(pct))
	}

	reason := fmt.Sprintf("%s of %.2f%% over %d days (threshold %.2f%%)", kind, move, len(rows), thresholdPct)
	if len(runs) > 1 {
		reason = fmt.Sprintf("%d consecutive runs, net %.2f%% over %d days (threshold %.2f%%)",
			len(runs), move, len(rows), thresholdPct)
	}

	return domain.StressPeriod{
		Start:           rows[0].Date,
		End:             rows[len(rows)-1].Date,
		Kind:            kind,
		TriggerReason:   reason,
		PriceChangePct:  move,
		FutureChangePct: futMove,
		MaxDailyMovePct: maxMove,
		VolatilityPct:   domain.StdDev(daily),
		Days:            len(rows),
		StartIndex:      first.start,
		EndIndex:        last.end,
	}
}

// spotMovePct es el movimiento spot acumulado entre el precio anterior a
// start y el precio de end.
func spotMovePct(panel domain.Panel, start, end int) (float64, bool) {
	base := panel.Rows[start].PrevSpotPrice()
	if base == 0 || math.IsNaN(base) {
		return 0, false
	}
	return (panel.Rows[end].SpotPrice/base - 1) * 100, true
}

func sign(x float64) float64 {
	switch {
	case x > 0:
		return 1
	case x < 0:
		return -1
	default:
		return 0
	}
}
