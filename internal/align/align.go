// Package align une una serie spot y una de futuros en un panel común sin
// huecos y calcula los cambios periodo a periodo.
package align

import (
	"fmt"

	"github.com/alejandrodnm/hedgelab/internal/domain"
)

// MinRows es el tamaño mínimo de panel para cualquier cálculo posterior.
const MinRows = 2

type joined struct {
	date   int64 // días desde epoch, para interpolar por distancia
	point  domain.PanelRow
	spotOK bool
	futOK  bool
}

// Align hace un inner join por fecha, trata los valores ausentes según la
// política y devuelve el panel de cambios. La primera fila unida se consume
// al calcular los cambios.
func Align(spot, future domain.Series, policy domain.MissingPolicy) (domain.Panel, error) {
	if !policy.Valid() {
		return domain.Panel{}, fmt.Errorf("align.Align: policy %v: %w", policy, domain.ErrConfiguration)
	}
	if err := spot.Validate(); err != nil {
		return domain.Panel{}, fmt.Errorf("align.Align: spot: %w", err)
	}
	if err := future.Validate(); err != nil {
		return domain.Panel{}, fmt.Errorf("align.Align: future: %w", err)
	}

	rows := innerJoin(spot, future)

	switch policy {
	case domain.MissingDrop:
		rows = dropMissing(rows)
	case domain.MissingInterpolate:
		if err := interpolate(rows); err != nil {
			return domain.Panel{}, fmt.Errorf("align.Align: %w", err)
		}
	}

	panel := differences(rows)
	if panel.Len() < MinRows {
		return domain.Panel{}, fmt.Errorf("align.Align: %d aligned rows, need %d: %w",
			panel.Len(), MinRows, domain.ErrInsufficientData)
	}
	return panel, nil
}

// innerJoin recorre ambas series ordenadas a la vez (merge join).
func innerJoin(spot, future domain.Series) []joined {
	var out []joined
	i, j := 0, 0
	for i < len(spot.Points) && j < len(future.Points) {
		s, f := spot.Points[i], future.Points[j]
		switch {
		case s.Date.Before(f.Date):
			i++
		case f.Date.Before(s.Date):
			j++
		default:
			out = append(out, joined{
				date: s.Date.Unix() / 86400,
				point: domain.PanelRow{
					Date:        s.Date,
					SpotPrice:   s.Price,
					FuturePrice: f.Price,
				},
				spotOK: !s.Missing(),
				futOK:  !f.Missing(),
			})
			i++
			j++
		}
	}
	return out
}

func dropMissing(rows []joined) []joined {
	out := rows[:0:0]
	for _, r := range rows {
		if r.spotOK && r.futOK {
			out = append(out, r)
		}
	}
	return out
}

// interpolate rellena cada columna linealmente por distancia en días entre
// los vecinos válidos más cercanos. Un hueco en un extremo no tiene vecino.
func interpolate(rows []joined) error {
	spot := func(r *joined) (*float64, *bool) { return &r.point.SpotPrice, &r.spotOK }
	fut := func(r *joined) (*float64, *bool) { return &r.point.FuturePrice, &r.futOK }

	for _, col := range []struct {
		name string
		get  func(*joined) (*float64, *bool)
	}{{"spot", spot}, {"future", fut}} {
		if err := fillColumn(rows, col.name, col.get); err != nil {
			return err
		}
	}
	return nil
}

func fillColumn(rows []joined, name string, get func(*joined) (*float64, *bool)) error {
	for i := 0; i < len(rows); i++ {
		if _, ok := get(&rows[i]); *ok {
			continue
		}
		// hueco [i, k)
		k := i
		for k < len(rows) {
			if _, ok := get(&rows[k]); *ok {
				break
			}
			k++
		}
		if i == 0 || k == len(rows) {
			return fmt.Errorf("cannot interpolate %s gap at %s: no neighbour on both sides: %w",
				name, rows[i].point.Date.Format(domain.DateLayout), domain.ErrValidation)
		}
		left, right := &rows[i-1], &rows[k]
		lv, _ := get(left)
		rv, _ := get(right)
		span := float64(right.date - left.date)
		for m := i; m < k; m++ {
			v, ok := get(&rows[m])
			w := float64(rows[m].date-left.date) / span
			*v = *lv + w*(*rv-*lv)
			*ok = true
		}
		i = k
	}
	return nil
}

// differences calcula los cambios y descarta la primera fila.
func differences(rows []joined) domain.Panel {
	if len(rows) < 2 {
		return domain.Panel{}
	}
	out := make([]domain.PanelRow, 0, len(rows)-1)
	for i := 1; i < len(rows); i++ {
		prev, cur := rows[i-1].point, rows[i].point
		cur.SpotChange = cur.SpotPrice - prev.SpotPrice
		cur.FutureChange = cur.FuturePrice - prev.FuturePrice
		out = append(out, cur)
	}
	return domain.Panel{Rows: out}
}
