package domain

import "time"

// PanelRow es una fila del panel alineado spot/futuro.
// Los cambios son diferencias simples respecto a la fila anterior.
type PanelRow struct {
	Date         time.Time
	SpotPrice    float64
	FuturePrice  float64
	SpotChange   float64
	FutureChange float64
}

// PrevSpotPrice devuelve el precio spot del periodo anterior.
func (r PanelRow) PrevSpotPrice() float64 {
	return r.SpotPrice - r.SpotChange
}

// PrevFuturePrice devuelve el precio del futuro del periodo anterior.
func (r PanelRow) PrevFuturePrice() float64 {
	return r.FuturePrice - r.FutureChange
}

// Panel es la intersección spot/futuro sin huecos, con fechas estrictamente
// crecientes. Lo produce align.Align; ningún componente lo modifica.
type Panel struct {
	Rows []PanelRow
}

// Len devuelve el número de filas.
func (p Panel) Len() int {
	return len(p.Rows)
}

// Start devuelve la fecha de la primera fila (cero si está vacío).
func (p Panel) Start() time.Time {
	if len(p.Rows) == 0 {
		return time.Time{}
	}
	return p.Rows[0].Date
}

// End devuelve la fecha de la última fila (cero si está vacío).
func (p Panel) End() time.Time {
	if len(p.Rows) == 0 {
		return time.Time{}
	}
	return p.Rows[len(p.Rows)-1].Date
}

// SpotChanges devuelve una copia de la columna de cambios spot.
func (p Panel) SpotChanges() []float64 {
	out := make([]float64, len(p.Rows))
	for i, r := range p.Rows {
		out[i] = r.SpotChange
	}
	return out
}

// FutureChanges devuelve una copia de la columna de cambios del futuro.
func (p Panel) FutureChanges() []float64 {
	out := make([]float64, len(p.Rows))
	for i, r := range p.Rows {
		out[i] = r.FutureChange
	}
	return out
}

// Tail devuelve un panel nuevo con las últimas n filas.
// Si n <= 0 o n >= Len, devuelve una copia completa.
func (p Panel) Tail(n int) Panel {
	if n <= 0 || n >= len(p.Rows) {
		n = len(p.Rows)
	}
	rows := make([]PanelRow, n)
	copy(rows, p.Rows[len(p.Rows)-n:])
	return Panel{Rows: rows}
}

// Between devuelve un panel nuevo con las filas cuya fecha está en [from, to].
func (p Panel) Between(from, to time.Time) Panel {
	var rows []PanelRow
	for _, r := range p.Rows {
		if r.Date.Before(from) || r.Date.After(to) {
			continue
		}
		rows = append(rows, r)
	}
	return Panel{Rows: rows}
}
