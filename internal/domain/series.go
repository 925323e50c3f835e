package domain

import (
	"fmt"
	"math"
	"time"
)

// DateLayout is the ISO-8601 day format used by every series boundary.
const DateLayout = "2006-01-02"

// PricePoint es una observación diaria de precio.
// Un precio NaN representa una observación ausente.
type PricePoint struct {
	Date  time.Time
	Price float64
}

// MissingPoint devuelve una observación sin precio para la fecha dada.
func MissingPoint(date time.Time) PricePoint {
	return PricePoint{Date: date, Price: math.NaN()}
}

// Missing devuelve true si el punto no tiene precio.
func (p PricePoint) Missing() bool {
	return math.IsNaN(p.Price)
}

// Series es una secuencia ordenada de precios de un único instrumento
// (spot o futuro). Se trata como inmutable una vez construida.
type Series struct {
	Instrument string
	Points     []PricePoint
}

// NewSeries construye una serie normalizando las fechas a medianoche UTC.
func NewSeries(instrument string, points []PricePoint) Series {
	out := make([]PricePoint, len(points))
	for i, p := range points {
		out[i] = PricePoint{Date: Day(p.Date), Price: p.Price}
	}
	return Series{Instrument: instrument, Points: out}
}

// Len devuelve el número de observaciones.
func (s Series) Len() int {
	return len(s.Points)
}

// Validate comprueba orden estricto de fechas y precios no negativos.
// Nunca reordena: una serie desordenada es un bug del llamador.
func (s Series) Validate() error {
	for i, p := range s.Points {
		if p.Date.IsZero() {
			return fmt.Errorf("series %q: point %d has no date: %w", s.Instrument, i, ErrValidation)
		}
		if !p.Missing() && (p.Price < 0 || math.IsInf(p.Price, 0)) {
			return fmt.Errorf("series %q: invalid price %v on %s: %w",
				s.Instrument, p.Price, p.Date.Format(DateLayout), ErrValidation)
		}
		if i == 0 {
			continue
		}
		prev := s.Points[i-1].Date
		switch {
		case p.Date.Equal(prev):
			return fmt.Errorf("series %q: duplicate date %s: %w",
				s.Instrument, p.Date.Format(DateLayout), ErrValidation)
		case p.Date.Before(prev):
			return fmt.Errorf("series %q: date %s after %s is out of order: %w",
				s.Instrument, p.Date.Format(DateLayout), prev.Format(DateLayout), ErrValidation)
		}
	}
	return nil
}

// Between devuelve una copia con los puntos cuyo día está en [from, to].
// Un from o to cero no limita ese extremo.
func (s Series) Between(from, to time.Time) Series {
	out := Series{Instrument: s.Instrument}
	for _, p := range s.Points {
		if !from.IsZero() && p.Date.Before(from) {
			continue
		}
		if !to.IsZero() && p.Date.After(to) {
			continue
		}
		out.Points = append(out.Points, p)
	}
	return out
}

// ParseDate parsea una fecha YYYY-MM-DD en UTC.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse date %q: %w", s, ErrValidation)
	}
	return t, nil
}

// MustDate es ParseDate para literales en tests y fixtures.
func MustDate(s string) time.Time {
	t, err := ParseDate(s)
	if err != nil {
		panic(err)
	}
	return t
}

// Day trunca un instante a la medianoche UTC de su día calendario.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
