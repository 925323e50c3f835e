// Package csvfile lee series de precios desde CSV y exporta los resultados
// del análisis como CSV.
package csvfile

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/alejandrodnm/hedgelab/internal/domain"
)

// DateColumn es el nombre de la columna de fechas.
const DateColumn = "date"

// LoadSeries abre path y lee la serie de la columna priceColumn.
func LoadSeries(path, instrument, priceColumn string) (domain.Series, error) {
	f, err := os.Open(path)
	if err != nil {
		return domain.Series{}, fmt.Errorf("csvfile.LoadSeries: %w", err)
	}
	defer f.Close()

	s, err := ReadSeries(f, instrument, priceColumn)
	if err != nil {
		return domain.Series{}, fmt.Errorf("csvfile.LoadSeries: %s: %w", path, err)
	}
	return s, nil
}

// ReadSeries lee un CSV con cabecera date,<priceColumn>[,...]. Una celda de
// precio vacía es un dato faltante. Las filas se devuelven en el orden del
// fichero; la validación de orden y duplicados la hace Series.Validate.
func ReadSeries(r io.Reader, instrument, priceColumn string) (domain.Series, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return domain.Series{}, fmt.Errorf("read header: %v: %w", err, domain.ErrValidation)
	}
	dateIdx, priceIdx := -1, -1
	for i, h := range header {
		switch strings.ToLower(strings.TrimSpace(h)) {
		case DateColumn:
			dateIdx = i
		case strings.ToLower(priceColumn):
			priceIdx = i
		}
	}
	if dateIdx < 0 || priceIdx < 0 {
		return domain.Series{}, fmt.Errorf("header %v needs %q and %q: %w",
			header, DateColumn, priceColumn, domain.ErrValidation)
	}

	var points []domain.PricePoint
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return domain.Series{}, fmt.Errorf("line %d: %v: %w", line, err, domain.ErrValidation)
		}
		date, err := domain.ParseDate(strings.TrimSpace(rec[dateIdx]))
		if err != nil {
			return domain.Series{}, fmt.Errorf("line %d: %w", line, err)
		}
		price, err := parsePrice(rec[priceIdx])
		if err != nil {
			return domain.Series{}, fmt.Errorf("line %d: %w", line, err)
		}
		points = append(points, domain.PricePoint{Date: date, Price: price})
	}

	s := domain.NewSeries(instrument, points)
	if err := s.Validate(); err != nil {
		return domain.Series{}, err
	}
	return s, nil
}

// parsePrice convierte la celda en precio; vacía = NaN (faltante).
func parsePrice(cell string) (float64, error) {
	cell = strings.TrimSpace(cell)
	if cell == "" || strings.EqualFold(cell, "nan") {
		return math.NaN(), nil
	}
	d, err := decimal.NewFromString(cell)
	if err != nil {
		return 0, fmt.Errorf("price %q: %v: %w", cell, err, domain.ErrValidation)
	}
	if d.IsNegative() {
		return 0, fmt.Errorf("negative price %s: %w", cell, domain.ErrValidation)
	}
	return d.InexactFloat64(), nil
}
