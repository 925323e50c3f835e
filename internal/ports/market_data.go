package ports

import (
	"context"
	"fmt"
	"time"

	"github.com/alejandrodnm/hedgelab/internal/domain"
)

// FutureProvider obtiene la serie diaria de un contrato de futuros.
type FutureProvider interface {
	// FetchFutures devuelve los precios de contract con fecha en [from, to],
	// ordenados por fecha. Un from o to cero deja ese extremo abierto.
	FetchFutures(ctx context.Context, contract string, from, to time.Time) (domain.Series, error)
}

// QuoteKey identifica una consulta cacheada: contrato más rango de fechas.
type QuoteKey struct {
	Contract string
	From     time.Time
	To       time.Time
}

// String devuelve la forma canónica de la clave, p.ej. "CU0:2024-01-01:2024-06-30".
// Un extremo abierto se representa con "*".
func (k QuoteKey) String() string {
	return fmt.Sprintf("%s:%s:%s", k.Contract, keyDate(k.From), keyDate(k.To))
}

func keyDate(t time.Time) string {
	if t.IsZero() {
		return "*"
	}
	return t.UTC().Format(domain.DateLayout)
}

// QuoteCache guarda series ya descargadas con caducidad.
type QuoteCache interface {
	// Get devuelve la serie y true si hay una entrada vigente para key.
	Get(ctx context.Context, key QuoteKey) (domain.Series, bool, error)

	// Put guarda la serie bajo key; la caducidad la decide la implementación.
	Put(ctx context.Context, key QuoteKey, series domain.Series) error
}
