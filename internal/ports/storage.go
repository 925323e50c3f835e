package ports

import (
	"context"

	"github.com/alejandrodnm/hedgelab/internal/domain"
)

// RunStore persiste el historial de análisis ejecutados.
type RunStore interface {
	// SaveRun guarda las métricas principales de un análisis.
	SaveRun(ctx context.Context, run domain.RunRecord) error

	// ListRuns devuelve los últimos limit análisis, del más reciente al más
	// antiguo. limit <= 0 devuelve todos.
	ListRuns(ctx context.Context, limit int) ([]domain.RunRecord, error)
}
