package ports

import (
	"context"

	"github.com/alejandrodnm/hedgelab/internal/domain"
)

// Reporter presenta el resultado de un análisis al usuario.
type Reporter interface {
	// Report muestra ratio, métricas, sensibilidad y estrés.
	// En la implementación de consola, imprime tablas formateadas.
	Report(ctx context.Context, analysis domain.Analysis) error
}
