// Package backtest reproduce una cobertura sobre el panel histórico y
// calcula métricas de riesgo de la posición cubierta frente a la descubierta.
package backtest

import (
	"fmt"
	"math"

	"github.com/alejandrodnm/hedgelab/internal/domain"
)

// Run genera el ledger de P&L para una cobertura con ratio fijo.
//
//	inventario:    descubierto = q·ds,  cubierto = q·ds − r·q·df
//	aprovisionam.: descubierto = −q·ds, cubierto = −q·ds + r·q·df
//
// Los acumulados son una suma corrida que empieza en cero. Run no modifica
// el panel y es determinista.
func Run(panel domain.Panel, ratio, spotQuantity float64, dir domain.Direction) (domain.Ledger, error) {
	if !finite(spotQuantity) || spotQuantity <= 0 {
		return domain.Ledger{}, fmt.Errorf("backtest.Run: spot quantity %v: %w", spotQuantity, domain.ErrConfiguration)
	}
	if !finite(ratio) {
		return domain.Ledger{}, fmt.Errorf("backtest.Run: ratio %v: %w", ratio, domain.ErrConfiguration)
	}
	if !dir.Valid() {
		return domain.Ledger{}, fmt.Errorf("backtest.Run: direction %v: %w", dir, domain.ErrConfiguration)
	}

	sign := dir.SpotSign()
	futQty := ratio * spotQuantity

	ledger := domain.Ledger{
		Ratio:          ratio,
		SpotQuantity:   spotQuantity,
		FutureQuantity: futQty,
		Direction:      dir,
		Rows:           make([]domain.LedgerRow, panel.Len()),
	}

	var cumU, cumH float64
	for i, p := range panel.Rows {
		spotPnL := sign * spotQuantity * p.SpotChange
		futPnL := -sign * futQty * p.FutureChange
		hedged := spotPnL + futPnL

		cumU += spotPnL
		cumH += hedged
		ledger.Rows[i] = domain.LedgerRow{
			Date:               p.Date,
			SpotChange:         p.SpotChange,
			FutureChange:       p.FutureChange,
			SpotPnL:            spotPnL,
			FuturePnL:          futPnL,
			UnhedgedPnL:        spotPnL,
			HedgedPnL:          hedged,
			CumulativeUnhedged: cumU,
			CumulativeHedged:   cumH,
		}
	}
	return ledger, nil
}

func finite(x float64) bool {
	return !math.IsNaN(x) && !math.IsInf(x, 0)
}
