package pipeline

// scenarios.go: worker pool para backtests de varios ratios sobre el mismo
// panel. El panel es de solo lectura; cada worker produce su propio ledger.

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"sync"

	"github.com/alejandrodnm/hedgelab/internal/backtest"
	"github.com/alejandrodnm/hedgelab/internal/domain"
)

// Scenarios ejecuta un backtest por ratio en paralelo y devuelve los
// resultados en el mismo orden que ratios. Un ratio inválido queda con Err
// y no aborta el resto.
//
// Si cfg.Workers <= 0 usa runtime.NumCPU() × 2.
func (p *Pipeline) Scenarios(ctx context.Context, panel domain.Panel, ratios []float64) ([]domain.ScenarioResult, error) {
	workers := p.cfg.Workers
	if workers <= 0 {
		workers = runtime.NumCPU() * 2
	}
	if workers > len(ratios) {
		workers = len(ratios)
	}

	type work struct {
		idx   int
		ratio float64
	}

	workCh := make(chan work, len(ratios))
	results := make([]domain.ScenarioResult, len(ratios))

	// Cada worker escribe solo en su índice: no hace falta mutex.
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for w := range workCh {
				if err := ctx.Err(); err != nil {
					results[w.idx] = domain.ScenarioResult{Ratio: w.ratio, Err: err}
					continue
				}
				results[w.idx] = p.scenario(panel, w.ratio)
			}
		}()
	}

	for i, r := range ratios {
		workCh <- work{idx: i, ratio: r}
	}
	close(workCh)
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return results, fmt.Errorf("pipeline.Scenarios: %w", err)
	}

	failed := 0
	for _, s := range results {
		if s.Err != nil {
			failed++
		}
	}
	slog.Debug("scenarios complete",
		"ratios", len(ratios),
		"failed", failed,
		"workers", workers,
	)
	return results, nil
}

func (p *Pipeline) scenario(panel domain.Panel, ratio float64) domain.ScenarioResult {
	ledger, err := backtest.Run(panel, ratio, p.cfg.SpotQuantity, p.cfg.Direction)
	if err != nil {
		return domain.ScenarioResult{Ratio: ratio, Err: err}
	}
	sum, err := backtest.Summarize(ledger, p.cfg.Summary)
	if err != nil {
		return domain.ScenarioResult{Ratio: ratio, Err: err}
	}
	return domain.ScenarioResult{Ratio: ratio, Summary: sum}
}
