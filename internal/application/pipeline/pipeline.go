// Package pipeline orquesta el análisis completo: alineado, ratio,
// backtest, métricas y estrés.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/alejandrodnm/hedgelab/internal/align"
	"github.com/alejandrodnm/hedgelab/internal/backtest"
	"github.com/alejandrodnm/hedgelab/internal/domain"
	"github.com/alejandrodnm/hedgelab/internal/hedge"
	"github.com/alejandrodnm/hedgelab/internal/ports"
	"github.com/alejandrodnm/hedgelab/internal/stress"
)

// Config contiene los parámetros del análisis ya validados.
type Config struct {
	MissingPolicy domain.MissingPolicy
	Method        domain.HedgeMethod
	Window        int // 0 = panel completo
	Direction     domain.Direction
	SpotQuantity  float64
	ContractSize  float64

	StressThresholdPct float64
	StressMinDays      int
	RollingWindow      int

	Summary     domain.SummaryOptions
	Sensitivity domain.SensitivityGrid

	Workers int // goroutines para Scenarios (0 = NumCPU*2)
}

// Request es un análisis pedido desde la CLI. Si Future está vacío se
// descarga Contract en [From, To] con el proveedor.
type Request struct {
	Spot     domain.Series
	Future   domain.Series
	Contract string
	From     time.Time
	To       time.Time

	// StressStart/StressEnd fijan un periodo de estrés manual; ambos cero
	// activan la detección automática.
	StressStart time.Time
	StressEnd   time.Time
}

// Pipeline encadena los componentes del análisis con los adaptadores
// inyectados. provider, store y reporter pueden ser nil.
type Pipeline struct {
	cfg      Config
	provider ports.FutureProvider
	store    ports.RunStore
	reporter ports.Reporter
	now      func() time.Time
}

// New crea un Pipeline con todas las dependencias inyectadas.
func New(cfg Config, provider ports.FutureProvider, store ports.RunStore, reporter ports.Reporter) *Pipeline {
	return &Pipeline{
		cfg:      cfg,
		provider: provider,
		store:    store,
		reporter: reporter,
		now:      time.Now,
	}
}

// Run ejecuta el análisis sobre dos series ya cargadas, con detección
// automática de estrés.
func (p *Pipeline) Run(ctx context.Context, spot, future domain.Series) (domain.Analysis, error) {
	return p.run(ctx, Request{Spot: spot, Future: future})
}

// Analyze carga el futuro si hace falta, ejecuta el análisis, lo persiste y
// lo presenta.
func (p *Pipeline) Analyze(ctx context.Context, req Request) (domain.Analysis, error) {
	if req.Future.Len() == 0 {
		if p.provider == nil {
			return domain.Analysis{}, fmt.Errorf("pipeline.Analyze: no futures series and no provider: %w",
				domain.ErrConfiguration)
		}
		fut, err := p.provider.FetchFutures(ctx, req.Contract, req.From, req.To)
		if err != nil {
			return domain.Analysis{}, fmt.Errorf("pipeline.Analyze: fetch futures: %w", err)
		}
		req.Future = fut
	}
	if !req.From.IsZero() || !req.To.IsZero() {
		req.Spot = req.Spot.Between(req.From, req.To)
		req.Future = req.Future.Between(req.From, req.To)
	}

	a, err := p.run(ctx, req)
	if err != nil {
		return domain.Analysis{}, err
	}

	if p.store != nil {
		if err := p.store.SaveRun(ctx, a.Record()); err != nil {
			slog.Error("save run failed", "id", a.ID, "err", err)
		}
	}
	if p.reporter != nil {
		if err := p.reporter.Report(ctx, a); err != nil {
			return a, fmt.Errorf("pipeline.Analyze: report: %w", err)
		}
	}
	return a, nil
}

func (p *Pipeline) run(ctx context.Context, req Request) (domain.Analysis, error) {
	if err := ctx.Err(); err != nil {
		return domain.Analysis{}, err
	}
	cfg := p.cfg

	contract := req.Contract
	if contract == "" {
		contract = req.Future.Instrument
	}
	a := domain.Analysis{
		ID:        uuid.NewString(),
		CreatedAt: p.now().UTC(),
		Contract:  contract,
	}

	var err error
	if a.Panel, err = align.Align(req.Spot, req.Future, cfg.MissingPolicy); err != nil {
		return domain.Analysis{}, fmt.Errorf("pipeline.Run: %w", err)
	}
	a.Data = a.Panel.Summary()
	if a.Hedge, err = hedge.Estimate(a.Panel, cfg.Method, cfg.Window); err != nil {
		return domain.Analysis{}, fmt.Errorf("pipeline.Run: %w", err)
	}
	ratio := a.Hedge.Ratio

	if a.Sensitivity, err = hedge.Sensitivity(a.Panel, ratio, cfg.Sensitivity); err != nil {
		return domain.Analysis{}, fmt.Errorf("pipeline.Run: %w", err)
	}
	if a.Quantity, err = hedge.Quantity(cfg.SpotQuantity, ratio, cfg.ContractSize); err != nil {
		return domain.Analysis{}, fmt.Errorf("pipeline.Run: %w", err)
	}
	a.Assessment = hedge.Assess(ratio)

	if a.Ledger, err = backtest.Run(a.Panel, ratio, cfg.SpotQuantity, cfg.Direction); err != nil {
		return domain.Analysis{}, fmt.Errorf("pipeline.Run: %w", err)
	}
	if a.Summary, err = backtest.Summarize(a.Ledger, cfg.Summary); err != nil {
		return domain.Analysis{}, fmt.Errorf("pipeline.Run: %w", err)
	}

	a.Rolling, err = backtest.Rolling(a.Ledger, cfg.RollingWindow, cfg.Summary)
	switch {
	case errors.Is(err, domain.ErrInsufficientData):
		slog.Warn("rolling metrics skipped", "rows", a.Ledger.Len(), "window", cfg.RollingWindow)
	case err != nil:
		return domain.Analysis{}, fmt.Errorf("pipeline.Run: %w", err)
	}

	if a.Stress, err = p.stress(a, req); err != nil {
		return domain.Analysis{}, fmt.Errorf("pipeline.Run: %w", err)
	}

	slog.Debug("analysis complete",
		"id", a.ID,
		"contract", a.Contract,
		"periods", a.Panel.Len(),
		"ratio", ratio,
		"effectiveness", a.Summary.HedgeEffectiveness,
		"stress_periods", len(a.Stress.Periods),
	)
	return a, nil
}

// stress detecta (o toma del request) los periodos de estrés y compara.
// Si una de las dos particiones queda con menos de 2 filas se devuelven
// solo los periodos, sin comparación.
func (p *Pipeline) stress(a domain.Analysis, req Request) (domain.StressReport, error) {
	if !req.StressStart.IsZero() || !req.StressEnd.IsZero() {
		start, end := req.StressStart, req.StressEnd
		if start.IsZero() {
			start = a.Panel.Start()
		}
		if end.IsZero() {
			end = a.Panel.End()
		}
		return stress.Custom(a.Ledger, start, end)
	}

	periods, err := stress.Detect(a.Panel, p.cfg.StressThresholdPct, p.cfg.StressMinDays)
	if err != nil {
		return domain.StressReport{}, err
	}
	if len(periods) == 0 {
		return domain.StressReport{}, nil
	}

	report, err := stress.Compare(a.Ledger, periods)
	if errors.Is(err, domain.ErrInsufficientData) {
		slog.Warn("stress comparison skipped", "periods", len(periods), "err", err)
		return stress.Describe(a.Ledger, periods), nil
	}
	return report, err
}
