package storage

// sqlite.go: caché de cotizaciones e historial de análisis.
//
// Estrategia:
//   - `futures_fetches`: una fila por consulta (contrato + rango) con su caducidad.
//   - `futures_quotes`: los precios de cada consulta; NULL = precio faltante.
//   - `analysis_runs`: métricas principales de cada análisis, clave uuid.
//   - Índice en memoria de claves vigentes: un Get de una clave desconocida
//     o caducada no toca disco.
//   - Prune automático al arrancar: consultas caducadas y runs > 365d.

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/alejandrodnm/hedgelab/internal/domain"
	"github.com/alejandrodnm/hedgelab/internal/ports"
	_ "modernc.org/sqlite"
)

const schema = `
-- Una fila por consulta cacheada
CREATE TABLE IF NOT EXISTS futures_fetches (
    cache_key  TEXT PRIMARY KEY,
    contract   TEXT NOT NULL,
    fetched_at TEXT NOT NULL,
    expires_at TEXT NOT NULL,
    points     INTEGER NOT NULL DEFAULT 0
);

-- Precios de cada consulta, en orden de fecha
CREATE TABLE IF NOT EXISTS futures_quotes (
    cache_key TEXT NOT NULL,
    date      TEXT NOT NULL,
    price     REAL,
    PRIMARY KEY (cache_key, date)
);

-- Historial de análisis
CREATE TABLE IF NOT EXISTS analysis_runs (
    id                    TEXT PRIMARY KEY,
    created_at            TEXT    NOT NULL,
    contract              TEXT    NOT NULL,
    start_date            TEXT,
    end_date              TEXT,
    periods               INTEGER NOT NULL DEFAULT 0,
    method                TEXT    NOT NULL,
    direction             TEXT    NOT NULL,
    ratio                 REAL,
    r_squared             REAL,
    quantity              REAL,
    hedge_effectiveness   REAL,
    risk_reduction        REAL,
    volatility_unhedged   REAL,
    volatility_hedged     REAL,
    sharpe_unhedged       REAL,
    sharpe_hedged         REAL,
    stress_periods        INTEGER NOT NULL DEFAULT 0,
    effectiveness_inside  REAL,
    effectiveness_outside REAL
);

CREATE INDEX IF NOT EXISTS idx_fetches_exp ON futures_fetches(expires_at);
CREATE INDEX IF NOT EXISTS idx_runs_at     ON analysis_runs(created_at DESC);
`

const (
	retentionRuns = 365 * 24 * time.Hour
	defaultTTL    = 24 * time.Hour

	// tsLayout tiene ancho fijo para que el orden de texto sea el cronológico.
	tsLayout = "2006-01-02T15:04:05.000Z"
)

// Option configura un SQLiteStorage.
type Option func(*SQLiteStorage)

// WithClock sustituye el reloj (tests de caducidad).
func WithClock(now func() time.Time) Option {
	return func(s *SQLiteStorage) { s.now = now }
}

// SQLiteStorage implementa ports.QuoteCache y ports.RunStore usando SQLite
// (pure Go, sin CGo).
type SQLiteStorage struct {
	db  *sql.DB
	ttl time.Duration
	now func() time.Time

	mu    sync.Mutex
	fresh map[string]time.Time // cache_key → expires_at
}

var (
	_ ports.QuoteCache = (*SQLiteStorage)(nil)
	_ ports.RunStore   = (*SQLiteStorage)(nil)
)

// NewSQLiteStorage abre (o crea) la base de datos en la ruta dada.
// Aplica el schema, limpia datos caducados y precarga el índice de claves.
// ttl <= 0 usa 24h.
func NewSQLiteStorage(path string, ttl time.Duration, opts ...Option) (*SQLiteStorage, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("storage.NewSQLiteStorage: open %q: %w", path, err)
	}
	db.SetMaxOpenConns(1) // SQLite es single-writer
	db.SetMaxIdleConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage.NewSQLiteStorage: apply schema: %w", err)
	}

	if ttl <= 0 {
		ttl = defaultTTL
	}
	s := &SQLiteStorage{
		db:    db,
		ttl:   ttl,
		now:   time.Now,
		fresh: make(map[string]time.Time),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.pruneOld(context.Background())
	s.warmIndex(context.Background())
	return s, nil
}

// Get devuelve la serie cacheada bajo key si no ha caducado.
func (s *SQLiteStorage) Get(ctx context.Context, key ports.QuoteKey) (domain.Series, bool, error) {
	k := key.String()
	s.mu.Lock()
	exp, ok := s.fresh[k]
	s.mu.Unlock()
	if !ok || !s.now().UTC().Before(exp) {
		return domain.Series{}, false, nil
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT date, price FROM futures_quotes WHERE cache_key = ? ORDER BY date`, k)
	if err != nil {
		return domain.Series{}, false, fmt.Errorf("storage.Get: query: %w", err)
	}
	defer rows.Close()

	var points []domain.PricePoint
	for rows.Next() {
		var date string
		var price sql.NullFloat64
		if err := rows.Scan(&date, &price); err != nil {
			return domain.Series{}, false, fmt.Errorf("storage.Get: scan row: %w", err)
		}
		d, err := domain.ParseDate(date)
		if err != nil {
			return domain.Series{}, false, fmt.Errorf("storage.Get: %w", err)
		}
		points = append(points, domain.PricePoint{Date: d, Price: fromNull(price)})
	}
	if err := rows.Err(); err != nil {
		return domain.Series{}, false, fmt.Errorf("storage.Get: %w", err)
	}
	return domain.NewSeries(key.Contract, points), true, nil
}

// Put reemplaza la entrada de key con la serie dada y una caducidad nueva.
func (s *SQLiteStorage) Put(ctx context.Context, key ports.QuoteKey, series domain.Series) error {
	k := key.String()
	now := s.now().UTC()
	exp := now.Add(s.ttl)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("storage.Put: begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM futures_quotes WHERE cache_key = ?`, k); err != nil {
		return fmt.Errorf("storage.Put: clear quotes: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO futures_fetches (cache_key, contract, fetched_at, expires_at, points)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(cache_key) DO UPDATE SET
			fetched_at = excluded.fetched_at,
			expires_at = excluded.expires_at,
			points     = excluded.points
	`, k, key.Contract, now.Format(tsLayout), exp.Format(tsLayout), series.Len()); err != nil {
		return fmt.Errorf("storage.Put: upsert fetch: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO futures_quotes (cache_key, date, price) VALUES (?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("storage.Put: prepare: %w", err)
	}
	defer stmt.Close()
	for _, p := range series.Points {
		if _, err := stmt.ExecContext(ctx, k, p.Date.Format(domain.DateLayout), toNull(p.Price)); err != nil {
			return fmt.Errorf("storage.Put: insert quote %s: %w", p.Date.Format(domain.DateLayout), err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("storage.Put: commit: %w", err)
	}

	s.mu.Lock()
	s.fresh[k] = exp
	s.mu.Unlock()
	return nil
}

// SaveRun persiste las métricas de un análisis. Las métricas no definidas
// (NaN) se guardan como NULL.
func (s *SQLiteStorage) SaveRun(ctx context.Context, r domain.RunRecord) error {
	if _, err := s.db.ExecContext(ctx, `
		INSERT INTO analysis_runs (
			id, created_at, contract, start_date, end_date, periods, method, direction,
			ratio, r_squared, quantity, hedge_effectiveness, risk_reduction,
			volatility_unhedged, volatility_hedged, sharpe_unhedged, sharpe_hedged,
			stress_periods, effectiveness_inside, effectiveness_outside
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		r.ID, r.CreatedAt.UTC().Format(tsLayout), r.Contract,
		dateOrNull(r.Start), dateOrNull(r.End), r.Periods,
		r.Method.String(), r.Direction.String(),
		toNull(r.Ratio), toNull(r.RSquared), toNull(r.Quantity),
		toNull(r.HedgeEffectiveness), toNull(r.RiskReductionRate),
		toNull(r.VolatilityUnhedged), toNull(r.VolatilityHedged),
		toNull(r.SharpeUnhedged), toNull(r.SharpeHedged),
		r.StressPeriods, toNull(r.EffectivenessInside), toNull(r.EffectivenessOutside),
	); err != nil {
		return fmt.Errorf("storage.SaveRun: insert run: %w", err)
	}
	return nil
}

// ListRuns devuelve los runs más recientes primero. limit <= 0 devuelve todos.
func (s *SQLiteStorage) ListRuns(ctx context.Context, limit int) ([]domain.RunRecord, error) {
	if limit <= 0 {
		limit = -1 // sin límite en SQLite
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, created_at, contract, start_date, end_date, periods, method, direction,
		       ratio, r_squared, quantity, hedge_effectiveness, risk_reduction,
		       volatility_unhedged, volatility_hedged, sharpe_unhedged, sharpe_hedged,
		       stress_periods, effectiveness_inside, effectiveness_outside
		FROM analysis_runs
		ORDER BY created_at DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("storage.ListRuns: query: %w", err)
	}
	defer rows.Close()

	var runs []domain.RunRecord
	for rows.Next() {
		var (
			r                                   domain.RunRecord
			createdAt, method, direction        string
			start, end                          sql.NullString
			ratio, r2, qty, eff, rr             sql.NullFloat64
			volU, volH, shU, shH, effIn, effOut sql.NullFloat64
		)
		if err := rows.Scan(
			&r.ID, &createdAt, &r.Contract, &start, &end, &r.Periods, &method, &direction,
			&ratio, &r2, &qty, &eff, &rr,
			&volU, &volH, &shU, &shH,
			&r.StressPeriods, &effIn, &effOut,
		); err != nil {
			return nil, fmt.Errorf("storage.ListRuns: scan row: %w", err)
		}

		r.CreatedAt, _ = time.Parse(tsLayout, createdAt)
		r.Start = parseDateOrZero(start)
		r.End = parseDateOrZero(end)
		r.Method, _ = domain.ParseHedgeMethod(method)
		r.Direction, _ = domain.ParseDirection(direction)
		r.Ratio, r.RSquared, r.Quantity = fromNull(ratio), fromNull(r2), fromNull(qty)
		r.HedgeEffectiveness, r.RiskReductionRate = fromNull(eff), fromNull(rr)
		r.VolatilityUnhedged, r.VolatilityHedged = fromNull(volU), fromNull(volH)
		r.SharpeUnhedged, r.SharpeHedged = fromNull(shU), fromNull(shH)
		r.EffectivenessInside, r.EffectivenessOutside = fromNull(effIn), fromNull(effOut)
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// Close cierra la conexión a la base de datos.
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

// --- helpers internos ---

// pruneOld elimina consultas caducadas y runs antiguos para mantener la DB ligera.
func (s *SQLiteStorage) pruneOld(ctx context.Context) {
	now := s.now().UTC()
	cutoff := now.Format(tsLayout)
	s.db.ExecContext(ctx,
		`DELETE FROM futures_quotes WHERE cache_key IN (SELECT cache_key FROM futures_fetches WHERE expires_at <= ?)`, cutoff)
	s.db.ExecContext(ctx, `DELETE FROM futures_fetches WHERE expires_at <= ?`, cutoff)
	s.db.ExecContext(ctx, `DELETE FROM analysis_runs WHERE created_at < ?`, now.Add(-retentionRuns).Format(tsLayout))
}

// warmIndex precarga las claves vigentes al arrancar.
func (s *SQLiteStorage) warmIndex(ctx context.Context) {
	rows, err := s.db.QueryContext(ctx, `SELECT cache_key, expires_at FROM futures_fetches`)
	if err != nil {
		return
	}
	defer rows.Close()

	s.mu.Lock()
	defer s.mu.Unlock()
	for rows.Next() {
		var k, exp string
		if rows.Scan(&k, &exp) != nil {
			continue
		}
		if t, err := time.Parse(tsLayout, exp); err == nil {
			s.fresh[k] = t
		}
	}
}

func toNull(x float64) sql.NullFloat64 {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: x, Valid: true}
}

func fromNull(n sql.NullFloat64) float64 {
	if !n.Valid {
		return math.NaN()
	}
	return n.Float64
}

func dateOrNull(t time.Time) sql.NullString {
	if t.IsZero() {
		return sql.NullString{}
	}
	return sql.NullString{String: t.Format(domain.DateLayout), Valid: true}
}

func parseDateOrZero(s sql.NullString) time.Time {
	if !s.Valid {
		return time.Time{}
	}
	t, _ := domain.ParseDate(s.String)
	return t
}
