// Package marketdata decora proveedores de cotizaciones con una caché de
// lectura.
package marketdata

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/alejandrodnm/hedgelab/internal/domain"
	"github.com/alejandrodnm/hedgelab/internal/ports"
)

// CachedProvider implementa ports.FutureProvider consultando primero la caché.
// Los errores de la caché se registran y se ignoran: nunca bloquean la
// descarga.
type CachedProvider struct {
	next  ports.FutureProvider
	cache ports.QuoteCache
}

var _ ports.FutureProvider = (*CachedProvider)(nil)

// NewCachedProvider envuelve next. Con cache nil devuelve next tal cual.
func NewCachedProvider(next ports.FutureProvider, cache ports.QuoteCache) ports.FutureProvider {
	if cache == nil {
		return next
	}
	return &CachedProvider{next: next, cache: cache}
}

// FetchFutures devuelve la serie cacheada o la descarga y la guarda.
func (p *CachedProvider) FetchFutures(ctx context.Context, contract string, from, to time.Time) (domain.Series, error) {
	key := ports.QuoteKey{Contract: contract, From: domain.Day(from), To: domain.Day(to)}

	series, ok, err := p.cache.Get(ctx, key)
	switch {
	case err != nil:
		slog.Warn("quote cache read failed", "key", key.String(), "err", err)
	case ok:
		slog.Debug("quote cache hit", "key", key.String(), "points", series.Len())
		return series, nil
	}

	series, err = p.next.FetchFutures(ctx, contract, from, to)
	if err != nil {
		return domain.Series{}, fmt.Errorf("marketdata.FetchFutures: %w", err)
	}

	if err := p.cache.Put(ctx, key, series); err != nil {
		slog.Warn("quote cache write failed", "key", key.String(), "err", err)
	}
	return series, nil
}
