package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/alejandrodnm/hedgelab/internal/adapters/rediscache"
	"github.com/alejandrodnm/hedgelab/internal/adapters/sina"
	"github.com/alejandrodnm/hedgelab/internal/adapters/storage"
	"github.com/alejandrodnm/hedgelab/internal/application/marketdata"
	"github.com/alejandrodnm/hedgelab/internal/domain"
	"github.com/alejandrodnm/hedgelab/internal/ports"
)

const redisPingTimeout = 2 * time.Second

// app agrupa los adaptadores compartidos por los subcomandos.
type app struct {
	store    *storage.SQLiteStorage
	provider ports.FutureProvider
	redis    *redis.Client
	quotes   *rediscache.Cache
}

// openApp abre el almacenamiento SQLite y monta el proveedor de futuros con
// la caché configurada delante.
func openApp(ctx context.Context) (*app, error) {
	field := sina.PriceField(cfg.MarketData.PriceField)
	if field != sina.FieldClose && field != sina.FieldSettlement {
		return nil, fmt.Errorf("market_data.price_field %q: %w", cfg.MarketData.PriceField, domain.ErrConfiguration)
	}

	store, err := storage.NewSQLiteStorage(cfg.Storage.DSN, cfg.CacheTTL())
	if err != nil {
		return nil, fmt.Errorf("open storage %q: %w", cfg.Storage.DSN, err)
	}
	a := &app{store: store}

	client := sina.NewClient(sina.Config{
		BaseURL:    cfg.MarketData.BaseURL,
		RatePerSec: cfg.MarketData.RatePerSec,
		Timeout:    cfg.MarketTimeout(),
		PriceField: field,
	})

	var cache ports.QuoteCache
	switch cfg.Cache.Backend {
	case "sqlite":
		cache = store
	case "redis":
		a.redis = redis.NewClient(&redis.Options{Addr: cfg.Cache.RedisAddr, DB: cfg.Cache.RedisDB})
		pingCtx, cancel := context.WithTimeout(ctx, redisPingTimeout)
		defer cancel()
		if err := a.redis.Ping(pingCtx).Err(); err != nil {
			slog.Warn("redis unavailable, quote cache disabled", "addr", cfg.Cache.RedisAddr, "err", err)
		} else {
			a.quotes = rediscache.New(a.redis, cfg.CacheTTL())
			cache = a.quotes
		}
	case "none":
	default:
		a.Close()
		return nil, fmt.Errorf("cache.backend %q: %w", cfg.Cache.Backend, domain.ErrConfiguration)
	}

	a.provider = marketdata.NewCachedProvider(client, cache)
	slog.Debug("adapters ready",
		"dsn", cfg.Storage.DSN,
		"cache", cfg.Cache.Backend,
		"cache_enabled", cache != nil,
		"price_field", field,
	)
	return a, nil
}

func (a *app) Close() {
	if a.quotes != nil {
		st := a.quotes.Stats()
		slog.Debug("quote cache stats",
			"hits", st.Hits,
			"misses", st.Misses,
			"sets", st.Sets,
			"hit_rate", a.quotes.HitRate(),
		)
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			slog.Warn("redis close failed", "err", err)
		}
	}
	if err := a.store.Close(); err != nil {
		slog.Warn("storage close failed", "err", err)
	}
}
