// Package rediscache implementa la caché de cotizaciones sobre Redis.
package rediscache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/alejandrodnm/hedgelab/internal/domain"
	"github.com/alejandrodnm/hedgelab/internal/ports"
)

// DefaultPrefix antecede a todas las claves escritas por la caché.
const DefaultPrefix = "futures:"

// entry es el valor serializado en Redis. Price nil = faltante.
type entry struct {
	Contract  string    `json:"contract"`
	Points    []point   `json:"points"`
	CachedAt  time.Time `json:"cached_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

type point struct {
	Date  string   `json:"d"`
	Price *float64 `json:"p"`
}

// Stats son los contadores de uso de la caché.
type Stats struct {
	Hits   int64
	Misses int64
	Sets   int64
}

// Cache implementa ports.QuoteCache con un string JSON por clave y TTL de Redis.
type Cache struct {
	redis  *redis.Client
	ttl    time.Duration
	prefix string

	hits, misses, sets atomic.Int64
}

var _ ports.QuoteCache = (*Cache)(nil)

// New crea la caché sobre un cliente ya configurado.
func New(client *redis.Client, ttl time.Duration) *Cache {
	return &Cache{redis: client, ttl: ttl, prefix: DefaultPrefix}
}

// Get devuelve la serie cacheada. Una clave inexistente es un miss, no un error.
func (c *Cache) Get(ctx context.Context, key ports.QuoteKey) (domain.Series, bool, error) {
	data, err := c.redis.Get(ctx, c.prefix+key.String()).Bytes()
	if errors.Is(err, redis.Nil) {
		c.misses.Add(1)
		return domain.Series{}, false, nil
	}
	if err != nil {
		c.misses.Add(1)
		return domain.Series{}, false, fmt.Errorf("rediscache.Get: %s: %w", key, err)
	}

	var e entry
	if err := json.Unmarshal(data, &e); err != nil {
		c.misses.Add(1)
		return domain.Series{}, false, fmt.Errorf("rediscache.Get: %s: decode: %w", key, err)
	}
	// Redis ya expira la clave; esto cubre relojes desfasados
	if time.Now().After(e.ExpiresAt) {
		c.misses.Add(1)
		return domain.Series{}, false, nil
	}

	points := make([]domain.PricePoint, len(e.Points))
	for i, p := range e.Points {
		d, err := domain.ParseDate(p.Date)
		if err != nil {
			return domain.Series{}, false, fmt.Errorf("rediscache.Get: %s: %w", key, err)
		}
		price := math.NaN()
		if p.Price != nil {
			price = *p.Price
		}
		points[i] = domain.PricePoint{Date: d, Price: price}
	}

	c.hits.Add(1)
	return domain.NewSeries(e.Contract, points), true, nil
}

// Put guarda la serie con el TTL de la caché.
func (c *Cache) Put(ctx context.Context, key ports.QuoteKey, series domain.Series) error {
	now := time.Now().UTC()
	e := entry{
		Contract:  key.Contract,
		Points:    make([]point, len(series.Points)),
		CachedAt:  now,
		ExpiresAt: now.Add(c.ttl),
	}
	for i, p := range series.Points {
		e.Points[i] = point{Date: p.Date.Format(domain.DateLayout)}
		if !p.Missing() {
			price := p.Price
			e.Points[i].Price = &price
		}
	}

	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("rediscache.Put: %s: encode: %w", key, err)
	}
	if err := c.redis.Set(ctx, c.prefix+key.String(), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("rediscache.Put: %s: %w", key, err)
	}
	c.sets.Add(1)
	slog.Debug("futures cached", "key", key.String(), "points", series.Len(), "ttl", c.ttl)
	return nil
}

// Stats devuelve una copia de los contadores.
func (c *Cache) Stats() Stats {
	return Stats{Hits: c.hits.Load(), Misses: c.misses.Load(), Sets: c.sets.Load()}
}

// HitRate devuelve hits / (hits + misses), 0 sin consultas.
func (c *Cache) HitRate() float64 {
	s := c.Stats()
	total := s.Hits + s.Misses
	if total == 0 {
		return 0
	}
	return float64(s.Hits) / float64(total)
}
