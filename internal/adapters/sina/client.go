// Package sina descarga series diarias de futuros chinos del servicio
// público de K-line de Sina Finance.
package sina

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/time/rate"

	"github.com/alejandrodnm/hedgelab/internal/domain"
)

const (
	defaultBase = "https://stock2.finance.sina.com.cn"
	klinePath   = "/futures/api/jsonp.php/var%%20_%s=/InnerFuturesNewService.getDailyKLine"

	// Sina no documenta límites; 2 req/s evita bloqueos por IP.
	defaultRatePerSec = 2
	defaultTimeout    = 15 * time.Second

	maxRetries    = 3
	baseRetryWait = 500 * time.Millisecond
)

// PriceField selecciona la columna de precio de la K-line.
type PriceField string

const (
	FieldClose      PriceField = "close"
	FieldSettlement PriceField = "settlement"
)

// Config parametriza el cliente. Los campos vacíos toman valores por defecto.
type Config struct {
	BaseURL    string
	RatePerSec float64
	Timeout    time.Duration
	PriceField PriceField
}

// Client es el HTTP client de Sina con rate limiting y retries.
type Client struct {
	http      *http.Client
	base      string
	field     PriceField
	limiter   *rate.Limiter
	retryWait time.Duration
}

// NewClient crea un Client. Si BaseURL está vacío usa el host de producción.
func NewClient(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBase
	}
	if cfg.RatePerSec <= 0 {
		cfg.RatePerSec = defaultRatePerSec
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.PriceField == "" {
		cfg.PriceField = FieldClose
	}
	return &Client{
		http:      &http.Client{Timeout: cfg.Timeout},
		base:      strings.TrimRight(cfg.BaseURL, "/"),
		field:     cfg.PriceField,
		limiter:   rate.NewLimiter(rate.Limit(cfg.RatePerSec), 1),
		retryWait: baseRetryWait,
	}
}

// kline es una vela diaria tal como la sirve Sina: todo en strings.
type kline struct {
	Date       string `json:"d"`
	Open       string `json:"o"`
	High       string `json:"h"`
	Low        string `json:"l"`
	Close      string `json:"c"`
	Volume     string `json:"v"`
	OpenInt    string `json:"p"`
	Settlement string `json:"s"`
}

// FetchFutures descarga la serie diaria del contrato (p.ej. "CU0" para el
// continuo de cobre) y la recorta a [from, to].
func (c *Client) FetchFutures(ctx context.Context, contract string, from, to time.Time) (domain.Series, error) {
	symbol := strings.ToUpper(strings.TrimSpace(contract))
	if symbol == "" {
		return domain.Series{}, fmt.Errorf("sina.FetchFutures: empty contract: %w", domain.ErrConfiguration)
	}

	q := url.Values{}
	q.Set("symbol", symbol)
	endpoint := c.base + fmt.Sprintf(klinePath, symbol) + "?" + q.Encode()

	body, err := c.get(ctx, endpoint)
	if err != nil {
		return domain.Series{}, fmt.Errorf("sina.FetchFutures: %s: %w", symbol, err)
	}

	var bars []kline
	if err := json.Unmarshal(unwrapJSONP(body), &bars); err != nil {
		return domain.Series{}, fmt.Errorf("sina.FetchFutures: %s: decode klines: %w", symbol, err)
	}

	points := make([]domain.PricePoint, 0, len(bars))
	for _, b := range bars {
		date, err := domain.ParseDate(b.Date)
		if err != nil {
			return domain.Series{}, fmt.Errorf("sina.FetchFutures: %s: %w", symbol, err)
		}
		price, err := c.price(b)
		if err != nil {
			return domain.Series{}, fmt.Errorf("sina.FetchFutures: %s %s: %w", symbol, b.Date, err)
		}
		points = append(points, domain.PricePoint{Date: date, Price: price})
	}

	series := domain.NewSeries(symbol, points).Between(domain.Day(from), domain.Day(to))
	if err := series.Validate(); err != nil {
		return domain.Series{}, fmt.Errorf("sina.FetchFutures: %w", err)
	}
	if series.Len() == 0 {
		return domain.Series{}, fmt.Errorf("sina.FetchFutures: no quotes for %s in range: %w",
			symbol, domain.ErrInsufficientData)
	}

	slog.Debug("futures fetched", "contract", symbol, "bars", len(bars), "in_range", series.Len())
	return series, nil
}

// price lee el campo configurado; una celda vacía es un precio faltante.
func (c *Client) price(b kline) (float64, error) {
	raw := b.Close
	if c.field == FieldSettlement {
		raw = b.Settlement
	}
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return math.NaN(), nil
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return 0, fmt.Errorf("price %q: %v: %w", raw, err, domain.ErrValidation)
	}
	return d.InexactFloat64(), nil
}

// unwrapJSONP extrae el payload de "var _CU0=([...]);". Si no hay
// paréntesis devuelve el cuerpo tal cual.
func unwrapJSONP(body []byte) []byte {
	start := bytes.IndexByte(body, '(')
	end := bytes.LastIndexByte(body, ')')
	if start < 0 || end <= start {
		return bytes.TrimSpace(body)
	}
	return bytes.TrimSpace(body[start+1 : end])
}

// get hace un GET con rate limiting y retries y devuelve el cuerpo.
func (c *Client) get(ctx context.Context, endpoint string) ([]byte, error) {
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limiter: %w", err)
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Referer", "https://finance.sina.com.cn/")

		resp, err := c.http.Do(req)
		if err != nil {
			if attempt == maxRetries || ctx.Err() != nil {
				return nil, fmt.Errorf("request failed after %d retries: %w", attempt, err)
			}
			c.sleep(ctx, attempt)
			continue
		}

		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			resp.Body.Close()
			if attempt == maxRetries {
				return nil, fmt.Errorf("server status %d after %d retries", resp.StatusCode, maxRetries)
			}
			slog.Warn("sina request retry", "status", resp.StatusCode, "attempt", attempt+1)
			c.sleep(ctx, attempt)
			continue
		}

		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if resp.StatusCode >= 400 {
			return nil, fmt.Errorf("client error %d: %s", resp.StatusCode, string(body))
		}
		if err != nil {
			return nil, fmt.Errorf("read body: %w", err)
		}
		return body, nil
	}
	return nil, fmt.Errorf("exhausted %d retries", maxRetries)
}

// sleep espera con backoff exponencial, respetando el contexto.
func (c *Client) sleep(ctx context.Context, attempt int) {
	wait := time.Duration(math.Pow(2, float64(attempt))) * c.retryWait
	select {
	case <-time.After(wait):
	case <-ctx.Done():
	}
}
