package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/alejandrodnm/hedgelab/internal/application/pipeline"
	"github.com/alejandrodnm/hedgelab/internal/domain"
)

// Config es la configuración completa de hedgelab.
type Config struct {
	Analysis   AnalysisConfig   `yaml:"analysis"`
	MarketData MarketDataConfig `yaml:"market_data"`
	Cache      CacheConfig      `yaml:"cache"`
	Storage    StorageConfig    `yaml:"storage"`
	Log        LogConfig        `yaml:"log"`
}

// AnalysisConfig son los parámetros del análisis de cobertura, tal como
// aparecen en el YAML. Pipeline() los valida y convierte.
type AnalysisConfig struct {
	MissingPolicy string  `yaml:"missing_policy"` // drop | interpolate
	Method        string  `yaml:"method"`         // min_variance | ols | correlation_adjusted
	Window        int     `yaml:"window"`         // 0 = panel completo
	Direction     string  `yaml:"direction"`      // inventory | procurement
	SpotQuantity  float64 `yaml:"spot_quantity"`
	ContractSize  float64 `yaml:"contract_size"`

	PriceChangeThresholdPct float64 `yaml:"price_change_threshold_pct"`
	MinConsecutiveDays      int     `yaml:"min_consecutive_days"`
	RollingWindowSize       int     `yaml:"rolling_window_size"`
	AnnualizationFactor     float64 `yaml:"annualization_factor"`

	Sensitivity SensitivityConfig `yaml:"sensitivity"`

	ScenarioWorkers int `yaml:"scenario_workers"` // 0 = NumCPU*2
}

// SensitivityConfig es la rejilla de multiplicadores del ratio base.
type SensitivityConfig struct {
	MinMultiplier float64 `yaml:"min_multiplier"`
	MaxMultiplier float64 `yaml:"max_multiplier"`
	Steps         int     `yaml:"steps"`
}

// MarketDataConfig controla el cliente de cotizaciones de futuros.
type MarketDataConfig struct {
	BaseURL        string  `yaml:"base_url"`
	RatePerSec     float64 `yaml:"rate_per_sec"`
	TimeoutSeconds int     `yaml:"timeout_seconds"`
	PriceField     string  `yaml:"price_field"` // close | settlement
}

// CacheConfig controla la caché de cotizaciones descargadas.
type CacheConfig struct {
	Backend   string `yaml:"backend"` // sqlite | redis | none
	TTLHours  int    `yaml:"ttl_hours"`
	RedisAddr string `yaml:"redis_addr"`
	RedisDB   int    `yaml:"redis_db"`
}

// StorageConfig controla dónde se persisten los datos.
type StorageConfig struct {
	DSN string `yaml:"dsn"` // ruta al archivo SQLite, o ":memory:"
}

// LogConfig controla el formato y nivel de logging.
type LogConfig struct {
	Level  string `yaml:"level"`  // debug | info | warn | error
	Format string `yaml:"format"` // text | json
}

// Load carga la configuración desde el archivo YAML y el archivo .env si existe.
// Las variables de entorno HEDGELAB_* sobreescriben los valores del YAML.
func Load(path string) (*Config, error) {
	// Cargar .env si existe (silencia error si no hay archivo)
	_ = godotenv.Load()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config.Load: read %q: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config.Load: parse YAML: %w", err)
	}

	applyEnvOverrides(&cfg)
	setDefaults(&cfg)

	return &cfg, nil
}

// Pipeline valida los parámetros del análisis y los convierte en la
// configuración del pipeline. Cualquier valor inválido devuelve
// ErrConfiguration.
func (c *Config) Pipeline() (pipeline.Config, error) {
	a := c.Analysis
	policy, err := domain.ParseMissingPolicy(a.MissingPolicy)
	if err != nil {
		return pipeline.Config{}, fmt.Errorf("config.Pipeline: %w", err)
	}
	method, err := domain.ParseHedgeMethod(a.Method)
	if err != nil {
		return pipeline.Config{}, fmt.Errorf("config.Pipeline: %w", err)
	}
	dir, err := domain.ParseDirection(a.Direction)
	if err != nil {
		return pipeline.Config{}, fmt.Errorf("config.Pipeline: %w", err)
	}

	checks := []struct {
		ok  bool
		msg string
	}{
		{a.Window == 0 || a.Window >= 2, fmt.Sprintf("window %d must be 0 or >= 2", a.Window)},
		{a.SpotQuantity > 0, fmt.Sprintf("spot_quantity %v must be positive", a.SpotQuantity)},
		{a.ContractSize > 0, fmt.Sprintf("contract_size %v must be positive", a.ContractSize)},
		{a.PriceChangeThresholdPct > 0, fmt.Sprintf("price_change_threshold_pct %v must be positive", a.PriceChangeThresholdPct)},
		{a.MinConsecutiveDays >= 1, fmt.Sprintf("min_consecutive_days %d must be positive", a.MinConsecutiveDays)},
		{a.RollingWindowSize >= 2, fmt.Sprintf("rolling_window_size %d must be >= 2", a.RollingWindowSize)},
		{a.AnnualizationFactor > 0, fmt.Sprintf("annualization_factor %v must be positive", a.AnnualizationFactor)},
		{a.Sensitivity.Steps >= 1, fmt.Sprintf("sensitivity.steps %d must be positive", a.Sensitivity.Steps)},
		{a.Sensitivity.MinMultiplier <= a.Sensitivity.MaxMultiplier, "sensitivity.min_multiplier above max_multiplier"},
	}
	for _, ch := range checks {
		if !ch.ok {
			return pipeline.Config{}, fmt.Errorf("config.Pipeline: %s: %w", ch.msg, domain.ErrConfiguration)
		}
	}

	return pipeline.Config{
		MissingPolicy:      policy,
		Method:             method,
		Window:             a.Window,
		Direction:          dir,
		SpotQuantity:       a.SpotQuantity,
		ContractSize:       a.ContractSize,
		StressThresholdPct: a.PriceChangeThresholdPct,
		StressMinDays:      a.MinConsecutiveDays,
		RollingWindow:      a.RollingWindowSize,
		Summary:            domain.SummaryOptions{AnnualizationFactor: a.AnnualizationFactor},
		Sensitivity: domain.SensitivityGrid{
			MinMultiplier: a.Sensitivity.MinMultiplier,
			MaxMultiplier: a.Sensitivity.MaxMultiplier,
			Steps:         a.Sensitivity.Steps,
		},
		Workers: a.ScenarioWorkers,
	}, nil
}

// CacheTTL devuelve la expiración de la caché como time.Duration.
func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.Cache.TTLHours) * time.Hour
}

// MarketTimeout devuelve el timeout HTTP del cliente de cotizaciones.
func (c *Config) MarketTimeout() time.Duration {
	return time.Duration(c.MarketData.TimeoutSeconds) * time.Second
}

// applyEnvOverrides sobreescribe valores con variables de entorno si están presentes.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("HEDGELAB_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("HEDGELAB_LOG_FORMAT"); v != "" {
		cfg.Log.Format = v
	}
	if v := os.Getenv("HEDGELAB_REDIS_ADDR"); v != "" {
		cfg.Cache.RedisAddr = v
	}
	if v := os.Getenv("HEDGELAB_DSN"); v != "" {
		cfg.Storage.DSN = v
	}
}

// setDefaults rellena solo los valores ausentes. Un valor negativo explícito
// se conserva para que Pipeline() lo rechace.
func setDefaults(cfg *Config) {
	a := &cfg.Analysis
	if a.MissingPolicy == "" {
		a.MissingPolicy = "drop"
	}
	if a.Method == "" {
		a.Method = "min_variance"
	}
	if a.Direction == "" {
		a.Direction = "inventory"
	}
	if a.SpotQuantity == 0 {
		a.SpotQuantity = 1
	}
	if a.ContractSize == 0 {
		a.ContractSize = 1
	}
	if a.PriceChangeThresholdPct == 0 {
		a.PriceChangeThresholdPct = 5
	}
	if a.MinConsecutiveDays == 0 {
		a.MinConsecutiveDays = 3
	}
	if a.RollingWindowSize == 0 {
		a.RollingWindowSize = 30
	}
	if a.AnnualizationFactor == 0 {
		a.AnnualizationFactor = 1
	}
	if a.Sensitivity == (SensitivityConfig{}) {
		g := domain.DefaultSensitivityGrid()
		a.Sensitivity = SensitivityConfig{MinMultiplier: g.MinMultiplier, MaxMultiplier: g.MaxMultiplier, Steps: g.Steps}
	}

	if cfg.MarketData.PriceField == "" {
		cfg.MarketData.PriceField = "close"
	}
	if cfg.MarketData.TimeoutSeconds <= 0 {
		cfg.MarketData.TimeoutSeconds = 15
	}
	if cfg.MarketData.RatePerSec <= 0 {
		cfg.MarketData.RatePerSec = 2
	}
	if cfg.Cache.Backend == "" {
		cfg.Cache.Backend = "sqlite"
	}
	if cfg.Cache.TTLHours <= 0 {
		cfg.Cache.TTLHours = 24
	}
	if cfg.Cache.RedisAddr == "" {
		cfg.Cache.RedisAddr = "localhost:6379"
	}
	if cfg.Storage.DSN == "" {
		cfg.Storage.DSN = "hedgelab.db"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "text"
	}
}
