// internal/config/config.go
//
// 應用程式設定：預設值 → TOML 檔（依序合併，後者覆蓋前者）→ LEDGER_* 環境變數。
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"ledger/internal/logging"
	"ledger/internal/storage"

	toml "github.com/pelletier/go-toml/v2"
	"go.uber.org/multierr"
)

// Config 為完整設定。
type Config struct {
	Server  ServerConfig  `toml:"server"`
	Storage StorageConfig `toml:"storage"`
	Logging LoggingConfig `toml:"logging"`
	Metrics MetricsConfig `toml:"metrics"`
}

// ServerConfig 為 HTTP 伺服器設定。RateLimit 為每秒請求數，0 表示不限流。
type ServerConfig struct {
	Host         string  `toml:"host"`
	Port         int     `toml:"port"`
	RateLimit    float64 `toml:"rate_limit"`
	RateBurst    int     `toml:"rate_burst"`
	ReadTimeout  string  `toml:"read_timeout"`
	WriteTimeout string  `toml:"write_timeout"`
}

// Addr 回傳 host:port。
func (c ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// GetReadTimeout parses the read timeout, defaulting to 10s.
func (c ServerConfig) GetReadTimeout() time.Duration {
	return parseDuration(c.ReadTimeout, 10*time.Second)
}

// GetWriteTimeout parses the write timeout, defaulting to 10s.
func (c ServerConfig) GetWriteTimeout() time.Duration {
	return parseDuration(c.WriteTimeout, 10*time.Second)
}

// StorageConfig 為儲存後端設定。
type StorageConfig struct {
	Backend          string `toml:"backend"` // json | sqlite | postgres
	Path             string `toml:"path"`
	DSN              string `toml:"dsn"`
	Timeout          string `toml:"timeout"`
	AutosaveInterval string `toml:"autosave_interval"` // 0 或空字串表示只在變更與關機時保存
	BreakerFailures  uint32 `toml:"breaker_failures"`
	BreakerCooldown  string `toml:"breaker_cooldown"`
}

// GetTimeout parses the per-operation storage timeout, defaulting to 5s.
func (c StorageConfig) GetTimeout() time.Duration {
	return parseDuration(c.Timeout, 5*time.Second)
}

// GetAutosaveInterval parses the autosave interval; zero disables the loop.
func (c StorageConfig) GetAutosaveInterval() time.Duration {
	return parseDuration(c.AutosaveInterval, 0)
}

// StoreConfig 轉換為 storage.Config。
func (c StorageConfig) StoreConfig() storage.Config {
	return storage.Config{
		Backend:         strings.ToLower(c.Backend),
		Path:            c.Path,
		DSN:             c.DSN,
		Timeout:         c.GetTimeout(),
		BreakerFailures: c.BreakerFailures,
		BreakerCooldown: parseDuration(c.BreakerCooldown, 30*time.Second),
	}
}

// LoggingConfig 為日誌設定。
type LoggingConfig struct {
	Level       string `toml:"level"`
	Format      string `toml:"format"`
	Development bool   `toml:"development"`
}

// LoggerConfig 轉換為 logging.Config。
func (c LoggingConfig) LoggerConfig() logging.Config {
	return logging.Config{Level: c.Level, Format: c.Format, Development: c.Development}
}

// MetricsConfig 為 Prometheus 度量設定。
type MetricsConfig struct {
	Enabled   bool   `toml:"enabled"`
	Namespace string `toml:"namespace"`
}

// Default 回傳預設設定。
func Default() *Config {
	lc := logging.DefaultConfig()
	return &Config{
		Server: ServerConfig{
			Host:         "0.0.0.0",
			Port:         8080,
			RateLimit:    0,
			RateBurst:    20,
			ReadTimeout:  "10s",
			WriteTimeout: "10s",
		},
		Storage: StorageConfig{
			Backend:          storage.BackendJSON,
			Path:             "data.json",
			Timeout:          "5s",
			AutosaveInterval: "0s",
			BreakerFailures:  5,
			BreakerCooldown:  "30s",
		},
		Logging: LoggingConfig{
			Level:       lc.Level,
			Format:      lc.Format,
			Development: lc.Development,
		},
		Metrics: MetricsConfig{
			Enabled:   true,
			Namespace: "ledger",
		},
	}
}

// Load 依序合併設定檔（不存在者略過），再套用環境變數並驗證。
func Load(paths ...string) (*Config, error) {
	cfg := Default()
	for _, path := range paths {
		if path == "" {
			continue
		}
		data, err := os.ReadFile(path)
		if errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		if err := toml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("LEDGER_HOST"); v != "" {
		cfg.Server.Host = v
	}
	if v := os.Getenv("LEDGER_PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = p
		}
	}
	if v := os.Getenv("LEDGER_RATE_LIMIT"); v != "" {
		if r, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Server.RateLimit = r
		}
	}
	if v := os.Getenv("LEDGER_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("LEDGER_LOG_FORMAT"); v != "" {
		cfg.Logging.Format = v
	}
	if v := os.Getenv("LEDGER_STORAGE_BACKEND"); v != "" {
		cfg.Storage.Backend = v
	}
	if v := os.Getenv("LEDGER_STORAGE_PATH"); v != "" {
		cfg.Storage.Path = v
	}
	if v := os.Getenv("LEDGER_STORAGE_DSN"); v != "" {
		cfg.Storage.DSN = v
	}
}

// Validate 回傳所有設定問題的彙整錯誤。
func (c *Config) Validate() error {
	var errs error
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = multierr.Append(errs, fmt.Errorf("server.port %d out of range", c.Server.Port))
	}
	if c.Server.RateLimit < 0 {
		errs = multierr.Append(errs, fmt.Errorf("server.rate_limit must be >= 0, got %v", c.Server.RateLimit))
	}
	if c.Server.RateLimit > 0 && c.Server.RateBurst <= 0 {
		errs = multierr.Append(errs, fmt.Errorf("server.rate_burst must be > 0 when rate limiting, got %d", c.Server.RateBurst))
	}
	if !storage.ValidBackend(c.Storage.Backend) {
		errs = multierr.Append(errs, fmt.Errorf("storage.backend %q: want one of %s",
			c.Storage.Backend, strings.Join(storage.Backends(), ", ")))
	}
	switch strings.ToLower(c.Storage.Backend) {
	case storage.BackendJSON, storage.BackendSQLite:
		if c.Storage.Path == "" {
			errs = multierr.Append(errs, fmt.Errorf("storage.path is required for backend %q", c.Storage.Backend))
		}
	case storage.BackendPostgres:
		if c.Storage.DSN == "" {
			errs = multierr.Append(errs, errors.New("storage.dsn is required for backend \"postgres\""))
		}
	}
	for name, v := range map[string]string{
		"server.read_timeout":       c.Server.ReadTimeout,
		"server.write_timeout":      c.Server.WriteTimeout,
		"storage.timeout":           c.Storage.Timeout,
		"storage.autosave_interval": c.Storage.AutosaveInterval,
		"storage.breaker_cooldown":  c.Storage.BreakerCooldown,
	} {
		if v == "" {
			continue
		}
		if d, err := time.ParseDuration(v); err != nil || d < 0 {
			errs = multierr.Append(errs, fmt.Errorf("%s: invalid duration %q", name, v))
		}
	}
	return errs
}

func parseDuration(s string, fallback time.Duration) time.Duration {
	if s == "" {
		return fallback
	}
	d, err := time.ParseDuration(s)
	if err != nil || d < 0 {
		return fallback
	}
	return d
}
