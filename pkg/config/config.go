package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App     AppConfig
	API     APIConfig
	Store   StoreConfig
	DB      DBConfig
	Redis   RedisConfig
	Console ConsoleConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.API.validate(); err != nil {
		return nil, err
	}
	if err := cfg.Store.validate(cfg.Redis); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"STOREFRONT_APP_ENV" default:"dev"`
	LogLevel     string `envconfig:"STOREFRONT_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"STOREFRONT_LOG_WARN_STACK" default:"false"`
	LogFormat    string `envconfig:"STOREFRONT_LOG_FORMAT"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

// APIConfig points at the remote storefront REST API.
type APIConfig struct {
	BaseURL string        `envconfig:"STOREFRONT_API_BASE_URL" default:"http://127.0.0.1:5000"`
	Timeout time.Duration `envconfig:"STOREFRONT_API_TIMEOUT" default:"15s"`
}

func (a APIConfig) validate() error {
	parsed, err := url.Parse(strings.TrimSpace(a.BaseURL))
	if err != nil {
		return fmt.Errorf("parsing %s: %w", EnvAPIBaseURL, err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("%s must be an http(s) url, got %q", EnvAPIBaseURL, a.BaseURL)
	}
	if a.Timeout <= 0 {
		return fmt.Errorf("%s must be positive", EnvAPITimeout)
	}
	return nil
}

// StoreConfig selects where session tokens and the cart are persisted between runs.
type StoreConfig struct {
	Driver string `envconfig:"STOREFRONT_STORE_DRIVER" default:"file"`
	Path   string `envconfig:"STOREFRONT_STORE_PATH" default:".storefront/state.json"`
	DSN    string `envconfig:"STOREFRONT_STORE_DSN"`
}

func (s *StoreConfig) validate(redis RedisConfig) error {
	s.Driver = strings.ToLower(strings.TrimSpace(s.Driver))
	known := false
	for _, driver := range storeDrivers {
		if driver == s.Driver {
			known = true
			break
		}
	}
	if !known {
		return fmt.Errorf("%s must be one of %s, got %q", EnvStoreDriver, strings.Join(storeDrivers, ", "), s.Driver)
	}

	switch s.Driver {
	case StoreDriverFile:
		if strings.TrimSpace(s.Path) == "" {
			return fmt.Errorf("%s is required for the file driver", EnvStorePath)
		}
	case StoreDriverRedis:
		if redis.URL == "" && redis.Address == "" {
			return fmt.Errorf("either %s or %s is required for the redis driver", EnvRedisURL, EnvRedisAddr)
		}
	case StoreDriverSQLite:
		if s.DSN == "" {
			s.DSN = "file:storefront.db?cache=shared"
		}
	case StoreDriverPostgres:
		if s.DSN == "" {
			return fmt.Errorf("%s is required for the postgres driver", EnvStoreDSN)
		}
	}
	return nil
}

type DBConfig struct {
	MaxOpenConns    int           `envconfig:"STOREFRONT_DB_MAX_OPEN_CONNS" default:"4"`
	MaxIdleConns    int           `envconfig:"STOREFRONT_DB_MAX_IDLE_CONNS" default:"2"`
	ConnMaxLifetime time.Duration `envconfig:"STOREFRONT_DB_CONN_MAX_LIFETIME" default:"1h"`
}

type RedisConfig struct {
	URL          string        `envconfig:"STOREFRONT_REDIS_URL"`
	Address      string        `envconfig:"STOREFRONT_REDIS_ADDR"`
	Password     string        `envconfig:"STOREFRONT_REDIS_PASSWORD"`
	DB           int           `envconfig:"STOREFRONT_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"STOREFRONT_REDIS_POOL_SIZE" default:"4"`
	MinIdleConns int           `envconfig:"STOREFRONT_REDIS_MIN_IDLE_CONNS" default:"1"`
	DialTimeout  time.Duration `envconfig:"STOREFRONT_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"STOREFRONT_REDIS_READ_TIMEOUT" default:"3s"`
	WriteTimeout time.Duration `envconfig:"STOREFRONT_REDIS_WRITE_TIMEOUT" default:"3s"`
}

// ConsoleConfig drives the local HTTP console.
type ConsoleConfig struct {
	Port        string   `envconfig:"STOREFRONT_CONSOLE_PORT" default:"8090"`
	Metrics     bool     `envconfig:"STOREFRONT_CONSOLE_METRICS" default:"true"`
	CORSOrigins []string `envconfig:"STOREFRONT_CONSOLE_CORS_ORIGINS" default:"http://localhost:3000"`
}
