package config

import (
	"strconv"
	"time"

	"github.com/maxviazov/foodgram-service/internal/logger"
)

type Config struct {
	App        AppConfig           `mapstructure:"app"`
	Logger     logger.LoggerConfig `mapstructure:"logger" validate:"-"`
	Postgres   PostgresConfig      `mapstructure:"postgres"`
	Pagination PaginationConfig    `mapstructure:"pagination"`
	Auth       AuthConfig          `mapstructure:"auth"`
}

type AppConfig struct {
	Name            string        `mapstructure:"name" validate:"required"`
	Version         string        `mapstructure:"version"`
	Env             string        `mapstructure:"env" validate:"oneof=dev test staging prod"`
	Port            int           `mapstructure:"port" validate:"min=1,max=65535"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// PostgresConfig holds connection and pool settings. Durations are in seconds,
// matching the pgxpool knobs they feed.
type PostgresConfig struct {
	Host              string `mapstructure:"host" validate:"required"`
	Port              int    `mapstructure:"port" validate:"min=1,max=65535"`
	User              string `mapstructure:"user" validate:"required"`
	Password          string `mapstructure:"password" validate:"required"`
	DBName            string `mapstructure:"db" validate:"required"`
	SSLMode           string `mapstructure:"sslmode" validate:"omitempty,oneof=disable allow prefer require verify-ca verify-full"`
	MaxConns          int32  `mapstructure:"max_conns" validate:"min=0"`
	MinConns          int32  `mapstructure:"min_conns" validate:"min=0,ltefield=MaxConns"`
	MaxConnLifetime   int    `mapstructure:"max_conn_lifetime"`
	MaxConnIdleTime   int    `mapstructure:"max_conn_idle_time"`
	HealthCheckPeriod int    `mapstructure:"health_check_period"`
	AutoMigrate       bool   `mapstructure:"auto_migrate"`
}

type PaginationConfig struct {
	DefaultLimit int `mapstructure:"default_limit" validate:"min=1,ltefield=MaxLimit"`
	MaxLimit     int `mapstructure:"max_limit" validate:"min=1,max=100"`
}

type AuthConfig struct {
	BcryptCost int `mapstructure:"bcrypt_cost" validate:"min=4,max=31"`
	TokenBytes int `mapstructure:"token_bytes" validate:"min=16,max=128"`
}

// inheritLogger fills logger identity fields the file left empty from the app section.
func (c *Config) inheritLogger() {
	if c.Logger.Env == "" {
		c.Logger.Env = c.App.Env
	}
	if c.Logger.ServiceName == "" {
		c.Logger.ServiceName = c.App.Name
	}
	if c.Logger.ServiceVersion == "" {
		c.Logger.ServiceVersion = c.App.Version
	}
}

// Addr is the listen address for the HTTP server.
func (a AppConfig) Addr() string {
	return ":" + strconv.Itoa(a.Port)
}
