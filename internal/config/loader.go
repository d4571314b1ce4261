package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvFileVar points at an optional dotenv file loaded before the config.
const EnvFileVar = "APP_ENV_FILE"

func Load(path string) (*Config, error) {
	if err := loadDotEnv(); err != nil {
		return nil, err
	}

	v := viper.New()
	v.SetConfigFile(path)
	setDefaults(v)

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.SetEnvPrefix("APP")
	v.AutomaticEnv()

	// Secrets usually come from the environment; accept the conventional
	// POSTGRES_* and DB_* names besides the APP_ ones.
	for key, names := range map[string][]string{
		"postgres.user":     {"APP_POSTGRES_USER", "POSTGRES_USER", "DB_USER"},
		"postgres.password": {"APP_POSTGRES_PASSWORD", "POSTGRES_PASSWORD", "DB_PASSWORD"},
		"postgres.db":       {"APP_POSTGRES_DB", "POSTGRES_DB", "DB_NAME"},
		"postgres.host":     {"APP_POSTGRES_HOST", "POSTGRES_HOST"},
	} {
		if err := v.BindEnv(append([]string{key}, names...)...); err != nil {
			return nil, fmt.Errorf("failed to bind env for %s: %w", key, err)
		}
	}

	var config Config
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("config file not found: %w", err)
	}
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	config.inheritLogger()
	if err := validator.New().Struct(&config); err != nil {
		return nil, fmt.Errorf("config validation error: %w", err)
	}
	return &config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "foodgram-service")
	v.SetDefault("app.version", "0.1.0")
	v.SetDefault("app.env", "dev")
	v.SetDefault("app.port", 8080)
	v.SetDefault("app.read_timeout", "10s")
	v.SetDefault("app.write_timeout", "15s")
	v.SetDefault("app.shutdown_timeout", "10s")

	v.SetDefault("postgres.host", "localhost")
	v.SetDefault("postgres.port", 5432)
	v.SetDefault("postgres.sslmode", "disable")
	v.SetDefault("postgres.max_conns", 10)
	v.SetDefault("postgres.min_conns", 1)
	v.SetDefault("postgres.max_conn_lifetime", 3600)
	v.SetDefault("postgres.max_conn_idle_time", 600)
	v.SetDefault("postgres.health_check_period", 30)
	v.SetDefault("postgres.auto_migrate", true)

	v.SetDefault("pagination.default_limit", 10)
	v.SetDefault("pagination.max_limit", 100)

	v.SetDefault("auth.bcrypt_cost", 12)
	v.SetDefault("auth.token_bytes", 32)
}

// loadDotEnv reads APP_ENV_FILE (or ./.env) into the process environment
// without overriding variables that are already set. A missing file is fine.
func loadDotEnv() error {
	path := os.Getenv(EnvFileVar)
	if path == "" {
		path = ".env"
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}
