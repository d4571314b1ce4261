package repository

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/jackc/pgx/v5/tracelog"
	"github.com/pressly/goose/v3"
	"github.com/rs/zerolog"

	"github.com/maxviazov/foodgram-service/internal/config"
	"github.com/maxviazov/foodgram-service/migrations"
)

// Repository инкапсулирует пул соединений pgx.
type Repository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// DSN собирает строку подключения через url.URL для корректного экранирования.
func DSN(cfg config.PostgresConfig) string {
	u := url.URL{
		Scheme: "postgres",
		Host:   cfg.Host + ":" + strconv.Itoa(cfg.Port),
		Path:   cfg.DBName,
	}
	if cfg.User != "" || cfg.Password != "" {
		u.User = url.UserPassword(cfg.User, cfg.Password)
	}
	q := u.Query()
	if cfg.SSLMode != "" {
		q.Set("sslmode", cfg.SSLMode)
	}
	u.RawQuery = q.Encode()
	return u.String()
}

// New создает новый репозиторий Postgres с пулом соединений.
func New(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) (*Repository, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if cfg == nil {
		return nil, errors.New("config is required")
	}
	if logger == nil {
		return nil, errors.New("logger is required")
	}

	// 1. Парсим DSN в конфигурацию пула соединений.
	poolConfig, err := pgxpool.ParseConfig(DSN(cfg.Postgres))
	if err != nil {
		return nil, fmt.Errorf("failed to parse pool config: %w", err)
	}

	// 2. Настраиваем трассировщик pgx через tracelog.
	poolConfig.ConnConfig.Tracer = &tracelog.TraceLog{
		Logger:   newPgxLogger(*logger),
		LogLevel: traceLevel(logger.GetLevel()),
	}

	// 3. Применяем параметры тюнинга пула.
	poolConfig.MaxConns = cfg.Postgres.MaxConns
	poolConfig.MinConns = cfg.Postgres.MinConns
	poolConfig.MaxConnLifetime = time.Duration(cfg.Postgres.MaxConnLifetime) * time.Second
	poolConfig.MaxConnIdleTime = time.Duration(cfg.Postgres.MaxConnIdleTime) * time.Second
	poolConfig.HealthCheckPeriod = time.Duration(cfg.Postgres.HealthCheckPeriod) * time.Second

	// 4. Создаем пул.
	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create postgres pool: %w", err)
	}

	// 5. Проверяем соединение с таймаутом, чтобы не зависнуть на старте.
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping postgres: %w", err)
	}

	logger.Info().
		Str("host", cfg.Postgres.Host).
		Int("port", cfg.Postgres.Port).
		Str("user", cfg.Postgres.User).
		Str("db", cfg.Postgres.DBName).
		Msg("Successfully connected to PostgreSQL")

	return &Repository{pool: pool, logger: logger.With().Str("component", "postgres").Logger()}, nil
}

// Pool отдает пул для конструкторов репозиториев.
func (r *Repository) Pool() *pgxpool.Pool { return r.pool }

// Migrate применяет встроенные goose-миграции.
func (r *Repository) Migrate(ctx context.Context) error {
	if err := Migrate(ctx, r.pool); err != nil {
		return err
	}
	r.logger.Info().Msg("migrations applied")
	return nil
}

// Migrate applies the embedded goose migrations through a database/sql
// handle borrowed from pool.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	db := stdlib.OpenDBFromPool(pool)
	defer db.Close()

	provider, err := goose.NewProvider(goose.DialectPostgres, db, migrations.FS)
	if err != nil {
		return fmt.Errorf("failed to init migrations: %w", err)
	}
	if _, err := provider.Up(ctx); err != nil {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}
	return nil
}

// Close освобождает все ресурсы пула соединений.
func (r *Repository) Close() {
	if r.pool != nil {
		r.pool.Close()
	}
}

func traceLevel(level zerolog.Level) tracelog.LogLevel {
	switch {
	case level <= zerolog.TraceLevel:
		return tracelog.LogLevelTrace
	case level <= zerolog.DebugLevel:
		return tracelog.LogLevelDebug
	case level <= zerolog.InfoLevel:
		return tracelog.LogLevelInfo
	case level <= zerolog.WarnLevel:
		return tracelog.LogLevelWarn
	default:
		return tracelog.LogLevelError
	}
}
