// Package testutil provides a migrated Postgres for tests that need real SQL.
package testutil

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/maxviazov/foodgram-service/internal/repository"
)

// ContractTestsVar enables tests that need a database.
const ContractTestsVar = "CONTRACT_TESTS"

// PG is a migrated database and the pool connected to it.
type PG struct {
	Pool      *pgxpool.Pool
	DSN       string
	container testcontainers.Container
}

// Enabled reports whether database-backed tests were requested.
func Enabled() bool { return os.Getenv(ContractTestsVar) == "1" }

// StartPG connects to DATABASE_URL when set, otherwise starts a throwaway
// postgres container. Migrations are applied in both cases.
func StartPG(ctx context.Context) (*PG, error) {
	pg := &PG{DSN: os.Getenv("DATABASE_URL")}
	if pg.DSN == "" {
		ctr, err := postgres.Run(ctx,
			"postgres:17.5",
			postgres.WithDatabase("foodgram_test"),
			postgres.WithUsername("test"),
			postgres.WithPassword("test"),
			testcontainers.WithWaitStrategy(
				wait.ForLog("database system is ready to accept connections").
					WithOccurrence(2).
					WithStartupTimeout(30*time.Second),
			),
		)
		if err != nil {
			return nil, fmt.Errorf("failed to start postgres container: %w", err)
		}
		pg.container = ctr
		if pg.DSN, err = ctr.ConnectionString(ctx, "sslmode=disable"); err != nil {
			pg.Close()
			return nil, fmt.Errorf("failed to get connection string: %w", err)
		}
	}

	pool, err := pgxpool.New(ctx, pg.DSN)
	if err != nil {
		pg.Close()
		return nil, fmt.Errorf("failed to create pool: %w", err)
	}
	pg.Pool = pool
	if err := repository.Migrate(ctx, pool); err != nil {
		pg.Close()
		return nil, err
	}
	return pg, nil
}

// Truncate empties every application table and resets identities.
func (pg *PG) Truncate(ctx context.Context) error {
	_, err := pg.Pool.Exec(ctx, `TRUNCATE TABLE
		shopping_cart, favorites, recipe_ingredients, recipe_tags, recipes,
		ingredients, tags, user_subscriptions, auth_tokens, users
		RESTART IDENTITY CASCADE`)
	return err
}

func (pg *PG) Close() {
	if pg.Pool != nil {
		pg.Pool.Close()
	}
	if pg.container != nil {
		_ = testcontainers.TerminateContainer(pg.container)
	}
}
