package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/maxviazov/foodgram-service/internal/auth"
	"github.com/maxviazov/foodgram-service/internal/config"
	"github.com/maxviazov/foodgram-service/internal/handler"
	"github.com/maxviazov/foodgram-service/internal/logger"
	"github.com/maxviazov/foodgram-service/internal/middleware"
	"github.com/maxviazov/foodgram-service/internal/repository"
	"github.com/maxviazov/foodgram-service/internal/repository/postgres"
	"github.com/maxviazov/foodgram-service/internal/service"
)

func main() {
	defaultPath := os.Getenv("APP_CONFIG")
	if defaultPath == "" {
		defaultPath = "config.yaml"
	}
	configPath := flag.String("config", defaultPath, "path to the YAML config file")
	flag.Parse()

	// Load application config
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("❌ Config loading failed: %v", err)
	}

	// Initialize logger
	appLogger, err := logger.New(&cfg.Logger)
	if err != nil {
		log.Fatalf("❌ Logger initialization failed: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := repository.New(ctx, cfg, &appLogger)
	if err != nil {
		appLogger.Fatal().Err(err).Msg("❌ Postgres connection failed")
	}
	defer db.Close()

	if cfg.Postgres.AutoMigrate {
		if err := db.Migrate(ctx); err != nil {
			appLogger.Fatal().Err(err).Msg("❌ Migrations failed")
		}
	}

	if cfg.App.Env == "prod" || cfg.App.Env == "staging" {
		gin.SetMode(gin.ReleaseMode)
	}
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	engine := newEngine(db.Pool(), cfg, appLogger, reg)

	srv := &http.Server{
		Addr:         cfg.App.Addr(),
		Handler:      engine,
		ReadTimeout:  cfg.App.ReadTimeout,
		WriteTimeout: cfg.App.WriteTimeout,
	}

	go func() {
		appLogger.Info().Str("addr", srv.Addr).Msg("🚀 Service started")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLogger.Error().Err(err).Msg("http server stopped")
			stop()
		}
	}()

	<-ctx.Done()
	appLogger.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.App.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		appLogger.Error().Err(err).Msg("graceful shutdown failed")
	}
}

// newEngine wires repositories, services and the HTTP stack on top of pool.
func newEngine(pool *pgxpool.Pool, cfg *config.Config, l zerolog.Logger, reg *prometheus.Registry) *gin.Engine {
	users := postgres.NewUserRepository(pool)
	subs := postgres.NewSubscriptionRepository(pool)
	recipes := postgres.NewRecipeRepository(pool)
	tags := postgres.NewTagRepository(pool)
	ingredients := postgres.NewIngredientRepository(pool)
	tx := postgres.NewTxManager(pool)
	hasher := auth.NewHasher(cfg.Auth.BcryptCost)

	deps := handler.Deps{
		Auth:        service.NewAuthService(users, postgres.NewTokenRepository(pool), hasher, cfg.Auth.TokenBytes, l),
		Users:       service.NewUserService(users, subs, recipes, tx, hasher, l),
		Tags:        service.NewTagService(tags, l),
		Ingredients: service.NewIngredientService(ingredients, tx, l),
		Recipes: service.NewRecipeService(service.RecipeDeps{
			Recipes:       recipes,
			Users:         users,
			Tags:          tags,
			Ingredients:   ingredients,
			Collections:   postgres.NewCollectionRepository(pool),
			Subscriptions: subs,
			Tx:            tx,
		}, l),
		Pagination: cfg.Pagination,
	}

	registerPoolMetrics(reg, pool)
	metrics := middleware.NewMetrics(reg)
	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestID(), middleware.Logger(l), metrics.Handler())
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg})))
	handler.Register(r, postgres.NewPinger(pool), deps)
	return r
}

func registerPoolMetrics(reg prometheus.Registerer, pool *pgxpool.Pool) {
	f := promauto.With(reg)
	f.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "foodgram_db_pool_acquired_conns",
		Help: "Connections currently checked out of the pool.",
	}, func() float64 { return float64(pool.Stat().AcquiredConns()) })
	f.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "foodgram_db_pool_total_conns",
		Help: "Connections currently open in the pool.",
	}, func() float64 { return float64(pool.Stat().TotalConns()) })
}
