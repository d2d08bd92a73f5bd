package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	httpAdapter "github.com/iho/atmcore/internal/adapter/http"
	"github.com/iho/atmcore/internal/adapter/http/handler"
	"github.com/iho/atmcore/internal/adapter/http/middleware"
	"github.com/iho/atmcore/internal/adapter/repository/memory"
	postgresRepo "github.com/iho/atmcore/internal/adapter/repository/postgres"
	redisRepo "github.com/iho/atmcore/internal/adapter/repository/redis"
	"github.com/iho/atmcore/internal/domain"
	"github.com/iho/atmcore/internal/infrastructure/config"
	"github.com/iho/atmcore/internal/infrastructure/metrics"
	"github.com/iho/atmcore/internal/infrastructure/postgres"
	"github.com/iho/atmcore/internal/infrastructure/redis"
	"github.com/iho/atmcore/internal/usecase"
)

func main() {
	// Setup logger
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	// Setup log level
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	ctx := context.Background()

	// Storage backend
	var (
		accounts usecase.AccountStore
		txLog    usecase.TransactionLog
		dbPool   *pgxpool.Pool
	)

	idGen := postgresRepo.NewULIDGenerator()

	switch cfg.StorageBackend {
	case "memory":
		store := memory.NewStore()
		if cfg.SeedDemoAccounts {
			seedDemoAccounts(store, idGen)
		}

		accounts = store
		txLog = store
		log.Info().Msg("using in-memory storage backend")
	default:
		connectCtx, cancel := context.WithTimeout(ctx, cfg.DatabaseTimeout)
		dbPool, err = postgres.NewPool(connectCtx, cfg.DatabaseURL, cfg.DatabaseMaxConns, cfg.DatabaseMinConns)
		cancel()
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to postgres")
		}
		defer dbPool.Close()
		log.Info().Msg("connected to postgres")

		if cfg.RunMigrations {
			if err := postgres.RunMigrations(cfg.DatabaseURL, cfg.MigrationsPath); err != nil {
				log.Fatal().Err(err).Msg("failed to run migrations")
			}
		}

		accounts = postgresRepo.NewAccountRepository(dbPool)
		txLog = postgresRepo.NewTransactionRepository(dbPool)
	}

	// Connect to Redis for sessions
	redisClient, err := redis.NewClient(ctx, cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to redis")
	}
	defer redisClient.Close()
	log.Info().Msg("connected to redis")

	sessions := redisRepo.NewSessionStore(redisClient)

	// Initialize use cases
	ledgerUC := usecase.NewLedgerUseCase(accounts, txLog, idGen)
	authUC := usecase.NewAuthUseCase(accounts, sessions, idGen, cfg.SessionTTL)

	// Initialize handlers and middleware
	m := metrics.New()
	ledgerHandler := handler.NewLedgerHandler(ledgerUC, m)
	authHandler := handler.NewAuthHandler(authUC, m)
	healthHandler := handler.NewHealthHandler(dbPool, redisClient)
	sessionAuth := middleware.NewSessionAuth(authUC)

	// Create router
	router := httpAdapter.NewRouter(httpAdapter.RouterConfig{
		AuthHandler:   authHandler,
		LedgerHandler: ledgerHandler,
		HealthHandler: healthHandler,
		SessionAuth:   sessionAuth,
		Metrics:       m,
		Logger:        log.Logger,
	})

	// Create server
	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.HTTPPort),
		Handler:      router,
		ReadTimeout:  cfg.HTTPReadTimeout,
		WriteTimeout: cfg.HTTPWriteTimeout,
	}

	// Start server in goroutine
	go func() {
		log.Info().Str("port", cfg.HTTPPort).Msg("starting server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server...")

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server stopped")
}

// seedDemoAccounts provisions two demo accounts for the memory backend.
func seedDemoAccounts(store *memory.Store, idGen usecase.IDGenerator) {
	now := time.Now().UTC()

	demo := []struct {
		userID string
		holder string
		pin    string
		cents  int64
	}{
		{userID: "alice01", holder: "Alice Nguyen", pin: "1234", cents: 10000},
		{userID: "bob02", holder: "Bob Okafor", pin: "4321", cents: 5000},
	}

	for _, d := range demo {
		pinHash, err := usecase.HashPIN(d.pin)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to hash demo PIN")
		}

		store.PutAccount(&domain.Account{
			ID:         idGen.Generate(),
			UserID:     d.userID,
			HolderName: d.holder,
			PINHash:    pinHash,
			Balance:    domain.MoneyFromCents(d.cents),
			CreatedAt:  now,
			UpdatedAt:  now,
		})

		log.Info().Str("user_id", d.userID).Str("pin", d.pin).Msg("seeded demo account")
	}
}
