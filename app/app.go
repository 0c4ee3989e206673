// File: app/app.go
package app

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"go-ledger/config"
	"go-ledger/db"
	"go-ledger/handler"
	"go-ledger/logger"
	"go-ledger/repository"
	"go-ledger/router"
	"go-ledger/service"

	"github.com/sirupsen/logrus"
)

// TestApp bundles a fully wired ledger for integration tests.
type TestApp struct {
	Store   repository.LedgerStore
	Service *service.LedgerService
	Router  http.Handler
}

// NewTestApp wires the service, handlers and router on top of store.
// cacheClient may be nil.
func NewTestApp(store repository.LedgerStore, cacheClient service.ICacheClient) *TestApp {
	svc := newLedgerService(store, cacheClient, serviceOptions())
	return &TestApp{
		Store:   store,
		Service: svc,
		Router:  router.NewRouter(handler.NewLedgerHandler(svc), handler.NewHealthHandler(store)),
	}
}

func serviceOptions() service.Options {
	cfg := config.AppConfig.Ledger
	strategy, err := service.ParseStrategy(cfg.Strategy)
	if err != nil {
		logger.Log.WithError(err).Warn("Falling back to pessimistic concurrency strategy")
		strategy = service.StrategyPessimistic
	}
	return service.Options{
		Strategy:         strategy,
		MaxRetries:       cfg.MaxRetries,
		RetryBaseDelay:   cfg.RetryBaseDelay,
		MaxRetryDelay:    cfg.MaxRetryDelay,
		OperationTimeout: cfg.OperationTimeout,
	}
}

func newLedgerService(store repository.LedgerStore, cacheClient service.ICacheClient, opts service.Options) *service.LedgerService {
	var cache *service.BalanceCache
	if cacheClient != nil {
		cache = service.NewBalanceCache(cacheClient, config.AppConfig.Redis.BalanceTTL)
	}
	return service.NewLedgerService(store, cache, opts)
}

// openStore builds the configured backend, migrating the schema for postgres.
func openStore() (repository.LedgerStore, error) {
	lockTimeout := config.AppConfig.Database.LockTimeout

	switch config.AppConfig.Store.Backend {
	case config.BackendPostgres:
		database, err := db.Connect()
		if err != nil {
			return nil, err
		}
		if err := db.Migrate(database); err != nil {
			database.Close()
			return nil, err
		}
		return repository.NewPostgresStore(database, lockTimeout), nil
	default:
		logger.Log.Warn("Using the in-memory store; balances are lost on restart")
		return repository.NewMemoryStore(lockTimeout), nil
	}
}

func Run() {
	logger.Init()
	if err := config.LoadConfig("."); err != nil {
		logger.Log.Fatalf("Error loading configuration: %v", err)
	}
	if err := logger.Configure(config.AppConfig.Log.Level, config.AppConfig.Log.Format); err != nil {
		logger.Log.WithError(err).Warn("Invalid log settings; keeping defaults")
	}
	logger.Log.Info("Configuration loaded successfully")

	store, err := openStore()
	if err != nil {
		logger.Log.Fatalf("Error opening the ledger store: %v", err)
	}
	defer store.Close()

	var cacheClient service.ICacheClient
	if config.AppConfig.Redis.Enabled {
		rdb, err := db.ConnectRedis(context.Background())
		if err != nil {
			logger.Log.WithError(err).Warn("Redis unavailable; balance cache disabled")
		} else {
			defer rdb.Close()
			cacheClient = rdb
		}
	}

	opts := serviceOptions()
	ledgerService := newLedgerService(store, cacheClient, opts)
	ledgerHandler := handler.NewLedgerHandler(ledgerService)
	r := router.NewRouter(ledgerHandler, handler.NewHealthHandler(store))

	logger.Log.WithFields(logrus.Fields{
		"backend":     config.AppConfig.Store.Backend,
		"strategy":    opts.Strategy,
		"max_retries": opts.MaxRetries,
		"cache":       cacheClient != nil,
	}).Info("Ledger service wired")

	// --- Start the Server with Graceful Shutdown ---
	port := config.AppConfig.Server.Port
	srv := &http.Server{
		Addr:    ":" + port,
		Handler: r,
	}

	go func() {
		logger.Log.Infof("Server starting on port :%s", port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Log.Fatalf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Log.Warn("Shutdown signal received. Starting graceful shutdown...")

	ctx, cancel := context.WithTimeout(context.Background(), config.AppConfig.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Log.Errorf("Server forced to shutdown: %v", err)
		return
	}

	logger.Log.Info("Server exited properly")
}
