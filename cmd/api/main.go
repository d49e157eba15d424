package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/angelmondragon/stockledger-backend/api/routes"
	"github.com/angelmondragon/stockledger-backend/internal/agreements"
	"github.com/angelmondragon/stockledger-backend/internal/auth"
	"github.com/angelmondragon/stockledger-backend/internal/ledger"
	"github.com/angelmondragon/stockledger-backend/internal/orders"
	product "github.com/angelmondragon/stockledger-backend/internal/products"
	"github.com/angelmondragon/stockledger-backend/internal/stock"
	"github.com/angelmondragon/stockledger-backend/internal/users"
	"github.com/angelmondragon/stockledger-backend/pkg/auth/session"
	"github.com/angelmondragon/stockledger-backend/pkg/config"
	"github.com/angelmondragon/stockledger-backend/pkg/db"
	"github.com/angelmondragon/stockledger-backend/pkg/logger"
	"github.com/angelmondragon/stockledger-backend/pkg/metrics"
	"github.com/angelmondragon/stockledger-backend/pkg/migrate"
	"github.com/angelmondragon/stockledger-backend/pkg/redis"
)

const shutdownTimeout = 15 * time.Second

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
		Format:      cfg.App.LogFormat,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(ctx, cfg, logg, dbClient); err != nil {
		logg.Error(ctx, "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(ctx, cfg.Redis, logg)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	sessionManager, err := session.NewManager(redisClient, cfg.JWT)
	if err != nil {
		logg.Error(ctx, "failed to create session manager", err)
		os.Exit(1)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	engineMetrics := metrics.NewEngineMetrics(registry)

	accounts := users.NewRepository(dbClient.DB())

	ledgerRepo := ledger.NewRepository(dbClient.DB())
	ledgerService, err := ledger.NewService(ledger.ServiceParams{
		Repo:          ledgerRepo,
		TxRunner:      dbClient,
		RecentDefault: cfg.Ledger.RecentDefault,
		RecentMax:     cfg.Ledger.RecentMax,
	})
	requireService(ctx, logg, "ledger service", err)

	stockRepo := stock.NewRepository(dbClient.DB())
	accountant, err := stock.NewAccountant(stock.AccountantParams{
		Repo:       stockRepo,
		Ledger:     ledgerService,
		LedgerRepo: ledgerRepo,
		TxRunner:   dbClient,
		Metrics:    engineMetrics,
	})
	requireService(ctx, logg, "stock accountant", err)

	productRepo := product.NewRepository(dbClient.DB())
	productService, err := product.NewService(product.ServiceParams{
		Repo:           productRepo,
		DB:             dbClient,
		Ledger:         ledgerService,
		Stock:          accountant,
		Metrics:        engineMetrics,
		CurrencySymbol: cfg.Ledger.CurrencySymbol,
	})
	requireService(ctx, logg, "product service", err)

	gate, err := agreements.NewGate(accounts, time.Now)
	requireService(ctx, logg, "agreement gate", err)

	orderService, err := orders.NewService(orders.ServiceParams{
		Repo:         orders.NewRepository(dbClient.DB()),
		TxRunner:     dbClient,
		Products:     productRepo,
		Accounts:     accounts,
		Agreements:   gate,
		StockRepo:    stockRepo,
		Stock:        accountant,
		Locker:       redisClient,
		Metrics:      engineMetrics,
		Logger:       logg,
		SummaryLimit: cfg.Orders.SummaryLimit,
		LockTTL:      cfg.Orders.LockTTL,
	})
	requireService(ctx, logg, "order service", err)

	authService, err := auth.NewService(auth.ServiceParams{
		AccountRepo:    accounts,
		SessionManager: sessionManager,
		JWTConfig:      cfg.JWT,
		Password:       &cfg.Password,
		Logger:         logg,
	})
	requireService(ctx, logg, "auth service", err)

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx = logg.WithFields(ctx, map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(cfg, logg, routes.Dependencies{
			DB:             dbClient,
			Redis:          redisClient,
			Sessions:       sessionManager,
			Gatherer:       registry,
			Auth:           authService,
			Products:       productService,
			Ledger:         ledgerService,
			Orders:         orderService,
			Accounts:       accounts,
			AgreementsGate: gate,
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logg.Info(ctx, "starting api server")
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case <-ctx.Done():
		logg.Info(ctx, "shutting down api server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(shutdownCtx, "graceful shutdown failed", err)
		}
	}
}

func requireService(ctx context.Context, logg *logger.Logger, name string, err error) {
	if err == nil {
		return
	}
	logg.Error(ctx, "failed to create "+name, err)
	os.Exit(1)
}
