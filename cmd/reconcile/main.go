package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/multierr"

	"github.com/angelmondragon/stockledger-backend/internal/ledger"
	"github.com/angelmondragon/stockledger-backend/internal/stock"
	"github.com/angelmondragon/stockledger-backend/pkg/config"
	"github.com/angelmondragon/stockledger-backend/pkg/db"
	"github.com/angelmondragon/stockledger-backend/pkg/logger"
	"github.com/angelmondragon/stockledger-backend/pkg/metrics"
)

const jobName = "stock_reconcile"

func main() {
	ctx := context.Background()
	logg := logger.New(logger.Options{ServiceName: "reconcile"})

	_ = godotenv.Load()

	heal := flag.Bool("heal", false, "overwrite drifted cached stock with the ledger-derived value")
	metricsFile := flag.String("metrics-file", "", "write job metrics in text exposition format to this path")
	failOnDrift := flag.Bool("fail-on-drift", false, "exit non-zero when unhealed drift is found")
	flag.Parse()

	cfg, err := config.Load()
	requireResource(ctx, logg, "config", err)

	logg = logger.New(logger.Options{
		ServiceName: "reconcile",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
		Format:      cfg.App.LogFormat,
	})
	ctx = logg.WithFields(ctx, map[string]any{
		"env":  cfg.App.Env,
		"heal": *heal,
	})

	dbClient, err := db.New(ctx, cfg.DB, logg)
	requireResource(ctx, logg, "database", err)
	defer dbClient.Close()

	registry := prometheus.NewRegistry()
	jobMetrics := metrics.NewJobMetrics(registry)
	engineMetrics := metrics.NewEngineMetrics(registry)

	ledgerRepo := ledger.NewRepository(dbClient.DB())
	ledgerService, err := ledger.NewService(ledger.ServiceParams{
		Repo:     ledgerRepo,
		TxRunner: dbClient,
	})
	requireResource(ctx, logg, "ledger service", err)

	accountant, err := stock.NewAccountant(stock.AccountantParams{
		Repo:       stock.NewRepository(dbClient.DB()),
		Ledger:     ledgerService,
		LedgerRepo: ledgerRepo,
		TxRunner:   dbClient,
		Metrics:    engineMetrics,
	})
	requireResource(ctx, logg, "stock accountant", err)

	started := time.Now()
	results, err := accountant.ReconcileAll(ctx, *heal)
	jobMetrics.ObserveDuration(jobName, time.Since(started))
	if err != nil {
		jobMetrics.IncFailure(jobName)
		for _, failure := range multierr.Errors(err) {
			logg.Error(ctx, "product reconcile failed", failure)
		}
		if len(results) == 0 {
			writeMetrics(ctx, logg, registry, *metricsFile)
			os.Exit(1)
		}
	} else {
		jobMetrics.IncSuccess(jobName)
	}

	drifted := 0
	enc := json.NewEncoder(os.Stdout)
	for _, rec := range results {
		if rec.Drift == 0 {
			continue
		}
		if !rec.Healed {
			drifted++
		}
		logg.Warn(logg.WithFields(ctx, map[string]any{
			"product_id": rec.ProductID,
			"cached":     rec.Cached,
			"derived":    rec.Derived,
			"drift":      rec.Drift,
			"healed":     rec.Healed,
		}), "stock drift detected")
		_ = enc.Encode(rec)
	}

	logg.Info(logg.WithFields(ctx, map[string]any{
		"products": len(results),
		"drifted":  drifted,
	}), "reconcile complete")
	writeMetrics(ctx, logg, registry, *metricsFile)

	if err != nil {
		os.Exit(1)
	}
	if *failOnDrift && drifted > 0 {
		os.Exit(2)
	}
}

func writeMetrics(ctx context.Context, logg *logger.Logger, registry *prometheus.Registry, path string) {
	if path == "" {
		return
	}
	if err := prometheus.WriteToTextfile(path, registry); err != nil {
		logg.Error(ctx, "failed to write metrics file", err)
	}
}

func requireResource(ctx context.Context, logg *logger.Logger, resource string, err error) {
	if err == nil {
		return
	}
	logg.Error(ctx, fmt.Sprintf("resource not working: %s", resource), err)
	os.Exit(1)
}
