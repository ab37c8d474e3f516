package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/roofledger/scopediff/internal/api"
	"github.com/roofledger/scopediff/internal/config"
	"github.com/roofledger/scopediff/internal/ingestion"
	"github.com/roofledger/scopediff/internal/metrics"
	"github.com/roofledger/scopediff/internal/reconciliation"
	"github.com/roofledger/scopediff/internal/repository"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load config", "error", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.Level(),
	}))
	slog.SetDefault(logger)

	logger.Info("Initializing database", "path", cfg.DBPath)
	db, err := repository.InitDB(cfg.DBPath)
	if err != nil {
		logger.Error("Failed to init DB", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	// Create repositories.
	estimates := repository.NewEstimateRepo(db)
	comparisons := repository.NewComparisonRepo(db)

	// Create services.
	reconSvc := reconciliation.NewService(estimates, comparisons, m, logger)
	ingestionSvc := ingestion.NewService(estimates, reconSvc, m, logger)

	router := api.NewRouter(api.Deps{
		Estimates:      estimates,
		Reconciliation: reconSvc,
		Ingestion:      ingestionSvc,
		Gatherer:       reg,
		AllowedOrigins: cfg.CORS.AllowedOrigins,
		Logger:         logger,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.Info("Scope delta service listening",
			"addr", "http://localhost:"+cfg.Port,
			"api_base", "http://localhost:"+cfg.Port+"/api/v1")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Server failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Shutdown failed", "error", err)
	}
	logger.Info("Server stopped")
}
