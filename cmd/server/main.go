package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"time"

	"go.uber.org/zap"

	"github.com/messmaestro/maestro/internal/config"
	"github.com/messmaestro/maestro/internal/repository/mongodb"
	"github.com/messmaestro/maestro/internal/repository/sheets"
	"github.com/messmaestro/maestro/internal/scheduler"
	"github.com/messmaestro/maestro/internal/server/handlers"
	"github.com/messmaestro/maestro/internal/server/router"
	"github.com/messmaestro/maestro/internal/service/procurement"
	reportingsvc "github.com/messmaestro/maestro/internal/service/reporting"
	"github.com/messmaestro/maestro/pkg/clients/webhook"
	"github.com/messmaestro/maestro/pkg/logger"
)

func main() {
	cfg, err := config.Load("")
	if err != nil {
		panic(err)
	}

	baseLogger := logger.Must(logger.New(cfg.Log.Level))
	defer func() { _ = baseLogger.Sync() }()

	zap.ReplaceGlobals(baseLogger)

	mongoRepo, err := mongodb.NewMongoDBRepository(context.Background(), cfg.MongoDB.URI, cfg.MongoDB.DBName)
	if err != nil {
		baseLogger.Fatal("failed to init mongodb repository", zap.Error(err))
	}
	defer func() {
		if err := mongoRepo.Close(context.Background()); err != nil {
			baseLogger.Error("failed to close mongodb connection", zap.Error(err))
		}
	}()

	if err := mongoRepo.EnsureIndexes(context.Background()); err != nil {
		baseLogger.Warn("failed to ensure mongodb indexes", zap.Error(err))
	}

	var exporter reportingsvc.Exporter
	if cfg.Sheets.Enabled() {
		sheetsRepo, err := sheets.NewGoogleSheetRepository(context.Background(), cfg.Sheets, logger.Named(baseLogger, "repo.sheets"))
		if err != nil {
			baseLogger.Fatal("failed to init sheets repository", zap.Error(err))
		}
		exporter = sheetsRepo
	} else {
		baseLogger.Warn("sheets credentials missing, procurement export disabled")
	}

	var notifier reportingsvc.Notifier
	if cfg.Notify.WebhookURL != "" {
		notifier = webhook.NewClient(cfg.Notify)
		baseLogger.Info("procurement notifications enabled")
	} else {
		baseLogger.Warn("notify webhook missing, procurement notifications disabled")
	}

	procurementSvc := procurement.NewService(mongoRepo, logger.Named(baseLogger, "svc.procurement"),
		procurement.WithMaxRangeDays(cfg.Procurement.MaxRangeDays),
		procurement.WithFetchConcurrency(cfg.Procurement.FetchConcurrency))
	reportingSvc := reportingsvc.NewService(procurementSvc, mongoRepo, exporter, notifier, logger.Named(baseLogger, "svc.reporting"))

	procurementHandler := handlers.NewProcurementHandler(procurementSvc, reportingSvc, mongoRepo, logger.Named(baseLogger, "handlers.procurement"))
	engine := router.New(procurementHandler, logger.Named(baseLogger, "router"))

	sched, err := scheduler.NewScheduler(cfg.Procurement, reportingSvc, logger.Named(baseLogger, "scheduler"))
	if err != nil {
		baseLogger.Fatal("failed to init scheduler", zap.Error(err))
	}
	if err := sched.Start(); err != nil {
		baseLogger.Fatal("failed to start scheduler", zap.Error(err))
	}
	defer sched.Stop()

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      engine,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	go func() {
		baseLogger.Info("server starting", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			baseLogger.Fatal("http server crashed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	baseLogger.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		baseLogger.Error("graceful shutdown failed", zap.Error(err))
	}
}
