package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"time"

	"go.uber.org/zap"

	"github.com/smallflock/coopkeeper/internal/auth"
	"github.com/smallflock/coopkeeper/internal/config"
	"github.com/smallflock/coopkeeper/internal/repository/gormdb"
	"github.com/smallflock/coopkeeper/internal/scheduler"
	"github.com/smallflock/coopkeeper/internal/server/handlers"
	"github.com/smallflock/coopkeeper/internal/server/middleware"
	"github.com/smallflock/coopkeeper/internal/server/router"
	"github.com/smallflock/coopkeeper/internal/service/propagation"
	"github.com/smallflock/coopkeeper/pkg/logger"
)

func main() {
	cfg, err := config.Load("")
	if err != nil {
		panic(err)
	}

	baseLogger := logger.Must(logger.New(os.Getenv("LOG_LEVEL")))
	defer func() { _ = baseLogger.Sync() }()

	zap.ReplaceGlobals(baseLogger)

	db, err := gormdb.Open(cfg.Database, baseLogger.Named("repo.gormdb"))
	if err != nil {
		baseLogger.Fatal("failed to init database", zap.Error(err))
	}
	defer func() {
		if err := gormdb.Close(db); err != nil {
			baseLogger.Error("failed to close database connection", zap.Error(err))
		}
	}()

	verifier := auth.NewGoTrueClient(cfg.Auth, baseLogger.Named("auth"))

	eggRepo := gormdb.NewEggRepository(db)
	expenseRepo := gormdb.NewExpenseRepository(db)
	feedRepo := gormdb.NewFeedRepository(db)
	customerRepo := gormdb.NewCustomerRepository(db)
	saleRepo := gormdb.NewSaleRepository(db)
	flockRepo := gormdb.NewFlockRepository(db)
	eventRepo := gormdb.NewEventRepository(db)

	propagationSvc := propagation.NewService(db, baseLogger.Named("svc.propagation"))

	engine := router.New(router.Handlers{
		Eggs:        handlers.NewEggHandler(eggRepo, baseLogger.Named("handlers.eggs")),
		Expenses:    handlers.NewExpenseHandler(expenseRepo, baseLogger.Named("handlers.expenses")),
		Feed:        handlers.NewFeedHandler(feedRepo, cfg.Inventory.LowStockThreshold, baseLogger.Named("handlers.feed")),
		Customers:   handlers.NewCustomerHandler(customerRepo, baseLogger.Named("handlers.customers")),
		Sales:       handlers.NewSaleHandler(saleRepo, baseLogger.Named("handlers.sales")),
		Flock:       handlers.NewFlockHandler(flockRepo, baseLogger.Named("handlers.flock")),
		Batches:     handlers.NewBatchHandler(flockRepo, baseLogger.Named("handlers.batches")),
		BatchEvents: handlers.NewBatchEventHandler(eventRepo, flockRepo, propagationSvc, baseLogger.Named("handlers.batch_events")),
		FlockEvents: handlers.NewFlockEventHandler(eventRepo, baseLogger.Named("handlers.flock_events")),
	}, middleware.RequireAuth(verifier, baseLogger.Named("middleware.auth")), baseLogger.Named("router"))

	sched, err := scheduler.NewScheduler(*cfg, db, baseLogger.Named("scheduler"))
	if err != nil {
		baseLogger.Fatal("failed to init scheduler", zap.Error(err))
	}
	sched.Start()
	defer sched.Stop()

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      engine,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
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
