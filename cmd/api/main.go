package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Dan9191/asset-service/internal/config"
	"github.com/Dan9191/asset-service/internal/consumer"
	"github.com/Dan9191/asset-service/internal/handler"
	"github.com/Dan9191/asset-service/internal/integrations/paymentrecord"
	"github.com/Dan9191/asset-service/internal/middleware"
	"github.com/Dan9191/asset-service/internal/repository"
	"github.com/Dan9191/asset-service/internal/scheduler"
	"github.com/Dan9191/asset-service/internal/service"
	"github.com/Dan9191/asset-service/internal/utils/email"
	"github.com/gorilla/mux"
	_ "github.com/lib/pq"
	"github.com/sirupsen/logrus"
)

func main() {
	// Initialize logger
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})

	// Load configuration
	cfg, err := config.NewConfig()
	if err != nil {
		logger.Fatalf("Failed to load config: %v", err)
	}
	logLevel, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		logLevel = logrus.InfoLevel
	}
	logger.SetLevel(logLevel)

	// Initialize database
	db, err := sql.Open("postgres", cfg.DBConn)
	if err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()
	if err := db.Ping(); err != nil {
		logger.Fatalf("Failed to ping database: %v", err)
	}

	// Initialize layers
	repo := repository.NewRepository(db)
	records := paymentrecord.NewClient(cfg, logger)
	var notifier service.Notifier
	if sender := email.NewSender(cfg, logger); sender != nil {
		notifier = sender
	}
	svc := service.NewService(repo, records, notifier, logger)
	h := handler.NewHandler(svc, logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Message consumer
	c := consumer.NewConsumer(cfg, svc, logger)
	if err := c.Connect(ctx); err != nil {
		logger.Fatalf("Failed to start consumer: %v", err)
	}
	defer c.Close()
	go func() {
		if err := c.Run(ctx); err != nil {
			logger.Errorf("Consumer stopped: %v", err)
		}
	}()

	// Daily balance snapshot
	sched, err := scheduler.NewScheduler(cfg.SnapshotCron, svc, logger)
	if err != nil {
		logger.Fatalf("Failed to create scheduler: %v", err)
	}
	sched.Start()
	defer sched.Stop()

	// Setup router
	r := mux.NewRouter()
	r.Use(middleware.AuthMiddleware(cfg))
	h.Register(r)

	// Start server
	addr := fmt.Sprintf(":%s", cfg.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
	go func() {
		logger.Infof("Starting server on %s", addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("Server failed: %v", err)
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("Server shutdown failed: %v", err)
	}
}
