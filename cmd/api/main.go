package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"medhive-backend/config"
	_ "medhive-backend/docs" // Important for Swagger
	"medhive-backend/internal/app"
	v1 "medhive-backend/internal/delivery/http/v1"
	"medhive-backend/pkg/logger"
	"medhive-backend/pkg/telemetry"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// @title           MedHive Inquiry API
// @version         1.0
// @description     Partnership inquiry intake: validates a submission and notifies the MedHive team and the sender.
// @host            localhost:5000
// @BasePath        /
func main() {
	// 1. Load Config
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// 2. Setup Logger
	logger.Init(cfg.AppEnv, cfg.LogLevel)
	logger.Log.Info("Starting inquiry service", "port", cfg.Port, "env", cfg.AppEnv)
	if !cfg.IsDevelopment() {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 3. Setup Tracing
	shutdownTracing, err := telemetry.Setup(ctx, telemetry.Config{
		Enabled:      cfg.OTelEnabled,
		ServiceName:  cfg.OTelServiceName,
		OTLPEndpoint: cfg.OTelEndpoint,
		SampleRatio:  cfg.OTelSampleRatio,
	})
	if err != nil {
		logger.Log.Error("Failed to setup tracing", "error", err)
		os.Exit(1)
	}

	// 4. Setup Dependencies (mailer, redis, dedup, events, usecases)
	container, err := app.New(ctx, cfg, logger.Log)
	if err != nil {
		logger.Log.Error("Failed to build dependencies", "error", err)
		os.Exit(1)
	}

	// 5. Setup Router
	router, err := v1.NewRouter(v1.RouterDeps{
		InquiryUC: container.InquiryUC,
		HealthUC:  container.HealthUC,
		Audit:     container.Audit,
		Redis:     container.RedisClient(),
		Logger:    logger.Log,
		Config:    cfg,
	})
	if err != nil {
		logger.Log.Error("Failed to build router", "error", err)
		container.Close()
		os.Exit(1)
	}

	// 6. Start Server
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           otelhttp.NewHandler(router, "medhive-inquiry"),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Log.Error("Listen failed", "error", err)
			stop()
		}
	}()

	// Graceful Shutdown
	<-ctx.Done()
	logger.Log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Log.Error("Server forced to shutdown", "error", err)
	}
	if err := container.Close(); err != nil {
		logger.Log.Error("Failed to close dependencies", "error", err)
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		logger.Log.Error("Failed to flush traces", "error", err)
	}

	logger.Log.Info("Server exiting")
}
