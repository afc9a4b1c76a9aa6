package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"autosense/internal"
	"autosense/internal/api"
	"autosense/internal/config"
	"autosense/internal/container"
	"autosense/internal/ops"
)

const shutdownTimeout = 10 * time.Second

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Printf("No .env file found, using environment variables")
	}

	appConfig, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	gin.SetMode(appConfig.Server.GinMode)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger := internal.DefaultLogger
	appContainer, err := container.New(ctx, appConfig, logger)
	if err != nil {
		log.Fatalf("Failed to initialize application: %v", err)
	}
	defer appContainer.Shutdown(context.Background())

	// Start pprof server for performance profiling
	if appConfig.Profiling.Enabled {
		opsServer := ops.NewServer(":"+appConfig.Profiling.Port, appConfig.Metrics.Enabled, logger)
		go func() {
			if err := opsServer.Run(ctx); err != nil {
				logger.Error("Ops server failed: %v", err)
			}
		}()
	}

	server := api.NewServer(appContainer.Service, api.Options{
		MaxUploadMB:    appConfig.Server.MaxUploadMB,
		MetricsEnabled: appConfig.Metrics.Enabled,
		Logger:         logger,
	})
	httpServer := &http.Server{
		Addr:              ":" + appConfig.Server.Port,
		Handler:           server.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("Graceful shutdown failed: %v", err)
		}
	}()

	logger.Info("Starting AutoSense server on port %s", appConfig.Server.Port)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("Server failed: %v", err)
	}
	logger.Info("Server stopped")
}
