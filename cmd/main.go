/*
Package main is the entry point for the studio site server.

It is responsible for loading configuration, initializing the global logging system,
opening the visitor store, wiring the remote API client and the realtime relay hub,
setting up the HTTP server and gracefully handling operating system interrupt signals
(SIGINT, SIGTERM) to ensure a smooth server shutdown.
*/
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"studiosite/internal/app/apiclient"
	"studiosite/internal/app/content"
	"studiosite/internal/app/guest"
	"studiosite/internal/app/kv"
	"studiosite/internal/app/media"
	"studiosite/internal/app/realtime"
	"studiosite/internal/configs"
	"studiosite/internal/handler"
	"studiosite/internal/pkg/assetx"
	"studiosite/internal/pkg/logx"
	"studiosite/internal/pkg/pow"
)

func main() {
	// Load configuration from environment variables
	cfg, err := configs.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize global logger
	logx.InitGlobalLogger(cfg.IsDevelopment())
	logx.Logger().Info().
		Str("environment", cfg.Environment).
		Int("port", cfg.Port).
		Strs("allowed_origins", cfg.AllowedOrigins).
		Int("pow_difficulty", cfg.PowDifficulty).
		Str("api_base_url", cfg.APIBaseURL).
		Str("realtime_url", cfg.RealtimeURL).
		Str("storage_driver", cfg.StorageDriver).
		Bool("media_enabled", cfg.MediaEnabled()).
		Msg("Configuration loaded successfully")

	// Create a context that listens for the interrupt signal from the OS.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	addr := cfg.RedisAddr
	if cfg.StorageDriver == configs.StoragePostgres {
		addr = cfg.DatabaseDSN
	}
	store, err := kv.Open(ctx, cfg.StorageDriver, addr)
	if err != nil {
		logx.Fatal(err, "Failed to open visitor store", "driver", cfg.StorageDriver)
	}
	defer func() {
		if err := store.Close(); err != nil {
			logx.Error(err, "Failed to close visitor store")
		}
	}()

	api := apiclient.New(apiclient.Config{
		BaseURL: cfg.APIBaseURL,
		Timeout: cfg.UpstreamTimeout,
	})

	var mediaService media.Service
	if cfg.MediaEnabled() {
		mediaService, err = media.NewService(ctx, media.ServiceConfig{
			S3BucketName:      cfg.S3BucketName,
			S3Endpoint:        cfg.S3Endpoint,
			S3AccessKeyID:     cfg.S3AccessKeyID,
			S3SecretAccessKey: cfg.S3SecretAccessKey,
		})
		if err != nil {
			logx.Fatal(err, "Failed to initialize media storage")
		}
	} else {
		logx.Warn("S3 settings incomplete, media uploads are disabled")
	}

	powManager := pow.NewManager(cfg.PowDifficulty)
	defer powManager.Close()

	hub := realtime.NewHub(cfg.RealtimeURL)

	limits := handler.NewLimiters()
	defer limits.Close()

	deps := &handler.AppDeps{
		Config:  cfg,
		Store:   store,
		API:     api,
		Content: content.NewService(api, assetx.NewResolver(cfg.AssetBaseURL)),
		Guests:  guest.NewBootstrapper(api, guest.NewGenerator()),
		Hub:     hub,
		PoW:     powManager,
		Media:   mediaService,
	}

	// Setup HTTP server and routes
	router := handler.Router(deps, limits)

	serverAddr := fmt.Sprintf(":%d", cfg.Port)
	server := &http.Server{
		Addr:         serverAddr,
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		logx.Info("Studio site server starting", "addr", "http://localhost"+serverAddr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logx.Fatal(err, "Server failed to start")
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server with a timeout of 5 seconds.
	<-ctx.Done()
	logx.Info("Received shutdown signal. Starting graceful shutdown...")

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logx.Error(err, "Server forced to shutdown")
	}

	hub.Shutdown()

	logx.Info("Server gracefully stopped.")
}
