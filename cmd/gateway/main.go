package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"nf_gateway/internal/config"
	"nf_gateway/internal/httpapi"
	"nf_gateway/internal/logging"
	"nf_gateway/internal/providers"
)

func defaultConfigPath() string {
	if p := os.Getenv("CONFIG_PATH"); p != "" {
		return p
	}
	return "config.yaml"
}

func main() {
	configPath := flag.String("config", defaultConfigPath(), "path to the YAML or TOML configuration document")
	flag.Parse()

	// A missing .env is normal outside development
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		logging.Warningf("Failed to load .env: %v", err)
	}

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		logging.Fatalf("Failed to load config: %v", err)
	}
	if err := logging.Configure(cfg.Logging.Level, cfg.Logging.Format); err != nil {
		logging.Fatalf("Failed to configure logging: %v", err)
	}

	// Build providers, key store and the rest; any provider failure stops startup
	deps, err := httpapi.NewDependencies(context.Background(), cfg, providers.NewProviderFactory())
	if err != nil {
		logging.Fatalf("Failed to initialize gateway: %v", err)
	}

	// Create HTTP server
	addr := ":" + cfg.Server.HTTPPort
	server := &http.Server{
		Addr:         addr,
		Handler:      httpapi.NewRouter(deps),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Start server in goroutine
	go func() {
		logging.Infof("NF gateway listening on %s", addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logging.Fatalf("Server error: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logging.Infof("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logging.Errorf("Server forced to shutdown: %v", err)
	}

	// Close providers and flush the dispatch log
	if err := deps.Close(); err != nil {
		logging.Errorf("Failed to release resources: %v", err)
	}

	logging.Infof("Server exited")
}
