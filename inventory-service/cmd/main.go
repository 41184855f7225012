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

	"github.com/fjod/go_cart/inventory-service/internal/config"
	inventoryhttp "github.com/fjod/go_cart/inventory-service/internal/http"
	"github.com/fjod/go_cart/inventory-service/internal/store"
	"github.com/fjod/go_cart/pkg/logger"
	"github.com/fjod/go_cart/pkg/telemetry"
)

const serviceName = "inventory-service"

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	log := logger.New(logger.Options{
		Service: serviceName,
		Env:     cfg.Env,
		Level:   cfg.LogLevel,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := telemetry.Setup(ctx, serviceName, cfg.OTelEndpoint)
	if err != nil {
		log.Error("failed to set up tracing", "error", err)
		os.Exit(1)
	}

	memStore := store.NewMemoryStore()
	for productID, amount := range cfg.InitialStock {
		if err := memStore.SetStock(productID, amount); err != nil {
			log.Error("failed to set initial stock", "product_id", productID, "error", err)
			os.Exit(1)
		}
	}
	log.Info("initialized stock", "products", len(cfg.InitialStock))

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      inventoryhttp.NewRouter(inventoryhttp.NewStockHandler(memStore, log)),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info("inventory service listening", "port", cfg.HTTPPort)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()

	log.Info("shutting down inventory service")
	sctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(sctx); err != nil {
		log.Error("server forced to shutdown", "error", err)
	}
	if err := shutdownTracing(sctx); err != nil {
		log.Warn("failed to flush traces", "error", err)
	}
	log.Info("inventory service stopped")
}
