package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fjod/go_cart/cart-service/internal/cache"
	"github.com/fjod/go_cart/cart-service/internal/config"
	"github.com/fjod/go_cart/cart-service/internal/engine"
	"github.com/fjod/go_cart/cart-service/internal/events"
	carthttp "github.com/fjod/go_cart/cart-service/internal/http"
	"github.com/fjod/go_cart/cart-service/internal/inventory"
	"github.com/fjod/go_cart/cart-service/internal/repository"
	"github.com/fjod/go_cart/pkg/logger"
	"github.com/fjod/go_cart/pkg/telemetry"
	"github.com/redis/go-redis/v9"
)

const serviceName = "cart-service"

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

	if err := run(cfg, log); err != nil {
		log.Error("cart service stopped with error", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := telemetry.Setup(ctx, serviceName, cfg.OTelEndpoint)
	if err != nil {
		return err
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := shutdownTracing(sctx); err != nil {
			log.Warn("failed to flush traces", "error", err)
		}
	}()

	var redisClient *redis.Client
	if cfg.StorageBackend == config.BackendRedis || cfg.CatalogCacheTTL > 0 {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		defer redisClient.Close()
		if err := redisClient.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("redis connection failed: %w", err)
		}
		log.Info("redis ping succeeded", "addr", cfg.RedisAddr)
	}

	store, closeStore, err := openStore(ctx, cfg, redisClient, log)
	if err != nil {
		return err
	}
	defer closeStore()

	httpClient := inventory.NewHTTPClient(cfg.RemoteTimeout)
	stock := inventory.NewStockClient(cfg.StockServiceURL, httpClient, cfg.Breaker(), log)

	var catalog engine.ProductReader = inventory.NewCatalogClient(cfg.CatalogServiceURL, httpClient, cfg.Breaker(), log)
	if cfg.CatalogCacheTTL > 0 {
		catalog = cache.NewCachedCatalog(catalog, cache.NewRedisCache(redisClient, cfg.CatalogCacheTTL), log)
		log.Info("product cache enabled", "ttl", cfg.CatalogCacheTTL)
	}

	notifier := engine.NewLogNotifier(log)
	eng, err := engine.New(ctx, store, stock, catalog,
		engine.WithLogger(log),
		engine.WithNotifier(notifier),
	)
	if err != nil {
		return fmt.Errorf("failed to start cart engine: %w", err)
	}
	cart := engine.NewNotifying(eng, notifier)

	publisherDone := make(chan struct{})
	if len(cfg.KafkaBrokers) > 0 {
		publisher := events.NewPublisher(cfg.KafkaBrokers, cfg.KafkaTopic, cfg.StorageKey, log)
		unsubscribe := cart.Subscribe(publisher.OnCartChanged)
		defer unsubscribe()
		go func() {
			defer close(publisherDone)
			publisher.Run(ctx)
			if err := publisher.Close(); err != nil {
				log.Error("failed to close publisher", "error", err)
			}
		}()
		log.Info("publishing cart events", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaTopic)
	} else {
		close(publisherDone)
	}

	handler := carthttp.NewCartHandler(cart, cfg.RequestTimeout, log)
	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      carthttp.NewRouter(handler, cfg.RequestTimeout, log),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: cfg.RequestTimeout + 5*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info("cart service listening", "port", cfg.HTTPPort, "storage", cfg.StorageBackend)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case <-ctx.Done():
	case err := <-serveErr:
		if err != nil {
			stop()
			<-publisherDone
			return fmt.Errorf("server error: %w", err)
		}
	}

	log.Info("shutting down cart service")
	sctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(sctx); err != nil {
		log.Error("server forced to shutdown", "error", err)
	}

	stop()
	<-publisherDone
	log.Info("cart service stopped")
	return nil
}

// openStore builds the configured CartStore and returns a func that releases
// its connections.
func openStore(ctx context.Context, cfg *config.Config, redisClient *redis.Client, log *slog.Logger) (repository.CartStore, func(), error) {
	switch cfg.StorageBackend {
	case config.BackendRedis:
		return repository.NewRedisStore(redisClient, cfg.StorageKey), func() {}, nil

	case config.BackendMongo:
		db, err := repository.ConnectMongoDB(ctx, cfg.MongoURI, cfg.MongoDBName)
		if err != nil {
			return nil, nil, err
		}
		store := repository.NewMongoStore(db, cfg.StorageKey)
		if err := store.CreateIndexes(ctx); err != nil {
			_ = db.Client().Disconnect(ctx)
			return nil, nil, err
		}
		log.Info("connected to mongodb", "database", cfg.MongoDBName)
		return store, func() {
			if err := db.Client().Disconnect(context.Background()); err != nil {
				log.Warn("failed to disconnect mongodb", "error", err)
			}
		}, nil

	case config.BackendSQLite, config.BackendPostgres:
		dialect := repository.Dialect(cfg.StorageBackend)
		dsn := cfg.SQLitePath
		if dialect == repository.DialectPostgres {
			dsn = cfg.PostgresDSN
		}
		db, err := repository.OpenSQL(ctx, dialect, dsn)
		if err != nil {
			return nil, nil, err
		}
		if err := repository.RunMigrations(db, dialect); err != nil {
			_ = db.Close()
			return nil, nil, err
		}
		log.Info("database ready", "dialect", string(dialect))
		return repository.NewSQLStore(db, cfg.StorageKey), func() { _ = db.Close() }, nil
	}

	return nil, nil, fmt.Errorf("unknown storage backend %q", cfg.StorageBackend)
}
