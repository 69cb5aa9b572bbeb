package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"fsanano/shop-api/internal/config"
	"fsanano/shop-api/internal/handler"
	"fsanano/shop-api/internal/repository"
	"fsanano/shop-api/internal/service"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func main() {
	// 1. Load config
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel}))
	slog.SetDefault(logger)

	// 2. Setup store
	ctx := context.Background()
	store, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		logger.Error("failed to open store", "driver", cfg.Driver, "error", err)
		os.Exit(1)
	}
	defer closeStore()
	logger.Info("store ready", "driver", cfg.Driver)

	// 3. Setup logic
	userHandler := handler.NewUserHandler(service.NewUserService(store), logger)
	productHandler := handler.NewProductHandler(service.NewProductService(store), logger)
	orderHandler := handler.NewOrderHandler(service.NewOrderService(store, store, store), logger)

	h := handler.NewHandler(handler.Options{
		Logger:         logger,
		Store:          store,
		RequestTimeout: cfg.RequestTimeout,
	}, userHandler, productHandler, orderHandler)

	// 4. Setup server
	server := &http.Server{
		Addr:    ":" + cfg.ServerPort,
		Handler: h,
	}

	// 5. Run server with graceful shutdown
	go func() {
		logger.Info("starting server", "port", cfg.ServerPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server failed", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 2)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
	}

	logger.Info("server exiting")
}

func openStore(ctx context.Context, cfg *config.Config) (service.Store, func(), error) {
	switch cfg.Driver {
	case config.DriverMongo:
		client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.Mongo.URI))
		if err != nil {
			return nil, nil, fmt.Errorf("connect: %w", err)
		}
		closeFn := func() { _ = client.Disconnect(context.Background()) }

		repo := repository.NewMongoRepository(client.Database(cfg.Mongo.Database))
		if err := repo.Ping(ctx); err != nil {
			closeFn()
			return nil, nil, fmt.Errorf("ping: %w", err)
		}
		if err := repo.EnsureIndexes(ctx); err != nil {
			closeFn()
			return nil, nil, fmt.Errorf("indexes: %w", err)
		}
		return repo, closeFn, nil

	case config.DriverPostgres:
		pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, fmt.Errorf("connect: %w", err)
		}

		repo := repository.NewPostgresRepository(pool)
		if err := repo.Ping(ctx); err != nil {
			pool.Close()
			return nil, nil, fmt.Errorf("ping: %w", err)
		}
		if err := repo.Migrate(ctx); err != nil {
			pool.Close()
			return nil, nil, fmt.Errorf("migrate: %w", err)
		}
		return repo, pool.Close, nil

	default:
		return repository.NewMemoryRepository(), func() {}, nil
	}
}
