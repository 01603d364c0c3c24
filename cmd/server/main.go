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

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/ayush/car-catalog/backend/internal/auth"
	"github.com/ayush/car-catalog/backend/internal/cars"
	"github.com/ayush/car-catalog/backend/internal/config"
	"github.com/ayush/car-catalog/backend/internal/logging"
	"github.com/ayush/car-catalog/backend/internal/server"
	"github.com/ayush/car-catalog/backend/internal/store"
)

func main() {
	if err := godotenv.Load(); err != nil {
		slog.Info("no .env file found; relying on existing environment")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("load config", "err", err)
		os.Exit(1)
	}
	log := logging.New(cfg.LogLevel, cfg.LogFormat, os.Stdout)
	slog.SetDefault(log)

	ctx := context.Background()

	// ── PostgreSQL ────────────────────────────────────────────
	pgPool, err := pgxpool.New(ctx, cfg.PostgresDSN)
	if err != nil {
		fatal(log, "postgres connect", err)
	}
	defer pgPool.Close()
	pgStore := store.NewPostgresStore(pgPool)
	if err := pgStore.Migrate(ctx); err != nil {
		fatal(log, "postgres migrate", err)
	}

	// ── Car store ────────────────────────────────────────────
	var carStore cars.Repository
	switch cfg.CarStore {
	case config.StoreMemory:
		log.Warn("using in-memory car store; records are lost on restart")
		carStore = store.NewMemoryStore()
	default:
		mongoClient, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
		if err != nil {
			fatal(log, "mongo connect", err)
		}
		defer mongoClient.Disconnect(ctx)
		if err := mongoClient.Ping(ctx, nil); err != nil {
			fatal(log, "mongo ping", err)
		}
		mongoStore := store.NewMongoStore(mongoClient.Database(cfg.MongoDB))
		if err := mongoStore.EnsureIndexes(ctx); err != nil {
			fatal(log, "mongo indexes", err)
		}
		carStore = mongoStore
	}

	// ── Redis ────────────────────────────────────────────────
	rdb, err := store.NewRedisClient(ctx, cfg.RedisAddr, cfg.RedisPassword)
	if err != nil {
		fatal(log, "redis connect", err)
	}
	defer rdb.Close()

	// ── Router ───────────────────────────────────────────────
	handler := server.NewRouter(server.Deps{
		Config:   cfg,
		Users:    pgStore,
		Cars:     carStore,
		Denylist: auth.NewRedisDenylist(rdb),
		Log:      log,
	})

	// ── Server ───────────────────────────────────────────────
	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       2 * time.Minute,
		WriteTimeout:      2 * time.Minute,
		IdleTimeout:       2 * time.Minute,
	}

	go func() {
		log.Info("backend listening", "addr", cfg.Addr(), "car_store", cfg.CarStore)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			fatal(log, "server error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down")
	shutCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutCtx); err != nil {
		log.Error("graceful shutdown", "err", err)
	}
}

func fatal(log *slog.Logger, msg string, err error) {
	log.Error(msg, "err", err)
	os.Exit(1)
}
