package main

import (
	"context"
	"crewfinder/backend/internal/admin"
	"crewfinder/backend/internal/api/handler"
	"crewfinder/backend/internal/auth"
	"crewfinder/backend/internal/board"
	"crewfinder/backend/internal/chat"
	"crewfinder/backend/internal/chathub"
	"crewfinder/backend/internal/config"
	"crewfinder/backend/internal/logging"
	"crewfinder/backend/internal/outbox"
	"crewfinder/backend/internal/profile"
	"crewfinder/backend/internal/storage"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

func setupDependencies(ctx context.Context, cfg *config.Config) (*gorm.DB, *redis.Client) {
	logger := logging.L()

	// 1. База даних
	db, err := storage.Open(cfg.Database)
	if err != nil {
		logger.Fatal().Err(err).Str("driver", cfg.Database.Driver).Msg("failed to connect database")
	}

	// 2. Redis
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if _, err := rdb.Ping(ctx).Result(); err != nil {
		logger.Fatal().Err(err).Str("addr", cfg.Redis.Addr).Msg("failed to connect redis")
	}

	// 3. Міграції
	if err := storage.Migrate(db); err != nil {
		logger.Fatal().Err(err).Msg("migration failed")
	}

	logger.Info().Msg("database and redis connections established, migrations complete")
	return db, rdb
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.L().Fatal().Err(err).Msg("failed to load config")
	}
	logging.Init(logging.Config{Level: cfg.Log.Level, Pretty: cfg.Log.Pretty, ServiceName: "crewfinder"})
	logger := logging.L()
	logger.Info().Msg("starting crewfinder backend")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 1. Ініціалізація залежностей
	db, rdb := setupDependencies(ctx, cfg)
	store := storage.NewStorageService(db, rdb)
	queue := outbox.NewQueue(rdb)

	// 2. Сервіси
	authSvc := auth.NewService(store, auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL, cfg.Auth.Issuer))
	chatSvc := chat.NewService(store, store)
	boardSvc := board.NewService(store, queue)
	hub := chathub.NewManagerService(chatSvc, store)

	if _, err := boardSvc.SeedGames(ctx); err != nil {
		logger.Error().Err(err).Msg("failed to seed game catalogue")
	}

	// 3. Запуск основних Goroutines
	// A failing hub cancels gctx, which shuts the server down as well.
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return hub.Run(gctx)
	})
	worker := &outbox.Worker{Queue: queue, Apply: boardSvc.ApplyQueued, Interval: cfg.Outbox.ReplayInterval}
	g.Go(func() error {
		worker.Run(gctx)
		return nil
	})

	// 4. Налаштування Gin та роутингу
	gin.SetMode(cfg.Server.Mode)
	r := gin.New()
	r.Use(gin.Recovery(), logging.GinMiddleware(*logger))

	h := &handler.Handler{
		Auth:    authSvc,
		Profile: profile.NewService(store),
		Board:   boardSvc,
		Chat:    chatSvc,
		Admin:   admin.NewService(store),
		Hub:     hub,
	}
	h.Register(r)

	server := &http.Server{
		Addr:           ":" + cfg.Server.Port,
		Handler:        r,
		ReadTimeout:    cfg.Server.ReadTimeout,
		WriteTimeout:   cfg.Server.WriteTimeout,
		MaxHeaderBytes: 1 << 20,
	}

	go func() {
		logger.Info().Str("addr", server.Addr).Msg("http server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	<-gctx.Done()
	logger.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
	}
	if err := g.Wait(); err != nil {
		logger.Error().Err(err).Msg("background worker failed")
	}

	if err := rdb.Close(); err != nil {
		logger.Warn().Err(err).Msg("failed to close redis")
	}
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}
