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

	"go.uber.org/zap"

	"github.com/DoyleJ11/blockrush-server/internal/config"
	"github.com/DoyleJ11/blockrush-server/internal/engine"
	"github.com/DoyleJ11/blockrush-server/internal/httpapi"
	"github.com/DoyleJ11/blockrush-server/internal/hub"
	"github.com/DoyleJ11/blockrush-server/internal/leaderboard"
	"github.com/DoyleJ11/blockrush-server/internal/logging"
	"github.com/DoyleJ11/blockrush-server/internal/ws"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}

	logger, err := logging.New(cfg.Development(), cfg.LogLevel)
	if err != nil {
		fmt.Fprintln(os.Stderr, "logger:", err)
		os.Exit(1)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := openStore(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("open leaderboard store", zap.String("backend", cfg.LeaderboardBackend), zap.Error(err))
	}
	defer store.Close()

	h := hub.NewHub(ctx, hub.Options{
		Rules:          engine.Rules{Capacity: cfg.RoomCapacity},
		Store:          store,
		Logger:         logger,
		LeaderboardTop: cfg.LeaderboardTop,
	})

	handler := httpapi.SetupRoutes(h, logger, ws.Options{
		Logger:         logger,
		OriginPatterns: cfg.AllowedOrigins,
		PingInterval:   cfg.PingInterval,
	})

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("listening", zap.String("addr", cfg.Addr), zap.String("leaderboard", cfg.LeaderboardBackend))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	h.Shutdown()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("graceful shutdown failed", zap.Error(err))
	}
}

func openStore(ctx context.Context, cfg config.Config, logger *zap.Logger) (leaderboard.Store, error) {
	switch cfg.LeaderboardBackend {
	case config.BackendMemory:
		return leaderboard.NewMemoryStore(), nil
	case config.BackendPostgres:
		return leaderboard.OpenPostgres(leaderboard.PostgresConfig{
			Host:     cfg.DBHost,
			User:     cfg.DBUser,
			Password: cfg.DBPassword,
			Name:     cfg.DBName,
			SSLMode:  cfg.DBSSLMode,
		}, logger)
	case config.BackendRedis:
		return leaderboard.OpenRedis(ctx, leaderboard.RedisConfig{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		}, logger)
	default:
		return leaderboard.OpenFileStore(cfg.ScoresFile)
	}
}
