package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"discord_workflow/internal/config"
	"discord_workflow/internal/handler"
	"discord_workflow/internal/logger"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	env, err := config.FromOS()
	if err != nil {
		log.Fatalf("Failed to read environment: %v", err)
	}
	if err := logger.Init(env.LogLevel); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	secrets, err := config.NewSecretProvider(ctx, env)
	if err != nil {
		log.Fatalf("Failed to create secret provider: %v", err)
	}
	cfg, err := config.Load(ctx, env, secrets)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	h, err := handler.NewFromConfig(cfg, secrets)
	if err != nil {
		log.Fatalf("Failed to create handler: %v", err)
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler.NewRouter(h),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.GetLogger().Error("shutdown failed", zap.Error(err))
		}
	}()

	logger.GetLogger().Info("listening", zap.String("addr", srv.Addr))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.GetLogger().Fatal("server error", zap.Error(err))
	}
}
