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

	"github.com/Tutortoise/tryon-compositor-service/compositing"
	"github.com/Tutortoise/tryon-compositor-service/config"
	"github.com/Tutortoise/tryon-compositor-service/logger"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("cannot load config: %v", err)
	}

	level := cfg.LogLevel
	if cfg.Debug {
		level = "debug"
	}
	applog, err := logger.NewAppLogger(cfg.AppEnv, level)
	if err != nil {
		log.Fatalf("cannot init logger: %v", err)
	}
	defer logger.Sync(applog)

	pool := NewBufferPool(cfg.BufferPoolSize)
	defer pool.Destroy()

	state := &AppState{
		Config:     cfg,
		Logger:     applog,
		Pool:       pool,
		Compositor: compositing.NewCompositor(compositing.DefaultOptions()),
		StartedAt:  time.Now(),
	}

	srv := &http.Server{
		Handler:      state.newRouter(),
		Addr:         cfg.Addr(),
		WriteTimeout: cfg.WriteTimeout,
		ReadTimeout:  cfg.ReadTimeout,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		applog.Infow("server started", "addr", srv.Addr, "env", cfg.AppEnv)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			applog.Fatalf("listen: %v", err)
		}
	}()

	<-ctx.Done()
	applog.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		applog.Errorf("graceful shutdown: %v", err)
	}
}
