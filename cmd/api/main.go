package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"scicalc/internal/app"
	"scicalc/internal/calculator"
	"scicalc/internal/config"
	"scicalc/internal/observability"
	"scicalc/internal/server"

	"go.uber.org/zap"
)

func main() {

	ctx := context.Background()

	if err := loadDotEnv(); err != nil {
		panic(err)
	}

	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	// Logger
	if err := observability.InitLogger(cfg.Log.Level); err != nil {
		panic(err)
	}
	defer observability.SyncLogger()

	// Tracing, metrics and log export
	observability.SetServiceName(cfg.Telemetry.ServiceName)
	if cfg.Telemetry.Enabled {
		shutdown, err := initTelemetry(ctx)
		if err != nil {
			panic(err)
		}
		defer shutdown(ctx)
	}

	// Sessions, storage, explanations
	rt, err := app.New(ctx, cfg, observability.Logger)
	if err != nil {
		panic(err)
	}
	defer rt.Close()

	if err := calculator.RegisterSessionGauge(rt.Sessions); err != nil {
		panic(err)
	}

	// Router
	router := server.NewRouter(calculator.NewHandler(rt.Sessions))

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		observability.Logger.Info("server started", zap.String("addr", cfg.Server.Addr))

		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			observability.Logger.Fatal("server failed", zap.Error(err))
		}
	}()

	waitForShutdown(srv)
}

func waitForShutdown(srv *http.Server) {

	stop := make(chan os.Signal, 1)

	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	<-stop

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		observability.Logger.Warn("graceful shutdown failed", zap.Error(err))
	}
}
