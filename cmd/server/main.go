package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/polyfolio/polyfolio/internal/server"
	"github.com/polyfolio/polyfolio/internal/services"
	"github.com/polyfolio/polyfolio/pkg/config"
	"github.com/polyfolio/polyfolio/pkg/logger"
	"github.com/polyfolio/polyfolio/pkg/sdk/api"
)

func main() {
	var (
		configPath = flag.String("config", "config.yaml", "config file path")
		listenAddr = flag.String("listen", ":8080", "listen address")
	)
	flag.Parse()

	// .env is optional; it just feeds the env overrides in config.
	_ = godotenv.Load()

	config.SetConfigPath(*configPath)
	cfg, err := config.Load()
	if err != nil {
		logger.Errorf("load config: %v", err)
		os.Exit(1)
	}

	if err := logger.Init(logger.Config{
		Level:      cfg.LogLevel,
		OutputFile: cfg.LogFile,
		MaxSize:    50,
		MaxBackups: 3,
		MaxAge:     7,
		Compress:   true,
	}); err != nil {
		logger.Errorf("init logger: %v", err)
		os.Exit(1)
	}

	client := api.NewClient(api.Options{
		GammaURL: cfg.API.GammaURL,
		DataURL:  cfg.API.DataURL,
		ClobURL:  cfg.API.ClobURL,
		Timeout:  cfg.Refresh.RequestTimeout,
	})

	snapshot := services.NewMarketSnapshot(client, cfg.Explorer.Limit, cfg.Refresh.SnapshotTTL)
	targeted := services.NewTargetedPriceFetcher(client)
	live := services.NewLiveQuoteCache(client, cfg.Refresh.LiveQuoteTTL)
	portfolio := services.NewPortfolioService(client, snapshot, targeted, live)

	// Warm the snapshot so the first request is not a cold fetch. Failure is
	// fine; the handlers refresh on demand.
	warmCtx, warmCancel := context.WithTimeout(context.Background(), cfg.Refresh.RequestTimeout)
	if err := snapshot.Refresh(warmCtx); err != nil {
		logger.Warnf("initial snapshot warm-up failed: %v", err)
	}
	warmCancel()

	srv := &http.Server{
		Addr:    *listenAddr,
		Handler: server.New(cfg, snapshot, portfolio).Router(),
	}

	go func() {
		logger.Infof("listening on %s", *listenAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Errorf("server: %v", err)
			os.Exit(1)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Infof("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
}
