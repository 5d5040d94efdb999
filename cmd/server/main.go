package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/pflag"

	"github.com/sudo-init-do/marketfront/internal/admin"
	"github.com/sudo-init-do/marketfront/internal/api"
	"github.com/sudo-init-do/marketfront/internal/config"
	"github.com/sudo-init-do/marketfront/internal/gateway"
	"github.com/sudo-init-do/marketfront/internal/logging"
	"github.com/sudo-init-do/marketfront/internal/metrics"
	"github.com/sudo-init-do/marketfront/internal/redisx"
	"github.com/sudo-init-do/marketfront/internal/refdata"
)

func main() {
	fs := pflag.NewFlagSet("server", pflag.ExitOnError)
	config.RegisterFlags(fs, "http_addr", "backend_url", "redis_addr", "log_level", "log_format")
	_ = fs.Parse(os.Args[1:])

	cfg, err := config.Load(fs)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger, logCloser, err := logging.Init(cfg.Log)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer logCloser.Close()

	m := metrics.New("marketfront")
	client := api.New(api.Options{
		BaseURL:    cfg.BackendURL,
		Timeout:    cfg.HTTPTimeout,
		Logger:     logger,
		OnResponse: m.ObserveBackend,
	})

	// Redis is optional; without it reference data is fetched every time.
	var rdb *redis.Client
	if cfg.RedisAddr != "" {
		rdb = redisx.New(cfg.RedisAddr)
		defer rdb.Close()
	}

	e := gateway.New(gateway.Deps{
		API:           client,
		Refdata:       refdata.NewService(client, rdb, cfg.RefdataTTL, logger),
		Admin:         admin.NewService(client, 0),
		Metrics:       m,
		Redis:         rdb,
		Logger:        logger,
		HomeBatchSize: cfg.HomeBatchSize,
	})

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           e,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("gateway listening", "addr", cfg.HTTPAddr, "backend", cfg.BackendURL)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	slog.Info("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("shutdown", "error", err)
	}
}
