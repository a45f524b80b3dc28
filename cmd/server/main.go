package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/spacesedan/sentiscope/config"
	"github.com/spacesedan/sentiscope/internal/analysis"
	"github.com/spacesedan/sentiscope/internal/auth"
	"github.com/spacesedan/sentiscope/internal/clients"
	"github.com/spacesedan/sentiscope/internal/db"
	"github.com/spacesedan/sentiscope/internal/logging"
	"github.com/spacesedan/sentiscope/internal/monitoring"
	"github.com/spacesedan/sentiscope/internal/sentiment"
	"github.com/spacesedan/sentiscope/internal/server"
)

const shutdownTimeout = 10 * time.Second

func main() {
	env := os.Getenv("APP_ENV")
	if env == "" {
		env = "dev"
	}
	config.LoadEnv(env)

	cfg, err := config.Load()
	if err != nil {
		slog.Error("[Main] Failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}
	logging.InitLogger(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	clock := clockwork.NewRealClock()
	var healthChecks []server.HealthCheck

	var scorer sentiment.Scorer = sentiment.NewVaderScorer()
	if cfg.ValkeyAddress != "" {
		vc, err := clients.NewValkeyClient(clients.ValkeyConfig{
			Address:  cfg.ValkeyAddress,
			Password: cfg.ValkeyPassword,
			TLS:      cfg.ValkeyTLS,
		})
		if err != nil {
			slog.Error("[Main] Failed to connect to valkey", slog.String("error", err.Error()))
			os.Exit(1)
		}
		defer vc.Close()

		cacheHealthy := &atomic.Bool{}
		cacheHealthy.Store(true)
		go monitoring.MonitorHealth(ctx, clock, "valkey", vc, cacheHealthy, monitoring.HEALTHCHECK_INTERVAL)

		scorer = sentiment.NewCachedScorer(scorer, vc, cfg.CacheTTL, cacheHealthy)
		healthChecks = append(healthChecks, server.HealthCheck{Name: "valkey", Check: vc.Ping})
	}

	var sinks analysis.MultiSink
	if cfg.ResultsTable != "" {
		client, err := clients.NewDynamoDBClient(ctx, cfg.AWSRegion, cfg.AWSEndpoint)
		if err != nil {
			slog.Error("[Main] Failed to create dynamodb client", slog.String("error", err.Error()))
			os.Exit(1)
		}
		store := db.NewResultStore(client, cfg.ResultsTable)
		sinks = append(sinks, store)
		healthChecks = append(healthChecks, server.HealthCheck{Name: "dynamodb", Check: store.Ping})
	}
	if cfg.KafkaBroker != "" {
		publisher, err := clients.NewKafkaPublisher(cfg.KafkaBroker, cfg.KafkaResultsTopic)
		if err != nil {
			slog.Error("[Main] Failed to create kafka producer", slog.String("error", err.Error()))
			os.Exit(1)
		}
		defer publisher.Close()
		sinks = append(sinks, publisher)
	}

	var sink analysis.ResultSink
	if len(sinks) > 0 {
		sink = sinks
	}

	store, err := auth.NewStaticStore(auth.Credential{
		Username: cfg.AuthUsername,
		Password: cfg.AuthPassword,
	})
	if err != nil {
		slog.Error("[Main] Invalid credentials config", slog.String("error", err.Error()))
		os.Exit(1)
	}
	tokens := auth.NewTokenService(cfg.SecretKey, cfg.TokenTTL, store, clock)

	srv := server.NewServer(cfg, tokens, analysis.NewService(scorer, sink, clock), healthChecks)

	go func() {
		if err := srv.Start(); err != nil {
			slog.Error("[Main] Server stopped", slog.String("error", err.Error()))
			stop()
		}
	}()

	<-ctx.Done()
	slog.Info("[Main] Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("[Main] Graceful shutdown failed", slog.String("error", err.Error()))
	}
}
