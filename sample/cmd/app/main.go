package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"slices"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kuroko-shirai/embedis/sample/config"
	"github.com/kuroko-shirai/embedis/sample/service"
	"github.com/kuroko-shirai/embedis/v1/client"
	"github.com/kuroko-shirai/embedis/v1/logger"
	"github.com/kuroko-shirai/embedis/v1/metrics"
	"github.com/kuroko-shirai/embedis/v1/monitor"
)

func main() {
	var (
		configPath  string
		metricsAddr string
	)

	cmd := &cobra.Command{
		Use:          "app",
		Short:        "Embedding store demo service",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd.Context(), configPath, metricsAddr)
		},
	}
	cmd.Flags().StringVar(&configPath, "config", "./config.yaml", "path to YAML config")
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", ":9100", "address for /metrics, empty to disable")

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := cmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func run(ctx context.Context, configPath, metricsAddr string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	log, err := logger.New(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	registry := prometheus.NewRegistry()
	m := metrics.New(registry, "embedis")

	store := client.Default.Instance()
	defer client.Default.Destroy()
	store.Apply(client.WithLogger(log), client.WithMetrics(m))
	if err := store.InitializeWithConfig(ctx, cfg.Redis); err != nil {
		return err
	}

	// Хранилище VRE поднимаем только если для него заданы адреса.
	if len(cfg.Vre.Addresses) > 0 {
		vre := client.Vre.Instance()
		defer client.Vre.Destroy()
		vre.Apply(client.WithLogger(log.Named("vre")), client.WithMetrics(m))
		if err := vre.InitializeWithConfig(ctx, cfg.Vre); err != nil {
			return err
		}
	}

	if cfg.MonitorDelay > 0 {
		mon, err := monitor.New(monitor.Config{
			Username:  cfg.Redis.Username,
			Password:  cfg.Redis.Password,
			Addresses: slices.Concat(cfg.Redis.Addresses, cfg.Vre.Addresses),
			Delay:     cfg.MonitorDelay,
			Timeout:   cfg.Redis.RWTimeout,
		}, monitor.WithLogger(log.Named("monitor")), monitor.WithMetrics(m))
		if err != nil {
			return fmt.Errorf("failed to create monitor: %w", err)
		}
		defer mon.Close()
		go mon.Run(ctx)
	}

	svc, err := service.New(service.Config{Store: store, TTL: time.Hour})
	if err != nil {
		return fmt.Errorf("failed to create service: %w", err)
	}

	// Тестовый вызов
	if err := svc.PutEmbedding(ctx, 5505, "0.12,0.54,0.33"); err != nil {
		return err
	}
	vector, ok, err := svc.GetEmbedding(ctx, 5505)
	if err != nil {
		return fmt.Errorf("failed to get embedding: %w", err)
	}
	log.Info("got an embedding from redis", zap.Bool("found", ok), zap.String("vector", vector))

	if len(metricsAddr) == 0 {
		<-ctx.Done()
		log.Info("shutting down...")
		return nil
	}

	server := &http.Server{
		Addr:              metricsAddr,
		Handler:           promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	log.Info("serving metrics", zap.String("address", metricsAddr))
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	log.Info("shutting down...")
	return nil
}
