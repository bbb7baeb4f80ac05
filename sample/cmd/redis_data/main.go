// redis_data читает ключ из хранилища эмбеддингов:
//
//	redis_data <address> <command> <key>
//
// Поддерживаемые команды: get.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kuroko-shirai/embedis/sample/config"
	"github.com/kuroko-shirai/embedis/v1/client"
	"github.com/kuroko-shirai/embedis/v1/cluster"
	"github.com/kuroko-shirai/embedis/v1/logger"
)

type flags struct {
	configPath     string
	backend        string
	logLevel       string
	maxConns       int
	connectTimeout time.Duration
	rwTimeout      time.Duration
}

func main() {
	if err := newCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

func newCommand() *cobra.Command {
	var f flags

	cmd := &cobra.Command{
		Use:   "redis_data <address> <command> <key>",
		Short: "Read a key from the embedding store",
		Long:  "Read a key from the embedding store.\n\nSupported commands: get",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true
			cfg, err := f.load(cmd)
			if err != nil {
				return err
			}
			return run(cmd.Context(), cmd.OutOrStdout(), cfg, args[0], args[1], args[2])
		},
	}

	cmd.Flags().StringVar(&f.configPath, "config", "", "path to YAML config")
	cmd.Flags().StringVar(&f.backend, "backend", cluster.BackendNative, "cluster backend: native, rueidis or goredis")
	cmd.Flags().StringVar(&f.logLevel, "log-level", "info", "log level")
	cmd.Flags().IntVar(&f.maxConns, "max-conns", 1, "max connections per node")
	cmd.Flags().DurationVar(&f.connectTimeout, "connect-timeout", time.Second, "connect timeout, 0 for none")
	cmd.Flags().DurationVar(&f.rwTimeout, "rw-timeout", time.Second, "read/write timeout, 0 for none")

	return cmd
}

// load собирает конфигурацию: значения по умолчанию, затем файл,
// затем явно заданные флаги.
func (it flags) load(cmd *cobra.Command) (config.Config, error) {
	cfg := config.Default()
	if len(it.configPath) > 0 {
		loaded, err := config.Load(it.configPath)
		if err != nil {
			return config.Config{}, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = *loaded
	}

	changed := cmd.Flags().Changed
	if changed("backend") || len(it.configPath) == 0 {
		cfg.Redis.Backend = it.backend
	}
	if changed("log-level") || len(it.configPath) == 0 {
		cfg.LogLevel = it.logLevel
	}
	if changed("max-conns") {
		cfg.Redis.MaxConns = it.maxConns
	}
	if changed("connect-timeout") {
		cfg.Redis.ConnectTimeout = it.connectTimeout
	}
	if changed("rw-timeout") {
		cfg.Redis.RWTimeout = it.rwTimeout
	}
	return cfg, nil
}

func run(ctx context.Context, out io.Writer, cfg config.Config, address, command, key string) error {
	if command != "get" {
		return fmt.Errorf("unsupported command %q, supported commands: get", command)
	}

	log, err := logger.New(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	redisCfg := cfg.Redis
	redisCfg.Addresses = cluster.ParseAddresses(address)

	c := client.Default.Instance()
	defer client.Default.Destroy()
	c.Apply(client.WithLogger(log))

	// Ошибка инициализации не прерывает работу: чтение ниже
	// сообщит о неинициализированном клиенте.
	if err := c.InitializeWithConfig(ctx, redisCfg); err != nil {
		fmt.Fprintf(out, "redis [%s] init failed: %v\n", address, err)
	}

	result := c.Get(ctx, key)
	switch result.Status {
	case client.StatusFound:
		fmt.Fprintf(out, "get [key:%s value:%s]\n", key, result.Value)
	case client.StatusNotFound:
		fmt.Fprintf(out, "get [key:%s not found]\n", key)
	default:
		fmt.Fprintf(out, "get [key:%s failed: %v]\n", key, result.Err)
		log.Debug("get failed", zap.String("key", key), zap.Error(result.Err))
		return result.Err
	}
	return nil
}
