// Package client - типизированный фасад над cluster.Cluster:
// GET, SET, PEXPIRE, ZADD, ZSCORE, SADD, SISMEMBER.
//
// Клиент отклоняет любые команды до успешного Initialize.
// Для процесса заведены два именованных экземпляра: Default и Vre.
package client

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/kuroko-shirai/embedis/v1/cluster"
	"github.com/kuroko-shirai/embedis/v1/errs"
	"github.com/kuroko-shirai/embedis/v1/metrics"
	"github.com/kuroko-shirai/embedis/v1/resp"
)

type (
	Option func(*Client)

	Client struct {
		mu      sync.RWMutex
		cluster cluster.Cluster
		log     *zap.Logger
		metrics *metrics.Metrics
	}
)

func WithLogger(log *zap.Logger) Option {
	return func(it *Client) {
		it.log = log
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(it *Client) {
		it.metrics = m
	}
}

func New(opts ...Option) *Client {
	c := &Client{log: zap.NewNop()}
	c.Apply(opts...)
	return c
}

// Apply применяет опции к уже созданному клиенту, например к экземпляру
// из Default.Instance(). Действует на следующий Initialize.
func (it *Client) Apply(opts ...Option) {
	it.mu.Lock()
	defer it.mu.Unlock()

	for _, opt := range opts {
		opt(it)
	}
}

// Initialize подключается к address ("host:port" или несколько адресов
// через запятую) и проверяет каждый узел командой PING.
// Таймауты в миллисекундах, 0 - без ограничения.
func (it *Client) Initialize(ctx context.Context, address string, maxConns, connectTimeoutMs, rwTimeoutMs int) error {
	return it.InitializeWithConfig(ctx, cluster.Config{
		Addresses:      cluster.ParseAddresses(address),
		MaxConns:       maxConns,
		ConnectTimeout: time.Duration(connectTimeoutMs) * time.Millisecond,
		RWTimeout:      time.Duration(rwTimeoutMs) * time.Millisecond,
	})
}

// InitializeWithConfig заменяет текущее подключение новым. При ошибке
// клиент остаётся неинициализированным.
func (it *Client) InitializeWithConfig(ctx context.Context, config cluster.Config) error {
	it.mu.Lock()
	defer it.mu.Unlock()

	if it.cluster != nil {
		if err := it.cluster.Close(); err != nil {
			it.log.Warn("failed to close previous cluster", zap.Error(err))
		}
		it.cluster = nil
	}

	log := it.log.With(
		zap.Strings("addresses", config.Addresses),
		zap.String("backend", config.Backend),
	)

	c, err := cluster.New(config, cluster.WithLogger(it.log), cluster.WithMetrics(it.metrics))
	if err != nil {
		log.Error("redis init failed", zap.Error(err))
		return fmt.Errorf("%w: %w", errs.ErrInitialization, err)
	}

	if err := c.Ping(ctx); err != nil {
		_ = c.Close()
		log.Error("redis liveness check failed", zap.Error(err))
		return fmt.Errorf("%w: %w", errs.ErrInitialization, err)
	}

	it.cluster = c
	log.Info("redis init success", zap.Int("maxConns", config.MaxConns))
	return nil
}

func (it *Client) Ready() bool {
	it.mu.RLock()
	defer it.mu.RUnlock()
	return it.cluster != nil
}

func (it *Client) Close() error {
	it.mu.Lock()
	defer it.mu.Unlock()

	if it.cluster == nil {
		return nil
	}
	err := it.cluster.Close()
	it.cluster = nil
	return err
}

// dispatch выполняет одну команду. Ответ сервера с ошибкой
// возвращается как *resp.ServerError.
func (it *Client) dispatch(ctx context.Context, key, name string, args ...string) (resp.Reply, error) {
	it.mu.RLock()
	defer it.mu.RUnlock()

	if it.cluster == nil {
		return resp.Reply{}, errs.ErrNotInitialized
	}

	started := time.Now()
	reply, err := it.cluster.Dispatch(ctx, key, name, args...)
	if err == nil && reply.Kind == resp.KindError {
		err = fmt.Errorf("%s: %w", strings.ToLower(name), reply.Err())
	}
	it.metrics.ObserveCommand(name, started, errKind(err))
	return reply, err
}

func errKind(err error) string {
	var serverErr *resp.ServerError
	if errors.As(err, &serverErr) {
		return "server"
	}
	return errs.Kind(err)
}

func unexpected(name string, reply resp.Reply) error {
	return fmt.Errorf("%w: unexpected %s reply to %s", errs.ErrProtocol, reply.Kind, name)
}
