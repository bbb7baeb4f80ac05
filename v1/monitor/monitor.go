// Package monitor периодически снимает INFO с узлов хранилища и
// считает загрузку CPU между замерами и занятую память.
// Фоновый цикл запускает вызывающий: go monitor.Run(ctx).
package monitor

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/kuroko-shirai/embedis/v1/errs"
	"github.com/kuroko-shirai/embedis/v1/metrics"
	"github.com/kuroko-shirai/embedis/v1/node"
	"github.com/kuroko-shirai/embedis/v1/resp"
)

type (
	Option func(*Monitor)

	Config struct {
		Password  string
		Username  string
		Addresses []string
		Delay     time.Duration
		// Таймаут одного замера.
		Timeout time.Duration
	}

	// Stats - последний замер узла. CPU < 0, пока нет двух замеров.
	Stats struct {
		CPU        float64
		UsedMemory uint64
	}

	info struct {
		user       float64
		sys        float64
		cpu        float64
		usedMemory uint64
		lastTs     time.Time
	}

	Monitor struct {
		pools   []*node.Pool
		delay   time.Duration
		timeout time.Duration
		log     *zap.Logger
		metrics *metrics.Metrics
		now     func() time.Time

		mu    sync.RWMutex
		stats map[string]info
	}
)

func WithLogger(log *zap.Logger) Option {
	return func(it *Monitor) {
		it.log = log
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(it *Monitor) {
		it.metrics = m
	}
}

// New готовит по одному соединению на узел. Сеть не трогает:
// первый замер делает Update.
func New(config Config, opts ...Option) (*Monitor, error) {
	if len(config.Addresses) == 0 {
		return nil, fmt.Errorf("%w: no addresses to monitor", errs.ErrValidation)
	}
	if config.Delay <= 0 {
		return nil, fmt.Errorf("%w: delay must be positive", errs.ErrValidation)
	}

	m := &Monitor{
		pools:   make([]*node.Pool, 0, len(config.Addresses)),
		delay:   config.Delay,
		timeout: config.Timeout,
		log:     zap.NewNop(),
		now:     time.Now,
		stats:   make(map[string]info, len(config.Addresses)),
	}
	for _, opt := range opts {
		opt(m)
	}

	for _, address := range config.Addresses {
		pool, err := node.NewPool(node.Config{
			Address:        address,
			Username:       config.Username,
			Password:       config.Password,
			MaxConns:       1,
			ConnectTimeout: config.Timeout,
			RWTimeout:      config.Timeout,
		}, node.WithLogger(m.log))
		if err != nil {
			m.Close()
			return nil, fmt.Errorf("failed to prepare %s: %w", address, err)
		}
		m.pools = append(m.pools, pool)
	}
	return m, nil
}

func (it *Monitor) Close() {
	for _, pool := range it.pools {
		_ = pool.Close()
	}
}

func (it *Monitor) Run(ctx context.Context) {
	ticker := time.NewTicker(it.delay)
	defer ticker.Stop()

	for {
		if err := it.Update(ctx); err != nil {
			it.log.Warn("monitor update failed", zap.Error(err))
		}

		select {
		case <-ticker.C:
		case <-ctx.Done():
			it.log.Info("monitor stopped")
			return
		}
	}
}

// Update опрашивает все узлы параллельно.
// Возвращает ошибку только если ни один узел не ответил.
func (it *Monitor) Update(ctx context.Context) error {
	var (
		mu         sync.Mutex
		failures   []error
		anySuccess bool
		wg         sync.WaitGroup
	)

	for _, pool := range it.pools {
		wg.Add(1)
		go func(pool *node.Pool) {
			defer wg.Done()
			err := it.updateNode(ctx, pool)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				it.log.Debug("node sample failed", zap.String("address", pool.Address()), zap.Error(err))
				failures = append(failures, fmt.Errorf("node %s: %w", pool.Address(), err))
				return
			}
			anySuccess = true
		}(pool)
	}
	wg.Wait()

	if !anySuccess && len(failures) > 0 {
		return fmt.Errorf("all nodes failed: %w", errors.Join(failures...))
	}
	return nil
}

func (it *Monitor) updateNode(ctx context.Context, pool *node.Pool) error {
	reply, err := pool.Do(ctx, "INFO")
	if err != nil {
		return err
	}
	if reply.Kind != resp.KindBulk || reply.Nil {
		return fmt.Errorf("%w: unexpected %s reply to INFO", errs.ErrProtocol, reply.Kind)
	}

	current, err := parseInfo(reply.Str)
	if err != nil {
		return err
	}

	now := it.now()
	address := pool.Address()

	it.mu.Lock()
	defer it.mu.Unlock()

	next := info{
		user:       current.User,
		sys:        current.Sys,
		cpu:        -1,
		usedMemory: current.UsedMemory,
		lastTs:     now,
	}

	// Первый замер или перезапуск узла (счётчики сбросились).
	prev, exists := it.stats[address]
	if exists && current.User >= prev.user && current.Sys >= prev.sys {
		deltaTime := now.Sub(prev.lastTs).Seconds()
		if deltaTime <= 0 {
			return nil
		}
		totalDelta := (current.User - prev.user) + (current.Sys - prev.sys)
		next.cpu = totalDelta / deltaTime * 100
		it.metrics.NodeCPU(address, next.cpu)
	}

	it.stats[address] = next
	it.metrics.NodeMemory(address, next.usedMemory)
	return nil
}

// Snapshot возвращает копию последних замеров по адресам.
func (it *Monitor) Snapshot() map[string]Stats {
	it.mu.RLock()
	defer it.mu.RUnlock()

	result := make(map[string]Stats, len(it.stats))
	for address, stat := range it.stats {
		result[address] = Stats{CPU: stat.cpu, UsedMemory: stat.usedMemory}
	}
	return result
}
