// Package cluster маршрутизирует команды по узлам шардированного хранилища.
//
// Доступны три реализации Cluster:
//   - native: собственный пул соединений на каждый узел и кольцо
//     консистентного хеширования поверх независимых шардов;
//   - rueidis и goredis: Redis Cluster через сторонние клиенты,
//     которые сами обнаруживают топологию и обрабатывают MOVED/ASK.
package cluster

import (
	"context"
	"errors"
	"fmt"
	"net"

	"go.uber.org/zap"

	"github.com/kuroko-shirai/embedis/v1/errs"
	"github.com/kuroko-shirai/embedis/v1/metrics"
	"github.com/kuroko-shirai/embedis/v1/resp"
)

const pong = "PONG"

type (
	Option func(*options)

	options struct {
		log     *zap.Logger
		metrics *metrics.Metrics
	}
)

func WithLogger(log *zap.Logger) Option {
	return func(it *options) {
		it.log = log
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(it *options) {
		it.metrics = m
	}
}

func newOptions(opts []Option) options {
	o := options{log: zap.NewNop()}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// New создаёт Cluster выбранной в config реализации.
func New(config Config, opts ...Option) (Cluster, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	switch config.Backend {
	case BackendRueidis:
		c, err := NewRueidis(config, opts...)
		if err != nil {
			return nil, err
		}
		return c, nil
	case BackendGoRedis:
		c, err := NewGoRedis(config, opts...)
		if err != nil {
			return nil, err
		}
		return c, nil
	default:
		c, err := NewNative(config, opts...)
		if err != nil {
			return nil, err
		}
		return c, nil
	}
}

func checkPong(address string, reply resp.Reply) error {
	if reply.Kind != resp.KindStatus || reply.Str != pong {
		return fmt.Errorf("%w: %s: unexpected PING reply %s %q", errs.ErrProtocol, address, reply.Kind, reply.Str)
	}
	return nil
}

// classify приводит ошибки сторонних клиентов к таксономии errs.
func classify(address string, err error) error {
	var netErr net.Error
	switch {
	case errors.Is(err, errs.ErrProtocol), errors.Is(err, errs.ErrTimeout), errors.Is(err, errs.ErrConnection):
		return err
	case errors.Is(err, context.DeadlineExceeded), errors.As(err, &netErr) && netErr.Timeout():
		return fmt.Errorf("%w: %s: %v", errs.ErrTimeout, address, err)
	default:
		return fmt.Errorf("%w: %s: %v", errs.ErrConnection, address, err)
	}
}
