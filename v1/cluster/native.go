package cluster

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/kuroko-shirai/embedis/v1/errs"
	"github.com/kuroko-shirai/embedis/v1/node"
	"github.com/kuroko-shirai/embedis/v1/resp"
)

// Native раскладывает ключи по независимым узлам через Ring.
// Топологию Redis Cluster (слоты, MOVED) не обрабатывает.
type Native struct {
	ring      *Ring
	pools     map[string]*node.Pool
	addresses []string
	next      atomic.Uint64
	log       *zap.Logger
}

func NewNative(config Config, opts ...Option) (*Native, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	o := newOptions(opts)

	native := &Native{
		ring:  NewRing(config.VirtualNodes),
		pools: make(map[string]*node.Pool, len(config.Addresses)),
		log:   o.log,
	}
	for _, address := range config.Addresses {
		if _, ok := native.pools[address]; ok {
			continue
		}
		pool, err := node.NewPool(
			node.Config{
				Address:        address,
				Username:       config.Username,
				Password:       config.Password,
				MaxConns:       config.MaxConns,
				ConnectTimeout: config.ConnectTimeout,
				RWTimeout:      config.RWTimeout,
			},
			node.WithLogger(o.log),
			node.WithMetrics(o.metrics),
		)
		if err != nil {
			_ = native.Close()
			return nil, err
		}
		native.pools[address] = pool
		native.addresses = append(native.addresses, address)
		native.ring.Add(address)
	}
	return native, nil
}

func (it *Native) Dispatch(ctx context.Context, key, name string, args ...string) (resp.Reply, error) {
	if len(key) > 0 {
		pool := it.pools[it.ring.Node(key)]
		return pool.Do(ctx, name, append([]string{key}, args...)...)
	}
	return it.dispatchAny(ctx, name, args)
}

// dispatchAny отправляет команду без ключа на первый узел (по кругу),
// который смог выдать соединение. Сама команда не повторяется.
func (it *Native) dispatchAny(ctx context.Context, name string, args []string) (resp.Reply, error) {
	start := it.next.Add(1)
	n := uint64(len(it.addresses))

	var lastErr error
	for i := uint64(0); i < n; i++ {
		pool := it.pools[it.addresses[(start+i)%n]]
		conn, err := pool.Get(ctx)
		if err != nil {
			lastErr = err
			continue
		}
		reply, err := conn.Do(ctx, name, args...)
		pool.Put(conn)
		return reply, err
	}
	if lastErr == nil {
		lastErr = fmt.Errorf("%w: no nodes configured", errs.ErrConnection)
	}
	return resp.Reply{}, lastErr
}

func (it *Native) Ping(ctx context.Context) error {
	for _, address := range it.addresses {
		reply, err := it.pools[address].Do(ctx, "PING")
		if err != nil {
			return err
		}
		if err := checkPong(address, reply); err != nil {
			return err
		}
	}
	return nil
}

func (it *Native) Addresses() []string {
	return append([]string(nil), it.addresses...)
}

// Node возвращает адрес узла, владеющего ключом.
func (it *Native) Node(key string) string {
	return it.ring.Node(key)
}

func (it *Native) Stats() map[string]node.Stats {
	stats := make(map[string]node.Stats, len(it.pools))
	for address, pool := range it.pools {
		stats[address] = pool.Stats()
	}
	return stats
}

func (it *Native) Close() error {
	var errList []error
	for _, pool := range it.pools {
		if err := pool.Close(); err != nil {
			errList = append(errList, err)
		}
	}
	return errors.Join(errList...)
}

var _ Cluster = (*Native)(nil)
