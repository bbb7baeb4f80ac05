package node

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"

	"github.com/kuroko-shirai/embedis/v1/errs"
	"github.com/kuroko-shirai/embedis/v1/metrics"
	"github.com/kuroko-shirai/embedis/v1/resp"
)

type (
	Option func(*Pool)

	Stats struct {
		Live    int
		Idle    int
		Created uint64
		Evicted uint64
	}

	// Pool лениво открывает соединения к одному узлу, но не больше
	// MaxConns одновременно. Сломанные соединения в пул не возвращаются.
	Pool struct {
		config  Config
		dialer  net.Dialer
		slots   *semaphore.Weighted
		metrics *metrics.Metrics
		log     *zap.Logger

		mu      sync.Mutex
		free    []*Conn
		live    int
		created uint64
		evicted uint64
		closed  bool
	}
)

func WithMetrics(m *metrics.Metrics) Option {
	return func(it *Pool) {
		it.metrics = m
	}
}

func WithLogger(log *zap.Logger) Option {
	return func(it *Pool) {
		it.log = log
	}
}

func NewPool(config Config, opts ...Option) (*Pool, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	pool := &Pool{
		config: config,
		dialer: net.Dialer{Timeout: config.ConnectTimeout},
		slots:  semaphore.NewWeighted(int64(config.MaxConns)),
		free:   make([]*Conn, 0, config.MaxConns),
		log:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(pool)
	}
	return pool, nil
}

func (it *Pool) Address() string {
	return it.config.Address
}

// Get выдаёт соединение из пула или открывает новое.
// Если все MaxConns соединений заняты, ждёт освобождения не дольше
// RWTimeout (и не дольше, чем позволяет ctx).
func (it *Pool) Get(ctx context.Context) (*Conn, error) {
	if it.isClosed() {
		return nil, fmt.Errorf("%w: %s", errs.ErrPoolClosed, it.config.Address)
	}

	waitCtx := ctx
	if it.config.RWTimeout > 0 {
		var cancel context.CancelFunc
		waitCtx, cancel = context.WithTimeout(ctx, it.config.RWTimeout)
		defer cancel()
	}
	if err := it.slots.Acquire(waitCtx, 1); err != nil {
		switch ctxErr := ctx.Err(); {
		case errors.Is(ctxErr, context.DeadlineExceeded):
			return nil, fmt.Errorf("%w: %s: %v", errs.ErrTimeout, it.config.Address, ctxErr)
		case ctxErr != nil:
			return nil, fmt.Errorf("%s: %w", it.config.Address, ctxErr)
		}
		it.metrics.PoolExhausted(it.config.Address)
		return nil, fmt.Errorf("%w: %s: %d connections in use", errs.ErrPoolExhausted, it.config.Address, it.config.MaxConns)
	}

	it.mu.Lock()
	if it.closed {
		it.mu.Unlock()
		it.slots.Release(1)
		return nil, fmt.Errorf("%w: %s", errs.ErrPoolClosed, it.config.Address)
	}
	if n := len(it.free); n > 0 {
		conn := it.free[n-1]
		it.free[n-1] = nil
		it.free = it.free[:n-1]
		it.mu.Unlock()
		return conn, nil
	}
	it.live++
	it.mu.Unlock()

	conn, err := it.dial(ctx)
	if err != nil {
		it.mu.Lock()
		it.live--
		it.mu.Unlock()
		it.slots.Release(1)
		return nil, err
	}

	it.mu.Lock()
	it.created++
	it.mu.Unlock()
	it.metrics.PoolDial(it.config.Address)
	return conn, nil
}

// Put возвращает соединение в пул. Сломанное соединение закрывается.
func (it *Pool) Put(conn *Conn) {
	if conn == nil {
		return
	}
	defer it.slots.Release(1)

	it.mu.Lock()
	if conn.broken || it.closed {
		it.live--
		if conn.broken {
			it.evicted++
		}
		it.mu.Unlock()

		if conn.broken {
			it.metrics.PoolEviction(it.config.Address)
			it.log.Debug("evicting broken connection", zap.String("address", it.config.Address))
		}
		_ = conn.close()
		return
	}
	it.free = append(it.free, conn)
	it.mu.Unlock()
}

// Do берёт соединение, выполняет команду и возвращает соединение в пул.
func (it *Pool) Do(ctx context.Context, name string, args ...string) (resp.Reply, error) {
	conn, err := it.Get(ctx)
	if err != nil {
		return resp.Reply{}, err
	}
	defer it.Put(conn)

	return conn.Do(ctx, name, args...)
}

func (it *Pool) Stats() Stats {
	it.mu.Lock()
	defer it.mu.Unlock()

	return Stats{
		Live:    it.live,
		Idle:    len(it.free),
		Created: it.created,
		Evicted: it.evicted,
	}
}

// Close закрывает свободные соединения. Выданные соединения закрываются
// при возврате через Put.
func (it *Pool) Close() error {
	it.mu.Lock()
	defer it.mu.Unlock()

	if it.closed {
		return nil
	}
	it.closed = true

	var firstErr error
	for _, conn := range it.free {
		if err := conn.close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	it.live -= len(it.free)
	it.free = nil
	return firstErr
}

func (it *Pool) isClosed() bool {
	it.mu.Lock()
	defer it.mu.Unlock()
	return it.closed
}

func (it *Pool) dial(ctx context.Context) (*Conn, error) {
	netConn, err := it.dialer.DialContext(ctx, "tcp", it.config.Address)
	if err != nil {
		return nil, classify(it.config.Address, err)
	}
	conn := newConn(netConn, it.config.Address, it.config.RWTimeout)

	if err := it.auth(ctx, conn); err != nil {
		_ = conn.close()
		return nil, err
	}
	return conn, nil
}

func (it *Pool) auth(ctx context.Context, conn *Conn) error {
	if len(it.config.Password) == 0 {
		return nil
	}

	args := []string{it.config.Password}
	if len(it.config.Username) > 0 {
		args = []string{it.config.Username, it.config.Password}
	}
	reply, err := conn.Do(ctx, "AUTH", args...)
	if err != nil {
		return err
	}
	if err := reply.Err(); err != nil {
		return fmt.Errorf("%w: %s: auth rejected: %v", errs.ErrConnection, it.config.Address, err)
	}
	return nil
}
