package cluster

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/kuroko-shirai/embedis/v1/errs"
	"github.com/kuroko-shirai/embedis/v1/resp"
)

const (
	BackendNative  = "native"
	BackendRueidis = "rueidis"
	BackendGoRedis = "goredis"
)

type (
	// Cluster владеет всеми соединениями к узлам и маршрутизирует команды.
	Cluster interface {
		// Dispatch отправляет на провод команду "name [key] args...".
		// Пустой key означает команду без ключа шардирования.
		Dispatch(ctx context.Context, key, name string, args ...string) (resp.Reply, error)

		// Ping проверяет каждый узел: ответ должен быть ровно PONG.
		Ping(ctx context.Context) error

		Addresses() []string
		Close() error
	}

	Config struct {
		Backend   string   `yaml:"backend"`
		Addresses []string `yaml:"addresses"`
		Username  string   `yaml:"username"`
		Password  string   `yaml:"password"`

		MaxConns       int           `yaml:"maxConns"`
		ConnectTimeout time.Duration `yaml:"connectTimeout"`
		RWTimeout      time.Duration `yaml:"rwTimeout"`

		// VirtualNodes - число точек кольца на узел (только native).
		VirtualNodes int `yaml:"virtualNodes"`

		// ReplicaReads разрешает читать с реплик (rueidis, goredis).
		ReplicaReads bool `yaml:"replicaReads"`
	}
)

func (it Config) Validate() error {
	if len(it.Addresses) == 0 {
		return fmt.Errorf("%w: need at least one node address", errs.ErrValidation)
	}
	for _, address := range it.Addresses {
		if len(address) == 0 {
			return fmt.Errorf("%w: empty node address", errs.ErrValidation)
		}
	}
	if it.MaxConns <= 0 {
		return fmt.Errorf("%w: max connections must be positive, got %d", errs.ErrValidation, it.MaxConns)
	}
	if it.ConnectTimeout < 0 || it.RWTimeout < 0 {
		return fmt.Errorf("%w: negative timeout", errs.ErrValidation)
	}
	switch it.Backend {
	case "", BackendNative, BackendRueidis, BackendGoRedis:
	default:
		return fmt.Errorf("%w: %q", errs.ErrUnknownBackend, it.Backend)
	}
	return nil
}

// ParseAddresses разбирает строку вида "host1:port1,host2:port2".
func ParseAddresses(address string) []string {
	var addresses []string
	for _, part := range strings.Split(address, ",") {
		if part = strings.TrimSpace(part); len(part) > 0 {
			addresses = append(addresses, part)
		}
	}
	return addresses
}
