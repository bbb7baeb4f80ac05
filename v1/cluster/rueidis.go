package cluster

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"net"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/redis/rueidis"

	"github.com/kuroko-shirai/embedis/v1/errs"
	"github.com/kuroko-shirai/embedis/v1/resp"
)

// Rueidis - Redis Cluster через rueidis. Топологию и перенаправления
// обрабатывает сам rueidis, повторы команд отключены.
type Rueidis struct {
	client    rueidis.Client
	addresses []string
}

// noLimit заменяет нулевой таймаут: rueidis подставляет вместо нуля
// свои значения по умолчанию (5s на соединение, 10s на запись).
const noLimit = 365 * 24 * time.Hour

func NewRueidis(config Config, opts ...Option) (*Rueidis, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	o := newOptions(opts)

	client, err := rueidis.NewClient(rueidisOption(config))
	if err != nil {
		return nil, classify(strings.Join(config.Addresses, ","), err)
	}
	o.log.Debug("rueidis cluster client created")

	return newRueidis(client, config.Addresses), nil
}

func rueidisOption(config Config) rueidis.ClientOption {
	option := rueidis.ClientOption{
		Username:         config.Username,
		Password:         config.Password,
		InitAddress:      config.Addresses,
		Dialer:           net.Dialer{Timeout: orNoLimit(config.ConnectTimeout)},
		ConnWriteTimeout: orNoLimit(config.RWTimeout),
		BlockingPoolSize: config.MaxConns,
		DisableRetry:     true,
		DisableCache:     true,
		AlwaysRESP2:      true,
	}
	if config.ReplicaReads {
		option.SendToReplicas = func(cmd rueidis.Completed) bool { return cmd.IsReadOnly() }
	}
	return option
}

func orNoLimit(timeout time.Duration) time.Duration {
	if timeout == 0 {
		return noLimit
	}
	return timeout
}

func newRueidis(client rueidis.Client, addresses []string) *Rueidis {
	return &Rueidis{
		client:    client,
		addresses: append([]string(nil), addresses...),
	}
}

func (it *Rueidis) Dispatch(ctx context.Context, key, name string, args ...string) (resp.Reply, error) {
	reply, err := fromRueidisResult(it.label(key), it.client.Do(ctx, it.command(key, name, args)))
	if err != nil {
		return resp.Reply{}, err
	}
	return resp.AsStatus(name, args, reply), nil
}

func (it *Rueidis) command(key, name string, args []string) rueidis.Completed {
	builder := it.client.B().Arbitrary(name)
	if len(key) > 0 {
		builder = builder.Keys(key)
	}
	builder = builder.Args(args...)

	if resp.IsReadOnly(name) {
		return builder.ReadOnly()
	}
	return builder.Build()
}

func (it *Rueidis) Ping(ctx context.Context) error {
	nodes := it.client.Nodes()
	if len(nodes) == 0 {
		return fmt.Errorf("%w: no cluster nodes discovered", errs.ErrConnection)
	}

	for _, address := range slices.Sorted(maps.Keys(nodes)) {
		client := nodes[address]
		reply, err := fromRueidisResult(address, client.Do(ctx, client.B().Ping().Build()))
		if err != nil {
			return err
		}
		// rueidis не различает simple и bulk строки.
		if err := checkPong(address, resp.AsStatus("PING", nil, reply)); err != nil {
			return err
		}
	}
	return nil
}

func (it *Rueidis) Addresses() []string {
	return append([]string(nil), it.addresses...)
}

func (it *Rueidis) Close() error {
	it.client.Close()
	return nil
}

func (it *Rueidis) label(key string) string {
	if len(key) > 0 {
		return "slot of " + strconv.Quote(key)
	}
	return strings.Join(it.addresses, ",")
}

func fromRueidisResult(address string, result rueidis.RedisResult) (resp.Reply, error) {
	msg, err := result.ToMessage()
	if err != nil {
		if rueidis.IsRedisNil(err) {
			return resp.NilBulk(), nil
		}
		var redisErr *rueidis.RedisError
		if errors.As(err, &redisErr) {
			return resp.Error(redisErr.Error()), nil
		}
		return resp.Reply{}, classify(address, err)
	}
	return fromRueidisMessage(&msg)
}

func fromRueidisMessage(msg *rueidis.RedisMessage) (resp.Reply, error) {
	if msg.IsNil() {
		return resp.NilBulk(), nil
	}
	if err := msg.Error(); err != nil {
		return resp.Error(err.Error()), nil
	}

	switch {
	case msg.IsInt64():
		n, err := msg.ToInt64()
		if err != nil {
			return resp.Reply{}, fmt.Errorf("%w: %v", errs.ErrProtocol, err)
		}
		return resp.Integer(n), nil
	case msg.IsString():
		s, err := msg.ToString()
		if err != nil {
			return resp.Reply{}, fmt.Errorf("%w: %v", errs.ErrProtocol, err)
		}
		return resp.Bulk(s), nil
	case msg.IsFloat64():
		f, err := msg.ToFloat64()
		if err != nil {
			return resp.Reply{}, fmt.Errorf("%w: %v", errs.ErrProtocol, err)
		}
		return resp.Bulk(strconv.FormatFloat(f, 'f', -1, 64)), nil
	case msg.IsBool():
		b, err := msg.ToBool()
		if err != nil {
			return resp.Reply{}, fmt.Errorf("%w: %v", errs.ErrProtocol, err)
		}
		if b {
			return resp.Integer(1), nil
		}
		return resp.Integer(0), nil
	case msg.IsArray():
		values, err := msg.ToArray()
		if err != nil {
			return resp.Reply{}, fmt.Errorf("%w: %v", errs.ErrProtocol, err)
		}
		elems := make([]resp.Reply, 0, len(values))
		for i := range values {
			elem, err := fromRueidisMessage(&values[i])
			if err != nil {
				return resp.Reply{}, err
			}
			elems = append(elems, elem)
		}
		return resp.Array(elems...), nil
	case msg.IsMap():
		values, err := msg.ToMap()
		if err != nil {
			return resp.Reply{}, fmt.Errorf("%w: %v", errs.ErrProtocol, err)
		}
		elems := make([]resp.Reply, 0, 2*len(values))
		for _, field := range slices.Sorted(maps.Keys(values)) {
			value := values[field]
			elem, err := fromRueidisMessage(&value)
			if err != nil {
				return resp.Reply{}, err
			}
			elems = append(elems, resp.Bulk(field), elem)
		}
		return resp.Array(elems...), nil
	default:
		return resp.Reply{}, fmt.Errorf("%w: unsupported reply type", errs.ErrProtocol)
	}
}

var _ Cluster = (*Rueidis)(nil)
