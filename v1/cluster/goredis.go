package cluster

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"sync"

	"github.com/redis/go-redis/v9"

	"github.com/kuroko-shirai/embedis/v1/errs"
	"github.com/kuroko-shirai/embedis/v1/resp"
)

// GoRedis - Redis Cluster через go-redis.
type GoRedis struct {
	client    *redis.ClusterClient
	addresses []string
}

func NewGoRedis(config Config, opts ...Option) (*GoRedis, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	o := newOptions(opts)

	// В go-redis нулевой таймаут означает значение по умолчанию,
	// а "без ограничения" задаётся через -1.
	rwTimeout := config.RWTimeout
	if rwTimeout == 0 {
		rwTimeout = -1
	}

	options := &redis.ClusterOptions{
		Addrs:        config.Addresses,
		Username:     config.Username,
		Password:     config.Password,
		PoolSize:     config.MaxConns,
		DialTimeout:  config.ConnectTimeout,
		ReadTimeout:  rwTimeout,
		WriteTimeout: rwTimeout,
		MaxRetries:   -1,
		Protocol:     2,
		ReadOnly:     config.ReplicaReads,
	}
	if config.RWTimeout > 0 {
		options.PoolTimeout = config.RWTimeout
	}
	o.log.Debug("go-redis cluster client created")

	return newGoRedis(redis.NewClusterClient(options), config.Addresses), nil
}

func newGoRedis(client *redis.ClusterClient, addresses []string) *GoRedis {
	return &GoRedis{
		client:    client,
		addresses: append([]string(nil), addresses...),
	}
}

func (it *GoRedis) Dispatch(ctx context.Context, key, name string, args ...string) (resp.Reply, error) {
	cmdArgs := make([]interface{}, 0, len(args)+2)
	cmdArgs = append(cmdArgs, name)
	if len(key) > 0 {
		cmdArgs = append(cmdArgs, key)
	}
	for _, arg := range args {
		cmdArgs = append(cmdArgs, arg)
	}

	val, err := it.client.Do(ctx, cmdArgs...).Result()
	reply, err := fromGoRedis(it.label(key), val, err)
	if err != nil {
		return resp.Reply{}, err
	}
	// go-redis возвращает +OK и bulk одинаково, строкой.
	return resp.AsStatus(name, args, reply), nil
}

func (it *GoRedis) Ping(ctx context.Context) error {
	var (
		mu    sync.Mutex
		found bool
	)
	err := it.client.ForEachShard(ctx, func(ctx context.Context, shard *redis.Client) error {
		mu.Lock()
		found = true
		mu.Unlock()

		address := shard.Options().Addr
		status, err := shard.Ping(ctx).Result()
		if err != nil {
			return fromGoRedisErr(address, err)
		}
		return checkPong(address, resp.Status(status))
	})
	if err != nil {
		return err
	}
	if !found {
		return fmt.Errorf("%w: no cluster shards discovered", errs.ErrConnection)
	}
	return nil
}

func (it *GoRedis) Addresses() []string {
	return append([]string(nil), it.addresses...)
}

func (it *GoRedis) Close() error {
	return it.client.Close()
}

func (it *GoRedis) label(key string) string {
	if len(key) > 0 {
		return "slot of " + strconv.Quote(key)
	}
	return strings.Join(it.addresses, ",")
}

func fromGoRedis(address string, val interface{}, err error) (resp.Reply, error) {
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return resp.NilBulk(), nil
		}
		var redisErr redis.Error
		if errors.As(err, &redisErr) {
			return resp.Error(redisErr.Error()), nil
		}
		return resp.Reply{}, fromGoRedisErr(address, err)
	}
	return fromGoRedisValue(val)
}

func fromGoRedisErr(address string, err error) error {
	if errors.Is(err, redis.ErrPoolTimeout) {
		return fmt.Errorf("%w: %s: %v", errs.ErrPoolExhausted, address, err)
	}
	return classify(address, err)
}

func fromGoRedisValue(val interface{}) (resp.Reply, error) {
	switch v := val.(type) {
	case nil:
		return resp.NilBulk(), nil
	case string:
		return resp.Bulk(v), nil
	case int64:
		return resp.Integer(v), nil
	case float64:
		return resp.Bulk(strconv.FormatFloat(v, 'f', -1, 64)), nil
	case bool:
		if v {
			return resp.Integer(1), nil
		}
		return resp.Integer(0), nil
	case redis.Error:
		return resp.Error(v.Error()), nil
	case []interface{}:
		elems := make([]resp.Reply, 0, len(v))
		for _, item := range v {
			elem, err := fromGoRedisValue(item)
			if err != nil {
				return resp.Reply{}, err
			}
			elems = append(elems, elem)
		}
		return resp.Array(elems...), nil
	case map[interface{}]interface{}:
		fields := make([]string, 0, len(v))
		values := make(map[string]interface{}, len(v))
		for field, value := range v {
			name := fmt.Sprint(field)
			fields = append(fields, name)
			values[name] = value
		}
		slices.Sort(fields)

		elems := make([]resp.Reply, 0, 2*len(fields))
		for _, field := range fields {
			elem, err := fromGoRedisValue(values[field])
			if err != nil {
				return resp.Reply{}, err
			}
			elems = append(elems, resp.Bulk(field), elem)
		}
		return resp.Array(elems...), nil
	default:
		return resp.Reply{}, fmt.Errorf("%w: unsupported reply type %T", errs.ErrProtocol, val)
	}
}

var _ Cluster = (*GoRedis)(nil)
