package cluster

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/redis/rueidis"
	"github.com/redis/rueidis/mock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kuroko-shirai/embedis/v1/errs"
	"github.com/kuroko-shirai/embedis/v1/resp"
)

func TestFromRueidisResult(t *testing.T) {
	tests := []struct {
		name   string
		result rueidis.RedisResult
		want   resp.Reply
	}{
		{"nil", mock.Result(mock.RedisNil()), resp.NilBulk()},
		{"blob string", mock.Result(mock.RedisBlobString("value")), resp.Bulk("value")},
		{"empty string", mock.Result(mock.RedisBlobString("")), resp.Bulk("")},
		{"simple string", mock.Result(mock.RedisString("OK")), resp.Bulk("OK")},
		{"integer", mock.Result(mock.RedisInt64(3)), resp.Integer(3)},
		{"error", mock.Result(mock.RedisError("WRONGTYPE bad")), resp.Error("WRONGTYPE bad")},
		{
			"array",
			mock.Result(mock.RedisArray(mock.RedisBlobString("m1"), mock.RedisInt64(1), mock.RedisNil())),
			resp.Array(resp.Bulk("m1"), resp.Integer(1), resp.NilBulk()),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := fromRueidisResult("test", tt.result)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRueidisOption(t *testing.T) {
	option := rueidisOption(Config{
		Addresses: []string{"127.0.0.1:7000"},
		MaxConns:  4,
		RWTimeout: 250 * time.Millisecond,
	})
	assert.Equal(t, noLimit, option.Dialer.Timeout)
	assert.Equal(t, 250*time.Millisecond, option.ConnWriteTimeout)
	assert.Equal(t, 4, option.BlockingPoolSize)
	assert.True(t, option.DisableRetry)
	assert.Nil(t, option.SendToReplicas)

	option = rueidisOption(Config{
		Addresses:      []string{"127.0.0.1:7000"},
		MaxConns:       1,
		ConnectTimeout: time.Second,
		ReplicaReads:   true,
	})
	assert.Equal(t, time.Second, option.Dialer.Timeout)
	assert.Equal(t, noLimit, option.ConnWriteTimeout)
	require.NotNil(t, option.SendToReplicas)
}

func TestFromRueidisResultTransportErrors(t *testing.T) {
	_, err := fromRueidisResult("test", mock.ErrorResult(context.DeadlineExceeded))
	assert.ErrorIs(t, err, errs.ErrTimeout)

	_, err = fromRueidisResult("test", mock.ErrorResult(errors.New("broken pipe")))
	assert.ErrorIs(t, err, errs.ErrConnection)
}

// TestRueidisCluster требует живой Redis Cluster, например
// EMBEDIS_CLUSTER_ADDR=127.0.0.1:7000,127.0.0.1:7001.
func TestRueidisCluster(t *testing.T) {
	address := os.Getenv("EMBEDIS_CLUSTER_ADDR")
	if address == "" {
		t.Skip("EMBEDIS_CLUSTER_ADDR is not set")
	}

	for _, backend := range []string{BackendRueidis, BackendGoRedis} {
		t.Run(backend, func(t *testing.T) {
			c, err := New(Config{
				Backend:        backend,
				Addresses:      ParseAddresses(address),
				MaxConns:       4,
				ConnectTimeout: time.Second,
				RWTimeout:      time.Second,
			})
			require.NoError(t, err)
			defer c.Close()

			ctx := context.Background()
			require.NoError(t, c.Ping(ctx))

			_, err = c.Dispatch(ctx, "embedis:test:"+backend, "SET", "value")
			require.NoError(t, err)
			reply, err := c.Dispatch(ctx, "embedis:test:"+backend, "GET")
			require.NoError(t, err)
			assert.Equal(t, resp.Bulk("value"), reply)
		})
	}
}
