package service

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kuroko-shirai/embedis/v1/client"
	"github.com/kuroko-shirai/embedis/v1/cluster"
	"github.com/kuroko-shirai/embedis/v1/errs"
)

func newService(t *testing.T, backend string) (Service, *miniredis.Miniredis, *client.Client) {
	t.Helper()

	s := miniredis.RunT(t)
	c := client.New()
	require.NoError(t, c.InitializeWithConfig(context.Background(), cluster.Config{
		Backend:        backend,
		Addresses:      []string{s.Addr()},
		MaxConns:       2,
		ConnectTimeout: time.Second,
		RWTimeout:      time.Second,
	}))
	t.Cleanup(func() { _ = c.Close() })

	svc, err := New(Config{Store: c, TTL: time.Minute})
	require.NoError(t, err)
	svc.now = func() time.Time { return time.Unix(1700000000, 0) }
	return svc, s, c
}

func TestEmbeddingRoundTrip(t *testing.T) {
	for _, backend := range []string{cluster.BackendNative, cluster.BackendRueidis, cluster.BackendGoRedis} {
		t.Run(backend, func(t *testing.T) {
			testEmbeddingRoundTrip(t, backend)
		})
	}
}

func testEmbeddingRoundTrip(t *testing.T, backend string) {
	ctx := context.Background()
	svc, s, _ := newService(t, backend)

	_, ok, err := svc.GetEmbedding(ctx, 42)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, svc.PutEmbedding(ctx, 42, "0.5,0.25"))

	vector, ok, err := svc.GetEmbedding(ctx, 42)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "0.5,0.25", vector)
	assert.Equal(t, time.Minute, s.TTL("embedding:42"))

	known, err := svc.Known(ctx, 42)
	require.NoError(t, err)
	assert.True(t, known)

	known, err = svc.Known(ctx, 7)
	require.NoError(t, err)
	assert.False(t, known)

	updated, ok, err := svc.UpdatedAt(ctx, 42)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, int64(1700000000), updated.Unix())

	_, ok, err = svc.UpdatedAt(ctx, 7)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestStoreUnavailable(t *testing.T) {
	ctx := context.Background()
	svc, _, c := newService(t, cluster.BackendNative)
	require.NoError(t, c.Close())

	_, _, err := svc.GetEmbedding(ctx, 1)
	assert.ErrorIs(t, err, errs.ErrNotInitialized)

	err = svc.PutEmbedding(ctx, 1, "v")
	assert.ErrorIs(t, err, errs.ErrNotInitialized)
}

func TestNewRequiresStore(t *testing.T) {
	_, err := New(Config{})
	assert.Error(t, err)
}
