package singleton

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type resource struct {
	id     int64
	closed bool
}

func TestInstanceConcurrentFirstAccess(t *testing.T) {
	var built atomic.Int64
	holder := New(func() *resource {
		time.Sleep(5 * time.Millisecond)
		return &resource{id: built.Add(1)}
	}, nil)

	const callers = 64
	var (
		wg      sync.WaitGroup
		results = make([]*resource, callers)
		start   = make(chan struct{})
	)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			results[i] = holder.Instance()
		}(i)
	}
	close(start)
	wg.Wait()

	assert.Equal(t, int64(1), built.Load())
	for _, r := range results {
		assert.Same(t, results[0], r)
	}
}

func TestDestroyAndRecreate(t *testing.T) {
	var built atomic.Int64
	holder := New(
		func() *resource { return &resource{id: built.Add(1)} },
		func(r *resource) { r.closed = true },
	)
	assert.False(t, holder.Exists())

	first := holder.Instance()
	require.True(t, holder.Exists())
	assert.Same(t, first, holder.Instance())

	holder.Destroy()
	assert.True(t, first.closed)
	assert.False(t, holder.Exists())

	second := holder.Instance()
	assert.NotSame(t, first, second)
	assert.Equal(t, int64(2), second.id)

	holder.Destroy()
	holder.Destroy()
	assert.Equal(t, int64(2), built.Load())
}
