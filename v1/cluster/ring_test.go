package cluster

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRing(t *testing.T) {
	ring := NewRing(3)
	assert.Empty(t, ring.Node("key"))

	nodes := []string{"node1:6379", "node2:6379", "node3:6379"}
	for _, node := range nodes {
		ring.Add(node)
	}
	ring.Add("node1:6379")
	require.Equal(t, nodes, ring.Nodes())

	owner := ring.Node("test_key_1")
	require.NotEmpty(t, owner)
	for i := 0; i < 10; i++ {
		assert.Equal(t, owner, ring.Node("test_key_1"))
	}

	assert.Contains(t, nodes, owner)
}

func TestRingDistribution(t *testing.T) {
	ring := NewRing(DefaultVirtualNodes)
	for _, node := range []string{"node1:6379", "node2:6379", "node3:6379"} {
		ring.Add(node)
	}

	distribution := make(map[string]int)
	for i := 0; i < 3000; i++ {
		distribution[ring.Node(fmt.Sprintf("key_%d", i))]++
	}

	require.Len(t, distribution, 3)
	for node, count := range distribution {
		assert.Truef(t, count > 600 && count < 1500, "poor distribution for %s: %d keys", node, count)
	}
}

// Новый узел забирает часть ключей, остальные остаются на месте.
func TestRingStableOnAdd(t *testing.T) {
	ring := NewRing(DefaultVirtualNodes)
	for _, node := range []string{"a:1", "b:1", "c:1"} {
		ring.Add(node)
	}

	before := make(map[string]string)
	for i := 0; i < 500; i++ {
		key := fmt.Sprintf("key_%d", i)
		before[key] = ring.Node(key)
	}

	ring.Add("d:1")
	moved := 0
	for key, owner := range before {
		got := ring.Node(key)
		if got != owner {
			assert.Equal(t, "d:1", got, key)
			moved++
		}
	}
	assert.Positive(t, moved)
	assert.Less(t, moved, 250)
}

func TestRingHashTag(t *testing.T) {
	ring := NewRing(DefaultVirtualNodes)
	for i := 0; i < 5; i++ {
		ring.Add(fmt.Sprintf("node%d:6379", i))
	}

	owner := ring.Node("{user:1}:embedding")
	for _, key := range []string{"{user:1}:ids", "{user:1}", "x{user:1}y"} {
		assert.Equal(t, owner, ring.Node(key), key)
	}

	assert.Equal(t, "user:1", hashTag("{user:1}:ids"))
	assert.Equal(t, "{}x", hashTag("{}x"))
	assert.Equal(t, "plain", hashTag("plain"))
	assert.Equal(t, "a{b", hashTag("a{b"))
}
