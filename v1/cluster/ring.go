package cluster

import (
	"slices"
	"strconv"
	"strings"
	"sync"

	"github.com/cespare/xxhash/v2"
)

const DefaultVirtualNodes = 160

// Ring - кольцо консистентного хеширования с виртуальными узлами.
// Ключ с хеш-тегом "{...}" хешируется только по содержимому тега,
// поэтому ключи с одинаковым тегом попадают на один узел.
type Ring struct {
	mu           sync.RWMutex
	ring         map[uint64]string
	sortedHashes []uint64
	nodes        map[string]struct{}
	virtualNodes int
}

func NewRing(virtualNodes int) *Ring {
	if virtualNodes <= 0 {
		virtualNodes = DefaultVirtualNodes
	}
	return &Ring{
		ring:         make(map[uint64]string),
		nodes:        make(map[string]struct{}),
		virtualNodes: virtualNodes,
	}
}

func (it *Ring) Add(node string) {
	it.mu.Lock()
	defer it.mu.Unlock()

	if _, ok := it.nodes[node]; ok {
		return
	}
	it.nodes[node] = struct{}{}

	for i := 0; i < it.virtualNodes; i++ {
		hash := xxhash.Sum64String(node + "#" + strconv.Itoa(i))
		if _, taken := it.ring[hash]; taken {
			continue
		}
		it.ring[hash] = node
		it.sortedHashes = append(it.sortedHashes, hash)
	}
	slices.Sort(it.sortedHashes)
}

// Node возвращает узел-владелец ключа или пустую строку, если узлов нет.
func (it *Ring) Node(key string) string {
	it.mu.RLock()
	defer it.mu.RUnlock()

	if len(it.sortedHashes) == 0 {
		return ""
	}

	hash := xxhash.Sum64String(hashTag(key))
	idx, _ := slices.BinarySearch(it.sortedHashes, hash)
	if idx == len(it.sortedHashes) {
		idx = 0
	}
	return it.ring[it.sortedHashes[idx]]
}

func (it *Ring) Nodes() []string {
	it.mu.RLock()
	defer it.mu.RUnlock()

	nodes := make([]string, 0, len(it.nodes))
	for node := range it.nodes {
		nodes = append(nodes, node)
	}
	slices.Sort(nodes)
	return nodes
}

func hashTag(key string) string {
	start := strings.IndexByte(key, '{')
	if start < 0 {
		return key
	}
	end := strings.IndexByte(key[start+1:], '}')
	if end <= 0 {
		return key
	}
	return key[start+1 : start+1+end]
}
