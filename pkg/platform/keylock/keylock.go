// Package keylock serializes work per key without one global mutex.
package keylock

import (
	"hash/fnv"
	"sync"
)

const shardCount = 64

// Sharded maps keys onto a fixed set of mutexes. Distinct keys may share a
// shard; the same key always maps to the same one.
type Sharded struct {
	shards [shardCount]sync.Mutex
}

func New() *Sharded {
	return &Sharded{}
}

func (s *Sharded) Lock(key string) {
	s.shards[shardFor(key)].Lock()
}

func (s *Sharded) Unlock(key string) {
	s.shards[shardFor(key)].Unlock()
}

// Do runs fn while holding key's shard.
func (s *Sharded) Do(key string, fn func()) {
	s.Lock(key)
	defer s.Unlock(key)
	fn()
}

func shardFor(key string) int {
	if key == "" {
		return 0
	}
	h := fnv.New32a()
	_, _ = h.Write([]byte(key)) //nolint:errcheck // hash writes never fail
	return int(h.Sum32() % shardCount)
}
