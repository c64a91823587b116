package services

import (
	"hash/fnv"
	"sync"
)

const lockShards = 64

// keyedMutex serializes work per key with a fixed set of shards.
// Concurrent events for the same gateway transaction land on the same
// shard, so the forward-transition check and its write apply atomically
// relative to each other.
type keyedMutex struct {
	shards [lockShards]sync.Mutex
}

func newKeyedMutex() *keyedMutex {
	return &keyedMutex{}
}

// Lock acquires the shard for key and returns its unlock func.
func (m *keyedMutex) Lock(key string) func() {
	h := fnv.New32a()
	h.Write([]byte(key))
	shard := &m.shards[h.Sum32()%lockShards]
	shard.Lock()
	return shard.Unlock
}
