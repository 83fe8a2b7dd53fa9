package cache

import (
	"hash/fnv"
	"sync"

	"melodex/model"
)

const shardCount = 32

// TrackCache is a concurrent map from track ID to Track, used as an
// in-memory mirror of the durable store. Keys are spread over a fixed
// number of RWMutex-guarded shards so unrelated reads and writes do not
// serialize on a single lock.
//
// The cache holds copies: Put copies the value in and Get/All copy values
// out, so callers can never mutate a cached entry in place.
type TrackCache struct {
	shards [shardCount]trackShard
}

type trackShard struct {
	mu     sync.RWMutex
	tracks map[string]model.Track
}

// NewTrackCache creates an empty cache.
func NewTrackCache() *TrackCache {
	c := &TrackCache{}
	for i := range c.shards {
		c.shards[i].tracks = make(map[string]model.Track)
	}
	return c
}

func (c *TrackCache) shardFor(id string) *trackShard {
	h := fnv.New32a()
	h.Write([]byte(id))
	return &c.shards[h.Sum32()%shardCount]
}

// Get returns the cached track and true, or nil and false on a miss.
// Filling a miss from the store is the caller's job (read-through is
// driven by the catalog engine, not the cache).
func (c *TrackCache) Get(id string) (*model.Track, bool) {
	shard := c.shardFor(id)
	shard.mu.RLock()
	defer shard.mu.RUnlock()

	track, ok := shard.tracks[id]
	if !ok {
		return nil, false
	}
	copied := track
	return &copied, true
}

// Put inserts or replaces the entry for track.ID.
func (c *TrackCache) Put(track *model.Track) {
	shard := c.shardFor(track.ID)
	shard.mu.Lock()
	defer shard.mu.Unlock()

	shard.tracks[track.ID] = *track
}

// Remove deletes the entry if present. Removing an absent key is a no-op.
func (c *TrackCache) Remove(id string) {
	shard := c.shardFor(id)
	shard.mu.Lock()
	defer shard.mu.Unlock()

	delete(shard.tracks, id)
}

// All returns a snapshot of every cached track. The snapshot is taken
// shard by shard, so it is not a single consistent point in time across
// all keys; that is acceptable because track content is immutable after
// creation apart from the play counter.
func (c *TrackCache) All() []*model.Track {
	tracks := make([]*model.Track, 0, c.Len())
	for i := range c.shards {
		shard := &c.shards[i]
		shard.mu.RLock()
		for _, track := range shard.tracks {
			copied := track
			tracks = append(tracks, &copied)
		}
		shard.mu.RUnlock()
	}
	return tracks
}

// Len returns the number of cached tracks.
func (c *TrackCache) Len() int {
	n := 0
	for i := range c.shards {
		shard := &c.shards[i]
		shard.mu.RLock()
		n += len(shard.tracks)
		shard.mu.RUnlock()
	}
	return n
}
