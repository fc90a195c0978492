package imagecache

import (
	"sync"
	"sync/atomic"

	"golang.org/x/sync/singleflight"

	"github.com/ssoj13/vfxcore/cache"
)

// ShardCount mirrors cache.DefaultShardCount: 16 shards, reduced lock
// contention, power-of-two for a bitwise-AND modulo.
const ShardCount = 16
const shardMask = ShardCount - 1

// DefaultByteBudget is the default total tile byte budget (512 MiB) split
// evenly across shards.
const DefaultByteBudget = 512 << 20

// DefaultStreamThreshold is the default file size (256 MiB) at or above
// which a file is opened in streaming mode instead of fully decoded.
const DefaultStreamThreshold = 256 << 20

// DefaultTileSize is the default tile edge length in pixels.
const DefaultTileSize = 256

// maxOpenFilesPerShard bounds the open-file table to about 32 entries
// total (maxOpenFilesPerShard * ShardCount), closing over the least
// recently touched file within a shard once exceeded.
const maxOpenFilesPerShard = 2

// Options configures a Cache.
type Options struct {
	// ByteBudget is the total tile byte budget across all shards. Each
	// shard gets ByteBudget/ShardCount. 0 uses DefaultByteBudget.
	ByteBudget int64
	// StreamThreshold is the file size at or above which a file is opened
	// in streaming mode. 0 uses DefaultStreamThreshold; a negative value
	// disables streaming mode entirely (files are always fully decoded).
	StreamThreshold int64
	// TileSize is the cache's tile edge length in pixels. 0 uses
	// DefaultTileSize. This is the single source of truth for tile size:
	// callers (the texture package in particular) must read it back from
	// the cache rather than hard-coding their own.
	TileSize int
}

type shard struct {
	mu      sync.RWMutex
	entries map[Key]*shardEntry
	lru     *tileLRUList
	bytes   int64
}

type shardEntry struct {
	tile *CacheTile
	node *tileLRUNode
}

// Cache is a thread-safe, sharded, byte-budgeted LRU tile cache. The tile
// shards are a custom implementation (see shard/tileLRUList below) because
// a byte-budget cache needs to track a running byte total per shard
// alongside the LRU list, not just an entry count, which doesn't fit
// cache.ShardedCache's Set/capacity API. The open-file table has no such
// need — it is a plain bounded-count cache keyed by path — so it is a
// direct instance of cache.ShardedCache[string, *fileEntry] rather than a
// second hand-rolled LRU.
type Cache struct {
	shards          [ShardCount]*shard
	shardBudget     int64
	streamThreshold int64
	tileSize        int

	files        *cache.ShardedCache[string, *fileEntry]
	fileInflight singleflight.Group

	inflight singleflight.Group

	hits      atomic.Uint64
	misses    atomic.Uint64
	evictions atomic.Uint64
	peakBytes atomic.Int64
	curBytes  atomic.Int64
}

// Stats reports cache statistics.
type Stats struct {
	Entries      int
	Bytes        int64
	PeakBytes    int64
	ByteBudget   int64
	Hits         uint64
	Misses       uint64
	HitRate      float64
	Evictions    uint64
	OpenFiles    int
}

// NewCache builds a Cache from opts, applying defaults for zero fields.
func NewCache(opts Options) *Cache {
	budget := opts.ByteBudget
	if budget <= 0 {
		budget = DefaultByteBudget
	}
	threshold := opts.StreamThreshold
	if threshold == 0 {
		threshold = DefaultStreamThreshold
	}
	tileSize := opts.TileSize
	if tileSize <= 0 {
		tileSize = DefaultTileSize
	}

	c := &Cache{
		shardBudget:     budget / ShardCount,
		streamThreshold: threshold,
		tileSize:        tileSize,
		files:           cache.NewSharded[string, *fileEntry](maxOpenFilesPerShard, cache.StringHasher),
	}
	for i := range c.shards {
		c.shards[i] = &shard{
			entries: map[Key]*shardEntry{},
			lru:     newTileLRUList(),
		}
	}
	return c
}

// TileSize returns the cache's configured tile edge length.
func (c *Cache) TileSize() int { return c.tileSize }

func (c *Cache) getShard(key Key) *shard {
	return c.shards[key.hash()&shardMask]
}

// lookup looks up key without affecting its reference count or the hit/
// miss counters; used by peek/Get (which count and retain) and by
// GetOrLoad's re-check inside the singleflight section, which must do
// neither: counting there would double-count a single logical request,
// and retaining would hand out a reference before the caller has won the
// race.
func (c *Cache) lookup(key Key) (*CacheTile, bool) {
	sh := c.getShard(key)
	sh.mu.Lock()
	e, ok := sh.entries[key]
	if !ok {
		sh.mu.Unlock()
		return nil, false
	}
	sh.lru.MoveToFront(e.node)
	tile := e.tile
	sh.mu.Unlock()
	return tile, true
}

// peek looks up key, counting the access as a hit or miss, without
// retaining a reference.
func (c *Cache) peek(key Key) (*CacheTile, bool) {
	tile, ok := c.lookup(key)
	if !ok {
		c.misses.Add(1)
		return nil, false
	}
	c.hits.Add(1)
	return tile, true
}

// Get returns a retained tile for key if present, without triggering a
// load on miss.
func (c *Cache) Get(key Key) (*CacheTile, bool) {
	tile, ok := c.peek(key)
	if !ok {
		return nil, false
	}
	return tile.Retain(), true
}

// GetOrLoad returns a retained tile for key, decoding it from src if not
// already cached. Concurrent callers requesting the same key collapse
// into a single build: only one goroutine decodes, the rest wait for and
// share its result, each retaining their own reference to it.
func (c *Cache) GetOrLoad(key Key, path string, src Source) (*CacheTile, error) {
	if tile, ok := c.peek(key); ok {
		return tile.Retain(), nil
	}

	v, err, _ := c.inflight.Do(key.String(), func() (any, error) {
		// Re-check: another build may have completed between our peek miss
		// and acquiring the singleflight slot.
		if tile, ok := c.lookup(key); ok {
			return tile, nil
		}

		entry, err := c.fileEntryFor(path, src)
		if err != nil {
			return nil, err
		}
		buf, err := entry.tile(key.Subimage, key.Mip, key.TileX, key.TileY, c.tileSize)
		if err != nil {
			return nil, err
		}

		tile := newCacheTile(key, buf)
		c.insert(key, tile)
		return tile, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*CacheTile).Retain(), nil
}

func (c *Cache) insert(key Key, tile *CacheTile) {
	sh := c.getShard(key)
	sh.mu.Lock()
	defer sh.mu.Unlock()

	if existing, ok := sh.entries[key]; ok {
		sh.bytes -= existing.tile.ByteSize
		sh.lru.MoveToFront(existing.node)
		existing.tile = tile
		sh.bytes += tile.ByteSize
	} else {
		node := sh.lru.PushFront(key)
		sh.entries[key] = &shardEntry{tile: tile, node: node}
		sh.bytes += tile.ByteSize
	}

	for sh.bytes > c.shardBudget && sh.lru.Len() > 1 {
		oldest, ok := sh.lru.RemoveOldest()
		if !ok {
			break
		}
		if old, ok := sh.entries[oldest]; ok {
			sh.bytes -= old.tile.ByteSize
			delete(sh.entries, oldest)
			c.evictions.Add(1)
		}
	}

	c.curBytes.Store(c.totalBytesLocked())
	for {
		cur := c.curBytes.Load()
		peak := c.peakBytes.Load()
		if cur <= peak || c.peakBytes.CompareAndSwap(peak, cur) {
			break
		}
	}
}

// totalBytesLocked sums shard byte totals. Each shard's own bytes field is
// read without its lock here since insert already holds the lock for the
// shard it just mutated and the others are read optimistically for a
// stats estimate, matching the best-effort consistency the rest of this
// cache's statistics already have.
func (c *Cache) totalBytesLocked() int64 {
	var total int64
	for _, sh := range c.shards {
		total += sh.bytes
	}
	return total
}

// fileEntryFor returns the open fileEntry for path, opening it (and
// evicting the shard's least recently touched entry past capacity) if not
// already cached. Concurrent callers opening the same path collapse into a
// single open via fileInflight, matching GetOrLoad's tile-build collapsing
// below; cache.ShardedCache.GetOrCreate can't be used directly here since
// it has no way to propagate an open error without caching the failure.
func (c *Cache) fileEntryFor(path string, src Source) (*fileEntry, error) {
	if e, ok := c.files.Get(path); ok {
		return e, nil
	}

	v, err, _ := c.fileInflight.Do(path, func() (any, error) {
		if e, ok := c.files.Get(path); ok {
			return e, nil
		}
		e, err := openFileEntry(path, src, c.streamThreshold)
		if err != nil {
			return nil, &CacheError{Kind: CacheIoError, Message: "opening " + path, Cause: err}
		}
		c.files.Set(path, e)
		return e, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*fileEntry), nil
}

// Dimensions returns the pixel dimensions of (path, subimage, mip),
// opening and decoding the file if not already open. Callers needing to
// map normalized texture coordinates to tile indices (the texture
// package's cache-backed sampler) use this instead of hard-coding any
// assumption about mip level sizing.
func (c *Cache) Dimensions(path string, src Source, subimage, mip int) (width, height int, err error) {
	entry, err := c.fileEntryFor(path, src)
	if err != nil {
		return 0, 0, err
	}
	buf, err := entry.mipBuffer(subimage, mip)
	if err != nil {
		return 0, 0, err
	}
	dw := buf.Spec.DataWindow
	return dw.Width, dw.Height, nil
}

// Invalidate removes every cached tile (all subimages and mip levels) for
// path, and closes its file entry if open.
func (c *Cache) Invalidate(path string) {
	for _, sh := range c.shards {
		sh.mu.Lock()
		for key, e := range sh.entries {
			if key.FileID == path {
				sh.bytes -= e.tile.ByteSize
				sh.lru.Remove(e.node)
				delete(sh.entries, key)
			}
		}
		sh.mu.Unlock()
	}

	c.files.Delete(path)
}

// Stats returns current cache statistics.
func (c *Cache) Stats() Stats {
	var entries int
	var bytes int64
	for _, sh := range c.shards {
		sh.mu.RLock()
		entries += len(sh.entries)
		bytes += sh.bytes
		sh.mu.RUnlock()
	}

	hits := c.hits.Load()
	misses := c.misses.Load()
	var hitRate float64
	if total := hits + misses; total > 0 {
		hitRate = float64(hits) / float64(total)
	}

	openFiles := c.files.Len()

	return Stats{
		Entries:    entries,
		Bytes:      bytes,
		PeakBytes:  c.peakBytes.Load(),
		ByteBudget: c.shardBudget * ShardCount,
		Hits:       hits,
		Misses:     misses,
		HitRate:    hitRate,
		Evictions:  c.evictions.Load(),
		OpenFiles:  openFiles,
	}
}
