package imagecache

import (
	"sync/atomic"

	"github.com/ssoj13/vfxcore/imagebuf"
)

// CacheTile is one cached, decoded tile plus a reference count. A tile
// evicted from the index remains valid for readers already holding a
// Retain()'d reference; only the last Release() drops it for good.
type CacheTile struct {
	Key      Key
	Buffer   *imagebuf.Buffer
	ByteSize int64

	refs atomic.Int32
}

// newCacheTile builds a tile with a zero reference count; the cache's own
// map entry is not counted, only callers holding a Retain()'d reference
// are, so Release never needs to reach back into the cache index.
func newCacheTile(key Key, buf *imagebuf.Buffer) *CacheTile {
	return &CacheTile{Key: key, Buffer: buf, ByteSize: bufferByteSize(buf)}
}

// Retain increments the reference count and returns t for chaining.
func (t *CacheTile) Retain() *CacheTile {
	t.refs.Add(1)
	return t
}

// Release decrements the reference count. It never frees Go-managed memory
// directly (the garbage collector does that once the last reference is
// gone); it exists so callers can reason about tile lifetime the same way
// they would for a GPU- or mmap-backed tile.
func (t *CacheTile) Release() {
	t.refs.Add(-1)
}

func bufferByteSize(buf *imagebuf.Buffer) int64 {
	return int64(len(buf.Data)) * 4 // float32 elements
}
