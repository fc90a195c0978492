package imagecache

import (
	"fmt"
	"hash/fnv"
)

// Key identifies one cached tile: a source file, a subimage within it (EXR
// multipart index or multi-page index), a mip level, and a tile coordinate
// in that level's tile grid.
type Key struct {
	FileID   string
	Subimage int
	Mip      int
	TileX    int
	TileY    int
}

func (k Key) String() string {
	return fmt.Sprintf("%s#%d:%d:%d,%d", k.FileID, k.Subimage, k.Mip, k.TileX, k.TileY)
}

// hash computes a shard-selection hash for k, following the FNV-1a scheme
// cache.StringHasher uses for its keys.
func (k Key) hash() uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(k.String()))
	return h.Sum64()
}
