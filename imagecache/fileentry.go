package imagecache

import (
	"io"
	"sync"

	"github.com/ssoj13/vfxcore/imagebuf"
	"github.com/ssoj13/vfxcore/imageio"
)

type mipKey struct {
	subimage, mip int
}

// fileEntry is the per-path open-file state: either a streaming handle
// (for files at or above the cache's stream threshold) or a lazily-decoded
// set of full subimage buffers. Generated mip levels are memoized here,
// outside the tile byte budget, on the documented assumption that a mip
// pyramid for one open file is small relative to the tile working set it
// feeds.
type fileEntry struct {
	path string
	src  Source

	mu        sync.Mutex
	streaming bool
	handle    *imageio.StreamingHandle

	full map[int]*imagebuf.Buffer
	mips map[mipKey]*imagebuf.Buffer
}

func openFileEntry(path string, src Source, streamThreshold int64) (*fileEntry, error) {
	e := &fileEntry{
		path: path,
		src:  src,
		full: map[int]*imagebuf.Buffer{},
		mips: map[mipKey]*imagebuf.Buffer{},
	}
	if streamThreshold > 0 && src.Size() >= streamThreshold {
		handle, err := imageio.OpenStreaming(src, src.Size(), path)
		if err == nil {
			e.streaming = true
			e.handle = handle
			return e, nil
		}
		// Format has no CapIoProxy driver (or isn't EXR): fall back to a
		// fully decoded, non-streaming entry rather than failing outright.
	}
	return e, nil
}

func (e *fileEntry) baseBuffer(subimage int) (*imagebuf.Buffer, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if buf, ok := e.full[subimage]; ok {
		return buf, nil
	}

	var buf *imagebuf.Buffer
	var err error
	if e.streaming {
		file := e.handle.File()
		if subimage < 0 || subimage >= len(file.Parts) {
			return nil, &CacheError{Kind: KeyMiss, Message: "subimage index out of range"}
		}
		buf, err = materializeStreamingPart(e.handle, subimage)
	} else {
		sr := io.NewSectionReader(e.src, 0, e.src.Size())
		buf, _, err = imageio.ReadSubimage(sr, e.path, subimage)
	}
	if err != nil {
		return nil, &CacheError{Kind: CacheIoError, Message: "decoding " + e.path, Cause: err}
	}
	e.full[subimage] = buf
	return buf, nil
}

// materializeStreamingPart decodes every tile or scanline block of a
// streaming-mode part into one full buffer, used only when a caller needs
// the whole image (mip generation, or a non-tiled-compatible tile read).
func materializeStreamingPart(h *imageio.StreamingHandle, partIndex int) (*imagebuf.Buffer, error) {
	part := h.File().Parts[partIndex]
	dw := part.DataWindow
	if part.IsTiled() {
		tw, th := int(part.TileDesc.XSize), int(part.TileDesc.YSize)
		tilesX := (dw.Width + tw - 1) / tw
		tilesY := (dw.Height + th - 1) / th
		var out *imagebuf.Buffer
		for ty := 0; ty < tilesY; ty++ {
			for tx := 0; tx < tilesX; tx++ {
				tile, err := h.ReadTile(partIndex, tx, ty)
				if err != nil {
					return nil, err
				}
				if out == nil {
					out = newFullBufferLike(tile.Spec, dw)
				}
				if err := stampTile(out, tile); err != nil {
					return nil, err
				}
			}
		}
		return out, nil
	}

	spb := part.Compression.ScanlinesPerBlock()
	numBlocks := (dw.Height + spb - 1) / spb
	var out *imagebuf.Buffer
	for i := 0; i < numBlocks; i++ {
		block, err := h.ReadScanlineBlock(partIndex, i)
		if err != nil {
			return nil, err
		}
		if out == nil {
			out = newFullBufferLike(block.Spec, dw)
		}
		if err := stampTile(out, block); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (e *fileEntry) mipBuffer(subimage, mip int) (*imagebuf.Buffer, error) {
	if mip <= 0 {
		return e.baseBuffer(subimage)
	}
	e.mu.Lock()
	if buf, ok := e.mips[mipKey{subimage, mip}]; ok {
		e.mu.Unlock()
		return buf, nil
	}
	e.mu.Unlock()

	prev, err := e.mipBuffer(subimage, mip-1)
	if err != nil {
		return nil, err
	}
	down, err := downsampleBox(prev)
	if err != nil {
		return nil, err
	}

	e.mu.Lock()
	e.mips[mipKey{subimage, mip}] = down
	e.mu.Unlock()
	return down, nil
}

// tile returns one tileSize x tileSize region of (subimage, mip) at
// (tileX, tileY). When the entry is in streaming mode and the request is
// the base tiled level at the source's native tile size, it reads the
// single tile directly off the handle without materializing anything
// else; every other path materializes (and memoizes) the needed level
// first, then crops.
func (e *fileEntry) tile(subimage, mip, tileX, tileY, tileSize int) (*imagebuf.Buffer, error) {
	if mip == 0 && e.streaming && subimage >= 0 && subimage < len(e.handle.File().Parts) {
		part := e.handle.File().Parts[subimage]
		if part.IsTiled() && int(part.TileDesc.XSize) == tileSize && int(part.TileDesc.YSize) == tileSize {
			buf, err := e.handle.ReadTile(subimage, tileX, tileY)
			if err != nil {
				return nil, &CacheError{Kind: CacheIoError, Message: "reading tile", Cause: err}
			}
			return toRGBA(buf)
		}
	}

	base, err := e.mipBuffer(subimage, mip)
	if err != nil {
		return nil, err
	}
	tile, err := cropTile(base, tileX, tileY, tileSize)
	if err != nil {
		return nil, err
	}
	if e.streaming {
		return toRGBA(tile)
	}
	return tile, nil
}
