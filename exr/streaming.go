package exr

import (
	"io"

	"github.com/ssoj13/vfxcore/imagebuf"
	"github.com/ssoj13/vfxcore/imagespec"
)

// chunkLocation records where one compressed chunk lives in the underlying
// stream, so StreamingSource can re-read (and decompress) exactly one tile
// or scanline block without materializing the rest of the image.
type chunkLocation struct {
	offset int64
	size   int32
	// coordinate identifies the chunk: (y) for scanline blocks, (tx,ty)
	// for tiles.
	y, tx, ty int32
}

// StreamingSource provides tile-by-tile (or block-by-block) random access
// into an EXR part without decoding the whole image up front. It is built
// once by a sequential index pass over the stream, then serves ReadTile /
// ReadScanlineBlock by seeking directly to a chunk's recorded offset.
type StreamingSource struct {
	ra        io.ReaderAt
	file      *File
	multipart bool
	chunks    [][]chunkLocation // per part
}

// OpenStreaming indexes file's chunk offsets by walking once sequentially,
// then returns a StreamingSource that re-reads chunks on demand via ra.
func OpenStreaming(ra io.ReaderAt, size int64) (*StreamingSource, error) {
	sr := io.NewSectionReader(ra, 0, size)
	var magic [4]byte
	if _, err := io.ReadFull(sr, magic[:]); err != nil {
		return nil, &IoError{Kind: CorruptData, Message: "truncated magic", Cause: err}
	}
	if !Sniff(magic[:]) {
		return nil, &IoError{Kind: UnsupportedFormat, Message: "not an OpenEXR stream"}
	}
	flags, err := readI32(sr)
	if err != nil {
		return nil, &IoError{Kind: CorruptData, Message: "truncated version", Cause: err}
	}
	multipart := flags&flagMultipart != 0

	file := &File{}
	if multipart {
		for {
			p, end, err := readPartHeader(sr)
			if err != nil {
				return nil, &IoError{Kind: CorruptData, Message: "reading part header", Cause: err}
			}
			if end {
				break
			}
			file.Parts = append(file.Parts, p)
		}
	} else {
		p, _, err := readPartHeader(sr)
		if err != nil {
			return nil, &IoError{Kind: CorruptData, Message: "reading header", Cause: err}
		}
		file.Parts = append(file.Parts, p)
	}

	ss := &StreamingSource{ra: ra, file: file, multipart: multipart}
	for _, p := range file.Parts {
		var numChunks int
		if p.IsTiled() {
			tx, ty := tileGrid(p)
			numChunks = tx * ty
		} else if p.IsDeep() {
			numChunks = p.DataWindow.Height
		} else {
			numChunks = scanlineChunkCount(p)
		}
		if _, err := skipOffsetTable(sr, numChunks); err != nil {
			return nil, err
		}
		locs := make([]chunkLocation, 0, numChunks)
		for i := 0; i < numChunks; i++ {
			if multipart {
				if _, err := readI32(sr); err != nil {
					return nil, &IoError{Kind: CorruptData, Message: "indexing chunk part number", Cause: err}
				}
			}
			loc := chunkLocation{}
			if p.IsTiled() {
				tx, err := readI32(sr)
				if err != nil {
					return nil, err
				}
				ty, err := readI32(sr)
				if err != nil {
					return nil, err
				}
				if _, err := readI32(sr); err != nil { // level x
					return nil, err
				}
				if _, err := readI32(sr); err != nil { // level y
					return nil, err
				}
				loc.tx, loc.ty = tx, ty
			} else if p.IsDeep() {
				y, err := readI32(sr)
				if err != nil {
					return nil, err
				}
				loc.y = y
				rawCounts, err := readI32(sr)
				_ = rawCounts
				if err != nil {
					return nil, err
				}
				compCounts, err := readI32(sr)
				if err != nil {
					return nil, err
				}
				if _, err := sr.Seek(int64(compCounts), io.SeekCurrent); err != nil {
					return nil, err
				}
				rawSamples, err := readI32(sr)
				_ = rawSamples
				if err != nil {
					return nil, err
				}
				compSamples, err := readI32(sr)
				if err != nil {
					return nil, err
				}
				pos, _ := sr.Seek(0, io.SeekCurrent)
				loc.offset = pos
				loc.size = compSamples
				if _, err := sr.Seek(int64(compSamples), io.SeekCurrent); err != nil {
					return nil, err
				}
				locs = append(locs, loc)
				continue
			} else {
				y, err := readI32(sr)
				if err != nil {
					return nil, err
				}
				loc.y = y
			}
			size, err := readI32(sr)
			if err != nil {
				return nil, err
			}
			pos, _ := sr.Seek(0, io.SeekCurrent)
			loc.offset = pos
			loc.size = size
			if _, err := sr.Seek(int64(size), io.SeekCurrent); err != nil {
				return nil, err
			}
			locs = append(locs, loc)
		}
		ss.chunks = append(ss.chunks, locs)
	}
	return ss, nil
}

func (ss *StreamingSource) File() *File { return ss.file }

// ReadTile decodes exactly one tile of a tiled part by seeking straight to
// its recorded offset, without touching any other tile.
func (ss *StreamingSource) ReadTile(partIndex, tx, ty int) (*imagebuf.Buffer, error) {
	p := ss.file.Parts[partIndex]
	if !p.IsTiled() {
		return nil, &IoError{Kind: InvalidArgument, Message: "part is not tiled"}
	}
	cl := sortedChannels(p)
	ptype, err := uniformPixelType(cl)
	if err != nil {
		return nil, err
	}
	var loc *chunkLocation
	for i := range ss.chunks[partIndex] {
		c := &ss.chunks[partIndex][i]
		if int(c.tx) == tx && int(c.ty) == ty {
			loc = c
			break
		}
	}
	if loc == nil {
		return nil, &IoError{Kind: NotFound, Message: "tile not indexed"}
	}
	tw, th := int(p.TileDesc.XSize), int(p.TileDesc.YSize)
	dw := p.DataWindow
	x0 := dw.X + tx*tw
	y0 := dw.Y + ty*th
	w := tw
	if x0+w > dw.X+dw.Width {
		w = dw.X + dw.Width - x0
	}
	h := th
	if y0+h > dw.Y+dw.Height {
		h = dw.Y + dw.Height - y0
	}

	data := make([]byte, loc.size)
	if _, err := ss.ra.ReadAt(data, loc.offset); err != nil {
		return nil, &IoError{Kind: CorruptData, Message: "reading tile bytes", Cause: err}
	}
	raw, err := decompressBlock(p.Compression, data, regionRawSize(len(cl), w, h, ptype))
	if err != nil {
		return nil, err
	}

	spec := newImageSpecFor(cl, ptype, x0, y0, w, h)
	buf, err := imagebuf.NewBuffer(spec)
	if err != nil {
		return nil, err
	}
	off := 0
	planeSize := w * h * ptype.BytesPerSample()
	for _, c := range cl {
		idx := buf.Spec.ChannelIndex(c.Name)
		unpackChannelRegion(buf, idx, x0, y0, dw.Z, w, h, ptype, raw[off:off+planeSize])
		off += planeSize
	}
	return buf, nil
}

// ReadScanlineBlock decodes exactly one compressed scanline block of a
// non-tiled, non-deep part.
func (ss *StreamingSource) ReadScanlineBlock(partIndex, blockIndex int) (*imagebuf.Buffer, error) {
	p := ss.file.Parts[partIndex]
	if p.IsTiled() || p.IsDeep() {
		return nil, &IoError{Kind: InvalidArgument, Message: "part is not a flat scanline part"}
	}
	if blockIndex < 0 || blockIndex >= len(ss.chunks[partIndex]) {
		return nil, &IoError{Kind: InvalidArgument, Message: "block index out of range"}
	}
	loc := ss.chunks[partIndex][blockIndex]
	cl := sortedChannels(p)
	ptype, err := uniformPixelType(cl)
	if err != nil {
		return nil, err
	}
	spb := p.Compression.ScanlinesPerBlock()
	dw := p.DataWindow
	h := spb
	if int(loc.y)+h > dw.Y+dw.Height {
		h = dw.Y + dw.Height - int(loc.y)
	}

	data := make([]byte, loc.size)
	if _, err := ss.ra.ReadAt(data, loc.offset); err != nil {
		return nil, &IoError{Kind: CorruptData, Message: "reading scanline bytes", Cause: err}
	}
	raw, err := decompressBlock(p.Compression, data, regionRawSize(len(cl), dw.Width, h, ptype))
	if err != nil {
		return nil, err
	}
	spec := newImageSpecFor(cl, ptype, dw.X, int(loc.y), dw.Width, h)
	buf, err := imagebuf.NewBuffer(spec)
	if err != nil {
		return nil, err
	}
	off := 0
	planeSize := dw.Width * h * ptype.BytesPerSample()
	for _, c := range cl {
		idx := buf.Spec.ChannelIndex(c.Name)
		unpackChannelRegion(buf, idx, dw.X, int(loc.y), dw.Z, dw.Width, h, ptype, raw[off:off+planeSize])
		off += planeSize
	}
	return buf, nil
}

// newImageSpecFor builds a one-tile-or-block ImageSpec whose data window is
// exactly [x,x+w) x [y,y+h), so the returned Buffer covers only the region
// just decoded.
func newImageSpecFor(cl ChannelList, ptype PixelType, x, y, w, h int) *imagespec.ImageSpec {
	names := make([]string, len(cl))
	for i, c := range cl {
		names[i] = c.Name
	}
	spec := imagespec.NewImageSpec(w, h, len(cl), dataFormatFor(ptype))
	spec.ChannelNames = names
	box := imagespec.Box{X: x, Y: y, Z: 0, Width: w, Height: h, Depth: 1}
	spec.DataWindow = box
	spec.DisplayWindow = box
	return spec
}
