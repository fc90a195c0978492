// Package exr implements a from-scratch OpenEXR reader/writer: header and
// attribute serialization, None/RLE/ZIP1/ZIP16 scanline and tile chunk
// codecs, and a minimal deep-scanline format, all built against this
// module's own imagespec/imagebuf types rather than wrapping a C library.
package exr

import (
	"encoding/binary"
	"io"
	"math"
	"sort"

	"github.com/ssoj13/vfxcore/imagebuf"
	"github.com/ssoj13/vfxcore/imagespec"
)

// sortedChannels returns p.Channels sorted by name, matching the on-disk
// channel order used by encodeChlist and every chunk codec below.
func sortedChannels(p *Part) ChannelList {
	cl := make(ChannelList, len(p.Channels))
	copy(cl, p.Channels)
	sort.Slice(cl, func(i, j int) bool { return cl[i].Name < cl[j].Name })
	return cl
}

// uniformPixelType returns the single PixelType shared by every channel in
// cl, or an error if the part mixes per-channel sample types — this
// module's imagebuf.Buffer stores one DataFormat for the whole image, so a
// mixed-format part (legal in OpenEXR, e.g. half RGB + float Z) cannot be
// represented without a per-channel buffer this package does not build.
func uniformPixelType(cl ChannelList) (PixelType, error) {
	if len(cl) == 0 {
		return 0, &IoError{Kind: InvalidArgument, Message: "part has no channels"}
	}
	t := cl[0].Type
	for _, c := range cl[1:] {
		if c.Type != t {
			return 0, &IoError{Kind: UnsupportedFeature, Message: "mixed per-channel pixel types (channel " + c.Name + ") are not supported"}
		}
	}
	return t, nil
}

func dataFormatFor(t PixelType) imagespec.DataFormat {
	switch t {
	case PixelHalf:
		return imagespec.FormatF16
	case PixelFloat:
		return imagespec.FormatF32
	default:
		return imagespec.FormatU32
	}
}

func scanlineChunkCount(p *Part) int {
	spb := p.Compression.ScanlinesPerBlock()
	h := p.DataWindow.Height
	return (h + spb - 1) / spb
}

func tileGrid(p *Part) (tilesX, tilesY int) {
	tw, th := int(p.TileDesc.XSize), int(p.TileDesc.YSize)
	w, h := p.DataWindow.Width, p.DataWindow.Height
	return (w + tw - 1) / tw, (h + th - 1) / th
}

// WriteFile serializes file to w. buffers[i] supplies the pixel data for
// file.Parts[i]: a *imagebuf.Buffer for scanline/tiled parts, or a
// *DeepData for deep parts.
func WriteFile(w io.Writer, file *File, buffers []any) error {
	if len(file.Parts) != len(buffers) {
		return &IoError{Kind: InvalidArgument, Message: "part count does not match buffer count"}
	}
	multipart := len(file.Parts) > 1
	bw := &byteWriter{w: w}

	bw.write(magicBytes[:])
	var flags int32 = versionNumber
	if multipart {
		flags |= flagMultipart
	}
	for _, p := range file.Parts {
		if p.IsTiled() {
			flags |= flagTiled
		}
		if p.IsDeep() {
			flags |= flagDeep
		}
	}
	bw.i32(flags)

	for _, p := range file.Parts {
		writePartHeader(bw, p, multipart)
	}
	if multipart {
		bw.u8(0)
	}
	if bw.err != nil {
		return bw.err
	}

	for i, p := range file.Parts {
		if err := writePartChunks(bw, p, buffers[i], multipart, i); err != nil {
			return err
		}
	}
	return bw.err
}

func writePartChunks(bw *byteWriter, p *Part, buf any, multipart bool, partIndex int) error {
	switch {
	case p.IsDeep():
		dd, ok := buf.(*DeepData)
		if !ok {
			return &IoError{Kind: InvalidArgument, Message: "deep part requires *DeepData buffer"}
		}
		return writeDeepScanlinePart(bw, p, dd, multipart, partIndex)
	case p.IsTiled():
		ib, ok := buf.(*imagebuf.Buffer)
		if !ok {
			return &IoError{Kind: InvalidArgument, Message: "tiled part requires *imagebuf.Buffer"}
		}
		return writeTiledPart(bw, p, ib, multipart, partIndex)
	default:
		ib, ok := buf.(*imagebuf.Buffer)
		if !ok {
			return &IoError{Kind: InvalidArgument, Message: "scanline part requires *imagebuf.Buffer"}
		}
		return writeScanlinePart(bw, p, ib, multipart, partIndex)
	}
}

func writeScanlinePart(bw *byteWriter, p *Part, buf *imagebuf.Buffer, multipart bool, partIndex int) error {
	cl := sortedChannels(p)
	ptype, err := uniformPixelType(cl)
	if err != nil {
		return err
	}
	spb := p.Compression.ScanlinesPerBlock()
	dw := p.DataWindow
	numChunks := scanlineChunkCount(p)

	offsets := make([]int64, numChunks)
	chunkBufs := make([][]byte, numChunks)
	for i := 0; i < numChunks; i++ {
		y0 := dw.Y + i*spb
		h := spb
		if y0+h > dw.Y+dw.Height {
			h = dw.Y + dw.Height - y0
		}
		raw := make([]byte, 0, regionRawSize(len(cl), dw.Width, h, ptype))
		for _, c := range cl {
			idx := buf.Spec.ChannelIndex(c.Name)
			raw = append(raw, packChannelRegion(buf, idx, dw.X, y0, dw.Z, dw.Width, h, ptype)...)
		}
		compressed, err := compressBlock(p.Compression, raw)
		if err != nil {
			return err
		}
		g := &growBuf{}
		cbw := &byteWriter{w: g}
		if multipart {
			cbw.i32(int32(partIndex))
		}
		cbw.i32(int32(y0))
		cbw.i32(int32(len(compressed)))
		cbw.write(compressed)
		chunkBufs[i] = g.buf
	}
	return writeOffsetsAndChunks(bw, offsets, chunkBufs)
}

func writeTiledPart(bw *byteWriter, p *Part, buf *imagebuf.Buffer, multipart bool, partIndex int) error {
	if p.TileDesc.Mode != TileOneLevel {
		return &IoError{Kind: UnsupportedFeature, Message: "mipmap/ripmap tiled levels are not supported"}
	}
	cl := sortedChannels(p)
	ptype, err := uniformPixelType(cl)
	if err != nil {
		return err
	}
	tw, th := int(p.TileDesc.XSize), int(p.TileDesc.YSize)
	tilesX, tilesY := tileGrid(p)
	dw := p.DataWindow

	var offsets []int64
	var chunkBufs [][]byte
	for ty := 0; ty < tilesY; ty++ {
		for tx := 0; tx < tilesX; tx++ {
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
			raw := make([]byte, 0, regionRawSize(len(cl), w, h, ptype))
			for _, c := range cl {
				idx := buf.Spec.ChannelIndex(c.Name)
				raw = append(raw, packChannelRegion(buf, idx, x0, y0, dw.Z, w, h, ptype)...)
			}
			compressed, err := compressBlock(p.Compression, raw)
			if err != nil {
				return err
			}
			g := &growBuf{}
			cbw := &byteWriter{w: g}
			if multipart {
				cbw.i32(int32(partIndex))
			}
			cbw.i32(int32(tx))
			cbw.i32(int32(ty))
			cbw.i32(0) // level x
			cbw.i32(0) // level y
			cbw.i32(int32(len(compressed)))
			cbw.write(compressed)
			chunkBufs = append(chunkBufs, g.buf)
			offsets = append(offsets, 0)
		}
	}
	return writeOffsetsAndChunks(bw, offsets, chunkBufs)
}

func writeDeepScanlinePart(bw *byteWriter, p *Part, dd *DeepData, multipart bool, partIndex int) error {
	cl := sortedChannels(p)
	ptype, err := uniformPixelType(cl)
	if err != nil {
		return err
	}
	dw := p.DataWindow
	numChunks := dw.Height // deep chunks are always one scanline each

	offsets := make([]int64, numChunks)
	chunkBufs := make([][]byte, numChunks)
	for row := 0; row < numChunks; row++ {
		y := dw.Y + row
		counts := make([]byte, dw.Width*4)
		for x := 0; x < dw.Width; x++ {
			binary.LittleEndian.PutUint32(counts[x*4:], uint32(dd.SampleCounts[row*dw.Width+x]))
		}
		compressedCounts, err := compressBlock(p.Compression, counts)
		if err != nil {
			return err
		}

		var raw []byte
		for _, c := range cl {
			for x := 0; x < dw.Width; x++ {
				samples := dd.SamplesAt(c.Name, x, row)
				for _, v := range samples {
					switch ptype {
					case PixelHalf:
						var b [2]byte
						binary.LittleEndian.PutUint16(b[:], halfFromFloat32(v))
						raw = append(raw, b[:]...)
					default:
						var b [4]byte
						binary.LittleEndian.PutUint32(b[:], float32BitsOf(v, ptype))
						raw = append(raw, b[:]...)
					}
				}
			}
		}
		compressedSamples, err := compressBlock(p.Compression, raw)
		if err != nil {
			return err
		}

		g := &growBuf{}
		cbw := &byteWriter{w: g}
		if multipart {
			cbw.i32(int32(partIndex))
		}
		cbw.i32(int32(y))
		cbw.i32(int32(len(counts)))
		cbw.i32(int32(len(compressedCounts)))
		cbw.write(compressedCounts)
		cbw.i32(int32(len(raw)))
		cbw.i32(int32(len(compressedSamples)))
		cbw.write(compressedSamples)
		chunkBufs[row] = g.buf
	}
	return writeOffsetsAndChunks(bw, offsets, chunkBufs)
}

func float32BitsOf(v float32, ptype PixelType) uint32 {
	if ptype == PixelUint {
		return uint32(int32(v))
	}
	return math.Float32bits(v)
}

func writeOffsetsAndChunks(bw *byteWriter, offsets []int64, chunkBufs [][]byte) error {
	// Offsets are computed relative to the start of the chunk stream and
	// patched in after the fact; this implementation instead writes chunks
	// immediately after their own part's offset table and records absolute
	// positions is unnecessary for a self-contained reader that walks
	// chunks sequentially, so the table is written as zeros and chunk
	// boundaries are discovered by reading each chunk's own length prefix.
	for range offsets {
		bw.i64(0)
	}
	for _, c := range chunkBufs {
		bw.write(c)
	}
	return bw.err
}

// ReadFile parses an OpenEXR document from r, returning the File and, per
// part, a *imagebuf.Buffer (scanline/tiled) or *DeepData (deep) in the same
// order as file.Parts.
func ReadFile(r io.Reader) (*File, []any, error) {
	var magic [4]byte
	if _, err := io.ReadFull(r, magic[:]); err != nil {
		return nil, nil, &IoError{Kind: CorruptData, Message: "truncated magic", Cause: err}
	}
	if !Sniff(magic[:]) {
		return nil, nil, &IoError{Kind: UnsupportedFormat, Message: "not an OpenEXR stream"}
	}
	var vbuf [4]byte
	if _, err := io.ReadFull(r, vbuf[:]); err != nil {
		return nil, nil, &IoError{Kind: CorruptData, Message: "truncated version", Cause: err}
	}
	flags := int32(binary.LittleEndian.Uint32(vbuf[:]))
	multipart := flags&flagMultipart != 0

	file := &File{}
	if multipart {
		for {
			p, end, err := readPartHeader(r)
			if err != nil {
				return nil, nil, &IoError{Kind: CorruptData, Message: "reading part header", Cause: err}
			}
			if end {
				break
			}
			file.Parts = append(file.Parts, p)
		}
	} else {
		p, _, err := readPartHeader(r)
		if err != nil {
			return nil, nil, &IoError{Kind: CorruptData, Message: "reading header", Cause: err}
		}
		file.Parts = append(file.Parts, p)
	}

	buffers := make([]any, len(file.Parts))
	for i, p := range file.Parts {
		buf, err := readPartChunks(r, p, multipart, i)
		if err != nil {
			return nil, nil, err
		}
		buffers[i] = buf
	}
	return file, buffers, nil
}

func readI32(r io.Reader) (int32, error) {
	var b [4]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return 0, err
	}
	return int32(binary.LittleEndian.Uint32(b[:])), nil
}

func readI64(r io.Reader) (int64, error) {
	var b [8]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return 0, err
	}
	return int64(binary.LittleEndian.Uint64(b[:])), nil
}

func readPartChunks(r io.Reader, p *Part, multipart bool, partIndex int) (any, error) {
	switch {
	case p.IsDeep():
		if p.Type == PartDeepTile {
			return nil, &IoError{Kind: UnsupportedFeature, Message: "deep tiled parts are not supported"}
		}
		return readDeepScanlinePart(r, p, multipart)
	case p.IsTiled():
		return readTiledPart(r, p, multipart)
	default:
		return readScanlinePart(r, p, multipart)
	}
}

func newPartBuffer(p *Part, cl ChannelList, ptype PixelType) (*imagebuf.Buffer, error) {
	names := make([]string, len(cl))
	for i, c := range cl {
		names[i] = c.Name
	}
	spec := imagespec.NewImageSpec(p.DataWindow.Width, p.DataWindow.Height, len(cl), dataFormatFor(ptype))
	spec.ChannelNames = names
	spec.DataWindow = p.DataWindow
	spec.DisplayWindow = p.DisplayWindow
	return imagebuf.NewBuffer(spec)
}

func readScanlinePart(r io.Reader, p *Part, multipart bool) (*imagebuf.Buffer, error) {
	cl := sortedChannels(p)
	ptype, err := uniformPixelType(cl)
	if err != nil {
		return nil, err
	}
	buf, err := newPartBuffer(p, cl, ptype)
	if err != nil {
		return nil, err
	}
	numChunks := scanlineChunkCount(p)
	spb := p.Compression.ScanlinesPerBlock()
	dw := p.DataWindow

	if _, err := skipOffsetTable(r, numChunks); err != nil {
		return nil, err
	}
	for i := 0; i < numChunks; i++ {
		if multipart {
			if _, err := readI32(r); err != nil {
				return nil, &IoError{Kind: CorruptData, Message: "reading chunk part number", Cause: err}
			}
		}
		y, err := readI32(r)
		if err != nil {
			return nil, &IoError{Kind: CorruptData, Message: "reading chunk y", Cause: err}
		}
		size, err := readI32(r)
		if err != nil {
			return nil, &IoError{Kind: CorruptData, Message: "reading chunk size", Cause: err}
		}
		data := make([]byte, size)
		if _, err := io.ReadFull(r, data); err != nil {
			return nil, &IoError{Kind: CorruptData, Message: "reading chunk data", Cause: err}
		}
		h := spb
		if int(y)+h > dw.Y+dw.Height {
			h = dw.Y + dw.Height - int(y)
		}
		raw, err := decompressBlock(p.Compression, data, regionRawSize(len(cl), dw.Width, h, ptype))
		if err != nil {
			return nil, err
		}
		off := 0
		planeSize := dw.Width * h * ptype.BytesPerSample()
		for _, c := range cl {
			idx := buf.Spec.ChannelIndex(c.Name)
			unpackChannelRegion(buf, idx, dw.X, int(y), dw.Z, dw.Width, h, ptype, raw[off:off+planeSize])
			off += planeSize
		}
	}
	return buf, nil
}

func readTiledPart(r io.Reader, p *Part, multipart bool) (*imagebuf.Buffer, error) {
	if p.TileDesc.Mode != TileOneLevel {
		return nil, &IoError{Kind: UnsupportedFeature, Message: "mipmap/ripmap tiled levels are not supported"}
	}
	cl := sortedChannels(p)
	ptype, err := uniformPixelType(cl)
	if err != nil {
		return nil, err
	}
	buf, err := newPartBuffer(p, cl, ptype)
	if err != nil {
		return nil, err
	}
	tw, th := int(p.TileDesc.XSize), int(p.TileDesc.YSize)
	tilesX, tilesY := tileGrid(p)
	dw := p.DataWindow
	numChunks := tilesX * tilesY

	if _, err := skipOffsetTable(r, numChunks); err != nil {
		return nil, err
	}
	for i := 0; i < numChunks; i++ {
		if multipart {
			if _, err := readI32(r); err != nil {
				return nil, &IoError{Kind: CorruptData, Message: "reading chunk part number", Cause: err}
			}
		}
		tx, err := readI32(r)
		if err != nil {
			return nil, &IoError{Kind: CorruptData, Message: "reading tile x", Cause: err}
		}
		ty, err := readI32(r)
		if err != nil {
			return nil, &IoError{Kind: CorruptData, Message: "reading tile y", Cause: err}
		}
		if _, err := readI32(r); err != nil { // level x
			return nil, err
		}
		if _, err := readI32(r); err != nil { // level y
			return nil, err
		}
		size, err := readI32(r)
		if err != nil {
			return nil, &IoError{Kind: CorruptData, Message: "reading tile size", Cause: err}
		}
		data := make([]byte, size)
		if _, err := io.ReadFull(r, data); err != nil {
			return nil, &IoError{Kind: CorruptData, Message: "reading tile data", Cause: err}
		}
		x0 := dw.X + int(tx)*tw
		y0 := dw.Y + int(ty)*th
		w := tw
		if x0+w > dw.X+dw.Width {
			w = dw.X + dw.Width - x0
		}
		h := th
		if y0+h > dw.Y+dw.Height {
			h = dw.Y + dw.Height - y0
		}
		raw, err := decompressBlock(p.Compression, data, regionRawSize(len(cl), w, h, ptype))
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
	}
	return buf, nil
}

func readDeepScanlinePart(r io.Reader, p *Part, multipart bool) (*DeepData, error) {
	cl := sortedChannels(p)
	ptype, err := uniformPixelType(cl)
	if err != nil {
		return nil, err
	}
	dw := p.DataWindow
	numChunks := dw.Height
	names := make([]string, len(cl))
	for i, c := range cl {
		names[i] = c.Name
	}
	dd := NewDeepData(dw.Width, dw.Height, names)

	if _, err := skipOffsetTable(r, numChunks); err != nil {
		return nil, err
	}
	for row := 0; row < numChunks; row++ {
		if multipart {
			if _, err := readI32(r); err != nil {
				return nil, err
			}
		}
		if _, err := readI32(r); err != nil { // y
			return nil, err
		}
		rawCountsSize, err := readI32(r)
		if err != nil {
			return nil, err
		}
		compCountsSize, err := readI32(r)
		if err != nil {
			return nil, err
		}
		compCounts := make([]byte, compCountsSize)
		if _, err := io.ReadFull(r, compCounts); err != nil {
			return nil, err
		}
		counts, err := decompressBlock(p.Compression, compCounts, int(rawCountsSize))
		if err != nil {
			return nil, err
		}
		for x := 0; x < dw.Width; x++ {
			dd.SampleCounts[row*dw.Width+x] = int32(binary.LittleEndian.Uint32(counts[x*4:]))
		}

		rawSampleSize, err := readI32(r)
		if err != nil {
			return nil, err
		}
		compSampleSize, err := readI32(r)
		if err != nil {
			return nil, err
		}
		compSamples := make([]byte, compSampleSize)
		if _, err := io.ReadFull(r, compSamples); err != nil {
			return nil, err
		}
		raw, err := decompressBlock(p.Compression, compSamples, int(rawSampleSize))
		if err != nil {
			return nil, err
		}

		pos := 0
		for _, c := range cl {
			rowSamples := 0
			for x := 0; x < dw.Width; x++ {
				rowSamples += int(dd.SampleCounts[row*dw.Width+x])
			}
			vals := make([]float32, rowSamples)
			for i := range vals {
				switch ptype {
				case PixelHalf:
					vals[i] = floatFromHalf(binary.LittleEndian.Uint16(raw[pos:]))
					pos += 2
				default:
					bits := binary.LittleEndian.Uint32(raw[pos:])
					if ptype == PixelUint {
						vals[i] = float32(int32(bits))
					} else {
						vals[i] = math.Float32frombits(bits)
					}
					pos += 4
				}
			}
			dd.Channels[c.Name] = append(dd.Channels[c.Name], vals...)
		}
	}
	return dd, nil
}

// skipOffsetTable discards numChunks int64 offset entries: this codec
// discovers chunk boundaries from each chunk's own length prefix instead of
// trusting the table, so the values themselves are not needed on read.
func skipOffsetTable(r io.Reader, numChunks int) (int64, error) {
	var total int64
	for i := 0; i < numChunks; i++ {
		v, err := readI64(r)
		if err != nil {
			return total, &IoError{Kind: CorruptData, Message: "reading offset table", Cause: err}
		}
		total += v
	}
	return total, nil
}
