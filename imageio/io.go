package imageio

import (
	"bufio"
	"io"

	"github.com/ssoj13/vfxcore/exr"
	"github.com/ssoj13/vfxcore/imagebuf"
	"github.com/ssoj13/vfxcore/imagespec"
)

const sniffWindow = 32

// Read decodes the first (or only) image in r, resolving the driver by
// magic bytes. path is used only as a fallback hint when sniffing is
// inconclusive (an empty stream, or a format with no magic number).
func Read(r io.Reader, path string) (*imagebuf.Buffer, *imagespec.ImageSpec, error) {
	bufs, specs, err := ReadLayers(r, path)
	if err != nil {
		return nil, nil, err
	}
	return bufs[0], specs[0], nil
}

// ReadSubimage decodes subimage index (0-based) from a multi-image stream
// (an EXR multipart file, or a multi-page TIFF).
func ReadSubimage(r io.Reader, path string, index int) (*imagebuf.Buffer, *imagespec.ImageSpec, error) {
	bufs, specs, err := ReadLayers(r, path)
	if err != nil {
		return nil, nil, err
	}
	if index < 0 || index >= len(bufs) {
		return nil, nil, &IoError{Kind: InvalidArgument, Message: "subimage index out of range"}
	}
	return bufs[index], specs[index], nil
}

// ReadLayers decodes every subimage/part in the stream.
func ReadLayers(r io.Reader, path string) ([]*imagebuf.Buffer, []*imagespec.ImageSpec, error) {
	br := bufio.NewReaderSize(r, 4096)
	head, _ := br.Peek(sniffWindow)
	driver, err := Resolve(path, head)
	if err != nil {
		return nil, nil, err
	}
	bufs, specs, err := driver.Decode(br)
	if err != nil {
		return nil, nil, err
	}
	if len(bufs) == 0 {
		return nil, nil, &IoError{Kind: CorruptData, Message: "driver " + driver.Name() + " returned no images"}
	}
	return bufs, specs, nil
}

// Probe identifies a format without decoding pixel data, returning the
// driver name and the capability flags it advertises.
func Probe(r io.Reader, path string) (name string, caps Capability, err error) {
	head := make([]byte, sniffWindow)
	n, _ := io.ReadFull(r, head)
	driver, rerr := Resolve(path, head[:n])
	if rerr != nil {
		return "", 0, rerr
	}
	return driver.Name(), driver.Capabilities(), nil
}

// Write encodes bufs/specs (one entry per subimage) to w using the driver
// registered for formatName.
func Write(w io.Writer, formatName string, bufs []*imagebuf.Buffer, specs []*imagespec.ImageSpec) error {
	driver, ok := Get(formatName)
	if !ok {
		return &IoError{Kind: UnsupportedFormat, Message: "no driver registered as " + formatName}
	}
	if len(bufs) > 1 && !driver.Capabilities().Has(CapMultiImage) {
		return &IoError{Kind: UnsupportedFeature, Message: formatName + " does not support multiple subimages"}
	}
	return driver.Encode(w, bufs, specs)
}

// ReadDeep decodes every part of an EXR stream, returning deep parts as
// *exr.DeepData and flat parts as *imagebuf.Buffer in file.Parts order.
// Only the exr format carries deep data, so this bypasses the generic
// Driver interface (whose Decode method has no deep-data return type)
// and talks to the exr package directly.
func ReadDeep(r io.Reader) (*exr.File, []any, error) {
	return exr.ReadFile(r)
}

// StreamingHandle is a format-agnostic wrapper over exr.StreamingSource,
// the only registered format with CapIoProxy today; the wrapper exists so
// callers outside this package never import exr directly for tile access.
type StreamingHandle struct {
	source *exr.StreamingSource
}

func (h *StreamingHandle) File() *exr.File { return h.source.File() }

func (h *StreamingHandle) ReadTile(partIndex, tx, ty int) (*imagebuf.Buffer, error) {
	return h.source.ReadTile(partIndex, tx, ty)
}

func (h *StreamingHandle) ReadScanlineBlock(partIndex, blockIndex int) (*imagebuf.Buffer, error) {
	return h.source.ReadScanlineBlock(partIndex, blockIndex)
}

// OpenStreaming opens ra for tile-by-tile (or scanline-block-by-block)
// random access without decoding the whole image. Only formats with
// CapIoProxy support this; currently that is exr alone.
func OpenStreaming(ra io.ReaderAt, size int64, path string) (*StreamingHandle, error) {
	head := make([]byte, sniffWindow)
	n, _ := ra.ReadAt(head, 0)
	driver, err := Resolve(path, head[:n])
	if err != nil {
		return nil, err
	}
	if !driver.Capabilities().Has(CapIoProxy) {
		return nil, &IoError{Kind: UnsupportedFeature, Message: driver.Name() + " does not support streaming tile access"}
	}
	source, err := exr.OpenStreaming(ra, size)
	if err != nil {
		return nil, wrapExrErr(err)
	}
	return &StreamingHandle{source: source}, nil
}
