package imageio

import (
	"io"

	"github.com/ssoj13/vfxcore/imagebuf"
	"github.com/ssoj13/vfxcore/imagespec"
)

// Capability is a bitmask of optional features a format driver supports,
// queryable so callers can avoid invoking an entry point a format can't
// honor (e.g. requesting read_deep on a driver with no DeepData bit).
type Capability uint32

const (
	CapMultiImage Capability = 1 << iota
	CapMipMap
	CapTiles
	CapDeepData
	CapIoProxy
	CapThumbnail
	CapAppendSubImage
	CapArbitraryMetadata
	CapExif
	CapIptc
)

func (c Capability) Has(bit Capability) bool { return c&bit != 0 }

// Driver decodes and encodes one image file format. Decode returns every
// subimage ("part" in EXR terms) found in the stream; single-image formats
// always return a one-element slice.
type Driver interface {
	Name() string
	Extensions() []string
	Capabilities() Capability
	Sniff(head []byte) bool
	Decode(r io.Reader) ([]*imagebuf.Buffer, []*imagespec.ImageSpec, error)
	Encode(w io.Writer, bufs []*imagebuf.Buffer, specs []*imagespec.ImageSpec) error
}
