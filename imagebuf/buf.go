// Package imagebuf provides an in-memory image with pixel, region, and
// scanline/tile iterator access on top of an imagespec.ImageSpec. Internally
// pixels are always held as row-major, channel-interleaved float32,
// generalized from a fixed RGBA8/BGRA8 byte layout to the full
// ImageSpec.DataFormat range; callers
// convert to/from a file's native data format at the I/O boundary via
// ToImageData/FromImageData.
package imagebuf

import (
	"errors"
	"fmt"

	"github.com/ssoj13/vfxcore/imagespec"
)

var (
	ErrOutOfBounds  = errors.New("imagebuf: coordinates out of bounds")
	ErrShapeMismatch = errors.New("imagebuf: region shape does not match data length")
)

// Buffer is an ImageSpec plus float32 pixel storage, a stride triple
// (pixel, scanline, z — all expressed in floats, matching the storage
// invariant), and whether that storage is owned or
// borrowed from the caller.
type Buffer struct {
	Spec *imagespec.ImageSpec

	Data []float32

	// PixelStride/ScanlineStride/ZStride are expressed in float32 elements.
	PixelStride    int
	ScanlineStride int
	ZStride        int

	owned bool
}

// NewBuffer allocates a contiguous Buffer covering spec's data window.
func NewBuffer(spec *imagespec.ImageSpec) (*Buffer, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}
	dw := spec.DataWindow
	pixelStride := spec.NChannels
	scanlineStride := pixelStride * dw.Width
	zStride := scanlineStride * dw.Height
	data := make([]float32, zStride*dw.Depth)
	return &Buffer{
		Spec:           spec,
		Data:           data,
		PixelStride:    pixelStride,
		ScanlineStride: scanlineStride,
		ZStride:        zStride,
		owned:          true,
	}, nil
}

// FromMemory wraps an existing float32 slice without copying. data must be
// at least as large as spec's data window requires under packed strides;
// the caller must keep it alive for the Buffer's lifetime.
func FromMemory(spec *imagespec.ImageSpec, data []float32) (*Buffer, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}
	dw := spec.DataWindow
	pixelStride := spec.NChannels
	scanlineStride := pixelStride * dw.Width
	zStride := scanlineStride * dw.Height
	need := zStride * dw.Depth
	if len(data) < need {
		return nil, fmt.Errorf("imagebuf: data has %d floats, need at least %d", len(data), need)
	}
	return &Buffer{
		Spec:           spec,
		Data:           data[:need],
		PixelStride:    pixelStride,
		ScanlineStride: scanlineStride,
		ZStride:        zStride,
		owned:          false,
	}, nil
}

// Contiguous reports whether the strides match a packed layout with no
// padding between scanlines or z-slices.
func (b *Buffer) Contiguous() bool {
	dw := b.Spec.DataWindow
	return b.PixelStride == b.Spec.NChannels &&
		b.ScanlineStride == b.PixelStride*dw.Width &&
		b.ZStride == b.ScanlineStride*dw.Height
}

func (b *Buffer) offset(x, y, z int) (int, bool) {
	dw := b.Spec.DataWindow
	if x < dw.X || x >= dw.X+dw.Width || y < dw.Y || y >= dw.Y+dw.Height || z < dw.Z || z >= dw.Z+dw.Depth {
		return 0, false
	}
	lx, ly, lz := x-dw.X, y-dw.Y, z-dw.Z
	return lz*b.ZStride + ly*b.ScanlineStride + lx*b.PixelStride, true
}

// GetPixel returns the value of channel ch at (x,y,z). Out-of-bounds
// coordinates or channel indices return 0.
func (b *Buffer) GetPixel(x, y, z, ch int) float32 {
	off, ok := b.offset(x, y, z)
	if !ok || ch < 0 || ch >= b.Spec.NChannels {
		return 0
	}
	return b.Data[off+ch]
}

// SetPixel writes the value of channel ch at (x,y,z). Returns
// ErrOutOfBounds for coordinates or channel indices outside range.
func (b *Buffer) SetPixel(x, y, z, ch int, v float32) error {
	off, ok := b.offset(x, y, z)
	if !ok || ch < 0 || ch >= b.Spec.NChannels {
		return ErrOutOfBounds
	}
	b.Data[off+ch] = v
	return nil
}

// GetPixels copies the pixel data of roi (clipped to the buffer's data
// window) into a freshly allocated, packed float32 slice in scanline
// order, channel-interleaved.
func (b *Buffer) GetPixels(roi imagespec.Box) []float32 {
	roi = clipBox(roi, b.Spec.DataWindow)
	if roi.Empty() {
		return nil
	}
	n := roi.Width * roi.Height * roi.Depth * b.Spec.NChannels
	out := make([]float32, 0, n)
	for z := roi.Z; z < roi.Z+roi.Depth; z++ {
		for y := roi.Y; y < roi.Y+roi.Height; y++ {
			for x := roi.X; x < roi.X+roi.Width; x++ {
				off, _ := b.offset(x, y, z)
				out = append(out, b.Data[off:off+b.Spec.NChannels]...)
			}
		}
	}
	return out
}

// SetPixels writes data (scanline-ordered, channel-interleaved, sized
// exactly to roi) into the region roi. roi is not clipped: it must lie
// entirely within the buffer's data window.
func (b *Buffer) SetPixels(roi imagespec.Box, data []float32) error {
	want := roi.Width * roi.Height * roi.Depth * b.Spec.NChannels
	if len(data) != want {
		return ErrShapeMismatch
	}
	if !b.Spec.DataWindow.Contains(roi) {
		return ErrOutOfBounds
	}
	i := 0
	for z := roi.Z; z < roi.Z+roi.Depth; z++ {
		for y := roi.Y; y < roi.Y+roi.Height; y++ {
			for x := roi.X; x < roi.X+roi.Width; x++ {
				off, _ := b.offset(x, y, z)
				copy(b.Data[off:off+b.Spec.NChannels], data[i:i+b.Spec.NChannels])
				i += b.Spec.NChannels
			}
		}
	}
	return nil
}

func clipBox(roi, bounds imagespec.Box) imagespec.Box {
	x0, y0, z0 := max(roi.X, bounds.X), max(roi.Y, bounds.Y), max(roi.Z, bounds.Z)
	x1 := min(roi.X+roi.Width, bounds.X+bounds.Width)
	y1 := min(roi.Y+roi.Height, bounds.Y+bounds.Height)
	z1 := min(roi.Z+roi.Depth, bounds.Z+bounds.Depth)
	return imagespec.Box{X: x0, Y: y0, Z: z0, Width: x1 - x0, Height: y1 - y0, Depth: z1 - z0}
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}

// Clone returns a deep copy backed by freshly allocated storage.
func (b *Buffer) Clone() *Buffer {
	data := make([]float32, len(b.Data))
	copy(data, b.Data)
	clone := *b
	clone.Data = data
	clone.owned = true
	return &clone
}

// Owned reports whether the buffer's storage was allocated by imagebuf
// (true) rather than borrowed from caller-supplied memory (false).
func (b *Buffer) Owned() bool { return b.owned }
