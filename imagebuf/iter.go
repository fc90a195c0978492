package imagebuf

import "github.com/ssoj13/vfxcore/imagespec"

// ScanlineIterator walks a region of interest one pixel at a time in
// scanline order (x fastest, then y, then z). When z advances, y resets to
// roi's starting y rather than to 0 — matching data windows whose origin
// is not at (0,0), a common case for EXR overscan.
type ScanlineIterator struct {
	buf  *Buffer
	roi  imagespec.Box
	x, y, z int
	done bool
}

// NewScanlineIterator returns an iterator bounded by roi, clipped to buf's
// data window.
func NewScanlineIterator(buf *Buffer, roi imagespec.Box) *ScanlineIterator {
	roi = clipBox(roi, buf.Spec.DataWindow)
	it := &ScanlineIterator{buf: buf, roi: roi, x: roi.X, y: roi.Y, z: roi.Z}
	it.done = roi.Empty()
	return it
}

// Done reports whether the iterator has been exhausted.
func (it *ScanlineIterator) Done() bool { return it.done }

// Pos returns the current pixel coordinate.
func (it *ScanlineIterator) Pos() (x, y, z int) { return it.x, it.y, it.z }

// Value returns the channel values at the current position.
func (it *ScanlineIterator) Value() []float32 {
	off, ok := it.buf.offset(it.x, it.y, it.z)
	if !ok {
		return make([]float32, it.buf.Spec.NChannels)
	}
	out := make([]float32, it.buf.Spec.NChannels)
	copy(out, it.buf.Data[off:off+it.buf.Spec.NChannels])
	return out
}

// Advance moves the iterator to the next pixel per the scanline order
// rule above. Call after consuming Pos/Value; returns false when done.
func (it *ScanlineIterator) Advance() bool {
	if it.done {
		return false
	}
	it.x++
	if it.x >= it.roi.X+it.roi.Width {
		it.x = it.roi.X
		it.y++
		if it.y >= it.roi.Y+it.roi.Height {
			it.y = it.roi.Y
			it.z++
			if it.z >= it.roi.Z+it.roi.Depth {
				it.done = true
				return false
			}
		}
	}
	return true
}

// TileIterator walks a region of interest one tile-sized block at a time,
// clamped to the ROI at the right/bottom/back edges.
type TileIterator struct {
	buf             *Buffer
	roi             imagespec.Box
	tileW, tileH    int
	x, y, z         int
	done            bool
}

// NewTileIterator returns a tile iterator over roi (clipped to buf's data
// window) using tileW x tileH tiles.
func NewTileIterator(buf *Buffer, roi imagespec.Box, tileW, tileH int) *TileIterator {
	roi = clipBox(roi, buf.Spec.DataWindow)
	it := &TileIterator{buf: buf, roi: roi, tileW: tileW, tileH: tileH, x: roi.X, y: roi.Y, z: roi.Z}
	it.done = roi.Empty() || tileW <= 0 || tileH <= 0
	return it
}

// Tile returns the bounds of the current tile, clipped to the ROI.
func (it *TileIterator) Tile() imagespec.Box {
	w := min(it.tileW, it.roi.X+it.roi.Width-it.x)
	h := min(it.tileH, it.roi.Y+it.roi.Height-it.y)
	return imagespec.Box{X: it.x, Y: it.y, Z: it.z, Width: w, Height: h, Depth: 1}
}

// Advance moves to the next tile, wrapping y to roi.Y (not 0) when z
// advances, returning false once exhausted.
func (it *TileIterator) Advance() bool {
	if it.done {
		return false
	}
	it.x += it.tileW
	if it.x >= it.roi.X+it.roi.Width {
		it.x = it.roi.X
		it.y += it.tileH
		if it.y >= it.roi.Y+it.roi.Height {
			it.y = it.roi.Y
			it.z++
			if it.z >= it.roi.Z+it.roi.Depth {
				it.done = true
				return false
			}
		}
	}
	return true
}

// Done reports whether the iterator has been exhausted.
func (it *TileIterator) Done() bool { return it.done }
