package texture

import (
	"math"

	"github.com/ssoj13/vfxcore/imagebuf"
	"github.com/ssoj13/vfxcore/imagespec"
)

// MipmapChain is a pyramid of progressively half-sized buffers, level 0
// being the full-resolution source. Same box-filter downsample and
// LevelForScale formula as a fixed-layout mipmap chain, generalized to
// the full ImageSpec channel range instead of a fixed RGBA layout.
type MipmapChain struct {
	levels []*imagebuf.Buffer
}

// GenerateMipmaps builds a full chain down to a 1x1 level by repeated 2x2
// box filtering.
func GenerateMipmaps(base *imagebuf.Buffer) (*MipmapChain, error) {
	dw := base.Spec.DataWindow
	maxDim := dw.Width
	if dw.Height > maxDim {
		maxDim = dw.Height
	}
	numLevels := 1
	if maxDim > 1 {
		numLevels = 1 + int(math.Floor(math.Log2(float64(maxDim))))
	}

	levels := make([]*imagebuf.Buffer, 1, numLevels)
	levels[0] = base
	for i := 1; i < numLevels; i++ {
		down, err := boxDownsample(levels[i-1])
		if err != nil {
			return nil, err
		}
		levels = append(levels, down)
		if down.Spec.DataWindow.Width <= 1 && down.Spec.DataWindow.Height <= 1 {
			break
		}
	}
	return &MipmapChain{levels: levels}, nil
}

// NumLevels returns the number of mip levels in the chain.
func (m *MipmapChain) NumLevels() int { return len(m.levels) }

// Level returns the buffer for mip level n, clamped to [0, NumLevels-1].
func (m *MipmapChain) Level(n int) *imagebuf.Buffer {
	if n < 0 {
		n = 0
	}
	if n >= len(m.levels) {
		n = len(m.levels) - 1
	}
	return m.levels[n]
}

// LevelForScale converts a footprint scale (texels-per-pixel, >= 1 means
// minification) to a fractional mip level: level = -log2(scale), clamped
// to [0, NumLevels-1]. A scale <= 1 (magnification) returns 0.
func (m *MipmapChain) LevelForScale(scale float64) float64 {
	if scale <= 1 {
		return 0
	}
	level := -math.Log2(1 / scale)
	max := float64(len(m.levels) - 1)
	if level < 0 {
		level = 0
	}
	if level > max {
		level = max
	}
	return level
}

func boxDownsample(buf *imagebuf.Buffer) (*imagebuf.Buffer, error) {
	src := buf.Spec
	dw := src.DataWindow
	w := dw.Width / 2
	if w < 1 {
		w = 1
	}
	h := dw.Height / 2
	if h < 1 {
		h = 1
	}

	spec := imagespec.NewImageSpec(w, h, src.NChannels, src.DataFormat)
	spec.ChannelNames = append([]string(nil), src.ChannelNames...)
	spec.AlphaChannel = src.AlphaChannel
	spec.ZChannel = src.ZChannel
	out, err := imagebuf.NewBuffer(spec)
	if err != nil {
		return nil, err
	}

	for y := 0; y < h; y++ {
		sy0 := dw.Y + clampIdx(2*y, dw.Height)
		sy1 := dw.Y + clampIdx(2*y+1, dw.Height)
		for x := 0; x < w; x++ {
			sx0 := dw.X + clampIdx(2*x, dw.Width)
			sx1 := dw.X + clampIdx(2*x+1, dw.Width)
			for c := 0; c < src.NChannels; c++ {
				sum := buf.GetPixel(sx0, sy0, dw.Z, c) +
					buf.GetPixel(sx1, sy0, dw.Z, c) +
					buf.GetPixel(sx0, sy1, dw.Z, c) +
					buf.GetPixel(sx1, sy1, dw.Z, c)
				_ = out.SetPixel(x, y, 0, c, sum*0.25)
			}
		}
	}
	return out, nil
}

func clampIdx(i, size int) int {
	if i >= size {
		return size - 1
	}
	return i
}
