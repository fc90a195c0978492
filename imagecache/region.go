package imagecache

import (
	"github.com/ssoj13/vfxcore/imagebuf"
	"github.com/ssoj13/vfxcore/imagespec"
)

// toRGBA converts buf to a 4-channel RGBA f32 buffer, regardless of its
// original channel count: missing G/B are filled from R (mirroring a
// grayscale source into all three color channels), missing alpha is 1.
// Streaming-mode reads always return tiles in this shape: source channels
// beyond the first four are dropped rather than carried through.
func toRGBA(buf *imagebuf.Buffer) (*imagebuf.Buffer, error) {
	src := buf.Spec
	if src.NChannels == 4 {
		return buf, nil
	}
	spec := imagespec.NewImageSpec(src.DataWindow.Width, src.DataWindow.Height, 4, imagespec.FormatF32)
	spec.DataWindow = src.DataWindow
	spec.DisplayWindow = src.DisplayWindow
	spec.ChannelNames = []string{"R", "G", "B", "A"}
	spec.AlphaChannel = 3

	out, err := imagebuf.NewBuffer(spec)
	if err != nil {
		return nil, err
	}

	rIdx := channelOr(src, "R", 0)
	gIdx := channelOr(src, "G", rIdx)
	bIdx := channelOr(src, "B", rIdx)
	aIdx := src.ChannelIndex("A")

	dw := src.DataWindow
	for y := 0; y < dw.Height; y++ {
		for x := 0; x < dw.Width; x++ {
			sx, sy := dw.X+x, dw.Y+y
			r := buf.GetPixel(sx, sy, dw.Z, rIdx)
			g := buf.GetPixel(sx, sy, dw.Z, gIdx)
			b := buf.GetPixel(sx, sy, dw.Z, bIdx)
			a := float32(1)
			if aIdx >= 0 {
				a = buf.GetPixel(sx, sy, dw.Z, aIdx)
			}
			_ = out.SetPixel(sx, sy, dw.Z, 0, r)
			_ = out.SetPixel(sx, sy, dw.Z, 1, g)
			_ = out.SetPixel(sx, sy, dw.Z, 2, b)
			_ = out.SetPixel(sx, sy, dw.Z, 3, a)
		}
	}
	return out, nil
}

func channelOr(spec *imagespec.ImageSpec, name string, fallback int) int {
	idx := spec.ChannelIndex(name)
	if idx < 0 {
		return fallback
	}
	return idx
}

// downsampleBox halves buf's dimensions with a 2x2 box filter, used to
// materialize mip levels on demand for streaming-mode sources whose codec
// has no native multi-level tile layout.
func downsampleBox(buf *imagebuf.Buffer) (*imagebuf.Buffer, error) {
	src := buf.Spec
	dw := src.DataWindow
	w := maxInt(dw.Width/2, 1)
	h := maxInt(dw.Height/2, 1)

	spec := imagespec.NewImageSpec(w, h, src.NChannels, src.DataFormat)
	spec.ChannelNames = append([]string(nil), src.ChannelNames...)
	spec.AlphaChannel = src.AlphaChannel
	spec.ZChannel = src.ZChannel
	out, err := imagebuf.NewBuffer(spec)
	if err != nil {
		return nil, err
	}

	for y := 0; y < h; y++ {
		sy0 := dw.Y + minInt(2*y, dw.Height-1)
		sy1 := dw.Y + minInt(2*y+1, dw.Height-1)
		for x := 0; x < w; x++ {
			sx0 := dw.X + minInt(2*x, dw.Width-1)
			sx1 := dw.X + minInt(2*x+1, dw.Width-1)
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

func cropTile(buf *imagebuf.Buffer, tileX, tileY, tileSize int) (*imagebuf.Buffer, error) {
	dw := buf.Spec.DataWindow
	x0 := dw.X + tileX*tileSize
	y0 := dw.Y + tileY*tileSize
	w := minInt(tileSize, dw.X+dw.Width-x0)
	h := minInt(tileSize, dw.Y+dw.Height-y0)
	if w <= 0 || h <= 0 {
		return nil, &CacheError{Kind: KeyMiss, Message: "tile coordinate outside data window"}
	}

	spec := imagespec.NewImageSpec(w, h, buf.Spec.NChannels, buf.Spec.DataFormat)
	spec.ChannelNames = append([]string(nil), buf.Spec.ChannelNames...)
	spec.AlphaChannel = buf.Spec.AlphaChannel
	spec.ZChannel = buf.Spec.ZChannel
	box := imagespec.Box{X: x0, Y: y0, Z: dw.Z, Width: w, Height: h, Depth: 1}
	spec.DataWindow = box
	spec.DisplayWindow = box
	out, err := imagebuf.NewBuffer(spec)
	if err != nil {
		return nil, err
	}
	data := buf.GetPixels(box)
	if err := out.SetPixels(box, data); err != nil {
		return nil, err
	}
	return out, nil
}

// newFullBufferLike allocates a buffer covering dw with channel layout
// copied from spec, used to assemble a full image out of individually
// decoded tiles or scanline blocks.
func newFullBufferLike(spec *imagespec.ImageSpec, dw imagespec.Box) *imagebuf.Buffer {
	full := imagespec.NewImageSpec(dw.Width, dw.Height, spec.NChannels, spec.DataFormat)
	full.ChannelNames = append([]string(nil), spec.ChannelNames...)
	full.AlphaChannel = spec.AlphaChannel
	full.ZChannel = spec.ZChannel
	full.DataWindow = dw
	full.DisplayWindow = dw
	buf, err := imagebuf.NewBuffer(full)
	if err != nil {
		panic(err) // full is always well-formed: caller-derived dimensions and a valid format
	}
	return buf
}

// stampTile copies tile's pixels into out at tile's own data window
// coordinates.
func stampTile(out, tile *imagebuf.Buffer) error {
	box := tile.Spec.DataWindow
	data := tile.GetPixels(box)
	return out.SetPixels(box, data)
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
