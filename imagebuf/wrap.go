package imagebuf

// WrapMode controls how InterpPixel handles coordinates outside the data
// window.
type WrapMode uint8

const (
	WrapDefault WrapMode = iota
	WrapBlack
	WrapClamp
	WrapPeriodic
	WrapMirror
)

func (b *Buffer) wrapCoord(v, lo, size int, mode WrapMode) (int, bool) {
	if mode == WrapDefault {
		mode = WrapClamp
	}
	if v >= lo && v < lo+size {
		return v, true
	}
	switch mode {
	case WrapBlack:
		return 0, false
	case WrapClamp:
		if v < lo {
			return lo, true
		}
		return lo + size - 1, true
	case WrapPeriodic:
		rel := (v - lo) % size
		if rel < 0 {
			rel += size
		}
		return lo + rel, true
	case WrapMirror:
		period := 2 * size
		rel := (v - lo) % period
		if rel < 0 {
			rel += period
		}
		if rel >= size {
			rel = period - 1 - rel
		}
		return lo + rel, true
	default:
		return lo, true
	}
}

// InterpPixel bilinearly interpolates at continuous pixel coordinates
// (x,y) on the z=dataWindow.Z plane, honoring wrap for samples that fall
// outside the data window. The result has one value per channel.
func (b *Buffer) InterpPixel(x, y float64, mode WrapMode) []float32 {
	dw := b.Spec.DataWindow
	fx := x - 0.5
	fy := y - 0.5
	x0 := int(floor(fx))
	y0 := int(floor(fy))
	tx := float32(fx - float64(x0))
	ty := float32(fy - float64(y0))

	sample := func(xi, yi int) []float32 {
		wx, okx := b.wrapCoord(xi, dw.X, dw.Width, mode)
		wy, oky := b.wrapCoord(yi, dw.Y, dw.Height, mode)
		out := make([]float32, b.Spec.NChannels)
		if !okx || !oky {
			return out
		}
		off, ok := b.offset(wx, wy, dw.Z)
		if !ok {
			return out
		}
		copy(out, b.Data[off:off+b.Spec.NChannels])
		return out
	}

	c00, c10 := sample(x0, y0), sample(x0+1, y0)
	c01, c11 := sample(x0, y0+1), sample(x0+1, y0+1)
	out := make([]float32, b.Spec.NChannels)
	for ch := range out {
		top := c00[ch] + (c10[ch]-c00[ch])*tx
		bot := c01[ch] + (c11[ch]-c01[ch])*tx
		out[ch] = top + (bot-top)*ty
	}
	return out
}

func floor(v float64) float64 {
	i := int(v)
	if v < 0 && float64(i) != v {
		i--
	}
	return float64(i)
}
