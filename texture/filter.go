// Package texture implements filtered sampling on top of the image cache:
// Nearest, Bilinear, Trilinear, and Anisotropic filters, plus a UDIM path
// resolver. Bilinear delegates directly to imagebuf.Buffer's own
// InterpPixel; Trilinear and Anisotropic add mip selection and
// footprint-ellipse walking on top of an in-memory MipmapChain or mip
// levels served through imagecache.Cache.
package texture

import "github.com/ssoj13/vfxcore/imagebuf"

// Filter selects the sampling algorithm.
type Filter uint8

const (
	Nearest Filter = iota
	Bilinear
	Trilinear
	Anisotropic
)

// String names the filter for logging and diagnostics.
func (f Filter) String() string {
	switch f {
	case Nearest:
		return "nearest"
	case Bilinear:
		return "bilinear"
	case Trilinear:
		return "trilinear"
	case Anisotropic:
		return "anisotropic"
	default:
		return "unknown"
	}
}

// Derivatives carries the per-pixel screen-space derivatives of the
// texture coordinate (ds/dx, dt/dx, ds/dy, dt/dy) a caller supplies for
// mip selection and anisotropic footprint computation. A zero-value
// Derivatives (all fields 0) means "no derivatives available": Trilinear
// collapses to Bilinear at mip 0, and Anisotropic collapses to Bilinear.
type Derivatives struct {
	DsDx, DtDx float64
	DsDy, DtDy float64
}

// IsZero reports whether d carries no derivative information.
func (d Derivatives) IsZero() bool {
	return d.DsDx == 0 && d.DtDx == 0 && d.DsDy == 0 && d.DtDy == 0
}

// sampleNearest rounds (s,t) in [0,1] to the nearest texel of buf. It
// reuses InterpPixel by feeding it a coordinate that lands exactly on a
// texel center (fractional part 0), which collapses the bilinear blend
// to a single corner sample.
func sampleNearest(buf *imagebuf.Buffer, s, t float64, wrap imagebuf.WrapMode) []float32 {
	dw := buf.Spec.DataWindow
	x := float64(dw.X) + s*float64(dw.Width)
	y := float64(dw.Y) + t*float64(dw.Height)
	ix := roundNearest(x - 0.5)
	iy := roundNearest(y - 0.5)
	return buf.InterpPixel(ix+0.5, iy+0.5, wrap)
}

func roundNearest(v float64) float64 {
	if v >= 0 {
		return float64(int(v + 0.5))
	}
	return -float64(int(-v + 0.5))
}

// sampleBilinear maps normalized (s,t) in [0,1] to buf's pixel space and
// delegates directly to imagebuf.Buffer.InterpPixel, which already
// implements the same continuous-coordinate bilinear interpolation the
// teacher's SampleBilinear does.
func sampleBilinear(buf *imagebuf.Buffer, s, t float64, wrap imagebuf.WrapMode) []float32 {
	dw := buf.Spec.DataWindow
	x := float64(dw.X) + s*float64(dw.Width)
	y := float64(dw.Y) + t*float64(dw.Height)
	return buf.InterpPixel(x, y, wrap)
}

func lerpChannels(a, b []float32, t float32) []float32 {
	out := make([]float32, len(a))
	for i := range out {
		out[i] = a[i] + (b[i]-a[i])*t
	}
	return out
}

func avgChannels(samples [][]float32) []float32 {
	if len(samples) == 0 {
		return nil
	}
	out := make([]float32, len(samples[0]))
	for _, s := range samples {
		for i, v := range s {
			out[i] += v
		}
	}
	inv := 1 / float32(len(samples))
	for i := range out {
		out[i] *= inv
	}
	return out
}
