package texture

import (
	"math"

	"github.com/ssoj13/vfxcore/imagebuf"
)

// MaxAnisotropy bounds the number of footprint-ellipse samples
// Anisotropic will walk, regardless of how elongated the footprint is.
const MaxAnisotropy = 16

// poleEpsilon floors the pole guard denominator so an environment
// projection's singularity (z -> -1) never produces a non-finite radius.
const poleEpsilon = 1e-6

// Sample filters an in-memory MipmapChain at normalized texture
// coordinates (s,t) in [0,1], using deriv for mip selection and
// footprint computation. A zero-value Derivatives degrades Trilinear to
// Bilinear at mip 0 and Anisotropic to Bilinear, per the texture
// system's no-derivatives fallback.
func Sample(chain *MipmapChain, filter Filter, s, t float64, deriv Derivatives, wrap imagebuf.WrapMode) []float32 {
	switch filter {
	case Nearest:
		return sampleNearest(chain.Level(0), s, t, wrap)
	case Bilinear:
		return sampleBilinear(chain.Level(0), s, t, wrap)
	case Trilinear:
		if deriv.IsZero() {
			return sampleBilinear(chain.Level(0), s, t, wrap)
		}
		return sampleTrilinear(chain, s, t, deriv, wrap)
	case Anisotropic:
		if deriv.IsZero() {
			return sampleBilinear(chain.Level(0), s, t, wrap)
		}
		return sampleAnisotropic(chain, s, t, deriv, wrap)
	default:
		return sampleBilinear(chain.Level(0), s, t, wrap)
	}
}

// footprintScale returns the minification scale (texels per pixel) along
// the major axis of the ellipse implied by deriv, in texel units of
// chain's level-0 buffer.
func footprintScale(chain *MipmapChain, deriv Derivatives) (majorLen, minorLen float64) {
	dw := chain.Level(0).Spec.DataWindow
	w, h := float64(dw.Width), float64(dw.Height)

	ux, uy := deriv.DsDx*w, deriv.DtDx*h
	vx, vy := deriv.DsDy*w, deriv.DtDy*h

	uLen := math.Hypot(ux, uy)
	vLen := math.Hypot(vx, vy)
	if uLen < vLen {
		uLen, vLen = vLen, uLen
	}
	return uLen, vLen
}

func sampleTrilinear(chain *MipmapChain, s, t float64, deriv Derivatives, wrap imagebuf.WrapMode) []float32 {
	major, _ := footprintScale(chain, deriv)
	level := chain.LevelForScale(major)
	return sampleMipLerp(chain, s, t, level, wrap)
}

// sampleMipLerp samples the two integer mip levels bracketing a
// fractional level and blends them, the core of trilinear filtering.
func sampleMipLerp(chain *MipmapChain, s, t, level float64, wrap imagebuf.WrapMode) []float32 {
	lo := int(math.Floor(level))
	frac := float32(level - float64(lo))
	hi := lo + 1
	a := sampleBilinear(chain.Level(lo), s, t, wrap)
	if frac == 0 || hi >= chain.NumLevels() {
		return a
	}
	b := sampleBilinear(chain.Level(hi), s, t, wrap)
	return lerpChannels(a, b, frac)
}

// sampleAnisotropic walks the footprint ellipse's major axis with between
// 1 and MaxAnisotropy samples, each a trilinear tap at the minor-axis mip
// level, and averages them. The pole guard keeps the radius used to
// space samples along the major axis finite near projection poles
// (z -> -1) by flooring sqrt(2(1+z)) at poleEpsilon.
func sampleAnisotropic(chain *MipmapChain, s, t float64, deriv Derivatives, wrap imagebuf.WrapMode) []float32 {
	major, minor := footprintScale(chain, deriv)
	if minor < 1e-9 {
		minor = 1e-9
	}
	ratio := major / minor
	if ratio > MaxAnisotropy {
		ratio = MaxAnisotropy
	}
	n := int(math.Ceil(ratio))
	if n < 1 {
		n = 1
	}
	if n > MaxAnisotropy {
		n = MaxAnisotropy
	}

	level := chain.LevelForScale(minor)

	// Step along the major axis in normalized (s,t) space. The axis
	// direction follows whichever derivative pair produced the larger
	// footprint length.
	dsDx, dtDx, dsDy, dtDy := deriv.DsDx, deriv.DtDx, deriv.DsDy, deriv.DtDy
	uLen := math.Hypot(dsDx, dtDx)
	vLen := math.Hypot(dsDy, dtDy)
	axisDs, axisDt := dsDx, dtDx
	if vLen > uLen {
		axisDs, axisDt = dsDy, dtDy
	}

	samples := make([][]float32, 0, n)
	for i := 0; i < n; i++ {
		// Centered offsets in [-0.5, 0.5] across the n taps.
		frac := 0.5
		if n > 1 {
			frac = float64(i)/float64(n-1) - 0.5
		} else {
			frac = 0
		}
		ss := s + axisDs*frac
		tt := t + axisDt*frac
		samples = append(samples, sampleMipLerp(chain, ss, tt, level, wrap))
	}
	return avgChannels(samples)
}

// poleGuard computes the pole-safe radius r = sqrt(2(1+z)), flooring the
// argument at poleEpsilon so r never reaches zero or becomes non-finite
// as z approaches -1 (the projection's singular pole).
func poleGuard(z float64) float64 {
	arg := 2 * (1 + z)
	if arg < poleEpsilon {
		arg = poleEpsilon
	}
	return math.Sqrt(arg)
}
