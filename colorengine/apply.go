package colorengine

import (
	"math"

	"github.com/ssoj13/vfxcore/transfer"
)

// applyOp executes one primitive op on an RGB triple. It returns OpDomainError/OpNonFiniteInput via
// the caller (Processor.Apply), which wraps the failure with the op's
// index.
func applyOp(o *Op, r, g, b float64) (float64, float64, float64, error) {
	switch o.Kind {
	case KindMatrix:
		m := o.Matrix.M
		r2 := m[0]*r + m[1]*g + m[2]*b + m[3]
		g2 := m[4]*r + m[5]*g + m[6]*b + m[7]
		b2 := m[8]*r + m[9]*g + m[10]*b + m[11]
		return r2, g2, b2, nil

	case KindLUT1D:
		r2, g2, b2 := o.LUT1D.Apply(r, g, b)
		return r2, g2, b2, nil

	case KindLUT3D:
		r2, g2, b2 := o.LUT3D.Apply(r, g, b)
		return r2, g2, b2, nil

	case KindExponent:
		p := o.Exponent
		return transfer.Exponent(r, p.Gamma[0], p.Style),
			transfer.Exponent(g, p.Gamma[1], p.Style),
			transfer.Exponent(b, p.Gamma[2], p.Style), nil

	case KindExponentWithLinear:
		p := o.ExponentWithLinear
		return transfer.ExponentWithLinear(r, p.Gamma[0], p.Offset[0], p.Style),
			transfer.ExponentWithLinear(g, p.Gamma[1], p.Offset[1], p.Style),
			transfer.ExponentWithLinear(b, p.Gamma[2], p.Offset[2], p.Style), nil

	case KindLog:
		p := o.Log
		if p.Inverse {
			return p.Params.FromLog(r), p.Params.FromLog(g), p.Params.FromLog(b), nil
		}
		return p.Params.ToLog(r), p.Params.ToLog(g), p.Params.ToLog(b), nil

	case KindRange:
		return applyRange(o.Range, r, g, b), applyRangeOne(o.Range, g), applyRangeOne(o.Range, b), nil

	case KindCDL:
		r2, g2, b2 := ApplyCDL(o.CDL, r, g, b)
		return r2, g2, b2, nil

	case KindFixedFunction:
		return applyFixedFunction(o.FixedFunction, r, g, b)

	case KindExposureContrast:
		p := o.ExposureContrast
		return applyEC(p, r), applyEC(p, g), applyEC(p, b), nil

	case KindGradingPrimary:
		return applyGradingPrimary(o.GradingPrimary, r, g, b)

	case KindGradingTone:
		return applyGradingTone(o.GradingTone, r, g, b)

	case KindGradingRGBCurve:
		p := o.GradingRGBCurve
		return evalCurve(p.Red, p.Master, r), evalCurve(p.Green, p.Master, g), evalCurve(p.Blue, p.Master, b), nil

	case KindGradingHueCurve:
		// Hue curves have no CPU-primitive closed form defined by this
		// spec beyond identity pass-through; GPU emission reports
		// unavailable for this kind.
		return r, g, b, nil

	default:
		return r, g, b, &OpError{Kind: OpDomainError, Message: "unexecutable op kind reached Apply"}
	}
}

func applyRange(rp *RangeParams, r, g, b float64) float64 { return applyRangeOne(rp, r) }

func applyRangeOne(rp *RangeParams, v float64) float64 {
	if rp.HasMinIn && v < rp.MinIn {
		if rp.Clamp {
			v = rp.MinIn
		}
	}
	if rp.HasMaxIn && v > rp.MaxIn {
		if rp.Clamp {
			v = rp.MaxIn
		}
	}
	if rp.HasMinIn && rp.HasMaxIn && rp.HasMinOut && rp.HasMaxOut && rp.MaxIn != rp.MinIn {
		t := (v - rp.MinIn) / (rp.MaxIn - rp.MinIn)
		v = rp.MinOut + t*(rp.MaxOut-rp.MinOut)
	}
	if rp.Clamp {
		if rp.HasMinOut && v < rp.MinOut {
			v = rp.MinOut
		}
		if rp.HasMaxOut && v > rp.MaxOut {
			v = rp.MaxOut
		}
	}
	return v
}

// ApplyCDL evaluates the full ASC CDL formula: per-channel slope/offset/
// power followed by a luma-preserving saturation mix. out_c =
// clip?(slope_c*in_c + offset_c)^power_c. Exported so the compute package
// can apply a standalone CDLParams without a compiled Processor.
func ApplyCDL(c *CDLParams, r, g, b float64) (float64, float64, float64) {
	grade := func(v, slope, offset, power float64) float64 {
		v = v*slope + offset
		if c.Style == CDLAscCdl {
			if v < 0 {
				v = 0
			}
			return math.Pow(v, power)
		}
		// NoClamp preserves sign with mirrored power.
		if v < 0 {
			return -math.Pow(-v, power)
		}
		return math.Pow(v, power)
	}
	r2 := grade(r, c.Slope[0], c.Offset[0], c.Power[0])
	g2 := grade(g, c.Slope[1], c.Offset[1], c.Power[1])
	b2 := grade(b, c.Slope[2], c.Offset[2], c.Power[2])

	luma := 0.2126*r2 + 0.7152*g2 + 0.0722*b2
	r2 = luma + c.Saturation*(r2-luma)
	g2 = luma + c.Saturation*(g2-luma)
	b2 = luma + c.Saturation*(b2-luma)
	return r2, g2, b2
}

func applyFixedFunction(f *FixedFunctionParams, r, g, b float64) (float64, float64, float64, error) {
	switch f.Style {
	case FixedFunctionRGBToHSV:
		h, s, v := rgbToHSV(r, g, b)
		return h, s, v, nil
	case FixedFunctionHSVToRGB:
		r2, g2, b2 := hsvToRGB(r, g, b)
		return r2, g2, b2, nil
	case FixedFunctionACESGamutCompress:
		r2, g2, b2 := acesGamutCompress(r, g, b)
		return r2, g2, b2, nil
	case FixedFunctionACESGamutCompressInverse:
		r2, g2, b2 := acesGamutCompressInverse(r, g, b)
		return r2, g2, b2, nil
	case FixedFunctionSurroundLinear:
		gain := 1.0
		if len(f.Args) > 0 {
			gain = f.Args[0]
		}
		return r * gain, g * gain, b * gain, nil
	default:
		return r, g, b, &OpError{Kind: OpDomainError, Message: "unknown FixedFunction style"}
	}
}

// rgbToHSV/hsvToRGB implement the standard hexcone conversion (h in
// [0,1) turns, s and v in [0,1]).
func rgbToHSV(r, g, b float64) (float64, float64, float64) {
	max := math.Max(r, math.Max(g, b))
	min := math.Min(r, math.Min(g, b))
	v := max
	delta := max - min
	if delta < 1e-12 {
		return 0, 0, v
	}
	s := delta / max
	if max == 0 {
		s = 0
	}
	var h float64
	switch max {
	case r:
		h = (g - b) / delta
	case g:
		h = 2 + (b-r)/delta
	default:
		h = 4 + (r-g)/delta
	}
	h /= 6
	if h < 0 {
		h++
	}
	return h, s, v
}

func hsvToRGB(h, s, v float64) (float64, float64, float64) {
	if s <= 0 {
		return v, v, v
	}
	h = h * 6
	i := math.Floor(h)
	f := h - i
	p := v * (1 - s)
	q := v * (1 - s*f)
	t := v * (1 - s*(1-f))
	switch int(i) % 6 {
	case 0:
		return v, t, p
	case 1:
		return q, v, p
	case 2:
		return p, v, t
	case 3:
		return p, q, v
	case 4:
		return t, p, v
	default:
		return v, p, q
	}
}

// acesGamutCompress/acesGamutCompressInverse implement a simplified
// distance-to-achromatic compression toward the AP1 gamut boundary (the
// ACES "Gamut Mapping RGC" reference transform family), compressing
// channels that fall below the achromatic axis without touching values
// already inside [0,1].
func acesGamutCompress(r, g, b float64) (float64, float64, float64) {
	const threshold = 0.815
	const limit = 1.147
	compress := func(v, achromatic float64) float64 {
		if v >= achromatic*threshold {
			return v
		}
		dist := achromatic*threshold - v
		span := achromatic*threshold - achromatic*(threshold-limit)
		if span <= 0 {
			return v
		}
		t := dist / span
		return achromatic*threshold - span*(t/(1+t))
	}
	achromatic := (r + g + b) / 3
	return compress(r, achromatic), compress(g, achromatic), compress(b, achromatic)
}

func acesGamutCompressInverse(r, g, b float64) (float64, float64, float64) {
	const threshold = 0.815
	const limit = 1.147
	expand := func(v, achromatic float64) float64 {
		if v >= achromatic*threshold {
			return v
		}
		span := achromatic*threshold - achromatic*(threshold-limit)
		if span <= 0 {
			return v
		}
		t := (achromatic*threshold - v) / span
		tOrig := t / (1 - t)
		return achromatic*threshold - span*tOrig
	}
	achromatic := (r + g + b) / 3
	return expand(r, achromatic), expand(g, achromatic), expand(b, achromatic)
}

func applyEC(p *ExposureContrastParams, v float64) float64 {
	switch p.Style {
	case ECLogarithmic:
		// v is already in a log2-like domain; exposure is an additive
		// stop shift and contrast pivots around Pivot before returning
		// to linear.
		v = v + p.Exposure
		v = (v-p.Pivot)*p.Contrast + p.Pivot
		return math.Pow(2, v)
	case ECVideo:
		v = v * math.Pow(2, p.Exposure)
		v = (v-p.Pivot)*p.Contrast + p.Pivot
		if p.Gamma != 0 {
			sign := 1.0
			if v < 0 {
				sign = -1
				v = -v
			}
			v = sign * math.Pow(v, 1.0/p.Gamma)
		}
		return v
	default: // ECLinear
		v = v * math.Pow(2, p.Exposure)
		v = (v-p.Pivot)*p.Contrast + p.Pivot
		return v
	}
}
