package colorengine

import "math"

// applyGradingPrimary evaluates a primary grade: exposure (a multiplicative
// stop shift) and contrast pivot around Pivot, an additive offset, and a
// luma-preserving saturation mix, each per-channel except Saturation/Pivot
// which are shared.
func applyGradingPrimary(p *GradingPrimaryParams, r, g, b float64) (float64, float64, float64, error) {
	grade := func(v, offset, exposure, contrast float64) float64 {
		v = v * math.Pow(2, exposure)
		v = (v-p.Pivot)*contrast + p.Pivot
		return v + offset
	}
	r2 := grade(r, p.Offset[0], p.Exposure[0], p.Contrast[0])
	g2 := grade(g, p.Offset[1], p.Exposure[1], p.Contrast[1])
	b2 := grade(b, p.Offset[2], p.Exposure[2], p.Contrast[2])

	luma := 0.2126*r2 + 0.7152*g2 + 0.0722*b2
	r2 = luma + p.Saturation*(r2-luma)
	g2 = luma + p.Saturation*(g2-luma)
	b2 = luma + p.Saturation*(b2-luma)
	return r2, g2, b2, nil
}

// toneWeight returns each range's contribution weight for luma l, using
// overlapping triangular windows of half-width 0.3 centered at 0, 0.25,
// 0.5, 0.75, 1. For luma in [0,1] the five weights sum to between about
// 1.17 and 1.33; they are not normalized.
func toneWeight(l, center float64) float64 {
	const halfWidth = 0.3
	d := math.Abs(l - center)
	if d >= halfWidth {
		return 0
	}
	return 1 - d/halfWidth
}

// applyGradingTone blends five per-channel offsets (blacks/shadows/
// midtones/highlights/whites) weighted by the input luma's proximity to
// each range's center.
func applyGradingTone(p *GradingToneParams, r, g, b float64) (float64, float64, float64, error) {
	luma := 0.2126*r + 0.7152*g + 0.0722*b
	wBlacks := toneWeight(luma, 0)
	wShadows := toneWeight(luma, 0.25)
	wMidtones := toneWeight(luma, 0.5)
	wHighlights := toneWeight(luma, 0.75)
	wWhites := toneWeight(luma, 1)

	apply := func(v float64, c int) float64 {
		return v +
			wBlacks*p.Blacks[c] +
			wShadows*p.Shadows[c] +
			wMidtones*p.Midtones[c] +
			wHighlights*p.Highlights[c] +
			wWhites*p.Whites[c]
	}
	return apply(r, 0), apply(g, 1), apply(b, 2), nil
}

// evalCurve evaluates a piecewise-linear control-point curve (sorted by X)
// at v, composed with an optional master curve applied afterward. An empty
// curve is the identity.
func evalCurve(curve, master []GradingControlPoint, v float64) float64 {
	out := evalSingleCurve(curve, v)
	return evalSingleCurve(master, out)
}

func evalSingleCurve(pts []GradingControlPoint, v float64) float64 {
	if len(pts) == 0 {
		return v
	}
	if v <= pts[0].X {
		return pts[0].Y
	}
	last := pts[len(pts)-1]
	if v >= last.X {
		return last.Y
	}
	for i := 0; i < len(pts)-1; i++ {
		a, b := pts[i], pts[i+1]
		if v >= a.X && v <= b.X {
			if b.X == a.X {
				return a.Y
			}
			t := (v - a.X) / (b.X - a.X)
			return a.Y + t*(b.Y-a.Y)
		}
	}
	return v
}
