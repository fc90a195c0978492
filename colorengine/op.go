package colorengine

import "github.com/ssoj13/vfxcore/lut"

// Op is one primitive, already direction-resolved entry in a compiled
// Processor's operation stream: only Matrix, LUT1D/3D, Exponent,
// ExponentWithLinear, Log, Range, CDL, FixedFunction, ExposureContrast,
// and Grading* kinds ever appear here.
type Op struct {
	Kind Kind

	Matrix             *MatrixParams
	LUT1D              *lut.LUT1D
	LUT3D              *lut.LUT3D
	Exponent           *ExponentParams
	ExponentWithLinear *ExponentWithLinearParams
	Log                *LogParams
	Range              *RangeParams
	CDL                *CDLParams
	FixedFunction      *FixedFunctionParams
	ExposureContrast   *ExposureContrastParams
	GradingPrimary     *GradingPrimaryParams
	GradingRGBCurve    *GradingRGBCurveParams
	GradingTone        *GradingToneParams
	GradingHueCurve    *GradingHueCurveParams
}

// isIdentity reports whether this op has no numeric effect, used by the
// conservative optimizer pass.
func (o *Op) isIdentity() bool {
	switch o.Kind {
	case KindMatrix:
		return o.Matrix != nil && isIdentityMatrix(o.Matrix.M)
	case KindRange:
		r := o.Range
		return r != nil && !r.Clamp && !r.HasMinIn && !r.HasMaxIn && !r.HasMinOut && !r.HasMaxOut
	default:
		return false
	}
}

func isIdentityMatrix(m [16]float64) bool {
	id := [16]float64{1, 0, 0, 0, 0, 1, 0, 0, 0, 0, 1, 0, 0, 0, 0, 1}
	for i := range m {
		if m[i] != id[i] {
			return false
		}
	}
	return true
}
