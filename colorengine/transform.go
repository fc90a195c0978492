// Package colorengine compiles Transform trees (optionally resolved
// against an *ocio.Config) into a flat, executable Processor and applies
// it to RGB/RGBA f32 pixel buffers, keeping a compile-then-execute split
// between the transform graph and its execution stream.
package colorengine

import (
	"github.com/ssoj13/vfxcore/lut"
	"github.com/ssoj13/vfxcore/transfer"
)

// Direction selects the forward or inverse application of a Transform.
type Direction uint8

const (
	Forward Direction = iota
	Inverse
)

// Kind identifies which variant of Transform's parameter union is active.
type Kind uint8

const (
	KindMatrix Kind = iota
	KindLUT1D
	KindLUT3D
	KindExponent
	KindExponentWithLinear
	KindLog
	KindRange
	KindCDL
	KindFixedFunction
	KindExposureContrast
	KindFile
	KindBuiltin
	KindGroup
	KindColorSpace
	KindLook
	KindDisplayView
	KindGradingPrimary
	KindGradingRGBCurve
	KindGradingTone
	KindGradingHueCurve
	KindAllocation
)

// FixedFunctionStyle enumerates FixedFunction's built-in op list.
type FixedFunctionStyle uint8

const (
	FixedFunctionRGBToHSV FixedFunctionStyle = iota
	FixedFunctionHSVToRGB
	FixedFunctionACESGamutCompress
	FixedFunctionACESGamutCompressInverse
	FixedFunctionSurroundLinear
)

// ECStyle selects ExposureContrast's domain.
type ECStyle uint8

const (
	ECLinear ECStyle = iota
	ECVideo
	ECLogarithmic
)

// RangeParams clamps or remaps [min_in,max_in] to [min_out,max_out].
type RangeParams struct {
	MinIn, MaxIn   float64
	MinOut, MaxOut float64
	HasMinIn, HasMaxIn, HasMinOut, HasMaxOut bool
	Clamp          bool
}

// CDLStyle selects how CDL clamps/mirrors negative values.
type CDLStyle uint8

const (
	CDLNoClamp CDLStyle = iota
	CDLAscCdl
)

// CDLParams is an ASC Color Decision List grade.
type CDLParams struct {
	Slope, Offset, Power [3]float64
	Saturation           float64
	Style                CDLStyle
}

// MatrixParams is a 4x4 affine matrix applied to [R,G,B,1].
type MatrixParams struct {
	M [16]float64
}

// ExponentParams is a per-channel power curve.
type ExponentParams struct {
	Gamma [3]float64
	Style transfer.NegativeStyle
}

// ExponentWithLinearParams extends Exponent with a linear toe below Offset.
type ExponentWithLinearParams struct {
	Gamma  [3]float64
	Offset [3]float64
	Style  transfer.NegativeStyle
}

// LogParams wraps transfer.LogParams per-channel (OCIO logs are usually
// channel-uniform, but the struct keeps the per-channel option open).
// Inverse selects FromLog over ToLog at Apply time — baked in at compile
// time rather than re-derived, since Log's forward/inverse asymmetry
// lives in which formula is evaluated, not in different coefficients.
type LogParams struct {
	Params  transfer.LogParams
	Inverse bool
}

// FixedFunctionParams configures a FixedFunction op.
type FixedFunctionParams struct {
	Style FixedFunctionStyle
	Args  []float64
}

// ExposureContrastParams is a live-grade exposure/contrast/gamma control.
type ExposureContrastParams struct {
	Exposure, Contrast, Gamma, Pivot float64
	Style                            ECStyle
	Dynamic                          bool
}

// FileParams references an external LUT/transform file.
type FileParams struct {
	Path          string
	ID            string
	InterpTrilinear bool
	CCCID         string
}

// BuiltinParams references a named built-in transform (e.g. an ACES RRT).
type BuiltinParams struct {
	Style string
}

// ColorSpaceParams names a source/destination colorspace pair resolved
// against a Config at compile time.
type ColorSpaceParams struct {
	Src, Dst string
}

// LookParams names an ordered list of looks applied in a process space.
type LookParams struct {
	Looks string // comma-separated look names with optional +/- direction prefix
}

// DisplayViewParams names a display/view pair.
type DisplayViewParams struct {
	Display, View string
}

// AllocationParams describes a legacy allocation transform (used by some
// v1 configs for GPU texture allocation hints).
type AllocationParams struct {
	Vars []float64
}

// GradingControlPoint is one knot of a grading RGB/hue curve.
type GradingControlPoint struct{ X, Y float64 }

// GradingPrimaryParams is a primary color grade (offset/exposure/contrast
// per RGB channel plus saturation and pivot).
type GradingPrimaryParams struct {
	Offset, Exposure, Contrast [3]float64
	Saturation, Pivot          float64
}

// GradingRGBCurveParams holds one curve per channel as control points.
type GradingRGBCurveParams struct {
	Red, Green, Blue, Master []GradingControlPoint
}

// GradingToneParams is a multi-range tonal grade (blacks/shadows/
// midtones/highlights/whites).
type GradingToneParams struct {
	Blacks, Shadows, Midtones, Highlights, Whites [3]float64
}

// GradingHueCurveParams holds a hue-vs-hue (or hue-vs-saturation, etc.)
// control curve; it has no GPU-shader mapping.
type GradingHueCurveParams struct {
	Curve []GradingControlPoint
}

// Transform is a tagged variant over the closed set of transform kinds
//: a Kind discriminant plus only the parameter pointer
// matching that kind populated.
type Transform struct {
	Kind      Kind
	Direction Direction

	Matrix            *MatrixParams
	LUT1D             *lut.LUT1D
	LUT3D             *lut.LUT3D
	Exponent          *ExponentParams
	ExponentWithLinear *ExponentWithLinearParams
	Log               *LogParams
	Range             *RangeParams
	CDL               *CDLParams
	FixedFunction     *FixedFunctionParams
	ExposureContrast  *ExposureContrastParams
	File              *FileParams
	Builtin           *BuiltinParams
	Group             []*Transform
	ColorSpace        *ColorSpaceParams
	Look              *LookParams
	DisplayView       *DisplayViewParams
	GradingPrimary    *GradingPrimaryParams
	GradingRGBCurve   *GradingRGBCurveParams
	GradingTone       *GradingToneParams
	GradingHueCurve   *GradingHueCurveParams
	Allocation        *AllocationParams
}
