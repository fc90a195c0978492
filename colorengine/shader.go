package colorengine

import (
	"fmt"

	"github.com/ssoj13/vfxcore/transfer"
)

// opShaderFragment returns a WGSL function body implementing one op's
// numeric definition, operating on a vec3<f32> in RGB order. Only Matrix,
// Exponent (except the NegLinear style), Range with all four bounds, CDL,
// and linear-style ExposureContrast have a fragment; every other kind
// (LUT1D/3D, ExponentWithLinear, Log, FixedFunction, all Grading* kinds)
// returns ("", false), following the convention of embedding WGSL source
// compiled through naga and falling back to CPU for anything it can't
// express.
func opShaderFragment(o *Op) (string, bool) {
	switch o.Kind {
	case KindMatrix:
		m := o.Matrix.M
		return fmt.Sprintf(
			"fn op(c: vec3<f32>) -> vec3<f32> {\n"+
				"  return vec3<f32>(\n"+
				"    %g*c.x + %g*c.y + %g*c.z + %g,\n"+
				"    %g*c.x + %g*c.y + %g*c.z + %g,\n"+
				"    %g*c.x + %g*c.y + %g*c.z + %g);\n"+
				"}",
			m[0], m[1], m[2], m[3],
			m[4], m[5], m[6], m[7],
			m[8], m[9], m[10], m[11],
		), true

	case KindExponent:
		p := o.Exponent
		var body string
		switch p.Style {
		case transfer.NegClamp:
			body = "  return pow(max(c, vec3<f32>(0.0)), g);\n"
		case transfer.NegMirror:
			body = "  return sign(c) * pow(abs(c), g);\n"
		case transfer.NegPassThrough:
			body = "  return select(c, pow(max(c, vec3<f32>(0.0)), g), c >= vec3<f32>(0.0));\n"
		default:
			return "", false
		}
		return fmt.Sprintf(
			"fn op(c: vec3<f32>) -> vec3<f32> {\n"+
				"  let g = vec3<f32>(%g, %g, %g);\n"+
				body+
				"}",
			p.Gamma[0], p.Gamma[1], p.Gamma[2],
		), true

	case KindRange:
		r := o.Range
		if !r.HasMinIn || !r.HasMaxIn || !r.HasMinOut || !r.HasMaxOut {
			return "", false
		}
		in := "c"
		if r.Clamp {
			in = "clamp(c, vec3<f32>(lo_in), vec3<f32>(hi_in))"
		}
		return fmt.Sprintf(
			"fn op(c: vec3<f32>) -> vec3<f32> {\n"+
				"  let lo_in = %g; let hi_in = %g;\n"+
				"  let lo_out = %g; let hi_out = %g;\n"+
				"  let t = ("+in+" - lo_in) / (hi_in - lo_in);\n"+
				"  return lo_out + t * (hi_out - lo_out);\n"+
				"}",
			r.MinIn, r.MaxIn, r.MinOut, r.MaxOut,
		), true

	case KindCDL:
		c := o.CDL
		powLine := "  v = sign(v) * pow(abs(v), power);\n"
		if c.Style == CDLAscCdl {
			powLine = "  v = pow(max(v, vec3<f32>(0.0)), power);\n"
		}
		return fmt.Sprintf(
			"fn op(c: vec3<f32>) -> vec3<f32> {\n"+
				"  let slope = vec3<f32>(%g, %g, %g);\n"+
				"  let offset = vec3<f32>(%g, %g, %g);\n"+
				"  let power = vec3<f32>(%g, %g, %g);\n"+
				"  var v = c * slope + offset;\n"+
				powLine+
				"  let luma = dot(v, vec3<f32>(0.2126, 0.7152, 0.0722));\n"+
				"  return luma + %g * (v - luma);\n"+
				"}",
			c.Slope[0], c.Slope[1], c.Slope[2],
			c.Offset[0], c.Offset[1], c.Offset[2],
			c.Power[0], c.Power[1], c.Power[2],
			c.Saturation,
		), true

	case KindExposureContrast:
		p := o.ExposureContrast
		if p.Style != ECLinear {
			// Video/Logarithmic gamma-toe branches aren't expressed here;
			// the CPU path handles them exactly.
			return "", false
		}
		return fmt.Sprintf(
			"fn op(c: vec3<f32>) -> vec3<f32> {\n"+
				"  var v = c * exp2(%g);\n"+
				"  v = (v - %g) * %g + %g;\n"+
				"  return v;\n"+
				"}",
			p.Exposure, p.Pivot, p.Contrast, p.Pivot,
		), true

	default:
		return "", false
	}
}
