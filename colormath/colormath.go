// Package colormath provides the numeric primitives shared by the color
// engine and config loader: small fixed-size matrices, CIE chromaticity
// conversions, and chromatic adaptation.
package colormath

import "math"

// V2 is a 2D point, used for CIE xy chromaticity coordinates.
type V2 struct {
	X, Y float64
}

// Chromaticities holds the CIE xy coordinates of the red, green, and blue
// primaries plus the white point of an RGB color space.
type Chromaticities struct {
	Red, Green, Blue, White V2
}

// Rec709Chromaticities are the ITU-R BT.709 primaries with a D65 white point.
func Rec709Chromaticities() Chromaticities {
	return Chromaticities{
		Red:   V2{X: 0.6400, Y: 0.3300},
		Green: V2{X: 0.3000, Y: 0.6000},
		Blue:  V2{X: 0.1500, Y: 0.0600},
		White: V2{X: 0.3127, Y: 0.3290},
	}
}

// ACESChromaticities are the AP0 primaries with the D60 white point used by
// ACES2065-1.
func ACESChromaticities() Chromaticities {
	return Chromaticities{
		Red:   V2{X: 0.73470, Y: 0.26530},
		Green: V2{X: 0.00000, Y: 1.00000},
		Blue:  V2{X: 0.00010, Y: -0.07700},
		White: V2{X: 0.32168, Y: 0.33767},
	}
}

// Matrix3 is a row-major 3x3 matrix.
type Matrix3 [9]float64

// Identity3 returns the 3x3 identity matrix.
func Identity3() Matrix3 {
	return Matrix3{
		1, 0, 0,
		0, 1, 0,
		0, 0, 1,
	}
}

// Multiply returns m * other.
func (m Matrix3) Multiply(other Matrix3) Matrix3 {
	var r Matrix3
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			var sum float64
			for k := 0; k < 3; k++ {
				sum += m[i*3+k] * other[k*3+j]
			}
			r[i*3+j] = sum
		}
	}
	return r
}

// Apply transforms a 3-vector by the matrix.
func (m Matrix3) Apply(x, y, z float64) (float64, float64, float64) {
	return m[0]*x + m[1]*y + m[2]*z,
		m[3]*x + m[4]*y + m[5]*z,
		m[6]*x + m[7]*y + m[8]*z
}

// Inverse returns the inverse of m. If m is singular (determinant near
// zero), Inverse returns the identity matrix — callers that need to
// detect singularity should check Determinant first.
func (m Matrix3) Inverse() Matrix3 {
	a, b, c := m[0], m[1], m[2]
	d, e, f := m[3], m[4], m[5]
	g, h, i := m[6], m[7], m[8]

	det := a*(e*i-f*h) - b*(d*i-f*g) + c*(d*h-e*g)
	if math.Abs(det) < 1e-10 {
		return Identity3()
	}
	invDet := 1.0 / det

	return Matrix3{
		(e*i - f*h) * invDet, (c*h - b*i) * invDet, (b*f - c*e) * invDet,
		(f*g - d*i) * invDet, (a*i - c*g) * invDet, (c*d - a*f) * invDet,
		(d*h - e*g) * invDet, (b*g - a*h) * invDet, (a*e - b*d) * invDet,
	}
}

// Determinant returns the determinant of m.
func (m Matrix3) Determinant() float64 {
	a, b, c := m[0], m[1], m[2]
	d, e, f := m[3], m[4], m[5]
	g, h, i := m[6], m[7], m[8]
	return a*(e*i-f*h) - b*(d*i-f*g) + c*(d*h-e*g)
}

// Matrix4 is a row-major 4x4 matrix, used for affine [R,G,B,1] transforms.
type Matrix4 [16]float64

// Identity4 returns the 4x4 identity matrix.
func Identity4() Matrix4 {
	return Matrix4{
		1, 0, 0, 0,
		0, 1, 0, 0,
		0, 0, 1, 0,
		0, 0, 0, 1,
	}
}

// FromMatrix3 embeds a 3x3 matrix in the upper-left of a 4x4 identity.
func FromMatrix3(m Matrix3) Matrix4 {
	return Matrix4{
		m[0], m[1], m[2], 0,
		m[3], m[4], m[5], 0,
		m[6], m[7], m[8], 0,
		0, 0, 0, 1,
	}
}

// Matrix3 extracts the upper-left 3x3 submatrix.
func (m Matrix4) Matrix3() Matrix3 {
	return Matrix3{
		m[0], m[1], m[2],
		m[4], m[5], m[6],
		m[8], m[9], m[10],
	}
}

// Multiply returns m * other.
func (m Matrix4) Multiply(other Matrix4) Matrix4 {
	var r Matrix4
	for i := 0; i < 4; i++ {
		for j := 0; j < 4; j++ {
			var sum float64
			for k := 0; k < 4; k++ {
				sum += m[i*4+k] * other[k*4+j]
			}
			r[i*4+j] = sum
		}
	}
	return r
}

// Apply transforms the affine point [x,y,z,1] by the matrix and returns
// [R,G,B]; the alpha/homogeneous channel is never touched by color ops.
func (m Matrix4) Apply(x, y, z float64) (float64, float64, float64) {
	return m[0]*x + m[1]*y + m[2]*z + m[3],
		m[4]*x + m[5]*y + m[6]*z + m[7],
		m[8]*x + m[9]*y + m[10]*z + m[11]
}

// Inverse returns the inverse of the affine matrix: the inverted 3x3
// submatrix plus the offset column that undoes m's offset. The bottom row
// stays [0 0 0 1]. A singular 3x3 part inverts to the identity, as in
// Matrix3.Inverse.
func (m Matrix4) Inverse() Matrix4 {
	inv3 := m.Matrix3().Inverse()
	out := FromMatrix3(inv3)
	tx, ty, tz := inv3.Apply(m[3], m[7], m[11])
	out[3], out[7], out[11] = -tx, -ty, -tz
	return out
}

// RGBtoXYZ computes the matrix mapping RGB tristimulus values (in the color
// space defined by c) to CIE XYZ, normalized so that white maps to Y=1.
func RGBtoXYZ(c Chromaticities) Matrix3 {
	rX, rY, rZ := xyFromChroma(c.Red)
	gX, gY, gZ := xyFromChroma(c.Green)
	bX, bY, bZ := xyFromChroma(c.Blue)
	wX, wY, wZ := xyFromChroma(c.White)

	primaries := Matrix3{
		rX, gX, bX,
		rY, gY, bY,
		rZ, gZ, bZ,
	}
	if math.Abs(primaries.Determinant()) < 1e-10 {
		return Identity3()
	}
	inv := primaries.Inverse()
	sr, sg, sb := inv.Apply(wX, wY, wZ)

	return Matrix3{
		sr * rX, sg * gX, sb * bX,
		sr * rY, sg * gY, sb * bY,
		sr * rZ, sg * gZ, sb * bZ,
	}
}

// XYZtoRGB is the inverse of RGBtoXYZ.
func XYZtoRGB(c Chromaticities) Matrix3 {
	return RGBtoXYZ(c).Inverse()
}

func xyFromChroma(v V2) (x, y, z float64) {
	if v.Y == 0 {
		return 0, 1, 0
	}
	x = v.X / v.Y
	y = 1.0
	z = (1.0 - v.X - v.Y) / v.Y
	return
}

// bradfordCPM is the Bradford cone-primary matrix (LMS response).
var bradfordCPM = Matrix3{
	0.8951000, -0.7502000, 0.0389000,
	0.2664000, 1.7135000, -0.0685000,
	-0.1614000, 0.0367000, 1.0296000,
}

// ChromaticAdaptation returns the Bradford-adapted matrix that converts
// tristimulus values white-balanced for srcWhite to values white-balanced
// for dstWhite.
func ChromaticAdaptation(srcWhite, dstWhite V2) Matrix3 {
	sx, sy, sz := xyFromChroma(srcWhite)
	dx, dy, dz := xyFromChroma(dstWhite)

	srcL, srcM, srcS := bradfordCPM.Apply(sx, sy, sz)
	dstL, dstM, dstS := bradfordCPM.Apply(dx, dy, dz)

	ratio := Matrix3{
		dstL / srcL, 0, 0,
		0, dstM / srcM, 0,
		0, 0, dstS / srcS,
	}

	invBradford := bradfordCPM.Inverse()
	return bradfordCPM.Multiply(ratio).Multiply(invBradford)
}
