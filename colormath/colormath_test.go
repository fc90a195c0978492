package colormath

import (
	"math"
	"testing"
)

func almostEqual(a, b, tol float64) bool { return math.Abs(a-b) < tol }

func TestIdentity3MultiplyIsNoop(t *testing.T) {
	m := Matrix3{1, 2, 3, 4, 5, 6, 7, 8, 9}
	got := m.Multiply(Identity3())
	for i := range m {
		if got[i] != m[i] {
			t.Fatalf("m * I = %v, want %v", got, m)
		}
	}
}

func TestMatrix3InverseRoundTrip(t *testing.T) {
	m := Matrix3{2, 0, 0, 0, 4, 0, 0, 0, 0.5}
	inv := m.Inverse()
	x, y, z := 1.0, 1.0, 1.0
	rx, ry, rz := m.Apply(x, y, z)
	ox, oy, oz := inv.Apply(rx, ry, rz)
	if !almostEqual(ox, x, 1e-9) || !almostEqual(oy, y, 1e-9) || !almostEqual(oz, z, 1e-9) {
		t.Errorf("inverse round trip = (%v,%v,%v), want (%v,%v,%v)", ox, oy, oz, x, y, z)
	}
}

func TestMatrix3InverseSingularFallsBackToIdentity(t *testing.T) {
	singular := Matrix3{1, 2, 3, 2, 4, 6, 1, 1, 1}
	inv := singular.Inverse()
	if inv != Identity3() {
		t.Errorf("Inverse() of a singular matrix = %v, want identity", inv)
	}
}

func TestMatrix4FromMatrix3PreservesUpperLeft(t *testing.T) {
	m3 := Matrix3{1, 2, 3, 4, 5, 6, 7, 8, 9}
	m4 := FromMatrix3(m3)
	back := m4.Matrix3()
	if back != m3 {
		t.Errorf("Matrix4.Matrix3() = %v, want %v", back, m3)
	}
	if m4[15] != 1 {
		t.Errorf("FromMatrix3 homogeneous corner = %v, want 1", m4[15])
	}
}

func TestMatrix4ApplyAffineOffset(t *testing.T) {
	m := Matrix4{
		1, 0, 0, 0.1,
		0, 1, 0, 0.2,
		0, 0, 1, 0.3,
		0, 0, 0, 1,
	}
	r, g, b := m.Apply(0, 0, 0)
	if !almostEqual(r, 0.1, 1e-9) || !almostEqual(g, 0.2, 1e-9) || !almostEqual(b, 0.3, 1e-9) {
		t.Errorf("Apply(0,0,0) = (%v,%v,%v), want (0.1,0.2,0.3)", r, g, b)
	}
}

func TestRGBtoXYZWhitePointMapsToYEqualsOne(t *testing.T) {
	c := Rec709Chromaticities()
	m := RGBtoXYZ(c)
	x, y, z := m.Apply(1, 1, 1)
	if !almostEqual(y, 1.0, 1e-6) {
		t.Errorf("Y for white (1,1,1) = %v, want 1", y)
	}
	if x <= 0 || z <= 0 {
		t.Errorf("X/Z for D65 white should be positive, got X=%v Z=%v", x, z)
	}
}

func TestRGBtoXYZInverseRoundTrip(t *testing.T) {
	c := ACESChromaticities()
	toXYZ := RGBtoXYZ(c)
	toRGB := XYZtoRGB(c)

	r, g, b := 0.2, 0.5, 0.8
	x, y, z := toXYZ.Apply(r, g, b)
	r2, g2, b2 := toRGB.Apply(x, y, z)
	if !almostEqual(r, r2, 1e-6) || !almostEqual(g, g2, 1e-6) || !almostEqual(b, b2, 1e-6) {
		t.Errorf("RGB->XYZ->RGB round trip = (%v,%v,%v), want (%v,%v,%v)", r2, g2, b2, r, g, b)
	}
}

func TestChromaticAdaptationIdentityForSameWhite(t *testing.T) {
	white := Rec709Chromaticities().White
	adapt := ChromaticAdaptation(white, white)
	x, y, z := adapt.Apply(0.3, 0.6, 0.1)
	if !almostEqual(x, 0.3, 1e-6) || !almostEqual(y, 0.6, 1e-6) || !almostEqual(z, 0.1, 1e-6) {
		t.Errorf("ChromaticAdaptation(w,w) is not the identity: (%v,%v,%v)", x, y, z)
	}
}

func TestChromaticAdaptationD65ToD60MovesWhitePoint(t *testing.T) {
	d65 := Rec709Chromaticities().White
	d60 := ACESChromaticities().White

	rec709ToXYZ := RGBtoXYZ(Rec709Chromaticities())
	wx, wy, wz := rec709ToXYZ.Apply(1, 1, 1)

	adapt := ChromaticAdaptation(d65, d60)
	ax, ay, az := adapt.Apply(wx, wy, wz)

	acesXYZtoRGB := XYZtoRGB(ACESChromaticities())
	r, g, b := acesXYZtoRGB.Apply(ax, ay, az)
	if !almostEqual(r, g, 0.05) || !almostEqual(g, b, 0.05) {
		t.Errorf("D65 white adapted into the D60 space should stay near-neutral, got (%v,%v,%v)", r, g, b)
	}
}
