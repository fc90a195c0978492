package lut

import (
	"math"
	"testing"
)

func almostEqual(a, b, tol float64) bool { return math.Abs(a-b) < tol }

func TestLUT1DIdentityApply(t *testing.T) {
	l := NewLUT1D(4)
	for i := range l.Samples {
		v := float64(i) / float64(len(l.Samples)-1)
		l.Samples[i] = [3]float64{v, v, v}
	}
	r, g, b := l.Apply(0.33, 0.33, 0.33)
	if !almostEqual(r, 0.33, 1e-2) || !almostEqual(g, 0.33, 1e-2) || !almostEqual(b, 0.33, 1e-2) {
		t.Errorf("identity LUT1D(0.33) = (%v,%v,%v)", r, g, b)
	}
}

func TestLUT1DValidateRejectsDegenerateDomain(t *testing.T) {
	l := NewLUT1D(4)
	l.DomainMax[0] = l.DomainMin[0]
	if err := l.Validate(); err == nil {
		t.Error("expected error for domain_max == domain_min")
	}
}

func TestLUT1DInverseRoundTrip(t *testing.T) {
	l := NewLUT1D(16)
	for i := range l.Samples {
		t := float64(i) / float64(len(l.Samples)-1)
		v := math.Pow(t, 2.2)
		l.Samples[i] = [3]float64{v, v, v}
	}
	inv := l.Inverse()
	r, _, _ := l.Apply(0.6, 0.6, 0.6)
	r2, _, _ := inv.Apply(r, r, r)
	if !almostEqual(r2, 0.6, 1e-2) {
		t.Errorf("LUT1D inverse round trip = %v, want ~0.6", r2)
	}
}

func TestLUT3DTrilinearCorners(t *testing.T) {
	l := NewLUT3D(2)
	l.Set(0, 0, 0, [3]float64{0, 0, 0})
	l.Set(1, 0, 0, [3]float64{1, 0, 0})
	l.Set(0, 1, 0, [3]float64{0, 1, 0})
	l.Set(0, 0, 1, [3]float64{0, 0, 1})
	l.Set(1, 1, 1, [3]float64{1, 1, 1})
	l.Set(1, 1, 0, [3]float64{1, 1, 0})
	l.Set(1, 0, 1, [3]float64{1, 0, 1})
	l.Set(0, 1, 1, [3]float64{0, 1, 1})

	r, g, b := l.Apply(1, 1, 1)
	if !almostEqual(r, 1, 1e-9) || !almostEqual(g, 1, 1e-9) || !almostEqual(b, 1, 1e-9) {
		t.Errorf("corner (1,1,1) = (%v,%v,%v)", r, g, b)
	}
	r, g, b = l.Apply(0.5, 0.5, 0.5)
	if !almostEqual(r, 0.5, 1e-9) || !almostEqual(g, 0.5, 1e-9) || !almostEqual(b, 0.5, 1e-9) {
		t.Errorf("center (0.5,0.5,0.5) = (%v,%v,%v)", r, g, b)
	}
}

func TestLUT3DInverseApproximatesIdentity(t *testing.T) {
	l := NewLUT3D(5)
	for bi := 0; bi < 5; bi++ {
		for gi := 0; gi < 5; gi++ {
			for ri := 0; ri < 5; ri++ {
				p := l.gridDomainPoint(ri, gi, bi)
				l.Set(ri, gi, bi, p)
			}
		}
	}
	inv := l.Inverse()
	r, g, b := l.Apply(0.3, 0.6, 0.8)
	r2, g2, b2 := inv.Apply(r, g, b)
	if !almostEqual(r2, 0.3, 1e-2) || !almostEqual(g2, 0.6, 1e-2) || !almostEqual(b2, 0.8, 1e-2) {
		t.Errorf("LUT3D identity inverse round trip = (%v,%v,%v), want (0.3,0.6,0.8)", r2, g2, b2)
	}
}

func TestSolve3SingularReportsFalse(t *testing.T) {
	singular := [3][3]float64{{1, 2, 3}, {2, 4, 6}, {1, 1, 1}}
	_, ok := solve3(singular, [3]float64{1, 2, 3})
	if ok {
		t.Error("expected solve3 to report singular matrix")
	}
}
