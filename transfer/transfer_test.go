package transfer

import (
	"math"
	"testing"
)

func almostEqual(a, b, tol float64) bool { return math.Abs(a-b) < tol }

func TestSRGBRoundTrip(t *testing.T) {
	for _, v := range []float64{0, 0.001, 0.0031308, 0.1, 0.5, 0.9, 1.0} {
		enc := LinearToSRGB(v)
		dec := SRGBToLinear(enc)
		if !almostEqual(dec, v, 1e-9) {
			t.Errorf("SRGBToLinear(LinearToSRGB(%v)) = %v, want %v", v, dec, v)
		}
	}
}

func TestSRGBToLinearKneePoint(t *testing.T) {
	below := SRGBToLinear(0.04)
	above := SRGBToLinear(0.05)
	if below >= above {
		t.Errorf("SRGBToLinear should be monotonic across the knee: f(0.04)=%v f(0.05)=%v", below, above)
	}
}

func TestExponentPositiveValue(t *testing.T) {
	got := Exponent(0.5, 2.2, NegClamp)
	want := math.Pow(0.5, 2.2)
	if !almostEqual(got, want, 1e-9) {
		t.Errorf("Exponent(0.5, 2.2) = %v, want %v", got, want)
	}
}

func TestExponentNegativeClampIsZero(t *testing.T) {
	if got := Exponent(-0.5, 2.2, NegClamp); got != 0 {
		t.Errorf("Exponent with NegClamp on negative input = %v, want 0", got)
	}
}

func TestExponentNegativeMirrorIsOddExtension(t *testing.T) {
	pos := Exponent(0.5, 2.2, NegMirror)
	neg := Exponent(-0.5, 2.2, NegMirror)
	if !almostEqual(neg, -pos, 1e-9) {
		t.Errorf("NegMirror should be an odd extension: f(0.5)=%v f(-0.5)=%v", pos, neg)
	}
}

func TestExponentNegativePassThrough(t *testing.T) {
	if got := Exponent(-0.5, 2.2, NegPassThrough); got != -0.5 {
		t.Errorf("NegPassThrough should leave negative input unmodified, got %v", got)
	}
}

func TestExponentWithLinearGammaOneIsIdentity(t *testing.T) {
	for _, v := range []float64{0.1, 0.5, 0.9} {
		got := ExponentWithLinear(v, 1, 0, NegClamp)
		if !almostEqual(got, v, 1e-9) {
			t.Errorf("ExponentWithLinear(%v, gamma=1) = %v, want %v", v, got, v)
		}
	}
}

func TestExponentWithLinearNormalizesAtOne(t *testing.T) {
	got := ExponentWithLinear(1, 2.2, 0.05, NegClamp)
	if !almostEqual(got, 1, 1e-9) {
		t.Errorf("ExponentWithLinear(1, ...) = %v, want 1 (normalized)", got)
	}
}

func TestLogGenericRoundTrip(t *testing.T) {
	p := DefaultLogParams(10)
	for _, v := range []float64{0.001, 0.1, 1.0, 10.0} {
		enc := p.ToLog(v)
		dec := p.FromLog(enc)
		if !almostEqual(dec, v, 1e-6) {
			t.Errorf("FromLog(ToLog(%v)) = %v, want %v", v, dec, v)
		}
	}
}

func TestLogCameraStyleRoundTrip(t *testing.T) {
	p := LogParams{
		Base:          10,
		LogSideSlope:  0.256,
		LogSideOffset: 0.584,
		LinSideSlope:  5.555556,
		LinSideOffset: 0.052272,
		LinSideBreak:  0.01,
		HasBreak:      true,
	}
	for _, v := range []float64{-0.001, 0.001, 0.02, 1.0} {
		enc := p.ToLog(v)
		dec := p.FromLog(enc)
		if !almostEqual(dec, v, 1e-4) {
			t.Errorf("camera-style FromLog(ToLog(%v)) = %v, want %v", v, dec, v)
		}
	}
}

func TestLogCameraStyleContinuousAtBreak(t *testing.T) {
	p := LogParams{
		Base:          10,
		LogSideSlope:  0.256,
		LogSideOffset: 0.584,
		LinSideSlope:  5.555556,
		LinSideOffset: 0.052272,
		LinSideBreak:  0.01,
		HasBreak:      true,
	}
	below := p.ToLog(p.LinSideBreak - 1e-6)
	above := p.ToLog(p.LinSideBreak + 1e-6)
	if !almostEqual(below, above, 1e-4) {
		t.Errorf("camera-style Log should be continuous at the break: %v vs %v", below, above)
	}
}

func TestACESccRoundTrip(t *testing.T) {
	for _, v := range []float64{0.001, 0.1, 1.0, 10.0} {
		enc := ACEScc(v)
		dec := ACESccToLinear(enc)
		if !almostEqual(dec, v, 1e-3) {
			t.Errorf("ACESccToLinear(ACEScc(%v)) = %v, want %v", v, dec, v)
		}
	}
}

func TestACEScctRoundTrip(t *testing.T) {
	for _, v := range []float64{0.0001, 0.0078125, 0.1, 1.0} {
		enc := ACEScct(v)
		dec := ACESCCTToLinear(enc)
		if !almostEqual(dec, v, 1e-3) {
			t.Errorf("ACESCCTToLinear(ACEScct(%v)) = %v, want %v", v, dec, v)
		}
	}
}

func TestACEScctContinuousAtBreak(t *testing.T) {
	const brk = 0.0078125
	below := ACEScct(brk - 1e-9)
	above := ACEScct(brk + 1e-9)
	if !almostEqual(below, above, 1e-6) {
		t.Errorf("ACEScct should be continuous at its toe breakpoint: %v vs %v", below, above)
	}
}
