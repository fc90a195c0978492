package colorengine

import (
	"math"
	"testing"

	"github.com/ssoj13/vfxcore/transfer"
)

func almostEqual(a, b float64) bool { return math.Abs(a-b) < 1e-4 }

// fakeResolver is a minimal ConfigResolver for compile tests: two
// colorspaces (linear reference, and a 2.2-gamma "sRGB-ish" space) plus
// one look that doubles exposure.
type fakeResolver struct{}

func (fakeResolver) ColorSpaceTransforms(name string) (toRef, fromRef *Transform, isData bool, found bool) {
	switch name {
	case "linear":
		// The reference space itself: no conversion needed either way.
		return nil, nil, false, true
	case "gamma22":
		toRef := &Transform{Kind: KindExponent, Exponent: &ExponentParams{Gamma: [3]float64{2.2, 2.2, 2.2}}}
		fromRef := &Transform{Kind: KindExponent, Exponent: &ExponentParams{Gamma: [3]float64{1 / 2.2, 1 / 2.2, 1 / 2.2}}}
		return toRef, fromRef, false, true
	default:
		return nil, nil, false, false
	}
}

func (fakeResolver) Role(name string) (string, bool) { return "", false }

func (fakeResolver) LookOps(name string) (string, *Transform, bool) {
	if name != "double" {
		return "", nil, false
	}
	return "linear", &Transform{Kind: KindMatrix, Matrix: &MatrixParams{M: [16]float64{
		2, 0, 0, 0,
		0, 2, 0, 0,
		0, 0, 2, 0,
		0, 0, 0, 1,
	}}}, true
}

func (fakeResolver) DisplayViewTransform(display, view string) (*Transform, bool) { return nil, false }
func (fakeResolver) ContextVar(name string) (string, bool) {
	if name == "SHOW" {
		return "myshow", true
	}
	return "", false
}
func (fakeResolver) SearchPaths() []string { return nil }

func TestCompileColorSpaceRoundTrip(t *testing.T) {
	tForward := &Transform{Kind: KindColorSpace, ColorSpace: &ColorSpaceParams{Src: "linear", Dst: "gamma22"}}
	proc, err := Compile(tForward, fakeResolver{})
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	buf := []float32{0.5, 0.5, 0.5, 1.0}
	if err := proc.Apply(buf, 4); err != nil {
		t.Fatalf("apply: %v", err)
	}
	want := math.Pow(0.5, 1/2.2)
	if !almostEqual(float64(buf[0]), want) {
		t.Errorf("gamma22 r = %v, want %v", buf[0], want)
	}
	if buf[3] != 1.0 {
		t.Errorf("alpha was modified: %v", buf[3])
	}
}

func TestCompileInverseReversesOrder(t *testing.T) {
	fwd := &Transform{Kind: KindColorSpace, ColorSpace: &ColorSpaceParams{Src: "linear", Dst: "gamma22"}}
	inv := &Transform{Kind: KindColorSpace, ColorSpace: &ColorSpaceParams{Src: "linear", Dst: "gamma22"}, Direction: Inverse}

	procFwd, err := Compile(fwd, fakeResolver{})
	if err != nil {
		t.Fatalf("compile fwd: %v", err)
	}
	procInv, err := Compile(inv, fakeResolver{})
	if err != nil {
		t.Fatalf("compile inv: %v", err)
	}

	buf := []float32{0.4, 0.4, 0.4}
	if err := procFwd.Apply(buf, 3); err != nil {
		t.Fatalf("apply fwd: %v", err)
	}
	if err := procInv.Apply(buf, 3); err != nil {
		t.Fatalf("apply inv: %v", err)
	}
	if !almostEqual(float64(buf[0]), 0.4) {
		t.Errorf("round trip through gamma22 = %v, want 0.4", buf[0])
	}
}

func TestCompileLookExpandsProcessSpaceAndOps(t *testing.T) {
	tr := &Transform{Kind: KindLook, Look: &LookParams{Looks: "double"}}
	proc, err := Compile(tr, fakeResolver{})
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	buf := []float32{0.25, 0.25, 0.25}
	if err := proc.Apply(buf, 3); err != nil {
		t.Fatalf("apply: %v", err)
	}
	if !almostEqual(float64(buf[0]), 0.5) {
		t.Errorf("look double = %v, want 0.5", buf[0])
	}
}

func TestCompileLookReverseMarkerInvertsLookOps(t *testing.T) {
	tr := &Transform{Kind: KindLook, Look: &LookParams{Looks: "-double"}}
	proc, err := Compile(tr, fakeResolver{})
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	buf := []float32{0.5, 0.5, 0.5}
	if err := proc.Apply(buf, 3); err != nil {
		t.Fatalf("apply: %v", err)
	}
	if !almostEqual(float64(buf[0]), 0.25) {
		t.Errorf("reversed look double = %v, want 0.25 (inverse of the x2 look)", buf[0])
	}
}

func TestCompileLookListMixedDirections(t *testing.T) {
	tr := &Transform{Kind: KindLook, Look: &LookParams{Looks: "double,-double"}}
	proc, err := Compile(tr, fakeResolver{})
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	buf := []float32{0.3, 0.3, 0.3}
	if err := proc.Apply(buf, 3); err != nil {
		t.Fatalf("apply: %v", err)
	}
	if !almostEqual(float64(buf[0]), 0.3) {
		t.Errorf("double then -double should round trip, got %v", buf[0])
	}
}

func TestSplitLookListParsesDirectionMarkers(t *testing.T) {
	entries := splitLookList("double, -grade ,+contrast")
	want := []lookEntry{{Name: "double"}, {Name: "grade", Reverse: true}, {Name: "contrast"}}
	if len(entries) != len(want) {
		t.Fatalf("got %d entries, want %d: %+v", len(entries), len(want), entries)
	}
	for i := range want {
		if entries[i].Name != want[i].Name || entries[i].Reverse != want[i].Reverse {
			t.Errorf("entry %d = %+v, want %+v", i, entries[i], want[i])
		}
	}
}

func TestCompileUnresolvedContextVarFails(t *testing.T) {
	tr := &Transform{Kind: KindFile, File: &FileParams{Path: "/luts/$MISSING/grade.cube"}}
	_, err := Compile(tr, fakeResolver{})
	if err == nil {
		t.Fatal("expected UnresolvedVar-equivalent failure, got nil")
	}
}

func TestOptimizeFusesConsecutiveMatrices(t *testing.T) {
	scale2 := &Op{Kind: KindMatrix, Matrix: &MatrixParams{M: [16]float64{
		2, 0, 0, 0, 0, 2, 0, 0, 0, 0, 2, 0, 0, 0, 0, 1,
	}}}
	scale3 := &Op{Kind: KindMatrix, Matrix: &MatrixParams{M: [16]float64{
		3, 0, 0, 0, 0, 3, 0, 0, 0, 0, 3, 0, 0, 0, 0, 1,
	}}}
	fused := optimize([]*Op{scale2, scale3})
	if len(fused) != 1 {
		t.Fatalf("expected fused ops to collapse to 1, got %d", len(fused))
	}
	if fused[0].Matrix.M[0] != 6 {
		t.Errorf("fused scale = %v, want 6", fused[0].Matrix.M[0])
	}
}

func TestOptimizeDropsIdentityMatrix(t *testing.T) {
	id := &Op{Kind: KindMatrix, Matrix: &MatrixParams{M: [16]float64{
		1, 0, 0, 0, 0, 1, 0, 0, 0, 0, 1, 0, 0, 0, 0, 1,
	}}}
	out := optimize([]*Op{id})
	if len(out) != 0 {
		t.Errorf("expected identity matrix dropped, got %d ops", len(out))
	}
}

func TestInvertCDLRoundTrip(t *testing.T) {
	c := &CDLParams{
		Slope: [3]float64{1.2, 0.9, 1.1}, Offset: [3]float64{0.02, -0.01, 0.0},
		Power: [3]float64{1.1, 1.0, 0.95}, Saturation: 1.1, Style: CDLNoClamp,
	}
	inv, err := invertCDL(c)
	if err != nil {
		t.Fatalf("invertCDL: %v", err)
	}
	r, g, b := ApplyCDL(c, 0.4, 0.4, 0.4)
	r2, g2, b2 := ApplyCDL(inv, r, g, b)
	if !almostEqual(r2, 0.4) || !almostEqual(g2, 0.4) || !almostEqual(b2, 0.4) {
		t.Errorf("CDL round trip = (%v,%v,%v), want (0.4,0.4,0.4)", r2, g2, b2)
	}
}

func TestInvertExponentZeroGammaFails(t *testing.T) {
	_, err := invertOp(&Op{Kind: KindExponent, Exponent: &ExponentParams{Gamma: [3]float64{0, 1, 1}}})
	if err == nil {
		t.Fatal("expected InverseUndefined for zero gamma, got nil")
	}
}

func TestRGBHSVRoundTrip(t *testing.T) {
	r, g, b := 0.8, 0.3, 0.1
	h, s, v := rgbToHSV(r, g, b)
	r2, g2, b2 := hsvToRGB(h, s, v)
	if !almostEqual(r, r2) || !almostEqual(g, g2) || !almostEqual(b, b2) {
		t.Errorf("HSV round trip = (%v,%v,%v), want (%v,%v,%v)", r2, g2, b2, r, g, b)
	}
}

func TestEvalCurveIdentityOnEmpty(t *testing.T) {
	if got := evalCurve(nil, nil, 0.37); !almostEqual(got, 0.37) {
		t.Errorf("empty curve = %v, want identity 0.37", got)
	}
}

func TestEvalCurveInterpolates(t *testing.T) {
	curve := []GradingControlPoint{{X: 0, Y: 0}, {X: 1, Y: 2}}
	got := evalCurve(curve, nil, 0.5)
	if !almostEqual(got, 1.0) {
		t.Errorf("curve(0.5) = %v, want 1.0", got)
	}
}

func TestApplyExponentWithLinearUsesTransferPackage(t *testing.T) {
	v := transfer.ExponentWithLinear(0.5, 2.4, 0.055, transfer.NegLinear)
	r, g, b, err := applyOp(&Op{
		Kind: KindExponentWithLinear,
		ExponentWithLinear: &ExponentWithLinearParams{
			Gamma: [3]float64{2.4, 2.4, 2.4}, Offset: [3]float64{0.055, 0.055, 0.055}, Style: transfer.NegLinear,
		},
	}, 0.5, 0.5, 0.5)
	if err != nil {
		t.Fatalf("applyOp: %v", err)
	}
	if !almostEqual(r, v) || !almostEqual(g, v) || !almostEqual(b, v) {
		t.Errorf("ExponentWithLinear = (%v,%v,%v), want %v", r, g, b, v)
	}
}

func TestShaderFragmentUnavailableForGradingHueCurve(t *testing.T) {
	_, ok := opShaderFragment(&Op{Kind: KindGradingHueCurve, GradingHueCurve: &GradingHueCurveParams{}})
	if ok {
		t.Error("expected GradingHueCurve to report unavailable GPU fragment")
	}
}

func TestShaderFragmentAvailableForMatrix(t *testing.T) {
	src, ok := opShaderFragment(&Op{Kind: KindMatrix, Matrix: &MatrixParams{M: [16]float64{
		1, 0, 0, 0, 0, 1, 0, 0, 0, 0, 1, 0, 0, 0, 0, 1,
	}}})
	if !ok || src == "" {
		t.Error("expected a matrix op to produce a WGSL fragment")
	}
}
