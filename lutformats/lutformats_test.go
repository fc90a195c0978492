package lutformats

import (
	"bytes"
	"math"
	"strings"
	"testing"
)

func almostEqual(a, b float64) bool { return math.Abs(a-b) < 1e-4 }

func TestCubePure3D(t *testing.T) {
	data := `TITLE "test"
LUT_3D_SIZE 2
0.0 0.0 0.0
1.0 0.0 0.0
0.0 1.0 0.0
1.0 1.0 0.0
0.0 0.0 1.0
1.0 0.0 1.0
0.0 1.0 1.0
1.0 1.0 1.0
`
	table, err := cubeCodec{}.Decode(strings.NewReader(data))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if table.LUT3D == nil || table.LUT3D.Size != 2 {
		t.Fatalf("expected a 2^3 cube, got %+v", table.LUT3D)
	}
	r, g, b := table.Apply(1, 1, 1)
	if !almostEqual(r, 1) || !almostEqual(g, 1) || !almostEqual(b, 1) {
		t.Errorf("corner (1,1,1) = (%v,%v,%v), want (1,1,1)", r, g, b)
	}
	r, g, b = table.Apply(0, 0, 0)
	if !almostEqual(r, 0) || !almostEqual(g, 0) || !almostEqual(b, 0) {
		t.Errorf("corner (0,0,0) = (%v,%v,%v), want (0,0,0)", r, g, b)
	}
}

func TestCubeCombinedShaperAnd3D(t *testing.T) {
	data := `LUT_1D_SIZE 3
0.0 0.0 0.0
0.5 0.5 0.5
1.0 1.0 1.0
LUT_3D_SIZE 2
0.0 0.0 0.0
1.0 0.0 0.0
0.0 1.0 0.0
1.0 1.0 0.0
0.0 0.0 1.0
1.0 0.0 1.0
0.0 1.0 1.0
1.0 1.0 1.0
`
	table, err := cubeCodec{}.Decode(strings.NewReader(data))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if table.Shaper == nil {
		t.Fatal("expected a 1D shaper applied before the 3D cube")
	}
	if table.LUT3D == nil {
		t.Fatal("expected a 3D LUT")
	}
	r, _, _ := table.Apply(1, 0, 0)
	if !almostEqual(r, 1) {
		t.Errorf("shaper+cube identity roundtrip: r = %v, want 1", r)
	}
}

func TestSpi1DRoundTrip(t *testing.T) {
	data := `Version 1
From 0.0 1.0
Length 3
Components 3
{
	0.0 0.0 0.0
	0.5 0.5 0.5
	1.0 1.0 1.0
}
`
	table, err := spi1dCodec{}.Decode(strings.NewReader(data))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	var buf bytes.Buffer
	if err := (spi1dCodec{}).Encode(&buf, table); err != nil {
		t.Fatalf("encode: %v", err)
	}
	table2, err := spi1dCodec{}.Decode(&buf)
	if err != nil {
		t.Fatalf("re-decode: %v", err)
	}
	r, g, b := table2.Apply(0.5, 0.5, 0.5)
	if !almostEqual(r, 0.5) || !almostEqual(g, 0.5) || !almostEqual(b, 0.5) {
		t.Errorf("spi1d roundtrip identity broken: (%v,%v,%v)", r, g, b)
	}
}

func TestSpi3DRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	data := `SPILUT 1.0
3 3
2 2 2
0 0 0 0.0 0.0 0.0
1 0 0 1.0 0.0 0.0
0 1 0 0.0 1.0 0.0
1 1 0 1.0 1.0 0.0
0 0 1 0.0 0.0 1.0
1 0 1 1.0 0.0 1.0
0 1 1 0.0 1.0 1.0
1 1 1 1.0 1.0 1.0
`
	table, err := spi3dCodec{}.Decode(strings.NewReader(data))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if err := (spi3dCodec{}).Encode(&buf, table); err != nil {
		t.Fatalf("encode: %v", err)
	}
	r, g, b := table.Apply(1, 1, 1)
	if !almostEqual(r, 1) || !almostEqual(g, 1) || !almostEqual(b, 1) {
		t.Errorf("spi3d corner = (%v,%v,%v), want (1,1,1)", r, g, b)
	}
}

func TestSpimtxRejectsNonNumeric(t *testing.T) {
	data := "1.0 0.0 0.0 0\n0.0 x 0.0 0\n0.0 0.0 1.0 0\n"
	_, err := spimtxCodec{}.Decode(strings.NewReader(data))
	if err == nil {
		t.Fatal("expected a ParseError for the non-numeric token")
	}
	var lutErr *LutError
	if !asLutError(err, &lutErr) || lutErr.Kind != ParseError {
		t.Errorf("expected ParseError, got %v", err)
	}
}

func asLutError(err error, out **LutError) bool {
	le, ok := err.(*LutError)
	if ok {
		*out = le
	}
	return ok
}

func TestCDLApplyIdentity(t *testing.T) {
	cdl := &CDL{Slope: [3]float64{1, 1, 1}, Power: [3]float64{1, 1, 1}, Saturation: 1}
	r, g, b := cdl.Apply(0.3, 0.5, 0.7)
	if !almostEqual(r, 0.3) || !almostEqual(g, 0.5) || !almostEqual(b, 0.7) {
		t.Errorf("identity CDL changed input: (%v,%v,%v)", r, g, b)
	}
}

func TestCDLXMLRoundTrip(t *testing.T) {
	xmlData := `<ColorCorrection id="shot01">
  <SOPNode>
    <Slope>1.1 1.0 0.9</Slope>
    <Offset>0.01 0.0 -0.01</Offset>
    <Power>1.0 1.0 1.0</Power>
  </SOPNode>
  <SatNode>
    <Saturation>1.05</Saturation>
  </SatNode>
</ColorCorrection>`
	table, err := cdlCodec{}.Decode(strings.NewReader(xmlData))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if table.CDL == nil {
		t.Fatal("expected a CDL table")
	}
	if table.CDL.ID != "shot01" {
		t.Errorf("id = %q, want shot01", table.CDL.ID)
	}
	if !almostEqual(table.CDL.Slope[0], 1.1) {
		t.Errorf("slope[0] = %v, want 1.1", table.CDL.Slope[0])
	}
}

func TestForPathResolvesByExtension(t *testing.T) {
	c, err := ForPath("/looks/grade.cube", nil)
	if err != nil {
		t.Fatalf("ForPath: %v", err)
	}
	if c.Name() != "cube" {
		t.Errorf("resolved codec = %q, want cube", c.Name())
	}
}

func TestForPathUnknownExtension(t *testing.T) {
	_, err := ForPath("/looks/grade.unknownfmt", nil)
	if err == nil {
		t.Fatal("expected an error for an unrecognized extension")
	}
}

func Test3dlRoundTrip(t *testing.T) {
	data := "0 0 0\n4095 0 0\n0 4095 0\n4095 4095 0\n0 0 4095\n4095 0 4095\n0 4095 4095\n4095 4095 4095\n"
	table, err := threedlCodec{}.Decode(strings.NewReader(data))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	r, g, b := table.Apply(1, 1, 1)
	if !almostEqual(r, 1) || !almostEqual(g, 1) || !almostEqual(b, 1) {
		t.Errorf("3dl corner = (%v,%v,%v), want (1,1,1)", r, g, b)
	}
}
