package compute

import (
	"math"
	"testing"

	"github.com/ssoj13/vfxcore/colorengine"
	"github.com/ssoj13/vfxcore/lut"
)

func identityBuffer(t *testing.T, w, h, ch int, fill func(x, y, c int) float32) *Buffer {
	t.Helper()
	data := make([]float32, w*h*ch)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			for c := 0; c < ch; c++ {
				data[(y*w+x)*ch+c] = fill(x, y, c)
			}
		}
	}
	b := NewCPUBackend(2)
	buf, err := b.Upload(data, w, h, ch)
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}
	return buf
}

func TestCPUUploadDownloadRoundTrip(t *testing.T) {
	b := NewCPUBackend(0)
	defer b.Close()
	data := []float32{0.1, 0.2, 0.3, 1, 0.4, 0.5, 0.6, 1}
	buf, err := b.Upload(data, 2, 1, 4)
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}
	got, err := b.Download(buf)
	if err != nil {
		t.Fatalf("Download: %v", err)
	}
	if len(got) != len(data) {
		t.Fatalf("Download length = %d, want %d", len(got), len(data))
	}
	for i := range data {
		if got[i] != data[i] {
			t.Fatalf("sample %d = %v, want %v", i, got[i], data[i])
		}
	}
}

func TestCPUUploadRejectsMismatchedLength(t *testing.T) {
	b := NewCPUBackend(0)
	defer b.Close()
	if _, err := b.Upload([]float32{1, 2, 3}, 2, 2, 4); err == nil {
		t.Fatalf("expected an error for a data slice that doesn't match width*height*channels")
	}
}

func TestCPUAllocateZeroed(t *testing.T) {
	b := NewCPUBackend(0)
	defer b.Close()
	buf, err := b.Allocate(4, 4, 3)
	if err != nil {
		t.Fatalf("Allocate: %v", err)
	}
	got, _ := b.Download(buf)
	for i, v := range got {
		if v != 0 {
			t.Fatalf("sample %d = %v, want 0 in a freshly allocated buffer", i, v)
		}
	}
}

func TestCPUExecMatrixAppliesAffine(t *testing.T) {
	b := NewCPUBackend(2)
	defer b.Close()
	buf := identityBuffer(t, 2, 2, 3, func(x, y, c int) float32 { return float32(c + 1) })

	// Doubles every channel: identity*2 plus a zero offset row.
	m := [16]float64{
		2, 0, 0, 0,
		0, 2, 0, 0,
		0, 0, 2, 0,
		0, 0, 0, 1,
	}
	if err := b.ExecMatrix(buf, m); err != nil {
		t.Fatalf("ExecMatrix: %v", err)
	}
	got, _ := b.Download(buf)
	want := []float32{2, 4, 6}
	for px := 0; px < 4; px++ {
		for c := 0; c < 3; c++ {
			if v := got[px*3+c]; v != want[c] {
				t.Fatalf("pixel %d channel %d = %v, want %v", px, c, v, want[c])
			}
		}
	}
}

func TestCPUExecCDLIdentity(t *testing.T) {
	b := NewCPUBackend(0)
	defer b.Close()
	buf := identityBuffer(t, 1, 1, 3, func(x, y, c int) float32 { return float32(c) * 0.25 })
	p := &colorengine.CDLParams{
		Slope:      [3]float64{1, 1, 1},
		Offset:     [3]float64{0, 0, 0},
		Power:      [3]float64{1, 1, 1},
		Saturation: 1,
	}
	if err := b.ExecCDL(buf, p); err != nil {
		t.Fatalf("ExecCDL: %v", err)
	}
	got, _ := b.Download(buf)
	for c := 0; c < 3; c++ {
		want := float32(c) * 0.25
		if math.Abs(float64(got[c]-want)) > 1e-6 {
			t.Fatalf("channel %d = %v, want identity %v", c, got[c], want)
		}
	}
}

func TestCPUExecCDLRejectsNilParams(t *testing.T) {
	b := NewCPUBackend(0)
	defer b.Close()
	buf := identityBuffer(t, 1, 1, 3, func(x, y, c int) float32 { return 0 })
	if err := b.ExecCDL(buf, nil); err == nil {
		t.Fatalf("expected an error for nil CDL params")
	}
}

func identityLUT1D(n int) *lut.LUT1D {
	l := lut.NewLUT1D(n)
	for i := 0; i < n; i++ {
		v := float64(i) / float64(n-1)
		l.Samples[i] = [3]float64{v, v, v}
	}
	return l
}

func TestCPUExecLUT1DIdentity(t *testing.T) {
	b := NewCPUBackend(0)
	defer b.Close()
	buf := identityBuffer(t, 1, 1, 3, func(x, y, c int) float32 { return float32(c) * 0.3 })
	l := identityLUT1D(17)
	if err := b.ExecLUT1D(buf, l); err != nil {
		t.Fatalf("ExecLUT1D: %v", err)
	}
	got, _ := b.Download(buf)
	for c := 0; c < 3; c++ {
		want := float32(c) * 0.3
		if math.Abs(float64(got[c]-want)) > 1e-3 {
			t.Fatalf("channel %d = %v, want ~%v", c, got[c], want)
		}
	}
}

func TestCPUExecLUT1DRejectsNil(t *testing.T) {
	b := NewCPUBackend(0)
	defer b.Close()
	buf := identityBuffer(t, 1, 1, 3, func(x, y, c int) float32 { return 0 })
	if err := b.ExecLUT1D(buf, nil); err == nil {
		t.Fatalf("expected an error for a nil LUT1D")
	}
}

func identityLUT3D(size int) *lut.LUT3D {
	l := lut.NewLUT3D(size)
	for bi := 0; bi < size; bi++ {
		for gi := 0; gi < size; gi++ {
			for ri := 0; ri < size; ri++ {
				v := [3]float64{
					float64(ri) / float64(size-1),
					float64(gi) / float64(size-1),
					float64(bi) / float64(size-1),
				}
				l.Set(ri, gi, bi, v)
			}
		}
	}
	return l
}

func TestCPUExecLUT3DIdentity(t *testing.T) {
	b := NewCPUBackend(0)
	defer b.Close()
	buf := identityBuffer(t, 1, 1, 3, func(x, y, c int) float32 { return float32(c) * 0.3 })
	l := identityLUT3D(9)
	if err := b.ExecLUT3D(buf, l); err != nil {
		t.Fatalf("ExecLUT3D: %v", err)
	}
	got, _ := b.Download(buf)
	for c := 0; c < 3; c++ {
		want := float32(c) * 0.3
		if math.Abs(float64(got[c]-want)) > 1e-2 {
			t.Fatalf("channel %d = %v, want ~%v", c, got[c], want)
		}
	}
}

func TestCPUExecLUT3DRejectsNil(t *testing.T) {
	b := NewCPUBackend(0)
	defer b.Close()
	buf := identityBuffer(t, 1, 1, 3, func(x, y, c int) float32 { return 0 })
	if err := b.ExecLUT3D(buf, nil); err == nil {
		t.Fatalf("expected an error for a nil LUT3D")
	}
}

func TestCPUExecResizeDimensions(t *testing.T) {
	b := NewCPUBackend(2)
	defer b.Close()
	buf := identityBuffer(t, 8, 8, 3, func(x, y, c int) float32 { return float32(x) / 8 })
	out, err := b.ExecResize(buf, 4, 4, FilterTriangle)
	if err != nil {
		t.Fatalf("ExecResize: %v", err)
	}
	if out.Width != 4 || out.Height != 4 || out.Channels != 3 {
		t.Fatalf("resize dims = %dx%dx%d, want 4x4x3", out.Width, out.Height, out.Channels)
	}
}

func TestCPUExecResizeRejectsNonPositive(t *testing.T) {
	b := NewCPUBackend(0)
	defer b.Close()
	buf := identityBuffer(t, 4, 4, 3, func(x, y, c int) float32 { return 0 })
	if _, err := b.ExecResize(buf, 0, 4, FilterBox); err == nil {
		t.Fatalf("expected an error for a non-positive target dimension")
	}
}

func TestCPUExecResizeUpscalePreservesConstant(t *testing.T) {
	b := NewCPUBackend(2)
	defer b.Close()
	buf := identityBuffer(t, 4, 4, 1, func(x, y, c int) float32 { return 0.7 })
	out, err := b.ExecResize(buf, 16, 16, FilterLanczos3)
	if err != nil {
		t.Fatalf("ExecResize: %v", err)
	}
	got, _ := b.Download(out)
	for i, v := range got {
		if math.Abs(float64(v-0.7)) > 1e-3 {
			t.Fatalf("sample %d = %v, want ~0.7 (resizing a constant image must stay constant)", i, v)
		}
	}
}

func TestCPUExecBlurPreservesConstant(t *testing.T) {
	b := NewCPUBackend(2)
	defer b.Close()
	buf := identityBuffer(t, 16, 16, 1, func(x, y, c int) float32 { return 0.42 })
	if err := b.ExecBlur(buf, 3, 3); err != nil {
		t.Fatalf("ExecBlur: %v", err)
	}
	got, _ := b.Download(buf)
	for i, v := range got {
		if math.Abs(float64(v-0.42)) > 1e-3 {
			t.Fatalf("sample %d = %v, want ~0.42 (a Gaussian blur of a constant image must stay constant)", i, v)
		}
	}
}

func TestCPUExecBlurSmoothsImpulse(t *testing.T) {
	b := NewCPUBackend(2)
	defer b.Close()
	buf := identityBuffer(t, 9, 9, 1, func(x, y, c int) float32 {
		if x == 4 && y == 4 {
			return 1
		}
		return 0
	})
	if err := b.ExecBlur(buf, 2, 2); err != nil {
		t.Fatalf("ExecBlur: %v", err)
	}
	got, _ := b.Download(buf)
	center := got[4*9+4]
	if center >= 1 {
		t.Fatalf("center sample after blur = %v, want spread below 1", center)
	}
	if got[0] <= 0 {
		t.Fatalf("corner sample after blur = %v, want some spread from the impulse", got[0])
	}
}

func TestCPUExecCompositeOver(t *testing.T) {
	b := NewCPUBackend(0)
	defer b.Close()
	dst := identityBuffer(t, 1, 1, 1, func(x, y, c int) float32 { return 0 })
	src := identityBuffer(t, 1, 1, 1, func(x, y, c int) float32 { return 1 })
	if err := b.ExecComposite(dst, src, CompositeOver, 0.5); err != nil {
		t.Fatalf("ExecComposite: %v", err)
	}
	got, _ := b.Download(dst)
	if math.Abs(float64(got[0]-0.5)) > 1e-6 {
		t.Fatalf("over at 0.5 opacity = %v, want 0.5", got[0])
	}
}

func TestCPUExecCompositeRejectsDimensionMismatch(t *testing.T) {
	b := NewCPUBackend(0)
	defer b.Close()
	dst := identityBuffer(t, 2, 2, 1, func(x, y, c int) float32 { return 0 })
	src := identityBuffer(t, 4, 4, 1, func(x, y, c int) float32 { return 1 })
	if err := b.ExecComposite(dst, src, CompositeAdd, 1); err == nil {
		t.Fatalf("expected an error for mismatched composite dimensions")
	}
}

func TestCPULimitsReportsName(t *testing.T) {
	b := NewCPUBackend(0)
	defer b.Close()
	limits := b.Limits()
	if limits.Name != "cpu" {
		t.Fatalf("Limits().Name = %q, want \"cpu\"", limits.Name)
	}
}
