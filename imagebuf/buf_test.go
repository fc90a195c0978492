package imagebuf

import (
	"testing"

	"github.com/ssoj13/vfxcore/imagespec"
)

func TestGetSetPixelRoundTrip(t *testing.T) {
	spec := imagespec.NewImageSpec(4, 4, 3, imagespec.FormatF32)
	buf, err := NewBuffer(spec)
	if err != nil {
		t.Fatalf("NewBuffer: %v", err)
	}
	if err := buf.SetPixel(2, 1, 0, 1, 0.75); err != nil {
		t.Fatalf("SetPixel: %v", err)
	}
	if got := buf.GetPixel(2, 1, 0, 1); got != 0.75 {
		t.Fatalf("GetPixel = %v, want 0.75", got)
	}
	if err := buf.SetPixel(100, 100, 0, 0, 1); err != ErrOutOfBounds {
		t.Fatalf("expected ErrOutOfBounds, got %v", err)
	}
}

func TestContiguousFreshBuffer(t *testing.T) {
	spec := imagespec.NewImageSpec(8, 8, 4, imagespec.FormatF32)
	buf, _ := NewBuffer(spec)
	if !buf.Contiguous() {
		t.Fatalf("freshly allocated buffer should be contiguous")
	}
}

func TestGetSetPixelsRegion(t *testing.T) {
	spec := imagespec.NewImageSpec(4, 4, 2, imagespec.FormatF32)
	buf, _ := NewBuffer(spec)
	roi := imagespec.Box{X: 1, Y: 1, Z: 0, Width: 2, Height: 2, Depth: 1}
	data := []float32{1, 2, 3, 4, 5, 6, 7, 8}
	if err := buf.SetPixels(roi, data); err != nil {
		t.Fatalf("SetPixels: %v", err)
	}
	got := buf.GetPixels(roi)
	for i := range data {
		if got[i] != data[i] {
			t.Fatalf("GetPixels[%d] = %v, want %v", i, got[i], data[i])
		}
	}
	if buf.GetPixel(0, 0, 0, 0) != 0 {
		t.Fatalf("pixel outside roi should be untouched")
	}
}

func TestScanlineIteratorAdvanceRule(t *testing.T) {
	spec := imagespec.NewImageSpec(2, 2, 1, imagespec.FormatF32)
	spec.DataWindow = imagespec.Box{X: 0, Y: 5, Z: 0, Width: 2, Height: 2, Depth: 1}
	spec.DisplayWindow = spec.DataWindow
	buf, err := NewBuffer(spec)
	if err != nil {
		t.Fatalf("NewBuffer: %v", err)
	}
	it := NewScanlineIterator(buf, spec.DataWindow)
	var coords [][2]int
	for {
		x, y, _ := it.Pos()
		coords = append(coords, [2]int{x, y})
		if !it.Advance() {
			break
		}
	}
	want := [][2]int{{0, 5}, {1, 5}, {0, 6}, {1, 6}}
	if len(coords) != len(want) {
		t.Fatalf("got %d coords, want %d", len(coords), len(want))
	}
	for i := range want {
		if coords[i] != want[i] {
			t.Fatalf("coord[%d] = %v, want %v", i, coords[i], want[i])
		}
	}
}

func TestInterpPixelClampWrap(t *testing.T) {
	spec := imagespec.NewImageSpec(2, 2, 1, imagespec.FormatF32)
	buf, _ := NewBuffer(spec)
	_ = buf.SetPixel(0, 0, 0, 0, 1)
	_ = buf.SetPixel(1, 0, 0, 0, 1)
	_ = buf.SetPixel(0, 1, 0, 0, 1)
	_ = buf.SetPixel(1, 1, 0, 0, 1)
	got := buf.InterpPixel(-5, -5, WrapClamp)
	if got[0] != 1 {
		t.Fatalf("InterpPixel with WrapClamp on uniform image = %v, want 1", got[0])
	}
}

func TestToImageDataFromImageDataRoundTripF32(t *testing.T) {
	spec := imagespec.NewImageSpec(2, 2, 3, imagespec.FormatF32)
	buf, _ := NewBuffer(spec)
	for i := range buf.Data {
		buf.Data[i] = float32(i) * 0.1
	}
	packed, err := buf.ToImageData(imagespec.FormatF32)
	if err != nil {
		t.Fatalf("ToImageData: %v", err)
	}
	back, err := FromImageData(spec, packed, imagespec.FormatF32)
	if err != nil {
		t.Fatalf("FromImageData: %v", err)
	}
	for i := range buf.Data {
		if back.Data[i] != buf.Data[i] {
			t.Fatalf("round trip mismatch at %d: %v != %v", i, back.Data[i], buf.Data[i])
		}
	}
}

func TestToImageDataU8QuantizesWithinStep(t *testing.T) {
	spec := imagespec.NewImageSpec(1, 1, 1, imagespec.FormatU8)
	buf, _ := NewBuffer(spec)
	buf.Data[0] = 0.5
	packed, err := buf.ToImageData(imagespec.FormatU8)
	if err != nil {
		t.Fatalf("ToImageData: %v", err)
	}
	back, _ := FromImageData(spec, packed, imagespec.FormatU8)
	diff := back.Data[0] - buf.Data[0]
	if diff < 0 {
		diff = -diff
	}
	if diff > 1.0/255 {
		t.Fatalf("U8 round trip exceeded quantization step: diff=%v", diff)
	}
}

func TestHalfFloatConversionRoundTrip(t *testing.T) {
	values := []float32{0, 1, -1, 0.5, 100.25, -0.001}
	for _, v := range values {
		h := float32ToHalf(v)
		back := halfToFloat32(h)
		diff := back - v
		if diff < 0 {
			diff = -diff
		}
		if diff > 0.01 {
			t.Errorf("half round trip for %v: got %v (diff %v)", v, back, diff)
		}
	}
}

func TestTileIteratorClampsAtEdges(t *testing.T) {
	spec := imagespec.NewImageSpec(5, 5, 1, imagespec.FormatF32)
	buf, _ := NewBuffer(spec)
	it := NewTileIterator(buf, spec.DataWindow, 3, 3)
	var tiles []imagespec.Box
	for !it.Done() {
		tiles = append(tiles, it.Tile())
		it.Advance()
	}
	if len(tiles) != 4 {
		t.Fatalf("got %d tiles, want 4", len(tiles))
	}
	last := tiles[len(tiles)-1]
	if last.Width != 2 || last.Height != 2 {
		t.Fatalf("last tile should be clamped to 2x2, got %dx%d", last.Width, last.Height)
	}
}
