package texture

import (
	"testing"

	"github.com/ssoj13/vfxcore/imagebuf"
	"github.com/ssoj13/vfxcore/imagespec"
)

func solidBuffer(t *testing.T, w, h int, value float32) *imagebuf.Buffer {
	t.Helper()
	spec := imagespec.NewImageSpec(w, h, 4, imagespec.FormatF32)
	buf, err := imagebuf.NewBuffer(spec)
	if err != nil {
		t.Fatalf("NewBuffer: %v", err)
	}
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			for c := 0; c < 4; c++ {
				_ = buf.SetPixel(x, y, 0, c, value)
			}
		}
	}
	return buf
}

func rampBuffer(t *testing.T, w, h int) *imagebuf.Buffer {
	t.Helper()
	spec := imagespec.NewImageSpec(w, h, 4, imagespec.FormatF32)
	buf, err := imagebuf.NewBuffer(spec)
	if err != nil {
		t.Fatalf("NewBuffer: %v", err)
	}
	wDenom, hDenom := w-1, h-1
	if wDenom < 1 {
		wDenom = 1
	}
	if hDenom < 1 {
		hDenom = 1
	}
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			_ = buf.SetPixel(x, y, 0, 0, float32(x)/float32(wDenom))
			_ = buf.SetPixel(x, y, 0, 1, float32(y)/float32(hDenom))
			_ = buf.SetPixel(x, y, 0, 2, 0)
			_ = buf.SetPixel(x, y, 0, 3, 1)
		}
	}
	return buf
}

func TestGenerateMipmapsLevelCount(t *testing.T) {
	buf := solidBuffer(t, 64, 32, 1)
	chain, err := GenerateMipmaps(buf)
	if err != nil {
		t.Fatalf("GenerateMipmaps: %v", err)
	}
	// 64 -> 32 -> 16 -> 8 -> 4 -> 2 -> 1: 7 levels.
	if chain.NumLevels() != 7 {
		t.Fatalf("NumLevels = %d, want 7", chain.NumLevels())
	}
	last := chain.Level(chain.NumLevels() - 1)
	if last.Spec.DataWindow.Width != 1 || last.Spec.DataWindow.Height != 1 {
		t.Fatalf("last level size = %dx%d, want 1x1", last.Spec.DataWindow.Width, last.Spec.DataWindow.Height)
	}
}

func TestMipmapsPreserveConstantValue(t *testing.T) {
	buf := solidBuffer(t, 16, 16, 0.5)
	chain, err := GenerateMipmaps(buf)
	if err != nil {
		t.Fatalf("GenerateMipmaps: %v", err)
	}
	for n := 0; n < chain.NumLevels(); n++ {
		level := chain.Level(n)
		got := level.GetPixel(0, 0, 0, 0)
		if got < 0.499 || got > 0.501 {
			t.Fatalf("level %d = %v, want ~0.5 (box filter of a constant must stay constant)", n, got)
		}
	}
}

func TestLevelForScale(t *testing.T) {
	buf := solidBuffer(t, 256, 256, 1)
	chain, err := GenerateMipmaps(buf)
	if err != nil {
		t.Fatalf("GenerateMipmaps: %v", err)
	}
	if got := chain.LevelForScale(1); got != 0 {
		t.Fatalf("LevelForScale(1) = %v, want 0", got)
	}
	if got := chain.LevelForScale(0.1); got != 0 {
		t.Fatalf("LevelForScale(0.1) (magnification) = %v, want 0", got)
	}
	if got := chain.LevelForScale(4); got < 1.9 || got > 2.1 {
		t.Fatalf("LevelForScale(4) = %v, want ~2", got)
	}
	max := float64(chain.NumLevels() - 1)
	if got := chain.LevelForScale(1e9); got != max {
		t.Fatalf("LevelForScale(huge) = %v, want clamp to %v", got, max)
	}
}

func TestLevelClampsOutOfRange(t *testing.T) {
	buf := solidBuffer(t, 8, 8, 1)
	chain, err := GenerateMipmaps(buf)
	if err != nil {
		t.Fatalf("GenerateMipmaps: %v", err)
	}
	if chain.Level(-1) != chain.Level(0) {
		t.Fatalf("Level(-1) should clamp to Level(0)")
	}
	last := chain.NumLevels() - 1
	if chain.Level(last+5) != chain.Level(last) {
		t.Fatalf("Level(out of range) should clamp to the last level")
	}
}
