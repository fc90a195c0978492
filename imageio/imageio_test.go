package imageio

import (
	"bytes"
	"testing"

	"github.com/ssoj13/vfxcore/imagebuf"
	"github.com/ssoj13/vfxcore/imagespec"
)

func TestResolveByMagicBytes(t *testing.T) {
	pngMagic := []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n', 0, 0, 0, 0}
	d, err := Resolve("whatever.bin", pngMagic)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if d.Name() != "png" {
		t.Fatalf("Resolve by magic = %s, want png", d.Name())
	}
}

func TestResolveByExtensionFallback(t *testing.T) {
	d, err := Resolve("render.exr", nil)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if d.Name() != "openexr" {
		t.Fatalf("Resolve by extension = %s, want openexr", d.Name())
	}
}

func TestResolveUnknownFails(t *testing.T) {
	_, err := Resolve("mystery.zzz", nil)
	if err == nil {
		t.Fatalf("expected error for unknown format")
	}
}

func TestUnsupportedFormatsAdvertisedButFail(t *testing.T) {
	d, ok := Get("dpx")
	if !ok {
		t.Fatalf("dpx driver should be registered")
	}
	_, _, err := d.Decode(bytes.NewReader([]byte{0x53, 0x44, 0x50, 0x58}))
	ioErr, ok := err.(*IoError)
	if !ok || ioErr.Kind != UnsupportedFormat {
		t.Fatalf("expected UnsupportedFormat, got %v", err)
	}
}

func TestPNGRoundTrip(t *testing.T) {
	spec := imagespec.NewImageSpec(3, 2, 4, imagespec.FormatF32)
	buf, _ := imagebuf.NewBuffer(spec)
	_ = buf.SetPixel(1, 1, 0, 0, 1)
	_ = buf.SetPixel(1, 1, 0, 3, 1)

	var out bytes.Buffer
	if err := Write(&out, "png", []*imagebuf.Buffer{buf}, []*imagespec.ImageSpec{spec}); err != nil {
		t.Fatalf("Write png: %v", err)
	}

	got, gotSpec, err := Read(&out, "x.png")
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if gotSpec.Width != 3 || gotSpec.Height != 2 {
		t.Fatalf("decoded dims = %dx%d, want 3x2", gotSpec.Width, gotSpec.Height)
	}
	if got.GetPixel(1, 1, 0, 0) < 0.99 {
		t.Fatalf("decoded red channel not preserved: %v", got.GetPixel(1, 1, 0, 0))
	}
}

func TestExrRoundTripThroughGateway(t *testing.T) {
	spec := imagespec.NewImageSpec(4, 3, 3, imagespec.FormatF32)
	spec.ChannelNames = []string{"B", "G", "R"}
	buf, _ := imagebuf.NewBuffer(spec)
	_ = buf.SetPixel(2, 1, 0, buf.Spec.ChannelIndex("R"), 0.5)

	var out bytes.Buffer
	if err := Write(&out, "openexr", []*imagebuf.Buffer{buf}, []*imagespec.ImageSpec{spec}); err != nil {
		t.Fatalf("Write exr: %v", err)
	}

	got, _, err := Read(bytes.NewReader(out.Bytes()), "x.exr")
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if got.GetPixel(2, 1, 0, got.Spec.ChannelIndex("R")) != 0.5 {
		t.Fatalf("exr round trip through imageio gateway lost pixel data")
	}
}

func TestProbeDoesNotRequireFullDecode(t *testing.T) {
	pngMagic := []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}
	name, caps, err := Probe(bytes.NewReader(pngMagic), "x.png")
	if err != nil {
		t.Fatalf("Probe: %v", err)
	}
	if name != "png" {
		t.Fatalf("Probe name = %s, want png", name)
	}
	if caps.Has(CapDeepData) {
		t.Fatalf("png should not advertise CapDeepData")
	}
}
