package imageio

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"io"

	"github.com/ssoj13/vfxcore/imagebuf"
	"github.com/ssoj13/vfxcore/imagespec"
)

func init() {
	Register(&pngDriver{})
	Register(&jpegDriver{})
}

// imageToBuffer converts a decoded stdlib image.Image (always 8-bit or
// 16-bit integer samples) into a float32 imagebuf.Buffer normalized to
// [0,1], the LDR convention this module uses for non-VFX formats.
func imageToBuffer(img image.Image) (*imagebuf.Buffer, *imagespec.ImageSpec, error) {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	spec := imagespec.NewImageSpec(w, h, 4, imagespec.FormatF32)
	buf, err := imagebuf.NewBuffer(spec)
	if err != nil {
		return nil, nil, err
	}
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			r, g, b, a := img.At(bounds.Min.X+x, bounds.Min.Y+y).RGBA()
			_ = buf.SetPixel(x, y, 0, 0, float32(r)/65535)
			_ = buf.SetPixel(x, y, 0, 1, float32(g)/65535)
			_ = buf.SetPixel(x, y, 0, 2, float32(b)/65535)
			_ = buf.SetPixel(x, y, 0, 3, float32(a)/65535)
		}
	}
	return buf, spec, nil
}

func bufferToRGBA(buf *imagebuf.Buffer) *image.RGBA64 {
	dw := buf.Spec.DataWindow
	img := image.NewRGBA64(image.Rect(0, 0, dw.Width, dw.Height))
	nch := buf.Spec.NChannels
	for y := 0; y < dw.Height; y++ {
		for x := 0; x < dw.Width; x++ {
			r := clampChannel(buf.GetPixel(dw.X+x, dw.Y+y, 0, 0))
			g := clampChannel(pick(buf, dw, x, y, 1, nch, r))
			b := clampChannel(pick(buf, dw, x, y, 2, nch, r))
			a := uint16(65535)
			if nch > 3 {
				a = clampChannel(buf.GetPixel(dw.X+x, dw.Y+y, 0, 3))
			}
			img.SetRGBA64(x, y, color.RGBA64{R: r, G: g, B: b, A: a})
		}
	}
	return img
}

func pick(buf *imagebuf.Buffer, dw imagespec.Box, x, y, ch, nch int, fallback uint16) uint16 {
	if ch >= nch {
		return fallback
	}
	return clampChannel(buf.GetPixel(dw.X+x, dw.Y+y, 0, ch))
}

func clampChannel(v float32) uint16 {
	if v < 0 {
		v = 0
	}
	if v > 1 {
		v = 1
	}
	return uint16(v*65535 + 0.5)
}

type pngDriver struct{}

func (d *pngDriver) Name() string         { return "png" }
func (d *pngDriver) Extensions() []string { return []string{"png"} }
func (d *pngDriver) Capabilities() Capability {
	return CapThumbnail
}
func (d *pngDriver) Sniff(head []byte) bool {
	return len(head) >= 8 && bytes.Equal(head[:8], []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'})
}
func (d *pngDriver) Decode(r io.Reader) ([]*imagebuf.Buffer, []*imagespec.ImageSpec, error) {
	img, err := png.Decode(r)
	if err != nil {
		return nil, nil, &IoError{Kind: CorruptData, Message: "png decode", Cause: err}
	}
	buf, spec, err := imageToBuffer(img)
	if err != nil {
		return nil, nil, err
	}
	return []*imagebuf.Buffer{buf}, []*imagespec.ImageSpec{spec}, nil
}
func (d *pngDriver) Encode(w io.Writer, bufs []*imagebuf.Buffer, specs []*imagespec.ImageSpec) error {
	if len(bufs) != 1 {
		return &IoError{Kind: UnsupportedFeature, Message: "png does not support multi-image output"}
	}
	img := bufferToRGBA(bufs[0])
	if err := png.Encode(w, img); err != nil {
		return &IoError{Kind: CorruptData, Message: "png encode", Cause: err}
	}
	return nil
}

type jpegDriver struct{}

func (d *jpegDriver) Name() string         { return "jpeg" }
func (d *jpegDriver) Extensions() []string { return []string{"jpg", "jpeg"} }
func (d *jpegDriver) Capabilities() Capability {
	return CapThumbnail | CapExif
}
func (d *jpegDriver) Sniff(head []byte) bool {
	return len(head) >= 3 && head[0] == 0xff && head[1] == 0xd8 && head[2] == 0xff
}
func (d *jpegDriver) Decode(r io.Reader) ([]*imagebuf.Buffer, []*imagespec.ImageSpec, error) {
	img, err := jpeg.Decode(r)
	if err != nil {
		return nil, nil, &IoError{Kind: CorruptData, Message: "jpeg decode", Cause: err}
	}
	buf, spec, err := imageToBuffer(img)
	if err != nil {
		return nil, nil, err
	}
	return []*imagebuf.Buffer{buf}, []*imagespec.ImageSpec{spec}, nil
}
func (d *jpegDriver) Encode(w io.Writer, bufs []*imagebuf.Buffer, specs []*imagespec.ImageSpec) error {
	if len(bufs) != 1 {
		return &IoError{Kind: UnsupportedFeature, Message: "jpeg does not support multi-image output"}
	}
	img := bufferToRGBA(bufs[0])
	if err := jpeg.Encode(w, img, &jpeg.Options{Quality: 95}); err != nil {
		return &IoError{Kind: CorruptData, Message: "jpeg encode", Cause: err}
	}
	return nil
}
