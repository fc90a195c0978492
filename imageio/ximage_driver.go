package imageio

import (
	"bytes"
	"io"

	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
	"golang.org/x/image/webp"

	"github.com/ssoj13/vfxcore/imagebuf"
	"github.com/ssoj13/vfxcore/imagespec"
)

// golang.org/x/image is already a dependency for font rasterization math
// elsewhere in this module; this file additionally exercises its format
// sub-packages rather than pulling in a second image codec library.
func init() {
	Register(&tiffDriver{})
	Register(&bmpDriver{})
	Register(&webpDriver{})
}

type tiffDriver struct{}

func (d *tiffDriver) Name() string         { return "tiff" }
func (d *tiffDriver) Extensions() []string { return []string{"tif", "tiff"} }
func (d *tiffDriver) Capabilities() Capability {
	return CapMultiImage | CapTiles | CapThumbnail
}
func (d *tiffDriver) Sniff(head []byte) bool {
	if len(head) < 4 {
		return false
	}
	return bytes.Equal(head[:4], []byte{'I', 'I', 0x2a, 0x00}) || bytes.Equal(head[:4], []byte{'M', 'M', 0x00, 0x2a})
}
func (d *tiffDriver) Decode(r io.Reader) ([]*imagebuf.Buffer, []*imagespec.ImageSpec, error) {
	img, err := tiff.Decode(r)
	if err != nil {
		return nil, nil, &IoError{Kind: CorruptData, Message: "tiff decode", Cause: err}
	}
	buf, spec, err := imageToBuffer(img)
	if err != nil {
		return nil, nil, err
	}
	return []*imagebuf.Buffer{buf}, []*imagespec.ImageSpec{spec}, nil
}
func (d *tiffDriver) Encode(w io.Writer, bufs []*imagebuf.Buffer, specs []*imagespec.ImageSpec) error {
	if len(bufs) != 1 {
		return &IoError{Kind: UnsupportedFeature, Message: "this module's tiff encoder does not support multi-page output"}
	}
	img := bufferToRGBA(bufs[0])
	if err := tiff.Encode(w, img, nil); err != nil {
		return &IoError{Kind: CorruptData, Message: "tiff encode", Cause: err}
	}
	return nil
}

type bmpDriver struct{}

func (d *bmpDriver) Name() string             { return "bmp" }
func (d *bmpDriver) Extensions() []string     { return []string{"bmp"} }
func (d *bmpDriver) Capabilities() Capability { return 0 }
func (d *bmpDriver) Sniff(head []byte) bool {
	return len(head) >= 2 && head[0] == 'B' && head[1] == 'M'
}
func (d *bmpDriver) Decode(r io.Reader) ([]*imagebuf.Buffer, []*imagespec.ImageSpec, error) {
	img, err := bmp.Decode(r)
	if err != nil {
		return nil, nil, &IoError{Kind: CorruptData, Message: "bmp decode", Cause: err}
	}
	buf, spec, err := imageToBuffer(img)
	if err != nil {
		return nil, nil, err
	}
	return []*imagebuf.Buffer{buf}, []*imagespec.ImageSpec{spec}, nil
}
func (d *bmpDriver) Encode(w io.Writer, bufs []*imagebuf.Buffer, specs []*imagespec.ImageSpec) error {
	if len(bufs) != 1 {
		return &IoError{Kind: UnsupportedFeature, Message: "bmp does not support multi-image output"}
	}
	img := bufferToRGBA(bufs[0])
	if err := bmp.Encode(w, img); err != nil {
		return &IoError{Kind: CorruptData, Message: "bmp encode", Cause: err}
	}
	return nil
}

// webpDriver is decode-only: golang.org/x/image/webp has no encoder, and no
// other pack dependency provides one.
type webpDriver struct{}

func (d *webpDriver) Name() string             { return "webp" }
func (d *webpDriver) Extensions() []string     { return []string{"webp"} }
func (d *webpDriver) Capabilities() Capability { return CapThumbnail }
func (d *webpDriver) Sniff(head []byte) bool {
	return len(head) >= 12 && bytes.Equal(head[0:4], []byte("RIFF")) && bytes.Equal(head[8:12], []byte("WEBP"))
}
func (d *webpDriver) Decode(r io.Reader) ([]*imagebuf.Buffer, []*imagespec.ImageSpec, error) {
	img, err := webp.Decode(r)
	if err != nil {
		return nil, nil, &IoError{Kind: CorruptData, Message: "webp decode", Cause: err}
	}
	buf, spec, err := imageToBuffer(img)
	if err != nil {
		return nil, nil, err
	}
	return []*imagebuf.Buffer{buf}, []*imagespec.ImageSpec{spec}, nil
}
func (d *webpDriver) Encode(w io.Writer, bufs []*imagebuf.Buffer, specs []*imagespec.ImageSpec) error {
	return &IoError{Kind: UnsupportedFeature, Message: "webp encoding is not supported (golang.org/x/image/webp is decode-only)"}
}
