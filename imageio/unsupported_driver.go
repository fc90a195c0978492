package imageio

import (
	"io"

	"github.com/ssoj13/vfxcore/imagebuf"
	"github.com/ssoj13/vfxcore/imagespec"
)

// unsupportedDriver registers a format's identity (name, extensions, magic
// sniff) so Probe/ByExtension/Available report it honestly, while Decode/
// Encode fail with UnsupportedFormat rather than silently mis-decoding.
// DPX, Radiance HDR, AVIF, HEIF, JPEG2000, PSD, DDS, and KTX2 all have no
// codec in this module's dependency pack (no pack repo imports a decoder
// for any of them); advertising their presence in Available() while being
// honest that reading one fails is preferable to pretending the format
// doesn't exist at all.
type unsupportedDriver struct {
	name string
	exts []string
	magic []byte
}

func (d *unsupportedDriver) Name() string         { return d.name }
func (d *unsupportedDriver) Extensions() []string { return d.exts }
func (d *unsupportedDriver) Capabilities() Capability { return 0 }
func (d *unsupportedDriver) Sniff(head []byte) bool {
	if len(d.magic) == 0 || len(head) < len(d.magic) {
		return false
	}
	for i, b := range d.magic {
		if head[i] != b {
			return false
		}
	}
	return true
}
func (d *unsupportedDriver) Decode(r io.Reader) ([]*imagebuf.Buffer, []*imagespec.ImageSpec, error) {
	return nil, nil, d.err()
}
func (d *unsupportedDriver) Encode(w io.Writer, bufs []*imagebuf.Buffer, specs []*imagespec.ImageSpec) error {
	return d.err()
}

func (d *unsupportedDriver) err() error {
	return &IoError{Kind: UnsupportedFormat, Message: d.name + " has no codec in this module"}
}

func init() {
	for _, d := range []*unsupportedDriver{
		{name: "dpx", exts: []string{"dpx"}, magic: []byte{0x53, 0x44, 0x50, 0x58}},
		{name: "hdr", exts: []string{"hdr", "pic"}, magic: []byte("#?RADIANCE")},
		{name: "avif", exts: []string{"avif"}},
		{name: "heif", exts: []string{"heif", "heic"}},
		{name: "jp2", exts: []string{"jp2", "j2k"}, magic: []byte{0x00, 0x00, 0x00, 0x0c, 'j', 'P', ' ', ' '}},
		{name: "psd", exts: []string{"psd"}, magic: []byte("8BPS")},
		{name: "dds", exts: []string{"dds"}, magic: []byte("DDS ")},
		{name: "ktx2", exts: []string{"ktx2"}, magic: []byte{0xab, 'K', 'T', 'X', ' ', '2', '0', 0xbb}},
	} {
		Register(d)
	}
}
