package imageio

import (
	"io"

	"github.com/ssoj13/vfxcore/exr"
	"github.com/ssoj13/vfxcore/imagebuf"
	"github.com/ssoj13/vfxcore/imagespec"
)

func init() {
	Register(&exrDriver{})
}

type exrDriver struct{}

func (d *exrDriver) Name() string          { return "openexr" }
func (d *exrDriver) Extensions() []string  { return []string{"exr", "sxr", "mxr"} }
func (d *exrDriver) Sniff(head []byte) bool { return exr.Sniff(head) }

func (d *exrDriver) Capabilities() Capability {
	return CapMultiImage | CapTiles | CapDeepData | CapIoProxy | CapAppendSubImage | CapArbitraryMetadata
}

func (d *exrDriver) Decode(r io.Reader) ([]*imagebuf.Buffer, []*imagespec.ImageSpec, error) {
	file, buffers, err := exr.ReadFile(r)
	if err != nil {
		return nil, nil, wrapExrErr(err)
	}
	bufs := make([]*imagebuf.Buffer, 0, len(buffers))
	specs := make([]*imagespec.ImageSpec, 0, len(buffers))
	for i, b := range buffers {
		buf, ok := b.(*imagebuf.Buffer)
		if !ok {
			return nil, nil, &IoError{Kind: UnsupportedFeature, Message: "part " + file.Parts[i].Name + " is deep data; use ReadDeep instead"}
		}
		bufs = append(bufs, buf)
		specs = append(specs, buf.Spec)
	}
	return bufs, specs, nil
}

func (d *exrDriver) Encode(w io.Writer, bufs []*imagebuf.Buffer, specs []*imagespec.ImageSpec) error {
	if len(bufs) == 0 {
		return &IoError{Kind: InvalidArgument, Message: "no images to encode"}
	}
	parts := make([]*exr.Part, len(specs))
	buffers := make([]any, len(bufs))
	for i, spec := range specs {
		parts[i] = specToPart(spec, partName(i))
		buffers[i] = bufs[i]
	}
	file := &exr.File{Parts: parts}
	if err := exr.WriteFile(w, file, buffers); err != nil {
		return wrapExrErr(err)
	}
	return nil
}

func partName(i int) string {
	if i == 0 {
		return "rgba"
	}
	return "part" + string(rune('0'+i))
}

func pixelTypeFor(format imagespec.DataFormat) exr.PixelType {
	switch format {
	case imagespec.FormatF16:
		return exr.PixelHalf
	case imagespec.FormatF32:
		return exr.PixelFloat
	default:
		return exr.PixelUint
	}
}

func specToPart(spec *imagespec.ImageSpec, name string) *exr.Part {
	ptype := pixelTypeFor(spec.DataFormat)
	channels := make(exr.ChannelList, len(spec.ChannelNames))
	for i, n := range spec.ChannelNames {
		channels[i] = exr.Channel{Name: n, Type: ptype, XSampling: 1, YSampling: 1}
	}
	p := exr.NewPart(name, spec.DataWindow.Width, spec.DataWindow.Height, channels)
	p.DataWindow = spec.DataWindow
	p.DisplayWindow = spec.DisplayWindow
	return p
}

func wrapExrErr(err error) error {
	if ioErr, ok := err.(*exr.IoError); ok {
		kind := CorruptData
		switch ioErr.Kind {
		case exr.UnsupportedFeature:
			kind = UnsupportedFeature
		case exr.UnsupportedFormat:
			kind = UnsupportedFormat
		case exr.NotFound:
			kind = NotFound
		case exr.InvalidArgument:
			kind = InvalidArgument
		}
		return &IoError{Kind: kind, Message: ioErr.Message, Cause: ioErr.Cause}
	}
	return &IoError{Kind: CorruptData, Message: "exr decode failed", Cause: err}
}
