package exr

import "github.com/ssoj13/vfxcore/imagespec"

// PixelType identifies a channel's on-disk sample type.
type PixelType uint8

const (
	PixelUint PixelType = iota
	PixelHalf
	PixelFloat
)

func (t PixelType) BytesPerSample() int {
	switch t {
	case PixelUint, PixelFloat:
		return 4
	case PixelHalf:
		return 2
	default:
		return 0
	}
}

// Channel describes one image channel within a Part.
type Channel struct {
	Name       string
	Type       PixelType
	PLinear    bool
	XSampling  int32
	YSampling  int32
}

// ChannelList is an ordered set of channels. The writer and reader put
// them in OpenEXR's alphabetical-by-name on-disk order via sortedChannels.
type ChannelList []Channel

func (cl ChannelList) Get(name string) *Channel {
	for i := range cl {
		if cl[i].Name == name {
			return &cl[i]
		}
	}
	return nil
}

// LineOrder controls the on-disk scanline ordering.
type LineOrder uint8

const (
	LineOrderIncreasing LineOrder = iota
	LineOrderDecreasing
	LineOrderRandom
)

// TileMode distinguishes flat (one-level) tiled images from mipmapped or
// ripmapped ones.
type TileMode uint8

const (
	TileOneLevel TileMode = iota
	TileMipmapLevels
	TileRipmapLevels
)

// TileDesc describes the tile geometry and mip/ripmap mode of a tiled Part.
type TileDesc struct {
	XSize, YSize uint32
	Mode         TileMode
}

// PartType names the four OpenEXR part kinds. Scanline, tiled and deep
// scanline parts round-trip; ReadFile rejects deep tiled parts.
type PartType uint8

const (
	PartScanlineImage PartType = iota
	PartTiledImage
	PartDeepScanline
	PartDeepTile
)

func (t PartType) String() string {
	switch t {
	case PartScanlineImage:
		return "scanlineimage"
	case PartTiledImage:
		return "tiledimage"
	case PartDeepScanline:
		return "deepscanline"
	case PartDeepTile:
		return "deeptile"
	default:
		return "unknown"
	}
}

// Part is one image layer within a (possibly multipart) EXR file: its own
// header attributes, channel list, and geometry.
type Part struct {
	Name             string
	Type             PartType
	DisplayWindow    imagespec.Box
	DataWindow       imagespec.Box
	PixelAspectRatio float32
	Compression      Compression
	LineOrder        LineOrder
	Channels         ChannelList
	TileDesc         TileDesc

	// Attributes holds header metadata not modeled above (chromaticities,
	// string attributes, arbitrary floats) keyed by attribute name.
	Attributes map[string]any
}

func (p *Part) IsTiled() bool {
	return p.Type == PartTiledImage || p.Type == PartDeepTile
}

func (p *Part) IsDeep() bool {
	return p.Type == PartDeepScanline || p.Type == PartDeepTile
}

// NewPart builds a scanline Part with the given channels over a single
// (0,0,w,h) window and CompressionZIP16.
func NewPart(name string, width, height int, channels ChannelList) *Part {
	box := imagespec.Box{Width: width, Height: height, Depth: 1}
	return &Part{
		Name:             name,
		Type:             PartScanlineImage,
		DisplayWindow:    box,
		DataWindow:       box,
		PixelAspectRatio: 1,
		Compression:      CompressionZIP16,
		LineOrder:        LineOrderIncreasing,
		Channels:         channels,
		Attributes:       make(map[string]any),
	}
}

// File is a (possibly multipart) OpenEXR document: an ordered list of
// independently-typed parts, per the OpenEXR 2.0 multipart extension.
type File struct {
	Parts []*Part
}
