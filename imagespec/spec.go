// Package imagespec describes the shape of an image independent of any
// particular file format or in-memory storage layout: dimensions, channel
// layout, pixel data type, and the display/data window pair used by VFX
// compositing formats like OpenEXR.
package imagespec

import "fmt"

// DataFormat identifies the scalar type backing each channel sample.
type DataFormat uint8

const (
	FormatU8 DataFormat = iota
	FormatU16
	FormatU32
	FormatF16
	FormatF32
)

// String names the format the way OpenImageIO/OpenEXR headers do.
func (f DataFormat) String() string {
	switch f {
	case FormatU8:
		return "uint8"
	case FormatU16:
		return "uint16"
	case FormatU32:
		return "uint32"
	case FormatF16:
		return "half"
	case FormatF32:
		return "float"
	default:
		return "unknown"
	}
}

// BytesPerSample returns the storage size of one channel sample.
func (f DataFormat) BytesPerSample() int {
	switch f {
	case FormatU8:
		return 1
	case FormatU16, FormatF16:
		return 2
	case FormatU32, FormatF32:
		return 4
	default:
		return 0
	}
}

// IsValid reports whether f is one of the defined constants.
func (f DataFormat) IsValid() bool {
	return f <= FormatF32
}

// Box describes an axis-aligned region in pixel space: an origin plus a
// size along x, y, and z (z is 1 for 2D images).
type Box struct {
	X, Y, Z             int
	Width, Height, Depth int
}

// Empty reports whether the box covers zero pixels.
func (b Box) Empty() bool {
	return b.Width <= 0 || b.Height <= 0 || b.Depth <= 0
}

// Contains reports whether b fully contains other.
func (b Box) Contains(other Box) bool {
	return other.X >= b.X && other.Y >= b.Y && other.Z >= b.Z &&
		other.X+other.Width <= b.X+b.Width &&
		other.Y+other.Height <= b.Y+b.Height &&
		other.Z+other.Depth <= b.Z+b.Depth
}

// Overlaps reports whether b and other share at least one pixel.
func (b Box) Overlaps(other Box) bool {
	if b.Empty() || other.Empty() {
		return false
	}
	return b.X < other.X+other.Width && other.X < b.X+b.Width &&
		b.Y < other.Y+other.Height && other.Y < b.Y+b.Height &&
		b.Z < other.Z+other.Depth && other.Z < b.Z+b.Depth
}

// ImageSpec is the format-independent description of an image: its
// dimensions, channel layout, sample type, tiling, and the display/data
// window pair VFX formats use to represent cropped or overscanned frames.
type ImageSpec struct {
	Width, Height, Depth int
	NChannels            int
	DataFormat           DataFormat

	// AlphaChannel/ZChannel are channel indices, or -1 when absent.
	AlphaChannel int
	ZChannel     int

	// TileWidth/TileHeight are 0 for scanline-organized images.
	TileWidth, TileHeight int

	DisplayWindow Box
	DataWindow    Box

	ChannelNames []string

	// ExtraAttrs holds format metadata not modeled above (e.g. EXR string
	// attributes, chromaticities, compression name).
	ExtraAttrs map[string]any

	Deep bool

	// DeepSampleCounts holds, when Deep is true, the per-pixel sample
	// count in data-window scanline order (len == Width*Height).
	DeepSampleCounts []int
}

// NewImageSpec builds a scanline-organized spec with a data window and
// display window both equal to (0,0,width,height,1) and sequential channel
// names ("R","G","B","A" for 4 channels, "channel0".. otherwise for >4).
func NewImageSpec(width, height, nchannels int, format DataFormat) *ImageSpec {
	box := Box{Width: width, Height: height, Depth: 1}
	return &ImageSpec{
		Width:         width,
		Height:        height,
		Depth:         1,
		NChannels:     nchannels,
		DataFormat:    format,
		AlphaChannel:  -1,
		ZChannel:      -1,
		DisplayWindow: box,
		DataWindow:    box,
		ChannelNames:  defaultChannelNames(nchannels),
		ExtraAttrs:    make(map[string]any),
	}
}

func defaultChannelNames(n int) []string {
	names := make([]string, n)
	standard := []string{"R", "G", "B", "A"}
	for i := range names {
		if i < len(standard) {
			names[i] = standard[i]
		} else {
			names[i] = fmt.Sprintf("channel%d", i)
		}
	}
	return names
}

// IsTiled reports whether the spec describes tile-organized storage.
func (s *ImageSpec) IsTiled() bool {
	return s.TileWidth > 0 && s.TileHeight > 0
}

// Validate checks the invariants this type must hold:
// channel_names.len()==nchannels, a non-empty data window, and — when
// Deep is set — a per-pixel sample count slice sized to the data window.
func (s *ImageSpec) Validate() error {
	if len(s.ChannelNames) != s.NChannels {
		return fmt.Errorf("imagespec: channel_names has %d entries, want %d", len(s.ChannelNames), s.NChannels)
	}
	if s.DataWindow.Empty() {
		return fmt.Errorf("imagespec: data window is empty")
	}
	if !s.DataFormat.IsValid() {
		return fmt.Errorf("imagespec: unknown data format %d", s.DataFormat)
	}
	if s.Deep {
		want := s.DataWindow.Width * s.DataWindow.Height
		if len(s.DeepSampleCounts) != want {
			return fmt.Errorf("imagespec: deep sample counts has %d entries, want %d", len(s.DeepSampleCounts), want)
		}
	}
	return nil
}

// ChannelIndex returns the index of the named channel, or -1 if absent.
func (s *ImageSpec) ChannelIndex(name string) int {
	for i, n := range s.ChannelNames {
		if n == name {
			return i
		}
	}
	return -1
}
