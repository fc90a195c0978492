package exr

import (
	"encoding/binary"
	"io"
	"math"
	"sort"

	"github.com/ssoj13/vfxcore/colormath"
	"github.com/ssoj13/vfxcore/imagespec"
)

var magicBytes = [4]byte{0x76, 0x2f, 0x31, 0x01}

const (
	versionNumber    = 2
	flagTiled        = 1 << 9
	flagLongNames    = 1 << 11
	flagDeep         = 1 << 12
	flagMultipart    = 1 << 13
)

// Sniff reports whether head begins with the OpenEXR magic number.
func Sniff(head []byte) bool {
	return len(head) >= 4 && head[0] == magicBytes[0] && head[1] == magicBytes[1] &&
		head[2] == magicBytes[2] && head[3] == magicBytes[3]
}

type byteWriter struct {
	w   io.Writer
	err error
	n   int64
}

func (bw *byteWriter) write(p []byte) {
	if bw.err != nil {
		return
	}
	n, err := bw.w.Write(p)
	bw.n += int64(n)
	bw.err = err
}

func (bw *byteWriter) u8(v byte)     { bw.write([]byte{v}) }
func (bw *byteWriter) i32(v int32)   { var b [4]byte; binary.LittleEndian.PutUint32(b[:], uint32(v)); bw.write(b[:]) }
func (bw *byteWriter) u32(v uint32)  { var b [4]byte; binary.LittleEndian.PutUint32(b[:], v); bw.write(b[:]) }
func (bw *byteWriter) i64(v int64)   { var b [8]byte; binary.LittleEndian.PutUint64(b[:], uint64(v)); bw.write(b[:]) }
func (bw *byteWriter) f32(v float32) { bw.u32(math.Float32bits(v)) }
func (bw *byteWriter) cstr(s string) { bw.write([]byte(s)); bw.u8(0) }

func encodeBox(b imagespec.Box) []byte {
	out := make([]byte, 16)
	binary.LittleEndian.PutUint32(out[0:], uint32(int32(b.X)))
	binary.LittleEndian.PutUint32(out[4:], uint32(int32(b.Y)))
	binary.LittleEndian.PutUint32(out[8:], uint32(int32(b.X+b.Width-1)))
	binary.LittleEndian.PutUint32(out[12:], uint32(int32(b.Y+b.Height-1)))
	return out
}

func decodeBox(data []byte) imagespec.Box {
	xmin := int32(binary.LittleEndian.Uint32(data[0:]))
	ymin := int32(binary.LittleEndian.Uint32(data[4:]))
	xmax := int32(binary.LittleEndian.Uint32(data[8:]))
	ymax := int32(binary.LittleEndian.Uint32(data[12:]))
	return imagespec.Box{X: int(xmin), Y: int(ymin), Z: 0, Width: int(xmax-xmin) + 1, Height: int(ymax-ymin) + 1, Depth: 1}
}

func encodeChlist(cl ChannelList) []byte {
	sorted := make(ChannelList, len(cl))
	copy(sorted, cl)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Name < sorted[j].Name })

	bw := &byteWriter{w: &growBuf{}}
	for _, c := range sorted {
		bw.cstr(c.Name)
		bw.i32(int32(c.Type))
		if c.PLinear {
			bw.u8(1)
		} else {
			bw.u8(0)
		}
		bw.write([]byte{0, 0, 0})
		bw.i32(c.XSampling)
		bw.i32(c.YSampling)
	}
	bw.u8(0)
	return bw.w.(*growBuf).buf
}

func decodeChlist(data []byte) ChannelList {
	var cl ChannelList
	i := 0
	for i < len(data) && data[i] != 0 {
		start := i
		for data[i] != 0 {
			i++
		}
		name := string(data[start:i])
		i++ // skip null
		pixelType := int32(binary.LittleEndian.Uint32(data[i:]))
		i += 4
		pLinear := data[i] != 0
		i += 4 // pLinear byte + 3 reserved
		xSampling := int32(binary.LittleEndian.Uint32(data[i:]))
		i += 4
		ySampling := int32(binary.LittleEndian.Uint32(data[i:]))
		i += 4
		cl = append(cl, Channel{Name: name, Type: PixelType(pixelType), PLinear: pLinear, XSampling: xSampling, YSampling: ySampling})
	}
	return cl
}

func encodeChromaticities(c colormath.Chromaticities) []byte {
	out := make([]byte, 32)
	vals := []float64{c.Red.X, c.Red.Y, c.Green.X, c.Green.Y, c.Blue.X, c.Blue.Y, c.White.X, c.White.Y}
	for i, v := range vals {
		binary.LittleEndian.PutUint32(out[i*4:], math.Float32bits(float32(v)))
	}
	return out
}

func decodeChromaticities(data []byte) colormath.Chromaticities {
	get := func(i int) float64 { return float64(math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))) }
	return colormath.Chromaticities{
		Red:   colormath.V2{X: get(0), Y: get(1)},
		Green: colormath.V2{X: get(2), Y: get(3)},
		Blue:  colormath.V2{X: get(4), Y: get(5)},
		White: colormath.V2{X: get(6), Y: get(7)},
	}
}

// growBuf is a minimal io.Writer that appends to an in-memory slice,
// avoiding a bytes.Buffer import solely for the attribute encoders.
type growBuf struct{ buf []byte }

func (g *growBuf) Write(p []byte) (int, error) {
	g.buf = append(g.buf, p...)
	return len(p), nil
}
