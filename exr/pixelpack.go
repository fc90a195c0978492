package exr

import (
	"encoding/binary"
	"math"

	"github.com/ssoj13/vfxcore/imagebuf"
)

// halfFromFloat32 and floatFromHalf implement IEEE 754 binary16 conversion
// independently of imagebuf's (unexported) half helpers: OpenEXR ships its
// own half-float table in the reference implementation, and this package
// keeps its on-disk conversion local to its own wire-format code rather than
// reaching into another package's internals for it.
func halfFromFloat32(f float32) uint16 {
	bits := math.Float32bits(f)
	sign := uint16((bits >> 16) & 0x8000)
	exp := int32((bits>>23)&0xff) - 127 + 15
	mant := bits & 0x7fffff

	switch {
	case exp <= 0:
		return sign
	case exp >= 0x1f:
		return sign | 0x7c00
	default:
		return sign | uint16(exp<<10) | uint16(mant>>13)
	}
}

func floatFromHalf(h uint16) float32 {
	sign := uint32(h&0x8000) << 16
	exp := uint32(h>>10) & 0x1f
	mant := uint32(h & 0x3ff)

	switch {
	case exp == 0:
		if mant == 0 {
			return math.Float32frombits(sign)
		}
		return math.Float32frombits(sign) * math.Float32frombits(0x38800000) * float32(mant) / 1024
	case exp == 0x1f:
		if mant == 0 {
			return math.Float32frombits(sign | 0x7f800000)
		}
		return math.Float32frombits(sign | 0x7fc00000)
	default:
		return math.Float32frombits(sign | ((exp + (127 - 15)) << 23) | (mant << 13))
	}
}

// packChannelRegion serializes one channel's samples over [x0,x0+w)x[y0,y0+h)
// at z in on-disk row-major order (OpenEXR stores channels planar within a
// chunk, each channel's samples contiguous).
func packChannelRegion(buf *imagebuf.Buffer, chIdx int, x0, y0, z, w, h int, ptype PixelType) []byte {
	out := make([]byte, w*h*ptype.BytesPerSample())
	i := 0
	for y := y0; y < y0+h; y++ {
		for x := x0; x < x0+w; x++ {
			v := buf.GetPixel(x, y, z, chIdx)
			switch ptype {
			case PixelHalf:
				binary.LittleEndian.PutUint16(out[i:], halfFromFloat32(v))
				i += 2
			case PixelFloat:
				binary.LittleEndian.PutUint32(out[i:], math.Float32bits(v))
				i += 4
			case PixelUint:
				binary.LittleEndian.PutUint32(out[i:], uint32(int32(v)))
				i += 4
			}
		}
	}
	return out
}

// unpackChannelRegion inverts packChannelRegion, writing decoded samples
// back into buf.
func unpackChannelRegion(buf *imagebuf.Buffer, chIdx int, x0, y0, z, w, h int, ptype PixelType, data []byte) {
	i := 0
	for y := y0; y < y0+h; y++ {
		for x := x0; x < x0+w; x++ {
			var v float32
			switch ptype {
			case PixelHalf:
				v = floatFromHalf(binary.LittleEndian.Uint16(data[i:]))
				i += 2
			case PixelFloat:
				v = math.Float32frombits(binary.LittleEndian.Uint32(data[i:]))
				i += 4
			case PixelUint:
				v = float32(int32(binary.LittleEndian.Uint32(data[i:])))
				i += 4
			}
			_ = buf.SetPixel(x, y, z, chIdx, v)
		}
	}
}

// regionRawSize is the uncompressed byte size of one scanline block or tile
// holding nchannels channels of a single uniform PixelType over w x h
// samples.
func regionRawSize(nchannels, w, h int, ptype PixelType) int {
	return nchannels * w * h * ptype.BytesPerSample()
}
