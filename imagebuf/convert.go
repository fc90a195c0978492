package imagebuf

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/ssoj13/vfxcore/imagespec"
)

// ToImageData packs the buffer's float32 data window into little-endian
// bytes at the given DataFormat, scaling normalized [0,1] values to the
// target integer range for U8/U16/U32 and leaving F16/F32 values
// unscaled (VFX float formats carry scene-linear values outside [0,1]).
func (b *Buffer) ToImageData(format imagespec.DataFormat) ([]byte, error) {
	if !format.IsValid() {
		return nil, fmt.Errorf("imagebuf: unknown data format %d", format)
	}
	n := len(b.Data)
	out := make([]byte, n*format.BytesPerSample())
	for i, v := range b.Data {
		off := i * format.BytesPerSample()
		switch format {
		case imagespec.FormatU8:
			out[off] = byte(clamp01(v) * 255)
		case imagespec.FormatU16:
			binary.LittleEndian.PutUint16(out[off:], uint16(clamp01(v)*65535))
		case imagespec.FormatU32:
			binary.LittleEndian.PutUint32(out[off:], uint32(clamp01(v)*4294967295))
		case imagespec.FormatF16:
			binary.LittleEndian.PutUint16(out[off:], float32ToHalf(v))
		case imagespec.FormatF32:
			binary.LittleEndian.PutUint32(out[off:], math.Float32bits(v))
		}
	}
	return out, nil
}

// FromImageData builds a Buffer from packed bytes at the given format,
// inverse to ToImageData.
func FromImageData(spec *imagespec.ImageSpec, data []byte, format imagespec.DataFormat) (*Buffer, error) {
	buf, err := NewBuffer(spec)
	if err != nil {
		return nil, err
	}
	bps := format.BytesPerSample()
	need := len(buf.Data) * bps
	if len(data) < need {
		return nil, fmt.Errorf("imagebuf: data has %d bytes, need %d", len(data), need)
	}
	for i := range buf.Data {
		off := i * bps
		switch format {
		case imagespec.FormatU8:
			buf.Data[i] = float32(data[off]) / 255
		case imagespec.FormatU16:
			buf.Data[i] = float32(binary.LittleEndian.Uint16(data[off:])) / 65535
		case imagespec.FormatU32:
			buf.Data[i] = float32(binary.LittleEndian.Uint32(data[off:])) / 4294967295
		case imagespec.FormatF16:
			buf.Data[i] = halfToFloat32(binary.LittleEndian.Uint16(data[off:]))
		case imagespec.FormatF32:
			buf.Data[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[off:]))
		}
	}
	return buf, nil
}

func clamp01(v float32) float32 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// float32ToHalf/halfToFloat32 implement IEEE 754 binary16 conversion
// (round-to-nearest-even is not attempted; truncation matches the
// precision loss VFX pipelines already expect from half-float storage).
func float32ToHalf(f float32) uint16 {
	bits := math.Float32bits(f)
	sign := uint16((bits >> 16) & 0x8000)
	exp := int32((bits>>23)&0xff) - 127 + 15
	mant := bits & 0x7fffff

	if exp <= 0 {
		return sign
	}
	if exp >= 0x1f {
		return sign | 0x7c00
	}
	return sign | uint16(exp<<10) | uint16(mant>>13)
}

func halfToFloat32(h uint16) float32 {
	sign := uint32(h&0x8000) << 16
	exp := uint32(h>>10) & 0x1f
	mant := uint32(h & 0x3ff)

	if exp == 0 {
		if mant == 0 {
			return math.Float32frombits(sign)
		}
		// subnormal half: normalize into a float32
		for mant&0x400 == 0 {
			mant <<= 1
			exp--
		}
		exp++
		mant &= 0x3ff
	} else if exp == 0x1f {
		if mant == 0 {
			return math.Float32frombits(sign | 0x7f800000)
		}
		return math.Float32frombits(sign | 0x7f800000 | (mant << 13))
	}

	exp = exp - 15 + 127
	return math.Float32frombits(sign | (exp << 23) | (mant << 13))
}
