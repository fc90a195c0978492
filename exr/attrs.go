package exr

import (
	"encoding/binary"
	"io"
	"math"

	"github.com/ssoj13/vfxcore/colormath"
)

type attribute struct {
	name string
	typ  string
	data []byte
}

func readCString(r io.Reader) (string, error) {
	var out []byte
	var b [1]byte
	for {
		if _, err := io.ReadFull(r, b[:]); err != nil {
			return "", err
		}
		if b[0] == 0 {
			return string(out), nil
		}
		out = append(out, b[0])
	}
}

// readAttribute reads one (name,type,size,data) triple. A name that reads
// as an immediate empty string (just the terminating 0) signals the end of
// an attribute list; firstByteZero reports that case so the caller can stop
// without trying to read a type/size that was never written.
func readAttribute(r io.Reader) (attr attribute, firstByteZero bool, err error) {
	var b [1]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return attribute{}, false, err
	}
	if b[0] == 0 {
		return attribute{}, true, nil
	}
	nameRest, err := readCString(r)
	if err != nil {
		return attribute{}, false, err
	}
	name := string(b[0]) + nameRest
	typ, err := readCString(r)
	if err != nil {
		return attribute{}, false, err
	}
	var szBuf [4]byte
	if _, err := io.ReadFull(r, szBuf[:]); err != nil {
		return attribute{}, false, err
	}
	size := int32(binary.LittleEndian.Uint32(szBuf[:]))
	if size < 0 {
		return attribute{}, false, &IoError{Kind: CorruptData, Message: "negative attribute size"}
	}
	data := make([]byte, size)
	if _, err := io.ReadFull(r, data); err != nil {
		return attribute{}, false, err
	}
	return attribute{name: name, typ: typ, data: data}, false, nil
}

func writeAttribute(bw *byteWriter, name, typ string, data []byte) {
	bw.cstr(name)
	bw.cstr(typ)
	bw.i32(int32(len(data)))
	bw.write(data)
}

func writeV2f(bw *byteWriter, name string, x, y float32) {
	g := &growBuf{}
	gw := &byteWriter{w: g}
	gw.f32(x)
	gw.f32(y)
	writeAttribute(bw, name, "v2f", g.buf)
}

func writePartHeader(bw *byteWriter, p *Part, multipart bool) {
	writeAttribute(bw, "channels", "chlist", encodeChlist(p.Channels))
	writeAttribute(bw, "compression", "compression", []byte{byte(p.Compression)})
	writeAttribute(bw, "dataWindow", "box2i", encodeBox(p.DataWindow))
	writeAttribute(bw, "displayWindow", "box2i", encodeBox(p.DisplayWindow))
	writeAttribute(bw, "lineOrder", "lineOrder", []byte{byte(p.LineOrder)})
	{
		g := &growBuf{}
		gw := &byteWriter{w: g}
		gw.f32(p.PixelAspectRatio)
		writeAttribute(bw, "pixelAspectRatio", "float", g.buf)
	}
	writeV2f(bw, "screenWindowCenter", 0, 0)
	{
		g := &growBuf{}
		gw := &byteWriter{w: g}
		gw.f32(1)
		writeAttribute(bw, "screenWindowWidth", "float", g.buf)
	}
	if p.IsTiled() {
		g := &growBuf{}
		gw := &byteWriter{w: g}
		gw.u32(p.TileDesc.XSize)
		gw.u32(p.TileDesc.YSize)
		gw.u8(byte(p.TileDesc.Mode))
		writeAttribute(bw, "tiles", "tiledesc", g.buf)
	}
	if multipart || p.IsDeep() {
		writeAttribute(bw, "name", "string", []byte(p.Name))
		writeAttribute(bw, "type", "string", []byte(p.Type.String()))
	}
	for k, v := range p.Attributes {
		switch val := v.(type) {
		case colormath.Chromaticities:
			writeAttribute(bw, k, "chromaticities", encodeChromaticities(val))
		case float32:
			g := &growBuf{}
			gw := &byteWriter{w: g}
			gw.f32(val)
			writeAttribute(bw, k, "float", g.buf)
		case string:
			writeAttribute(bw, k, "string", []byte(val))
		case []byte:
			writeAttribute(bw, k, "opaque", val)
		}
	}
	bw.u8(0)
}

// readPartHeader reads attributes until the terminating 0 byte. If the very
// first byte read is itself 0 (no attributes at all), endOfParts is true —
// used by the multipart reader to detect the end-of-headers marker.
func readPartHeader(r io.Reader) (part *Part, endOfParts bool, err error) {
	p := &Part{
		Type:             PartScanlineImage,
		PixelAspectRatio: 1,
		Attributes:       make(map[string]any),
	}
	first := true
	for {
		attr, zero, err := readAttribute(r)
		if err != nil {
			return nil, false, err
		}
		if zero {
			if first {
				return nil, true, nil
			}
			break
		}
		first = false
		switch attr.name {
		case "channels":
			p.Channels = decodeChlist(attr.data)
		case "compression":
			p.Compression = Compression(attr.data[0])
		case "dataWindow":
			p.DataWindow = decodeBox(attr.data)
		case "displayWindow":
			p.DisplayWindow = decodeBox(attr.data)
		case "lineOrder":
			p.LineOrder = LineOrder(attr.data[0])
		case "pixelAspectRatio":
			p.PixelAspectRatio = math.Float32frombits(binary.LittleEndian.Uint32(attr.data))
		case "tiles":
			p.TileDesc = TileDesc{
				XSize: binary.LittleEndian.Uint32(attr.data[0:]),
				YSize: binary.LittleEndian.Uint32(attr.data[4:]),
				Mode:  TileMode(attr.data[8]),
			}
		case "name":
			p.Name = string(attr.data)
		case "type":
			switch string(attr.data) {
			case "tiledimage":
				p.Type = PartTiledImage
			case "deepscanline":
				p.Type = PartDeepScanline
			case "deeptile":
				p.Type = PartDeepTile
			default:
				p.Type = PartScanlineImage
			}
		case "screenWindowCenter", "screenWindowWidth":
			// Parsed but not modeled on Part; round trip is not required.
		default:
			switch attr.typ {
			case "chromaticities":
				p.Attributes[attr.name] = decodeChromaticities(attr.data)
			case "float":
				p.Attributes[attr.name] = math.Float32frombits(binary.LittleEndian.Uint32(attr.data))
			case "string":
				p.Attributes[attr.name] = string(attr.data)
			default:
				p.Attributes[attr.name] = attr.data
			}
		}
	}
	if p.TileDesc.XSize > 0 && p.Type == PartScanlineImage {
		p.Type = PartTiledImage
	}
	return p, false, nil
}
