package lutformats

import (
	"encoding/xml"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/ssoj13/vfxcore/lut"
)

// clfCodec implements the Common LUT Format / Color Transform Format XML
// ProcessList: .clf is the ACES-native subset, .ctf is Autodesk's
// superset. Both share the ProcessList element structure; ctfMode only
// affects which file extension and DOCTYPE-like root element name this
// codec's Sniff recognizes.
//
// DESIGN.md records this as a justified stdlib use: encoding/xml is the
// only XML decoder available anywhere in the example pack, and no
// third-party XML library is wired elsewhere in this module.
type clfCodec struct{ ctfMode bool }

func init() {
	Register(clfCodec{ctfMode: false}, "clf")
	Register(clfCodec{ctfMode: true}, "ctf")
}

func (c clfCodec) Name() string {
	if c.ctfMode {
		return "ctf"
	}
	return "clf"
}

func (c clfCodec) Sniff(name string, head []byte) bool {
	ext := ".clf"
	if c.ctfMode {
		ext = ".ctf"
	}
	if strings.HasSuffix(strings.ToLower(name), ext) {
		return true
	}
	return false
}

// xmlProcessList mirrors the subset of the CLF/CTF schema this codec
// understands: Matrix, LUT1D, and LUT3D process nodes in document order.
type xmlProcessList struct {
	XMLName xml.Name      `xml:"ProcessList"`
	Matrix  []xmlMatrix   `xml:"Matrix"`
	LUT1D   []xmlLUT1D    `xml:"LUT1D"`
	LUT3D   []xmlLUT3D    `xml:"LUT3D"`
}

type xmlMatrix struct {
	Array xmlArray `xml:"Array"`
}

type xmlLUT1D struct {
	Inputscale  float64  `xml:"inBitDepth,attr"`
	Array       xmlArray `xml:"Array"`
}

type xmlLUT3D struct {
	Array xmlArray `xml:"Array"`
}

type xmlArray struct {
	Dim  string `xml:"dim,attr"`
	Text string `xml:",chardata"`
}

func parseArrayValues(a xmlArray) ([]float64, error) {
	fields := strings.Fields(a.Text)
	out := make([]float64, len(fields))
	for i, f := range fields {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return nil, &LutError{Kind: ParseError, Message: fmt.Sprintf("non-numeric Array value %q", f), Cause: err}
		}
		out[i] = v
	}
	return out, nil
}

func (c clfCodec) Decode(r io.Reader) (*Table, error) {
	var pl xmlProcessList
	dec := xml.NewDecoder(r)
	if err := dec.Decode(&pl); err != nil {
		return nil, &LutError{Kind: ParseError, Message: "invalid ProcessList XML", Cause: err}
	}

	table := &Table{}

	if len(pl.Matrix) > 0 {
		vals, err := parseArrayValues(pl.Matrix[0].Array)
		if err != nil {
			return nil, err
		}
		if len(vals) < 9 {
			return nil, &LutError{Kind: DimensionError, Message: "Matrix Array needs at least 9 values"}
		}
		var m [9]float64
		copy(m[:], vals[:9])
		table.Matrix = &m
	}

	if len(pl.LUT1D) > 0 {
		vals, err := parseArrayValues(pl.LUT1D[0].Array)
		if err != nil {
			return nil, err
		}
		dims := strings.Fields(pl.LUT1D[0].Array.Dim)
		n := len(vals) / 3
		if len(dims) >= 1 {
			if v, err2 := strconv.Atoi(dims[0]); err2 == nil {
				n = v
			}
		}
		if n*3 != len(vals) {
			return nil, &LutError{Kind: DimensionError, Message: "LUT1D Array size mismatch"}
		}
		l1 := lut.NewLUT1D(n)
		for i := 0; i < n; i++ {
			l1.Samples[i] = [3]float64{vals[i*3], vals[i*3+1], vals[i*3+2]}
		}
		table.LUT1D = l1
	}

	if len(pl.LUT3D) > 0 {
		vals, err := parseArrayValues(pl.LUT3D[0].Array)
		if err != nil {
			return nil, err
		}
		n := 0
		for cand := 2; cand <= 256; cand++ {
			if cand*cand*cand*3 == len(vals) {
				n = cand
				break
			}
		}
		if n == 0 {
			return nil, &LutError{Kind: DimensionError, Message: "LUT3D Array size is not a perfect cube"}
		}
		l3 := lut.NewLUT3D(n)
		idx := 0
		for ri := 0; ri < n; ri++ {
			for gi := 0; gi < n; gi++ {
				for bi := 0; bi < n; bi++ {
					l3.Set(ri, gi, bi, [3]float64{vals[idx], vals[idx+1], vals[idx+2]})
					idx += 3
				}
			}
		}
		table.LUT3D = l3
	}

	if table.Matrix == nil && table.LUT1D == nil && table.LUT3D == nil {
		return nil, &LutError{Kind: ParseError, Message: "ProcessList has no recognized nodes"}
	}
	return table, nil
}

func (c clfCodec) Encode(w io.Writer, t *Table) error {
	var pl xmlProcessList
	if t.Matrix != nil {
		m := t.Matrix
		pl.Matrix = append(pl.Matrix, xmlMatrix{Array: xmlArray{
			Dim:  "3 3 3",
			Text: fmt.Sprintf("%g %g %g %g %g %g %g %g %g", m[0], m[1], m[2], m[3], m[4], m[5], m[6], m[7], m[8]),
		}})
	}
	if t.LUT1D != nil {
		var sb strings.Builder
		for _, s := range t.LUT1D.Samples {
			fmt.Fprintf(&sb, "%g %g %g ", s[0], s[1], s[2])
		}
		pl.LUT1D = append(pl.LUT1D, xmlLUT1D{Array: xmlArray{
			Dim:  fmt.Sprintf("%d 3", len(t.LUT1D.Samples)),
			Text: strings.TrimSpace(sb.String()),
		}})
	}
	if t.LUT3D != nil {
		var sb strings.Builder
		n := t.LUT3D.Size
		for ri := 0; ri < n; ri++ {
			for gi := 0; gi < n; gi++ {
				for bi := 0; bi < n; bi++ {
					v := t.LUT3D.At(ri, gi, bi)
					fmt.Fprintf(&sb, "%g %g %g ", v[0], v[1], v[2])
				}
			}
		}
		pl.LUT3D = append(pl.LUT3D, xmlLUT3D{Array: xmlArray{
			Dim:  fmt.Sprintf("%d %d %d 3", n, n, n),
			Text: strings.TrimSpace(sb.String()),
		}})
	}

	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")
	if err := enc.Encode(&pl); err != nil {
		return &LutError{Kind: ParseError, Message: "XML encode failed", Cause: err}
	}
	return nil
}
