package lutformats

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/ssoj13/vfxcore/lut"
)

// itxLookCodec implements Iridas's .itx and .look formats: a "3DLUTDATA"
// (or "LOOK") header token, an optional "LUT_3D_SIZE N" line, and N^3 data
// rows of 3 floats in Blue-major order. Functionally a stripped-down
// .cube without DOMAIN_* or shaper sections.
type itxLookCodec struct{}

func init() {
	Register(itxLookCodec{}, "itx", "look")
}

func (itxLookCodec) Name() string { return "itx" }
func (itxLookCodec) Sniff(name string, head []byte) bool {
	lower := strings.ToLower(name)
	if strings.HasSuffix(lower, ".itx") || strings.HasSuffix(lower, ".look") {
		return true
	}
	return strings.Contains(string(head), "3DLUTDATA")
}

func (itxLookCodec) Decode(r io.Reader) (*Table, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	var size int
	var rows [][3]float64
	var lineNo int

	for sc.Scan() {
		lineNo++
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)
		upper := strings.ToUpper(fields[0])
		switch {
		case upper == "3DLUTDATA" || upper == "LOOK":
			continue
		case upper == "LUT_3D_SIZE":
			v, err := strconv.Atoi(fields[1])
			if err != nil {
				return nil, &LutError{Kind: ParseError, Line: lineNo, Message: "invalid LUT_3D_SIZE"}
			}
			size = v
			rows = make([][3]float64, 0, v*v*v)
		default:
			vals, err := parseFloats(fields, 3, lineNo)
			if err != nil {
				return nil, err
			}
			rows = append(rows, vals)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, &LutError{Kind: ParseError, Message: "scan error", Cause: err}
	}
	if size == 0 {
		size = cbrtInt(len(rows))
	}
	if size*size*size != len(rows) {
		return nil, &LutError{Kind: DimensionError, Message: fmt.Sprintf("itx/look row count %d is not size^3", len(rows))}
	}

	l3 := lut.NewLUT3D(size)
	idx := 0
	for bi := 0; bi < size; bi++ {
		for gi := 0; gi < size; gi++ {
			for ri := 0; ri < size; ri++ {
				l3.Set(ri, gi, bi, rows[idx])
				idx++
			}
		}
	}
	return &Table{LUT3D: l3}, nil
}

func (itxLookCodec) Encode(w io.Writer, t *Table) error {
	if t.LUT3D == nil {
		return &LutError{Kind: ParseError, Message: "itx/look encode requires a 3D table"}
	}
	bw := bufio.NewWriter(w)
	defer bw.Flush()
	fmt.Fprintln(bw, "3DLUTDATA")
	fmt.Fprintf(bw, "LUT_3D_SIZE %d\n", t.LUT3D.Size)
	n := t.LUT3D.Size
	for bi := 0; bi < n; bi++ {
		for gi := 0; gi < n; gi++ {
			for ri := 0; ri < n; ri++ {
				v := t.LUT3D.At(ri, gi, bi)
				fmt.Fprintf(bw, "%g %g %g\n", v[0], v[1], v[2])
			}
		}
	}
	return nil
}
