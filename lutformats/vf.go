package lutformats

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/ssoj13/vfxcore/lut"
)

// vfCodec implements Nuke's .vf format: a "grid_size N" line (the cube
// edge length), an optional "global_transform" line giving a 3x3 matrix,
// and N^3 data rows of 3 floats. The global_transform matrix is captured
// independently of grid_size and applied unscaled regardless of the order
// the two keys appear in — grid_size only ever sizes the LUT3D lattice, it
// never rescales the transform matrix's coefficients.
type vfCodec struct{}

func init() {
	Register(vfCodec{}, "vf")
}

func (vfCodec) Name() string { return "vf" }
func (vfCodec) Sniff(name string, head []byte) bool {
	return strings.HasSuffix(strings.ToLower(name), ".vf")
}

func (vfCodec) Decode(r io.Reader) (*Table, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	var (
		size      int
		matrix    *[9]float64
		rows      [][3]float64
		lineNo    int
	)

	for sc.Scan() {
		lineNo++
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)
		key := strings.ToLower(fields[0])

		switch key {
		case "grid_size":
			v, err := strconv.Atoi(fields[1])
			if err != nil {
				return nil, &LutError{Kind: ParseError, Line: lineNo, Message: "invalid grid_size"}
			}
			size = v
			rows = make([][3]float64, 0, v*v*v)
		case "global_transform":
			vals := fields[1:]
			if len(vals) < 9 {
				// Matrix values may continue on the following line.
				if sc.Scan() {
					lineNo++
					vals = append(vals, strings.Fields(sc.Text())...)
				}
			}
			if len(vals) < 9 {
				return nil, &LutError{Kind: ParseError, Line: lineNo, Message: "global_transform needs 9 values"}
			}
			var m [9]float64
			for i := 0; i < 9; i++ {
				v, err := strconv.ParseFloat(vals[i], 64)
				if err != nil {
					return nil, &LutError{Kind: ParseError, Line: lineNo, Message: fmt.Sprintf("non-numeric token %q", vals[i]), Cause: err}
				}
				m[i] = v
			}
			matrix = &m
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
		return nil, &LutError{Kind: DimensionError, Message: fmt.Sprintf(".vf row count %d is not grid_size^3", len(rows))}
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
	return &Table{Matrix: matrix, LUT3D: l3}, nil
}

func (vfCodec) Encode(w io.Writer, t *Table) error {
	if t.LUT3D == nil {
		return &LutError{Kind: ParseError, Message: ".vf encode requires a 3D table"}
	}
	bw := bufio.NewWriter(w)
	defer bw.Flush()
	fmt.Fprintf(bw, "grid_size %d\n", t.LUT3D.Size)
	if t.Matrix != nil {
		m := t.Matrix
		fmt.Fprintf(bw, "global_transform %g %g %g %g %g %g %g %g %g\n",
			m[0], m[1], m[2], m[3], m[4], m[5], m[6], m[7], m[8])
	}
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
