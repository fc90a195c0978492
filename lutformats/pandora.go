package lutformats

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/ssoj13/vfxcore/lut"
)

// pandoraCodec implements Pandora's .mga/.m3d format: a "3DMESH" header, a
// "Mesh inDepthShift outDepthShift" line giving the cube edge size as
// 2^outDepthShift, an input-range line, then exactly Size^3 data lines each
// of the form "red green blue" (three integers, no other tokens permitted
// per line).
type pandoraCodec struct{}

func init() {
	Register(pandoraCodec{}, "mga", "m3d")
}

func (pandoraCodec) Name() string { return "mga" }
func (pandoraCodec) Sniff(name string, head []byte) bool {
	lower := strings.ToLower(name)
	if strings.HasSuffix(lower, ".mga") || strings.HasSuffix(lower, ".m3d") {
		return true
	}
	return strings.Contains(string(head), "3DMESH")
}

func (pandoraCodec) Decode(r io.Reader) (*Table, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	var (
		size   int
		scale  = 1023.0
		rows   [][3]float64
		lineNo int
	)

	for sc.Scan() {
		lineNo++
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		fields := strings.Fields(line)
		switch {
		case strings.EqualFold(fields[0], "3DMESH"):
			continue
		case strings.EqualFold(fields[0], "Mesh"):
			if len(fields) < 3 {
				return nil, &LutError{Kind: ParseError, Line: lineNo, Message: "Mesh line needs 2 integers"}
			}
			outShift, err := strconv.Atoi(fields[2])
			if err != nil {
				return nil, &LutError{Kind: ParseError, Line: lineNo, Message: "invalid Mesh shift", Cause: err}
			}
			size = 1 << uint(outShift)
			rows = make([][3]float64, 0, size*size*size)
		default:
			if len(fields) != 3 {
				// Input-range marker lines (grid point indices) are the
				// only other permitted non-data lines; ignore them.
				continue
			}
			vals, err := parseFloats(fields, 3, lineNo)
			if err != nil {
				return nil, err
			}
			for _, v := range vals {
				if v > scale {
					scale = v
				}
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
		return nil, &LutError{Kind: DimensionError, Message: fmt.Sprintf("pandora row count %d is not size^3", len(rows))}
	}
	if scale <= 1 {
		scale = 1023
	}

	l3 := lut.NewLUT3D(size)
	idx := 0
	for bi := 0; bi < size; bi++ {
		for gi := 0; gi < size; gi++ {
			for ri := 0; ri < size; ri++ {
				v := rows[idx]
				idx++
				l3.Set(ri, gi, bi, [3]float64{v[0] / scale, v[1] / scale, v[2] / scale})
			}
		}
	}
	return &Table{LUT3D: l3}, nil
}

func (pandoraCodec) Encode(w io.Writer, t *Table) error {
	if t.LUT3D == nil {
		return &LutError{Kind: ParseError, Message: "pandora encode requires a 3D table"}
	}
	bw := bufio.NewWriter(w)
	defer bw.Flush()
	n := t.LUT3D.Size
	shift := 0
	for 1<<uint(shift) < n {
		shift++
	}
	fmt.Fprintln(bw, "3DMESH")
	fmt.Fprintf(bw, "Mesh %d %d\n", 10, shift)
	const scale = 1023.0
	for bi := 0; bi < n; bi++ {
		for gi := 0; gi < n; gi++ {
			for ri := 0; ri < n; ri++ {
				v := t.LUT3D.At(ri, gi, bi)
				fmt.Fprintf(bw, "%d %d %d\n", int(v[0]*scale), int(v[1]*scale), int(v[2]*scale))
			}
		}
	}
	return nil
}
