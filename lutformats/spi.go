package lutformats

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/ssoj13/vfxcore/lut"
)

// spi1dCodec implements Sony Imageworks' .spi1d text format: a "Version 1"
// header line, "From A B", "Length N", "Components C", "{" / "}" bracketed
// rows of C floats.
type spi1dCodec struct{}

// spi3dCodec implements Sony Imageworks' .spi3d format: a "SPILUT 1.0"
// header, a dimensions line, a cube-size line, then index-prefixed rows.
type spi3dCodec struct{}

// spimtxCodec implements the .spimtx format: a single line (or three lines)
// of 9 or 12 floats forming a 3x3 (or 3x4, offset ignored) color matrix.
type spimtxCodec struct{}

func init() {
	Register(spi1dCodec{}, "spi1d")
	Register(spi3dCodec{}, "spi3d")
	Register(spimtxCodec{}, "spimtx")
}

func (spi1dCodec) Name() string { return "spi1d" }
func (spi1dCodec) Sniff(name string, head []byte) bool {
	return strings.HasSuffix(strings.ToLower(name), ".spi1d") || strings.HasPrefix(string(head), "Version 1")
}

func (spi1dCodec) Decode(r io.Reader) (*Table, error) {
	sc := bufio.NewScanner(r)
	var (
		from0, from1   = 0.0, 1.0
		length         int
		components     = 1
		rows           [][3]float64
		inBody         bool
		lineNo         int
	)
	for sc.Scan() {
		lineNo++
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		switch {
		case strings.HasPrefix(line, "Version"):
			continue
		case strings.HasPrefix(line, "From"):
			fields := strings.Fields(line)
			if len(fields) >= 3 {
				from0, _ = strconv.ParseFloat(fields[1], 64)
				from1, _ = strconv.ParseFloat(fields[2], 64)
			}
		case strings.HasPrefix(line, "Length"):
			fields := strings.Fields(line)
			length, _ = strconv.Atoi(fields[1])
			rows = make([][3]float64, 0, length)
		case strings.HasPrefix(line, "Components"):
			fields := strings.Fields(line)
			components, _ = strconv.Atoi(fields[1])
		case line == "{":
			inBody = true
		case line == "}":
			inBody = false
		default:
			if !inBody {
				continue
			}
			fields := strings.Fields(line)
			var row [3]float64
			for i := 0; i < components && i < 3; i++ {
				v, err := strconv.ParseFloat(fields[i], 64)
				if err != nil {
					return nil, &LutError{Kind: ParseError, Line: lineNo, Message: "non-numeric sample", Cause: err}
				}
				row[i] = v
			}
			if components == 1 {
				row[1], row[2] = row[0], row[0]
			}
			rows = append(rows, row)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, &LutError{Kind: ParseError, Message: "scan error", Cause: err}
	}
	if length > 0 && len(rows) != length {
		return nil, &LutError{Kind: DimensionError, Message: fmt.Sprintf("expected %d rows, got %d", length, len(rows))}
	}
	l1 := &lut.LUT1D{
		DomainMin: [3]float64{from0, from0, from0},
		DomainMax: [3]float64{from1, from1, from1},
		Samples:   rows,
	}
	return &Table{LUT1D: l1}, nil
}

func (spi1dCodec) Encode(w io.Writer, t *Table) error {
	if t.LUT1D == nil {
		return &LutError{Kind: ParseError, Message: "spi1d encode requires a 1D table"}
	}
	bw := bufio.NewWriter(w)
	defer bw.Flush()
	fmt.Fprintln(bw, "Version 1")
	fmt.Fprintf(bw, "From %g %g\n", t.LUT1D.DomainMin[0], t.LUT1D.DomainMax[0])
	fmt.Fprintf(bw, "Length %d\n", len(t.LUT1D.Samples))
	fmt.Fprintln(bw, "Components 3")
	fmt.Fprintln(bw, "{")
	for _, s := range t.LUT1D.Samples {
		fmt.Fprintf(bw, "\t%g %g %g\n", s[0], s[1], s[2])
	}
	fmt.Fprintln(bw, "}")
	return nil
}

func (spi3dCodec) Name() string { return "spi3d" }
func (spi3dCodec) Sniff(name string, head []byte) bool {
	return strings.HasSuffix(strings.ToLower(name), ".spi3d") || strings.HasPrefix(string(head), "SPILUT")
}

func (spi3dCodec) Decode(r io.Reader) (*Table, error) {
	sc := bufio.NewScanner(r)
	lineNo := 0
	// phase 0: awaiting "SPILUT" header (optional) -> 1: awaiting the
	// channel-count dims line -> 2: awaiting the cube-size line -> 3: data.
	phase := 0
	var l3 *lut.LUT3D
	var expect, got int

	for sc.Scan() {
		lineNo++
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		if phase == 0 && strings.HasPrefix(strings.ToUpper(line), "SPILUT") {
			phase = 1
			continue
		}
		fields := strings.Fields(line)

		switch phase {
		case 0, 1:
			// Dimensions line: "3 3" (in channels, out channels). Ignored.
			phase = 2
		case 2:
			n, err := strconv.Atoi(fields[0])
			if err != nil {
				return nil, &LutError{Kind: ParseError, Line: lineNo, Message: "invalid cube size"}
			}
			l3 = lut.NewLUT3D(n)
			expect = n * n * n
			phase = 3
		case 3:
			if len(fields) < 6 {
				return nil, &LutError{Kind: ParseError, Line: lineNo, Message: "expected 6 fields (index + rgb)"}
			}
			ri, _ := strconv.Atoi(fields[0])
			gi, _ := strconv.Atoi(fields[1])
			bi, _ := strconv.Atoi(fields[2])
			vals, err := parseFloats(fields[3:], 3, lineNo)
			if err != nil {
				return nil, err
			}
			l3.Set(ri, gi, bi, vals)
			got++
		}
	}
	if err := sc.Err(); err != nil {
		return nil, &LutError{Kind: ParseError, Message: "scan error", Cause: err}
	}
	if l3 == nil || got != expect {
		return nil, &LutError{Kind: DimensionError, Message: fmt.Sprintf("spi3d: expected %d samples, parsed %d", expect, got)}
	}
	return &Table{LUT3D: l3}, nil
}

func (spi3dCodec) Encode(w io.Writer, t *Table) error {
	if t.LUT3D == nil {
		return &LutError{Kind: ParseError, Message: "spi3d encode requires a 3D table"}
	}
	bw := bufio.NewWriter(w)
	defer bw.Flush()
	fmt.Fprintln(bw, "SPILUT 1.0")
	fmt.Fprintln(bw, "3 3")
	fmt.Fprintf(bw, "%d %d %d\n", t.LUT3D.Size, t.LUT3D.Size, t.LUT3D.Size)
	n := t.LUT3D.Size
	for bi := 0; bi < n; bi++ {
		for gi := 0; gi < n; gi++ {
			for ri := 0; ri < n; ri++ {
				v := t.LUT3D.At(ri, gi, bi)
				fmt.Fprintf(bw, "%d %d %d %g %g %g\n", ri, gi, bi, v[0], v[1], v[2])
			}
		}
	}
	return nil
}

func (spimtxCodec) Name() string { return "spimtx" }
func (spimtxCodec) Sniff(name string, head []byte) bool {
	return strings.HasSuffix(strings.ToLower(name), ".spimtx")
}

func (spimtxCodec) Decode(r io.Reader) (*Table, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, &LutError{Kind: ParseError, Message: "read error", Cause: err}
	}
	fields := strings.Fields(string(data))
	if len(fields) < 9 {
		return nil, &LutError{Kind: ParseError, Message: "spimtx requires at least 9 numeric fields"}
	}
	var m [9]float64
	// spimtx rows are 3x4 (matrix + offset column); offset is dropped since
	// Table.Matrix models a pure 3x3.
	cols := 3
	if len(fields) >= 12 {
		cols = 4
	}
	for row := 0; row < 3; row++ {
		for col := 0; col < 3; col++ {
			v, err := strconv.ParseFloat(fields[row*cols+col], 64)
			if err != nil {
				return nil, &LutError{Kind: ParseError, Message: fmt.Sprintf("non-numeric token %q", fields[row*cols+col]), Cause: err}
			}
			m[row*3+col] = v
		}
	}
	return &Table{Matrix: &m}, nil
}

func (spimtxCodec) Encode(w io.Writer, t *Table) error {
	if t.Matrix == nil {
		return &LutError{Kind: ParseError, Message: "spimtx encode requires a matrix table"}
	}
	m := t.Matrix
	bw := bufio.NewWriter(w)
	defer bw.Flush()
	for row := 0; row < 3; row++ {
		fmt.Fprintf(bw, "%g %g %g 0\n", m[row*3], m[row*3+1], m[row*3+2])
	}
	return nil
}
