package lutformats

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/ssoj13/vfxcore/lut"
)

// cubeCodec implements the Iridas/Resolve .cube format, including
// Resolve's combined 1D-shaper + 3D-cube variant.
type cubeCodec struct{}

func init() {
	Register(cubeCodec{}, "cube")
}

func (cubeCodec) Name() string { return "cube" }

func (cubeCodec) Sniff(name string, head []byte) bool {
	return strings.HasSuffix(strings.ToLower(name), ".cube")
}

func (cubeCodec) Decode(r io.Reader) (*Table, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	var (
		lut1DSize   int
		lut3DSize   int
		input1DLo   = 0.0
		input1DHi   = 1.0
		domainMin1D = [3]float64{0, 0, 0}
		domainMax1D = [3]float64{1, 1, 1}
		haveDomain1D bool
		domainMin3D = [3]float64{0, 0, 0}
		domainMax3D = [3]float64{1, 1, 1}
		haveDomain3D bool
		rows1D      [][3]float64
		rows3D      [][3]float64
		lineNo      int
	)

	for sc.Scan() {
		lineNo++
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)
		key := strings.ToUpper(fields[0])

		switch key {
		case "TITLE":
			continue
		case "LUT_1D_SIZE":
			v, err := strconv.Atoi(fields[1])
			if err != nil {
				return nil, &LutError{Kind: ParseError, Line: lineNo, Message: "invalid LUT_1D_SIZE"}
			}
			lut1DSize = v
			rows1D = make([][3]float64, 0, v)
		case "LUT_3D_SIZE":
			v, err := strconv.Atoi(fields[1])
			if err != nil {
				return nil, &LutError{Kind: ParseError, Line: lineNo, Message: "invalid LUT_3D_SIZE"}
			}
			lut3DSize = v
			rows3D = make([][3]float64, 0, v*v*v)
		case "LUT_1D_INPUT_RANGE":
			lo, _ := strconv.ParseFloat(fields[1], 64)
			hi, _ := strconv.ParseFloat(fields[2], 64)
			input1DLo, input1DHi = lo, hi
		case "LUT_3D_INPUT_RANGE":
			lo, _ := strconv.ParseFloat(fields[1], 64)
			hi, _ := strconv.ParseFloat(fields[2], 64)
			domainMin3D = [3]float64{lo, lo, lo}
			domainMax3D = [3]float64{hi, hi, hi}
			haveDomain3D = true
		case "DOMAIN_MIN":
			vals, err := parseFloats(fields[1:], 3, lineNo)
			if err != nil {
				return nil, err
			}
			if lut1DSize > 0 && lut3DSize == 0 {
				domainMin1D = vals
				haveDomain1D = true
			} else {
				domainMin3D = vals
				haveDomain3D = true
			}
		case "DOMAIN_MAX":
			vals, err := parseFloats(fields[1:], 3, lineNo)
			if err != nil {
				return nil, err
			}
			if lut1DSize > 0 && lut3DSize == 0 {
				domainMax1D = vals
				haveDomain1D = true
			} else {
				domainMax3D = vals
				haveDomain3D = true
			}
		default:
			// A data row: 3 floats.
			vals, err := parseFloats(fields, 3, lineNo)
			if err != nil {
				return nil, err
			}
			if lut3DSize > 0 && len(rows3D) < lut3DSize*lut3DSize*lut3DSize {
				rows3D = append(rows3D, vals)
			} else if lut1DSize > 0 && len(rows1D) < lut1DSize {
				rows1D = append(rows1D, vals)
			}
		}
	}
	if err := sc.Err(); err != nil {
		return nil, &LutError{Kind: ParseError, Message: "scan error", Cause: err}
	}

	table := &Table{}

	if lut1DSize > 0 {
		if len(rows1D) != lut1DSize {
			return nil, &LutError{Kind: DimensionError, Message: fmt.Sprintf("expected %d 1D rows, got %d", lut1DSize, len(rows1D))}
		}
		l1 := &lut.LUT1D{Samples: rows1D}
		if haveDomain1D {
			l1.DomainMin, l1.DomainMax = domainMin1D, domainMax1D
		} else {
			l1.DomainMin = [3]float64{input1DLo, input1DLo, input1DLo}
			l1.DomainMax = [3]float64{input1DHi, input1DHi, input1DHi}
		}
		if lut3DSize > 0 {
			table.Shaper = l1
		} else {
			table.LUT1D = l1
		}
	}

	if lut3DSize > 0 {
		if len(rows3D) != lut3DSize*lut3DSize*lut3DSize {
			return nil, &LutError{Kind: DimensionError, Message: fmt.Sprintf("expected %d 3D rows, got %d", lut3DSize*lut3DSize*lut3DSize, len(rows3D))}
		}
		l3 := &lut.LUT3D{Size: lut3DSize, Samples: rows3D, Interp: lut.Trilinear}
		if haveDomain3D {
			l3.DomainMin, l3.DomainMax = domainMin3D, domainMax3D
		} else {
			l3.DomainMin = [3]float64{0, 0, 0}
			l3.DomainMax = [3]float64{1, 1, 1}
		}
		table.LUT3D = l3
	}

	if table.LUT1D == nil && table.LUT3D == nil {
		return nil, &LutError{Kind: ParseError, Message: ".cube file has neither LUT_1D_SIZE nor LUT_3D_SIZE"}
	}
	return table, nil
}

func (cubeCodec) Encode(w io.Writer, t *Table) error {
	bw := bufio.NewWriter(w)
	defer bw.Flush()

	if t.Shaper != nil {
		fmt.Fprintf(bw, "LUT_1D_SIZE %d\n", len(t.Shaper.Samples))
		fmt.Fprintf(bw, "DOMAIN_MIN %g %g %g\n", t.Shaper.DomainMin[0], t.Shaper.DomainMin[1], t.Shaper.DomainMin[2])
		fmt.Fprintf(bw, "DOMAIN_MAX %g %g %g\n", t.Shaper.DomainMax[0], t.Shaper.DomainMax[1], t.Shaper.DomainMax[2])
		for _, s := range t.Shaper.Samples {
			fmt.Fprintf(bw, "%g %g %g\n", s[0], s[1], s[2])
		}
	} else if t.LUT1D != nil {
		fmt.Fprintf(bw, "LUT_1D_SIZE %d\n", len(t.LUT1D.Samples))
		fmt.Fprintf(bw, "DOMAIN_MIN %g %g %g\n", t.LUT1D.DomainMin[0], t.LUT1D.DomainMin[1], t.LUT1D.DomainMin[2])
		fmt.Fprintf(bw, "DOMAIN_MAX %g %g %g\n", t.LUT1D.DomainMax[0], t.LUT1D.DomainMax[1], t.LUT1D.DomainMax[2])
		for _, s := range t.LUT1D.Samples {
			fmt.Fprintf(bw, "%g %g %g\n", s[0], s[1], s[2])
		}
	}

	if t.LUT3D != nil {
		fmt.Fprintf(bw, "LUT_3D_SIZE %d\n", t.LUT3D.Size)
		fmt.Fprintf(bw, "DOMAIN_MIN %g %g %g\n", t.LUT3D.DomainMin[0], t.LUT3D.DomainMin[1], t.LUT3D.DomainMin[2])
		fmt.Fprintf(bw, "DOMAIN_MAX %g %g %g\n", t.LUT3D.DomainMax[0], t.LUT3D.DomainMax[1], t.LUT3D.DomainMax[2])
		for _, s := range t.LUT3D.Samples {
			fmt.Fprintf(bw, "%g %g %g\n", s[0], s[1], s[2])
		}
	}
	return nil
}

// parseFloats parses exactly want tokens as float64, returning a
// ParseError naming the offending line on any non-numeric token.
func parseFloats(fields []string, want int, line int) ([3]float64, error) {
	var out [3]float64
	if len(fields) < want {
		return out, &LutError{Kind: ParseError, Line: line, Message: "expected more numeric fields"}
	}
	for i := 0; i < want; i++ {
		v, err := strconv.ParseFloat(fields[i], 64)
		if err != nil {
			return out, &LutError{Kind: ParseError, Line: line, Message: fmt.Sprintf("non-numeric token %q", fields[i]), Cause: err}
		}
		out[i] = v
	}
	return out, nil
}
