package lutformats

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/ssoj13/vfxcore/lut"
)

// cspCodec implements the Cinespace .csp format: a "CSPLUTV100" header, a
// "1D" or "3D" type line, three pre-LUT (shaper) curves each given as a
// point count followed by input/output value rows, and for 3D files a cube
// size line followed by Blue-major data rows.
type cspCodec struct{}

func init() {
	Register(cspCodec{}, "csp")
}

func (cspCodec) Name() string { return "csp" }
func (cspCodec) Sniff(name string, head []byte) bool {
	return strings.HasSuffix(strings.ToLower(name), ".csp") || strings.HasPrefix(string(head), "CSPLUTV100")
}

func readCSPLine(sc *bufio.Scanner) (string, bool) {
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		return line, true
	}
	return "", false
}

func readCSPFloats(sc *bufio.Scanner, n int) ([]float64, error) {
	out := make([]float64, 0, n)
	for len(out) < n {
		line, ok := readCSPLine(sc)
		if !ok {
			return nil, &LutError{Kind: ParseError, Message: "unexpected EOF reading csp values"}
		}
		for _, f := range strings.Fields(line) {
			v, err := strconv.ParseFloat(f, 64)
			if err != nil {
				return nil, &LutError{Kind: ParseError, Message: fmt.Sprintf("non-numeric token %q", f), Cause: err}
			}
			out = append(out, v)
		}
	}
	return out, nil
}

func (cspCodec) Decode(r io.Reader) (*Table, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	header, ok := readCSPLine(sc)
	if !ok || !strings.HasPrefix(header, "CSPLUTV100") {
		return nil, &LutError{Kind: ParseError, Message: "missing CSPLUTV100 header"}
	}
	kind, ok := readCSPLine(sc)
	if !ok {
		return nil, &LutError{Kind: ParseError, Message: "missing 1D/3D type line"}
	}

	var shaper *lut.LUT1D
	domainMin := [3]float64{0, 0, 0}
	domainMax := [3]float64{1, 1, 1}

	// Pre-LUT: three channels, each "N" then N input values then N output
	// values.
	var preSamples [3][][2]float64
	for c := 0; c < 3; c++ {
		nLine, ok := readCSPLine(sc)
		if !ok {
			return nil, &LutError{Kind: ParseError, Message: "missing pre-LUT point count"}
		}
		n, err := strconv.Atoi(strings.Fields(nLine)[0])
		if err != nil {
			return nil, &LutError{Kind: ParseError, Message: "invalid pre-LUT point count", Cause: err}
		}
		if n == 0 {
			continue
		}
		ins, err := readCSPFloats(sc, n)
		if err != nil {
			return nil, err
		}
		outs, err := readCSPFloats(sc, n)
		if err != nil {
			return nil, err
		}
		pts := make([][2]float64, n)
		for i := 0; i < n; i++ {
			pts[i] = [2]float64{ins[i], outs[i]}
		}
		preSamples[c] = pts
	}
	if len(preSamples[0]) > 0 {
		n := len(preSamples[0])
		shaper = lut.NewLUT1D(n)
		for c := 0; c < 3; c++ {
			pts := preSamples[c]
			if len(pts) == 0 {
				pts = preSamples[0]
			}
			shaper.DomainMin[c] = pts[0][0]
			shaper.DomainMax[c] = pts[len(pts)-1][0]
			for i, p := range pts {
				shaper.Samples[i][c] = p[1]
			}
		}
	}

	if strings.TrimSpace(kind) == "1D" {
		nLine, ok := readCSPLine(sc)
		if !ok {
			return nil, &LutError{Kind: ParseError, Message: "missing 1D LUT size"}
		}
		n, err := strconv.Atoi(strings.Fields(nLine)[0])
		if err != nil {
			return nil, &LutError{Kind: ParseError, Message: "invalid 1D LUT size", Cause: err}
		}
		vals, err := readCSPFloats(sc, n*3)
		if err != nil {
			return nil, err
		}
		l1 := lut.NewLUT1D(n)
		l1.DomainMin, l1.DomainMax = domainMin, domainMax
		for i := 0; i < n; i++ {
			l1.Samples[i] = [3]float64{vals[i*3], vals[i*3+1], vals[i*3+2]}
		}
		return &Table{Shaper: shaper, LUT1D: l1}, nil
	}

	// 3D: one line "Nr Ng Nb" (commonly equal), then Nr*Ng*Nb rows, R
	// varying fastest.
	sizeLine, ok := readCSPLine(sc)
	if !ok {
		return nil, &LutError{Kind: ParseError, Message: "missing 3D LUT size line"}
	}
	sizeFields := strings.Fields(sizeLine)
	if len(sizeFields) < 3 {
		return nil, &LutError{Kind: ParseError, Message: "3D LUT size line needs 3 integers"}
	}
	nr, _ := strconv.Atoi(sizeFields[0])
	ng, _ := strconv.Atoi(sizeFields[1])
	nb, _ := strconv.Atoi(sizeFields[2])
	if nr != ng || ng != nb {
		return nil, &LutError{Kind: UnsupportedFeature, Message: "non-cubic csp 3D LUTs are not supported"}
	}
	l3 := lut.NewLUT3D(nr)
	for bi := 0; bi < nb; bi++ {
		for gi := 0; gi < ng; gi++ {
			for ri := 0; ri < nr; ri++ {
				line, ok := readCSPLine(sc)
				if !ok {
					return nil, &LutError{Kind: ParseError, Message: "unexpected EOF reading csp 3D data"}
				}
				vals, err := parseFloats(strings.Fields(line), 3, 0)
				if err != nil {
					return nil, err
				}
				l3.Set(ri, gi, bi, vals)
			}
		}
	}
	return &Table{Shaper: shaper, LUT3D: l3}, nil
}

func (cspCodec) Encode(w io.Writer, t *Table) error {
	bw := bufio.NewWriter(w)
	defer bw.Flush()
	fmt.Fprintln(bw, "CSPLUTV100")
	if t.LUT3D != nil {
		fmt.Fprintln(bw, "3D")
	} else {
		fmt.Fprintln(bw, "1D")
	}
	for c := 0; c < 3; c++ {
		if t.Shaper == nil {
			fmt.Fprintln(bw, "0")
			continue
		}
		n := len(t.Shaper.Samples)
		fmt.Fprintf(bw, "%d\n", n)
		for i := 0; i < n; i++ {
			span := t.Shaper.DomainMax[c] - t.Shaper.DomainMin[c]
			x := t.Shaper.DomainMin[c] + span*float64(i)/float64(n-1)
			fmt.Fprintf(bw, "%g ", x)
		}
		fmt.Fprintln(bw)
		for i := 0; i < n; i++ {
			fmt.Fprintf(bw, "%g ", t.Shaper.Samples[i][c])
		}
		fmt.Fprintln(bw)
	}
	if t.LUT3D != nil {
		n := t.LUT3D.Size
		fmt.Fprintf(bw, "%d %d %d\n", n, n, n)
		for bi := 0; bi < n; bi++ {
			for gi := 0; gi < n; gi++ {
				for ri := 0; ri < n; ri++ {
					v := t.LUT3D.At(ri, gi, bi)
					fmt.Fprintf(bw, "%g %g %g\n", v[0], v[1], v[2])
				}
			}
		}
	} else if t.LUT1D != nil {
		n := len(t.LUT1D.Samples)
		fmt.Fprintf(bw, "%d\n", n)
		for _, s := range t.LUT1D.Samples {
			fmt.Fprintf(bw, "%g %g %g\n", s[0], s[1], s[2])
		}
	}
	return nil
}
