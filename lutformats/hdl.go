package lutformats

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/ssoj13/vfxcore/lut"
)

// hdlCodec implements Houdini's .hdl format: tab/space-separated
// "Key\tvalue..." header lines (Version, Format, Type, From, To, Black,
// White, Length), followed by a "LUT {" 1D section and/or a "3D {" cubic
// section, each holding whitespace-separated float rows.
type hdlCodec struct{}

func init() {
	Register(hdlCodec{}, "hdl")
}

func (hdlCodec) Name() string { return "hdl" }
func (hdlCodec) Sniff(name string, head []byte) bool {
	return strings.HasSuffix(strings.ToLower(name), ".hdl")
}

func (hdlCodec) Decode(r io.Reader) (*Table, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	var (
		length    int
		is3D      bool
		domainMin = [3]float64{0, 0, 0}
		domainMax = [3]float64{1, 1, 1}
		rows1D    [][3]float64
		rows3D    [][3]float64
		section   string // "", "LUT", "3D"
		lineNo    int
	)

	for sc.Scan() {
		lineNo++
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)
		key := fields[0]

		switch {
		case key == "Version" || key == "Format" || key == "Black" || key == "White":
			continue
		case key == "Type":
			if len(fields) > 1 && strings.EqualFold(fields[1], "3D") {
				is3D = true
			}
		case key == "From":
			if len(fields) >= 3 {
				lo, _ := strconv.ParseFloat(fields[1], 64)
				hi, _ := strconv.ParseFloat(fields[2], 64)
				domainMin = [3]float64{lo, lo, lo}
				domainMax = [3]float64{hi, hi, hi}
			}
		case key == "Length":
			length, _ = strconv.Atoi(fields[1])
		case key == "LUT:" || key == "LUT":
			section = "LUT"
		case strings.HasPrefix(key, "3D"):
			section = "3D"
		case key == "{" || key == "}":
			continue
		default:
			vals, err := parseFloats(fields, 3, lineNo)
			if err != nil {
				return nil, err
			}
			switch section {
			case "LUT":
				rows1D = append(rows1D, vals)
			case "3D":
				rows3D = append(rows3D, vals)
			}
		}
	}
	if err := sc.Err(); err != nil {
		return nil, &LutError{Kind: ParseError, Message: "scan error", Cause: err}
	}

	table := &Table{}
	if len(rows1D) > 0 {
		l1 := &lut.LUT1D{DomainMin: domainMin, DomainMax: domainMax, Samples: rows1D}
		if is3D {
			table.Shaper = l1
		} else {
			table.LUT1D = l1
		}
	}
	if is3D {
		if length == 0 {
			length = cbrtInt(len(rows3D))
		}
		if length*length*length != len(rows3D) {
			return nil, &LutError{Kind: DimensionError, Message: fmt.Sprintf("hdl 3D row count %d does not match Length %d", len(rows3D), length)}
		}
		l3 := lut.NewLUT3D(length)
		idx := 0
		for bi := 0; bi < length; bi++ {
			for gi := 0; gi < length; gi++ {
				for ri := 0; ri < length; ri++ {
					l3.Set(ri, gi, bi, rows3D[idx])
					idx++
				}
			}
		}
		table.LUT3D = l3
	}
	if table.LUT1D == nil && table.LUT3D == nil {
		return nil, &LutError{Kind: ParseError, Message: ".hdl has no LUT or 3D data section"}
	}
	return table, nil
}

func cbrtInt(n int) int {
	for s := 1; s*s*s <= n; s++ {
		if s*s*s == n {
			return s
		}
	}
	return 0
}

func (hdlCodec) Encode(w io.Writer, t *Table) error {
	bw := bufio.NewWriter(w)
	defer bw.Flush()
	fmt.Fprintln(bw, "Version\t3")
	fmt.Fprintln(bw, "Format\tany")
	if t.LUT3D != nil {
		fmt.Fprintln(bw, "Type\t3D")
		fmt.Fprintf(bw, "Length\t%d\n", t.LUT3D.Size)
		fmt.Fprintln(bw, "3D {")
		n := t.LUT3D.Size
		for bi := 0; bi < n; bi++ {
			for gi := 0; gi < n; gi++ {
				for ri := 0; ri < n; ri++ {
					v := t.LUT3D.At(ri, gi, bi)
					fmt.Fprintf(bw, "%g %g %g\n", v[0], v[1], v[2])
				}
			}
		}
		fmt.Fprintln(bw, "}")
		return nil
	}
	if t.LUT1D != nil {
		fmt.Fprintln(bw, "Type\t1D")
		fmt.Fprintf(bw, "Length\t%d\n", len(t.LUT1D.Samples))
		fmt.Fprintln(bw, "LUT {")
		for _, s := range t.LUT1D.Samples {
			fmt.Fprintf(bw, "%g %g %g\n", s[0], s[1], s[2])
		}
		fmt.Fprintln(bw, "}")
	}
	return nil
}
