package lutformats

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/ssoj13/vfxcore/lut"
)

// onedlCodec implements Discreet/Autodesk's .1dl format: comment lines
// begin with '#', a "LUT:" header token is matched case-insensitively, and
// the declared bit depth (e.g. "10bit", "12bit", "16bit", "65536f") selects
// the integer scale used to normalize sample rows to [0,1].
type onedlCodec struct{}

func init() {
	Register(onedlCodec{}, "1dl")
}

func (onedlCodec) Name() string { return "1dl" }
func (onedlCodec) Sniff(name string, head []byte) bool {
	return strings.HasSuffix(strings.ToLower(name), ".1dl")
}

func bitDepthScale(tok string) (float64, bool) {
	tok = strings.ToLower(strings.TrimSpace(tok))
	switch tok {
	case "8bit":
		return 255, true
	case "10bit":
		return 1023, true
	case "12bit":
		return 4095, true
	case "16bit":
		return 65535, true
	case "65536f", "float", "16bitf":
		return 1, true
	}
	return 0, false
}

func (onedlCodec) Decode(r io.Reader) (*Table, error) {
	sc := bufio.NewScanner(r)
	var (
		scale  = 1023.0
		rows   [][3]float64
		inBody bool
		lineNo int
	)
	for sc.Scan() {
		lineNo++
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)
		if strings.EqualFold(fields[0], "LUT:") || strings.EqualFold(fields[0], "LUT") {
			inBody = true
			if len(fields) > 1 {
				if s, ok := bitDepthScale(fields[1]); ok {
					scale = s
				}
			}
			continue
		}
		if s, ok := bitDepthScale(fields[0]); ok && !inBody {
			scale = s
			continue
		}
		if !inBody {
			continue
		}
		vals, err := parseFloats(fields, 3, lineNo)
		if err != nil {
			return nil, err
		}
		rows = append(rows, [3]float64{vals[0] / scale, vals[1] / scale, vals[2] / scale})
	}
	if err := sc.Err(); err != nil {
		return nil, &LutError{Kind: ParseError, Message: "scan error", Cause: err}
	}
	if len(rows) == 0 {
		return nil, &LutError{Kind: ParseError, Message: ".1dl has no LUT: data section"}
	}
	l1 := &lut.LUT1D{
		DomainMin: [3]float64{0, 0, 0},
		DomainMax: [3]float64{1, 1, 1},
		Samples:   rows,
	}
	return &Table{LUT1D: l1}, nil
}

func (onedlCodec) Encode(w io.Writer, t *Table) error {
	if t.LUT1D == nil {
		return &LutError{Kind: ParseError, Message: "1dl encode requires a 1D table"}
	}
	bw := bufio.NewWriter(w)
	defer bw.Flush()
	fmt.Fprintln(bw, "# generated LUT")
	fmt.Fprintln(bw, "LUT: 16bit")
	const scale = 65535.0
	for _, s := range t.LUT1D.Samples {
		fmt.Fprintf(bw, "%d %d %d\n", int(s[0]*scale), int(s[1]*scale), int(s[2]*scale))
	}
	return nil
}
