package lutformats

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/ssoj13/vfxcore/lut"
)

// threedlCodec implements Lustre/Nuke .3dl: an optional "Mesh" line (input
// bit depth, output bit depth) or a leading "shaper" index line, followed by
// Size^3 rows of integer RGB triples in Blue-major order, scaled by the
// output bit depth to [0,1].
type threedlCodec struct{}

func init() {
	Register(threedlCodec{}, "3dl")
}

func (threedlCodec) Name() string { return "3dl" }
func (threedlCodec) Sniff(name string, head []byte) bool {
	return strings.HasSuffix(strings.ToLower(name), ".3dl")
}

func (threedlCodec) Decode(r io.Reader) (*Table, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	var (
		meshVals  []int // the leading input-index line, if present (Lustre style)
		rows      [][3]int
		lineNo    int
		maxOut    = 0
	)

	for sc.Scan() {
		lineNo++
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)
		nums := make([]int, 0, len(fields))
		allInt := true
		for _, f := range fields {
			v, err := strconv.Atoi(f)
			if err != nil {
				allInt = false
				break
			}
			nums = append(nums, v)
		}
		if !allInt {
			return nil, &LutError{Kind: ParseError, Line: lineNo, Message: "non-integer token in .3dl row"}
		}
		if meshVals == nil && len(nums) > 3 {
			meshVals = nums
			continue
		}
		if len(nums) < 3 {
			return nil, &LutError{Kind: ParseError, Line: lineNo, Message: "expected 3 integers per row"}
		}
		row := [3]int{nums[0], nums[1], nums[2]}
		rows = append(rows, row)
		for _, v := range row {
			if v > maxOut {
				maxOut = v
			}
		}
	}
	if err := sc.Err(); err != nil {
		return nil, &LutError{Kind: ParseError, Message: "scan error", Cause: err}
	}
	if len(rows) == 0 {
		return nil, &LutError{Kind: ParseError, Message: ".3dl has no data rows"}
	}

	size := int(math.Round(math.Cbrt(float64(len(rows)))))
	if size*size*size != len(rows) {
		return nil, &LutError{Kind: DimensionError, Message: fmt.Sprintf(".3dl row count %d is not a perfect cube", len(rows))}
	}

	// Output scale is the smallest power-of-two-minus-one bit depth that
	// covers the observed maximum sample value (10-bit, 12-bit, or 16-bit
	// are the conventional Lustre/Nuke depths).
	scale := 4095.0
	switch {
	case maxOut > 4095:
		scale = 65535.0
	case maxOut <= 1023:
		scale = 1023.0
	}

	l3 := lut.NewLUT3D(size)
	l3.Interp = lut.Trilinear
	// Rows are written in the order (R varies fastest, B slowest) per the
	// Lustre/Nuke convention, matching LUT3D's own Blue-major storage.
	idx := 0
	for bi := 0; bi < size; bi++ {
		for gi := 0; gi < size; gi++ {
			for ri := 0; ri < size; ri++ {
				row := rows[idx]
				idx++
				l3.Set(ri, gi, bi, [3]float64{
					float64(row[0]) / scale,
					float64(row[1]) / scale,
					float64(row[2]) / scale,
				})
			}
		}
	}
	_ = meshVals // the explicit input-mesh line only matters for non-uniform shaper curves, unsupported here
	return &Table{LUT3D: l3}, nil
}

func (threedlCodec) Encode(w io.Writer, t *Table) error {
	if t.LUT3D == nil {
		return &LutError{Kind: ParseError, Message: "3dl encode requires a 3D table"}
	}
	bw := bufio.NewWriter(w)
	defer bw.Flush()
	n := t.LUT3D.Size
	const scale = 4095.0
	for bi := 0; bi < n; bi++ {
		for gi := 0; gi < n; gi++ {
			for ri := 0; ri < n; ri++ {
				v := t.LUT3D.At(ri, gi, bi)
				fmt.Fprintf(bw, "%d %d %d\n",
					int(math.Round(v[0]*scale)),
					int(math.Round(v[1]*scale)),
					int(math.Round(v[2]*scale)))
			}
		}
	}
	return nil
}
