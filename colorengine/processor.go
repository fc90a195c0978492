package colorengine

import (
	"fmt"
	"path/filepath"
	"runtime"
	"strings"
	"sync"

	"github.com/ssoj13/vfxcore/lutformats"
)

// Processor is the compiled, executable form of a Transform tree: a flat
// stream of primitive ops plus an optional per-op GPU shader fragment.
// Processors are immutable post-compile and safe to share by reference
// across goroutines.
type Processor struct {
	ops []*Op
}

const maxExpandDepth = 32

// Compile resolves a Transform tree against resolver (colorspace/look/
// display-view/context-variable lookups) and flattens it into an
// executable Processor following the compile contract: resolve references,
// apply direction, substitute context variables, flatten, optimize.
func Compile(t *Transform, resolver ConfigResolver) (*Processor, error) {
	ops, err := expand(t, resolver, 0)
	if err != nil {
		return nil, err
	}
	if t.Direction == Inverse {
		ops, err = invertOps(ops)
		if err != nil {
			return nil, err
		}
	}
	return &Processor{ops: optimize(ops)}, nil
}

// invertOps reverses op order and inverts each op.
func invertOps(ops []*Op) ([]*Op, error) {
	out := make([]*Op, len(ops))
	for i, o := range ops {
		inv, err := invertOp(o)
		if err != nil {
			return nil, err
		}
		out[len(ops)-1-i] = inv
	}
	return out, nil
}

// expand recursively resolves composite Transform kinds (Group, ColorSpace,
// Look, DisplayView, File, Builtin) into a flat []*Op, guarding against
// cyclic references with a depth limit.
func expand(t *Transform, resolver ConfigResolver, depth int) ([]*Op, error) {
	if t == nil {
		return nil, nil
	}
	if depth > maxExpandDepth {
		return nil, &TransformError{Kind: UnsupportedTransform, Message: "transform graph exceeds max expansion depth (possible cycle)"}
	}

	switch t.Kind {
	case KindMatrix:
		return []*Op{{Kind: KindMatrix, Matrix: t.Matrix}}, nil
	case KindLUT1D:
		return []*Op{{Kind: KindLUT1D, LUT1D: t.LUT1D}}, nil
	case KindLUT3D:
		return []*Op{{Kind: KindLUT3D, LUT3D: t.LUT3D}}, nil
	case KindExponent:
		return []*Op{{Kind: KindExponent, Exponent: t.Exponent}}, nil
	case KindExponentWithLinear:
		return []*Op{{Kind: KindExponentWithLinear, ExponentWithLinear: t.ExponentWithLinear}}, nil
	case KindLog:
		return []*Op{{Kind: KindLog, Log: t.Log}}, nil
	case KindRange:
		return []*Op{{Kind: KindRange, Range: t.Range}}, nil
	case KindCDL:
		return []*Op{{Kind: KindCDL, CDL: t.CDL}}, nil
	case KindFixedFunction:
		return []*Op{{Kind: KindFixedFunction, FixedFunction: t.FixedFunction}}, nil
	case KindExposureContrast:
		return []*Op{{Kind: KindExposureContrast, ExposureContrast: t.ExposureContrast}}, nil
	case KindGradingPrimary:
		return []*Op{{Kind: KindGradingPrimary, GradingPrimary: t.GradingPrimary}}, nil
	case KindGradingRGBCurve:
		return []*Op{{Kind: KindGradingRGBCurve, GradingRGBCurve: t.GradingRGBCurve}}, nil
	case KindGradingTone:
		return []*Op{{Kind: KindGradingTone, GradingTone: t.GradingTone}}, nil
	case KindGradingHueCurve:
		return []*Op{{Kind: KindGradingHueCurve, GradingHueCurve: t.GradingHueCurve}}, nil
	case KindAllocation:
		// Legacy GPU texture-allocation hint; no CPU execution effect.
		return nil, nil

	case KindGroup:
		var ops []*Op
		for _, child := range t.Group {
			childOps, err := expand(child, resolver, depth+1)
			if err != nil {
				return nil, err
			}
			ops = append(ops, childOps...)
		}
		return ops, nil

	case KindFile:
		return expandFile(t.File, resolver)

	case KindBuiltin:
		return expandBuiltin(t.Builtin)

	case KindColorSpace:
		return expandColorSpace(t.ColorSpace.Src, t.ColorSpace.Dst, resolver, depth)

	case KindLook:
		return expandLook(t.Look.Looks, resolver, depth)

	case KindDisplayView:
		if resolver == nil {
			return nil, &TransformError{Kind: UnsupportedTransform, Message: "DisplayView requires a Config resolver"}
		}
		dv, ok := resolver.DisplayViewTransform(t.DisplayView.Display, t.DisplayView.View)
		if !ok {
			return nil, &TransformError{Kind: UnsupportedTransform, Message: fmt.Sprintf("unknown display/view %q/%q", t.DisplayView.Display, t.DisplayView.View)}
		}
		return expand(dv, resolver, depth+1)

	default:
		return nil, &TransformError{Kind: UnsupportedTransform, Message: "unknown transform kind"}
	}
}

// expandColorSpace resolves ColorSpace(src,dst) to to_reference(src)
// followed by from_reference(dst). An empty name stands for the scene
// reference space itself (no-op), which is how Look's implicit "convert
// to process_space" / "convert back" steps are expressed without a named
// source colorspace.
func expandColorSpace(src, dst string, resolver ConfigResolver, depth int) ([]*Op, error) {
	if resolver == nil {
		return nil, &TransformError{Kind: UnsupportedTransform, Message: "ColorSpace requires a Config resolver"}
	}

	var srcToRef *Transform
	var srcIsData bool
	if src != "" {
		var ok bool
		srcToRef, _, srcIsData, ok = resolver.ColorSpaceTransforms(src)
		if !ok {
			return nil, &TransformError{Kind: UnsupportedTransform, Message: fmt.Sprintf("unknown colorspace %q", src)}
		}
	}

	var dstFromRef *Transform
	var dstIsData bool
	if dst != "" {
		var ok bool
		_, dstFromRef, dstIsData, ok = resolver.ColorSpaceTransforms(dst)
		if !ok {
			return nil, &TransformError{Kind: UnsupportedTransform, Message: fmt.Sprintf("unknown colorspace %q", dst)}
		}
	}

	if srcIsData || dstIsData {
		// Data colorspaces (e.g. normal maps, IDs) are never
		// color-transformed.
		return nil, nil
	}

	var ops []*Op
	if srcToRef != nil {
		toRefOps, err := expand(srcToRef, resolver, depth+1)
		if err != nil {
			return nil, err
		}
		ops = append(ops, toRefOps...)
	}
	if dstFromRef != nil {
		fromRefOps, err := expand(dstFromRef, resolver, depth+1)
		if err != nil {
			return nil, err
		}
		ops = append(ops, fromRefOps...)
	}
	return ops, nil
}

// expandLook resolves a comma-separated look list, each wrapped in a
// conversion to/from its declared process space. Each entry may carry a
// leading "+" (forward, the default) or "-" (reverse) direction marker, the
// same convention OCIO's LookTransform uses for its look string: a reversed
// look applies its own op chain inverted, but still enters and exits its
// process space in the forward direction.
func expandLook(looks string, resolver ConfigResolver, depth int) ([]*Op, error) {
	if resolver == nil {
		return nil, &TransformError{Kind: UnsupportedTransform, Message: "Look requires a Config resolver"}
	}
	entries := splitLookList(looks)
	var ops []*Op
	for _, entry := range entries {
		processSpace, lookOps, found := resolver.LookOps(entry.Name)
		if !found {
			return nil, &TransformError{Kind: UnsupportedTransform, Message: fmt.Sprintf("unknown look %q", entry.Name)}
		}
		toProcess, err := expandColorSpace("", processSpace, resolver, depth+1)
		if err != nil {
			return nil, err
		}
		ops = append(ops, toProcess...)
		lookExpanded, err := expand(lookOps, resolver, depth+1)
		if err != nil {
			return nil, err
		}
		if entry.Reverse {
			lookExpanded, err = invertOps(lookExpanded)
			if err != nil {
				return nil, err
			}
		}
		ops = append(ops, lookExpanded...)
		fromProcess, err := expandColorSpace(processSpace, "", resolver, depth+1)
		if err != nil {
			return nil, err
		}
		ops = append(ops, fromProcess...)
	}
	return ops, nil
}

// lookEntry is one comma-separated item of a look list, with its direction
// marker split off.
type lookEntry struct {
	Name    string
	Reverse bool
}

func splitLookList(s string) []lookEntry {
	var out []lookEntry
	start := 0
	for i := 0; i <= len(s); i++ {
		if i == len(s) || s[i] == ',' {
			if i > start {
				tok := strings.TrimSpace(s[start:i])
				reverse := false
				if tok != "" {
					switch tok[0] {
					case '+':
						tok = tok[1:]
					case '-':
						reverse = true
						tok = tok[1:]
					}
				}
				if tok != "" {
					out = append(out, lookEntry{Name: tok, Reverse: reverse})
				}
			}
			start = i + 1
		}
	}
	return out
}

// expandFile loads an external LUT file and chains its Shaper/Matrix/CDL/
// LUT3D/LUT1D stages, substituting any $NAME context variable in the path
// first.
func expandFile(p *FileParams, resolver ConfigResolver) ([]*Op, error) {
	path, err := substituteContextVars(p.Path, resolver)
	if err != nil {
		return nil, err
	}
	table, err := loadFileViaSearchPaths(path, resolver)
	if err != nil {
		return nil, &TransformError{Kind: UnsupportedTransform, Message: fmt.Sprintf("loading File transform %q: %v", path, err), Cause: err}
	}

	var ops []*Op
	if table.Shaper != nil {
		ops = append(ops, &Op{Kind: KindLUT1D, LUT1D: table.Shaper})
	}
	if table.Matrix != nil {
		ops = append(ops, &Op{Kind: KindMatrix, Matrix: &MatrixParams{M: matrix3To4(*table.Matrix)}})
	}
	if table.CDL != nil {
		ops = append(ops, &Op{Kind: KindCDL, CDL: &CDLParams{
			Slope: table.CDL.Slope, Offset: table.CDL.Offset, Power: table.CDL.Power,
			Saturation: table.CDL.Saturation, Style: CDLAscCdl,
		}})
	}
	if table.LUT3D != nil {
		ops = append(ops, &Op{Kind: KindLUT3D, LUT3D: table.LUT3D})
	}
	if table.LUT1D != nil {
		ops = append(ops, &Op{Kind: KindLUT1D, LUT1D: table.LUT1D})
	}
	return ops, nil
}

// loadFileViaSearchPaths tries path as given first, then joined with each
// of resolver's search paths in order, returning the first one that opens
// successfully.
func loadFileViaSearchPaths(path string, resolver ConfigResolver) (*lutformats.Table, error) {
	if filepath.IsAbs(path) {
		return lutformats.LoadFile(path)
	}
	if table, err := lutformats.LoadFile(path); err == nil {
		return table, nil
	}
	if resolver == nil {
		return lutformats.LoadFile(path)
	}
	var lastErr error
	for _, dir := range resolver.SearchPaths() {
		table, err := lutformats.LoadFile(filepath.Join(dir, path))
		if err == nil {
			return table, nil
		}
		lastErr = err
	}
	if lastErr != nil {
		return nil, lastErr
	}
	return lutformats.LoadFile(path)
}

// substituteContextVars replaces $NAME tokens in path using resolver's
// context map; an unresolved variable is never tolerated.
func substituteContextVars(path string, resolver ConfigResolver) (string, error) {
	if resolver == nil {
		return path, nil
	}
	var out []byte
	i := 0
	for i < len(path) {
		if path[i] == '$' {
			j := i + 1
			for j < len(path) && isVarNameByte(path[j]) {
				j++
			}
			if j == i+1 {
				out = append(out, path[i])
				i++
				continue
			}
			name := path[i+1 : j]
			val, ok := resolver.ContextVar(name)
			if !ok {
				return "", &TransformError{Kind: UnsupportedTransform, Message: fmt.Sprintf("unresolved context variable $%s", name)}
			}
			out = append(out, val...)
			i = j
			continue
		}
		out = append(out, path[i])
		i++
	}
	return string(out), nil
}

func isVarNameByte(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}

// expandBuiltin resolves a small, intentionally minimal registry of named
// built-in transforms; unknown styles are a compile error rather than a
// fabricated fallback.
func expandBuiltin(p *BuiltinParams) ([]*Op, error) {
	switch p.Style {
	case "IDENTITY":
		return nil, nil
	default:
		return nil, &TransformError{Kind: UnsupportedTransform, Message: fmt.Sprintf("unknown builtin style %q", p.Style)}
	}
}

// optimize runs the conservative, optional optimization pass: drop
// identity ops and fuse consecutive matrices. It never changes numerical
// semantics beyond floating-point reassociation.
func optimize(ops []*Op) []*Op {
	var out []*Op
	for _, o := range ops {
		if o.isIdentity() {
			continue
		}
		if len(out) > 0 && out[len(out)-1].Kind == KindMatrix && o.Kind == KindMatrix {
			fused := fuseMatrices(out[len(out)-1].Matrix, o.Matrix)
			out[len(out)-1] = &Op{Kind: KindMatrix, Matrix: fused}
			continue
		}
		out = append(out, o)
	}
	return out
}

func fuseMatrices(a, b *MatrixParams) *MatrixParams {
	var m [16]float64
	for row := 0; row < 4; row++ {
		for col := 0; col < 4; col++ {
			var sum float64
			for k := 0; k < 4; k++ {
				sum += b.M[row*4+k] * a.M[k*4+col]
			}
			m[row*4+col] = sum
		}
	}
	return &MatrixParams{M: m}
}

// Apply runs the processor's op stream serially over a flat buffer of
// stride-width RGB(A) f32 samples (stride 3 or 4). Alpha, if present, is
// preserved untouched.
func (p *Processor) Apply(buf []float32, stride int) error {
	return p.applyRange(buf, stride, 0, len(buf)/stride)
}

// ApplyParallel partitions buf into scanline row groups and processes rows
// independently across GOMAXPROCS goroutines; row order carries no
// dependency.
func (p *Processor) ApplyParallel(buf []float32, stride, width int) error {
	if width <= 0 {
		return p.Apply(buf, stride)
	}
	totalPixels := len(buf) / stride
	rows := totalPixels / width
	if rows <= 1 {
		return p.Apply(buf, stride)
	}
	workers := runtime.GOMAXPROCS(0)
	if workers > rows {
		workers = rows
	}
	rowsPerWorker := (rows + workers - 1) / workers

	var wg sync.WaitGroup
	errs := make([]error, workers)
	for w := 0; w < workers; w++ {
		rowStart := w * rowsPerWorker
		rowEnd := rowStart + rowsPerWorker
		if rowEnd > rows {
			rowEnd = rows
		}
		if rowStart >= rowEnd {
			continue
		}
		wg.Add(1)
		go func(idx, rowStart, rowEnd int) {
			defer wg.Done()
			errs[idx] = p.applyRange(buf, stride, rowStart*width, rowEnd*width)
		}(w, rowStart, rowEnd)
	}
	wg.Wait()
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}

func (p *Processor) applyRange(buf []float32, stride, pixelStart, pixelEnd int) error {
	for px := pixelStart; px < pixelEnd; px++ {
		base := px * stride
		r, g, b := float64(buf[base]), float64(buf[base+1]), float64(buf[base+2])
		for i, op := range p.ops {
			var err error
			r, g, b, err = applyOp(op, r, g, b)
			if err != nil {
				return &OpError{Kind: err.(*OpError).Kind, OpIndex: i, Message: err.(*OpError).Message}
			}
		}
		buf[base] = float32(r)
		buf[base+1] = float32(g)
		buf[base+2] = float32(b)
	}
	return nil
}

// ShaderFragment returns the WGSL source for op at index i and whether it
// is available; ops without a GPU mapping (see opShaderFragment) return
// ("", false) so the backend falls back to CPU for the whole processor.
func (p *Processor) ShaderFragment(i int) (string, bool) {
	if i < 0 || i >= len(p.ops) {
		return "", false
	}
	return opShaderFragment(p.ops[i])
}

// Ops exposes the compiled op stream for backends that execute the stream
// directly (e.g. the compute package's GPU path).
func (p *Processor) Ops() []*Op { return p.ops }

// matrix3To4 embeds a 3x3 color matrix (as produced by .spimtx and similar
// formats) in the upper-left of a 4x4 identity affine matrix.
func matrix3To4(m [9]float64) [16]float64 {
	return [16]float64{
		m[0], m[1], m[2], 0,
		m[3], m[4], m[5], 0,
		m[6], m[7], m[8], 0,
		0, 0, 0, 1,
	}
}
