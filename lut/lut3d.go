package lut

import "fmt"

// Interp3D selects the interpolation kind for a LUT3D.
type Interp3D uint8

const (
	// Trilinear interpolates across the surrounding cube's 8 corners.
	Trilinear Interp3D = iota
	// Tetrahedral interpolates across the surrounding cube's 4 corners
	// forming the tetrahedron containing the sample point; it is both
	// faster and more accurate than trilinear for saturated colors.
	Tetrahedral
)

// LUT3D is a cubic 3D lookup table with Blue-major sample ordering:
// index(r,g,b) = r + g*N + b*N*N.
type LUT3D struct {
	Size      int // cube edge length N, 3..256
	Samples   [][3]float64 // length N^3, Blue-major order
	DomainMin [3]float64
	DomainMax [3]float64
	Interp    Interp3D
}

// NewLUT3D allocates a LUT3D of the given edge size with a default [0,1]
// domain and trilinear interpolation.
func NewLUT3D(size int) *LUT3D {
	return &LUT3D{
		Size:      size,
		Samples:   make([][3]float64, size*size*size),
		DomainMin: [3]float64{0, 0, 0},
		DomainMax: [3]float64{1, 1, 1},
		Interp:    Trilinear,
	}
}

// Validate checks the LUT3D invariants: 3 <= Size <= 256 and exactly
// Size^3 samples.
func (l *LUT3D) Validate() error {
	if l.Size < 3 || l.Size > 256 {
		return fmt.Errorf("lut: LUT3D size %d out of range [3,256]", l.Size)
	}
	want := l.Size * l.Size * l.Size
	if len(l.Samples) != want {
		return fmt.Errorf("lut: LUT3D has %d samples, want %d (size^3)", len(l.Samples), want)
	}
	return nil
}

// At returns the raw sample at grid coordinate (ri, gi, bi), Blue-major.
func (l *LUT3D) At(ri, gi, bi int) [3]float64 {
	return l.Samples[ri+gi*l.Size+bi*l.Size*l.Size]
}

// Set stores the sample at grid coordinate (ri, gi, bi), Blue-major.
func (l *LUT3D) Set(ri, gi, bi int, v [3]float64) {
	l.Samples[ri+gi*l.Size+bi*l.Size*l.Size] = v
}

// domainCoord maps an input channel value to continuous grid-cell space,
// extrapolating linearly outside [DomainMin,DomainMax] rather than
// clamping: out-of-domain inputs extrapolate from the
// nearest cell unless a surrounding Range op clamps.
func (l *LUT3D) domainCoord(v float64, c int) float64 {
	span := l.DomainMax[c] - l.DomainMin[c]
	if span == 0 {
		return 0
	}
	t := (v - l.DomainMin[c]) / span
	return t * float64(l.Size-1)
}

// Apply evaluates the LUT3D at (r,g,b) using the configured interpolation
// kind.
func (l *LUT3D) Apply(r, g, b float64) (float64, float64, float64) {
	fr := l.domainCoord(r, 0)
	fg := l.domainCoord(g, 1)
	fb := l.domainCoord(b, 2)

	switch l.Interp {
	case Tetrahedral:
		return l.applyTetrahedral(fr, fg, fb)
	default:
		return l.applyTrilinear(fr, fg, fb)
	}
}

// cellCorner clamps a grid index into [0, Size-1], used to extrapolate
// linearly from the nearest edge cell when a coordinate falls outside the
// lattice (rather than treating it as an error).
func (l *LUT3D) cellCorner(fr, fg, fb float64) (ir, ig, ib int, tr, tg, tb float64) {
	n := l.Size
	ir = int(fr)
	ig = int(fg)
	ib = int(fb)
	if ir < 0 {
		ir = 0
	}
	if ig < 0 {
		ig = 0
	}
	if ib < 0 {
		ib = 0
	}
	if ir > n-2 {
		ir = n - 2
	}
	if ig > n-2 {
		ig = n - 2
	}
	if ib > n-2 {
		ib = n - 2
	}
	if ir < 0 {
		ir = 0
	}
	if ig < 0 {
		ig = 0
	}
	if ib < 0 {
		ib = 0
	}
	tr = fr - float64(ir)
	tg = fg - float64(ig)
	tb = fb - float64(ib)
	return
}

func (l *LUT3D) applyTrilinear(fr, fg, fb float64) (float64, float64, float64) {
	if l.Size == 1 {
		v := l.At(0, 0, 0)
		return v[0], v[1], v[2]
	}
	ir, ig, ib, tr, tg, tb := l.cellCorner(fr, fg, fb)

	c000 := l.At(ir, ig, ib)
	c100 := l.At(ir+1, ig, ib)
	c010 := l.At(ir, ig+1, ib)
	c110 := l.At(ir+1, ig+1, ib)
	c001 := l.At(ir, ig, ib+1)
	c101 := l.At(ir+1, ig, ib+1)
	c011 := l.At(ir, ig+1, ib+1)
	c111 := l.At(ir+1, ig+1, ib+1)

	var out [3]float64
	for k := 0; k < 3; k++ {
		c00 := lerp(c000[k], c100[k], tr)
		c10 := lerp(c010[k], c110[k], tr)
		c01 := lerp(c001[k], c101[k], tr)
		c11 := lerp(c011[k], c111[k], tr)
		c0 := lerp(c00, c10, tg)
		c1 := lerp(c01, c11, tg)
		out[k] = lerp(c0, c1, tb)
	}
	return out[0], out[1], out[2]
}

// applyTetrahedral interpolates using the tetrahedron of the unit cube
// that contains (tr,tg,tb), following the standard 6-tetrahedron
// decomposition used by OCIO/ACES reference implementations.
func (l *LUT3D) applyTetrahedral(fr, fg, fb float64) (float64, float64, float64) {
	if l.Size == 1 {
		v := l.At(0, 0, 0)
		return v[0], v[1], v[2]
	}
	ir, ig, ib, tr, tg, tb := l.cellCorner(fr, fg, fb)

	c000 := l.At(ir, ig, ib)
	c100 := l.At(ir+1, ig, ib)
	c010 := l.At(ir, ig+1, ib)
	c110 := l.At(ir+1, ig+1, ib)
	c001 := l.At(ir, ig, ib+1)
	c101 := l.At(ir+1, ig, ib+1)
	c011 := l.At(ir, ig+1, ib+1)
	c111 := l.At(ir+1, ig+1, ib+1)

	var out [3]float64
	for k := 0; k < 3; k++ {
		switch {
		case tr > tg && tg > tb:
			out[k] = c000[k] + (c100[k]-c000[k])*tr + (c110[k]-c100[k])*tg + (c111[k]-c110[k])*tb
		case tr > tg && tr > tb && tb > tg:
			out[k] = c000[k] + (c100[k]-c000[k])*tr + (c111[k]-c101[k])*tb + (c101[k]-c100[k])*tg
		case tb > tr && tr > tg:
			out[k] = c000[k] + (c001[k]-c000[k])*tb + (c101[k]-c001[k])*tr + (c111[k]-c101[k])*tg
		case tg > tr && tr > tb:
			out[k] = c000[k] + (c010[k]-c000[k])*tg + (c110[k]-c010[k])*tr + (c111[k]-c110[k])*tb
		case tg > tb && tb > tr:
			out[k] = c000[k] + (c010[k]-c000[k])*tg + (c011[k]-c010[k])*tb + (c111[k]-c011[k])*tr
		default: // tb > tg > tr
			out[k] = c000[k] + (c001[k]-c000[k])*tb + (c011[k]-c001[k])*tg + (c111[k]-c011[k])*tr
		}
	}
	return out[0], out[1], out[2]
}

func lerp(a, b, t float64) float64 { return a + (b-a)*t }

// Inverse builds an approximate inverse LUT3D of the same edge size by
// Newton iteration with a numerically estimated Jacobian, seeded from the
// identity grid point: 3D LUTs are not separable per-channel, so (unlike
// LUT1D) no closed-form monotonic search applies. Each output grid sample
// is resolved independently; non-convergent samples fall back to their
// seed.
func (l *LUT3D) Inverse() *LUT3D {
	const (
		maxIter = 8
		eps     = 1e-4
		damping = 1.0
	)
	inv := NewLUT3D(l.Size)
	inv.DomainMin, inv.DomainMax = l.DomainMin, l.DomainMax
	inv.Interp = l.Interp

	n := l.Size
	for bi := 0; bi < n; bi++ {
		for gi := 0; gi < n; gi++ {
			for ri := 0; ri < n; ri++ {
				target := l.gridDomainPoint(ri, gi, bi)
				guess := target
				for iter := 0; iter < maxIter; iter++ {
					fr, fg, fb := l.Apply(guess[0], guess[1], guess[2])
					residual := [3]float64{fr - target[0], fg - target[1], fb - target[2]}
					if residual[0]*residual[0]+residual[1]*residual[1]+residual[2]*residual[2] < eps*eps {
						break
					}
					jac := l.jacobian(guess)
					delta, ok := solve3(jac, residual)
					if !ok {
						break
					}
					guess[0] -= damping * delta[0]
					guess[1] -= damping * delta[1]
					guess[2] -= damping * delta[2]
				}
				inv.Set(ri, gi, bi, guess)
			}
		}
	}
	return inv
}

func (l *LUT3D) gridDomainPoint(ri, gi, bi int) [3]float64 {
	n := l.Size
	t := func(i, c int) float64 {
		if n == 1 {
			return l.DomainMin[c]
		}
		return l.DomainMin[c] + (l.DomainMax[c]-l.DomainMin[c])*float64(i)/float64(n-1)
	}
	return [3]float64{t(ri, 0), t(gi, 1), t(bi, 2)}
}

// jacobian estimates d(output)/d(input) at p via central differences.
func (l *LUT3D) jacobian(p [3]float64) [3][3]float64 {
	const h = 1e-3
	var j [3][3]float64
	for c := 0; c < 3; c++ {
		plus := p
		minus := p
		plus[c] += h
		minus[c] -= h
		fr1, fg1, fb1 := l.Apply(plus[0], plus[1], plus[2])
		fr0, fg0, fb0 := l.Apply(minus[0], minus[1], minus[2])
		j[0][c] = (fr1 - fr0) / (2 * h)
		j[1][c] = (fg1 - fg0) / (2 * h)
		j[2][c] = (fb1 - fb0) / (2 * h)
	}
	return j
}

// solve3 solves the 3x3 linear system j*x = b via Cramer's rule, reporting
// false when j is singular.
func solve3(j [3][3]float64, b [3]float64) ([3]float64, bool) {
	det := j[0][0]*(j[1][1]*j[2][2]-j[1][2]*j[2][1]) -
		j[0][1]*(j[1][0]*j[2][2]-j[1][2]*j[2][0]) +
		j[0][2]*(j[1][0]*j[2][1]-j[1][1]*j[2][0])
	if det == 0 || (det < 1e-12 && det > -1e-12) {
		return [3]float64{}, false
	}
	col := func(m [3][3]float64, c int, v [3]float64) [3][3]float64 {
		m[0][c], m[1][c], m[2][c] = v[0], v[1], v[2]
		return m
	}
	det3 := func(m [3][3]float64) float64 {
		return m[0][0]*(m[1][1]*m[2][2]-m[1][2]*m[2][1]) -
			m[0][1]*(m[1][0]*m[2][2]-m[1][2]*m[2][0]) +
			m[0][2]*(m[1][0]*m[2][1]-m[1][1]*m[2][0])
	}
	var x [3]float64
	x[0] = det3(col(j, 0, b)) / det
	x[1] = det3(col(j, 1, b)) / det
	x[2] = det3(col(j, 2, b)) / det
	return x, true
}
