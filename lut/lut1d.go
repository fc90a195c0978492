// Package lut implements the in-memory LUT1D/LUT3D data types used by the
// color engine and LUT format parsers: domain-mapped interpolation,
// trilinear/tetrahedral 3D sampling, and inverse-LUT construction via
// monotonic search with bisection fallback.
package lut

import (
	"fmt"
	"sort"
)

// LUT1D is a per-channel one-dimensional lookup table.
type LUT1D struct {
	DomainMin [3]float64
	DomainMax [3]float64
	// Samples holds N rows of 3 channel values (Samples[i][0..2]).
	Samples [][3]float64
	// Clamped reports whether the file declared a clamped output range;
	// only then is Apply's output clamped.
	Clamped bool
}

// NewLUT1D allocates a LUT1D with n samples and a default [0,1] domain.
func NewLUT1D(n int) *LUT1D {
	return &LUT1D{
		DomainMin: [3]float64{0, 0, 0},
		DomainMax: [3]float64{1, 1, 1},
		Samples:   make([][3]float64, n),
	}
}

// Validate checks the LUT1D invariant domain_max[c] > domain_min[c] for
// all channels.
func (l *LUT1D) Validate() error {
	for c := 0; c < 3; c++ {
		if l.DomainMax[c] <= l.DomainMin[c] {
			return fmt.Errorf("lut: LUT1D domain_max[%d] must be > domain_min[%d]", c, c)
		}
	}
	if len(l.Samples) == 0 {
		return fmt.Errorf("lut: LUT1D has zero samples")
	}
	return nil
}

// Apply evaluates the LUT1D at (r,g,b) using per-channel domain mapping
// (t = (v-domain_min[c])/(domain_max[c]-domain_min[c])) followed by linear
// interpolation between the two nearest samples.
func (l *LUT1D) Apply(r, g, b float64) (float64, float64, float64) {
	n := len(l.Samples)
	out := [3]float64{}
	in := [3]float64{r, g, b}
	for c := 0; c < 3; c++ {
		span := l.DomainMax[c] - l.DomainMin[c]
		if span == 0 {
			out[c] = l.Samples[0][c]
			continue
		}
		t := (in[c] - l.DomainMin[c]) / span
		pos := t * float64(n-1)
		i0 := int(pos)
		if i0 < 0 {
			i0 = 0
		}
		if i0 > n-2 {
			i0 = n - 2
			if i0 < 0 {
				i0 = 0
			}
		}
		frac := pos - float64(i0)
		if n == 1 {
			out[c] = l.Samples[0][c]
			continue
		}
		v0 := l.Samples[i0][c]
		v1 := l.Samples[i0+1][c]
		v := v0 + (v1-v0)*frac
		if l.Clamped {
			if v < 0 {
				v = 0
			}
			if v > 1 {
				v = 1
			}
		}
		out[c] = v
	}
	return out[0], out[1], out[2]
}

// Inverse builds an approximate inverse LUT1D by sampling Apply on a
// uniform grid and inverting per-channel via monotonic binary search; if a
// channel is non-monotonic, bisection falls back to the nearest matching
// sample index.
func (l *LUT1D) Inverse() *LUT1D {
	n := len(l.Samples)
	inv := NewLUT1D(n)
	for c := 0; c < 3; c++ {
		inv.DomainMin[c] = l.Samples[0][c]
		inv.DomainMax[c] = l.Samples[n-1][c]
		if inv.DomainMax[c] == inv.DomainMin[c] {
			inv.DomainMax[c] = inv.DomainMin[c] + 1
		}
	}
	ascending := [3]bool{}
	for c := 0; c < 3; c++ {
		ascending[c] = l.Samples[n-1][c] >= l.Samples[0][c]
	}

	for i := 0; i < n; i++ {
		for c := 0; c < 3; c++ {
			span := inv.DomainMax[c] - inv.DomainMin[c]
			target := inv.DomainMin[c] + span*float64(i)/float64(n-1)
			if n == 1 {
				target = inv.DomainMin[c]
			}
			idx := sort.Search(n, func(k int) bool {
				if ascending[c] {
					return l.Samples[k][c] >= target
				}
				return l.Samples[k][c] <= target
			})
			if idx <= 0 {
				inv.Samples[i][c] = l.DomainMin[c]
				continue
			}
			if idx >= n {
				inv.Samples[i][c] = l.DomainMax[c]
				continue
			}
			lo, hi := l.Samples[idx-1][c], l.Samples[idx][c]
			if hi == lo {
				inv.Samples[i][c] = l.DomainMin[c] + (l.DomainMax[c]-l.DomainMin[c])*float64(idx)/float64(n-1)
				continue
			}
			frac := (target - lo) / (hi - lo)
			x0 := l.DomainMin[c] + (l.DomainMax[c]-l.DomainMin[c])*float64(idx-1)/float64(n-1)
			x1 := l.DomainMin[c] + (l.DomainMax[c]-l.DomainMin[c])*float64(idx)/float64(n-1)
			inv.Samples[i][c] = x0 + (x1-x0)*frac
		}
	}
	return inv
}
