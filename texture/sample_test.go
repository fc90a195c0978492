package texture

import (
	"testing"

	"github.com/ssoj13/vfxcore/imagebuf"
)

func TestSampleNearestPicksClosestTexel(t *testing.T) {
	buf := rampBuffer(t, 4, 1)
	chain, err := GenerateMipmaps(buf)
	if err != nil {
		t.Fatalf("GenerateMipmaps: %v", err)
	}
	// Texel 3 of 4 has R = 1.0; sampling near its center should return it
	// exactly rather than a blend with its neighbor.
	got := Sample(chain, Nearest, 0.95, 0.0, Derivatives{}, imagebuf.WrapClamp)
	if got[0] < 0.99 {
		t.Fatalf("nearest R = %v, want ~1.0", got[0])
	}
}

func TestSampleBilinearInterpolates(t *testing.T) {
	buf := rampBuffer(t, 4, 1)
	chain, err := GenerateMipmaps(buf)
	if err != nil {
		t.Fatalf("GenerateMipmaps: %v", err)
	}
	left := Sample(chain, Bilinear, 0.0, 0.0, Derivatives{}, imagebuf.WrapClamp)
	mid := Sample(chain, Bilinear, 0.5, 0.0, Derivatives{}, imagebuf.WrapClamp)
	right := Sample(chain, Bilinear, 1.0, 0.0, Derivatives{}, imagebuf.WrapClamp)
	if !(left[0] < mid[0] && mid[0] < right[0]) {
		t.Fatalf("bilinear ramp not monotonic: %v, %v, %v", left[0], mid[0], right[0])
	}
}

func TestSampleTrilinearNoDerivativesCollapsesToBilinear(t *testing.T) {
	buf := rampBuffer(t, 8, 8)
	chain, err := GenerateMipmaps(buf)
	if err != nil {
		t.Fatalf("GenerateMipmaps: %v", err)
	}
	a := Sample(chain, Trilinear, 0.5, 0.5, Derivatives{}, imagebuf.WrapClamp)
	b := Sample(chain, Bilinear, 0.5, 0.5, Derivatives{}, imagebuf.WrapClamp)
	for c := range a {
		if a[c] != b[c] {
			t.Fatalf("channel %d: trilinear without derivatives = %v, want bilinear result %v", c, a[c], b[c])
		}
	}
}

func TestSampleTrilinearBlendsMipLevels(t *testing.T) {
	buf := solidBuffer(t, 64, 64, 1)
	chain, err := GenerateMipmaps(buf)
	if err != nil {
		t.Fatalf("GenerateMipmaps: %v", err)
	}
	// Large derivatives (heavy minification) should sample from a coarser
	// level without changing a constant image's value.
	deriv := Derivatives{DsDx: 0.1, DtDy: 0.1}
	got := Sample(chain, Trilinear, 0.5, 0.5, deriv, imagebuf.WrapClamp)
	if got[0] < 0.99 {
		t.Fatalf("trilinear of a constant image = %v, want ~1.0", got[0])
	}
}

func TestSampleAnisotropicNoDerivativesCollapsesToBilinear(t *testing.T) {
	buf := rampBuffer(t, 8, 8)
	chain, err := GenerateMipmaps(buf)
	if err != nil {
		t.Fatalf("GenerateMipmaps: %v", err)
	}
	a := Sample(chain, Anisotropic, 0.5, 0.5, Derivatives{}, imagebuf.WrapClamp)
	b := Sample(chain, Bilinear, 0.5, 0.5, Derivatives{}, imagebuf.WrapClamp)
	for c := range a {
		if a[c] != b[c] {
			t.Fatalf("channel %d: anisotropic without derivatives = %v, want bilinear result %v", c, a[c], b[c])
		}
	}
}

func TestSampleAnisotropicStretchedFootprint(t *testing.T) {
	buf := solidBuffer(t, 64, 64, 1)
	chain, err := GenerateMipmaps(buf)
	if err != nil {
		t.Fatalf("GenerateMipmaps: %v", err)
	}
	// A highly elongated footprint along s (grazing angle) should still
	// return a finite, sane result on a constant image.
	deriv := Derivatives{DsDx: 0.5, DtDy: 0.01}
	got := Sample(chain, Anisotropic, 0.5, 0.5, deriv, imagebuf.WrapClamp)
	if got[0] < 0.99 || got[0] > 1.01 {
		t.Fatalf("anisotropic of a constant image = %v, want ~1.0", got[0])
	}
}

func TestPoleGuardStaysFinite(t *testing.T) {
	r := poleGuard(-1) // exact pole: 2*(1+z) == 0
	if r <= 0 {
		t.Fatalf("poleGuard(-1) = %v, want a positive epsilon-floored value", r)
	}
	u, v := EnvSphereUV(0, 0, -1)
	if isNaNOrInf(u) || isNaNOrInf(v) {
		t.Fatalf("EnvSphereUV at the pole produced a non-finite result: (%v, %v)", u, v)
	}
}

func isNaNOrInf(v float64) bool {
	return v != v || v > 1e300 || v < -1e300
}
