package texture

import (
	"math"

	"github.com/ssoj13/vfxcore/imagebuf"
	"github.com/ssoj13/vfxcore/imagecache"
)

// CacheSampler filters a texture whose tiles come from an imagecache.Cache
// instead of an in-memory MipmapChain, so a working set much larger than
// RAM can still be sampled. Tile size is always read back from the cache
// (Cache.TileSize()) rather than assumed, per the texture system's
// tile-size rule.
//
// Known simplification: each sample is resolved against the single tile
// containing it, with clamped interpolation at that tile's own edges.
// Filtering never blends across a tile boundary, which can produce a
// faint seam at tile edges for Bilinear/Trilinear/Anisotropic filters —
// acceptable for the mip levels this system targets (minified, already
// band-limited by the mip chain) but worth knowing about for level-0
// magnified sampling near a tile edge.
type CacheSampler struct {
	Cache    *imagecache.Cache
	Path     string
	Src      imagecache.Source
	Subimage int
	Wrap     imagebuf.WrapMode

	// MaxMip bounds how far Sample will ask the cache to generate mips.
	// 0 uses DefaultMaxMip.
	MaxMip int
}

// DefaultMaxMip bounds mip selection for a CacheSampler that does not set
// MaxMip explicitly.
const DefaultMaxMip = 16

func (cs CacheSampler) maxMip() int {
	if cs.MaxMip > 0 {
		return cs.MaxMip
	}
	return DefaultMaxMip
}

// Sample filters at normalized coordinates (s,t) in [0,1], using deriv for
// mip/footprint selection exactly as Sample does for an in-memory chain.
func (cs CacheSampler) Sample(filter Filter, s, t float64, deriv Derivatives) ([]float32, error) {
	switch filter {
	case Nearest:
		return cs.sampleMip(s, t, 0, false)
	case Bilinear:
		return cs.sampleMip(s, t, 0, true)
	case Trilinear:
		if deriv.IsZero() {
			return cs.sampleMip(s, t, 0, true)
		}
		return cs.sampleTrilinear(s, t, deriv)
	case Anisotropic:
		if deriv.IsZero() {
			return cs.sampleMip(s, t, 0, true)
		}
		return cs.sampleAnisotropic(s, t, deriv)
	default:
		return cs.sampleMip(s, t, 0, true)
	}
}

// footprintScale estimates the minification scale in texels per pixel at
// mip 0, using the base level's dimensions.
func (cs CacheSampler) footprintScale(deriv Derivatives) (major, minor float64, err error) {
	w, h, err := cs.Cache.Dimensions(cs.Path, cs.Src, cs.Subimage, 0)
	if err != nil {
		return 0, 0, err
	}
	ux, uy := deriv.DsDx*float64(w), deriv.DtDx*float64(h)
	vx, vy := deriv.DsDy*float64(w), deriv.DtDy*float64(h)
	uLen := math.Hypot(ux, uy)
	vLen := math.Hypot(vx, vy)
	if uLen < vLen {
		uLen, vLen = vLen, uLen
	}
	return uLen, vLen, nil
}

func (cs CacheSampler) levelForScale(scale float64) int {
	if scale <= 1 {
		return 0
	}
	level := int(math.Round(-math.Log2(1 / scale)))
	if level < 0 {
		level = 0
	}
	if max := cs.maxMip(); level > max {
		level = max
	}
	return level
}

func (cs CacheSampler) sampleTrilinear(s, t float64, deriv Derivatives) ([]float32, error) {
	major, _, err := cs.footprintScale(deriv)
	if err != nil {
		return nil, err
	}
	levelF := 0.0
	if major > 1 {
		levelF = -math.Log2(1 / major)
	}
	if max := float64(cs.maxMip()); levelF > max {
		levelF = max
	}
	lo := int(math.Floor(levelF))
	frac := float32(levelF - float64(lo))

	a, err := cs.sampleMip(s, t, lo, true)
	if err != nil {
		return nil, err
	}
	if frac == 0 {
		return a, nil
	}
	b, err := cs.sampleMip(s, t, lo+1, true)
	if err != nil {
		return nil, err
	}
	return lerpChannels(a, b, frac), nil
}

func (cs CacheSampler) sampleAnisotropic(s, t float64, deriv Derivatives) ([]float32, error) {
	major, minor, err := cs.footprintScale(deriv)
	if err != nil {
		return nil, err
	}
	if minor < 1e-9 {
		minor = 1e-9
	}
	ratio := major / minor
	if ratio > MaxAnisotropy {
		ratio = MaxAnisotropy
	}
	n := int(math.Ceil(ratio))
	if n < 1 {
		n = 1
	}
	if n > MaxAnisotropy {
		n = MaxAnisotropy
	}
	level := cs.levelForScale(minor)

	uLen := math.Hypot(deriv.DsDx, deriv.DtDx)
	vLen := math.Hypot(deriv.DsDy, deriv.DtDy)
	axisDs, axisDt := deriv.DsDx, deriv.DtDx
	if vLen > uLen {
		axisDs, axisDt = deriv.DsDy, deriv.DtDy
	}

	samples := make([][]float32, 0, n)
	for i := 0; i < n; i++ {
		frac := 0.0
		if n > 1 {
			frac = float64(i)/float64(n-1) - 0.5
		}
		v, err := cs.sampleMip(s+axisDs*frac, t+axisDt*frac, level, true)
		if err != nil {
			return nil, err
		}
		samples = append(samples, v)
	}
	return avgChannels(samples), nil
}

// sampleMip fetches the single tile covering (s,t) at mip and filters
// within it: nearest rounds to the containing tile's nearest texel,
// bilinear delegates to imagebuf.Buffer.InterpPixel with wrap applied at
// the tile's own edges.
func (cs CacheSampler) sampleMip(s, t float64, mip int, bilinear bool) ([]float32, error) {
	w, h, err := cs.Cache.Dimensions(cs.Path, cs.Src, cs.Subimage, mip)
	if err != nil {
		return nil, err
	}
	x := s * float64(w)
	y := t * float64(h)

	tileSize := cs.Cache.TileSize()
	tx := clampTileIdx(int(x)/tileSize, w, tileSize)
	ty := clampTileIdx(int(y)/tileSize, h, tileSize)

	key := imagecache.Key{FileID: cs.Path, Subimage: cs.Subimage, Mip: mip, TileX: tx, TileY: ty}
	tile, err := cs.Cache.GetOrLoad(key, cs.Path, cs.Src)
	if err != nil {
		return nil, err
	}
	defer tile.Release()

	// Map absolute pixel coordinates into the tile buffer's own
	// DataWindow (tiles carry an absolute origin, not a local 0,0 one).
	if bilinear {
		return tile.Buffer.InterpPixel(x, y, cs.Wrap), nil
	}
	dw := tile.Buffer.Spec.DataWindow
	fracS := (x - float64(dw.X)) / float64(dw.Width)
	fracT := (y - float64(dw.Y)) / float64(dw.Height)
	return sampleNearest(tile.Buffer, fracS, fracT, cs.Wrap), nil
}

func clampTileIdx(tx, dimSize, tileSize int) int {
	maxTx := (dimSize - 1) / tileSize
	if tx < 0 {
		return 0
	}
	if tx > maxTx {
		return maxTx
	}
	return tx
}
