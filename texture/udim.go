package texture

import (
	"fmt"
	"strconv"
	"strings"
)

// udimPlaceholder is the token UDIM-templated paths use in place of the
// tile number, e.g. "/textures/color.<UDIM>.exr".
const udimPlaceholder = "<UDIM>"

// UDIMNumber returns the tile number for a 1-based column u (1..10) and
// 0-based row v, following the Mari/Mudbox convention 1000 + u + 10*v —
// tile 1001 is the first tile (u=1, v=0); u wraps into the next row past
// 10.
func UDIMNumber(u, v int) int {
	return 1000 + u + 10*v
}

// SplitUDIM inverts UDIMNumber, recovering (u,v) — u 1-based, v 0-based —
// from a tile number.
func SplitUDIM(number int) (u, v int) {
	rel := number - 1000
	v = rel / 10
	u = rel % 10
	if u == 0 {
		u = 10
		v--
	}
	return u, v
}

// ResolveUDIM substitutes the <UDIM> placeholder in template with the
// tile number for 1-based (u,v), returning an error if template carries
// no placeholder to substitute.
func ResolveUDIM(template string, u, v int) (string, error) {
	if !strings.Contains(template, udimPlaceholder) {
		return "", fmt.Errorf("texture: %q has no %s placeholder", template, udimPlaceholder)
	}
	number := UDIMNumber(u, v)
	return strings.ReplaceAll(template, udimPlaceholder, strconv.Itoa(number)), nil
}

// UDIMResolver resolves a UDIM-templated path for a given UV coordinate,
// memoizing nothing itself: callers pair the resolved path with an
// imagecache.Cache lookup keyed on that path.
type UDIMResolver struct {
	Template string
}

// TileForUV returns the resolved path and tile number covering normalized
// (s,t), where each unit square maps to one UDIM tile: s in [0,1) maps to
// column u=1, [1,2) to u=2, and so on; t in [0,1) maps to row v=0, [1,2)
// to v=1, matching the Mari convention where the first tile is 1001.
func (r UDIMResolver) TileForUV(s, t float64) (path string, number int, err error) {
	u := int(s) + 1
	v := int(t)
	if s < 0 {
		u = int(s) - 1
	}
	if t < 0 {
		v = int(t) - 1
	}
	path, err = ResolveUDIM(r.Template, u, v)
	if err != nil {
		return "", 0, err
	}
	return path, UDIMNumber(u, v), nil
}
