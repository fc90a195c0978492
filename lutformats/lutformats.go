// Package lutformats parses and writes LUT file formats: .cube, .spi1d,
// .spi3d, .3dl, .clf, .ctf, .csp, .cdl/.ccc, .1dl, .hdl, .itx/.look,
// .mga/.m3d, .spimtx, .cub, .vf.
package lutformats

import (
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/ssoj13/vfxcore/lut"
)

// ErrorKind classifies a LutError.
type ErrorKind uint8

const (
	ParseError ErrorKind = iota
	DomainError
	DimensionError
	UnsupportedFeature
)

// LutError is the typed error returned by this package's codecs.
type LutError struct {
	Kind    ErrorKind
	Path    string
	Line    int
	Message string
	Cause   error
}

func (e *LutError) Error() string {
	if e.Path != "" && e.Line > 0 {
		return fmt.Sprintf("lutformats: %s:%d: %s", e.Path, e.Line, e.Message)
	}
	if e.Path != "" {
		return fmt.Sprintf("lutformats: %s: %s", e.Path, e.Message)
	}
	return fmt.Sprintf("lutformats: %s", e.Message)
}

func (e *LutError) Unwrap() error { return e.Cause }

// CDL holds one ASC Color Decision List correction: out = clamp((in*Slope +
// Offset)^Power) followed by a luma-preserving saturation mix.
type CDL struct {
	Slope      [3]float64
	Offset     [3]float64
	Power      [3]float64
	Saturation float64
	ID         string
}

// Apply evaluates the ASC CDL formula.
func (c *CDL) Apply(r, g, b float64) (float64, float64, float64) {
	apply := func(v, slope, offset, power float64) float64 {
		v = v*slope + offset
		if v < 0 {
			v = 0
		}
		return math.Pow(v, power)
	}
	r2 := apply(r, c.Slope[0], c.Offset[0], c.Power[0])
	g2 := apply(g, c.Slope[1], c.Offset[1], c.Power[1])
	b2 := apply(b, c.Slope[2], c.Offset[2], c.Power[2])

	luma := 0.2126*r2 + 0.7152*g2 + 0.0722*b2
	r2 = luma + c.Saturation*(r2-luma)
	g2 = luma + c.Saturation*(g2-luma)
	b2 = luma + c.Saturation*(b2-luma)
	return r2, g2, b2
}

// Table is the parsed content of a LUT file: an optional 1D shaper LUT
// (e.g. a Resolve combined .cube's 1D section) applied before an optional
// 3D LUT, or just one of the two.
type Table struct {
	Shaper *lut.LUT1D // applied first if non-nil
	LUT1D  *lut.LUT1D // set when the file is purely 1D
	LUT3D  *lut.LUT3D // set when the file contains a 3D LUT
	Matrix *[9]float64 // set for pure 3x3-matrix formats (.spimtx)
	CDL    *CDL        // set for ASC CDL formats (.cdl/.ccc)
}

// Apply evaluates the table's full chain (shaper, then matrix, then CDL,
// then 1D or 3D) on one RGB triple.
func (t *Table) Apply(r, g, b float64) (float64, float64, float64) {
	if t.Shaper != nil {
		r, g, b = t.Shaper.Apply(r, g, b)
	}
	if t.Matrix != nil {
		m := t.Matrix
		r2 := m[0]*r + m[1]*g + m[2]*b
		g2 := m[3]*r + m[4]*g + m[5]*b
		b2 := m[6]*r + m[7]*g + m[8]*b
		r, g, b = r2, g2, b2
	}
	if t.CDL != nil {
		return t.CDL.Apply(r, g, b)
	}
	if t.LUT3D != nil {
		return t.LUT3D.Apply(r, g, b)
	}
	if t.LUT1D != nil {
		return t.LUT1D.Apply(r, g, b)
	}
	return r, g, b
}

// Codec decodes/encodes one LUT file format.
type Codec interface {
	// Name is the format identifier, e.g. "cube", "clf".
	Name() string
	// Sniff reports whether head (the file's first bytes, read-only) or
	// name (its path) identifies this format.
	Sniff(name string, head []byte) bool
	Decode(r io.Reader) (*Table, error)
	Encode(w io.Writer, t *Table) error
}

var (
	registryMu sync.RWMutex
	registry   = map[string]Codec{}
	byExt      = map[string]Codec{}
)

// Register adds a codec under its name and associates it with the given
// file extensions (without the leading dot).
func Register(c Codec, extensions ...string) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[c.Name()] = c
	for _, ext := range extensions {
		byExt[strings.ToLower(ext)] = c
	}
}

// Get returns the codec registered under the given format name.
func Get(name string) (Codec, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	c, ok := registry[name]
	return c, ok
}

// ForPath resolves a codec for a file path: magic-byte sniffing is tried
// for codecs that support it, extension lookup otherwise.
func ForPath(path string, head []byte) (Codec, error) {
	registryMu.RLock()
	defer registryMu.RUnlock()

	for _, c := range registry {
		if c.Sniff(path, head) {
			return c, nil
		}
	}

	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	if c, ok := byExt[ext]; ok {
		return c, nil
	}
	return nil, &LutError{Kind: ParseError, Path: path, Message: "unrecognized LUT format"}
}

// Decode reads path's content through head (already-consumed bytes used
// for sniffing, may be empty) followed by the rest of r.
func Decode(path string, r io.Reader) (*Table, error) {
	head := make([]byte, 512)
	n, _ := io.ReadFull(r, head)
	head = head[:n]

	c, err := ForPath(path, head)
	if err != nil {
		return nil, err
	}
	return c.Decode(io.MultiReader(strings.NewReader(string(head)), r))
}

// LoadFile opens path and decodes it, closing the file before returning.
func LoadFile(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &LutError{Kind: ParseError, Path: path, Message: "opening LUT file", Cause: err}
	}
	defer f.Close()
	return Decode(path, f)
}
