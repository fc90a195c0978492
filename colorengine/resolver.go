package colorengine

// ConfigResolver is the set of config-backed lookups Processor compilation
// needs to resolve ColorSpace/Look/DisplayView references and context
// variables. *ocio.Config implements this interface; colorengine never
// imports ocio directly, avoiding an import cycle (ocio.ColorSpace holds
// *colorengine.Transform fields, so the dependency only runs one way).
type ConfigResolver interface {
	// ColorSpaceTransforms returns the named colorspace's to-reference and
	// from-reference transform chains (either may be nil) and whether the
	// space is marked is_data (never color-converted).
	ColorSpaceTransforms(name string) (toRef, fromRef *Transform, isData bool, found bool)
	// Role resolves a role name (e.g. "color_picking") to a colorspace name.
	Role(name string) (colorspace string, found bool)
	// LookOps resolves a look name to its process space and ordered op list.
	LookOps(name string) (processSpace string, ops *Transform, found bool)
	// DisplayViewTransform resolves a (display, view) pair to the
	// from-scene-reference, view, and display-colorspace chain, composed
	// into one Group transform ready to flatten.
	DisplayViewTransform(display, view string) (*Transform, bool)
	// ContextVar resolves a $NAME reference from the config's context map.
	ContextVar(name string) (string, bool)
	// SearchPaths lists directories to probe for relative File transform
	// paths, in order.
	SearchPaths() []string
}
