// Package ocio parses and resolves a color management Config: named
// colorspaces, roles, displays/views, looks, view transforms, named
// transforms, file rules, and context variables. It implements
// colorengine.ConfigResolver so any *Config compiles directly against the
// colorengine package without that package importing ocio.
package ocio

import "github.com/ssoj13/vfxcore/colorengine"

// ColorSpace describes one named color space: the reference-space
// conversion chains a Processor compile resolves, plus classification
// metadata carried for documentation and category-based selection.
type ColorSpace struct {
	Name          string
	Family        string
	Description   string
	BitDepth      string
	IsData        bool
	Encoding      string
	Categories    []string
	Allocation    string
	AllocationVars []float64
	ToReference   *colorengine.Transform
	FromReference *colorengine.Transform
}

// View names one display rendering path: either a plain colorspace, or a
// ViewTransform composed with a display colorspace, plus an optional look
// list applied in between.
type View struct {
	Name              string
	ColorSpace        string
	ViewTransform     string
	DisplayColorSpace string
	Looks             string
	Rule              string
	Description       string
}

// Display groups the named Views available for one physical display device.
type Display struct {
	Name  string
	Views []View
}

// Look is a named, process-space-scoped grade applied via LookTransform.
type Look struct {
	Name             string
	ProcessSpace     string
	Transform        *colorengine.Transform
	InverseTransform *colorengine.Transform
	Description      string
}

// ViewTransform maps the scene reference space to the display reference
// space (or back), independent of any particular display's colorimetry.
type ViewTransform struct {
	Name          string
	Family        string
	ToReference   *colorengine.Transform
	FromReference *colorengine.Transform
}

// NamedTransform is a standalone, reusable forward/inverse transform pair
// not tied to any colorspace's reference-space role.
type NamedTransform struct {
	Name       string
	Categories []string
	Forward    *colorengine.Transform
	Inverse    *colorengine.Transform
}

// FileRule matches an image file path to a colorspace by extension,
// glob-style pattern, or regex. The ordered rule list's last entry must be
// a catch-all named "Default".
type FileRule struct {
	Name       string
	ColorSpace string
	Pattern    string
	Extension  string
	Regex      string
}

// IsDefault reports whether r is the mandatory trailing catch-all rule.
func (r FileRule) IsDefault() bool { return r.Name == "Default" }

// ViewingRule restricts which (colorspace, encoding) combinations a UI
// should group together when narrowing a view transform's UI choices; it
// carries no behavior colorengine depends on.
type ViewingRule struct {
	Name        string
	ColorSpaces []string
	Encodings   []string
}

// Config is the fully-resolved color management configuration: every
// colorspace/look/view_transform/named_transform's transform tree has
// already been parsed into *colorengine.Transform, ready to Compile.
type Config struct {
	ProfileVersion string
	Name           string
	Description    string
	SearchPath     []string
	StrictParsing  bool
	FamilySeparator string
	Luma           [3]float64

	Roles map[string]string

	FileRules    []FileRule
	ViewingRules []ViewingRule

	SharedViews map[string]View
	Displays    map[string]Display

	ActiveDisplays      []string
	ActiveViews         []string
	InactiveColorSpaces []string

	Looks                map[string]Look
	ViewTransforms       map[string]ViewTransform
	DefaultViewTransform string

	ColorSpaces        map[string]*ColorSpace
	DisplayColorSpaces map[string]*ColorSpace
	NamedTransforms    map[string]*NamedTransform

	// Context holds resolved $NAME substitution values: the "environment"
	// map merged over any values supplied by the caller at load time.
	Context map[string]string

	// BaseDir is the directory the config file was loaded from; relative
	// search_path entries and relative File transform paths resolve
	// against it.
	BaseDir string
}

// NewConfig returns an empty Config with all maps initialized, ready for a
// parser to populate or for tests to build up programmatically.
func NewConfig() *Config {
	return &Config{
		Roles:              map[string]string{},
		SharedViews:        map[string]View{},
		Displays:           map[string]Display{},
		Looks:              map[string]Look{},
		ViewTransforms:     map[string]ViewTransform{},
		ColorSpaces:        map[string]*ColorSpace{},
		DisplayColorSpaces: map[string]*ColorSpace{},
		NamedTransforms:    map[string]*NamedTransform{},
		Context:            map[string]string{},
		Luma:               [3]float64{0.2126, 0.7152, 0.0722},
	}
}
