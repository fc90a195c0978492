package ocio

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/ssoj13/vfxcore/colorengine"
	"github.com/ssoj13/vfxcore/colormath"
	"github.com/ssoj13/vfxcore/lut"
	"github.com/ssoj13/vfxcore/transfer"
)

// yamlConfig mirrors the recognized top-level keys of a config document.
type yamlConfig struct {
	ProfileVersion  yaml.Node               `yaml:"ocio_profile_version"`
	Name            string                  `yaml:"name"`
	Description     string                  `yaml:"description"`
	Environment     map[string]string       `yaml:"environment"`
	SearchPath      string                  `yaml:"search_path"`
	StrictParsing   bool                    `yaml:"strictparsing"`
	FamilySeparator string                  `yaml:"family_separator"`
	Luma            []float64               `yaml:"luma"`
	Roles           map[string]string       `yaml:"roles"`
	FileRules       []yamlFileRule          `yaml:"file_rules"`
	ViewingRules    []yamlViewingRule       `yaml:"viewing_rules"`
	SharedViews     []yamlView              `yaml:"shared_views"`
	Displays        map[string][]yamlView   `yaml:"displays"`
	ActiveDisplays  []string                `yaml:"active_displays"`
	ActiveViews     []string                `yaml:"active_views"`
	InactiveColorSpaces []string            `yaml:"inactive_colorspaces"`
	Looks           []yamlLook              `yaml:"looks"`
	ViewTransforms  []yamlViewTransform     `yaml:"view_transforms"`
	DefaultViewTransform string            `yaml:"default_view_transform"`
	ColorSpaces     []yamlColorSpace        `yaml:"colorspaces"`
	DisplayColorSpaces []yamlColorSpace     `yaml:"display_colorspaces"`
	NamedTransforms []yamlNamedTransform    `yaml:"named_transforms"`
}

type yamlFileRule struct {
	Name       string `yaml:"name"`
	ColorSpace string `yaml:"colorspace"`
	Pattern    string `yaml:"pattern"`
	Extension  string `yaml:"extension"`
	Regex      string `yaml:"regex"`
}

type yamlViewingRule struct {
	Name        string   `yaml:"name"`
	ColorSpaces []string `yaml:"colorspaces"`
	Encodings   []string `yaml:"encodings"`
}

type yamlView struct {
	Name              string `yaml:"name"`
	ColorSpace        string `yaml:"colorspace"`
	ViewTransform     string `yaml:"view_transform"`
	DisplayColorSpace string `yaml:"display_colorspace"`
	Looks             string `yaml:"looks"`
	Rule              string `yaml:"rule"`
	Description       string `yaml:"description"`
}

type yamlLook struct {
	Name             string    `yaml:"name"`
	ProcessSpace     string    `yaml:"process_space"`
	Transform        yaml.Node `yaml:"transform"`
	InverseTransform yaml.Node `yaml:"inverse_transform"`
	Description      string    `yaml:"description"`
}

type yamlViewTransform struct {
	Name          string    `yaml:"name"`
	Family        string    `yaml:"family"`
	ToReference   yaml.Node `yaml:"to_reference"`
	FromReference yaml.Node `yaml:"from_reference"`
}

type yamlPrimaries struct {
	Red   [2]float64 `yaml:"red"`
	Green [2]float64 `yaml:"green"`
	Blue  [2]float64 `yaml:"blue"`
	White [2]float64 `yaml:"white"`
}

type yamlColorSpace struct {
	Name           string         `yaml:"name"`
	Family         string         `yaml:"family"`
	Description    string         `yaml:"description"`
	BitDepth       string         `yaml:"bitdepth"`
	IsData         bool           `yaml:"isdata"`
	Encoding       string         `yaml:"encoding"`
	Categories     []string       `yaml:"categories"`
	Allocation     string         `yaml:"allocation"`
	AllocationVars []float64      `yaml:"allocationvars"`
	ToReference    yaml.Node      `yaml:"to_reference"`
	FromReference  yaml.Node      `yaml:"from_reference"`
	Primaries      *yamlPrimaries `yaml:"primaries"`
}

type yamlNamedTransform struct {
	Name       string    `yaml:"name"`
	Categories []string  `yaml:"categories"`
	Forward    yaml.Node `yaml:"forward"`
	Inverse    yaml.Node `yaml:"inverse"`
}

// Load reads and parses the config file at path, resolving its BaseDir to
// path's directory for relative search paths and File transform lookups.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &ConfigError{Kind: ParseError, Path: path, Message: "opening config file", Cause: err}
	}
	defer f.Close()
	cfg, err := Parse(f)
	if err != nil {
		if ce, ok := err.(*ConfigError); ok {
			ce.Path = path
		}
		return nil, err
	}
	cfg.BaseDir = filepath.Dir(path)
	return cfg, nil
}

// Parse decodes a config document from r.
func Parse(r io.Reader) (*Config, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, &ConfigError{Kind: ParseError, Message: "reading config", Cause: err}
	}

	var raw yamlConfig
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, &ConfigError{Kind: ParseError, Message: "parsing YAML", Cause: err}
	}

	cfg := NewConfig()
	cfg.Name = raw.Name
	cfg.Description = raw.Description
	cfg.StrictParsing = raw.StrictParsing
	cfg.FamilySeparator = raw.FamilySeparator
	if raw.ProfileVersion.Kind != 0 {
		cfg.ProfileVersion = raw.ProfileVersion.Value
	}
	if len(raw.Luma) == 3 {
		cfg.Luma = [3]float64{raw.Luma[0], raw.Luma[1], raw.Luma[2]}
	}
	if raw.SearchPath != "" {
		for _, p := range strings.Split(raw.SearchPath, ":") {
			if p = strings.TrimSpace(p); p != "" {
				cfg.SearchPath = append(cfg.SearchPath, p)
			}
		}
	}
	for k, v := range raw.Environment {
		cfg.Context[k] = v
	}
	for k, v := range raw.Roles {
		cfg.Roles[k] = v
	}
	cfg.ActiveDisplays = raw.ActiveDisplays
	cfg.ActiveViews = raw.ActiveViews
	cfg.InactiveColorSpaces = raw.InactiveColorSpaces
	cfg.DefaultViewTransform = raw.DefaultViewTransform

	for _, fr := range raw.FileRules {
		cfg.FileRules = append(cfg.FileRules, FileRule{
			Name: fr.Name, ColorSpace: fr.ColorSpace, Pattern: fr.Pattern,
			Extension: fr.Extension, Regex: fr.Regex,
		})
	}
	for _, vr := range raw.ViewingRules {
		cfg.ViewingRules = append(cfg.ViewingRules, ViewingRule{
			Name: vr.Name, ColorSpaces: vr.ColorSpaces, Encodings: vr.Encodings,
		})
	}

	for _, v := range raw.SharedViews {
		cfg.SharedViews[v.Name] = toView(v)
	}
	for dname, views := range raw.Displays {
		d := Display{Name: dname}
		for _, v := range views {
			d.Views = append(d.Views, toView(v))
		}
		cfg.Displays[dname] = d
	}

	for _, l := range raw.Looks {
		look := Look{Name: l.Name, ProcessSpace: l.ProcessSpace, Description: l.Description}
		tr, err := parseTransformNode(&l.Transform)
		if err != nil {
			return nil, err
		}
		look.Transform = tr
		invTr, err := parseTransformNode(&l.InverseTransform)
		if err != nil {
			return nil, err
		}
		look.InverseTransform = invTr
		cfg.Looks[l.Name] = look
	}

	for _, vt := range raw.ViewTransforms {
		toRef, err := parseTransformNode(&vt.ToReference)
		if err != nil {
			return nil, err
		}
		fromRef, err := parseTransformNode(&vt.FromReference)
		if err != nil {
			return nil, err
		}
		cfg.ViewTransforms[vt.Name] = ViewTransform{
			Name: vt.Name, Family: vt.Family, ToReference: toRef, FromReference: fromRef,
		}
	}

	for _, cs := range raw.ColorSpaces {
		parsed, err := toColorSpace(cs, cfg)
		if err != nil {
			return nil, err
		}
		cfg.ColorSpaces[cs.Name] = parsed
	}
	for _, cs := range raw.DisplayColorSpaces {
		parsed, err := toColorSpace(cs, cfg)
		if err != nil {
			return nil, err
		}
		cfg.DisplayColorSpaces[cs.Name] = parsed
	}

	for _, nt := range raw.NamedTransforms {
		fwd, err := parseTransformNode(&nt.Forward)
		if err != nil {
			return nil, err
		}
		inv, err := parseTransformNode(&nt.Inverse)
		if err != nil {
			return nil, err
		}
		cfg.NamedTransforms[nt.Name] = &NamedTransform{
			Name: nt.Name, Categories: nt.Categories, Forward: fwd, Inverse: inv,
		}
	}

	return cfg, nil
}

func toView(v yamlView) View {
	return View{
		Name: v.Name, ColorSpace: v.ColorSpace, ViewTransform: v.ViewTransform,
		DisplayColorSpace: v.DisplayColorSpace, Looks: v.Looks, Rule: v.Rule, Description: v.Description,
	}
}

// toColorSpace builds a ColorSpace from its YAML form, deriving
// to_reference/from_reference from an explicit "primaries" block (CIE xy
// chromaticities) when to_reference/from_reference transforms are absent.
func toColorSpace(cs yamlColorSpace, cfg *Config) (*ColorSpace, error) {
	toRef, err := parseTransformNode(&cs.ToReference)
	if err != nil {
		return nil, err
	}
	fromRef, err := parseTransformNode(&cs.FromReference)
	if err != nil {
		return nil, err
	}
	out := &ColorSpace{
		Name: cs.Name, Family: cs.Family, Description: cs.Description, BitDepth: cs.BitDepth,
		IsData: cs.IsData, Encoding: cs.Encoding, Categories: cs.Categories,
		Allocation: cs.Allocation, AllocationVars: cs.AllocationVars,
		ToReference: toRef, FromReference: fromRef,
	}
	if toRef == nil && fromRef == nil && cs.Primaries != nil {
		m, err := primariesToMatrix(*cs.Primaries)
		if err != nil {
			return nil, err
		}
		out.ToReference = &colorengine.Transform{Kind: colorengine.KindMatrix, Matrix: &colorengine.MatrixParams{M: m}}
	}
	return out, nil
}

// parseTransformNode decodes a transform YAML node, which is either a
// single tagged mapping (one primitive or composite transform) or a
// sequence of tagged mappings (an implicit GroupTransform, OCIO's
// shorthand for chaining several transforms in to_reference/from_reference
// position).
func parseTransformNode(n *yaml.Node) (*colorengine.Transform, error) {
	if n == nil || n.Kind == 0 {
		return nil, nil
	}
	switch n.Kind {
	case yaml.SequenceNode:
		var children []*colorengine.Transform
		for _, item := range n.Content {
			child, err := parseSingleTransform(item)
			if err != nil {
				return nil, err
			}
			if child != nil {
				children = append(children, child)
			}
		}
		if len(children) == 0 {
			return nil, nil
		}
		return &colorengine.Transform{Kind: colorengine.KindGroup, Group: children}, nil
	case yaml.MappingNode:
		return parseSingleTransform(n)
	default:
		return nil, &ConfigError{Kind: ParseError, Line: n.Line, Message: "expected a transform mapping or sequence of transforms"}
	}
}

func tagName(tag string) string {
	tag = strings.TrimPrefix(tag, "!")
	tag = strings.TrimPrefix(tag, "<")
	tag = strings.TrimSuffix(tag, ">")
	if i := strings.LastIndexByte(tag, ':'); i >= 0 {
		tag = tag[i+1:]
	}
	return tag
}

func directionOf(dir string) colorengine.Direction {
	if strings.EqualFold(dir, "inverse") {
		return colorengine.Inverse
	}
	return colorengine.Forward
}

func parseSingleTransform(n *yaml.Node) (*colorengine.Transform, error) {
	switch tagName(n.Tag) {
	case "MatrixTransform":
		return parseMatrixTransform(n)
	case "FileTransform":
		return parseFileTransform(n)
	case "ExponentTransform":
		return parseExponentTransform(n)
	case "ExponentWithLinearTransform":
		return parseExponentWithLinearTransform(n)
	case "LogTransform":
		return parseLogTransform(n, false)
	case "LogAffineTransform":
		return parseLogTransform(n, false)
	case "LogCameraTransform":
		return parseLogTransform(n, true)
	case "CDLTransform":
		return parseCDLTransform(n)
	case "RangeTransform":
		return parseRangeTransform(n)
	case "ColorSpaceTransform":
		return parseColorSpaceTransform(n)
	case "LookTransform":
		return parseLookTransform(n)
	case "DisplayViewTransform":
		return parseDisplayViewTransform(n)
	case "GroupTransform":
		return parseGroupTransform(n)
	case "AllocationTransform":
		return parseAllocationTransform(n)
	case "BuiltinTransform":
		return parseBuiltinTransform(n)
	case "FixedFunctionTransform":
		return parseFixedFunctionTransform(n)
	case "ExposureContrastTransform":
		return parseExposureContrastTransform(n)
	case "GradingPrimaryTransform":
		return parseGradingPrimaryTransform(n)
	case "GradingRGBCurveTransform":
		return parseGradingRGBCurveTransform(n)
	case "GradingToneTransform":
		return parseGradingToneTransform(n)
	case "GradingHueCurveTransform":
		return parseGradingHueCurveTransform(n)
	case "Lut1DTransform":
		return parseLut1DTransform(n)
	case "Lut3DTransform":
		return parseLut3DTransform(n)
	default:
		return nil, &ConfigError{Kind: ParseError, Line: n.Line, Message: fmt.Sprintf("unrecognized transform tag %q", n.Tag)}
	}
}

func parseMatrixTransform(n *yaml.Node) (*colorengine.Transform, error) {
	var raw struct {
		Matrix    []float64 `yaml:"matrix"`
		Offset    []float64 `yaml:"offset"`
		Direction string    `yaml:"direction"`
	}
	if err := n.Decode(&raw); err != nil {
		return nil, decodeErr(n, err)
	}
	var m [16]float64
	switch len(raw.Matrix) {
	case 16:
		copy(m[:], raw.Matrix)
	case 9:
		var m3 colormath.Matrix3
		copy(m3[:], raw.Matrix)
		m = colormath.FromMatrix3(m3)
	default:
		m = [16]float64{1, 0, 0, 0, 0, 1, 0, 0, 0, 0, 1, 0, 0, 0, 0, 1}
	}
	if len(raw.Offset) == 3 {
		m[3] += raw.Offset[0]
		m[7] += raw.Offset[1]
		m[11] += raw.Offset[2]
	}
	return &colorengine.Transform{
		Kind: colorengine.KindMatrix, Direction: directionOf(raw.Direction),
		Matrix: &colorengine.MatrixParams{M: m},
	}, nil
}

func parseFileTransform(n *yaml.Node) (*colorengine.Transform, error) {
	var raw struct {
		Src             string `yaml:"src"`
		CCCID           string `yaml:"cccid"`
		InterpTrilinear bool   `yaml:"interpolation_trilinear"`
		Direction       string `yaml:"direction"`
	}
	if err := n.Decode(&raw); err != nil {
		return nil, decodeErr(n, err)
	}
	return &colorengine.Transform{
		Kind: colorengine.KindFile, Direction: directionOf(raw.Direction),
		File: &colorengine.FileParams{Path: raw.Src, CCCID: raw.CCCID, InterpTrilinear: raw.InterpTrilinear},
	}, nil
}

func parseExponentTransform(n *yaml.Node) (*colorengine.Transform, error) {
	var raw struct {
		Value     []float64 `yaml:"value"`
		Style     string    `yaml:"style"`
		Direction string    `yaml:"direction"`
	}
	if err := n.Decode(&raw); err != nil {
		return nil, decodeErr(n, err)
	}
	return &colorengine.Transform{
		Kind: colorengine.KindExponent, Direction: directionOf(raw.Direction),
		Exponent: &colorengine.ExponentParams{Gamma: gamma3(raw.Value), Style: negativeStyleOf(raw.Style, transfer.NegClamp)},
	}, nil
}

func parseExponentWithLinearTransform(n *yaml.Node) (*colorengine.Transform, error) {
	var raw struct {
		Gamma     []float64 `yaml:"gamma"`
		Offset    []float64 `yaml:"offset"`
		Style     string    `yaml:"style"`
		Direction string    `yaml:"direction"`
	}
	if err := n.Decode(&raw); err != nil {
		return nil, decodeErr(n, err)
	}
	return &colorengine.Transform{
		Kind: colorengine.KindExponentWithLinear, Direction: directionOf(raw.Direction),
		ExponentWithLinear: &colorengine.ExponentWithLinearParams{
			Gamma: gamma3(raw.Gamma), Offset: gamma3(raw.Offset), Style: negativeStyleOf(raw.Style, transfer.NegLinear),
		},
	}, nil
}

func gamma3(v []float64) [3]float64 {
	switch len(v) {
	case 1:
		return [3]float64{v[0], v[0], v[0]}
	case 3:
		return [3]float64{v[0], v[1], v[2]}
	default:
		return [3]float64{1, 1, 1}
	}
}

func negativeStyleOf(style string, def transfer.NegativeStyle) transfer.NegativeStyle {
	switch strings.ToLower(style) {
	case "clamp":
		return transfer.NegClamp
	case "mirror":
		return transfer.NegMirror
	case "pass_thru", "passthrough":
		return transfer.NegPassThrough
	case "linear":
		return transfer.NegLinear
	default:
		return def
	}
}

func parseLogTransform(n *yaml.Node, camera bool) (*colorengine.Transform, error) {
	var raw struct {
		Base          float64 `yaml:"base"`
		LogSideSlope  float64 `yaml:"logSideSlope"`
		LogSideOffset float64 `yaml:"logSideOffset"`
		LinSideSlope  float64 `yaml:"linSideSlope"`
		LinSideOffset float64 `yaml:"linSideOffset"`
		LinSideBreak  float64 `yaml:"linSideBreak"`
		LinearSlope   float64 `yaml:"linearSlope"`
		Direction     string  `yaml:"direction"`
	}
	raw.Base = 2
	raw.LogSideSlope = 1
	raw.LinSideSlope = 1
	if err := n.Decode(&raw); err != nil {
		return nil, decodeErr(n, err)
	}
	p := transfer.LogParams{
		Base: raw.Base, LogSideSlope: raw.LogSideSlope, LogSideOffset: raw.LogSideOffset,
		LinSideSlope: raw.LinSideSlope, LinSideOffset: raw.LinSideOffset,
		LinSideBreak: raw.LinSideBreak, LinearSlope: raw.LinearSlope,
		HasBreak: camera,
	}
	return &colorengine.Transform{
		Kind: colorengine.KindLog, Direction: directionOf(raw.Direction),
		Log: &colorengine.LogParams{Params: p, Inverse: directionOf(raw.Direction) == colorengine.Inverse},
	}, nil
}

func parseCDLTransform(n *yaml.Node) (*colorengine.Transform, error) {
	var raw struct {
		Slope      []float64 `yaml:"slope"`
		Offset     []float64 `yaml:"offset"`
		Power      []float64 `yaml:"power"`
		Saturation float64   `yaml:"sat"`
		Style      string    `yaml:"style"`
		Direction  string    `yaml:"direction"`
	}
	raw.Saturation = 1
	if err := n.Decode(&raw); err != nil {
		return nil, decodeErr(n, err)
	}
	style := colorengine.CDLNoClamp
	if strings.EqualFold(raw.Style, "asc_cdl") || strings.EqualFold(raw.Style, "clamp") || raw.Style == "" {
		style = colorengine.CDLAscCdl
	}
	return &colorengine.Transform{
		Kind: colorengine.KindCDL, Direction: directionOf(raw.Direction),
		CDL: &colorengine.CDLParams{
			Slope: gamma3One(raw.Slope), Offset: gamma3Zero(raw.Offset), Power: gamma3One(raw.Power),
			Saturation: raw.Saturation, Style: style,
		},
	}, nil
}

func gamma3One(v []float64) [3]float64 {
	if len(v) == 3 {
		return [3]float64{v[0], v[1], v[2]}
	}
	return [3]float64{1, 1, 1}
}

func gamma3Zero(v []float64) [3]float64 {
	if len(v) == 3 {
		return [3]float64{v[0], v[1], v[2]}
	}
	return [3]float64{0, 0, 0}
}

func parseRangeTransform(n *yaml.Node) (*colorengine.Transform, error) {
	var raw struct {
		MinInValue  *float64 `yaml:"min_in_value"`
		MaxInValue  *float64 `yaml:"max_in_value"`
		MinOutValue *float64 `yaml:"min_out_value"`
		MaxOutValue *float64 `yaml:"max_out_value"`
		Direction   string   `yaml:"direction"`
		NoClamp     bool     `yaml:"noClamp"`
	}
	if err := n.Decode(&raw); err != nil {
		return nil, decodeErr(n, err)
	}
	r := &colorengine.RangeParams{Clamp: !raw.NoClamp}
	if raw.MinInValue != nil {
		r.MinIn, r.HasMinIn = *raw.MinInValue, true
	}
	if raw.MaxInValue != nil {
		r.MaxIn, r.HasMaxIn = *raw.MaxInValue, true
	}
	if raw.MinOutValue != nil {
		r.MinOut, r.HasMinOut = *raw.MinOutValue, true
	}
	if raw.MaxOutValue != nil {
		r.MaxOut, r.HasMaxOut = *raw.MaxOutValue, true
	}
	return &colorengine.Transform{Kind: colorengine.KindRange, Direction: directionOf(raw.Direction), Range: r}, nil
}

func parseColorSpaceTransform(n *yaml.Node) (*colorengine.Transform, error) {
	var raw struct {
		Src       string `yaml:"src"`
		Dst       string `yaml:"dst"`
		Direction string `yaml:"direction"`
	}
	if err := n.Decode(&raw); err != nil {
		return nil, decodeErr(n, err)
	}
	return &colorengine.Transform{
		Kind: colorengine.KindColorSpace, Direction: directionOf(raw.Direction),
		ColorSpace: &colorengine.ColorSpaceParams{Src: raw.Src, Dst: raw.Dst},
	}, nil
}

func parseLookTransform(n *yaml.Node) (*colorengine.Transform, error) {
	var raw struct {
		Looks     string `yaml:"looks"`
		Direction string `yaml:"direction"`
	}
	if err := n.Decode(&raw); err != nil {
		return nil, decodeErr(n, err)
	}
	return &colorengine.Transform{
		Kind: colorengine.KindLook, Direction: directionOf(raw.Direction),
		Look: &colorengine.LookParams{Looks: raw.Looks},
	}, nil
}

func parseDisplayViewTransform(n *yaml.Node) (*colorengine.Transform, error) {
	var raw struct {
		Display   string `yaml:"display"`
		View      string `yaml:"view"`
		Direction string `yaml:"direction"`
	}
	if err := n.Decode(&raw); err != nil {
		return nil, decodeErr(n, err)
	}
	return &colorengine.Transform{
		Kind: colorengine.KindDisplayView, Direction: directionOf(raw.Direction),
		DisplayView: &colorengine.DisplayViewParams{Display: raw.Display, View: raw.View},
	}, nil
}

func parseGroupTransform(n *yaml.Node) (*colorengine.Transform, error) {
	var raw struct {
		Direction  string      `yaml:"direction"`
		Children   []yaml.Node `yaml:"children"`
	}
	if err := n.Decode(&raw); err != nil {
		return nil, decodeErr(n, err)
	}
	var children []*colorengine.Transform
	for i := range raw.Children {
		child, err := parseSingleTransform(&raw.Children[i])
		if err != nil {
			return nil, err
		}
		if child != nil {
			children = append(children, child)
		}
	}
	return &colorengine.Transform{Kind: colorengine.KindGroup, Direction: directionOf(raw.Direction), Group: children}, nil
}

func parseAllocationTransform(n *yaml.Node) (*colorengine.Transform, error) {
	var raw struct {
		Vars      []float64 `yaml:"vars"`
		Direction string    `yaml:"direction"`
	}
	if err := n.Decode(&raw); err != nil {
		return nil, decodeErr(n, err)
	}
	return &colorengine.Transform{
		Kind: colorengine.KindAllocation, Direction: directionOf(raw.Direction),
		Allocation: &colorengine.AllocationParams{Vars: raw.Vars},
	}, nil
}

func parseBuiltinTransform(n *yaml.Node) (*colorengine.Transform, error) {
	var raw struct {
		Style     string `yaml:"style"`
		Direction string `yaml:"direction"`
	}
	if err := n.Decode(&raw); err != nil {
		return nil, decodeErr(n, err)
	}
	return &colorengine.Transform{
		Kind: colorengine.KindBuiltin, Direction: directionOf(raw.Direction),
		Builtin: &colorengine.BuiltinParams{Style: raw.Style},
	}, nil
}

var fixedFunctionStyles = map[string]colorengine.FixedFunctionStyle{
	"RGB_TO_HSV":                   colorengine.FixedFunctionRGBToHSV,
	"HSV_TO_RGB":                   colorengine.FixedFunctionHSVToRGB,
	"ACES_GAMUT_COMP_13":           colorengine.FixedFunctionACESGamutCompress,
	"ACES_GAMUT_COMP_13_INVERSE":   colorengine.FixedFunctionACESGamutCompressInverse,
	"REC2100_SURROUND":             colorengine.FixedFunctionSurroundLinear,
}

func parseFixedFunctionTransform(n *yaml.Node) (*colorengine.Transform, error) {
	var raw struct {
		Style     string    `yaml:"style"`
		Params    []float64 `yaml:"params"`
		Direction string    `yaml:"direction"`
	}
	if err := n.Decode(&raw); err != nil {
		return nil, decodeErr(n, err)
	}
	style, ok := fixedFunctionStyles[raw.Style]
	if !ok {
		return nil, &ConfigError{Kind: ParseError, Line: n.Line, Message: fmt.Sprintf("unrecognized FixedFunction style %q", raw.Style)}
	}
	return &colorengine.Transform{
		Kind: colorengine.KindFixedFunction, Direction: directionOf(raw.Direction),
		FixedFunction: &colorengine.FixedFunctionParams{Style: style, Args: raw.Params},
	}, nil
}

func parseExposureContrastTransform(n *yaml.Node) (*colorengine.Transform, error) {
	var raw struct {
		Style     string  `yaml:"style"`
		Exposure  float64 `yaml:"exposure"`
		Contrast  float64 `yaml:"contrast"`
		Gamma     float64 `yaml:"gamma"`
		Pivot     float64 `yaml:"pivot"`
		Dynamic   bool    `yaml:"dynamic"`
		Direction string  `yaml:"direction"`
	}
	raw.Contrast = 1
	raw.Pivot = 1
	if err := n.Decode(&raw); err != nil {
		return nil, decodeErr(n, err)
	}
	style := colorengine.ECLinear
	switch strings.ToLower(raw.Style) {
	case "video":
		style = colorengine.ECVideo
	case "log", "logarithmic":
		style = colorengine.ECLogarithmic
	}
	return &colorengine.Transform{
		Kind: colorengine.KindExposureContrast, Direction: directionOf(raw.Direction),
		ExposureContrast: &colorengine.ExposureContrastParams{
			Exposure: raw.Exposure, Contrast: raw.Contrast, Gamma: raw.Gamma, Pivot: raw.Pivot,
			Style: style, Dynamic: raw.Dynamic,
		},
	}, nil
}

func parseGradingPrimaryTransform(n *yaml.Node) (*colorengine.Transform, error) {
	var raw struct {
		Offset     []float64 `yaml:"offset"`
		Exposure   []float64 `yaml:"exposure"`
		Contrast   []float64 `yaml:"contrast"`
		Saturation float64   `yaml:"saturation"`
		Pivot      float64   `yaml:"pivot"`
		Direction  string    `yaml:"direction"`
	}
	raw.Saturation = 1
	raw.Contrast = []float64{1, 1, 1}
	if err := n.Decode(&raw); err != nil {
		return nil, decodeErr(n, err)
	}
	return &colorengine.Transform{
		Kind: colorengine.KindGradingPrimary, Direction: directionOf(raw.Direction),
		GradingPrimary: &colorengine.GradingPrimaryParams{
			Offset: gamma3Zero(raw.Offset), Exposure: gamma3Zero(raw.Exposure), Contrast: gamma3One(raw.Contrast),
			Saturation: raw.Saturation, Pivot: raw.Pivot,
		},
	}, nil
}

func toControlPoints(n *yaml.Node) []colorengine.GradingControlPoint {
	if n == nil || n.Kind != yaml.SequenceNode {
		return nil
	}
	var pts []colorengine.GradingControlPoint
	for _, item := range n.Content {
		var pair []float64
		if err := item.Decode(&pair); err == nil && len(pair) == 2 {
			pts = append(pts, colorengine.GradingControlPoint{X: pair[0], Y: pair[1]})
		}
	}
	return pts
}

func parseGradingRGBCurveTransform(n *yaml.Node) (*colorengine.Transform, error) {
	var raw struct {
		Red       yaml.Node `yaml:"red"`
		Green     yaml.Node `yaml:"green"`
		Blue      yaml.Node `yaml:"blue"`
		Master    yaml.Node `yaml:"master"`
		Direction string    `yaml:"direction"`
	}
	if err := n.Decode(&raw); err != nil {
		return nil, decodeErr(n, err)
	}
	return &colorengine.Transform{
		Kind: colorengine.KindGradingRGBCurve, Direction: directionOf(raw.Direction),
		GradingRGBCurve: &colorengine.GradingRGBCurveParams{
			Red: toControlPoints(&raw.Red), Green: toControlPoints(&raw.Green),
			Blue: toControlPoints(&raw.Blue), Master: toControlPoints(&raw.Master),
		},
	}, nil
}

func parseGradingToneTransform(n *yaml.Node) (*colorengine.Transform, error) {
	var raw struct {
		Blacks     []float64 `yaml:"blacks"`
		Shadows    []float64 `yaml:"shadows"`
		Midtones   []float64 `yaml:"midtones"`
		Highlights []float64 `yaml:"highlights"`
		Whites     []float64 `yaml:"whites"`
		Direction  string    `yaml:"direction"`
	}
	if err := n.Decode(&raw); err != nil {
		return nil, decodeErr(n, err)
	}
	return &colorengine.Transform{
		Kind: colorengine.KindGradingTone, Direction: directionOf(raw.Direction),
		GradingTone: &colorengine.GradingToneParams{
			Blacks: gamma3Zero(raw.Blacks), Shadows: gamma3Zero(raw.Shadows), Midtones: gamma3Zero(raw.Midtones),
			Highlights: gamma3Zero(raw.Highlights), Whites: gamma3Zero(raw.Whites),
		},
	}, nil
}

func parseGradingHueCurveTransform(n *yaml.Node) (*colorengine.Transform, error) {
	var raw struct {
		Curve     yaml.Node `yaml:"curve"`
		Direction string    `yaml:"direction"`
	}
	if err := n.Decode(&raw); err != nil {
		return nil, decodeErr(n, err)
	}
	return &colorengine.Transform{
		Kind: colorengine.KindGradingHueCurve, Direction: directionOf(raw.Direction),
		GradingHueCurve: &colorengine.GradingHueCurveParams{Curve: toControlPoints(&raw.Curve)},
	}, nil
}

func parseLut1DTransform(n *yaml.Node) (*colorengine.Transform, error) {
	var raw struct {
		DomainMin []float64   `yaml:"domain_min"`
		DomainMax []float64   `yaml:"domain_max"`
		Values    [][]float64 `yaml:"values"`
		Direction string      `yaml:"direction"`
	}
	if err := n.Decode(&raw); err != nil {
		return nil, decodeErr(n, err)
	}
	l := lut.NewLUT1D(len(raw.Values))
	if len(raw.DomainMin) == 3 {
		l.DomainMin = [3]float64{raw.DomainMin[0], raw.DomainMin[1], raw.DomainMin[2]}
	}
	if len(raw.DomainMax) == 3 {
		l.DomainMax = [3]float64{raw.DomainMax[0], raw.DomainMax[1], raw.DomainMax[2]}
	}
	for i, row := range raw.Values {
		if len(row) >= 3 {
			l.Samples[i] = [3]float64{row[0], row[1], row[2]}
		}
	}
	return &colorengine.Transform{Kind: colorengine.KindLUT1D, Direction: directionOf(raw.Direction), LUT1D: l}, nil
}

func parseLut3DTransform(n *yaml.Node) (*colorengine.Transform, error) {
	var raw struct {
		Size      int         `yaml:"size"`
		DomainMin []float64   `yaml:"domain_min"`
		DomainMax []float64   `yaml:"domain_max"`
		Values    [][]float64 `yaml:"values"`
		Direction string      `yaml:"direction"`
	}
	if err := n.Decode(&raw); err != nil {
		return nil, decodeErr(n, err)
	}
	l := lut.NewLUT3D(raw.Size)
	if len(raw.DomainMin) == 3 {
		l.DomainMin = [3]float64{raw.DomainMin[0], raw.DomainMin[1], raw.DomainMin[2]}
	}
	if len(raw.DomainMax) == 3 {
		l.DomainMax = [3]float64{raw.DomainMax[0], raw.DomainMax[1], raw.DomainMax[2]}
	}
	for i, row := range raw.Values {
		if i < len(l.Samples) && len(row) >= 3 {
			l.Samples[i] = [3]float64{row[0], row[1], row[2]}
		}
	}
	return &colorengine.Transform{Kind: colorengine.KindLUT3D, Direction: directionOf(raw.Direction), LUT3D: l}, nil
}

func decodeErr(n *yaml.Node, err error) error {
	return &ConfigError{Kind: ParseError, Line: n.Line, Message: "decoding transform fields", Cause: err}
}

// primariesToMatrix derives a to-reference color matrix from a colorspace's
// CIE xy primaries, using Rec.709 as the reference gamut with Bradford
// chromatic adaptation when the white points differ.
func primariesToMatrix(p yamlPrimaries) ([16]float64, error) {
	chroma := colormath.Chromaticities{
		Red:   colormath.V2{X: p.Red[0], Y: p.Red[1]},
		Green: colormath.V2{X: p.Green[0], Y: p.Green[1]},
		Blue:  colormath.V2{X: p.Blue[0], Y: p.Blue[1]},
		White: colormath.V2{X: p.White[0], Y: p.White[1]},
	}
	ref := colormath.Rec709Chromaticities()
	toXYZ := colormath.RGBtoXYZ(chroma)
	fromXYZ := colormath.XYZtoRGB(ref)
	adapt := colormath.ChromaticAdaptation(chroma.White, ref.White)
	m3 := fromXYZ.Multiply(adapt).Multiply(toXYZ)
	if m3.Determinant() < 1e-8 && m3.Determinant() > -1e-8 {
		return [16]float64{}, &ConfigError{Kind: InvalidPrimaries, Message: "colorspace primaries produce a singular matrix"}
	}
	return colormath.FromMatrix3(m3), nil
}
