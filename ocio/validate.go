package ocio

import (
	"os"
	"path/filepath"
	"regexp"

	"github.com/ssoj13/vfxcore/colorengine"
)

// Severity classifies a validation Diagnostic.
type Severity uint8

const (
	SeverityError Severity = iota
	SeverityWarning
	SeverityInfo
)

func (s Severity) String() string {
	switch s {
	case SeverityError:
		return "Error"
	case SeverityWarning:
		return "Warning"
	case SeverityInfo:
		return "Info"
	default:
		return "Unknown"
	}
}

// Diagnostic is one entry of a Config's structured validation report.
type Diagnostic struct {
	Severity Severity
	Kind     ConfigErrorKind
	Message  string
	Source   string // e.g. "colorspace:aces_cg" or "file_rules"
}

// Validate checks c for cyclic transform references, unresolved colorspace
// references, missing LUT files, and malformed file rules. It never
// returns a single failure — every problem found becomes one Diagnostic,
// letting a caller decide what severity to treat as fatal.
func (c *Config) Validate() []Diagnostic {
	var diags []Diagnostic

	for name, cs := range c.ColorSpaces {
		diags = append(diags, c.validateTransform("colorspace:"+name+":to_reference", cs.ToReference)...)
		diags = append(diags, c.validateTransform("colorspace:"+name+":from_reference", cs.FromReference)...)
	}
	for name, cs := range c.DisplayColorSpaces {
		diags = append(diags, c.validateTransform("display_colorspace:"+name+":to_reference", cs.ToReference)...)
		diags = append(diags, c.validateTransform("display_colorspace:"+name+":from_reference", cs.FromReference)...)
	}
	for name, l := range c.Looks {
		diags = append(diags, c.validateTransform("look:"+name+":transform", l.Transform)...)
		diags = append(diags, c.validateTransform("look:"+name+":inverse_transform", l.InverseTransform)...)
		if _, ok := c.ColorSpaceTransforms(l.ProcessSpace); l.ProcessSpace != "" && !ok {
			diags = append(diags, Diagnostic{
				Severity: SeverityError, Kind: UnknownColorSpace, Source: "look:" + name,
				Message: "process_space \"" + l.ProcessSpace + "\" is not a known colorspace",
			})
		}
	}
	for name, vt := range c.ViewTransforms {
		diags = append(diags, c.validateTransform("view_transform:"+name+":to_reference", vt.ToReference)...)
		diags = append(diags, c.validateTransform("view_transform:"+name+":from_reference", vt.FromReference)...)
	}
	for name, nt := range c.NamedTransforms {
		diags = append(diags, c.validateTransform("named_transform:"+name+":forward", nt.Forward)...)
		diags = append(diags, c.validateTransform("named_transform:"+name+":inverse", nt.Inverse)...)
	}

	diags = append(diags, c.validateFileRules()...)
	diags = append(diags, c.validateFileReferences()...)

	return diags
}

// validateTransform compiles t against c to surface unknown-colorspace and
// cyclic-reference errors the same way Processor compilation would; a nil
// tree is not an error (e.g. an absent from_reference on a reference-space
// colorspace).
func (c *Config) validateTransform(source string, t *colorengine.Transform) []Diagnostic {
	if t == nil {
		return nil
	}
	_, err := colorengine.Compile(t, c)
	if err == nil {
		return nil
	}
	kind := ParseError
	msg := err.Error()
	if te, ok := err.(*colorengine.TransformError); ok {
		if isDepthLimitMessage(te.Message) {
			kind = CyclicReference
		} else {
			kind = UnknownColorSpace
		}
		msg = te.Message
	}
	return []Diagnostic{{Severity: SeverityError, Kind: kind, Source: source, Message: msg}}
}

func isDepthLimitMessage(msg string) bool {
	return len(msg) > 0 && containsFold(msg, "max expansion depth")
}

func containsFold(s, substr string) bool {
	for i := 0; i+len(substr) <= len(s); i++ {
		if equalFold(s[i:i+len(substr)], substr) {
			return true
		}
	}
	return false
}

func equalFold(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		ca, cb := a[i], b[i]
		if 'A' <= ca && ca <= 'Z' {
			ca += 'a' - 'A'
		}
		if 'A' <= cb && cb <= 'Z' {
			cb += 'a' - 'A'
		}
		if ca != cb {
			return false
		}
	}
	return true
}

// validateFileRules checks that the ordered file_rules list ends with the
// mandatory catch-all "Default" rule.
func (c *Config) validateFileRules() []Diagnostic {
	if len(c.FileRules) == 0 {
		return []Diagnostic{{Severity: SeverityError, Kind: InvalidFileRules, Source: "file_rules", Message: "file_rules is empty; a trailing Default rule is required"}}
	}
	last := c.FileRules[len(c.FileRules)-1]
	if !last.IsDefault() {
		return []Diagnostic{{Severity: SeverityError, Kind: InvalidFileRules, Source: "file_rules", Message: "the last file_rules entry must be named \"Default\""}}
	}
	for _, r := range c.FileRules[:len(c.FileRules)-1] {
		if r.IsDefault() {
			return []Diagnostic{{Severity: SeverityError, Kind: InvalidFileRules, Source: "file_rules", Message: "\"Default\" rule must be last"}}
		}
	}
	return nil
}

// validateFileReferences walks every transform tree looking for File
// transforms and reports one Warning per path that cannot be found on any
// search path (including the config's own directory).
func (c *Config) validateFileReferences() []Diagnostic {
	var diags []Diagnostic
	check := func(source string, t *colorengine.Transform) {
		for _, path := range collectFilePaths(t) {
			if !c.fileExists(path) {
				diags = append(diags, Diagnostic{
					Severity: SeverityWarning, Kind: MissingLutFile, Source: source,
					Message: "File transform path not found on any search path: " + path,
				})
			}
		}
	}
	for name, cs := range c.ColorSpaces {
		check("colorspace:"+name, cs.ToReference)
		check("colorspace:"+name, cs.FromReference)
	}
	for name, cs := range c.DisplayColorSpaces {
		check("display_colorspace:"+name, cs.ToReference)
		check("display_colorspace:"+name, cs.FromReference)
	}
	for name, l := range c.Looks {
		check("look:"+name, l.Transform)
		check("look:"+name, l.InverseTransform)
	}
	return diags
}

func collectFilePaths(t *colorengine.Transform) []string {
	if t == nil {
		return nil
	}
	if t.Kind == colorengine.KindFile && t.File != nil {
		return []string{t.File.Path}
	}
	if t.Kind == colorengine.KindGroup {
		var out []string
		for _, child := range t.Group {
			out = append(out, collectFilePaths(child)...)
		}
		return out
	}
	return nil
}

func (c *Config) fileExists(path string) bool {
	if filepath.IsAbs(path) {
		_, err := os.Stat(path)
		return err == nil
	}
	if _, err := os.Stat(path); err == nil {
		return true
	}
	for _, dir := range c.SearchPaths() {
		if _, err := os.Stat(filepath.Join(dir, path)); err == nil {
			return true
		}
	}
	return false
}

// MatchFileRule returns the colorspace name the first matching file_rules
// entry assigns path to; the trailing Default rule always matches if no
// earlier rule does, so a Config with valid file_rules never returns false.
func (c *Config) MatchFileRule(path string) (string, bool) {
	base := filepath.Base(path)
	for _, r := range c.FileRules {
		if r.IsDefault() {
			return r.ColorSpace, true
		}
		if r.Extension != "" && matchExtension(base, r.Extension) {
			return r.ColorSpace, true
		}
		if r.Pattern != "" && matchGlob(base, r.Pattern) {
			return r.ColorSpace, true
		}
		if r.Regex != "" && matchRegexRule(base, r.Regex) {
			return r.ColorSpace, true
		}
	}
	return "", false
}

func matchExtension(name, ext string) bool {
	got := filepath.Ext(name)
	if len(got) > 0 && got[0] == '.' {
		got = got[1:]
	}
	want := ext
	if len(want) > 0 && want[0] == '.' {
		want = want[1:]
	}
	return equalFold(got, want)
}

func matchGlob(name, pattern string) bool {
	ok, err := filepath.Match(pattern, name)
	return err == nil && ok
}

func matchRegexRule(name, pattern string) bool {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return false
	}
	return re.MatchString(name)
}
