package ocio

import (
	"math"
	"strings"
	"testing"

	"github.com/ssoj13/vfxcore/colorengine"
)

func almostEqual(a, b float64) bool { return math.Abs(a-b) < 1e-4 }

const sampleConfig = `
ocio_profile_version: 2
name: test-config
search_path: "luts"
roles:
  scene_linear: linear
file_rules:
  - name: Default
    colorspace: linear
colorspaces:
  - name: linear
    family: raw
    isdata: false
  - name: gamma22
    family: display
    to_reference: !<ExponentTransform> {value: [2.2, 2.2, 2.2]}
    from_reference: !<ExponentTransform> {value: [0.4545454545, 0.4545454545, 0.4545454545]}
looks:
  - name: double
    process_space: linear
    transform: !<MatrixTransform> {matrix: [2,0,0,0, 0,2,0,0, 0,0,2,0, 0,0,0,1]}
displays:
  sRGB:
    - name: Raw
      colorspace: gamma22
`

func TestParseBasicConfig(t *testing.T) {
	cfg, err := Parse(strings.NewReader(sampleConfig))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if cfg.Name != "test-config" {
		t.Errorf("Name = %q, want test-config", cfg.Name)
	}
	if len(cfg.SearchPath) != 1 || cfg.SearchPath[0] != "luts" {
		t.Errorf("SearchPath = %v, want [luts]", cfg.SearchPath)
	}
	if _, ok := cfg.ColorSpaces["linear"]; !ok {
		t.Fatal("missing colorspace \"linear\"")
	}
	if _, ok := cfg.ColorSpaces["gamma22"]; !ok {
		t.Fatal("missing colorspace \"gamma22\"")
	}
	if _, ok := cfg.Looks["double"]; !ok {
		t.Fatal("missing look \"double\"")
	}
}

func TestConfigResolverColorSpaceCompile(t *testing.T) {
	cfg, err := Parse(strings.NewReader(sampleConfig))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	tr := &colorengine.Transform{Kind: colorengine.KindColorSpace, ColorSpace: &colorengine.ColorSpaceParams{Src: "linear", Dst: "gamma22"}}
	proc, err := colorengine.Compile(tr, cfg)
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	buf := []float32{0.5, 0.5, 0.5}
	if err := proc.Apply(buf, 3); err != nil {
		t.Fatalf("apply: %v", err)
	}
	want := math.Pow(0.5, 0.4545454545)
	if !almostEqual(float64(buf[0]), want) {
		t.Errorf("gamma22 r = %v, want %v", buf[0], want)
	}
}

func TestConfigResolverLookCompile(t *testing.T) {
	cfg, err := Parse(strings.NewReader(sampleConfig))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	tr := &colorengine.Transform{Kind: colorengine.KindLook, Look: &colorengine.LookParams{Looks: "double"}}
	proc, err := colorengine.Compile(tr, cfg)
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	buf := []float32{0.25, 0.25, 0.25}
	if err := proc.Apply(buf, 3); err != nil {
		t.Fatalf("apply: %v", err)
	}
	if !almostEqual(float64(buf[0]), 0.5) {
		t.Errorf("look double r = %v, want 0.5", buf[0])
	}
}

func TestConfigResolverDisplayViewCompile(t *testing.T) {
	cfg, err := Parse(strings.NewReader(sampleConfig))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	tr := &colorengine.Transform{Kind: colorengine.KindDisplayView, DisplayView: &colorengine.DisplayViewParams{Display: "sRGB", View: "Raw"}}
	proc, err := colorengine.Compile(tr, cfg)
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	buf := []float32{0.5, 0.5, 0.5}
	if err := proc.Apply(buf, 3); err != nil {
		t.Fatalf("apply: %v", err)
	}
	want := math.Pow(0.5, 0.4545454545)
	if !almostEqual(float64(buf[0]), want) {
		t.Errorf("display/view r = %v, want %v", buf[0], want)
	}
}

func TestRoleIndirection(t *testing.T) {
	cfg, err := Parse(strings.NewReader(sampleConfig))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	_, _, _, found := cfg.ColorSpaceTransforms("scene_linear")
	if !found {
		t.Fatal("expected role scene_linear to resolve via indirection")
	}
}

func TestValidateDetectsCyclicReference(t *testing.T) {
	cfg := NewConfig()
	cfg.ColorSpaces["a"] = &ColorSpace{Name: "a", ToReference: &colorengine.Transform{
		Kind: colorengine.KindColorSpace, ColorSpace: &colorengine.ColorSpaceParams{Src: "a", Dst: "b"},
	}}
	cfg.ColorSpaces["b"] = &ColorSpace{Name: "b", ToReference: &colorengine.Transform{
		Kind: colorengine.KindColorSpace, ColorSpace: &colorengine.ColorSpaceParams{Src: "b", Dst: "a"},
	}}
	cfg.FileRules = []FileRule{{Name: "Default", ColorSpace: "a"}}

	diags := cfg.Validate()
	found := false
	for _, d := range diags {
		if d.Kind == CyclicReference {
			found = true
		}
	}
	if !found {
		t.Errorf("expected a CyclicReference diagnostic, got %+v", diags)
	}
}

func TestValidateReportsMissingFileRulesDefault(t *testing.T) {
	cfg := NewConfig()
	cfg.FileRules = []FileRule{{Name: "exr", Extension: "exr", ColorSpace: "linear"}}
	diags := cfg.Validate()
	found := false
	for _, d := range diags {
		if d.Kind == InvalidFileRules {
			found = true
		}
	}
	if !found {
		t.Errorf("expected an InvalidFileRules diagnostic, got %+v", diags)
	}
}

func TestValidateReportsMissingLutFile(t *testing.T) {
	cfg := NewConfig()
	cfg.ColorSpaces["graded"] = &ColorSpace{Name: "graded", ToReference: &colorengine.Transform{
		Kind: colorengine.KindFile, File: &colorengine.FileParams{Path: "/nonexistent/path/grade.cube"},
	}}
	cfg.FileRules = []FileRule{{Name: "Default", ColorSpace: "graded"}}
	diags := cfg.Validate()
	found := false
	for _, d := range diags {
		if d.Kind == MissingLutFile {
			found = true
		}
	}
	if !found {
		t.Errorf("expected a MissingLutFile diagnostic, got %+v", diags)
	}
}

func TestMatchFileRuleFallsBackToDefault(t *testing.T) {
	cfg := NewConfig()
	cfg.FileRules = []FileRule{
		{Name: "exr", Extension: "exr", ColorSpace: "aces_cg"},
		{Name: "Default", ColorSpace: "linear"},
	}
	if cs, ok := cfg.MatchFileRule("plate.exr"); !ok || cs != "aces_cg" {
		t.Errorf("MatchFileRule(plate.exr) = (%q,%v), want (aces_cg,true)", cs, ok)
	}
	if cs, ok := cfg.MatchFileRule("plate.png"); !ok || cs != "linear" {
		t.Errorf("MatchFileRule(plate.png) = (%q,%v), want (linear,true)", cs, ok)
	}
}

func TestContextVarSubstitutionInFileTransform(t *testing.T) {
	cfg := NewConfig()
	cfg.Context["SHOW"] = "myshow"
	tr := &colorengine.Transform{Kind: colorengine.KindFile, File: &colorengine.FileParams{Path: "/luts/$SHOW/grade.cube"}}
	if _, err := colorengine.Compile(tr, cfg); err == nil {
		t.Fatal("expected compile to fail opening a nonexistent substituted path, not an UnresolvedVar error")
	}

	tr2 := &colorengine.Transform{Kind: colorengine.KindFile, File: &colorengine.FileParams{Path: "/luts/$MISSING/grade.cube"}}
	_, err := colorengine.Compile(tr2, cfg)
	if err == nil || !strings.Contains(err.Error(), "unresolved context variable") {
		t.Fatalf("expected unresolved context variable error, got %v", err)
	}
}
