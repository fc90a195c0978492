package ocio

import "github.com/ssoj13/vfxcore/colorengine"

// ColorSpaceTransforms implements colorengine.ConfigResolver. A role name
// indirects to the colorspace it names; display colorspaces are resolved
// the same way as scene colorspaces since DisplayView's compiled chain
// ends in a from_reference on the display side.
func (c *Config) ColorSpaceTransforms(name string) (toRef, fromRef *colorengine.Transform, isData bool, found bool) {
	if cs, ok := c.ColorSpaces[name]; ok {
		return cs.ToReference, cs.FromReference, cs.IsData, true
	}
	if cs, ok := c.DisplayColorSpaces[name]; ok {
		return cs.ToReference, cs.FromReference, cs.IsData, true
	}
	if target, ok := c.Roles[name]; ok && target != name {
		return c.ColorSpaceTransforms(target)
	}
	return nil, nil, false, false
}

// Role resolves a role name to the colorspace name it aliases.
func (c *Config) Role(name string) (string, bool) {
	cs, ok := c.Roles[name]
	return cs, ok
}

// LookOps resolves a look name to its process space and forward op tree.
func (c *Config) LookOps(name string) (processSpace string, ops *colorengine.Transform, found bool) {
	l, ok := c.Looks[name]
	if !ok {
		return "", nil, false
	}
	return l.ProcessSpace, l.Transform, true
}

// DisplayViewTransform composes a (display, view) pair into one Group
// transform: an optional look list, the named view_transform's
// from_reference chain, and the display colorspace's from_reference chain.
func (c *Config) DisplayViewTransform(display, view string) (*colorengine.Transform, bool) {
	d, ok := c.Displays[display]
	if !ok {
		return nil, false
	}
	v, ok := findView(d.Views, view)
	if !ok {
		if sv, ok2 := c.SharedViews[view]; ok2 {
			v, ok = sv, true
		}
	}
	if !ok {
		return nil, false
	}

	var group []*colorengine.Transform
	if v.Looks != "" {
		group = append(group, &colorengine.Transform{Kind: colorengine.KindLook, Look: &colorengine.LookParams{Looks: v.Looks}})
	}

	if v.ViewTransform != "" {
		vt, ok := c.ViewTransforms[v.ViewTransform]
		if !ok {
			return nil, false
		}
		if vt.FromReference != nil {
			group = append(group, vt.FromReference)
		}
		dcs, ok := c.displayColorSpace(v.DisplayColorSpace)
		if !ok {
			return nil, false
		}
		if dcs.FromReference != nil {
			group = append(group, dcs.FromReference)
		}
		return &colorengine.Transform{Kind: colorengine.KindGroup, Group: group}, true
	}

	// Plain colorspace view: no view_transform, the view's ColorSpace
	// field names a full scene-to-display colorspace directly.
	dcs, ok := c.displayColorSpace(v.ColorSpace)
	if !ok {
		return nil, false
	}
	if dcs.FromReference != nil {
		group = append(group, dcs.FromReference)
	}
	return &colorengine.Transform{Kind: colorengine.KindGroup, Group: group}, true
}

func (c *Config) displayColorSpace(name string) (*ColorSpace, bool) {
	if cs, ok := c.DisplayColorSpaces[name]; ok {
		return cs, true
	}
	if cs, ok := c.ColorSpaces[name]; ok {
		return cs, true
	}
	return nil, false
}

func findView(views []View, name string) (View, bool) {
	for _, v := range views {
		if v.Name == name {
			return v, true
		}
	}
	return View{}, false
}

// ContextVar resolves a $NAME reference against the config's context map.
func (c *Config) ContextVar(name string) (string, bool) {
	v, ok := c.Context[name]
	return v, ok
}

// SearchPaths lists directories File transform paths resolve against, in
// order, including the config's own directory as the final fallback.
func (c *Config) SearchPaths() []string {
	if c.BaseDir == "" {
		return c.SearchPath
	}
	out := make([]string, 0, len(c.SearchPath)+1)
	out = append(out, c.SearchPath...)
	out = append(out, c.BaseDir)
	return out
}
