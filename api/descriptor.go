package api

// Descriptor is the normalized description of one build target.
// Two descriptors are meant to be compared after Tree is serialized, so every
// list that has no meaningful order is sorted by the builder.
type Descriptor struct {
	// Name of the target.
	Name string
	// Type is the product type, empty for aggregate targets.
	Type string
	// Configurations by name. Nil when the target has no configuration list.
	Configurations map[string]Configuration
	// Phases other than sources, resources and frameworks, in build order.
	Phases []Phase
	// Dependencies on other targets and on Swift packages.
	Dependencies []Dependency
	// Files grouped by the phase that builds them.
	Files Files
}

// Configuration is one build configuration of a target.
type Configuration struct {
	// BuildSettings as written in the project file.
	BuildSettings map[string]any
	// BaseConfiguration is the resolved path of the xcconfig file the
	// configuration is based on, if any.
	BaseConfiguration string
}

// Phase is a script, copy or other build phase.
type Phase struct {
	Name string
	Type string // isa of the phase
	// Script is set for shell script phases.
	Script *string
	// InputPaths and OutputPaths of shell script phases.
	InputPaths  []string
	OutputPaths []string
	// Files is set for copy files phases.
	Files []string
	// Destination of copy files phases.
	DstPath          string
	DstSubfolderSpec string
}

// Dependency of a target.
type Dependency struct {
	Type        string // isa of the dependency record
	Target      string // depended-on target name
	ProductName string // Swift package product name
	URL         string // remote package repository
	Path        string // local package location
}

// Files are the sorted member paths of the sources, resources and frameworks phases.
type Files struct {
	Sources    []string
	Resources  []string
	Frameworks []string
}

// Tree converts the descriptor to plain maps, slices and scalars, the form
// that is serialized and compared.
func (d *Descriptor) Tree() map[string]any {
	t := map[string]any{
		"name":         d.Name,
		"buildPhases":  phasesTree(d.Phases),
		"dependencies": dependenciesTree(d.Dependencies),
		"files": map[string]any{
			"sources":    anySlice(d.Files.Sources),
			"resources":  anySlice(d.Files.Resources),
			"frameworks": anySlice(d.Files.Frameworks),
		},
	}
	if d.Type != "" {
		t["type"] = d.Type
	}
	if d.Configurations != nil {
		confs := make(map[string]any, len(d.Configurations))
		for name, c := range d.Configurations {
			ct := map[string]any{"buildSettings": c.BuildSettings}
			if c.BuildSettings == nil {
				ct["buildSettings"] = map[string]any{}
			}
			if c.BaseConfiguration != "" {
				ct["baseConfiguration"] = c.BaseConfiguration
			}
			confs[name] = ct
		}
		t["buildConfigurations"] = confs
	}
	return t
}

func phasesTree(phases []Phase) []any {
	out := make([]any, 0, len(phases))
	for _, p := range phases {
		pt := map[string]any{"type": p.Type}
		if p.Name != "" {
			pt["name"] = p.Name
		}
		if p.Script != nil {
			pt["script"] = *p.Script
		}
		if p.InputPaths != nil {
			pt["inputPaths"] = anySlice(p.InputPaths)
		}
		if p.OutputPaths != nil {
			pt["outputPaths"] = anySlice(p.OutputPaths)
		}
		if p.Files != nil {
			pt["files"] = anySlice(p.Files)
		}
		if p.DstPath != "" {
			pt["dstPath"] = p.DstPath
		}
		if p.DstSubfolderSpec != "" {
			pt["dstSubfolderSpec"] = p.DstSubfolderSpec
		}
		out = append(out, pt)
	}
	return out
}

func dependenciesTree(deps []Dependency) []any {
	out := make([]any, 0, len(deps))
	for _, d := range deps {
		dt := map[string]any{"type": d.Type}
		for key, v := range map[string]string{
			"target":      d.Target,
			"productName": d.ProductName,
			"url":         d.URL,
			"path":        d.Path,
		} {
			if v != "" {
				dt[key] = v
			}
		}
		out = append(out, dt)
	}
	return out
}

func anySlice(v []string) []any {
	out := make([]any, len(v))
	for i, s := range v {
		out[i] = s
	}
	return out
}
