// Package describe assembles the comparable descriptor of a build target.
package describe

import (
	"errors"
	"fmt"
	"maps"
	"slices"

	"github.com/agentic-research/targetdiff/api"
	"github.com/agentic-research/targetdiff/internal/graph"
	"github.com/agentic-research/targetdiff/internal/resolve"
	"github.com/rs/zerolog/log"
)

// Target lookup failures.
var (
	ErrTargetNotFound  = errors.New("target not found")
	ErrAmbiguousTarget = errors.New("ambiguous target name")
)

// FindTarget returns the only target called name.
func FindTarget(s *graph.Store, name string) (*graph.Node, error) {
	targets := s.TargetsNamed(name)
	switch len(targets) {
	case 0:
		return nil, fmt.Errorf("%w: %s", ErrTargetNotFound, name)
	case 1:
		return targets[0], nil
	default:
		return nil, fmt.Errorf("%w: %s matches %d targets", ErrAmbiguousTarget, name, len(targets))
	}
}

// Describe builds the descriptor of target. It only reads s and ix, so
// targets of the same project may be described concurrently.
// A structural error in the project aborts the whole descriptor.
func Describe(s *graph.Store, ix *resolve.Index, target *graph.Node) (*api.Descriptor, error) {
	b := &builder{
		store:    s,
		resolver: resolve.NewResolver(s, ix),
		target:   target,
	}
	name, _ := target.String("name")
	d, err := b.build(name)
	if err != nil {
		return nil, fmt.Errorf("describe %s: %w", name, err)
	}
	log.Debug().
		Str("target", name).
		Int("sources", len(d.Files.Sources)).
		Int("resources", len(d.Files.Resources)).
		Int("frameworks", len(d.Files.Frameworks)).
		Msg("described target")
	return d, nil
}

type builder struct {
	store    *graph.Store
	resolver *resolve.Resolver
	target   *graph.Node
}

func (b *builder) build(name string) (*api.Descriptor, error) {
	d := &api.Descriptor{Name: name}
	d.Type, _ = b.target.String("productType")

	var err error
	if d.Configurations, err = b.configurations(); err != nil {
		return nil, err
	}
	if d.Phases, err = b.phases(); err != nil {
		return nil, err
	}
	d.Dependencies = b.dependencies()
	if d.Files, err = b.files(); err != nil {
		return nil, err
	}
	return d, nil
}

func (b *builder) node(id string) (*graph.Node, bool) {
	n, ok := b.store.Get(id)
	if !ok {
		log.Debug().Str("id", id).Msg("dangling reference")
	}
	return n, ok
}

func (b *builder) configurations() (map[string]api.Configuration, error) {
	listID, ok := b.target.String("buildConfigurationList")
	if !ok {
		return nil, nil
	}
	list, ok := b.node(listID)
	if !ok {
		return nil, nil
	}
	ids, ok := list.IDs("buildConfigurations")
	if !ok {
		return nil, nil
	}

	confs := make(map[string]api.Configuration, len(ids))
	for _, id := range ids {
		conf, ok := b.node(id)
		if !ok {
			continue
		}
		name, ok := conf.String("name")
		if !ok {
			continue
		}
		c := api.Configuration{}
		if settings, ok := conf.Map("buildSettings"); ok {
			c.BuildSettings = maps.Clone(settings)
		}
		if ref, ok := conf.String("baseConfigurationReference"); ok {
			p, err := b.resolver.Resolve(ref)
			if err != nil {
				return nil, fmt.Errorf("configuration %s: %w", name, err)
			}
			c.BaseConfiguration = p
		}
		confs[name] = c
	}
	return confs, nil
}

func (b *builder) buildPhases() []*graph.Node {
	ids, _ := b.target.IDs("buildPhases")
	phases := make([]*graph.Node, 0, len(ids))
	for _, id := range ids {
		if phase, ok := b.node(id); ok {
			phases = append(phases, phase)
		}
	}
	return phases
}

func (b *builder) phases() ([]api.Phase, error) {
	out := []api.Phase{}
	for _, phase := range b.buildPhases() {
		kind := phase.PhaseKind()
		switch kind {
		case graph.PhaseSources, graph.PhaseResources, graph.PhaseFrameworks:
			continue
		}

		p := api.Phase{Type: phase.ISA}
		p.Name, _ = phase.String("name")
		switch kind {
		case graph.PhaseShellScript:
			script, _ := phase.String("shellScript")
			p.Script = &script
			p.InputPaths, _ = phase.IDs("inputPaths")
			p.OutputPaths, _ = phase.IDs("outputPaths")
		case graph.PhaseCopyFiles:
			ids, _ := phase.IDs("files")
			files, err := b.members(ids, false)
			if err != nil {
				return nil, fmt.Errorf("phase %s: %w", phase.ID, err)
			}
			p.Files = files
			p.DstPath, _ = phase.String("dstPath")
			p.DstSubfolderSpec, _ = phase.String("dstSubfolderSpec")
		}
		out = append(out, p)
	}
	return out, nil
}

func (b *builder) dependencies() []api.Dependency {
	out := []api.Dependency{}

	ids, _ := b.target.IDs("dependencies")
	for _, id := range ids {
		dep, ok := b.node(id)
		if !ok {
			continue
		}
		d := api.Dependency{Type: dep.ISA}
		if dep.Kind == graph.KindTargetDependency {
			d.Target = b.dependencyTarget(dep)
		}
		out = append(out, d)
	}

	ids, _ = b.target.IDs("packageProductDependencies")
	for _, id := range ids {
		dep, ok := b.node(id)
		if !ok {
			continue
		}
		d := api.Dependency{Type: dep.ISA}
		if dep.Kind == graph.KindPackageProductDependency {
			d.ProductName, _ = dep.String("productName")
			if pkgID, ok := dep.String("package"); ok {
				if pkg, ok := b.node(pkgID); ok {
					d.URL, _ = pkg.String("repositoryURL")
					d.Path, _ = pkg.String("relativePath")
				}
			}
		}
		out = append(out, d)
	}
	return out
}

// dependencyTarget names the target a dependency points at. Dependencies on
// targets of another project only carry the name through their proxy.
func (b *builder) dependencyTarget(dep *graph.Node) string {
	if id, ok := dep.String("target"); ok {
		t, ok := b.node(id)
		if !ok {
			return resolve.Placeholder(id)
		}
		name, _ := t.String("name")
		return name
	}
	if id, ok := dep.String("targetProxy"); ok {
		if proxy, ok := b.node(id); ok {
			name, _ := proxy.String("remoteInfo")
			return name
		}
		return resolve.Placeholder(id)
	}
	return ""
}

func (b *builder) files() (api.Files, error) {
	files := api.Files{
		Sources:    []string{},
		Resources:  []string{},
		Frameworks: []string{},
	}
	for _, phase := range b.buildPhases() {
		var dst *[]string
		switch phase.PhaseKind() {
		case graph.PhaseSources:
			dst = &files.Sources
		case graph.PhaseResources:
			dst = &files.Resources
		case graph.PhaseFrameworks:
			dst = &files.Frameworks
		default:
			continue
		}
		ids, ok := phase.IDs("files")
		if !ok {
			continue
		}
		paths, err := b.members(ids, true)
		if err != nil {
			return api.Files{}, fmt.Errorf("phase %s: %w", phase.ID, err)
		}
		*dst = append(*dst, paths...)
	}

	slices.Sort(files.Sources)
	slices.Sort(files.Resources)
	slices.Sort(files.Frameworks)
	return files, nil
}

func (b *builder) members(ids []string, expandVariants bool) ([]string, error) {
	out := []string{}
	for p, err := range b.resolver.Members(ids, resolve.MemberOptions{ExpandVariants: expandVariants}) {
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}
