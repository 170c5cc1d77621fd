package graph

import (
	"slices"
	"strings"
)

// Kind is the tagged type of a project object, derived from its isa.
type Kind int

const (
	KindUnknown Kind = iota
	KindProject
	KindGroup
	KindFileReference
	KindVariantGroup
	KindVersionGroup
	KindBuildFile
	KindTarget
	KindBuildPhase
	KindBuildConfigurationList
	KindBuildConfiguration
	KindTargetDependency
	KindContainerItemProxy
	KindPackageProductDependency
	KindPackageReference
)

var kindNames = [...]string{
	KindUnknown:                  "Unknown",
	KindProject:                  "Project",
	KindGroup:                    "Group",
	KindFileReference:            "FileReference",
	KindVariantGroup:             "VariantGroup",
	KindVersionGroup:             "VersionGroup",
	KindBuildFile:                "BuildFile",
	KindTarget:                   "Target",
	KindBuildPhase:               "BuildPhase",
	KindBuildConfigurationList:   "BuildConfigurationList",
	KindBuildConfiguration:       "BuildConfiguration",
	KindTargetDependency:         "TargetDependency",
	KindContainerItemProxy:       "ContainerItemProxy",
	KindPackageProductDependency: "PackageProductDependency",
	KindPackageReference:         "PackageReference",
}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return "Unknown"
	}
	return kindNames[k]
}

// KindOf maps an isa value to its Kind.
func KindOf(isa string) Kind {
	switch isa {
	case "PBXProject":
		return KindProject
	case "PBXGroup":
		return KindGroup
	case "PBXFileReference":
		return KindFileReference
	case "PBXVariantGroup":
		return KindVariantGroup
	case "XCVersionGroup":
		return KindVersionGroup
	case "PBXBuildFile":
		return KindBuildFile
	case "PBXNativeTarget", "PBXAggregateTarget", "PBXLegacyTarget":
		return KindTarget
	case "XCConfigurationList":
		return KindBuildConfigurationList
	case "XCBuildConfiguration":
		return KindBuildConfiguration
	case "PBXTargetDependency":
		return KindTargetDependency
	case "PBXContainerItemProxy":
		return KindContainerItemProxy
	case "XCSwiftPackageProductDependency":
		return KindPackageProductDependency
	case "XCRemoteSwiftPackageReference", "XCLocalSwiftPackageReference":
		return KindPackageReference
	}
	if strings.HasSuffix(isa, "BuildPhase") {
		return KindBuildPhase
	}
	return KindUnknown
}

// PhaseKind distinguishes the build phases of a target.
type PhaseKind int

const (
	PhaseOther PhaseKind = iota
	PhaseSources
	PhaseResources
	PhaseFrameworks
	PhaseHeaders
	PhaseShellScript
	PhaseCopyFiles
	PhaseRez
)

// PhaseKindOf maps a build phase isa to its PhaseKind.
func PhaseKindOf(isa string) PhaseKind {
	switch isa {
	case "PBXSourcesBuildPhase":
		return PhaseSources
	case "PBXResourcesBuildPhase":
		return PhaseResources
	case "PBXFrameworksBuildPhase":
		return PhaseFrameworks
	case "PBXHeadersBuildPhase":
		return PhaseHeaders
	case "PBXShellScriptBuildPhase":
		return PhaseShellScript
	case "PBXCopyFilesBuildPhase":
		return PhaseCopyFiles
	case "PBXRezBuildPhase":
		return PhaseRez
	}
	return PhaseOther
}

// Node is one object of the project graph.
// Attrs holds the raw attribute values: strings, id lists ([]any of strings)
// and nested maps. References to other nodes are ids and may dangle.
type Node struct {
	ID    string
	ISA   string
	Kind  Kind
	Attrs map[string]any
}

// NewNode builds a node from a decoded object dictionary.
func NewNode(id string, attrs map[string]any) *Node {
	isa, _ := attrs["isa"].(string)
	return &Node{ID: id, ISA: isa, Kind: KindOf(isa), Attrs: attrs}
}

// Has reports whether the attribute is present.
func (n *Node) Has(key string) bool {
	_, ok := n.Attrs[key]
	return ok
}

// String returns a scalar attribute.
func (n *Node) String(key string) (string, bool) {
	s, ok := n.Attrs[key].(string)
	return s, ok
}

// IDs returns an id-list attribute. Non-string entries are skipped.
// The second result is false when the attribute is absent or not a list.
func (n *Node) IDs(key string) ([]string, bool) {
	raw, ok := n.Attrs[key].([]any)
	if !ok {
		return nil, false
	}
	ids := make([]string, 0, len(raw))
	for _, v := range raw {
		if s, ok := v.(string); ok {
			ids = append(ids, s)
		}
	}
	return ids, true
}

// Map returns a nested dictionary attribute.
func (n *Node) Map(key string) (map[string]any, bool) {
	m, ok := n.Attrs[key].(map[string]any)
	return m, ok
}

// PhaseKind returns the phase kind for build phase nodes, PhaseOther otherwise.
func (n *Node) PhaseKind() PhaseKind {
	if n.Kind != KindBuildPhase {
		return PhaseOther
	}
	return PhaseKindOf(n.ISA)
}

// Store is the immutable id → node table of one project.
type Store struct {
	nodes      map[string]*Node
	byKind     map[Kind][]*Node // ascending id order
	rootObject string
	document   map[string]struct{} // ids owned directly by the project document
}

// NewStore indexes nodes. Later duplicates of an id replace earlier ones.
func NewStore(rootObject string, nodes []*Node) *Store {
	s := &Store{
		nodes:      make(map[string]*Node, len(nodes)),
		byKind:     make(map[Kind][]*Node),
		rootObject: rootObject,
		document:   map[string]struct{}{rootObject: {}},
	}
	for _, n := range nodes {
		s.nodes[n.ID] = n
	}

	ids := make([]string, 0, len(s.nodes))
	for id := range s.nodes {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	for _, id := range ids {
		n := s.nodes[id]
		s.byKind[n.Kind] = append(s.byKind[n.Kind], n)
	}

	if project, ok := s.Project(); ok {
		for _, key := range []string{"mainGroup", "productRefGroup"} {
			if id, ok := project.String(key); ok {
				s.document[id] = struct{}{}
			}
		}
		if refs, ok := project.Attrs["projectReferences"].([]any); ok {
			for _, r := range refs {
				m, ok := r.(map[string]any)
				if !ok {
					continue
				}
				if id, ok := m["ProductGroup"].(string); ok {
					s.document[id] = struct{}{}
				}
			}
		}
	}
	return s
}

// Get looks up a node by id.
func (s *Store) Get(id string) (*Node, bool) {
	n, ok := s.nodes[id]
	return n, ok
}

// Len returns the number of nodes.
func (s *Store) Len() int {
	return len(s.nodes)
}

// ByKind returns all nodes of a kind in ascending id order.
// The returned slice must not be modified.
func (s *Store) ByKind(k Kind) []*Node {
	return s.byKind[k]
}

// RootObject returns the id of the project object.
func (s *Store) RootObject() string {
	return s.rootObject
}

// Project returns the root project object.
func (s *Store) Project() (*Node, bool) {
	n, ok := s.nodes[s.rootObject]
	if !ok || n.Kind != KindProject {
		return nil, false
	}
	return n, true
}

// OwnedByDocument reports whether id is the root object or is referenced
// directly by it as a top-level group, outside any enclosing group.
func (s *Store) OwnedByDocument(id string) bool {
	_, ok := s.document[id]
	return ok
}

// TargetsNamed returns every target whose name matches.
func (s *Store) TargetsNamed(name string) []*Node {
	var out []*Node
	for _, n := range s.byKind[KindTarget] {
		if v, _ := n.String("name"); v == name {
			out = append(out, n)
		}
	}
	return out
}

// TargetNames returns the names of all targets, sorted.
func (s *Store) TargetNames() []string {
	var names []string
	for _, n := range s.byKind[KindTarget] {
		if v, ok := n.String("name"); ok {
			names = append(names, v)
		}
	}
	slices.Sort(names)
	return names
}
