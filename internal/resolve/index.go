// Package resolve computes project-relative paths for the file and group
// objects of a project graph.
//
// The project format only stores forward child lists, so ancestry is
// recovered by inverting them once (BuildIndex) before any path is resolved.
// A Resolver then walks that inferred ancestry, honouring each node's source
// tree, and memoizes the paths of groups it has visited.
package resolve

import (
	"slices"

	"github.com/agentic-research/targetdiff/internal/graph"
)

// KnownRoots are the source trees that anchor a node at a build variable
// instead of its enclosing group.
var KnownRoots = []string{"SDKROOT", "SOURCE_ROOT", "DEVELOPER_DIR", "BUILT_PRODUCTS_DIR"}

// GroupSourceTree marks a node whose path is relative to its enclosing group.
const GroupSourceTree = "<group>"

// IsKnownRoot reports whether sourceTree is one of KnownRoots.
func IsKnownRoot(sourceTree string) bool {
	return slices.Contains(KnownRoots, sourceTree)
}

// RootAlias returns the path a known root source tree resolves to.
func RootAlias(sourceTree string) string {
	return "$(" + sourceTree + ")"
}

// Index is the inverted group hierarchy of a project. It is built once and
// never modified afterwards.
type Index struct {
	parents map[string]string // child id → enclosing group id
	aliases map[string]string // group id → fixed path
}

// BuildIndex scans every group of the store once.
// A child listed by several groups is attributed to the last one scanned.
func BuildIndex(s *graph.Store) *Index {
	ix := &Index{
		parents: make(map[string]string),
		aliases: make(map[string]string),
	}

	ix.aliases[s.RootObject()] = ""
	if project, ok := s.Project(); ok {
		if main, ok := project.String("mainGroup"); ok {
			ix.aliases[main] = ""
		}
	}

	for _, group := range s.ByKind(graph.KindGroup) {
		if children, ok := group.IDs("children"); ok {
			for _, child := range children {
				ix.parents[child] = group.ID
			}
		}
		if tree, _ := group.String("sourceTree"); IsKnownRoot(tree) {
			ix.aliases[group.ID] = RootAlias(tree)
		}
	}
	return ix
}

// Parent returns the group that lists id as a child.
func (ix *Index) Parent(id string) (string, bool) {
	p, ok := ix.parents[id]
	return p, ok
}

// Alias returns the fixed path registered for a group, if any.
func (ix *Index) Alias(id string) (string, bool) {
	p, ok := ix.aliases[id]
	return p, ok
}
