package resolve

import (
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/RoaringBitmap/roaring"
	"github.com/agentic-research/targetdiff/internal/graph"
	"github.com/rs/zerolog/log"
)

// Structural violations. They abort the extraction of a target; dangling
// references never produce one of these.
var (
	// ErrUnexpectedKind is returned when a path is requested for an object
	// that is not a file reference or a group.
	ErrUnexpectedKind = errors.New("unexpected object kind")

	// ErrUnknownSourceTree is returned for a source tree that is neither a
	// known root nor group-relative.
	ErrUnknownSourceTree = errors.New("unknown source tree")

	// ErrUnknownParent is returned when a group-relative object has no
	// enclosing group and is not owned by the project document.
	ErrUnknownParent = errors.New("unknown parent")

	// ErrCyclicReference is returned when an object is its own ancestor.
	ErrCyclicReference = errors.New("cyclic group reference")
)

// Placeholder is the path reported for a reference that does not resolve.
func Placeholder(id string) string {
	return "(null) " + id
}

// Resolver resolves object ids to project-relative paths.
// It is not safe for concurrent use; create one per goroutine. Any number of
// resolvers may share the same store and index.
type Resolver struct {
	store *graph.Store
	index *Index
	cache map[string]string // group id → resolved path

	// In-progress guard. Ids are interned to uint32 so the set of groups on
	// the current ancestry walk fits in a bitmap.
	intern     map[string]uint32
	inProgress *roaring.Bitmap
}

// NewResolver returns a resolver with an empty cache over s and ix.
func NewResolver(s *graph.Store, ix *Index) *Resolver {
	return &Resolver{
		store:      s,
		index:      ix,
		cache:      make(map[string]string),
		intern:     make(map[string]uint32),
		inProgress: roaring.New(),
	}
}

// Resolve returns the normalized path of id.
func (r *Resolver) Resolve(id string) (string, error) {
	return r.resolve(id, "", false)
}

// ResolveWithFallback resolves id, using fallbackParent as the parent path
// when id has no enclosing group of its own. Variant group members rely on it.
func (r *Resolver) ResolveWithFallback(id, fallbackParent string) (string, error) {
	return r.resolve(id, fallbackParent, true)
}

func (r *Resolver) cached(id string) (string, bool) {
	if p, ok := r.index.Alias(id); ok {
		return p, true
	}
	p, ok := r.cache[id]
	return p, ok
}

func (r *Resolver) key(id string) uint32 {
	k, ok := r.intern[id]
	if !ok {
		k = uint32(len(r.intern))
		r.intern[id] = k
	}
	return k
}

func (r *Resolver) resolve(id, fallback string, hasFallback bool) (string, error) {
	if p, ok := r.cached(id); ok {
		return p, nil
	}

	n, ok := r.store.Get(id)
	if !ok {
		log.Debug().Str("id", id).Msg("dangling reference")
		return Placeholder(id), nil
	}

	switch n.Kind {
	case graph.KindFileReference, graph.KindGroup, graph.KindVersionGroup, graph.KindVariantGroup:
	default:
		return "", fmt.Errorf("%w: %s is %s", ErrUnexpectedKind, id, n.ISA)
	}

	k := r.key(id)
	if r.inProgress.Contains(k) {
		return "", fmt.Errorf("%w: %s", ErrCyclicReference, id)
	}
	r.inProgress.Add(k)
	defer r.inProgress.Remove(k)

	parent, usedFallback, err := r.parentPath(n, fallback, hasFallback)
	if err != nil {
		return "", err
	}

	p := parent
	if own, ok := n.String("path"); ok {
		if strings.HasPrefix(own, "/") {
			p = own
		} else {
			p = path.Join(parent, own)
		}
	}
	p = path.Clean(p)

	// A path built on a caller's fallback is only valid for that caller.
	if n.Kind == graph.KindGroup && !usedFallback {
		r.cache[id] = p
	}
	return p, nil
}

func (r *Resolver) parentPath(n *graph.Node, fallback string, hasFallback bool) (string, bool, error) {
	tree, _ := n.String("sourceTree")
	switch {
	case IsKnownRoot(tree):
		return RootAlias(tree), false, nil
	case tree == GroupSourceTree:
		if parent, ok := r.index.Parent(n.ID); ok {
			p, err := r.resolve(parent, "", false)
			return p, false, err
		}
		if hasFallback {
			return fallback, true, nil
		}
		if r.store.OwnedByDocument(n.ID) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("%w: %s", ErrUnknownParent, n.ID)
	default:
		return "", false, fmt.Errorf("%w: %q on %s", ErrUnknownSourceTree, tree, n.ID)
	}
}
