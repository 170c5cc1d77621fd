package resolve

import (
	"iter"

	"github.com/agentic-research/targetdiff/internal/graph"
)

// MemberKind tells what a build phase entry wraps.
type MemberKind int

const (
	// MemberFile wraps a file reference or group, or is one itself.
	MemberFile MemberKind = iota
	// MemberProduct wraps a Swift package product.
	MemberProduct
	// MemberMissing is a build file that wraps nothing.
	MemberMissing
)

// Member is an unwrapped build phase entry. ID is the wrapped object, or the
// build file itself for MemberMissing.
type Member struct {
	Kind MemberKind
	ID   string
}

// Unwrap looks through a build file to the object it includes. Ids that are
// not build files, including dangling ones, are returned as MemberFile.
func Unwrap(s *graph.Store, id string) Member {
	n, ok := s.Get(id)
	if !ok || n.Kind != graph.KindBuildFile {
		return Member{Kind: MemberFile, ID: id}
	}
	if ref, ok := n.String("fileRef"); ok {
		return Member{Kind: MemberFile, ID: ref}
	}
	if ref, ok := n.String("productRef"); ok {
		return Member{Kind: MemberProduct, ID: ref}
	}
	return Member{Kind: MemberMissing, ID: id}
}

// PackageSuffix marks entries that name a Swift package product rather than a path.
const PackageSuffix = " (Swift package)"

// MemberOptions controls how Members treats variant groups.
type MemberOptions struct {
	// ExpandVariants yields one path per localized variant instead of the
	// variant group's own path.
	ExpandVariants bool
}

// Members yields one string per build phase entry, in order. A structural
// error is yielded once with an empty string and ends the sequence.
func (r *Resolver) Members(ids []string, opts MemberOptions) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		for _, id := range ids {
			if !r.member(id, opts, yield) {
				return
			}
		}
	}
}

func (r *Resolver) member(id string, opts MemberOptions, yield func(string, error) bool) bool {
	m := Unwrap(r.store, id)
	if m.Kind == MemberMissing {
		return yield(Placeholder(m.ID), nil)
	}

	n, ok := r.store.Get(m.ID)
	switch {
	case ok && n.Kind == graph.KindPackageProductDependency:
		name, _ := n.String("productName")
		return yield(name+PackageSuffix, nil)
	case ok && n.Kind == graph.KindVariantGroup && opts.ExpandVariants:
		groupPath, err := r.Resolve(m.ID)
		if err != nil {
			yield("", err)
			return false
		}
		children, _ := n.IDs("children")
		for _, child := range children {
			p, err := r.ResolveWithFallback(child, groupPath)
			if err != nil {
				yield("", err)
				return false
			}
			if !yield(p, nil) {
				return false
			}
		}
		return true
	}

	p, err := r.Resolve(m.ID)
	if err != nil {
		yield("", err)
		return false
	}
	return yield(p, nil)
}
