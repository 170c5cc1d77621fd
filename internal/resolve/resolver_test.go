package resolve

import (
	"testing"

	"github.com/agentic-research/targetdiff/internal/graph"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type objects map[string]map[string]any

func ids(v ...string) []any {
	out := make([]any, len(v))
	for i, s := range v {
		out[i] = s
	}
	return out
}

func newStore(t *testing.T, objs objects) *graph.Store {
	t.Helper()
	nodes := make([]*graph.Node, 0, len(objs))
	for id, attrs := range objs {
		nodes = append(nodes, graph.NewNode(id, attrs))
	}
	return graph.NewStore("ROOT", nodes)
}

func group(path string, children ...string) map[string]any {
	g := map[string]any{"isa": "PBXGroup", "sourceTree": "<group>", "children": ids(children...)}
	if path != "" {
		g["path"] = path
	}
	return g
}

func file(path string) map[string]any {
	return map[string]any{"isa": "PBXFileReference", "sourceTree": "<group>", "path": path}
}

// fixtureObjects is a small project:
//
//	MAIN
//	├── FOO      Foo.swift
//	├── GA       A/
//	│   ├── GB   B/ → BAR Foo.swift
//	│   └── NESTED (DEVELOPER_DIR)
//	├── RES      Resources/ → VG Base.lproj → LOC, LOCFR
//	├── SDK      (SDKROOT) → UIKIT
//	├── ANON     (no path) → BAZ
//	└── LIBZ     /usr/lib/libz.dylib
func fixtureObjects() objects {
	return objects{
		"ROOT": {"isa": "PBXProject", "mainGroup": "MAIN", "productRefGroup": "PRODUCTS"},
		"MAIN": group("", "FOO", "GA", "RES", "SDK", "ANON", "LIBZ"),
		"FOO":  file("Foo.swift"),
		"GA":   group("A", "GB", "NESTED", "DUP"),
		"GB":   group("B", "BAR"),
		"BAR":  file("Foo.swift"),
		"NESTED": {
			"isa": "PBXGroup", "sourceTree": "DEVELOPER_DIR", "path": "Platforms", "children": ids(),
		},
		"RES": group("Resources", "VG", "DUP"),
		"VG": {
			"isa": "PBXVariantGroup", "sourceTree": "<group>", "path": "Base.lproj",
			"children": ids("LOC", "LOCFR"),
		},
		"LOC":   file("Localizable.strings"),
		"LOCFR": file("Localizable.fr.strings"),
		"SDK": {
			"isa": "PBXGroup", "sourceTree": "SDKROOT", "path": "System/Library/Frameworks",
			"children": ids("UIKIT"),
		},
		"UIKIT": file("UIKit.framework"),
		"ANON":  group("", "BAZ"),
		"BAZ":   file("Baz.swift"),
		"LIBZ":  file("/usr/lib/libz.dylib"),
		"DUP":   file("Dup.swift"),
		"PRODUCTS": {
			"isa": "PBXGroup", "sourceTree": "<group>", "name": "Products", "children": ids("APP"),
		},
		"APP": {"isa": "PBXFileReference", "sourceTree": "BUILT_PRODUCTS_DIR", "path": "App.app"},
		"ORPHAN":    group("Orphan", "LOST"),
		"LOST":      file("Lost.swift"),
		"ABS":       map[string]any{"isa": "PBXFileReference", "sourceTree": "<absolute>", "path": "/tmp/x"},
		"BF":        {"isa": "PBXBuildFile", "fileRef": "FOO"},
		"CYC":       group("Loop", "CYC", "CF"),
		"CF":        file("Spin.swift"),
		"PKG":       {"isa": "XCSwiftPackageProductDependency", "productName": "Alamofire"},
		"BF_FOO":    {"isa": "PBXBuildFile", "fileRef": "FOO"},
		"BF_VG":     {"isa": "PBXBuildFile", "fileRef": "VG"},
		"BF_PKG":    {"isa": "PBXBuildFile", "productRef": "PKG"},
		"BF_EMPTY":  {"isa": "PBXBuildFile"},
		"BF_GONE":   {"isa": "PBXBuildFile", "fileRef": "GONE"},
		"NOT_A_REF": {"isa": "PBXNativeTarget", "name": "App"},
	}
}

func newResolver(t *testing.T) *Resolver {
	t.Helper()
	s := newStore(t, fixtureObjects())
	return NewResolver(s, BuildIndex(s))
}

func TestBuildIndex(t *testing.T) {
	s := newStore(t, fixtureObjects())
	ix := BuildIndex(s)

	p, ok := ix.Parent("BAR")
	require.True(t, ok)
	assert.Equal(t, "GB", p)

	// DUP is listed by GA and RES; RES is scanned last.
	p, ok = ix.Parent("DUP")
	require.True(t, ok)
	assert.Equal(t, "RES", p)

	// Variant group members are not registered.
	_, ok = ix.Parent("LOC")
	assert.False(t, ok)

	for id, want := range map[string]string{
		"ROOT":   "",
		"MAIN":   "",
		"SDK":    "$(SDKROOT)",
		"NESTED": "$(DEVELOPER_DIR)",
	} {
		alias, ok := ix.Alias(id)
		require.True(t, ok, id)
		assert.Equal(t, want, alias, id)
	}
	_, ok = ix.Alias("GA")
	assert.False(t, ok)
}

func TestResolve(t *testing.T) {
	r := newResolver(t)

	tests := []struct {
		id   string
		want string
	}{
		{"FOO", "Foo.swift"},
		{"BAR", "A/B/Foo.swift"},
		{"GB", "A/B"},
		{"MAIN", ""},
		{"ROOT", ""},
		{"SDK", "$(SDKROOT)"},
		{"UIKIT", "$(SDKROOT)/UIKit.framework"},
		{"NESTED", "$(DEVELOPER_DIR)"},
		{"VG", "Resources/Base.lproj"},
		{"BAZ", "Baz.swift"},
		{"LIBZ", "/usr/lib/libz.dylib"},
		{"DUP", "Resources/Dup.swift"},
		{"APP", "$(BUILT_PRODUCTS_DIR)/App.app"},
		{"PRODUCTS", "."},
		{"GONE", "(null) GONE"},
	}
	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			got, err := r.Resolve(tt.id)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolve_VariantFallback(t *testing.T) {
	r := newResolver(t)

	groupPath, err := r.Resolve("VG")
	require.NoError(t, err)

	got, err := r.ResolveWithFallback("LOC", groupPath)
	require.NoError(t, err)
	assert.Equal(t, "Resources/Base.lproj/Localizable.strings", got)

	// A registered parent wins over the fallback.
	got, err = r.ResolveWithFallback("BAR", "elsewhere")
	require.NoError(t, err)
	assert.Equal(t, "A/B/Foo.swift", got)

	_, err = r.Resolve("LOC")
	assert.ErrorIs(t, err, ErrUnknownParent)
}

func TestResolve_FallbackGroupNotCached(t *testing.T) {
	objs := fixtureObjects()
	objs["VG"] = map[string]any{
		"isa": "PBXVariantGroup", "sourceTree": "<group>", "path": "Base.lproj",
		"children": ids("LOC", "LOCFR", "SUBG"),
	}
	objs["SUBG"] = group("Sub", "SUBFILE")
	objs["SUBFILE"] = file("Sub.strings")
	s := newStore(t, objs)
	ix := BuildIndex(s)

	// SUBG is listed only by a variant group, which the index does not scan.
	fresh := NewResolver(s, ix)
	_, err := fresh.Resolve("SUBG")
	require.ErrorIs(t, err, ErrUnknownParent)

	r := NewResolver(s, ix)
	got, err := r.ResolveWithFallback("SUBG", "Resources/Base.lproj")
	require.NoError(t, err)
	assert.Equal(t, "Resources/Base.lproj/Sub", got)

	_, err = r.Resolve("SUBG")
	assert.ErrorIs(t, err, ErrUnknownParent)
	_, err = r.Resolve("SUBFILE")
	assert.ErrorIs(t, err, ErrUnknownParent)
}

func TestResolve_Errors(t *testing.T) {
	r := newResolver(t)

	tests := []struct {
		id   string
		want error
	}{
		{"LOST", ErrUnknownParent},
		{"ORPHAN", ErrUnknownParent},
		{"ABS", ErrUnknownSourceTree},
		{"BF", ErrUnexpectedKind},
		{"NOT_A_REF", ErrUnexpectedKind},
		{"CF", ErrCyclicReference},
	}
	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			got, err := r.Resolve(tt.id)
			assert.ErrorIs(t, err, tt.want)
			assert.Empty(t, got)
		})
	}
}

func TestResolve_KnownRootIgnoresDepth(t *testing.T) {
	objs := fixtureObjects()
	objs["GB"] = group("B", "BAR", "DEEP")
	objs["DEEP"] = map[string]any{
		"isa": "PBXGroup", "sourceTree": "SOURCE_ROOT", "path": "ignored/entirely", "children": ids("DEEPFILE"),
	}
	objs["DEEPFILE"] = file("Deep.swift")
	s := newStore(t, objs)
	r := NewResolver(s, BuildIndex(s))

	got, err := r.Resolve("DEEP")
	require.NoError(t, err)
	assert.Equal(t, "$(SOURCE_ROOT)", got)

	got, err = r.Resolve("DEEPFILE")
	require.NoError(t, err)
	assert.Equal(t, "$(SOURCE_ROOT)/Deep.swift", got)
}

func TestResolve_OrderIndependent(t *testing.T) {
	order := []string{"BAR", "GB", "GA", "UIKIT", "VG", "FOO", "DUP", "BAZ", "GONE"}

	forward := newResolver(t)
	want := make(map[string]string)
	for _, id := range order {
		p, err := forward.Resolve(id)
		require.NoError(t, err)
		want[id] = p
	}

	backward := newResolver(t)
	for i := len(order) - 1; i >= 0; i-- {
		id := order[i]
		p, err := backward.Resolve(id)
		require.NoError(t, err)
		assert.Equal(t, want[id], p, id)

		// Repeated calls on a warm cache agree.
		again, err := backward.Resolve(id)
		require.NoError(t, err)
		assert.Equal(t, p, again, id)
	}
}

func TestResolve_ErrorDoesNotPoisonResolver(t *testing.T) {
	r := newResolver(t)

	_, err := r.Resolve("CF")
	require.ErrorIs(t, err, ErrCyclicReference)
	_, err = r.Resolve("CF")
	require.ErrorIs(t, err, ErrCyclicReference)

	got, err := r.Resolve("BAR")
	require.NoError(t, err)
	assert.Equal(t, "A/B/Foo.swift", got)
}
