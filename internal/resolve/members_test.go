package resolve

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func collect(t *testing.T, r *Resolver, ids []string, opts MemberOptions) ([]string, error) {
	t.Helper()
	var out []string
	for p, err := range r.Members(ids, opts) {
		if err != nil {
			return out, err
		}
		out = append(out, p)
	}
	return out, nil
}

func TestUnwrap(t *testing.T) {
	s := newStore(t, fixtureObjects())

	assert.Equal(t, Member{Kind: MemberFile, ID: "FOO"}, Unwrap(s, "BF_FOO"))
	assert.Equal(t, Member{Kind: MemberProduct, ID: "PKG"}, Unwrap(s, "BF_PKG"))
	assert.Equal(t, Member{Kind: MemberMissing, ID: "BF_EMPTY"}, Unwrap(s, "BF_EMPTY"))
	assert.Equal(t, Member{Kind: MemberFile, ID: "FOO"}, Unwrap(s, "FOO"))
	assert.Equal(t, Member{Kind: MemberFile, ID: "NOWHERE"}, Unwrap(s, "NOWHERE"))
}

func TestMembers(t *testing.T) {
	members := []string{"BF_FOO", "BF_VG", "BF_PKG", "BF_EMPTY", "BF_GONE", "BAR"}

	t.Run("expand variants", func(t *testing.T) {
		got, err := collect(t, newResolver(t), members, MemberOptions{ExpandVariants: true})
		require.NoError(t, err)
		assert.Equal(t, []string{
			"Foo.swift",
			"Resources/Base.lproj/Localizable.strings",
			"Resources/Base.lproj/Localizable.fr.strings",
			"Alamofire (Swift package)",
			"(null) BF_EMPTY",
			"(null) GONE",
			"A/B/Foo.swift",
		}, got)
	})

	t.Run("variant group as a whole", func(t *testing.T) {
		got, err := collect(t, newResolver(t), members, MemberOptions{})
		require.NoError(t, err)
		assert.Equal(t, []string{
			"Foo.swift",
			"Resources/Base.lproj",
			"Alamofire (Swift package)",
			"(null) BF_EMPTY",
			"(null) GONE",
			"A/B/Foo.swift",
		}, got)
	})
}

func TestMembers_StopsOnError(t *testing.T) {
	got, err := collect(t, newResolver(t), []string{"BF_FOO", "NOT_A_REF", "BAR"}, MemberOptions{})
	assert.ErrorIs(t, err, ErrUnexpectedKind)
	assert.Equal(t, []string{"Foo.swift"}, got)
}

func TestMembers_ConsumerBreak(t *testing.T) {
	r := newResolver(t)
	var seen []string
	for p, err := range r.Members([]string{"BF_VG", "BF_FOO"}, MemberOptions{ExpandVariants: true}) {
		require.NoError(t, err)
		seen = append(seen, p)
		break
	}
	assert.Equal(t, []string{"Resources/Base.lproj/Localizable.strings"}, seen)
}
