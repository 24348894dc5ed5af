package registry

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMergesOverrides(t *testing.T) {
	t.Parallel()

	r := New([]ProviderDefinition{
		// Replace a builtin.
		{Name: "anthropic", SourceEnvVar: "MY_ANTHROPIC_KEY", ExpectedPrefix: "sk-ant-", MinLength: 30, MaxLength: 100},
		// Add a new provider without bounds.
		{Name: "acme", SourceEnvVar: "ACME_API_KEY"},
		// A nameless override is discarded.
		{SourceEnvVar: "IGNORED"},
	})

	anthropic := r.Get("anthropic")
	assert.Equal(t, "MY_ANTHROPIC_KEY", anthropic.SourceEnvVar)
	assert.Equal(t, 30, anthropic.MinLength)

	acme := r.Get("acme")
	assert.True(t, r.Has("acme"))
	assert.Equal(t, DefaultMinLength, acme.MinLength)
	assert.Equal(t, DefaultMaxLength, acme.MaxLength)

	// Untouched builtins survive.
	assert.Equal(t, "OPENAI_API_KEY", r.Get("openai").SourceEnvVar)
}

func TestGetUnknownProviderIsPermissive(t *testing.T) {
	t.Parallel()

	r := New(nil)
	require.False(t, r.Has("mystery"))

	d := r.Get("mystery")
	assert.Equal(t, "mystery", d.Name)
	assert.Empty(t, d.ExpectedPrefix)
	assert.Equal(t, DefaultMinLength, d.MinLength)
	assert.Equal(t, DefaultMaxLength, d.MaxLength)
}

func TestBuiltinsHaveSaneShapes(t *testing.T) {
	t.Parallel()

	r := New(nil)
	for _, d := range r.All() {
		assert.NotEmpty(t, d.Name)
		assert.NotEmpty(t, d.SourceEnvVar, "builtin %s needs a source variable", d.Name)
		assert.Greater(t, d.MinLength, 0)
		assert.GreaterOrEqual(t, d.MaxLength, d.MinLength)
	}

	assert.Equal(t, "sk-ant-", r.Get("anthropic").ExpectedPrefix)
	assert.Equal(t, "gsk_", r.Get("groq").ExpectedPrefix)
}

func TestAllAndNamesAreSorted(t *testing.T) {
	t.Parallel()

	r := New([]ProviderDefinition{{Name: "zzz", SourceEnvVar: "ZZZ_KEY"}, {Name: "aaa", SourceEnvVar: "AAA_KEY"}})

	names := r.Names()
	assert.True(t, sort.StringsAreSorted(names))
	assert.Contains(t, names, "aaa")
	assert.Contains(t, names, "zzz")

	all := r.All()
	require.Equal(t, len(names), len(all))
	for i, d := range all {
		assert.Equal(t, names[i], d.Name)
	}
}
