// Package registry holds the static definitions of credential providers:
// which environment variable a provider's key is read from and what shape
// a valid key has. Definitions are assembled once at process start from
// the builtin set plus any overrides in credsync.yaml, then treated as
// immutable.
package registry

import (
	"sort"
)

// Broad length bounds applied to providers without a known key format so
// unrecognized providers are not rejected outright.
const (
	DefaultMinLength = 8
	DefaultMaxLength = 512
)

// ProviderDefinition describes one credential provider.
type ProviderDefinition struct {
	// Name is the provider's stable lowercase identifier.
	Name string `yaml:"name" json:"name"`

	// SourceEnvVar is the environment variable the key is read from.
	SourceEnvVar string `yaml:"source_env_var" json:"source_env_var"`

	// ExpectedPrefix, when non-empty, must prefix every valid key.
	ExpectedPrefix string `yaml:"expected_prefix,omitempty" json:"expected_prefix,omitempty"`

	// MinLength and MaxLength bound the key length inclusive.
	MinLength int `yaml:"min_length,omitempty" json:"min_length,omitempty"`
	MaxLength int `yaml:"max_length,omitempty" json:"max_length,omitempty"`
}

// builtins covers the vendors the surrounding system ships support for.
// Prefixes follow each vendor's published key format.
var builtins = []ProviderDefinition{
	{Name: "anthropic", SourceEnvVar: "ANTHROPIC_API_KEY", ExpectedPrefix: "sk-ant-", MinLength: 20, MaxLength: 256},
	{Name: "openai", SourceEnvVar: "OPENAI_API_KEY", ExpectedPrefix: "sk-", MinLength: 20, MaxLength: 256},
	{Name: "gemini", SourceEnvVar: "GEMINI_API_KEY", MinLength: 20, MaxLength: 256},
	{Name: "openrouter", SourceEnvVar: "OPENROUTER_API_KEY", ExpectedPrefix: "sk-or-", MinLength: 20, MaxLength: 256},
	{Name: "deepseek", SourceEnvVar: "DEEPSEEK_API_KEY", ExpectedPrefix: "sk-", MinLength: 20, MaxLength: 256},
	{Name: "mistral", SourceEnvVar: "MISTRAL_API_KEY", MinLength: 20, MaxLength: 256},
	{Name: "groq", SourceEnvVar: "GROQ_API_KEY", ExpectedPrefix: "gsk_", MinLength: 20, MaxLength: 256},
}

// Registry is an immutable set of provider definitions keyed by name.
type Registry struct {
	defs map[string]ProviderDefinition
}

// New builds a registry from the builtin definitions merged with
// overrides. An override with a known name replaces the builtin; an
// override with a new name adds a provider. Definitions missing length
// bounds receive the permissive defaults.
func New(overrides []ProviderDefinition) *Registry {
	defs := make(map[string]ProviderDefinition, len(builtins)+len(overrides))
	for _, d := range builtins {
		defs[d.Name] = normalize(d)
	}
	for _, d := range overrides {
		if d.Name == "" {
			continue
		}
		defs[d.Name] = normalize(d)
	}
	return &Registry{defs: defs}
}

func normalize(d ProviderDefinition) ProviderDefinition {
	if d.MinLength <= 0 {
		d.MinLength = DefaultMinLength
	}
	if d.MaxLength <= 0 {
		d.MaxLength = DefaultMaxLength
	}
	return d
}

// Get returns the definition for name. Unknown providers get a permissive
// definition so they can still be validated and synced.
func (r *Registry) Get(name string) ProviderDefinition {
	if d, ok := r.defs[name]; ok {
		return d
	}
	return normalize(ProviderDefinition{Name: name})
}

// Has reports whether name is a known provider.
func (r *Registry) Has(name string) bool {
	_, ok := r.defs[name]
	return ok
}

// All returns every definition sorted by provider name. The sort keeps
// sync passes deterministic.
func (r *Registry) All() []ProviderDefinition {
	out := make([]ProviderDefinition, 0, len(r.defs))
	for _, d := range r.defs {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Names returns every provider name in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.defs))
	for name := range r.defs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
