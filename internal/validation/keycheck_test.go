package validation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/systmms/credsync/internal/registry"
)

func anthropicDef() registry.ProviderDefinition {
	return registry.ProviderDefinition{
		Name:           "anthropic",
		SourceEnvVar:   "ANTHROPIC_API_KEY",
		ExpectedPrefix: "sk-ant-",
		MinLength:      20,
		MaxLength:      256,
	}
}

func permissiveDef() registry.ProviderDefinition {
	return registry.ProviderDefinition{
		Name:         "custom",
		SourceEnvVar: "CUSTOM_API_KEY",
		MinLength:    registry.DefaultMinLength,
		MaxLength:    registry.DefaultMaxLength,
	}
}

func TestCheckValidKeys(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		def       registry.ProviderDefinition
		candidate string
	}{
		{
			name:      "well-formed anthropic key",
			def:       anthropicDef(),
			candidate: "sk-ant-REDACTED",
		},
		{
			name:      "prefix-free provider accepts any shape",
			def:       permissiveDef(),
			candidate: "a1b2c3d4e5f6g7h8",
		},
		{
			name:      "separators are permitted",
			def:       permissiveDef(),
			candidate: "key_with-every.sep:ok123",
		},
		{
			name:      "surrounding whitespace is trimmed",
			def:       anthropicDef(),
			candidate: "  sk-ant-REDACTED\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			outcome := Check(tt.def, tt.candidate)
			assert.True(t, outcome.Valid, "expected valid, got %s (%s)", outcome.Reason, outcome.Detail)
		})
	}
}

func TestCheckRejections(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		def       registry.ProviderDefinition
		candidate string
		reason    Reason
	}{
		{
			name:      "empty value",
			def:       anthropicDef(),
			candidate: "",
			reason:    ReasonEmpty,
		},
		{
			name:      "whitespace only",
			def:       anthropicDef(),
			candidate: "   \t ",
			reason:    ReasonEmpty,
		},
		{
			name:      "below minimum length",
			def:       anthropicDef(),
			candidate: "sk-ant-x",
			reason:    ReasonTooShort,
		},
		{
			name:      "above maximum length",
			def:       anthropicDef(),
			candidate: "sk-ant-" + strings.Repeat("a", 300),
			reason:    ReasonTooLong,
		},
		{
			name:      "wrong prefix",
			def:       anthropicDef(),
			candidate: "sk-oai-abcdef1234567890abcdef",
			reason:    ReasonInvalidPrefix,
		},
		{
			name:      "placeholder text",
			def:       permissiveDef(),
			candidate: "your-api-key-here",
			reason:    ReasonPlaceholderDetected,
		},
		{
			name:      "placeholder inside prefix-matching key",
			def:       anthropicDef(),
			candidate: "sk-ant-REDACTED",
			reason:    ReasonPlaceholderDetected,
		},
		{
			name:      "example marker",
			def:       permissiveDef(),
			candidate: "example-key-123456",
			reason:    ReasonPlaceholderDetected,
		},
		{
			name:      "ten repeated characters",
			def:       permissiveDef(),
			candidate: "aaaaaaaaaa",
			reason:    ReasonPlaceholderDetected,
		},
		{
			name:      "disallowed characters",
			def:       permissiveDef(),
			candidate: "abc$def%ghi!jkl12",
			reason:    ReasonInvalidCharacters,
		},
		{
			name:      "whitespace inside value",
			def:       permissiveDef(),
			candidate: "abcdef ghijkl12345",
			reason:    ReasonInvalidCharacters,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			outcome := Check(tt.def, tt.candidate)
			assert.False(t, outcome.Valid)
			assert.Equal(t, tt.reason, outcome.Reason)
		})
	}
}

func TestCheckOrderOfChecks(t *testing.T) {
	t.Parallel()

	// A short value with a wrong prefix fails on length first.
	outcome := Check(anthropicDef(), "bad")
	assert.Equal(t, ReasonTooShort, outcome.Reason)

	// A wrong-prefix value containing a placeholder fails on prefix first.
	outcome = Check(anthropicDef(), "wrong-prefix-placeholder-value")
	assert.Equal(t, ReasonInvalidPrefix, outcome.Reason)
}

func TestCheckDetailNeverContainsCandidate(t *testing.T) {
	t.Parallel()

	candidate := "sk-oai-secretsecretsecret123"
	outcome := Check(anthropicDef(), candidate)
	assert.Equal(t, ReasonInvalidPrefix, outcome.Reason)
	assert.NotContains(t, outcome.Detail, candidate)
}

func TestCheckIsPureAcrossCalls(t *testing.T) {
	t.Parallel()

	def := anthropicDef()
	candidate := "sk-ant-REDACTED"
	first := Check(def, candidate)
	second := Check(def, candidate)
	assert.Equal(t, first, second)
}
