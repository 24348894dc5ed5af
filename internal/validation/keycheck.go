// Package validation checks candidate credentials against their
// provider's key format before anything is transmitted. Validation is
// pure: no I/O, no logging, no state.
package validation

import (
	"fmt"
	"strings"

	"github.com/systmms/credsync/internal/logging"
	"github.com/systmms/credsync/internal/registry"
)

// Reason identifies why a candidate was rejected.
type Reason string

const (
	ReasonEmpty               Reason = "empty"
	ReasonTooShort            Reason = "too_short"
	ReasonTooLong             Reason = "too_long"
	ReasonInvalidPrefix       Reason = "invalid_prefix"
	ReasonPlaceholderDetected Reason = "placeholder_detected"
	ReasonInvalidCharacters   Reason = "invalid_characters"
)

// Outcome is the result of validating one candidate credential.
type Outcome struct {
	Valid  bool
	Reason Reason

	// Detail carries reason-specific context safe for display: the
	// expected and observed prefix (masked), or the matched placeholder
	// pattern. Never the candidate value itself.
	Detail string
}

// valid is the single Valid outcome.
var valid = Outcome{Valid: true}

// placeholderPatterns are case-insensitive substrings that mark a value
// as documentation filler rather than a real key.
var placeholderPatterns = []string{
	"your-api-key",
	"your_api_key",
	"insert",
	"xxx",
	"placeholder",
	"example",
	"changeme",
}

// Check validates candidate against def. Checks run in a fixed order and
// stop at the first failure: empty, length bounds, expected prefix,
// placeholder patterns, character classes.
func Check(def registry.ProviderDefinition, candidate string) Outcome {
	trimmed := strings.TrimSpace(candidate)
	if trimmed == "" {
		return Outcome{Reason: ReasonEmpty}
	}

	if len(trimmed) < def.MinLength {
		return Outcome{
			Reason: ReasonTooShort,
			Detail: fmt.Sprintf("length %d below minimum %d", len(trimmed), def.MinLength),
		}
	}
	if len(trimmed) > def.MaxLength {
		return Outcome{
			Reason: ReasonTooLong,
			Detail: fmt.Sprintf("length %d above maximum %d", len(trimmed), def.MaxLength),
		}
	}

	if def.ExpectedPrefix != "" && !strings.HasPrefix(trimmed, def.ExpectedPrefix) {
		observed := trimmed
		if len(observed) > len(def.ExpectedPrefix) {
			observed = observed[:len(def.ExpectedPrefix)]
		}
		return Outcome{
			Reason: ReasonInvalidPrefix,
			Detail: fmt.Sprintf("expected prefix %q, got %q", def.ExpectedPrefix, logging.MaskKey(observed)),
		}
	}

	if pattern, found := placeholderIn(trimmed); found {
		return Outcome{
			Reason: ReasonPlaceholderDetected,
			Detail: pattern,
		}
	}

	if !validCharacters(trimmed) {
		return Outcome{Reason: ReasonInvalidCharacters}
	}

	return valid
}

// placeholderIn scans for placeholder substrings and for values made of
// one repeated character, which no real key generator produces.
func placeholderIn(value string) (string, bool) {
	lower := strings.ToLower(value)
	for _, pattern := range placeholderPatterns {
		if strings.Contains(lower, pattern) {
			return pattern, true
		}
	}

	if len(value) >= 10 && strings.Count(value, value[:1]) == len(value) {
		return "repeated_character", true
	}

	return "", false
}

// validCharacters permits ASCII alphanumerics plus the separators that
// appear in real vendor key formats.
func validCharacters(value string) bool {
	for _, c := range value {
		switch {
		case c >= 'a' && c <= 'z':
		case c >= 'A' && c <= 'Z':
		case c >= '0' && c <= '9':
		case c == '-' || c == '_' || c == '.' || c == ':':
		default:
			return false
		}
	}
	return true
}
