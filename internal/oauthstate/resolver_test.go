package oauthstate

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cserrors "github.com/systmms/credsync/internal/errors"
	"github.com/systmms/credsync/internal/logging"
)

func testLogger() *logging.Logger {
	return logging.New(false, true)
}

// writeStore writes a credential-store file into a temp dir.
func writeStore(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "credential-store.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestResolveMissingFileIsNotConfigured(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "does-not-exist.json")
	r := NewWithPath(testLogger(), path)

	status := r.Resolve("anthropic")
	assert.Equal(t, NotConfigured, status.Kind)
	assert.Empty(t, status.Reason)
}

func TestResolveUnresolvablePathIsUnknown(t *testing.T) {
	t.Parallel()

	r := &Resolver{
		logger: testLogger(),
		pathFn: func() (string, error) {
			return "", cserrors.PathDetectionError{Detail: "HOME is not set"}
		},
	}

	status := r.Resolve("anthropic")
	assert.Equal(t, Unknown, status.Kind)
	assert.Contains(t, status.Reason, "HOME is not set")
}

func TestResolveCorruptFileIsUnknown(t *testing.T) {
	t.Parallel()

	path := writeStore(t, `{"providers": {"anthropic":`)
	r := NewWithPath(testLogger(), path)

	status := r.Resolve("anthropic")
	assert.Equal(t, Unknown, status.Kind)
	assert.NotEmpty(t, status.Reason)
}

func TestResolveClassifiesAuthKinds(t *testing.T) {
	t.Parallel()

	path := writeStore(t, `{
		"providers": {
			"anthropic":  {"auth_kind": "oauth"},
			"openai":     {"auth_kind": "api_key"},
			"gemini":     {"auth_kind": "well_known"},
			"mistral":    {"auth_kind": ""},
			"deepseek":   {"auth_kind": "carrier_pigeon"}
		}
	}`)
	r := NewWithPath(testLogger(), path)

	tests := []struct {
		provider string
		want     Kind
	}{
		{provider: "anthropic", want: Configured},
		{provider: "openai", want: APIKeyConfigured},
		{provider: "gemini", want: WellKnownConfigured},
		{provider: "mistral", want: NotConfigured},
		{provider: "deepseek", want: Unknown},
		{provider: "absent", want: NotConfigured},
	}

	for _, tt := range tests {
		t.Run(tt.provider, func(t *testing.T) {
			t.Parallel()

			status := r.Resolve(tt.provider)
			assert.Equal(t, tt.want, status.Kind)
		})
	}
}

func TestResolveAllReadsStoreOnce(t *testing.T) {
	t.Parallel()

	reads := 0
	path := writeStore(t, `{"providers": {"anthropic": {"auth_kind": "oauth"}}}`)
	r := &Resolver{
		logger: testLogger(),
		pathFn: func() (string, error) {
			reads++
			return path, nil
		},
	}

	statuses := r.ResolveAll([]string{"anthropic", "openai", "gemini"})
	assert.Len(t, statuses, 3)
	assert.Equal(t, 1, reads)
	assert.Equal(t, Configured, statuses["anthropic"].Kind)
	assert.Equal(t, NotConfigured, statuses["openai"].Kind)
}

func TestStatusString(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "oauth", Status{Kind: Configured}.String())
	assert.Equal(t, "api_key", Status{Kind: APIKeyConfigured}.String())
	assert.Equal(t, "well_known", Status{Kind: WellKnownConfigured}.String())
	assert.Equal(t, "not_configured", Status{Kind: NotConfigured}.String())
	assert.Equal(t, "unknown (boom)", Status{Kind: Unknown, Reason: "boom"}.String())
}
