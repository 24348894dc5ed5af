package remotehttp

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/systmms/credsync/internal/secure"
	"github.com/systmms/credsync/pkg/remote"
)

func newTestClient(t *testing.T, baseURL string) *Client {
	t.Helper()
	c, err := New(Config{BaseURL: baseURL, Timeout: 2 * time.Second})
	require.NoError(t, err)
	return c
}

func TestNewRejectsEmptyBaseURL(t *testing.T) {
	t.Parallel()

	_, err := New(Config{})
	require.Error(t, err)

	_, err = New(Config{BaseURL: "   "})
	require.Error(t, err)
}

func TestPutCredentialSuccess(t *testing.T) {
	t.Parallel()

	var gotMethod, gotPath, gotKey string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotPath = r.URL.Path

		var body struct {
			APIKey string `json:"api_key"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		gotKey = body.APIKey

		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	secret := secure.NewSecret("sk-ant-REDACTED")
	defer secret.Destroy()

	c := newTestClient(t, server.URL)
	err := c.PutCredential(context.Background(), "anthropic", secret)
	require.NoError(t, err)

	assert.Equal(t, http.MethodPut, gotMethod)
	assert.Equal(t, "/api/providers/anthropic/credential", gotPath)
	assert.Equal(t, "sk-ant-REDACTED", gotKey)

	// The secret survives the request for later passes.
	require.NoError(t, secret.Reveal(func([]byte) error { return nil }))
}

func TestPutCredentialStatusErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		status    int
		retryable bool
	}{
		{name: "service unavailable", status: http.StatusServiceUnavailable, retryable: true},
		{name: "rate limited", status: http.StatusTooManyRequests, retryable: true},
		{name: "unauthorized", status: http.StatusUnauthorized, retryable: false},
		{name: "internal server error", status: http.StatusInternalServerError, retryable: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				http.Error(w, "nope", tt.status)
			}))
			defer server.Close()

			secret := secure.NewSecret("sk-ant-REDACTED")
			defer secret.Destroy()

			err := newTestClient(t, server.URL).PutCredential(context.Background(), "anthropic", secret)
			require.Error(t, err)

			var syncErr *remote.SyncError
			require.ErrorAs(t, err, &syncErr)
			assert.Equal(t, tt.status, syncErr.StatusCode)
			assert.Equal(t, tt.retryable, syncErr.Retryable())
			assert.False(t, syncErr.Timeout)
			assert.False(t, syncErr.ConnectionFailure)
		})
	}
}

func TestPutCredentialConnectionFailure(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	server.Close() // nothing is listening anymore

	secret := secure.NewSecret("sk-ant-REDACTED")
	defer secret.Destroy()

	err := newTestClient(t, server.URL).PutCredential(context.Background(), "anthropic", secret)
	require.Error(t, err)

	var syncErr *remote.SyncError
	require.ErrorAs(t, err, &syncErr)
	assert.True(t, syncErr.ConnectionFailure)
	assert.True(t, syncErr.Retryable())
	assert.Zero(t, syncErr.StatusCode)
}

func TestPutCredentialTimeout(t *testing.T) {
	t.Parallel()

	started := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		close(started)
		// Drain the body so the server starts its background read and
		// cancels r.Context() when the timed-out client disconnects;
		// otherwise this handler and server.Close deadlock.
		_, _ = io.Copy(io.Discard, r.Body)
		<-r.Context().Done()
	}))
	defer server.Close()

	c, err := New(Config{BaseURL: server.URL, Timeout: 50 * time.Millisecond})
	require.NoError(t, err)

	secret := secure.NewSecret("sk-ant-REDACTED")
	defer secret.Destroy()

	err = c.PutCredential(context.Background(), "anthropic", secret)
	<-started
	require.Error(t, err)

	var syncErr *remote.SyncError
	require.ErrorAs(t, err, &syncErr)
	assert.True(t, syncErr.Timeout)
	assert.True(t, syncErr.Retryable())
}

func TestGetCredentialStatus(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		handler  http.HandlerFunc
		want     *remote.AuthKind
		wantErr  bool
		wantCode int
	}{
		{
			name: "oauth configured",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				_ = json.NewEncoder(w).Encode(map[string]string{"auth_kind": "oauth"})
			},
			want: authKindPtr(remote.AuthKindOAuth),
		},
		{
			name: "api key configured",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				_ = json.NewEncoder(w).Encode(map[string]string{"auth_kind": "api_key"})
			},
			want: authKindPtr(remote.AuthKindAPIKey),
		},
		{
			name: "not found means nothing configured",
			handler: func(w http.ResponseWriter, r *http.Request) {
				http.NotFound(w, r)
			},
			want: nil,
		},
		{
			name: "empty kind means nothing configured",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				_ = json.NewEncoder(w).Encode(map[string]string{"auth_kind": ""})
			},
			want: nil,
		},
		{
			name: "unrecognized kind is an error",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				_ = json.NewEncoder(w).Encode(map[string]string{"auth_kind": "carrier_pigeon"})
			},
			wantErr: true,
		},
		{
			name: "server error",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				http.Error(w, "boom", http.StatusInternalServerError)
			},
			wantErr:  true,
			wantCode: http.StatusInternalServerError,
		},
		{
			name: "malformed body is an error",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				_, _ = w.Write([]byte("{not json"))
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			server := httptest.NewServer(tt.handler)
			defer server.Close()

			got, err := newTestClient(t, server.URL).GetCredentialStatus(context.Background(), "anthropic")
			if tt.wantErr {
				require.Error(t, err)
				if tt.wantCode != 0 {
					var syncErr *remote.SyncError
					require.ErrorAs(t, err, &syncErr)
					assert.Equal(t, tt.wantCode, syncErr.StatusCode)
				}
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func authKindPtr(k remote.AuthKind) *remote.AuthKind { return &k }
