// Package remotehttp implements the remote sync boundary over HTTP.
package remotehttp

import (
	"bytes"
	"context"
	"crypto/tls"
	"crypto/x509"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/systmms/credsync/internal/secure"
	"github.com/systmms/credsync/pkg/remote"
)

// Config holds the HTTP client configuration.
type Config struct {
	// BaseURL is the remote service endpoint, e.g. "http://127.0.0.1:8317".
	BaseURL string

	// Timeout bounds each individual request. It must be strictly
	// shorter than the orchestrator's global timeout.
	Timeout time.Duration

	// CACert optionally points at a PEM bundle for a private CA.
	CACert string

	// InsecureSkipVerify disables TLS verification. Test use only.
	InsecureSkipVerify bool
}

// Client talks to the remote credential service over HTTP.
type Client struct {
	httpClient *http.Client
	baseURL    string
}

// New creates an HTTP remote client.
func New(cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.BaseURL) == "" {
		return nil, fmt.Errorf("remote base URL is required")
	}
	if _, err := url.Parse(cfg.BaseURL); err != nil {
		return nil, fmt.Errorf("invalid remote base URL: %w", err)
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}

	transport := &http.Transport{
		TLSClientConfig: &tls.Config{},
	}

	if cfg.CACert != "" {
		caCert, err := os.ReadFile(cfg.CACert)
		if err != nil {
			return nil, fmt.Errorf("failed to read CA certificate: %w", err)
		}
		caCertPool := x509.NewCertPool()
		if !caCertPool.AppendCertsFromPEM(caCert) {
			return nil, fmt.Errorf("failed to parse CA certificate")
		}
		transport.TLSClientConfig.RootCAs = caCertPool
	}

	if cfg.InsecureSkipVerify {
		transport.TLSClientConfig.InsecureSkipVerify = true
	}

	return &Client{
		httpClient: &http.Client{
			Transport: transport,
			Timeout:   cfg.Timeout,
		},
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
	}, nil
}

// putRequest is the wire shape of a credential push.
type putRequest struct {
	APIKey string `json:"api_key"`
}

// statusResponse is the wire shape of a credential status answer.
type statusResponse struct {
	AuthKind string `json:"auth_kind"`
}

// PutCredential pushes a provider's credential to the remote service.
// The request body is built and sent inside the secret's Reveal callback
// and wiped before the callback returns, so the plaintext never outlives
// the request.
func (c *Client) PutCredential(ctx context.Context, provider string, secret *secure.Secret) error {
	endpoint := fmt.Sprintf("%s/api/providers/%s/credential", c.baseURL, url.PathEscape(provider))

	err := secret.Reveal(func(value []byte) error {
		body, err := json.Marshal(putRequest{APIKey: string(value)})
		if err != nil {
			return fmt.Errorf("failed to marshal credential request: %w", err)
		}
		defer wipe(body)

		req, err := http.NewRequestWithContext(ctx, http.MethodPut, endpoint, bytes.NewReader(body))
		if err != nil {
			return fmt.Errorf("failed to create request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return c.transportError("put_credential", provider, err)
		}
		defer func() { _ = resp.Body.Close() }()

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return c.statusError("put_credential", provider, resp)
		}
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	})

	var syncErr *remote.SyncError
	if err != nil && !errors.As(err, &syncErr) {
		// Request construction or secret access failed before any
		// network activity.
		return &remote.SyncError{
			Op:       "put_credential",
			Provider: provider,
			Message:  err.Error(),
			Err:      err,
		}
	}
	return err
}

// GetCredentialStatus returns the auth kind the remote has configured
// for provider, or nil when the remote reports none (HTTP 404).
func (c *Client) GetCredentialStatus(ctx context.Context, provider string) (*remote.AuthKind, error) {
	endpoint := fmt.Sprintf("%s/api/providers/%s/credential", c.baseURL, url.PathEscape(provider))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, &remote.SyncError{
			Op:       "get_credential_status",
			Provider: provider,
			Message:  err.Error(),
			Err:      err,
		}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, c.transportError("get_credential_status", provider, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, c.statusError("get_credential_status", provider, resp)
	}

	var status statusResponse
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		return nil, &remote.SyncError{
			Op:       "get_credential_status",
			Provider: provider,
			Message:  fmt.Sprintf("failed to decode response: %v", err),
			Err:      err,
		}
	}

	kind := remote.AuthKind(status.AuthKind)
	switch kind {
	case remote.AuthKindOAuth, remote.AuthKindAPIKey, remote.AuthKindWellKnown:
		return &kind, nil
	case "":
		return nil, nil
	default:
		return nil, &remote.SyncError{
			Op:       "get_credential_status",
			Provider: provider,
			Message:  fmt.Sprintf("unrecognized auth kind %q", status.AuthKind),
		}
	}
}

// transportError classifies a transport-level failure into a SyncError
// with the timeout/connection distinction the orchestrator needs.
func (c *Client) transportError(op, provider string, err error) *remote.SyncError {
	syncErr := &remote.SyncError{
		Op:       op,
		Provider: provider,
		Message:  err.Error(),
		Err:      err,
	}

	if errors.Is(err, context.DeadlineExceeded) {
		syncErr.Timeout = true
		return syncErr
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		syncErr.Timeout = true
		return syncErr
	}

	// Everything else that never produced a response is treated as a
	// connection failure: refused, reset, DNS, unreachable.
	syncErr.ConnectionFailure = true
	return syncErr
}

// statusError builds a SyncError from a non-2xx response, carrying a
// bounded slice of the body for context.
func (c *Client) statusError(op, provider string, resp *http.Response) *remote.SyncError {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
	return &remote.SyncError{
		Op:         op,
		Provider:   provider,
		StatusCode: resp.StatusCode,
		Message:    strings.TrimSpace(string(body)),
	}
}

// wipe zeroes a byte slice holding secret material.
func wipe(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
