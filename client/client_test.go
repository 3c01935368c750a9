package client_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/genzdna/ccprobe/client"
	"github.com/genzdna/ccprobe/internal/testutil"
)

func newClient(t *testing.T, baseURL string, opts ...client.Option) *client.Client {
	t.Helper()
	cfg := client.NewDefaultConfig()
	cfg.BaseURL = baseURL
	cfg.Timeout = 2 * time.Second
	c, err := client.New(cfg, opts...)
	require.NoError(t, err)
	return c
}

func TestRegister_ReturnsSessionIDUnmodified(t *testing.T) {
	for _, id := range []string{"abc123", "inner space", "MiXeD-Case_42", "ü-unicode"} {
		t.Run(id, func(t *testing.T) {
			svc := testutil.NewFakeService(t, id, "aGVsbG8=")
			c := newClient(t, svc.BaseURL())

			got, err := c.Register(context.Background())
			require.NoError(t, err)
			assert.Equal(t, id, got)
		})
	}
}

func TestRegister_RequestShape(t *testing.T) {
	svc := testutil.NewFakeService(t, "abc123", "aGVsbG8=")
	c := newClient(t, svc.BaseURL(), client.WithRequestID(func() string { return "req-1" }))

	_, err := c.Register(context.Background())
	require.NoError(t, err)

	reqs := svc.Requests()
	require.Len(t, reqs, 1)
	r := reqs[0]
	assert.Equal(t, http.MethodPost, r.Method)
	assert.Equal(t, "/api/v0.1.0/register", r.Path)
	assert.Empty(t, r.Body)
	assert.Empty(t, r.Header.Get("Content-Type"))
	assert.Empty(t, r.Header.Get(client.SessionHeader))
	assert.Equal(t, "req-1", r.Header.Get(client.RequestIDHeader))
	assert.Equal(t, "application/json", r.Header.Get("Accept"))
	assert.True(t, strings.HasPrefix(r.Header.Get("User-Agent"), "ccprobe/"))
}

func TestRegister_WithPublicKeySendsJSONBody(t *testing.T) {
	svc := testutil.NewFakeService(t, "abc123", "aGVsbG8=")
	c := newClient(t, svc.BaseURL(), client.WithPublicKey("cHVia2V5"))

	_, err := c.Register(context.Background())
	require.NoError(t, err)

	r := svc.Requests()[0]
	assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
	var body map[string]string
	require.NoError(t, json.Unmarshal(r.Body, &body))
	assert.Equal(t, map[string]string{"publicKey": "cHVia2V5"}, body)
}

func TestRegister_ProtocolErrors(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		body       string
		wantStatus int
		wantReason string
	}{
		{"server error", http.StatusInternalServerError, `{"error":"boom"}`, 500, "unexpected status"},
		{"not found", http.StatusNotFound, `nope`, 404, "unexpected status"},
		{"missing field", http.StatusOK, `{"id":"abc"}`, 200, `no "sessionId" field`},
		{"wrong type", http.StatusOK, `{"sessionId":123}`, 200, "not a string"},
		{"null", http.StatusOK, `{"sessionId":null}`, 200, "is null"},
		{"empty", http.StatusOK, `{"sessionId":""}`, 200, "is empty"},
		{"malformed json", http.StatusOK, `{"sessionId":`, 200, "not a JSON object"},
		{"json array", http.StatusOK, `["abc123"]`, 200, "not a JSON object"},
		{"json null", http.StatusOK, `null`, 200, "not a JSON object"},
		{"empty body", http.StatusOK, ``, 200, "not a JSON object"},
		{"control characters", http.StatusOK, `{"sessionId":"ab\u0001c\nd"}`, 200, "cannot be carried in X-Session-Id"},
		{"surrounding spaces", http.StatusOK, `{"sessionId":" padded "}`, 200, "cannot be carried in X-Session-Id"},
		{"trailing tab", http.StatusOK, `{"sessionId":"abc\t"}`, 200, "cannot be carried in X-Session-Id"},
		{"delete byte", http.StatusOK, `{"sessionId":"ab\u007fc"}`, 200, "cannot be carried in X-Session-Id"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := testutil.NewFakeService(t, "abc123", "aGVsbG8=")
			svc.OnRegister(testutil.Respond(tt.status, tt.body))
			c := newClient(t, svc.BaseURL())

			got, err := c.Register(context.Background())
			assert.Empty(t, got)

			var pe *client.ProtocolError
			require.ErrorAs(t, err, &pe)
			assert.Equal(t, client.StepRegister, pe.Step)
			assert.Equal(t, tt.wantStatus, pe.StatusCode)
			assert.Contains(t, pe.Reason, tt.wantReason)
			assert.Equal(t, tt.body, string(pe.Body))

			var te *client.TransportError
			assert.False(t, errors.As(err, &te))
		})
	}
}

func TestProtocolError_MessageIncludesStatusAndBody(t *testing.T) {
	svc := testutil.NewFakeService(t, "abc123", "aGVsbG8=")
	svc.OnRegister(testutil.Respond(http.StatusServiceUnavailable, "maintenance "+strings.Repeat("x", 2000)))
	c := newClient(t, svc.BaseURL())

	_, err := c.Register(context.Background())
	require.Error(t, err)
	msg := err.Error()
	assert.Contains(t, msg, "register")
	assert.Contains(t, msg, "HTTP 503")
	assert.Contains(t, msg, "maintenance")
	assert.Less(t, len(msg), 700, "body must be truncated in the message")
}

func TestRegister_TransportErrorOnRefusedConnection(t *testing.T) {
	c := newClient(t, testutil.ClosedURL(t))

	got, err := c.Register(context.Background())
	assert.Empty(t, got)

	var te *client.TransportError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, client.StepRegister, te.Step)
	assert.NotNil(t, errors.Unwrap(te))
}

func TestRegister_TimeoutIsTransportError(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	t.Cleanup(srv.Close)
	t.Cleanup(func() { close(release) })

	cfg := client.NewDefaultConfig()
	cfg.BaseURL = srv.URL + "/api"
	cfg.Timeout = 50 * time.Millisecond
	c, err := client.New(cfg)
	require.NoError(t, err)

	_, err = c.Register(context.Background())
	var te *client.TransportError
	require.ErrorAs(t, err, &te)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestRegister_CancelledContext(t *testing.T) {
	svc := testutil.NewFakeService(t, "abc123", "aGVsbG8=")
	c := newClient(t, svc.BaseURL())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := c.Register(ctx)

	var te *client.TransportError
	require.ErrorAs(t, err, &te)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, svc.Calls("register"))
}

func TestRegister_OversizedBody(t *testing.T) {
	svc := testutil.NewFakeService(t, "abc123", "aGVsbG8=")
	svc.OnRegister(testutil.Respond(http.StatusOK, `{"sessionId":"`+strings.Repeat("a", 200)+`"}`))

	cfg := client.NewDefaultConfig()
	cfg.BaseURL = svc.BaseURL()
	cfg.MaxResponseBytes = 64
	c, err := client.New(cfg)
	require.NoError(t, err)

	_, err = c.Register(context.Background())
	var pe *client.ProtocolError
	require.ErrorAs(t, err, &pe)
	assert.Contains(t, pe.Reason, "exceeds 64 bytes")
}

func TestGetCryptoContext_SendsSessionHeaderVerbatim(t *testing.T) {
	// HTTP strips surrounding whitespace from header values, so only inner
	// characters are exercised here.
	for _, id := range []string{"abc123", "MiXeD-Case", "with space", "tok.en+/=="} {
		t.Run(id, func(t *testing.T) {
			svc := testutil.NewFakeService(t, id, "aGVsbG8=")
			c := newClient(t, svc.BaseURL())

			sid, err := c.Register(context.Background())
			require.NoError(t, err)
			_, err = c.GetCryptoContext(context.Background(), sid)
			require.NoError(t, err)

			reqs := svc.Requests()
			require.Len(t, reqs, 2)
			r := reqs[1]
			assert.Equal(t, "/api/v0.1.0/getCryptoContext", r.Path)
			assert.Equal(t, http.MethodPost, r.Method)
			assert.Equal(t, []string{id}, r.Header.Values(client.SessionHeader))
			assert.Empty(t, r.Body)
		})
	}
}

func TestGetCryptoContext_NeverDecodes(t *testing.T) {
	for _, wire := range []string{"aGVsbG8=", "not-base64!!", `{"params":"json-serialized"}`} {
		t.Run(wire, func(t *testing.T) {
			svc := testutil.NewFakeService(t, "abc123", wire)
			c := newClient(t, svc.BaseURL())

			cc, err := c.GetCryptoContext(context.Background(), "abc123")
			require.NoError(t, err)
			assert.Equal(t, wire, cc.Raw())
		})
	}
}

func TestGetCryptoContext_EmptySessionRejectedLocally(t *testing.T) {
	svc := testutil.NewFakeService(t, "abc123", "aGVsbG8=")
	c := newClient(t, svc.BaseURL())

	_, err := c.GetCryptoContext(context.Background(), "")
	require.ErrorIs(t, err, client.ErrEmptySessionID)
	assert.Equal(t, 0, svc.Calls("getCryptoContext"))
}

func TestGetCryptoContext_InvalidSessionRejectedLocally(t *testing.T) {
	for _, id := range []string{"a\nb", " lead", "trail\t", "nul\x00"} {
		t.Run(fmt.Sprintf("%q", id), func(t *testing.T) {
			svc := testutil.NewFakeService(t, "abc123", "aGVsbG8=")
			c := newClient(t, svc.BaseURL())

			_, err := c.GetCryptoContext(context.Background(), id)
			require.ErrorIs(t, err, client.ErrInvalidSessionID)

			var te *client.TransportError
			assert.False(t, errors.As(err, &te))
			assert.Equal(t, 0, svc.Calls("getCryptoContext"))
		})
	}
}

func TestGetCryptoContext_KeepsResponseBody(t *testing.T) {
	svc := testutil.NewFakeService(t, "abc123", "aGVsbG8=")
	svc.OnGetCryptoContext(testutil.Respond(http.StatusOK, `{"cryptoContext":"aGVsbG8=","scheme":"ckks"}`))
	c := newClient(t, svc.BaseURL())

	cc, err := c.GetCryptoContext(context.Background(), "abc123")
	require.NoError(t, err)
	assert.Equal(t, "aGVsbG8=", cc.Raw())
	assert.JSONEq(t, `{"cryptoContext":"aGVsbG8=","scheme":"ckks"}`, string(cc.Response()))
	assert.Nil(t, client.NewCryptoContext("aGVsbG8=").Response())
}

func TestGetCryptoContext_ProtocolErrors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{"unknown session", http.StatusUnauthorized, `{"error":"unknown session"}`},
		{"missing field", http.StatusOK, `{"sessionId":"abc123"}`},
		{"wrong type", http.StatusOK, `{"cryptoContext":{"n":1}}`},
		{"empty", http.StatusOK, `{"cryptoContext":""}`},
		{"not json", http.StatusOK, `<html>`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := testutil.NewFakeService(t, "abc123", "aGVsbG8=")
			svc.OnGetCryptoContext(testutil.Respond(tt.status, tt.body))
			c := newClient(t, svc.BaseURL())

			cc, err := c.GetCryptoContext(context.Background(), "abc123")
			assert.True(t, cc.IsZero())
			var pe *client.ProtocolError
			require.ErrorAs(t, err, &pe)
			assert.Equal(t, client.StepGetCryptoContext, pe.Step)
		})
	}
}

func TestGetCryptoContext_TransportError(t *testing.T) {
	c := newClient(t, testutil.ClosedURL(t))
	_, err := c.GetCryptoContext(context.Background(), "abc123")
	var te *client.TransportError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, client.StepGetCryptoContext, te.Step)
}

func TestNew_ValidatesConfig(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *client.Config)
	}{
		{"empty base url", func(c *client.Config) { c.BaseURL = "" }},
		{"relative base url", func(c *client.Config) { c.BaseURL = "/api" }},
		{"ftp scheme", func(c *client.Config) { c.BaseURL = "ftp://host/api" }},
		{"unparseable", func(c *client.Config) { c.BaseURL = "http://[::1" }},
		{"no version", func(c *client.Config) { c.APIVersion = "" }},
		{"zero timeout", func(c *client.Config) { c.Timeout = 0 }},
		{"negative limit", func(c *client.Config) { c.MaxResponseBytes = -1 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := client.NewDefaultConfig()
			tt.mutate(&cfg)
			_, err := client.New(cfg)
			assert.ErrorIs(t, err, client.ErrInvalidConfig)
		})
	}
}

func TestNewDefaultConfig(t *testing.T) {
	cfg := client.NewDefaultConfig()
	assert.Equal(t, "http://localhost:6969/api", cfg.BaseURL)
	assert.Equal(t, "v0.1.0", cfg.APIVersion)
	assert.Equal(t, 30*time.Second, cfg.Timeout)

	c, err := client.New(cfg)
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:6969/api/v0.1.0/register", c.Endpoint("register"))
	assert.Equal(t, "http://localhost:6969/api/v0.1.0/getCryptoContext", c.Endpoint("getCryptoContext"))
}

func TestEndpoint_TrailingSlashBaseURL(t *testing.T) {
	cfg := client.NewDefaultConfig()
	cfg.BaseURL = "https://svc.example/api/"
	c, err := client.New(cfg)
	require.NoError(t, err)
	assert.Equal(t, "https://svc.example/api/v0.1.0/register", c.Endpoint("register"))
}

func TestWithHTTPClient_IsUsed(t *testing.T) {
	svc := testutil.NewFakeService(t, "abc123", "aGVsbG8=")
	var seen int
	hc := &http.Client{Transport: roundTripFunc(func(r *http.Request) (*http.Response, error) {
		seen++
		return http.DefaultTransport.RoundTrip(r)
	})}
	c := newClient(t, svc.BaseURL(), client.WithHTTPClient(hc))

	_, err := c.Register(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, seen)
}

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }
