// Copyright (c) 2026 ccprobe Team
// ccprobe - session bootstrap and crypto context probe
// This source code is licensed under the MIT license found in the LICENSE file.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"golang.org/x/net/http/httpguts"
)

// SessionHeader carries the session identifier on every call after register.
const SessionHeader = "X-Session-Id"

// RequestIDHeader carries a per-request correlation id.
const RequestIDHeader = "X-Request-Id"

// Client talks to the service under test. It holds no per-session state; the
// session id is passed explicitly to GetCryptoContext.
type Client struct {
	cfg        Config
	base       *url.URL
	httpClient *http.Client
	logger     *log.Logger
	requestID  func() string
	publicKey  string
}

type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client. Its own Timeout, if set,
// applies in addition to Config.Timeout.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

func WithLogger(l *log.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithRequestID overrides how X-Request-Id values are generated.
func WithRequestID(fn func() string) Option {
	return func(c *Client) {
		if fn != nil {
			c.requestID = fn
		}
	}
}

// WithPublicKey makes Register send {"publicKey": b64} instead of an empty body.
func WithPublicKey(b64 string) Option {
	return func(c *Client) { c.publicKey = b64 }
}

func New(cfg Config, opts ...Option) (*Client, error) {
	base, err := cfg.validate()
	if err != nil {
		return nil, err
	}
	c := &Client{
		cfg:        cfg,
		base:       base,
		httpClient: &http.Client{},
		logger:     log.New(io.Discard),
		requestID:  func() string { return uuid.New().String() },
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Endpoint returns the absolute URL for an API call name such as "register".
func (c *Client) Endpoint(name string) string {
	return c.base.JoinPath(c.cfg.APIVersion, name).String()
}

type registerRequest struct {
	PublicKey string `json:"publicKey"`
}

// Register creates a new session and returns its identifier unmodified.
func (c *Client) Register(ctx context.Context) (string, error) {
	var body []byte
	header := http.Header{}
	if c.publicKey != "" {
		b, err := json.Marshal(registerRequest{PublicKey: c.publicKey})
		if err != nil {
			return "", fmt.Errorf("%s: encode request: %w", StepRegister, err)
		}
		body = b
		header.Set("Content-Type", "application/json")
	}

	resp, err := c.post(ctx, StepRegister, "register", header, body)
	if err != nil {
		return "", err
	}
	sid, err := resp.stringField("sessionId")
	if err != nil {
		return "", err
	}
	if !validSessionID(sid) {
		return "", resp.protocolError(fmt.Sprintf("field %q cannot be carried in %s", "sessionId", SessionHeader))
	}
	return sid, nil
}

// validSessionID reports whether id survives the trip as a header value
// byte for byte. The HTTP stack rejects control characters and trims
// surrounding spaces and tabs.
func validSessionID(id string) bool {
	return httpguts.ValidHeaderFieldValue(id) && strings.Trim(id, " \t") == id
}

// GetCryptoContext fetches the crypto context bound to sessionID. The result
// is never decoded here; see CryptoContext.Decode.
func (c *Client) GetCryptoContext(ctx context.Context, sessionID string) (CryptoContext, error) {
	if sessionID == "" {
		return CryptoContext{}, fmt.Errorf("%s: %w", StepGetCryptoContext, ErrEmptySessionID)
	}
	if !validSessionID(sessionID) {
		return CryptoContext{}, fmt.Errorf("%s: %w: %q", StepGetCryptoContext, ErrInvalidSessionID, sessionID)
	}
	header := http.Header{}
	// Set canonicalizes the key only; the value is sent as given.
	header.Set(SessionHeader, sessionID)

	resp, err := c.post(ctx, StepGetCryptoContext, "getCryptoContext", header, nil)
	if err != nil {
		return CryptoContext{}, err
	}
	raw, err := resp.stringField("cryptoContext")
	if err != nil {
		return CryptoContext{}, err
	}
	return CryptoContext{raw: raw, response: resp.body}, nil
}

// response is a 2xx reply whose body parsed as a JSON object.
type response struct {
	step   string
	status int
	body   []byte
	fields map[string]json.RawMessage
}

func (r *response) protocolError(reason string) *ProtocolError {
	return &ProtocolError{Step: r.step, StatusCode: r.status, Body: r.body, Reason: reason}
}

// stringField returns a required, non-empty string member of the body.
func (r *response) stringField(name string) (string, error) {
	v, ok := r.fields[name]
	if !ok {
		return "", r.protocolError(fmt.Sprintf("response has no %q field", name))
	}
	if bytes.Equal(bytes.TrimSpace(v), []byte("null")) {
		return "", r.protocolError(fmt.Sprintf("field %q is null", name))
	}
	var s string
	if err := json.Unmarshal(v, &s); err != nil {
		return "", r.protocolError(fmt.Sprintf("field %q is not a string", name))
	}
	if s == "" {
		return "", r.protocolError(fmt.Sprintf("field %q is empty", name))
	}
	return s, nil
}

func (c *Client) post(ctx context.Context, step, name string, header http.Header, body []byte) (*response, error) {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	var rdr io.Reader = http.NoBody
	if body != nil {
		rdr = bytes.NewReader(body)
	}
	endpoint := c.Endpoint(name)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, rdr)
	if err != nil {
		return nil, fmt.Errorf("%s: build request: %w", step, err)
	}
	for k, vs := range header {
		req.Header[k] = vs
	}
	reqID := c.requestID()
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.cfg.UserAgent)
	req.Header.Set(RequestIDHeader, reqID)

	c.logger.Debug("sending request", "step", step, "method", req.Method, "url", endpoint, "request_id", reqID)
	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &TransportError{Step: step, Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, c.cfg.MaxResponseBytes+1))
	if err != nil {
		return nil, &TransportError{Step: step, Err: fmt.Errorf("read response body: %w", err)}
	}
	c.logger.Debug("received response", "step", step, "status", resp.StatusCode, "bytes", len(raw),
		"duration", time.Since(start), "request_id", reqID)

	r := &response{step: step, status: resp.StatusCode, body: raw}
	if int64(len(raw)) > c.cfg.MaxResponseBytes {
		return nil, r.protocolError(fmt.Sprintf("response body exceeds %d bytes", c.cfg.MaxResponseBytes))
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, r.protocolError("unexpected status")
	}
	if err := json.Unmarshal(raw, &r.fields); err != nil || r.fields == nil {
		return nil, r.protocolError("response body is not a JSON object")
	}
	return r, nil
}
