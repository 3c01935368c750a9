// Copyright (c) 2026 ccprobe Team
// ccprobe - session bootstrap and crypto context probe
// This source code is licensed under the MIT license found in the LICENSE file.

// Package testutil provides an in-process stand-in for the session service
// so tests can exercise the probe without a real backend.
package testutil

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
)

const apiPrefix = "/api/v0.1.0/"

// Request is a recorded inbound call.
type Request struct {
	Method string
	Path   string
	Header http.Header
	Body   []byte
}

// FakeService answers register and getCryptoContext. By default it issues
// SessionID, serves CryptoContext, and rejects unknown session ids with 401.
type FakeService struct {
	Server *httptest.Server

	mu            sync.Mutex
	sessionID     string
	cryptoContext string
	register      http.HandlerFunc
	getContext    http.HandlerFunc
	requests      []Request
}

// NewFakeService starts a server that is closed when t finishes.
func NewFakeService(t testing.TB, sessionID, cryptoContext string) *FakeService {
	f := &FakeService{sessionID: sessionID, cryptoContext: cryptoContext}
	mux := http.NewServeMux()
	mux.HandleFunc("POST "+apiPrefix+"register", f.record(func() http.HandlerFunc { return f.register }, f.defaultRegister))
	mux.HandleFunc("POST "+apiPrefix+"getCryptoContext", f.record(func() http.HandlerFunc { return f.getContext }, f.defaultGetContext))
	f.Server = httptest.NewServer(mux)
	t.Cleanup(f.Server.Close)
	return f
}

// BaseURL is the value to configure as the client's base URL.
func (f *FakeService) BaseURL() string { return f.Server.URL + "/api" }

// OnRegister replaces the register handler.
func (f *FakeService) OnRegister(h http.HandlerFunc) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.register = h
}

// OnGetCryptoContext replaces the getCryptoContext handler.
func (f *FakeService) OnGetCryptoContext(h http.HandlerFunc) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.getContext = h
}

// Requests returns a copy of every call received so far.
func (f *FakeService) Requests() []Request {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Request(nil), f.requests...)
}

// Calls counts requests to the named endpoint, e.g. "register".
func (f *FakeService) Calls(name string) int {
	n := 0
	for _, r := range f.Requests() {
		if r.Path == apiPrefix+name {
			n++
		}
	}
	return n
}

func (f *FakeService) record(override func() http.HandlerFunc, def http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		f.mu.Lock()
		f.requests = append(f.requests, Request{
			Method: r.Method,
			Path:   r.URL.Path,
			Header: r.Header.Clone(),
			Body:   body,
		})
		h := override()
		f.mu.Unlock()
		if h == nil {
			h = def
		}
		h(w, r)
	}
}

func (f *FakeService) defaultRegister(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, map[string]string{"sessionId": f.sessionID})
}

func (f *FakeService) defaultGetContext(w http.ResponseWriter, r *http.Request) {
	if r.Header.Get("X-Session-Id") != f.sessionID {
		WriteJSON(w, http.StatusUnauthorized, map[string]string{"error": "unknown session"})
		return
	}
	WriteJSON(w, http.StatusOK, map[string]string{"cryptoContext": f.cryptoContext})
}

// WriteJSON encodes v with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// Respond returns a handler that writes body verbatim with status.
func Respond(status int, body string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}
}

// ClosedURL returns a base URL on which nothing is listening.
func ClosedURL(t testing.TB) string {
	s := httptest.NewServer(http.NotFoundHandler())
	url := s.URL + "/api"
	s.Close()
	return url
}
