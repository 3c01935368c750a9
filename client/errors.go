// Copyright (c) 2026 ccprobe Team
// ccprobe - session bootstrap and crypto context probe
// This source code is licensed under the MIT license found in the LICENSE file.
package client

import (
	"errors"
	"fmt"
)

// Step names used in diagnostics.
const (
	StepRegister         = "register"
	StepGetCryptoContext = "getCryptoContext"
)

// maxBodyInError caps how much of a response body is echoed in a ProtocolError message.
const maxBodyInError = 512

var (
	ErrInvalidConfig    = errors.New("invalid client config")
	ErrEmptySessionID   = errors.New("session id is empty")
	// ErrInvalidSessionID means the id cannot be sent unchanged in SessionHeader.
	ErrInvalidSessionID = errors.New("session id is not a valid header value")
)

// TransportError reports that a request could not complete at the network
// level (connection refused, timeout, cancellation).
type TransportError struct {
	Step string
	Err  error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: transport error: %v", e.Step, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// ProtocolError reports a response that does not match the contract: a
// non-2xx status, a body that is not a JSON object, or a missing or mistyped
// field.
type ProtocolError struct {
	Step       string
	StatusCode int
	Body       []byte
	Reason     string
}

func (e *ProtocolError) Error() string {
	msg := fmt.Sprintf("%s: protocol error: %s", e.Step, e.Reason)
	if e.StatusCode != 0 {
		msg += fmt.Sprintf(" (HTTP %d)", e.StatusCode)
	}
	if len(e.Body) > 0 {
		msg += fmt.Sprintf(": %s", truncateBody(e.Body))
	}
	return msg
}

// DecodeError reports that a crypto context is not valid base64. It is only
// produced by CryptoContext.Decode.
type DecodeError struct {
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("crypto context is not valid base64: %v", e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

func truncateBody(b []byte) string {
	if len(b) > maxBodyInError {
		return string(b[:maxBodyInError]) + "..."
	}
	return string(b)
}
