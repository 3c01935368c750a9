// Copyright (c) 2026 ccprobe Team
// ccprobe - session bootstrap and crypto context probe
// This source code is licensed under the MIT license found in the LICENSE file.
package client

import "encoding/base64"

// CryptoContext is the serialized context returned by getCryptoContext. The
// server defines whether the string is base64; callers that know it is
// should call Decode.
type CryptoContext struct {
	raw      string
	response []byte
}

// NewCryptoContext wraps a wire value.
func NewCryptoContext(raw string) CryptoContext {
	return CryptoContext{raw: raw}
}

// Raw returns the value exactly as received.
func (c CryptoContext) Raw() string { return c.raw }

// Response is the full getCryptoContext response body the value was taken
// from, or nil when the context did not come from the service.
func (c CryptoContext) Response() []byte { return c.response }

func (c CryptoContext) IsZero() bool { return c.raw == "" }

// Len is the length of the raw wire value in bytes.
func (c CryptoContext) Len() int { return len(c.raw) }

// Decode interprets the raw value as padded standard base64. The receiver is
// not modified, so repeated calls return the same result.
func (c CryptoContext) Decode() ([]byte, error) {
	b, err := base64.StdEncoding.Strict().DecodeString(c.raw)
	if err != nil {
		return nil, &DecodeError{Err: err}
	}
	return b, nil
}
