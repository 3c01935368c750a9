// Copyright (c) 2026 ccprobe Team
// ccprobe - session bootstrap and crypto context probe
// This source code is licensed under the MIT license found in the LICENSE file.
package cli

import (
	"errors"

	"github.com/genzdna/ccprobe/client"
)

// Process exit statuses.
const (
	ExitOK        = 0
	ExitUsage     = 1
	ExitTransport = 2
	ExitProtocol  = 3
	ExitDecode    = 4
)

// ExitCode maps an error returned by Execute to the process exit status.
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}
	var (
		de *client.DecodeError
		pe *client.ProtocolError
		te *client.TransportError
	)
	switch {
	case errors.As(err, &de):
		return ExitDecode
	case errors.As(err, &pe):
		return ExitProtocol
	case errors.As(err, &te):
		return ExitTransport
	}
	return ExitUsage
}

// FailedStep names the bootstrap step err came from, or "" if it did not
// come from one.
func FailedStep(err error) string {
	var (
		de *client.DecodeError
		pe *client.ProtocolError
		te *client.TransportError
	)
	switch {
	case errors.As(err, &pe):
		return pe.Step
	case errors.As(err, &te):
		return te.Step
	case errors.As(err, &de):
		return "decode"
	case errors.Is(err, client.ErrEmptySessionID), errors.Is(err, client.ErrInvalidSessionID):
		return client.StepGetCryptoContext
	}
	return ""
}
