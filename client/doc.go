// Copyright (c) 2026 ccprobe Team
// ccprobe - session bootstrap and crypto context probe
// This source code is licensed under the MIT license found in the LICENSE file.

// Package client drives the two-step session bootstrap against the service
// under test: register to obtain a session identifier, then present that
// identifier to fetch the serialized crypto context.
//
// The crypto context is returned exactly as it arrived on the wire. Base64
// decoding is a separate call on CryptoContext and is never done implicitly.
package client
