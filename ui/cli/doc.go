// Copyright (c) 2026 ccprobe Team
// ccprobe - session bootstrap and crypto context probe
// This source code is licensed under the MIT license found in the LICENSE file.
//
// Package cli implements the command-line interface for ccprobe using Cobra.
// It wires configuration, logging and output around the bootstrap client.
// CLI code should remain thin and leave protocol behaviour to package client.
package cli
