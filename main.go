// Copyright (c) 2026 ccprobe Team
// ccprobe - session bootstrap and crypto context probe
// This source code is licensed under the MIT license found in the LICENSE file.

// Command-line entrypoint for ccprobe.
//
// Usage:
//
//	go run . [flags]
//	./ccprobe [flags]
//
// This runs the session bootstrap against the configured API. See --help for options.
package main

import (
	"os"

	"github.com/genzdna/ccprobe/ui/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(cli.ExitCode(err))
	}
}
