// Copyright (c) 2026 ccprobe Team
// ccprobe - session bootstrap and crypto context probe
// This source code is licensed under the MIT license found in the LICENSE file.

package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/goccy/go-yaml"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/genzdna/ccprobe/internal/i18n"
	"github.com/genzdna/ccprobe/internal/logging"
)

func newDebugCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "debug",
		Short: "Dump debug information about config, env and flags",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, "--- CCPROBE DEBUG ---")

			b, err := yaml.Marshal(&a.cfg)
			if err != nil {
				logging.Errorf("could not marshal effective config: %v", err)
			} else {
				fmt.Fprintln(out, "-- effective config --")
				fmt.Fprint(out, string(b))
			}

			fmt.Fprintf(out, "active language: %s\n", i18n.GetLang())

			fmt.Fprintln(out, "-- flags --")
			cmd.Flags().VisitAll(func(f *pflag.Flag) {
				fmt.Fprintf(out, "%s = %s\n", f.Name, f.Value.String())
			})

			// Environment variables of interest
			fmt.Fprintln(out, "-- environment (CCPROBE_*) --")
			for _, e := range os.Environ() {
				if strings.HasPrefix(e, "CCPROBE_") {
					fmt.Fprintln(out, e)
				}
			}
			fmt.Fprintln(out, "--- END DEBUG ---")
		},
	}
}
