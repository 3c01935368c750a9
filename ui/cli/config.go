// Copyright (c) 2026 ccprobe Team
// ccprobe - session bootstrap and crypto context probe
// This source code is licensed under the MIT license found in the LICENSE file.
package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/genzdna/ccprobe/internal/config"
	"github.com/genzdna/ccprobe/internal/i18n"
)

func newConfigCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage the ccprobe configuration file",
	}

	var system bool
	var path string
	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Write the effective configuration to ccprobe.yaml",
		Long: `Writes the configuration ccprobe would use right now (defaults, file,
environment and flags merged) as YAML. By default the file goes to the user
config directory; --system targets the system-wide location and --path any
file.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var err error
			if path != "" {
				err = config.WriteConfigFileAt(&a.cfg, path)
			} else {
				path, err = config.WriteConfigFile(&a.cfg, system)
			}
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), i18n.T("config.written", path))
			return nil
		},
	}
	initCmd.Flags().BoolVar(&system, "system", false, "write the system-wide config file")
	initCmd.Flags().StringVar(&path, "path", "", "write to this file instead")

	cmd.AddCommand(initCmd)
	return cmd
}
