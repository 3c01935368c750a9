// Copyright (c) 2026 ccprobe Team
// ccprobe - session bootstrap and crypto context probe
// This source code is licensed under the MIT license found in the LICENSE file.
package cli

import (
	"errors"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/genzdna/ccprobe/client"
	"github.com/genzdna/ccprobe/internal/i18n"
	"github.com/genzdna/ccprobe/internal/output"
)

// decodeCmd decodes a previously captured crypto context without talking to
// the service. "-" reads the value from stdin.
func newDecodeCmd(a *app) *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "decode <value|->",
		Short: "Base64-decode a captured crypto context offline",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw := args[0]
			if raw == "-" {
				b, err := io.ReadAll(cmd.InOrStdin())
				if err != nil {
					return err
				}
				raw = strings.TrimSpace(string(b))
			}
			if raw == "" {
				return errors.New(i18n.T("error.no_input"))
			}

			p := a.printer(cmd)
			report := output.Report{Stage: client.StageContextObtained.String()}
			return a.emitContext(p, &report, client.NewCryptoContext(raw), &runOptions{decode: true, out: out})
		},
	}
	cmd.Flags().StringVar(&out, "out", "", "write the decoded bytes to this file; .zst compresses")
	return cmd
}
