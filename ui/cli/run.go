// Copyright (c) 2026 ccprobe Team
// ccprobe - session bootstrap and crypto context probe
// This source code is licensed under the MIT license found in the LICENSE file.
package cli

import (
	"encoding/base64"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/genzdna/ccprobe/client"
	"github.com/genzdna/ccprobe/internal/i18n"
	"github.com/genzdna/ccprobe/internal/logging"
	"github.com/genzdna/ccprobe/internal/output"
)

type runOptions struct {
	decode        bool
	out           string
	publicKeyFile string
	copySession   bool
}

func addRunFlags(cmd *cobra.Command, o *runOptions) {
	addRegisterFlags(cmd, o)
	addContextFlags(cmd, o)
}

func addRegisterFlags(cmd *cobra.Command, o *runOptions) {
	cmd.Flags().StringVar(&o.publicKeyFile, "public-key-file", "", "send this file, base64-encoded, as publicKey on register")
	cmd.Flags().BoolVar(&o.copySession, "copy-session", false, "copy the session id to the clipboard")
}

func addContextFlags(cmd *cobra.Command, o *runOptions) {
	cmd.Flags().BoolVar(&o.decode, "decode", false, "base64-decode the crypto context")
	cmd.Flags().StringVar(&o.out, "out", "", "write the context (decoded with --decode) to this file; .zst compresses")
}

// runCmd represents the 'run' command: register, then fetch the crypto
// context for the new session.
func newRunCmd(a *app) *cobra.Command {
	o := &runOptions{}
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Register a session and fetch its crypto context",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runBootstrap(cmd, o)
		},
	}
	addRunFlags(cmd, o)
	return cmd
}

func newRegisterCmd(a *app) *cobra.Command {
	o := &runOptions{}
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Register a session and print its id",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.clientFor(o)
			if err != nil {
				return err
			}
			p := a.printer(cmd)
			report := output.Report{Stage: client.StageNotStarted.String()}

			p.Step(i18n.T("run.register_header"))
			sid, err := c.Register(cmd.Context())
			if err != nil {
				return fail(p, &report, err)
			}
			report.SessionID = sid
			report.Stage = client.StageSessionObtained.String()
			p.Value("session_id", sid)
			a.maybeCopy(p, o, sid)
			return p.Finish(report)
		},
	}
	addRegisterFlags(cmd, o)
	return cmd
}

func newContextCmd(a *app) *cobra.Command {
	o := &runOptions{}
	var sessionID string
	cmd := &cobra.Command{
		Use:   "context",
		Short: "Fetch the crypto context for an existing session id",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.clientFor(o)
			if err != nil {
				return err
			}
			p := a.printer(cmd)
			report := output.Report{Stage: client.StageSessionObtained.String(), SessionID: sessionID}

			p.Step(i18n.T("run.context_header"))
			cc, err := c.GetCryptoContext(cmd.Context(), sessionID)
			if err != nil {
				return fail(p, &report, err)
			}
			report.Stage = client.StageContextObtained.String()
			return a.emitContext(p, &report, cc, o)
		},
	}
	cmd.Flags().StringVar(&sessionID, "session", "", "session id returned by register")
	_ = cmd.MarkFlagRequired("session")
	addContextFlags(cmd, o)
	return cmd
}

func (a *app) runBootstrap(cmd *cobra.Command, o *runOptions) error {
	c, err := a.clientFor(o)
	if err != nil {
		return err
	}
	p := a.printer(cmd)

	res, err := c.Bootstrap(cmd.Context())
	report := output.Report{Stage: res.Stage.String(), SessionID: res.SessionID}

	p.Step(i18n.T("run.register_header"))
	if res.SessionID == "" {
		return fail(p, &report, err)
	}
	p.Value("session_id", res.SessionID)
	a.maybeCopy(p, o, res.SessionID)

	p.Step(i18n.T("run.context_header"))
	if err != nil {
		return fail(p, &report, err)
	}
	return a.emitContext(p, &report, res.CryptoContext, o)
}

// emitContext prints the raw context, then decodes and saves it if asked.
func (a *app) emitContext(p *output.Printer, report *output.Report, cc client.CryptoContext, o *runOptions) error {
	report.CryptoContext = cc.Raw()
	if body := cc.Response(); body != nil {
		report.Response = body
		logging.Debugf("getCryptoContext response: %s", body)
	}
	p.Value("crypto_context", cc.Raw())

	artifact := []byte(cc.Raw())
	if o.decode {
		b, err := cc.Decode()
		if err != nil {
			return fail(p, report, err)
		}
		report.SetDecoded(b)
		p.Note(i18n.T("run.decoded", len(b)))
		p.Decoded(b)
		artifact = b
	}

	if o.out != "" {
		if err := a.save(p, report, o.out, artifact); err != nil {
			return fail(p, report, err)
		}
	}
	return p.Finish(*report)
}

func (a *app) save(p *output.Printer, report *output.Report, path string, data []byte) error {
	n, err := output.WriteArtifact(path, data)
	if err != nil {
		return errors.New(i18n.T("error.save_failed", err))
	}
	report.Artifact = path
	p.Note(i18n.T("run.saved", n, path))
	return nil
}

func (a *app) maybeCopy(p *output.Printer, o *runOptions, sid string) {
	if !o.copySession {
		return
	}
	if err := output.CopyToClipboard(sid); err != nil {
		logging.Warnf("%s", i18n.T("error.copy_failed", err))
		return
	}
	p.Note(i18n.T("run.copied"))
}

func (a *app) clientFor(o *runOptions) (*client.Client, error) {
	var opts []client.Option
	if o.publicKeyFile != "" {
		key, err := os.ReadFile(o.publicKeyFile)
		if err != nil {
			return nil, fmt.Errorf("could not read public key file: %w", err)
		}
		opts = append(opts, client.WithPublicKey(base64.StdEncoding.EncodeToString(key)))
	}
	return a.newClient(opts...)
}

// fail records err on the report, emits it in JSON mode, and returns err.
func fail(p *output.Printer, report *output.Report, err error) error {
	report.Stage = client.StageFailed.String()
	report.Step = FailedStep(err)
	report.Error = err.Error()
	p.Note(i18n.T("run.stage", report.Stage))
	_ = p.Finish(*report)
	return err
}
