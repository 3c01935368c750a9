// Copyright (c) 2026 ccprobe Team
// ccprobe - session bootstrap and crypto context probe
// This source code is licensed under the MIT license found in the LICENSE file.

// main.go sets up the command-line interface for ccprobe using the Cobra
// library. It defines the root command, the persistent flags shared by every
// subcommand, configuration loading, and the entry point used by package main.

package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"runtime/debug"
	"strings"

	"github.com/spf13/cobra"

	"github.com/genzdna/ccprobe/buildvars"
	"github.com/genzdna/ccprobe/client"
	"github.com/genzdna/ccprobe/internal/config"
	"github.com/genzdna/ccprobe/internal/i18n"
	"github.com/genzdna/ccprobe/internal/logging"
	"github.com/genzdna/ccprobe/internal/output"
)

var version = buildvars.VersionOrDefault("dev") // this will be set by the linker
var gitCommit = orDefault(buildvars.Commit, "dev")
var buildDate = buildvars.BuildDate

// flagKeys binds persistent flag names to their config keys.
var flagKeys = map[string]string{
	"base-url":    "api.base_url",
	"api-version": "api.version",
	"timeout":     "http.timeout",
	"format":      "output.format",
	"color":       "output.color",
	"language":    "language",
}

// app carries the resolved configuration from PersistentPreRunE to the
// command that runs.
type app struct {
	cfg     config.Config
	verbose bool
}

func (a *app) setup(cmd *cobra.Command, args []string) error {
	logging.SetOutput(cmd.ErrOrStderr())

	if err := config.LoadDotEnv(); err != nil {
		logging.Warnf("%v", err)
	}

	explicit, err := getConfigPathFromCli(cmd)
	if err != nil {
		return err
	}
	a.cfg, err = config.LoadConfig[config.Config](cmd, config.Defaults(), flagKeys, explicit)
	if err != nil {
		return errors.New(i18n.T("config.error_load", err))
	}

	i18n.Init(a.cfg.Language)
	if err := a.cfg.Validate(); err != nil {
		return errors.New(i18n.T("config.error_invalid", err))
	}
	if err := logging.SetLevel(a.cfg.Log.Level); err != nil {
		return errors.New(i18n.T("config.error_invalid", err))
	}
	logging.SetDebug(a.verbose)
	logging.Debugf("resolved config: base_url=%s version=%s timeout=%s",
		a.cfg.API.BaseURL, a.cfg.API.Version, a.cfg.HTTP.Timeout)
	return nil
}

func (a *app) newClient(opts ...client.Option) (*client.Client, error) {
	opts = append([]client.Option{client.WithLogger(logging.L)}, opts...)
	return client.New(a.cfg.ClientConfig(), opts...)
}

func (a *app) printer(cmd *cobra.Command) *output.Printer {
	return output.NewPrinter(cmd.OutOrStdout(), a.cfg.Output.Format, a.cfg.Output.Color)
}

func getConfigPathFromCli(cmd *cobra.Command) (*string, error) {
	// Only proceed if the user has explicitly set the --config flag.
	if !cmd.Flags().Changed("config") {
		return nil, nil
	}
	path, err := cmd.Flags().GetString("config")
	if err != nil {
		return nil, fmt.Errorf("could not read --config flag: %w", err)
	}
	if path == "" {
		return nil, nil
	}
	// Make sure the user-provided file exists to avoid unwanted behavior.
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("config file specified via --config flag not found or is not accessible: %w", err)
	}
	return &path, nil
}

// Execute runs the CLI entrypoint. The main package should call this function
// and pass the error to ExitCode.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	rootCmd := NewRootCmd()
	err := rootCmd.ExecuteContext(ctx)
	if err != nil {
		reportError(err)
	}
	return err
}

// reportError logs err once, naming the failed step when there is one.
func reportError(err error) {
	if step := FailedStep(err); step != "" {
		logging.Errorf("%s", i18n.T("error.step_failed", step, err))
		return
	}
	logging.Errorf("%v", err)
}

// NewRootCmd creates and configures a new root cobra command.
// This function is used to create the main application command as well as
// fresh instances for isolated testing.
func NewRootCmd() *cobra.Command {
	a := &app{}
	runOpts := &runOptions{}

	cmd := &cobra.Command{
		Use:   "ccprobe",
		Short: "ccprobe exercises a service's session bootstrap and crypto context endpoints.",
		Long: `ccprobe registers a new session against the configured API, presents the
returned session id to fetch the session's serialized crypto context, and
prints both for manual verification.

The crypto context is printed exactly as received. Pass --decode only when
the server is known to send base64.

Running without a subcommand is the same as 'ccprobe run'.`,
		SilenceErrors:     true,
		SilenceUsage:      true,
		Args:              cobra.NoArgs,
		PersistentPreRunE: a.setup,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runBootstrap(cmd, runOpts)
		},
	}

	v, c, d := resolveBuildVersion(nil)
	compositeVersion := v
	if c != "" && c != "dev" {
		compositeVersion = compositeVersion + " (" + c + ")"
	}
	if d != "" {
		compositeVersion = compositeVersion + " built: " + d
	}
	cmd.Version = compositeVersion

	pf := cmd.PersistentFlags()
	pf.String("config", "", "config file (default is ccprobe.yaml in the user config dir or the working dir)")
	pf.String("base-url", client.DefaultBaseURL, "API base URL")
	pf.String("api-version", client.DefaultAPIVersion, "API version path segment")
	pf.Duration("timeout", client.DefaultTimeout, "per-request timeout")
	pf.String("format", output.FormatText, `output format ("text", "json")`)
	pf.String("color", "auto", `colorize output ("auto", "always", "never")`)
	pf.String("language", "en", fmt.Sprintf("message language (%s)", strings.Join(i18n.AvailableLocales(), ", ")))
	pf.BoolVarP(&a.verbose, "verbose", "v", false, "enable debug logging")

	addRunFlags(cmd, runOpts)

	cmd.AddCommand(
		newRunCmd(a),
		newRegisterCmd(a),
		newContextCmd(a),
		newDecodeCmd(a),
		newConfigCmd(a),
		newDebugCmd(a),
		newVersionCmd(),
	)

	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version",
		Args:  cobra.NoArgs,
		// Version needs no config.
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
		Run: func(cmd *cobra.Command, args []string) {
			v, c, d := resolveBuildVersion(nil)
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "version: %s\n", v)
			fmt.Fprintf(out, "commit: %s\n", c)
			if d != "" {
				fmt.Fprintf(out, "built: %s\n", d)
			}
		},
	}
}

// resolveBuildVersion computes the best-available version, commit and build
// date for the running binary. If `info` is nil, it reads build info from
// the runtime. This helper is separated to make unit testing straightforward.
func resolveBuildVersion(info *debug.BuildInfo) (versionOut, commitOut, dateOut string) {
	resolvedVersion := version
	resolvedCommit := gitCommit
	resolvedDate := buildDate

	if info == nil {
		if local, ok := debug.ReadBuildInfo(); ok {
			info = local
		}
	}

	if info != nil {
		if info.Main.Version != "" && info.Main.Version != "(devel)" {
			resolvedVersion = info.Main.Version
		}
		for _, s := range info.Settings {
			switch s.Key {
			case "vcs.revision":
				if s.Value != "" {
					resolvedCommit = s.Value
				}
			case "vcs.time":
				if s.Value != "" {
					resolvedDate = s.Value
				}
			}
		}
	}

	// As a last resort, if no version was discovered, but a gitCommit was
	// provided via ldflags, show that to aid support.
	if resolvedVersion == "dev" && gitCommit != "dev" && gitCommit != "" {
		resolvedVersion = gitCommit
	}

	return resolvedVersion, resolvedCommit, resolvedDate
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
