// Package commands implements the counterview command line.
package commands

import (
	"context"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/robbyt/go-counterview/config"
)

// app carries state shared by every subcommand once flags are parsed.
type app struct {
	cfg        config.Config
	logHandler slog.Handler
	stderr     io.Writer
}

// Execute runs the command line with args.
func Execute(ctx context.Context, args []string) error {
	root := newRootCmd(os.Stderr)
	root.SetArgs(args)
	return root.ExecuteContext(ctx)
}

func newRootCmd(stderr io.Writer) *cobra.Command {
	a := &app{stderr: stderr}
	var flags config.Config

	root := &cobra.Command{
		Use:           "counterview",
		Short:         "Serve a click counter and bootstrap a WebAssembly module",
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			applyFlags(cmd, &cfg, flags)
			if err := cfg.Validate(); err != nil {
				return err
			}

			handler, err := cfg.NewLogHandler(a.stderr)
			if err != nil {
				return err
			}
			a.cfg = cfg
			a.logHandler = handler
			return nil
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&flags.Module, "module", "", "module path or http(s) URL (default embedded sample)")
	pf.StringVar(&flags.Engine, "engine", config.EngineWazero, "module engine: wazero or extism")
	pf.StringVar(&flags.EntryPoint, "entry-point", "add", "exported function to call")
	pf.BoolVar(&flags.WASI, "wasi", true, "make WASI preview1 available to the module")
	pf.StringVar(&flags.LogLevel, "log-level", "info", "log level: debug, info, warn, error")
	pf.StringVar(&flags.LogFormat, "log-format", config.FormatText, "log format: text or json")

	pf.StringVar(&flags.Addr, "addr", ":8080", "listen address of the view")

	serve := serveCmd(a)
	root.AddCommand(serve, bootstrapCmd(a), bmpCmd())
	root.RunE = serve.RunE

	root.SetErr(stderr)
	return root
}

// applyFlags copies explicitly set flags over the environment config.
func applyFlags(cmd *cobra.Command, cfg *config.Config, flags config.Config) {
	changed := func(name string) bool {
		f := cmd.Flags().Lookup(name)
		return f != nil && f.Changed
	}
	if changed("module") {
		cfg.Module = flags.Module
	}
	if changed("engine") {
		cfg.Engine = flags.Engine
	}
	if changed("entry-point") {
		cfg.EntryPoint = flags.EntryPoint
	}
	if changed("wasi") {
		cfg.WASI = flags.WASI
	}
	if changed("log-level") {
		cfg.LogLevel = flags.LogLevel
	}
	if changed("log-format") {
		cfg.LogFormat = flags.LogFormat
	}
	if changed("addr") {
		cfg.Addr = flags.Addr
	}
}
