package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dshills/nivconf/internal/config/layer"
	"github.com/dshills/nivconf/internal/config/loader"
)

// app holds what the commands share: output streams, global flags and the
// logger built from them.
type app struct {
	out    io.Writer
	errOut io.Writer
	logger *slog.Logger

	logLevel  string
	logFormat string
	home      string
	cwd       string

	// environ feeds environment overrides; nil means os.Environ.
	environ []string
}

func newApp(out, errOut io.Writer) *app {
	return &app{
		out:    out,
		errOut: errOut,
		logger: slog.New(slog.NewTextHandler(errOut, &slog.HandlerOptions{Level: slog.LevelWarn})),
	}
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "nivconf",
		Short: "Inspect and validate niv editor configuration",
		Long: `nivconf reads the niv editor's TOML configuration.

Single-file commands (check, get --file) use the first file found on the
discovery list. Layered commands (show, get, watch) merge the system, user
and project files and NIV_* environment overrides, higher layers winning
key by key.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup()
		},
	}
	root.CompletionOptions.DisableDefaultCmd = true
	root.SetOut(a.out)
	root.SetErr(a.errOut)

	flags := root.PersistentFlags()
	flags.StringVar(&a.logLevel, "log-level", "warn", "Log level: debug, info, warn or error")
	flags.StringVar(&a.logFormat, "log-format", "text", "Log format: text or json")
	flags.StringVar(&a.home, "home", "", "Home directory used for discovery (default $HOME)")
	flags.StringVar(&a.cwd, "cwd", "", "Project directory used for discovery (default working directory)")

	root.AddCommand(
		newPathsCmd(a),
		newCheckCmd(a),
		newShowCmd(a),
		newGetCmd(a),
		newInitCmd(a),
		newWatchCmd(a),
	)
	return root
}

// setup builds the logger and fills directory defaults.
func (a *app) setup() error {
	var level slog.Level
	if err := level.UnmarshalText([]byte(a.logLevel)); err != nil {
		return fmt.Errorf("invalid --log-level %q", a.logLevel)
	}
	opts := &slog.HandlerOptions{Level: level}
	switch strings.ToLower(a.logFormat) {
	case "text":
		a.logger = slog.New(slog.NewTextHandler(a.errOut, opts))
	case "json":
		a.logger = slog.New(slog.NewJSONHandler(a.errOut, opts))
	default:
		return fmt.Errorf("invalid --log-format %q: want text or json", a.logFormat)
	}

	if a.home == "" {
		a.home, _ = os.UserHomeDir()
	}
	if a.cwd == "" {
		a.cwd, _ = os.Getwd()
	}
	return nil
}

// candidates returns the single-file discovery list.
func (a *app) candidates() []string {
	return loader.Candidates(a.home, os.Getenv("XDG_CONFIG_HOME"), a.cwd)
}

// manager builds the layered store with environment overrides on top.
func (a *app) manager() (*layer.Manager, error) {
	env := loader.NewEnvLoader(loader.EnvPrefix)
	if a.environ != nil {
		env = loader.NewEnvLoaderFrom(loader.EnvPrefix, a.environ)
	}
	overrides, err := env.Load()
	if err != nil {
		return nil, err
	}
	return layer.DefaultManager(a.home, a.cwd,
		layer.WithOverrides(overrides),
		layer.WithLogger(a.logger),
	), nil
}
