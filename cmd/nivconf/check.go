package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
	"github.com/spf13/cobra"

	"github.com/dshills/nivconf/internal/config"
	"github.com/dshills/nivconf/internal/config/loader"
)

func newCheckCmd(a *app) *cobra.Command {
	var strict bool

	cmd := &cobra.Command{
		Use:   "check [file...]",
		Short: "Validate configuration files",
		Long: `Parse and validate each file, or the discovered file when none is given.

Warnings (unknown keys, clamped values) are printed but do not fail the
check. With --strict each file is also decoded by an independent TOML
decoder and warnings count as failures.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			files := args
			if len(files) == 0 {
				ld := loader.New(loader.WithPaths(a.candidates()...), loader.WithLogger(a.logger))
				if err := ld.Discover(); err != nil {
					return err
				}
				files = []string{ld.Path()}
			}

			failed := 0
			for _, f := range files {
				if err := a.checkFile(f, strict); err != nil {
					fmt.Fprintf(a.out, "FAIL %s\n  %v\n", f, err)
					failed++
					continue
				}
				fmt.Fprintf(a.out, "ok   %s\n", f)
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d files failed", failed, len(files))
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&strict, "strict", false, "Cross-check with a second decoder and fail on warnings")
	return cmd
}

func (a *app) checkFile(path string, strict bool) error {
	ld := loader.New(loader.WithPaths(path), loader.WithLogger(a.logger))
	if err := ld.Load(); err != nil {
		return err
	}

	snap := ld.Snapshot()
	for _, w := range snap.Warnings {
		fmt.Fprintf(a.out, "warn %s: %s\n", path, w)
	}
	if !strict {
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return config.Classify(path, err)
	}
	var v map[string]any
	if _, err := toml.Decode(string(data), &v); err != nil {
		return &config.Error{Kind: config.KindParse, File: path, Err: fmt.Errorf("reference decoder: %w", err)}
	}
	if len(snap.Warnings) > 0 {
		return errors.New("warnings are errors in strict mode")
	}
	return nil
}
