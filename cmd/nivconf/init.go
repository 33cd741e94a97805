package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/spf13/cobra"

	"github.com/dshills/nivconf/internal/config"
	"github.com/dshills/nivconf/internal/config/loader"
)

func newInitCmd(a *app) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init [file]",
		Short: "Write the default configuration",
		Long: `Write the built-in defaults as a TOML file, by default to
~/.niv/config.toml. An existing file is left alone unless --force is given.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := loader.UserPath(a.home)
			if len(args) == 1 {
				path = args[0]
			}

			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("%s already exists (use --force to overwrite)", path)
			} else if err != nil && !errors.Is(err, fs.ErrNotExist) {
				return config.Classify(path, err)
			}

			if err := config.Default().Save(path); err != nil {
				return err
			}
			a.logger.Info("wrote default config", "path", path)
			fmt.Fprintln(a.out, path)
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing file")
	return cmd
}
