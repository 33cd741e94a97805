package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dshills/nivconf/internal/config/loader"
	"github.com/dshills/nivconf/internal/config/toml"
)

func newGetCmd(a *app) *cobra.Command {
	var (
		file  string
		which bool
	)

	cmd := &cobra.Command{
		Use:   "get <path>",
		Short: "Print one setting, e.g. editor.tab_width",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]

			var (
				v      toml.Value
				ok     bool
				origin string
			)
			if file != "" {
				ld := loader.New(loader.WithPaths(file), loader.WithLogger(a.logger))
				if err := ld.Load(); err != nil {
					return err
				}
				v, ok = ld.Current().Lookup(path)
				origin = file
			} else {
				m, err := a.manager()
				if err != nil {
					return err
				}
				cfg, err := m.Effective()
				if err != nil {
					return err
				}
				v, ok = cfg.Lookup(path)
				if origin = m.WhichLayer(path); origin == "" {
					origin = "default"
				}
			}
			if !ok {
				return fmt.Errorf("%s is not set", path)
			}

			s, err := toml.FormatValue(v)
			if err != nil {
				return err
			}
			if which {
				fmt.Fprintf(a.out, "%s\t(%s)\n", s, origin)
			} else {
				fmt.Fprintln(a.out, s)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&file, "file", "", "Read a single file instead of the merged layers")
	cmd.Flags().BoolVar(&which, "which", false, "Also print where the value comes from")
	return cmd
}
