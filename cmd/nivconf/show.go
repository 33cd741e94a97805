package main

import (
	"encoding/json"
	"fmt"
	"maps"
	"slices"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/dshills/nivconf/internal/config"
	"github.com/dshills/nivconf/internal/config/layer"
	"github.com/dshills/nivconf/internal/config/toml"
)

func newShowCmd(a *app) *cobra.Command {
	var (
		format  string
		raw     bool
		origins bool
	)

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		Long: `Merge every layer over the built-in defaults and print the result.

--raw prints only what the layers set, without defaults. --origins lists
every key set by a layer together with the layer that wins.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := a.manager()
			if err != nil {
				return err
			}

			var tree *toml.Table
			if raw || origins {
				tree, err = m.Merged()
			} else {
				var cfg *config.Config
				if cfg, err = m.Effective(); err == nil {
					tree = cfg.ToTable()
				}
			}
			if err != nil {
				return err
			}

			if origins {
				return a.printOrigins(m, tree)
			}
			return a.printTree(tree, format)
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "toml", "Output format: toml, json or yaml")
	cmd.Flags().BoolVar(&raw, "raw", false, "Print only values set by a layer")
	cmd.Flags().BoolVar(&origins, "origins", false, "Print which layer provides each key")
	return cmd
}

func (a *app) printTree(tree *toml.Table, format string) error {
	var (
		out []byte
		err error
	)
	switch format {
	case "toml":
		out, err = toml.Marshal(tree)
	case "json":
		out, err = json.MarshalIndent(tree.Interface(), "", "  ")
		out = append(out, '\n')
	case "yaml":
		out, err = yaml.Marshal(tree.Interface())
	default:
		return fmt.Errorf("unknown format %q: want toml, json or yaml", format)
	}
	if err != nil {
		return err
	}
	_, err = a.out.Write(out)
	return err
}

func (a *app) printOrigins(m *layer.Manager, tree *toml.Table) error {
	flat := layer.Flatten(tree)
	for _, path := range slices.Sorted(maps.Keys(flat)) {
		v, err := toml.FormatValue(flat[path])
		if err != nil {
			return err
		}
		fmt.Fprintf(a.out, "%-12s %s = %s\n", m.WhichLayer(path), path, v)
	}
	return nil
}
