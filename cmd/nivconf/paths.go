package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func newPathsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "paths",
		Short: "List config file candidates in discovery order",
		Long: `List the files nivconf looks for, in precedence order.

The first existing file is marked with "*"; other existing files with "+".`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			selected := false
			for _, p := range a.candidates() {
				mark := " "
				if info, err := os.Stat(p); err == nil && !info.IsDir() {
					mark = "+"
					if !selected {
						mark, selected = "*", true
					}
				}
				fmt.Fprintf(a.out, "%s %s\n", mark, p)
			}
			return nil
		},
	}
}
