package main

import (
	"github.com/spf13/cobra"

	"github.com/medulla-kb/medulla/internal/config"
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect resolved configuration",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print every known setting with its value and source (default, config file, or env var)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return printJSON(cmd, config.Diagnostics())
		},
	})
	return cmd
}
