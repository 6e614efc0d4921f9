package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newSnapshotCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Markdown snapshot operations",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "render",
		Short: "Regenerate the markdown snapshot tree under .medulla/snapshot",
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := openWorkspace()
			if err != nil {
				return err
			}
			defer svc.Close()
			if err := svc.RenderSnapshot(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "snapshot rendered")
			return nil
		},
	})
	return cmd
}
