package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newSyncCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Force a full cache rebuild and regenerate the markdown snapshot (§12 explicit rebuild operation)",
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := openWorkspace()
			if err != nil {
				return err
			}
			defer svc.Close()
			if err := svc.Sync(); err != nil {
				return err
			}
			if err := svc.RenderSnapshot(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "cache rebuilt, snapshot regenerated")
			return nil
		},
	}
}
