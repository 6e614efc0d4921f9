package main

import (
	"github.com/spf13/cobra"

	"github.com/medulla-kb/medulla/internal/config"
	"github.com/medulla-kb/medulla/internal/types"
)

func newDecisionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "decision",
		Short: "Decision-specific operations",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "supersede <old-ref> <new-ref>",
		Short: "Mark an old decision as superseded by a new one (keeps both, doesn't delete)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := openWorkspace()
			if err != nil {
				return err
			}
			defer svc.Close()
			oldD, err := svc.Resolve(types.TypeDecision, args[0])
			if err != nil {
				return err
			}
			newD, err := svc.Resolve(types.TypeDecision, args[1])
			if err != nil {
				return err
			}
			updated, err := svc.SupersedeDecision(oldD.ID, newD.ID, config.GetIdentity(actorFlag))
			if err != nil {
				return err
			}
			return printJSON(cmd, updated)
		},
	})
	return cmd
}
