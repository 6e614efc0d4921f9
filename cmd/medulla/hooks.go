package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/medulla-kb/medulla/internal/hook"
)

func newHooksCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "hooks",
		Short: "Manage the git pre-commit coherency hook",
	}

	var force bool
	install := &cobra.Command{
		Use:   "install",
		Short: "Install the pre-commit hook that keeps the snapshot in sync",
		RunE: func(cmd *cobra.Command, args []string) error {
			root, err := os.Getwd()
			if err != nil {
				return err
			}
			if err := hook.Install(root, force); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "pre-commit hook installed")
			return nil
		},
	}
	install.Flags().BoolVar(&force, "force", false, "overwrite a non-medulla pre-commit hook (the existing hook is backed up, not discarded)")

	uninstall := &cobra.Command{
		Use:   "uninstall",
		Short: "Remove the medulla-owned pre-commit hook",
		RunE: func(cmd *cobra.Command, args []string) error {
			root, err := os.Getwd()
			if err != nil {
				return err
			}
			if err := hook.Uninstall(root); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "pre-commit hook removed")
			return nil
		},
	}

	status := &cobra.Command{
		Use:   "status",
		Short: "Report whether the pre-commit hook is installed",
		RunE: func(cmd *cobra.Command, args []string) error {
			root, err := os.Getwd()
			if err != nil {
				return err
			}
			st, err := hook.CheckStatus(root)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), st)
			return nil
		},
	}

	cmd.AddCommand(install, uninstall, status)
	return cmd
}
