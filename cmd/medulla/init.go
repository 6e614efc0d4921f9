package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/medulla-kb/medulla/internal/service"
)

func newInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Initialize a new Medulla workspace in the current directory",
		RunE: func(cmd *cobra.Command, args []string) error {
			cwd, err := os.Getwd()
			if err != nil {
				return err
			}
			svc, err := service.Init(cwd)
			if err != nil {
				return err
			}
			defer svc.Close()
			fmt.Fprintln(cmd.OutOrStdout(), "initialized medulla workspace in .medulla/")
			return nil
		},
	}
}

func newOpenCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "open",
		Short: "Verify the workspace opens and reconciles cleanly",
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := openWorkspace()
			if err != nil {
				return err
			}
			defer svc.Close()
			fmt.Fprintln(cmd.OutOrStdout(), "medulla workspace opened and synced")
			return nil
		},
	}
}
