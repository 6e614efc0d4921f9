package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/medulla-kb/medulla/internal/logging"
	"github.com/medulla-kb/medulla/internal/service"
)

var actorFlag string

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "medulla",
		Short:         "A project-scoped knowledge engine: decisions, tasks, notes, prompts, components, and links.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&actorFlag, "actor", "", "author recorded on mutations (defaults to config, then git user.name, then hostname)")

	root.AddCommand(
		newInitCmd(),
		newOpenCmd(),
		newServeCmd(),
		newSnapshotCmd(),
		newHooksCmd(),
		newEntityCmd(),
		newTaskCmd(),
		newDecisionCmd(),
		newSearchCmd(),
		newGraphCmd(),
		newSyncCmd(),
		newConfigCmd(),
		newMergeDriverCmd(),
	)
	return root
}

// openWorkspace opens the service against the current directory, wiring
// logging from configuration first so every subsequent call is observed.
func openWorkspace() (*service.Service, error) {
	logging.SetDefault(logging.NewRotatingFile(logPathFromConfig(), logging.ParseLevel(logLevelFromConfig())))
	cwd, err := os.Getwd()
	if err != nil {
		return nil, err
	}
	return service.Open(cwd)
}

func logPathFromConfig() string {
	return ".medulla/medulla.log"
}

func logLevelFromConfig() string {
	if v := os.Getenv("MEDULLA_LOG_LEVEL"); v != "" {
		return v
	}
	return "info"
}
