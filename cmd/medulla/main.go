// Command medulla is the CLI and RPC server entry point for a
// project-scoped knowledge engine: decisions, tasks, notes, prompts,
// components, and links, linked by typed relations in a CRDT document
// that merges cleanly across git branches.
package main

import (
	"fmt"
	"os"

	"github.com/medulla-kb/medulla/internal/config"
)

func main() {
	if err := config.Initialize(); err != nil {
		fmt.Fprintf(os.Stderr, "medulla: %v\n", err)
		os.Exit(exitCodeFor(err))
	}
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "medulla: %v\n", err)
		os.Exit(exitCodeFor(err))
	}
}
