package main

import (
	"github.com/spf13/cobra"

	"github.com/medulla-kb/medulla/internal/store"
)

// newMergeDriverCmd implements the git custom merge driver contract (see
// gitattributes(5) "merge" attribute): git invokes
// `medulla merge-driver %O %A %B` with the common-ancestor, "ours", and
// "theirs" blobs written out to temporary paths, and expects the merged
// result written back to %A before exiting 0. %O is accepted for contract
// compatibility but unused — automerge's CRDT merge is commutative and
// needs no common ancestor to resolve divergent changes (§4.B, §8 scenario
// 4). hook.Install wires this driver into .gitattributes and git config so
// it runs automatically on `.medulla/loro.db` merge conflicts.
func newMergeDriverCmd() *cobra.Command {
	return &cobra.Command{
		Use:    "merge-driver <base> <ours> <theirs>",
		Short:  "Git merge driver for .medulla/loro.db (wired by 'medulla hooks install')",
		Hidden: true,
		Args:   cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			ours, err := store.OpenSnapshotFile(args[1])
			if err != nil {
				return err
			}
			theirs, err := store.OpenSnapshotFile(args[2])
			if err != nil {
				return err
			}
			if err := ours.Merge(theirs); err != nil {
				return err
			}
			if err := ours.Reconcile(); err != nil {
				return err
			}
			return ours.SaveAs(args[1])
		},
	}
}
