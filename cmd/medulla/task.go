package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/medulla-kb/medulla/internal/config"
	"github.com/medulla-kb/medulla/internal/types"
)

func newTaskCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "task",
		Short: "Task queue operations: ready, blocked, next, complete, reschedule",
	}
	cmd.AddCommand(newTaskReadyCmd(), newTaskBlockedCmd(), newTaskNextCmd(), newTaskCompleteCmd(), newTaskRescheduleCmd())
	return cmd
}

func newTaskReadyCmd() *cobra.Command {
	var limit int
	var priority string
	cmd := &cobra.Command{
		Use:   "ready",
		Short: "List unblocked tasks, ordered by priority, due date, then sequence",
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := openWorkspace()
			if err != nil {
				return err
			}
			defer svc.Close()
			tasks, err := svc.Engine.ReadyTasks(limit, types.TaskPriority(priority))
			if err != nil {
				return err
			}
			return printJSON(cmd, tasks)
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 0, "maximum tasks to return (0 = unlimited)")
	cmd.Flags().StringVar(&priority, "priority", "", "filter to one priority")
	return cmd
}

func newTaskBlockedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "blocked [ref]",
		Short: "List blocked tasks and their blockers (every blocked task if ref is omitted)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := openWorkspace()
			if err != nil {
				return err
			}
			defer svc.Close()
			id := ""
			if len(args) == 1 {
				e, err := svc.Resolve(types.TypeTask, args[0])
				if err != nil {
					return err
				}
				id = e.ID
			}
			blocked, err := svc.Engine.BlockedTasks(id)
			if err != nil {
				return err
			}
			return printJSON(cmd, blocked)
		},
	}
}

func newTaskNextCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "next",
		Short: "Print the single highest-priority ready task",
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := openWorkspace()
			if err != nil {
				return err
			}
			defer svc.Close()
			next, err := svc.Engine.NextTask()
			if err != nil {
				return err
			}
			if next == nil {
				fmt.Fprintln(cmd.OutOrStdout(), "no ready tasks")
				return nil
			}
			return printJSON(cmd, next)
		},
	}
}

func newTaskCompleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "complete <ref>",
		Short: "Mark a task done",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := openWorkspace()
			if err != nil {
				return err
			}
			defer svc.Close()
			e, err := svc.Resolve(types.TypeTask, args[0])
			if err != nil {
				return err
			}
			done := types.TaskDone
			updated, err := svc.UpdateEntity(types.TypeTask, e.ID, types.Patch{TaskStatus: &done}, config.GetIdentity(actorFlag))
			if err != nil {
				return err
			}
			return printJSON(cmd, updated)
		},
	}
}

func newTaskRescheduleCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reschedule <ref> <due-date>",
		Short: "Change a task's due date (YYYY-MM-DD)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := openWorkspace()
			if err != nil {
				return err
			}
			defer svc.Close()
			e, err := svc.Resolve(types.TypeTask, args[0])
			if err != nil {
				return err
			}
			due := args[1]
			updated, err := svc.UpdateEntity(types.TypeTask, e.ID, types.Patch{DueDate: &due}, config.GetIdentity(actorFlag))
			if err != nil {
				return err
			}
			return printJSON(cmd, updated)
		},
	}
}
