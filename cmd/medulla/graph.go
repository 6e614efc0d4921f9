package main

import (
	"github.com/spf13/cobra"

	"github.com/medulla-kb/medulla/internal/types"
)

func newGraphCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "graph",
		Short: "Relation graph queries: relations, path, orphans",
	}

	var direction string
	relations := &cobra.Command{
		Use:   "relations <type> <ref>",
		Short: "List an entity's direct relations",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := openWorkspace()
			if err != nil {
				return err
			}
			defer svc.Close()
			e, err := svc.Resolve(types.EntityType(args[0]), args[1])
			if err != nil {
				return err
			}
			dir := types.DirectionBoth
			if direction != "" {
				dir = types.RelationDirection(direction)
			}
			rels, err := svc.Engine.GraphRelations(e.ID, dir)
			if err != nil {
				return err
			}
			return printJSON(cmd, rels)
		},
	}
	relations.Flags().StringVar(&direction, "direction", "", "from, to, or both (default both)")

	var maxDepth int
	path := &cobra.Command{
		Use:   "path <from-type> <from-ref> <to-type> <to-ref>",
		Short: "Shortest relation path between two entities (breadth-first, capped depth)",
		Args:  cobra.ExactArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := openWorkspace()
			if err != nil {
				return err
			}
			defer svc.Close()
			from, err := svc.Resolve(types.EntityType(args[0]), args[1])
			if err != nil {
				return err
			}
			to, err := svc.Resolve(types.EntityType(args[2]), args[3])
			if err != nil {
				return err
			}
			depth := maxDepth
			if !cmd.Flags().Changed("max-depth") {
				depth = 10
			} else if depth > 10 {
				depth = 10
			}
			p, err := svc.Engine.GraphPath(from.ID, to.ID, depth)
			if err != nil {
				return err
			}
			return printJSON(cmd, p)
		},
	}
	path.Flags().IntVar(&maxDepth, "max-depth", 10, "maximum hops to search (capped at 10)")

	orphans := &cobra.Command{
		Use:   "orphans <type>",
		Short: "List entities of a type with no relations at all",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := openWorkspace()
			if err != nil {
				return err
			}
			defer svc.Close()
			es, err := svc.Engine.GraphOrphans(types.EntityType(args[0]))
			if err != nil {
				return err
			}
			return printJSON(cmd, es)
		},
	}

	cmd.AddCommand(relations, path, orphans)
	return cmd
}
