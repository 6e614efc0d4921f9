package main

import (
	"github.com/spf13/cobra"

	"github.com/medulla-kb/medulla/internal/types"
)

func newSearchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "search",
		Short: "Search entities by full text or by semantic similarity",
	}

	var entityType string
	var limit int

	fulltext := &cobra.Command{
		Use:   "fulltext <query>",
		Short: "FTS5/bm25-ranked full-text search over title, content, and tags",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := openWorkspace()
			if err != nil {
				return err
			}
			defer svc.Close()
			res, err := svc.Engine.FullTextSearch(args[0], types.EntityType(entityType), limitOr(limit, 20))
			if err != nil {
				return err
			}
			return printJSON(cmd, res)
		},
	}
	fulltext.Flags().StringVar(&entityType, "type", "", "restrict to one entity type")
	fulltext.Flags().IntVar(&limit, "limit", 0, "maximum results")

	semantic := &cobra.Command{
		Use:   "semantic <query>",
		Short: "Embedding cosine-similarity search",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := openWorkspace()
			if err != nil {
				return err
			}
			defer svc.Close()
			res, err := svc.Engine.SemanticSearch(args[0], types.EntityType(entityType), limitOr(limit, 20))
			if err != nil {
				return err
			}
			return printJSON(cmd, res)
		},
	}
	semantic.Flags().StringVar(&entityType, "type", "", "restrict to one entity type")
	semantic.Flags().IntVar(&limit, "limit", 0, "maximum results")

	cmd.AddCommand(fulltext, semantic)
	return cmd
}

func limitOr(n, fallback int) int {
	if n <= 0 {
		return fallback
	}
	return n
}
