package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func NewStatsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show scope and index statistics",
		Args:  cobra.NoArgs,
		RunE:  runStats,
	}

	addScopeFlags(cmd)
	return cmd
}

func runStats(cmd *cobra.Command, _ []string) error {
	scope, err := scopeFromFlags(cmd)
	if err != nil {
		return err
	}

	svc, closeSvc, err := openService(cmd)
	defer closeSvc()
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	stats, err := svc.Stats(ctx, scope)
	if err != nil {
		return fmt.Errorf("count memories: %w", err)
	}
	if err := svc.Rebuild(ctx, scope); err != nil {
		return fmt.Errorf("build index: %w", err)
	}
	idx := svc.IndexStats()

	if wantJSON(cmd) {
		return writeJSON(cmd, map[string]any{
			"scope":          scope.String(),
			"total_memories": stats.TotalMemories,
			"index": map[string]any{
				"documents":      idx.Documents,
				"avg_doc_length": idx.AvgDocLength,
				"vocabulary":     idx.Vocabulary,
			},
		})
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Scope:          %s\n", scope)
	fmt.Fprintf(out, "Memories:       %d\n", stats.TotalMemories)
	fmt.Fprintf(out, "Vocabulary:     %d terms\n", idx.Vocabulary)
	fmt.Fprintf(out, "Avg doc length: %.1f tokens\n", idx.AvgDocLength)
	return nil
}
