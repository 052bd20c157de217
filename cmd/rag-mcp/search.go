package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func NewSearchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search memories",
		Long:  `Rank the memories of one scope against a keyword query with BM25.`,
		Args:  cobra.ExactArgs(1),
		RunE:  runSearch,
	}

	cmd.Flags().IntP("k", "k", 0, "Maximum results (default search.default_k)")
	addScopeFlags(cmd)
	return cmd
}

func runSearch(cmd *cobra.Command, args []string) error {
	scope, err := scopeFromFlags(cmd)
	if err != nil {
		return err
	}
	k, _ := cmd.Flags().GetInt("k")

	svc, closeSvc, err := openService(cmd)
	defer closeSvc()
	if err != nil {
		return err
	}

	results, err := svc.Recall(cmd.Context(), args[0], scope, k)
	if err != nil {
		return fmt.Errorf("search: %w", err)
	}

	if wantJSON(cmd) {
		return writeJSON(cmd, results)
	}
	if len(results) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No matching memories found.")
		return nil
	}
	for _, r := range results {
		fmt.Fprintf(cmd.OutOrStdout(), "%.4f  %s  %s\n", r.Score, r.Memory.ID, snippet(r.Memory.Content, 72))
	}
	return nil
}
