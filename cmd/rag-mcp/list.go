package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

func NewListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List memories",
		Long:    `List the memories of one scope, newest first.`,
		Args:    cobra.NoArgs,
		RunE:    runList,
	}

	cmd.Flags().Int("limit", 50, "Maximum memories to show")
	cmd.Flags().Int("offset", 0, "Memories to skip")
	addScopeFlags(cmd)
	return cmd
}

func runList(cmd *cobra.Command, _ []string) error {
	scope, err := scopeFromFlags(cmd)
	if err != nil {
		return err
	}
	limit, _ := cmd.Flags().GetInt("limit")
	offset, _ := cmd.Flags().GetInt("offset")
	if limit < 0 || offset < 0 {
		return fmt.Errorf("--limit and --offset must not be negative")
	}

	svc, closeSvc, err := openService(cmd)
	defer closeSvc()
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	memories, err := svc.List(ctx, scope, limit, offset)
	if err != nil {
		return fmt.Errorf("list memories: %w", err)
	}

	if wantJSON(cmd) {
		return writeJSON(cmd, memories)
	}
	out := cmd.OutOrStdout()
	if len(memories) == 0 {
		fmt.Fprintln(out, "No memories found.")
		return nil
	}
	for _, m := range memories {
		tags := ""
		if len(m.Metadata.Tags) > 0 {
			tags = " [" + strings.Join(m.Metadata.Tags, ", ") + "]"
		}
		fmt.Fprintf(out, "%s  %s%s\n    %s\n",
			m.ID, m.CreatedAt.Local().Format(time.DateTime), tags, snippet(m.Content, 72))
	}

	stats, err := svc.Stats(ctx, scope)
	if err != nil {
		return fmt.Errorf("count memories: %w", err)
	}
	if hint := navigationHint(offset, len(memories), stats.TotalMemories); hint != "" {
		fmt.Fprintln(out, hint)
	}
	return nil
}

// navigationHint returns a footer when the page does not cover the scope.
func navigationHint(offset, showing, total int) string {
	if total <= 0 || (offset == 0 && showing >= total) {
		return ""
	}
	first := offset + 1
	last := offset + showing
	hint := fmt.Sprintf("Showing %d-%d of %d.", first, last, total)
	if last < total {
		hint += fmt.Sprintf(" Use --offset %d for more.", last)
	}
	return hint
}
