package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

func NewAddCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Store a memory",
		Long:  `Store a memory in the selected scope. Reads the content from stdin when --content is not given.`,
		Args:  cobra.NoArgs,
		RunE:  runAdd,
	}

	cmd.Flags().StringP("content", "c", "", "Memory content")
	cmd.Flags().StringArrayP("tag", "t", nil, "Tag to attach (repeatable)")
	addScopeFlags(cmd)
	return cmd
}

func runAdd(cmd *cobra.Command, _ []string) error {
	scope, err := scopeFromFlags(cmd)
	if err != nil {
		return err
	}
	content, err := resolveAddContent(cmd)
	if err != nil {
		return err
	}
	tags, _ := cmd.Flags().GetStringArray("tag")

	svc, closeSvc, err := openService(cmd)
	defer closeSvc()
	if err != nil {
		return err
	}

	m, err := svc.Remember(cmd.Context(), content, scope, tags)
	if err != nil {
		return fmt.Errorf("store memory: %w", err)
	}

	if wantJSON(cmd) {
		return writeJSON(cmd, m)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Memory stored successfully with ID: %s\n", m.ID)
	return nil
}

func resolveAddContent(cmd *cobra.Command) (string, error) {
	if cmd.Flags().Changed("content") {
		return cmd.Flags().GetString("content")
	}
	data, err := io.ReadAll(cmd.InOrStdin())
	if err != nil {
		return "", fmt.Errorf("read stdin: %w", err)
	}
	return string(data), nil
}
