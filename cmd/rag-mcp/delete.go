package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func NewDeleteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "delete <id>",
		Aliases: []string{"del", "rm"},
		Short:   "Delete a memory",
		Long:    `Delete a memory by id from the selected scope.`,
		Args:    cobra.ExactArgs(1),
		RunE:    runDelete,
	}

	addScopeFlags(cmd)
	return cmd
}

func runDelete(cmd *cobra.Command, args []string) error {
	id := args[0]
	scope, err := scopeFromFlags(cmd)
	if err != nil {
		return err
	}

	svc, closeSvc, err := openService(cmd)
	defer closeSvc()
	if err != nil {
		return err
	}

	deleted, err := svc.Forget(cmd.Context(), id, scope)
	if err != nil {
		return fmt.Errorf("delete memory: %w", err)
	}
	if !deleted {
		return errNotFound(id)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Memory %s deleted successfully\n", id)
	return nil
}
