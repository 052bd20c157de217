package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/HendryAvila/rag-mcp/internal/server"
	"github.com/spf13/cobra"
)

func NewServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the MCP server (stdio transport)",
		Long: `Serve line-delimited JSON-RPC 2.0 on stdin/stdout. Logs go to stderr.

Add to your AI tool's MCP config:

  {
    "mcpServers": {
      "rag-mcp": {
        "command": "rag-mcp",
        "args": ["serve"]
      }
    }
  }`,
		Args: cobra.NoArgs,
		RunE: runServe,
	}
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, path, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	log, err := newLogger(cmd, cfg)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	s, cleanup, err := server.New(ctx, cfg, log)
	defer cleanup()
	if err != nil {
		return fmt.Errorf("creating server: %w", err)
	}
	log.Info("serving on stdio", "version", server.Version, "config", path)

	// A blocked stdin read cannot observe ctx, so shutdown does not wait
	// for the loop.
	done := make(chan error, 1)
	go func() { done <- s.Serve(ctx, cmd.InOrStdin(), cmd.OutOrStdout()) }()

	select {
	case err := <-done:
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	case <-ctx.Done():
		log.Info("shutting down")
		return nil
	}
}
