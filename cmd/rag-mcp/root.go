package main

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/HendryAvila/rag-mcp/internal/config"
	"github.com/HendryAvila/rag-mcp/internal/logging"
	"github.com/HendryAvila/rag-mcp/internal/memory"
	"github.com/HendryAvila/rag-mcp/internal/server"
	"github.com/HendryAvila/rag-mcp/internal/service"
	"github.com/spf13/cobra"
)

func NewRootCmd(version string) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "rag-mcp",
		Short: "Local memory store with BM25 search for MCP clients",
		Long: `rag-mcp stores memories in session, project and global scopes and ranks
them with BM25 keyword search. Run "rag-mcp serve" from your MCP client
configuration; the other commands work on the same databases from the shell.`,
		Version:       version,
		SilenceErrors: true,
		SilenceUsage:  true,
		Run: func(cmd *cobra.Command, _ []string) {
			_ = cmd.Help()
		},
	}

	addPersistentFlags(rootCmd)
	rootCmd.AddCommand(
		NewServeCmd(),
		NewAddCmd(),
		NewSearchCmd(),
		NewListCmd(),
		NewDeleteCmd(),
		NewStatsCmd(),
		NewConfigCmd(),
	)
	return rootCmd
}

func addPersistentFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().String("config", "", "Config file (default <user config dir>/rag-mcp/config.yaml)")
	cmd.PersistentFlags().String("log-level", "", "Override server.log_level (debug|info|warn|error)")
	cmd.PersistentFlags().Bool("json", false, "Output in JSON format")
}

// addScopeFlags registers the scope selection shared by the store commands.
func addScopeFlags(cmd *cobra.Command) {
	cmd.Flags().String("scope", string(memory.KindGlobal), "Target scope (session|project|global)")
	cmd.Flags().String("project-path", "", "Project root, required with --scope project")
}

// ─── Shared helpers ──────────────────────────────────────────────────────────

func configPath(cmd *cobra.Command) (string, error) {
	path, _ := cmd.Flags().GetString("config")
	if path != "" {
		return path, nil
	}
	return config.DefaultPath()
}

func loadConfig(cmd *cobra.Command) (*config.Config, string, error) {
	path, err := configPath(cmd)
	if err != nil {
		return nil, "", err
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, path, err
	}
	if level, _ := cmd.Flags().GetString("log-level"); level != "" {
		cfg.Server.LogLevel = level
	}
	return cfg, path, nil
}

// newLogger writes to the command's stderr; stdout is reserved for output
// and protocol frames.
func newLogger(cmd *cobra.Command, cfg *config.Config) (*slog.Logger, error) {
	level, err := logging.ParseLevel(cfg.Server.LogLevel)
	if err != nil {
		return nil, err
	}
	return logging.New(logging.Options{Level: level, Output: cmd.ErrOrStderr()}), nil
}

// openService builds the service from the config file. The returned close
// function is always non-nil.
func openService(cmd *cobra.Command) (*service.Service, func(), error) {
	cfg, _, err := loadConfig(cmd)
	if err != nil {
		return nil, func() {}, err
	}
	log, err := newLogger(cmd, cfg)
	if err != nil {
		return nil, func() {}, err
	}
	svc, err := server.NewService(cfg, log)
	if err != nil {
		return nil, func() {}, err
	}
	return svc, func() {
		if err := svc.Close(); err != nil {
			log.Warn("closing memory store", "error", err)
		}
	}, nil
}

func scopeFromFlags(cmd *cobra.Command) (memory.Scope, error) {
	name, _ := cmd.Flags().GetString("scope")
	projectPath, _ := cmd.Flags().GetString("project-path")
	return memory.ParseScope(name, projectPath)
}

func wantJSON(cmd *cobra.Command) bool {
	asJSON, _ := cmd.Flags().GetBool("json")
	return asJSON
}

func writeJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// snippet returns the first line of content, cut to n runes.
func snippet(content string, n int) string {
	for i, r := range content {
		if r == '\n' {
			content = content[:i]
			break
		}
	}
	runes := []rune(content)
	if len(runes) <= n {
		return content
	}
	return string(runes[:n-1]) + "…"
}

func errNotFound(id string) error {
	return fmt.Errorf("memory %s not found", id)
}
