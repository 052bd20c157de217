// Package config loads and saves the server configuration file.
//
// The file is YAML and optional: a missing file yields DefaultConfig, and
// keys absent from an existing file keep their default values.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"gopkg.in/yaml.v3"
)

// AppName names the configuration and data directories.
const AppName = "rag-mcp"

// EnvDBPath overrides the directory of the global database.
const EnvDBPath = "RAG_MCP_DB_PATH"

// GlobalDBFile is the file name of the global database.
const GlobalDBFile = "global.db"

// ─── Types ───────────────────────────────────────────────────────────────────

// ServerConfig holds process-level settings.
type ServerConfig struct {
	LogLevel string `yaml:"log_level"`
}

// SearchConfig holds ranking parameters.
type SearchConfig struct {
	DefaultK int     `yaml:"default_k"`
	MinScore float64 `yaml:"min_score"`
	BM25K1   float64 `yaml:"bm25_k1"`
	BM25B    float64 `yaml:"bm25_b"`
}

// ChunkingConfig bounds source chunks, in bytes.
type ChunkingConfig struct {
	MaxChunkSize int `yaml:"max_chunk_size"`
	ChunkOverlap int `yaml:"chunk_overlap"`
}

// StorageConfig locates the persistent backends.
type StorageConfig struct {
	// GlobalDBPath is the global database file. Empty means the platform
	// data directory.
	GlobalDBPath       string `yaml:"global_db_path,omitempty"`
	ProjectDBName      string `yaml:"project_db_name"`
	MaxSessionMemories int    `yaml:"max_session_memories"`
}

// Config is the full configuration file.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Search   SearchConfig   `yaml:"search"`
	Chunking ChunkingConfig `yaml:"chunking"`
	Storage  StorageConfig  `yaml:"storage"`
}

// DefaultConfig returns the built-in configuration.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{LogLevel: "info"},
		Search: SearchConfig{
			DefaultK: 5,
			MinScore: 0,
			BM25K1:   1.2,
			BM25B:    0.75,
		},
		Chunking: ChunkingConfig{
			MaxChunkSize: 512,
			ChunkOverlap: 50,
		},
		Storage: StorageConfig{
			ProjectDBName:      ".rag-mcp/data.db",
			MaxSessionMemories: 1000,
		},
	}
}

// ─── Load / Save ─────────────────────────────────────────────────────────────

// Load reads the config file at path. A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %s: %w", path, err)
	}
	return cfg, nil
}

// Save writes cfg to path, creating parent directories.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("config: marshal: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("config: create directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("config: write %s: %w", path, err)
	}
	return nil
}

// Marshal renders cfg as YAML.
func Marshal(cfg *Config) ([]byte, error) {
	return yaml.Marshal(cfg)
}

// Validate rejects values the store or ranker cannot work with.
func (c *Config) Validate() error {
	var errs []error
	switch strings.ToLower(c.Server.LogLevel) {
	case "debug", "info", "warn", "warning", "error":
	default:
		errs = append(errs, fmt.Errorf("server.log_level %q is not one of debug, info, warn, error", c.Server.LogLevel))
	}
	if c.Search.DefaultK < 1 {
		errs = append(errs, fmt.Errorf("search.default_k must be at least 1, got %d", c.Search.DefaultK))
	}
	if c.Search.BM25K1 < 0 {
		errs = append(errs, fmt.Errorf("search.bm25_k1 must not be negative, got %v", c.Search.BM25K1))
	}
	if c.Search.BM25B < 0 || c.Search.BM25B > 1 {
		errs = append(errs, fmt.Errorf("search.bm25_b must be within [0, 1], got %v", c.Search.BM25B))
	}
	if c.Storage.ProjectDBName == "" || filepath.IsAbs(c.Storage.ProjectDBName) {
		errs = append(errs, fmt.Errorf("storage.project_db_name must be a relative path, got %q", c.Storage.ProjectDBName))
	}
	if c.Storage.MaxSessionMemories < 0 {
		errs = append(errs, fmt.Errorf("storage.max_session_memories must not be negative, got %d", c.Storage.MaxSessionMemories))
	}
	return errors.Join(errs...)
}

// ─── Paths ───────────────────────────────────────────────────────────────────

// DefaultPath returns <user config dir>/rag-mcp/config.yaml.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("config: locate config directory: %w", err)
	}
	return filepath.Join(dir, AppName, "config.yaml"), nil
}

// GlobalDBPath resolves the global database file. RAG_MCP_DB_PATH wins over
// the configured path, which wins over the platform data directory.
func (c *Config) GlobalDBPath() (string, error) {
	if dir := os.Getenv(EnvDBPath); dir != "" {
		return filepath.Join(dir, GlobalDBFile), nil
	}
	if c.Storage.GlobalDBPath != "" {
		return c.Storage.GlobalDBPath, nil
	}
	dir, err := dataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, AppName, GlobalDBFile), nil
}

// dataDir returns the per-user application data directory.
func dataDir() (string, error) {
	if runtime.GOOS == "windows" {
		if dir := os.Getenv("LocalAppData"); dir != "" {
			return dir, nil
		}
		return os.UserConfigDir()
	}
	if dir := os.Getenv("XDG_DATA_HOME"); dir != "" && runtime.GOOS != "darwin" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("config: locate data directory: %w", err)
	}
	if runtime.GOOS == "darwin" {
		return filepath.Join(home, "Library", "Application Support"), nil
	}
	return filepath.Join(home, ".local", "share"), nil
}
