package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/HendryAvila/rag-mcp/internal/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func storedID(t *testing.T, out string) string {
	t.Helper()
	const prefix = "Memory stored successfully with ID: "
	require.True(t, strings.HasPrefix(out, prefix), "output: %q", out)
	return strings.TrimSpace(strings.TrimPrefix(out, prefix))
}

func TestAddAndSearch(t *testing.T) {
	c := newCLI(t)
	rustID := storedID(t, c.mustRun("add", "--content", "rust systems programming", "--tag", "lang"))
	c.mustRun("add", "--content", "python scripting")

	out := c.mustRun("search", "rust systems")
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 1)
	assert.Contains(t, lines[0], rustID)
	assert.Contains(t, lines[0], "rust systems programming")

	out = c.mustRun("search", "golang")
	assert.Equal(t, "No matching memories found.\n", out)
}

func TestAddReadsStdin(t *testing.T) {
	c := newCLI(t)
	out, err := c.runWithInput(bytes.NewBufferString("piped memory content"), "add")
	require.NoError(t, err)
	id := storedID(t, out)

	out = c.mustRun("list", "--json")
	var memories []memory.Memory
	require.NoError(t, json.Unmarshal([]byte(out), &memories))
	require.Len(t, memories, 1)
	assert.Equal(t, id, memories[0].ID)
	assert.Equal(t, "piped memory content", memories[0].Content)
}

func TestAddRejectsBlankContent(t *testing.T) {
	c := newCLI(t)
	_, err := c.run("add", "--content", "   ")
	assert.Error(t, err)
}

func TestInvalidScope(t *testing.T) {
	c := newCLI(t)
	_, err := c.run("add", "--content", "x", "--scope", "invalid_scope")
	assert.ErrorIs(t, err, memory.ErrInvalidScope)

	_, err = c.run("list", "--scope", "project")
	assert.ErrorIs(t, err, memory.ErrMissingProjectPath)
}

func TestProjectScope(t *testing.T) {
	c := newCLI(t)
	project := t.TempDir()

	c.mustRun("add", "--scope", "project", "--project-path", project, "--content", "project only note")
	_, err := os.Stat(filepath.Join(project, ".rag-mcp", "data.db"))
	require.NoError(t, err, "project database not created")

	out := c.mustRun("search", "project note", "--scope", "project", "--project-path", project)
	assert.Contains(t, out, "project only note")

	out = c.mustRun("search", "project note")
	assert.Equal(t, "No matching memories found.\n", out, "global scope must not see project memories")
}

func TestSearchK(t *testing.T) {
	c := newCLI(t)
	for i := 0; i < 4; i++ {
		c.mustRun("add", "--content", "shared keyword entry")
	}
	out := c.mustRun("search", "shared keyword", "-k", "2", "--json")

	var results []memory.SearchResult
	require.NoError(t, json.Unmarshal([]byte(out), &results))
	require.Len(t, results, 2)
	assert.Equal(t, 0, results[0].Rank)
	assert.Equal(t, 1, results[1].Rank)
	assert.Greater(t, results[0].Score, 0.0)
}

func TestListPagination(t *testing.T) {
	c := newCLI(t)
	for _, content := range []string{"one", "two", "three"} {
		c.mustRun("add", "--content", content, "--tag", "n")
	}

	out := c.mustRun("list", "--limit", "2")
	assert.Contains(t, out, "[n]")
	assert.Contains(t, out, "Showing 1-2 of 3. Use --offset 2 for more.")

	out = c.mustRun("list", "--limit", "2", "--offset", "2")
	assert.Contains(t, out, "Showing 3-3 of 3.")

	out = c.mustRun("list", "--offset", "10")
	assert.Equal(t, "No memories found.\n", out)

	_, err := c.run("list", "--limit", "-1")
	assert.Error(t, err)
}

func TestDelete(t *testing.T) {
	c := newCLI(t)
	id := storedID(t, c.mustRun("add", "--content", "temporary"))

	out := c.mustRun("delete", id)
	assert.Equal(t, "Memory "+id+" deleted successfully\n", out)

	_, err := c.run("delete", id)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestStats(t *testing.T) {
	c := newCLI(t)
	c.mustRun("add", "--content", "alpha beta gamma")
	c.mustRun("add", "--content", "alpha delta")

	out := c.mustRun("stats", "--json")
	var stats struct {
		Scope         string `json:"scope"`
		TotalMemories int    `json:"total_memories"`
		Index         struct {
			Documents  int `json:"documents"`
			Vocabulary int `json:"vocabulary"`
		} `json:"index"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &stats))
	assert.Equal(t, "global", stats.Scope)
	assert.Equal(t, 2, stats.TotalMemories)
	assert.Equal(t, 2, stats.Index.Documents)
	assert.Equal(t, 4, stats.Index.Vocabulary)

	out = c.mustRun("stats")
	assert.Contains(t, out, "Memories:       2")
}

func TestConfigInitAndShow(t *testing.T) {
	c := newCLI(t)

	out := c.mustRun("config", "init")
	assert.Contains(t, out, c.cfgPath)
	_, err := os.Stat(c.cfgPath)
	require.NoError(t, err)

	_, err = c.run("config", "init")
	assert.Error(t, err, "init must not overwrite without --force")
	c.mustRun("config", "init", "--force")

	out = c.mustRun("config")
	assert.Contains(t, out, "default_k: 5")
	assert.Contains(t, out, "project_db_name: .rag-mcp/data.db")
	assert.Contains(t, out, filepath.Join(c.dir, "db", "global.db"))
}

func TestInvalidConfigFails(t *testing.T) {
	c := newCLI(t)
	require.NoError(t, os.WriteFile(c.cfgPath, []byte("search:\n  default_k: 0\n"), 0o644))

	_, err := c.run("list")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "default_k")
}

func TestServeAnswersOnStdout(t *testing.T) {
	c := newCLI(t)
	in := bytes.NewBufferString(
		`{"jsonrpc":"2.0","id":1,"method":"initialize","params":{}}` + "\n" +
			`{"jsonrpc":"2.0","method":"notifications/initialized"}` + "\n" +
			`{"jsonrpc":"2.0","id":2,"method":"tools/list"}` + "\n")

	out, err := c.runWithInput(in, "serve")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2)
	var first struct {
		ID     int `json:"id"`
		Result struct {
			ProtocolVersion string `json:"protocolVersion"`
		} `json:"result"`
	}
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &first))
	assert.Equal(t, 1, first.ID)
	assert.Equal(t, "2024-11-05", first.Result.ProtocolVersion)
	assert.Contains(t, lines[1], `"search_memory"`)
}

func TestServeSeesCLIMemories(t *testing.T) {
	c := newCLI(t)
	id := storedID(t, c.mustRun("add", "--content", "persisted across processes"))

	in := bytes.NewBufferString(`{"jsonrpc":"2.0","id":1,"method":"tools/call","params":{"name":"search_memory","arguments":{"query":"persisted processes","scope":"global"}}}` + "\n")
	out, err := c.runWithInput(in, "serve")
	require.NoError(t, err)
	assert.Contains(t, out, "Found 1 results")
	assert.Contains(t, out, id)
}
