package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, args ...string) error {
	t.Helper()
	cmd := newRootCmd()
	cmd.SetArgs(args)
	return cmd.ExecuteContext(context.Background())
}

func setupHome(t *testing.T) (home, exports string) {
	t.Helper()
	home = t.TempDir()
	exports = filepath.Join(home, "exports")
	require.NoError(t, os.MkdirAll(exports, 0o755))
	t.Setenv("HOME", home)
	t.Setenv("STATUZ_DB_PATH", filepath.Join(home, "statuz.db"))
	t.Setenv("STATUZ_EXPORTS_DIR", exports)
	t.Setenv("STATUZ_MIGRATIONS_DIR", "")
	t.Setenv("STATUZ_LOG_LEVEL", "error")
	return home, exports
}

func TestImportContextReport(t *testing.T) {
	home, exports := setupHome(t)

	export := "01/03/2024, 09:00 - Alice: Slab pour booked\n02/03/2024, 10:30 - Bob: Crane on site\n"
	require.NoError(t, os.WriteFile(filepath.Join(exports, "WhatsApp Chat with Tower Crew.txt"), []byte(export), 0o644))

	require.NoError(t, run(t, "import"))
	require.NoError(t, run(t, "migrate"))
	require.NoError(t, run(t, "migrate", "status"))

	ctxFile := filepath.Join(home, "tower.yaml")
	body := "project: Tower B\ngroup: Tower Crew\nmilestones:\n  - title: Slab pour\n    status: in_progress\n    due: 2024-03-20\n"
	require.NoError(t, os.WriteFile(ctxFile, []byte(body), 0o644))
	require.NoError(t, run(t, "context", "load", ctxFile))

	out := filepath.Join(home, "report.md")
	require.NoError(t, run(t, "report", "Tower Crew", "-o", out))

	md, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Contains(t, string(md), "# Status: Tower Crew")
	assert.Contains(t, string(md), "Project: Tower B")
	assert.Contains(t, string(md), "2 messages from 2024-03-01 to 2024-03-02")
	assert.Contains(t, string(md), "| Slab pour | IN_PROGRESS | 2024-03-20 |")

	require.NoError(t, run(t, "milestone", "list", "Tower Crew"))
	require.NoError(t, run(t, "doctor"))
}

func TestImportSingleFileWithGroup(t *testing.T) {
	home, _ := setupHome(t)

	path := filepath.Join(home, "chat.txt")
	require.NoError(t, os.WriteFile(path, []byte("01/03/2024, 09:00 - Alice: hi\n"), 0o644))

	require.NoError(t, run(t, "import", path, "--group", "Site Office"))
	require.NoError(t, run(t, "preview", "Site Office", "--context", "-1"))
	assert.Error(t, run(t, "preview", "Nope"))
}

func TestCommandErrors(t *testing.T) {
	setupHome(t)

	assert.Error(t, run(t, "import", "--group", "x"))
	assert.Error(t, run(t, "milestone", "set", "missing", "DONE"))
	assert.Error(t, run(t, "milestone", "set", "missing", "someday"))
	assert.Error(t, run(t, "report", "missing"))
	assert.Error(t, run(t, "search", "x", "--since", "yesterday"))
}

func TestParseSince(t *testing.T) {
	got, err := parseSince("2024-03-01")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 3, 1, 0, 0, 0, 0, time.Local), got)

	got, err = parseSince("48h")
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(-48*time.Hour), got, time.Minute)

	got, err = parseSince("")
	require.NoError(t, err)
	assert.True(t, got.IsZero())

	_, err = parseSince("soon")
	assert.Error(t, err)
}
