package store

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(context.Background(), filepath.Join(t.TempDir(), "statuz.db"), Options{Logger: zerolog.Nop()})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func msg(groupID, author, text string, ts time.Time) Message {
	return Message{
		ID:         MessageID(groupID, ts, author, text, 0),
		GroupID:    groupID,
		Author:     author,
		AuthorName: author,
		Timestamp:  ts,
		Text:       text,
		Raw:        author + ": " + text,
	}
}

func TestOpenAppliesEmbeddedMigrations(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	st, err := db.MigrationStatus(ctx)
	require.NoError(t, err)
	assert.Empty(t, st.Pending)
	require.Len(t, st.Applied, 3)
	assert.Equal(t, "init", st.Applied[0].Name)

	for _, table := range []string{"groups", "messages", "milestones", "config", "audit", "group_context", "imports", "_migrations"} {
		var n int
		err := db.Raw().QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE name = ?", table).Scan(&n)
		require.NoError(t, err)
		assert.Equal(t, 1, n, table)
	}
}

func TestOpenTwiceIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "statuz.db")
	ctx := context.Background()

	db, err := Open(ctx, path, Options{Logger: zerolog.Nop()})
	require.NoError(t, err)
	require.NoError(t, db.Close())

	db, err = Open(ctx, path, Options{Logger: zerolog.Nop()})
	require.NoError(t, err)
	defer db.Close()

	res, err := db.Migrate(ctx)
	require.NoError(t, err)
	assert.Empty(t, res.Applied)
}

func TestOpenWithMigrationsDir(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "001_only.sql"), []byte("CREATE TABLE only_table (id INTEGER);"), 0o644))

	db, err := Open(context.Background(), filepath.Join(t.TempDir(), "x.db"), Options{MigrationsDir: dir, Logger: zerolog.Nop()})
	require.NoError(t, err)
	defer db.Close()

	var n int
	require.NoError(t, db.Raw().QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE name = 'only_table'").Scan(&n))
	assert.Equal(t, 1, n)
}

func TestOpenNoMigrate(t *testing.T) {
	ctx := context.Background()
	db, err := Open(ctx, filepath.Join(t.TempDir(), "x.db"), Options{NoMigrate: true, Logger: zerolog.Nop()})
	require.NoError(t, err)
	defer db.Close()

	st, err := db.MigrationStatus(ctx)
	require.NoError(t, err)
	assert.Empty(t, st.Applied)
	assert.Len(t, st.Pending, 3)

	res, err := db.Migrate(ctx)
	require.NoError(t, err)
	assert.Len(t, res.Applied, 3)
}

func TestOpenFailsOnBrokenMigration(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "001_bad.sql"), []byte("NOT SQL"), 0o644))

	_, err := Open(context.Background(), filepath.Join(t.TempDir(), "x.db"), Options{MigrationsDir: dir, Logger: zerolog.Nop()})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "migration 1 (bad)")
}

func TestGroups(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	g, err := db.UpsertGroup(ctx, "Tower Renovation")
	require.NoError(t, err)
	assert.Equal(t, GroupID("tower renovation"), g.ID)

	again, err := db.UpsertGroup(ctx, "Tower Renovation")
	require.NoError(t, err)
	assert.Equal(t, g.ID, again.ID)

	byName, err := db.ResolveGroup(ctx, "Tower Renovation")
	require.NoError(t, err)
	assert.Equal(t, g.ID, byName.ID)

	byID, err := db.ResolveGroup(ctx, g.ID)
	require.NoError(t, err)
	assert.Equal(t, "Tower Renovation", byID.Name)

	_, err = db.ResolveGroup(ctx, "nope")
	assert.True(t, errors.Is(err, ErrNotFound))

	_, err = db.UpsertGroup(ctx, "  ")
	assert.Error(t, err)
}

func TestInsertMessagesIsIdempotent(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	g, err := db.UpsertGroup(ctx, "Site")
	require.NoError(t, err)

	base := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	msgs := []Message{
		msg(g.ID, "Alice", "pour scheduled", base),
		msg(g.ID, "Bob", "crane booked", base.Add(time.Minute)),
	}

	n, err := db.InsertMessages(ctx, msgs)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	n, err = db.InsertMessages(ctx, msgs)
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	count, err := db.MessageCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	fts, err := db.FTSCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, fts)

	got, err := db.MessageByID(ctx, msgs[1].ID)
	require.NoError(t, err)
	assert.Equal(t, "crane booked", got.Text)
	assert.True(t, got.Timestamp.Equal(base.Add(time.Minute)))

	_, err = db.MessageByID(ctx, "missing")
	assert.True(t, errors.Is(err, ErrNotFound))

	groups, err := db.Groups(ctx)
	require.NoError(t, err)
	require.Len(t, groups, 1)
	assert.Equal(t, 2, groups[0].Messages)
	assert.True(t, groups[0].LastMessage.Equal(base.Add(time.Minute)))
}

func TestMessageIDSeq(t *testing.T) {
	ts := time.Date(2023, 2, 1, 10, 0, 0, 0, time.UTC)
	first := MessageID("g", ts, "Alice", "ok", 0)
	assert.Equal(t, first, MessageID("g", ts, "Alice", "ok", 0))
	assert.NotEqual(t, first, MessageID("g", ts, "Alice", "ok", 1))
	assert.NotEqual(t, MessageID("g", ts, "Alice", "ok", 1), MessageID("g", ts, "Alice", "ok", 2))
	assert.NotEqual(t, first, MessageID("g", ts, "Bob", "ok", 0))
}

func TestMessagesWindow(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	g, err := db.UpsertGroup(ctx, "Window")
	require.NoError(t, err)

	base := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	var msgs []Message
	for i := 0; i < 10; i++ {
		msgs = append(msgs, msg(g.ID, "A", string(rune('a'+i)), base.Add(time.Duration(i)*time.Minute)))
	}
	_, err = db.InsertMessages(ctx, msgs)
	require.NoError(t, err)

	window, hitIdx, startPos, total, err := db.MessagesWindow(ctx, g.ID, msgs[5].ID, 2)
	require.NoError(t, err)
	assert.Equal(t, 10, total)
	assert.Equal(t, 3, startPos)
	require.Len(t, window, 5)
	assert.Equal(t, 2, hitIdx)
	assert.Equal(t, "f", window[hitIdx].Text)

	all, hitIdx, startPos, _, err := db.MessagesWindow(ctx, g.ID, "", 2)
	require.NoError(t, err)
	assert.Len(t, all, 10)
	assert.Equal(t, -1, hitIdx)
	assert.Equal(t, 0, startPos)
}

func TestMilestones(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	g, err := db.UpsertGroup(ctx, "Milestones")
	require.NoError(t, err)

	due := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	m := &Milestone{GroupID: g.ID, Title: "Foundation", Due: due}
	require.NoError(t, db.UpsertMilestone(ctx, m))
	assert.Equal(t, MilestoneID(g.ID, "Foundation"), m.ID)
	assert.Equal(t, StatusNotStarted, m.Status)

	require.NoError(t, db.UpsertMilestone(ctx, &Milestone{GroupID: g.ID, Title: "Handover", Status: "in-progress"}))

	bad := &Milestone{GroupID: g.ID, Title: "Bad", Status: "SOMEDAY"}
	assert.Error(t, db.UpsertMilestone(ctx, bad))

	require.NoError(t, db.SetMilestoneStatus(ctx, m.ID, "at_risk"))
	assert.Error(t, db.SetMilestoneStatus(ctx, m.ID, "later"))
	assert.True(t, errors.Is(db.SetMilestoneStatus(ctx, "missing", "DONE"), ErrNotFound))

	list, err := db.Milestones(ctx, g.ID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "Foundation", list[0].Title)
	assert.Equal(t, StatusAtRisk, list[0].Status)
	assert.True(t, list[0].Due.Equal(due))
	assert.Equal(t, "Handover", list[1].Title)
	assert.Equal(t, StatusInProgress, list[1].Status)
	assert.True(t, list[1].Due.IsZero())
}

func TestConfigAuditImportsAndContext(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	_, err := db.GetConfig(ctx, "missing")
	assert.True(t, errors.Is(err, ErrNotFound))
	require.NoError(t, db.SetConfig(ctx, "k", "v1"))
	require.NoError(t, db.SetConfig(ctx, "k", "v2"))
	v, err := db.GetConfig(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "v2", v)

	require.NoError(t, db.Audit(ctx, "first", ""))
	require.NoError(t, db.Audit(ctx, "second", "details"))
	log, err := db.AuditLog(ctx, 10)
	require.NoError(t, err)
	require.Len(t, log, 2)
	assert.Equal(t, "second", log[0].Action)

	g, err := db.UpsertGroup(ctx, "Ctx")
	require.NoError(t, err)

	info, err := db.ImportInfo(ctx, "/tmp/export.txt")
	require.NoError(t, err)
	assert.Nil(t, info)
	require.NoError(t, db.RecordImport(ctx, Import{FilePath: "/tmp/export.txt", GroupID: g.ID, Mtime: 5, Size: 10}))
	info, err = db.ImportInfo(ctx, "/tmp/export.txt")
	require.NoError(t, err)
	assert.Equal(t, &ImportInfo{Mtime: 5, Size: 10}, info)
	src, err := db.SourceFile(ctx, g.ID)
	require.NoError(t, err)
	assert.Equal(t, "/tmp/export.txt", src)

	_, err = db.GroupContext(ctx, g.ID)
	assert.True(t, errors.Is(err, ErrNotFound))
	require.NoError(t, db.SetGroupContext(ctx, GroupContext{GroupID: g.ID, Project: "P", YAML: "project: P"}))
	gc, err := db.GroupContext(ctx, g.ID)
	require.NoError(t, err)
	assert.Equal(t, "P", gc.Project)
}

func TestValidStatus(t *testing.T) {
	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{"DONE", "DONE", true},
		{"in-progress", "IN_PROGRESS", true},
		{" blocked ", "BLOCKED", true},
		{"later", "", false},
	}
	for _, tt := range tests {
		got, ok := ValidStatus(tt.in)
		assert.Equal(t, tt.want, got, tt.in)
		assert.Equal(t, tt.ok, ok, tt.in)
	}
}
