package ingest

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/deepaksx/statuz-sub001/internal/parse"
	"github.com/deepaksx/statuz-sub001/internal/store"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const export = `12/03/2024, 09:15 - Alice: Slab pour moved to Friday
12/03/2024, 09:17 - Bob: Noted.
Crane is booked for Thursday
13/03/2024, 18:02 - Carol: Inspector confirmed
`

func testOptions() Options {
	now := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)
	return Options{
		Parser: &parse.Parser{Location: time.UTC, Now: func() time.Time { return now }},
		Log:    zerolog.Nop(),
	}
}

func openDB(t *testing.T) *store.DB {
	t.Helper()
	db, err := store.Open(context.Background(), filepath.Join(t.TempDir(), "statuz.db"), store.Options{Logger: zerolog.Nop()})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func writeFile(t *testing.T, path, body string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
}

func TestGroupName(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"/x/WhatsApp Chat with Tower Crew.txt", "Tower Crew"},
		{"/x/WhatsApp Chat - Site Office.txt", "Site Office"},
		{"/x/WhatsApp Chat - Site Office/_chat.txt", "Site Office"},
		{"/x/plain.txt", "plain"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, GroupName(tt.path))
		})
	}
}

func TestScan(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "a.txt"), "x")
	writeFile(t, filepath.Join(root, "nested", "B.TXT"), "yy")
	writeFile(t, filepath.Join(root, "nested", "media.jpg"), "z")
	writeFile(t, filepath.Join(root, ".hidden", "c.txt"), "z")

	files, err := Scan(root)
	require.NoError(t, err)
	require.Len(t, files, 2)
	assert.Equal(t, filepath.Join(root, "a.txt"), files[0].Path)
	assert.Equal(t, int64(2), files[1].Size)

	files, err = Scan(filepath.Join(root, "missing"))
	require.NoError(t, err)
	assert.Empty(t, files)
}

func TestImportFile(t *testing.T) {
	db := openDB(t)
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "WhatsApp Chat with Tower Crew.txt")
	writeFile(t, path, export)

	res, err := ImportFile(ctx, db, path, "", testOptions())
	require.NoError(t, err)
	assert.Equal(t, "Tower Crew", res.Group.Name)
	assert.Equal(t, 3, res.Parsed)
	assert.Equal(t, 3, res.Inserted)
	assert.Zero(t, res.Fallbacks)

	msgs, err := db.GroupMessages(ctx, res.Group.ID)
	require.NoError(t, err)
	require.Len(t, msgs, 3)
	assert.Equal(t, "Noted.\nCrane is booked for Thursday", msgs[1].Text)
	assert.Equal(t, path, msgs[1].SourceFile)
	assert.Equal(t, 2, msgs[1].Line)
	assert.True(t, msgs[0].Timestamp.Equal(time.Date(2024, 3, 12, 9, 15, 0, 0, time.UTC)))

	// raw reads back to the same message
	back := testOptions().Parser.Parse(msgs[0].Raw)
	require.Len(t, back.Messages, 1)
	assert.True(t, back.Messages[0].Timestamp.Equal(msgs[0].Timestamp))
	assert.Equal(t, "Alice", back.Messages[0].Author)

	again, err := ImportFile(ctx, db, path, "", testOptions())
	require.NoError(t, err)
	assert.Zero(t, again.Inserted)

	n, err := db.MessageCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	log, err := db.AuditLog(ctx, 10)
	require.NoError(t, err)
	require.Len(t, log, 2)
	assert.Equal(t, "import", log[0].Action)
}

func TestImportFileExplicitGroup(t *testing.T) {
	db := openDB(t)
	path := filepath.Join(t.TempDir(), "chat.txt")
	writeFile(t, path, export)

	res, err := ImportFile(context.Background(), db, path, "Renamed", testOptions())
	require.NoError(t, err)
	assert.Equal(t, "Renamed", res.Group.Name)
}

func TestImportFileCountsFallbacks(t *testing.T) {
	db := openDB(t)
	path := filepath.Join(t.TempDir(), "bad.txt")
	writeFile(t, path, "31/02/2024, 09:15 - Alice: no such day\n")

	res, err := ImportFile(context.Background(), db, path, "", testOptions())
	require.NoError(t, err)
	assert.Equal(t, 1, res.Fallbacks)

	var fallbacks int
	require.NoError(t, db.Raw().QueryRow("SELECT fallbacks FROM imports WHERE file_path = ?", path).Scan(&fallbacks))
	assert.Equal(t, 1, fallbacks)
}

func TestImportFileKeepsRepeatedMessages(t *testing.T) {
	db := openDB(t)
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "repeat.txt")
	writeFile(t, path, "01/02/2023, 10:00 - Alice: ok\n01/02/2023, 10:00 - Alice: ok\n01/02/2023, 10:00 - Bob: ok\n")

	res, err := ImportFile(ctx, db, path, "", testOptions())
	require.NoError(t, err)
	assert.Equal(t, 3, res.Parsed)
	assert.Equal(t, 3, res.Inserted)

	msgs, err := db.GroupMessages(ctx, res.Group.ID)
	require.NoError(t, err)
	require.Len(t, msgs, 3)
	assert.NotEqual(t, msgs[0].ID, msgs[1].ID)

	again, err := ImportFile(ctx, db, path, "", testOptions())
	require.NoError(t, err)
	assert.Zero(t, again.Inserted)

	n, err := db.MessageCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}

func TestImportAllSkipsUnchanged(t *testing.T) {
	db := openDB(t)
	ctx := context.Background()
	root := t.TempDir()
	first := filepath.Join(root, "WhatsApp Chat - Site.txt")
	writeFile(t, first, export)
	writeFile(t, filepath.Join(root, "empty.txt"), "")

	stats, err := ImportAll(ctx, db, root, testOptions())
	require.NoError(t, err)
	assert.Equal(t, Stats{Scanned: 2, Imported: 2, Messages: 3}, stats)

	stats, err = ImportAll(ctx, db, root, testOptions())
	require.NoError(t, err)
	assert.Equal(t, Stats{Scanned: 2, Skipped: 2}, stats)

	writeFile(t, first, export+"14/03/2024, 07:00 - Alice: Pour done\n")
	later := time.Now().Add(time.Hour)
	require.NoError(t, os.Chtimes(first, later, later))

	stats, err = ImportAll(ctx, db, root, testOptions())
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Imported)
	assert.Equal(t, 1, stats.Skipped)
	assert.Equal(t, 1, stats.Messages)
}

func TestImportAllMissingRoot(t *testing.T) {
	db := openDB(t)
	stats, err := ImportAll(context.Background(), db, filepath.Join(t.TempDir(), "nope"), testOptions())
	require.NoError(t, err)
	assert.Zero(t, stats.Scanned)
}

func TestStatsString(t *testing.T) {
	s := Stats{Scanned: 3, Imported: 1, Skipped: 2}
	assert.Equal(t, "scanned=3 imported=1 skipped=2 messages=0 fallbacks=0 errors=0", s.String())
}
