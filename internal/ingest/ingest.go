// Package ingest imports exported chat transcripts into the store.
package ingest

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/deepaksx/statuz-sub001/internal/parse"
	"github.com/deepaksx/statuz-sub001/internal/store"
	"github.com/rs/zerolog"
)

// rawLayout is the header written back into messages.raw. Day first, so the
// parser reads it back to the same instant.
const rawLayout = "02/01/2006, 15:04:05"

type Options struct {
	// Parser defaults to local time and time.Now for fallbacks.
	Parser *parse.Parser
	Log    zerolog.Logger
}

type Stats struct {
	Scanned   int
	Imported  int
	Skipped   int
	Messages  int
	Fallbacks int
	Errors    int
}

func (s Stats) String() string {
	return fmt.Sprintf("scanned=%d imported=%d skipped=%d messages=%d fallbacks=%d errors=%d",
		s.Scanned, s.Imported, s.Skipped, s.Messages, s.Fallbacks, s.Errors)
}

// FileResult describes one imported export.
type FileResult struct {
	Group     *store.Group
	Parsed    int
	Inserted  int
	Fallbacks int
}

// ImportFile parses the export at path into group (derived from the file
// name when empty). Messages already in the store are left alone.
func ImportFile(ctx context.Context, db *store.DB, path, group string, opts Options) (*FileResult, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	st, err := os.Stat(abs)
	if err != nil {
		return nil, err
	}
	return importFile(ctx, db, FileInfo{Path: abs, Mtime: st.ModTime().Unix(), Size: st.Size()}, group, opts)
}

func importFile(ctx context.Context, db *store.DB, fi FileInfo, group string, opts Options) (*FileResult, error) {
	data, err := os.ReadFile(fi.Path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", fi.Path, err)
	}
	if group == "" {
		group = GroupName(fi.Path)
	}

	p := opts.Parser
	if p == nil {
		p = &parse.Parser{}
	}
	res := p.Parse(string(data))

	g, err := db.UpsertGroup(ctx, group)
	if err != nil {
		return nil, err
	}

	msgs := make([]store.Message, 0, len(res.Messages))
	seen := make(map[string]int)
	for _, m := range res.Messages {
		key := fmt.Sprintf("%d|%s|%s", m.Timestamp.UnixMilli(), m.Author, m.Text)
		seq := seen[key]
		seen[key]++
		msgs = append(msgs, store.Message{
			ID:         store.MessageID(g.ID, m.Timestamp, m.Author, m.Text, seq),
			GroupID:    g.ID,
			Author:     m.Author,
			AuthorName: m.Author,
			Timestamp:  m.Timestamp,
			Text:       m.Text,
			Raw:        fmt.Sprintf("%s - %s: %s", m.Timestamp.Format(rawLayout), m.Author, m.Text),
			SourceFile: fi.Path,
			Line:       m.Line,
		})
	}
	inserted, err := db.InsertMessages(ctx, msgs)
	if err != nil {
		return nil, fmt.Errorf("store %s: %w", fi.Path, err)
	}

	err = db.RecordImport(ctx, store.Import{
		FilePath:  fi.Path,
		GroupID:   g.ID,
		Mtime:     fi.Mtime,
		Size:      fi.Size,
		Messages:  len(res.Messages),
		Fallbacks: res.Fallbacks,
	})
	if err != nil {
		return nil, err
	}

	details := fmt.Sprintf("%s: parsed=%d inserted=%d fallbacks=%d", fi.Path, len(res.Messages), inserted, res.Fallbacks)
	if err := db.Audit(ctx, "import", details); err != nil {
		return nil, err
	}

	if res.Fallbacks > 0 {
		opts.Log.Warn().Str("file", fi.Path).Int("fallbacks", res.Fallbacks).
			Msg("unreadable timestamps replaced with import time")
	}
	opts.Log.Debug().Str("file", fi.Path).Str("group", g.Name).Int("inserted", inserted).Msg("imported")

	return &FileResult{Group: g, Parsed: len(res.Messages), Inserted: inserted, Fallbacks: res.Fallbacks}, nil
}

// ImportAll imports every export under root whose mtime or size changed
// since its last import. Per-file failures are logged and counted.
func ImportAll(ctx context.Context, db *store.DB, root string, opts Options) (Stats, error) {
	var stats Stats

	root, err := filepath.Abs(root)
	if err != nil {
		return stats, err
	}
	files, err := Scan(root)
	if err != nil {
		return stats, fmt.Errorf("scan: %w", err)
	}
	stats.Scanned = len(files)

	for _, fi := range files {
		if err := ctx.Err(); err != nil {
			return stats, err
		}

		needs, err := needsUpdate(ctx, db, fi)
		if err != nil {
			stats.Errors++
			opts.Log.Warn().Err(err).Str("file", fi.Path).Msg("import state")
			continue
		}
		if !needs {
			stats.Skipped++
			continue
		}

		res, err := importFile(ctx, db, fi, "", opts)
		if err != nil {
			stats.Errors++
			opts.Log.Warn().Err(err).Str("file", fi.Path).Msg("import failed")
			continue
		}
		stats.Imported++
		stats.Messages += res.Inserted
		stats.Fallbacks += res.Fallbacks
	}

	return stats, nil
}

func needsUpdate(ctx context.Context, db *store.DB, fi FileInfo) (bool, error) {
	info, err := db.ImportInfo(ctx, fi.Path)
	if err != nil {
		return false, err
	}
	if info == nil {
		return true, nil // never imported
	}
	return info.Mtime != fi.Mtime || info.Size != fi.Size, nil
}
