package search

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/deepaksx/statuz-sub001/internal/store"
)

type Result struct {
	MessageID string
	GroupID   string
	GroupName string
	Author    string
	Timestamp time.Time
	Snippet   string
	Rank      float64
}

type Options struct {
	Query  string
	Group  string    // "" = all; group id or name
	Author string    // "" = all
	Since  time.Time // zero = no filter
	Limit  int
}

// containsCJK returns true if the string contains any CJK Unified Ideograph.
func containsCJK(s string) bool {
	for _, r := range s {
		if unicode.Is(unicode.Han, r) {
			return true
		}
	}
	return false
}

// ftsQuery quotes every term so punctuation in chat text ("what's", "5pm?")
// never reaches the FTS5 query parser as syntax. Terms are ANDed.
func ftsQuery(q string) string {
	terms := strings.Fields(q)
	for i, t := range terms {
		terms[i] = `"` + strings.ReplaceAll(t, `"`, `""`) + `"`
	}
	return strings.Join(terms, " ")
}

// makeSnippet extracts a snippet around the first occurrence of query in text.
func makeSnippet(text, query string, contextChars int) string {
	lower := strings.ToLower(text)
	qLower := strings.ToLower(query)
	idx := strings.Index(lower, qLower)
	if query == "" || idx < 0 || len(lower) != len(text) {
		// no match (or case folding moved byte offsets), return head
		if len([]rune(text)) > contextChars*2 {
			return string([]rune(text)[:contextChars*2]) + "..."
		}
		return text
	}
	runes := []rune(text)
	qLen := len([]rune(query))
	runePos := len([]rune(text[:idx]))
	start := max(runePos-contextChars, 0)
	end := min(runePos+qLen+contextChars, len(runes))

	prefix := ""
	suffix := ""
	if start > 0 {
		prefix = "..."
	}
	if end < len(runes) {
		suffix = "..."
	}
	snippet := string(runes[start:runePos]) +
		">>>" + string(runes[runePos:runePos+qLen]) + "<<<" +
		string(runes[runePos+qLen:end])
	return prefix + snippet + suffix
}

// Search finds messages matching opts.Query, best match first. Queries with
// CJK text use substring matching since the unicode61 tokenizer does not
// split ideographs into words.
func Search(ctx context.Context, db *store.DB, opts Options) ([]Result, error) {
	if strings.TrimSpace(opts.Query) == "" {
		return nil, nil
	}
	if opts.Limit <= 0 {
		opts.Limit = 100
	}
	if containsCJK(opts.Query) {
		return searchLike(ctx, db, opts)
	}
	return searchFTS(ctx, db, opts)
}

// Recent lists the latest messages matching the filters, newest first.
func Recent(ctx context.Context, db *store.DB, opts Options) ([]Result, error) {
	if opts.Limit <= 0 {
		opts.Limit = 100
	}
	where, args := filters(nil, nil, opts)
	query := fmt.Sprintf(`
		SELECT m.id, m.group_id, g.name, m.author, m.timestamp, m.text
		FROM messages m
		JOIN groups g ON g.id = m.group_id
		%s
		ORDER BY m.timestamp DESC, m.rowid DESC
		LIMIT ?
	`, where)
	args = append(args, opts.Limit)

	rows, err := db.Raw().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("recent query: %w", err)
	}
	defer rows.Close()

	var results []Result
	for rows.Next() {
		var r Result
		var ts int64
		var text string
		if err := rows.Scan(&r.MessageID, &r.GroupID, &r.GroupName, &r.Author, &ts, &text); err != nil {
			return nil, err
		}
		r.Timestamp = time.UnixMilli(ts)
		r.Snippet = makeSnippet(strings.ReplaceAll(text, "\n", " "), "", 60)
		results = append(results, r)
	}
	return results, rows.Err()
}

func filters(conditions []string, args []any, opts Options) (string, []any) {
	// group filter
	if opts.Group != "" {
		conditions = append(conditions, "(g.id = ? OR g.name = ? COLLATE NOCASE)")
		args = append(args, opts.Group, opts.Group)
	}

	// author filter
	if opts.Author != "" {
		conditions = append(conditions, "m.author = ? COLLATE NOCASE")
		args = append(args, opts.Author)
	}

	// since filter
	if !opts.Since.IsZero() {
		conditions = append(conditions, "m.timestamp >= ?")
		args = append(args, opts.Since.UnixMilli())
	}

	if len(conditions) == 0 {
		return "", args
	}
	return "WHERE " + strings.Join(conditions, " AND "), args
}

func searchFTS(ctx context.Context, db *store.DB, opts Options) ([]Result, error) {
	where, args := filters([]string{"messages_fts MATCH ?"}, []any{ftsQuery(opts.Query)}, opts)

	query := fmt.Sprintf(`
		SELECT
			m.id,
			m.group_id,
			g.name,
			m.author,
			m.timestamp,
			snippet(messages_fts, 0, '>>>','<<<', '...', 40) as snip,
			bm25(messages_fts) as rank
		FROM messages_fts
		JOIN messages m ON messages_fts.rowid = m.rowid
		JOIN groups g ON g.id = m.group_id
		%s
		ORDER BY rank, m.timestamp DESC
		LIMIT ?
	`, where)
	args = append(args, opts.Limit)

	rows, err := db.Raw().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("search query: %w", err)
	}
	defer rows.Close()

	return scanResults(rows)
}

func searchLike(ctx context.Context, db *store.DB, opts Options) ([]Result, error) {
	where, args := filters([]string{"m.text LIKE ?"}, []any{"%" + opts.Query + "%"}, opts)

	query := fmt.Sprintf(`
		SELECT m.id, m.group_id, g.name, m.author, m.timestamp, m.text
		FROM messages m
		JOIN groups g ON g.id = m.group_id
		%s
		ORDER BY m.timestamp DESC
		LIMIT ?
	`, where)
	args = append(args, opts.Limit)

	rows, err := db.Raw().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("search query: %w", err)
	}
	defer rows.Close()

	var results []Result
	for rows.Next() {
		var r Result
		var ts int64
		var fullText string
		if err := rows.Scan(&r.MessageID, &r.GroupID, &r.GroupName, &r.Author, &ts, &fullText); err != nil {
			return nil, err
		}
		r.Timestamp = time.UnixMilli(ts)
		r.Snippet = makeSnippet(fullText, opts.Query, 30)
		results = append(results, r)
	}
	return results, rows.Err()
}

func scanResults(rows *sql.Rows) ([]Result, error) {
	var results []Result
	for rows.Next() {
		var r Result
		var ts int64
		if err := rows.Scan(&r.MessageID, &r.GroupID, &r.GroupName, &r.Author, &ts, &r.Snippet, &r.Rank); err != nil {
			return nil, err
		}
		r.Timestamp = time.UnixMilli(ts)
		results = append(results, r)
	}
	return results, rows.Err()
}
