package render

import (
	"context"
	"fmt"
	"hash/fnv"
	"strings"
	"unicode/utf8"

	"github.com/deepaksx/statuz-sub001/internal/store"
	"github.com/mattn/go-runewidth"
)

const (
	colorReset   = "\033[0m"
	colorDim     = "\033[2m"
	colorHit     = "\033[43m"   // yellow background
	colorBoldRed = "\033[1;31m" // bold red for keyword highlights
)

// authorColors are picked per author so one person keeps one colour across
// the whole conversation.
var authorColors = []string{
	"\033[1;34m", // blue
	"\033[1;32m", // green
	"\033[1;35m", // magenta
	"\033[1;36m", // cyan
	"\033[1;33m", // yellow
	"\033[1;94m", // bright blue
	"\033[1;92m", // bright green
	"\033[1;95m", // bright magenta
}

const timeLayout = "2006-01-02 15:04"

type Options struct {
	HitID   string
	Context int    // messages before/after hit to show; <0 = all
	Width   int    // wrap width (0 = no wrap)
	Query   string // search query for keyword highlighting
}

func authorColor(author string) string {
	h := fnv.New32a()
	h.Write([]byte(author))
	return authorColors[h.Sum32()%uint32(len(authorColors))]
}

// highlightKeywords wraps case-insensitive matches of query terms in bold red ANSI codes.
func highlightKeywords(text, query string) string {
	if query == "" {
		return text
	}
	for _, term := range strings.Fields(query) {
		lower := strings.ToLower(term)
		i := 0
		for i < len(text) {
			idx := strings.Index(strings.ToLower(text[i:]), lower)
			if idx < 0 {
				break
			}
			pos := i + idx
			if pos+len(term) > len(text) {
				break
			}
			orig := text[pos : pos+len(term)]
			replacement := colorBoldRed + orig + colorReset
			text = text[:pos] + replacement + text[pos+len(term):]
			i = pos + len(replacement)
		}
	}
	return text
}

// indentLines prepends each line of text with the given prefix.
func indentLines(text, prefix string) string {
	lines := strings.Split(text, "\n")
	for i, l := range lines {
		lines[i] = prefix + l
	}
	return strings.Join(lines, "\n")
}

// wrapLine breaks a single line into multiple lines that fit within maxWidth
// visible columns, correctly skipping ANSI escape sequences when measuring width.
func wrapLine(line string, maxWidth int) []string {
	if maxWidth <= 0 {
		return []string{line}
	}

	var result []string
	var cur strings.Builder
	visW := 0

	i := 0
	for i < len(line) {
		// check for ANSI escape sequence: ESC[ ... m
		if i+1 < len(line) && line[i] == '\033' && line[i+1] == '[' {
			j := i + 2
			for j < len(line) && line[j] != 'm' {
				j++
			}
			if j < len(line) {
				j++ // include 'm'
			}
			cur.WriteString(line[i:j])
			i = j
			continue
		}

		r, size := utf8.DecodeRuneInString(line[i:])
		rw := runewidth.RuneWidth(r)

		if visW+rw > maxWidth {
			result = append(result, cur.String())
			cur.Reset()
			visW = 0
		}

		cur.WriteRune(r)
		visW += rw
		i += size
	}

	if cur.Len() > 0 {
		result = append(result, cur.String())
	}

	if len(result) == 0 {
		return []string{""}
	}
	return result
}

// Conversation renders part of a group's chat and returns the content and
// the 0-based line number of the hit message header (-1 if no hit).
func Conversation(ctx context.Context, db *store.DB, groupID string, opts Options) (string, int, error) {
	if opts.Context == 0 {
		opts.Context = 10
	}
	if opts.Context < 0 {
		opts.Context = 1000000 // no limit
	}

	group, err := db.GroupByID(ctx, groupID)
	if err != nil {
		return "", -1, fmt.Errorf("get group %s: %w", groupID, err)
	}

	msgs, hitIdx, startPos, totalCount, err := db.MessagesWindow(ctx, groupID, opts.HitID, opts.Context)
	if err != nil {
		return "", -1, fmt.Errorf("get messages: %w", err)
	}

	if totalCount == 0 {
		return "(empty group)", -1, nil
	}

	skipAfter := totalCount - startPos - len(msgs)

	var b strings.Builder
	hitLine := -1
	lineCount := 0

	// wraps long lines if Width is set
	writeLine := func(s string) {
		for _, wl := range wrapLine(s, opts.Width) {
			b.WriteString(wl)
			b.WriteString("\n")
			lineCount++
		}
	}

	writeLine(fmt.Sprintf("%s--- %s (%d messages) ---%s", colorDim, group.Name, totalCount, colorReset))

	if startPos > 0 {
		writeLine(fmt.Sprintf("%s... (%d messages before) ...%s", colorDim, startPos, colorReset))
	}

	lastDay := ""
	for i, m := range msgs {
		if day := m.Timestamp.Format("Monday, 2 January 2006"); day != lastDay {
			writeLine(fmt.Sprintf("%s== %s ==%s", colorDim, day, colorReset))
			lastDay = day
		}

		ts := m.Timestamp.Format(timeLayout)
		if i == hitIdx {
			hitLine = lineCount
			writeLine(fmt.Sprintf("%s>> %s > %s <<%s", colorHit, m.Author, ts, colorReset))
		} else {
			writeLine(fmt.Sprintf("%s%s%s %s%s%s", authorColor(m.Author), m.Author, colorReset, colorDim, ts, colorReset))
		}

		text := highlightKeywords(m.Text, opts.Query)
		for _, tl := range strings.Split(indentLines(text, "  "), "\n") {
			writeLine(tl)
		}
		writeLine("") // blank line after message
	}

	if skipAfter > 0 {
		writeLine(fmt.Sprintf("%s... (%d messages after) ...%s", colorDim, skipAfter, colorReset))
	}

	return b.String(), hitLine, nil
}
