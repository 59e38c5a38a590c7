package render

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/deepaksx/statuz-sub001/internal/store"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWrapLine(t *testing.T) {
	assert.Equal(t, []string{"abcdef"}, wrapLine("abcdef", 0))
	assert.Equal(t, []string{"abc", "def", "g"}, wrapLine("abcdefg", 3))
	assert.Equal(t, []string{""}, wrapLine("", 5))

	// escapes do not count towards width
	colored := colorBoldRed + "ab" + colorReset + "cd"
	assert.Equal(t, []string{colored}, wrapLine(colored, 4))

	// wide runes take two columns
	assert.Equal(t, []string{"会议", "改到"}, wrapLine("会议改到", 4))
}

func TestHighlightKeywords(t *testing.T) {
	got := highlightKeywords("Crane booked, crane ready", "crane")
	assert.Equal(t, colorBoldRed+"Crane"+colorReset+" booked, "+colorBoldRed+"crane"+colorReset+" ready", got)
	assert.Equal(t, "plain", highlightKeywords("plain", ""))
}

func TestAuthorColorIsStable(t *testing.T) {
	assert.Equal(t, authorColor("Alice"), authorColor("Alice"))
	assert.Contains(t, authorColors, authorColor("Bob"))
}

func TestConversation(t *testing.T) {
	ctx := context.Background()
	db, err := store.Open(ctx, filepath.Join(t.TempDir(), "statuz.db"), store.Options{Logger: zerolog.Nop()})
	require.NoError(t, err)
	defer db.Close()

	g, err := db.UpsertGroup(ctx, "Site")
	require.NoError(t, err)

	base := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	var msgs []store.Message
	for i := 0; i < 9; i++ {
		ts := base.Add(time.Duration(i) * time.Minute)
		text := fmt.Sprintf("update %d", i)
		msgs = append(msgs, store.Message{
			ID: store.MessageID(g.ID, ts, "Alice", text, 0), GroupID: g.ID,
			Author: "Alice", AuthorName: "Alice", Timestamp: ts, Text: text, Raw: text,
		})
	}
	_, err = db.InsertMessages(ctx, msgs)
	require.NoError(t, err)

	out, hitLine, err := Conversation(ctx, db, g.ID, Options{HitID: msgs[4].ID, Context: 2, Query: "update"})
	require.NoError(t, err)
	lines := strings.Split(out, "\n")
	require.Greater(t, len(lines), hitLine)
	assert.Contains(t, lines[hitLine], ">> Alice >")
	assert.Contains(t, lines[hitLine+1], "4")
	assert.Contains(t, out, "(2 messages before)")
	assert.Contains(t, out, "(2 messages after)")
	assert.NotContains(t, out, "update 1")

	out, hitLine, err = Conversation(ctx, db, g.ID, Options{Context: -1})
	require.NoError(t, err)
	assert.Equal(t, -1, hitLine)
	assert.Contains(t, out, "update 0")
	assert.Contains(t, out, "update 8")

	empty, err := db.UpsertGroup(ctx, "Empty")
	require.NoError(t, err)
	out, _, err = Conversation(ctx, db, empty.ID, Options{})
	require.NoError(t, err)
	assert.Equal(t, "(empty group)", out)

	_, _, err = Conversation(ctx, db, "missing", Options{})
	assert.Error(t, err)
}
