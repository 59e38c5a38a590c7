package report

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/deepaksx/statuz-sub001/internal/store"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuild(t *testing.T) {
	ctx := context.Background()
	db, err := store.Open(ctx, filepath.Join(t.TempDir(), "statuz.db"), store.Options{Logger: zerolog.Nop()})
	require.NoError(t, err)
	defer db.Close()

	g, err := db.UpsertGroup(ctx, "Tower Crew")
	require.NoError(t, err)
	require.NoError(t, db.SetGroupContext(ctx, store.GroupContext{GroupID: g.ID, Project: "Tower B", YAML: "group: Tower Crew"}))

	now := time.Date(2024, 3, 10, 12, 0, 0, 0, time.Local)
	add := func(author, text string, ts time.Time) store.Message {
		return store.Message{
			ID: store.MessageID(g.ID, ts, author, text, 0), GroupID: g.ID,
			Author: author, AuthorName: author, Timestamp: ts, Text: text, Raw: text,
		}
	}
	_, err = db.InsertMessages(ctx, []store.Message{
		add("Alice", "old news", now.AddDate(0, 0, -20)),
		add("Alice", "pour today", now.Add(-2*time.Hour)),
		add("Bob", "crane ok", now.Add(-time.Hour)),
		add("Alice", "inspection friday", now.AddDate(0, 0, -1)),
	})
	require.NoError(t, err)

	for _, m := range []*store.Milestone{
		{GroupID: g.ID, Title: "Slab", Status: store.StatusDone, Due: now.AddDate(0, 0, -5)},
		{GroupID: g.ID, Title: "Facade", Status: store.StatusInProgress, Due: now.AddDate(0, 0, -2)},
		{GroupID: g.ID, Title: "Lifts", Status: store.StatusBlocked},
		{GroupID: g.ID, Title: "Handover", Due: now.AddDate(0, 2, 0)},
	} {
		require.NoError(t, db.UpsertMilestone(ctx, m))
	}

	s, err := Build(ctx, db, g.ID, now)
	require.NoError(t, err)
	assert.Equal(t, "Tower B", s.Project)
	assert.Equal(t, 4, s.Messages)
	assert.Equal(t, []AuthorCount{{"Alice", 3}, {"Bob", 1}}, s.Authors)

	require.Len(t, s.Daily, 7)
	assert.Equal(t, 2, s.Daily[6].Messages)
	assert.Equal(t, 1, s.Daily[5].Messages)
	assert.Equal(t, now.Day(), s.Daily[6].Day.Day())

	assert.Equal(t, 1, s.ByStatus[store.StatusDone])
	assert.Equal(t, 1, s.ByStatus[store.StatusNotStarted])

	var risky []string
	for _, m := range s.AtRisk {
		risky = append(risky, m.Title)
	}
	assert.ElementsMatch(t, []string{"Facade", "Lifts"}, risky)

	md := s.Markdown()
	assert.Contains(t, md, "# Status: Tower Crew")
	assert.Contains(t, md, "Project: Tower B")
	assert.Contains(t, md, "4 messages from")
	assert.Contains(t, md, "- Alice (3)")
	assert.Contains(t, md, "| Handover | NOT_STARTED |")
	assert.Contains(t, md, "## Needs attention")
	assert.Contains(t, md, "- Lifts (BLOCKED, due -)")
}

func TestBuildEmptyGroup(t *testing.T) {
	ctx := context.Background()
	db, err := store.Open(ctx, filepath.Join(t.TempDir(), "statuz.db"), store.Options{Logger: zerolog.Nop()})
	require.NoError(t, err)
	defer db.Close()

	g, err := db.UpsertGroup(ctx, "Quiet")
	require.NoError(t, err)

	s, err := Build(ctx, db, g.ID, time.Now())
	require.NoError(t, err)
	assert.Zero(t, s.Messages)
	assert.Empty(t, s.Project)

	md := s.Markdown()
	assert.Contains(t, md, "No messages.")
	assert.Contains(t, md, "No milestones.")

	_, err = Build(ctx, db, "missing", time.Now())
	assert.Error(t, err)
}
