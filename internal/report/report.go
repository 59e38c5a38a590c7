// Package report builds point-in-time status reports for a chat group from
// its messages, project context and milestones.
package report

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/deepaksx/statuz-sub001/internal/store"
)

const (
	topAuthors = 5
	dailyDays  = 7
	dayLayout  = "2006-01-02"
)

type AuthorCount struct {
	Author   string
	Messages int
}

type DayCount struct {
	Day      time.Time
	Messages int
}

type Snapshot struct {
	Group       store.Group
	Project     string
	GeneratedAt time.Time
	Messages    int
	First       time.Time
	Last        time.Time
	Authors     []AuthorCount  // most active first
	Daily       []DayCount     // oldest first, ending on GeneratedAt's day
	ByStatus    map[string]int // milestone counts
	Milestones  []store.Milestone
	AtRisk      []store.Milestone // AT_RISK, BLOCKED or overdue
}

// Build assembles the snapshot for groupID as of now.
func Build(ctx context.Context, db *store.DB, groupID string, now time.Time) (*Snapshot, error) {
	g, err := db.GroupByID(ctx, groupID)
	if err != nil {
		return nil, fmt.Errorf("get group %s: %w", groupID, err)
	}
	s := &Snapshot{Group: *g, GeneratedAt: now, ByStatus: make(map[string]int)}

	gc, err := db.GroupContext(ctx, groupID)
	switch {
	case err == nil:
		s.Project = gc.Project
	case !errors.Is(err, store.ErrNotFound):
		return nil, err
	}

	msgs, err := db.GroupMessages(ctx, groupID)
	if err != nil {
		return nil, fmt.Errorf("get messages: %w", err)
	}
	s.summarizeMessages(msgs)

	ms, err := db.Milestones(ctx, groupID)
	if err != nil {
		return nil, fmt.Errorf("get milestones: %w", err)
	}
	s.Milestones = ms
	today := startOfDay(now)
	for _, m := range ms {
		s.ByStatus[m.Status]++
		overdue := !m.Due.IsZero() && m.Due.Before(today) && m.Status != store.StatusDone
		if m.Status == store.StatusAtRisk || m.Status == store.StatusBlocked || overdue {
			s.AtRisk = append(s.AtRisk, m)
		}
	}
	return s, nil
}

func (s *Snapshot) summarizeMessages(msgs []store.Message) {
	s.Messages = len(msgs)
	if len(msgs) > 0 {
		s.First = msgs[0].Timestamp
		s.Last = msgs[len(msgs)-1].Timestamp
	}

	counts := make(map[string]int)
	today := startOfDay(s.GeneratedAt)
	s.Daily = make([]DayCount, dailyDays)
	for i := range s.Daily {
		s.Daily[i].Day = today.AddDate(0, 0, i-dailyDays+1)
	}
	for _, m := range msgs {
		counts[m.Author]++
		day := startOfDay(m.Timestamp.In(s.GeneratedAt.Location()))
		for i := range s.Daily {
			if s.Daily[i].Day.Equal(day) {
				s.Daily[i].Messages++
				break
			}
		}
	}

	for a, n := range counts {
		s.Authors = append(s.Authors, AuthorCount{Author: a, Messages: n})
	}
	sort.Slice(s.Authors, func(i, j int) bool {
		if s.Authors[i].Messages != s.Authors[j].Messages {
			return s.Authors[i].Messages > s.Authors[j].Messages
		}
		return s.Authors[i].Author < s.Authors[j].Author
	})
	if len(s.Authors) > topAuthors {
		s.Authors = s.Authors[:topAuthors]
	}
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// Markdown renders the snapshot as a status report.
func (s *Snapshot) Markdown() string {
	var b strings.Builder

	fmt.Fprintf(&b, "# Status: %s\n\n", s.Group.Name)
	if s.Project != "" {
		fmt.Fprintf(&b, "Project: %s\n", s.Project)
	}
	fmt.Fprintf(&b, "Generated: %s\n\n", s.GeneratedAt.Format("2006-01-02 15:04"))

	b.WriteString("## Activity\n\n")
	if s.Messages == 0 {
		b.WriteString("No messages.\n\n")
	} else {
		fmt.Fprintf(&b, "%d messages from %s to %s.\n\n", s.Messages, s.First.Format(dayLayout), s.Last.Format(dayLayout))
		b.WriteString("| day | messages |\n|---|---|\n")
		for _, d := range s.Daily {
			fmt.Fprintf(&b, "| %s | %d |\n", d.Day.Format(dayLayout), d.Messages)
		}
		b.WriteString("\nMost active:\n")
		for _, a := range s.Authors {
			fmt.Fprintf(&b, "- %s (%d)\n", a.Author, a.Messages)
		}
		b.WriteString("\n")
	}

	b.WriteString("## Milestones\n\n")
	if len(s.Milestones) == 0 {
		b.WriteString("No milestones.\n")
		return b.String()
	}
	var counts []string
	for _, st := range store.Statuses {
		if n := s.ByStatus[st]; n > 0 {
			counts = append(counts, fmt.Sprintf("%s %d", st, n))
		}
	}
	fmt.Fprintf(&b, "%s\n\n", strings.Join(counts, ", "))
	b.WriteString("| milestone | status | due |\n|---|---|---|\n")
	for _, m := range s.Milestones {
		fmt.Fprintf(&b, "| %s | %s | %s |\n", m.Title, m.Status, formatDue(m.Due))
	}

	if len(s.AtRisk) > 0 {
		b.WriteString("\n## Needs attention\n\n")
		for _, m := range s.AtRisk {
			fmt.Fprintf(&b, "- %s (%s, due %s)\n", m.Title, m.Status, formatDue(m.Due))
		}
	}
	return b.String()
}

func formatDue(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Format(dayLayout)
}
