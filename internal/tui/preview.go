package tui

import (
	"context"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/deepaksx/statuz-sub001/internal/render"
	"github.com/deepaksx/statuz-sub001/internal/search"
	"github.com/deepaksx/statuz-sub001/internal/store"
)

// previewRenderedMsg is sent when an async preview render completes.
type previewRenderedMsg struct {
	messageID string
	content   string
	hitLine   int
	err       error
}

// loadPreviewCmd returns a tea.Cmd that renders the conversation preview async.
func loadPreviewCmd(ctx context.Context, db *store.DB, r search.Result, query string, width int) tea.Cmd {
	return func() tea.Msg {
		content, hitLine, err := render.Conversation(ctx, db, r.GroupID, render.Options{
			HitID:   r.MessageID,
			Context: 50,
			Width:   width,
			Query:   query,
		})
		return previewRenderedMsg{
			messageID: r.MessageID,
			content:   content,
			hitLine:   hitLine,
			err:       err,
		}
	}
}

// newViewport creates a new viewport model with the given dimensions.
func newViewport(width, height int) viewport.Model {
	vp := viewport.New(width, height)
	vp.Style = stylePanelBorder
	return vp
}
