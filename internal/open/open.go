package open

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"

	"github.com/deepaksx/statuz-sub001/internal/store"
)

// Message opens the export a message was imported from in $EDITOR (less
// when unset), positioned on the message's first line.
func Message(ctx context.Context, db *store.DB, id string) error {
	m, err := db.MessageByID(ctx, id)
	if err != nil {
		return fmt.Errorf("get message %s: %w", id, err)
	}

	filePath := m.SourceFile
	if filePath == "" {
		filePath, err = db.SourceFile(ctx, m.GroupID)
		if err != nil {
			return fmt.Errorf("no source file recorded for message %s", id)
		}
	}
	if _, err := os.Stat(filePath); err != nil {
		return fmt.Errorf("file not found: %s", filePath)
	}

	lineNum := m.Line
	if lineNum < 1 {
		lineNum = 1
	}

	editor := os.Getenv("EDITOR")
	if editor == "" {
		editor = "less"
	}

	cmd := editorCommand(editor, filePath, lineNum)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd.Run()
}

func editorCommand(editor, filePath string, lineNum int) *exec.Cmd {
	switch {
	case strings.Contains(editor, "vim") || strings.Contains(editor, "nano"):
		return exec.Command(editor, fmt.Sprintf("+%d", lineNum), filePath)
	case strings.Contains(editor, "code"):
		return exec.Command(editor, "--goto", filePath+":"+strconv.Itoa(lineNum))
	case strings.Contains(editor, "less"):
		return exec.Command(editor, "+"+strconv.Itoa(lineNum), filePath)
	default:
		return exec.Command(editor, filePath)
	}
}
