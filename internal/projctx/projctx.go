// Package projctx loads project context files: YAML documents describing
// the project behind a chat group and its milestones.
package projctx

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/deepaksx/statuz-sub001/internal/store"
	"gopkg.in/yaml.v3"
)

const dueLayout = "2006-01-02"

type Doc struct {
	Project      string      `yaml:"project"`
	Group        string      `yaml:"group"`
	Summary      string      `yaml:"summary,omitempty"`
	Stakeholders []string    `yaml:"stakeholders,omitempty"`
	Milestones   []Milestone `yaml:"milestones,omitempty"`
}

type Milestone struct {
	Title       string `yaml:"title"`
	Description string `yaml:"description,omitempty"`
	Status      string `yaml:"status,omitempty"`
	Due         string `yaml:"due,omitempty"` // YYYY-MM-DD
}

// File is a loaded document with the bytes it came from.
type File struct {
	Path string
	Doc  *Doc
	Raw  []byte
}

func Load(path string) (*File, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	doc, err := Decode(raw)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &File{Path: path, Doc: doc, Raw: raw}, nil
}

// Decode parses and validates a context document.
func Decode(raw []byte) (*Doc, error) {
	var doc Doc
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("parse yaml: %w", err)
	}
	if err := doc.Validate(); err != nil {
		return nil, err
	}
	return &doc, nil
}

func (d *Doc) Validate() error {
	var errs []error
	if strings.TrimSpace(d.Group) == "" {
		errs = append(errs, errors.New("group is required"))
	}
	seen := make(map[string]bool)
	for i, m := range d.Milestones {
		title := strings.TrimSpace(m.Title)
		if title == "" {
			errs = append(errs, fmt.Errorf("milestone %d: title is required", i+1))
			continue
		}
		key := strings.ToLower(title)
		if seen[key] {
			errs = append(errs, fmt.Errorf("milestone %q: duplicate title", title))
		}
		seen[key] = true
		if m.Status != "" {
			if _, ok := store.ValidStatus(m.Status); !ok {
				errs = append(errs, fmt.Errorf("milestone %q: invalid status %q", title, m.Status))
			}
		}
		if m.Due != "" {
			if _, err := time.Parse(dueLayout, m.Due); err != nil {
				errs = append(errs, fmt.Errorf("milestone %q: due %q is not YYYY-MM-DD", title, m.Due))
			}
		}
	}
	return errors.Join(errs...)
}

// LoadDir loads every *.yaml and *.yml file in dir, sorted by name. A
// missing dir yields no files.
func LoadDir(dir string) ([]*File, error) {
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(e.Name())) {
		case ".yaml", ".yml":
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	var files []*File
	for _, name := range names {
		f, err := Load(filepath.Join(dir, name))
		if err != nil {
			return nil, err
		}
		files = append(files, f)
	}
	return files, nil
}

// Result reports what Apply wrote.
type Result struct {
	Group      *store.Group
	Milestones int
}

// Apply stores the document as the group's context and upserts its
// milestones. The group is created if it was never imported.
func Apply(ctx context.Context, db *store.DB, f *File) (*Result, error) {
	doc := f.Doc
	g, err := db.ResolveGroup(ctx, doc.Group)
	if errors.Is(err, store.ErrNotFound) {
		g, err = db.UpsertGroup(ctx, doc.Group)
	}
	if err != nil {
		return nil, err
	}

	err = db.SetGroupContext(ctx, store.GroupContext{
		GroupID: g.ID,
		Project: doc.Project,
		YAML:    string(f.Raw),
	})
	if err != nil {
		return nil, fmt.Errorf("store context: %w", err)
	}

	for _, m := range doc.Milestones {
		ms := &store.Milestone{
			GroupID:     g.ID,
			Title:       strings.TrimSpace(m.Title),
			Description: m.Description,
			Status:      m.Status,
		}
		if m.Due != "" {
			ms.Due, _ = time.ParseInLocation(dueLayout, m.Due, time.Local) // validated on load
		}
		if err := db.UpsertMilestone(ctx, ms); err != nil {
			return nil, err
		}
	}

	details := fmt.Sprintf("%s: project=%q milestones=%d", f.Path, doc.Project, len(doc.Milestones))
	if err := db.Audit(ctx, "context", details); err != nil {
		return nil, err
	}
	return &Result{Group: g, Milestones: len(doc.Milestones)}, nil
}
