package migrate

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"regexp"
	"sort"
	"strconv"

	"github.com/rs/zerolog"
)

// unitFileRe matches migration files like 001_init.sql.
var unitFileRe = regexp.MustCompile(`^(\d+)_(.+)\.sql$`)

// ListUnits returns the migration units found in dir, ordered by ID.
// Files that do not follow the naming pattern are ignored. A missing dir
// is not an error: it is logged and treated as having no migrations.
func ListUnits(fsys fs.FS, dir string, log zerolog.Logger) ([]Unit, error) {
	entries, err := fs.ReadDir(fsys, dir)
	if errors.Is(err, fs.ErrNotExist) {
		log.Warn().Str("dir", dir).Msg("migrations directory not found, nothing to apply")
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read migrations dir %s: %w", dir, err)
	}

	var units []Unit
	seen := make(map[int]string)
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		m := unitFileRe.FindStringSubmatch(e.Name())
		if m == nil {
			continue
		}
		id, err := strconv.Atoi(m[1])
		if err != nil || id <= 0 {
			continue
		}
		if prev, ok := seen[id]; ok {
			return nil, fmt.Errorf("duplicate migration id %d: %s and %s", id, prev, e.Name())
		}
		seen[id] = e.Name()

		p := path.Join(dir, e.Name())
		body, err := fs.ReadFile(fsys, p)
		if err != nil {
			return nil, fmt.Errorf("read migration %s: %w", p, err)
		}
		units = append(units, Unit{
			ID:   id,
			Name: m[2],
			Body: string(body),
			File: e.Name(),
		})
	}

	sort.Slice(units, func(i, j int) bool {
		return units[i].ID < units[j].ID
	})
	return units, nil
}

// ListDir is ListUnits over a directory on disk.
func ListDir(dir string, log zerolog.Logger) ([]Unit, error) {
	return ListUnits(os.DirFS(dir), ".", log)
}
