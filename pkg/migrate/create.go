package migrate

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"
)

const versionLayout = "20060102150405"

var slugRe = regexp.MustCompile(`[^a-z0-9]+`)

// migrationTemplate is written for every new file. Statements must stay
// portable between SQLite and Postgres.
const migrationTemplate = `-- +goose Up
-- +goose StatementBegin
-- %[1]s: portable SQL only (sqlite + postgres)
-- +goose StatementEnd

-- +goose Down
-- +goose StatementBegin
-- undo %[1]s
-- +goose StatementEnd
`

// slug turns a free-form description into the filename suffix.
func slug(name string) string {
	return strings.Trim(slugRe.ReplaceAllString(strings.ToLower(name), "_"), "_")
}

// nextVersion returns a timestamp version strictly greater than every
// migration already present in dir.
func nextVersion(dir string, now time.Time) (string, error) {
	next, _ := strconv.ParseInt(now.UTC().Format(versionLayout), 10, 64)

	entries, err := os.ReadDir(dir)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return "", fmt.Errorf("read %q: %w", dir, err)
	}
	for _, e := range entries {
		m := sqlFileRe.FindStringSubmatch(e.Name())
		if m == nil {
			continue
		}
		if v, _ := strconv.ParseInt(m[1], 10, 64); v >= next {
			next = v + 1
		}
	}
	return strconv.FormatInt(next, 10), nil
}

// CreateSQLMigration writes <dir>/<version>_<slug>.sql and returns its path.
func CreateSQLMigration(dir string, name string) (string, error) {
	switch {
	case strings.TrimSpace(dir) == "":
		return "", fmt.Errorf("dir is required")
	case strings.TrimSpace(name) == "":
		return "", fmt.Errorf("name is required")
	}

	suffix := slug(name)
	if suffix == "" {
		return "", fmt.Errorf("name %q has no usable characters", name)
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("mkdir %q: %w", dir, err)
	}
	version, err := nextVersion(dir, time.Now())
	if err != nil {
		return "", err
	}

	path := filepath.Join(dir, version+"_"+suffix+".sql")
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", fmt.Errorf("create %q: %w", path, err)
	}
	defer f.Close()

	if _, err := fmt.Fprintf(f, migrationTemplate, suffix); err != nil {
		return "", fmt.Errorf("write %q: %w", path, err)
	}
	return path, nil
}
