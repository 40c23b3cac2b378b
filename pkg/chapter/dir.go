package chapter

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/parleyhq/parley/pkg/domain"
	"github.com/parleyhq/parley/pkg/ports"
)

var _ ports.ChapterLoader = (*Dir)(nil)

// chapterExts lists the file extensions Load probes, in preference order.
var chapterExts = []string{".json", ".yaml", ".yml"}

// Dir serves chapters from a directory, resolving a chapter id to the file
// <dir>/<id>.json (or .yaml/.yml). It is the default content source for the
// CLI and the HTTP server.
type Dir struct {
	path string
}

// NewDir creates a directory-backed chapter loader.
func NewDir(path string) *Dir {
	return &Dir{path: path}
}

// Load resolves a chapter id to a document on disk.
func (d *Dir) Load(_ context.Context, id string) (*domain.Chapter, error) {
	// Chapter ids come from authored content and from HTTP clients; keep
	// them from escaping the content directory.
	if id == "" || id != filepath.Base(id) || strings.HasPrefix(id, ".") {
		return nil, fmt.Errorf("chapter id %q: %w", id, domain.ErrChapterNotFound)
	}

	for _, ext := range chapterExts {
		path := filepath.Join(d.path, id+ext)
		if _, err := os.Stat(path); err != nil {
			continue
		}
		ch, err := DecodeFile(path)
		if err != nil {
			return nil, fmt.Errorf("chapter %q: %w", id, err)
		}
		return ch, nil
	}
	return nil, fmt.Errorf("chapter id %q: %w", id, domain.ErrChapterNotFound)
}

// List returns the chapter ids available in the directory, sorted.
func (d *Dir) List(context.Context) ([]string, error) {
	entries, err := os.ReadDir(d.path)
	if err != nil {
		return nil, fmt.Errorf("read chapter directory: %w", err)
	}

	seen := make(map[string]bool)
	var ids []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(e.Name()))
		if ext != ".json" && ext != ".yaml" && ext != ".yml" {
			continue
		}
		id := strings.TrimSuffix(e.Name(), filepath.Ext(e.Name()))
		if !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids, nil
}
