package indexer

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Source is one document to index.
type Source interface {
	ID() string
	Open() (io.ReadCloser, error)
}

type fileSource struct {
	id   string
	path string
}

func (f fileSource) ID() string                   { return f.id }
func (f fileSource) Open() (io.ReadCloser, error) { return os.Open(f.path) }

type textSource struct {
	id   string
	text string
}

func (s textSource) ID() string { return s.id }
func (s textSource) Open() (io.ReadCloser, error) {
	return io.NopCloser(strings.NewReader(s.text)), nil
}

// TextSource wraps an in-memory document.
func TextSource(id, text string) Source {
	return textSource{id: id, text: text}
}

// FileSource wraps a file on disk under the given document ID.
func FileSource(id, path string) Source {
	return fileSource{id: id, path: path}
}

// DirSources lists the regular files in dir whose extension is one of exts,
// sorted by name. The document ID is the file name without its extension.
// It also returns how many entries were ignored.
func DirSources(dir string, exts []string) ([]Source, int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, 0, fmt.Errorf("reading input directory %s: %w", dir, err)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

	var (
		sources []Source
		skipped int
	)
	for _, entry := range entries {
		name := entry.Name()
		ext := filepath.Ext(name)
		if !entry.Type().IsRegular() || !hasExt(exts, ext) || name == ext {
			skipped++
			continue
		}
		sources = append(sources, FileSource(strings.TrimSuffix(name, ext), filepath.Join(dir, name)))
	}
	return sources, skipped, nil
}

func hasExt(exts []string, ext string) bool {
	for _, e := range exts {
		if e == ext {
			return true
		}
	}
	return false
}
