// Package tags reads and writes the per-folder tag marker file.
//
// A tag file holds one line of tags joined by ", ". Tags are compared
// case-sensitively: "fiction" and "Fiction" are two tags.
package tags

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/afero"
)

// DefaultFileName is the marker file looked for in every folder.
const DefaultFileName = "tag.txt"

// Separator joins tags in the marker file and in CSV exports.
const Separator = ", "

// Parse splits comma separated text into trimmed, non-empty tags.
// Order and duplicates are preserved.
func Parse(text string) []string {
	var out []string
	for _, t := range strings.Split(text, ",") {
		t = strings.TrimSpace(t)
		if t != "" {
			out = append(out, t)
		}
	}
	return out
}

// Normalize returns the deduplicated, sorted form of tags. The input is
// not modified. The result is never nil.
func Normalize(tags []string) []string {
	seen := make(map[string]struct{}, len(tags))
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// Format renders tags the way they are written to disk.
func Format(tags []string) string {
	return strings.Join(Normalize(tags), Separator)
}

// Union merges two tag sets. Union(a, b) equals Union(b, a).
func Union(a, b []string) []string {
	all := make([]string, 0, len(a)+len(b))
	all = append(all, a...)
	all = append(all, b...)
	return Normalize(all)
}

// Contains reports whether set holds tag exactly.
func Contains(set []string, tag string) bool {
	for _, t := range set {
		if t == tag {
			return true
		}
	}
	return false
}

// Store loads and saves tag files on a filesystem.
type Store struct {
	Fs       afero.Fs
	FileName string
}

// NewStore returns a Store using fileName, or DefaultFileName when empty.
func NewStore(fsys afero.Fs, fileName string) *Store {
	if fileName == "" {
		fileName = DefaultFileName
	}
	return &Store{Fs: fsys, FileName: fileName}
}

// Path returns the marker file path for dir.
func (s *Store) Path(dir string) string {
	return filepath.Join(dir, s.FileName)
}

// Load returns the tags stored for dir in file order. A missing marker
// file is an empty set.
func (s *Store) Load(dir string) ([]string, error) {
	data, err := afero.ReadFile(s.Fs, s.Path(dir))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("read tags in %s: %w", dir, err)
	}
	return Parse(string(data)), nil
}

// Save normalizes tags and overwrites the marker file for dir. Saving an
// empty set leaves an empty file behind.
func (s *Store) Save(dir string, tags []string) error {
	if err := afero.WriteFile(s.Fs, s.Path(dir), []byte(Format(tags)), 0o644); err != nil {
		return fmt.Errorf("write tags in %s: %w", dir, err)
	}
	return nil
}
