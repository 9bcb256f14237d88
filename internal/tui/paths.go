package tui

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/afero"
)

type pathStatus int

const (
	pathUnknown pathStatus = iota
	pathValid              // exists
	pathPartial            // parent directory exists
	pathInvalid
)

// pathCompletions lists the directories and CSV files matching path. An
// existing directory lists its contents; otherwise the last element is a
// case-insensitive prefix within its parent.
func pathCompletions(fsys afero.Fs, path string) []string {
	path = strings.TrimSpace(path)
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil
		}
		path = home
	}

	dir, prefix := path, ""
	if ok, err := afero.IsDir(fsys, path); err != nil || !ok {
		dir, prefix = filepath.Dir(path), filepath.Base(path)
	}
	entries, err := afero.ReadDir(fsys, dir)
	if err != nil {
		return nil
	}

	var completions []string
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasPrefix(name, ".") {
			continue
		}
		if !entry.IsDir() && !strings.EqualFold(filepath.Ext(name), ".csv") {
			continue
		}
		if prefix != "" && !strings.HasPrefix(strings.ToLower(name), strings.ToLower(prefix)) {
			continue
		}
		completions = append(completions, filepath.Join(dir, name))
	}
	sort.Strings(completions)
	return completions
}

func validatePath(fsys afero.Fs, path string) pathStatus {
	path = strings.TrimSpace(path)
	if path == "" {
		return pathUnknown
	}
	if ok, _ := afero.Exists(fsys, path); ok {
		return pathValid
	}
	if ok, _ := afero.DirExists(fsys, filepath.Dir(path)); ok {
		return pathPartial
	}
	return pathInvalid
}

// shortPath keeps the last two elements of a long path.
func shortPath(p string) string {
	parts := strings.Split(filepath.Clean(p), string(filepath.Separator))
	if len(parts) > 2 {
		return "..." + string(filepath.Separator) + strings.Join(parts[len(parts)-2:], string(filepath.Separator))
	}
	return p
}
