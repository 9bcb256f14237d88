package config

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/spf13/afero"

	"tagbrowser/internal/errors"
)

// MaxRecent is the number of recent paths kept; the TUI binds them to the
// keys 1-9.
const MaxRecent = 9

// State is remembered between runs: the CSV files used for import and
// export most recently.
type State struct {
	RecentPaths    []string `json:"recent_paths"`
	MaxRecent      int      `json:"max_recent"`
	LastExportPath string   `json:"last_export_path"`
	LastImportPath string   `json:"last_import_path"`
}

// DefaultStatePath is ~/.tagbrowser_state.json, or empty when there is no
// home directory.
func DefaultStatePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".tagbrowser_state.json")
}

// LoadState reads the state file. Missing or corrupt files yield an empty
// state.
func LoadState(fsys afero.Fs, path string) *State {
	st := &State{RecentPaths: []string{}, MaxRecent: MaxRecent}
	if path == "" {
		return st
	}
	data, err := afero.ReadFile(fsys, path)
	if err != nil {
		return st
	}
	if err := json.Unmarshal(data, st); err != nil {
		return &State{RecentPaths: []string{}, MaxRecent: MaxRecent}
	}
	if st.MaxRecent <= 0 || st.MaxRecent > MaxRecent {
		st.MaxRecent = MaxRecent
	}
	return st
}

// Save writes the state file.
func (s *State) Save(fsys afero.Fs, path string) error {
	if path == "" {
		return errors.New("unable to determine state path")
	}
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}
	return afero.WriteFile(fsys, path, data, 0o644)
}

// Remember moves path to the front of the recent list.
func (s *State) Remember(path string) {
	s.RecentPaths = AddToRecentPaths(s.RecentPaths, path, s.MaxRecent)
}

// AddToRecentPaths puts newPath first, drops its older duplicate and keeps
// at most maxRecent entries.
func AddToRecentPaths(paths []string, newPath string, maxRecent int) []string {
	if newPath == "" {
		return paths
	}
	filtered := make([]string, 0, len(paths))
	for _, p := range paths {
		if p != newPath {
			filtered = append(filtered, p)
		}
	}
	result := append([]string{newPath}, filtered...)
	if len(result) > maxRecent {
		result = result[:maxRecent]
	}
	return result
}
