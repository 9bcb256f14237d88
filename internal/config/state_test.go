package config

import (
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddToRecentPaths(t *testing.T) {
	tests := []struct {
		name      string
		paths     []string
		newPath   string
		maxRecent int
		want      []string
	}{
		{"empty list", []string{}, "/a.csv", 5, []string{"/a.csv"}},
		{"prepend", []string{"/a.csv"}, "/b.csv", 5, []string{"/b.csv", "/a.csv"}},
		{"move duplicate to front", []string{"/a.csv", "/b.csv", "/c.csv"}, "/b.csv", 5, []string{"/b.csv", "/a.csv", "/c.csv"}},
		{"cap length", []string{"/a.csv", "/b.csv", "/c.csv"}, "/d.csv", 3, []string{"/d.csv", "/a.csv", "/b.csv"}},
		{"ignore empty", []string{"/a.csv"}, "", 3, []string{"/a.csv"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, AddToRecentPaths(tt.paths, tt.newPath, tt.maxRecent))
		})
	}
}

func TestStateRoundTrip(t *testing.T) {
	fsys := afero.NewMemMapFs()
	path := "/home/user/.tagbrowser_state.json"

	st := LoadState(fsys, path)
	assert.Empty(t, st.RecentPaths)
	assert.Equal(t, MaxRecent, st.MaxRecent)

	st.Remember("/tmp/export.csv")
	st.Remember("/tmp/import.csv")
	st.LastImportPath = "/tmp/import.csv"
	require.NoError(t, st.Save(fsys, path))

	loaded := LoadState(fsys, path)
	assert.Equal(t, []string{"/tmp/import.csv", "/tmp/export.csv"}, loaded.RecentPaths)
	assert.Equal(t, "/tmp/import.csv", loaded.LastImportPath)
}

func TestLoadStateCorrupt(t *testing.T) {
	fsys := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fsys, "/state.json", []byte("{not json"), 0o644))

	st := LoadState(fsys, "/state.json")
	assert.Empty(t, st.RecentPaths)
	assert.Equal(t, MaxRecent, st.MaxRecent)
}
