package tui

import (
	"bytes"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"
	"github.com/spf13/afero"

	"tagbrowser/internal/search"
	"tagbrowser/internal/stats"
	"tagbrowser/internal/tags"
	"tagbrowser/internal/transfer"
	"tagbrowser/internal/tree"
)

// Commands work on copies of the cache and hand the result back to Update,
// which is the only place the live cache and session change.

type scanDoneMsg struct {
	session *search.Session
	err     error
}

type tagsSavedMsg struct {
	rel  string
	tags []string
	err  error
}

type exportDoneMsg struct {
	path string
	rows int
	err  error
}

type importDoneMsg struct {
	path   string
	report *transfer.Report
	cache  *tree.Cache
	err    error
}

type clearDoneMsg struct {
	cleared int
	cache   *tree.Cache
	err     error
}

type statsLoadedMsg struct {
	snapshot stats.Snapshot
	err      error
}

type fileWrittenMsg struct {
	path string
	err  error
}

type actionDoneMsg struct {
	text string
	err  error
}

func scanCmd(sc *tree.Scanner) tea.Cmd {
	return func() tea.Msg {
		cache, err := sc.ScanAllTags()
		if err != nil {
			return scanDoneMsg{err: err}
		}
		sess, err := search.NewSession(sc, cache)
		return scanDoneMsg{session: sess, err: err}
	}
}

func saveTagsCmd(sc *tree.Scanner, rel string, set []string) tea.Cmd {
	set = tags.Normalize(set)
	return func() tea.Msg {
		err := sc.Store.Save(sc.Abs(rel), set)
		return tagsSavedMsg{rel: rel, tags: set, err: err}
	}
}

func exportCmd(fsys afero.Fs, path string, cache *tree.Cache) tea.Cmd {
	return func() tea.Msg {
		var buf bytes.Buffer
		n, err := transfer.Export(&buf, cache)
		if err == nil {
			err = afero.WriteFile(fsys, path, buf.Bytes(), 0o644)
		}
		return exportDoneMsg{path: path, rows: n, err: err}
	}
}

func importCmd(fsys afero.Fs, log zerolog.Logger, sc *tree.Scanner, cache *tree.Cache, path string, mode transfer.Mode) tea.Cmd {
	return func() tea.Msg {
		f, err := fsys.Open(path)
		if err != nil {
			return importDoneMsg{path: path, err: err}
		}
		defer f.Close()
		im := &transfer.Importer{Scanner: sc, Cache: cache, Log: log}
		rep, err := im.Import(f, mode)
		return importDoneMsg{path: path, report: rep, cache: cache, err: err}
	}
}

func clearCmd(sc *tree.Scanner, cache *tree.Cache) tea.Cmd {
	return func() tea.Msg {
		n, err := transfer.ClearAll(sc, cache)
		return clearDoneMsg{cleared: n, cache: cache, err: err}
	}
}

func statsCmd(sc *tree.Scanner, cache *tree.Cache) tea.Cmd {
	return func() tea.Msg {
		h, err := sc.Hierarchy()
		if err != nil {
			return statsLoadedMsg{err: err}
		}
		return statsLoadedMsg{snapshot: stats.Compute(h, cache)}
	}
}

func writeFileCmd(fsys afero.Fs, path string, data []byte) tea.Cmd {
	return func() tea.Msg {
		return fileWrittenMsg{path: path, err: afero.WriteFile(fsys, path, data, 0o644)}
	}
}

func openCmd(o Opener, dir string) tea.Cmd {
	return func() tea.Msg {
		if o == nil {
			return actionDoneMsg{err: fmt.Errorf("no file manager configured")}
		}
		return actionDoneMsg{text: "Opened " + dir, err: o.Open(dir)}
	}
}

func copyCmd(clip func(string) error, text string) tea.Cmd {
	return func() tea.Msg {
		if err := clip(text); err != nil {
			return actionDoneMsg{err: fmt.Errorf("copy to clipboard: %w", err)}
		}
		return actionDoneMsg{text: "Copied " + text}
	}
}
