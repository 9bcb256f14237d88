package tui

import (
	"os"
	"path/filepath"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tagbrowser/internal/config"
	"tagbrowser/internal/search"
	"tagbrowser/internal/stats"
	"tagbrowser/internal/tags"
	"tagbrowser/internal/tree"
)

const testRoot = "/lib"

type fakeOpener struct{ dirs []string }

func (f *fakeOpener) Open(dir string) error {
	f.dirs = append(f.dirs, dir)
	return nil
}

type fixture struct {
	fs      afero.Fs
	opener  *fakeOpener
	clipped []string
}

func newTestModel(t *testing.T) (model, *fixture) {
	t.Helper()
	fsys := afero.NewMemMapFs()
	for _, d := range []string{"$_pub/topicA/ch1", "$_pub/topicA/ch2", "$_pub/topicB", "#_other/t1"} {
		require.NoError(t, fsys.MkdirAll(filepath.Join(testRoot, d), 0o755))
	}
	require.NoError(t, fsys.MkdirAll("/out", 0o755))
	for d, content := range map[string]string{
		"$_pub/topicA":     "maps, history",
		"$_pub/topicA/ch1": "Maps",
	} {
		require.NoError(t, afero.WriteFile(fsys, filepath.Join(testRoot, d, "tag.txt"), []byte(content), 0o644))
	}

	fx := &fixture{fs: fsys, opener: &fakeOpener{}}
	sc := tree.NewScanner(fsys, testRoot, tags.NewStore(fsys, ""))
	m := newModel(Options{
		Scanner: sc,
		Fs:      fsys,
		State:   &config.State{RecentPaths: []string{}, MaxRecent: config.MaxRecent},
		Opener:  fx.opener,
		Clipboard: func(s string) error {
			fx.clipped = append(fx.clipped, s)
			return nil
		},
		Log: zerolog.Nop(),
	})
	require.Equal(t, stateLoading, m.state)

	m, _ = send(t, m, scanCmd(sc)())
	require.Equal(t, stateBrowse, m.state)
	return m, fx
}

func send(t *testing.T, m model, msg tea.Msg) (model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	nm, ok := next.(model)
	require.True(t, ok)
	return nm, cmd
}

// run executes cmd and feeds its message back into the model.
func run(t *testing.T, m model, cmd tea.Cmd) model {
	t.Helper()
	require.NotNil(t, cmd)
	m, _ = send(t, m, cmd())
	return m
}

func keys(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

var (
	enter = tea.KeyMsg{Type: tea.KeyEnter}
	esc   = tea.KeyMsg{Type: tea.KeyEsc}
	tab   = tea.KeyMsg{Type: tea.KeyTab}
)

func TestScanPopulatesColumns(t *testing.T) {
	m, _ := newTestModel(t)

	assert.Equal(t, []string{"#_other", "$_pub"}, m.browse.publishers)
	assert.Empty(t, m.browse.topics)
	assert.Empty(t, m.browse.chapters)
	assert.Equal(t, []string{"Maps", "history", "maps"}, m.browse.tags)
	view := m.View()
	assert.Contains(t, view, "#_other")
	assert.Contains(t, view, "$_pub")
}

func TestSelectPublisherAndTopic(t *testing.T) {
	m, _ := newTestModel(t)

	m, _ = send(t, m, keys("j"))
	m, _ = send(t, m, enter)
	assert.Equal(t, colTopics, m.browse.focus)
	assert.Equal(t, []search.Entry{
		{Label: "topicA", Path: "$_pub/topicA"},
		{Label: "topicB", Path: "$_pub/topicB"},
	}, m.browse.topics)

	assert.Equal(t, "$_pub", m.selection())

	m, _ = send(t, m, enter)
	assert.Equal(t, colChapters, m.browse.focus)
	assert.Equal(t, "$_pub › topicA", m.selection())
	assert.Contains(t, m.View(), "$_pub › topicA")
	assert.Equal(t, []search.Entry{
		{Label: "ch1 (topicA)", Path: "$_pub/topicA/ch1"},
		{Label: "ch2 (topicA)", Path: "$_pub/topicA/ch2"},
	}, m.browse.chapters)
}

func TestColumnFilter(t *testing.T) {
	m, _ := newTestModel(t)
	m, _ = send(t, m, keys("j"))
	m, _ = send(t, m, enter)

	m, _ = send(t, m, keys("f"))
	require.Equal(t, inputFilter, m.browse.mode)
	m, _ = send(t, m, keys("b"))
	assert.Equal(t, []search.Entry{{Label: "topicB", Path: "$_pub/topicB"}}, m.browse.topics)
	assert.Equal(t, []string{"#_other", "$_pub"}, m.browse.publishers)

	m, _ = send(t, m, esc)
	assert.Equal(t, inputNone, m.browse.mode)
}

func TestGlobalSearch(t *testing.T) {
	m, _ := newTestModel(t)

	m, _ = send(t, m, keys("/"))
	require.Equal(t, inputGlobal, m.browse.mode)
	m, _ = send(t, m, keys("MAP"))

	assert.Empty(t, m.browse.publishers)
	assert.Equal(t, []search.Entry{{Label: "topicA", Path: "$_pub/topicA"}}, m.browse.topics)
	assert.Equal(t, []search.Entry{{Label: "ch1 (topicA)", Path: "$_pub/topicA/ch1"}}, m.browse.chapters)
	assert.Equal(t, []string{"Maps", "maps"}, m.browse.tags)

	m, _ = send(t, m, enter)
	assert.Equal(t, "MAP", m.browse.query)

	// esc outside the input restores the unfiltered lists.
	m, _ = send(t, m, esc)
	assert.Empty(t, m.browse.query)
	assert.Equal(t, []string{"#_other", "$_pub"}, m.browse.publishers)
	assert.Len(t, m.browse.tags, 3)
}

func TestTagClick(t *testing.T) {
	m, _ := newTestModel(t)
	for i := 0; i < 3; i++ {
		m, _ = send(t, m, keys("l"))
	}
	require.Equal(t, colTags, m.browse.focus)

	m, _ = send(t, m, enter)
	assert.Equal(t, "Maps", m.browse.tag)
	assert.Equal(t, []search.Entry{{Label: "topicA ($_pub)", Path: "$_pub/topicA"}}, m.browse.topics)
	assert.Equal(t, []search.Entry{{Label: "($_pub) (topicA) ch1", Path: "$_pub/topicA/ch1"}}, m.browse.chapters)
}

func TestEditTags(t *testing.T) {
	m, fx := newTestModel(t)
	m, _ = send(t, m, keys("j"))
	m, _ = send(t, m, enter)

	m, _ = send(t, m, keys("e"))
	require.Equal(t, stateEdit, m.state)
	assert.Equal(t, "$_pub/topicA", m.edit.rel)
	assert.Equal(t, "history, maps", m.edit.input.Value())

	m.edit.input.SetValue("drama, Drama, drama")
	m, cmd := send(t, m, enter)
	assert.Equal(t, stateBrowse, m.state)
	m = run(t, m, cmd)

	assert.Equal(t, []string{"Drama", "drama"}, m.session.Cache().Get("$_pub/topicA"))
	data, err := afero.ReadFile(fx.fs, filepath.Join(testRoot, "$_pub/topicA/tag.txt"))
	require.NoError(t, err)
	assert.Equal(t, "Drama, drama", string(data))
	assert.Contains(t, m.browse.tags, "Drama")
	assert.NotContains(t, m.browse.tags, "history")
}

func TestEditCancel(t *testing.T) {
	m, _ := newTestModel(t)
	m, _ = send(t, m, keys("e"))
	require.Equal(t, stateEdit, m.state)

	m, cmd := send(t, m, esc)
	assert.Equal(t, stateBrowse, m.state)
	assert.Nil(t, cmd)
}

func TestExportPrompt(t *testing.T) {
	m, fx := newTestModel(t)

	m, _ = send(t, m, keys("x"))
	require.Equal(t, statePrompt, m.state)
	assert.Equal(t, DefaultExportName, m.prompt.input.Value())

	m.prompt.input.SetValue("/out/tags.csv")
	m, cmd := send(t, m, enter)
	m = run(t, m, cmd)

	data, err := afero.ReadFile(fx.fs, "/out/tags.csv")
	require.NoError(t, err)
	assert.Equal(t, "Path,Tags\n$_pub/topicA,\"history, maps\"\n$_pub/topicA/ch1,Maps\n", string(data))
	assert.Equal(t, "/out/tags.csv", m.saved.LastExportPath)
	assert.Equal(t, []string{"/out/tags.csv"}, m.saved.RecentPaths)
	assert.False(t, m.statusErr)
}

func TestImportMergePrompt(t *testing.T) {
	m, fx := newTestModel(t)
	require.NoError(t, afero.WriteFile(fx.fs, "/out/in.csv",
		[]byte("Path,Tags\n$_pub/topicB,new\n$_pub/topicA,extra\n$_pub/missing,x\n"), 0o644))

	m, _ = send(t, m, keys("m"))
	require.Equal(t, statePrompt, m.state)
	m.prompt.input.SetValue("/out/in.csv")
	m, cmd := send(t, m, enter)
	m = run(t, m, cmd)

	cache := m.session.Cache()
	assert.Equal(t, []string{"new"}, cache.Get("$_pub/topicB"))
	assert.Equal(t, []string{"extra", "history", "maps"}, cache.Get("$_pub/topicA"))
	assert.Contains(t, m.status, "skipped 1")
	assert.Equal(t, "/out/in.csv", m.saved.LastImportPath)
	assert.Contains(t, m.browse.tags, "new")
}

func TestImportRejectsMissingFile(t *testing.T) {
	m, _ := newTestModel(t)

	m, _ = send(t, m, keys("i"))
	m.prompt.input.SetValue("/out/none.csv")
	m, cmd := send(t, m, enter)

	assert.Nil(t, cmd)
	assert.Equal(t, statePrompt, m.state)
	assert.Equal(t, "File not found.", m.prompt.err)
}

func TestClearAll(t *testing.T) {
	m, fx := newTestModel(t)

	m, _ = send(t, m, keys("C"))
	require.Equal(t, stateConfirm, m.state)
	assert.Equal(t, 2, m.confirm.cleared)

	m, cmd := send(t, m, keys("y"))
	m = run(t, m, cmd)

	assert.Equal(t, 0, m.session.Cache().Len())
	assert.Empty(t, m.browse.tags)
	data, err := afero.ReadFile(fx.fs, filepath.Join(testRoot, "$_pub/topicA/tag.txt"))
	require.NoError(t, err)
	assert.Empty(t, data)
}

func TestClearAllCancelled(t *testing.T) {
	m, _ := newTestModel(t)

	m, _ = send(t, m, keys("C"))
	m, cmd := send(t, m, keys("n"))

	assert.Nil(t, cmd)
	assert.Equal(t, stateBrowse, m.state)
	assert.Equal(t, 2, m.session.Cache().Len())
}

func TestOpenAndCopy(t *testing.T) {
	m, fx := newTestModel(t)

	m, cmd := send(t, m, keys("o"))
	m = run(t, m, cmd)
	assert.Equal(t, []string{filepath.Join(testRoot, "#_other")}, fx.opener.dirs)

	m, cmd = send(t, m, keys("y"))
	m = run(t, m, cmd)
	assert.Equal(t, []string{filepath.Join(testRoot, "#_other")}, fx.clipped)
	assert.False(t, m.statusErr)
}

func TestHelpReturnsToPreviousState(t *testing.T) {
	m, _ := newTestModel(t)

	m, _ = send(t, m, keys("?"))
	require.Equal(t, stateHelp, m.state)
	assert.Contains(t, m.View(), "Keyboard Shortcuts")

	m, _ = send(t, m, keys("z"))
	assert.Equal(t, stateBrowse, m.state)
}

func TestStatsTableFilterAndExport(t *testing.T) {
	m, fx := newTestModel(t)

	m = run(t, m, statsCmd(m.scanner, m.session.Cache().Clone()))
	require.Equal(t, stateStats, m.state)
	require.Len(t, m.stats.tabs, 9)
	assert.Equal(t, 2, m.stats.snapshot.TotalPublishers)

	m, _ = send(t, m, tab)
	table := m.stats.activeTable()
	require.NotNil(t, table)
	assert.Equal(t, "Tag", table.KeyTitle)
	assert.Len(t, m.stats.grid.Rows(), 3)

	m, _ = send(t, m, keys("f"))
	require.True(t, m.stats.filtering)
	m, _ = send(t, m, keys("map"))
	m, _ = send(t, m, enter)
	assert.False(t, m.stats.filtering)
	assert.Len(t, m.stats.grid.Rows(), 2)

	m, _ = send(t, m, keys("x"))
	require.Equal(t, statePrompt, m.state)
	assert.Equal(t, "tag_count.csv", m.prompt.input.Value())

	m.prompt.input.SetValue("/out/tags_table.csv")
	m, cmd := send(t, m, enter)
	assert.Equal(t, stateStats, m.state)
	m = run(t, m, cmd)

	data, err := afero.ReadFile(fx.fs, "/out/tags_table.csv")
	require.NoError(t, err)
	assert.Equal(t, "Tag,Count\nMaps,1\nmaps,1\n", string(data))
}

func TestStatsTableSort(t *testing.T) {
	m, _ := newTestModel(t)
	m = run(t, m, statsCmd(m.scanner, m.session.Cache().Clone()))
	m, _ = send(t, m, tab)
	m, _ = send(t, m, tab)
	table := m.stats.activeTable()
	require.Equal(t, "Publisher", table.KeyTitle)

	m, _ = send(t, m, keys("S"))
	col, desc := table.Sorting()
	assert.Equal(t, stats.ColumnValue, col)
	assert.True(t, desc)
	assert.Equal(t, "$_pub", m.stats.grid.Rows()[0][0])

	m, _ = send(t, m, keys("R"))
	_, desc = table.Sorting()
	assert.False(t, desc)
	assert.Equal(t, "#_other", m.stats.grid.Rows()[0][0])
}

func TestStatsPieDrillDown(t *testing.T) {
	m, _ := newTestModel(t)
	snap := stats.Snapshot{TagUsage: map[string]int{"a": 5, "b": 4, "c": 3, "d": 2, "e": 1}}
	m.stats = newStatsModel(snap, 2, 100, 30)
	m.state = stateStats
	m.stats.active = 7

	views := m.stats.tabs[7].views
	require.Len(t, views.Top().Items, 3)

	m, _ = send(t, m, keys("j"))
	m, _ = send(t, m, keys("j"))
	assert.Equal(t, 2, m.stats.cursor)
	assert.Contains(t, m.View(), "enter: breakdown")

	m, _ = send(t, m, enter)
	assert.Equal(t, 2, views.Depth())
	assert.Equal(t, "Others Breakdown", views.Top().Title)
	assert.Equal(t, 0, m.stats.cursor)

	m, _ = send(t, m, esc)
	assert.Equal(t, 1, views.Depth())
	assert.Equal(t, stateStats, m.state)

	m, _ = send(t, m, esc)
	assert.Equal(t, stateBrowse, m.state)
}

func TestPathCompletions(t *testing.T) {
	fsys := afero.NewMemMapFs()
	require.NoError(t, fsys.MkdirAll("/data/sub", 0o755))
	require.NoError(t, fsys.MkdirAll("/data/.hidden", 0o755))
	require.NoError(t, afero.WriteFile(fsys, "/data/a.csv", nil, 0o644))
	require.NoError(t, afero.WriteFile(fsys, "/data/Sample.CSV", nil, 0o644))
	require.NoError(t, afero.WriteFile(fsys, "/data/notes.txt", nil, 0o644))

	tests := []struct {
		name string
		path string
		want []string
	}{
		{"existing dir lists contents", "/data", []string{"/data/Sample.CSV", "/data/a.csv", "/data/sub"}},
		{"prefix ignores case", "/data/s", []string{"/data/Sample.CSV", "/data/sub"}},
		{"no match", "/data/zzz", nil},
		{"missing parent", "/nowhere/x", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, pathCompletions(fsys, tt.path))
		})
	}
}

func TestValidatePath(t *testing.T) {
	fsys := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fsys, "/data/a.csv", nil, 0o644))

	assert.Equal(t, pathUnknown, validatePath(fsys, "  "))
	assert.Equal(t, pathValid, validatePath(fsys, "/data/a.csv"))
	assert.Equal(t, pathPartial, validatePath(fsys, "/data/new.csv"))
	assert.Equal(t, pathInvalid, validatePath(fsys, "/missing/new.csv"))
}

// writeLimitFs lets a fixed number of files be opened for writing and
// refuses the rest.
type writeLimitFs struct {
	afero.Fs
	writes int
}

func (w *writeLimitFs) OpenFile(name string, flag int, perm os.FileMode) (afero.File, error) {
	if flag&(os.O_WRONLY|os.O_RDWR) != 0 {
		if w.writes == 0 {
			return nil, &os.PathError{Op: "open", Path: name, Err: os.ErrPermission}
		}
		w.writes--
	}
	return w.Fs.OpenFile(name, flag, perm)
}

func (w *writeLimitFs) Create(name string) (afero.File, error) {
	return w.OpenFile(name, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0o666)
}

// withTagFs points the model's tag writes at fsys, leaving the CSV prompts
// on the fixture filesystem.
func withTagFs(m model, fsys afero.Fs) model {
	m.scanner = tree.NewScanner(fsys, testRoot, tags.NewStore(fsys, ""))
	return m
}

// assertCacheOnDisk checks the session cache against a fresh scan.
func assertCacheOnDisk(t *testing.T, m model, fx *fixture) {
	t.Helper()
	onDisk, err := tree.NewScanner(fx.fs, testRoot, tags.NewStore(fx.fs, "")).ScanAllTags()
	require.NoError(t, err)
	assert.Equal(t, onDisk.Entries(), m.session.Cache().Entries())
}

func TestEditSaveFailure(t *testing.T) {
	m, fx := newTestModel(t)
	m = withTagFs(m, afero.NewReadOnlyFs(fx.fs))
	m, _ = send(t, m, keys("j"))
	m, _ = send(t, m, enter)
	m, _ = send(t, m, keys("e"))
	require.Equal(t, "$_pub/topicA", m.edit.rel)

	m.edit.input.SetValue("drama")
	m, cmd := send(t, m, enter)
	m = run(t, m, cmd)

	assert.Equal(t, stateBrowse, m.state)
	assert.True(t, m.statusErr)
	assert.Contains(t, m.status, "write tags")
	assert.Equal(t, []string{"history", "maps"}, m.session.Cache().Get("$_pub/topicA"))
	assertCacheOnDisk(t, m, fx)
}

func TestImportWriteFailure(t *testing.T) {
	tests := []struct {
		name       string
		fs         func(afero.Fs) afero.Fs
		wantStatus string
		wantTopicB []string
	}{
		{
			name:       "read-only",
			fs:         afero.NewReadOnlyFs,
			wantStatus: "import /out/in.csv: import line 2",
		},
		{
			name:       "second write refused",
			fs:         func(base afero.Fs) afero.Fs { return &writeLimitFs{Fs: base, writes: 1} },
			wantStatus: "stopped after 1 folders",
			wantTopicB: []string{"new"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, fx := newTestModel(t)
			require.NoError(t, afero.WriteFile(fx.fs, "/out/in.csv",
				[]byte("Path,Tags\n$_pub/topicB,new\n$_pub/topicA,extra\n"), 0o644))
			m = withTagFs(m, tt.fs(fx.fs))

			m, _ = send(t, m, keys("m"))
			m.prompt.input.SetValue("/out/in.csv")
			m, cmd := send(t, m, enter)
			m = run(t, m, cmd)

			assert.True(t, m.statusErr)
			assert.Contains(t, m.status, tt.wantStatus)
			assert.Empty(t, m.saved.LastImportPath)
			cache := m.session.Cache()
			assert.Equal(t, tt.wantTopicB, cache.Get("$_pub/topicB"))
			assert.Equal(t, []string{"history", "maps"}, cache.Get("$_pub/topicA"))
			assertCacheOnDisk(t, m, fx)
		})
	}
}

func TestClearAllWriteFailure(t *testing.T) {
	tests := []struct {
		name     string
		fs       func(afero.Fs) afero.Fs
		wantLeft []string
	}{
		{
			name:     "read-only",
			fs:       afero.NewReadOnlyFs,
			wantLeft: []string{"$_pub/topicA", "$_pub/topicA/ch1"},
		},
		{
			name:     "second write refused",
			fs:       func(base afero.Fs) afero.Fs { return &writeLimitFs{Fs: base, writes: 1} },
			wantLeft: []string{"$_pub/topicA/ch1"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, fx := newTestModel(t)
			m = withTagFs(m, tt.fs(fx.fs))

			m, _ = send(t, m, keys("C"))
			m, cmd := send(t, m, keys("y"))
			m = run(t, m, cmd)

			assert.True(t, m.statusErr)
			assert.Contains(t, m.status, "before failing")
			assert.Equal(t, tt.wantLeft, m.session.Cache().Paths())
			assertCacheOnDisk(t, m, fx)
		})
	}
}
