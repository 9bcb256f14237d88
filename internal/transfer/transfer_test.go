package transfer

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tagbrowser/internal/errors"
	"tagbrowser/internal/tags"
	"tagbrowser/internal/tree"
)

func setup(t *testing.T, tagFiles map[string]string) (*tree.Scanner, *tree.Cache) {
	t.Helper()
	fsys := afero.NewMemMapFs()
	for _, d := range []string{"$_pub/topic/ch1", "$_pub/topic/ch2", "$_pub/other"} {
		require.NoError(t, fsys.MkdirAll(filepath.Join("/root", d), 0o755))
	}
	require.NoError(t, afero.WriteFile(fsys, "/root/$_pub/file.txt", []byte("x"), 0o644))
	for d, c := range tagFiles {
		require.NoError(t, afero.WriteFile(fsys, filepath.Join("/root", d, "tag.txt"), []byte(c), 0o644))
	}
	sc := tree.NewScanner(fsys, "/root", tags.NewStore(fsys, ""))
	cache, err := sc.ScanAllTags()
	require.NoError(t, err)
	return sc, cache
}

func TestExport(t *testing.T) {
	_, cache := setup(t, map[string]string{
		"$_pub/topic":     "maps, history",
		"$_pub/topic/ch1": "solo",
		"$_pub/other":     "",
	})

	var buf bytes.Buffer
	n, err := Export(&buf, cache)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, "Path,Tags\n$_pub/topic,\"history, maps\"\n$_pub/topic/ch1,solo\n", buf.String())
}

func TestImportOverwrite(t *testing.T) {
	sc, cache := setup(t, map[string]string{"$_pub/topic": "old"})
	im := &Importer{Scanner: sc, Cache: cache, Log: zerolog.Nop()}

	in := "Path,Tags\n$_pub/topic,\"b, a, b\"\n$_pub/topic/ch1,new\n"
	rep, err := im.Import(strings.NewReader(in), ModeOverwrite)
	require.NoError(t, err)
	assert.Equal(t, []string{"$_pub/topic", "$_pub/topic/ch1"}, rep.Applied)
	assert.Empty(t, rep.Skipped)

	got, err := sc.Store.Load("/root/$_pub/topic")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, got)
	assert.Equal(t, []string{"a", "b"}, cache.Get("$_pub/topic"))
	assert.Equal(t, []string{"new"}, cache.Get("$_pub/topic/ch1"))
}

func TestImportMerge(t *testing.T) {
	sc, cache := setup(t, map[string]string{"$_pub/topic": "history, Maps"})
	im := &Importer{Scanner: sc, Cache: cache, Log: zerolog.Nop()}

	rep, err := im.Import(strings.NewReader("Path,Tags\n$_pub/topic,\"maps, history\"\n"), ModeMerge)
	require.NoError(t, err)
	assert.Len(t, rep.Applied, 1)

	got, err := sc.Store.Load("/root/$_pub/topic")
	require.NoError(t, err)
	assert.Equal(t, []string{"Maps", "history", "maps"}, got)
}

func TestImportSkipsBadRows(t *testing.T) {
	sc, cache := setup(t, nil)
	im := &Importer{Scanner: sc, Cache: cache, Log: zerolog.Nop()}

	in := strings.Join([]string{
		"Tags,Path",
		"ok,$_pub/other",
		"onlyonecolumn",
		"x,$_pub/missing",
		"x,../escape",
		"x,$_pub/file.txt",
		"y,$_pub/topic",
	}, "\n") + "\n"

	rep, err := im.Import(strings.NewReader(in), ModeOverwrite)
	require.NoError(t, err)
	assert.Equal(t, []string{"$_pub/other", "$_pub/topic"}, rep.Applied)
	require.Len(t, rep.Skipped, 4)
	assert.Equal(t, 3, rep.Skipped[0].Line)
	assert.ErrorIs(t, rep.Skipped[0], errors.ErrInvalidInput)
	assert.ErrorIs(t, rep.Skipped[1], errors.ErrNotFound)
	assert.ErrorIs(t, rep.Skipped[2], errors.ErrOutsideRoot)
	assert.ErrorIs(t, rep.Skipped[3], errors.ErrNotFound)
}

func TestImportRequiresHeader(t *testing.T) {
	sc, cache := setup(t, nil)
	im := &Importer{Scanner: sc, Cache: cache, Log: zerolog.Nop()}

	_, err := im.Import(strings.NewReader("Folder,Labels\n$_pub/topic,x\n"), ModeOverwrite)
	assert.ErrorIs(t, err, errors.ErrInvalidInput)

	tagged, err := sc.Store.Load("/root/$_pub/topic")
	require.NoError(t, err)
	assert.Empty(t, tagged)

	_, err = im.Import(strings.NewReader(""), ModeMerge)
	assert.ErrorIs(t, err, errors.ErrInvalidInput)
}

func TestExportImportRoundTrip(t *testing.T) {
	_, srcCache := setup(t, map[string]string{
		"$_pub/topic":     "maps, history",
		"$_pub/topic/ch2": "Fiction, fiction",
	})
	var buf bytes.Buffer
	_, err := Export(&buf, srcCache)
	require.NoError(t, err)

	dst, dstCache := setup(t, nil)
	im := &Importer{Scanner: dst, Cache: dstCache, Log: zerolog.Nop()}
	_, err = im.Import(&buf, ModeOverwrite)
	require.NoError(t, err)

	rescanned, err := dst.ScanAllTags()
	require.NoError(t, err)
	assert.Equal(t, srcCache.Entries(), rescanned.Entries())
}

func TestClearAll(t *testing.T) {
	sc, cache := setup(t, map[string]string{"$_pub/topic": "a", "$_pub/topic/ch1": "b"})

	n, err := ClearAll(sc, cache)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, 0, cache.Len())

	rescanned, err := sc.ScanAllTags()
	require.NoError(t, err)
	assert.Equal(t, 0, rescanned.Len())
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

// onFs rebuilds sc over fsys, sharing its root and tag file name.
func onFs(sc *tree.Scanner, fsys afero.Fs) *tree.Scanner {
	return tree.NewScanner(fsys, sc.Root, tags.NewStore(fsys, sc.Store.FileName))
}

func TestImportStopsAtFirstWriteFailure(t *testing.T) {
	in := "Path,Tags\n$_pub/topic,new\n$_pub/topic/ch1,x\n$_pub/topic/ch2,y\n"

	tests := []struct {
		name        string
		fs          func(afero.Fs) afero.Fs
		mode        Mode
		wantApplied []string
		wantLine    string
	}{
		{
			name:     "read-only overwrite",
			fs:       afero.NewReadOnlyFs,
			mode:     ModeOverwrite,
			wantLine: "import line 2",
		},
		{
			name:     "read-only merge",
			fs:       afero.NewReadOnlyFs,
			mode:     ModeMerge,
			wantLine: "import line 2",
		},
		{
			name:        "second write refused",
			fs:          func(base afero.Fs) afero.Fs { return &writeLimitFs{Fs: base, writes: 1} },
			mode:        ModeOverwrite,
			wantApplied: []string{"$_pub/topic"},
			wantLine:    "import line 3",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sc, cache := setup(t, map[string]string{"$_pub/topic": "old"})
			im := &Importer{Scanner: onFs(sc, tt.fs(sc.Fs)), Cache: cache, Log: zerolog.Nop()}

			rep, err := im.Import(strings.NewReader(in), tt.mode)
			require.Error(t, err)
			assert.ErrorIs(t, err, os.ErrPermission)
			assert.ErrorContains(t, err, tt.wantLine)
			require.NotNil(t, rep)
			assert.Equal(t, tt.mode, rep.Mode)
			assert.Equal(t, tt.wantApplied, rep.Applied)
			assert.Empty(t, rep.Skipped)

			onDisk, err := sc.ScanAllTags()
			require.NoError(t, err)
			assert.Equal(t, onDisk.Entries(), cache.Entries())
		})
	}
}

func TestImportAcceptsBackslashPaths(t *testing.T) {
	sc, cache := setup(t, nil)
	im := &Importer{Scanner: sc, Cache: cache, Log: zerolog.Nop()}

	rep, err := im.Import(strings.NewReader("Path,Tags\n$_pub\\topic\\ch1,win\n"), ModeOverwrite)
	require.NoError(t, err)
	assert.Equal(t, []string{"$_pub/topic/ch1"}, rep.Applied)
	assert.Equal(t, []string{"win"}, cache.Get("$_pub/topic/ch1"))
}

func TestClearAllStopsAtFirstWriteFailure(t *testing.T) {
	tests := []struct {
		name        string
		fs          func(afero.Fs) afero.Fs
		wantCleared int
		wantLeft    []string
	}{
		{
			name:     "read-only",
			fs:       afero.NewReadOnlyFs,
			wantLeft: []string{"$_pub/topic", "$_pub/topic/ch1"},
		},
		{
			name:        "second write refused",
			fs:          func(base afero.Fs) afero.Fs { return &writeLimitFs{Fs: base, writes: 1} },
			wantCleared: 1,
			wantLeft:    []string{"$_pub/topic/ch1"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sc, cache := setup(t, map[string]string{"$_pub/topic": "a", "$_pub/topic/ch1": "b"})

			n, err := ClearAll(onFs(sc, tt.fs(sc.Fs)), cache)
			assert.ErrorIs(t, err, os.ErrPermission)
			assert.Equal(t, tt.wantCleared, n)
			assert.Equal(t, tt.wantLeft, cache.Paths())

			onDisk, err := sc.ScanAllTags()
			require.NoError(t, err)
			assert.Equal(t, onDisk.Entries(), cache.Entries())
		})
	}
}
