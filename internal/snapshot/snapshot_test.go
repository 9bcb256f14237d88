package snapshot

import (
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tagbrowser/internal/tree"
)

func TestInitSchema(t *testing.T) {
	db, err := sql.Open("sqlite", filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	defer db.Close()

	require.NoError(t, InitSchema(db))

	for _, table := range []string{"folders", "tags"} {
		var count int
		err := db.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&count)
		require.NoError(t, err)
		assert.Equal(t, 1, count, "table %s", table)
	}
}

func TestWrite(t *testing.T) {
	c := tree.NewCache()
	c.AddFolder("$_pub")
	c.AddFolder("$_pub/topic")
	c.AddFolder("$_pub/topic/ch1")
	c.Set("$_pub/topic", []string{"maps", "history"})
	c.Set("$_pub/topic/ch1", []string{"maps"})

	dbPath := filepath.Join(t.TempDir(), "tags.db")
	res, err := Write(dbPath, c)
	require.NoError(t, err)
	assert.Equal(t, Result{Folders: 3, Tags: 3}, res)

	// a second write replaces rather than appends
	c.Set("$_pub/topic/ch1", nil)
	res, err = Write(dbPath, c)
	require.NoError(t, err)
	assert.Equal(t, Result{Folders: 3, Tags: 2}, res)

	db, err := sql.Open("sqlite", dbPath)
	require.NoError(t, err)
	defer db.Close()

	var role string
	var depth int
	require.NoError(t, db.QueryRow("SELECT role, depth FROM folders WHERE path = ?", "$_pub/topic/ch1").Scan(&role, &depth))
	assert.Equal(t, "chapter", role)
	assert.Equal(t, 3, depth)

	var n int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM tags WHERE tag = 'maps'").Scan(&n))
	assert.Equal(t, 1, n)
}
