// Package snapshot writes the folder tree and its tags to a SQLite file so
// they can be queried with ordinary SQL tools.
package snapshot

import (
	"database/sql"
	"fmt"
	"path"
	"time"

	_ "modernc.org/sqlite"

	"tagbrowser/internal/tree"
)

// Result counts the rows written.
type Result struct {
	Folders int
	Tags    int
}

// Write replaces the contents of the database at dbPath with the folders
// and tags in c.
func Write(dbPath string, c *tree.Cache) (Result, error) {
	var res Result

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return res, err
	}
	defer db.Close()

	if err := InitSchema(db); err != nil {
		return res, err
	}
	if _, err := db.Exec(`PRAGMA journal_mode=WAL; PRAGMA synchronous=NORMAL;`); err != nil {
		return res, err
	}

	tx, err := db.Begin()
	if err != nil {
		return res, err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec(`DELETE FROM tags; DELETE FROM folders;`); err != nil {
		return res, err
	}

	folderStmt, err := tx.Prepare(`
		INSERT INTO folders(path, parent_path, name, role, depth, scanned_utc)
		VALUES(?, ?, ?, ?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET scanned_utc=excluded.scanned_utc
	`)
	if err != nil {
		return res, err
	}
	defer folderStmt.Close()

	tagStmt, err := tx.Prepare(`INSERT OR IGNORE INTO tags(path, tag) VALUES(?, ?)`)
	if err != nil {
		return res, err
	}
	defer tagStmt.Close()

	now := time.Now().UTC().Format(time.RFC3339)
	folders := map[string]struct{}{}
	for _, rel := range c.Folders() {
		folders[rel] = struct{}{}
	}
	for _, rel := range c.Paths() {
		folders[rel] = struct{}{}
	}
	for rel := range folders {
		parent := path.Dir(rel)
		if rel == "." {
			parent = ""
		}
		if _, err := folderStmt.Exec(rel, parent, tree.Name(rel), tree.RoleOf(rel).String(), tree.Depth(rel), now); err != nil {
			return res, fmt.Errorf("insert folder %s: %w", rel, err)
		}
		res.Folders++
	}
	for _, rel := range c.Paths() {
		for _, tag := range c.Get(rel) {
			if _, err := tagStmt.Exec(rel, tag); err != nil {
				return res, fmt.Errorf("insert tag %s on %s: %w", tag, rel, err)
			}
			res.Tags++
		}
	}

	if err := tx.Commit(); err != nil {
		return res, err
	}

	_, _ = db.Exec(`CREATE INDEX IF NOT EXISTS idx_tags_tag ON tags(tag);`)
	_, _ = db.Exec(`CREATE INDEX IF NOT EXISTS idx_folders_role ON folders(role);`)
	return res, nil
}

// InitSchema creates the snapshot tables if they do not exist.
func InitSchema(db *sql.DB) error {
	ddl := `
CREATE TABLE IF NOT EXISTS folders (
	path        TEXT PRIMARY KEY,
	parent_path TEXT,
	name        TEXT NOT NULL,
	role        TEXT NOT NULL,
	depth       INTEGER NOT NULL,
	scanned_utc TEXT
);
CREATE TABLE IF NOT EXISTS tags (
	path TEXT NOT NULL REFERENCES folders(path),
	tag  TEXT NOT NULL,
	PRIMARY KEY (path, tag)
);
`
	_, err := db.Exec(ddl)
	return err
}
