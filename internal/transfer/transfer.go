// Package transfer moves tags between the folder tree and CSV files and
// clears them in bulk.
//
// Batch operations write one tag file at a time. A failure part way leaves
// the folders already written updated and the rest untouched.
package transfer

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/rs/zerolog"

	"tagbrowser/internal/errors"
	"tagbrowser/internal/tags"
	"tagbrowser/internal/tree"
)

// CSV column names.
const (
	ColumnPath = "Path"
	ColumnTags = "Tags"
)

// Mode selects how imported tags combine with the tags already on disk.
type Mode int

const (
	// ModeOverwrite replaces a folder's tags with the imported ones.
	ModeOverwrite Mode = iota
	// ModeMerge keeps existing tags and adds the imported ones.
	ModeMerge
)

func (m Mode) String() string {
	if m == ModeMerge {
		return "merge"
	}
	return "overwrite"
}

// Export writes one row per tagged folder, sorted by path.
func Export(w io.Writer, c *tree.Cache) (int, error) {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{ColumnPath, ColumnTags}); err != nil {
		return 0, err
	}
	n := 0
	for _, rel := range c.Paths() {
		if err := cw.Write([]string{rel, strings.Join(c.Get(rel), tags.Separator)}); err != nil {
			return n, err
		}
		n++
	}
	cw.Flush()
	return n, cw.Error()
}

// Report summarizes an import.
type Report struct {
	Mode    Mode
	Applied []string
	Skipped []*errors.RowError
}

// Importer applies CSV rows to the folders of a scanner and keeps a cache
// in step.
type Importer struct {
	Scanner *tree.Scanner
	Cache   *tree.Cache
	Log     zerolog.Logger
}

// Import reads a Path,Tags CSV and writes the tags of every row whose path
// is an existing folder under the root. Bad rows are skipped and listed in
// the report. A missing header column aborts before anything is written; a
// failed write stops the import.
func (im *Importer) Import(r io.Reader, mode Mode) (*Report, error) {
	rep := &Report{Mode: mode}

	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		if err == io.EOF {
			return rep, fmt.Errorf("import: empty file: %w", errors.ErrInvalidInput)
		}
		return rep, fmt.Errorf("import: read header: %w", err)
	}
	pathIdx, tagsIdx := -1, -1
	for i, h := range header {
		switch strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")) {
		case ColumnPath:
			pathIdx = i
		case ColumnTags:
			tagsIdx = i
		}
	}
	if pathIdx < 0 || tagsIdx < 0 {
		return rep, fmt.Errorf("import: header must contain %s and %s columns: %w", ColumnPath, ColumnTags, errors.ErrInvalidInput)
	}

	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			var pe *csv.ParseError
			if errors.As(err, &pe) {
				im.skip(rep, &errors.RowError{Line: pe.Line, Reason: pe.Err.Error(), Err: errors.ErrInvalidInput})
				continue
			}
			return rep, fmt.Errorf("import: %w", err)
		}
		line, _ := cr.FieldPos(0)

		if pathIdx >= len(record) || tagsIdx >= len(record) {
			im.skip(rep, &errors.RowError{Line: line, Reason: "missing column"})
			continue
		}
		rel, err := tree.Clean(record[pathIdx])
		if err != nil {
			im.skip(rep, &errors.RowError{Line: line, Path: record[pathIdx], Reason: "invalid path", Err: err})
			continue
		}
		if !im.Scanner.IsDir(rel) {
			im.skip(rep, &errors.RowError{Line: line, Path: rel, Reason: "no such folder", Err: errors.ErrNotFound})
			continue
		}

		imported := tags.Parse(record[tagsIdx])
		dir := im.Scanner.Abs(rel)
		next := imported
		if mode == ModeMerge {
			existing, err := im.Scanner.Store.Load(dir)
			if err != nil {
				return rep, fmt.Errorf("import line %d: %w", line, err)
			}
			next = tags.Union(existing, imported)
		}
		if err := im.Scanner.Store.Save(dir, next); err != nil {
			return rep, fmt.Errorf("import line %d: %w", line, err)
		}
		im.Cache.Set(rel, next)
		rep.Applied = append(rep.Applied, rel)
	}

	im.Log.Info().
		Str("mode", mode.String()).
		Int("applied", len(rep.Applied)).
		Int("skipped", len(rep.Skipped)).
		Msg("import finished")
	return rep, nil
}

func (im *Importer) skip(rep *Report, rowErr *errors.RowError) {
	im.Log.Warn().Int("line", rowErr.Line).Str("path", rowErr.Path).Msg(rowErr.Reason)
	rep.Skipped = append(rep.Skipped, rowErr)
}

// ClearAll empties the tag file of every tagged folder and returns how many
// were cleared.
func ClearAll(sc *tree.Scanner, c *tree.Cache) (int, error) {
	n := 0
	for _, rel := range c.Paths() {
		if err := sc.Store.Save(sc.Abs(rel), nil); err != nil {
			return n, err
		}
		c.Delete(rel)
		n++
	}
	return n, nil
}
