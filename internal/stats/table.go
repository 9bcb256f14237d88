package stats

import (
	"encoding/csv"
	"io"
	"sort"
	"strconv"
	"strings"

	"tagbrowser/internal/search"
)

// Column selects the key or value column of a Table.
type Column int

const (
	ColumnKey Column = iota
	ColumnValue
)

// Table is a searchable, sortable view over a count map.
type Table struct {
	KeyTitle   string
	ValueTitle string

	rows   []Row
	query  string
	column Column
	desc   bool
}

// NewTable builds a table sorted by key, ignoring case.
func NewTable(keyTitle, valueTitle string, data map[string]int) *Table {
	t := &Table{KeyTitle: keyTitle, ValueTitle: valueTitle}
	for k, v := range data {
		t.rows = append(t.rows, Row{Key: k, Value: v})
	}
	t.Sort(ColumnKey, false)
	return t
}

// SetFilter keeps only rows whose key contains query, ignoring case.
func (t *Table) SetFilter(query string) {
	t.query = query
}

// Filter returns the current filter text.
func (t *Table) Filter() string { return t.query }

// Sort orders the rows by column. Values sort numerically; keys sort
// case-insensitively with the raw key as tie-breaker.
func (t *Table) Sort(column Column, desc bool) {
	t.column, t.desc = column, desc
	sort.SliceStable(t.rows, func(i, j int) bool {
		a, b := t.rows[i], t.rows[j]
		if desc {
			a, b = b, a
		}
		if column == ColumnValue && a.Value != b.Value {
			return a.Value < b.Value
		}
		ka, kb := strings.ToLower(a.Key), strings.ToLower(b.Key)
		if ka != kb {
			return ka < kb
		}
		return a.Key < b.Key
	})
}

// Sorting returns the active sort column and direction.
func (t *Table) Sorting() (Column, bool) { return t.column, t.desc }

// Rows returns the filtered rows in display order.
func (t *Table) Rows() []Row {
	m := search.NewMatcher(t.query)
	out := make([]Row, 0, len(t.rows))
	for _, r := range t.rows {
		if m.Match(r.Key) {
			out = append(out, r)
		}
	}
	return out
}

// Len is the number of rows before filtering.
func (t *Table) Len() int { return len(t.rows) }

// WriteCSV writes the filtered rows with a header line.
func (t *Table) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{t.KeyTitle, t.ValueTitle}); err != nil {
		return err
	}
	for _, r := range t.Rows() {
		if err := cw.Write([]string{r.Key, strconv.Itoa(r.Value)}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// DefaultFileName suggests a file name for exporting the table.
func (t *Table) DefaultFileName() string {
	return strings.ToLower(t.KeyTitle) + "_" + strings.ToLower(t.ValueTitle) + ".csv"
}
