// Package table describes data grids declaratively: a list of columns, each
// knowing how to render one cell of a row.
package table

import (
	"fmt"
	"slices"
)

// Cell is a single rendered value. Text is what gets displayed, Value is the
// raw data behind it and Tone an optional styling hint.
type Cell struct {
	Text  string `json:"text"`
	Value any    `json:"value,omitempty"`
	Tone  string `json:"tone,omitempty"`
}

type Column[T any] struct {
	ID       string
	Title    string
	Sortable bool
	Cell     func(T) Cell
	// Compare orders two rows for sortable columns, like cmp.Compare.
	Compare func(a, b T) int
}

type Header struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Sortable bool   `json:"sortable"`
}

type Row struct {
	Key   string          `json:"key"`
	Cells map[string]Cell `json:"cells"`
}

type Grid struct {
	Columns []Header `json:"columns"`
	Rows    []Row    `json:"rows"`
}

// Render builds a grid, keying each row with key.
func Render[T any](columns []Column[T], rows []T, key func(T) string) Grid {
	grid := Grid{
		Columns: make([]Header, 0, len(columns)),
		Rows:    make([]Row, 0, len(rows)),
	}
	for _, c := range columns {
		grid.Columns = append(grid.Columns, Header{ID: c.ID, Title: c.Title, Sortable: c.Sortable})
	}

	for _, r := range rows {
		cells := make(map[string]Cell, len(columns))
		for _, c := range columns {
			if c.Cell == nil {
				continue
			}
			cells[c.ID] = c.Cell(r)
		}
		grid.Rows = append(grid.Rows, Row{Key: key(r), Cells: cells})
	}
	return grid
}

// Sort orders rows in place by the column with the given id. Rows that
// compare equal keep their relative order.
func Sort[T any](columns []Column[T], rows []T, id string, desc bool) error {
	idx := slices.IndexFunc(columns, func(c Column[T]) bool { return c.ID == id })
	if idx < 0 {
		return fmt.Errorf("unknown column %q", id)
	}
	col := columns[idx]
	if !col.Sortable || col.Compare == nil {
		return fmt.Errorf("column %q is not sortable", id)
	}

	slices.SortStableFunc(rows, func(a, b T) int {
		if desc {
			return col.Compare(b, a)
		}
		return col.Compare(a, b)
	})
	return nil
}
