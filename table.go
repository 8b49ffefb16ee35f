package dyncsv

import "iter"

// Table is the capability set shared by MapTable and ArrayTable. Coordinates are (row, column),
// zero based. Read accessors report absence with a false flag; every mutation returns an error and
// leaves the table untouched when it fails.
type Table interface {
	// Cell returns the value at (row, col).
	Cell(row, col int) (Value, bool)
	// SetCell replaces the value at (row, col) after checking the column's qualifier.
	SetCell(row, col int, v Value) error
	// Row returns a copy of a row in column order.
	Row(row int) ([]Value, bool)
	// SetRow replaces a row, or appends one when row equals RowCount.
	SetRow(row int, values []Value) error
	// InsertRow inserts a row before row. Nil values fill every column with its default.
	InsertRow(row int, values []Value) error
	// DeleteRow removes a row.
	DeleteRow(row int) error
	// MoveRow relocates a row, shifting the rows in between by one.
	MoveRow(src, dst int) error
	// InsertColumn inserts an unqualified text column before col, filling existing rows with "".
	InsertColumn(col int, name string) error
	// DeleteColumn removes a column from the header and every row.
	DeleteColumn(col int) error
	// MoveColumn relocates a column, shifting the columns in between by one.
	MoveColumn(src, dst int) error
	// RenameColumn changes a column's name.
	RenameColumn(col int, name string) error
	// SetQualifier attaches q to a column (nil removes it). Existing cells are converted; cells that
	// fail fail the call, or are replaced by the qualifier default when coerce is set.
	SetQualifier(col int, q *Qualifier, coerce bool) error
	// Qualifier returns the column's qualifier, or nil.
	Qualifier(col int) *Qualifier
	// ColumnNames returns the column names in order.
	ColumnNames() []string
	ColumnCount() int
	RowCount() int
	// DropData removes every row and keeps the columns.
	DropData()
	// Rows yields a copy of each row from row 0. It yields ErrConcurrentModification and stops if
	// the table changes shape during iteration.
	Rows() iter.Seq2[[]Value, error]
}

var (
	_ Table = (*MapTable)(nil)
	_ Table = (*ArrayTable)(nil)
)

// generation counts structural edits so iterators can detect them.
type generation uint64

func (g *generation) bump() { *g++ }

// rows is the shared Rows implementation. The row count and generation are re-read at every step.
func rows(gen *generation, count func() int, row func(int) ([]Value, bool)) iter.Seq2[[]Value, error] {
	return func(yield func([]Value, error) bool) {
		start := *gen
		for i := 0; i < count(); i++ {
			if *gen != start {
				yield(nil, ErrConcurrentModification)
				return
			}
			values, _ := row(i)
			if !yield(values, nil) {
				return
			}
		}
		if *gen != start {
			yield(nil, ErrConcurrentModification)
		}
	}
}

// Records renders the table as text records, one per row.
func Records(t Table) [][]string {
	out := make([][]string, 0, t.RowCount())
	for i := 0; i < t.RowCount(); i++ {
		row, _ := t.Row(i)
		out = append(out, Strings(row))
	}
	return out
}

// EqualTables reports whether a and b have the same column names and equal cells.
func EqualTables(a, b Table) bool {
	if a.ColumnCount() != b.ColumnCount() || a.RowCount() != b.RowCount() {
		return false
	}
	an, bn := a.ColumnNames(), b.ColumnNames()
	for i := range an {
		if an[i] != bn[i] {
			return false
		}
	}
	for r := 0; r < a.RowCount(); r++ {
		for c := 0; c < a.ColumnCount(); c++ {
			av, _ := a.Cell(r, c)
			bv, _ := b.Cell(r, c)
			if !av.Equal(bv) {
				return false
			}
		}
	}
	return true
}

// Match returns the indices of rows whose cells satisfy every qualifier in rules, keyed by column.
// Cells are checked as stored, without conversion.
func Match(t Table, rules map[int]*Qualifier) ([]int, error) {
	for col := range rules {
		if col < 0 || col >= t.ColumnCount() {
			return nil, outOfRange("column", col, t.ColumnCount())
		}
	}
	var out []int
rowLoop:
	for r := 0; r < t.RowCount(); r++ {
		for col, q := range rules {
			if q == nil {
				continue
			}
			v, _ := t.Cell(r, col)
			if q.Kind != KindNull && v.Kind() != q.Kind {
				continue rowLoop
			}
			if !q.Admits(v) {
				continue rowLoop
			}
		}
		out = append(out, r)
	}
	return out, nil
}

// moveSlice relocates s[src] to dst, shifting the elements in between.
func moveSlice[T any](s []T, src, dst int) {
	if src == dst {
		return
	}
	item := s[src]
	if src < dst {
		copy(s[src:dst], s[src+1:dst+1])
	} else {
		copy(s[dst+1:src+1], s[dst:src])
	}
	s[dst] = item
}

// insertAt inserts v at index i, which may equal len(s).
func insertAt[T any](s []T, i int, v T) []T {
	var zero T
	s = append(s, zero)
	copy(s[i+1:], s[i:])
	s[i] = v
	return s
}

// removeAt deletes index i.
func removeAt[T any](s []T, i int) []T {
	copy(s[i:], s[i+1:])
	var zero T
	s[len(s)-1] = zero
	return s[:len(s)-1]
}

// qualifyRow checks values against per-column qualifiers without mutating anything.
func qualifyRow(row int, values []Value, names []string, qualifier func(int) *Qualifier) ([]Value, error) {
	out := make([]Value, len(values))
	for c, v := range values {
		q, err := qualifier(c).Qualify(v)
		if err != nil {
			return nil, at(err, row, c, names[c])
		}
		out[c] = q
	}
	return out, nil
}
