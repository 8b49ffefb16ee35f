package dyncsv

import "iter"

// ArrayTable stores data row by row and addresses columns by position only. Labels may repeat;
// they are display metadata and never used for lookup.
//
// Inserting or removing a column rewrites every row, an O(rows) operation, in exchange for cheap
// sequential and random access to cells.
type ArrayTable struct {
	labels     []string
	qualifiers []*Qualifier
	rows       [][]Value
	gen        generation
}

// NewArrayTable creates an empty table with the given column labels.
func NewArrayTable(labels ...string) *ArrayTable {
	return &ArrayTable{
		labels:     append([]string(nil), labels...),
		qualifiers: make([]*Qualifier, len(labels)),
	}
}

// ColumnCount returns the number of columns.
func (a *ArrayTable) ColumnCount() int { return len(a.labels) }

// RowCount returns the number of rows.
func (a *ArrayTable) RowCount() int { return len(a.rows) }

// ColumnNames returns the column labels in order.
func (a *ArrayTable) ColumnNames() []string {
	return append([]string(nil), a.labels...)
}

// Labels is an alias of ColumnNames.
func (a *ArrayTable) Labels() []string { return a.ColumnNames() }

// Cell returns the value at (row, col).
func (a *ArrayTable) Cell(row, col int) (Value, bool) {
	if !a.inBounds(row, col) {
		return Null(), false
	}
	return a.rows[row][col], true
}

// SetCell replaces the value at (row, col).
func (a *ArrayTable) SetCell(row, col int, v Value) error {
	if !a.inBounds(row, col) {
		if row < 0 || row >= len(a.rows) {
			return outOfRange("row", row, len(a.rows))
		}
		return outOfRange("column", col, len(a.labels))
	}
	v, err := a.qualifiers[col].Qualify(v)
	if err != nil {
		return at(err, row, col, a.labels[col])
	}
	a.rows[row][col] = v
	return nil
}

// Row returns a copy of row.
func (a *ArrayTable) Row(row int) ([]Value, bool) {
	if row < 0 || row >= len(a.rows) {
		return nil, false
	}
	return append([]Value(nil), a.rows[row]...), true
}

// SetRow replaces row, or appends when row equals RowCount.
func (a *ArrayTable) SetRow(row int, values []Value) error {
	if row == len(a.rows) {
		return a.InsertRow(row, values)
	}
	if row < 0 || row > len(a.rows) {
		return outOfRange("row", row, len(a.rows))
	}
	if len(values) != len(a.labels) {
		return shapeError(len(values), len(a.labels))
	}
	qualified, err := qualifyRow(row, values, a.labels, a.Qualifier)
	if err != nil {
		return err
	}
	a.rows[row] = qualified
	return nil
}

// InsertRow inserts values before row. Nil values insert each column's default. A table without
// columns holds no rows, so inserting into one fails with ErrShape.
func (a *ArrayTable) InsertRow(row int, values []Value) error {
	if row < 0 || row > len(a.rows) {
		return outOfRange("row", row, len(a.rows))
	}
	if len(a.labels) == 0 {
		return errNoColumns
	}
	if values == nil {
		values = make([]Value, len(a.labels))
		for i := range values {
			values[i] = a.qualifiers[i].DefaultValue()
		}
	}
	if len(values) != len(a.labels) {
		return shapeError(len(values), len(a.labels))
	}
	qualified, err := qualifyRow(row, values, a.labels, a.Qualifier)
	if err != nil {
		return err
	}
	a.rows = insertAt(a.rows, row, qualified)
	a.gen.bump()
	return nil
}

// DeleteRow removes row.
func (a *ArrayTable) DeleteRow(row int) error {
	if row < 0 || row >= len(a.rows) {
		return outOfRange("row", row, len(a.rows))
	}
	a.rows = removeAt(a.rows, row)
	a.gen.bump()
	return nil
}

// MoveRow relocates src to dst.
func (a *ArrayTable) MoveRow(src, dst int) error {
	if src < 0 || src >= len(a.rows) {
		return outOfRange("row", src, len(a.rows))
	}
	if dst < 0 || dst >= len(a.rows) {
		return outOfRange("row", dst, len(a.rows))
	}
	if src == dst {
		return nil
	}
	moveSlice(a.rows, src, dst)
	a.gen.bump()
	return nil
}

// InsertColumn inserts an unqualified column before col, filled with empty text.
func (a *ArrayTable) InsertColumn(col int, name string) error {
	return a.InsertQualifiedColumn(col, name, nil, Null())
}

// InsertQualifiedColumn inserts a column carrying q before col. Existing rows receive fill, or the
// qualifier default when fill is Null.
func (a *ArrayTable) InsertQualifiedColumn(col int, name string, q *Qualifier, fill Value) error {
	if col < 0 || col > len(a.labels) {
		return outOfRange("column", col, len(a.labels))
	}
	if err := q.Validate(); err != nil {
		return err
	}
	if fill.IsNull() {
		fill = q.DefaultValue()
	}
	fill, err := q.Qualify(fill)
	if err != nil {
		return at(err, -1, col, name)
	}
	for i := range a.rows {
		a.rows[i] = insertAt(a.rows[i], col, fill)
	}
	a.labels = insertAt(a.labels, col, name)
	a.qualifiers = insertAt(a.qualifiers, col, q)
	a.gen.bump()
	return nil
}

// SetColumn fills column col with v.
func (a *ArrayTable) SetColumn(col int, v Value) error {
	if col < 0 || col >= len(a.labels) {
		return outOfRange("column", col, len(a.labels))
	}
	v, err := a.qualifiers[col].Qualify(v)
	if err != nil {
		return at(err, -1, col, a.labels[col])
	}
	for _, row := range a.rows {
		row[col] = v
	}
	return nil
}

// SetColumnValues replaces the cells of column col; values must have one entry per row.
func (a *ArrayTable) SetColumnValues(col int, values []Value) error {
	if col < 0 || col >= len(a.labels) {
		return outOfRange("column", col, len(a.labels))
	}
	if len(values) != len(a.rows) {
		return shapeError(len(values), len(a.rows))
	}
	qualified := make([]Value, len(values))
	for i, v := range values {
		q, err := a.qualifiers[col].Qualify(v)
		if err != nil {
			return at(err, i, col, a.labels[col])
		}
		qualified[i] = q
	}
	for i, row := range a.rows {
		row[col] = qualified[i]
	}
	return nil
}

// DeleteColumn removes column col from the labels and every row. Removing the last column also
// removes every row.
func (a *ArrayTable) DeleteColumn(col int) error {
	if col < 0 || col >= len(a.labels) {
		return outOfRange("column", col, len(a.labels))
	}
	for i := range a.rows {
		a.rows[i] = removeAt(a.rows[i], col)
	}
	a.labels = removeAt(a.labels, col)
	a.qualifiers = removeAt(a.qualifiers, col)
	if len(a.labels) == 0 {
		a.rows = nil
	}
	a.gen.bump()
	return nil
}

// MoveColumn relocates column src to dst in the labels and in every row.
func (a *ArrayTable) MoveColumn(src, dst int) error {
	if src < 0 || src >= len(a.labels) {
		return outOfRange("column", src, len(a.labels))
	}
	if dst < 0 || dst >= len(a.labels) {
		return outOfRange("column", dst, len(a.labels))
	}
	if src == dst {
		return nil
	}
	for _, row := range a.rows {
		moveSlice(row, src, dst)
	}
	moveSlice(a.labels, src, dst)
	moveSlice(a.qualifiers, src, dst)
	a.gen.bump()
	return nil
}

// RenameColumn relabels column col. Any label is accepted, duplicates included.
func (a *ArrayTable) RenameColumn(col int, name string) error {
	if col < 0 || col >= len(a.labels) {
		return outOfRange("column", col, len(a.labels))
	}
	a.labels[col] = name
	return nil
}

// SetQualifier attaches q to column col, converting its cells. See MapTable.SetQualifier.
func (a *ArrayTable) SetQualifier(col int, q *Qualifier, coerce bool) error {
	if col < 0 || col >= len(a.labels) {
		return outOfRange("column", col, len(a.labels))
	}
	if err := q.Validate(); err != nil {
		return err
	}
	current := make([]Value, len(a.rows))
	for i, row := range a.rows {
		current[i] = row[col]
	}
	values, err := requalify(current, q, coerce, col, a.labels[col])
	if err != nil {
		return err
	}
	for i, row := range a.rows {
		row[col] = values[i]
	}
	a.qualifiers[col] = q
	return nil
}

// Qualifier returns the qualifier attached to column col, or nil.
func (a *ArrayTable) Qualifier(col int) *Qualifier {
	if col < 0 || col >= len(a.qualifiers) {
		return nil
	}
	return a.qualifiers[col]
}

// DropData removes all rows and keeps the columns.
func (a *ArrayTable) DropData() {
	a.rows = nil
	a.gen.bump()
}

// Rows yields a copy of each row.
func (a *ArrayTable) Rows() iter.Seq2[[]Value, error] {
	return rows(&a.gen, a.RowCount, a.Row)
}

func (a *ArrayTable) inBounds(row, col int) bool {
	return row >= 0 && row < len(a.rows) && col >= 0 && col < len(a.labels)
}
