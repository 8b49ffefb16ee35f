package dyncsv

import (
	"fmt"
	"iter"
	"strconv"
)

// MapTable stores data column by column, keyed by unique column name. Adding, removing and moving
// columns touches only the column index; cell access is a name lookup followed by a row index.
//
// Column names are unique and may not parse as integers, so that a string can address a column
// either by name or by position (see Lookup).
type MapTable struct {
	columns map[string]*column
	order   []string
	rows    int
	gen     generation
}

type column struct {
	name      string
	qualifier *Qualifier
	values    []Value
}

// Column is a snapshot of one MapTable column.
type Column struct {
	Name      string
	Qualifier *Qualifier
	Values    []Value
}

// NewMapTable creates an empty table with the given text columns.
func NewMapTable(names ...string) (*MapTable, error) {
	m := &MapTable{columns: make(map[string]*column, len(names))}
	for i, name := range names {
		if err := m.InsertColumn(i, name); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// ColumnCount returns the number of columns.
func (m *MapTable) ColumnCount() int { return len(m.order) }

// RowCount returns the number of rows.
func (m *MapTable) RowCount() int { return m.rows }

// ColumnNames returns the column names in display order.
func (m *MapTable) ColumnNames() []string {
	return append([]string(nil), m.order...)
}

// ColumnIndex resolves a column name, or a decimal index string, to a position.
func (m *MapTable) ColumnIndex(nameOrIndex string) (int, bool) {
	if i, err := strconv.Atoi(nameOrIndex); err == nil {
		return i, i >= 0 && i < len(m.order)
	}
	for i, name := range m.order {
		if name == nameOrIndex {
			return i, true
		}
	}
	return -1, false
}

// Cell returns the value at (row, col).
func (m *MapTable) Cell(row, col int) (Value, bool) {
	if !m.inBounds(row, col) {
		return Null(), false
	}
	return m.col(col).values[row], true
}

// Lookup returns the value in row of the column addressed by name or index string.
func (m *MapTable) Lookup(row int, nameOrIndex string) (Value, bool) {
	col, ok := m.ColumnIndex(nameOrIndex)
	if !ok {
		return Null(), false
	}
	return m.Cell(row, col)
}

// SetCell replaces the value at (row, col).
func (m *MapTable) SetCell(row, col int, v Value) error {
	if !m.inBounds(row, col) {
		return m.rangeError(row, col)
	}
	c := m.col(col)
	v, err := c.qualifier.Qualify(v)
	if err != nil {
		return at(err, row, col, c.name)
	}
	c.values[row] = v
	return nil
}

// Row returns a copy of the row in column order.
func (m *MapTable) Row(row int) ([]Value, bool) {
	if row < 0 || row >= m.rows {
		return nil, false
	}
	out := make([]Value, len(m.order))
	for i, name := range m.order {
		out[i] = m.columns[name].values[row]
	}
	return out, true
}

// SetRow replaces row, or appends when row equals RowCount.
func (m *MapTable) SetRow(row int, values []Value) error {
	if row == m.rows {
		return m.InsertRow(row, values)
	}
	if row < 0 || row > m.rows {
		return outOfRange("row", row, m.rows)
	}
	if len(values) != len(m.order) {
		return shapeError(len(values), len(m.order))
	}
	qualified, err := qualifyRow(row, values, m.order, m.Qualifier)
	if err != nil {
		return err
	}
	for i, name := range m.order {
		m.columns[name].values[row] = qualified[i]
	}
	return nil
}

// InsertRow inserts values before row. Nil values insert each column's default. A table without
// columns holds no rows, so inserting into one fails with ErrShape.
func (m *MapTable) InsertRow(row int, values []Value) error {
	if row < 0 || row > m.rows {
		return outOfRange("row", row, m.rows)
	}
	if len(m.order) == 0 {
		return errNoColumns
	}
	if values == nil {
		values = make([]Value, len(m.order))
		for i := range values {
			values[i] = m.col(i).qualifier.DefaultValue()
		}
	}
	if len(values) != len(m.order) {
		return shapeError(len(values), len(m.order))
	}
	qualified, err := qualifyRow(row, values, m.order, m.Qualifier)
	if err != nil {
		return err
	}
	for i, name := range m.order {
		c := m.columns[name]
		c.values = insertAt(c.values, row, qualified[i])
	}
	m.rows++
	m.gen.bump()
	return nil
}

// DeleteRow removes row.
func (m *MapTable) DeleteRow(row int) error {
	if row < 0 || row >= m.rows {
		return outOfRange("row", row, m.rows)
	}
	for _, c := range m.columns {
		c.values = removeAt(c.values, row)
	}
	m.rows--
	m.gen.bump()
	return nil
}

// MoveRow relocates src to dst. Every column is shifted, so the cost is O(columns × distance).
func (m *MapTable) MoveRow(src, dst int) error {
	if src < 0 || src >= m.rows {
		return outOfRange("row", src, m.rows)
	}
	if dst < 0 || dst >= m.rows {
		return outOfRange("row", dst, m.rows)
	}
	if src == dst {
		return nil
	}
	for _, c := range m.columns {
		moveSlice(c.values, src, dst)
	}
	m.gen.bump()
	return nil
}

// InsertColumn inserts an unqualified column before col, filled with empty text.
func (m *MapTable) InsertColumn(col int, name string) error {
	return m.InsertQualifiedColumn(col, name, nil, Null())
}

// InsertQualifiedColumn inserts a column carrying q before col. Existing rows receive fill, or the
// qualifier default when fill is Null.
func (m *MapTable) InsertQualifiedColumn(col int, name string, q *Qualifier, fill Value) error {
	if col < 0 || col > len(m.order) {
		return outOfRange("column", col, len(m.order))
	}
	if err := m.checkName(name); err != nil {
		return err
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
	values := make([]Value, m.rows)
	for i := range values {
		values[i] = fill
	}
	m.addColumn(col, &column{name: name, qualifier: q, values: values})
	return nil
}

// SetColumn fills the named column with v, creating it at the end when it does not exist.
func (m *MapTable) SetColumn(name string, v Value) error {
	c, ok := m.columns[name]
	if !ok {
		return m.InsertQualifiedColumn(len(m.order), name, nil, v)
	}
	v, err := c.qualifier.Qualify(v)
	if err != nil {
		col, _ := m.ColumnIndex(name)
		return at(err, -1, col, name)
	}
	for i := range c.values {
		c.values[i] = v
	}
	return nil
}

// SetColumnValues replaces the named column's cells, creating the column at the end when it does
// not exist. values must have one entry per row; the first column of an empty table sets the
// row count instead.
func (m *MapTable) SetColumnValues(name string, values []Value) error {
	rows := m.rows
	if len(m.order) == 0 {
		rows = len(values)
	}
	if len(values) != rows {
		return shapeError(len(values), rows)
	}
	c, ok := m.columns[name]
	if !ok {
		if err := m.checkName(name); err != nil {
			return err
		}
		m.rows = rows
		m.addColumn(len(m.order), &column{name: name, values: append([]Value(nil), values...)})
		return nil
	}
	col, _ := m.ColumnIndex(name)
	qualified := make([]Value, len(values))
	for i, v := range values {
		q, err := c.qualifier.Qualify(v)
		if err != nil {
			return at(err, i, col, name)
		}
		qualified[i] = q
	}
	c.values = qualified
	return nil
}

// DeleteColumn removes a column. Removing the last column also removes every row.
func (m *MapTable) DeleteColumn(col int) error {
	if col < 0 || col >= len(m.order) {
		return outOfRange("column", col, len(m.order))
	}
	delete(m.columns, m.order[col])
	m.order = removeAt(m.order, col)
	if len(m.order) == 0 {
		m.rows = 0
	}
	m.gen.bump()
	return nil
}

// MoveColumn relocates column src to dst.
func (m *MapTable) MoveColumn(src, dst int) error {
	if src < 0 || src >= len(m.order) {
		return outOfRange("column", src, len(m.order))
	}
	if dst < 0 || dst >= len(m.order) {
		return outOfRange("column", dst, len(m.order))
	}
	if src == dst {
		return nil
	}
	moveSlice(m.order, src, dst)
	m.gen.bump()
	return nil
}

// RenameColumn renames a column. The new name must be unique and non-numeric.
func (m *MapTable) RenameColumn(col int, name string) error {
	if col < 0 || col >= len(m.order) {
		return outOfRange("column", col, len(m.order))
	}
	old := m.order[col]
	if old == name {
		return nil
	}
	if err := m.checkName(name); err != nil {
		return err
	}
	c := m.columns[old]
	delete(m.columns, old)
	c.name = name
	m.columns[name] = c
	m.order[col] = name
	return nil
}

// SetQualifier attaches q to a column, converting its cells. A cell that fails makes the call fail
// without changes, unless coerce is set, in which case it is replaced by the qualifier default.
func (m *MapTable) SetQualifier(col int, q *Qualifier, coerce bool) error {
	if col < 0 || col >= len(m.order) {
		return outOfRange("column", col, len(m.order))
	}
	if err := q.Validate(); err != nil {
		return err
	}
	c := m.col(col)
	values, err := requalify(c.values, q, coerce, col, c.name)
	if err != nil {
		return err
	}
	c.values = values
	c.qualifier = q
	return nil
}

// Qualifier returns the qualifier attached to col, or nil.
func (m *MapTable) Qualifier(col int) *Qualifier {
	if col < 0 || col >= len(m.order) {
		return nil
	}
	return m.col(col).qualifier
}

// DropData removes all rows and keeps the columns and their qualifiers.
func (m *MapTable) DropData() {
	for _, c := range m.columns {
		c.values = nil
	}
	m.rows = 0
	m.gen.bump()
}

// Rows yields a copy of each row in column order.
func (m *MapTable) Rows() iter.Seq2[[]Value, error] {
	return rows(&m.gen, m.RowCount, m.Row)
}

// Columns yields a snapshot of each column in display order, failing like Rows on structural edits.
func (m *MapTable) Columns() iter.Seq2[Column, error] {
	return func(yield func(Column, error) bool) {
		start := m.gen
		for i := 0; i < len(m.order); i++ {
			if m.gen != start {
				yield(Column{}, ErrConcurrentModification)
				return
			}
			c := m.col(i)
			snapshot := Column{Name: c.name, Qualifier: c.qualifier, Values: append([]Value(nil), c.values...)}
			if !yield(snapshot, nil) {
				return
			}
		}
	}
}

func (m *MapTable) col(i int) *column {
	return m.columns[m.order[i]]
}

func (m *MapTable) addColumn(col int, c *column) {
	if m.columns == nil {
		m.columns = make(map[string]*column)
	}
	m.columns[c.name] = c
	m.order = insertAt(m.order, col, c.name)
	m.gen.bump()
}

func (m *MapTable) checkName(name string) error {
	if _, err := strconv.ParseInt(name, 10, 64); err == nil {
		return fmt.Errorf("%w: %q", ErrNumericName, name)
	}
	if _, ok := m.columns[name]; ok {
		return fmt.Errorf("%w: %q", ErrDuplicateName, name)
	}
	return nil
}

func (m *MapTable) inBounds(row, col int) bool {
	return row >= 0 && row < m.rows && col >= 0 && col < len(m.order)
}

func (m *MapTable) rangeError(row, col int) error {
	if row < 0 || row >= m.rows {
		return outOfRange("row", row, m.rows)
	}
	return outOfRange("column", col, len(m.order))
}

// requalify converts a column's cells to q, replacing failures with the default when coerce is set.
func requalify(values []Value, q *Qualifier, coerce bool, col int, name string) ([]Value, error) {
	out := make([]Value, len(values))
	for i, v := range values {
		converted, err := q.Qualify(v)
		if err != nil {
			if !coerce {
				return nil, at(err, i, col, name)
			}
			converted = q.DefaultValue()
		}
		out[i] = converted
	}
	return out, nil
}
