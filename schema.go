package dyncsv

import (
	"fmt"
	"io"
	"strings"
)

// SchemaHeader is the header row of a schema file. Each following row describes one column's
// qualifier: its name, value type, default value, whitespace-separated variants and regex pattern.
const SchemaHeader = "column,type,default,variant,pattern"

var schemaColumns = strings.Split(SchemaHeader, ",")

// WriteSchema writes the qualifiers of t as a schema file. Unqualified columns are written with
// type "null" and no constraints.
func WriteSchema(dst io.Writer, t Table) error {
	w := NewWriter(dst)
	if err := w.Write(schemaColumns); err != nil {
		return err
	}
	for col, name := range t.ColumnNames() {
		record := append([]string{name}, t.Qualifier(col).Attributes()...)
		if err := w.Write(record); err != nil {
			return err
		}
	}
	return w.Flush()
}

// ApplySchema reads a schema file and attaches each qualifier to every column carrying that name.
// All rows are parsed before any qualifier is applied; a column rejecting its qualifier stops the
// process with the earlier columns already updated.
func ApplySchema(src io.Reader, t Table, coerce bool) error {
	r := NewReader(src)
	r.HasHeader = true
	r.ConsumeQuotes = true
	r.IgnoreEmptyRows = true
	r.Trim = true

	type entry struct {
		name string
		q    *Qualifier
	}
	var entries []entry
	for record, err := range r.Records() {
		if err != nil {
			return err
		}
		q, err := ParseQualifier(record[1:])
		if err != nil {
			return fmt.Errorf("dyncsv: schema for column %q: %w", record[0], err)
		}
		entries = append(entries, entry{name: record[0], q: q})
	}

	names := t.ColumnNames()
	for _, e := range entries {
		found := false
		for col, name := range names {
			if name != e.name {
				continue
			}
			found = true
			if err := t.SetQualifier(col, e.q, coerce); err != nil {
				return err
			}
		}
		if !found {
			return fmt.Errorf("%w: schema names unknown column %q", ErrOutOfRange, e.name)
		}
	}
	return nil
}

// ExportSchema writes the table's qualifiers as a schema file.
func (m *MapTable) ExportSchema(w io.Writer) error {
	return WriteSchema(w, m)
}

// ApplySchema attaches the qualifiers described by a schema file.
func (m *MapTable) ApplySchema(r io.Reader, coerce bool) error {
	return ApplySchema(r, m, coerce)
}
