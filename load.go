package dyncsv

import (
	"errors"
	"fmt"
	"io"
)

// LoadOptions controls how parsed records become table rows.
type LoadOptions struct {
	// Qualifiers attaches a qualifier to each named column before any row is inserted.
	Qualifiers map[string]*Qualifier
	// SkipInvalidRows drops rows that a qualifier rejects instead of failing the load.
	SkipInvalidRows bool
	// InferTypes stores fields with InferValue instead of as Text.
	InferTypes bool
}

// Load reads every remaining record from r into t. An empty t receives the reader's header as its
// columns; otherwise the header must have the same width as t.
//
// A qualifier violation fails the load and drops the rows loaded so far, unless SkipInvalidRows is
// set. Parse errors always fail the load; use Reader.Lenient to repair input instead.
func Load(r *Reader, t Table, opts LoadOptions) error {
	header, err := r.Header()
	if err != nil {
		return err
	}
	if t.ColumnCount() == 0 {
		for i, name := range header {
			if err := t.InsertColumn(i, name); err != nil {
				return err
			}
		}
	} else if header != nil && len(header) != t.ColumnCount() {
		return fmt.Errorf("%w: header has %d columns, table has %d", ErrShape, len(header), t.ColumnCount())
	}

	names := t.ColumnNames()
	for name, q := range opts.Qualifiers {
		col := indexOf(names, name)
		if col < 0 {
			return fmt.Errorf("%w: no column %q for qualifier", ErrOutOfRange, name)
		}
		if err := t.SetQualifier(col, q, false); err != nil {
			return err
		}
	}

	for {
		record, err := r.Read()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			t.DropData()
			return err
		}
		values := make([]Value, len(record))
		for i, field := range record {
			if opts.InferTypes {
				values[i] = InferValue(field)
			} else {
				values[i] = Text(field)
			}
		}
		err = t.InsertRow(t.RowCount(), values)
		if err == nil {
			continue
		}
		if opts.SkipInvalidRows && errors.Is(err, ErrValidation) {
			r.logger().Warn("dyncsv: skipped row rejected by qualifier",
				"record", r.records,
				"line", r.recordLine,
				"error", err,
			)
			continue
		}
		t.DropData()
		return fmt.Errorf("dyncsv: load record %d: %w", r.records, err)
	}
}

// ReadMapTable loads r into a new MapTable. Header names must be unique and non-numeric.
func ReadMapTable(r *Reader, opts LoadOptions) (*MapTable, error) {
	t := &MapTable{}
	if err := Load(r, t, opts); err != nil {
		return nil, err
	}
	return t, nil
}

// ReadArrayTable loads r into a new ArrayTable.
func ReadArrayTable(r *Reader, opts LoadOptions) (*ArrayTable, error) {
	t := &ArrayTable{}
	if err := Load(r, t, opts); err != nil {
		return nil, err
	}
	return t, nil
}

func indexOf(names []string, name string) int {
	for i, n := range names {
		if n == name {
			return i
		}
	}
	return -1
}
