package dyncsv

import (
	"errors"
	"reflect"
	"testing"
)

func newTestArrayTable(t *testing.T, labels []string, rows ...[]Value) *ArrayTable {
	t.Helper()

	a := NewArrayTable(labels...)
	for i, row := range rows {
		if err := a.InsertRow(i, row); err != nil {
			t.Fatalf("InsertRow(%d) error = %v", i, err)
		}
	}
	return a
}

func TestArrayTableDuplicateLabels(t *testing.T) {
	t.Parallel()

	a := newTestArrayTable(t, []string{"x", "x", "7"}, Values("1", "2", "3"))
	if err := a.RenameColumn(2, "x"); err != nil {
		t.Fatalf("RenameColumn() error = %v", err)
	}
	if got := a.Labels(); !reflect.DeepEqual(got, []string{"x", "x", "x"}) {
		t.Fatalf("Labels() = %q", got)
	}
	if v, ok := a.Cell(0, 1); !ok || v.String() != "2" {
		t.Fatalf("Cell(0, 1) = %#v, %v", v, ok)
	}
}

func TestArrayTableRows(t *testing.T) {
	t.Parallel()

	a := newTestArrayTable(t, []string{"k", "v"},
		Values("a", "1"),
		Values("b", "2"),
		Values("c", "3"),
	)

	if err := a.MoveRow(2, 0); err != nil {
		t.Fatalf("MoveRow() error = %v", err)
	}
	if err := a.DeleteRow(1); err != nil {
		t.Fatalf("DeleteRow() error = %v", err)
	}
	if err := a.SetRow(0, Values("C", "30")); err != nil {
		t.Fatalf("SetRow() error = %v", err)
	}
	if err := a.InsertRow(0, nil); err != nil {
		t.Fatalf("InsertRow(nil) error = %v", err)
	}

	want := [][]string{{"", ""}, {"C", "30"}, {"b", "2"}}
	if got := Records(a); !reflect.DeepEqual(got, want) {
		t.Fatalf("Records() = %q, want %q", got, want)
	}

	row, _ := a.Row(1)
	row[0] = Text("mutated")
	if v, _ := a.Cell(1, 0); v.String() != "C" {
		t.Fatalf("Row() should return a copy, table now holds %#v", v)
	}
}

func TestArrayTableColumns(t *testing.T) {
	t.Parallel()

	a := newTestArrayTable(t, []string{"a", "b", "c"},
		Values("1", "2", "3"),
		Values("4", "5", "6"),
	)

	if err := a.MoveColumn(0, 2); err != nil {
		t.Fatalf("MoveColumn() error = %v", err)
	}
	if err := a.InsertColumn(0, "b"); err != nil {
		t.Fatalf("InsertColumn() error = %v", err)
	}
	if err := a.SetColumnValues(0, []Value{Int(10), Int(20)}); err != nil {
		t.Fatalf("SetColumnValues() error = %v", err)
	}
	if err := a.DeleteColumn(1); err != nil {
		t.Fatalf("DeleteColumn() error = %v", err)
	}
	if err := a.SetColumn(2, Bool(true)); err != nil {
		t.Fatalf("SetColumn() error = %v", err)
	}

	if got := a.ColumnNames(); !reflect.DeepEqual(got, []string{"b", "c", "a"}) {
		t.Fatalf("ColumnNames() = %q", got)
	}
	want := [][]string{{"10", "3", "true"}, {"20", "6", "true"}}
	if got := Records(a); !reflect.DeepEqual(got, want) {
		t.Fatalf("Records() = %q, want %q", got, want)
	}
}

func TestArrayTableErrors(t *testing.T) {
	t.Parallel()

	a := newTestArrayTable(t, []string{"a", "b"}, Values("1", "2"))

	tests := []struct {
		name string
		op   func() error
		want error
	}{
		{"setCell", func() error { return a.SetCell(0, 2, Null()) }, ErrOutOfRange},
		{"setRowShape", func() error { return a.SetRow(0, Values("x")) }, ErrShape},
		{"insertRowShape", func() error { return a.InsertRow(1, Values("x")) }, ErrShape},
		{"deleteRow", func() error { return a.DeleteRow(-1) }, ErrOutOfRange},
		{"moveColumn", func() error { return a.MoveColumn(0, 2) }, ErrOutOfRange},
		{"setColumn", func() error { return a.SetColumn(2, Null()) }, ErrOutOfRange},
		{"setColumnValues", func() error { return a.SetColumnValues(0, nil) }, ErrShape},
		{"insertQualifiedColumn", func() error { return a.InsertQualifiedColumn(0, "n", OfKind(KindInt), Text("x")) }, ErrValidation},
	}

	for _, tc := range tests {
		if err := tc.op(); !errors.Is(err, tc.want) {
			t.Errorf("%s: error = %v, want %v", tc.name, err, tc.want)
		}
	}
	if a.ColumnCount() != 2 || a.RowCount() != 1 {
		t.Fatalf("failed operations changed the table shape to %dx%d", a.RowCount(), a.ColumnCount())
	}
}

func TestArrayTableQualifiers(t *testing.T) {
	t.Parallel()

	a := newTestArrayTable(t, []string{"score", "score"},
		Values("1.5", "x"),
		Values("2", "y"),
	)

	if err := a.SetQualifier(0, OfKind(KindFloat), false); err != nil {
		t.Fatalf("SetQualifier() error = %v", err)
	}
	if v, _ := a.Cell(0, 0); v.Kind() != KindFloat {
		t.Fatalf("Cell(0, 0) kind = %s, want float", v.Kind())
	}
	if err := a.SetCell(1, 0, Text("oops")); !errors.Is(err, ErrValidation) {
		t.Fatalf("SetCell() error = %v, want ErrValidation", err)
	}
	if a.Qualifier(1) != nil {
		t.Fatalf("Qualifier(1) should be nil")
	}
	if err := a.MoveColumn(0, 1); err != nil {
		t.Fatalf("MoveColumn() error = %v", err)
	}
	if a.Qualifier(1) == nil || a.Qualifier(0) != nil {
		t.Fatalf("qualifier did not move with its column")
	}
}

func TestArrayTableDeleteLastColumn(t *testing.T) {
	t.Parallel()

	a := newTestArrayTable(t, []string{"only"}, Values("1"))
	if err := a.DeleteColumn(0); err != nil {
		t.Fatalf("DeleteColumn() error = %v", err)
	}
	if a.RowCount() != 0 {
		t.Fatalf("RowCount() = %d, want 0", a.RowCount())
	}
}
