// Package arrowconv moves dyncsv tables in and out of Apache Arrow records and Parquet files.
//
// Column types are derived from cell kinds. A column whose non-null cells are all Bool becomes
// boolean, all Int becomes int64, any mix of Int and Float becomes float64, and everything else
// becomes string. A qualifier with a concrete kind decides the type outright. Null cells become
// Arrow nulls.
package arrowconv

import (
	"context"
	"fmt"
	"io"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/apache/arrow-go/v18/parquet"
	"github.com/apache/arrow-go/v18/parquet/compress"
	"github.com/apache/arrow-go/v18/parquet/file"
	"github.com/apache/arrow-go/v18/parquet/pqarrow"

	"github.com/oleg578/dyncsv"
)

// Schema derives the Arrow schema of t.
func Schema(t dyncsv.Table) *arrow.Schema {
	names := t.ColumnNames()
	fields := make([]arrow.Field, len(names))
	for col, name := range names {
		fields[col] = arrow.Field{Name: name, Type: columnType(t, col), Nullable: true}
	}
	return arrow.NewSchema(fields, nil)
}

// NewRecord copies t into a single Arrow record. The caller must Release it.
func NewRecord(t dyncsv.Table, mem memory.Allocator) (arrow.Record, error) {
	if mem == nil {
		mem = memory.NewGoAllocator()
	}
	b := array.NewRecordBuilder(mem, Schema(t))
	defer b.Release()

	for row, err := range t.Rows() {
		if err != nil {
			return nil, err
		}
		for col, v := range row {
			appendValue(b.Field(col), v)
		}
	}
	return b.NewRecord(), nil
}

// WriteParquet writes t as a Snappy-compressed Parquet file.
func WriteParquet(w io.Writer, t dyncsv.Table) error {
	rec, err := NewRecord(t, memory.NewGoAllocator())
	if err != nil {
		return err
	}
	defer rec.Release()

	props := parquet.NewWriterProperties(parquet.WithCompression(compress.Codecs.Snappy))
	arrowProps := pqarrow.NewArrowWriterProperties(pqarrow.WithStoreSchema())

	writer, err := pqarrow.NewFileWriter(rec.Schema(), w, props, arrowProps)
	if err != nil {
		return fmt.Errorf("arrowconv: create parquet writer: %w", err)
	}
	if err := writer.Write(rec); err != nil {
		writer.Close()
		return fmt.Errorf("arrowconv: write parquet: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("arrowconv: close parquet writer: %w", err)
	}
	return nil
}

// ReadParquet loads a Parquet file into an ArrayTable, one column per field.
func ReadParquet(ctx context.Context, r parquet.ReaderAtSeeker) (*dyncsv.ArrayTable, error) {
	pf, err := file.NewParquetReader(r)
	if err != nil {
		return nil, fmt.Errorf("arrowconv: open parquet: %w", err)
	}
	defer pf.Close()

	fr, err := pqarrow.NewFileReader(pf, pqarrow.ArrowReadProperties{}, memory.NewGoAllocator())
	if err != nil {
		return nil, fmt.Errorf("arrowconv: create arrow reader: %w", err)
	}
	tbl, err := fr.ReadTable(ctx)
	if err != nil {
		return nil, fmt.Errorf("arrowconv: read parquet data: %w", err)
	}
	defer tbl.Release()

	return FromTable(tbl)
}

// FromTable copies an Arrow table into an ArrayTable.
func FromTable(tbl arrow.Table) (*dyncsv.ArrayTable, error) {
	schema := tbl.Schema()
	labels := make([]string, schema.NumFields())
	for i, field := range schema.Fields() {
		labels[i] = field.Name
	}
	out := dyncsv.NewArrayTable(labels...)

	tr := array.NewTableReader(tbl, tbl.NumRows())
	defer tr.Release()
	for tr.Next() {
		rec := tr.Record()
		for row := 0; row < int(rec.NumRows()); row++ {
			values := make([]dyncsv.Value, rec.NumCols())
			for col, arr := range rec.Columns() {
				values[col] = valueAt(arr, row)
			}
			if err := out.InsertRow(out.RowCount(), values); err != nil {
				return nil, err
			}
		}
	}
	if err := tr.Err(); err != nil {
		return nil, fmt.Errorf("arrowconv: read table: %w", err)
	}
	return out, nil
}

func columnType(t dyncsv.Table, col int) arrow.DataType {
	kind := dyncsv.KindNull
	if q := t.Qualifier(col); q != nil {
		kind = q.Kind
	}
	if kind == dyncsv.KindNull {
		for row := 0; row < t.RowCount(); row++ {
			v, _ := t.Cell(row, col)
			kind = widen(kind, v.Kind())
		}
	}
	switch kind {
	case dyncsv.KindBool:
		return arrow.FixedWidthTypes.Boolean
	case dyncsv.KindInt:
		return arrow.PrimitiveTypes.Int64
	case dyncsv.KindFloat:
		return arrow.PrimitiveTypes.Float64
	}
	return arrow.BinaryTypes.String
}

// widen merges the kind seen so far with the next cell's kind.
func widen(seen, next dyncsv.Kind) dyncsv.Kind {
	switch {
	case next == dyncsv.KindNull || seen == next:
		return seen
	case seen == dyncsv.KindNull:
		return next
	case isNumeric(seen) && isNumeric(next):
		return dyncsv.KindFloat
	}
	return dyncsv.KindText
}

func isNumeric(k dyncsv.Kind) bool {
	return k == dyncsv.KindInt || k == dyncsv.KindFloat
}

func appendValue(builder array.Builder, v dyncsv.Value) {
	if v.IsNull() {
		builder.AppendNull()
		return
	}
	switch b := builder.(type) {
	case *array.BooleanBuilder:
		bv, _ := v.AsBool()
		b.Append(bv)
	case *array.Int64Builder:
		iv, _ := v.AsInt()
		b.Append(iv)
	case *array.Float64Builder:
		fv, _ := v.AsFloat()
		b.Append(fv)
	case *array.StringBuilder:
		b.Append(v.String())
	default:
		builder.AppendNull()
	}
}

func valueAt(arr arrow.Array, i int) dyncsv.Value {
	if arr.IsNull(i) {
		return dyncsv.Null()
	}
	switch a := arr.(type) {
	case *array.Boolean:
		return dyncsv.Bool(a.Value(i))
	case *array.Int64:
		return dyncsv.Int(a.Value(i))
	case *array.Float64:
		return dyncsv.Float(a.Value(i))
	case *array.String:
		return dyncsv.Text(a.Value(i))
	}
	return dyncsv.Text(arr.ValueStr(i))
}
