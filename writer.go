package dyncsv

import (
	"bufio"
	"errors"
	"io"
	"strings"
	"unicode/utf8"
)

var (
	errNilWriter      = errors.New("dyncsv: writer is nil")
	errWriterNoTarget = errors.New("dyncsv: writer destination cannot be nil")
)

// Writer emits delimited records with configurable delimiters and quoting rules.
type Writer struct {
	dst *bufio.Writer

	// Comma is the field delimiter. Default is ','.
	Comma rune
	// Quote is the quote character. Default is '"'.
	Quote byte
	// LineDelimiter terminates records. Empty means "\n", or "\r\n" when UseCRLF is set.
	LineDelimiter string
	// UseCRLF writes records terminated with \r\n when set and LineDelimiter is empty.
	UseCRLF bool
	// AlwaysQuote forces quoting for all fields when enabled.
	AlwaysQuote bool

	err error
}

// NewWriter creates a new Writer with internal buffering tuned for bulk writes.
func NewWriter(w io.Writer) *Writer {
	if w == nil {
		panic(errWriterNoTarget.Error())
	}
	return &Writer{
		dst:   bufio.NewWriterSize(w, defaultBufferSize),
		Comma: ',',
		Quote: '"',
	}
}

// Reset updates the underlying writer while preserving the configuration flags.
func (w *Writer) Reset(dst io.Writer) {
	if w == nil {
		panic(errNilWriter.Error())
	}
	if dst == nil {
		panic(errWriterNoTarget.Error())
	}
	if w.dst == nil {
		w.dst = bufio.NewWriterSize(dst, defaultBufferSize)
	} else {
		w.dst.Reset(dst)
	}
	w.err = nil
}

// Write emits a single record. The record is terminated with the configured line delimiter.
func (w *Writer) Write(record []string) error {
	if w == nil {
		return errNilWriter
	}
	if w.dst == nil {
		return errWriterNoTarget
	}
	if w.err != nil {
		return w.err
	}

	comma := w.comma()
	quote := w.Quote
	if quote == 0 {
		quote = '"'
	}
	lineDelim := w.lineDelimiter()

	for i := range record {
		if i > 0 {
			if _, err := w.dst.WriteString(comma); err != nil {
				w.err = err
				return err
			}
		}
		if err := w.writeField(record[i], comma, lineDelim, quote); err != nil {
			w.err = err
			return err
		}
	}

	if _, err := w.dst.WriteString(lineDelim); err != nil {
		w.err = err
		return err
	}
	return nil
}

// WriteAll writes multiple records, stopping at the first error.
func (w *Writer) WriteAll(records [][]string) error {
	if w == nil {
		return errNilWriter
	}
	for _, record := range records {
		if err := w.Write(record); err != nil {
			return err
		}
	}
	return nil
}

// WriteTable writes t row by row, preceded by its column names when header is set. It does not
// flush.
func (w *Writer) WriteTable(t Table, header bool) error {
	if w == nil {
		return errNilWriter
	}
	if header {
		if err := w.Write(t.ColumnNames()); err != nil {
			return err
		}
	}
	for row, err := range t.Rows() {
		if err != nil {
			return err
		}
		if err := w.Write(Strings(row)); err != nil {
			return err
		}
	}
	return nil
}

// Flush flushes pending buffered data to the underlying writer.
func (w *Writer) Flush() error {
	if w == nil {
		return errNilWriter
	}
	if w.dst == nil {
		return errWriterNoTarget
	}
	if w.err != nil {
		return w.err
	}
	if err := w.dst.Flush(); err != nil {
		w.err = err
		return err
	}
	return nil
}

// Error reports the first error encountered by the writer.
func (w *Writer) Error() error {
	if w == nil {
		return errNilWriter
	}
	return w.err
}

func (w *Writer) comma() string {
	if w.Comma == 0 {
		return ","
	}
	return string(utf8.AppendRune(nil, w.Comma))
}

func (w *Writer) lineDelimiter() string {
	switch {
	case w.LineDelimiter != "":
		return w.LineDelimiter
	case w.UseCRLF:
		return "\r\n"
	}
	return "\n"
}

func (w *Writer) writeField(field, comma, lineDelim string, quote byte) error {
	needsQuote := w.AlwaysQuote
	if !needsQuote {
		needsQuote = fieldNeedsQuote(field, comma, lineDelim, quote)
	}
	if !needsQuote {
		_, err := w.dst.WriteString(field)
		return err
	}
	if err := w.dst.WriteByte(quote); err != nil {
		return err
	}

	start := 0
	for i := 0; i < len(field); i++ {
		if field[i] == quote {
			if start < i {
				if _, err := w.dst.WriteString(field[start:i]); err != nil {
					return err
				}
			}
			if _, err := w.dst.Write([]byte{quote, quote}); err != nil {
				return err
			}
			start = i + 1
		}
	}
	if start < len(field) {
		if _, err := w.dst.WriteString(field[start:]); err != nil {
			return err
		}
	}
	if err := w.dst.WriteByte(quote); err != nil {
		return err
	}
	return nil
}

// fieldNeedsQuote reports whether field contains anything a reader would treat as structure.
// Leading and trailing whitespace is quoted too so that trimming readers keep it. For a multi-byte
// line delimiter any occurrence of its first byte counts, since a field ending in a prefix of the
// delimiter would otherwise merge with the terminator that follows it.
func fieldNeedsQuote(field, comma, lineDelim string, quote byte) bool {
	if field == "" {
		return false
	}
	if strings.Contains(field, comma) || strings.Contains(field, lineDelim) {
		return true
	}
	if len(lineDelim) > 1 && strings.IndexByte(field, lineDelim[0]) >= 0 {
		return true
	}
	if isSpace(field[0]) || isSpace(field[len(field)-1]) {
		return true
	}
	for i := 0; i < len(field); i++ {
		switch field[i] {
		case quote, '\n', '\r':
			return true
		}
	}
	return false
}
