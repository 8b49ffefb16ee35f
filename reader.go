package dyncsv

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"iter"
	"log/slog"
	"strings"
	"unicode/utf8"
	"unsafe"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

const defaultBufferSize = 1 << 10 // 1024 bytes

var (
	// ErrBareQuote is returned when a quote appears inside an unquoted field.
	ErrBareQuote = errors.New("dyncsv: bare quote in non-quoted field")
	// ErrQuote is returned when a closing quote is followed by something other than a delimiter.
	ErrQuote = errors.New("dyncsv: extraneous character after closing quote")
	// ErrUnterminatedQuote is returned when a quoted field is still open at EOF.
	ErrUnterminatedQuote = errors.New("dyncsv: unterminated quoted field")
	// ErrFieldCount is returned when a record contains an unexpected number of fields.
	ErrFieldCount = errors.New("dyncsv: wrong number of fields")
	// ErrInvalidUTF8 is returned in strict mode for records that are not valid UTF-8.
	ErrInvalidUTF8 = errors.New("dyncsv: invalid UTF-8 in record")
)

// ParseError contains location information for parsing errors. Record counts logical rows from 1,
// header included. Column is the byte offset within the line, or zero when the error concerns the
// whole record.
type ParseError struct {
	Record int
	Line   int
	Column int
	Err    error
}

// Error formats the parse error message with the stored record, line, column, and Err values.
func (e *ParseError) Error() string {
	if e == nil {
		return ""
	}
	if e.Column == 0 {
		return fmt.Sprintf("dyncsv: parse error on record %d, line %d: %v", e.Record, e.Line, e.Err)
	}
	return fmt.Sprintf("dyncsv: parse error on record %d, line %d, column %d: %v", e.Record, e.Line, e.Column, e.Err)
}

// Unwrap returns the underlying Err so ParseError participates in errors.Unwrap.
func (e *ParseError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// scanner states
const (
	stateFieldStart = iota
	stateUnquoted
	stateQuoted
	stateQuoteSeen
	stateAfterQuoted
	stateLineEnd
)

// Reader parses delimiter-separated records. Configure the exported fields before the first call
// to Read, Header, ReadAll or Records; later changes are ignored.
type Reader struct {
	src io.Reader

	// Comma is the field delimiter. Default is ','.
	Comma rune
	// Quote is the quote character. Default is '"'.
	Quote byte
	// LineDelimiter terminates records. Empty means "\n", "\r\n" or a lone "\r".
	LineDelimiter string
	// HasHeader captures the first record as column names instead of data.
	HasHeader bool
	// CustomHeader supplies column names explicitly and overrides HasHeader. The first record is data.
	CustomHeader []string
	// Trim strips whitespace around unquoted fields. Quoted content is never trimmed.
	Trim bool
	// ConsumeQuotes strips enclosing quotes and unescapes doubled quotes. When false the raw field
	// text, quotes included, is returned.
	ConsumeQuotes bool
	// IgnoreEmptyRows skips records with no content.
	IgnoreEmptyRows bool
	// Lenient repairs malformed input instead of failing: stray quotes become content, an open quote
	// at EOF is closed, records are padded or truncated to FieldsPerRecord and invalid UTF-8 is
	// replaced with U+FFFD.
	Lenient bool
	// ReuseRecord indicates whether Read should reuse the backing array of the returned slice.
	ReuseRecord bool
	// FieldsPerRecord expects each record to contain this many fields. Zero captures the width of the
	// header or first record; a negative value disables the check.
	FieldsPerRecord int
	// Logger receives a warning for every record repaired in lenient mode. Nil discards.
	Logger *slog.Logger

	in        *bufio.Reader
	comma     []byte
	quote     byte
	lineDelim []byte

	header   []string
	pending  []string
	prepared bool

	record      []string
	dataBuf     []byte
	fieldBounds []int
	quoted      []bool
	finished    bool
	repaired    string

	line       int
	column     int
	records    int
	recordLine int
}

// NewReader creates a Reader that consumes data from r, panicking if r is nil.
func NewReader(r io.Reader) *Reader {
	if r == nil {
		panic("dyncsv: reader source cannot be nil")
	}

	return &Reader{
		src:         r,
		Comma:       ',',
		Quote:       '"',
		record:      make([]string, 0, 16),
		dataBuf:     make([]byte, 0, 512),
		fieldBounds: make([]int, 0, 32),
		quoted:      make([]bool, 0, 16),
		line:        1,
	}
}

// Header returns the column names: the custom header, the first record when HasHeader is set, or
// generated labels (a, b, ..., z, aa, ...) sized to the first record. It returns nil for empty input.
func (r *Reader) Header() ([]string, error) {
	if r == nil || r.src == nil {
		return nil, nil
	}
	if err := r.prepare(); err != nil {
		return nil, err
	}
	return r.header, nil
}

// Read returns the next data record. The header row is never returned; io.EOF signals that no
// more records remain. With a field count mismatch in strict mode the record is returned together
// with a *ParseError wrapping ErrFieldCount.
func (r *Reader) Read() (record []string, err error) {
	if r == nil || r.src == nil {
		return nil, io.EOF
	}
	if err := r.prepare(); err != nil {
		return nil, err
	}
	if r.pending != nil {
		record, r.pending = r.pending, nil
		if r.ReuseRecord {
			r.record = append(r.record[:0], record...)
			record = r.record
		}
		return r.fit(record)
	}
	record, err = r.nextRecord()
	if err != nil {
		return nil, err
	}
	return r.fit(record)
}

// ReadAll exhausts the reader, repeatedly calling Read to collect records until io.EOF
// and returning the accumulated records slice plus the first non-EOF error encountered.
func (r *Reader) ReadAll() (records [][]string, err error) {
	for {
		record, err := r.Read()
		if err == io.EOF {
			return records, nil
		}
		if err != nil {
			return nil, err
		}
		if r.ReuseRecord {
			record = cloneStrings(record)
		}
		records = append(records, record)
	}
}

// Records returns the remaining data records as a lazy sequence. Iteration stops after the first
// error. Parsing is single pass: to start over, create a new Reader.
func (r *Reader) Records() iter.Seq2[[]string, error] {
	return func(yield func([]string, error) bool) {
		for {
			record, err := r.Read()
			if err == io.EOF {
				return
			}
			if !yield(record, err) || err != nil {
				return
			}
		}
	}
}

// Line reports the current physical line of the input.
func (r *Reader) Line() int {
	return r.line
}

// init resolves defaults and wraps the source once. A UTF-8 BOM is dropped and a UTF-16 BOM switches
// decoding; in lenient mode invalid UTF-8 is replaced on the fly.
func (r *Reader) init() {
	if r.in != nil {
		return
	}
	var fallback transform.Transformer = transform.Nop
	if r.Lenient {
		fallback = unicode.UTF8.NewDecoder()
	}
	r.in = bufio.NewReaderSize(transform.NewReader(r.src, unicode.BOMOverride(fallback)), defaultBufferSize)

	comma := r.Comma
	if comma == 0 {
		comma = ','
	}
	r.comma = utf8.AppendRune(nil, comma)
	r.quote = r.Quote
	if r.quote == 0 {
		r.quote = '"'
	}
	if r.LineDelimiter != "" {
		r.lineDelim = []byte(r.LineDelimiter)
	}
	if r.line == 0 {
		r.line = 1
	}
}

// prepare settles the header before the first data record is handed out.
func (r *Reader) prepare() error {
	if r.prepared {
		return nil
	}
	r.init()
	r.prepared = true

	switch {
	case r.CustomHeader != nil:
		r.header = cloneStrings(r.CustomHeader)
	case r.HasHeader:
		record, err := r.nextRecord()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		r.header = cloneStrings(record)
	default:
		record, err := r.nextRecord()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		r.pending = cloneStrings(record)
		r.header = ColumnLabels(len(record))
		return nil
	}
	if r.FieldsPerRecord == 0 {
		r.FieldsPerRecord = len(r.header)
	}
	return nil
}

// nextRecord scans records until one survives empty-row filtering and encoding checks.
func (r *Reader) nextRecord() ([]string, error) {
	for {
		if err := r.scanRecord(); err != nil {
			return nil, err
		}
		if r.IgnoreEmptyRows && r.emptyRecord() {
			continue
		}
		if !r.Lenient && !utf8.Valid(r.dataBuf) {
			return nil, r.wrapRecordError(ErrInvalidUTF8)
		}
		if r.repaired != "" {
			r.logger().Warn("dyncsv: repaired malformed record",
				"record", r.records,
				"line", r.recordLine,
				"reason", r.repaired,
			)
		}
		return r.buildRecord(), nil
	}
}

// scanRecord runs the field state machine over one logical record, filling dataBuf and
// fieldBounds. Delimiters inside quoted fields are content.
func (r *Reader) scanRecord() error {
	if r.finished {
		return io.EOF
	}

	r.dataBuf = r.dataBuf[:0]
	r.fieldBounds = r.fieldBounds[:0]
	r.quoted = r.quoted[:0]
	r.repaired = ""
	r.recordLine = r.line

	quote := r.quote
	state := stateFieldStart
	fieldStart := 0
	fieldQuoted := false
	sawInput := false

	endField := func() {
		r.endField(fieldStart, fieldQuoted)
		fieldStart = len(r.dataBuf)
		fieldQuoted = false
	}

	for state != stateLineEnd {
		b, err := r.readByte()
		if err != nil {
			if err != io.EOF {
				return err
			}
			r.finished = true
			switch state {
			case stateFieldStart:
				if !sawInput {
					return io.EOF
				}
			case stateQuoted:
				if !r.Lenient {
					r.records++
					return r.wrapError(r.column+1, ErrUnterminatedQuote)
				}
				r.repaired = "unterminated quote closed at end of input"
				if !r.ConsumeQuotes {
					r.dataBuf = append(r.dataBuf, quote)
				}
			case stateQuoteSeen:
				if !r.ConsumeQuotes {
					r.dataBuf = append(r.dataBuf, quote)
				}
			}
			endField()
			break
		}
		sawInput = true

		switch state {
		case stateFieldStart, stateUnquoted:
			atEnd, err := r.atLineEnd(b)
			if err != nil {
				return err
			}
			if atEnd {
				endField()
				state = stateLineEnd
				continue
			}
			isComma, err := r.atComma(b)
			if err != nil {
				return err
			}
			if isComma {
				endField()
				state = stateFieldStart
				continue
			}
			if state == stateFieldStart {
				if b == quote {
					state = stateQuoted
					fieldQuoted = true
					if !r.ConsumeQuotes {
						r.dataBuf = append(r.dataBuf, quote)
					}
					continue
				}
				if r.Trim && isSpace(b) {
					continue
				}
				state = stateUnquoted
			}
			if b == quote {
				if !r.Lenient {
					r.records++
					return r.wrapError(r.column, ErrBareQuote)
				}
				r.repaired = "bare quote kept as content"
			}
			r.dataBuf = append(r.dataBuf, b)

		case stateQuoted:
			if b == quote {
				state = stateQuoteSeen
				continue
			}
			r.dataBuf = append(r.dataBuf, b)

		case stateQuoteSeen:
			if b == quote {
				// Doubled quote is an escaped literal quote.
				if !r.ConsumeQuotes {
					r.dataBuf = append(r.dataBuf, quote)
				}
				r.dataBuf = append(r.dataBuf, quote)
				state = stateQuoted
				continue
			}
			if !r.ConsumeQuotes {
				r.dataBuf = append(r.dataBuf, quote)
			}
			atEnd, err := r.atLineEnd(b)
			if err != nil {
				return err
			}
			if atEnd {
				endField()
				state = stateLineEnd
				continue
			}
			isComma, err := r.atComma(b)
			if err != nil {
				return err
			}
			if isComma {
				endField()
				state = stateFieldStart
				continue
			}
			if r.Trim && isSpace(b) {
				state = stateAfterQuoted
				continue
			}
			if !r.Lenient {
				r.records++
				return r.wrapError(r.column, ErrQuote)
			}
			// The quote did not close the field after all.
			r.repaired = "stray quote inside quoted field kept as content"
			if r.ConsumeQuotes {
				r.dataBuf = append(r.dataBuf, quote)
			}
			r.dataBuf = append(r.dataBuf, b)
			state = stateQuoted

		case stateAfterQuoted:
			atEnd, err := r.atLineEnd(b)
			if err != nil {
				return err
			}
			if atEnd {
				endField()
				state = stateLineEnd
				continue
			}
			isComma, err := r.atComma(b)
			if err != nil {
				return err
			}
			if isComma {
				endField()
				state = stateFieldStart
				continue
			}
			if isSpace(b) {
				continue
			}
			if !r.Lenient {
				r.records++
				return r.wrapError(r.column, ErrQuote)
			}
			r.repaired = "text after closing quote kept as content"
			r.dataBuf = append(r.dataBuf, b)
			state = stateUnquoted
		}
	}
	r.records++
	return nil
}

// endField records the bounds of the field that started at start, trimming unquoted content.
func (r *Reader) endField(start int, quoted bool) {
	end := len(r.dataBuf)
	if r.Trim && !quoted {
		for start < end && isSpace(r.dataBuf[start]) {
			start++
		}
		for end > start && isSpace(r.dataBuf[end-1]) {
			end--
		}
	}
	r.fieldBounds = append(r.fieldBounds, start, end)
	r.quoted = append(r.quoted, quoted)
}

// emptyRecord reports whether the scanned record has no content at all.
func (r *Reader) emptyRecord() bool {
	return len(r.quoted) == 1 && !r.quoted[0] && r.fieldBounds[0] == r.fieldBounds[1]
}

// atLineEnd reports whether b starts the line delimiter, consuming the rest of it when it does.
func (r *Reader) atLineEnd(b byte) (bool, error) {
	if r.lineDelim == nil {
		switch b {
		case '\n':
			return true, nil
		case '\r':
			// Support CRLF by peeking ahead for '\n' and consuming it together.
			crlf, err := r.follows([]byte{'\n'})
			if err != nil {
				return false, err
			}
			if !crlf {
				r.line++
				r.column = 0
			}
			return true, nil
		}
		return false, nil
	}
	if b != r.lineDelim[0] {
		return false, nil
	}
	return r.follows(r.lineDelim[1:])
}

// atComma reports whether b starts the field delimiter, consuming the rest of it when it does.
func (r *Reader) atComma(b byte) (bool, error) {
	if b != r.comma[0] {
		return false, nil
	}
	return r.follows(r.comma[1:])
}

// follows consumes rest if the buffered input starts with it.
func (r *Reader) follows(rest []byte) (bool, error) {
	if len(rest) == 0 {
		return true, nil
	}
	next, err := r.in.Peek(len(rest))
	if len(next) < len(rest) {
		if err != nil && err != io.EOF && err != bufio.ErrBufferFull {
			return false, err
		}
		return false, nil
	}
	for i := range rest {
		if next[i] != rest[i] {
			return false, nil
		}
	}
	for _, c := range next {
		r.track(c)
	}
	_, err = r.in.Discard(len(rest))
	return true, err
}

func (r *Reader) readByte() (byte, error) {
	b, err := r.in.ReadByte()
	if err != nil {
		return 0, err
	}
	r.track(b)
	return b, nil
}

// track keeps line and column in step with consumed bytes.
func (r *Reader) track(b byte) {
	if b == '\n' {
		r.line++
		r.column = 0
		return
	}
	r.column++
}

// buildRecord maps the accumulated fieldBounds onto the data buffer, respecting ReuseRecord,
// and returns the materialised []string representing the current record.
func (r *Reader) buildRecord() []string {
	fieldCount := len(r.fieldBounds) / 2

	var recordStr string
	if r.ReuseRecord {
		if len(r.dataBuf) == 0 {
			recordStr = ""
		} else {
			// Zero-copy string construction so fields can share a single backing buffer.
			recordStr = unsafe.String(unsafe.SliceData(r.dataBuf), len(r.dataBuf))
		}
		if cap(r.record) < fieldCount {
			r.record = make([]string, fieldCount)
		}
		r.record = r.record[:fieldCount]
	} else {
		recordStr = string(r.dataBuf)
		r.record = make([]string, fieldCount)
	}

	for i := 0; i < fieldCount; i++ {
		start := r.fieldBounds[2*i]
		end := r.fieldBounds[2*i+1]
		r.record[i] = recordStr[start:end]
	}
	return r.record
}

// fit enforces FieldsPerRecord, padding or truncating in lenient mode.
func (r *Reader) fit(record []string) ([]string, error) {
	if r.FieldsPerRecord == 0 {
		r.FieldsPerRecord = len(record)
		return record, nil
	}
	if r.FieldsPerRecord < 0 || len(record) == r.FieldsPerRecord {
		return record, nil
	}
	if !r.Lenient {
		return record, r.wrapRecordError(ErrFieldCount)
	}
	r.logger().Warn("dyncsv: adjusted record width",
		"record", r.records,
		"line", r.recordLine,
		"fields", len(record),
		"want", r.FieldsPerRecord,
	)
	if len(record) > r.FieldsPerRecord {
		return record[:r.FieldsPerRecord], nil
	}
	for len(record) < r.FieldsPerRecord {
		record = append(record, "")
	}
	return record, nil
}

// wrapError attaches the current record, line and supplied column to err, producing a *ParseError.
func (r *Reader) wrapError(column int, err error) error {
	return &ParseError{Record: r.records, Line: r.line, Column: column, Err: err}
}

// wrapRecordError reports err against the line where the current record started.
func (r *Reader) wrapRecordError(err error) error {
	return &ParseError{Record: r.records, Line: r.recordLine, Err: err}
}

func (r *Reader) logger() *slog.Logger {
	if r.Logger != nil {
		return r.Logger
	}
	return discardLogger
}

var discardLogger = slog.New(slog.DiscardHandler)

// ColumnLabels generates n spreadsheet-style labels: a..z, then aa..zz, then aaa and so on.
func ColumnLabels(n int) []string {
	labels := make([]string, n)
	for i := range labels {
		letter := string(rune('a' + i%26))
		labels[i] = strings.Repeat(letter, i/26+1)
	}
	return labels
}

func isSpace(b byte) bool {
	switch b {
	case ' ', '\t', '\v', '\f', '\r', '\n':
		return true
	}
	return false
}

func cloneStrings(rec []string) []string {
	if rec == nil {
		return nil
	}
	out := make([]string, len(rec))
	for i, s := range rec {
		out[i] = string([]byte(s))
	}
	return out
}
