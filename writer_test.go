package dyncsv

import (
	"bytes"
	"errors"
	"reflect"
	"strings"
	"testing"
)

func TestWriterWrite(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		records [][]string
		config  func(*Writer)
		want    string
	}{
		{
			name:    "basic",
			records: [][]string{{"a", "b", "c"}},
			want:    "a,b,c\n",
		},
		{
			name: "multipleRecords",
			records: [][]string{
				{"alpha", "beta"},
				{"gamma", "delta"},
			},
			want: "alpha,beta\ngamma,delta\n",
		},
		{
			name:    "emptyField",
			records: [][]string{{"", "b"}},
			want:    ",b\n",
		},
		{
			name:    "commaForcesQuote",
			records: [][]string{{"alpha,beta"}},
			want:    "\"alpha,beta\"\n",
		},
		{
			name: "quoteEscaping",
			records: [][]string{
				{"he said \"hello\"", "plain"},
			},
			want: "\"he said \"\"hello\"\"\",plain\n",
		},
		{
			name: "newlineForcesQuote",
			records: [][]string{
				{"multi\nline", "z"},
			},
			want: "\"multi\nline\",z\n",
		},
		{
			name:    "surroundingSpaceForcesQuote",
			records: [][]string{{" padded", "tail "}},
			want:    "\" padded\",\"tail \"\n",
		},
		{
			name: "alwaysQuote",
			records: [][]string{
				{"alpha", "beta"},
			},
			config: func(w *Writer) {
				w.AlwaysQuote = true
			},
			want: "\"alpha\",\"beta\"\n",
		},
		{
			name: "customComma",
			records: [][]string{
				{"a;b", "c"},
			},
			config: func(w *Writer) {
				w.Comma = ';'
			},
			want: "\"a;b\";c\n",
		},
		{
			name:    "runeComma",
			records: [][]string{{"a", "b∷c"}},
			config: func(w *Writer) {
				w.Comma = '∷'
			},
			want: "a∷\"b∷c\"\n",
		},
		{
			name: "customQuote",
			records: [][]string{
				{"alpha'beta", "plain"},
			},
			config: func(w *Writer) {
				w.Quote = '\''
			},
			want: "'alpha''beta',plain\n",
		},
		{
			name: "useCRLF",
			records: [][]string{
				{"a"},
				{"b"},
			},
			config: func(w *Writer) {
				w.UseCRLF = true
			},
			want: "a\r\nb\r\n",
		},
		{
			name: "customLineDelimiter",
			records: [][]string{
				{"a", "b|c"},
				{"1", "2"},
			},
			config: func(w *Writer) {
				w.LineDelimiter = "|"
			},
			want: "a,\"b|c\"|1,2|",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			var buf bytes.Buffer
			w := NewWriter(&buf)
			if tc.config != nil {
				tc.config(w)
			}
			for _, rec := range tc.records {
				if err := w.Write(rec); err != nil {
					t.Fatalf("Write() error = %v", err)
				}
			}
			if err := w.Flush(); err != nil {
				t.Fatalf("Flush() error = %v", err)
			}
			if got := buf.String(); got != tc.want {
				t.Fatalf("unexpected output:\n got: %q\nwant: %q", got, tc.want)
			}
		})
	}
}

func TestWriterReaderRoundTrip(t *testing.T) {
	t.Parallel()

	records := [][]string{
		{"plain", "with,comma", "with \"quote\""},
		{" lead", "trail ", "multi\nline"},
		{"", "x;y", "∷"},
	}

	var buf bytes.Buffer
	w := NewWriter(&buf)
	w.Comma = ';'
	w.LineDelimiter = "\r\n"
	if err := w.WriteAll(records); err != nil {
		t.Fatalf("WriteAll() error = %v", err)
	}
	if err := w.Flush(); err != nil {
		t.Fatalf("Flush() error = %v", err)
	}

	r := NewReader(&buf)
	r.Comma = ';'
	r.LineDelimiter = "\r\n"
	r.ConsumeQuotes = true
	r.Trim = true
	got, err := r.ReadAll()
	if err != nil {
		t.Fatalf("ReadAll() error = %v", err)
	}
	if !reflect.DeepEqual(got, records) {
		t.Fatalf("round trip mismatch:\n got: %#v\nwant: %#v", got, records)
	}
}

func TestWriterReaderRoundTripSelfOverlappingDelimiter(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		lineDelim string
		records   [][]string
	}{
		{
			name:      "fieldEndsWithPrefix",
			lineDelim: "||",
			records:   [][]string{{"x", "a|"}, {"b", "c"}},
		},
		{
			name:      "fieldHoldsLoneByte",
			lineDelim: "||",
			records:   [][]string{{"|", "a|b"}, {"|x", "y"}},
		},
		{
			name:      "crlfFieldEndsWithCR",
			lineDelim: "\r\n",
			records:   [][]string{{"a\r", "b"}, {"c", "d"}},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			var buf bytes.Buffer
			w := NewWriter(&buf)
			w.LineDelimiter = tc.lineDelim
			if err := w.WriteAll(tc.records); err != nil {
				t.Fatalf("WriteAll() error = %v", err)
			}
			if err := w.Flush(); err != nil {
				t.Fatalf("Flush() error = %v", err)
			}

			r := NewReader(bytes.NewReader(buf.Bytes()))
			r.LineDelimiter = tc.lineDelim
			r.ConsumeQuotes = true
			got, err := r.ReadAll()
			if err != nil {
				t.Fatalf("ReadAll(%q) error = %v", buf.String(), err)
			}
			if !reflect.DeepEqual(got, tc.records) {
				t.Fatalf("round trip of %q mismatch:\n got: %#v\nwant: %#v", buf.String(), got, tc.records)
			}
		})
	}
}

func TestWriterReaderRoundTripTables(t *testing.T) {
	t.Parallel()

	for name, factory := range tableFactories {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			src, err := factory("id", "label", "note")
			if err != nil {
				t.Fatalf("factory error = %v", err)
			}
			rows := [][]Value{
				Values("1", "plain", ""),
				Values("2", "with,comma", "say \"hi\""),
				Values("3", " padded ", "multi\nline"),
			}
			for i, row := range rows {
				if err := src.InsertRow(i, row); err != nil {
					t.Fatalf("InsertRow() error = %v", err)
				}
			}

			var buf bytes.Buffer
			w := NewWriter(&buf)
			if err := w.WriteTable(src, true); err != nil {
				t.Fatalf("WriteTable() error = %v", err)
			}
			if err := w.Flush(); err != nil {
				t.Fatalf("Flush() error = %v", err)
			}

			read := func() (Table, error) {
				r := NewReader(bytes.NewReader(buf.Bytes()))
				r.HasHeader = true
				r.ConsumeQuotes = true
				if name == "map" {
					return ReadMapTable(r, LoadOptions{})
				}
				return ReadArrayTable(r, LoadOptions{})
			}
			got, err := read()
			if err != nil {
				t.Fatalf("read back error = %v", err)
			}
			if !EqualTables(src, got) {
				t.Fatalf("round trip mismatch:\n got: %q\nwant: %q", Records(got), Records(src))
			}
		})
	}
}

func TestWriterWriteTable(t *testing.T) {
	t.Parallel()

	tbl := NewArrayTable("id", "name", "id")
	rows := [][]Value{
		{Int(1), Text("Ann, Jr."), Bool(true)},
		{Int(2), Null(), Float(2.5)},
	}
	for i, row := range rows {
		if err := tbl.InsertRow(i, row); err != nil {
			t.Fatalf("InsertRow() error = %v", err)
		}
	}

	var buf bytes.Buffer
	w := NewWriter(&buf)
	if err := w.WriteTable(tbl, true); err != nil {
		t.Fatalf("WriteTable() error = %v", err)
	}
	if err := w.Flush(); err != nil {
		t.Fatalf("Flush() error = %v", err)
	}

	want := "id,name,id\n1,\"Ann, Jr.\",true\n2,,2.5\n"
	if got := buf.String(); got != want {
		t.Fatalf("unexpected output:\n got: %q\nwant: %q", got, want)
	}
}

func TestWriterWriteAll(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	w := NewWriter(&buf)

	records := [][]string{
		{"alpha", "beta"},
		{"gamma", "delta"},
	}

	if err := w.WriteAll(records); err != nil {
		t.Fatalf("WriteAll() error = %v", err)
	}
	if err := w.Flush(); err != nil {
		t.Fatalf("Flush() error = %v", err)
	}

	want := "alpha,beta\ngamma,delta\n"
	if got := buf.String(); got != want {
		t.Fatalf("unexpected output got %q want %q", got, want)
	}
}

func TestWriterReset(t *testing.T) {
	t.Parallel()

	var buf1 bytes.Buffer
	var buf2 bytes.Buffer

	var w Writer
	w.Reset(&buf1)

	if err := w.Write([]string{"a"}); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	if err := w.Flush(); err != nil {
		t.Fatalf("Flush() error = %v", err)
	}
	if got := buf1.String(); got != "a\n" {
		t.Fatalf("unexpected buf1 contents %q", got)
	}

	w.Comma = ';'
	w.UseCRLF = true
	w.Reset(&buf2)
	if err := w.Write([]string{"x", "y"}); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	if err := w.Flush(); err != nil {
		t.Fatalf("Flush() error = %v", err)
	}
	if got := buf2.String(); got != "x;y\r\n" {
		t.Fatalf("unexpected buf2 contents %q", got)
	}
}

type flushFailWriter struct {
	fail error
}

func (f *flushFailWriter) Write([]byte) (int, error) {
	return 0, f.fail
}

func TestWriterFlushError(t *testing.T) {
	t.Parallel()

	exp := errors.New("flush failed")
	w := NewWriter(&flushFailWriter{fail: exp})

	if err := w.Write([]string{"a"}); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	if err := w.Flush(); !errors.Is(err, exp) {
		t.Fatalf("expected flush error %v, got %v", exp, err)
	}
	if err := w.Write([]string{"b"}); !errors.Is(err, exp) {
		t.Fatalf("Write() should return stored error %v, got %v", exp, err)
	}
}

func TestWriterErrorMethod(t *testing.T) {
	t.Parallel()

	w := NewWriter(&strings.Builder{})
	if err := w.Error(); err != nil {
		t.Fatalf("expected nil error from fresh writer, got %v", err)
	}

	exp := errors.New("flush failed")
	w.Reset(&flushFailWriter{fail: exp})
	if err := w.Write([]string{"a"}); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	if err := w.Flush(); !errors.Is(err, exp) {
		t.Fatalf("expected flush error %v, got %v", exp, err)
	}
	if err := w.Error(); !errors.Is(err, exp) {
		t.Fatalf("Error() should return %v, got %v", exp, err)
	}
}
