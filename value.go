package dyncsv

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// Kind tags the variant held by a Value.
type Kind uint8

const (
	KindNull Kind = iota
	KindBool
	KindInt
	KindFloat
	KindText
)

var kindNames = [...]string{
	KindNull:  "null",
	KindBool:  "bool",
	KindInt:   "int",
	KindFloat: "float",
	KindText:  "text",
}

// String returns the lower-case kind name used by schema files.
func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "kind(" + strconv.Itoa(int(k)) + ")"
}

// ParseKind maps a schema type name back to a Kind. "number" and "integer" are accepted as KindInt
// and "any" as KindNull.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "null", "any", "":
		return KindNull, nil
	case "bool", "boolean":
		return KindBool, nil
	case "int", "integer", "number":
		return KindInt, nil
	case "float", "decimal":
		return KindFloat, nil
	case "text", "string":
		return KindText, nil
	}
	return KindNull, fmt.Errorf("%w: unknown type %q", ErrInvalidQualifier, s)
}

// Value is an immutable cell. The zero Value is Null.
type Value struct {
	kind Kind
	b    bool
	i    int64
	d    decimal.Decimal
	s    string
}

// Null returns the empty value.
func Null() Value { return Value{} }

// Bool wraps a boolean.
func Bool(b bool) Value { return Value{kind: KindBool, b: b} }

// Int wraps a signed integer.
func Int(i int64) Value { return Value{kind: KindInt, i: i} }

// Float wraps a floating point number. The value is stored as a decimal so its text form is stable.
func Float(f float64) Value { return Value{kind: KindFloat, d: decimal.NewFromFloat(f)} }

// Decimal wraps an exact decimal as a Float value.
func Decimal(d decimal.Decimal) Value { return Value{kind: KindFloat, d: d} }

// Text wraps a string.
func Text(s string) Value { return Value{kind: KindText, s: s} }

// Kind reports which variant v holds.
func (v Value) Kind() Kind { return v.kind }

// IsNull reports whether v is the empty value.
func (v Value) IsNull() bool { return v.kind == KindNull }

// AsBool returns the boolean held by v.
func (v Value) AsBool() (bool, bool) {
	return v.b, v.kind == KindBool
}

// AsInt returns v as an int64. Float values convert only when they carry no fraction.
func (v Value) AsInt() (int64, bool) {
	switch v.kind {
	case KindInt:
		return v.i, true
	case KindFloat:
		if v.d.IsInteger() {
			return v.d.IntPart(), true
		}
	}
	return 0, false
}

// AsFloat returns numeric values as float64.
func (v Value) AsFloat() (float64, bool) {
	switch v.kind {
	case KindInt:
		return float64(v.i), true
	case KindFloat:
		return v.d.InexactFloat64(), true
	}
	return 0, false
}

// AsDecimal returns numeric values as exact decimals.
func (v Value) AsDecimal() (decimal.Decimal, bool) {
	switch v.kind {
	case KindInt:
		return decimal.NewFromInt(v.i), true
	case KindFloat:
		return v.d, true
	}
	return decimal.Zero, false
}

// String renders v in the form ParseValue accepts for the same kind.
func (v Value) String() string {
	switch v.kind {
	case KindBool:
		return strconv.FormatBool(v.b)
	case KindInt:
		return strconv.FormatInt(v.i, 10)
	case KindFloat:
		if exp := v.d.Exponent(); exp < 0 {
			return v.d.StringFixed(-exp)
		}
		return v.d.String()
	case KindText:
		return v.s
	}
	return ""
}

// GoString makes %#v output readable in test failures.
func (v Value) GoString() string {
	if v.kind == KindNull {
		return "dyncsv.Null()"
	}
	return fmt.Sprintf("dyncsv.%s(%q)", v.kind, v.String())
}

// Equal reports whether v and o hold the same kind and the same value.
func (v Value) Equal(o Value) bool {
	return v.Compare(o) == 0
}

// Compare orders values totally: Null < Bool < numbers < Text. Int and Float share one numeric
// scale. When magnitudes tie, Int sorts before Float so that Compare is zero only for equal values.
func (v Value) Compare(o Value) int {
	if rv, ro := v.rank(), o.rank(); rv != ro {
		if rv < ro {
			return -1
		}
		return 1
	}
	switch v.kind {
	case KindNull:
		return 0
	case KindBool:
		switch {
		case v.b == o.b:
			return 0
		case !v.b:
			return -1
		}
		return 1
	case KindText:
		return strings.Compare(v.s, o.s)
	}
	a, _ := v.AsDecimal()
	b, _ := o.AsDecimal()
	if c := a.Cmp(b); c != 0 {
		return c
	}
	switch {
	case v.kind == o.kind:
		return 0
	case v.kind == KindInt:
		return -1
	}
	return 1
}

func (v Value) rank() int {
	switch v.kind {
	case KindNull:
		return 0
	case KindBool:
		return 1
	case KindInt, KindFloat:
		return 2
	}
	return 3
}

// ParseValue converts s into a Value of the requested kind. An empty string yields the kind's zero
// value. A Null kind accepts only the empty string.
func ParseValue(s string, kind Kind) (Value, error) {
	switch kind {
	case KindText:
		return Text(s), nil
	case KindNull:
		if s == "" {
			return Null(), nil
		}
	case KindBool:
		if s == "" {
			return Bool(false), nil
		}
		if b, err := strconv.ParseBool(s); err == nil {
			return Bool(b), nil
		}
	case KindInt:
		if s == "" {
			return Int(0), nil
		}
		if i, err := strconv.ParseInt(s, 10, 64); err == nil {
			return Int(i), nil
		}
	case KindFloat:
		if s == "" {
			return Decimal(decimal.Zero), nil
		}
		if d, err := decimal.NewFromString(s); err == nil {
			return Decimal(d), nil
		}
	}
	return Null(), fmt.Errorf("%w: %q is not a valid %s", ErrValidation, s, kind)
}

// InferValue picks the narrowest kind that represents s: Int, then Float, then Bool ("true"/"false"
// only), and Text otherwise. The empty string infers to Null.
func InferValue(s string) Value {
	if s == "" {
		return Null()
	}
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return Int(i)
	}
	if looksNumeric(s) {
		if d, err := decimal.NewFromString(s); err == nil {
			return Decimal(d)
		}
	}
	if strings.EqualFold(s, "true") {
		return Bool(true)
	}
	if strings.EqualFold(s, "false") {
		return Bool(false)
	}
	return Text(s)
}

// looksNumeric filters out strings such as "e5" that decimal would otherwise accept.
func looksNumeric(s string) bool {
	digits := false
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= '0' && c <= '9':
			digits = true
		case c == '-' || c == '+' || c == '.' || c == 'e' || c == 'E':
		default:
			return false
		}
	}
	return digits && s[0] != 'e' && s[0] != 'E'
}

// Values wraps each string as Text.
func Values(fields ...string) []Value {
	out := make([]Value, len(fields))
	for i, f := range fields {
		out[i] = Text(f)
	}
	return out
}

// Strings renders each value with String.
func Strings(values []Value) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = v.String()
	}
	return out
}
