package dyncsv

import (
	"fmt"
	"regexp"
	"strings"
)

// QualifierAttributes is the number of schema attributes ParseQualifier expects.
const QualifierAttributes = 4

// Qualifier constrains the values a column accepts. Every part is optional; a zero Qualifier
// admits everything. Qualifiers hold no table state and may be shared between columns.
type Qualifier struct {
	// Kind is the required value kind. Values of another kind are converted through their text
	// form. KindNull accepts any kind unchanged.
	Kind Kind
	// Default fills new rows and columns. Null means the first variant or the kind's zero value.
	Default Value
	// Variants, when set, enumerates the admitted values.
	Variants []Value
	// Pattern, when set, must match the value's text form.
	Pattern *regexp.Regexp
	// Predicate, when set, must return true.
	Predicate func(Value) bool
}

// OfKind returns a qualifier that only checks the value kind.
func OfKind(kind Kind) *Qualifier {
	return &Qualifier{Kind: kind}
}

// OneOf restricts a column to variants. The default must be one of them.
func OneOf(def Value, variants ...Value) (*Qualifier, error) {
	q := &Qualifier{Kind: def.Kind(), Default: def, Variants: variants}
	if err := q.Validate(); err != nil {
		return nil, err
	}
	return q, nil
}

// Matching restricts a column to values whose text matches pattern. The default must match too.
func Matching(def Value, pattern string) (*Qualifier, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidQualifier, err)
	}
	q := &Qualifier{Kind: def.Kind(), Default: def, Pattern: re}
	if err := q.Validate(); err != nil {
		return nil, err
	}
	return q, nil
}

// Satisfying wraps a custom predicate.
func Satisfying(fn func(Value) bool) *Qualifier {
	return &Qualifier{Predicate: fn}
}

// Validate checks that the default value satisfies the rest of the qualifier.
func (q *Qualifier) Validate() error {
	if q == nil || q.Default.IsNull() {
		if q != nil && q.Kind == KindNull && (len(q.Variants) > 0 || q.Pattern != nil) {
			return fmt.Errorf("%w: variants and patterns need a default value", ErrInvalidQualifier)
		}
		return nil
	}
	if _, err := q.Qualify(q.Default); err != nil {
		return fmt.Errorf("%w: default %q does not satisfy its own rules", ErrInvalidQualifier, q.Default.String())
	}
	return nil
}

// Qualify checks v and returns the value to store, converted to Kind when needed. Rejections are
// returned as *ValidationError.
func (q *Qualifier) Qualify(v Value) (Value, error) {
	if q == nil {
		return v, nil
	}
	if q.Kind != KindNull && v.Kind() != q.Kind {
		converted, err := ParseValue(v.String(), q.Kind)
		if err != nil {
			return v, q.reject(v, "not convertible to "+q.Kind.String())
		}
		v = converted
	}
	if len(q.Variants) > 0 && !containsValue(q.Variants, v) {
		return v, q.reject(v, "not one of the allowed variants")
	}
	if q.Pattern != nil && !q.Pattern.MatchString(v.String()) {
		return v, q.reject(v, "does not match "+q.Pattern.String())
	}
	if q.Predicate != nil && !q.Predicate(v) {
		return v, q.reject(v, "predicate returned false")
	}
	return v, nil
}

// Admits reports whether v passes Qualify.
func (q *Qualifier) Admits(v Value) bool {
	_, err := q.Qualify(v)
	return err == nil
}

// DefaultValue is the fill value for a new cell in a column carrying q.
func (q *Qualifier) DefaultValue() Value {
	if q == nil {
		return Text("")
	}
	if !q.Default.IsNull() {
		return q.Default
	}
	if len(q.Variants) > 0 {
		return q.Variants[0]
	}
	if q.Kind == KindNull {
		return Text("")
	}
	zero, _ := ParseValue("", q.Kind)
	return zero
}

func (q *Qualifier) reject(v Value, reason string) error {
	return &ValidationError{Row: -1, Column: -1, Value: v, Reason: reason}
}

// ParseQualifier builds a qualifier from schema attributes in the order type, default, variants,
// pattern. Variants are separated by whitespace. Variants and pattern require a default, and a row
// may set one of them but not both.
func ParseQualifier(attrs []string) (*Qualifier, error) {
	if len(attrs) != QualifierAttributes {
		return nil, fmt.Errorf("%w: want %d attributes, got %d", ErrInvalidQualifier, QualifierAttributes, len(attrs))
	}
	kind, err := ParseKind(attrs[0])
	if err != nil {
		return nil, err
	}
	q := &Qualifier{Kind: kind}
	def, variants, pattern := attrs[1], attrs[2], attrs[3]
	if variants != "" && pattern != "" {
		return nil, fmt.Errorf("%w: variants and pattern are mutually exclusive", ErrInvalidQualifier)
	}
	if def == "" {
		if variants != "" || pattern != "" {
			return nil, fmt.Errorf("%w: variants and patterns need a default value", ErrInvalidQualifier)
		}
		return q, nil
	}
	if q.Default, err = parseAttribute(def, kind); err != nil {
		return nil, err
	}
	switch {
	case variants != "":
		for _, field := range strings.Fields(variants) {
			v, err := parseAttribute(field, kind)
			if err != nil {
				return nil, err
			}
			q.Variants = append(q.Variants, v)
		}
	case pattern != "":
		if q.Pattern, err = regexp.Compile(pattern); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidQualifier, err)
		}
	}
	if err := q.Validate(); err != nil {
		return nil, err
	}
	return q, nil
}

// Attributes is the inverse of ParseQualifier. A qualifier carrying both variants and a pattern
// renders both, which ParseQualifier rejects.
func (q *Qualifier) Attributes() []string {
	if q == nil {
		return []string{KindNull.String(), "", "", ""}
	}
	attrs := []string{q.Kind.String(), "", "", ""}
	if !q.Default.IsNull() {
		attrs[1] = q.Default.String()
	}
	attrs[2] = strings.Join(Strings(q.Variants), " ")
	if q.Pattern != nil {
		attrs[3] = q.Pattern.String()
	}
	return attrs
}

func parseAttribute(s string, kind Kind) (Value, error) {
	if kind == KindNull {
		return InferValue(s), nil
	}
	v, err := ParseValue(s, kind)
	if err != nil {
		return Null(), fmt.Errorf("%w: %v", ErrInvalidQualifier, err)
	}
	return v, nil
}

func containsValue(values []Value, v Value) bool {
	for _, candidate := range values {
		if candidate.Equal(v) {
			return true
		}
	}
	return false
}
