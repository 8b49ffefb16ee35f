package dyncsv

import (
	"errors"
	"fmt"
)

var (
	// ErrOutOfRange is returned when a row or column index is outside the table.
	ErrOutOfRange = errors.New("dyncsv: index out of range")
	// ErrShape is returned when a row does not have one value per column.
	ErrShape = errors.New("dyncsv: row length does not match column count")
	// ErrDuplicateName is returned when a column name is already taken.
	ErrDuplicateName = errors.New("dyncsv: duplicate column name")
	// ErrNumericName is returned for column names that parse as integers. It matches ErrDuplicateName
	// under errors.Is because such a name would collide with positional addressing.
	ErrNumericName = fmt.Errorf("%w: numeric names are reserved for column indices", ErrDuplicateName)
	// ErrValidation is the root of every qualifier rejection.
	ErrValidation = errors.New("dyncsv: value rejected by qualifier")
	// ErrInvalidQualifier is returned when a qualifier contradicts itself.
	ErrInvalidQualifier = errors.New("dyncsv: invalid qualifier")
	// ErrConcurrentModification is yielded by Rows when the table changed shape mid-iteration.
	ErrConcurrentModification = errors.New("dyncsv: table modified during iteration")
)

// ValidationError reports a value that a column's qualifier refused.
type ValidationError struct {
	Row    int
	Column int
	Name   string
	Value  Value
	Reason string
}

// Error formats the rejected value with its cell location when one is known.
func (e *ValidationError) Error() string {
	if e == nil {
		return ""
	}
	if e.Name == "" && e.Row < 0 {
		return fmt.Sprintf("dyncsv: %q rejected: %s", e.Value.String(), e.Reason)
	}
	return fmt.Sprintf("dyncsv: %q rejected at row %d, column %d (%s): %s", e.Value.String(), e.Row, e.Column, e.Name, e.Reason)
}

// Unwrap returns ErrValidation.
func (e *ValidationError) Unwrap() error {
	if e == nil {
		return nil
	}
	return ErrValidation
}

// at stamps the cell location onto a validation error produced by Qualifier.Qualify.
func at(err error, row, col int, name string) error {
	var verr *ValidationError
	if errors.As(err, &verr) {
		out := *verr
		out.Row, out.Column, out.Name = row, col, name
		return &out
	}
	return err
}

func outOfRange(what string, index, limit int) error {
	return fmt.Errorf("%w: %s %d (have %d)", ErrOutOfRange, what, index, limit)
}

func shapeError(got, want int) error {
	return fmt.Errorf("%w: got %d values, want %d", ErrShape, got, want)
}

var errNoColumns = fmt.Errorf("%w: table has no columns", ErrShape)
