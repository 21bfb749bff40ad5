package recurrence

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidToken is returned for a byweekday token matching neither the
	// bare nor the ordinal grammar.
	ErrInvalidToken = errors.New("recurrence: invalid weekday token")
	// ErrInvalidTimezone is returned when a timezone name does not resolve.
	ErrInvalidTimezone = errors.New("recurrence: invalid timezone")
	// ErrInvalidSpec is returned when compiling an inconsistent rule, or when
	// building an occurrence source from a rule that was never compiled.
	ErrInvalidSpec = errors.New("recurrence: invalid rule specification")
	// ErrUnboundedCount is returned by Count when an included rule never ends.
	ErrUnboundedCount = errors.New("recurrence: cannot count an unbounded recurrence")
)

// SpecError carries the violations found while compiling a rule. It matches
// ErrInvalidSpec with errors.Is.
type SpecError struct {
	Violations Violations
}

func (e *SpecError) Error() string {
	return fmt.Sprintf("%v: %v", ErrInvalidSpec, e.Violations)
}

func (e *SpecError) Unwrap() error {
	return ErrInvalidSpec
}
