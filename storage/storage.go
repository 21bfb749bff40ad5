package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/cyp0633/librecur/recurrence"
)

// Storage connects your backend storage (e.g. database) with the recurrence
// engine. A RecurrenceSet exclusively owns its rules and rdates: deleting the
// set must delete them too. Please use the error types provided.
type Storage interface {
	// GetRecurrence retrieves a set with all of its rules and rdates.
	GetRecurrence(ctx context.Context, id string) (*recurrence.RecurrenceSet, error)
	// ListRecurrences retrieves every stored set.
	ListRecurrences(ctx context.Context) ([]*recurrence.RecurrenceSet, error)
	// CreateRecurrence stores a new set and its members.
	// Implementations should assign missing IDs inside the given set.
	CreateRecurrence(ctx context.Context, set *recurrence.RecurrenceSet) error
	// UpdateRecurrence replaces a stored set, members included.
	UpdateRecurrence(ctx context.Context, set *recurrence.RecurrenceSet) error
	// DeleteRecurrence removes a set together with its rules and rdates.
	DeleteRecurrence(ctx context.Context, id string) error
	// AddRule attaches a rule to a set, assigning its ID if missing.
	AddRule(ctx context.Context, setID string, rule *recurrence.RuleSpec) error
	// DeleteRule removes one rule from a set.
	DeleteRule(ctx context.Context, setID, ruleID string) error
	// AddRDate attaches an rdate to a set, assigning its ID if missing.
	AddRDate(ctx context.Context, setID string, rdate *recurrence.RDateSpec) error
	// DeleteRDate removes one rdate from a set.
	DeleteRDate(ctx context.Context, setID, rdateID string) error
}

// Error types
type ErrorType string

const (
	ErrNotFound      ErrorType = "not_found"
	ErrAlreadyExists ErrorType = "already_exists"
	ErrInvalidInput  ErrorType = "invalid_input"
)

// Error represents a storage-related error
type Error struct {
	Type    ErrorType
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// IsNotFound reports whether err is a storage error of type ErrNotFound.
func IsNotFound(err error) bool {
	return hasType(err, ErrNotFound)
}

// IsAlreadyExists reports whether err is a storage error of type ErrAlreadyExists.
func IsAlreadyExists(err error) bool {
	return hasType(err, ErrAlreadyExists)
}

func hasType(err error, t ErrorType) bool {
	var storageErr *Error
	return errors.As(err, &storageErr) && storageErr.Type == t
}
