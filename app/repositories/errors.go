package repositories

import (
	"fmt"

	"github.com/pkg/errors"

	"yabe/app/models"
)

var (
	ErrNotFound            = errors.New("record not found")
	ErrConstraintViolation = errors.New("constraint violation")
	ErrCascadeFailure      = errors.New("cascade delete failed")
	ErrUnknownField        = errors.New("unknown field")
)

// CascadeError reports a cascading delete that was rolled back. It matches
// ErrCascadeFailure with errors.Is and unwraps to the underlying cause.
type CascadeError struct {
	Kind models.Kind
	ID   int
	Err  error
}

func (e *CascadeError) Error() string {
	return fmt.Sprintf("%v: %s %d: %v", ErrCascadeFailure, e.Kind, e.ID, e.Err)
}

func (e *CascadeError) Unwrap() error { return e.Err }

func (e *CascadeError) Is(target error) bool { return target == ErrCascadeFailure }
