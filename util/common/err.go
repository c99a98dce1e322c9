package common

import (
	"errors"
	"fmt"

	"github.com/cetep-lnab/ouvidoria/logger"
)

// Error kinds shared by the store, the services and the HTTP layer. Callers
// match them with errors.Is.
var (
	ErrValidation   = errors.New("validation failed")
	ErrConflict     = errors.New("already exists")
	ErrNotFound     = errors.New("not found")
	ErrUnauthorized = errors.New("unauthorized")
)

// FieldError is a validation failure bound to one input field. Key is the
// translation key the web layer shows to the user.
type FieldError struct {
	Field string
	Key   string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Key)
}

func (e *FieldError) Unwrap() error {
	return ErrValidation
}

func NewFieldError(field, key string) error {
	return &FieldError{Field: field, Key: key}
}

// ConflictError reports which unique field clashed.
type ConflictError struct {
	Field string
}

func (e *ConflictError) Error() string {
	return e.Field + " already exists"
}

func (e *ConflictError) Unwrap() error {
	return ErrConflict
}

func NewConflictError(field string) error {
	return &ConflictError{Field: field}
}

func NewErrorf(format string, a ...any) error {
	msg := fmt.Sprintf(format, a...)
	return errors.New(msg)
}

func NewError(a ...any) error {
	msg := fmt.Sprintln(a...)
	return errors.New(msg)
}

// Combine joins the non-nil errors, returning nil when there are none.
func Combine(errs ...error) error {
	return errors.Join(errs...)
}

func Recover(msg string) any {
	panicErr := recover()
	if panicErr != nil {
		if msg != "" {
			logger.Error(msg, " panic: ", panicErr)
		}
	}
	return panicErr
}
