package core

import (
	"strings"

	"github.com/pkg/errors"
)

// FieldError is used to indicate an error with a specific struct field.
type FieldError struct {
	Field string
	Error string
}

type ValidationError struct {
	Err    error
	Fields []FieldError
}

func NewValidationError(err error, flds ...FieldError) error {
	return &ValidationError{err, flds}
}

func (err ValidationError) Error() string {
	if err.Err == nil {
		return ""
	}
	return err.Err.Error()
}

// BusinessError is a business-rule violation carrying a stable machine-readable
// status code (eg. "FORMATION-CONTINUE-5") alongside a human-readable message.
type BusinessError struct {
	Code    string
	Message string
}

func NewBusinessError(code, msg string) *BusinessError {
	return &BusinessError{Code: code, Message: msg}
}

func (err *BusinessError) Error() string { return err.Message }

// BusinessErrors aggregates every invariant violated by a command so that callers
// can surface all of them at once instead of only the first one.
type BusinessErrors []*BusinessError

func (errs BusinessErrors) Error() string {
	msgs := make([]string, 0, len(errs))
	for _, err := range errs {
		msgs = append(msgs, err.Message)
	}
	return strings.Join(msgs, "; ")
}

func (errs BusinessErrors) Has(code string) bool {
	for _, err := range errs {
		if err.Code == code {
			return true
		}
	}
	return false
}

// Append collects err into the batch. A nested BusinessErrors batch is flattened;
// a nil err is a no-op; any other error type panics as it must not be batched.
func (errs *BusinessErrors) Append(err error) {
	switch err := err.(type) {
	case nil:
	case *BusinessError:
		*errs = append(*errs, err)
	case BusinessErrors:
		*errs = append(*errs, err...)
	default:
		panic("core: only business errors may be batched")
	}
}

// ErrOrNil returns the batch as an error, or nil when no invariant was violated.
func (errs BusinessErrors) ErrOrNil() error {
	if len(errs) == 0 {
		return nil
	}
	return errs
}

type shutdown struct {
	message string
}

func NewShutdownError(msg string) error {
	return &shutdown{message: msg}
}

func (s shutdown) Error() string {
	return s.message
}

func IsShutdown(err error) bool {
	_, ok := errors.Cause(err).(*shutdown)
	return ok
}
