package core

import "github.com/pkg/errors"

// ErrorKind classifies every failure a request can end in.
type ErrorKind string

const (
	KindValidation      ErrorKind = "validation_error"
	KindConflict        ErrorKind = "conflict"
	KindUnauthenticated ErrorKind = "unauthenticated"
	KindAccountDisabled ErrorKind = "account_disabled"
	KindRoleMismatch    ErrorKind = "role_mismatch"
	KindTenantMismatch  ErrorKind = "tenant_mismatch"
	KindNotOwner        ErrorKind = "not_owner"
	KindNotFound        ErrorKind = "not_found"
	KindUpstreamIO      ErrorKind = "upstream_io_error"
)

// AppError is a classified application error; the HTTP boundary maps
// Kind to a status code and serializes both fields.
type AppError struct {
	Kind ErrorKind
	Msg  string
}

func NewAppError(kind ErrorKind, msg string) error {
	return &AppError{Kind: kind, Msg: msg}
}

func (e *AppError) Error() string { return e.Msg }

// KindOf unwraps err and reports its ErrorKind, if it carries one.
func KindOf(err error) (ErrorKind, bool) {
	if aerr, ok := errors.Cause(err).(*AppError); ok {
		return aerr.Kind, true
	}
	return "", false
}

// FieldError is used to indicate an error with a specific struct field.
type FieldError struct {
	Field string
	Error string
}

type ValidationError struct {
	Err    error
	Fields []FieldError
	Kind   ErrorKind
}

func NewValidationError(err error, flds ...FieldError) error {
	return &ValidationError{Err: err, Fields: flds, Kind: KindValidation}
}

// NewConflictError is a ValidationError for uniqueness violations.
func NewConflictError(err error, flds ...FieldError) error {
	return &ValidationError{Err: err, Fields: flds, Kind: KindConflict}
}

func (err ValidationError) Error() string {
	if err.Err == nil {
		return ""
	}
	return err.Err.Error()
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
