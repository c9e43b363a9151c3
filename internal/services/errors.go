package services

import (
	"errors"
	"fmt"
	"net/http"
)

type ErrorKind string

const (
	KindValidation   ErrorKind = "validation"
	KindNotFound     ErrorKind = "not_found"
	KindConflict     ErrorKind = "conflict"
	KindExpired      ErrorKind = "expired"
	KindUnauthorized ErrorKind = "unauthorized"
)

type ErrorCode string

const (
	CodeNoOTPIssued       ErrorCode = "NO_OTP_ISSUED"
	CodeOTPExpired        ErrorCode = "OTP_EXPIRED"
	CodeCodeMismatch      ErrorCode = "CODE_MISMATCH"
	CodeActionMismatch    ErrorCode = "ACTION_MISMATCH"
	CodeInvalidOTPFormat  ErrorCode = "INVALID_OTP_FORMAT"
	CodeAlreadyAssigned   ErrorCode = "ALREADY_ASSIGNED"
	CodeAlreadyRated      ErrorCode = "ALREADY_RATED"
	CodeInvalidTransition ErrorCode = "INVALID_TRANSITION"
	CodeMissingFields     ErrorCode = "MISSING_FIELDS"
	CodeNotFound          ErrorCode = "NOT_FOUND"
	CodeUnauthorized      ErrorCode = "UNAUTHORIZED"
	CodeValidationError   ErrorCode = "VALIDATION_ERROR"
)

// ServiceError is the error every service operation reports for an
// expected failure. Anything else is an internal error.
type ServiceError struct {
	Kind    ErrorKind
	Code    ErrorCode
	Message string
	Details map[string]string
}

func (e *ServiceError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Is matches on Code so callers can write errors.Is(err, ErrOTPExpired).
func (e *ServiceError) Is(target error) bool {
	var other *ServiceError
	if !errors.As(target, &other) {
		return false
	}
	return e.Code == other.Code
}

func (e *ServiceError) HTTPStatus() int {
	switch e.Kind {
	case KindValidation:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	case KindExpired:
		return http.StatusGone
	case KindUnauthorized:
		return http.StatusForbidden
	}
	return http.StatusInternalServerError
}

var (
	ErrNoOTPIssued      = &ServiceError{Kind: KindValidation, Code: CodeNoOTPIssued, Message: "No OTP has been issued for this request"}
	ErrOTPExpired       = &ServiceError{Kind: KindExpired, Code: CodeOTPExpired, Message: "OTP has expired"}
	ErrCodeMismatch     = &ServiceError{Kind: KindValidation, Code: CodeCodeMismatch, Message: "Invalid OTP"}
	ErrActionMismatch   = &ServiceError{Kind: KindValidation, Code: CodeActionMismatch, Message: "OTP was issued for a different action"}
	ErrInvalidOTPFormat = &ServiceError{Kind: KindValidation, Code: CodeInvalidOTPFormat, Message: "OTP must be exactly 6 digits"}

	ErrAlreadyAssigned   = &ServiceError{Kind: KindConflict, Code: CodeAlreadyAssigned, Message: "Request has already been accepted by another mechanic"}
	ErrAlreadyRated      = &ServiceError{Kind: KindConflict, Code: CodeAlreadyRated, Message: "Job has already been rated"}
	ErrInvalidTransition = &ServiceError{Kind: KindConflict, Code: CodeInvalidTransition, Message: "Job is not in a state that allows this action"}

	ErrMissingFields       = &ServiceError{Kind: KindValidation, Code: CodeMissingFields, Message: "Missing required fields"}
	ErrNotAuthorizedForJob = &ServiceError{Kind: KindUnauthorized, Code: CodeUnauthorized, Message: "Invalid job or not authorized"}
)

func NewValidationError(message string, details map[string]string) *ServiceError {
	return &ServiceError{Kind: KindValidation, Code: CodeValidationError, Message: message, Details: details}
}

func NewNotFoundError(resource string) *ServiceError {
	return &ServiceError{Kind: KindNotFound, Code: CodeNotFound, Message: resource + " not found"}
}

func NewUnauthorizedError(message string) *ServiceError {
	return &ServiceError{Kind: KindUnauthorized, Code: CodeUnauthorized, Message: message}
}

func invalidTransition(message string) *ServiceError {
	return &ServiceError{Kind: KindConflict, Code: CodeInvalidTransition, Message: message}
}

// AsServiceError unwraps err into a *ServiceError when it is one.
func AsServiceError(err error) (*ServiceError, bool) {
	var se *ServiceError
	if errors.As(err, &se) {
		return se, true
	}
	return nil, false
}
