package errs

import (
	"errors"
	"fmt"
)

// Code classifies an expected business outcome. Callers branch on codes,
// they are part of the public contract of the dispatch and ledger use cases.
type Code string

const (
	CodeNoCourierAvailable       Code = "NoCourierAvailable"
	CodeAssignmentInProgress     Code = "AssignmentInProgress"
	CodeAlreadyAssigned          Code = "AlreadyAssigned"
	CodeCourierIneligible        Code = "CourierIneligible"
	CodeInsufficientCashBalance  Code = "InsufficientCashBalance"
	CodeTransactionStateConflict Code = "TransactionStateConflict"
	CodeConfigurationError       Code = "ConfigurationError"
)

// Sentinels for errors.Is checks. Two business errors match when their codes match,
// so errors.Is(NewBusinessError(CodeAlreadyAssigned, "..."), ErrAlreadyAssigned) is true.
var (
	ErrNoCourierAvailable       = &BusinessError{Code: CodeNoCourierAvailable}
	ErrAssignmentInProgress     = &BusinessError{Code: CodeAssignmentInProgress}
	ErrAlreadyAssigned          = &BusinessError{Code: CodeAlreadyAssigned}
	ErrCourierIneligible        = &BusinessError{Code: CodeCourierIneligible}
	ErrInsufficientCashBalance  = &BusinessError{Code: CodeInsufficientCashBalance}
	ErrTransactionStateConflict = &BusinessError{Code: CodeTransactionStateConflict}
	ErrConfigurationError       = &BusinessError{Code: CodeConfigurationError}
)

// BusinessError is an expected, typed failure of a use case.
// Reason carries the specific constraint that failed and is safe to show to API clients.
type BusinessError struct {
	Code   Code
	Reason string
	Cause  error
}

// NewBusinessError creates a business error with a human readable reason.
func NewBusinessError(code Code, reason string) *BusinessError {
	return &BusinessError{Code: code, Reason: reason}
}

// NewBusinessErrorWithCause creates a business error wrapping a lower level cause.
func NewBusinessErrorWithCause(code Code, reason string, cause error) *BusinessError {
	return &BusinessError{Code: code, Reason: reason, Cause: cause}
}

func (e *BusinessError) Error() string {
	msg := string(e.Code)
	if e.Reason != "" {
		msg = fmt.Sprintf("%s: %s", msg, e.Reason)
	}
	if e.Cause != nil {
		msg = fmt.Sprintf("%s (cause: %v)", msg, e.Cause)
	}
	return msg
}

func (e *BusinessError) Unwrap() error {
	return e.Cause
}

// Is reports whether target is a BusinessError with the same code.
func (e *BusinessError) Is(target error) bool {
	t, ok := target.(*BusinessError)
	return ok && t.Code == e.Code
}

// CodeOf extracts the business code from err, if err is or wraps a BusinessError.
func CodeOf(err error) (Code, bool) {
	var be *BusinessError
	if errors.As(err, &be) {
		return be.Code, true
	}
	return "", false
}

// ReasonOf returns the reason of the first BusinessError in err's chain or err.Error().
func ReasonOf(err error) string {
	var be *BusinessError
	if errors.As(err, &be) && be.Reason != "" {
		return be.Reason
	}
	if err == nil {
		return ""
	}
	return err.Error()
}
