package vtable

import "errors"

// Dispatch errors
var (
	ErrUnregisteredSubtype = errors.New("no operation registered for subtype")
	ErrIncoherentBinding   = errors.New("table entry and operation instance are out of sync")
	ErrFrozen              = errors.New("dispatcher is frozen")
	ErrInvalidFamily       = errors.New("base family is not an interface type")
	ErrNotOperand          = errors.New("type does not belong to the base family")
	ErrNilOperand          = errors.New("operand is nil")
	ErrResultMismatch      = errors.New("operation result does not match scope result type")
)

// ErrorCode is a numeric code attached to dispatch errors.
type ErrorCode int

const (
	ErrorCodeUnknown ErrorCode = 0

	// Registration error codes (1000-1999)

	ErrorCodeFrozen            ErrorCode = 1001
	ErrorCodeInvalidFamily     ErrorCode = 1002
	ErrorCodeNotOperand        ErrorCode = 1003
	ErrorCodeIncoherentBinding ErrorCode = 1004

	// Dispatch error codes (2000-2999)

	ErrorCodeUnregisteredSubtype ErrorCode = 2001
	ErrorCodeNilOperand          ErrorCode = 2002
	ErrorCodeResultMismatch      ErrorCode = 2003
)

// Error carries a dispatch failure with its code and underlying cause.
type Error struct {
	Code    ErrorCode
	Message string
	Cause   error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

// Unwrap returns the underlying sentinel error.
func (e *Error) Unwrap() error {
	return e.Cause
}

func newError(code ErrorCode, message string, cause error) *Error {
	return &Error{Code: code, Message: message, Cause: cause}
}

var errorCodeMap = map[error]ErrorCode{
	ErrFrozen:              ErrorCodeFrozen,
	ErrInvalidFamily:       ErrorCodeInvalidFamily,
	ErrNotOperand:          ErrorCodeNotOperand,
	ErrIncoherentBinding:   ErrorCodeIncoherentBinding,
	ErrUnregisteredSubtype: ErrorCodeUnregisteredSubtype,
	ErrNilOperand:          ErrorCodeNilOperand,
	ErrResultMismatch:      ErrorCodeResultMismatch,
}

// CodeOf returns the error code for err, unwrapping as needed.
func CodeOf(err error) ErrorCode {
	var derr *Error
	if errors.As(err, &derr) {
		return derr.Code
	}
	for sentinel, code := range errorCodeMap {
		if errors.Is(err, sentinel) {
			return code
		}
	}
	return ErrorCodeUnknown
}
