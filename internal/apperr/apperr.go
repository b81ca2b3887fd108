// Package apperr defines the errors returned by the booking core. Every error
// carries a Kind so callers can branch without parsing messages.
package apperr

import (
	"errors"
	"fmt"

	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

type Kind string

const (
	KindValidation           Kind = "VALIDATION"
	KindNotFound             Kind = "NOT_FOUND"
	KindUnauthorized         Kind = "UNAUTHORIZED"
	KindInvalidTransition    Kind = "INVALID_TRANSITION"
	KindConflict             Kind = "CONFLICT"
	KindCapacityExceeded     Kind = "CAPACITY_EXCEEDED"
	KindPricingNotConfigured Kind = "PRICING_NOT_CONFIGURED"
	KindInvalidAmount        Kind = "INVALID_AMOUNT"
	KindInternal             Kind = "INTERNAL"
)

// Validation sub-codes.
const (
	CodeMissingField  = "MISSING_FIELD"
	CodeInvalidFormat = "INVALID_FORMAT"
	CodeInvalidDate   = "INVALID_DATE"
	CodeInvalidRange  = "INVALID_RANGE"
	CodeInvalidValue  = "INVALID_VALUE"
)

type Error struct {
	Kind    Kind
	Code    string
	Message string
	Field   string
	Details map[string]any
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Is matches another *Error of the same Kind (and Code, when the target sets one).
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t.Kind != e.Kind {
		return false
	}
	return t.Code == "" || t.Code == e.Code
}

func (e *Error) WithDetail(key string, value any) *Error {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

func (e *Error) WithCause(err error) *Error {
	e.Cause = err
	return e
}

// GRPCStatus lets status.FromError translate the error.
func (e *Error) GRPCStatus() *status.Status {
	st := status.New(grpcCode(e.Kind), e.Message)
	if e.Field == "" {
		return st
	}
	withDetails, err := st.WithDetails(&errdetails.BadRequest{
		FieldViolations: []*errdetails.BadRequest_FieldViolation{{Field: e.Field, Description: e.Message}},
	})
	if err != nil {
		return st
	}
	return withDetails
}

func grpcCode(k Kind) codes.Code {
	switch k {
	case KindValidation, KindCapacityExceeded, KindInvalidAmount:
		return codes.InvalidArgument
	case KindNotFound:
		return codes.NotFound
	case KindUnauthorized:
		return codes.PermissionDenied
	case KindInvalidTransition, KindPricingNotConfigured:
		return codes.FailedPrecondition
	case KindConflict:
		return codes.AlreadyExists
	default:
		return codes.Internal
	}
}

func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func Newf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func MissingField(field string) *Error {
	return &Error{Kind: KindValidation, Code: CodeMissingField, Field: field, Message: field + " is required"}
}

func InvalidFormat(field string, cause error) *Error {
	return &Error{Kind: KindValidation, Code: CodeInvalidFormat, Field: field, Message: "invalid " + field + " format", Cause: cause}
}

func InvalidDate(field, message string) *Error {
	return &Error{Kind: KindValidation, Code: CodeInvalidDate, Field: field, Message: message}
}

func InvalidRange(message string) *Error {
	return &Error{Kind: KindValidation, Code: CodeInvalidRange, Field: "end_time", Message: message}
}

func InvalidValue(field, message string) *Error {
	return &Error{Kind: KindValidation, Code: CodeInvalidValue, Field: field, Message: message}
}

func NotFound(entity string, id any) *Error {
	return Newf(KindNotFound, "%s %v not found", entity, id)
}

func Unauthorized(message string) *Error {
	return New(KindUnauthorized, message)
}

func InvalidTransition(message string) *Error {
	return New(KindInvalidTransition, message)
}

func Internal(message string, cause error) *Error {
	return &Error{Kind: KindInternal, Message: message, Cause: cause}
}

// KindOf returns the Kind of err, or KindInternal for foreign errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// IsKind reports whether err is an *Error of the given kind.
func IsKind(err error, kind Kind) bool {
	return errors.Is(err, &Error{Kind: kind})
}
