package errors

import (
	stdErrors "errors"
	"fmt"
	"net/http"
)

// Code is the stable machine-readable error identifier returned to clients.
type Code string

const (
	CodeValidation    Code = "VALIDATION_ERROR"
	CodeUnauthorized  Code = "UNAUTHORIZED"
	CodeForbidden     Code = "FORBIDDEN"
	CodeNotFound      Code = "NOT_FOUND"
	CodeConflict      Code = "CONFLICT"
	CodeStateConflict Code = "STATE_CONFLICT"
	CodeIdempotency   Code = "IDEMPOTENCY_KEY_REUSED"
	CodeRateLimit     Code = "RATE_LIMIT_EXCEEDED"
	CodeInternal      Code = "INTERNAL_ERROR"
	CodeDependency    Code = "DEPENDENCY_ERROR"

	// ledger and fulfillment rules
	CodeAgreementExpired       Code = "AGREEMENT_EXPIRED"
	CodeInsufficientStock      Code = "INSUFFICIENT_STOCK"
	CodeOrderClosed            Code = "ORDER_CLOSED"
	CodeCannotCancelDispatched Code = "CANNOT_CANCEL_DISPATCHED"
	CodeChallanUploaded        Code = "CHALLAN_ALREADY_UPLOADED"
	CodeDuplicateProductName   Code = "DUPLICATE_PRODUCT_NAME"
)

// Metadata describes how a code surfaces over HTTP.
type Metadata struct {
	HTTPStatus     int
	Retryable      bool
	PublicMessage  string
	DetailsAllowed bool
	// ExposeMessage lets the error's own message replace PublicMessage.
	ExposeMessage bool
}

type trait uint8

const (
	retryable trait = 1 << iota
	details
	exposed
)

func describe(status int, public string, traits trait) Metadata {
	return Metadata{
		HTTPStatus:     status,
		PublicMessage:  public,
		Retryable:      traits&retryable != 0,
		DetailsAllowed: traits&details != 0,
		ExposeMessage:  traits&exposed != 0,
	}
}

var catalog = map[Code]Metadata{
	CodeValidation:    describe(http.StatusBadRequest, "validation failed", details|exposed),
	CodeUnauthorized:  describe(http.StatusUnauthorized, "authentication required", exposed),
	CodeForbidden:     describe(http.StatusForbidden, "access denied", exposed),
	CodeNotFound:      describe(http.StatusNotFound, "resource not found", exposed),
	CodeConflict:      describe(http.StatusConflict, "conflict detected", exposed),
	CodeStateConflict: describe(http.StatusUnprocessableEntity, "state transition disallowed", details|exposed),
	CodeIdempotency:   describe(http.StatusConflict, "idempotency key reused", details|exposed),
	CodeRateLimit:     describe(http.StatusTooManyRequests, "rate limit exceeded", details|exposed),
	CodeInternal:      describe(http.StatusInternalServerError, "internal server error", retryable),
	CodeDependency:    describe(http.StatusServiceUnavailable, "dependency unavailable", retryable|details),

	CodeAgreementExpired:       describe(http.StatusForbidden, "franchise agreement expired", details|exposed),
	CodeInsufficientStock:      describe(http.StatusConflict, "insufficient stock", details|exposed),
	CodeOrderClosed:            describe(http.StatusForbidden, "order is closed", details|exposed),
	CodeCannotCancelDispatched: describe(http.StatusBadRequest, "dispatched orders cannot be cancelled", details|exposed),
	CodeChallanUploaded:        describe(http.StatusConflict, "challan already uploaded", details|exposed),
	CodeDuplicateProductName:   describe(http.StatusConflict, "product name already exists", details|exposed),
}

// MetadataFor falls back to the internal error description for unknown codes.
func MetadataFor(code Code) Metadata {
	if meta, ok := catalog[code]; ok {
		return meta
	}
	return catalog[CodeInternal]
}

// Error carries a Code plus a client-safe message; the cause stays server side.
type Error struct {
	code    Code
	message string
	details any
	cause   error
}

func New(code Code, message string) *Error {
	return &Error{code: code, message: message}
}

func Newf(code Code, format string, args ...any) *Error {
	return New(code, fmt.Sprintf(format, args...))
}

// Wrap attaches code and message to err. A nil err yields a plain New.
func Wrap(code Code, err error, message string) *Error {
	e := New(code, message)
	e.cause = err
	return e
}

func (e *Error) Code() Code {
	if e == nil {
		return CodeInternal
	}
	return e.code
}

func (e *Error) Message() string {
	if e == nil {
		return ""
	}
	return e.message
}

func (e *Error) Details() any {
	if e == nil {
		return nil
	}
	return e.details
}

// WithDetails mutates and returns e so it can be chained off New.
func (e *Error) WithDetails(details any) *Error {
	if e != nil {
		e.details = details
	}
	return e
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	return string(e.code) + ": " + e.message
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.cause
}

// As returns the outermost *Error in err's chain, or nil.
func As(err error) *Error {
	var typed *Error
	if err != nil && stdErrors.As(err, &typed) {
		return typed
	}
	return nil
}

// IsCode reports whether the outermost typed error in err's chain has code.
func IsCode(err error, code Code) bool {
	return As(err).codeOr("") == code
}

func (e *Error) codeOr(fallback Code) Code {
	if e == nil {
		return fallback
	}
	return e.code
}
