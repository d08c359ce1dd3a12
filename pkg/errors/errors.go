package errors

import (
	stdErrors "errors"
	"fmt"
	"net/http"
)

type Code string

const (
	CodeValidation    Code = "VALIDATION_ERROR"
	CodeUnauthorized  Code = "UNAUTHORIZED"
	CodeNotFound      Code = "NOT_FOUND"
	CodeStateConflict Code = "STATE_CONFLICT"
	CodeIdempotency   Code = "IDEMPOTENCY_KEY_REUSED"
	CodeInternal      Code = "INTERNAL_ERROR"
	CodeDependency    Code = "DEPENDENCY_ERROR"

	// CodeUpstreamRejected marks a logical failure reported by the commerce
	// backend: the envelope carried a message but no result.
	CodeUpstreamRejected Code = "UPSTREAM_REJECTED"
	// CodeAccountUnverified tells the client to route the user to account verification.
	CodeAccountUnverified Code = "ACCOUNT_UNVERIFIED"
)

// Metadata is the HTTP policy attached to a code.
type Metadata struct {
	HTTPStatus int
	Retryable  bool
	// PublicMessage replaces the error message unless ExposeMessage is set.
	PublicMessage  string
	ExposeMessage  bool
	DetailsAllowed bool
}

func policy(status int, public string, opts ...func(*Metadata)) Metadata {
	m := Metadata{HTTPStatus: status, PublicMessage: public}
	for _, opt := range opts {
		opt(&m)
	}
	return m
}

func retryable(m *Metadata) { m.Retryable = true }

func exposed(m *Metadata) { m.ExposeMessage = true }

func withDetails(m *Metadata) { m.DetailsAllowed = true }

var metadataByCode = map[Code]Metadata{
	CodeValidation:        policy(http.StatusBadRequest, "validation failed", exposed, withDetails),
	CodeUnauthorized:      policy(http.StatusUnauthorized, "authentication required", exposed),
	CodeNotFound:          policy(http.StatusNotFound, "resource not found", exposed),
	CodeStateConflict:     policy(http.StatusUnprocessableEntity, "state transition disallowed", exposed, withDetails),
	CodeIdempotency:       policy(http.StatusConflict, "idempotency key reused", exposed, withDetails),
	CodeInternal:          policy(http.StatusInternalServerError, "internal server error", retryable),
	CodeDependency:        policy(http.StatusServiceUnavailable, "dependency unavailable", retryable, withDetails),
	CodeUpstreamRejected:  policy(http.StatusUnprocessableEntity, "request rejected by commerce backend", exposed, withDetails),
	CodeAccountUnverified: policy(http.StatusForbidden, "account verification required", exposed, withDetails),
}

// MetadataFor returns the policy for code; unknown codes are treated as internal.
func MetadataFor(code Code) Metadata {
	if meta, ok := metadataByCode[code]; ok {
		return meta
	}
	return metadataByCode[CodeInternal]
}

// Error is a coded error carried up to the HTTP layer.
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

// Wrap attaches code and message to err. A nil err behaves like New.
func Wrap(code Code, err error, message string) *Error {
	return &Error{code: code, message: message, cause: err}
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

func (e *Error) WithDetails(details any) *Error {
	if e != nil {
		e.details = details
	}
	return e
}

func (e *Error) Error() string {
	switch {
	case e == nil:
		return ""
	case e.cause != nil:
		return fmt.Sprintf("%s: %s: %v", e.code, e.message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.code, e.message)
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.cause
}

// As returns the outermost *Error in err's chain.
func As(err error) *Error {
	var typed *Error
	if err != nil && stdErrors.As(err, &typed) {
		return typed
	}
	return nil
}

// HasCode reports whether the outermost *Error in err's chain carries code.
func HasCode(err error, code Code) bool {
	return As(err).codeOrEmpty() == code
}

func (e *Error) codeOrEmpty() Code {
	if e == nil {
		return ""
	}
	return e.code
}
