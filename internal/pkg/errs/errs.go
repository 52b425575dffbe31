/*
Package errs provides the application error type and its numbered codes.

Every error that reaches a client is a *CustomError: a business code, the message shown
to the visitor and the HTTP status it is sent with.
*/
package errs

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"studiosite/internal/pkg/logx"
)

// CustomError is the error returned to clients.
type CustomError struct {
	// Code is the business error code (see error_codes.go).
	Code int

	// Message is shown to the visitor as is.
	Message string

	// Status is the HTTP status the error is sent with.
	Status int
}

// Error implements the error interface.
func (e CustomError) Error() string {
	return fmt.Sprintf("Error Code %d (HTTP %d): %s", e.Code, e.Status, e.Message)
}

// Is matches any *CustomError carrying the same code, so errors.Is works across
// WithMessage copies.
func (e *CustomError) Is(target error) bool {
	var other *CustomError
	if !errors.As(target, &other) {
		return false
	}
	return other.Code == e.Code
}

// WithMessage returns a copy of the error carrying a caller-supplied user message.
// An empty message leaves the default text in place.
func (e *CustomError) WithMessage(msg string) *CustomError {
	if msg == "" {
		return e
	}

	out := *e
	out.Message = msg
	return &out
}

// NewError returns the registered error for code. details are printf arguments for
// messages with placeholders; for ErrUnknown the first detail may be the underlying
// error, which is logged. Unregistered codes yield ErrUnknown.
func NewError(code int, details ...any) *CustomError {
	template, ok := errorMap[code]
	if !ok {
		logx.Error(
			fmt.Errorf("error code %d is not registered", code),
			"Unknown error code requested",
			"requested_code", code,
		)
		template = errorMap[ErrUnknown]
	}

	out := template
	if out.Status == 0 {
		out.Status = http.StatusOK
	}

	if len(details) == 0 {
		return &out
	}

	switch {
	case out.Code == ErrUnknown:
		if cause, ok := details[0].(error); ok {
			logx.Error(cause, "Handling ErrUnknown with underlying error")
		}
	case strings.Contains(out.Message, "%"):
		out.Message = fmt.Sprintf(out.Message, details...)
	default:
		logx.Warn("Error details ignored: message has no placeholders", "code", code)
	}

	return &out
}
