// Package errors provides the structured error codes used by sentinel-ask.
//
// Error Code Format: AABBCCC (7 digits)
//
//	AA  (00-99): service code, 00 is shared by every service
//	BB  (00-99): category code, see code.go
//	CCC (000-999): sequence within the category
//
// Every Errno carries its HTTP status and gRPC code so the transport layer
// never has to guess how to render a failure. The English message is the
// client-safe text; the cause attached with WithCause is only for logs.
//
// Usage:
//
//	return errors.ErrEmbeddingProvider.WithCause(err)
//
//	if errors.Is(err, errors.ErrInvalidQuestion) { ... }
package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"

	"google.golang.org/grpc/codes"
)

// Errno represents a structured error with code and messages.
type Errno struct {
	// Code is the unique error code
	Code int `json:"code"`

	// HTTP is the HTTP status code to return
	HTTP int `json:"-"`

	// GRPCCode is the gRPC status code
	GRPCCode codes.Code `json:"-"`

	// MessageEN is the client-facing message
	MessageEN string `json:"message"`

	// MessageZH is the Chinese message
	MessageZH string `json:"message_zh,omitempty"`

	cause error
}

// New creates an unregistered Errno.
func New(code int, httpStatus int, grpcCode codes.Code, messageEN, messageZH string) *Errno {
	return &Errno{
		Code:      code,
		HTTP:      httpStatus,
		GRPCCode:  grpcCode,
		MessageEN: messageEN,
		MessageZH: messageZH,
	}
}

// Error implements the error interface.
func (e *Errno) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("errno %d: %s: %v", e.Code, e.MessageEN, e.cause)
	}
	return fmt.Sprintf("errno %d: %s", e.Code, e.MessageEN)
}

// Unwrap returns the underlying cause.
func (e *Errno) Unwrap() error {
	return e.cause
}

// Cause returns the attached cause, or nil.
func (e *Errno) Cause() error {
	return e.cause
}

func (e *Errno) clone() *Errno {
	c := *e
	return &c
}

// WithCause returns a copy carrying cause. The receiver is not modified, so
// registered sentinels stay shareable across goroutines.
func (e *Errno) WithCause(cause error) *Errno {
	c := e.clone()
	c.cause = cause
	return c
}

// WithMessage returns a copy with a different client message.
func (e *Errno) WithMessage(msg string) *Errno {
	c := e.clone()
	c.MessageEN = msg
	return c
}

// WithMessagef returns a copy with a formatted client message.
func (e *Errno) WithMessagef(format string, args ...any) *Errno {
	return e.WithMessage(fmt.Sprintf(format, args...))
}

// Message returns the message for lang, falling back to English.
func (e *Errno) Message(lang string) string {
	switch lang {
	case "zh", "zh-CN", "zh_CN":
		if e.MessageZH != "" {
			return e.MessageZH
		}
	}
	return e.MessageEN
}

// HTTPStatus returns the HTTP status code.
func (e *Errno) HTTPStatus() int {
	if e.HTTP != 0 {
		return e.HTTP
	}
	return http.StatusInternalServerError
}

// GRPCStatus returns the gRPC status code.
func (e *Errno) GRPCStatus() codes.Code {
	if e.GRPCCode != codes.OK {
		return e.GRPCCode
	}
	return codes.Internal
}

// Is reports whether target is an Errno with the same code.
func (e *Errno) Is(target error) bool {
	var t *Errno
	if stderrors.As(target, &t) {
		return e.Code == t.Code
	}
	return false
}

// Format implements fmt.Formatter. %+v prints the status mapping and the
// full cause chain.
func (e *Errno) Format(s fmt.State, verb rune) {
	switch verb {
	case 'v':
		if s.Flag('+') {
			_, _ = fmt.Fprintf(s, "errno %d [HTTP %d, gRPC %s]: %s", e.Code, e.HTTPStatus(), e.GRPCStatus().String(), e.MessageEN)
			if e.cause != nil {
				_, _ = fmt.Fprintf(s, "\ncaused by: %+v", e.cause)
			}
			return
		}
		fallthrough
	case 's':
		_, _ = fmt.Fprint(s, e.Error())
	case 'q':
		_, _ = fmt.Fprintf(s, "%q", e.Error())
	}
}
