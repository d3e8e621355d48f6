package errors

import (
	"fmt"

	"github.com/cockroachdb/errors"
)

// InternalError is the concrete error type produced by the builder. It keeps
// the developer-facing message separate from the user-facing hint and carries
// structured details that are safe to report back to the caller.
type InternalError struct {
	cause             error
	message           string
	hint              string
	reportableDetails map[string]any
	mark              error
}

// ErrorBuilder builds an InternalError fluently:
//
//	ierr.NewError("coupon not found").
//		WithHint("The coupon code does not exist").
//		WithReportableDetails(map[string]any{"code": code}).
//		Mark(ierr.ErrNotFound)
type ErrorBuilder struct {
	err *InternalError
}

// NewError starts a builder with a developer-facing message.
func NewError(message string) *ErrorBuilder {
	return &ErrorBuilder{err: &InternalError{message: message}}
}

// NewErrorf starts a builder with a formatted developer-facing message.
func NewErrorf(format string, args ...any) *ErrorBuilder {
	return NewError(fmt.Sprintf(format, args...))
}

// WithError starts a builder wrapping an underlying cause.
func WithError(err error) *ErrorBuilder {
	return &ErrorBuilder{err: &InternalError{cause: err, message: ""}}
}

// WithMessage sets the developer-facing message.
func (b *ErrorBuilder) WithMessage(message string) *ErrorBuilder {
	b.err.message = message
	return b
}

// WithMessagef sets a formatted developer-facing message.
func (b *ErrorBuilder) WithMessagef(format string, args ...any) *ErrorBuilder {
	b.err.message = fmt.Sprintf(format, args...)
	return b
}

// WithHint sets the user-facing hint.
func (b *ErrorBuilder) WithHint(hint string) *ErrorBuilder {
	b.err.hint = hint
	return b
}

// WithHintf sets a formatted user-facing hint.
func (b *ErrorBuilder) WithHintf(format string, args ...any) *ErrorBuilder {
	b.err.hint = fmt.Sprintf(format, args...)
	return b
}

// WithReportableDetails attaches structured details that may be surfaced to
// the caller.
func (b *ErrorBuilder) WithReportableDetails(details map[string]any) *ErrorBuilder {
	b.err.reportableDetails = details
	return b
}

// Mark classifies the error with one of the sentinel codes and finalizes the
// builder.
func (b *ErrorBuilder) Mark(sentinel error) error {
	b.err.mark = sentinel
	return b.err
}

func (e *InternalError) Error() string {
	switch {
	case e.message != "" && e.cause != nil:
		return e.message + ": " + e.cause.Error()
	case e.cause != nil:
		return e.cause.Error()
	default:
		return e.message
	}
}

// Unwrap exposes the underlying cause for errors.Is / errors.As chains.
func (e *InternalError) Unwrap() error {
	return e.cause
}

// Is matches both the sentinel mark and the wrapped cause.
func (e *InternalError) Is(target error) bool {
	if e.mark != nil && errors.Is(e.mark, target) {
		return true
	}
	return e.cause != nil && errors.Is(e.cause, target)
}

// Hint returns the user-facing hint, falling back to the message.
func Hint(err error) string {
	var ie *InternalError
	if errors.As(err, &ie) && ie.hint != "" {
		return ie.hint
	}
	return err.Error()
}

// ReportableDetails returns the structured details attached to an error, or nil.
func ReportableDetails(err error) map[string]any {
	var ie *InternalError
	if errors.As(err, &ie) {
		return ie.reportableDetails
	}
	return nil
}
