// Package errors provides the structured error taxonomy shared across the
// parsing, resolver, vector store, full-text, pipeline, and watcher
// packages: a single CodannaError type carrying a component tag, a stable
// code, and an optional suggestion for the user.
package errors

import "fmt"

// CodannaError is the structured error type for codanna.
// It provides rich context for error handling, logging, and user presentation.
type CodannaError struct {
	// Component names the subsystem that raised the error (e.g. "parser",
	// "resolver", "vectorstore").
	Component string

	// Code is the unique, stable error code.
	Code Code

	// Message is the human-readable error message.
	Message string

	// Path is the file or directory the error concerns, if any.
	Path string

	// Cause is the underlying error that caused this error.
	Cause error

	// Suggestion is an actionable suggestion for the user.
	Suggestion string
}

// Error implements the error interface.
func (e *CodannaError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("[%s:%s] %s (%s)", e.Component, e.Code, e.Message, e.Path)
	}
	return fmt.Sprintf("[%s:%s] %s", e.Component, e.Code, e.Message)
}

// Unwrap returns the underlying cause for error chain support.
func (e *CodannaError) Unwrap() error {
	return e.Cause
}

// Is checks if this error matches the target error by code, enabling
// errors.Is() to compare CodannaErrors by code rather than identity.
func (e *CodannaError) Is(target error) bool {
	t, ok := target.(*CodannaError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// WithSuggestion adds an actionable suggestion for the user and returns the
// error for chaining.
func (e *CodannaError) WithSuggestion(suggestion string) *CodannaError {
	e.Suggestion = suggestion
	return e
}

// WithPath sets the file/directory the error concerns and returns the error
// for chaining.
func (e *CodannaError) WithPath(path string) *CodannaError {
	e.Path = path
	return e
}

// New creates a CodannaError for component/code with the given message and
// cause. Category, severity, and retryable are derived from the code.
func New(component string, code Code, message string, cause error) *CodannaError {
	return &CodannaError{
		Component: component,
		Code:      code,
		Message:   message,
		Cause:     cause,
	}
}

// Wrap creates a CodannaError from an existing error, using err.Error() as
// the message. Returns nil if err is nil, so it composes with the common
// `if err := f(); err != nil { return Wrap(...) }` pattern.
func Wrap(component string, code Code, err error) *CodannaError {
	if err == nil {
		return nil
	}
	return New(component, code, err.Error(), err)
}

// Category returns the error's category, derived from its code.
func (e *CodannaError) Category() Category {
	return categoryFromCode(e.Code)
}

// Severity returns the error's severity, derived from its code.
func (e *CodannaError) Severity() Severity {
	return severityFromCode(e.Code)
}

// Retryable reports whether the operation that produced this error is
// safe to retry, derived from its code.
func (e *CodannaError) Retryable() bool {
	return isRetryableCode(e.Code)
}

// IsRetryable reports whether err is a CodannaError marked retryable.
func IsRetryable(err error) bool {
	var ce *CodannaError
	if !As(err, &ce) {
		return false
	}
	return ce.Retryable()
}

// IsFatal reports whether err is a CodannaError of fatal severity.
func IsFatal(err error) bool {
	var ce *CodannaError
	if !As(err, &ce) {
		return false
	}
	return ce.Severity() == SeverityFatal
}

// GetCode extracts the Code from err, or "" if err is not a CodannaError.
func GetCode(err error) Code {
	var ce *CodannaError
	if !As(err, &ce) {
		return ""
	}
	return ce.Code
}

// GetComponent extracts the Component from err, or "" if err is not a
// CodannaError.
func GetComponent(err error) string {
	var ce *CodannaError
	if !As(err, &ce) {
		return ""
	}
	return ce.Component
}

// As walks err's single-Unwrap chain and reports the first *CodannaError
// it finds, so callers of this package don't need a second import for the
// common *CodannaError case. Multi-error (errors.Join) chains are not
// searched.
func As(err error, target **CodannaError) bool {
	for err != nil {
		if ce, ok := err.(*CodannaError); ok {
			*target = ce
			return true
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}
