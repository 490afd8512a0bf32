package errors

import (
	stderrors "errors"
	"fmt"
)

// ContextKeyPath is the context key under which WithPath stores its value.
const ContextKeyPath = "path"

// ClassifiedError is an error tagged with a category, a severity and
// optional context. Build one with NewError or WrapError.
type ClassifiedError struct {
	category ErrorCategory
	severity ErrorSeverity
	message  string
	cause    error
	context  ErrorContext
}

// Error renders "[category:severity] message[: path][: cause]".
func (e *ClassifiedError) Error() string {
	msg := fmt.Sprintf("[%s:%s] %s", e.category, e.severity, e.message)
	if path := e.Path(); path != "" {
		msg += ": " + path
	}
	if e.cause != nil {
		msg += ": " + e.cause.Error()
	}
	return msg
}

func (e *ClassifiedError) Unwrap() error { return e.cause }

func (e *ClassifiedError) Category() ErrorCategory { return e.category }

func (e *ClassifiedError) Severity() ErrorSeverity { return e.severity }

// Message returns the message without category, path or cause.
func (e *ClassifiedError) Message() string { return e.message }

func (e *ClassifiedError) Cause() error { return e.cause }

func (e *ClassifiedError) Context() ErrorContext { return e.context }

// Path returns the file or directory recorded with WithPath, if any.
func (e *ClassifiedError) Path() string {
	path, _ := e.context.GetString(ContextKeyPath)
	return path
}

// Is reports whether target is a ClassifiedError with the same category and
// message.
func (e *ClassifiedError) Is(target error) bool {
	other, ok := target.(*ClassifiedError)
	return ok && e.category == other.category && e.message == other.message
}

// IsFatal reports whether the error should stop the command.
func (e *ClassifiedError) IsFatal() bool {
	return e.severity == SeverityFatal
}

// AsClassified finds the first ClassifiedError in err's chain.
func AsClassified(err error) (*ClassifiedError, bool) {
	var classified *ClassifiedError
	if stderrors.As(err, &classified) {
		return classified, true
	}
	return nil, false
}

// HasCategory reports whether the first ClassifiedError in err's chain
// belongs to category.
func HasCategory(err error, category ErrorCategory) bool {
	classified, ok := AsClassified(err)
	return ok && classified.category == category
}

// GetCategory extracts the category from an error, or returns CategoryInternal.
func GetCategory(err error) ErrorCategory {
	if classified, ok := AsClassified(err); ok {
		return classified.category
	}
	return CategoryInternal
}
