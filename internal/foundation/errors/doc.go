// Package errors provides classified error primitives used across glaze.
//
// A ClassifiedError carries a category, a severity and structured context.
// The CLI adapter maps categories to exit codes and prints path-qualified
// messages.
//
// Example usage:
//
//	err := errors.WrapError(ioErr, errors.CategoryFileSystem, "write output").
//		WithContext("path", target).
//		Build()
package errors
