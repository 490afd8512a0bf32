package errors

// ErrorCategory groups errors by the part of a build that failed. The CLI
// maps categories to exit codes.
type ErrorCategory string

const (
	// User input: the configuration file and command-line arguments.
	CategoryConfig     ErrorCategory = "config"
	CategoryValidation ErrorCategory = "validation"

	// Build stages.
	CategoryContent    ErrorCategory = "content"
	CategoryManifest   ErrorCategory = "manifest"
	CategoryRender     ErrorCategory = "render"
	CategoryFileSystem ErrorCategory = "filesystem"

	// Build side effects.
	CategoryNotify  ErrorCategory = "notify"
	CategoryHistory ErrorCategory = "history"

	CategoryWatch    ErrorCategory = "watch"
	CategoryInternal ErrorCategory = "internal"
)

// ErrorSeverity indicates the impact level of an error.
type ErrorSeverity string

const (
	SeverityFatal   ErrorSeverity = "fatal"   // Stops the command
	SeverityError   ErrorSeverity = "error"   // Fails the current build
	SeverityWarning ErrorSeverity = "warning" // Build continues
)

// ErrorContext holds structured values attached to an error. They are
// logged as attributes by the CLI adapter.
type ErrorContext map[string]any

// Get retrieves a context value.
func (c ErrorContext) Get(key string) (any, bool) {
	value, exists := c[key]
	return value, exists
}

// GetString retrieves a string context value.
func (c ErrorContext) GetString(key string) (string, bool) {
	str, ok := c[key].(string)
	return str, ok
}
