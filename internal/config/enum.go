package config

import (
	"fmt"
	"sort"
	"strings"

	"git.home.luguber.info/inful/glaze/internal/retry"
)

// enumNormalizer maps loosely written values (case, surrounding space,
// aliases) onto a canonical set.
type enumNormalizer[T comparable] struct {
	name   string
	values map[string]T
}

func newEnumNormalizer[T comparable](name string, values map[string]T) *enumNormalizer[T] {
	normalized := make(map[string]T, len(values))
	for k, v := range values {
		normalized[normalizeKey(k)] = v
	}
	return &enumNormalizer[T]{name: name, values: normalized}
}

func normalizeKey(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Normalize returns the canonical value for raw or an error naming the
// accepted values.
func (e *enumNormalizer[T]) Normalize(raw string) (T, error) {
	if v, ok := e.values[normalizeKey(raw)]; ok {
		return v, nil
	}
	var zero T
	return zero, fmt.Errorf("invalid %s %q (valid: %s)", e.name, raw, strings.Join(e.validKeys(), ", "))
}

func (e *enumNormalizer[T]) validKeys() []string {
	keys := make([]string, 0, len(e.values))
	for k := range e.values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Log levels and formats accepted in logging.level and logging.format.
const (
	LogLevelDebug = "debug"
	LogLevelInfo  = "info"
	LogLevelWarn  = "warn"
	LogLevelError = "error"

	LogFormatText   = "text"
	LogFormatJSON   = "json"
	LogFormatPretty = "pretty"
)

var (
	logLevels = newEnumNormalizer("log level", map[string]string{
		"debug":   LogLevelDebug,
		"info":    LogLevelInfo,
		"warn":    LogLevelWarn,
		"warning": LogLevelWarn,
		"error":   LogLevelError,
	})
	logFormats = newEnumNormalizer("log format", map[string]string{
		"text":    LogFormatText,
		"logfmt":  LogFormatText,
		"json":    LogFormatJSON,
		"pretty":  LogFormatPretty,
		"console": LogFormatPretty,
	})
	retryBackoffs = newEnumNormalizer("retry backoff", map[string]retry.Backoff{
		"fixed":       retry.BackoffFixed,
		"constant":    retry.BackoffFixed,
		"linear":      retry.BackoffLinear,
		"exponential": retry.BackoffExponential,
		"exp":         retry.BackoffExponential,
	})
)

// NormalizeLogLevel returns the canonical log level for raw.
func NormalizeLogLevel(raw string) (string, error) { return logLevels.Normalize(raw) }

// NormalizeLogFormat returns the canonical log format for raw.
func NormalizeLogFormat(raw string) (string, error) { return logFormats.Normalize(raw) }

// NormalizeRetryBackoff returns the canonical backoff mode for raw.
func NormalizeRetryBackoff(raw string) (retry.Backoff, error) { return retryBackoffs.Normalize(raw) }
