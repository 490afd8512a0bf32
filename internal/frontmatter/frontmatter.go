// Package frontmatter splits a fenced metadata header from a content document
// and decodes it into a string-keyed map.
//
// Two fences are recognised, each on its own line at the very start of the
// document: `---` for YAML and `+++` for TOML. The closing fence must match
// the opening one.
package frontmatter

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Format identifies the encoding of a front-matter block.
type Format string

const (
	FormatNone Format = ""
	FormatYAML Format = "yaml"
	FormatTOML Format = "toml"
)

var (
	// ErrMissingClosingDelimiter indicates the document opened a front-matter
	// fence but never closed it.
	ErrMissingClosingDelimiter = errors.New("front matter start delimiter found but closing delimiter is missing")

	// ErrNotMapping indicates the front matter decoded to something other than a
	// key/value mapping (a list or a bare scalar).
	ErrNotMapping = errors.New("front matter is not a key/value mapping")

	// ErrDecode indicates the front-matter block is not valid YAML or TOML.
	ErrDecode = errors.New("front matter decode failed")
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Style captures formatting details needed for stable rewriting.
type Style struct {
	Newline            string
	HasTrailingNewline bool
}

// Split separates the raw front-matter block from the document body.
//
// If the document does not start with a recognised fence, format is FormatNone
// and body is the full input (minus a leading UTF-8 BOM).
func Split(content []byte) (raw []byte, body []byte, format Format, style Style, err error) {
	content = bytes.TrimPrefix(content, utf8BOM)
	style = detectStyle(content)
	nl := style.Newline

	var fence string
	switch {
	case bytes.HasPrefix(content, []byte("---"+nl)):
		fence, format = "---", FormatYAML
	case bytes.HasPrefix(content, []byte("+++"+nl)):
		fence, format = "+++", FormatTOML
	default:
		return nil, content, FormatNone, style, nil
	}

	start := len(fence) + len(nl)
	rest := content[start:]

	// Empty block: the closing fence follows immediately.
	if bytes.HasPrefix(rest, []byte(fence+nl)) {
		return []byte{}, rest[len(fence)+len(nl):], format, style, nil
	}
	if bytes.Equal(rest, []byte(fence)) {
		return []byte{}, []byte{}, format, style, nil
	}

	closing := []byte(nl + fence + nl)
	if idx := bytes.Index(rest, closing); idx >= 0 {
		return rest[:idx+len(nl)], rest[idx+len(closing):], format, style, nil
	}

	// Closing fence on the last line without a trailing newline.
	if bytes.HasSuffix(rest, []byte(nl+fence)) {
		end := len(rest) - len(fence)
		return rest[:end], []byte{}, format, style, nil
	}

	return nil, nil, FormatNone, style, ErrMissingClosingDelimiter
}

// Join reassembles a YAML-fenced document from raw front matter and body.
//
// If had is false, Join returns body as-is.
func Join(raw []byte, body []byte, had bool, style Style) []byte {
	if !had {
		return body
	}

	nl := style.Newline
	if nl == "" {
		nl = "\n"
	}

	fence := []byte("---" + nl)
	out := make([]byte, 0, 2*len(fence)+len(raw)+len(body))
	out = append(out, fence...)
	out = append(out, raw...)
	out = append(out, fence...)
	out = append(out, body...)
	return out
}

// Parse splits content and decodes its front matter.
//
// A document without front matter yields an empty map and the whole input as
// body. A malformed fence, an undecodable block or a block that is not a
// mapping is an error.
func Parse(content []byte) (fields map[string]any, body []byte, err error) {
	raw, body, format, _, err := Split(content)
	if err != nil {
		return nil, nil, err
	}

	switch format {
	case FormatYAML:
		fields, err = ParseYAML(raw)
	case FormatTOML:
		fields, err = ParseTOML(raw)
	default:
		fields = map[string]any{}
	}
	if err != nil {
		return nil, nil, err
	}
	return fields, body, nil
}

// ParseYAML decodes a raw YAML block (without fences) into a map.
func ParseYAML(raw []byte) (map[string]any, error) {
	if len(bytes.TrimSpace(raw)) == 0 {
		return map[string]any{}, nil
	}

	var decoded any
	if err := yaml.Unmarshal(raw, &decoded); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDecode, err)
	}
	return asMapping(decoded)
}

// ParseTOML decodes a raw TOML block (without fences) into a map.
func ParseTOML(raw []byte) (map[string]any, error) {
	fields := map[string]any{}
	if len(bytes.TrimSpace(raw)) == 0 {
		return fields, nil
	}
	if err := toml.Unmarshal(raw, &fields); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDecode, err)
	}
	return fields, nil
}

func asMapping(decoded any) (map[string]any, error) {
	switch m := decoded.(type) {
	case nil:
		return map[string]any{}, nil
	case map[string]any:
		return m, nil
	case map[any]any:
		out := make(map[string]any, len(m))
		for k, v := range m {
			out[fmt.Sprint(k)] = v
		}
		return out, nil
	default:
		return nil, fmt.Errorf("%w: got %T", ErrNotMapping, decoded)
	}
}

func detectStyle(content []byte) Style {
	newline := "\n"
	if i := bytes.IndexByte(content, '\n'); i > 0 && content[i-1] == '\r' {
		newline = "\r\n"
	}

	return Style{
		Newline:            newline,
		HasTrailingNewline: len(content) > 0 && content[len(content)-1] == '\n',
	}
}
