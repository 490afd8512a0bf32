package frontmatter

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSerializeYAML_SortsKeys(t *testing.T) {
	out, err := SerializeYAML(map[string]any{"b": 1, "a": "x"}, Style{Newline: "\n"})
	require.NoError(t, err)
	require.Equal(t, "a: x\nb: 1\n", string(out))
}

func TestSerializeYAML_Empty_ReturnsEmpty(t *testing.T) {
	out, err := SerializeYAML(map[string]any{}, Style{})
	require.NoError(t, err)
	require.Empty(t, out)
}

func TestSerializeYAML_CRLF_UsesStyleNewline(t *testing.T) {
	out, err := SerializeYAML(map[string]any{"a": "x", "b": "y"}, Style{Newline: "\r\n"})
	require.NoError(t, err)
	require.Equal(t, "a: x\r\nb: y\r\n", string(out))
}

func TestDocument_RoundTripsThroughParse(t *testing.T) {
	doc, err := Document(map[string]any{
		"title": "Hello",
		"draft": true,
		"tags":  []string{"go", "web"},
	}, []byte("# Hello\n"))
	require.NoError(t, err)

	fields, body, err := Parse(doc)
	require.NoError(t, err)
	require.Equal(t, "Hello", fields["title"])
	require.Equal(t, true, fields["draft"])
	require.Equal(t, []any{"go", "web"}, fields["tags"])
	require.Equal(t, []byte("# Hello\n"), body)
}
