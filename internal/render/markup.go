// Package render adapts the external markup converter and template engine
// used to turn a page into an HTML document.
package render

import (
	"bytes"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
)

// Converter turns a markup body into an HTML fragment.
type Converter interface {
	Convert(source []byte) ([]byte, error)
}

// Goldmark converts CommonMark with GitHub extensions. Raw HTML in the source
// is not passed through.
type Goldmark struct {
	md goldmark.Markdown
}

// NewGoldmark returns a converter with GFM tables, strikethrough, task lists
// and linkify enabled and automatic heading IDs.
func NewGoldmark() *Goldmark {
	return &Goldmark{
		md: goldmark.New(
			goldmark.WithExtensions(extension.GFM),
			goldmark.WithParserOptions(parser.WithAutoHeadingID()),
		),
	}
}

func (g *Goldmark) Convert(source []byte) ([]byte, error) {
	var buf bytes.Buffer
	if err := g.md.Convert(source, &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
