package content

import (
	"maps"
	"strings"
)

// RootSlug is the reserved slug of the site root.
const RootSlug = "index"

// Page represents a discovered or synthesized content document.
type Page struct {
	SourcePath         string              // Absolute path to the source file; empty for virtual pages
	RelativePath       string              // Slash-separated path relative to the content root, with extension
	Slug               string              // Normalized lowercase path without extension
	URLPath            string              // Public path, always starting with "/"
	OutputRelativePath string              // Path under the output root
	Title              string              // Explicit or humanized title
	Source             string              // Body with front matter stripped
	Draft              bool                // Excluded from output unless drafts are included
	Meta               map[string]any      // Normalized front matter minus reserved and taxonomy keys
	Taxonomies         map[string][]string // Taxonomy key -> lowercased, deduplicated terms
	Type               string              // Resolved content type, empty when none applies
	Virtual            bool                // True when the page has no backing file
}

// Key identifies the page in metadata signatures. Real pages use their
// relative path; virtual pages are keyed by slug.
func (p Page) Key() string {
	if p.Virtual {
		return "virtual:" + p.Slug
	}
	return p.RelativePath
}

// Template returns the template named in front matter, or fallback.
func (p Page) Template(fallback string) string {
	if name, ok := p.Meta["template"].(string); ok && strings.TrimSpace(name) != "" {
		return strings.TrimSpace(name)
	}
	return fallback
}

// URLPathForSlug maps a slug to its public path.
func URLPathForSlug(slug string) string {
	if slug == RootSlug {
		return "/"
	}
	return "/" + slug + "/"
}

// OutputPathForSlug maps a slug to its path under the output root.
func OutputPathForSlug(slug string) string {
	if slug == RootSlug {
		return "index.html"
	}
	return slug + "/index.html"
}

// NewVirtualPage builds a page with no backing file. The slug is normalized
// like an explicit front-matter slug; a blank title is derived from it.
func NewVirtualPage(slug, title string, meta map[string]any) Page {
	s := NormalizeSlug(slug)
	if strings.TrimSpace(title) == "" {
		title = Humanize(s)
	}

	m := make(map[string]any, len(meta))
	maps.Copy(m, meta)

	return Page{
		Slug:               s,
		URLPath:            URLPathForSlug(s),
		OutputRelativePath: OutputPathForSlug(s),
		Title:              strings.TrimSpace(title),
		Meta:               m,
		Taxonomies:         map[string][]string{},
		Virtual:            true,
	}
}
