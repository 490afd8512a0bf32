package content

import (
	"path"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// fallbackSegment replaces segments that slugify to nothing.
const fallbackSegment = "page"

// Slugify lowercases s, folds accented letters to ASCII and collapses every
// run of other characters into a single hyphen.
func Slugify(s string) string {
	folded, _, err := transform.String(transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn))), s)
	if err != nil {
		folded = s
	}
	folded = strings.ToLower(folded)

	var b strings.Builder
	b.Grow(len(folded))
	pendingDash := false
	for _, r := range folded {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			if pendingDash && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingDash = false
			b.WriteRune(r)
			continue
		}
		pendingDash = true
	}
	return b.String()
}

// NormalizeSlug normalizes an explicit slug segment by segment. Outer slashes
// are ignored and blank segments become "page".
func NormalizeSlug(slug string) string {
	segments := strings.Split(strings.Trim(strings.TrimSpace(slug), "/"), "/")
	for i, seg := range segments {
		segments[i] = slugSegment(seg)
	}
	return strings.Join(segments, "/")
}

// SlugFromPath derives a slug from a content-relative path: the extension is
// stripped, a trailing index segment is dropped when it has a parent, and each
// remaining segment is slugified.
func SlugFromPath(relPath string) string {
	trimmed := strings.TrimSuffix(relPath, path.Ext(relPath))
	segments := strings.Split(trimmed, "/")
	if len(segments) > 1 && strings.EqualFold(segments[len(segments)-1], RootSlug) {
		segments = segments[:len(segments)-1]
	}
	for i, seg := range segments {
		segments[i] = slugSegment(seg)
	}
	return strings.Join(segments, "/")
}

func slugSegment(seg string) string {
	if s := Slugify(seg); s != "" {
		return s
	}
	return fallbackSegment
}

// Humanize turns the last slug segment into a title: "hello-world" becomes
// "Hello World" and the root slug becomes "Home".
func Humanize(slug string) string {
	last := slug
	if i := strings.LastIndex(slug, "/"); i >= 0 {
		last = slug[i+1:]
	}
	if last == RootSlug {
		return "Home"
	}
	words := strings.Fields(strings.NewReplacer("-", " ", "_", " ").Replace(last))
	return cases.Title(language.Und).String(strings.Join(words, " "))
}
