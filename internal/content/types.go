package content

import (
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// Matcher decides whether a content-relative path belongs to a content type.
type Matcher interface {
	Match(relPath string) bool
}

// PrefixMatcher matches paths under a directory prefix, segment by segment:
// "blog" matches "blog/post.md" but not "blogroll.md". An empty prefix
// matches everything.
type PrefixMatcher struct {
	Prefix string
}

func (m PrefixMatcher) Match(relPath string) bool {
	prefix := strings.Trim(m.Prefix, "/")
	if prefix == "" || prefix == "." {
		return true
	}
	relPath = strings.TrimPrefix(relPath, "/")
	return relPath == prefix || strings.HasPrefix(relPath, prefix+"/")
}

// GlobMatcher matches paths against a doublestar pattern such as "docs/**/*.md".
type GlobMatcher struct {
	Pattern string
}

func (m GlobMatcher) Match(relPath string) bool {
	ok, err := doublestar.Match(strings.TrimPrefix(m.Pattern, "/"), strings.TrimPrefix(relPath, "/"))
	return err == nil && ok
}

// NewMatcher returns a GlobMatcher when pattern contains glob metacharacters
// and a PrefixMatcher otherwise.
func NewMatcher(pattern string) Matcher {
	if strings.ContainsAny(pattern, "*?[{") {
		return GlobMatcher{Pattern: pattern}
	}
	return PrefixMatcher{Prefix: pattern}
}

// TypeRule describes a configured content type.
type TypeRule struct {
	Name          string
	Matchers      []Matcher
	Meta          map[string]any // Defaults merged under page front matter
	CreatePattern string         // Path pattern used when creating new content
}

// NewTypeRule builds a rule whose matchers are derived from paths.
func NewTypeRule(name string, paths []string, meta map[string]any, createPattern string) TypeRule {
	matchers := make([]Matcher, 0, len(paths))
	for _, p := range paths {
		matchers = append(matchers, NewMatcher(p))
	}
	return TypeRule{Name: name, Matchers: matchers, Meta: meta, CreatePattern: createPattern}
}

// Matches reports whether any of the rule's matchers accepts relPath.
func (r TypeRule) Matches(relPath string) bool {
	for _, m := range r.Matchers {
		if m.Match(relPath) {
			return true
		}
	}
	return false
}

// resolveType returns the rule named explicitly, or the first rule matching
// relPath. found is false when neither applies; known is false when an
// explicit name has no rule.
func resolveType(rules []TypeRule, explicit, relPath string) (rule TypeRule, found, known bool) {
	if explicit != "" {
		for _, r := range rules {
			if r.Name == explicit {
				return r, true, true
			}
		}
		return TypeRule{}, false, false
	}
	for _, r := range rules {
		if r.Matches(relPath) {
			return r, true, true
		}
	}
	return TypeRule{}, false, true
}
