// Package content discovers content documents and derives their routes.
//
// Discover walks a content root, parses front matter, and returns one Page per
// markup document sorted by relative path. Slugs, URL paths and output paths
// derived here are the stable identifiers the build manifest keys on.
package content

import (
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	cerrors "git.home.luguber.info/inful/glaze/internal/content/errors"
	"git.home.luguber.info/inful/glaze/internal/frontmatter"
	"git.home.luguber.info/inful/glaze/internal/logfields"
)

var (
	// DefaultTaxonomyKeys lists the taxonomies extracted when none are configured.
	DefaultTaxonomyKeys = []string{"tags"}

	// DefaultExtensions lists the markup extensions discovered when none are configured.
	DefaultExtensions = []string{".dj", ".djot", ".md"}
)

// Options configures a discovery pass.
type Options struct {
	TaxonomyKeys []string
	Types        []TypeRule
	Extensions   []string
}

// taxonomyKeys falls back to DefaultTaxonomyKeys only when no list was given;
// an empty list disables taxonomy extraction.
func (o Options) taxonomyKeys() []string {
	if o.TaxonomyKeys == nil {
		return DefaultTaxonomyKeys
	}
	keys := make([]string, 0, len(o.TaxonomyKeys))
	for _, k := range o.TaxonomyKeys {
		if k = strings.ToLower(strings.TrimSpace(k)); k != "" {
			keys = append(keys, k)
		}
	}
	return keys
}

func (o Options) extensions() []string {
	if len(o.Extensions) == 0 {
		return DefaultExtensions
	}
	return o.Extensions
}

// IsMarkup reports whether name carries one of the markup extensions.
// Comparison is case-insensitive.
func IsMarkup(name string, extensions []string) bool {
	if len(extensions) == 0 {
		extensions = DefaultExtensions
	}
	ext := path.Ext(name)
	for _, e := range extensions {
		if !strings.HasPrefix(e, ".") {
			e = "." + e
		}
		if strings.EqualFold(ext, e) {
			return true
		}
	}
	return false
}

// IsHidden reports whether any segment of a slash-separated path starts with a dot.
func IsHidden(relPath string) bool {
	for seg := range strings.SplitSeq(relPath, "/") {
		if strings.HasPrefix(seg, ".") && seg != "." {
			return true
		}
	}
	return false
}

// Discover finds every markup document under root and returns its pages
// sorted by RelativePath. A missing root yields no pages and no error.
func Discover(root string, opts Options) ([]Page, error) {
	info, err := os.Stat(root)
	if os.IsNotExist(err) {
		slog.Debug("Content root not found", logfields.Path(root))
		return []Page{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", cerrors.ErrContentWalkFailed, root, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s: not a directory", cerrors.ErrContentWalkFailed, root)
	}

	extensions := opts.extensions()
	var files []string
	err = filepath.WalkDir(root, func(p string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if p != root && strings.HasPrefix(d.Name(), ".") {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() || !IsMarkup(d.Name(), extensions) {
			return nil
		}
		files = append(files, p)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", cerrors.ErrContentWalkFailed, root, err)
	}

	pages := make([]Page, 0, len(files))
	for _, file := range files {
		rel, err := filepath.Rel(root, file)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %w", cerrors.ErrInvalidRelativePath, file, err)
		}
		page, err := loadPage(file, filepath.ToSlash(rel), opts)
		if err != nil {
			return nil, err
		}
		pages = append(pages, page)
	}

	sort.SliceStable(pages, func(i, j int) bool {
		return pages[i].RelativePath < pages[j].RelativePath
	})
	warnSlugCollisions(pages)

	slog.Debug("Content discovered", logfields.Path(root), logfields.Count(len(pages)))
	return pages, nil
}

func loadPage(sourcePath, relPath string, opts Options) (Page, error) {
	raw, err := os.ReadFile(sourcePath)
	if err != nil {
		return Page{}, fmt.Errorf("%w: %s: %w", cerrors.ErrFileReadFailed, sourcePath, err)
	}

	fields, body, err := frontmatter.Parse(raw)
	if err != nil {
		return Page{}, fmt.Errorf("%w: %s: %w", cerrors.ErrFrontMatterInvalid, sourcePath, err)
	}

	reserved, meta := splitReserved(normalizeFields(fields))

	explicitType, _ := scalarString(reserved[keyType])
	rule, found, known := resolveType(opts.Types, explicitType, relPath)
	if !known {
		return Page{}, fmt.Errorf("%w: %q in %s", cerrors.ErrUnknownContentType, explicitType, sourcePath)
	}
	if found {
		mergeDefaults(meta, rule.Meta)
	}

	taxonomies := extractTaxonomies(meta, opts.taxonomyKeys())

	slug := SlugFromPath(relPath)
	if explicit, ok := scalarString(reserved[keySlug]); ok && explicit != "" {
		slug = NormalizeSlug(explicit)
	}

	title := Humanize(slug)
	if explicit, ok := scalarString(reserved[keyTitle]); ok && explicit != "" {
		title = explicit
	}

	page := Page{
		SourcePath:         sourcePath,
		RelativePath:       relPath,
		Slug:               slug,
		URLPath:            URLPathForSlug(slug),
		OutputRelativePath: OutputPathForSlug(slug),
		Title:              title,
		Source:             string(body),
		Draft:              truthy(reserved[keyDraft]),
		Meta:               meta,
		Taxonomies:         taxonomies,
		Type:               rule.Name,
	}

	slog.Debug("Discovered page",
		logfields.File(relPath),
		logfields.Slug(slug),
		logfields.Type(page.Type))
	return page, nil
}

// warnSlugCollisions logs every pair of pages sharing a slug. Later pages in
// RelativePath order overwrite earlier ones in the output tree.
func warnSlugCollisions(pages []Page) {
	seen := make(map[string]string, len(pages))
	for _, p := range pages {
		if prev, ok := seen[p.Slug]; ok {
			slog.Warn("Slug collision, later page wins",
				logfields.Slug(p.Slug),
				slog.String("first", prev),
				slog.String("second", p.RelativePath))
		}
		seen[p.Slug] = p.RelativePath
	}
}
