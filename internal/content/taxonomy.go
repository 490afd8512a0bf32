package content

import (
	"log/slog"
	"slices"
	"sort"

	"git.home.luguber.info/inful/glaze/internal/logfields"
)

// TaxonomyTemplate is the template assigned to generated taxonomy pages.
const TaxonomyTemplate = "taxonomy"

// TaxonomyPages synthesizes listing pages for the given taxonomy keys: one
// page per key at "<key>" and one per term at "<key>/<term slug>". Keys with
// no terms produce nothing. Terms sharing a slug are merged into one page
// titled by the first term in sort order; terms with an empty slug are
// skipped. Both cases are logged. Drafts are not consulted; callers pass the
// pages they intend to publish.
func TaxonomyPages(pages []Page, keys []string) []Page {
	var out []Page
	for _, key := range keys {
		members := map[string][]string{}
		for _, p := range pages {
			if p.Virtual {
				continue
			}
			for _, term := range p.Taxonomies[key] {
				members[term] = append(members[term], p.Slug)
			}
		}
		if len(members) == 0 {
			continue
		}

		terms := make([]string, 0, len(members))
		for term := range members {
			terms = append(terms, term)
		}
		sort.Strings(terms)

		groups := groupTerms(key, terms)
		listed := make([]string, 0, len(groups))
		for _, g := range groups {
			listed = append(listed, g.terms[0])
		}

		out = append(out, NewVirtualPage(key, "", map[string]any{
			"taxonomy": key,
			"terms":    toAnySlice(listed),
			"template": TaxonomyTemplate,
		}))
		for _, g := range groups {
			var slugs []string
			for _, term := range g.terms {
				slugs = append(slugs, members[term]...)
			}
			sort.Strings(slugs)
			slugs = slices.Compact(slugs)
			out = append(out, NewVirtualPage(g.slug, g.terms[0], map[string]any{
				"taxonomy": key,
				"term":     g.terms[0],
				"pages":    toAnySlice(slugs),
				"template": TaxonomyTemplate,
			}))
		}
	}
	return out
}

type termGroup struct {
	slug  string
	terms []string // sorted; the first names the page
}

// groupTerms buckets sorted terms by the slug of their page, in order of
// first appearance.
func groupTerms(key string, terms []string) []termGroup {
	var groups []termGroup
	index := map[string]int{}
	for _, term := range terms {
		ts := Slugify(term)
		if ts == "" {
			slog.Warn("Skipping taxonomy term without a usable slug",
				slog.String("taxonomy", key), slog.String("term", term))
			continue
		}
		slug := NormalizeSlug(key + "/" + ts)
		if i, ok := index[slug]; ok {
			slog.Warn("Taxonomy terms share a page, merging",
				logfields.Slug(slug),
				slog.String("first", groups[i].terms[0]),
				slog.String("second", term))
			groups[i].terms = append(groups[i].terms, term)
			continue
		}
		index[slug] = len(groups)
		groups = append(groups, termGroup{slug: slug, terms: []string{term}})
	}
	return groups
}

// Members returns the pages a taxonomy term page lists, in input order.
func Members(taxonomyPage Page, pages []Page) []Page {
	listed, _ := taxonomyPage.Meta["pages"].([]any)
	if len(listed) == 0 {
		return nil
	}
	want := make(map[string]bool, len(listed))
	for _, v := range listed {
		if slug, ok := v.(string); ok {
			want[slug] = true
		}
	}
	var out []Page
	for _, p := range pages {
		if !p.Virtual && want[p.Slug] {
			out = append(out, p)
		}
	}
	return out
}

func toAnySlice(in []string) []any {
	out := make([]any, len(in))
	for i, s := range in {
		out[i] = s
	}
	return out
}
