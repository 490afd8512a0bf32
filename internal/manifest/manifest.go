// Package manifest fingerprints build inputs so the builder can decide
// between a full and an incremental rebuild.
//
// A Manifest is computed fresh on every build with FromBuild, compared to the
// previous snapshot returned by Load, and persisted with Save once every
// output write has succeeded. The manifest never decides anything itself: it
// only answers set queries (changed paths, orphaned paths, full-build gate).
package manifest

import (
	"encoding/json"
	"fmt"
	"maps"
	"slices"
	"strconv"

	"git.home.luguber.info/inful/glaze/internal/content"
	"git.home.luguber.info/inful/glaze/internal/hash"
)

// Inputs are the project-level values the global hash depends on.
type Inputs struct {
	ConfigFile      string
	TemplateDir     string
	ExtensionsDir   string
	ContentDir      string
	StaticDir       string
	IncludeDrafts   bool
	DefaultTemplate string
	Extensions      []string // Markup extensions; files with them are pages, not content assets
}

// Manifest is a snapshot of all build inputs. Every map is keyed by the path
// the builder writes to, relative to the output root.
type Manifest struct {
	GlobalHash             string            `json:"globalHash"`
	PageBodyHashes         map[string]string `json:"pageBodyHashes"`
	ContentAssetSignatures map[string]string `json:"contentAssetSignatures"`
	StaticAssetSignatures  map[string]string `json:"staticAssetSignatures"`
}

// pageSignature is the body-free view of a page that feeds the global hash.
type pageSignature struct {
	Slug               string              `json:"slug"`
	URLPath            string              `json:"urlPath"`
	OutputRelativePath string              `json:"outputRelativePath"`
	Title              string              `json:"title"`
	Draft              bool                `json:"draft"`
	Type               string              `json:"type"`
	Virtual            bool                `json:"virtual"`
	Meta               map[string]any      `json:"meta"`
	Taxonomies         map[string][]string `json:"taxonomies"`
}

// FromBuild computes the manifest for the current inputs and page list.
// Pages are expected in discovery order; when two pages share an output path
// the later one wins, matching the order in which the builder writes them.
func FromBuild(in Inputs, pages []content.Page) *Manifest {
	global := hash.MakeFromParts(
		FileSignature(in.ConfigFile),
		DirectorySignature(in.TemplateDir),
		DirectorySignature(in.ExtensionsDir),
		strconv.FormatBool(in.IncludeDrafts),
		in.DefaultTemplate,
		metadataSignature(pages),
	)

	bodies := make(map[string]string, len(pages))
	for _, p := range pages {
		if p.Virtual {
			continue
		}
		bodies[p.OutputRelativePath] = hash.Make(p.Source)
	}

	return &Manifest{
		GlobalHash:     global,
		PageBodyHashes: bodies,
		ContentAssetSignatures: AssetSignatures(in.ContentDir, func(rel string) bool {
			return content.IsMarkup(rel, in.Extensions)
		}),
		StaticAssetSignatures: AssetSignatures(in.StaticDir, nil),
	}
}

// metadataSignature hashes the canonical JSON of every page's metadata,
// keyed by source path (or "virtual:<slug>" for virtual pages).
func metadataSignature(pages []content.Page) string {
	sigs := make(map[string]pageSignature, len(pages))
	for _, p := range pages {
		sigs[p.Key()] = pageSignature{
			Slug:               p.Slug,
			URLPath:            p.URLPath,
			OutputRelativePath: p.OutputRelativePath,
			Title:              p.Title,
			Draft:              p.Draft,
			Type:               p.Type,
			Virtual:            p.Virtual,
			Meta:               p.Meta,
			Taxonomies:         p.Taxonomies,
		}
	}

	data, err := json.Marshal(sigs)
	if err != nil {
		// Values JSON cannot encode (NaN, Inf) still need a stable digest.
		return hash.Make(fmt.Sprintf("%v", sigs))
	}
	return hash.MakeBytes(data)
}

// RequiresFullBuild reports whether every page must be rendered: there is no
// previous manifest or the global inputs changed.
func (m *Manifest) RequiresFullBuild(prev *Manifest) bool {
	return prev == nil || prev.GlobalHash != m.GlobalHash
}

// ChangedPageOutputPaths returns the page outputs whose body hash is new or
// differs from prev. Pages only present in prev are reported as orphans.
func (m *Manifest) ChangedPageOutputPaths(prev *Manifest) []string {
	return changed(m.PageBodyHashes, previous(prev, func(p *Manifest) map[string]string { return p.PageBodyHashes }))
}

// ChangedContentAssetOutputPaths returns content assets that are new or whose signature changed.
func (m *Manifest) ChangedContentAssetOutputPaths(prev *Manifest) []string {
	return changed(m.ContentAssetSignatures, previous(prev, func(p *Manifest) map[string]string { return p.ContentAssetSignatures }))
}

// ChangedStaticAssetOutputPaths returns static assets that are new or whose signature changed.
func (m *Manifest) ChangedStaticAssetOutputPaths(prev *Manifest) []string {
	return changed(m.StaticAssetSignatures, previous(prev, func(p *Manifest) map[string]string { return p.StaticAssetSignatures }))
}

// OrphanedPageOutputPaths returns page outputs present in prev but not in m.
func (m *Manifest) OrphanedPageOutputPaths(prev *Manifest) []string {
	if prev == nil {
		return []string{}
	}
	return difference(prev.PageBodyHashes, m.PageBodyHashes)
}

// OrphanedContentAssetOutputPaths returns content assets present in prev but not in m.
func (m *Manifest) OrphanedContentAssetOutputPaths(prev *Manifest) []string {
	if prev == nil {
		return []string{}
	}
	return difference(prev.ContentAssetSignatures, m.ContentAssetSignatures)
}

// OrphanedStaticAssetOutputPaths returns static assets present in prev but not in m.
func (m *Manifest) OrphanedStaticAssetOutputPaths(prev *Manifest) []string {
	if prev == nil {
		return []string{}
	}
	return difference(prev.StaticAssetSignatures, m.StaticAssetSignatures)
}

// PageOutputPaths returns every page output path, sorted.
func (m *Manifest) PageOutputPaths() []string { return sortedKeys(m.PageBodyHashes) }

// ContentAssetOutputPaths returns every content asset path, sorted.
func (m *Manifest) ContentAssetOutputPaths() []string { return sortedKeys(m.ContentAssetSignatures) }

// StaticAssetOutputPaths returns every static asset path, sorted.
func (m *Manifest) StaticAssetOutputPaths() []string { return sortedKeys(m.StaticAssetSignatures) }

func previous(prev *Manifest, field func(*Manifest) map[string]string) map[string]string {
	if prev == nil {
		return nil
	}
	return field(prev)
}

func changed(current, prev map[string]string) []string {
	out := []string{}
	for k, v := range current {
		if old, ok := prev[k]; !ok || old != v {
			out = append(out, k)
		}
	}
	slices.Sort(out)
	return out
}

func difference(a, b map[string]string) []string {
	out := []string{}
	for k := range a {
		if _, ok := b[k]; !ok {
			out = append(out, k)
		}
	}
	slices.Sort(out)
	return out
}

func sortedKeys(m map[string]string) []string {
	out := slices.Collect(maps.Keys(m))
	if out == nil {
		out = []string{}
	}
	slices.Sort(out)
	return out
}
