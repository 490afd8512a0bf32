package build

import (
	"strings"

	"git.home.luguber.info/inful/glaze/internal/content"
	"git.home.luguber.info/inful/glaze/internal/render"
)

// LinkExtractor is implemented by converters that can list the links in a
// page body.
type LinkExtractor interface {
	ExtractLinks(body []byte) []render.Link
}

// BrokenLink is a site-absolute link that matches no page or asset.
type BrokenLink struct {
	Page        string `json:"page"` // Relative path of the linking page
	Destination string `json:"destination"`
}

// findBrokenLinks checks the site-absolute links ("/...") of pages against
// the set of known URL paths. Relative and external links are not checked.
func findBrokenLinks(x LinkExtractor, pages []content.Page, known map[string]bool) []BrokenLink {
	var broken []BrokenLink
	for _, p := range pages {
		if p.Virtual {
			continue
		}
		for _, l := range x.ExtractLinks([]byte(p.Source)) {
			dest, ok := siteAbsolute(l.Destination)
			if !ok || resolves(dest, known) {
				continue
			}
			broken = append(broken, BrokenLink{Page: p.RelativePath, Destination: l.Destination})
		}
	}
	return broken
}

// siteAbsolute strips query and fragment from a "/..." link. It rejects
// protocol-relative and non-absolute links.
func siteAbsolute(dest string) (string, bool) {
	if !strings.HasPrefix(dest, "/") || strings.HasPrefix(dest, "//") {
		return "", false
	}
	if i := strings.IndexAny(dest, "?#"); i >= 0 {
		dest = dest[:i]
	}
	return dest, dest != ""
}

func resolves(dest string, known map[string]bool) bool {
	if known[dest] {
		return true
	}
	if !strings.HasSuffix(dest, "/") && known[dest+"/"] {
		return true
	}
	if trimmed, ok := strings.CutSuffix(dest, "index.html"); ok && known[trimmed] {
		return true
	}
	return false
}

// knownURLs collects the URL path of every published page and asset.
func knownURLs(pages []content.Page, assets ...[]string) map[string]bool {
	known := map[string]bool{}
	for _, p := range pages {
		known[p.URLPath] = true
	}
	for _, set := range assets {
		for _, rel := range set {
			known["/"+rel] = true
		}
	}
	return known
}
