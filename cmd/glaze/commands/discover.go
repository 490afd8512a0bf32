package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"git.home.luguber.info/inful/glaze/internal/config"
	"git.home.luguber.info/inful/glaze/internal/content"
	ferrors "git.home.luguber.info/inful/glaze/internal/foundation/errors"
)

// DiscoverCmd implements the 'discover' command.
type DiscoverCmd struct {
	JSON bool `name:"json" help:"Print pages as JSON"`
}

// discoveredPage is the listing shape of a page.
type discoveredPage struct {
	Source string `json:"source"`
	Slug   string `json:"slug"`
	URL    string `json:"url"`
	Output string `json:"output"`
	Title  string `json:"title"`
	Type   string `json:"type,omitempty"`
	Draft  bool   `json:"draft"`
}

func (d *DiscoverCmd) Run(g *Global, root *CLI) error {
	cfg, err := loadConfig(root)
	if err != nil {
		return err
	}
	return RunDiscover(g.out(), cfg, d.JSON)
}

// RunDiscover lists the pages under the content directory, including
// generated taxonomy pages when they are enabled.
func RunDiscover(w io.Writer, cfg *config.Config, asJSON bool) error {
	pages, err := content.Discover(cfg.Paths.Content, cfg.DiscoveryOptions())
	if err != nil {
		return ferrors.WrapError(err, ferrors.CategoryContent, "discover content").WithPath(cfg.Paths.Content).Fatal().Build()
	}
	if cfg.Build.TaxonomyPages {
		var published []content.Page
		for _, p := range pages {
			if !p.Draft || cfg.Build.IncludeDrafts {
				published = append(published, p)
			}
		}
		pages = append(pages, content.TaxonomyPages(published, cfg.Content.Taxonomies)...)
	}

	list := make([]discoveredPage, 0, len(pages))
	for _, p := range pages {
		list = append(list, discoveredPage{
			Source: p.RelativePath,
			Slug:   p.Slug,
			URL:    p.URLPath,
			Output: p.OutputRelativePath,
			Title:  p.Title,
			Type:   p.Type,
			Draft:  p.Draft,
		})
	}

	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(list)
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "SLUG\tURL\tTYPE\tDRAFT\tSOURCE")
	for _, p := range list {
		source := p.Source
		if source == "" {
			source = "(generated)"
		}
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%t\t%s\n", p.Slug, p.URL, dash(p.Type), p.Draft, source)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	_, _ = fmt.Fprintf(w, "%d pages\n", len(list))
	return nil
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
