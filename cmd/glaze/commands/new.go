package commands

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"

	"git.home.luguber.info/inful/glaze/internal/config"
	"git.home.luguber.info/inful/glaze/internal/content"
	ferrors "git.home.luguber.info/inful/glaze/internal/foundation/errors"
	"git.home.luguber.info/inful/glaze/internal/frontmatter"
)

// NewCmd implements the 'new' command.
type NewCmd struct {
	Path  string `arg:"" help:"Path under the content directory, or the page name when the type has a create_pattern"`
	Type  string `short:"t" help:"Content type declared in content.types"`
	Title string `help:"Page title (derived from the slug when omitted)"`
	Draft bool   `help:"Mark the page as a draft"`
}

// NewOptions describes a content file to create.
type NewOptions struct {
	Path  string
	Type  string
	Title string
	Draft bool
	Now   time.Time
}

func (n *NewCmd) Run(g *Global, root *CLI) error {
	cfg, err := loadConfig(root)
	if err != nil {
		return err
	}
	created, err := RunNew(cfg, NewOptions{Path: n.Path, Type: n.Type, Title: n.Title, Draft: n.Draft, Now: time.Now()})
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintf(g.out(), "Created %s\n", created)
	return nil
}

// RunNew writes a new content file and returns its path.
func RunNew(cfg *config.Config, opts NewOptions) (string, error) {
	rel, slug, err := newContentPath(cfg, opts)
	if err != nil {
		return "", err
	}

	target := filepath.Join(cfg.Paths.Content, filepath.FromSlash(rel))
	if _, err := os.Stat(target); err == nil {
		return "", ferrors.ValidationError("content file already exists").WithPath(target).Build()
	} else if !errors.Is(err, fs.ErrNotExist) {
		return "", ferrors.WrapError(err, ferrors.CategoryFileSystem, "stat content file").WithPath(target).Fatal().Build()
	}

	title := strings.TrimSpace(opts.Title)
	if title == "" {
		title = content.Humanize(slug)
	}
	fields := map[string]any{
		"title": title,
		"date":  opts.Now.Format(time.DateOnly),
	}
	if opts.Type != "" {
		fields["type"] = opts.Type
	}
	if opts.Draft {
		fields["draft"] = true
	}

	doc, err := frontmatter.Document(fields, nil)
	if err != nil {
		return "", ferrors.WrapError(err, ferrors.CategoryInternal, "serialize front matter").Build()
	}
	if err := os.MkdirAll(filepath.Dir(target), 0o750); err != nil {
		return "", ferrors.WrapError(err, ferrors.CategoryFileSystem, "create content directory").WithPath(filepath.Dir(target)).Fatal().Build()
	}
	if err := os.WriteFile(target, doc, 0o600); err != nil {
		return "", ferrors.WrapError(err, ferrors.CategoryFileSystem, "write content file").WithPath(target).Fatal().Build()
	}
	return target, nil
}

// newContentPath resolves the path, relative to the content directory, and
// the slug of the file to create.
func newContentPath(cfg *config.Config, opts NewOptions) (rel, slug string, err error) {
	var pattern, base string
	if opts.Type != "" {
		tc, ok := cfg.Content.Types.Lookup(opts.Type)
		if !ok {
			return "", "", ferrors.ValidationError(fmt.Sprintf("unknown content type %q", opts.Type)).WithPath(cfg.File()).Build()
		}
		pattern = tc.CreatePattern
		if len(tc.Paths) > 0 {
			base = staticPrefix(tc.Paths[0])
		}
	}

	if pattern != "" {
		slug = content.Slugify(strings.TrimSuffix(opts.Path, path.Ext(opts.Path)))
		if slug == "" {
			return "", "", ferrors.ValidationError(fmt.Sprintf("cannot derive a slug from %q", opts.Path)).Build()
		}
		rel = path.Join(base, expandPattern(pattern, slug, opts.Now))
	} else {
		rel = path.Clean(filepath.ToSlash(opts.Path))
	}

	if !content.IsMarkup(rel, cfg.Content.Extensions) {
		rel += ".md"
	}
	if !filepath.IsLocal(filepath.FromSlash(rel)) {
		return "", "", ferrors.ValidationError("content path escapes content directory").WithPath(rel).Build()
	}
	if pattern == "" {
		slug = content.SlugFromPath(rel)
	}
	return rel, slug, nil
}

// expandPattern substitutes {slug} and {date} in a create_pattern.
func expandPattern(pattern, slug string, now time.Time) string {
	return strings.NewReplacer("{slug}", slug, "{date}", now.Format(time.DateOnly)).Replace(pattern)
}

// staticPrefix returns the directory part of a type path before any glob
// metacharacter.
func staticPrefix(p string) string {
	p = strings.Trim(p, "/")
	if !strings.ContainsAny(p, "*?[{") {
		return p
	}
	base, _ := doublestar.SplitPattern(p)
	if base == "." {
		return ""
	}
	return base
}
