package render

import (
	"errors"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"git.home.luguber.info/inful/glaze/internal/content"
	ferrors "git.home.luguber.info/inful/glaze/internal/foundation/errors"
	"git.home.luguber.info/inful/glaze/internal/logfields"
)

// FallbackTemplate names the built-in layout used when a page's template is
// not present in the template directory.
const FallbackTemplate = "_default"

const fallbackLayout = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>{{ .Page.Title }}{{ with .Site.Title }} | {{ . }}{{ end }}</title>
</head>
<body>
<main>
<h1>{{ .Page.Title }}</h1>
{{ .Content }}
{{- with .Pages }}
<ul>
{{- range . }}
<li><a href="{{ absURL .URLPath }}">{{ .Title }}</a></li>
{{- end }}
</ul>
{{- end }}
</main>
</body>
</html>
`

// Site is the site-wide data visible to every template.
type Site struct {
	Title   string
	BaseURL string
	Pages   []content.Page
}

// PageData is the value templates execute against.
type PageData struct {
	Site    Site
	Page    content.Page
	Content template.HTML
	Pages   []content.Page // Listed pages, set for taxonomy term pages
	BuildID string
}

// Engine holds the parsed template set for one build.
type Engine struct {
	tmpl    *template.Template
	names   map[string]struct{}
	baseURL string
}

// NewEngine parses every *.html file under dir into one template set. Each
// template is named by its slash-separated path relative to dir. A missing
// directory yields an engine with only the built-in layout.
func NewEngine(dir, baseURL string) (*Engine, error) {
	e := &Engine{names: map[string]struct{}{}, baseURL: strings.TrimSuffix(baseURL, "/")}
	root := template.New(FallbackTemplate).Funcs(e.funcMap())
	if _, err := root.Parse(fallbackLayout); err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryInternal, "parse built-in layout").Build()
	}
	e.tmpl = root

	if dir == "" {
		return e, nil
	}
	if _, err := os.Stat(dir); errors.Is(err, fs.ErrNotExist) {
		slog.Debug("Template directory not found, using built-in layout", logfields.Path(dir))
		return e, nil
	}

	var files []string
	err := filepath.WalkDir(dir, func(p string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if !d.IsDir() && strings.EqualFold(filepath.Ext(p), ".html") {
			files = append(files, p)
		}
		return nil
	})
	if err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryRender, "walk template directory").WithPath(dir).Build()
	}
	sort.Strings(files)

	for _, file := range files {
		rel, err := filepath.Rel(dir, file)
		if err != nil {
			return nil, ferrors.WrapError(err, ferrors.CategoryRender, "resolve template path").WithPath(file).Build()
		}
		name := filepath.ToSlash(rel)
		data, err := os.ReadFile(file)
		if err != nil {
			return nil, ferrors.WrapError(err, ferrors.CategoryRender, "read template").WithPath(file).Build()
		}
		if _, err := e.tmpl.New(name).Parse(string(data)); err != nil {
			return nil, ferrors.WrapError(err, ferrors.CategoryRender, "parse template").WithPath(file).Build()
		}
		e.names[name] = struct{}{}
	}

	slog.Debug("Templates loaded", logfields.Path(dir), logfields.Count(len(e.names)))
	return e, nil
}

// Resolve maps a requested template name to a loaded one. "post" also matches
// "post.html". Unknown names resolve to the built-in layout.
func (e *Engine) Resolve(name string) string {
	name = strings.TrimPrefix(name, "/")
	if _, ok := e.names[name]; ok {
		return name
	}
	if _, ok := e.names[name+".html"]; ok {
		return name + ".html"
	}
	return FallbackTemplate
}

// Names returns the loaded template names, sorted.
func (e *Engine) Names() []string {
	out := make([]string, 0, len(e.names))
	for n := range e.names {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// Render executes the template resolved from name against data.
func (e *Engine) Render(w io.Writer, name string, data PageData) error {
	resolved := e.Resolve(name)
	if resolved == FallbackTemplate && name != FallbackTemplate {
		slog.Debug("Template not found, using built-in layout", logfields.Template(name), logfields.Slug(data.Page.Slug))
	}
	if err := e.tmpl.ExecuteTemplate(w, resolved, data); err != nil {
		return ferrors.WrapError(err, ferrors.CategoryRender, fmt.Sprintf("execute template %s", resolved)).Build()
	}
	return nil
}

func (e *Engine) funcMap() template.FuncMap {
	return template.FuncMap{
		"absURL":   e.absURL,
		"slugify":  content.Slugify,
		"humanize": content.Humanize,
		"safeHTML": func(s string) template.HTML { return template.HTML(s) }, //nolint:gosec // template authors opt in explicitly
	}
}

func (e *Engine) absURL(p string) string {
	if strings.HasPrefix(p, "http://") || strings.HasPrefix(p, "https://") {
		return p
	}
	return e.baseURL + "/" + strings.TrimPrefix(p, "/")
}
