package extension

import (
	"bytes"
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"git.home.luguber.info/inful/glaze/internal/content"
)

// Names of the built-in transformers.
const (
	HeadingAnchors = "heading-anchors"
	ExternalLinks  = "external-links"
)

var builtins = map[string]Transformer{
	HeadingAnchors: headingAnchors,
	ExternalLinks:  externalLinks,
}

// BuiltinNames lists the built-in transformers, sorted.
func BuiltinNames() []string {
	names := make([]string, 0, len(builtins))
	for n := range builtins {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// EnableBuiltins registers the named built-in transformers in the given order.
func (r *Registry) EnableBuiltins(names []string) error {
	for _, name := range names {
		t, ok := builtins[name]
		if !ok {
			return fmt.Errorf("unknown extension %q (available: %s)", name, strings.Join(BuiltinNames(), ", "))
		}
		if err := r.Transform(name, t); err != nil {
			return err
		}
	}
	return nil
}

// headingAnchors gives every h1-h6 without an id one derived from its text.
// Generated ids never collide with ids already present in the fragment.
func headingAnchors(_ context.Context, _ content.Page, src []byte) ([]byte, error) {
	nodes, err := parseFragment(src)
	if err != nil {
		return nil, err
	}

	used := map[string]int{}
	for _, n := range nodes {
		walk(n, func(el *html.Node) {
			if id, ok := attr(el, "id"); ok {
				used[id]++
			}
		})
	}

	for _, n := range nodes {
		walk(n, func(el *html.Node) {
			if !isHeading(el) {
				return
			}
			if _, ok := attr(el, "id"); ok {
				return
			}
			base := content.Slugify(textOf(el))
			if base == "" {
				base = "section"
			}
			id := base
			for i := 1; used[id] > 0; i++ {
				id = base + "-" + strconv.Itoa(i)
			}
			used[id]++
			el.Attr = append(el.Attr, html.Attribute{Key: "id", Val: id})
		})
	}
	return renderFragment(nodes)
}

// externalLinks opens absolute http(s) links in a new tab without granting
// the target access to window.opener.
func externalLinks(_ context.Context, _ content.Page, src []byte) ([]byte, error) {
	nodes, err := parseFragment(src)
	if err != nil {
		return nil, err
	}
	for _, n := range nodes {
		walk(n, func(el *html.Node) {
			if el.DataAtom != atom.A {
				return
			}
			href, _ := attr(el, "href")
			if !strings.HasPrefix(href, "http://") && !strings.HasPrefix(href, "https://") {
				return
			}
			setAttr(el, "target", "_blank")
			setAttr(el, "rel", "noopener")
		})
	}
	return renderFragment(nodes)
}

func parseFragment(src []byte) ([]*html.Node, error) {
	body := &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}
	return html.ParseFragment(bytes.NewReader(src), body)
}

func renderFragment(nodes []*html.Node) ([]byte, error) {
	var buf bytes.Buffer
	for _, n := range nodes {
		if err := html.Render(&buf, n); err != nil {
			return nil, err
		}
	}
	return buf.Bytes(), nil
}

func walk(n *html.Node, fn func(*html.Node)) {
	if n.Type == html.ElementNode {
		fn(n)
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		walk(c, fn)
	}
}

func isHeading(n *html.Node) bool {
	switch n.DataAtom {
	case atom.H1, atom.H2, atom.H3, atom.H4, atom.H5, atom.H6:
		return true
	}
	return false
}

func attr(n *html.Node, key string) (string, bool) {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

// setAttr sets key unless it is already present.
func setAttr(n *html.Node, key, val string) {
	if _, ok := attr(n, key); ok {
		return
	}
	n.Attr = append(n.Attr, html.Attribute{Key: key, Val: val})
}

func textOf(n *html.Node) string {
	var b strings.Builder
	var collect func(*html.Node)
	collect = func(c *html.Node) {
		if c.Type == html.TextNode {
			b.WriteString(c.Data)
		}
		for child := c.FirstChild; child != nil; child = child.NextSibling {
			collect(child)
		}
	}
	collect(n)
	return b.String()
}
