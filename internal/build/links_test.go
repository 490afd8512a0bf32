package build

import (
	"testing"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/glaze/internal/content"
	"git.home.luguber.info/inful/glaze/internal/render"
)

func TestSiteAbsolute(t *testing.T) {
	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{"/blog/", "/blog/", true},
		{"/blog/?page=2#top", "/blog/", true},
		{"//cdn.example.com/x.js", "", false},
		{"https://example.com/", "", false},
		{"../sibling/", "", false},
		{"#anchor", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := siteAbsolute(tt.in)
			require.Equal(t, tt.ok, ok)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestFindBrokenLinks_ResolvesPagesAndAssets(t *testing.T) {
	pages := []content.Page{
		{RelativePath: "index.md", URLPath: "/", Source: "[blog](/blog) [post](/blog/post/index.html) [css](/css/site.css#x) [gone](/gone/) [ext](https://x.org/) [rel](post/)"},
		{RelativePath: "blog/post.md", URLPath: "/blog/post/", Source: "[home](/) [img](/blog/missing.png)"},
		{Slug: "tags", URLPath: "/tags/", Virtual: true, Source: "[x](/nowhere/)"},
	}
	known := knownURLs(
		[]content.Page{pages[0], pages[1], {URLPath: "/blog/"}},
		[]string{"css/site.css"},
	)

	broken := findBrokenLinks(render.NewGoldmark(), pages, known)
	require.Equal(t, []BrokenLink{
		{Page: "index.md", Destination: "/gone/"},
		{Page: "blog/post.md", Destination: "/blog/missing.png"},
	}, broken)
}
