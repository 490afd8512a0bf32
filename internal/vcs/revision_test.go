package vcs

import (
	"testing"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/glaze/internal/testutil"
)

func TestRevision_NotARepository(t *testing.T) {
	require.Empty(t, Revision(t.TempDir()))
}

func TestRevision_EmptyRepository(t *testing.T) {
	dir := t.TempDir()
	testutil.InitRepo(t, dir)
	require.Empty(t, Revision(dir))
}

func TestRevision_FindsRepositoryFromSubdirectory(t *testing.T) {
	site := testutil.NewSite(t).WithFile("site/content/index.md", "# Home\n")
	_, w := testutil.InitRepo(t, site.Dir())
	commit := testutil.CommitAll(t, w, "Initial commit")

	sub := site.Path("site/content")
	require.Equal(t, commit.String(), Revision(sub))

	head, err := ReadHead(sub)
	require.NoError(t, err)
	require.Equal(t, "master", head.Branch)
}
