package watch

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestIgnored(t *testing.T) {
	for _, p := range []string{"a/.hidden.md", "a/page.md~", "a/.page.md.swp", "a/page.swx", "a/4913", "a/#page.md#", "x.tmp"} {
		require.True(t, Ignored(p), p)
	}
	for _, p := range []string{"a/page.md", "templates/page.html", "static/app.css"} {
		require.False(t, Ignored(p), p)
	}
}

func TestWatcher_RebuildsOnChange(t *testing.T) {
	root := t.TempDir()
	content := filepath.Join(root, "content")
	require.NoError(t, os.MkdirAll(filepath.Join(content, "blog"), 0o750))
	require.NoError(t, os.MkdirAll(filepath.Join(content, ".git"), 0o750))
	cfgFile := filepath.Join(root, "glaze.yaml")
	require.NoError(t, os.WriteFile(cfgFile, []byte("site: {}\n"), 0o600))

	rec := newRecorder()
	w, err := New(Options{
		Roots:    []string{content, filepath.Join(root, "missing")},
		Files:    []string{cfgFile},
		Debounce: 50 * time.Millisecond,
	}, rec.build)
	require.NoError(t, err)

	watched := w.Watched()
	require.Contains(t, watched, filepath.Join(content, "blog"))
	require.NotContains(t, watched, filepath.Join(content, ".git"))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	require.NoError(t, os.WriteFile(filepath.Join(content, "blog", "post.md"), []byte("# Post\n"), 0o600))
	got := waitTrigger(t, rec.calls)
	require.Equal(t, filepath.Join(content, "blog", "post.md"), got.Last)

	require.NoError(t, os.WriteFile(filepath.Join(root, "notes.txt"), []byte("x"), 0o600))
	requireNoTrigger(t, rec.calls, 150*time.Millisecond)

	require.NoError(t, os.WriteFile(cfgFile, []byte("site: {title: x}\n"), 0o600))
	got = waitTrigger(t, rec.calls)
	require.Equal(t, cfgFile, got.Last)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("watcher did not stop")
	}
}

func TestWatcher_PeriodicRebuild(t *testing.T) {
	rec := newRecorder()
	w, err := New(Options{Roots: []string{t.TempDir()}, PollInterval: 50 * time.Millisecond}, rec.build)
	require.NoError(t, err)

	go func() { _ = w.Run(t.Context()) }()
	got := waitTrigger(t, rec.calls)
	require.Equal(t, "schedule", got.Last)
}
