// Package watch rebuilds the site when its inputs change.
package watch

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/go-co-op/gocron/v2"

	ferrors "git.home.luguber.info/inful/glaze/internal/foundation/errors"
	"git.home.luguber.info/inful/glaze/internal/logfields"
)

// Options configures a Watcher.
type Options struct {
	Roots        []string      // Directories watched recursively; missing ones are skipped
	Files        []string      // Individual files, watched through their parent directory
	Debounce     time.Duration // Quiet window before a build starts
	PollInterval time.Duration // Periodic rebuild interval; zero disables it
}

// Watcher triggers builds on file system changes and, optionally, on a
// schedule.
type Watcher struct {
	opts      Options
	fsw       *fsnotify.Watcher
	debouncer *Debouncer
	files     map[string]bool
}

// New creates a Watcher that calls build for every coalesced change burst.
func New(opts Options, build BuildFunc) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryWatch, "create file watcher").Fatal().Build()
	}
	w := &Watcher{
		opts:      opts,
		fsw:       fsw,
		debouncer: NewDebouncer(opts.Debounce, build),
		files:     map[string]bool{},
	}

	for _, root := range opts.Roots {
		if err := w.addRecursive(root); err != nil {
			_ = fsw.Close()
			return nil, err
		}
	}
	for _, f := range opts.Files {
		abs, err := filepath.Abs(f)
		if err != nil {
			continue
		}
		w.files[abs] = true
		if err := fsw.Add(filepath.Dir(abs)); err != nil {
			_ = fsw.Close()
			return nil, ferrors.WrapError(err, ferrors.CategoryWatch, "watch directory").WithPath(filepath.Dir(abs)).Fatal().Build()
		}
	}
	return w, nil
}

// Watched returns the directories currently registered with the OS watcher.
func (w *Watcher) Watched() []string {
	return w.fsw.WatchList()
}

// Run blocks until ctx is done.
func (w *Watcher) Run(ctx context.Context) error {
	defer func() { _ = w.fsw.Close() }()

	if w.opts.PollInterval > 0 {
		s, err := w.schedule()
		if err != nil {
			return err
		}
		s.Start()
		defer func() {
			if err := s.Shutdown(); err != nil {
				slog.Warn("Scheduler shutdown failed", logfields.Error(err))
			}
		}()
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		w.debouncer.Run(ctx)
	}()

	slog.Info("Watching for changes", logfields.Count(len(w.fsw.WatchList())))
	for {
		select {
		case <-ctx.Done():
			<-done
			return nil
		case ev, ok := <-w.fsw.Events:
			if !ok {
				<-done
				return nil
			}
			w.handle(ev)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				<-done
				return nil
			}
			slog.Error("File watcher error", logfields.Error(err))
		}
	}
}

func (w *Watcher) schedule() (gocron.Scheduler, error) {
	s, err := gocron.NewScheduler()
	if err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryWatch, "create scheduler").Fatal().Build()
	}
	_, err = s.NewJob(
		gocron.DurationJob(w.opts.PollInterval),
		gocron.NewTask(func() { w.debouncer.Request("schedule") }),
		gocron.WithName("periodic-rebuild"),
	)
	if err != nil {
		_ = s.Shutdown()
		return nil, ferrors.WrapError(err, ferrors.CategoryWatch, "schedule periodic rebuild").Fatal().Build()
	}
	return s, nil
}

func (w *Watcher) handle(ev fsnotify.Event) {
	if ev.Op == fsnotify.Chmod || Ignored(ev.Name) {
		return
	}

	if len(w.files) > 0 && !w.isRootEvent(ev.Name) {
		if !w.files[ev.Name] {
			return
		}
	} else if ev.Has(fsnotify.Create) {
		if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
			if err := w.addRecursive(ev.Name); err != nil {
				slog.Warn("Could not watch new directory", logfields.Path(ev.Name), logfields.Error(err))
			}
		}
	}

	slog.Debug("Change detected", logfields.Path(ev.Name), logfields.Event(ev.Op.String()))
	w.debouncer.Request(ev.Name)
}

// isRootEvent reports whether path lies within one of the recursive roots.
func (w *Watcher) isRootEvent(path string) bool {
	for _, root := range w.opts.Roots {
		abs, err := filepath.Abs(root)
		if err != nil {
			continue
		}
		if path == abs || strings.HasPrefix(path, abs+string(filepath.Separator)) {
			return true
		}
	}
	return false
}

func (w *Watcher) addRecursive(root string) error {
	abs, err := filepath.Abs(root)
	if err != nil {
		return ferrors.WrapError(err, ferrors.CategoryWatch, "resolve watch root").WithPath(root).Fatal().Build()
	}
	err = filepath.WalkDir(abs, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil
			}
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != abs && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		return w.fsw.Add(path)
	})
	if err != nil {
		return ferrors.WrapError(err, ferrors.CategoryWatch, "watch directory").WithPath(abs).Fatal().Build()
	}
	return nil
}

// Ignored reports whether a change to path should not cause a rebuild:
// hidden files and common editor temporaries.
func Ignored(path string) bool {
	base := filepath.Base(path)
	switch {
	case base == "4913": // vim write probe
		return true
	case strings.HasPrefix(base, "."):
		return true
	case strings.HasSuffix(base, "~"):
		return true
	case strings.HasPrefix(base, "#") && strings.HasSuffix(base, "#"):
		return true
	}
	switch filepath.Ext(base) {
	case ".swp", ".swx", ".tmp":
		return true
	}
	return false
}
