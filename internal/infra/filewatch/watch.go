// Package filewatch runs a callback once a set of files stops changing.
//
// Parent directories are watched rather than the files so atomic saves
// (write a temp file, rename it over the original) are seen, and files
// may be created after the watch starts.
package filewatch

import (
	"errors"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce coalesces the burst of events an editor save produces.
const DefaultDebounce = 100 * time.Millisecond

var ErrNoPaths = errors.New("filewatch: no paths")

const relevant = fsnotify.Write | fsnotify.Create | fsnotify.Rename

// Watcher delivers settled changes of its files.
type Watcher struct {
	fs       *fsnotify.Watcher
	paths    map[string]struct{}
	onChange func(path string)
	debounce time.Duration
	logger   *slog.Logger

	stop     chan struct{}
	done     chan struct{}
	stopOnce sync.Once
	stopErr  error
}

// Option configures a Watcher.
type Option func(*Watcher)

func WithLogger(logger *slog.Logger) Option {
	return func(w *Watcher) { w.logger = logger }
}

// WithDebounce sets the quiet period before onChange runs. Zero calls it
// for every event.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) { w.debounce = d }
}

// Watch starts watching paths. onChange receives the last path that
// changed in a burst. It runs on the watcher's goroutine and never
// concurrently with itself. The directories must exist.
func Watch(paths []string, onChange func(path string), opts ...Option) (*Watcher, error) {
	if len(paths) == 0 {
		return nil, ErrNoPaths
	}

	fs, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w := &Watcher{
		fs:       fs,
		paths:    make(map[string]struct{}, len(paths)),
		onChange: onChange,
		debounce: DefaultDebounce,
		logger:   slog.Default(),
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}

	dirs := map[string]bool{}
	for _, p := range paths {
		p = filepath.Clean(p)
		w.paths[p] = struct{}{}
		dir := filepath.Dir(p)
		if dirs[dir] {
			continue
		}
		if err := fs.Add(dir); err != nil {
			_ = fs.Close()
			return nil, err
		}
		dirs[dir] = true
	}

	go w.loop()
	w.logger.Debug("file watch started", "paths", paths)
	return w, nil
}

func (w *Watcher) loop() {
	defer close(w.done)

	var (
		timer   *time.Timer
		fire    <-chan time.Time
		pending string
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case ev, ok := <-w.fs.Events:
			if !ok {
				return
			}
			name := filepath.Clean(ev.Name)
			if _, ok := w.paths[name]; !ok || ev.Op&relevant == 0 {
				continue
			}
			w.logger.Debug("file event", "path", name, "op", ev.Op.String())
			if w.debounce <= 0 {
				w.onChange(name)
				continue
			}
			pending = name
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Reset(w.debounce)
			}
			fire = timer.C
		case <-fire:
			fire = nil
			w.onChange(pending)
		case err, ok := <-w.fs.Errors:
			if !ok {
				return
			}
			w.logger.Error("file watch error", "error", err)
		case <-w.stop:
			return
		}
	}
}

// Stop ends the watch and waits for a running onChange to return. Later
// calls return the first result.
func (w *Watcher) Stop() error {
	w.stopOnce.Do(func() {
		close(w.stop)
		w.stopErr = w.fs.Close()
		<-w.done
	})
	return w.stopErr
}
