// SPDX-License-Identifier: MPL-2.0

// Package watch re-runs a playbook when its files change on disk.
//
// Events are debounced: a burst of writes (an editor saving through a temp
// file, a git checkout) produces one callback with every changed path.
package watch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is the quiet period used when Options.Debounce is not set.
const DefaultDebounce = 500 * time.Millisecond

// ErrInvalidPattern is returned for globs doublestar cannot parse.
var ErrInvalidPattern = errors.New("invalid watch pattern")

var (
	// DefaultPatterns selects CUE sources next to the playbook.
	DefaultPatterns = []string{"*.cue"}

	defaultIgnores = []string{
		".git/**",
		"**/*.swp",
		"**/*.swo",
		"**/*~",
		"**/.#*",
		"**/.DS_Store",
	}
)

type (
	// Options configures a Watcher.
	Options struct {
		// Dir is the directory holding the playbook.
		Dir string
		// Patterns are doublestar globs relative to Dir; empty means DefaultPatterns.
		Patterns []string
		// Debounce is the quiet period after the last event; zero means DefaultDebounce.
		Debounce time.Duration
		// OnChange receives the changed paths relative to Dir. It never runs
		// concurrently with itself.
		OnChange func(ctx context.Context, changed []string) error
		Logger   *log.Logger
	}

	// Watcher is a debounced watch over one directory. Run may be called once.
	Watcher struct {
		opts    Options
		fsw     *fsnotify.Watcher
		dir     string
		logger  *log.Logger
		started atomic.Bool

		mu      sync.Mutex
		pending map[string]struct{}
		timer   *time.Timer
		busy    atomic.Bool
	}
)

// Validate checks the patterns.
func (o Options) Validate() error {
	var errs []error
	for _, pat := range o.Patterns {
		if pat == "" || !doublestar.ValidatePattern(pat) {
			errs = append(errs, fmt.Errorf("%w: %q", ErrInvalidPattern, pat))
		}
	}
	return errors.Join(errs...)
}

// New starts watching opts.Dir.
func New(opts Options) (*Watcher, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if len(opts.Patterns) == 0 {
		opts.Patterns = DefaultPatterns
	}
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}

	dir := opts.Dir
	if dir == "" {
		dir = "."
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("watch: resolve %s: %w", dir, err)
	}
	if info, err := os.Stat(abs); err != nil {
		return nil, fmt.Errorf("watch: %w", err)
	} else if !info.IsDir() {
		return nil, fmt.Errorf("watch: %s is not a directory", abs)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("watch: create watcher: %w", err)
	}
	if err := fsw.Add(abs); err != nil {
		_ = fsw.Close()
		return nil, fmt.Errorf("watch: add %s: %w", abs, err)
	}

	return &Watcher{
		opts:    opts,
		fsw:     fsw,
		dir:     abs,
		logger:  logger,
		pending: make(map[string]struct{}),
	}, nil
}

// Dir returns the absolute directory being watched.
func (w *Watcher) Dir() string { return w.dir }

// Run dispatches debounced callbacks until ctx is done. It returns nil on
// cancellation and an error when the underlying watcher breaks.
func (w *Watcher) Run(ctx context.Context) error {
	if !w.started.CompareAndSwap(false, true) {
		return errors.New("watch: Run called more than once")
	}
	defer w.stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case evt, ok := <-w.fsw.Events:
			if !ok {
				return errors.New("watch: event channel closed")
			}
			rel, err := filepath.Rel(w.dir, evt.Name)
			if err != nil {
				rel = evt.Name
			}
			if !w.Matches(rel) {
				continue
			}
			w.logger.Debug("change detected", "path", rel, "op", evt.Op.String())
			w.schedule(ctx, rel)

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return errors.New("watch: error channel closed")
			}
			if isFatalFsnotifyError(err) {
				return fmt.Errorf("watch: %w", err)
			}
			w.logger.Warn("watcher error", "error", err)
		}
	}
}

// Matches reports whether rel (relative to the watched directory) selects a
// callback.
func (w *Watcher) Matches(rel string) bool {
	rel = filepath.ToSlash(rel)
	for _, pat := range defaultIgnores {
		if ok, _ := doublestar.Match(pat, rel); ok {
			return false
		}
	}
	for _, pat := range w.opts.Patterns {
		if ok, _ := doublestar.Match(pat, rel); ok {
			return true
		}
	}
	return false
}

func (w *Watcher) schedule(ctx context.Context, rel string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.pending[rel] = struct{}{}
	if w.timer == nil {
		w.timer = time.AfterFunc(w.opts.Debounce, func() { w.fire(ctx) })
		return
	}
	w.timer.Reset(w.opts.Debounce)
}

func (w *Watcher) fire(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	if !w.busy.CompareAndSwap(false, true) {
		// keep the pending set and try again once the current run may be done
		w.logger.Debug("previous run still in progress; deferring")
		w.mu.Lock()
		w.timer.Reset(w.opts.Debounce)
		w.mu.Unlock()
		return
	}
	defer w.busy.Store(false)

	w.mu.Lock()
	changed := slices.Sorted(maps.Keys(w.pending))
	clear(w.pending)
	w.mu.Unlock()
	if len(changed) == 0 || w.opts.OnChange == nil {
		return
	}

	if err := w.opts.OnChange(ctx, changed); err != nil {
		w.logger.Error("re-run failed", "error", err)
	}
}

func (w *Watcher) stop() {
	w.mu.Lock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.mu.Unlock()
	if err := w.fsw.Close(); err != nil {
		w.logger.Warn("close watcher", "error", err)
	}
}
