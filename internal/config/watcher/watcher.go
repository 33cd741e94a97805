// Package watcher drives configuration hot reload for a host application.
//
// A Watcher calls CheckReload on a target (a loader.Loader or a
// layer.Manager) on a fixed interval and, optionally, shortly after
// fsnotify reports a write to one of the watched files. When the target
// reports a change the watcher diffs the old and new trees and publishes
// per-key events through a notify.Notifier.
package watcher

import (
	"context"
	"log/slog"
	"path/filepath"
	"slices"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"golang.org/x/time/rate"

	"github.com/dshills/nivconf/internal/config/layer"
	"github.com/dshills/nivconf/internal/config/notify"
	"github.com/dshills/nivconf/internal/config/toml"
)

// Reloader is anything that can be polled for configuration changes.
type Reloader interface {
	CheckReload() (bool, error)
}

// Treer exposes the current configuration as a tree. Targets that
// implement it get per-key change events; others only get reload events.
type Treer interface {
	Tree() *toml.Table
}

// Operation is the kind of file event that triggered a check.
type Operation int

const (
	// OpWrite indicates the file was modified.
	OpWrite Operation = iota
	// OpCreate indicates a new file was created.
	OpCreate
	// OpRemove indicates the file was deleted.
	OpRemove
	// OpRename indicates the file was renamed.
	OpRename
	// OpTick indicates a scheduled poll.
	OpTick
)

// String returns the operation name.
func (op Operation) String() string {
	switch op {
	case OpWrite:
		return "write"
	case OpCreate:
		return "create"
	case OpRemove:
		return "remove"
	case OpRename:
		return "rename"
	case OpTick:
		return "tick"
	default:
		return "unknown"
	}
}

func operation(op fsnotify.Op) Operation {
	switch {
	case op.Has(fsnotify.Remove):
		return OpRemove
	case op.Has(fsnotify.Rename):
		return OpRename
	case op.Has(fsnotify.Create):
		return OpCreate
	default:
		return OpWrite
	}
}

// Watcher polls a Reloader and publishes what changed.
type Watcher struct {
	target   Reloader
	interval time.Duration
	debounce time.Duration
	notifier *notify.Notifier
	onError  func(error)
	logger   *slog.Logger
	// limiter throttles checks triggered by file events; nil means no limit.
	limiter *rate.Limiter

	mu      sync.Mutex
	paths   []string
	running bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup

	// pollMu serializes Poll and guards last.
	pollMu sync.Mutex
	last   *toml.Table
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithInterval sets the polling interval. Zero disables interval polling,
// leaving only file events.
func WithInterval(d time.Duration) Option {
	return func(w *Watcher) {
		if d >= 0 {
			w.interval = d
		}
	}
}

// WithDebounce sets how long file events must settle before a check.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) {
		if d >= 0 {
			w.debounce = d
		}
	}
}

// WithFSNotify adds files whose writes trigger an early check.
func WithFSNotify(paths ...string) Option {
	return func(w *Watcher) {
		w.paths = append(w.paths, paths...)
	}
}

// WithRateLimit allows at most one file-triggered check per every. Events
// arriving faster are folded into the next allowed check.
func WithRateLimit(every time.Duration) Option {
	return func(w *Watcher) {
		if every > 0 {
			w.limiter = rate.NewLimiter(rate.Every(every), 1)
		}
	}
}

// WithNotifier sets where change events are published.
func WithNotifier(n *notify.Notifier) Option {
	return func(w *Watcher) {
		w.notifier = n
	}
}

// WithErrorHandler sets a function called with every failed check.
func WithErrorHandler(fn func(error)) Option {
	return func(w *Watcher) {
		w.onError = fn
	}
}

// WithLogger sets the logger. A nil logger is ignored.
func WithLogger(logger *slog.Logger) Option {
	return func(w *Watcher) {
		if logger != nil {
			w.logger = logger
		}
	}
}

// New creates a watcher for target. Nothing runs until Start or Run.
func New(target Reloader, opts ...Option) *Watcher {
	w := &Watcher{
		target:   target,
		interval: time.Second,
		debounce: 100 * time.Millisecond,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Watch adds a file whose writes trigger an early check. It takes effect
// on the next Start or Run.
func (w *Watcher) Watch(path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if !slices.Contains(w.paths, abs) {
		w.paths = append(w.paths, abs)
	}
	return nil
}

// WatchedFiles returns the files registered for file events.
func (w *Watcher) WatchedFiles() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return slices.Clone(w.paths)
}

// Poll checks the target once and publishes any change. It reports
// whether the target changed.
func (w *Watcher) Poll() (bool, error) {
	return w.poll(OpTick)
}

func (w *Watcher) poll(op Operation) (bool, error) {
	w.pollMu.Lock()
	defer w.pollMu.Unlock()

	treer, hasTree := w.target.(Treer)
	if hasTree && w.last == nil {
		w.last = treer.Tree()
	}

	changed, err := w.target.CheckReload()
	if err != nil {
		w.logger.Warn("config reload failed", "trigger", op, "error", err)
		if w.onError != nil {
			w.onError(err)
		}
	}
	if !changed {
		return false, err
	}

	var changes []notify.Change
	if hasTree {
		next := treer.Tree()
		changes = diff(w.last, next)
		w.last = next
	}
	w.logger.Info("config reloaded", "trigger", op, "changes", len(changes))

	if w.notifier != nil {
		changes = append(changes, notify.Change{Kind: notify.Reloaded, Source: source(w.target)})
		w.notifier.Publish(changes...)
	}
	return true, err
}

// diff turns two trees into change events sorted by kind then path.
func diff(old, next *toml.Table) []notify.Change {
	added, modified, removed := layer.Diff(old, next)
	oldFlat, nextFlat := layer.Flatten(old), layer.Flatten(next)

	changes := make([]notify.Change, 0, len(added)+len(modified)+len(removed))
	for _, p := range added {
		changes = append(changes, notify.Change{Path: p, Kind: notify.Added, New: nextFlat[p]})
	}
	for _, p := range modified {
		changes = append(changes, notify.Change{Path: p, Kind: notify.Modified, Old: oldFlat[p], New: nextFlat[p]})
	}
	for _, p := range removed {
		changes = append(changes, notify.Change{Path: p, Kind: notify.Removed, Old: oldFlat[p]})
	}
	return changes
}

func source(target Reloader) string {
	if p, ok := target.(interface{ Path() string }); ok {
		return p.Path()
	}
	return ""
}

// Start runs the watcher in the background until Stop.
func (w *Watcher) Start(ctx context.Context) {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return
	}
	ctx, w.cancel = context.WithCancel(ctx)
	w.running = true
	w.mu.Unlock()

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		if err := w.Run(ctx); err != nil {
			w.logger.Error("config watcher stopped", "error", err)
		}
	}()
}

// Stop stops a watcher started with Start and waits for it to exit.
func (w *Watcher) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	w.cancel()
	w.running = false
	w.mu.Unlock()

	w.wg.Wait()
}

// IsRunning returns whether the watcher was started and not stopped.
func (w *Watcher) IsRunning() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.running
}

// Run polls until ctx is done. It returns nil on cancellation and an
// error only if file watching could not be set up.
func (w *Watcher) Run(ctx context.Context) error {
	var tick <-chan time.Time
	if w.interval > 0 {
		ticker := time.NewTicker(w.interval)
		defer ticker.Stop()
		tick = ticker.C
	}

	var (
		events <-chan fsnotify.Event
		errs   <-chan error
		files  = make(map[string]bool)
	)
	if paths := w.WatchedFiles(); len(paths) > 0 {
		fsw, err := fsnotify.NewWatcher()
		if err != nil {
			return err
		}
		defer fsw.Close()
		w.addDirs(fsw, paths, files)
		events, errs = fsw.Events, fsw.Errors
	}

	var (
		settle  <-chan time.Time
		timer   *time.Timer
		pending = OpWrite
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case <-tick:
			_, _ = w.poll(OpTick)

		case ev, ok := <-events:
			if !ok {
				events = nil
				continue
			}
			if !files[filepath.Clean(ev.Name)] {
				continue
			}
			pending = operation(ev.Op)
			w.logger.Debug("config file event", "path", ev.Name, "op", pending)
			if w.debounce == 0 {
				_, _ = w.poll(pending)
				continue
			}
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Reset(w.debounce)
			}
			settle = timer.C

		case <-settle:
			settle = nil
			if w.limiter != nil {
				if r := w.limiter.Reserve(); r.Delay() > 0 {
					r.Cancel()
					timer.Reset(r.Delay())
					settle = timer.C
					continue
				}
			}
			_, _ = w.poll(pending)

		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			w.logger.Warn("config file watch error", "error", err)
		}
	}
}

// addDirs watches the parent directory of every file so that files
// replaced by rename, or created later, are still seen.
func (w *Watcher) addDirs(fsw *fsnotify.Watcher, paths []string, files map[string]bool) {
	dirs := make(map[string]bool)
	for _, p := range paths {
		p = filepath.Clean(p)
		files[p] = true
		dir := filepath.Dir(p)
		if dirs[dir] {
			continue
		}
		dirs[dir] = true
		if err := fsw.Add(dir); err != nil {
			w.logger.Debug("not watching config directory", "dir", dir, "error", err)
		}
	}
}
