package loader

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/dshills/nivconf/internal/config"
	"github.com/dshills/nivconf/internal/config/toml"
)

// State is the loader's position in its lifecycle.
type State uint8

const (
	// StateUnloaded means nothing has been loaded yet.
	StateUnloaded State = iota
	// StateLoaded means the last load succeeded.
	StateLoaded
	// StateError means the last load failed. Current still returns the
	// last good config, if there was one.
	StateError
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateUnloaded:
		return "unloaded"
	case StateLoaded:
		return "loaded"
	case StateError:
		return "error"
	default:
		return "unknown"
	}
}

// Snapshot is one successfully loaded config and what it was built from.
type Snapshot struct {
	// ID is unique to each published snapshot.
	ID     uuid.UUID
	Config *config.Config
	// Document is nil when built-in defaults were substituted.
	Document *toml.Document
	Warnings []config.Warning
	// Path is empty when built-in defaults were substituted.
	Path     string
	LoadedAt time.Time
}

// Loader owns one configuration file. Reads are lock-free; Discover, Load,
// CheckReload, Reload and Save are serialized.
type Loader struct {
	fs             FileSystem
	candidates     []string
	missingOK      bool
	advanceOnError bool
	logger         *slog.Logger

	snap atomic.Pointer[Snapshot]

	// mu serializes writers.
	mu         sync.Mutex
	discovered bool
	fp         toml.Fingerprint

	// statusMu guards the fields below; it is only held briefly.
	statusMu sync.RWMutex
	path     string
	state    State
	err      error
}

// New creates a loader. Without WithPaths it searches DefaultCandidates.
func New(opts ...Option) *Loader {
	l := &Loader{
		fs:     DefaultFS(),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(l)
	}
	if l.candidates == nil {
		l.candidates = DefaultCandidates()
	}
	return l
}

// Candidates returns the discovery list.
func (l *Loader) Candidates() []string {
	return append([]string(nil), l.candidates...)
}

// Current returns the current config. Before the first successful load it
// returns built-in defaults. The result is shared: Clone it before making
// changes.
func (l *Loader) Current() *config.Config {
	if s := l.snap.Load(); s != nil {
		return s.Config
	}
	return config.Default()
}

// Snapshot returns the last successful load, or nil.
func (l *Loader) Snapshot() *Snapshot {
	return l.snap.Load()
}

// Tree returns the current config as a value tree.
func (l *Loader) Tree() *toml.Table {
	return l.Current().ToTable()
}

// Path returns the selected file, or "" when none is selected.
func (l *Loader) Path() string {
	l.statusMu.RLock()
	defer l.statusMu.RUnlock()
	return l.path
}

// State returns the current state.
func (l *Loader) State() State {
	l.statusMu.RLock()
	defer l.statusMu.RUnlock()
	return l.state
}

// Err returns the error of the last failed operation, or nil after a
// success.
func (l *Loader) Err() error {
	l.statusMu.RLock()
	defer l.statusMu.RUnlock()
	return l.err
}

func (l *Loader) setPath(path string) {
	l.statusMu.Lock()
	l.path = path
	l.statusMu.Unlock()
}

func (l *Loader) setStatus(state State, err error) {
	l.statusMu.Lock()
	l.state = state
	l.err = err
	l.statusMu.Unlock()
}

// Discover selects the first candidate that exists and is readable. If
// none does, it fails with a path error, or in missing-OK mode selects
// nothing and succeeds.
func (l *Loader) Discover() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.discover()
}

func (l *Loader) discover() error {
	path, err := l.find(l.candidates)
	if err != nil {
		l.setStatus(StateError, err)
		return err
	}
	l.discovered = true
	l.setPath(path)
	if path == "" {
		l.logger.Debug("no config file found, using defaults", "candidates", len(l.candidates))
	} else {
		l.logger.Debug("config file discovered", "path", path)
	}
	return nil
}

// find returns the first usable path in paths.
func (l *Loader) find(paths []string) (string, error) {
	var denied error
	for _, p := range paths {
		ok, err := l.usable(p)
		if ok {
			return p, nil
		}
		if err != nil && denied == nil {
			denied = err
		}
	}
	if l.missingOK {
		return "", nil
	}
	if denied != nil {
		return "", denied
	}
	return "", &config.Error{
		Kind: config.KindPath,
		Err:  fmt.Errorf("%w; searched %s", config.ErrNotFound, strings.Join(paths, ", ")),
	}
}

// usable reports whether p exists and can be opened. A file that exists
// but cannot be read yields a classified error.
func (l *Loader) usable(p string) (bool, error) {
	info, err := l.fs.Stat(p)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, config.Classify(p, err)
	}
	if info.IsDir() {
		return false, nil
	}
	f, err := l.fs.Open(p)
	if err != nil {
		return false, config.Classify(p, err)
	}
	f.Close()
	return true, nil
}

// Load reads the selected file, discovering it first if needed, and
// publishes the result. On failure the previous config stays current.
func (l *Loader) Load() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.discovered {
		if err := l.discover(); err != nil {
			return err
		}
	}
	_, err := l.load(l.Path(), true)
	return err
}

// Reload forces a full read of the selected file.
func (l *Loader) Reload() error {
	return l.Load()
}

// CheckReload compares the selected file's fingerprint with the one
// recorded at the last load and reloads only when it changed. It also
// switches to a higher-precedence candidate that has appeared, and falls
// back down the candidate list when the selected file is deleted.
//
// It reports whether a new config was published. After a failed reload
// the previous config stays current and, unless WithAdvanceOnError is set,
// the fingerprint is left alone so the next call retries.
func (l *Loader) CheckReload() (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.discovered {
		if err := l.discover(); err != nil {
			return false, err
		}
		return l.load(l.Path(), true)
	}
	if l.State() == StateUnloaded {
		return l.load(l.Path(), true)
	}

	path := l.Path()
	if p := l.preferred(path); p != "" {
		l.logger.Info("higher precedence config file appeared", "path", p, "previous", path)
		return l.load(p, true)
	}
	if path == "" {
		return false, nil
	}

	info, err := l.fs.Stat(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return l.fallback(path)
	case err != nil:
		err = config.Classify(path, err)
		l.setStatus(StateError, err)
		return false, err
	}
	if toml.StatFingerprint(info).Equal(l.fp) {
		return false, nil
	}
	return l.load(path, false)
}

// preferred returns a usable candidate that ranks above path, or "".
func (l *Loader) preferred(path string) string {
	for _, p := range l.candidates {
		if p == path {
			return ""
		}
		if ok, _ := l.usable(p); ok {
			return p
		}
	}
	return ""
}

// fallback handles deletion of the selected file.
func (l *Loader) fallback(deleted string) (bool, error) {
	rest := l.candidates
	for i, p := range l.candidates {
		if p == deleted {
			rest = l.candidates[i+1:]
			break
		}
	}
	next, err := l.find(rest)
	if err != nil {
		l.logger.Warn("config file removed", "path", deleted, "error", err)
		l.setStatus(StateError, err)
		return false, err
	}
	l.logger.Info("config file removed", "path", deleted, "next", next)
	return l.load(next, true)
}

// load reads path, or installs defaults when path is empty. Unless force is
// set, a file whose content hash matches the current one only refreshes the
// fingerprint.
func (l *Loader) load(path string, force bool) (bool, error) {
	if path == "" {
		l.publish(&Snapshot{ID: uuid.New(), Config: config.Default(), LoadedAt: time.Now()}, "", toml.Fingerprint{})
		return true, nil
	}

	info, err := l.fs.Stat(path)
	if err != nil {
		return false, l.fail(path, config.Classify(path, err), toml.Fingerprint{})
	}
	stat := toml.StatFingerprint(info)
	data, err := l.fs.ReadFile(path)
	if err != nil {
		return false, l.fail(path, config.Classify(path, err), stat)
	}
	fp := stat.WithContent(data)

	if !force && path == l.Path() && fp.SameContent(l.fp) && l.State() == StateLoaded {
		l.fp = fp
		l.logger.Debug("config file touched without changes", "path", path)
		return false, nil
	}

	doc, err := toml.Parse(data)
	if err != nil {
		return false, l.fail(path, &config.Error{Kind: config.KindParse, File: path, Err: err}, fp)
	}
	doc.Origin = path
	doc.Fingerprint = fp

	cfg, warnings, err := config.Map(doc)
	if err != nil {
		return false, l.fail(path, &config.Error{Kind: config.KindValidation, File: path, Err: err}, fp)
	}
	for _, w := range warnings {
		l.logger.Warn("config warning", "path", path, "key", w.Path, "message", w.Message, "suggestion", w.Suggestion)
	}

	snap := &Snapshot{
		ID:       uuid.New(),
		Config:   cfg,
		Document: doc,
		Warnings: warnings,
		Path:     path,
		LoadedAt: time.Now(),
	}
	l.publish(snap, path, fp)
	l.logger.Info("config loaded", "path", path, "id", snap.ID, "warnings", len(warnings))
	return true, nil
}

func (l *Loader) publish(s *Snapshot, path string, fp toml.Fingerprint) {
	l.snap.Store(s)
	l.fp = fp
	l.setPath(path)
	l.setStatus(StateLoaded, nil)
}

func (l *Loader) fail(path string, err error, fp toml.Fingerprint) error {
	if l.advanceOnError && path == l.Path() {
		l.fp = fp
	}
	l.setStatus(StateError, err)
	l.logger.Error("config load failed", "path", path, "error", err)
	return err
}

// Save writes the current config to the selected file.
func (l *Loader) Save() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	path := l.Path()
	if path == "" {
		return &config.Error{Kind: config.KindPath, Err: fmt.Errorf("%w: no file selected", config.ErrNotFound)}
	}
	return l.save(path, l.Current())
}

// SaveAs validates cfg, writes it to path, selects path and publishes cfg.
func (l *Loader) SaveAs(path string, cfg *config.Config) error {
	if err := cfg.Validate(); err != nil {
		return &config.Error{Kind: config.KindValidation, File: path, Err: err}
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.save(path, cfg); err != nil {
		return err
	}
	l.discovered = true
	_, err := l.load(path, true)
	return err
}

func (l *Loader) save(path string, cfg *config.Config) error {
	data, err := cfg.Marshal()
	if err != nil {
		return &config.Error{Kind: config.KindValidation, File: path, Err: err}
	}
	if err := l.fs.WriteFile(path, data, 0o644); err != nil {
		return config.Classify(path, err)
	}
	if info, err := l.fs.Stat(path); err == nil && path == l.Path() {
		l.fp = toml.StatFingerprint(info).WithContent(data)
	}
	l.logger.Info("config saved", "path", path)
	return nil
}
