package layer

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"strings"
	"sync"

	"github.com/dshills/nivconf/internal/config"
	"github.com/dshills/nivconf/internal/config/loader"
	"github.com/dshills/nivconf/internal/config/toml"
)

// Option configures a Manager.
type Option func(*Manager)

// WithOverrides adds an environment layer holding t above every file layer.
func WithOverrides(t *toml.Table) Option {
	return func(m *Manager) {
		if t == nil {
			return
		}
		m.layers = append(m.layers, NewLayerWithData(StandardLayerName(SourceEnv), SourceEnv, PriorityEnv, t.Clone()))
	}
}

// WithLogger sets the logger. A nil logger is ignored.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// WithFS sets the filesystem used by file layers added with AddFile.
func WithFS(fsys loader.FileSystem) Option {
	return func(m *Manager) {
		if fsys != nil {
			m.fs = fsys
		}
	}
}

// Manager manages configuration layers and provides merged access.
type Manager struct {
	fs     loader.FileSystem
	logger *slog.Logger

	mu     sync.RWMutex
	layers []*Layer // Sorted by priority (ascending)

	// Merge cache. stamp records the snapshot each file layer contributed;
	// dirty covers in-memory layer edits.
	merged    *toml.Table
	effective *config.Config
	warnings  []config.Warning
	stamp     []*loader.Snapshot
	dirty     bool

	// lastGood is the most recent successful Effective result.
	lastGood *config.Config
}

// NewManager creates a new layer manager.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		fs:     loader.DefaultFS(),
		logger: slog.Default(),
		dirty:  true,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.sortLayers()
	return m
}

// DefaultManager wires the system, user and project layers for home and
// cwd. Each layer uses the first of its files that exists.
func DefaultManager(home, cwd string, opts ...Option) *Manager {
	m := NewManager(opts...)

	m.AddFile(StandardLayerName(SourceSystem), SourceSystem,
		filepath.Join("/etc", "niv", loader.FileName),
		filepath.Join("/usr", "local", "etc", "niv", loader.FileName),
	)

	var user []string
	if home != "" {
		user = append(user, loader.UserPath(home))
	}
	xdg := os.Getenv("XDG_CONFIG_HOME")
	if xdg == "" && home != "" {
		xdg = filepath.Join(home, ".config")
	}
	if xdg != "" {
		user = append(user, filepath.Join(xdg, "niv", loader.FileName))
	}
	if len(user) > 0 {
		m.AddFile(StandardLayerName(SourceUser), SourceUser, user...)
	}

	if cwd != "" {
		m.AddFile(StandardLayerName(SourceProject), SourceProject,
			filepath.Join(cwd, loader.ProjectFileName),
			filepath.Join(cwd, loader.AltProjectName),
		)
	}
	return m
}

// AddLayer adds a layer to the manager.
// Layers are automatically sorted by priority.
func (m *Manager) AddLayer(layer *Layer) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.layers = append(m.layers, layer)
	m.sortLayers()
	m.dirty = true
}

// AddFile adds a file layer that reads the first of paths that exists.
// An absent file contributes nothing.
func (m *Manager) AddFile(name string, source Source, paths ...string) *Layer {
	ld := loader.New(
		loader.WithPaths(paths...),
		loader.WithFS(m.fs),
		loader.WithMissingOK(true),
		loader.WithLogger(m.logger.With("layer", name)),
	)
	l := NewFileLayer(name, source, DefaultPriority(source), ld)
	m.AddLayer(l)
	return l
}

// RemoveLayer removes a layer by name.
// Returns true if the layer was found and removed.
func (m *Manager) RemoveLayer(name string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i, layer := range m.layers {
		if layer.Name == name {
			m.layers = slices.Delete(m.layers, i, i+1)
			m.dirty = true
			return true
		}
	}
	return false
}

// GetLayer returns a layer by name.
func (m *Manager) GetLayer(name string) *Layer {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.findLayer(name)
}

// GetLayerBySource returns the first layer with the given source.
func (m *Manager) GetLayerBySource(source Source) *Layer {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, layer := range m.layers {
		if layer.Source == source {
			return layer
		}
	}
	return nil
}

// Layers returns a copy of all layers sorted by priority.
func (m *Manager) Layers() []*Layer {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return slices.Clone(m.layers)
}

// LayerCount returns the number of layers.
func (m *Manager) LayerCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.layers)
}

// fileLayers returns the loaders of every file layer.
func (m *Manager) fileLayers() []*Layer {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []*Layer
	for _, l := range m.layers {
		if l.Loader != nil {
			out = append(out, l)
		}
	}
	return out
}

// Load loads every file layer. All failures are returned joined; layers
// that loaded keep their new snapshot.
func (m *Manager) Load() error {
	var errs []error
	for _, l := range m.fileLayers() {
		if err := l.Loader.Load(); err != nil {
			errs = append(errs, fmt.Errorf("layer %s: %w", l.Name, err))
		}
	}
	return errors.Join(errs...)
}

// CheckReload polls every file layer and reports whether any of them
// picked up a change. Failures are returned joined.
func (m *Manager) CheckReload() (bool, error) {
	var (
		changed bool
		errs    []error
	)
	for _, l := range m.fileLayers() {
		ok, err := l.Loader.CheckReload()
		if err != nil {
			errs = append(errs, fmt.Errorf("layer %s: %w", l.Name, err))
		}
		changed = changed || ok
	}
	if changed {
		m.logger.Debug("config layers changed")
	}
	return changed, errors.Join(errs...)
}

// Effective merges every layer over the built-in defaults. File layers
// that were never loaded are loaded first. A layer whose selected file
// failed its last load aborts the merge; Current keeps returning the last
// good result until the file is fixed.
func (m *Manager) Effective() (*config.Config, error) {
	if err := m.ensureLoaded(); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.refresh(); err != nil {
		return nil, err
	}
	return m.effective.Clone(), nil
}

// Current returns the last successful Effective result, or the built-in
// defaults.
func (m *Manager) Current() *config.Config {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.lastGood == nil {
		return config.Default()
	}
	return m.lastGood.Clone()
}

// Warnings returns the mapper warnings of the last merge.
func (m *Manager) Warnings() []config.Warning {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return slices.Clone(m.warnings)
}

// Merged returns the raw merged tree without defaults.
func (m *Manager) Merged() (*toml.Table, error) {
	if err := m.ensureLoaded(); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.refresh(); err != nil {
		return nil, err
	}
	return m.merged.Clone(), nil
}

// Tree returns the effective config as a tree, falling back to the last
// good config when the merge fails.
func (m *Manager) Tree() *toml.Table {
	cfg, err := m.Effective()
	if err != nil {
		return m.Current().ToTable()
	}
	return cfg.ToTable()
}

func (m *Manager) ensureLoaded() error {
	var errs []error
	for _, l := range m.fileLayers() {
		if l.Loader.State() != loader.StateUnloaded {
			continue
		}
		if err := l.Loader.Load(); err != nil {
			errs = append(errs, fmt.Errorf("layer %s: %w", l.Name, err))
		}
	}
	return errors.Join(errs...)
}

// refresh recomputes the merge if a layer changed. Must be called with
// mu held for writing.
func (m *Manager) refresh() error {
	stamp := make([]*loader.Snapshot, 0, len(m.layers))
	trees := make([]*toml.Table, 0, len(m.layers))
	for _, l := range m.layers {
		t, snap, err := l.tree()
		if err != nil {
			return config.Classify(l.Path(), err)
		}
		if l.Loader != nil {
			stamp = append(stamp, snap)
		}
		trees = append(trees, t)
	}

	if !m.dirty && m.effective != nil && slices.Equal(stamp, m.stamp) {
		return nil
	}

	merged := toml.NewTable()
	for _, t := range trees {
		merged = DeepMerge(merged, t)
	}

	cfg, warnings, err := config.MapTable(merged)
	for _, w := range warnings {
		m.logger.Warn("config warning", "path", w.Path, "message", w.Message, "suggestion", w.Suggestion)
	}
	if err != nil {
		return config.Classify("", err)
	}

	m.merged = merged
	m.effective = cfg
	m.warnings = warnings
	m.stamp = stamp
	m.dirty = false
	m.lastGood = cfg
	return nil
}

// Get returns the value for path from the highest layer that sets it.
func (m *Manager) Get(path string) (toml.Value, *Layer, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	// Search layers from highest to lowest priority
	for i := len(m.layers) - 1; i >= 0; i-- {
		layer := m.layers[i]
		t, _, err := layer.tree()
		if err != nil {
			continue
		}
		if val, ok := t.LookupDotted(path); ok {
			return val, layer, true
		}
	}
	return toml.Value{}, nil, false
}

// Lookup returns the effective value for path, defaults included.
func (m *Manager) Lookup(path string) (toml.Value, bool) {
	cfg, err := m.Effective()
	if err != nil {
		return toml.Value{}, false
	}
	return cfg.Lookup(path)
}

// WhichLayer returns the name of the layer that provides a value, or ""
// when the value comes from the built-in defaults or is unset.
func (m *Manager) WhichLayer(path string) string {
	_, layer, found := m.Get(path)
	if !found {
		return ""
	}
	return layer.Name
}

// Set sets a value in a specific layer.
// Returns an error if the layer is not found or is read-only.
func (m *Manager) Set(layerName, path string, value toml.Value) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	layer, err := m.writable(layerName)
	if err != nil {
		return err
	}
	if err := setDotted(layer.Data, path, value); err != nil {
		return err
	}
	m.dirty = true
	return nil
}

// SetInSession sets a value in the session layer.
// Creates the session layer if it doesn't exist.
func (m *Manager) SetInSession(path string, value toml.Value) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	var session *Layer
	for _, layer := range m.layers {
		if layer.Source == SourceSession {
			session = layer
			break
		}
	}
	if session == nil {
		session = NewLayer(StandardLayerName(SourceSession), SourceSession, PrioritySession)
		m.layers = append(m.layers, session)
		m.sortLayers()
	}

	if err := setDotted(session.Data, path, value); err != nil {
		return err
	}
	m.dirty = true
	return nil
}

// Delete removes a value from a specific layer.
func (m *Manager) Delete(layerName, path string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	layer, err := m.writable(layerName)
	if err != nil {
		return err
	}
	if DeletePath(layer.Data, path) {
		m.dirty = true
	}
	return nil
}

// UpdateLayer replaces a layer's data entirely.
func (m *Manager) UpdateLayer(name string, data *toml.Table) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	layer, err := m.writable(name)
	if err != nil {
		return err
	}
	if data == nil {
		data = toml.NewTable()
	}
	layer.Data = data.Clone()
	m.dirty = true
	return nil
}

// GetLayerValue returns a value from a specific layer.
func (m *Manager) GetLayerValue(layerName, path string) (toml.Value, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	layer := m.findLayer(layerName)
	if layer == nil {
		return toml.Value{}, false
	}
	t, _, err := layer.tree()
	if err != nil {
		return toml.Value{}, false
	}
	return t.LookupDotted(path)
}

// Invalidate marks the merged cache as dirty.
// Call this after modifying layer data directly.
func (m *Manager) Invalidate() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.dirty = true
}

// Clear removes all layers.
func (m *Manager) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.layers = nil
	m.merged = nil
	m.effective = nil
	m.warnings = nil
	m.stamp = nil
	m.dirty = true
}

func (m *Manager) writable(name string) (*Layer, error) {
	layer := m.findLayer(name)
	if layer == nil {
		return nil, fmt.Errorf("layer not found: %s", name)
	}
	if layer.ReadOnly || layer.Loader != nil {
		return nil, fmt.Errorf("layer is read-only: %s", name)
	}
	if layer.Data == nil {
		layer.Data = toml.NewTable()
	}
	return layer, nil
}

// sortLayers sorts layers by priority (ascending).
func (m *Manager) sortLayers() {
	sort.SliceStable(m.layers, func(i, j int) bool {
		return m.layers[i].Priority < m.layers[j].Priority
	})
}

// findLayer finds a layer by name (must be called with lock held).
func (m *Manager) findLayer(name string) *Layer {
	for _, layer := range m.layers {
		if layer.Name == name {
			return layer
		}
	}
	return nil
}

func setDotted(t *toml.Table, path string, v toml.Value) error {
	parts := strings.Split(path, ".")
	if slices.Contains(parts, "") {
		return fmt.Errorf("%w: %q", config.ErrInvalidPath, path)
	}
	if err := t.SetPath(parts, v); err != nil {
		return fmt.Errorf("%w: %s: %w", config.ErrInvalidPath, path, err)
	}
	return nil
}
