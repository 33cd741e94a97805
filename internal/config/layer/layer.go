// Package layer stacks niv configuration sources by priority.
//
// File layers are backed by a loader.Loader; in-memory layers (environment,
// arguments, session) hold a value tree directly. A Manager merges the
// layers' trees key by key, higher priority winning at the leaf, and maps
// the result to one effective config.
package layer

import (
	"fmt"

	"github.com/dshills/nivconf/internal/config"
	"github.com/dshills/nivconf/internal/config/loader"
	"github.com/dshills/nivconf/internal/config/toml"
)

// Source indicates where a configuration layer came from.
type Source uint8

const (
	// SourceSystem is a system-wide file.
	SourceSystem Source = iota + 1
	// SourceUser is the user's file.
	SourceUser
	// SourceProject is a file in the working directory.
	SourceProject
	// SourceEnv is environment variables.
	SourceEnv
	// SourceArgs is command-line arguments.
	SourceArgs
	// SourceSession is in-memory session overrides.
	SourceSession
)

// String returns a human-readable name for the source.
func (s Source) String() string {
	return StandardLayerName(s)
}

// Layer is one configuration source at one priority.
type Layer struct {
	// Name identifies the layer (e.g., "user", "project").
	Name string

	// Priority determines merge order (higher overrides lower).
	Priority int

	// Source indicates where this layer comes from.
	Source Source

	// Loader backs a file layer. It is nil for in-memory layers.
	Loader *loader.Loader

	// Data holds the values of an in-memory layer.
	Data *toml.Table

	// ReadOnly prevents modifications through the Manager.
	ReadOnly bool
}

// NewLayer creates an empty in-memory layer.
func NewLayer(name string, source Source, priority int) *Layer {
	return &Layer{
		Name:     name,
		Source:   source,
		Priority: priority,
		Data:     toml.NewTable(),
	}
}

// NewLayerWithData creates an in-memory layer holding data.
func NewLayerWithData(name string, source Source, priority int, data *toml.Table) *Layer {
	if data == nil {
		data = toml.NewTable()
	}
	return &Layer{
		Name:     name,
		Source:   source,
		Priority: priority,
		Data:     data,
	}
}

// NewFileLayer creates a read-only layer backed by ld. The loader should
// be in missing-OK mode so an absent file contributes nothing.
func NewFileLayer(name string, source Source, priority int, ld *loader.Loader) *Layer {
	return &Layer{
		Name:     name,
		Source:   source,
		Priority: priority,
		Loader:   ld,
		ReadOnly: true,
	}
}

// Path returns the file backing the layer, or "".
func (l *Layer) Path() string {
	if l.Loader == nil {
		return ""
	}
	return l.Loader.Path()
}

// tree returns the layer's contribution and the snapshot it came from.
// A file layer whose file is absent contributes nothing. A file layer
// whose selected file failed its last load is an error, even if an older
// snapshot is still held; Manager.Current serves the last good merge.
func (l *Layer) tree() (*toml.Table, *loader.Snapshot, error) {
	if l.Loader == nil {
		return l.Data, nil, nil
	}
	snap := l.Loader.Snapshot()
	if snap == nil {
		if err := l.Loader.Err(); err != nil {
			return nil, nil, fmt.Errorf("layer %s: %w", l.Name, err)
		}
		return nil, nil, &config.Error{Kind: config.KindIO, Err: fmt.Errorf("layer %s is not loaded", l.Name)}
	}
	if l.Loader.State() == loader.StateError && l.Loader.Path() != "" {
		if err := l.Loader.Err(); err != nil {
			return nil, snap, fmt.Errorf("layer %s: %w", l.Name, err)
		}
	}
	if snap.Document == nil {
		return nil, snap, nil
	}
	return snap.Document.Root, snap, nil
}

// Clone copies the layer. File layers share their loader.
func (l *Layer) Clone() *Layer {
	out := *l
	out.Data = l.Data.Clone()
	return &out
}
