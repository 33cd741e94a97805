// Package config provides the typed settings aggregate for niv.
//
// A Config is produced from a parsed document by Map, or in memory by a
// Builder. Every Config is fully defaulted: a key missing from the source
// yields its documented default, never a zero value.
//
// # Sections
//
// The aggregate is made of sections, each implementing Section:
//
//   - editor: editing behavior (tab_width, expand_tab, undolevels, ...)
//   - ui: appearance, with a nested [ui.splits] table
//   - keybindings: per-mode tables of combo strings to action names
//   - extensions: extension manager options and per-extension descriptors
//
// Anything else at the top level is carried unchanged in Config.Custom.
// Unknown keys inside a known section are kept in the section's Extra table
// and reported as warnings, so saving a config never drops user data.
//
// # Layering
//
// Configuration sources are stacked by the layer sub-package. Higher layers
// override lower ones key by key:
//
//	┌─────────────────────────────┐
//	│  Environment (NIV_*)        │  ← Highest priority
//	├─────────────────────────────┤
//	│  Project (.niv.toml)        │
//	├─────────────────────────────┤
//	│  User (~/.niv/config.toml)  │
//	├─────────────────────────────┤
//	│  System (/etc/niv)          │
//	├─────────────────────────────┤
//	│  Built-in Defaults          │  ← Lowest priority
//	└─────────────────────────────┘
//
// # Sub-packages
//
//   - toml: lexer, parser, value tree and serializer for the file format
//   - keymap: key combo grammar and action names
//   - loader: file discovery, fingerprinting and hot reload of one file
//   - layer: priority-ordered loaders merged into one effective config
//   - watcher: optional polling and fsnotify driver for reloads
//   - notify: change notification and observer pattern
//
// # Basic Usage
//
//	ld := loader.New(loader.WithMissingOK(true))
//	if err := ld.Discover(); err != nil {
//	    log.Fatal(err)
//	}
//	if err := ld.Load(); err != nil {
//	    log.Fatal(err)
//	}
//	cfg := ld.Current()
//	fmt.Println(cfg.Editor.TabWidth)
//
// # Errors
//
// Failures are classified by Kind (io, parse, validation, path, permission).
// Use errors.Is with ErrValidation, ErrTypeMismatch, ErrNotFound or
// ErrPermission, and errors.As with *ValidationError or *Error for details.
package config
