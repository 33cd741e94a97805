package config

import (
	"errors"
	"fmt"

	"github.com/dshills/nivconf/internal/config/toml"
)

// EditorSettings holds editing behavior options.
type EditorSettings struct {
	// LineNumbers shows absolute line numbers.
	LineNumbers bool
	// RelativeNumbers shows line numbers relative to the cursor.
	RelativeNumbers bool
	// TabWidth is the display width of a tab in columns.
	TabWidth int
	// ExpandTab inserts spaces instead of tabs.
	ExpandTab bool
	// AutoIndent copies indentation from the previous line.
	AutoIndent bool
	// SmartIndent indents based on syntax.
	SmartIndent bool
	// CursorLine highlights the line under the cursor.
	CursorLine bool
	// ShowMatch highlights matching brackets.
	ShowMatch bool
	// Syntax enables syntax highlighting.
	Syntax bool
	// IncSearch searches while typing.
	IncSearch bool
	// HLSearch highlights all search matches.
	HLSearch bool
	// IgnoreCase makes search case-insensitive.
	IgnoreCase bool
	// SmartCase makes search case-sensitive when the pattern has capitals.
	SmartCase bool
	// Wrap soft-wraps long lines.
	Wrap bool
	// LineBreak wraps at word boundaries.
	LineBreak bool
	// ScrollOff is the number of lines kept visible above and below the cursor.
	ScrollOff int
	// SideScrollOff is the number of columns kept visible beside the cursor.
	SideScrollOff int
	// Mouse enables mouse support.
	Mouse bool
	// Backup keeps a backup after writing a file.
	Backup bool
	// WriteBackup makes a backup while writing a file.
	WriteBackup bool
	// SwapFile keeps a swap file for crash recovery.
	SwapFile bool
	// UndoLevels is the maximum number of undoable changes.
	UndoLevels int
	// UndoFile persists undo history.
	UndoFile bool
	// AutoRead reloads files changed outside the editor.
	AutoRead bool
	// AutoWrite saves before commands that leave the buffer.
	AutoWrite bool
	// Confirm asks before discarding unsaved changes.
	Confirm bool

	// Extra holds unrecognized keys so they survive a save.
	Extra *toml.Table
}

// DefaultEditorSettings returns the built-in editor defaults.
func DefaultEditorSettings() EditorSettings {
	return EditorSettings{
		LineNumbers:   true,
		TabWidth:      4,
		ExpandTab:     true,
		AutoIndent:    true,
		ShowMatch:     true,
		Syntax:        true,
		IncSearch:     true,
		HLSearch:      true,
		SmartCase:     true,
		Wrap:          true,
		ScrollOff:     5,
		SideScrollOff: 10,
		WriteBackup:   true,
		SwapFile:      true,
		UndoLevels:    1000,
		UndoFile:      true,
		AutoRead:      true,
		Confirm:       true,
	}
}

// Name implements Section.
func (s *EditorSettings) Name() string { return "editor" }

func (s *EditorSettings) boolFields() []struct {
	key string
	ptr *bool
} {
	return []struct {
		key string
		ptr *bool
	}{
		{"line_numbers", &s.LineNumbers},
		{"relative_numbers", &s.RelativeNumbers},
		{"expand_tab", &s.ExpandTab},
		{"auto_indent", &s.AutoIndent},
		{"smart_indent", &s.SmartIndent},
		{"cursor_line", &s.CursorLine},
		{"show_match", &s.ShowMatch},
		{"syntax", &s.Syntax},
		{"incsearch", &s.IncSearch},
		{"hlsearch", &s.HLSearch},
		{"ignorecase", &s.IgnoreCase},
		{"smartcase", &s.SmartCase},
		{"wrap", &s.Wrap},
		{"line_break", &s.LineBreak},
		{"mouse", &s.Mouse},
		{"backup", &s.Backup},
		{"writebackup", &s.WriteBackup},
		{"swapfile", &s.SwapFile},
		{"undofile", &s.UndoFile},
		{"autoread", &s.AutoRead},
		{"autowrite", &s.AutoWrite},
		{"confirm", &s.Confirm},
	}
}

func (s *EditorSettings) intFields() []struct {
	key string
	ptr *int
} {
	return []struct {
		key string
		ptr *int
	}{
		{"tab_width", &s.TabWidth},
		{"scrolloff", &s.ScrollOff},
		{"sidescrolloff", &s.SideScrollOff},
		{"undolevels", &s.UndoLevels},
	}
}

// FromTable implements Section.
func (s *EditorSettings) FromTable(t *toml.Table, r *Report) error {
	d := newFieldDecoder(s.Name(), t)
	for _, f := range s.intFields() {
		d.Int(f.key, f.ptr)
	}
	for _, f := range s.boolFields() {
		d.Bool(f.key, f.ptr)
	}
	if err := d.Err(); err != nil {
		return err
	}
	s.Extra = d.Extras(r)
	return nil
}

// ToTable implements Section.
func (s *EditorSettings) ToTable() *toml.Table {
	t := toml.NewTable()
	for _, f := range s.intFields() {
		t.Set(f.key, toml.Integer(int64(*f.ptr)))
	}
	for _, f := range s.boolFields() {
		t.Set(f.key, toml.Bool(*f.ptr))
	}
	mergeExtras(t, s.Extra)
	return t
}

// Validate implements Section.
func (s *EditorSettings) Validate() error {
	var errs []error
	if s.TabWidth <= 0 {
		errs = append(errs, outOfRange("editor.tab_width", s.TabWidth, "must be greater than 0"))
	}
	if s.ScrollOff < 0 || s.ScrollOff > 100 {
		errs = append(errs, outOfRange("editor.scrolloff", s.ScrollOff, "must be between 0 and 100"))
	}
	if s.SideScrollOff < 0 {
		errs = append(errs, outOfRange("editor.sidescrolloff", s.SideScrollOff, "must not be negative"))
	}
	if s.UndoLevels < 0 {
		errs = append(errs, outOfRange("editor.undolevels", s.UndoLevels, "must not be negative"))
	}
	return errors.Join(errs...)
}

func outOfRange(path string, v any, msg string) *ValidationError {
	return &ValidationError{Path: path, Message: fmt.Sprintf("%v %s", v, msg), Code: ErrCodeOutOfRange}
}
