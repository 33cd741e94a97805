package config

import (
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/lucasb-eyer/go-colorful"

	"github.com/dshills/nivconf/internal/config/toml"
)

// Color is an RGB color written as "#RRGGBB".
type Color struct {
	R, G, B uint8
}

// ParseColor parses "#RRGGBB" or "RRGGBB".
func ParseColor(s string) (Color, error) {
	hex := strings.TrimPrefix(s, "#")
	if len(hex) != 6 {
		return Color{}, fmt.Errorf("color %q must be 6 hex digits", s)
	}
	if strings.Trim(hex, "0123456789abcdefABCDEF") != "" {
		return Color{}, fmt.Errorf("color %q is not hexadecimal", s)
	}
	c, err := colorful.Hex("#" + hex)
	if err != nil {
		return Color{}, fmt.Errorf("color %q: %w", s, err)
	}
	r, g, b := c.RGB255()
	return Color{R: r, G: g, B: b}, nil
}

// String returns the "#RRGGBB" form.
func (c Color) String() string {
	return fmt.Sprintf("#%02X%02X%02X", c.R, c.G, c.B)
}

// Terminal themes.
const (
	ThemeDefault = "default"
	ThemeDark    = "dark"
	ThemeLight   = "light"
	// ThemeCustom draws with the [ui.colors] palette.
	ThemeCustom  = "custom"
)

var terminalThemes = []string{ThemeDefault, ThemeDark, ThemeLight, ThemeCustom}

// Border styles. Any other non-empty name is a custom style.
const (
	BorderSingle  = "single"
	BorderDouble  = "double"
	BorderRounded = "rounded"
	BorderBold    = "bold"
)

// SplitSettings controls split pane borders.
type SplitSettings struct {
	VerticalChar   string
	HorizontalChar string
	BorderColor    Color
	BorderStyle    string

	Extra *toml.Table
}

// UISettings holds appearance options.
type UISettings struct {
	ColorScheme   string
	FontFamily    string
	FontSize      int
	TerminalTheme string
	StatusLine    bool
	CommandLine   bool
	TabBar        bool
	// Transparency is a percentage; out of range values are clamped.
	Transparency int
	Minimap      bool
	FileTree     bool
	Splits       SplitSettings
	Colors       ColorScheme

	Extra *toml.Table
}

// DefaultUISettings returns the built-in UI defaults.
func DefaultUISettings() UISettings {
	return UISettings{
		ColorScheme:   "default",
		FontFamily:    "monospace",
		FontSize:      12,
		TerminalTheme: ThemeDark,
		StatusLine:    true,
		CommandLine:   true,
		TabBar:        true,
		Transparency:  100,
		Splits: SplitSettings{
			VerticalChar:   "|",
			HorizontalChar: "-",
			BorderColor:    Color{R: 0x55, G: 0x55, B: 0x55},
			BorderStyle:    BorderSingle,
		},
		Colors: DefaultColorScheme(),
	}
}

// Name implements Section.
func (s *UISettings) Name() string { return "ui" }

// FromTable implements Section.
func (s *UISettings) FromTable(t *toml.Table, r *Report) error {
	d := newFieldDecoder(s.Name(), t)
	d.String("color_scheme", &s.ColorScheme)
	d.String("font_family", &s.FontFamily)
	d.Int("font_size", &s.FontSize)
	d.String("terminal_theme", &s.TerminalTheme)
	d.Bool("status_line", &s.StatusLine)
	d.Bool("command_line", &s.CommandLine)
	d.Bool("tab_bar", &s.TabBar)
	d.Int("transparency", &s.Transparency)
	d.Bool("minimap", &s.Minimap)
	d.Bool("file_tree", &s.FileTree)
	splits, hasSplits := d.Table("splits")
	colors, hasColors := d.Table("colors")
	if err := d.Err(); err != nil {
		return err
	}

	if s.Transparency < 0 || s.Transparency > 100 {
		clamped := min(max(s.Transparency, 0), 100)
		r.Warn("ui.transparency", "%d clamped to %d", s.Transparency, clamped)
		s.Transparency = clamped
	}
	if !slices.Contains(terminalThemes, s.TerminalTheme) {
		return &ValidationError{
			Path:    "ui.terminal_theme",
			Message: fmt.Sprintf("%q is not one of %s", s.TerminalTheme, strings.Join(terminalThemes, ", ")),
			Code:    ErrCodeInvalidEnum,
		}
	}
	if hasSplits {
		if err := s.Splits.fromTable(splits, r); err != nil {
			return err
		}
	}
	if hasColors {
		if err := s.Colors.fromTable(colors, r); err != nil {
			return err
		}
	}
	s.Extra = d.Extras(r)
	return nil
}

func (s *SplitSettings) fromTable(t *toml.Table, r *Report) error {
	d := newFieldDecoder("ui.splits", t)
	d.String("vertical_char", &s.VerticalChar)
	d.String("horizontal_char", &s.HorizontalChar)
	color := s.BorderColor.String()
	d.String("border_color", &color)
	d.String("border_style", &s.BorderStyle)
	if err := d.Err(); err != nil {
		return err
	}
	c, err := ParseColor(color)
	if err != nil {
		return invalidColor("ui.splits.border_color", err)
	}
	s.BorderColor = c
	s.Extra = d.Extras(r)
	return nil
}

// ToTable implements Section.
func (s *UISettings) ToTable() *toml.Table {
	t := toml.NewTable()
	t.Set("color_scheme", toml.String(s.ColorScheme))
	t.Set("font_family", toml.String(s.FontFamily))
	t.Set("font_size", toml.Integer(int64(s.FontSize)))
	t.Set("terminal_theme", toml.String(s.TerminalTheme))
	t.Set("status_line", toml.Bool(s.StatusLine))
	t.Set("command_line", toml.Bool(s.CommandLine))
	t.Set("tab_bar", toml.Bool(s.TabBar))
	t.Set("transparency", toml.Integer(int64(s.Transparency)))
	t.Set("minimap", toml.Bool(s.Minimap))
	t.Set("file_tree", toml.Bool(s.FileTree))

	splits := toml.NewTable()
	splits.Set("vertical_char", toml.String(s.Splits.VerticalChar))
	splits.Set("horizontal_char", toml.String(s.Splits.HorizontalChar))
	splits.Set("border_color", toml.String(s.Splits.BorderColor.String()))
	splits.Set("border_style", toml.String(s.Splits.BorderStyle))
	mergeExtras(splits, s.Splits.Extra)
	t.Set("splits", toml.TableValue(splits))
	t.Set("colors", toml.TableValue(s.Colors.toTable()))

	mergeExtras(t, s.Extra)
	return t
}

// Validate implements Section.
func (s *UISettings) Validate() error {
	var errs []error
	if s.FontSize <= 0 {
		errs = append(errs, outOfRange("ui.font_size", s.FontSize, "must be greater than 0"))
	}
	if s.Transparency < 0 || s.Transparency > 100 {
		errs = append(errs, outOfRange("ui.transparency", s.Transparency, "must be between 0 and 100"))
	}
	if !slices.Contains(terminalThemes, s.TerminalTheme) {
		errs = append(errs, &ValidationError{
			Path:    "ui.terminal_theme",
			Message: fmt.Sprintf("%q is not one of %s", s.TerminalTheme, strings.Join(terminalThemes, ", ")),
			Code:    ErrCodeInvalidEnum,
		})
	}
	if utf8.RuneCountInString(s.Splits.VerticalChar) != 1 {
		errs = append(errs, outOfRange("ui.splits.vertical_char", strconv.Quote(s.Splits.VerticalChar), "must be a single character"))
	}
	if utf8.RuneCountInString(s.Splits.HorizontalChar) != 1 {
		errs = append(errs, outOfRange("ui.splits.horizontal_char", strconv.Quote(s.Splits.HorizontalChar), "must be a single character"))
	}
	if strings.TrimSpace(s.Splits.BorderStyle) == "" {
		errs = append(errs, &ValidationError{Path: "ui.splits.border_style", Message: "must not be empty", Code: ErrCodeInvalidEnum})
	}
	return errors.Join(errs...)
}

// Palette returns the custom color scheme and whether terminal_theme
// selects it.
func (s *UISettings) Palette() (ColorScheme, bool) {
	return s.Colors, s.TerminalTheme == ThemeCustom
}

// IsCustomBorder reports whether the border style is not one of the
// built-in styles.
func (s SplitSettings) IsCustomBorder() bool {
	switch s.BorderStyle {
	case BorderSingle, BorderDouble, BorderRounded, BorderBold:
		return false
	}
	return true
}
