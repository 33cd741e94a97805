package config

import "github.com/dshills/nivconf/internal/config/toml"

// ColorScheme is the [ui.colors] palette. It is always decoded, and used
// for drawing when terminal_theme is "custom".
type ColorScheme struct {
	Background      Color
	Foreground      Color
	LineNumbers     Color
	Cursor          Color
	SelectionBG     Color
	SelectionFG     Color
	SearchHighlight Color
	StatusBG        Color
	StatusFG        Color
	Error           Color
	Warning         Color
	Info            Color
	Syntax          SyntaxColors

	Extra *toml.Table
}

// SyntaxColors is the [ui.colors.syntax] table.
type SyntaxColors struct {
	Keyword      Color
	String       Color
	Comment      Color
	Function     Color
	Variable     Color
	Type         Color
	Number       Color
	Operator     Color
	Preprocessor Color

	Extra *toml.Table
}

func rgb(n uint32) Color {
	return Color{R: uint8(n >> 16), G: uint8(n >> 8), B: uint8(n)}
}

// DefaultColorScheme returns a dark palette.
func DefaultColorScheme() ColorScheme {
	return ColorScheme{
		Background:      rgb(0x1E1E1E),
		Foreground:      rgb(0xD4D4D4),
		LineNumbers:     rgb(0x858585),
		Cursor:          rgb(0xFFFFFF),
		SelectionBG:     rgb(0x264F78),
		SelectionFG:     rgb(0xFFFFFF),
		SearchHighlight: rgb(0xFFD700),
		StatusBG:        rgb(0x007ACC),
		StatusFG:        rgb(0xFFFFFF),
		Error:           rgb(0xF44747),
		Warning:         rgb(0xFFA500),
		Info:            rgb(0x00BFFF),
		Syntax: SyntaxColors{
			Keyword:      rgb(0x569CD6),
			String:       rgb(0xCE9178),
			Comment:      rgb(0x6A9955),
			Function:     rgb(0xDCDCAA),
			Variable:     rgb(0x9CDCFE),
			Type:         rgb(0x4EC9B0),
			Number:       rgb(0xB5CEA8),
			Operator:     rgb(0xD4D4D4),
			Preprocessor: rgb(0xC586C0),
		},
	}
}

type colorField struct {
	key string
	dst *Color
}

func (c *ColorScheme) fields() []colorField {
	return []colorField{
		{"background", &c.Background},
		{"foreground", &c.Foreground},
		{"line_numbers", &c.LineNumbers},
		{"cursor", &c.Cursor},
		{"selection_bg", &c.SelectionBG},
		{"selection_fg", &c.SelectionFG},
		{"search_highlight", &c.SearchHighlight},
		{"status_bg", &c.StatusBG},
		{"status_fg", &c.StatusFG},
		{"error", &c.Error},
		{"warning", &c.Warning},
		{"info", &c.Info},
	}
}

func (s *SyntaxColors) fields() []colorField {
	return []colorField{
		{"keyword", &s.Keyword},
		{"string", &s.String},
		{"comment", &s.Comment},
		{"function", &s.Function},
		{"variable", &s.Variable},
		{"type", &s.Type},
		{"number", &s.Number},
		{"operator", &s.Operator},
		{"preprocessor", &s.Preprocessor},
	}
}

func (c *ColorScheme) fromTable(t *toml.Table, r *Report) error {
	d := newFieldDecoder("ui.colors", t)
	if err := decodeColors(d, c.fields()); err != nil {
		return err
	}
	syntax, ok := d.Table("syntax")
	if err := d.Err(); err != nil {
		return err
	}
	if ok {
		sd := newFieldDecoder("ui.colors.syntax", syntax)
		if err := decodeColors(sd, c.Syntax.fields()); err != nil {
			return err
		}
		c.Syntax.Extra = sd.Extras(r)
	}
	c.Extra = d.Extras(r)
	return nil
}

func (c *ColorScheme) toTable() *toml.Table {
	t := encodeColors(c.fields())
	syntax := encodeColors(c.Syntax.fields())
	mergeExtras(syntax, c.Syntax.Extra)
	t.Set("syntax", toml.TableValue(syntax))
	mergeExtras(t, c.Extra)
	return t
}

// decodeColors reads each present field as a hex color string.
func decodeColors(d *fieldDecoder, fields []colorField) error {
	for _, f := range fields {
		s := f.dst.String()
		d.String(f.key, &s)
		if err := d.Err(); err != nil {
			return err
		}
		c, err := ParseColor(s)
		if err != nil {
			return invalidColor(d.path(f.key), err)
		}
		*f.dst = c
	}
	return nil
}

func encodeColors(fields []colorField) *toml.Table {
	t := toml.NewTable()
	for _, f := range fields {
		t.Set(f.key, toml.String(f.dst.String()))
	}
	return t
}

func invalidColor(path string, err error) *ValidationError {
	return &ValidationError{Path: path, Expected: "#RRGGBB", Message: err.Error(), Code: ErrCodeInvalidColor}
}
