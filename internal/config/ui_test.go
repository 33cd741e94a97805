package config

import (
	"errors"
	"testing"

	"github.com/dshills/nivconf/internal/config/toml"
)

func TestParseColor(t *testing.T) {
	tests := []struct {
		in      string
		want    Color
		wantErr bool
	}{
		{"#FF8800", Color{R: 0xFF, G: 0x88, B: 0x00}, false},
		{"1e1e1e", Color{R: 0x1E, G: 0x1E, B: 0x1E}, false},
		{"#000000", Color{}, false},
		{"#FFF", Color{}, true},
		{"#12345G", Color{}, true},
		{"red", Color{}, true},
		{"", Color{}, true},
	}
	for _, tt := range tests {
		got, err := ParseColor(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseColor(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseColor(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestDefaultColorScheme(t *testing.T) {
	c := Default().UI.Colors
	if got := c.Background.String(); got != "#1E1E1E" {
		t.Errorf("Background = %s, want #1E1E1E", got)
	}
	if got := c.Syntax.Keyword.String(); got != "#569CD6" {
		t.Errorf("Syntax.Keyword = %s, want #569CD6", got)
	}
	if _, custom := Default().UI.Palette(); custom {
		t.Error("default theme selects the custom palette")
	}
}

func TestUI_ColorsDecode(t *testing.T) {
	cfg, warnings := mapString(t, `
[ui]
terminal_theme = "custom"

[ui.colors]
foreground = "#eeeeee"
cursor = "ff0000"

[ui.colors.syntax]
keyword = "#00FF00"
type = "#123456"
`)
	if len(warnings) != 0 {
		t.Errorf("warnings = %v, want none", warnings)
	}
	palette, custom := cfg.UI.Palette()
	if !custom {
		t.Fatal("terminal_theme = custom does not select the palette")
	}
	tests := []struct {
		name string
		got  Color
		want string
	}{
		{"foreground", palette.Foreground, "#EEEEEE"},
		{"cursor", palette.Cursor, "#FF0000"},
		{"background default", palette.Background, "#1E1E1E"},
		{"syntax.keyword", palette.Syntax.Keyword, "#00FF00"},
		{"syntax.type", palette.Syntax.Type, "#123456"},
		{"syntax.comment default", palette.Syntax.Comment, "#6A9955"},
	}
	for _, tt := range tests {
		if got := tt.got.String(); got != tt.want {
			t.Errorf("%s = %s, want %s", tt.name, got, tt.want)
		}
	}
}

func TestUI_ColorsRoundTrip(t *testing.T) {
	cfg, _ := mapString(t, `
[ui]
terminal_theme = "custom"

[ui.colors]
selection_bg = "#333333"
glow = 3

[ui.colors.syntax]
number = "#ABCDEF"
`)
	data, err := cfg.Marshal()
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	back, _, err := Parse(data)
	if err != nil {
		t.Fatalf("Parse(Marshal()) error = %v\n%s", err, data)
	}
	if !Equal(cfg, back) {
		t.Errorf("round trip changed the config:\n%s", data)
	}
	if got := back.UI.Colors.SelectionBG.String(); got != "#333333" {
		t.Errorf("SelectionBG = %s, want #333333", got)
	}
	if v, ok := back.Lookup("ui.colors.glow"); !ok || !toml.Equal(v, toml.Integer(3)) {
		t.Errorf("unknown key ui.colors.glow = %v, %v; want preserved", v, ok)
	}
	if v, ok := back.Lookup("ui.colors.syntax.number"); !ok || !toml.Equal(v, toml.String("#ABCDEF")) {
		t.Errorf("ui.colors.syntax.number = %v, %v", v, ok)
	}
}

func TestUI_ColorsUnknownKeyWarns(t *testing.T) {
	_, warnings := mapString(t, "[ui.colors.syntax]\nkeywrd = \"#000000\"\n")
	if len(warnings) != 1 || warnings[0].Path != "ui.colors.syntax.keywrd" {
		t.Errorf("warnings = %v, want one for ui.colors.syntax.keywrd", warnings)
	}
}

func TestUI_ColorsInvalid(t *testing.T) {
	tests := []struct {
		name string
		src  string
		path string
		code ValidationErrorCode
	}{
		{"not hex", "[ui.colors]\nbackground = \"#GGGGGG\"", "ui.colors.background", ErrCodeInvalidColor},
		{"too short", "[ui.colors]\ncursor = \"#FFF\"", "ui.colors.cursor", ErrCodeInvalidColor},
		{"syntax", "[ui.colors.syntax]\nstring = \"blue\"", "ui.colors.syntax.string", ErrCodeInvalidColor},
		{"not a string", "[ui.colors]\ninfo = 255", "ui.colors.info", ErrCodeTypeMismatch},
		{"syntax not a table", "[ui.colors]\nsyntax = \"dark\"", "ui.colors.syntax", ErrCodeTypeMismatch},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := Parse([]byte(tt.src))
			var ve *ValidationError
			if !errors.As(err, &ve) {
				t.Fatalf("error = %v, want *ValidationError", err)
			}
			if ve.Path != tt.path || ve.Code != tt.code {
				t.Errorf("got %s (%s), want %s (%s)", ve.Path, ve.Code, tt.path, tt.code)
			}
		})
	}
}

func TestUI_ColorsCloneIsDeep(t *testing.T) {
	cfg, _ := mapString(t, "[ui.colors]\nglow = 1\n[ui.colors.syntax]\nshine = 2\n")
	c := cfg.Clone()
	c.UI.Colors.Extra.Set("glow", toml.Integer(9))
	c.UI.Colors.Syntax.Extra.Set("shine", toml.Integer(9))
	if v, _ := cfg.UI.Colors.Extra.Get("glow"); !toml.Equal(v, toml.Integer(1)) {
		t.Errorf("clone shares ui.colors extras: glow = %v", v)
	}
	if v, _ := cfg.UI.Colors.Syntax.Extra.Get("shine"); !toml.Equal(v, toml.Integer(2)) {
		t.Errorf("clone shares ui.colors.syntax extras: shine = %v", v)
	}
}

func TestValidationErrorCode_InvalidColor(t *testing.T) {
	if got := ErrCodeInvalidColor.String(); got != "invalid_color" {
		t.Errorf("String() = %q, want invalid_color", got)
	}
}
