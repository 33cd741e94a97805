package config

import (
	"errors"
	"strings"
	"testing"

	"github.com/dshills/nivconf/internal/config/keymap"
	"github.com/dshills/nivconf/internal/config/toml"
)

func mapString(t *testing.T, src string) (*Config, []Warning) {
	t.Helper()
	cfg, warnings, err := Parse([]byte(src))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	return cfg, warnings
}

func TestMap_EmptyDocumentIsDefault(t *testing.T) {
	cfg, warnings, err := Map(toml.NewDocument())
	if err != nil {
		t.Fatalf("Map() error = %v", err)
	}
	if len(warnings) != 0 {
		t.Errorf("warnings = %v, want none", warnings)
	}
	if cfg.Editor.TabWidth != 4 {
		t.Errorf("TabWidth = %d, want 4", cfg.Editor.TabWidth)
	}
	if !cfg.Editor.ExpandTab {
		t.Error("ExpandTab = false, want true")
	}
	if cfg.Editor.UndoLevels != 1000 {
		t.Errorf("UndoLevels = %d, want 1000", cfg.Editor.UndoLevels)
	}
	if !Equal(cfg, Default()) {
		t.Error("mapped empty document differs from Default()")
	}
}

func TestMap_NilDocument(t *testing.T) {
	cfg, _, err := Map(nil)
	if err != nil || cfg == nil {
		t.Fatalf("Map(nil) = %v, %v", cfg, err)
	}
	if cfg.UI.FontSize != 12 {
		t.Errorf("FontSize = %d, want 12", cfg.UI.FontSize)
	}
}

func TestMap_Values(t *testing.T) {
	cfg, warnings := mapString(t, `
[editor]
tab_width = 2
expand_tab = false
relative_numbers = true

[ui]
color_scheme = "gruvbox"
font_size = 14
terminal_theme = "light"

[ui.splits]
border_style = "rounded"
border_color = "#ff8800"
vertical_char = "│"

[extensions]
update_policy = "latest"
auto_load = false
git = false

[extensions.lsp]
version = ">=1.2"
repository = "https://example.com/lsp"
settings = { servers = ["gopls"], timeout = 30 }
`)
	if len(warnings) != 0 {
		t.Errorf("warnings = %v, want none", warnings)
	}
	if cfg.Editor.TabWidth != 2 || cfg.Editor.ExpandTab || !cfg.Editor.RelativeNumbers {
		t.Errorf("editor = %+v", cfg.Editor)
	}
	// Untouched keys keep defaults.
	if cfg.Editor.ScrollOff != 5 {
		t.Errorf("ScrollOff = %d, want 5", cfg.Editor.ScrollOff)
	}
	if cfg.UI.ColorScheme != "gruvbox" || cfg.UI.FontSize != 14 || cfg.UI.TerminalTheme != ThemeLight {
		t.Errorf("ui = %+v", cfg.UI)
	}
	if cfg.UI.Splits.BorderColor != (Color{R: 0xFF, G: 0x88, B: 0x00}) {
		t.Errorf("BorderColor = %v", cfg.UI.Splits.BorderColor)
	}
	if cfg.UI.Splits.HorizontalChar != "-" {
		t.Errorf("HorizontalChar = %q, want default -", cfg.UI.Splits.HorizontalChar)
	}
	if cfg.Extensions.UpdatePolicy != UpdateLatest || cfg.Extensions.AutoLoad {
		t.Errorf("extensions = %+v", cfg.Extensions)
	}

	git, ok := cfg.Extensions.Extension("git")
	if !ok || git.Enabled {
		t.Errorf("git = %+v, %v; want declared and disabled", git, ok)
	}
	lsp, ok := cfg.Extensions.Extension("lsp")
	if !ok || !lsp.Enabled || lsp.Version != ">=1.2" {
		t.Errorf("lsp = %+v, %v", lsp, ok)
	}
	if v, ok := lsp.Settings.Lookup("timeout"); !ok {
		t.Error("lsp settings lost timeout")
	} else if n, _ := v.AsInteger(); n != 30 {
		t.Errorf("timeout = %d, want 30", n)
	}
	if got := cfg.Extensions.EnabledExtensions(); len(got) != 1 || got[0] != "lsp" {
		t.Errorf("EnabledExtensions() = %v, want [lsp]", got)
	}
}

func TestMap_TypeMismatch(t *testing.T) {
	_, _, err := Parse([]byte("[editor]\ntab_width = \"four\"\n"))
	if err == nil {
		t.Fatal("Parse() succeeded, want validation error")
	}
	if !errors.Is(err, ErrTypeMismatch) || !errors.Is(err, ErrValidation) {
		t.Errorf("error %v does not match ErrTypeMismatch and ErrValidation", err)
	}
	var ve *ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("error %T is not *ValidationError", err)
	}
	if ve.Path != "editor.tab_width" {
		t.Errorf("Path = %q, want editor.tab_width", ve.Path)
	}
	if ve.Expected != "Integer" || ve.Actual != "String" {
		t.Errorf("Expected/Actual = %s/%s, want Integer/String", ve.Expected, ve.Actual)
	}
	if KindOf(err) != KindValidation {
		t.Errorf("KindOf = %s, want validation", KindOf(err))
	}
}

func TestMap_SectionNotTable(t *testing.T) {
	_, _, err := Parse([]byte(`editor = 1`))
	var ve *ValidationError
	if !errors.As(err, &ve) || ve.Path != "editor" || ve.Expected != "Table" {
		t.Errorf("error = %v, want type mismatch at editor", err)
	}
}

func TestMap_Errors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		path string
		code ValidationErrorCode
	}{
		{"zero tab width", "[editor]\ntab_width = 0", "editor.tab_width", ErrCodeOutOfRange},
		{"scrolloff too large", "[editor]\nscrolloff = 500", "editor.scrolloff", ErrCodeOutOfRange},
		{"bad theme", "[ui]\nterminal_theme = \"neon\"", "ui.terminal_theme", ErrCodeInvalidEnum},
		{"bad color", "[ui.splits]\nborder_color = \"red\"", "ui.splits.border_color", ErrCodeInvalidColor},
		{"bad policy", "[extensions]\nupdate_policy = \"sometimes\"", "extensions.update_policy", ErrCodeInvalidEnum},
		{"directories not strings", "[extensions]\ndirectories = [1, 2]", "extensions.directories", ErrCodeTypeMismatch},
		{"bad combo", "[keybindings.normal]\n\"Hyper+x\" = \"save\"", "keybindings.normal.Hyper+x", ErrCodeInvalidCombo},
		{"two base keys", "[keybindings.normal]\n\"a+b\" = \"save\"", "keybindings.normal.a+b", ErrCodeInvalidCombo},
		{"bad action", "[keybindings.insert]\n\"Ctrl+s\" = \"explode\"", "keybindings.insert.Ctrl+s", ErrCodeInvalidAction},
		{"action not string", "[keybindings.insert]\n\"Ctrl+s\" = 1", "keybindings.insert.Ctrl+s", ErrCodeTypeMismatch},
		{"mode not table", "[keybindings]\nnormal = \"x\"", "keybindings.normal", ErrCodeTypeMismatch},
		{"extension enabled not bool", "[extensions.git]\nenabled = \"yes\"", "extensions.git.enabled", ErrCodeTypeMismatch},
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

func TestMap_ComboErrorUnwraps(t *testing.T) {
	_, _, err := Parse([]byte("[keybindings.normal]\n\"Ctrl+a+b\" = \"save\""))
	if !errors.Is(err, keymap.ErrMultipleKeys) {
		t.Errorf("error %v does not wrap keymap.ErrMultipleKeys", err)
	}
}

func TestMap_TransparencyClamped(t *testing.T) {
	cfg, warnings := mapString(t, "[ui]\ntransparency = 150")
	if cfg.UI.Transparency != 100 {
		t.Errorf("Transparency = %d, want 100", cfg.UI.Transparency)
	}
	if len(warnings) != 1 || warnings[0].Path != "ui.transparency" {
		t.Errorf("warnings = %v, want one for ui.transparency", warnings)
	}
}

func TestMap_UnknownKeysPreserved(t *testing.T) {
	src := `
[editor]
tabwidth = 8
future_option = { a = 1 }

[ui.splits]
glow = true

[plugins.telescope]
layout = "vertical"

top_level = 42
`
	cfg, warnings := mapString(t, src)

	if len(warnings) != 3 {
		t.Fatalf("warnings = %v, want 3", warnings)
	}
	byPath := map[string]Warning{}
	for _, w := range warnings {
		byPath[w.Path] = w
	}
	if w := byPath["editor.tabwidth"]; w.Suggestion != "tab_width" {
		t.Errorf("suggestion for tabwidth = %q, want tab_width", w.Suggestion)
	}
	if _, ok := byPath["ui.splits.glow"]; !ok {
		t.Error("missing warning for ui.splits.glow")
	}

	if cfg.Editor.TabWidth != 4 {
		t.Errorf("TabWidth = %d, want default 4", cfg.Editor.TabWidth)
	}
	if _, ok := cfg.Custom.LookupDotted("plugins.telescope.layout"); !ok {
		t.Error("unknown section not carried in Custom")
	}
	if v, ok := cfg.GetCustom("top_level"); !ok {
		t.Error("top-level key not carried in Custom")
	} else if n, _ := v.AsInteger(); n != 42 {
		t.Errorf("top_level = %d, want 42", n)
	}

	// Saving and reloading keeps all of it.
	out, err := cfg.Marshal()
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	again, _, err := Parse(out)
	if err != nil {
		t.Fatalf("re-Parse() error = %v\n%s", err, out)
	}
	for _, path := range []string{"editor.tabwidth", "editor.future_option.a", "ui.splits.glow", "plugins.telescope.layout", "top_level"} {
		if _, ok := again.Lookup(path); !ok {
			t.Errorf("%s lost after round trip:\n%s", path, out)
		}
	}
}

func TestSuggest(t *testing.T) {
	known := []string{"tab_width", "expand_tab", "scrolloff", "sidescrolloff"}
	tests := []struct {
		key  string
		want string
	}{
		{"tabwidth", "tab_width"},
		{"tab_widths", "tab_width"},
		{"scroloff", "scrolloff"},
		{"zzz", ""},
	}
	for _, tt := range tests {
		if got := suggest(tt.key, known); got != tt.want {
			t.Errorf("suggest(%q) = %q, want %q", tt.key, got, tt.want)
		}
	}
}

func TestMap_Keybindings(t *testing.T) {
	cfg, warnings := mapString(t, `
[keybindings.normal]
"Ctrl+Shift+p" = "custom:command_palette"
"g" = "move_to_line"
"G" = "move_page_down"

[keybindings.insert]
"ctrl+s" = "save"
"Control+S" = "save_as"

[keybindings.terminal]
"Ctrl+d" = "custom:close_terminal"
`)
	km := cfg.Keybindings.Keymap

	if a, ok := km.Lookup(keymap.ModeNormal, keymap.MustParseCombo("shift+ctrl+p")); !ok || a.CustomName() != "command_palette" {
		t.Errorf("Shift+Ctrl+p = %q, %v", a, ok)
	}
	if a, _ := km.Lookup(keymap.ModeNormal, keymap.MustParseCombo("g")); a != keymap.MoveToLine {
		t.Errorf("g = %q, want move_to_line", a)
	}
	if a, _ := km.Lookup(keymap.ModeNormal, keymap.MustParseCombo("G")); a != keymap.MovePageDown {
		t.Errorf("G = %q, want move_page_down", a)
	}
	// Defaults survive alongside user bindings.
	if a, _ := km.Lookup(keymap.ModeNormal, keymap.MustParseCombo("j")); a != keymap.MoveDown {
		t.Errorf("j = %q, want default move_down", a)
	}
	if _, ok := km.Lookup("terminal", keymap.MustParseCombo("Ctrl+d")); !ok {
		t.Error("custom mode binding missing")
	}
	// "ctrl+s" and "Control+S" differ by base key case, so both bind.
	if a, _ := km.Lookup(keymap.ModeInsert, keymap.MustParseCombo("Ctrl+S")); a != keymap.SaveAs {
		t.Errorf("Ctrl+S = %q, want save_as", a)
	}
	if len(warnings) != 0 {
		t.Errorf("warnings = %v, want none", warnings)
	}
}

func TestMap_DuplicateComboWarns(t *testing.T) {
	cfg, warnings := mapString(t, `
[keybindings.normal]
"Ctrl+Alt+x" = "cut"
"alt+ctrl+x" = "copy"
`)
	if len(warnings) != 1 || !strings.Contains(warnings[0].Message, "later binding wins") {
		t.Errorf("warnings = %v, want one duplicate warning", warnings)
	}
	a, _ := cfg.Keybindings.Keymap.Lookup(keymap.ModeNormal, keymap.MustParseCombo("Ctrl+Alt+x"))
	if a != keymap.Copy {
		t.Errorf("Ctrl+Alt+x = %q, want copy", a)
	}
}
