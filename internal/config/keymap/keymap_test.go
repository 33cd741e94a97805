package keymap

import (
	"errors"
	"testing"
)

func TestParseAction(t *testing.T) {
	a, err := ParseAction("save")
	if err != nil || a != Save {
		t.Errorf("ParseAction(save) = %q, %v", a, err)
	}

	a, err = ParseAction("custom:format_buffer")
	if err != nil {
		t.Fatalf("ParseAction(custom) error = %v", err)
	}
	if !a.IsCustom() || a.CustomName() != "format_buffer" {
		t.Errorf("custom action = %q (name %q)", a, a.CustomName())
	}
	if Save.CustomName() != "" {
		t.Error("built-in action reported a custom name")
	}

	for _, bad := range []string{"explode", "custom:", "Save"} {
		if _, err := ParseAction(bad); !errors.Is(err, ErrUnknownAction) {
			t.Errorf("ParseAction(%q) error = %v, want ErrUnknownAction", bad, err)
		}
	}
}

func TestDefaults(t *testing.T) {
	k := Defaults()

	tests := []struct {
		mode  string
		combo string
		want  Action
	}{
		{ModeNormal, "j", MoveDown},
		{ModeNormal, "N", SearchPrev},
		{ModeNormal, "n", SearchNext},
		{ModeNormal, "ctrl+s", Save},
		{ModeInsert, "Escape", NormalMode},
		{ModeVisual, "d", Cut},
		// Global fallback.
		{ModeVisual, "Ctrl+q", ForceQuit},
		// Mode binding shadows global.
		{ModeInsert, "Ctrl+c", NormalMode},
		{ModeNormal, "Ctrl+c", Quit},
	}
	for _, tt := range tests {
		got, ok := k.Lookup(tt.mode, MustParseCombo(tt.combo))
		if !ok || got != tt.want {
			t.Errorf("Lookup(%s, %s) = %q, %v; want %q", tt.mode, tt.combo, got, ok, tt.want)
		}
	}

	for _, b := range k[ModeNormal].Sorted() {
		if !b.Action.IsBuiltin() {
			t.Errorf("default binding %s uses non-builtin action %q", b.Combo, b.Action)
		}
	}
}

func TestKeymapCloneAndEqual(t *testing.T) {
	k := Defaults()
	cp := k.Clone()
	if !k.Equal(cp) {
		t.Fatal("clone differs from original")
	}

	cp.Bind(ModeNormal, MustParseCombo("Ctrl+p"), Custom("fuzzy_finder"))
	if k.Equal(cp) {
		t.Error("binding in clone leaked into original")
	}
	if !cp.Unbind(ModeNormal, MustParseCombo("Ctrl+p")) {
		t.Error("Unbind returned false for a bound combo")
	}
	if !k.Equal(cp) {
		t.Error("keymaps differ after unbinding the only change")
	}

	cp.Bind("terminal", MustParseCombo("Ctrl+d"), Custom("close_terminal"))
	if a, ok := cp.Lookup("terminal", MustParseCombo("ctrl+d")); !ok || a.CustomName() != "close_terminal" {
		t.Errorf("custom mode lookup = %q, %v", a, ok)
	}
}
