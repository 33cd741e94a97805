package layer

import (
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/dshills/nivconf/internal/config"
	"github.com/dshills/nivconf/internal/config/loader"
	"github.com/dshills/nivconf/internal/config/toml"
)

var quiet = slog.New(slog.NewTextHandler(io.Discard, nil))

const (
	systemFile  = "/etc/niv/config.toml"
	userFile    = "/home/u/.niv/config.toml"
	projectFile = "/work/.niv.toml"
)

// newFileManager builds a manager with system, user and project file
// layers over an in-memory file system.
func newFileManager(t *testing.T, files map[string]string, opts ...Option) (*Manager, *loader.MemFS) {
	t.Helper()
	mfs := loader.NewMemFS()
	for p, content := range files {
		if err := mfs.WriteFile(p, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	m := NewManager(append([]Option{WithFS(mfs), WithLogger(quiet)}, opts...)...)
	m.AddFile("system", SourceSystem, systemFile)
	m.AddFile("user", SourceUser, userFile)
	m.AddFile("project", SourceProject, projectFile)
	return m, mfs
}

func TestManager_AddLayer(t *testing.T) {
	m := NewManager(WithLogger(quiet))

	m.AddLayer(NewLayer("session", SourceSession, PrioritySession))
	m.AddLayer(NewLayer("args", SourceArgs, PriorityArgs))
	m.AddLayer(NewLayer("env", SourceEnv, PriorityEnv))

	if m.LayerCount() != 3 {
		t.Errorf("LayerCount() = %d, want 3", m.LayerCount())
	}

	// Verify sorted by priority
	layers := m.Layers()
	if layers[0].Name != "env" {
		t.Error("first layer should be 'env' (lowest priority)")
	}
	if layers[1].Name != "args" {
		t.Error("second layer should be 'args'")
	}
	if layers[2].Name != "session" {
		t.Error("third layer should be 'session' (highest priority)")
	}
}

func TestManager_RemoveLayer(t *testing.T) {
	m := NewManager(WithLogger(quiet))
	m.AddLayer(NewLayer("test1", SourceArgs, PriorityArgs))
	m.AddLayer(NewLayer("test2", SourceSession, PrioritySession))

	if !m.RemoveLayer("test1") {
		t.Error("RemoveLayer should return true for existing layer")
	}
	if m.LayerCount() != 1 {
		t.Errorf("LayerCount() = %d, want 1", m.LayerCount())
	}
	if m.RemoveLayer("nonexistent") {
		t.Error("RemoveLayer should return false for non-existing layer")
	}
}

func TestManager_GetLayer(t *testing.T) {
	m, _ := newFileManager(t, nil)

	if l := m.GetLayer("user"); l == nil || l.Source != SourceUser {
		t.Fatalf("GetLayer(user) = %+v", l)
	}
	if l := m.GetLayerBySource(SourceProject); l == nil || l.Name != "project" {
		t.Errorf("GetLayerBySource(project) = %+v", l)
	}
	if m.GetLayer("missing") != nil {
		t.Error("GetLayer should return nil for unknown names")
	}
}

func TestManager_EffectiveMergesLayers(t *testing.T) {
	m, _ := newFileManager(t, map[string]string{
		systemFile: "[ui]\ncolor_scheme = \"default\"\n",
		userFile:   "[ui]\nfont_size = 14\n",
	})

	cfg, err := m.Effective()
	if err != nil {
		t.Fatalf("Effective() error = %v", err)
	}
	if cfg.UI.ColorScheme != "default" {
		t.Errorf("ColorScheme = %q, want default", cfg.UI.ColorScheme)
	}
	if cfg.UI.FontSize != 14 {
		t.Errorf("FontSize = %d, want 14", cfg.UI.FontSize)
	}
	if cfg.Editor.TabWidth != config.Default().Editor.TabWidth {
		t.Errorf("TabWidth = %d, want the default", cfg.Editor.TabWidth)
	}
}

func TestManager_HigherLayerWinsAtLeaf(t *testing.T) {
	m, _ := newFileManager(t, map[string]string{
		systemFile:  "[editor]\ntab_width = 8\nwrap = false\n",
		userFile:    "[editor]\ntab_width = 4\n",
		projectFile: "[editor]\ntab_width = 2\n",
	})

	cfg, err := m.Effective()
	if err != nil {
		t.Fatalf("Effective() error = %v", err)
	}
	if cfg.Editor.TabWidth != 2 {
		t.Errorf("TabWidth = %d, want 2 from the project layer", cfg.Editor.TabWidth)
	}
	if cfg.Editor.Wrap {
		t.Error("Wrap should keep the system layer's false")
	}
	if got := m.WhichLayer("editor.tab_width"); got != "project" {
		t.Errorf("WhichLayer(tab_width) = %q, want project", got)
	}
	if got := m.WhichLayer("editor.wrap"); got != "system" {
		t.Errorf("WhichLayer(wrap) = %q, want system", got)
	}
	if got := m.WhichLayer("editor.mouse"); got != "" {
		t.Errorf("WhichLayer(mouse) = %q, want empty for a default", got)
	}
}

func TestManager_ArraysReplacedWholesale(t *testing.T) {
	m, _ := newFileManager(t, map[string]string{
		systemFile: "[extensions]\ndirectories = [\"/a\", \"/b\"]\n",
		userFile:   "[extensions]\ndirectories = [\"/c\"]\n",
	})

	merged, err := m.Merged()
	if err != nil {
		t.Fatalf("Merged() error = %v", err)
	}
	v, _ := merged.LookupDotted("extensions.directories")
	dirs, _ := v.AsStringSlice()
	if len(dirs) != 1 || dirs[0] != "/c" {
		t.Errorf("directories = %v, want [/c]", dirs)
	}
}

func TestManager_MergedHasNoDefaults(t *testing.T) {
	m, _ := newFileManager(t, map[string]string{userFile: "[ui]\nfont_size = 14\n"})

	merged, err := m.Merged()
	if err != nil {
		t.Fatalf("Merged() error = %v", err)
	}
	if merged.Has("editor") {
		t.Error("Merged() should only contain layer data")
	}
}

func TestManager_BrokenLayerAborts(t *testing.T) {
	m, _ := newFileManager(t, map[string]string{
		userFile:    "[ui]\nfont_size = 14\n",
		projectFile: "[ui]\nfont_size = 1\nfont_size = 2\n",
	})

	_, err := m.Effective()
	if err == nil {
		t.Fatal("Effective() should fail when a present layer does not parse")
	}
	if !errors.Is(err, toml.ErrDuplicateKey) {
		t.Errorf("error = %v, want ErrDuplicateKey", err)
	}
	if config.KindOf(err) != config.KindParse {
		t.Errorf("KindOf() = %s, want parse", config.KindOf(err))
	}
}

func TestManager_FailedReloadAbortsEffective(t *testing.T) {
	m, mfs := newFileManager(t, map[string]string{userFile: "[ui]\nfont_size = 14\n"})
	if _, err := m.Effective(); err != nil {
		t.Fatalf("Effective() error = %v", err)
	}

	if err := mfs.WriteFile(userFile, []byte("[ui]\nfont_size = = 1\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	changed, err := m.CheckReload()
	if err == nil {
		t.Fatal("CheckReload() should report the broken file")
	}
	if changed {
		t.Error("CheckReload() should not report a change for a failed reload")
	}

	if _, err := m.Effective(); err == nil {
		t.Fatal("Effective() should fail while a present layer does not parse")
	} else if config.KindOf(err) != config.KindParse {
		t.Errorf("KindOf(%v) = %s, want parse", err, config.KindOf(err))
	}
	if cur := m.Current(); cur.UI.FontSize != 14 {
		t.Errorf("Current().UI.FontSize = %d, want last good 14", cur.UI.FontSize)
	}

	if err := mfs.WriteFile(userFile, []byte("[ui]\nfont_size = 15\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := m.CheckReload(); err != nil {
		t.Fatalf("CheckReload() after fix error = %v", err)
	}
	cfg, err := m.Effective()
	if err != nil {
		t.Fatalf("Effective() after fix error = %v", err)
	}
	if cfg.UI.FontSize != 15 {
		t.Errorf("FontSize = %d, want 15", cfg.UI.FontSize)
	}
}

func TestManager_CheckReloadInvalidatesCache(t *testing.T) {
	m, mfs := newFileManager(t, map[string]string{userFile: "[ui]\nfont_size = 14\n"})

	first, err := m.Effective()
	if err != nil {
		t.Fatalf("Effective() error = %v", err)
	}

	if err := mfs.WriteFile(projectFile, []byte("[ui]\nfont_size = 16\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	changed, err := m.CheckReload()
	if err != nil || !changed {
		t.Fatalf("CheckReload() = %v, %v; want true, nil", changed, err)
	}

	second, err := m.Effective()
	if err != nil {
		t.Fatalf("Effective() error = %v", err)
	}
	if first.UI.FontSize != 14 || second.UI.FontSize != 16 {
		t.Errorf("font sizes = %d then %d, want 14 then 16", first.UI.FontSize, second.UI.FontSize)
	}

	changed, err = m.CheckReload()
	if err != nil || changed {
		t.Errorf("second CheckReload() = %v, %v; want false, nil", changed, err)
	}
}

func TestManager_InvalidMergeKeepsLastGood(t *testing.T) {
	m, _ := newFileManager(t, map[string]string{userFile: "[ui]\nfont_size = 14\n"})
	if _, err := m.Effective(); err != nil {
		t.Fatal(err)
	}

	if err := m.SetInSession("editor.scrolloff", toml.Integer(101)); err != nil {
		t.Fatal(err)
	}
	_, err := m.Effective()
	if !errors.Is(err, config.ErrValidation) {
		t.Fatalf("Effective() error = %v, want ErrValidation", err)
	}
	if m.Current().UI.FontSize != 14 {
		t.Error("Current() should keep the last good config")
	}
}

func TestManager_Overrides(t *testing.T) {
	env := toml.NewTable()
	if err := env.SetPath([]string{"editor", "tab_width"}, toml.Integer(3)); err != nil {
		t.Fatal(err)
	}
	m, _ := newFileManager(t, map[string]string{projectFile: "[editor]\ntab_width = 2\n"}, WithOverrides(env))

	cfg, err := m.Effective()
	if err != nil {
		t.Fatalf("Effective() error = %v", err)
	}
	if cfg.Editor.TabWidth != 3 {
		t.Errorf("TabWidth = %d, want 3 from the environment", cfg.Editor.TabWidth)
	}
	if got := m.WhichLayer("editor.tab_width"); got != "environment" {
		t.Errorf("WhichLayer = %q, want environment", got)
	}
}

func TestManager_SetInSession(t *testing.T) {
	m, _ := newFileManager(t, map[string]string{userFile: "[ui]\nfont_size = 14\n"})

	if err := m.SetInSession("ui.font_size", toml.Integer(20)); err != nil {
		t.Fatalf("SetInSession() error = %v", err)
	}
	v, ok := m.Lookup("ui.font_size")
	if !ok || !toml.Equal(v, toml.Integer(20)) {
		t.Errorf("Lookup(ui.font_size) = %#v, %v", v, ok)
	}
	if got := m.WhichLayer("ui.font_size"); got != "session" {
		t.Errorf("WhichLayer = %q, want session", got)
	}

	if err := m.SetInSession("ui..x", toml.Integer(1)); !errors.Is(err, config.ErrInvalidPath) {
		t.Errorf("SetInSession(bad path) error = %v, want ErrInvalidPath", err)
	}
	if err := m.SetInSession("ui.font_size.deeper", toml.Integer(1)); !errors.Is(err, config.ErrInvalidPath) {
		t.Errorf("SetInSession(through scalar) error = %v, want ErrInvalidPath", err)
	}
}

func TestManager_SetReadOnly(t *testing.T) {
	m, _ := newFileManager(t, nil)

	if err := m.Set("user", "ui.font_size", toml.Integer(1)); err == nil {
		t.Error("Set on a file layer should fail")
	}
	if err := m.Set("missing", "ui.font_size", toml.Integer(1)); err == nil {
		t.Error("Set on an unknown layer should fail")
	}
	if err := m.UpdateLayer("system", toml.NewTable()); err == nil {
		t.Error("UpdateLayer on a file layer should fail")
	}
}

func TestManager_SetDeleteUpdate(t *testing.T) {
	m := NewManager(WithLogger(quiet))
	m.AddLayer(NewLayer("args", SourceArgs, PriorityArgs))

	if err := m.Set("args", "editor.tab_width", toml.Integer(6)); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if v, ok := m.GetLayerValue("args", "editor.tab_width"); !ok || !toml.Equal(v, toml.Integer(6)) {
		t.Errorf("GetLayerValue = %#v, %v", v, ok)
	}
	cfg, err := m.Effective()
	if err != nil || cfg.Editor.TabWidth != 6 {
		t.Fatalf("Effective() = %v, %v; want tab width 6", cfg, err)
	}

	if err := m.Delete("args", "editor.tab_width"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	cfg, _ = m.Effective()
	if cfg.Editor.TabWidth != config.Default().Editor.TabWidth {
		t.Errorf("TabWidth after Delete = %d, want default", cfg.Editor.TabWidth)
	}

	data := toml.NewTable()
	data.Set("ui", toml.TableValue(toml.NewTable()))
	if err := m.UpdateLayer("args", data); err != nil {
		t.Fatalf("UpdateLayer() error = %v", err)
	}
	if _, ok := m.GetLayerValue("args", "editor"); ok {
		t.Error("UpdateLayer should replace the layer's data")
	}
}

func TestManager_Clear(t *testing.T) {
	m, _ := newFileManager(t, nil)
	m.Clear()
	if m.LayerCount() != 0 {
		t.Errorf("LayerCount() after Clear = %d", m.LayerCount())
	}
	cfg, err := m.Effective()
	if err != nil || !config.Equal(cfg, config.Default()) {
		t.Errorf("Effective() with no layers = %v, %v; want defaults", cfg, err)
	}
}

func TestManager_Tree(t *testing.T) {
	m, _ := newFileManager(t, map[string]string{userFile: "[ui]\nfont_size = 14\n"})
	v, ok := m.Tree().LookupDotted("ui.font_size")
	if !ok || !toml.Equal(v, toml.Integer(14)) {
		t.Errorf("Tree() ui.font_size = %#v, %v", v, ok)
	}
}

func TestDefaultManager(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "")
	m := DefaultManager("/home/u", "/work", WithFS(loader.NewMemFS()), WithLogger(quiet))

	layers := m.Layers()
	if len(layers) != 3 {
		t.Fatalf("len(Layers()) = %d, want 3", len(layers))
	}
	want := []string{"system", "user", "project"}
	for i, l := range layers {
		if l.Name != want[i] {
			t.Errorf("layer %d = %q, want %q", i, l.Name, want[i])
		}
	}
	cands := layers[1].Loader.Candidates()
	if len(cands) != 2 || cands[1] != "/home/u/.config/niv/config.toml" {
		t.Errorf("user candidates = %v", cands)
	}
}

func TestManager_Concurrent(t *testing.T) {
	m, mfs := newFileManager(t, map[string]string{userFile: "[ui]\nfont_size = 14\n"})

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				cfg, err := m.Effective()
				if err != nil {
					t.Error(err)
					return
				}
				if cfg.UI.FontSize != 14 && cfg.UI.FontSize != 18 {
					t.Errorf("FontSize = %d", cfg.UI.FontSize)
					return
				}
			}
		}()
	}
	for j := 0; j < 10; j++ {
		size := "14"
		if j%2 == 0 {
			size = "18"
		}
		_ = mfs.WriteFile(userFile, []byte("[ui]\nfont_size = "+size+"\n"), 0o644)
		if _, err := m.CheckReload(); err != nil {
			t.Error(err)
		}
	}
	wg.Wait()
}
