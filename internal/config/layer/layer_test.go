package layer

import (
	"testing"

	"github.com/dshills/nivconf/internal/config/toml"
)

func TestNewLayer(t *testing.T) {
	l := NewLayer("test", SourceSession, PrioritySession)

	if l.Name != "test" {
		t.Errorf("Name = %q, want 'test'", l.Name)
	}
	if l.Source != SourceSession {
		t.Errorf("Source = %v, want SourceSession", l.Source)
	}
	if l.Data == nil || l.Data.Len() != 0 {
		t.Error("Data should be an empty table")
	}
	if l.Path() != "" {
		t.Errorf("Path() = %q for an in-memory layer", l.Path())
	}
}

func TestNewLayerWithData(t *testing.T) {
	data := toml.NewTable()
	data.Set("a", toml.Integer(1))

	l := NewLayerWithData("x", SourceArgs, PriorityArgs, data)
	if v, ok := l.Data.Get("a"); !ok || !toml.Equal(v, toml.Integer(1)) {
		t.Errorf("Data[a] = %#v", v)
	}

	if NewLayerWithData("y", SourceArgs, PriorityArgs, nil).Data == nil {
		t.Error("nil data should become an empty table")
	}
}

func TestLayer_Clone(t *testing.T) {
	l := NewLayer("s", SourceSession, PrioritySession)
	l.Data.Set("a", toml.Integer(1))

	c := l.Clone()
	c.Data.Set("a", toml.Integer(2))

	if v, _ := l.Data.Get("a"); !toml.Equal(v, toml.Integer(1)) {
		t.Error("Clone shares data with the original")
	}
}

func TestSource_String(t *testing.T) {
	tests := []struct {
		source Source
		want   string
	}{
		{SourceSystem, "system"},
		{SourceUser, "user"},
		{SourceProject, "project"},
		{SourceEnv, "environment"},
		{SourceArgs, "arguments"},
		{SourceSession, "session"},
		{Source(99), "unknown"},
	}
	for _, tt := range tests {
		if got := tt.source.String(); got != tt.want {
			t.Errorf("Source(%d).String() = %q, want %q", tt.source, got, tt.want)
		}
	}
}

func TestDefaultPriority_Ordering(t *testing.T) {
	order := []Source{SourceSystem, SourceUser, SourceProject, SourceEnv, SourceArgs, SourceSession}
	for i := 1; i < len(order); i++ {
		if DefaultPriority(order[i-1]) >= DefaultPriority(order[i]) {
			t.Errorf("%s should rank below %s", order[i-1], order[i])
		}
	}
	if DefaultPriority(Source(0)) != 0 {
		t.Error("unknown source should have priority 0")
	}
}
