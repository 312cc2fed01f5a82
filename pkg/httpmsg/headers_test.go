package httpmsg

import "testing"

func TestHeaderMap_CaseInsensitive(t *testing.T) {
	m := NewHeaderMap()
	m.Set("Content-Type", "text/html")

	tests := []struct {
		name string
		key  string
		want string
	}{
		{name: "exact key", key: "Content-Type", want: "text/html"},
		{name: "lower key", key: "content-type", want: "text/html"},
		{name: "upper key", key: "CONTENT-TYPE", want: "text/html"},
		{name: "absent key", key: "accept", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := m.Get(tt.key); got != tt.want {
				t.Errorf("Get(%q) = %q, want %q", tt.key, got, tt.want)
			}
		})
	}
}

func TestHeaderMap_LastWriteWins(t *testing.T) {
	m := NewHeaderMap()
	m.Set("Host", "a.com")
	m.Set("HOST", "b.com")

	if got := m.Get("host"); got != "b.com" {
		t.Errorf("Get(host) = %q, want %q", got, "b.com")
	}
	if m.Len() != 1 {
		t.Errorf("Len() = %d, want 1", m.Len())
	}
}

func TestHeaderMap_Del(t *testing.T) {
	m := NewHeaderMap()
	m.Set("a", "1")
	m.Set("b", "2")
	m.Del("A")

	if m.Has("a") {
		t.Error("Has(a) = true after Del")
	}
	if got := m.Keys(); len(got) != 1 || got[0] != "b" {
		t.Errorf("Keys() = %v, want [b]", got)
	}
}

func TestHeaderMap_InsertionOrder(t *testing.T) {
	m := NewHeaderMap()
	m.Set("c", "3")
	m.Set("a", "1")
	m.Set("b", "2")
	m.Set("C", "override") // must not move the key

	want := []string{"c", "a", "b"}
	got := m.Keys()
	if len(got) != len(want) {
		t.Fatalf("Keys() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Keys()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestHeaderMap_Clone(t *testing.T) {
	m := NewHeaderMap()
	m.Set("a", "1")

	c := m.Clone()
	c.Set("a", "changed")
	c.Set("b", "2")

	if got := m.Get("a"); got != "1" {
		t.Errorf("original mutated through clone: Get(a) = %q", got)
	}
	if m.Has("b") {
		t.Error("original gained key added to clone")
	}
}
