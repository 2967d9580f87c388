package core

import "testing"

func TestHeaderBlockOrder(t *testing.T) {
	var h HeaderBlock
	h.Add(StatusHeader, "200")
	h.Add("Server", "test")
	h.Add("Set-Cookie", "a=1")
	h.Add("Set-Cookie", "b=2")

	want := []Field{
		{":status", "200"},
		{"server", "test"},
		{"set-cookie", "a=1"},
		{"set-cookie", "b=2"},
	}
	if len(h) != len(want) {
		t.Fatalf("got %d fields, want %d", len(h), len(want))
	}
	for i, f := range h {
		if f != want[i] {
			t.Fatalf("field %d is %v, want %v", i, f, want[i])
		}
	}
	if values := h.Values("set-cookie"); len(values) != 2 || values[0] != "a=1" || values[1] != "b=2" {
		t.Fatalf("values are %v", values)
	}
}

func TestHeaderBlockSet(t *testing.T) {
	var h HeaderBlock
	h.Add("content-length", "10")
	h.Set("Content-Length", "20")
	h.Set("retry-after", "60")

	if v, _ := h.Get("content-length"); v != "20" {
		t.Fatalf("content-length is %s", v)
	}
	if v, _ := h.Get("retry-after"); v != "60" {
		t.Fatalf("retry-after is %s", v)
	}
	if len(h) != 2 {
		t.Fatalf("got %d fields, want 2", len(h))
	}
}

func TestHeaderBlockStatus(t *testing.T) {
	tests := []struct {
		value string
		code  int
		ok    bool
	}{
		{"200", 200, true},
		{"404 Not Found", 404, true},
		{"abc", 0, false},
	}
	for _, tt := range tests {
		var h HeaderBlock
		h.Add(StatusHeader, tt.value)
		code, ok := h.Status()
		if code != tt.code || ok != tt.ok {
			t.Fatalf("status %q parsed as (%d, %v)", tt.value, code, ok)
		}
	}

	var empty HeaderBlock
	if _, ok := empty.Status(); ok {
		t.Fatal("empty block should have no status")
	}
}

func TestHeaderBlockClone(t *testing.T) {
	var h HeaderBlock
	h.Add("server", "orig")
	clone := h.Clone()
	h.Set("server", "changed")
	if v, _ := clone.Get("server"); v != "orig" {
		t.Fatalf("clone value is %s", v)
	}
}
