package snapshot

import "testing"

func TestLookup(t *testing.T) {
	s := New([]Buffer{
		{Path: "/a.cc", Contents: []byte("a")},
		{Path: "/b.h", Contents: []byte("b")},
	})

	if got, ok := s.Lookup("/a.cc"); !ok || string(got) != "a" {
		t.Errorf("Lookup(/a.cc) = %q, %v", got, ok)
	}
	if _, ok := s.Lookup("/missing.h"); ok {
		t.Errorf("expected no overlay for /missing.h")
	}
	if s.Len() != 2 {
		t.Errorf("Len() = %d, want 2", s.Len())
	}
}

func TestEmpty(t *testing.T) {
	s := Empty()
	if s.Len() != 0 {
		t.Errorf("Empty().Len() = %d, want 0", s.Len())
	}
	if _, ok := s.Lookup("/x"); ok {
		t.Errorf("expected Empty() to never have overlays")
	}
}

func TestLastWriteWins(t *testing.T) {
	s := New([]Buffer{
		{Path: "/a.cc", Contents: []byte("first")},
		{Path: "/a.cc", Contents: []byte("second")},
	})
	got, _ := s.Lookup("/a.cc")
	if string(got) != "second" {
		t.Errorf("Lookup(/a.cc) = %q, want second", got)
	}
}
