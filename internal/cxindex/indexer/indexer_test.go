//go:build cgo

package indexer

import (
	"context"
	"testing"

	"ckb/internal/cxindex/fileconsumer"
	"ckb/internal/cxindex/indexfile"
	"ckb/internal/cxindex/model"
	"ckb/internal/cxindex/snapshot"
)

func TestParseSingleFileClassAndMethod(t *testing.T) {
	const src = `namespace n {
class C {
 public:
  void m();
};

void C::m() {
}
}
`
	ix := New(Config{WorkerCount: 1})
	res := ix.Parse(context.Background(), ParseRequest{
		Path:     "/proj/a.cc",
		Snapshot: snapshot.New([]snapshot.Buffer{{Path: "/proj/a.cc", Contents: []byte(src)}}),
	})
	if res.Err != nil {
		t.Fatalf("Parse: %v", res.Err)
	}
	if res.ID == "" {
		t.Error("expected a generated request ID")
	}

	f := res.Files["/proj/a.cc"]
	if f == nil {
		t.Fatal("expected /proj/a.cc in the result")
	}

	var c *model.IndexType
	for i := range f.Types {
		if f.Types[i].Def.Name(false) == "C" {
			c = &f.Types[i]
		}
	}
	if c == nil {
		t.Fatal("expected class C to be indexed")
	}
	// The namespace-only prefix doesn't count toward the "qualified" display
	// form (nsresolve's class-qualified-form convention) — only enclosing
	// classes do, and C has none.
	if c.Def.Name(true) != "C" {
		t.Errorf("C qualified name = %q, want C", c.Def.Name(true))
	}
	if len(c.Def.Bases) != 0 {
		t.Errorf("C.Def.Bases = %v, want empty", c.Def.Bases)
	}
	if len(c.Def.Funcs) != 1 {
		t.Fatalf("C.Def.Funcs = %v, want exactly m", c.Def.Funcs)
	}

	var m *model.IndexFunc
	for i := range f.Funcs {
		if f.Funcs[i].Def.Name(false) == "m" && f.Funcs[i].Def.Spell != nil {
			m = &f.Funcs[i]
		}
	}
	if m == nil {
		t.Fatal("expected the definition of m")
	}
	if m.Def.Name(true) != "C::m" {
		t.Errorf("m qualified name = %q, want C::m", m.Def.Name(true))
	}
	if m.Def.DeclaringType == nil || *m.Def.DeclaringType != c.Id {
		t.Errorf("m.Def.DeclaringType = %v, want %v", m.Def.DeclaringType, c.Id)
	}
	if m.Def.Spell == nil || m.Def.Extent == nil {
		t.Error("expected both Spell and Extent set on the definition of m")
	}
}

func TestParseAllClaimsSharedIncludeOnce(t *testing.T) {
	const a = `#include "util.h"
void callA() {}
`
	const b = `#include "util.h"
void callB() {}
`
	arbiter := fileconsumer.New()
	ix := New(Config{WorkerCount: 2, Arbiter: arbiter})

	results := ix.ParseAll(context.Background(), []ParseRequest{
		{Path: "/proj/a.cc", Snapshot: snapshot.New([]snapshot.Buffer{{Path: "/proj/a.cc", Contents: []byte(a)}})},
		{Path: "/proj/b.cc", Snapshot: snapshot.New([]snapshot.Buffer{{Path: "/proj/b.cc", Contents: []byte(b)}})},
	})

	claims := 0
	for _, res := range results {
		if res.Err != nil {
			t.Fatalf("Parse: %v", res.Err)
		}
		if _, ok := res.Files["/proj/util.h"]; ok {
			claims++
		}
	}
	if claims != 1 {
		t.Errorf("util.h claimed by %d results, want exactly 1", claims)
	}
}

func TestReparseReflectsNewCallees(t *testing.T) {
	const before = `void helperA() {}
void helperB() {}
void driver() {
  helperA();
}
`
	const after = `void helperA() {}
void helperB() {}
void driver() {
  helperB();
}
`
	ix := New(Config{WorkerCount: 1})

	unit, open := ix.Open(context.Background(), ParseRequest{
		Path:     "/proj/a.cc",
		Snapshot: snapshot.New([]snapshot.Buffer{{Path: "/proj/a.cc", Contents: []byte(before)}}),
	})
	if open.Err != nil {
		t.Fatalf("Open: %v", open.Err)
	}
	defer unit.Release()

	firstDriver := findFunc(open, "driver")
	if firstDriver == nil {
		t.Fatal("expected driver in the initial parse")
	}
	if len(firstDriver.Def.Callees) != 1 {
		t.Fatalf("initial Callees = %v, want exactly one call", firstDriver.Def.Callees)
	}

	reparsed := ix.ParseWithTu(context.Background(), unit, ParseRequest{
		Path:     "/proj/a.cc",
		Snapshot: snapshot.New([]snapshot.Buffer{{Path: "/proj/a.cc", Contents: []byte(after)}}),
	})
	if reparsed.Err != nil {
		t.Fatalf("ParseWithTu: %v", reparsed.Err)
	}

	secondDriver := findFunc(reparsed, "driver")
	if secondDriver == nil {
		t.Fatal("expected driver after reparse")
	}
	if len(secondDriver.Def.Callees) != 1 {
		t.Fatalf("reparsed Callees = %v, want exactly one call", secondDriver.Def.Callees)
	}
}

func findFunc(res ParseResult, name string) *model.IndexFunc {
	f := res.Files["/proj/a.cc"]
	if f == nil {
		return nil
	}
	for i := range f.Funcs {
		if f.Funcs[i].Def.Name(false) == name && f.Funcs[i].Def.Spell != nil {
			return &f.Funcs[i]
		}
	}
	return nil
}

func TestParseServesCacheHitWithoutReparsing(t *testing.T) {
	cached := indexfile.New("/proj/cached.cc", "")
	ix := New(Config{
		WorkerCount: 1,
		Cache: func(ctx context.Context, req ParseRequest) (*indexfile.IndexFile, bool) {
			return cached, true
		},
	})

	res := ix.Parse(context.Background(), ParseRequest{Path: "/proj/cached.cc"})
	if res.Err != nil {
		t.Fatalf("Parse: %v", res.Err)
	}
	if got := res.Files["/proj/cached.cc"]; got != cached {
		t.Errorf("expected the cache hit to be returned verbatim, got %+v", got)
	}
}

func TestParseInvokesStoreOnSuccess(t *testing.T) {
	const src = `void helper() {}`
	var stored map[string]*indexfile.IndexFile
	ix := New(Config{
		WorkerCount: 1,
		Store: func(ctx context.Context, req ParseRequest, files map[string]*indexfile.IndexFile) {
			stored = files
		},
	})

	res := ix.Parse(context.Background(), ParseRequest{
		Path:     "/proj/a.cc",
		Snapshot: snapshot.New([]snapshot.Buffer{{Path: "/proj/a.cc", Contents: []byte(src)}}),
	})
	if res.Err != nil {
		t.Fatalf("Parse: %v", res.Err)
	}
	if _, ok := stored["/proj/a.cc"]; !ok {
		t.Fatalf("expected Store to be called with the parsed file, got %v", stored)
	}
}
