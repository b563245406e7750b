package fileconsumer

import (
	"os"
	"path/filepath"
	"testing"
)

func TestMarkFirstCallerWins(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.h")
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	a := New()
	if !a.Mark(path) {
		t.Fatal("first Mark should claim the file")
	}
	if a.Mark(path) {
		t.Fatal("second Mark of the same path should not claim it")
	}
}

func TestMarkCollapsesSymlinkAlias(t *testing.T) {
	dir := t.TempDir()
	real := filepath.Join(dir, "real.h")
	if err := os.WriteFile(real, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	link := filepath.Join(dir, "alias.h")
	if err := os.Symlink(real, link); err != nil {
		t.Skipf("symlinks unsupported: %v", err)
	}

	a := New()
	if !a.Mark(real) {
		t.Fatal("first Mark should claim the real path")
	}
	if a.Mark(link) {
		t.Fatal("a symlink alias of an already-claimed file should not be claimable again")
	}
}

func TestMarkDistinctFilesBothClaim(t *testing.T) {
	dir := t.TempDir()
	a1 := filepath.Join(dir, "a.h")
	b1 := filepath.Join(dir, "b.h")
	os.WriteFile(a1, []byte("x"), 0o644)
	os.WriteFile(b1, []byte("y"), 0o644)

	a := New()
	if !a.Mark(a1) {
		t.Fatal("a.h should be claimable")
	}
	if !a.Mark(b1) {
		t.Fatal("b.h should be claimable independently of a.h")
	}
}

func TestResetAllowsReclaim(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.h")
	os.WriteFile(path, []byte("x"), 0o644)

	a := New()
	a.Mark(path)
	a.Reset()
	if !a.Mark(path) {
		t.Fatal("after Reset, the path should be claimable again")
	}
}

func TestMarkMissingFileFallsBackToPathIdentity(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "missing.h")

	a := New()
	if !a.Mark(path) {
		t.Fatal("first Mark of a missing path should still claim it")
	}
	if a.Mark(path) {
		t.Fatal("second Mark of the same missing path should not claim it")
	}
}
