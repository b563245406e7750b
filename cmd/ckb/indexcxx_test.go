//go:build cgo

package main

import (
	"testing"

	"ckb/internal/cxindex/entityid"
	"ckb/internal/cxindex/indexer"
	"ckb/internal/cxindex/indexfile"
	"ckb/internal/cxindex/model"
)

func TestConvertIndexCxxResultSummarizesEachFile(t *testing.T) {
	f := indexfile.New("/proj/a.cc", "")
	tid := f.ToTypeId(1)
	typ := f.ResolveType(tid)
	typ.Def.NameHeader = model.NameHeader{DetailedName: "Widget", ShortNameSize: 6}

	res := indexer.ParseResult{
		ID:       "req-1",
		MainFile: "/proj/a.cc",
		Files:    map[string]*indexfile.IndexFile{"/proj/a.cc": f},
	}

	cli := convertIndexCxxResult(res)
	if cli.RequestId != "req-1" || cli.MainFile != "/proj/a.cc" {
		t.Fatalf("unexpected envelope: %+v", cli)
	}
	if len(cli.Files) != 1 {
		t.Fatalf("expected exactly one file, got %d", len(cli.Files))
	}
	if len(cli.Files[0].Types) != 1 || cli.Files[0].Types[0] != "Widget" {
		t.Errorf("Types = %v, want [Widget]", cli.Files[0].Types)
	}
}

func TestCalleeNameResolvesIndexedFunc(t *testing.T) {
	f := indexfile.New("/proj/a.cc", "")
	fid := f.ToFuncId(1)
	fn := f.ResolveFunc(fid)
	fn.Def.NameHeader = model.NameHeader{DetailedName: "helper", ShortNameSize: 6}

	ref := model.SymbolRef{Reference: model.Reference{
		Id:   entityid.Erase(fid),
		Kind: model.SymbolFunc,
	}}

	if got := calleeName(f, ref); got != "helper" {
		t.Errorf("calleeName = %q, want helper", got)
	}
}

func TestCalleeNameFallsBackToRawId(t *testing.T) {
	f := indexfile.New("/proj/a.cc", "")
	ref := model.SymbolRef{Reference: model.Reference{
		Id:   entityid.New[entityid.Void](7),
		Kind: model.SymbolFunc,
	}}

	if got := calleeName(f, ref); got != "#7" {
		t.Errorf("calleeName = %q, want #7", got)
	}
}
