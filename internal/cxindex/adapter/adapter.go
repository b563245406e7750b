//go:build cgo

// Package adapter implements the indexing callback adapter, spec.md's
// "hardest subsystem": it projects the frontend's event stream onto
// IndexFile mutations (spec §4.5). It has no single ccls source file in
// this port's reference slice (the real ccls spreads it across
// indexer.cc/clang_indexer.cc); its shape is grounded on indexer.h's prose
// description of the five responsibilities below, and its container-cursor
// threading idiom is grounded on internal/symbols/treesitter.go's
// container-string threading through extractMethods, generalized from a
// flat string to the nsresolve.Container chain.
package adapter

import (
	"io"
	"log/slog"
	"path/filepath"
	"sort"

	"ckb/internal/cxindex/entityid"
	"ckb/internal/cxindex/frontend"
	"ckb/internal/cxindex/indexfile"
	"ckb/internal/cxindex/model"
	"ckb/internal/cxindex/nsresolve"
)

// Arbiter decides, for a header touched by more than one worker, which one
// gets to keep its result (spec §4.6); satisfied by
// internal/cxindex/fileconsumer.Arbiter. A nil Arbiter means "claim every
// file this parse touches", the right behavior for a single-worker caller
// or a test.
type Arbiter interface {
	Mark(path string) bool
}

// containerEntry is what the adapter remembers about a cursor that can act
// as a lexical parent for later events: which file and entity it resolved
// to (spec §4.5 "Container resolution").
type containerEntry struct {
	file string
	id   entityid.VoidId
	kind model.SymbolKind
}

// Adapter implements frontend.Sink, consuming one parse's event stream and
// building the working set of IndexFiles it touches. It is driven
// serially by one frontend.Engine and so needs no internal locking (spec
// §7).
type Adapter struct {
	arbiter Arbiter
	logger  *slog.Logger

	mainFile string
	files    map[string]*indexfile.IndexFile
	fileIds  *fileTable
	ns       *nsresolve.Helper

	containers map[any]containerEntry
}

// New creates an empty Adapter. Passing a nil arbiter makes every touched
// file claimable, appropriate for tests and single-worker callers. A nil
// logger discards invariant-violation warnings (spec §7 "adapter invariant
// violations are logged and skipped, never fatal").
func New(arbiter Arbiter, logger *slog.Logger) *Adapter {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Adapter{
		arbiter:    arbiter,
		logger:     logger,
		files:      make(map[string]*indexfile.IndexFile),
		fileIds:    newFileTable(),
		ns:         nsresolve.New(),
		containers: make(map[any]containerEntry),
	}
}

var _ frontend.Sink = (*Adapter)(nil)

// canonicalPath resolves a frontend-reported path to an absolute form, so
// that the same header reached via two different relative spellings
// collapses to one IndexFile (spec §3 invariant 7, §4.5 "File attribution").
func canonicalPath(path string) string {
	if abs, err := filepath.Abs(path); err == nil {
		return filepath.Clean(abs)
	}
	return filepath.Clean(path)
}

// fileFor looks up or lazily allocates the IndexFile for path, materializing
// headers touched but not yet claimed so that cross-file references still
// resolve within this parse (spec §4.5 "File attribution"); unclaimed
// files are dropped by the caller before return (spec §4.6).
func (a *Adapter) fileFor(path string) *indexfile.IndexFile {
	path = canonicalPath(path)
	if f, ok := a.files[path]; ok {
		return f
	}
	f := indexfile.New(path, "")
	a.files[path] = f
	return f
}

// StartedTranslationUnit records the parse's root file.
func (a *Adapter) StartedTranslationUnit(path string) {
	a.mainFile = canonicalPath(path)
	a.fileFor(path)
}

// EnteredMainFile materializes the root file's IndexFile.
func (a *Adapter) EnteredMainFile(path string) {
	a.fileFor(path)
}

// ImportedASTFile materializes a precompiled/imported module's file record.
func (a *Adapter) ImportedASTFile(path string) {
	a.fileFor(path)
}

// PPIncludedFile records an include edge on the including file, and
// materializes the included file (if resolved) so declarations inside it
// land somewhere (spec §3 "includes"/"dependencies").
func (a *Adapter) PPIncludedFile(path string, ev frontend.IncludeEvent) {
	f := a.fileFor(path)
	f.Includes = append(f.Includes, indexfile.Include{Line: ev.Line, ResolvedPath: ev.ResolvedPath})
	if ev.ResolvedPath != "" {
		resolved := canonicalPath(ev.ResolvedPath)
		f.Dependencies = append(f.Dependencies, resolved)
		a.fileFor(resolved)
	}
}

// Diagnostic attaches a frontend diagnostic to its owning file's
// Diagnostics — data, never an indexer error (spec §4.6).
func (a *Adapter) Diagnostic(path string, ev frontend.DiagnosticEvent) {
	f := a.fileFor(path)
	f.Diagnostics = append(f.Diagnostics, indexfile.Diagnostic{
		Range:    ev.Range,
		Severity: ev.Severity,
		Message:  ev.Message,
	})
}

// Result is the outcome of one parse: every IndexFile the working set
// claimed after arbitration, keyed by canonical path.
type Result struct {
	MainFile string
	Files    map[string]*indexfile.IndexFile
}

// Finish applies the file-consumer arbiter to the working set (spec §4.6)
// and sorts every claimed file's slices into the deterministic order spec
// §5's invariants require, then returns the claimed subset. The Adapter
// must not be reused after Finish.
func (a *Adapter) Finish() Result {
	claimed := make(map[string]*indexfile.IndexFile, len(a.files))
	for path, f := range a.files {
		if a.arbiter != nil && !a.arbiter.Mark(path) {
			a.logger.Debug("arbiter rejected file, dropping from result", "file", path)
			continue
		}
		sortFile(f)
		claimed[path] = f
	}
	return Result{MainFile: a.mainFile, Files: claimed}
}

func sortFile(f *indexfile.IndexFile) {
	for i := range f.Types {
		sortUses(f.Types[i].Declarations)
		sortUses(f.Types[i].Uses)
	}
	for i := range f.Funcs {
		sortFuncDeclarations(f.Funcs[i].Declarations)
		sortUses(f.Funcs[i].Uses)
	}
	for i := range f.Vars {
		sortUses(f.Vars[i].Declarations)
		sortUses(f.Vars[i].Uses)
	}
}

func sortUses(uses []model.Use) {
	sort.Slice(uses, func(i, j int) bool {
		return uses[i].Reference.Less(uses[j].Reference)
	})
}

func sortFuncDeclarations(decls []model.FuncDeclaration) {
	sort.Slice(decls, func(i, j int) bool {
		return decls[i].Spell.Reference.Less(decls[j].Spell.Reference)
	})
}

// containerChain walks c's Parent() chain, outermost first, into the
// nsresolve.Container slice the namespace helper needs.
func (a *Adapter) containerChain(c *frontend.Cursor) []nsresolve.Container {
	var cursors []*frontend.Cursor
	for cur := c; cur != nil; cur = cur.Parent() {
		cursors = append(cursors, cur)
	}
	chain := make([]nsresolve.Container, len(cursors))
	for i, cur := range cursors {
		chain[len(cursors)-1-i] = nsresolve.Container{
			ID:          cur.ID(),
			Name:        cur.Name(),
			IsNamespace: cur.IsNamespace(),
			IsAnon:      cur.IsAnonymous(),
			IsInline:    cur.IsInline(),
			IsVisible:   cur.IsVisible(),
		}
	}
	return chain
}
