//go:build cgo

// Package frontend is the concrete compiler-frontend collaborator spec.md §6
// names but declares external: it drives tree-sitter's C/C++ grammar over a
// translation unit and emits the indexing-callback event stream
// (startedTranslationUnit, enteredMainFile, ppIncludedFile, importedASTFile,
// declaration, entityReference, diagnostic) the adapter consumes (spec
// §4.5). Events are delivered to a Sink synchronously, in traversal order,
// on the calling goroutine — the adapter therefore needs no internal
// locking (spec §7).
package frontend

import (
	"context"
	"sync"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/cpp"
)

var initOnce sync.Once

// Init performs process-wide one-time frontend setup (spec §4.3
// "IndexInit"). The tree-sitter C/C++ grammar needs no global
// initialization beyond what NewEngine already does per engine, but the
// hook exists so callers have one place to pay any future one-time cost,
// matching ccls's IndexInit shape.
func Init() {
	initOnce.Do(func() {})
}

// Request is one parse request: a root file, its contents (already
// resolved against the caller's snapshot of unsaved buffers), and the
// compiler argument vector.
type Request struct {
	Path     string
	Contents []byte
	Args     []string
}

// Sink receives the indexing-callback event stream. Implementations (the
// adapter, in production; a recording fake, in tests) must tolerate being
// called many times per parse and must not block — the engine delivers
// events serially on the parsing goroutine.
type Sink interface {
	StartedTranslationUnit(path string)
	EnteredMainFile(path string)
	PPIncludedFile(path string, ev IncludeEvent)
	ImportedASTFile(path string)
	Declaration(path string, ev DeclarationEvent)
	EntityReference(path string, ev ReferenceEvent)
	Diagnostic(path string, ev DiagnosticEvent)
}

// Engine is one pooled tree-sitter parser, the analogue of ccls's
// ClangIndex: construction is cheap here (no global lock needed, unlike
// libclang), but the indexer still pools one per worker so a single
// *sitter.Parser is never driven from two goroutines at once (spec §7).
type Engine struct {
	parser *sitter.Parser
}

// NewEngine creates an Engine configured for C/C++ source, grounded on
// internal/complexity/treesitter.go's Parser wrapping one sitter.Parser per
// language.
func NewEngine() *Engine {
	parser := sitter.NewParser()
	parser.SetLanguage(cpp.GetLanguage())
	return &Engine{parser: parser}
}

// Parse drives the frontend over req and reports every event to sink. It
// never returns a frontend-internal error for malformed source: unparsable
// constructs surface as Diagnostic events, matching spec §4.6's "diagnostic
// events are data, not errors" policy. The returned error is reserved for
// context cancellation and tree-sitter's own ParseCtx failure.
func (e *Engine) Parse(ctx context.Context, req Request, sink Sink) error {
	tree, err := e.parser.ParseCtx(ctx, nil, req.Contents)
	if err != nil {
		return err
	}

	sink.StartedTranslationUnit(req.Path)
	sink.EnteredMainFile(req.Path)

	w := &walker{
		path:   req.Path,
		source: req.Contents,
		sink:   sink,
	}
	w.walk(tree.RootNode(), nil)
	return nil
}
