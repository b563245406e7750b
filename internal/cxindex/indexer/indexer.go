//go:build cgo

// Package indexer is the top-level façade of the C/C++ indexing core (spec
// §4.7): it drives one or more translation units through the crash-recovery
// shim, the frontend, and the indexing callback adapter, and hands back the
// IndexFiles the parse produced. Grounded on indexer.h's Parse/ParseWithTu/
// IIndexer/ClangIndexer; its worker pool is grounded on
// internal/jobs/runner.go's worker-count/queue-size config idiom,
// generalized from a persistent queue to a one-shot fan-out since a parse
// batch has a known size up front.
package indexer

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"ckb/internal/cxindex/adapter"
	"ckb/internal/cxindex/crashshim"
	"ckb/internal/cxindex/fileconsumer"
	"ckb/internal/cxindex/indexfile"
	"ckb/internal/cxindex/snapshot"
	"ckb/internal/cxindex/tu"
)

// CacheLookup mirrors ccls's textDocument/didOpen cache-hit path
// (pipeline::LoadIndexedContent): given a request, return a previously
// persisted IndexFile for its main file, if one exists. The façade treats a
// hit as authoritative and skips parsing entirely, so callers are
// responsible for whatever freshness check (mtime, content hash) decides
// whether a hit is still valid before returning true.
type CacheLookup func(ctx context.Context, req ParseRequest) (*indexfile.IndexFile, bool)

// CacheStore persists a successful parse's IndexFiles, keyed by their own
// paths, for a future CacheLookup to serve. req is the request that produced
// files, so an implementation can derive the same freshness key CacheLookup
// will later check. Called once per Parse/Open/ParseWithTu that completes
// without crashing or erroring; never called for a cache hit (nothing new
// to store).
type CacheStore func(ctx context.Context, req ParseRequest, files map[string]*indexfile.IndexFile)

// ParseRequest is one translation unit to index. ID is generated if empty.
type ParseRequest struct {
	ID       string
	Path     string
	Args     []string
	Snapshot snapshot.Snapshot
}

// ParseResult is the outcome of indexing one ParseRequest. Err is set (and
// Files nil) when the parse failed or crashed; a crash is distinguished from
// an ordinary parse error by Crashed.
type ParseResult struct {
	ID       string
	MainFile string
	Files    map[string]*indexfile.IndexFile
	Crashed  bool
	Err      error
}

// Config controls the façade's worker pool, mirroring
// internal/jobs/runner.go's RunnerConfig/DefaultRunnerConfig shape.
type Config struct {
	WorkerCount int
	Logger      *slog.Logger
	// Arbiter, if non-nil, is shared across every Parse/ParseAll call made
	// through this Indexer, so concurrent workers racing on the same header
	// agree on which one keeps it (spec §4.6). Nil means every call claims
	// every file it touches, appropriate for single-file callers.
	Arbiter *fileconsumer.Arbiter
	// Cache and Store implement the didOpen cache-hit path (SPEC_FULL §4
	// domain-stack supplement 5); both nil disables caching entirely, which
	// is the zero-value behavior (every Parse re-indexes from scratch).
	Cache CacheLookup
	Store CacheStore
}

// DefaultConfig returns a Config sized to the host's GOMAXPROCS, matching
// spec §5's "one worker goroutine per indexer.Engine instance from a pool
// sized by runtime.GOMAXPROCS".
func DefaultConfig() Config {
	return Config{WorkerCount: runtime.GOMAXPROCS(0)}
}

// Indexer is the concrete façade (ccls's ClangIndexer), driving a bounded
// pool of concurrent parses.
type Indexer struct {
	cfg Config
}

// New creates an Indexer. A zero WorkerCount is raised to 1.
func New(cfg Config) *Indexer {
	if cfg.WorkerCount <= 0 {
		cfg.WorkerCount = 1
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Indexer{cfg: cfg}
}

// Parse indexes one translation unit from scratch: a fresh frontend.Engine,
// a fresh crash-shim boundary, a fresh adapter. It is safe to call
// concurrently from multiple goroutines (no shared mutable state besides
// the optional Arbiter, itself internally synchronized).
func (ix *Indexer) Parse(ctx context.Context, req ParseRequest) ParseResult {
	if req.ID == "" {
		req.ID = uuid.NewString()
	}

	if ix.cfg.Cache != nil {
		if f, ok := ix.cfg.Cache(ctx, req); ok {
			return ParseResult{ID: req.ID, MainFile: req.Path, Files: map[string]*indexfile.IndexFile{req.Path: f}}
		}
	}

	a := adapter.New(ix.cfg.Arbiter, ix.cfg.Logger)

	var created *tu.TranslationUnit
	completed, err := crashshim.RunSafely(func() error {
		t, cerr := tu.Create(ctx, req.Path, req.Args, req.Snapshot, a)
		created = t
		return cerr
	})
	if created != nil {
		defer created.Release()
	}
	if !completed {
		return ParseResult{ID: req.ID, Crashed: true, Err: err}
	}
	if err != nil {
		return ParseResult{ID: req.ID, Err: fmt.Errorf("indexer: parse %s: %w", req.Path, err)}
	}

	res := a.Finish()
	if ix.cfg.Store != nil {
		ix.cfg.Store(ctx, req, res.Files)
	}
	return ParseResult{ID: req.ID, MainFile: res.MainFile, Files: res.Files}
}

// Open creates a TranslationUnit and performs its first parse without
// releasing it afterward, for callers that intend to drive further
// ParseWithTu reparses against the same unit (e.g. an LSP did-change
// sequence). The caller owns the returned unit's lifecycle and must call
// its Release once done; contrast with Parse, which is the one-shot
// create-index-release convenience.
func (ix *Indexer) Open(ctx context.Context, req ParseRequest) (*tu.TranslationUnit, ParseResult) {
	if req.ID == "" {
		req.ID = uuid.NewString()
	}

	a := adapter.New(ix.cfg.Arbiter, ix.cfg.Logger)

	var created *tu.TranslationUnit
	completed, err := crashshim.RunSafely(func() error {
		t, cerr := tu.Create(ctx, req.Path, req.Args, req.Snapshot, a)
		created = t
		return cerr
	})
	if !completed {
		return created, ParseResult{ID: req.ID, Crashed: true, Err: err}
	}
	if err != nil {
		return created, ParseResult{ID: req.ID, Err: fmt.Errorf("indexer: open %s: %w", req.Path, err)}
	}

	res := a.Finish()
	return created, ParseResult{ID: req.ID, MainFile: res.MainFile, Files: res.Files}
}

// ParseWithTu reparses an already-open TranslationUnit (e.g. after an
// unsaved-buffer edit) instead of reopening the frontend from scratch,
// mirroring ClangIndex::ReparseFile's reuse of an existing ASTUnit.
func (ix *Indexer) ParseWithTu(ctx context.Context, existing *tu.TranslationUnit, req ParseRequest) ParseResult {
	if req.ID == "" {
		req.ID = uuid.NewString()
	}

	a := adapter.New(ix.cfg.Arbiter, ix.cfg.Logger)

	completed, err := crashshim.RunSafely(func() error {
		_, rerr := existing.Reparse(ctx, req.Snapshot, a)
		return rerr
	})
	if !completed {
		return ParseResult{ID: req.ID, Crashed: true, Err: err}
	}
	if err != nil {
		return ParseResult{ID: req.ID, Err: fmt.Errorf("indexer: reparse %s: %w", req.Path, err)}
	}

	res := a.Finish()
	return ParseResult{ID: req.ID, MainFile: res.MainFile, Files: res.Files}
}

// ParseAll fans requests out across the worker pool, one goroutine borrowed
// per in-flight parse up to Config.WorkerCount at a time (spec §5). Results
// are returned in the same order as reqs regardless of completion order.
func (ix *Indexer) ParseAll(ctx context.Context, reqs []ParseRequest) []ParseResult {
	results := make([]ParseResult, len(reqs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(ix.cfg.WorkerCount)

	for i, req := range reqs {
		i, req := i, req
		g.Go(func() error {
			results[i] = ix.Parse(gctx, req)
			return nil
		})
	}
	_ = g.Wait()

	return results
}
