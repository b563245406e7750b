//go:build cgo

// Package tu wraps one translation unit's frontend engine across its
// create/reparse/release lifecycle (spec §4.3), the Go analogue of ccls's
// ClangTranslationUnit wrapping a clang::ASTUnit.
package tu

import (
	"context"
	"fmt"
	"sync"

	"ckb/internal/cxindex/frontend"
	"ckb/internal/cxindex/snapshot"
)

// State mirrors internal/backends/lsp/process.go's state-machine idiom for
// a resource with a create/use/release lifecycle.
type State string

const (
	// StateActive means the unit holds a live frontend engine and its most
	// recent parse succeeded.
	StateActive State = "active"
	// StateFailed means the most recent parse (initial or reparse) failed;
	// the unit still holds its engine and can be reparsed again.
	StateFailed State = "failed"
	// StateReleased means Release has been called; the unit must not be
	// used again.
	StateReleased State = "released"
)

// TranslationUnit owns one frontend.Engine across repeated reparses of the
// same root file, grounded on clang_tu.h's ClangTranslationUnit.
type TranslationUnit struct {
	Path string
	Args []string

	mu     sync.Mutex
	state  State
	engine *frontend.Engine
}

// Create builds a TranslationUnit and performs its first parse, delivering
// events to sink. It returns an error only when the first parse itself
// fails (not on a later Reparse) — mirroring ClangTranslationUnit::Create
// returning nullptr on initial-parse failure.
func Create(ctx context.Context, path string, args []string, snap snapshot.Snapshot, sink frontend.Sink) (*TranslationUnit, error) {
	t := &TranslationUnit{
		Path:   path,
		Args:   args,
		engine: frontend.NewEngine(),
		state:  StateActive,
	}
	if _, err := t.Reparse(ctx, snap, sink); err != nil {
		t.Release()
		return nil, fmt.Errorf("tu: initial parse of %s: %w", path, err)
	}
	return t, nil
}

// Reparse re-drives the frontend over the current contents of Path (from
// snap, falling back to disk), delivering the fresh event stream to sink.
// It returns 0 on success and a non-zero status otherwise, mirroring
// clang_tu.h's Reparse returning clang's int error code; the caller
// inspects the returned error for the reason.
func (t *TranslationUnit) Reparse(ctx context.Context, snap snapshot.Snapshot, sink frontend.Sink) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.state == StateReleased {
		return 1, fmt.Errorf("tu: %s: reparse after release", t.Path)
	}

	contents, err := contentsFor(t.Path, snap)
	if err != nil {
		t.state = StateFailed
		return 1, fmt.Errorf("tu: %s: %w", t.Path, err)
	}

	req := frontend.Request{Path: t.Path, Contents: contents, Args: t.Args}
	if err := t.engine.Parse(ctx, req, sink); err != nil {
		t.state = StateFailed
		return 1, fmt.Errorf("tu: %s: frontend parse: %w", t.Path, err)
	}

	t.state = StateActive
	return 0, nil
}

// State reports the unit's current lifecycle state.
func (t *TranslationUnit) State() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// Release frees the unit's frontend engine. It is safe to call more than
// once and must be called on every exit path that obtained a
// TranslationUnit, matching clang_tu.h's RAII unique_ptr<ASTUnit> ownership.
func (t *TranslationUnit) Release() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.engine = nil
	t.state = StateReleased
}
