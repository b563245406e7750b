//go:build cgo

package indexer

import "context"

// Interface is the ccls IIndexer equivalent: the subset of Indexer that
// callers needing a test double depend on, so production code can take an
// Interface and tests can substitute TestIndexer.
type Interface interface {
	Parse(ctx context.Context, req ParseRequest) ParseResult
	ParseAll(ctx context.Context, reqs []ParseRequest) []ParseResult
}

var _ Interface = (*Indexer)(nil)
var _ Interface = (*TestIndexer)(nil)

// TestIndexer is a scriptable Interface implementation for callers that want
// to exercise indexing-result handling without driving a real frontend
// parse, mirroring ccls's IIndexer test fake.
type TestIndexer struct {
	// ParseFunc, if set, backs Parse; otherwise Parse returns Results[req.ID]
	// (falling back to a zero ParseResult if absent).
	ParseFunc func(ctx context.Context, req ParseRequest) ParseResult
	Results   map[string]ParseResult

	Calls []ParseRequest
}

func (t *TestIndexer) Parse(ctx context.Context, req ParseRequest) ParseResult {
	t.Calls = append(t.Calls, req)
	if t.ParseFunc != nil {
		return t.ParseFunc(ctx, req)
	}
	return t.Results[req.ID]
}

func (t *TestIndexer) ParseAll(ctx context.Context, reqs []ParseRequest) []ParseResult {
	results := make([]ParseResult, len(reqs))
	for i, req := range reqs {
		results[i] = t.Parse(ctx, req)
	}
	return results
}
