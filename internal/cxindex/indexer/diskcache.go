//go:build cgo

package indexer

import (
	"context"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"strings"

	"ckb/internal/cxindex/indexfile"
	"ckb/internal/storage"
)

// DiskCache adapts internal/storage's view-cache tier into the indexer's
// CacheLookup/CacheStore pair, mirroring ccls's on-disk didOpen cache (spec
// §4 domain-stack supplement 5). A request's main file path is the cache
// key; the request's Args plus the snapshot overlay (if any) for that path
// are hashed into the cache's stateID, so an argument change or an unsaved
// edit is a guaranteed miss rather than a stale hit.
type DiskCache struct {
	cache      *storage.Cache
	ttlSeconds int
}

// NewDiskCache wraps db's view-cache tier. ttlSeconds is the entry lifetime;
// callers typically pass cfg.Cache.ViewTtlSeconds.
func NewDiskCache(db *storage.DB, ttlSeconds int) *DiskCache {
	return &DiskCache{cache: storage.NewCache(db), ttlSeconds: ttlSeconds}
}

// Lookup implements CacheLookup.
func (d *DiskCache) Lookup(ctx context.Context, req ParseRequest) (*indexfile.IndexFile, bool) {
	stateID := requestStateID(req)
	raw, ok, err := d.cache.GetViewCache(req.Path, stateID)
	if err != nil || !ok {
		return nil, false
	}
	data, err := base64.StdEncoding.DecodeString(raw)
	if err != nil {
		return nil, false
	}
	f, err := indexfile.UnmarshalCompact(data)
	if err != nil {
		return nil, false
	}
	return f, true
}

// Store implements CacheStore. It stores every file the parse touched
// (the main file and anything it pulled in via #include), each keyed by its
// own path but tagged with the main file's request's stateID, so a later
// CacheLookup against an unchanged main file serves every file in one
// round trip (approximating pipeline's "reuse this TU's entire index").
func (d *DiskCache) Store(ctx context.Context, req ParseRequest, files map[string]*indexfile.IndexFile) {
	stateID := requestStateID(req)
	for path, f := range files {
		data, err := f.MarshalCompact()
		if err != nil {
			continue
		}
		encoded := base64.StdEncoding.EncodeToString(data)
		_ = d.cache.SetViewCache(path, encoded, stateID, d.ttlSeconds)
	}
}

// requestStateID hashes what a cache hit must match to stay valid: the
// clang-style arguments and (if present) the unsaved-buffer overlay for the
// request's own path. A request with no overlay hashes against the empty
// string, so a hit only survives until the first unsaved edit or an
// argument change.
func requestStateID(req ParseRequest) string {
	h := sha256.New()
	h.Write([]byte(strings.Join(req.Args, "\x00")))
	if contents, ok := req.Snapshot.Lookup(req.Path); ok {
		h.Write(contents)
	}
	return hex.EncodeToString(h.Sum(nil))
}
