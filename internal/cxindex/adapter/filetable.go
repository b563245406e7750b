//go:build cgo

package adapter

import "ckb/internal/cxindex/entityid"

// fileTable assigns each canonical path touched by one parse a stable
// FileId, shared across every IndexFile in the working set — unlike
// Type/Func/Var ids, a File id has no single owning IndexFile to be local
// to (spec §3 lists File as a SymbolKind, but the per-file IdCache only
// covers Type/Func/Var; file identity is a parse-wide concept instead).
type fileTable struct {
	ids   map[string]entityid.FileId
	paths []string
}

func newFileTable() *fileTable {
	return &fileTable{ids: make(map[string]entityid.FileId)}
}

// id is total: the first time it sees path it allocates the next sequential
// FileId; later calls return the same one.
func (t *fileTable) id(path string) entityid.FileId {
	if id, ok := t.ids[path]; ok {
		return id
	}
	id := entityid.New[entityid.File](uint32(len(t.paths)))
	t.ids[path] = id
	t.paths = append(t.paths, path)
	return id
}

// Path resolves a FileId back to the path it was allocated for, the
// reverse of id; used by callers that want to render a Use's File field.
func (t *fileTable) path(id entityid.FileId) (string, bool) {
	if !id.Valid() || int(id.Raw()) >= len(t.paths) {
		return "", false
	}
	return t.paths[id.Raw()], true
}
