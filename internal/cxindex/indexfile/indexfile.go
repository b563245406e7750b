// Package indexfile implements the per-file entity arena and USR<->Id
// bijection that anchors one parse's output (spec §3 "IndexFile",
// "IdCache").
package indexfile

import (
	"ckb/internal/cxindex/entityid"
	"ckb/internal/cxindex/model"
	"ckb/internal/cxindex/position"
)

// KMajorVersion is bumped on breaking changes to either serialization
// format. KMinorVersion is bumped only for compact-format-only changes
// (spec §3 "Serialization has a major version (breaking) and a minor
// version (compact format only)").
const (
	KMajorVersion = 1
	KMinorVersion = 0
)

// Include is one #include directive observed while indexing the file that
// owns it (spec §3 "includes").
type Include struct {
	Line         int
	ResolvedPath string
}

// Diagnostic is a frontend-reported diagnostic attached to a file. Never
// serialized (spec §3, §6, §7 "Diagnostics ... are data, not errors").
type Diagnostic struct {
	Range    position.Range
	Severity int
	Message  string
}

// IndexFile is the per-source-file container described by spec §3.
type IndexFile struct {
	idCache *IdCache

	Path                  string
	Args                  []string
	LastModificationTime  int64
	Language              string
	ImportFile            string
	SkippedByPreprocessor []position.Range
	Includes              []Include
	Dependencies          []string

	Types []model.IndexType
	Funcs []model.IndexFunc
	Vars  []model.IndexVar

	// Non-serialized.
	Diagnostics  []Diagnostic `json:"-"`
	FileContents string       `json:"-"`
}

// New constructs an empty IndexFile for path, whose contents at index time
// were contents (used only to compute LastModificationTime-adjacent data by
// callers; stored verbatim as FileContents).
func New(path, contents string) *IndexFile {
	return &IndexFile{
		idCache:      newIdCache(),
		Path:         path,
		FileContents: contents,
	}
}

// IdCache exposes the file's USR<->Id bijection.
func (f *IndexFile) IdCache() *IdCache {
	return f.idCache
}

// ToTypeId is total: on first sight of usr it allocates a fresh IndexType
// with a default-initialized Def, appends it, populates both cache
// directions, and returns the new id. On subsequent sightings it returns the
// existing id (spec §4.1).
func (f *IndexFile) ToTypeId(usr uint64) entityid.TypeId {
	if id, ok := f.idCache.LookupType(usr); ok {
		return id
	}
	id := entityid.New[entityid.Type](uint32(len(f.Types)))
	f.Types = append(f.Types, model.IndexType{Usr: usr, Id: id})
	f.idCache.putType(usr, id)
	return id
}

// ToFuncId is the IndexFunc analogue of ToTypeId.
func (f *IndexFile) ToFuncId(usr uint64) entityid.FuncId {
	if id, ok := f.idCache.LookupFunc(usr); ok {
		return id
	}
	id := entityid.New[entityid.Func](uint32(len(f.Funcs)))
	f.Funcs = append(f.Funcs, model.IndexFunc{Usr: usr, Id: id})
	f.idCache.putFunc(usr, id)
	return id
}

// ToVarId is the IndexVar analogue of ToTypeId.
func (f *IndexFile) ToVarId(usr uint64) entityid.VarId {
	if id, ok := f.idCache.LookupVar(usr); ok {
		return id
	}
	id := entityid.New[entityid.Var](uint32(len(f.Vars)))
	f.Vars = append(f.Vars, model.IndexVar{Usr: usr, Id: id})
	f.idCache.putVar(usr, id)
	return id
}

// ResolveType returns a pointer into Types for id, or nil if id is invalid
// or out of range.
func (f *IndexFile) ResolveType(id entityid.TypeId) *model.IndexType {
	if !id.Valid() || int(id.Raw()) >= len(f.Types) {
		return nil
	}
	return &f.Types[id.Raw()]
}

// ResolveFunc returns a pointer into Funcs for id, or nil if id is invalid
// or out of range.
func (f *IndexFile) ResolveFunc(id entityid.FuncId) *model.IndexFunc {
	if !id.Valid() || int(id.Raw()) >= len(f.Funcs) {
		return nil
	}
	return &f.Funcs[id.Raw()]
}

// ResolveVar returns a pointer into Vars for id, or nil if id is invalid or
// out of range.
func (f *IndexFile) ResolveVar(id entityid.VarId) *model.IndexVar {
	if !id.Valid() || int(id.Raw()) >= len(f.Vars) {
		return nil
	}
	return &f.Vars[id.Raw()]
}
