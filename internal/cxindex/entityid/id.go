// Package entityid implements the phantom-tagged compact handle type used to
// reference entities within one IndexFile (spec §3 "Id<K>", §9 design note
// "Phantom-tagged integer handles").
package entityid

// File, Type, Func, Var, Void are phantom marker types used purely as type
// parameters to Id; none of them is ever instantiated. They carry no runtime
// footprint — Id[K] always has the same in-memory layout as a bare uint32
// regardless of which marker K is.
type (
	File struct{}
	Type struct{}
	Func struct{}
	Var  struct{}
	Void struct{}
)

// raw is the sentinel denoting "invalid" for every Id, regardless of kind.
const raw uint32 = ^uint32(0)

// Id is a 32-bit handle tagged at compile time with a phantom kind K. Ids are
// meaningful only within one IndexFile.
type Id[K any] struct {
	v uint32
}

// New constructs an Id from a raw value. Callers normally get Ids back from
// an IdCache rather than constructing them directly.
func New[K any](v uint32) Id[K] {
	return Id[K]{v: v}
}

// Invalid returns the sentinel "no such entity" Id for kind K.
func Invalid[K any]() Id[K] {
	return Id[K]{v: raw}
}

// Valid reports whether id refers to a real slot (is not the sentinel).
func (id Id[K]) Valid() bool {
	return id.v != raw
}

// Raw returns the underlying integer value.
func (id Id[K]) Raw() uint32 {
	return id.v
}

// Equal compares two Ids of the same kind by raw value.
func (id Id[K]) Equal(o Id[K]) bool {
	return id.v == o.v
}

// Less gives Id[K] a total order derived from the raw value, used for
// deterministic sorting.
func (id Id[K]) Less(o Id[K]) bool {
	return id.v < o.v
}

// Hash returns a hash suitable for map keys; Id[K] is already comparable so
// this exists only for callers that want an explicit integer hash (e.g. to
// build a custom open-addressing table).
func (id Id[K]) Hash() uint32 {
	return id.v
}

// VoidId is the kind-erased handle used by Reference/SymbolRef/Use to store
// "the id of some entity whose kind is carried alongside, out of band".
type VoidId = Id[Void]

// Erase performs the implicit widening Id[K] -> Id[Void] that spec §3/§9
// describes as free (allowed without an explicit cast, since nothing about K
// is needed once a separate discriminant is carried alongside it).
func Erase[K any](id Id[K]) VoidId {
	return VoidId{v: id.v}
}

// As performs the explicit, unchecked narrowing Id[Void] -> Id[K]. The
// caller is responsible for knowing (typically via an accompanying
// SymbolKind discriminant) that the erased id really does name a K.
func As[K any](id VoidId) Id[K] {
	return Id[K]{v: id.v}
}

// FileId, TypeId, FuncId, VarId are the concrete Id aliases used throughout
// the indexing core, matching spec §3's IndexFileId/IndexTypeId/
// IndexFuncId/IndexVarId.
type (
	FileId = Id[File]
	TypeId = Id[Type]
	FuncId = Id[Func]
	VarId  = Id[Var]
)
