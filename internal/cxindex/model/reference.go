package model

import (
	"ckb/internal/cxindex/entityid"
	"ckb/internal/cxindex/position"
)

// Reference is the common shape of a source occurrence (spec §3).
type Reference struct {
	Range position.Range
	Id    entityid.VoidId
	Kind  SymbolKind
	Role  Role
}

// Valid reports whether r has a usable range.
func (r Reference) Valid() bool {
	return r.Range.Valid()
}

// tuple gives Reference a total order matching ccls's ToTuple() comparison:
// (range, id, kind, role).
type tuple struct {
	rangeStart position.Position
	rangeEnd   position.Position
	id         uint32
	kind       SymbolKind
	role       Role
}

func (r Reference) tuple() tuple {
	return tuple{
		rangeStart: r.Range.Start,
		rangeEnd:   r.Range.End,
		id:         r.Id.Raw(),
		kind:       r.Kind,
		role:       r.Role,
	}
}

// Less orders references the way ccls's Reference::operator< does, by the
// full (range, id, kind, role) tuple. Used to produce the deterministic,
// sorted-by-range storage order spec §5 requires.
func (r Reference) Less(o Reference) bool {
	a, b := r.tuple(), o.tuple()
	if a.rangeStart != b.rangeStart {
		return a.rangeStart.Less(b.rangeStart)
	}
	if a.rangeEnd != b.rangeEnd {
		return a.rangeEnd.Less(b.rangeEnd)
	}
	if a.id != b.id {
		return a.id < b.id
	}
	if a.kind != b.kind {
		return a.kind < b.kind
	}
	return a.role < b.role
}

// Equal reports whether r and o denote the same occurrence, used for
// dedup-on-insert (spec §4.5 tie-breaks).
func (r Reference) Equal(o Reference) bool {
	return r.tuple() == o.tuple()
}

// SymbolRef is a Reference whose Id/Kind name the *referenced* entity. Used
// for callee edges and any occurrence where what matters is the symbol
// sitting at the range.
type SymbolRef struct {
	Reference
}

// Use is a Reference whose Id/Kind name the *lexical parent* (the enclosing
// function or type). Used whenever we need "where does this occurrence
// live". Outside an IndexFile (i.e. in the query layer) a Use additionally
// carries the owning file; inside an IndexFile the file is implicit, so
// File is the zero value there.
type Use struct {
	Reference
	File entityid.FileId
}

// SymbolIdx is a kind-erased identity, used as a map key where both id and
// kind must match.
type SymbolIdx struct {
	Id   entityid.VoidId
	Kind SymbolKind
}
