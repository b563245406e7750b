// Package model is the entity data model of the indexing core: TypeDef,
// FuncDef, VarDef and the IndexType/IndexFunc/IndexVar records that carry
// them (spec §3). Composition, not inheritance, builds the three record
// kinds out of a shared name-offset header (spec §9 "Template-like record
// reuse ... by composition").
package model

import (
	"ckb/internal/cxindex/entityid"
	"ckb/internal/cxindex/position"
)

// NameHeader is the triplet of name-related fields every entity def shares:
// a fully-qualified declaration string plus the three offsets that carve the
// qualified- and short-name substrings out of it (spec §3 invariant 3).
type NameHeader struct {
	DetailedName    string
	Hover           string
	Comments        string
	QualNameOffset  int16
	ShortNameOffset int16
	ShortNameSize   int16
}

// QualifiedName returns the qualified-name substring of DetailedName.
func (h NameHeader) QualifiedName() string {
	end := int(h.ShortNameOffset) + int(h.ShortNameSize)
	return sliceOrEmpty(h.DetailedName, int(h.QualNameOffset), end)
}

// ShortName returns the unqualified-name substring of DetailedName.
func (h NameHeader) ShortName() string {
	end := int(h.ShortNameOffset) + int(h.ShortNameSize)
	return sliceOrEmpty(h.DetailedName, int(h.ShortNameOffset), end)
}

// Name is the ccls NameMixin::Name(bool) equivalent: qualified or short.
func (h NameHeader) Name(qualified bool) string {
	if qualified {
		return h.QualifiedName()
	}
	return h.ShortName()
}

func sliceOrEmpty(s string, start, end int) string {
	if start < 0 || end > len(s) || start > end {
		return ""
	}
	return s[start:end]
}

// TypeDef is the per-type declaration/definition payload (spec §3).
type TypeDef struct {
	NameHeader

	Spell  *Use
	Extent *Use

	Bases []entityid.TypeId
	Types []entityid.TypeId
	Funcs []entityid.FuncId
	Vars  []entityid.VarId

	File    entityid.FileId
	AliasOf *entityid.TypeId

	Kind LsSymbolKind
}

// FuncDeclaration is a forward declaration of a function: the range of the
// name spelling plus the ranges of each parameter name spelling (spec §3,
// supplemented per SPEC_FULL §4.1 from ccls's IndexFunc::Declaration).
type FuncDeclaration struct {
	Spell          Use
	ParamSpellings []position.Range
}

// FuncDef is the per-function declaration/definition payload (spec §3).
type FuncDef struct {
	NameHeader

	Spell  *Use
	Extent *Use

	Bases []entityid.FuncId
	Vars  []entityid.VarId

	Callees []SymbolRef

	File          entityid.FileId
	DeclaringType *entityid.TypeId
	Kind          LsSymbolKind
	Storage       StorageClass
}

// VarDef is the per-variable declaration/definition payload (spec §3).
type VarDef struct {
	NameHeader

	Spell  *Use
	Extent *Use

	File entityid.FileId
	Type *entityid.TypeId

	Kind    LsSymbolKind
	Storage StorageClass
}

// IsLocal holds exactly when this variable's LsSymbolKind is Variable,
// contrasted with Field/Parameter/EnumMember (spec §3).
func (v VarDef) IsLocal() bool {
	return v.Kind == LsVariable
}

// IndexType is the per-TU record of one type entity.
type IndexType struct {
	Usr uint64
	Id  entityid.TypeId

	Def TypeDef

	Declarations []Use
	Derived      []entityid.TypeId
	Instances    []entityid.VarId
	Uses         []Use
}

// IndexFunc is the per-TU record of one function entity.
type IndexFunc struct {
	Usr uint64
	Id  entityid.FuncId

	Def FuncDef

	Declarations []FuncDeclaration
	Derived      []entityid.FuncId
	Uses         []Use
}

// IndexVar is the per-TU record of one variable entity.
type IndexVar struct {
	Usr uint64
	Id  entityid.VarId

	Def VarDef

	Declarations []Use
	Uses         []Use
}
