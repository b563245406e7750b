//go:build cgo

package adapter

import (
	"ckb/internal/cxindex/entityid"
	"ckb/internal/cxindex/frontend"
	"ckb/internal/cxindex/indexfile"
	"ckb/internal/cxindex/model"
	"ckb/internal/cxindex/nsresolve"
	"ckb/internal/cxindex/usr"
)

// qualifierContainerKey gives the synthetic container standing in for an
// out-of-line definition's Qualifier a stable, collision-resistant
// nsresolve.Container.ID: two different classes named the same would
// otherwise share a bare string ID and corrupt each other's cached
// qualified-name prefix.
type qualifierContainerKey struct {
	parent any
	name   string
}

// appendUniqueId appends id to ids unless it's already present — an edge
// list (Bases/Derived/Funcs/Instances) can otherwise gain a duplicate entry
// when more than one declaration event for the same entity resolves the
// same edge (e.g. an out-of-line method's in-class prototype and its
// definition both registering it on the owning class's Funcs), violating
// spec §4.5's "dedup on insert".
func appendUniqueId[K any](ids []entityid.Id[K], id entityid.Id[K]) []entityid.Id[K] {
	for _, existing := range ids {
		if existing == id {
			return ids
		}
	}
	return append(ids, id)
}

// Declaration projects one declaration/definition event onto the owning
// IndexFile's entity arena (spec §4.5 "Entity creation"): compute the USR,
// obtain-or-create the entity via the file's IdCache, fill detailed_name
// and name offsets via the namespace helper, set kind/storage/file, and
// either fill spell+extent (a definition) or append a declaration entry.
//
// A declaration arriving after a definition for the same USR is never
// dropped: ToTypeId/ToFuncId/ToVarId are total (allocate on first sight,
// return thereafter), so it lands on the same entity and is simply
// appended to Declarations (Open Question (c)).
func (a *Adapter) Declaration(path string, ev frontend.DeclarationEvent) {
	path = canonicalPath(path)
	f := a.fileFor(path)

	chain := a.containerChain(ev.Container)
	if ev.Qualifier != "" {
		// An out-of-line definition's lexical container is its enclosing
		// namespace, not the class named by Qualifier (walk.go's
		// functionNameAndQualifier comment explains why), so the raw chain
		// alone would compute the wrong qualified name/USR for this entity
		// (one that wouldn't match the in-class prototype's). Appending a
		// container standing in for the qualifier reproduces the
		// prototype's qualified name exactly.
		var parentID any
		if len(chain) > 0 {
			parentID = chain[len(chain)-1].ID
		}
		chain = append(chain, nsresolve.Container{
			ID:   qualifierContainerKey{parent: parentID, name: ev.Qualifier},
			Name: ev.Qualifier,
		})
	}
	qualified, qualOff, shortOff := a.ns.QualifiedName(chain, ev.UnqualifiedName)
	detailed := qualified
	if ev.Type != "" {
		detailed = model.ConcatTypeAndName(ev.Type, qualified)
	}
	shift := int16(len(detailed) - len(qualified))
	header := model.NameHeader{
		DetailedName:    detailed,
		QualNameOffset:  qualOff + shift,
		ShortNameOffset: shortOff + shift,
		ShortNameSize:   int16(len(ev.UnqualifiedName)),
	}

	switch ev.EntityKind {
	case model.SymbolType:
		a.declareType(f, path, ev, header, qualified)
	case model.SymbolFunc:
		a.declareFunc(f, path, ev, header, qualified)
	case model.SymbolVar:
		a.declareVar(f, path, ev, header, qualified)
	}
}

func (a *Adapter) declareType(f *indexfile.IndexFile, path string, ev frontend.DeclarationEvent, header model.NameHeader, qualified string) {
	u := uint64(usr.Of(qualified))
	tid := f.ToTypeId(u)
	t := f.ResolveType(tid)

	for _, baseName := range ev.Bases {
		baseTid := f.ToTypeId(uint64(usr.Of(baseName)))
		t.Def.Bases = appendUniqueId(t.Def.Bases, baseTid)
		if base := f.ResolveType(baseTid); base != nil {
			base.Derived = appendUniqueId(base.Derived, tid)
		}
	}

	if ev.IsDefinition {
		t.Def.NameHeader = header
		t.Def.Kind = ev.Kind
		t.Def.File = a.fileIds.id(path)
		t.Def.Spell = &model.Use{Reference: model.Reference{
			Range: ev.Spell, Id: entityid.Erase(tid), Kind: model.SymbolType, Role: model.RoleDefinition,
		}}
		t.Def.Extent = &model.Use{Reference: model.Reference{
			Range: ev.Extent, Id: entityid.Erase(tid), Kind: model.SymbolType, Role: model.RoleDefinition,
		}}
	} else {
		t.Declarations = append(t.Declarations, model.Use{Reference: model.Reference{
			Range: ev.Spell, Id: entityid.Erase(tid), Kind: model.SymbolType, Role: model.RoleDeclaration,
		}})
	}

	if ev.Self != nil {
		a.containers[ev.Self.ID()] = containerEntry{file: path, id: entityid.Erase(tid), kind: model.SymbolType}
	}
}

func (a *Adapter) declareFunc(f *indexfile.IndexFile, path string, ev frontend.DeclarationEvent, header model.NameHeader, qualified string) {
	u := uint64(usr.Of(qualified))
	fid := f.ToFuncId(u)
	fn := f.ResolveFunc(fid)

	for _, baseName := range ev.Bases {
		baseFid := f.ToFuncId(uint64(usr.Of(baseName)))
		fn.Def.Bases = appendUniqueId(fn.Def.Bases, baseFid)
		if base := f.ResolveFunc(baseFid); base != nil {
			base.Derived = appendUniqueId(base.Derived, fid)
		}
	}

	// An out-of-line method's container is a namespace, not its class —
	// DeclaringType is resolved from the qualified-identifier scope text
	// instead, by the same by-name scheme as Bases (walk.go's
	// functionNameAndQualifier comment explains why).
	if ev.Qualifier != "" {
		declType := f.ToTypeId(uint64(usr.Of(ev.Qualifier)))
		fn.Def.DeclaringType = &declType
		if owner := f.ResolveType(declType); owner != nil {
			owner.Def.Funcs = appendUniqueId(owner.Def.Funcs, fid)
		}
	} else if ev.Container != nil && !ev.Container.IsNamespace() {
		if entry, ok := a.containers[ev.Container.ID()]; ok && entry.kind == model.SymbolType {
			declType := entityid.As[entityid.Type](entry.id)
			fn.Def.DeclaringType = &declType
			if owner := f.ResolveType(declType); owner != nil {
				owner.Def.Funcs = appendUniqueId(owner.Def.Funcs, fid)
			}
		}
	}

	if ev.IsDefinition {
		fn.Def.NameHeader = header
		fn.Def.Kind = ev.Kind
		fn.Def.Storage = ev.Storage
		fn.Def.File = a.fileIds.id(path)
		fn.Def.Spell = &model.Use{Reference: model.Reference{
			Range: ev.Spell, Id: entityid.Erase(fid), Kind: model.SymbolFunc, Role: model.RoleDefinition,
		}}
		fn.Def.Extent = &model.Use{Reference: model.Reference{
			Range: ev.Extent, Id: entityid.Erase(fid), Kind: model.SymbolFunc, Role: model.RoleDefinition,
		}}
	} else {
		fn.Declarations = append(fn.Declarations, model.FuncDeclaration{
			Spell: model.Use{Reference: model.Reference{
				Range: ev.Spell, Id: entityid.Erase(fid), Kind: model.SymbolFunc, Role: model.RoleDeclaration,
			}},
			ParamSpellings: ev.ParamSpellings,
		})
	}

	if ev.Self != nil {
		a.containers[ev.Self.ID()] = containerEntry{file: path, id: entityid.Erase(fid), kind: model.SymbolFunc}
	}
}

func (a *Adapter) declareVar(f *indexfile.IndexFile, path string, ev frontend.DeclarationEvent, header model.NameHeader, qualified string) {
	u := uint64(usr.Of(qualified))
	vid := f.ToVarId(u)
	v := f.ResolveVar(vid)

	var typeId *entityid.TypeId
	if ev.Type != "" {
		tid := f.ToTypeId(uint64(usr.Of(ev.Type)))
		typeId = &tid
		if t := f.ResolveType(tid); t != nil {
			t.Instances = appendUniqueId(t.Instances, vid)
		}
	}

	if ev.IsDefinition {
		v.Def.NameHeader = header
		v.Def.Kind = ev.Kind
		v.Def.Storage = ev.Storage
		v.Def.File = a.fileIds.id(path)
		v.Def.Type = typeId
		v.Def.Spell = &model.Use{Reference: model.Reference{
			Range: ev.Spell, Id: entityid.Erase(vid), Kind: model.SymbolVar, Role: model.RoleDefinition,
		}}
		v.Def.Extent = &model.Use{Reference: model.Reference{
			Range: ev.Extent, Id: entityid.Erase(vid), Kind: model.SymbolVar, Role: model.RoleDefinition,
		}}
	} else {
		v.Declarations = append(v.Declarations, model.Use{Reference: model.Reference{
			Range: ev.Spell, Id: entityid.Erase(vid), Kind: model.SymbolVar, Role: model.RoleDeclaration,
		}})
	}
}
