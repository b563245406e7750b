//go:build cgo

package adapter

import (
	"ckb/internal/cxindex/entityid"
	"ckb/internal/cxindex/frontend"
	"ckb/internal/cxindex/model"
	"ckb/internal/cxindex/usr"
)

// EntityReference projects one reference event onto the target entity's
// Uses list (spec §4.5 "Reference events"): the Use's Id/Kind name the
// lexical parent (the enclosing function, resolved via the container-cursor
// registry populated by Declaration), range is the referenced token's
// range, and role is the event's role bitset. Call references additionally
// append a SymbolRef to the parent function's callees.
//
// A reference whose lexical parent is not a registered container (an
// invariant violation per spec §4.5/§7 — an unknown cursor kind or a
// missing container) is logged and skipped rather than aborting the parse.
func (a *Adapter) EntityReference(path string, ev frontend.ReferenceEvent) {
	path = canonicalPath(path)
	f := a.fileFor(path)

	var parent containerEntry
	if ev.Container != nil {
		entry, ok := a.containers[ev.Container.ID()]
		if !ok {
			a.logger.Warn("entity reference has an unregistered lexical parent, skipping",
				"file", path, "target", ev.TargetText)
			return
		}
		parent = entry
	}

	targetUsr := uint64(usr.Of(ev.TargetText))
	use := model.Use{Reference: model.Reference{
		Range: ev.Range,
		Id:    parent.id,
		Kind:  parent.kind,
		Role:  ev.Role,
	}}

	switch ev.TargetKind {
	case model.SymbolFunc:
		tid := f.ToFuncId(targetUsr)
		target := f.ResolveFunc(tid)
		target.Uses = append(target.Uses, use)
		if ev.IsCall && parent.kind == model.SymbolFunc {
			if caller := f.ResolveFunc(entityid.As[entityid.Func](parent.id)); caller != nil {
				caller.Def.Callees = append(caller.Def.Callees, model.SymbolRef{Reference: model.Reference{
					Range: ev.Range, Id: entityid.Erase(tid), Kind: model.SymbolFunc, Role: ev.Role,
				}})
			}
		}
	case model.SymbolType:
		tid := f.ToTypeId(targetUsr)
		target := f.ResolveType(tid)
		target.Uses = append(target.Uses, use)
	case model.SymbolVar:
		tid := f.ToVarId(targetUsr)
		target := f.ResolveVar(tid)
		target.Uses = append(target.Uses, use)
	}
}
