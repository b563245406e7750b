package indexfile

import "ckb/internal/cxindex/entityid"

// IdCache is the bijection USR <-> Id local to one IndexFile (spec §3).
type IdCache struct {
	usrToType map[uint64]entityid.TypeId
	usrToFunc map[uint64]entityid.FuncId
	usrToVar  map[uint64]entityid.VarId

	typeToUsr map[entityid.TypeId]uint64
	funcToUsr map[entityid.FuncId]uint64
	varToUsr  map[entityid.VarId]uint64
}

func newIdCache() *IdCache {
	return &IdCache{
		usrToType: make(map[uint64]entityid.TypeId),
		usrToFunc: make(map[uint64]entityid.FuncId),
		usrToVar:  make(map[uint64]entityid.VarId),
		typeToUsr: make(map[entityid.TypeId]uint64),
		funcToUsr: make(map[entityid.FuncId]uint64),
		varToUsr:  make(map[entityid.VarId]uint64),
	}
}

// LookupType returns the Id assigned to usr, if any.
func (c *IdCache) LookupType(usr uint64) (entityid.TypeId, bool) {
	id, ok := c.usrToType[usr]
	return id, ok
}

// LookupFunc returns the Id assigned to usr, if any.
func (c *IdCache) LookupFunc(usr uint64) (entityid.FuncId, bool) {
	id, ok := c.usrToFunc[usr]
	return id, ok
}

// LookupVar returns the Id assigned to usr, if any.
func (c *IdCache) LookupVar(usr uint64) (entityid.VarId, bool) {
	id, ok := c.usrToVar[usr]
	return id, ok
}

// UsrOfType returns the USR that id was interned from, if any.
func (c *IdCache) UsrOfType(id entityid.TypeId) (uint64, bool) {
	usr, ok := c.typeToUsr[id]
	return usr, ok
}

// UsrOfFunc returns the USR that id was interned from, if any.
func (c *IdCache) UsrOfFunc(id entityid.FuncId) (uint64, bool) {
	usr, ok := c.funcToUsr[id]
	return usr, ok
}

// UsrOfVar returns the USR that id was interned from, if any.
func (c *IdCache) UsrOfVar(id entityid.VarId) (uint64, bool) {
	usr, ok := c.varToUsr[id]
	return usr, ok
}

func (c *IdCache) putType(usr uint64, id entityid.TypeId) {
	c.usrToType[usr] = id
	c.typeToUsr[id] = usr
}

func (c *IdCache) putFunc(usr uint64, id entityid.FuncId) {
	c.usrToFunc[usr] = id
	c.funcToUsr[id] = usr
}

func (c *IdCache) putVar(usr uint64, id entityid.VarId) {
	c.usrToVar[usr] = id
	c.varToUsr[id] = usr
}
