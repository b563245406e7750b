package model

import "strings"

// ConcatTypeAndName builds a C-style declarator string from a type and a
// name, e.g. ("int", "x") -> "int x", ("int *", "x") -> "int *x",
// ("int", "x[3]") -> "int x[3]". Ported from ccls's ConcatTypeAndName, used
// when synthesizing a VarDef's DetailedName from the frontend's separate
// type-spelling and name-spelling strings.
func ConcatTypeAndName(typ, name string) string {
	if name == "" {
		return typ
	}
	if typ == "" {
		return name
	}
	if strings.HasSuffix(typ, "*") || strings.HasSuffix(typ, "&") {
		return typ + name
	}
	return typ + " " + name
}
