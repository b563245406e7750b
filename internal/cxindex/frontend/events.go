//go:build cgo

package frontend

import (
	"ckb/internal/cxindex/model"
	"ckb/internal/cxindex/position"
)

// IncludeEvent reports a preprocessor #include directive (spec §4.5
// "ppIncludedFile").
type IncludeEvent struct {
	Line int
	// Spelling is the raw text between the quotes/angle-brackets.
	Spelling string
	// ResolvedPath is the path the frontend resolved the spelling to, or ""
	// if it could not be resolved (e.g. a missing system header).
	ResolvedPath string
}

// DeclarationEvent reports a declaration or definition (spec §4.5
// "declaration"). Container, when non-nil, is the innermost lexical
// enclosing namespace/class/function; the adapter walks Container.Parent()
// to build the full chain it hands to nsresolve.
type DeclarationEvent struct {
	Container *Cursor

	// Self identifies this declaration's own cursor, for entities that can
	// themselves act as a lexical container later in the traversal (a
	// class for its members, a function for its body's references). Nil
	// for entities that never contain further declarations (plain
	// variables and fields).
	Self *Cursor

	EntityKind   model.SymbolKind
	Kind         model.LsSymbolKind
	Storage      model.StorageClass
	IsDefinition bool

	// UnqualifiedName is the bare identifier being declared; Type is its
	// declared type text (empty for namespaces). DeclText is the full
	// declarator text the adapter hashes into a USR via usr.Of once it has
	// combined it with the container chain's qualified prefix.
	UnqualifiedName string
	// Qualifier is the scope text of a qualified declarator ("C" in the
	// definition "void C::m() {}"), empty otherwise. The adapter uses it
	// to resolve an out-of-line method's DeclaringType by name, the same
	// way it resolves Bases (spec §4.5 "declaring_type").
	Qualifier string
	Type      string
	DeclText  string

	Spell          position.Range
	Extent         position.Range
	ParamSpellings []position.Range

	// Bases lists, for a type, its direct base classes, and for a method,
	// the methods it overrides — both as declarator text the adapter
	// resolves the same way it resolves this declaration.
	Bases []string
}

// ReferenceEvent reports a use of a previously (or later) declared entity
// (spec §4.5 "entityReference").
type ReferenceEvent struct {
	Container *Cursor

	TargetKind model.SymbolKind
	// TargetText identifies the referenced entity the same way DeclText
	// does for a declaration, so the adapter can resolve it through the
	// same USR computation.
	TargetText string

	Range  position.Range
	Role   model.Role
	IsCall bool
}

// DiagnosticEvent reports a frontend diagnostic (spec §4.5 "diagnostic");
// these are data attached to the owning IndexFile, never indexer errors.
type DiagnosticEvent struct {
	Range    position.Range
	Severity int
	Message  string
}
