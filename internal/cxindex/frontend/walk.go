//go:build cgo

package frontend

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"ckb/internal/cxindex/model"
	"ckb/internal/cxindex/position"
)

// walker carries the per-parse state the recursive descent needs: which
// file is being walked and where events get delivered. It holds no mutable
// state touched across goroutines, matching spec §7's no-internal-locking
// requirement.
type walker struct {
	path   string
	source []byte
	sink   Sink
}

// walk is a generalization of internal/symbols/treesitter.go's
// findNodes-plus-container-tracking pattern: instead of collecting a flat
// symbol list, it emits the adapter's event stream directly, threading a
// Cursor chain through recursive calls in place of that file's single
// "container string" parameter.
func (w *walker) walk(node *sitter.Node, container *Cursor) {
	if node == nil {
		return
	}

	switch node.Type() {
	case "ERROR":
		w.sink.Diagnostic(w.path, DiagnosticEvent{
			Range:    rangeOf(node),
			Severity: 1,
			Message:  "syntax error",
		})
		w.walkChildren(node, container)
		return

	case "preproc_include":
		w.emitInclude(node)
		return

	case "namespace_definition":
		ns := &Cursor{node: node, source: w.source, parent: container}
		body := node.ChildByFieldName("body")
		w.walkChildren(body, ns)
		return

	case "class_specifier", "struct_specifier", "union_specifier":
		cls := &Cursor{node: node, source: w.source, parent: container}
		w.emitTypeDeclaration(node, container, cls)
		body := node.ChildByFieldName("body")
		w.walkChildren(body, cls)
		return

	case "function_definition":
		fn := &Cursor{node: node, source: w.source, parent: container}
		w.emitFunctionDeclaration(node, container, fn, true)
		body := node.ChildByFieldName("body")
		w.walkCallees(body, fn)
		return

	case "field_declaration", "declaration":
		w.emitFieldOrDeclaration(node, container)
		return

	case "base_class_clause":
		// Already consumed by emitTypeDeclaration's collectBaseNames; skip
		// to avoid double-reporting its identifiers as plain references.
		return
	}

	w.walkChildren(node, container)
}

func (w *walker) walkChildren(node *sitter.Node, container *Cursor) {
	if node == nil {
		return
	}
	for i := 0; i < int(node.ChildCount()); i++ {
		w.walk(node.Child(i), container)
	}
}

func (w *walker) emitInclude(node *sitter.Node) {
	pathNode := node.ChildByFieldName("path")
	if pathNode == nil {
		return
	}
	raw := textOf(pathNode, w.source)
	spelling := strings.Trim(raw, `"<>`)

	var resolved string
	if pathNode.Type() == "string_literal" {
		resolved = joinNearPath(w.path, spelling)
	}

	start := node.StartPoint()
	w.sink.PPIncludedFile(w.path, IncludeEvent{
		Line:         int(start.Row) + 1,
		Spelling:     spelling,
		ResolvedPath: resolved,
	})
}

func (w *walker) emitTypeDeclaration(node *sitter.Node, container, self *Cursor) {
	nameNode := node.ChildByFieldName("name")
	name := textOf(nameNode, w.source)

	kind := model.LsClass
	switch node.Type() {
	case "struct_specifier":
		kind = model.LsStruct
	case "union_specifier":
		kind = model.LsUnion
	}

	bodyPresent := node.ChildByFieldName("body") != nil

	var bases []string
	if clause := findChildOfType(node, "base_class_clause"); clause != nil {
		bases = collectBaseNames(clause, w.source)
	}

	w.sink.Declaration(w.path, DeclarationEvent{
		Container:       container,
		Self:            self,
		EntityKind:      model.SymbolType,
		Kind:            kind,
		IsDefinition:    bodyPresent,
		UnqualifiedName: name,
		DeclText:        signatureText(node, w.source),
		Spell:           identRange(nameNode),
		Extent:          rangeOf(node),
		Bases:           bases,
	})
}

func (w *walker) emitFunctionDeclaration(node *sitter.Node, container, self *Cursor, isDefinition bool) {
	declarator := node.ChildByFieldName("declarator")
	fnDeclarator := innermostFunctionDeclarator(declarator)
	qualifier, name, nameNode := w.functionNameAndQualifier(fnDeclarator)

	// An out-of-line method definition ("void C::m() {}") is lexically a
	// direct child of its enclosing namespace, not of class C — tree-sitter
	// gives no semantic link back to C. Its qualified-identifier scope
	// ("C") is the only signal available syntactically, so the adapter
	// resolves DeclaringType from Qualifier the same name-based way it
	// resolves Bases, rather than from a true lexical Container.
	kind := model.LsFunction
	switch {
	case strings.HasPrefix(name, "~"):
		kind = model.LsDestructor
	case qualifier != "" && name == qualifier:
		kind = model.LsConstructor
	case qualifier != "":
		kind = model.LsMethod
	case container != nil && !container.IsNamespace():
		switch {
		case name == container.Name():
			kind = model.LsConstructor
		default:
			kind = model.LsMethod
		}
	}

	typeNode := node.ChildByFieldName("type")

	w.sink.Declaration(w.path, DeclarationEvent{
		Container:       container,
		Self:            self,
		EntityKind:      model.SymbolFunc,
		Kind:            kind,
		IsDefinition:    isDefinition,
		UnqualifiedName: name,
		Qualifier:       qualifier,
		Type:            textOf(typeNode, w.source),
		DeclText:        signatureText(node, w.source),
		Spell:           identRange(nameNode),
		Extent:          rangeOf(node),
		ParamSpellings:  w.collectParamSpellings(fnDeclarator),
	})
}

// functionNameAndQualifier extracts a function declarator's name, splitting
// off a qualified-identifier's scope ("C" in "C::m") when present.
func (w *walker) functionNameAndQualifier(fnDeclarator *sitter.Node) (qualifier, name string, nameNode *sitter.Node) {
	if fnDeclarator == nil {
		return "", "", nil
	}
	nameField := fnDeclarator.ChildByFieldName("declarator")
	if nameField != nil && nameField.Type() == "qualified_identifier" {
		qualifier = textOf(nameField.ChildByFieldName("scope"), w.source)
		nameField = nameField.ChildByFieldName("name")
	}
	if nameField != nil {
		switch nameField.Type() {
		case "identifier", "field_identifier", "destructor_name", "operator_name", "type_identifier":
			return qualifier, textOf(nameField, w.source), nameField
		}
	}
	name, nameNode = w.declaratorName(fnDeclarator)
	return qualifier, name, nameNode
}

// emitFieldOrDeclaration handles a bare (function-body-less) declaration:
// a variable, a member field, or a function prototype.
func (w *walker) emitFieldOrDeclaration(node *sitter.Node, container *Cursor) {
	declarator := node.ChildByFieldName("declarator")
	if fnDeclarator := innermostFunctionDeclarator(declarator); fnDeclarator != nil {
		w.emitFunctionDeclaration(node, container, nil, false)
		return
	}

	name, nameNode := w.declaratorName(declarator)
	if name == "" {
		return
	}

	typeNode := node.ChildByFieldName("type")
	storage := model.StorageNone
	for i := 0; i < int(node.ChildCount()); i++ {
		if node.Child(i).Type() == "storage_class_specifier" {
			storage = parseStorageClass(textOf(node.Child(i), w.source))
		}
	}

	kind := model.LsVariable
	if container != nil && !container.IsNamespace() {
		kind = model.LsField
	}

	hasInit := declarator != nil && declarator.Type() == "init_declarator"

	w.sink.Declaration(w.path, DeclarationEvent{
		Container:       container,
		EntityKind:      model.SymbolVar,
		Kind:            kind,
		Storage:         storage,
		IsDefinition:    hasInit,
		UnqualifiedName: name,
		Type:            textOf(typeNode, w.source),
		DeclText:        signatureText(node, w.source),
		Spell:           identRange(nameNode),
		Extent:          rangeOf(node),
	})
}

// walkCallees looks for call expressions inside a function body and reports
// them as Call references. A syntactic frontend cannot resolve overload
// sets or member-access targets to a single USR the way libclang's semantic
// analysis can, so only direct-call targets are reported; this is a
// documented narrowing of spec §4.5's full reference coverage.
func (w *walker) walkCallees(node *sitter.Node, container *Cursor) {
	if node == nil {
		return
	}
	if node.Type() == "call_expression" {
		fn := node.ChildByFieldName("function")
		if target := textOf(fn, w.source); target != "" {
			w.sink.EntityReference(w.path, ReferenceEvent{
				Container:  container,
				TargetKind: model.SymbolFunc,
				TargetText: target,
				Range:      rangeOf(fn),
				Role:       model.RoleReference | model.RoleCall,
				IsCall:     true,
			})
		}
	}
	for i := 0; i < int(node.ChildCount()); i++ {
		w.walkCallees(node.Child(i), container)
	}
}

func findChildOfType(node *sitter.Node, typ string) *sitter.Node {
	for i := 0; i < int(node.ChildCount()); i++ {
		if c := node.Child(i); c.Type() == typ {
			return c
		}
	}
	return nil
}

func collectBaseNames(clause *sitter.Node, source []byte) []string {
	var names []string
	for i := 0; i < int(clause.ChildCount()); i++ {
		c := clause.Child(i)
		switch c.Type() {
		case "type_identifier", "qualified_identifier":
			names = append(names, textOf(c, source))
		}
	}
	return names
}

// innermostFunctionDeclarator finds the function_declarator node inside a
// (possibly pointer/reference-wrapped) declarator, or nil if declarator
// does not declare a function.
func innermostFunctionDeclarator(declarator *sitter.Node) *sitter.Node {
	for declarator != nil {
		if declarator.Type() == "function_declarator" {
			return declarator
		}
		next := declarator.ChildByFieldName("declarator")
		if next == nil {
			return nil
		}
		declarator = next
	}
	return nil
}

// declaratorName walks down a declarator looking for its identifier,
// returning both the text and the node (for the Spell range).
func (w *walker) declaratorName(node *sitter.Node) (string, *sitter.Node) {
	if node == nil {
		return "", nil
	}
	switch node.Type() {
	case "identifier", "field_identifier", "destructor_name", "operator_name", "type_identifier", "qualified_identifier":
		return textOf(node, w.source), node
	}
	if inner := node.ChildByFieldName("declarator"); inner != nil {
		if name, n := w.declaratorName(inner); name != "" {
			return name, n
		}
	}
	for i := 0; i < int(node.ChildCount()); i++ {
		if name, n := w.declaratorName(node.Child(i)); name != "" {
			return name, n
		}
	}
	return "", nil
}

func (w *walker) collectParamSpellings(fnDeclarator *sitter.Node) []position.Range {
	if fnDeclarator == nil {
		return nil
	}
	params := fnDeclarator.ChildByFieldName("parameters")
	if params == nil {
		return nil
	}
	var out []position.Range
	for i := 0; i < int(params.ChildCount()); i++ {
		p := params.Child(i)
		if p.Type() != "parameter_declaration" {
			continue
		}
		_, nameNode := w.declaratorName(p.ChildByFieldName("declarator"))
		if nameNode != nil {
			out = append(out, identRange(nameNode))
		}
	}
	return out
}

func identRange(node *sitter.Node) position.Range {
	if node == nil {
		return position.Range{}
	}
	return rangeOf(node)
}

func parseStorageClass(spelling string) model.StorageClass {
	switch spelling {
	case "static":
		return model.StorageStatic
	case "extern":
		return model.StorageExtern
	case "register":
		return model.StorageRegister
	default:
		return model.StorageNone
	}
}

func signatureText(node *sitter.Node, source []byte) string {
	text := textOf(node, source)
	if i := strings.IndexAny(text, "{:"); i >= 0 {
		text = text[:i]
	}
	return strings.TrimSpace(text)
}

// joinNearPath resolves a quoted #include relative to the including file's
// directory; angle-bracket system includes are left unresolved since this
// frontend has no system include-search-path configuration (spec §6 leaves
// that to the caller's argument vector, which this syntactic frontend does
// not interpret).
func joinNearPath(including, spelling string) string {
	dir := "."
	if i := strings.LastIndexByte(including, '/'); i >= 0 {
		dir = including[:i]
	}
	return dir + "/" + spelling
}
