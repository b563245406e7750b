//go:build cgo

package frontend

import (
	sitter "github.com/smacker/go-tree-sitter"

	"ckb/internal/cxindex/position"
)

// Cursor identifies a lexical container (namespace, class/struct, or
// function) at a point in the parse tree. Its identity (for use as a
// nsresolve.Container.ID / map key) is the underlying *sitter.Node pointer,
// which is stable for the lifetime of one parse.
type Cursor struct {
	node   *sitter.Node
	source []byte
	parent *Cursor
}

// ID returns a value stable and comparable across calls within this parse,
// suitable as a nsresolve.Container.ID.
func (c *Cursor) ID() any {
	if c == nil {
		return nil
	}
	return c.node
}

// Parent returns the next-enclosing container, or nil at translation-unit
// scope.
func (c *Cursor) Parent() *Cursor {
	if c == nil {
		return nil
	}
	return c.parent
}

// IsNamespace reports whether this container is a namespace (as opposed to
// a class/struct/union or function).
func (c *Cursor) IsNamespace() bool {
	return c != nil && c.node.Type() == "namespace_definition"
}

// IsAnonymous reports whether this is an unnamed namespace.
func (c *Cursor) IsAnonymous() bool {
	return c.IsNamespace() && c.Name() == ""
}

// IsInline reports whether a namespace container was declared `inline`.
// tree-sitter-cpp surfaces this as a leading "inline" token child of the
// namespace_definition node.
func (c *Cursor) IsInline() bool {
	if !c.IsNamespace() {
		return false
	}
	for i := 0; i < int(c.node.ChildCount()); i++ {
		child := c.node.Child(i)
		if child != nil && child.Type() == "inline" {
			return true
		}
	}
	return false
}

// IsVisible reports whether an inline namespace should contribute to
// qualified names at this use site. tree-sitter has no equivalent of
// libclang's per-use visibility query, so this frontend treats every inline
// namespace as always visible — a documented simplification relative to
// ccls, which can see using-directive-driven visibility changes.
func (c *Cursor) IsVisible() bool {
	return true
}

// Name returns the container's declared name, or "" for an anonymous
// namespace.
func (c *Cursor) Name() string {
	if c == nil {
		return ""
	}
	nameNode := c.node.ChildByFieldName("name")
	if nameNode == nil {
		return ""
	}
	return string(c.source[nameNode.StartByte():nameNode.EndByte()])
}

// Range returns the container node's full source extent.
func (c *Cursor) Range() position.Range {
	if c == nil {
		return position.Range{}
	}
	return rangeOf(c.node)
}

func rangeOf(node *sitter.Node) position.Range {
	start := node.StartPoint()
	end := node.EndPoint()
	return position.Range{
		Start: position.Position{Line: int32(start.Row) + 1, Column: int32(start.Column) + 1},
		End:   position.Position{Line: int32(end.Row) + 1, Column: int32(end.Column) + 1},
	}
}

func textOf(node *sitter.Node, source []byte) string {
	if node == nil {
		return ""
	}
	return string(source[node.StartByte():node.EndByte()])
}
