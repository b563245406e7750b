// Package nsresolve synthesizes qualified names by walking the chain of
// enclosing containers, since the frontend does not hand us qualified names
// directly (spec §4.2).
package nsresolve

import "strings"

// AnonymousNamespaceName is how anonymous namespaces render in a qualified
// name (spec §4.2).
const AnonymousNamespaceName = "(anonymous namespace)"

// Container is one link in the lexical-container chain: a namespace, class,
// or enclosing function. ID must be stable and comparable for the same
// underlying cursor across calls within one parse (e.g. a frontend cursor's
// canonical id).
type Container struct {
	ID          any
	Name        string
	IsNamespace bool
	IsAnon      bool
	// IsInline and IsVisible only matter when IsNamespace is true: an inline
	// namespace contributes to the qualified name only if the frontend
	// reports it as visible (spec §4.2).
	IsInline  bool
	IsVisible bool
}

func (c Container) renderedName() string {
	if c.IsAnon {
		return AnonymousNamespaceName
	}
	return c.Name
}

func (c Container) contributes() bool {
	return !c.IsInline || c.IsVisible
}

// Helper memoizes, per innermost container, the cumulative qualified prefix
// (spec §4.2).
type Helper struct {
	prefixes map[any]string
}

// New creates an empty Helper.
func New() *Helper {
	return &Helper{prefixes: make(map[any]string)}
}

// QualifiedName returns (qualifiedString, qualNameOffset, shortNameOffset)
// for unqualifiedName declared inside chain, ordered outermost to innermost.
// The qualified span begins after any leading pure-namespace prefix, so
// qualNameOffset points at the first class/function container's name,
// matching spec §4.2's "editor wants the class-qualified form" rationale.
func (h *Helper) QualifiedName(chain []Container, unqualifiedName string) (qualified string, qualNameOffset, shortNameOffset int16) {
	prefix := h.cumulativePrefix(chain)

	var b strings.Builder
	b.WriteString(prefix)
	nameStart := b.Len()
	b.WriteString(unqualifiedName)

	return b.String(), int16(qualifiedSpanStart(chain)), int16(nameStart)
}

// cumulativePrefix returns the "a::b::c::" prefix for chain, memoized on the
// innermost container's ID.
func (h *Helper) cumulativePrefix(chain []Container) string {
	if len(chain) == 0 {
		return ""
	}
	last := chain[len(chain)-1]
	if cached, ok := h.prefixes[last.ID]; ok {
		return cached
	}

	var b strings.Builder
	for _, c := range chain {
		if !c.contributes() {
			continue
		}
		b.WriteString(c.renderedName())
		b.WriteString("::")
	}
	prefix := b.String()
	h.prefixes[last.ID] = prefix
	return prefix
}

// qualifiedSpanStart returns the byte offset, within the prefix produced by
// cumulativePrefix, of the first non-namespace container — the point at
// which the "qualified" (as opposed to "fully namespace-qualified") name
// begins.
func qualifiedSpanStart(chain []Container) int {
	offset := 0
	for _, c := range chain {
		if !c.IsNamespace {
			break
		}
		if !c.contributes() {
			continue
		}
		offset += len(c.renderedName()) + len("::")
	}
	return offset
}
