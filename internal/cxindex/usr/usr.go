// Package usr implements the Universal Symbol Reference identity used to
// name program entities across translation units (spec §3).
package usr

import "hash/fnv"

// USR is a fixed-width hash of the frontend-provided unified symbol name. It
// is the only cross-TU identifier entities carry; collisions are treated as
// identity (the probability is accepted as negligible, per spec §3).
type USR uint64

// Invalid is the zero value, never produced by Of for a non-empty name.
const Invalid USR = 0

// Of computes the USR for a canonical cursor name as reported by the
// frontend (e.g. a mangled-ish declarator string such as
// "c:@N@ns@S@Class@F@method#I#"). The exact encoding of name is owned by the
// frontend; this package only hashes it.
func Of(canonicalName string) USR {
	h := fnv.New64a()
	_, _ = h.Write([]byte(canonicalName))
	return USR(h.Sum64())
}

// String renders the USR as a fixed-width hex string, convenient for logs
// and golden test fixtures.
func (u USR) String() string {
	const hexDigits = "0123456789abcdef"
	buf := make([]byte, 16)
	v := uint64(u)
	for i := 15; i >= 0; i-- {
		buf[i] = hexDigits[v&0xf]
		v >>= 4
	}
	return string(buf)
}
