package indexfile

import "reflect"

// Equal compares two IndexFiles for the round-trip property of spec §8
// invariant 6: equal excluding Diagnostics and FileContents, which are never
// serialized.
func (f *IndexFile) Equal(o *IndexFile) bool {
	if f == nil || o == nil {
		return f == o
	}
	return reflect.DeepEqual(f.toWire(), o.toWire())
}
