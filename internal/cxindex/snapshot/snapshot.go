// Package snapshot holds the unsaved-buffer overlay contract consumed by a
// parse (spec §4.3, §6 "Unsaved-buffer snapshot (consumed)").
package snapshot

// Buffer is a single in-memory overlay: absolute path plus the bytes the
// editor currently holds for it, which may differ from what's on disk.
type Buffer struct {
	Path     string
	Contents []byte
}

// Snapshot is an immutable bundle of overlays taken at parse start. A parse
// sees these buffers in place of on-disk contents for any path they cover;
// everything else is read from disk.
type Snapshot struct {
	buffers map[string][]byte
}

// New builds a Snapshot from a slice of buffers. Later entries for the same
// path win, matching "last write wins" semantics for a set taken at a single
// instant.
func New(buffers []Buffer) Snapshot {
	m := make(map[string][]byte, len(buffers))
	for _, b := range buffers {
		m[b.Path] = b.Contents
	}
	return Snapshot{buffers: m}
}

// Empty returns a Snapshot with no overlays.
func Empty() Snapshot {
	return Snapshot{}
}

// Lookup returns the overlay contents for path, if any.
func (s Snapshot) Lookup(path string) ([]byte, bool) {
	if s.buffers == nil {
		return nil, false
	}
	b, ok := s.buffers[path]
	return b, ok
}

// Paths returns the set of overlaid paths in this snapshot, in no particular
// order.
func (s Snapshot) Paths() []string {
	paths := make([]string, 0, len(s.buffers))
	for p := range s.buffers {
		paths = append(paths, p)
	}
	return paths
}

// Len reports how many overlays this snapshot carries.
func (s Snapshot) Len() int {
	return len(s.buffers)
}
