//go:build cgo

package tu

import (
	"fmt"
	"os"

	"ckb/internal/cxindex/snapshot"
)

// contentsFor returns the bytes a parse of path should see: the snapshot's
// overlay if it has one for this path, otherwise the file's on-disk
// contents (spec §4.3 "Unsaved-buffer snapshot").
func contentsFor(path string, snap snapshot.Snapshot) ([]byte, error) {
	if overlay, ok := snap.Lookup(path); ok {
		return overlay, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return data, nil
}
