// Package fileconsumer tracks which parse got to keep its result for a file
// touched by more than one concurrent worker (spec §4.6): the first worker
// to finish a given header wins, and every later one discards its copy
// rather than racing to overwrite it.
package fileconsumer

import (
	"os"
	"sync"
)

// Arbiter is the single shared map all of an indexer's workers mark against.
// Guarded by one mutex, following internal/daemon.Daemon's mu-guarded-state
// idiom rather than a sync.Map: writes are rare relative to reads and the
// critical section is a single Stat plus map lookup.
type Arbiter struct {
	mu      sync.Mutex
	claimed map[string]fileIdentity
}

// fileIdentity is the device/inode pair os.SameFile compares, stored instead
// of os.FileInfo itself so the map doesn't pin open file handles.
type fileIdentity struct {
	info os.FileInfo
}

// New creates an empty Arbiter.
func New() *Arbiter {
	return &Arbiter{claimed: make(map[string]fileIdentity)}
}

// Mark reports whether the caller is the first to claim path, and from then
// on remembers path as claimed. Two different spellings of the same file
// (a symlink and its target, or two relative paths) collapse to one claim
// via os.SameFile; a path that can no longer be stat'd (deleted mid-parse)
// is claimed by name alone.
func (a *Arbiter) Mark(path string) bool {
	info, err := os.Stat(path)

	a.mu.Lock()
	defer a.mu.Unlock()

	if err != nil {
		if _, ok := a.claimed[path]; ok {
			return false
		}
		a.claimed[path] = fileIdentity{}
		return true
	}

	for _, id := range a.claimed {
		if id.info != nil && os.SameFile(id.info, info) {
			return false
		}
	}
	a.claimed[path] = fileIdentity{info: info}
	return true
}

// Reset clears every claim, so the Arbiter can be reused across a fresh
// indexing pass.
func (a *Arbiter) Reset() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.claimed = make(map[string]fileIdentity)
}
