// Package crashshim implements the crash-recovery boundary around frontend
// calls (spec §4.4). A fatal fault raised while driving the frontend is
// converted into a recoverable negative result instead of taking down the
// whole process.
package crashshim

import (
	"fmt"
	"os"
	"sync"
)

// EnvVar is the environment variable that arms/disarms the shim; set to "0"
// to disarm. Exported so callers that derive this from their own config
// (e.g. the CLI's CxxIndexConfig.CrashRecovery) can set it without
// duplicating the literal name.
const EnvVar = "CCLS_CRASH_RECOVERY"

var (
	once    sync.Once
	armedMu sync.RWMutex
	armed   bool
)

func computeArmed() bool {
	return os.Getenv(EnvVar) != "0"
}

// Armed reports whether the shim is currently active. It's read once and
// cached (spec supplement, SPEC_FULL §4: "a deliberate, documented
// deviation" from ccls's per-call getenv), with Reload available for tests
// that flip the environment variable mid-run.
func Armed() bool {
	once.Do(func() {
		armedMu.Lock()
		armed = computeArmed()
		armedMu.Unlock()
	})
	armedMu.RLock()
	defer armedMu.RUnlock()
	return armed
}

// Reload re-reads CCLS_CRASH_RECOVERY immediately, for tests that need to
// exercise both the armed and disarmed paths within one process.
func Reload() {
	armedMu.Lock()
	armed = computeArmed()
	armedMu.Unlock()
}

// CrashError wraps a recovered panic value from inside RunSafely.
type CrashError struct {
	Value any
}

func (e *CrashError) Error() string {
	return fmt.Sprintf("crashshim: frontend panicked: %v", e.Value)
}

// RunSafely invokes fn under the crash shim's protection. When armed (the
// default), a panic inside fn is recovered and returned as a *CrashError;
// fn's own structured error return is passed through untouched either way
// (spec §4.4 contract: "must not swallow the closure's own structured error
// returns — only asynchronous faults"). When disarmed
// (CCLS_CRASH_RECOVERY=0), panics propagate so they surface as real crashes
// during debugging.
func RunSafely(fn func() error) (completed bool, err error) {
	if !Armed() {
		return true, fn()
	}

	completed = true
	defer func() {
		if r := recover(); r != nil {
			completed = false
			err = &CrashError{Value: r}
		}
	}()
	err = fn()
	return completed, err
}
