package errors

import "sync"

// WarningHandler receives non-fatal conditions passed to Warn.
type WarningHandler func(w error)

var (
	warnMu      sync.RWMutex
	warnHandler WarningHandler
)

// SetWarningHandler installs h as the destination of Warn and returns the
// previous handler. A nil handler discards warnings.
func SetWarningHandler(h WarningHandler) WarningHandler {
	warnMu.Lock()
	defer warnMu.Unlock()
	prev := warnHandler
	warnHandler = h
	return prev
}

// Warn reports a non-fatal condition. pkg/log installs a zerolog-backed
// handler when the logger is set up.
func Warn(w error) {
	if w == nil {
		return
	}
	warnMu.RLock()
	h := warnHandler
	warnMu.RUnlock()
	if h != nil {
		h(w)
	}
}
