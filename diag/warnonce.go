package diag

import "sync"

// WarnOnce is a per-stream bitset of warning classes that have already
// fired, so that a given class of warning is only ever reported once
// per parse, centralizing what the original parser tracked as a handful
// of scattered global flags (spec section 9).
type WarnOnce struct {
	mu   sync.Mutex
	seen map[string]bool
}

// NewWarnOnce returns an empty WarnOnce set.
func NewWarnOnce() *WarnOnce {
	return &WarnOnce{seen: make(map[string]bool)}
}

// Fire reports whether class has not yet fired, and marks it as fired.
// Callers should only emit the warning when Fire returns true.
func (w *WarnOnce) Fire(class string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.seen[class] {
		return false
	}
	w.seen[class] = true
	return true
}

// Reset clears all latched warning classes, used when an Epoch or
// Parameters Handler is reset between streams.
func (w *WarnOnce) Reset() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.seen = make(map[string]bool)
}
