// Package tracker remembers the newest row seen for each site between cycles.
// Change detection compares the current top row against this memory to decide
// how much of a frame is actually new.
package tracker

import "sync"

// Tracker maps a site key (its configured URL) to the fingerprint of the
// newest row observed on the last successful cycle. Safe for concurrent use
// by site workers.
type Tracker struct {
	mu   sync.RWMutex
	seen map[string]string
}

func New() *Tracker {
	return &Tracker{seen: make(map[string]string)}
}

// Has reports whether a fingerprint is stored for key.
func (t *Tracker) Has(key string) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	_, ok := t.seen[key]
	return ok
}

// Get returns the stored fingerprint for key, or "" when none exists.
func (t *Tracker) Get(key string) string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.seen[key]
}

// Track stores fingerprint as the newest observation for key, replacing any
// previous value.
func (t *Tracker) Track(key, fingerprint string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.seen[key] = fingerprint
}
