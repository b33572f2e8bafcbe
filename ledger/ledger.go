// Package ledger keeps the in-memory record of links (and source messages) that
// already own a discussion thread.
//
// The ledger lives for the lifetime of the process and is never persisted or
// pruned. Each call is atomic, but a Contains followed by Add is not: two handlers
// racing on the same URL can both miss and both try to create a thread. The loser
// is expected to hit the platform's "thread already exists" error and record the
// URL through that path.
package ledger

import (
	"sort"
	"sync"
)

// Ledger is a set of threaded URLs plus the IDs of messages that carry a thread.
type Ledger struct {
	mu       sync.RWMutex
	urls     map[string]struct{}
	messages map[string]struct{}
}

// New returns an empty ledger.
func New() *Ledger {
	return &Ledger{
		urls:     make(map[string]struct{}),
		messages: make(map[string]struct{}),
	}
}

// Seed inserts urls; intended for tests and warm starts.
func (l *Ledger) Seed(urls ...string) {
	for _, u := range urls {
		l.Add(u)
	}
}

// Contains reports whether url already owns a thread.
func (l *Ledger) Contains(url string) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	_, ok := l.urls[url]
	return ok
}

// Add records url. Adding an existing url is a no-op.
func (l *Ledger) Add(url string) {
	if url == "" {
		return
	}
	l.mu.Lock()
	l.urls[url] = struct{}{}
	l.mu.Unlock()
}

// AddMessage records that the message with id has a thread.
func (l *Ledger) AddMessage(id string) {
	if id == "" {
		return
	}
	l.mu.Lock()
	l.messages[id] = struct{}{}
	l.mu.Unlock()
}

// HasMessage reports whether the message with id is known to have a thread.
func (l *Ledger) HasMessage(id string) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	_, ok := l.messages[id]
	return ok
}

// Len returns the number of recorded URLs.
func (l *Ledger) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.urls)
}

// Snapshot returns the recorded URLs in sorted order.
func (l *Ledger) Snapshot() []string {
	l.mu.RLock()
	out := make([]string, 0, len(l.urls))
	for u := range l.urls {
		out = append(out, u)
	}
	l.mu.RUnlock()
	sort.Strings(out)
	return out
}
