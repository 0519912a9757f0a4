package token

import (
	"sync"
	"time"
)

// RevocationList remembers logged-out token IDs until the tokens would have
// expired on their own.
type RevocationList interface {
	Revoke(jti string, until time.Time) error
	Revoked(jti string, now time.Time) bool
	Prune(now time.Time) int
}

// MemoryRevocationList keeps revoked token IDs in process memory.
type MemoryRevocationList struct {
	mu    sync.Mutex
	until map[string]time.Time
}

func NewMemoryRevocationList() *MemoryRevocationList {
	return &MemoryRevocationList{until: make(map[string]time.Time)}
}

// Revoke records jti. A later expiry for the same jti wins.
func (l *MemoryRevocationList) Revoke(jti string, until time.Time) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if prev, ok := l.until[jti]; !ok || until.After(prev) {
		l.until[jti] = until
	}
	return nil
}

// Revoked reports whether jti was revoked and has not yet passed its expiry.
func (l *MemoryRevocationList) Revoked(jti string, now time.Time) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	until, ok := l.until[jti]
	return ok && now.Before(until)
}

// Prune drops entries whose tokens have expired and returns how many went.
func (l *MemoryRevocationList) Prune(now time.Time) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	pruned := 0
	for jti, until := range l.until {
		if !now.Before(until) {
			delete(l.until, jti)
			pruned++
		}
	}
	return pruned
}

// Len returns the number of entries held
func (l *MemoryRevocationList) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.until)
}
