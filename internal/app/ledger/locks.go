package ledger

import (
	"sync"

	"villabook/internal/domain/villa"
)

// villaLocks serializes binding operations per villa. Two create/modify
// calls on the same villa take turns; calls on different villas never
// contend. Mutexes are retained for the process lifetime, bounded by the
// number of villas seen.
type villaLocks struct {
	mu    sync.Mutex
	locks map[villa.VillaID]*sync.Mutex
}

func newVillaLocks() *villaLocks {
	return &villaLocks{locks: make(map[villa.VillaID]*sync.Mutex)}
}

// acquire locks the villa and returns the release func.
func (l *villaLocks) acquire(id villa.VillaID) func() {
	l.mu.Lock()
	m, ok := l.locks[id]
	if !ok {
		m = &sync.Mutex{}
		l.locks[id] = m
	}
	l.mu.Unlock()
	m.Lock()
	return m.Unlock
}
