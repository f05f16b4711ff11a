package placement

import (
	"bytes"
	"sort"
	"sync"

	"github.com/google/uuid"
)

// columnLocks serializes mutations per column without a global lock, so
// unrelated columns can be mutated concurrently. Locks for multi-column
// operations are always acquired in ID order to rule out deadlock.
type columnLocks struct {
	mu      sync.Mutex
	entries map[uuid.UUID]*lockEntry
}

type lockEntry struct {
	mu   sync.Mutex
	refs int
}

func newColumnLocks() *columnLocks {
	return &columnLocks{entries: make(map[uuid.UUID]*lockEntry)}
}

// Lock acquires the mutex of every listed column and returns the release
// function. Duplicate IDs are collapsed.
func (l *columnLocks) Lock(ids ...uuid.UUID) (unlock func()) {
	seen := make(map[uuid.UUID]bool, len(ids))
	ordered := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			ordered = append(ordered, id)
		}
	}
	sort.Slice(ordered, func(i, j int) bool {
		return bytes.Compare(ordered[i][:], ordered[j][:]) < 0
	})

	acquired := make([]*lockEntry, 0, len(ordered))
	for _, id := range ordered {
		e := l.retain(id)
		e.mu.Lock()
		acquired = append(acquired, e)
	}

	return func() {
		for i := len(acquired) - 1; i >= 0; i-- {
			acquired[i].mu.Unlock()
		}
		l.mu.Lock()
		for _, id := range ordered {
			e := l.entries[id]
			e.refs--
			if e.refs == 0 {
				delete(l.entries, id)
			}
		}
		l.mu.Unlock()
	}
}

func (l *columnLocks) retain(id uuid.UUID) *lockEntry {
	l.mu.Lock()
	defer l.mu.Unlock()

	e, ok := l.entries[id]
	if !ok {
		e = &lockEntry{}
		l.entries[id] = e
	}
	e.refs++
	return e
}
