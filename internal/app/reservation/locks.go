package reservation

import (
	"sync"

	"stayhub/internal/domain/listing"
)

// listingLocks serializes reservation commits per listing. Holding the
// listing's lock across the availability check, the charge and the
// persistence saga guarantees at most one successful commit per conflicting
// day inside this process; the store's version compare-and-set covers
// writers outside it.
type listingLocks struct {
	mu    sync.Mutex
	locks map[listing.ID]*sync.Mutex
}

func newListingLocks() *listingLocks {
	return &listingLocks{locks: make(map[listing.ID]*sync.Mutex)}
}

// Acquire locks the mutex for the listing and returns the unlock func.
// Lock entries are never removed; the per-listing footprint is one mutex.
func (l *listingLocks) Acquire(id listing.ID) func() {
	l.mu.Lock()
	lock, ok := l.locks[id]
	if !ok {
		lock = &sync.Mutex{}
		l.locks[id] = lock
	}
	l.mu.Unlock()
	lock.Lock()
	return lock.Unlock
}
