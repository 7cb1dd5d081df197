package market_sync

import "sync"

// Mutex per aggregate identifier. Handlers touching the same listing,
// transaction or dispute are serialized; unrelated aggregates proceed
// in parallel.
type lockSet struct {
	mtx   sync.Mutex
	locks map[string]*entryLock
}

type entryLock struct {
	mu   sync.Mutex
	refs int
}

func newLockSet() *lockSet {
	return &lockSet{locks: make(map[string]*entryLock)}
}

func (self *lockSet) Acquire(key string) (release func()) {
	self.mtx.Lock()
	entry, ok := self.locks[key]
	if !ok {
		entry = new(entryLock)
		self.locks[key] = entry
	}
	entry.refs++
	self.mtx.Unlock()

	entry.mu.Lock()

	return func() {
		entry.mu.Unlock()
		self.mtx.Lock()
		entry.refs--
		if entry.refs == 0 {
			delete(self.locks, key)
		}
		self.mtx.Unlock()
	}
}

// Tracks blocks with handlers still in flight. The checkpoint may only
// advance to a height all of whose predecessors are fully processed,
// so a fast event can't make the checkpoint skip a slower one.
type heightTracker struct {
	mtx      sync.Mutex
	inFlight map[uint64]int
	maxDone  uint64
}

func newHeightTracker() *heightTracker {
	return &heightTracker{inFlight: make(map[uint64]int)}
}

func (self *heightTracker) Begin(height uint64) {
	self.mtx.Lock()
	self.inFlight[height]++
	self.mtx.Unlock()
}

// Returns the highest height safe to checkpoint, 0 when there's none yet
func (self *heightTracker) Done(height uint64) (advance uint64) {
	self.mtx.Lock()
	defer self.mtx.Unlock()

	self.inFlight[height]--
	if self.inFlight[height] <= 0 {
		delete(self.inFlight, height)
	}
	if height > self.maxDone {
		self.maxDone = height
	}

	advance = self.maxDone
	for pending := range self.inFlight {
		if pending <= advance {
			if pending == 0 {
				advance = 0
			} else {
				advance = pending - 1
			}
		}
	}
	return
}
