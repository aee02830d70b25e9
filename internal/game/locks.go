package game

import "sync"

type roomLock struct {
	mu   sync.Mutex
	refs int
}

// roomLocks hands out one mutex per room name and forgets it once nobody holds it.
type roomLocks struct {
	mu    sync.Mutex
	locks map[string]*roomLock
}

func newRoomLocks() *roomLocks {
	return &roomLocks{locks: make(map[string]*roomLock)}
}

func (l *roomLocks) Lock(name string) func() {
	l.mu.Lock()
	lock, ok := l.locks[name]
	if !ok {
		lock = &roomLock{}
		l.locks[name] = lock
	}
	lock.refs++
	l.mu.Unlock()

	lock.mu.Lock()
	return func() {
		lock.mu.Unlock()
		l.mu.Lock()
		lock.refs--
		if lock.refs == 0 {
			delete(l.locks, name)
		}
		l.mu.Unlock()
	}
}

func (l *roomLocks) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}
