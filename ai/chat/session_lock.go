package chat

import (
	"context"
	"sync"

	"golang.org/x/sync/semaphore"
)

// sessionLocks serializes turns of the same session inside one process so
// concurrent requests never interleave their rows.
type sessionLocks struct {
	mu      sync.Mutex
	entries map[string]*sessionLock
}

type sessionLock struct {
	sem  *semaphore.Weighted
	refs int
}

func newSessionLocks() *sessionLocks {
	return &sessionLocks{entries: make(map[string]*sessionLock)}
}

// acquire blocks until key is free or ctx is done.
func (l *sessionLocks) acquire(ctx context.Context, key string) (func(), error) {
	l.mu.Lock()
	entry, ok := l.entries[key]
	if !ok {
		entry = &sessionLock{sem: semaphore.NewWeighted(1)}
		l.entries[key] = entry
	}
	entry.refs++
	l.mu.Unlock()

	if err := entry.sem.Acquire(ctx, 1); err != nil {
		l.unref(key, entry)
		return nil, err
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			entry.sem.Release(1)
			l.unref(key, entry)
		})
	}, nil
}

func (l *sessionLocks) unref(key string, entry *sessionLock) {
	l.mu.Lock()
	defer l.mu.Unlock()
	entry.refs--
	if entry.refs == 0 {
		delete(l.entries, key)
	}
}

func (l *sessionLocks) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}
