// Copyright 2026 The bktutor Authors
// SPDX-License-Identifier: Apache-2.0

package enrollment

import (
	"slices"
	"sync"
)

// LockSet is a set of non-blocking per-key locks. Acquiring a key that
// is already held fails immediately instead of waiting.
//
// The zero value is ready to use.
type LockSet struct {
	mu   sync.Mutex
	held map[string]struct{}
}

// TryAcquire takes the lock for key. If key is already held it returns
// ok false and a nil release. Otherwise release frees the key; calling
// it more than once is harmless.
func (l *LockSet) TryAcquire(key string) (release func(), ok bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.held == nil {
		l.held = make(map[string]struct{})
	}
	if _, busy := l.held[key]; busy {
		return nil, false
	}
	l.held[key] = struct{}{}

	var once sync.Once
	return func() {
		once.Do(func() {
			l.mu.Lock()
			delete(l.held, key)
			l.mu.Unlock()
		})
	}, true
}

// Held reports whether key is currently locked.
func (l *LockSet) Held(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, busy := l.held[key]
	return busy
}

// Keys returns the held keys in sorted order.
func (l *LockSet) Keys() []string {
	l.mu.Lock()
	keys := make([]string, 0, len(l.held))
	for key := range l.held {
		keys = append(keys, key)
	}
	l.mu.Unlock()
	slices.Sort(keys)
	return keys
}
