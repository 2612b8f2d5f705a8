// Copyright 2026 The bktutor Authors
// SPDX-License-Identifier: Apache-2.0

package session

import "sync"

// MemoryStore keeps the session in process memory. Nothing survives a
// restart; used for tests and --storage memory.
type MemoryStore struct {
	mu     sync.Mutex
	stored *Stored
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Load implements Store.
func (s *MemoryStore) Load() (Stored, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stored == nil {
		return Stored{}, false, nil
	}
	return *s.stored, true, nil
}

// Save implements Store.
func (s *MemoryStore) Save(stored Stored) error {
	if err := validStored(stored); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stored = &stored
	return nil
}

// Clear implements Store.
func (s *MemoryStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stored = nil
	return nil
}

// Close implements Store.
func (s *MemoryStore) Close() error { return nil }
