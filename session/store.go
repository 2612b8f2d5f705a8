// Copyright 2026 The bktutor Authors
// SPDX-License-Identifier: Apache-2.0

package session

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/bktutor/bktutor/lib/config"
	"github.com/bktutor/bktutor/tutorapi"
)

// ErrCorrupt is returned by Store.Load when persisted state exists but
// cannot be used: unparseable, or holding only one of the token/user
// pair.
var ErrCorrupt = errors.New("session: stored session is corrupt")

// Stored is the persisted half of a session. The two fields are always
// written and cleared together.
type Stored struct {
	AccessToken string
	User        tutorapi.User
}

// Store persists the token/user pair across process restarts.
// Implementations must make Save and Clear atomic: a reader never
// observes a token without its user or the reverse.
type Store interface {
	// Load returns the stored pair. ok is false when nothing is stored.
	// A partially written or unreadable store yields ErrCorrupt.
	Load() (stored Stored, ok bool, err error)
	// Save replaces the stored pair.
	Save(stored Stored) error
	// Clear removes the stored pair. Clearing an empty store succeeds.
	Clear() error
	// Close releases any resources held by the store.
	Close() error
}

// OpenStore opens the backend named by cfg.
func OpenStore(cfg config.StorageConfig, logger *slog.Logger) (Store, error) {
	switch cfg.Backend {
	case config.BackendFile:
		return NewFileStore(cfg.Path), nil
	case config.BackendSQLite:
		return OpenSQLiteStore(cfg.Path, logger)
	case config.BackendMemory:
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("session: unknown storage backend %q", cfg.Backend)
	}
}

func validStored(stored Stored) error {
	if stored.AccessToken == "" {
		return fmt.Errorf("%w: access_token is empty", ErrCorrupt)
	}
	if stored.User.Username == "" {
		return fmt.Errorf("%w: user has no username", ErrCorrupt)
	}
	return nil
}
