// Copyright 2026 The bktutor Authors
// SPDX-License-Identifier: Apache-2.0

package session

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/bktutor/bktutor/tutorapi"
)

// FileStore keeps the session in a single JSON document. Writes go to a
// temporary file in the same directory and are renamed into place, so
// the document on disk is always either the old pair or the new one.
type FileStore struct {
	path string
}

// fileDocument is the on-disk layout. Both keys are pointers so a
// document missing one of them is detected rather than zero-filled.
type fileDocument struct {
	AccessToken *string        `json:"access_token"`
	User        *tutorapi.User `json:"user"`
}

// NewFileStore returns a store backed by path. The file and its parent
// directory are created on first Save.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Path returns the session file location.
func (s *FileStore) Path() string { return s.path }

// Load implements Store.
func (s *FileStore) Load() (Stored, bool, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return Stored{}, false, nil
		}
		return Stored{}, false, fmt.Errorf("session: reading %s: %w", s.path, err)
	}

	var document fileDocument
	if err := json.Unmarshal(data, &document); err != nil {
		return Stored{}, false, fmt.Errorf("%w: parsing %s: %v", ErrCorrupt, s.path, err)
	}
	if document.AccessToken == nil && document.User == nil {
		return Stored{}, false, nil
	}
	if document.AccessToken == nil || document.User == nil {
		return Stored{}, false, fmt.Errorf("%w: %s holds only half of the session", ErrCorrupt, s.path)
	}

	stored := Stored{AccessToken: *document.AccessToken, User: *document.User}
	if err := validStored(stored); err != nil {
		return Stored{}, false, err
	}
	return stored, true, nil
}

// Save implements Store.
func (s *FileStore) Save(stored Stored) error {
	if err := validStored(stored); err != nil {
		return err
	}
	data, err := json.MarshalIndent(fileDocument{
		AccessToken: &stored.AccessToken,
		User:        &stored.User,
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("session: marshaling session: %w", err)
	}
	data = append(data, '\n')

	directory := filepath.Dir(s.path)
	if err := os.MkdirAll(directory, 0o700); err != nil {
		return fmt.Errorf("session: creating session directory %s: %w", directory, err)
	}

	temporary, err := os.CreateTemp(directory, ".session-*.tmp")
	if err != nil {
		return fmt.Errorf("session: creating temporary file: %w", err)
	}
	temporaryPath := temporary.Name()
	defer os.Remove(temporaryPath)

	if err := temporary.Chmod(0o600); err != nil {
		temporary.Close()
		return fmt.Errorf("session: restricting %s: %w", temporaryPath, err)
	}
	if _, err := temporary.Write(data); err != nil {
		temporary.Close()
		return fmt.Errorf("session: writing %s: %w", temporaryPath, err)
	}
	if err := temporary.Sync(); err != nil {
		temporary.Close()
		return fmt.Errorf("session: syncing %s: %w", temporaryPath, err)
	}
	if err := temporary.Close(); err != nil {
		return fmt.Errorf("session: closing %s: %w", temporaryPath, err)
	}
	if err := os.Rename(temporaryPath, s.path); err != nil {
		return fmt.Errorf("session: replacing %s: %w", s.path, err)
	}
	return nil
}

// Clear implements Store.
func (s *FileStore) Clear() error {
	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("session: removing %s: %w", s.path, err)
	}
	return nil
}

// Close implements Store.
func (s *FileStore) Close() error { return nil }
