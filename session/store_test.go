// Copyright 2026 The bktutor Authors
// SPDX-License-Identifier: Apache-2.0

package session

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"zombiezen.com/go/sqlite/sqlitex"

	"github.com/bktutor/bktutor/lib/config"
	"github.com/bktutor/bktutor/lib/testutil"
	"github.com/bktutor/bktutor/tutorapi"
)

func storageConfig(backend, path string) config.StorageConfig {
	return config.StorageConfig{Backend: backend, Path: path}
}

var teacherUser = tutorapi.User{
	ID:       2,
	Username: "gv.huy",
	Email:    "huy@hcmut.edu.vn",
	FullName: "Đỗ Minh Huy",
	Role:     tutorapi.RoleTeacher,
	IsActive: true,
}

func TestFileStore(t *testing.T) {
	path := testutil.StatePath(t, "session.json")
	store := NewFileStore(path)

	if _, ok, err := store.Load(); ok || err != nil {
		t.Fatalf("Load on missing file = %v, %v", ok, err)
	}

	if err := store.Save(Stored{AccessToken: "tok", User: teacherUser}); err != nil {
		t.Fatalf("Save: %v", err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("Stat: %v", err)
	}
	if mode := info.Mode().Perm(); mode != 0o600 {
		t.Errorf("mode = %o, want 600", mode)
	}

	stored, ok, err := store.Load()
	if err != nil || !ok {
		t.Fatalf("Load = %v, %v", ok, err)
	}
	if stored.AccessToken != "tok" || stored.User != teacherUser {
		t.Errorf("round trip = %+v", stored)
	}

	entries, _ := os.ReadDir(filepath.Dir(path))
	if len(entries) != 1 {
		t.Errorf("temporary files left behind: %v", entries)
	}

	if err := store.Clear(); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if err := store.Clear(); err != nil {
		t.Errorf("second Clear: %v", err)
	}
	if _, ok, _ := store.Load(); ok {
		t.Error("Load after Clear found a session")
	}
}

func TestFileStoreHalfWritten(t *testing.T) {
	tests := []struct {
		name     string
		document string
	}{
		{"token only", `{"access_token":"tok"}`},
		{"user only", `{"user":{"username":"gv.huy"}}`},
		{"empty token", `{"access_token":"","user":{"username":"gv.huy"}}`},
		{"unknown role", `{"access_token":"tok","user":{"username":"gv.huy","role":"dean"}}`},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			path := testutil.StatePath(t, "session.json")
			if err := os.WriteFile(path, []byte(test.document), 0o600); err != nil {
				t.Fatal(err)
			}
			if _, _, err := NewFileStore(path).Load(); !errors.Is(err, ErrCorrupt) {
				t.Errorf("Load = %v, want ErrCorrupt", err)
			}
		})
	}
}

func TestSQLiteStore(t *testing.T) {
	store, err := OpenSQLiteStore(testutil.StatePath(t, "session.db"), nil)
	if err != nil {
		t.Fatalf("OpenSQLiteStore: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	if _, ok, err := store.Load(); ok || err != nil {
		t.Fatalf("Load on empty db = %v, %v", ok, err)
	}

	if err := store.Save(Stored{AccessToken: "tok-1", User: anUser}); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := store.Save(Stored{AccessToken: "tok-2", User: teacherUser}); err != nil {
		t.Fatalf("second Save: %v", err)
	}
	stored, ok, err := store.Load()
	if err != nil || !ok {
		t.Fatalf("Load = %v, %v", ok, err)
	}
	if stored.AccessToken != "tok-2" || stored.User != teacherUser {
		t.Errorf("Load = %+v", stored)
	}

	if err := store.Clear(); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if _, ok, _ := store.Load(); ok {
		t.Error("Load after Clear found a session")
	}
}

func TestSQLiteStoreHalfWritten(t *testing.T) {
	store, err := OpenSQLiteStore(testutil.StatePath(t, "session.db"), nil)
	if err != nil {
		t.Fatalf("OpenSQLiteStore: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	conn, err := store.pool.Take(context.Background())
	if err != nil {
		t.Fatalf("Take: %v", err)
	}
	err = sqlitex.Execute(conn, "INSERT INTO kv (key, value) VALUES (?, ?)", &sqlitex.ExecOptions{
		Args: []any{keyAccessToken, []byte("orphan")},
	})
	store.pool.Put(conn)
	if err != nil {
		t.Fatalf("INSERT: %v", err)
	}

	if _, _, err := store.Load(); !errors.Is(err, ErrCorrupt) {
		t.Errorf("Load = %v, want ErrCorrupt", err)
	}
}

func TestStoresRejectIncompletePairs(t *testing.T) {
	stores := map[string]Store{
		"file":   NewFileStore(testutil.StatePath(t, "session.json")),
		"memory": NewMemoryStore(),
	}
	for name, store := range stores {
		t.Run(name, func(t *testing.T) {
			if err := store.Save(Stored{User: anUser}); !errors.Is(err, ErrCorrupt) {
				t.Errorf("Save without token = %v", err)
			}
			if err := store.Save(Stored{AccessToken: "tok"}); !errors.Is(err, ErrCorrupt) {
				t.Errorf("Save without user = %v", err)
			}
		})
	}
}
