// Copyright 2026 The bktutor Authors
// SPDX-License-Identifier: Apache-2.0

package session

import (
	"context"
	"fmt"
	"log/slog"

	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"

	"github.com/bktutor/bktutor/lib/codec"
	"github.com/bktutor/bktutor/lib/sqlitepool"
	"github.com/bktutor/bktutor/tutorapi"
)

const (
	keyAccessToken = "access_token"
	keyUser        = "user"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS kv (
	key   TEXT PRIMARY KEY,
	value BLOB NOT NULL
) WITHOUT ROWID;
`

// SQLiteStore keeps the session as two rows of a key/value table. The
// token is stored as text bytes and the user record as CBOR. Both rows
// are replaced in one IMMEDIATE transaction.
type SQLiteStore struct {
	pool *sqlitepool.Pool
}

// OpenSQLiteStore opens (creating if needed) the database at path.
func OpenSQLiteStore(path string, logger *slog.Logger) (*SQLiteStore, error) {
	pool, err := sqlitepool.Open(sqlitepool.Config{
		Path:   path,
		Schema: sqliteSchema,
		Logger: logger,
	})
	if err != nil {
		return nil, fmt.Errorf("session: %w", err)
	}
	return &SQLiteStore{pool: pool}, nil
}

// Load implements Store.
func (s *SQLiteStore) Load() (Stored, bool, error) {
	conn, err := s.pool.Take(context.Background())
	if err != nil {
		return Stored{}, false, fmt.Errorf("session: %w", err)
	}
	defer s.pool.Put(conn)

	rows := make(map[string][]byte, 2)
	err = sqlitex.Execute(conn, "SELECT key, value FROM kv WHERE key IN (?, ?)", &sqlitex.ExecOptions{
		Args: []any{keyAccessToken, keyUser},
		ResultFunc: func(stmt *sqlite.Stmt) error {
			value := make([]byte, stmt.ColumnLen(1))
			stmt.ColumnBytes(1, value)
			rows[stmt.ColumnText(0)] = value
			return nil
		},
	})
	if err != nil {
		return Stored{}, false, fmt.Errorf("session: reading kv: %w", err)
	}

	tokenBytes, hasToken := rows[keyAccessToken]
	userBytes, hasUser := rows[keyUser]
	switch {
	case !hasToken && !hasUser:
		return Stored{}, false, nil
	case hasToken != hasUser:
		return Stored{}, false, fmt.Errorf("%w: kv holds only half of the session", ErrCorrupt)
	}

	var user tutorapi.User
	if err := codec.Unmarshal(userBytes, &user); err != nil {
		if diagnostic, diagErr := codec.Diagnose(userBytes); diagErr == nil {
			return Stored{}, false, fmt.Errorf("%w: decoding user record %s: %v", ErrCorrupt, diagnostic, err)
		}
		return Stored{}, false, fmt.Errorf("%w: decoding user record: %v", ErrCorrupt, err)
	}
	stored := Stored{AccessToken: string(tokenBytes), User: user}
	if err := validStored(stored); err != nil {
		return Stored{}, false, err
	}
	return stored, true, nil
}

// Save implements Store.
func (s *SQLiteStore) Save(stored Stored) error {
	if err := validStored(stored); err != nil {
		return err
	}
	userBytes, err := codec.Marshal(stored.User)
	if err != nil {
		return fmt.Errorf("session: encoding user record: %w", err)
	}

	err = s.pool.Immediate(context.Background(), func(conn *sqlite.Conn) error {
		for key, value := range map[string][]byte{
			keyAccessToken: []byte(stored.AccessToken),
			keyUser:        userBytes,
		} {
			if err := sqlitex.Execute(conn,
				"INSERT INTO kv (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value",
				&sqlitex.ExecOptions{Args: []any{key, value}},
			); err != nil {
				return fmt.Errorf("writing %s: %w", key, err)
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("session: saving: %w", err)
	}
	return nil
}

// Clear implements Store.
func (s *SQLiteStore) Clear() error {
	err := s.pool.Immediate(context.Background(), func(conn *sqlite.Conn) error {
		return sqlitex.Execute(conn, "DELETE FROM kv WHERE key IN (?, ?)", &sqlitex.ExecOptions{
			Args: []any{keyAccessToken, keyUser},
		})
	})
	if err != nil {
		return fmt.Errorf("session: clearing: %w", err)
	}
	return nil
}

// Close implements Store.
func (s *SQLiteStore) Close() error {
	return s.pool.Close()
}
