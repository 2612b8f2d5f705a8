// Copyright 2026 The bktutor Authors
// SPDX-License-Identifier: Apache-2.0

// Package sqlitepool provides a small SQLite connection pool for local
// client state.
//
// It wraps zombiezen.com/go/sqlite with fixed pragmas: WAL journal
// mode, FULL synchronous, a 5 second busy timeout, and in-memory temp
// storage. [Config].Schema runs on every new connection, so callers
// declare their tables with CREATE TABLE IF NOT EXISTS and never run
// migrations by hand.
//
// Callers [Pool.Take] a connection, perform work, and [Pool.Put] it
// back, or use [Pool.Immediate] for a read-modify-write that must be
// atomic with respect to other processes sharing the file:
//
//	pool, err := sqlitepool.Open(sqlitepool.Config{
//	    Path:   "/home/sv/.local/state/bktutor/session.db",
//	    Schema: `CREATE TABLE IF NOT EXISTS kv (key TEXT PRIMARY KEY, value BLOB NOT NULL);`,
//	})
//	if err != nil {
//	    return err
//	}
//	defer pool.Close()
//
// The database file is chmod 0600 when the pool opens.
package sqlitepool
