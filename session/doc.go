// Copyright 2026 The bktutor Authors
// SPDX-License-Identifier: Apache-2.0

// Package session owns the authentication lifecycle of the client.
//
// A [Manager] moves between four states:
//
//	Anonymous ──Login──▶ Authenticating ──token+identity ok──▶ Authenticated
//	    ▲                      │                                   │
//	    └────── any failure ───┘            Logout / server 401 ───┘
//
// Two rules hold in every state. A token is exposed (through
// [Manager.AccessToken]) only while Authenticated, and only after the
// server has returned the user behind it; there is no state with a
// token and no verified user. And the persisted [Store] always agrees
// with memory: it holds the token/user pair exactly when the Manager is
// Authenticated.
//
// The Manager subscribes to the gateway's unauthorized events. A 401 on
// any authorized request that carried the current token ends the
// session; subscribers see Authenticated → Expired → Anonymous.
// Events for tokens that are no longer current are ignored, so
// concurrent failures collapse into a single transition.
//
// Three Store backends are provided: [FileStore] (one JSON document,
// replaced atomically), [SQLiteStore] (two key/value rows written in one
// transaction), and [MemoryStore].
package session
