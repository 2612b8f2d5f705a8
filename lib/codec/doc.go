// Copyright 2026 The bktutor Authors
// SPDX-License-Identifier: Apache-2.0

// Package codec provides the CBOR encoding used for locally persisted
// records.
//
// JSON is the format of the course server API and of CLI output. CBOR
// is the format of records the client stores for itself, such as the
// user record in the SQLite session store. Both formats share struct
// tags: a type with only `json` tags encodes the same field names in
// CBOR, and `cbor` tags override where the stored form should differ.
//
//	data, err := codec.Marshal(user)
//	err = codec.Unmarshal(data, &user)
//
// The encoder is deterministic (sorted map keys, smallest integer
// encoding), so identical records produce identical bytes.
package codec
