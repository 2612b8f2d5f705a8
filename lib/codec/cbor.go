// Copyright 2026 The bktutor Authors
// SPDX-License-Identifier: Apache-2.0

package codec

import (
	"reflect"

	"github.com/fxamacker/cbor/v2"
)

// encMode encodes with Core Deterministic Encoding (RFC 8949 §4.2):
// the same record always produces the same bytes, so an unchanged user
// record rewritten after a refresh leaves the stored blob identical.
var encMode cbor.EncMode

// decMode accepts standard CBOR and ignores unknown fields, so records
// written by a newer client still load.
var decMode cbor.DecMode

func init() {
	var err error

	encOptions := cbor.CoreDetEncOptions()
	// Types implementing encoding.TextMarshaler (tutorapi.Role) travel
	// as text strings, matching their JSON form.
	encOptions.TextMarshaler = cbor.TextMarshalerTextString
	// time.Time fields are stored as RFC 3339 strings so a record stays
	// readable with `cbor diag`.
	encOptions.Time = cbor.TimeRFC3339Nano
	encMode, err = encOptions.EncMode()
	if err != nil {
		panic("codec: CBOR encoder initialization failed: " + err.Error())
	}

	decMode, err = cbor.DecOptions{
		DefaultMapType:  reflect.TypeOf(map[string]any(nil)),
		TextUnmarshaler: cbor.TextUnmarshalerTextString,
	}.DecMode()
	if err != nil {
		panic("codec: CBOR decoder initialization failed: " + err.Error())
	}
}

// Marshal encodes v to CBOR using Core Deterministic Encoding.
func Marshal(v any) ([]byte, error) {
	return encMode.Marshal(v)
}

// Unmarshal decodes CBOR data into v.
func Unmarshal(data []byte, v any) error {
	return decMode.Unmarshal(data, v)
}

// Diagnose returns the CBOR diagnostic notation (RFC 8949 §8) for data.
// Used by the CLI to dump stored records.
func Diagnose(data []byte) (string, error) {
	return cbor.Diagnose(data)
}
