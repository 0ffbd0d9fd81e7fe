// Copyright 2026 The gramine-web3-wallet-docker Authors
// SPDX-License-Identifier: Apache-2.0

// Package codec provides the launcher's CBOR encoding configuration for
// on-disk state records (currently the handoff record written before
// the engine exec).
//
// The encoder uses Core Deterministic Encoding (RFC 8949 §4.2): sorted
// map keys, smallest integer encoding, no indefinite-length items. The
// same record always produces identical bytes, so two records can be
// compared byte-for-byte when diagnosing restart loops.
//
//	data, err := codec.Marshal(record)
//	err = codec.Unmarshal(data, &record)
//
// Types that are only ever written as CBOR carry `cbor` struct tags.
// Types that are also printed as JSON (the dry-run plan) carry `json`
// tags, which fxamacker/cbor reads as a fallback. Never put both on one
// field.
package codec
