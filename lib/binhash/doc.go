// Copyright 2026 The gramine-web3-wallet-docker Authors
// SPDX-License-Identifier: Apache-2.0

// Package binhash fingerprints the database engine binary.
//
// The launcher records the BLAKE3 digest of the mysqld executable it
// hands off to in the handoff record, so that a rapid restart can be
// correlated with a specific engine build when reading logs from an
// enclave that has no other introspection.
//
//   - [HashFile] streams a file through BLAKE3 with constant memory
//   - [FormatDigest] renders a digest as lowercase hex
//   - [ParseDigest] parses the hex form back, validating its length
package binhash
