// Copyright 2026 The gramine-web3-wallet-docker Authors
// SPDX-License-Identifier: Apache-2.0

// Package whitelist decodes, merges and encodes the RA-TLS admission
// whitelist.
//
// The whitelist is a table of [Columns] parallel columns (MRENCLAVE,
// MRSIGNER, ISV_PROD_ID, ISV_SVN, PLATFORM_INSTANCE_ID). Its wire form
// is base64 over newline-separated lines, one line per column, each a
// comma-separated list of cells. Cell i of every column together forms
// rule i. A missing column, a short column, or an empty line reads as
// [Unrestricted] ("0"), which the attestation library treats as "any
// value".
//
// [Merge] appends the rules of one table to another, skipping any rule
// whose full tuple is already present, like INSERT ... ON CONFLICT DO
// NOTHING over a composite key of every column. Rule order is
// otherwise preserved.
//
// [MergeEncoded] is the launcher's entry point. A malformed input is
// logged and treated as an empty table, so a bad contract response
// never prevents a locally configured whitelist from applying.
package whitelist
