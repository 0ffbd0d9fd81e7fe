// Copyright 2026 The gramine-web3-wallet-docker Authors
// SPDX-License-Identifier: Apache-2.0

// Package ledger reads the on-chain attestation whitelist.
//
// The whitelist contract exposes getSGXConfig(), which returns an
// ABI-encoded string holding a JSON document. The document's
// RATLS_WHITELIST_CONFIG member is the encoded whitelist table (see
// lib/whitelist). [Reader] performs one read-only eth_call with
// explicit connect and total timeouts; there is no retry. Callers
// treat every error as "no contract whitelist".
//
// The JSON document is normalized with jsonc before lookup, since
// operators edit it by hand and comments or trailing commas are
// common.
package ledger
