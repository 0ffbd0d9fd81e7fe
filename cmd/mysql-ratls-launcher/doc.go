// Copyright 2026 The gramine-web3-wallet-docker Authors
// SPDX-License-Identifier: Apache-2.0

// Mysql-ratls-launcher prepares and starts a MySQL server that
// authenticates clients and group replication peers with RA-TLS
// certificates. It resolves configuration from flags, an optional YAML
// defaults file and the environment, negotiates the client and group
// ports, establishes a stable server_id and group name, merges the
// local attestation whitelist with the one published on chain,
// materializes the data directory from a template on first boot, and
// finally replaces itself with mysqld.
//
// Unrecognized arguments are passed through to mysqld. With --dry-run
// the launch plan is printed as JSON instead of executed.
package main
