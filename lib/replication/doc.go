// Copyright 2026 The gramine-web3-wallet-docker Authors
// SPDX-License-Identifier: Apache-2.0

// Package replication prepares group replication before the engine
// starts: the peer seed list, join-mode validation, and the generated
// engine option file.
//
// [BuildSeeds] normalizes and de-duplicates the configured peers. The
// node's own address is never added: listing itself made the group
// communication layer churn through handshakes with itself. A node
// that should start a group alone bootstraps instead.
//
// [ValidateJoin] rejects the one configuration that cannot work: joining
// (not bootstrapping) with nobody to contact.
//
// [EngineOptions] renders the [mysqld] option file passed to the engine
// with --defaults-extra-file. It carries the identity and group
// settings, so a failure to write it is fatal.
package replication
