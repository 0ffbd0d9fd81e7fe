// Copyright 2026 The gramine-web3-wallet-docker Authors
// SPDX-License-Identifier: Apache-2.0

// Package identity establishes the node's server_id and the cluster's
// group name and keeps them stable across restarts.
//
// Both values follow the same read-through cascade in [Store]: an
// explicit override wins (and is written through to storage), else
// the value persisted in the state directory, else a freshly derived
// or generated value that is persisted before it is returned. Once a
// value is on disk, every later start reuses it until the state
// directory is wiped. That is what gives a node a stable position in
// its group.
//
// [DeriveServerID] is a pure function of the advertised address and
// the group communication port. [NewGroupName] returns a random
// version 4 UUID.
//
// Every group name resolution also writes a plaintext mirror to an
// operator-visible path, since the authoritative copy usually lives on
// storage that is only readable from inside the enclave.
package identity
