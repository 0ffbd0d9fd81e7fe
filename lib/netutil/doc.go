// Copyright 2026 The gramine-web3-wallet-docker Authors
// SPDX-License-Identifier: Apache-2.0

// Package netutil holds the launcher's network probes: TCP port
// negotiation, local address discovery, and bounded HTTP body reads.
//
// # Port negotiation
//
// [Negotiator] decides which TCP ports the engine listens on. A port is
// tested with a probe-bind on the wildcard address: success means
// available, EADDRINUSE means occupied, and anything else is
// inconclusive and treated as available with a warning, since the
// engine's own bind will fail loudly if that guess was wrong. An
// explicitly configured port that is occupied fails with
// [ErrPortInUse]. A port left at its default is scanned upward to 65535
// and fails with [ErrPortRangeExhausted] only when nothing is free.
// Ports handed out by one Negotiator are never handed out twice, so
// the client port and the group communication port cannot collide.
//
// # Local address
//
// [AddressDetector] determines the address a node advertises to its
// group: an explicit override, else the address of the interface that
// routes to a public resolver (a UDP connect, so no packet leaves the
// host), else, when enabled, the address reported by a public echo
// service.
//
// # HTTP
//
// [ReadResponse] and [ErrorBody] bound response body reads at
// [MaxResponseSize].
package netutil
