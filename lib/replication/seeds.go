// Copyright 2026 The gramine-web3-wallet-docker Authors
// SPDX-License-Identifier: Apache-2.0

package replication

import (
	"errors"
	"net"
	"strconv"
	"strings"
)

// ErrNoSeeds is returned when a node is configured to join a group but
// has no peers to contact.
var ErrNoSeeds = errors.New("joining a group requires at least one seed (set --gr-seeds or bootstrap with --gr-bootstrap)")

// BuildSeeds turns a comma-separated peer list into a comma-joined list
// of host:port entries. Entries without a port get port. Duplicates
// (exact host:port string match) are dropped, keeping the first
// occurrence; empty entries are skipped.
func BuildSeeds(extra string, port int) string {
	var seeds []string
	seen := make(map[string]bool)
	for token := range strings.SplitSeq(extra, ",") {
		seed := normalizeSeed(strings.TrimSpace(token), port)
		if seed == "" || seen[seed] {
			continue
		}
		seen[seed] = true
		seeds = append(seeds, seed)
	}
	return strings.Join(seeds, ",")
}

func normalizeSeed(token string, port int) string {
	if token == "" {
		return ""
	}
	host, seedPort, err := net.SplitHostPort(token)
	if err == nil && seedPort != "" {
		return net.JoinHostPort(host, seedPort)
	}
	if err == nil {
		token = host
	}
	token = strings.TrimSuffix(strings.TrimPrefix(token, "["), "]")
	return net.JoinHostPort(token, strconv.Itoa(port))
}

// ValidateJoin fails with [ErrNoSeeds] when replication is enabled, the
// node is not bootstrapping, and seeds is empty.
func ValidateJoin(enabled, bootstrap bool, seeds string) error {
	if enabled && !bootstrap && seeds == "" {
		return ErrNoSeeds
	}
	return nil
}
