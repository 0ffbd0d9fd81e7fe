// Copyright 2026 The gramine-web3-wallet-docker Authors
// SPDX-License-Identifier: Apache-2.0

package testutil

import (
	"net"
	"testing"
)

// OccupyPort binds a TCP listener on the wildcard address and returns
// its port. The listener is closed when the test completes. With
// port 0 the kernel picks the port.
func OccupyPort(t *testing.T, port int) int {
	t.Helper()
	listener, err := net.ListenTCP("tcp", &net.TCPAddr{Port: port})
	if err != nil {
		t.Fatalf("occupying port %d: %v", port, err)
	}
	t.Cleanup(func() { listener.Close() })
	return listener.Addr().(*net.TCPAddr).Port
}

// FreePort returns a port the kernel considered free when it was
// asked. Another process may take it before the caller uses it.
func FreePort(t *testing.T) int {
	t.Helper()
	listener, err := net.ListenTCP("tcp", &net.TCPAddr{})
	if err != nil {
		t.Fatalf("finding a free port: %v", err)
	}
	port := listener.Addr().(*net.TCPAddr).Port
	listener.Close()
	return port
}
