// Copyright 2026 The gramine-web3-wallet-docker Authors
// SPDX-License-Identifier: Apache-2.0

package netutil

import (
	"errors"
	"fmt"
	"log/slog"
	"net"
	"strconv"

	"golang.org/x/sys/unix"
)

var (
	// ErrPortInUse is returned when an explicitly configured port is
	// occupied.
	ErrPortInUse = errors.New("port is in use")

	// ErrPortRangeExhausted is returned when no port between a default
	// port and 65535 is free.
	ErrPortRangeExhausted = errors.New("no free port up to 65535")
)

// MaxPort is the highest TCP port number.
const MaxPort = 65535

// ProbeBind binds a TCP listener on the wildcard address at port and
// releases it immediately. A nil error means the port was free.
func ProbeBind(port int) error {
	listener, err := net.Listen("tcp", net.JoinHostPort("", strconv.Itoa(port)))
	if err != nil {
		return err
	}
	return listener.Close()
}

// Negotiator assigns ports. The zero value is ready to use and probes
// with [ProbeBind].
type Negotiator struct {
	// Logger receives warnings for inconclusive probes and scan
	// results. Nil discards them.
	Logger *slog.Logger

	// Probe overrides [ProbeBind], for tests.
	Probe func(port int) error

	assigned map[int]string
}

// Negotiate returns the port the component called name should use.
// With pinned set, port is returned as-is when free and
// [ErrPortInUse] otherwise. Without it, the first free port at or
// above port is returned.
func (n *Negotiator) Negotiate(name string, port int, pinned bool) (int, error) {
	if port < 1 || port > MaxPort {
		return 0, fmt.Errorf("%s port %d out of range [1, %d]", name, port, MaxPort)
	}

	if n.available(name, port) {
		n.assign(name, port)
		return port, nil
	}
	if pinned {
		return 0, fmt.Errorf("%s port %d (explicitly configured): %w", name, port, ErrPortInUse)
	}

	for candidate := port + 1; candidate <= MaxPort; candidate++ {
		if n.available(name, candidate) {
			n.logger().Info("default port occupied, using next free port",
				"component", name,
				"requested", port,
				"port", candidate,
			)
			n.assign(name, candidate)
			return candidate, nil
		}
	}
	return 0, fmt.Errorf("%s port scan from %d: %w", name, port, ErrPortRangeExhausted)
}

func (n *Negotiator) available(name string, port int) bool {
	if owner, taken := n.assigned[port]; taken {
		n.logger().Debug("port already assigned", "component", name, "port", port, "owner", owner)
		return false
	}

	probe := n.Probe
	if probe == nil {
		probe = ProbeBind
	}
	err := probe(port)
	switch {
	case err == nil:
		return true
	case errors.Is(err, unix.EADDRINUSE):
		return false
	default:
		n.logger().Warn("port probe inconclusive, assuming available",
			"component", name,
			"port", port,
			"error", err,
		)
		return true
	}
}

func (n *Negotiator) assign(name string, port int) {
	if n.assigned == nil {
		n.assigned = make(map[int]string)
	}
	n.assigned[port] = name
}

func (n *Negotiator) logger() *slog.Logger {
	if n.Logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return n.Logger
}
