// Copyright 2026 The gramine-web3-wallet-docker Authors
// SPDX-License-Identifier: Apache-2.0

package watchdog

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/mccoysc/gramine-web3-wallet-docker/lib/atomicfile"
	"github.com/mccoysc/gramine-web3-wallet-docker/lib/codec"
)

// FileName is the name of the handoff record inside the state directory.
const FileName = "handoff.cbor"

// DefaultMaxAge is how recent a record must be for [Check] to report
// it as a rapid restart.
const DefaultMaxAge = 2 * time.Minute

// State describes one handoff to the database engine.
type State struct {
	// EnginePath is the absolute path of the executable handed off to.
	EnginePath string `cbor:"engine_path"`

	// EngineDigest is the hex BLAKE3 digest of EnginePath at handoff
	// time. Empty when the binary could not be read.
	EngineDigest string `cbor:"engine_digest,omitempty"`

	// Arguments is the full argument vector, including argv[0].
	Arguments []string `cbor:"arguments"`

	ServerID  uint32 `cbor:"server_id"`
	GroupName string `cbor:"group_name,omitempty"`
	MySQLPort int    `cbor:"mysql_port"`
	GroupPort int    `cbor:"group_port"`

	// Timestamp is when the handoff was initiated.
	Timestamp time.Time `cbor:"timestamp"`
}

// Write atomically writes a handoff record with mode 0600. The parent
// directory must already exist.
func Write(path string, state State) error {
	data, err := codec.Marshal(state)
	if err != nil {
		return fmt.Errorf("encoding handoff record: %w", err)
	}
	if err := atomicfile.Write(path, data, 0600); err != nil {
		return fmt.Errorf("writing handoff record: %w", err)
	}
	return nil
}

// Read reads and decodes a handoff record. When the file does not
// exist, the returned error wraps os.ErrNotExist.
func Read(path string) (State, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return State{}, err
	}

	var state State
	if err := codec.Unmarshal(data, &state); err != nil {
		if diagnostic, diagErr := codec.Diagnose(data); diagErr == nil {
			return State{}, fmt.Errorf("parsing handoff record %s (%s): %w", path, diagnostic, err)
		}
		return State{}, fmt.Errorf("parsing handoff record %s: %w", path, err)
	}
	return state, nil
}

// Check reads a handoff record and reports whether it was written
// within maxAge of now. A missing or stale record yields a zero State
// and false. Any other error (permission denied, corrupt CBOR) is
// returned so the caller can distinguish "no record" from "record
// exists but unreadable".
func Check(path string, maxAge time.Duration) (State, bool, error) {
	state, err := Read(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return State{}, false, nil
		}
		return State{}, false, err
	}

	if time.Since(state.Timestamp) > maxAge {
		return State{}, false, nil
	}

	return state, true, nil
}

// Clear removes a handoff record. Returns nil when the file does not
// exist.
func Clear(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("removing handoff record: %w", err)
	}
	return nil
}
