// Copyright 2026 The gramine-web3-wallet-docker Authors
// SPDX-License-Identifier: Apache-2.0

package identity

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/mccoysc/gramine-web3-wallet-docker/lib/atomicfile"
)

// File names inside the state directory.
const (
	ServerIDFile  = "server_id"
	GroupNameFile = "group_name"
)

// Origin records which step of the cascade produced a value.
type Origin int

const (
	FromOverride Origin = iota
	FromStorage
	FromGenerated
)

func (o Origin) String() string {
	switch o {
	case FromOverride:
		return "override"
	case FromStorage:
		return "storage"
	case FromGenerated:
		return "generated"
	default:
		return fmt.Sprintf("Origin(%d)", int(o))
	}
}

// Store reads and persists node identity in a state directory.
type Store struct {
	// Directory holds the authoritative identity files. It is created
	// on first use.
	Directory string

	// Mirror is the operator-readable copy of the group name. Empty
	// disables the mirror.
	Mirror string

	Logger *slog.Logger
}

// ServerID resolves the node's server_id. A non-zero override wins and
// is persisted; otherwise the persisted value is reused; otherwise the
// id is derived from address and port and persisted.
func (s *Store) ServerID(override uint32, address string, port int) (uint32, Origin, error) {
	path := filepath.Join(s.Directory, ServerIDFile)

	stored, found, err := readServerID(path)
	if err != nil {
		return 0, 0, err
	}

	if override != 0 {
		if found && stored != override {
			s.logger().Warn("server_id override replaces persisted value",
				"server_id", override,
				"persisted", stored,
			)
		}
		if err := s.persist(path, strconv.FormatUint(uint64(override), 10)); err != nil {
			return 0, 0, err
		}
		return override, FromOverride, nil
	}

	if found {
		return stored, FromStorage, nil
	}

	derived := DeriveServerID(address, port)
	if err := s.persist(path, strconv.FormatUint(uint64(derived), 10)); err != nil {
		return 0, 0, err
	}
	return derived, FromGenerated, nil
}

func readServerID(path string) (uint32, bool, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("reading persisted server_id: %w", err)
	}
	value, err := strconv.ParseUint(strings.TrimSpace(string(data)), 10, 32)
	if err != nil || value == 0 {
		return 0, false, fmt.Errorf("persisted server_id in %s is invalid: %q", path, strings.TrimSpace(string(data)))
	}
	return uint32(value), true, nil
}

// GroupName resolves the group name. overrides are given in
// precedence order; the first non-empty one wins and is persisted.
// Otherwise the persisted name is reused; otherwise a new one is
// generated and persisted. Invalid overrides or an invalid persisted
// name fail with [ErrInvalidGroupName]. The mirror is refreshed on
// every successful resolution.
func (s *Store) GroupName(overrides ...string) (string, Origin, error) {
	path := filepath.Join(s.Directory, GroupNameFile)

	stored, found, err := readGroupName(path)
	if err != nil {
		return "", 0, err
	}

	name, origin := stored, FromStorage
	override := firstNonEmpty(overrides)
	switch {
	case override != "":
		name, err = CanonicalGroupName(override)
		if err != nil {
			return "", 0, fmt.Errorf("group name override: %w", err)
		}
		if found && stored != name {
			s.logger().Warn("group name override replaces persisted value",
				"group_name", name,
				"persisted", stored,
			)
		}
		origin = FromOverride
	case !found:
		name, origin = NewGroupName(), FromGenerated
	}

	if origin != FromStorage {
		if err := s.persist(path, name); err != nil {
			return "", 0, err
		}
	}
	s.writeMirror(name)
	return name, origin, nil
}

func readGroupName(path string) (string, bool, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("reading persisted group name: %w", err)
	}
	name, err := CanonicalGroupName(string(data))
	if err != nil {
		return "", false, fmt.Errorf("persisted group name in %s: %w", path, err)
	}
	return name, true, nil
}

func firstNonEmpty(values []string) string {
	for _, value := range values {
		if strings.TrimSpace(value) != "" {
			return value
		}
	}
	return ""
}

func (s *Store) persist(path, value string) error {
	if err := os.MkdirAll(s.Directory, 0700); err != nil {
		return fmt.Errorf("creating state directory: %w", err)
	}
	if err := atomicfile.WriteString(path, value+"\n", 0600); err != nil {
		return fmt.Errorf("persisting %s: %w", filepath.Base(path), err)
	}
	return nil
}

func (s *Store) writeMirror(name string) {
	if s.Mirror == "" {
		return
	}
	if err := os.MkdirAll(filepath.Dir(s.Mirror), 0755); err != nil {
		s.logger().Warn("cannot create group name mirror directory", "path", s.Mirror, "error", err)
		return
	}
	if err := atomicfile.WriteString(s.Mirror, name+"\n", 0644); err != nil {
		s.logger().Warn("cannot write group name mirror", "path", s.Mirror, "error", err)
	}
}

func (s *Store) logger() *slog.Logger {
	if s.Logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return s.Logger
}
