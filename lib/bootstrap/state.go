// Copyright 2026 The gramine-web3-wallet-docker Authors
// SPDX-License-Identifier: Apache-2.0

package bootstrap

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// Marker files inside the data directory.
const (
	// StorageMarker is the InnoDB system tablespace. Its presence means
	// the directory holds an initialized database.
	StorageMarker = "ibdata1"

	// SentinelFile records that the launcher has completed first-boot
	// handling for this directory.
	SentinelFile = ".mysql_initialized"

	// MaterializingMarker exists while the template is being copied.
	MaterializingMarker = ".materializing"
)

// State is the bootstrap state of a data directory.
type State int

const (
	Empty State = iota
	FirstBoot
	Warm
)

func (s State) String() string {
	switch s {
	case Empty:
		return "empty"
	case FirstBoot:
		return "first-boot"
	case Warm:
		return "warm"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Inspect classifies dataDir. A missing directory is Empty.
func Inspect(dataDir string) (State, error) {
	partial, err := exists(filepath.Join(dataDir, MaterializingMarker))
	if err != nil {
		return Empty, err
	}
	if partial {
		return Empty, nil
	}

	populated, err := exists(filepath.Join(dataDir, StorageMarker))
	if err != nil {
		return Empty, err
	}
	if !populated {
		return Empty, nil
	}

	initialized, err := exists(filepath.Join(dataDir, SentinelFile))
	if err != nil {
		return Empty, err
	}
	if initialized {
		return Warm, nil
	}
	return FirstBoot, nil
}

func exists(path string) (bool, error) {
	_, err := os.Lstat(path)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	return false, fmt.Errorf("checking %s: %w", path, err)
}
