// Copyright 2026 The gramine-web3-wallet-docker Authors
// SPDX-License-Identifier: Apache-2.0

package launch

import (
	"fmt"
	"log/slog"
	"path/filepath"

	"golang.org/x/sys/unix"

	"github.com/mccoysc/gramine-web3-wallet-docker/lib/binhash"
	"github.com/mccoysc/gramine-web3-wallet-docker/lib/codec"
	"github.com/mccoysc/gramine-web3-wallet-docker/lib/process"
	"github.com/mccoysc/gramine-web3-wallet-docker/lib/watchdog"
)

// Identity is recorded in the handoff record alongside the plan.
type Identity struct {
	ServerID  uint32
	GroupName string
	MySQLPort int
	GroupPort int
}

// Launcher hands the process over to the engine.
type Launcher struct {
	// StateDir receives the handoff record. Empty skips the record.
	StateDir string

	Logger *slog.Logger

	// execFunc replaces unix.Exec in tests.
	execFunc func(binary string, argv []string, env []string) error
}

// Exec writes the handoff record and replaces the process with the
// engine. It returns only if execve fails, after clearing the record.
func (l *Launcher) Exec(plan Plan, identity Identity) error {
	logger := l.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	recordPath := ""
	if l.StateDir != "" {
		recordPath = filepath.Join(l.StateDir, watchdog.FileName)
		record := watchdog.State{
			EnginePath: plan.Binary,
			Arguments:  plan.Arguments,
			ServerID:   identity.ServerID,
			GroupName:  identity.GroupName,
			MySQLPort:  identity.MySQLPort,
			GroupPort:  identity.GroupPort,
			Timestamp:  codec.Now(),
		}
		if digest, err := binhash.HashFile(plan.Binary); err != nil {
			logger.Warn("could not hash engine binary", "path", plan.Binary, "error", err)
		} else {
			record.EngineDigest = digest.String()
		}
		if err := watchdog.Write(recordPath, record); err != nil {
			logger.Warn("could not write handoff record", "path", recordPath, "error", err)
			recordPath = ""
		}
	}

	logger.Info("starting engine",
		"binary", plan.Binary,
		"arguments", plan.Arguments[1:],
		"library", plan.Library,
	)
	process.SyncStderr()

	execFunction := l.execFunc
	if execFunction == nil {
		execFunction = unix.Exec
	}
	err := execFunction(plan.Binary, plan.Arguments, plan.Environ)

	if recordPath != "" {
		if clearErr := watchdog.Clear(recordPath); clearErr != nil {
			logger.Warn("clearing handoff record after exec failure", "path", recordPath, "error", clearErr)
		}
	}
	return fmt.Errorf("exec %s: %w", plan.Binary, err)
}
