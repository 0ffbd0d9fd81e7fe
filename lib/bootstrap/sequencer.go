// Copyright 2026 The gramine-web3-wallet-docker Authors
// SPDX-License-Identifier: Apache-2.0

package bootstrap

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/mccoysc/gramine-web3-wallet-docker/lib/atomicfile"
)

// Sequencer prepares one data directory. Concurrent sequencers on the
// same directory are not safe; callers serialize per directory.
type Sequencer struct {
	TemplateDir string
	DataDir     string

	Script ScriptOptions

	Logger *slog.Logger
}

// Result reports what Run did.
type Result struct {
	// State is the state the data directory was found in.
	State State

	// InitScript is the path of the written initialization script, or
	// empty if it could not be written.
	InitScript string
}

// Run brings the data directory to the Warm state and regenerates the
// initialization script.
func (s *Sequencer) Run() (Result, error) {
	state, err := Inspect(s.DataDir)
	if err != nil {
		return Result{}, err
	}
	s.Logger.Info("data directory state", "data_dir", s.DataDir, "state", state.String())

	switch state {
	case Empty:
		if err := Materialize(s.TemplateDir, s.DataDir, s.Logger); err != nil {
			return Result{State: state}, err
		}
		if err := s.writeSentinel(); err != nil {
			return Result{State: state}, err
		}
	case FirstBoot:
		if err := s.writeSentinel(); err != nil {
			return Result{State: state}, err
		}
	case Warm:
		if s.Script.Replication && s.Script.Bootstrap {
			s.Logger.Warn("bootstrapping a new group from an initialized data directory; "+
				"if any other member of this group is running this creates a second group",
				"data_dir", s.DataDir)
		}
	}

	return Result{State: state, InitScript: s.writeScript()}, nil
}

func (s *Sequencer) writeSentinel() error {
	path := filepath.Join(s.DataDir, SentinelFile)
	content := fmt.Sprintf("initialized by mysql-ratls-launcher at %s\n", time.Now().UTC().Format(time.RFC3339))
	if err := atomicfile.WriteString(path, content, 0644); err != nil {
		return fmt.Errorf("writing sentinel: %w", err)
	}
	s.Logger.Info("wrote first-boot sentinel", "path", path)
	return nil
}

// writeScript returns the script path, or "" after logging the failure.
func (s *Sequencer) writeScript() string {
	path := filepath.Join(s.DataDir, InitScriptFile)
	if err := atomicfile.WriteString(path, Script(s.Script), 0600); err != nil {
		s.Logger.Warn("could not write initialization script; engine will start without it",
			"path", path, "error", err)
		os.Remove(path)
		return ""
	}
	s.Logger.Debug("wrote initialization script",
		"path", path,
		"replication", s.Script.Replication,
		"bootstrap", s.Script.Bootstrap,
	)
	return path
}
