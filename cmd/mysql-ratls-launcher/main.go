// Copyright 2026 The gramine-web3-wallet-docker Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/mccoysc/gramine-web3-wallet-docker/lib/bootstrap"
	"github.com/mccoysc/gramine-web3-wallet-docker/lib/config"
	"github.com/mccoysc/gramine-web3-wallet-docker/lib/identity"
	"github.com/mccoysc/gramine-web3-wallet-docker/lib/launch"
	"github.com/mccoysc/gramine-web3-wallet-docker/lib/ledger"
	"github.com/mccoysc/gramine-web3-wallet-docker/lib/netutil"
	"github.com/mccoysc/gramine-web3-wallet-docker/lib/process"
	"github.com/mccoysc/gramine-web3-wallet-docker/lib/replication"
	"github.com/mccoysc/gramine-web3-wallet-docker/lib/version"
	"github.com/mccoysc/gramine-web3-wallet-docker/lib/watchdog"
	"github.com/mccoysc/gramine-web3-wallet-docker/lib/whitelist"
)

func main() {
	if err := run(os.Args[1:], os.LookupEnv, os.Environ(), os.Stdout); err != nil {
		process.Fatal(err)
	}
}

// dryRunPlan is printed to stdout by --dry-run.
type dryRunPlan struct {
	launch.Plan

	ServerID     uint32 `json:"server_id"`
	GroupName    string `json:"group_name,omitempty"`
	MySQLPort    int    `json:"mysql_port"`
	GroupPort    int    `json:"group_port,omitempty"`
	DataDirState string `json:"data_dir_state"`
}

func run(args []string, lookupEnv config.LookupFunc, environ []string, stdout io.Writer) error {
	cfg, err := config.Resolve(args, lookupEnv, process.NewLogger(os.Stderr, false))
	if err != nil {
		return err
	}
	if cfg.Version {
		fmt.Fprintf(stdout, "mysql-ratls-launcher %s\n", version.Info())
		return nil
	}

	logger := process.NewLogger(os.Stderr, cfg.Debug)
	slog.SetDefault(logger)
	logger.Info("mysql-ratls-launcher starting", "version", version.Info(), "dry_run", cfg.DryRun)

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	// Peers listen on the configured group port; a local port scan
	// does not move them.
	seeds := replication.BuildSeeds(cfg.GRSeeds, int(cfg.GRPort))
	if err := replication.ValidateJoin(cfg.GREnable, cfg.GRBootstrap, seeds); err != nil {
		return fmt.Errorf("joining an existing group: %w (set --gr-seeds or --gr-bootstrap)", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	negotiator := &netutil.Negotiator{Logger: logger}
	mysqlPort, err := negotiator.Negotiate("mysql", int(cfg.MySQLPort), cfg.Explicit("mysql-port"))
	if err != nil {
		return err
	}
	groupPort := 0
	if cfg.GREnable {
		groupPort, err = negotiator.Negotiate("group replication", int(cfg.GRPort), cfg.Explicit("gr-port"))
		if err != nil {
			return err
		}
	}

	detector := &netutil.AddressDetector{Logger: logger, DetectPublic: cfg.GRDetectPublicIP}
	address := detector.Detect(ctx, cfg.GRLocalAddress)
	if cfg.GREnable && address.Advertised == "" {
		return fmt.Errorf("group replication needs a local address: set --gr-local-address or --gr-detect-public-ip")
	}
	logger.Info("local address", "advertised", address.Advertised, "all", address.All)

	checkPreviousHandoff(filepath.Join(cfg.StateDir, watchdog.FileName), logger)

	store := &identity.Store{
		Directory: cfg.StateDir,
		Mirror:    cfg.GroupNameMirror,
		Logger:    logger,
	}
	identityPort := mysqlPort
	if cfg.GREnable {
		identityPort = groupPort
	}
	serverID, origin, err := store.ServerID(cfg.ServerID, address.Advertised, identityPort)
	if err != nil {
		return fmt.Errorf("server_id: %w", err)
	}
	logger.Info("server_id resolved", "server_id", serverID, "origin", origin.String())

	engineOptions := replication.EngineOptions{
		ServerID:   serverID,
		Port:       mysqlPort,
		ReportHost: address.Advertised,
	}
	groupName := ""
	if cfg.GREnable {
		groupName, origin, err = store.GroupName(cfg.GRGroupName)
		if err != nil {
			return fmt.Errorf("group name: %w", err)
		}
		logger.Info("group name resolved", "group_name", groupName, "origin", origin.String())
		if origin == identity.FromGenerated && !cfg.GRBootstrap {
			logger.Warn("generated a new group name while joining; it must match the group's name or the join will fail",
				"group_name", groupName, "seeds", seeds)
		}
		engineOptions.Group = &replication.GroupOptions{
			Name:         groupName,
			LocalAddress: address.Advertised,
			Port:         groupPort,
			Seeds:        seeds,
			CertPath:     cfg.CertPath,
			KeyPath:      cfg.KeyPath,
			Debug:        cfg.GRDebug,
		}
	}

	if err := os.MkdirAll(cfg.StateDir, 0700); err != nil {
		return fmt.Errorf("creating state directory: %w", err)
	}
	optionsFile := filepath.Join(cfg.StateDir, replication.OptionsFileName)
	if err := replication.WriteEngineOptions(optionsFile, engineOptions); err != nil {
		return err
	}
	logger.Info("wrote engine option file", "path", optionsFile)

	mergedWhitelist := whitelist.MergeEncoded(cfg.WhitelistConfig, contractWhitelist(ctx, cfg, logger), logger)

	sequencer := &bootstrap.Sequencer{
		TemplateDir: cfg.TemplateDir,
		DataDir:     cfg.DataDir,
		Script: bootstrap.ScriptOptions{
			Replication: cfg.GREnable,
			Bootstrap:   cfg.GRBootstrap,
		},
		Logger: logger,
	}
	result, err := sequencer.Run()
	if err != nil {
		return fmt.Errorf("preparing data directory: %w", err)
	}

	assembler := &launch.Assembler{Logger: logger}
	plan := assembler.Assemble(launch.Options{
		MySQLD:          cfg.MySQLD,
		DataDir:         cfg.DataDir,
		CertPath:        cfg.CertPath,
		KeyPath:         cfg.KeyPath,
		LogDir:          cfg.LogDir,
		OptionsFile:     optionsFile,
		InitScript:      result.InitScript,
		Port:            mysqlPort,
		Passthrough:     cfg.Passthrough,
		Library:         cfg.RATLSLibrary,
		CertAlgorithm:   cfg.RATLSCertAlgorithm,
		EnableVerify:    cfg.RATLSEnableVerify,
		RequirePeerCert: cfg.RATLSRequirePeerCert,
		Whitelist:       mergedWhitelist,
		LocalAddresses:  address.All,
	}, environ)

	if cfg.DryRun {
		encoder := json.NewEncoder(stdout)
		encoder.SetIndent("", "  ")
		return encoder.Encode(dryRunPlan{
			Plan:         plan,
			ServerID:     serverID,
			GroupName:    groupName,
			MySQLPort:    mysqlPort,
			GroupPort:    groupPort,
			DataDirState: result.State.String(),
		})
	}

	launcher := &launch.Launcher{StateDir: cfg.StateDir, Logger: logger}
	return launcher.Exec(plan, launch.Identity{
		ServerID:  serverID,
		GroupName: groupName,
		MySQLPort: mysqlPort,
		GroupPort: groupPort,
	})
}

// contractWhitelist reads the on-chain whitelist. Every failure is
// logged and yields "".
func contractWhitelist(ctx context.Context, cfg *config.Config, logger *slog.Logger) string {
	switch {
	case cfg.ContractAddress == "" && cfg.RPCURL == "":
		logger.Debug("no contract configured; using local whitelist only")
		return ""
	case cfg.ContractAddress == "" || cfg.RPCURL == "":
		logger.Warn("contract whitelist needs both contract-address and rpc-url; using local whitelist only",
			"contract_address", cfg.ContractAddress, "rpc_url", cfg.RPCURL)
		return ""
	}

	reader := &ledger.Reader{RPCURL: cfg.RPCURL, Contract: cfg.ContractAddress}
	encoded, err := reader.Whitelist(ctx)
	if err != nil {
		logger.Warn("could not read contract whitelist; using local whitelist only",
			"contract_address", cfg.ContractAddress, "error", err)
		return ""
	}
	logger.Info("read contract whitelist", "contract_address", cfg.ContractAddress)
	return encoded
}

// checkPreviousHandoff reports a handoff record left by a launch that
// happened moments ago, which means the engine exited soon after
// starting. Any record found is removed.
func checkPreviousHandoff(path string, logger *slog.Logger) {
	state, recent, err := watchdog.Check(path, watchdog.DefaultMaxAge)
	switch {
	case err != nil:
		logger.Warn("unreadable handoff record", "path", path, "error", err)
	case recent:
		logger.Warn("engine exited shortly after the previous launch",
			"previous_launch", state.Timestamp,
			"engine", state.EnginePath,
			"engine_digest", state.EngineDigest,
			"server_id", state.ServerID,
			"mysql_port", state.MySQLPort,
		)
	}
	if err := watchdog.Clear(path); err != nil {
		logger.Warn("clearing handoff record", "path", path, "error", err)
	}
}
