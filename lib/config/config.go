// Copyright 2026 The gramine-web3-wallet-docker Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"errors"
	"fmt"

	"github.com/mccoysc/gramine-web3-wallet-docker/lib/identity"
)

// Port is a TCP port number in [1, 65535].
type Port int

// Config is the resolved launcher configuration. It is built once by
// [Resolve] and not modified afterwards.
type Config struct {
	ConfigFile string `flag:"config" env:"MYSQL_LAUNCHER_CONFIG" file:"false" expand:"true" desc:"YAML file supplying option defaults"`

	ContractAddress string `flag:"contract-address" env:"CONTRACT_ADDRESS" desc:"address of the contract holding the attestation whitelist"`
	RPCURL          string `flag:"rpc-url" env:"RPC_URL" desc:"JSON-RPC endpoint used to read the contract"`
	WhitelistConfig string `flag:"whitelist-config" env:"RATLS_WHITELIST_CONFIG" cli:"false" desc:"local attestation whitelist (base64 CSV)"`

	CertPath        string `flag:"cert-path" env:"RATLS_CERT_PATH" default:"/var/lib/mysql-ssl/server-cert.pem" expand:"true" desc:"RA-TLS certificate path"`
	KeyPath         string `flag:"key-path" env:"RATLS_KEY_PATH" cli:"false" default:"/app/wallet/mysql-keys/server-key.pem" expand:"true" desc:"RA-TLS private key path"`
	DataDir         string `flag:"data-dir" env:"MYSQL_DATA_DIR" cli:"false" default:"/app/wallet/mysql-data" expand:"true" desc:"engine data directory"`
	TemplateDir     string `flag:"template-dir" env:"MYSQL_TEMPLATE_DIR" default:"/var/lib/mysql-template" expand:"true" desc:"initialized data directory cloned on first boot"`
	StateDir        string `flag:"state-dir" env:"MYSQL_GR_STATE_DIR" default:"/app/wallet/mysql-gr" expand:"true" desc:"directory for persisted identity and generated engine config"`
	GroupNameMirror string `flag:"group-name-mirror" env:"MYSQL_GR_GROUP_NAME_MIRROR" default:"/var/lib/mysql-gr/group_name.txt" expand:"true" desc:"operator-readable copy of the group name"`
	LogDir          string `flag:"log-dir" env:"MYSQL_LOG_DIR" default:"/var/log/mysql" expand:"true" desc:"engine error log directory"`
	MySQLD          string `flag:"mysqld" env:"MYSQLD_PATH" cli:"false" default:"/usr/sbin/mysqld" expand:"true" desc:"engine binary"`
	RATLSLibrary    string `flag:"ratls-library" env:"RATLS_PRELOAD_PATH" cli:"false" expand:"true" desc:"attestation library to preload (searched when empty)"`

	RATLSEnableVerify    bool   `flag:"ratls-enable-verify" env:"RATLS_ENABLE_VERIFY" default:"true" desc:"verify peer attestation"`
	RATLSRequirePeerCert bool   `flag:"ratls-require-peer-cert" env:"RATLS_REQUIRE_PEER_CERT" default:"true" desc:"require peers to present a certificate"`
	RATLSCertAlgorithm   string `flag:"ratls-cert-algorithm" env:"RA_TLS_CERT_ALGORITHM" default:"secp256k1" desc:"RA-TLS certificate key algorithm"`

	GREnable         bool   `flag:"gr-enable" env:"MYSQL_GR_ENABLE" default:"true" desc:"enable group replication"`
	GRGroupName      string `flag:"gr-group-name" env:"MYSQL_GR_GROUP_NAME" desc:"group replication group name (UUID)"`
	GRSeeds          string `flag:"gr-seeds" env:"MYSQL_GR_SEEDS" desc:"comma-separated peer addresses"`
	GRLocalAddress   string `flag:"gr-local-address" env:"MYSQL_GR_LOCAL_ADDRESS" desc:"address advertised to peers"`
	GRBootstrap      bool   `flag:"gr-bootstrap" env:"MYSQL_GR_BOOTSTRAP" desc:"bootstrap a new group"`
	GRDetectPublicIP bool   `flag:"gr-detect-public-ip" env:"MYSQL_GR_DETECT_PUBLIC_IP" desc:"fall back to public address discovery"`
	GRDebug          bool   `flag:"gr-debug" env:"MYSQL_GR_DEBUG" desc:"enable group communication debug tracing"`
	ServerID         uint32 `flag:"server-id" env:"MYSQL_SERVER_ID" desc:"explicit server_id (derived when 0)"`
	MySQLPort        Port   `flag:"mysql-port" env:"MYSQL_PORT" default:"3306" desc:"client port"`
	GRPort           Port   `flag:"gr-port" env:"MYSQL_GR_PORT" default:"33061" desc:"group communication port"`

	Debug   bool `flag:"debug" env:"MYSQL_LAUNCHER_DEBUG" desc:"debug logging"`
	DryRun  bool `flag:"dry-run" env:"MYSQL_LAUNCHER_DRY_RUN" desc:"print the launch plan instead of starting the engine"`
	Version bool `flag:"version" file:"false" desc:"print version and exit"`

	// Passthrough holds command-line tokens destined for the engine,
	// in their original order.
	Passthrough []string

	sources map[string]Source
}

// Source identifies where an option's value came from.
type Source int

const (
	SourceDefault Source = iota
	SourceFile
	SourceCommandLine
	SourceEnvironment
)

func (s Source) String() string {
	switch s {
	case SourceDefault:
		return "default"
	case SourceFile:
		return "file"
	case SourceCommandLine:
		return "command line"
	case SourceEnvironment:
		return "environment"
	default:
		return fmt.Sprintf("Source(%d)", int(s))
	}
}

// Source reports where the named option (its flag name) was resolved
// from.
func (c *Config) Source(name string) Source {
	return c.sources[name]
}

// Explicit reports whether the named option was set by anything other
// than its compiled-in default.
func (c *Config) Explicit(name string) bool {
	return c.Source(name) != SourceDefault
}

// Validate checks cross-option constraints that no single option can
// check on its own.
func (c *Config) Validate() error {
	var errs []error

	required := []struct {
		name  string
		value string
	}{
		{"data-dir", c.DataDir},
		{"state-dir", c.StateDir},
		{"template-dir", c.TemplateDir},
		{"cert-path", c.CertPath},
		{"key-path", c.KeyPath},
		{"mysqld", c.MySQLD},
	}
	for _, option := range required {
		if option.value == "" {
			errs = append(errs, fmt.Errorf("%s is required", option.name))
		}
	}

	if c.GREnable && c.MySQLPort == c.GRPort {
		errs = append(errs, fmt.Errorf("mysql-port and gr-port must differ (both %d)", c.MySQLPort))
	}

	if c.GRGroupName != "" {
		if _, err := identity.CanonicalGroupName(c.GRGroupName); err != nil {
			errs = append(errs, fmt.Errorf("gr-group-name: %w", err))
		}
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}
