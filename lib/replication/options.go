// Copyright 2026 The gramine-web3-wallet-docker Authors
// SPDX-License-Identifier: Apache-2.0

package replication

import (
	"fmt"
	"net"
	"strconv"
	"strings"

	"github.com/mccoysc/gramine-web3-wallet-docker/lib/atomicfile"
)

// OptionsFileName is the generated option file inside the state
// directory.
const OptionsFileName = "mysqld-ratls.cnf"

// EngineOptions is the content of the generated option file.
type EngineOptions struct {
	ServerID   uint32
	Port       int
	ReportHost string

	// Group is nil when group replication is disabled.
	Group *GroupOptions
}

// GroupOptions configures the group replication plugin.
type GroupOptions struct {
	Name         string
	LocalAddress string
	Port         int
	Seeds        string

	// CertPath and KeyPath authenticate distributed recovery.
	CertPath string
	KeyPath  string

	// Debug enables group communication tracing.
	Debug bool
}

// Render returns the option file text.
func (o EngineOptions) Render() string {
	var builder strings.Builder
	set := func(key, value string) {
		fmt.Fprintf(&builder, "%s=%s\n", key, value)
	}

	builder.WriteString("# Generated by mysql-ratls-launcher on every start. Do not edit.\n")
	builder.WriteString("[mysqld]\n")
	set("server_id", strconv.FormatUint(uint64(o.ServerID), 10))
	set("port", strconv.Itoa(o.Port))
	if o.ReportHost != "" {
		set("report_host", o.ReportHost)
		set("report_port", strconv.Itoa(o.Port))
	}
	set("gtid_mode", "ON")
	set("enforce_gtid_consistency", "ON")
	set("log_bin", "binlog")
	set("log_replica_updates", "ON")
	set("binlog_format", "ROW")
	set("event_scheduler", "ON")

	if group := o.Group; group != nil {
		builder.WriteString("\n# Group replication\n")
		set("disabled_storage_engines", `"MyISAM,BLACKHOLE,FEDERATED,ARCHIVE,MEMORY"`)
		set("plugin_load_add", "group_replication.so")
		set("loose-group_replication_group_name", group.Name)
		set("loose-group_replication_local_address", net.JoinHostPort(group.LocalAddress, strconv.Itoa(group.Port)))
		if group.Seeds != "" {
			set("loose-group_replication_group_seeds", group.Seeds)
		}
		set("loose-group_replication_start_on_boot", "OFF")
		set("loose-group_replication_bootstrap_group", "OFF")
		set("loose-group_replication_single_primary_mode", "OFF")
		set("loose-group_replication_enforce_update_everywhere_checks", "ON")
		set("loose-group_replication_ssl_mode", "REQUIRED")
		set("loose-group_replication_recovery_use_ssl", "ON")
		set("loose-group_replication_recovery_ssl_cert", group.CertPath)
		set("loose-group_replication_recovery_ssl_key", group.KeyPath)
		if group.Debug {
			set("loose-group_replication_communication_debug_options", "GCS_DEBUG_ALL")
		}
	}
	return builder.String()
}

// WriteEngineOptions atomically writes the rendered option file to path.
func WriteEngineOptions(path string, options EngineOptions) error {
	if err := atomicfile.WriteString(path, options.Render(), 0600); err != nil {
		return fmt.Errorf("writing engine option file: %w", err)
	}
	return nil
}
