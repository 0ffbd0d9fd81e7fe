// Copyright 2026 The gramine-web3-wallet-docker Authors
// SPDX-License-Identifier: Apache-2.0

package bootstrap

import (
	"fmt"
	"strings"
	"time"
)

// InitScriptFile is the initialization script inside the data
// directory, passed to the engine as --init-file.
const InitScriptFile = "init_users.sql"

// ActionSchema holds the scheduled events the script registers.
const ActionSchema = "ratls_launcher"

// DefaultActionDelay is how long after the script runs the scheduled
// replication start fires.
const DefaultActionDelay = 15 * time.Second

// LegacyRootHosts are the hosts whose root account is dropped.
var LegacyRootHosts = []string{"%", "127.0.0.1", "::1", "localhost"}

// ScriptOptions selects the optional sections of the initialization
// script.
type ScriptOptions struct {
	// Replication registers the recovery channel credentials and the
	// scheduled START GROUP_REPLICATION.
	Replication bool

	// Bootstrap turns group_replication_bootstrap_group on before the
	// scheduled start and off again afterwards. Ignored without
	// Replication.
	Bootstrap bool

	// ActionDelay overrides DefaultActionDelay when positive.
	ActionDelay time.Duration
}

// Script returns the initialization script. Every statement is on its
// own line and is safe to run on every start.
func Script(options ScriptOptions) string {
	delay := options.ActionDelay
	if delay <= 0 {
		delay = DefaultActionDelay
	}
	seconds := int(delay.Round(time.Second) / time.Second)
	if seconds < 1 {
		seconds = 1
	}

	var lines []string
	add := func(format string, arguments ...any) {
		lines = append(lines, fmt.Sprintf(format, arguments...))
	}

	// Nothing below may reach the binary log: a joining member with
	// local transactions the group has not seen is refused.
	add("SET SQL_LOG_BIN=0;")

	for _, principal := range []struct {
		user  string
		grant string
	}{
		{"app", "GRANT ALL PRIVILEGES ON *.* TO 'app'@'%' WITH GRANT OPTION;"},
		{"reader", "GRANT SELECT ON *.* TO 'reader'@'%';"},
	} {
		add("CREATE USER IF NOT EXISTS '%s'@'%%' REQUIRE X509;", principal.user)
		add("ALTER USER '%s'@'%%' IDENTIFIED BY '' REQUIRE X509;", principal.user)
		lines = append(lines, principal.grant)
	}

	for _, host := range LegacyRootHosts {
		add("DROP USER IF EXISTS 'root'@'%s';", host)
	}

	if options.Replication {
		add("CHANGE REPLICATION SOURCE TO SOURCE_USER='app' FOR CHANNEL 'group_replication_recovery';")
		add("CREATE DATABASE IF NOT EXISTS %s;", ActionSchema)
		add("DROP EVENT IF EXISTS %s.start_group_replication;", ActionSchema)
		add("DROP EVENT IF EXISTS %s.end_group_bootstrap;", ActionSchema)
		if options.Bootstrap {
			add("SET GLOBAL group_replication_bootstrap_group=ON;")
		}
		add("CREATE EVENT %s.start_group_replication ON SCHEDULE AT CURRENT_TIMESTAMP + INTERVAL %d SECOND ON COMPLETION NOT PRESERVE DO START GROUP_REPLICATION;",
			ActionSchema, seconds)
		if options.Bootstrap {
			add("CREATE EVENT %s.end_group_bootstrap ON SCHEDULE AT CURRENT_TIMESTAMP + INTERVAL %d SECOND ON COMPLETION NOT PRESERVE DO SET GLOBAL group_replication_bootstrap_group=OFF;",
				ActionSchema, seconds*2)
		}
	}

	add("SET SQL_LOG_BIN=1;")
	return strings.Join(lines, "\n") + "\n"
}
