// Copyright 2026 The gramine-web3-wallet-docker Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"bytes"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
)

func environment(variables map[string]string) LookupFunc {
	return func(key string) (string, bool) {
		value, ok := variables[key]
		return value, ok
	}
}

func discardLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func mustResolve(t *testing.T, args []string, variables map[string]string) *Config {
	t.Helper()
	config, err := Resolve(args, environment(variables), discardLogger())
	if err != nil {
		t.Fatalf("Resolve(%v): %v", args, err)
	}
	return config
}

func TestDefault(t *testing.T) {
	config := Default()

	if config.DataDir != "/app/wallet/mysql-data" {
		t.Errorf("DataDir = %q, want /app/wallet/mysql-data", config.DataDir)
	}
	if config.MySQLPort != 3306 || config.GRPort != 33061 {
		t.Errorf("ports = %d/%d, want 3306/33061", config.MySQLPort, config.GRPort)
	}
	if !config.GREnable || !config.RATLSEnableVerify || !config.RATLSRequirePeerCert {
		t.Error("group replication and RA-TLS verification should default to enabled")
	}
	if config.GRBootstrap {
		t.Error("bootstrap should default to false")
	}
	if config.RATLSCertAlgorithm != "secp256k1" {
		t.Errorf("RATLSCertAlgorithm = %q, want secp256k1", config.RATLSCertAlgorithm)
	}
	if config.Explicit("mysql-port") {
		t.Error("default port should not be explicit")
	}
}

func TestResolvePrecedence(t *testing.T) {
	directory := t.TempDir()
	filePath := filepath.Join(directory, "launcher.yaml")
	if err := os.WriteFile(filePath, []byte("gr-seeds: from-file:33061\n"), 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	tests := []struct {
		name       string
		args       []string
		variables  map[string]string
		want       string
		wantSource Source
	}{
		{
			name:       "default",
			want:       "",
			wantSource: SourceDefault,
		},
		{
			name:       "file",
			args:       []string{"--config", filePath},
			want:       "from-file:33061",
			wantSource: SourceFile,
		},
		{
			name:       "command line beats file",
			args:       []string{"--config", filePath, "--gr-seeds", "from-cli:33061"},
			want:       "from-cli:33061",
			wantSource: SourceCommandLine,
		},
		{
			name:       "environment beats command line",
			args:       []string{"--gr-seeds=from-cli:33061"},
			variables:  map[string]string{"MYSQL_GR_SEEDS": "from-env:33061"},
			want:       "from-env:33061",
			wantSource: SourceEnvironment,
		},
		{
			name:       "empty environment is unset",
			args:       []string{"--gr-seeds=from-cli:33061"},
			variables:  map[string]string{"MYSQL_GR_SEEDS": ""},
			want:       "from-cli:33061",
			wantSource: SourceCommandLine,
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			config := mustResolve(t, test.args, test.variables)
			if config.GRSeeds != test.want {
				t.Errorf("GRSeeds = %q, want %q", config.GRSeeds, test.want)
			}
			if got := config.Source("gr-seeds"); got != test.wantSource {
				t.Errorf("Source = %v, want %v", got, test.wantSource)
			}
		})
	}
}

func TestEnvironmentOverrideIsLogged(t *testing.T) {
	var output bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&output, nil))

	config, err := Resolve(
		[]string{"--mysql-port=3310"},
		environment(map[string]string{"MYSQL_PORT": "3320"}),
		logger,
	)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if config.MySQLPort != 3320 {
		t.Errorf("MySQLPort = %d, want 3320", config.MySQLPort)
	}
	if !strings.Contains(output.String(), "environment overrides command line") {
		t.Errorf("expected override warning, log was:\n%s", output.String())
	}
	if !strings.Contains(output.String(), "MYSQL_PORT") {
		t.Errorf("warning should name the variable, log was:\n%s", output.String())
	}
}

func TestEnvironmentMatchingCommandLineIsNotLogged(t *testing.T) {
	var output bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&output, nil))

	_, err := Resolve(
		[]string{"--gr-bootstrap=true"},
		environment(map[string]string{"MYSQL_GR_BOOTSTRAP": "1"}),
		logger,
	)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if output.Len() != 0 {
		t.Errorf("equal values should not warn, log was:\n%s", output.String())
	}
}

func TestEnvironmentOnlyOptions(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"data dir equals form", []string{"--data-dir=/tmp/evil"}},
		{"key path separate value", []string{"--key-path", "/tmp/evil.pem"}},
		{"whitelist", []string{"--whitelist-config=AAAA"}},
		{"engine binary", []string{"--mysqld=/tmp/evil"}},
		{"attestation library", []string{"--ratls-library=/tmp/evil.so"}},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			_, err := Resolve(test.args, environment(nil), discardLogger())
			if !errors.Is(err, ErrCommandLineForbidden) {
				t.Errorf("Resolve(%v) error = %v, want ErrCommandLineForbidden", test.args, err)
			}
		})
	}

	config := mustResolve(t, nil, map[string]string{
		"MYSQL_DATA_DIR": "/data",
		"RATLS_KEY_PATH": "/keys/server-key.pem",
	})
	if config.DataDir != "/data" || config.KeyPath != "/keys/server-key.pem" {
		t.Errorf("environment-only values not applied: DataDir=%q KeyPath=%q", config.DataDir, config.KeyPath)
	}
}

func TestPassthrough(t *testing.T) {
	config := mustResolve(t, []string{
		"--innodb-buffer-pool-size=256M",
		"--mysql-port", "3310",
		"-v",
		"--max-connections", "500",
		"--gr-bootstrap",
		"--",
		"--gr-seeds=literal",
	}, nil)

	want := []string{
		"--innodb-buffer-pool-size=256M",
		"-v",
		"--max-connections",
		"500",
		"--gr-seeds=literal",
	}
	if !slices.Equal(config.Passthrough, want) {
		t.Errorf("Passthrough = %q, want %q", config.Passthrough, want)
	}
	if config.MySQLPort != 3310 {
		t.Errorf("MySQLPort = %d, want 3310", config.MySQLPort)
	}
	if !config.GRBootstrap {
		t.Error("GRBootstrap should be set")
	}
	if config.GRSeeds != "" {
		t.Errorf("tokens after -- must not be parsed, GRSeeds = %q", config.GRSeeds)
	}
}

func TestEngineManagedPassthroughRejected(t *testing.T) {
	for _, token := range []string{
		"--datadir=/tmp/other",
		"--ssl_cert=/tmp/cert.pem",
		"--loose-init-file=/tmp/init.sql",
		"--defaults-extra-file=/tmp/my.cnf",
		"--require-secure-transport=OFF",
		"--ssl-key",
		"--datad=/tmp/other",
		"--data=/tmp/other",
		"--ssl-k=/tmp/key.pem",
		"--SSL_Ce=/tmp/cert.pem",
		"--loose-init-f=/tmp/init.sql",
		"--skip-require-secure-transport",
		"--disable-require-secure",
		"-h",
		"-h/tmp/other",
	} {
		t.Run(token, func(t *testing.T) {
			_, err := Resolve([]string{token}, environment(nil), discardLogger())
			if !errors.Is(err, ErrEngineManagedFlag) {
				t.Errorf("Resolve(%q) error = %v, want ErrEngineManagedFlag", token, err)
			}
		})
	}
}

func TestEngineManagedAfterSeparatorRejected(t *testing.T) {
	for _, args := range [][]string{
		{"--", "--datadir=/tmp/other"},
		{"--", "-h", "/tmp/other"},
		{"--", "--max-connections=10", "--ssl-ke=/tmp/key.pem"},
	} {
		if _, err := Resolve(args, environment(nil), discardLogger()); !errors.Is(err, ErrEngineManagedFlag) {
			t.Errorf("Resolve(%q) error = %v, want ErrEngineManagedFlag", args, err)
		}
	}
}

func TestUnrelatedEngineFlagsPassThrough(t *testing.T) {
	args := []string{
		"--ssl-ca=/etc/ca.pem",
		"--ssl",
		"--init-connect=SET NAMES utf8mb4",
		"--default-time-zone=+00:00",
		"--host-cache-size=0",
		"-v",
	}
	config := mustResolve(t, args, nil)
	if !slices.Equal(config.Passthrough, args) {
		t.Errorf("Passthrough = %q, want %q", config.Passthrough, args)
	}
}

func TestInvalidPort(t *testing.T) {
	tests := []struct {
		name      string
		args      []string
		variables map[string]string
	}{
		{"zero", []string{"--mysql-port=0"}, nil},
		{"too large", []string{"--gr-port", "65536"}, nil},
		{"not a number", []string{"--mysql-port=abc"}, nil},
		{"environment", nil, map[string]string{"MYSQL_GR_PORT": "-1"}},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			_, err := Resolve(test.args, environment(test.variables), discardLogger())
			if !errors.Is(err, ErrInvalidPort) {
				t.Errorf("error = %v, want ErrInvalidPort", err)
			}
		})
	}
}

func TestBooleanForms(t *testing.T) {
	tests := []struct {
		name      string
		args      []string
		variables map[string]string
		want      bool
		wantPass  []string
	}{
		{"bare flag", []string{"--gr-bootstrap"}, nil, true, nil},
		{"equals off", []string{"--gr-bootstrap=off"}, nil, false, nil},
		{"separate yes", []string{"--gr-bootstrap", "yes"}, nil, true, nil},
		{"separate non-boolean", []string{"--gr-bootstrap", "--skip-name-resolve"}, nil, true, []string{"--skip-name-resolve"}},
		{"environment ON", nil, map[string]string{"MYSQL_GR_BOOTSTRAP": "ON"}, true, nil},
		{"environment 0", []string{"--gr-bootstrap"}, map[string]string{"MYSQL_GR_BOOTSTRAP": "0"}, false, nil},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			config := mustResolve(t, test.args, test.variables)
			if config.GRBootstrap != test.want {
				t.Errorf("GRBootstrap = %v, want %v", config.GRBootstrap, test.want)
			}
			if !slices.Equal(config.Passthrough, test.wantPass) {
				t.Errorf("Passthrough = %q, want %q", config.Passthrough, test.wantPass)
			}
		})
	}

	if _, err := Resolve(nil, environment(map[string]string{"MYSQL_GR_ENABLE": "maybe"}), discardLogger()); err == nil {
		t.Error("invalid boolean in environment should fail")
	}
}

func TestParseBool(t *testing.T) {
	for _, value := range []string{"1", "true", "TRUE", "on", "Yes", " yes "} {
		if got, err := ParseBool(value); err != nil || !got {
			t.Errorf("ParseBool(%q) = %v, %v; want true", value, got, err)
		}
	}
	for _, value := range []string{"0", "false", "OFF", "no"} {
		if got, err := ParseBool(value); err != nil || got {
			t.Errorf("ParseBool(%q) = %v, %v; want false", value, got, err)
		}
	}
	if _, err := ParseBool(""); err == nil {
		t.Error("ParseBool(\"\") should fail")
	}
}

func TestDefaultsFile(t *testing.T) {
	directory := t.TempDir()
	filePath := filepath.Join(directory, "launcher.yaml")
	content := `
gr-seeds:
  - 10.0.0.1
  - 10.0.0.2:33062
mysql-port: 3310
gr-bootstrap: true
state-dir: ${BASE}/state
`
	if err := os.WriteFile(filePath, []byte(content), 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	config := mustResolve(t, []string{"--mysql-port=3311"}, map[string]string{
		"MYSQL_LAUNCHER_CONFIG": filePath,
		"BASE":                  "/srv/node",
	})

	if config.GRSeeds != "10.0.0.1,10.0.0.2:33062" {
		t.Errorf("GRSeeds = %q, want sequence joined with commas", config.GRSeeds)
	}
	if config.MySQLPort != 3311 {
		t.Errorf("MySQLPort = %d, want command-line 3311", config.MySQLPort)
	}
	if !config.GRBootstrap || config.Source("gr-bootstrap") != SourceFile {
		t.Errorf("GRBootstrap = %v from %v, want true from file", config.GRBootstrap, config.Source("gr-bootstrap"))
	}
	if config.StateDir != "/srv/node/state" {
		t.Errorf("StateDir = %q, want expanded /srv/node/state", config.StateDir)
	}
	if !config.Explicit("mysql-port") {
		t.Error("mysql-port should be explicit")
	}
	if config.Explicit("gr-port") {
		t.Error("gr-port was not set anywhere and should not be explicit")
	}
}

func TestDefaultsFileRejects(t *testing.T) {
	tests := []struct {
		name    string
		content string
		target  error
	}{
		{"environment-only key", "data-dir: /tmp/evil\n", ErrCommandLineForbidden},
		{"unknown key", "no-such-option: 1\n", nil},
		{"file-forbidden key", "version: true\n", nil},
		{"bad port", "gr-port: 99999\n", ErrInvalidPort},
		{"nested map", "gr-seeds:\n  host: a\n", nil},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			filePath := filepath.Join(t.TempDir(), "launcher.yaml")
			if err := os.WriteFile(filePath, []byte(test.content), 0644); err != nil {
				t.Fatalf("WriteFile: %v", err)
			}
			_, err := Resolve([]string{"--config=" + filePath}, environment(nil), discardLogger())
			if err == nil {
				t.Fatal("Resolve should fail")
			}
			if test.target != nil && !errors.Is(err, test.target) {
				t.Errorf("error = %v, want %v", err, test.target)
			}
		})
	}
}

func TestDefaultsFileMissing(t *testing.T) {
	_, err := Resolve([]string{"--config", filepath.Join(t.TempDir(), "absent.yaml")}, environment(nil), discardLogger())
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("error = %v, want os.ErrNotExist", err)
	}
}

func TestServerIDOverride(t *testing.T) {
	config := mustResolve(t, []string{"--server-id=4294967295"}, nil)
	if config.ServerID != 4294967295 {
		t.Errorf("ServerID = %d, want 4294967295", config.ServerID)
	}
	if _, err := Resolve([]string{"--server-id=4294967296"}, environment(nil), discardLogger()); err == nil {
		t.Error("server id beyond uint32 should fail")
	}
}

func TestExpandVars(t *testing.T) {
	tests := []struct {
		input    string
		vars     map[string]string
		expected string
	}{
		{"${HOME}/mysql", map[string]string{"HOME": "/home/user"}, "/home/user/mysql"},
		{"${MISSING:-default}", nil, "default"},
		{"${PRESENT:-default}", map[string]string{"PRESENT": "value"}, "value"},
		{"${A}/${B}", map[string]string{"A": "first", "B": "second"}, "first/second"},
		{"${EMPTY}", map[string]string{"EMPTY": ""}, ""},
		{"no variables here", nil, "no variables here"},
	}

	for _, test := range tests {
		if result := expandVars(test.input, environment(test.vars)); result != test.expected {
			t.Errorf("expandVars(%q) = %q, want %q", test.input, result, test.expected)
		}
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr bool
	}{
		{"valid default config", func(c *Config) {}, false},
		{"empty data dir", func(c *Config) { c.DataDir = "" }, true},
		{"empty engine path", func(c *Config) { c.MySQLD = "" }, true},
		{"equal ports", func(c *Config) { c.GRPort = c.MySQLPort }, true},
		{"equal ports without replication", func(c *Config) { c.GRPort = c.MySQLPort; c.GREnable = false }, false},
		{"group name not a UUID", func(c *Config) { c.GRGroupName = "my-cluster" }, true},
		{"group name uppercase UUID", func(c *Config) { c.GRGroupName = "AAAAAAAA-BBBB-4CCC-8DDD-EEEEEEEEEEEE" }, false},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			config := Default()
			test.modify(config)
			err := config.Validate()
			if (err != nil) != test.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, test.wantErr)
			}
		})
	}
}

func TestValidateCollectsAllErrors(t *testing.T) {
	config := Default()
	config.DataDir = ""
	config.StateDir = ""
	err := config.Validate()
	if err == nil {
		t.Fatal("Validate should fail")
	}
	for _, name := range []string{"data-dir", "state-dir"} {
		if !strings.Contains(err.Error(), name) {
			t.Errorf("error %q should mention %s", err, name)
		}
	}
}
