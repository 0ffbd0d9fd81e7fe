// Copyright 2026 The gramine-web3-wallet-docker Authors
// SPDX-License-Identifier: Apache-2.0

package launch

import (
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"strconv"
	"strings"
)

// DefaultLibraryCandidates are searched in order for the attestation
// library when no explicit path is configured.
var DefaultLibraryCandidates = []string{
	"/usr/local/lib/x86_64-linux-gnu/libratls-quote-verify.so",
	"/usr/local/lib/libratls-quote-verify.so",
	"/usr/lib/x86_64-linux-gnu/libratls-quote-verify.so",
	"/usr/lib/libratls-quote-verify.so",
}

// ErrorLogName is the engine error log inside the log directory.
const ErrorLogName = "error.log"

// Environment variables set for the engine.
const (
	EnvPreload         = "LD_PRELOAD"
	EnvCertAlgorithm   = "RA_TLS_CERT_ALGORITHM"
	EnvEnableVerify    = "RATLS_ENABLE_VERIFY"
	EnvRequirePeerCert = "RATLS_REQUIRE_PEER_CERT"
	EnvCertPath        = "RATLS_CERT_PATH"
	EnvKeyPath         = "RATLS_KEY_PATH"
	EnvWhitelist       = "RATLS_WHITELIST_CONFIG"
	EnvLocalAddresses  = "GR_LOCAL_IP"
)

// Options are the inputs to [Assembler.Assemble].
type Options struct {
	MySQLD   string
	DataDir  string
	CertPath string
	KeyPath  string
	LogDir   string

	// OptionsFile is passed as --defaults-extra-file when set.
	OptionsFile string

	// InitScript is passed as --init-file when set.
	InitScript string

	// Port is passed as --port when positive.
	Port int

	// Passthrough is appended after the launcher-managed arguments.
	Passthrough []string

	// Library is the configured attestation library. When empty or
	// missing, the candidate list is searched.
	Library string

	CertAlgorithm   string
	EnableVerify    bool
	RequirePeerCert bool

	// Whitelist is the merged whitelist. Empty removes the variable
	// from the engine environment.
	Whitelist string

	// LocalAddresses are exported for the interface shim.
	LocalAddresses []string
}

// Plan is an assembled launch.
type Plan struct {
	Binary    string   `json:"binary"`
	Arguments []string `json:"arguments"`

	// Set holds the variables the launcher sets, and Unset the ones it
	// removes. Environ is the complete environment passed to execve.
	Set     map[string]string `json:"environment"`
	Unset   []string          `json:"unset,omitempty"`
	Environ []string          `json:"-"`

	// Library is the attestation library preloaded, if any.
	Library string `json:"library,omitempty"`
}

// Assembler builds launch plans.
type Assembler struct {
	Logger *slog.Logger

	// LibraryCandidates overrides [DefaultLibraryCandidates].
	LibraryCandidates []string
}

// Assemble builds the plan for options on top of the base environment
// environ (os.Environ form).
func (a *Assembler) Assemble(options Options, environ []string) Plan {
	logger := a.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	plan := Plan{
		Binary: options.MySQLD,
		Set:    make(map[string]string),
	}

	// mysqld only honours --defaults-extra-file as the first option.
	arguments := []string{options.MySQLD}
	if options.OptionsFile != "" {
		arguments = append(arguments, "--defaults-extra-file="+options.OptionsFile)
	}
	arguments = append(arguments,
		"--datadir="+options.DataDir,
		"--ssl-cert="+options.CertPath,
		"--ssl-key="+options.KeyPath,
		"--require-secure-transport=ON",
	)
	if options.LogDir != "" {
		if err := os.MkdirAll(options.LogDir, 0750); err != nil {
			logger.Warn("could not create log directory", "path", options.LogDir, "error", err)
		}
		arguments = append(arguments, "--log-error="+filepath.Join(options.LogDir, ErrorLogName))
	}
	if options.Port > 0 {
		arguments = append(arguments, "--port="+strconv.Itoa(options.Port))
	}
	if options.InitScript != "" {
		arguments = append(arguments, "--init-file="+options.InitScript)
	}
	plan.Arguments = append(arguments, options.Passthrough...)

	plan.Set[EnvCertAlgorithm] = options.CertAlgorithm
	plan.Set[EnvEnableVerify] = flagValue(options.EnableVerify)
	plan.Set[EnvRequirePeerCert] = flagValue(options.RequirePeerCert)
	plan.Set[EnvCertPath] = options.CertPath
	plan.Set[EnvKeyPath] = options.KeyPath

	if options.Whitelist != "" {
		plan.Set[EnvWhitelist] = options.Whitelist
	} else {
		plan.Unset = append(plan.Unset, EnvWhitelist)
	}
	if len(options.LocalAddresses) > 0 {
		plan.Set[EnvLocalAddresses] = strings.Join(options.LocalAddresses, ",")
	}

	candidates := a.LibraryCandidates
	if candidates == nil {
		candidates = DefaultLibraryCandidates
	}
	library, found := FindLibrary(options.Library, candidates)
	switch {
	case found:
		if options.Library != "" && library != options.Library {
			logger.Warn("configured attestation library not found, using search result",
				"configured", options.Library, "found", library)
		}
		logger.Info("preloading attestation library", "path", library)
		plan.Library = library
		existing, _ := lookup(environ, EnvPreload)
		plan.Set[EnvPreload] = PrependPreload(existing, library)
	default:
		logger.Warn("attestation library not found; engine starts without attestation injection",
			"configured", options.Library, "candidates", candidates)
	}

	plan.Environ = mergeEnviron(environ, plan.Set, plan.Unset)
	return plan
}

// FindLibrary returns explicit if it names an existing regular file,
// otherwise the first candidate that does.
func FindLibrary(explicit string, candidates []string) (string, bool) {
	if explicit != "" && isRegularFile(explicit) {
		return explicit, true
	}
	for _, candidate := range candidates {
		if isRegularFile(candidate) {
			return candidate, true
		}
	}
	return "", false
}

func isRegularFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

// PrependPreload puts library at the front of an LD_PRELOAD value.
// Other entries keep their order; any existing copy of library is
// dropped. The dynamic loader accepts both colons and spaces as
// separators; the result uses colons.
func PrependPreload(existing, library string) string {
	entries := []string{library}
	for _, entry := range strings.FieldsFunc(existing, func(r rune) bool { return r == ':' || r == ' ' }) {
		if entry != library && !slices.Contains(entries, entry) {
			entries = append(entries, entry)
		}
	}
	return strings.Join(entries, ":")
}

func flagValue(enabled bool) string {
	if enabled {
		return "1"
	}
	return "0"
}

func lookup(environ []string, key string) (string, bool) {
	for i := len(environ) - 1; i >= 0; i-- {
		if name, value, ok := strings.Cut(environ[i], "="); ok && name == key {
			return value, true
		}
	}
	return "", false
}

// mergeEnviron returns environ with every variable in set or unset
// removed, followed by set in key order.
func mergeEnviron(environ []string, set map[string]string, unset []string) []string {
	merged := make([]string, 0, len(environ)+len(set))
	for _, entry := range environ {
		name, _, _ := strings.Cut(entry, "=")
		if _, replaced := set[name]; replaced || slices.Contains(unset, name) {
			continue
		}
		merged = append(merged, entry)
	}
	keys := make([]string, 0, len(set))
	for key := range set {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		merged = append(merged, key+"="+set[key])
	}
	return merged
}
