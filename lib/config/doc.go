// Copyright 2026 The gramine-web3-wallet-docker Authors
// SPDX-License-Identifier: Apache-2.0

// Package config resolves the launcher's configuration from compiled-in
// defaults, an optional YAML defaults file, the command line, and the
// environment.
//
// Every option is declared once, as a tagged field of [Config]:
//
//   - flag:"name" -- the long command-line flag and defaults-file key
//   - env:"NAME" -- the environment variable
//   - default:"value" -- the compiled-in default
//   - desc:"text" -- help text
//   - cli:"false" -- environment only: rejected on the command line
//     and in the defaults file
//   - file:"false" -- not accepted in the defaults file
//   - expand:"true" -- ${VAR} and ${VAR:-default} are expanded after
//     resolution
//
// One reflective loop turns the tags into a pflag.FlagSet, so adding
// an option is a one-line change.
//
// # Precedence
//
// From lowest to highest: default, defaults file, command line,
// environment. The environment winning over the command line is
// deliberate and kept for compatibility with existing deployments,
// which set everything through container environment variables; an
// environment value replacing a different command-line value is
// logged at Warn. Empty environment variables are treated as unset.
//
// Security-sensitive paths (private key, data directory, engine binary,
// attestation library) and the raw whitelist blob are environment
// only. Anyone who can influence launch arguments should not be able to
// redirect secret material; such attempts fail with
// [ErrCommandLineForbidden].
//
// # Pass-through
//
// Tokens that are not launcher options are collected verbatim in
// [Config].Passthrough and appended to the engine's argument vector.
// Everything after a bare "--" passes through unconditionally. Flags
// the launcher manages itself (--datadir, --ssl-cert and so on) are
// rejected with [ErrEngineManagedFlag]: mysqld honours the last
// occurrence of a flag, so a pass-through copy would override the
// launcher's value.
//
// Each option remembers the [Source] it was resolved from, so callers
// can tell an explicit port from a default one.
package config
