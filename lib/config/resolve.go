// Copyright 2026 The gramine-web3-wallet-docker Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"
	"strconv"
	"strings"

	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"
)

// LookupFunc retrieves an environment variable. [os.LookupEnv]
// satisfies it.
type LookupFunc func(key string) (string, bool)

// engineManagedFlags are engine options the launcher always sets.
var engineManagedFlags = []string{
	"datadir",
	"ssl-cert",
	"ssl-key",
	"init-file",
	"defaults-extra-file",
	"require-secure-transport",
}

// Default returns a Config holding every option's compiled-in default.
func Default() *Config {
	config, _, _, err := newConfig()
	if err != nil {
		panic(fmt.Sprintf("config.Default: %v", err))
	}
	return config
}

func newConfig() (*Config, *pflag.FlagSet, []*option, error) {
	config := &Config{sources: make(map[string]Source)}
	flagSet := pflag.NewFlagSet("mysql-ratls-launcher", pflag.ContinueOnError)
	flagSet.SetOutput(io.Discard)
	options, err := bindOptions(config, flagSet)
	if err != nil {
		return nil, nil, nil, err
	}
	return config, flagSet, options, nil
}

// Resolve builds the configuration from args (without the program
// name) and the environment. It fails before touching any persistent
// state on malformed values, forbidden command-line options, unknown
// defaults-file keys, and engine-managed pass-through flags.
func Resolve(args []string, lookupEnv LookupFunc, logger *slog.Logger) (*Config, error) {
	config, flagSet, options, err := newConfig()
	if err != nil {
		return nil, err
	}
	byName := make(map[string]*option, len(options))
	for _, option := range options {
		byName[option.name] = option
	}

	launcherArguments, passthrough, err := splitArguments(args, byName)
	if err != nil {
		return nil, err
	}
	config.Passthrough = passthrough

	if err := flagSet.Parse(launcherArguments); err != nil {
		return nil, fmt.Errorf("parsing command line: %w", err)
	}
	for _, option := range options {
		if option.flag.Changed {
			config.sources[option.name] = SourceCommandLine
		}
	}

	environment := func(key string) (string, bool) {
		value, ok := lookupEnv(key)
		return value, ok && value != ""
	}

	filePath := config.ConfigFile
	if value, ok := environment(byName["config"].env); ok {
		filePath = value
	}
	if filePath = expandVars(filePath, environment); filePath != "" {
		if err := loadFile(filePath, config, byName); err != nil {
			return nil, err
		}
		logger.Debug("loaded defaults file", "path", filePath)
	}

	for _, option := range options {
		if option.env == "" {
			continue
		}
		value, ok := environment(option.env)
		if !ok {
			continue
		}
		previous := option.flag.Value.String()
		if err := option.flag.Value.Set(value); err != nil {
			return nil, fmt.Errorf("%s: %w", option.env, err)
		}
		if config.sources[option.name] == SourceCommandLine && option.flag.Value.String() != previous {
			logger.Warn("environment overrides command line",
				"option", option.name,
				"variable", option.env,
			)
		}
		config.sources[option.name] = SourceEnvironment
	}

	for _, option := range options {
		if !option.expand {
			continue
		}
		option.field.SetString(expandVars(option.field.String(), environment))
	}

	return config, nil
}

// splitArguments separates launcher options from engine pass-through
// tokens. Launcher options are returned in a form pflag can parse on
// its own: a non-boolean "--name value" pair keeps both tokens, and a
// boolean "--name value" pair is joined as "--name=value" when value
// is a boolean literal.
func splitArguments(args []string, byName map[string]*option) (launcher, passthrough []string, err error) {
	for i := 0; i < len(args); i++ {
		token := args[i]
		if token == "--" {
			for _, rest := range args[i+1:] {
				if err := checkEngineToken(rest); err != nil {
					return nil, nil, err
				}
			}
			passthrough = append(passthrough, args[i+1:]...)
			break
		}

		body, isLong := strings.CutPrefix(token, "--")
		name, _, hasValue := strings.Cut(body, "=")
		if !isLong || name == "" {
			if err := checkEngineToken(token); err != nil {
				return nil, nil, err
			}
			passthrough = append(passthrough, token)
			continue
		}

		option, known := byName[name]
		if !known {
			if err := checkEngineToken(token); err != nil {
				return nil, nil, err
			}
			passthrough = append(passthrough, token)
			continue
		}
		if !option.commandLine {
			return nil, nil, fmt.Errorf("--%s (set %s instead): %w", name, option.env, ErrCommandLineForbidden)
		}

		switch {
		case hasValue:
			launcher = append(launcher, token)
		case option.flag.NoOptDefVal != "":
			if i+1 < len(args) {
				if _, err := ParseBool(args[i+1]); err == nil {
					launcher = append(launcher, "--"+name+"="+args[i+1])
					i++
					continue
				}
			}
			launcher = append(launcher, token)
		default:
			launcher = append(launcher, token)
			if i+1 < len(args) {
				launcher = append(launcher, args[i+1])
				i++
			}
		}
	}
	return launcher, passthrough, nil
}

// minimumAbbreviation is the shortest long-option abbreviation treated
// as naming a managed flag.
const minimumAbbreviation = 4

// isEngineManaged reports whether an engine option name refers to a
// flag the launcher sets. mysqld treats '-' and '_' alike, accepts the
// "loose-", "skip-", "enable-" and "disable-" prefixes, and resolves
// any unambiguous abbreviation of a long name.
func isEngineManaged(name string) bool {
	normalized := strings.ReplaceAll(strings.ToLower(name), "_", "-")
	normalized = strings.TrimPrefix(normalized, "loose-")
	for _, modifier := range []string{"skip-", "enable-", "disable-"} {
		if trimmed, ok := strings.CutPrefix(normalized, modifier); ok {
			normalized = trimmed
			break
		}
	}
	if len(normalized) < minimumAbbreviation {
		return slices.Contains(engineManagedFlags, normalized)
	}
	for _, managed := range engineManagedFlags {
		if strings.HasPrefix(managed, normalized) {
			return true
		}
	}
	return false
}

// checkEngineToken fails with [ErrEngineManagedFlag] when a
// pass-through token would set a flag the launcher manages.
func checkEngineToken(token string) error {
	if body, ok := strings.CutPrefix(token, "--"); ok {
		name, _, _ := strings.Cut(body, "=")
		if name != "" && isEngineManaged(name) {
			return fmt.Errorf("%s: %w", token, ErrEngineManagedFlag)
		}
		return nil
	}
	if isEngineManagedShort(token) {
		return fmt.Errorf("%s (short form of --datadir): %w", token, ErrEngineManagedFlag)
	}
	return nil
}

// isEngineManagedShort reports whether a single-dash token is mysqld's
// -h short form of --datadir, with the path attached or following.
func isEngineManagedShort(token string) bool {
	body, ok := strings.CutPrefix(token, "-")
	return ok && !strings.HasPrefix(body, "-") && strings.HasPrefix(body, "h")
}

// loadFile applies a YAML defaults file. Keys are option flag names;
// values are scalars or, for list-like options such as gr-seeds,
// sequences that are joined with commas. Options already set on the
// command line keep their command-line value.
func loadFile(path string, config *Config, byName map[string]*option) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading defaults file: %w", err)
	}

	var document map[string]any
	if err := yaml.Unmarshal(data, &document); err != nil {
		return fmt.Errorf("parsing defaults file %s: %w", path, err)
	}

	keys := make([]string, 0, len(document))
	for key := range document {
		keys = append(keys, key)
	}
	slices.Sort(keys)

	var errs []error
	for _, key := range keys {
		option, known := byName[key]
		switch {
		case !known:
			errs = append(errs, fmt.Errorf("unknown option %q", key))
			continue
		case !option.commandLine:
			errs = append(errs, fmt.Errorf("%s (set %s instead): %w", key, option.env, ErrCommandLineForbidden))
			continue
		case !option.file:
			errs = append(errs, fmt.Errorf("%s cannot be set in a defaults file", key))
			continue
		}
		if config.sources[key] == SourceCommandLine {
			continue
		}

		value, err := scalarString(document[key])
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", key, err))
			continue
		}
		if err := option.flag.Value.Set(value); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", key, err))
			continue
		}
		config.sources[key] = SourceFile
	}

	if len(errs) > 0 {
		return fmt.Errorf("defaults file %s: %w", path, errors.Join(errs...))
	}
	return nil
}

func scalarString(value any) (string, error) {
	switch typed := value.(type) {
	case nil:
		return "", nil
	case string:
		return typed, nil
	case bool:
		return strconv.FormatBool(typed), nil
	case int:
		return strconv.Itoa(typed), nil
	case float64:
		return strconv.FormatFloat(typed, 'f', -1, 64), nil
	case []any:
		parts := make([]string, 0, len(typed))
		for _, element := range typed {
			part, err := scalarString(element)
			if err != nil {
				return "", err
			}
			parts = append(parts, part)
		}
		return strings.Join(parts, ","), nil
	default:
		return "", fmt.Errorf("unsupported value of type %T", value)
	}
}
