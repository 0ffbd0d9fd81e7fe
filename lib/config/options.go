// Copyright 2026 The gramine-web3-wallet-docker Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"github.com/spf13/pflag"
)

var (
	// ErrCommandLineForbidden is returned when an environment-only
	// option is given on the command line or in the defaults file.
	ErrCommandLineForbidden = errors.New("option may only be set from the environment")

	// ErrEngineManagedFlag is returned when a pass-through token would
	// override an engine flag the launcher sets itself.
	ErrEngineManagedFlag = errors.New("engine flag is managed by the launcher")

	// ErrInvalidPort is returned for port values outside [1, 65535].
	ErrInvalidPort = errors.New("port out of range [1, 65535]")
)

// option is one row of the declarative option table built from the
// tags on [Config].
type option struct {
	name        string
	env         string
	description string
	commandLine bool
	file        bool
	expand      bool
	flag        *pflag.Flag
	field       reflect.Value
}

// bindOptions registers a pflag entry for every tagged field of config
// and sets each field to its default. Tag mistakes (unsupported field
// type, unparseable default) are returned as errors.
func bindOptions(config *Config, flagSet *pflag.FlagSet) ([]*option, error) {
	structValue := reflect.ValueOf(config).Elem()
	structType := structValue.Type()

	var options []*option
	for i := range structType.NumField() {
		field := structType.Field(i)
		name := field.Tag.Get("flag")
		if name == "" {
			continue
		}

		value, err := newValue(structValue.Field(i))
		if err != nil {
			return nil, fmt.Errorf("field %s: %w", field.Name, err)
		}
		defaultString := field.Tag.Get("default")
		if defaultString != "" {
			if err := value.Set(defaultString); err != nil {
				return nil, fmt.Errorf("default for --%s: %w", name, err)
			}
		}

		flag := flagSet.VarPF(value, name, "", field.Tag.Get("desc"))
		if value.Type() == "bool" {
			flag.NoOptDefVal = "true"
		}

		options = append(options, &option{
			name:        name,
			env:         field.Tag.Get("env"),
			description: field.Tag.Get("desc"),
			commandLine: field.Tag.Get("cli") != "false",
			file:        field.Tag.Get("cli") != "false" && field.Tag.Get("file") != "false",
			expand:      field.Tag.Get("expand") == "true",
			flag:        flag,
			field:       structValue.Field(i),
		})
	}
	return options, nil
}

// newValue wraps a struct field in the pflag.Value for its type.
func newValue(field reflect.Value) (pflag.Value, error) {
	switch target := field.Addr().Interface().(type) {
	case *string:
		return (*stringValue)(target), nil
	case *bool:
		return (*boolValue)(target), nil
	case *uint32:
		return (*uint32Value)(target), nil
	case *Port:
		return (*portValue)(target), nil
	default:
		return nil, fmt.Errorf("unsupported option type %s", field.Type())
	}
}

type stringValue string

func (s *stringValue) Set(value string) error { *s = stringValue(value); return nil }
func (s *stringValue) String() string         { return string(*s) }
func (s *stringValue) Type() string           { return "string" }

// boolValue accepts the spellings operators use in container
// environments as well as strconv's.
type boolValue bool

func (b *boolValue) Set(value string) error {
	parsed, err := ParseBool(value)
	if err != nil {
		return err
	}
	*b = boolValue(parsed)
	return nil
}
func (b *boolValue) String() string { return strconv.FormatBool(bool(*b)) }
func (b *boolValue) Type() string   { return "bool" }

type uint32Value uint32

func (u *uint32Value) Set(value string) error {
	parsed, err := strconv.ParseUint(strings.TrimSpace(value), 10, 32)
	if err != nil {
		return fmt.Errorf("invalid unsigned 32-bit value %q", value)
	}
	*u = uint32Value(parsed)
	return nil
}
func (u *uint32Value) String() string { return strconv.FormatUint(uint64(*u), 10) }
func (u *uint32Value) Type() string   { return "uint32" }

type portValue Port

func (p *portValue) Set(value string) error {
	parsed, err := ParsePort(value)
	if err != nil {
		return err
	}
	*p = portValue(parsed)
	return nil
}
func (p *portValue) String() string { return strconv.Itoa(int(*p)) }
func (p *portValue) Type() string   { return "port" }

// ParseBool parses true/false, 1/0, on/off and yes/no, ignoring case
// and surrounding whitespace.
func ParseBool(value string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "on", "yes":
		return true, nil
	case "0", "false", "off", "no":
		return false, nil
	default:
		return false, fmt.Errorf("invalid boolean %q", value)
	}
}

// ParsePort parses a decimal port number in [1, 65535].
func ParsePort(value string) (Port, error) {
	parsed, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil || parsed < 1 || parsed > 65535 {
		return 0, fmt.Errorf("%q: %w", value, ErrInvalidPort)
	}
	return Port(parsed), nil
}
