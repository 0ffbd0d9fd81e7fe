// Copyright 2026 The gramine-web3-wallet-docker Authors
// SPDX-License-Identifier: Apache-2.0

package whitelist

import "log/slog"

// Merge returns destination followed by every rule of source whose
// tuple is not already present. Duplicates within source collapse to
// their first occurrence. Rules already in destination are kept as
// they are.
func Merge(destination, source Table) Table {
	merged := Table{rules: make([]Rule, 0, len(destination.rules)+len(source.rules))}
	seen := make(map[Rule]bool, len(destination.rules)+len(source.rules))
	for _, rule := range destination.rules {
		merged.rules = append(merged.rules, rule)
		seen[rule] = true
	}
	for _, rule := range source.rules {
		if seen[rule] {
			continue
		}
		seen[rule] = true
		merged.rules = append(merged.rules, rule)
	}
	return merged
}

// MergeEncoded merges the contract whitelist into the local one and
// returns the encoded result. An input that fails to decode is logged
// and treated as empty. When both inputs are empty the result is "".
func MergeEncoded(local, contract string, logger *slog.Logger) string {
	localTable := decodeOrEmpty(local, "local", logger)
	contractTable := decodeOrEmpty(contract, "contract", logger)

	merged := Merge(localTable, contractTable)
	for _, rule := range merged.rules[localTable.Len():] {
		logger.Debug("whitelist rule added from contract", "rule", rule.String())
	}
	logger.Info("whitelist merged",
		"local_rules", localTable.Len(),
		"contract_rules", contractTable.Len(),
		"rules", merged.Len(),
	)
	return Encode(merged)
}

func decodeOrEmpty(encoded, source string, logger *slog.Logger) Table {
	table, err := Decode(encoded)
	if err != nil {
		logger.Warn("ignoring malformed whitelist", "source", source, "error", err)
		return Table{}
	}
	return table
}
