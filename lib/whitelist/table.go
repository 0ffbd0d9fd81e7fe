// Copyright 2026 The gramine-web3-wallet-docker Authors
// SPDX-License-Identifier: Apache-2.0

package whitelist

import (
	"encoding/base64"
	"fmt"
	"strings"
)

// Columns is the number of columns in a whitelist table.
const Columns = 5

// ColumnNames names the columns in wire order.
var ColumnNames = [Columns]string{
	"MRENCLAVE",
	"MRSIGNER",
	"ISV_PROD_ID",
	"ISV_SVN",
	"PLATFORM_INSTANCE_ID",
}

// Unrestricted is the cell value meaning "any value".
const Unrestricted = "0"

// Rule is one admission entry: one cell per column.
type Rule [Columns]string

// String renders the rule as space-separated NAME=value pairs.
func (r Rule) String() string {
	pairs := make([]string, Columns)
	for column, name := range ColumnNames {
		pairs[column] = name + "=" + r[column]
	}
	return strings.Join(pairs, " ")
}

// Table is an ordered list of rules. The zero value is the empty table.
type Table struct {
	rules []Rule
}

// NewTable returns a table holding rules in order. Empty cells become
// [Unrestricted].
func NewTable(rules ...Rule) Table {
	var table Table
	for _, rule := range rules {
		for column := range rule {
			if rule[column] == "" {
				rule[column] = Unrestricted
			}
		}
		table.rules = append(table.rules, rule)
	}
	return table
}

// Rules returns the table's rules in order.
func (t Table) Rules() []Rule {
	return append([]Rule(nil), t.rules...)
}

// Len returns the number of rules.
func (t Table) Len() int {
	return len(t.rules)
}

// Decode parses the wire form. The empty string is the empty table.
// Lines beyond the fifth are ignored.
func Decode(encoded string) (Table, error) {
	compact := strings.Join(strings.Fields(encoded), "")
	if compact == "" {
		return Table{}, nil
	}

	raw, err := base64.StdEncoding.DecodeString(compact)
	if err != nil {
		raw, err = base64.RawStdEncoding.DecodeString(compact)
		if err != nil {
			return Table{}, fmt.Errorf("decoding whitelist: %w", err)
		}
	}

	var columns [Columns][]string
	height := 0
	for index, line := range strings.Split(string(raw), "\n") {
		if index >= Columns {
			break
		}
		columns[index] = splitCells(line)
		height = max(height, len(columns[index]))
	}

	table := Table{rules: make([]Rule, height)}
	for row := range height {
		for column := range Columns {
			cell := Unrestricted
			if row < len(columns[column]) {
				cell = columns[column][row]
			}
			table.rules[row][column] = cell
		}
	}
	return table, nil
}

// splitCells splits one column line. An empty or "0" line is the
// single sentinel cell; empty cells inside a line are also sentinels.
func splitCells(line string) []string {
	line = strings.TrimSpace(line)
	if line == "" || line == Unrestricted {
		return []string{Unrestricted}
	}
	cells := strings.Split(line, ",")
	for i, cell := range cells {
		cells[i] = strings.TrimSpace(cell)
		if cells[i] == "" {
			cells[i] = Unrestricted
		}
	}
	return cells
}

// Encode returns the wire form of the table. The empty table encodes
// as the empty string.
func Encode(table Table) string {
	if len(table.rules) == 0 {
		return ""
	}
	lines := make([]string, Columns)
	cells := make([]string, len(table.rules))
	for column := range Columns {
		for row, rule := range table.rules {
			cells[row] = rule[column]
		}
		lines[column] = strings.Join(cells, ",")
	}
	return base64.StdEncoding.EncodeToString([]byte(strings.Join(lines, "\n")))
}
