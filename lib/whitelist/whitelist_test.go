// Copyright 2026 The gramine-web3-wallet-docker Authors
// SPDX-License-Identifier: Apache-2.0

package whitelist

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"log/slog"
	"maps"
	"math/rand"
	"slices"
	"strings"
	"testing"
)

func encodeText(text string) string {
	return base64.StdEncoding.EncodeToString([]byte(text))
}

func ruleSet(table Table) map[Rule]bool {
	set := make(map[Rule]bool)
	for _, rule := range table.Rules() {
		set[rule] = true
	}
	return set
}

func TestDecode(t *testing.T) {
	table, err := Decode(encodeText("a1, a2\nb1\n0\n\nx,y,z\nignored,sixth,line"))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	want := []Rule{
		{"a1", "b1", "0", "0", "x"},
		{"a2", "0", "0", "0", "y"},
		{"0", "0", "0", "0", "z"},
	}
	if !slices.Equal(table.Rules(), want) {
		t.Errorf("Decode rules = %v, want %v", table.Rules(), want)
	}
}

func TestDecodeMissingColumns(t *testing.T) {
	table, err := Decode(encodeText("m1,m2"))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	want := []Rule{{"m1", "0", "0", "0", "0"}, {"m2", "0", "0", "0", "0"}}
	if !slices.Equal(table.Rules(), want) {
		t.Errorf("Decode rules = %v, want %v", table.Rules(), want)
	}
}

func TestDecodeForms(t *testing.T) {
	text := "e\ns\n1\n2\n0"
	padded := encodeText(text)
	wrapped := padded[:4] + "\n  " + padded[4:] + "\n"
	raw := base64.RawStdEncoding.EncodeToString([]byte(text))

	want := []Rule{{"e", "s", "1", "2", "0"}}
	for name, encoded := range map[string]string{"padded": padded, "wrapped": wrapped, "unpadded": raw} {
		table, err := Decode(encoded)
		if err != nil {
			t.Errorf("%s: Decode: %v", name, err)
			continue
		}
		if !slices.Equal(table.Rules(), want) {
			t.Errorf("%s: rules = %v, want %v", name, table.Rules(), want)
		}
	}
}

func TestDecodeEmptyAndMalformed(t *testing.T) {
	for _, encoded := range []string{"", "  \n"} {
		table, err := Decode(encoded)
		if err != nil || table.Len() != 0 {
			t.Errorf("Decode(%q) = %d rules, %v; want empty table", encoded, table.Len(), err)
		}
	}
	if _, err := Decode("not*base64!"); err == nil {
		t.Error("Decode of malformed input should fail")
	}
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	tables := map[string]Table{
		"empty":         {},
		"all sentinel":  NewTable(Rule{"0", "0", "0", "0", "0"}),
		"sentinel rows": NewTable(Rule{"abc", "0", "0", "0", "0"}, Rule{"0", "0", "0", "0", "0"}, Rule{"def", "sig", "1", "3", "plat"}),
		"single":        NewTable(Rule{"e1", "s1", "7", "9", "p1"}),
		"empty cells":   NewTable(Rule{"e1", "", "", "", ""}),
	}
	for name, table := range tables {
		t.Run(name, func(t *testing.T) {
			decoded, err := Decode(Encode(table))
			if err != nil {
				t.Fatalf("Decode: %v", err)
			}
			if !slices.Equal(decoded.Rules(), table.Rules()) {
				t.Errorf("round trip = %v, want %v", decoded.Rules(), table.Rules())
			}
		})
	}

	if Encode(Table{}) != "" {
		t.Error("empty table should encode as the empty string")
	}
}

func TestEncodeLayout(t *testing.T) {
	table := NewTable(Rule{"e1", "s1", "1", "2", "p1"}, Rule{"e2", "s2", "3", "4", "p2"})
	raw, err := base64.StdEncoding.DecodeString(Encode(table))
	if err != nil {
		t.Fatalf("DecodeString: %v", err)
	}
	want := "e1,e2\ns1,s2\n1,3\n2,4\np1,p2"
	if string(raw) != want {
		t.Errorf("encoded text = %q, want %q", raw, want)
	}
}

func TestMergeAppendsNovelRules(t *testing.T) {
	local := NewTable(Rule{"e1", "0", "0", "0", "0"}, Rule{"e2", "s2", "0", "0", "0"})
	contract := NewTable(Rule{"e2", "s2", "0", "0", "0"}, Rule{"e3", "0", "0", "0", "0"}, Rule{"e3", "0", "0", "0", "0"})

	merged := Merge(local, contract)
	want := []Rule{
		{"e1", "0", "0", "0", "0"},
		{"e2", "s2", "0", "0", "0"},
		{"e3", "0", "0", "0", "0"},
	}
	if !slices.Equal(merged.Rules(), want) {
		t.Errorf("Merge = %v, want %v", merged.Rules(), want)
	}
}

func TestMergeComparesWholeTuple(t *testing.T) {
	local := NewTable(Rule{"e1", "s1", "1", "1", "0"})
	contract := NewTable(Rule{"e1", "s1", "1", "2", "0"})
	if got := Merge(local, contract).Len(); got != 2 {
		t.Errorf("rules differing in one column should both survive, got %d rules", got)
	}
}

func randomTable(random *rand.Rand) Table {
	values := []string{"0", "a", "b", "c"}
	var rules []Rule
	for range random.Intn(8) {
		var rule Rule
		for column := range rule {
			rule[column] = values[random.Intn(len(values))]
		}
		rules = append(rules, rule)
	}
	return NewTable(rules...)
}

func TestMergeProperties(t *testing.T) {
	random := rand.New(rand.NewSource(1))
	for iteration := range 200 {
		a, b := randomTable(random), randomTable(random)

		if merged := Merge(a, a); !slices.Equal(merged.Rules(), a.Rules()) {
			t.Fatalf("iteration %d: Merge(A, A) = %v, want %v", iteration, merged.Rules(), a.Rules())
		}

		forward, backward := ruleSet(Merge(a, b)), ruleSet(Merge(b, a))
		if !maps.Equal(forward, backward) {
			t.Fatalf("iteration %d: rule sets differ: %v vs %v", iteration, forward, backward)
		}

		union := ruleSet(a)
		maps.Copy(union, ruleSet(b))
		if !maps.Equal(forward, union) {
			t.Fatalf("iteration %d: merged rule set %v, want union %v", iteration, forward, union)
		}
	}
}

func TestMergeEncoded(t *testing.T) {
	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, nil))

	local := Encode(NewTable(Rule{"e1", "0", "0", "0", "0"}))
	contract := Encode(NewTable(Rule{"e2", "0", "0", "0", "0"}))

	merged, err := Decode(MergeEncoded(local, contract, logger))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if merged.Len() != 2 {
		t.Errorf("merged %d rules, want 2", merged.Len())
	}

	if got := MergeEncoded(local, "%%%garbage", logger); got != local {
		t.Errorf("malformed contract should leave local whitelist intact: got %q, want %q", got, local)
	}
	if !strings.Contains(logs.String(), "ignoring malformed whitelist") {
		t.Errorf("malformed input should be logged, log was:\n%s", logs.String())
	}

	if got := MergeEncoded("", "", logger); got != "" {
		t.Errorf("MergeEncoded of empty inputs = %q, want empty", got)
	}
}

func ExampleMerge() {
	local := NewTable(Rule{"enclave-a", "0", "0", "0", "0"})
	contract := NewTable(Rule{"enclave-a", "0", "0", "0", "0"}, Rule{"enclave-b", "signer", "0", "0", "0"})
	for _, rule := range Merge(local, contract).Rules() {
		fmt.Println(strings.Join(rule[:], ","))
	}
	// Output:
	// enclave-a,0,0,0,0
	// enclave-b,signer,0,0,0
}

func TestRuleString(t *testing.T) {
	rule := Rule{"enclave", "signer", "1", "2", "0"}
	want := "MRENCLAVE=enclave MRSIGNER=signer ISV_PROD_ID=1 ISV_SVN=2 PLATFORM_INSTANCE_ID=0"
	if got := rule.String(); got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}
