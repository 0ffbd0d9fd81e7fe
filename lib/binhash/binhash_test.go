// Copyright 2026 The gramine-web3-wallet-docker Authors
// SPDX-License-Identifier: Apache-2.0

package binhash

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/zeebo/blake3"
)

func TestHashFile(t *testing.T) {
	content := []byte("mysqld 8.0 build")
	path := filepath.Join(t.TempDir(), "mysqld")
	if err := os.WriteFile(path, content, 0755); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	got, err := HashFile(path)
	if err != nil {
		t.Fatalf("HashFile: %v", err)
	}

	want := Digest(blake3.Sum256(content))
	if got != want {
		t.Errorf("HashFile = %s, want %s", got, want)
	}
}

func TestHashFileEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty")
	if err := os.WriteFile(path, nil, 0755); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	got, err := HashFile(path)
	if err != nil {
		t.Fatalf("HashFile: %v", err)
	}
	if want := Digest(blake3.Sum256(nil)); got != want {
		t.Errorf("HashFile(empty) = %s, want %s", got, want)
	}
}

func TestHashFileNonexistent(t *testing.T) {
	if _, err := HashFile(filepath.Join(t.TempDir(), "missing")); err == nil {
		t.Fatal("HashFile should fail for nonexistent file")
	}
}

func TestHashFileLarge(t *testing.T) {
	content := make([]byte, 3*1024*1024)
	for i := range content {
		content[i] = byte(i % 251)
	}
	path := filepath.Join(t.TempDir(), "large")
	if err := os.WriteFile(path, content, 0755); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	got, err := HashFile(path)
	if err != nil {
		t.Fatalf("HashFile: %v", err)
	}
	if want := Digest(blake3.Sum256(content)); got != want {
		t.Errorf("HashFile(large) = %s, want %s", got, want)
	}
}

func TestFormatParseRoundTrip(t *testing.T) {
	digest := Digest(blake3.Sum256([]byte("engine")))
	formatted := FormatDigest(digest)
	if len(formatted) != 2*DigestSize {
		t.Fatalf("formatted length = %d, want %d", len(formatted), 2*DigestSize)
	}
	if formatted != strings.ToLower(formatted) {
		t.Errorf("FormatDigest should produce lowercase hex, got %q", formatted)
	}

	parsed, err := ParseDigest(formatted)
	if err != nil {
		t.Fatalf("ParseDigest: %v", err)
	}
	if parsed != digest {
		t.Errorf("round trip mismatch: %s != %s", parsed, digest)
	}
}

func TestParseDigestErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"not hex", "zz"},
		{"too short", "abcd"},
		{"too long", strings.Repeat("ab", DigestSize+1)},
		{"empty", ""},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if _, err := ParseDigest(test.input); err == nil {
				t.Errorf("ParseDigest(%q) should fail", test.input)
			}
		})
	}
}
