// Copyright 2026 The gramine-web3-wallet-docker Authors
// SPDX-License-Identifier: Apache-2.0

package testutil

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// SymlinkPrefix marks a [WriteTree] entry as a symlink: the remainder
// of the value is the link target.
const SymlinkPrefix = "->"

// WriteTree creates files under root from a map of slash-separated
// relative paths to contents. A path ending in "/" creates an empty
// directory. A value starting with [SymlinkPrefix] creates a symlink.
// Parent directories are created as needed. Files are mode 0640.
//
//	testutil.WriteTree(t, dir, map[string]string{
//	    "ibdata1":      "innodb",
//	    "mysql/":       "",
//	    "current.log":  "->binlog.000001",
//	})
func WriteTree(t *testing.T, root string, entries map[string]string) {
	t.Helper()
	for name, content := range entries {
		path := filepath.Join(root, filepath.FromSlash(name))
		if strings.HasSuffix(name, "/") {
			if err := os.MkdirAll(path, 0750); err != nil {
				t.Fatalf("creating directory %s: %v", path, err)
			}
			continue
		}
		if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
			t.Fatalf("creating parent of %s: %v", path, err)
		}
		if target, ok := strings.CutPrefix(content, SymlinkPrefix); ok {
			if err := os.Symlink(target, path); err != nil {
				t.Fatalf("creating symlink %s: %v", path, err)
			}
			continue
		}
		if err := os.WriteFile(path, []byte(content), 0640); err != nil {
			t.Fatalf("writing %s: %v", path, err)
		}
	}
}

// ReadTree returns the inverse of [WriteTree]: every file, directory
// and symlink under root keyed by slash-separated relative path.
// Directories map to "" under a key ending in "/"; root itself is
// omitted.
func ReadTree(t *testing.T, root string) map[string]string {
	t.Helper()
	entries := make(map[string]string)
	err := filepath.WalkDir(root, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if path == root {
			return nil
		}
		relative, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		name := filepath.ToSlash(relative)
		switch {
		case entry.Type()&fs.ModeSymlink != 0:
			target, err := os.Readlink(path)
			if err != nil {
				return err
			}
			entries[name] = SymlinkPrefix + target
		case entry.IsDir():
			entries[name+"/"] = ""
		default:
			data, err := os.ReadFile(path)
			if err != nil {
				return err
			}
			entries[name] = string(data)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("reading tree %s: %v", root, err)
	}
	return entries
}
