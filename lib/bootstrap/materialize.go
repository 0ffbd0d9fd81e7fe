// Copyright 2026 The gramine-web3-wallet-docker Authors
// SPDX-License-Identifier: Apache-2.0

package bootstrap

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/mccoysc/gramine-web3-wallet-docker/lib/atomicfile"
)

// ErrTemplateMissing is returned when the data directory needs
// materializing and the template directory is absent or holds no
// initialized database.
var ErrTemplateMissing = errors.New("template data directory missing")

// InstanceUnique lists files the engine generates per instance. They
// are removed from a fresh copy so that clones of one template never
// share a server UUID or key material.
var InstanceUnique = []string{
	"auto.cnf",
	"mysqld-auto.cnf",
	"ca.pem",
	"ca-key.pem",
	"server-cert.pem",
	"server-key.pem",
	"client-cert.pem",
	"client-key.pem",
	"private_key.pem",
	"public_key.pem",
}

// Materialize copies templateDir into dataDir and strips the
// instance-unique files from the copy. The in-progress marker is
// present in dataDir for the whole copy; if it is found on entry, the
// previous attempt was interrupted and its leftovers are removed first.
func Materialize(templateDir, dataDir string, logger *slog.Logger) error {
	info, err := os.Stat(filepath.Join(templateDir, StorageMarker))
	if err != nil || !info.Mode().IsRegular() {
		return fmt.Errorf("%w: %s has no %s", ErrTemplateMissing, templateDir, StorageMarker)
	}

	if err := os.MkdirAll(dataDir, 0750); err != nil {
		return fmt.Errorf("creating data directory: %w", err)
	}

	markerPath := filepath.Join(dataDir, MaterializingMarker)
	interrupted, err := exists(markerPath)
	if err != nil {
		return err
	}
	if interrupted {
		logger.Warn("removing interrupted template copy", "data_dir", dataDir)
		if err := clearDirectory(dataDir); err != nil {
			return fmt.Errorf("removing interrupted copy: %w", err)
		}
	}

	if err := atomicfile.WriteString(markerPath, time.Now().UTC().Format(time.RFC3339)+"\n", 0600); err != nil {
		return fmt.Errorf("writing in-progress marker: %w", err)
	}

	start := time.Now()
	files, err := copyTree(templateDir, dataDir)
	if err != nil {
		return fmt.Errorf("copying template %s: %w", templateDir, err)
	}

	for _, name := range InstanceUnique {
		path := filepath.Join(dataDir, name)
		if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("removing instance-unique file %s: %w", name, err)
		}
	}
	// A template captured from a running launcher may carry these.
	for _, name := range []string{SentinelFile, InitScriptFile} {
		if err := os.Remove(filepath.Join(dataDir, name)); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("removing %s from copy: %w", name, err)
		}
	}

	if err := os.Remove(markerPath); err != nil {
		return fmt.Errorf("removing in-progress marker: %w", err)
	}
	atomicfile.SyncDir(dataDir)

	logger.Info("materialized data directory from template",
		"template_dir", templateDir,
		"data_dir", dataDir,
		"files", files,
		"duration", time.Since(start),
	)
	return nil
}

// clearDirectory removes every entry in directory except the
// in-progress marker. The directory itself may be a mount point and is
// kept.
func clearDirectory(directory string) error {
	entries, err := os.ReadDir(directory)
	if err != nil {
		return err
	}
	for _, entry := range entries {
		if entry.Name() == MaterializingMarker {
			continue
		}
		if err := os.RemoveAll(filepath.Join(directory, entry.Name())); err != nil {
			return err
		}
	}
	return nil
}

// copyTree recreates the tree rooted at source under destination,
// preserving regular files, directories, symlinks and permission bits.
// The owner always gets write access to the copy. Returns the number
// of regular files copied.
func copyTree(source, destination string) (int, error) {
	type pendingMode struct {
		path string
		mode fs.FileMode
	}
	// Directory modes are applied last so a read-only template
	// directory does not block writing its children.
	var directories []pendingMode
	files := 0

	err := filepath.WalkDir(source, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		relative, err := filepath.Rel(source, path)
		if err != nil {
			return err
		}
		target := filepath.Join(destination, relative)

		info, err := entry.Info()
		if err != nil {
			return err
		}

		switch {
		case info.Mode()&fs.ModeSymlink != 0:
			link, err := os.Readlink(path)
			if err != nil {
				return err
			}
			if err := os.Remove(target); err != nil && !errors.Is(err, os.ErrNotExist) {
				return err
			}
			return os.Symlink(link, target)

		case info.IsDir():
			if relative == "." {
				return nil
			}
			if err := os.MkdirAll(target, 0700); err != nil {
				return err
			}
			directories = append(directories, pendingMode{target, info.Mode().Perm() | 0700})
			return nil

		case info.Mode().IsRegular():
			files++
			return copyFile(path, target, info.Mode().Perm()|0600)

		default:
			// Sockets, FIFOs and devices have no place in a data
			// directory template.
			return nil
		}
	})
	if err != nil {
		return files, err
	}

	for i := len(directories) - 1; i >= 0; i-- {
		if err := os.Chmod(directories[i].path, directories[i].mode); err != nil {
			return files, err
		}
	}
	return files, nil
}

func copyFile(source, destination string, mode fs.FileMode) error {
	input, err := os.Open(source)
	if err != nil {
		return err
	}
	defer input.Close()

	output, err := os.OpenFile(destination, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, mode)
	if err != nil {
		return err
	}
	if _, err := io.Copy(output, input); err != nil {
		output.Close()
		return err
	}
	if err := output.Sync(); err != nil {
		output.Close()
		return err
	}
	if err := output.Close(); err != nil {
		return err
	}
	return os.Chmod(destination, mode)
}
