// Copyright 2026 The gramine-web3-wallet-docker Authors
// SPDX-License-Identifier: Apache-2.0

package identity

import (
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	mathrand "math/rand"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ErrInvalidGroupName is returned for group names that are not
// canonical UUIDs.
var ErrInvalidGroupName = errors.New("group name is not a valid UUID")

// NewGroupName returns a random version 4 UUID in canonical form.
func NewGroupName() string {
	return generateGroupName(rand.Reader)
}

// generateGroupName draws from secure and falls back to a time and pid
// seeded generator only when secure fails.
func generateGroupName(secure io.Reader) string {
	id, err := uuid.NewRandomFromReader(secure)
	if err != nil {
		seed := time.Now().UnixNano() ^ int64(os.Getpid())
		id, _ = uuid.NewRandomFromReader(mathrand.New(mathrand.NewSource(seed)))
	}
	return id.String()
}

// CanonicalGroupName validates name and returns its canonical
// lowercase 8-4-4-4-12 form.
func CanonicalGroupName(name string) (string, error) {
	trimmed := strings.TrimSpace(name)
	if len(trimmed) != 36 {
		return "", fmt.Errorf("%q: %w", name, ErrInvalidGroupName)
	}
	id, err := uuid.Parse(trimmed)
	if err != nil {
		return "", fmt.Errorf("%q: %w", name, ErrInvalidGroupName)
	}
	return id.String(), nil
}
