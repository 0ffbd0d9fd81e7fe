// Copyright 2026 The gramine-web3-wallet-docker Authors
// SPDX-License-Identifier: Apache-2.0

package netutil

import "io"

// MaxResponseSize bounds HTTP response body reads: 1 MiB. Echo services
// return a few bytes and a JSON-RPC eth_call result for the whitelist
// contract is a few kilobytes.
const MaxResponseSize int64 = 1 << 20

// ReadResponse reads an HTTP response body up to MaxResponseSize bytes.
// Use instead of io.ReadAll when reading HTTP response bodies.
func ReadResponse(body io.Reader) ([]byte, error) {
	return io.ReadAll(io.LimitReader(body, MaxResponseSize))
}

// ErrorBody reads an HTTP error response body and returns it as a string for
// diagnostic error messages. Read errors are ignored: a partial or empty
// body is still useful in an error message.
func ErrorBody(body io.Reader) string {
	data, _ := io.ReadAll(io.LimitReader(body, MaxResponseSize))
	return string(data)
}
