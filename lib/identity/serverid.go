// Copyright 2026 The gramine-web3-wallet-docker Authors
// SPDX-License-Identifier: Apache-2.0

package identity

// serverIDModulus folds the hash into [0, 2^32-3]; adding one gives
// [1, 2^32-2]. 0 disables replication in mysqld and 2^32-1 is avoided
// as a conventional "unset" marker.
const serverIDModulus = 1<<32 - 2

// DeriveServerID hashes the address string and port into a server_id.
// The hash starts at 5381 and folds in each byte as hash*33 + byte,
// first over the address bytes, then the port's low and high bytes.
// Arithmetic wraps at 32 bits.
func DeriveServerID(address string, port int) uint32 {
	var hash uint32 = 5381
	for i := range len(address) {
		hash = hash*33 + uint32(address[i])
	}
	hash = hash*33 + uint32(port&0xff)
	hash = hash*33 + uint32((port>>8)&0xff)
	return hash%serverIDModulus + 1
}
