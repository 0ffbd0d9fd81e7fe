// Copyright 2026 The gramine-web3-wallet-docker Authors
// SPDX-License-Identifier: Apache-2.0

package ledger

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	ethereum "github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/tidwall/gjson"
	"github.com/tidwall/jsonc"
)

// GetSGXConfigSelector is the 4-byte selector of getSGXConfig().
var GetSGXConfigSelector = hexutil.MustDecode("0x062e2252")

// WhitelistKey is the member of the configuration document holding the
// encoded whitelist.
const WhitelistKey = "RATLS_WHITELIST_CONFIG"

const (
	connectTimeout = 10 * time.Second
	totalTimeout   = 30 * time.Second
)

// ErrWhitelistAbsent is returned when the configuration document has no
// whitelist member.
var ErrWhitelistAbsent = errors.New(WhitelistKey + " not present in contract configuration")

var stringArguments = func() abi.Arguments {
	stringType, err := abi.NewType("string", "", nil)
	if err != nil {
		panic(fmt.Sprintf("ledger: constructing ABI string type: %v", err))
	}
	return abi.Arguments{{Type: stringType}}
}()

// Reader reads the whitelist contract.
type Reader struct {
	RPCURL   string
	Contract string

	// HTTPClient overrides the client used for JSON-RPC, for tests.
	HTTPClient *http.Client
}

// Whitelist returns the encoded whitelist published by the contract.
func (r *Reader) Whitelist(ctx context.Context) (string, error) {
	document, err := r.SGXConfig(ctx)
	if err != nil {
		return "", err
	}
	return ExtractWhitelist(document)
}

// SGXConfig calls getSGXConfig() and returns the decoded string.
func (r *Reader) SGXConfig(ctx context.Context) (string, error) {
	if !common.IsHexAddress(r.Contract) {
		return "", fmt.Errorf("contract address %q is not a hex address", r.Contract)
	}
	contract := common.HexToAddress(r.Contract)

	ctx, cancel := context.WithTimeout(ctx, totalTimeout)
	defer cancel()

	rpcClient, err := rpc.DialOptions(ctx, r.RPCURL, rpc.WithHTTPClient(r.httpClient()))
	if err != nil {
		return "", fmt.Errorf("connecting to %s: %w", r.RPCURL, err)
	}
	client := ethclient.NewClient(rpcClient)
	defer client.Close()

	result, err := client.CallContract(ctx, ethereum.CallMsg{
		To:   &contract,
		Data: GetSGXConfigSelector,
	}, nil)
	if err != nil {
		return "", fmt.Errorf("calling getSGXConfig() on %s: %w", contract.Hex(), err)
	}
	return DecodeString(result)
}

func (r *Reader) httpClient() *http.Client {
	if r.HTTPClient != nil {
		return r.HTTPClient
	}
	return &http.Client{
		Timeout: totalTimeout,
		Transport: &http.Transport{
			DialContext: (&net.Dialer{Timeout: connectTimeout}).DialContext,
		},
	}
}

// DecodeString decodes an ABI-encoded dynamic string return value.
func DecodeString(result []byte) (string, error) {
	if len(result) == 0 {
		return "", errors.New("empty call result (no contract at address?)")
	}
	values, err := stringArguments.Unpack(result)
	if err != nil {
		return "", fmt.Errorf("decoding ABI string: %w", err)
	}
	value, ok := values[0].(string)
	if !ok {
		return "", fmt.Errorf("decoded value has type %T, want string", values[0])
	}
	return value, nil
}

// ExtractWhitelist returns the whitelist member of a configuration
// document. Comments and trailing commas are tolerated.
func ExtractWhitelist(document string) (string, error) {
	normalized := jsonc.ToJSON([]byte(document))
	if !gjson.ValidBytes(normalized) {
		return "", errors.New("contract configuration is not valid JSON")
	}
	member := gjson.GetBytes(normalized, WhitelistKey)
	if !member.Exists() {
		return "", ErrWhitelistAbsent
	}
	if member.Type != gjson.String {
		return "", fmt.Errorf("%s has JSON type %s, want string", WhitelistKey, member.Type)
	}
	return member.String(), nil
}
