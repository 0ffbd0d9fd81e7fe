// Copyright 2026 The gramine-web3-wallet-docker Authors
// SPDX-License-Identifier: Apache-2.0

package netutil

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"slices"
	"strings"
	"time"
)

// DefaultRouteProbe is the address LAN detection "connects" a UDP
// socket to. Connecting a UDP socket only selects a route; nothing is
// sent.
const DefaultRouteProbe = "8.8.8.8:53"

// DefaultEchoServices return the caller's public address as plain text.
var DefaultEchoServices = []string{
	"https://api.ipify.org",
	"https://ifconfig.me/ip",
	"https://icanhazip.com",
}

const (
	echoConnectTimeout = 3 * time.Second
	echoTotalTimeout   = 5 * time.Second
)

// LocalAddress is the result of address detection.
type LocalAddress struct {
	// Advertised is the address peers use to reach this node. Empty
	// when nothing could be determined.
	Advertised string

	// All lists every address discovered, Advertised first, without
	// duplicates.
	All []string
}

// AddressDetector determines the node's local address.
type AddressDetector struct {
	Logger *slog.Logger

	// DetectPublic enables the echo-service fallback.
	DetectPublic bool

	// RouteProbe overrides [DefaultRouteProbe].
	RouteProbe string

	// EchoServices overrides [DefaultEchoServices].
	EchoServices []string

	// HTTPClient overrides the echo-service client.
	HTTPClient *http.Client

	// LookupHost resolves a hostname override. Nil uses
	// net.DefaultResolver.
	LookupHost func(ctx context.Context, host string) ([]string, error)
}

// Detect runs the cascade: override, then the LAN address, then (when
// DetectPublic is set) the public address. A hostname override is
// resolved to an IP; one that does not resolve is dropped. Detection failures are
// logged and skipped; an empty Advertised address is the caller's to
// judge.
func (d *AddressDetector) Detect(ctx context.Context, override string) LocalAddress {
	logger := d.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	var candidates []string
	if override = strings.TrimSpace(override); override != "" {
		if address, err := d.resolveOverride(ctx, override); err != nil {
			logger.Warn("ignoring local address override: the interface shim only accepts IP addresses",
				"override", override, "error", err)
		} else {
			if address != override {
				logger.Info("resolved local address override", "override", override, "address", address)
			}
			candidates = append(candidates, address)
		}
	}

	if lan, err := LANAddress(d.routeProbe()); err != nil {
		logger.Warn("LAN address detection failed", "error", err)
	} else {
		logger.Debug("detected LAN address", "address", lan)
		candidates = append(candidates, lan)
	}

	if d.DetectPublic {
		public, err := d.PublicAddress(ctx)
		if err != nil {
			logger.Warn("public address detection failed", "error", err)
		} else {
			logger.Debug("detected public address", "address", public)
			candidates = append(candidates, public)
		}
	}

	var result LocalAddress
	for _, candidate := range candidates {
		if !slices.Contains(result.All, candidate) {
			result.All = append(result.All, candidate)
		}
	}
	if len(result.All) > 0 {
		result.Advertised = result.All[0]
	}
	return result
}

// resolveOverride returns override unchanged when it is an IP and
// otherwise resolves it, preferring a routable IPv4 result.
func (d *AddressDetector) resolveOverride(ctx context.Context, override string) (string, error) {
	if ip := net.ParseIP(override); ip != nil {
		return ip.String(), nil
	}
	lookup := d.LookupHost
	if lookup == nil {
		lookup = net.DefaultResolver.LookupHost
	}
	resolved, err := lookup(ctx, override)
	if err != nil {
		return "", fmt.Errorf("resolving %q: %w", override, err)
	}

	var routable []net.IP
	for _, candidate := range resolved {
		ip := net.ParseIP(candidate)
		if ip == nil || ip.IsLoopback() || ip.IsUnspecified() {
			continue
		}
		routable = append(routable, ip)
	}
	if len(routable) == 0 {
		return "", fmt.Errorf("%q has no routable address (resolved to %v)", override, resolved)
	}
	for _, ip := range routable {
		if ip.To4() != nil {
			return ip.String(), nil
		}
	}
	return routable[0].String(), nil
}

func (d *AddressDetector) routeProbe() string {
	if d.RouteProbe != "" {
		return d.RouteProbe
	}
	return DefaultRouteProbe
}

// LANAddress returns the local address of the interface that routes to
// target. Loopback and unspecified results are rejected: peers cannot
// reach them.
func LANAddress(target string) (string, error) {
	connection, err := net.Dial("udp", target)
	if err != nil {
		return "", fmt.Errorf("selecting route to %s: %w", target, err)
	}
	defer connection.Close()

	local, ok := connection.LocalAddr().(*net.UDPAddr)
	if !ok {
		return "", fmt.Errorf("unexpected local address type %T", connection.LocalAddr())
	}
	if local.IP.IsLoopback() || local.IP.IsUnspecified() {
		return "", fmt.Errorf("route to %s uses non-routable address %s", target, local.IP)
	}
	return local.IP.String(), nil
}

// PublicAddress asks each echo service in turn for this host's public
// address and returns the first valid IP.
func (d *AddressDetector) PublicAddress(ctx context.Context) (string, error) {
	services := d.EchoServices
	if len(services) == 0 {
		services = DefaultEchoServices
	}
	client := d.HTTPClient
	if client == nil {
		client = &http.Client{
			Timeout: echoTotalTimeout,
			Transport: &http.Transport{
				DialContext: (&net.Dialer{Timeout: echoConnectTimeout}).DialContext,
			},
		}
	}

	var errs []error
	for _, service := range services {
		address, err := queryEcho(ctx, client, service)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		return address, nil
	}
	return "", errors.Join(errs...)
}

func queryEcho(ctx context.Context, client *http.Client, service string) (string, error) {
	request, err := http.NewRequestWithContext(ctx, http.MethodGet, service, nil)
	if err != nil {
		return "", fmt.Errorf("%s: %w", service, err)
	}
	response, err := client.Do(request)
	if err != nil {
		return "", fmt.Errorf("%s: %w", service, err)
	}
	defer response.Body.Close()

	if response.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%s: HTTP %d: %s", service, response.StatusCode, strings.TrimSpace(ErrorBody(response.Body)))
	}
	body, err := ReadResponse(response.Body)
	if err != nil {
		return "", fmt.Errorf("%s: reading response: %w", service, err)
	}
	address := strings.TrimSpace(string(body))
	if net.ParseIP(address) == nil {
		return "", fmt.Errorf("%s: response %q is not an IP address", service, address)
	}
	return address, nil
}
