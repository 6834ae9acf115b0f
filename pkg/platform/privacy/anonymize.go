// Package privacy masks caller identifiers before they reach logs.
package privacy

import (
	"net"
	"net/netip"
)

// ClientIP anonymizes the host part of a RemoteAddr ("ip:port" or bare ip).
// IPv4 keeps the /24 network, IPv6 the /48 prefix. Empty input yields
// "unknown" and unparseable input "invalid".
func ClientIP(remoteAddr string) string {
	if remoteAddr == "" {
		return "unknown"
	}
	host := remoteAddr
	if h, _, err := net.SplitHostPort(remoteAddr); err == nil {
		host = h
	}
	addr, err := netip.ParseAddr(host)
	if err != nil {
		return "invalid"
	}
	addr = addr.Unmap()
	bits := 48
	if addr.Is4() {
		bits = 24
	}
	prefix, err := addr.Prefix(bits)
	if err != nil {
		return "invalid"
	}
	return prefix.Addr().String()
}
