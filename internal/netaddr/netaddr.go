// Package netaddr validates target strings, mirroring networks.py's
// IP/hostname helpers.
package netaddr

import (
	"net"
	"regexp"
	"strings"
)

var hostnameLabel = regexp.MustCompile(`(?i)^[a-z0-9]([a-z0-9-]{0,61}[a-z0-9])?$`)

// IsValidHostAddr reports whether ip is a valid IPv4 or IPv6 host address.
func IsValidHostAddr(ip string) bool {
	return net.ParseIP(ip) != nil
}

// IsValidNetAddr reports whether s is a valid IPv4 or IPv6 network/CIDR
// address, e.g. "10.0.0.0/24".
func IsValidNetAddr(s string) bool {
	if _, _, err := net.ParseCIDR(s); err != nil {
		return false
	}
	return true
}

// IsValidHostname reports whether s is a syntactically valid DNS hostname,
// per the same rule is_valid_hostname in networks.py cites (RFC 1123 label
// grammar).
func IsValidHostname(s string) bool {
	if len(s) > 255 {
		return false
	}
	s = strings.TrimSuffix(s, ".")
	if s == "" {
		return false
	}
	for _, label := range strings.Split(s, ".") {
		if !hostnameLabel.MatchString(label) {
			return false
		}
	}
	return true
}
