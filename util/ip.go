package util

import (
	"fmt"
	"net"
)

var internalIPBlocks []*net.IPNet

func init() {
	internalIPs, err := ParseSubnets(
		[]string{
			//"127.0.0.0/8",    // IPv4 Loopback; handled by ip.IsLoopback
			//"::1/128",        // IPv6 Loopback; handled by ip.IsLoopback
			"10.0.0.0/8",     // RFC1918
			"172.16.0.0/12",  // RFC1918
			"192.168.0.0/16", // RFC1918
			"fc00::/7",       // IPv6 unique local addr
		})

	if err == nil {
		internalIPBlocks = internalIPs
	} else {
		panic(fmt.Sprintf("Error defining internal IPs: %v", err.Error()))
	}
}

// ParseSubnets parses the provided subnets into net.IPNet format.
// Bare addresses are treated as single host networks.
func ParseSubnets(subnets []string) ([]*net.IPNet, error) {
	var parsedSubnets []*net.IPNet

	for _, entry := range subnets {
		// Try to parse out CIDR range
		_, block, err := net.ParseCIDR(entry)

		// If there was an error, check if entry was an IP
		if err != nil {
			ipAddr := net.ParseIP(entry)
			if ipAddr == nil {
				return parsedSubnets, fmt.Errorf("error parsing entry %q: %w", entry, err)
			}

			// Check if it's an IPv4 or IPv6 address and append the appropriate subnet mask
			var subnetMask string
			if ipAddr.To4() != nil {
				subnetMask = "/32"
			} else {
				subnetMask = "/128"
			}

			// Append the subnet mask and parse as a CIDR range
			_, block, err = net.ParseCIDR(entry + subnetMask)
			if err != nil {
				return parsedSubnets, fmt.Errorf("error parsing CIDR entry %q: %w", entry, err)
			}
		}

		// Add CIDR range to the list
		parsedSubnets = append(parsedSubnets, block)
	}
	return parsedSubnets, nil
}

// IPIsInternal checks if an IP address belongs to private or loopback
// address space. Additional subnets may be supplied to widen the internal space.
func IPIsInternal(ip net.IP, extra ...*net.IPNet) bool {
	if ip == nil {
		return false
	}

	// cache IPv4 conversion so it not performed every in every ip.IsXXX method
	if ipv4 := ip.To4(); ipv4 != nil {
		ip = ipv4
	}

	if ip.IsLoopback() {
		return true
	}

	return ContainsIP(internalIPBlocks, ip) || ContainsIP(extra, ip)
}

// IsInternal parses the textual address and reports whether it is internal.
// Unparsable addresses are never internal.
func IsInternal(address string, extra ...*net.IPNet) bool {
	return IPIsInternal(net.ParseIP(address), extra...)
}

// ContainsIP checks if a collection of subnets contains an IP
func ContainsIP(subnets []*net.IPNet, ip net.IP) bool {
	// cache IPv4 conversion so it not performed every in every Contains call
	if ipv4 := ip.To4(); ipv4 != nil {
		ip = ipv4
	}

	for _, block := range subnets {
		if block.Contains(ip) {
			return true
		}
	}
	return false
}
