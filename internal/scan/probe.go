package scan

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"
)

// Probe attempts a TCP connection to address:port within the timeout.
// Any connection failure (refused, timeout, unreachable) collapses to
// false; a node is either present or it is not.
func Probe(ctx context.Context, address string, port int, timeout time.Duration) bool {
	dialer := &net.Dialer{Timeout: timeout}
	conn, err := dialer.DialContext(ctx, "tcp", net.JoinHostPort(address, strconv.Itoa(port)))
	if err != nil {
		return false
	}
	_ = conn.Close()
	return true
}

// LocalIP returns the machine's outbound IPv4 address. Dialing UDP does
// not send any packet; it only asks the kernel to pick a source address.
func LocalIP() (string, error) {
	conn, err := net.Dial("udp4", "10.255.255.255:1")
	if err != nil {
		return "", fmt.Errorf("detect local address: %w", err)
	}
	defer conn.Close()

	addr, ok := conn.LocalAddr().(*net.UDPAddr)
	if !ok || addr.IP.To4() == nil {
		return "", errors.New("no local IPv4 address")
	}
	return addr.IP.To4().String(), nil
}

// PrefixOf derives the /24 scan prefix (first three octets) from a
// dotted-quad IPv4 address.
func PrefixOf(address string) (string, error) {
	ip := net.ParseIP(address)
	if ip == nil || ip.To4() == nil {
		return "", fmt.Errorf("not an IPv4 address: %q", address)
	}
	parts := strings.Split(ip.To4().String(), ".")
	return strings.Join(parts[:3], "."), nil
}

// expandPrefix lists the 254 host addresses of a /24 prefix. The network
// (.0) and broadcast (.255) addresses are excluded.
func expandPrefix(prefix string) []string {
	addresses := make([]string, 0, 254)
	for suffix := 1; suffix <= 254; suffix++ {
		addresses = append(addresses, fmt.Sprintf("%s.%d", prefix, suffix))
	}
	return addresses
}
