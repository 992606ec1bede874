package scan

import (
	"context"
	"net"
	"testing"
	"time"
)

func TestProbeReachable(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("failed to listen: %v", err)
	}
	defer ln.Close()

	addr := ln.Addr().(*net.TCPAddr)
	if !Probe(context.Background(), "127.0.0.1", addr.Port, time.Second) {
		t.Fatalf("expected listening port %d to be reachable", addr.Port)
	}
}

func TestProbeRefused(t *testing.T) {
	// Grab a free port and close it again so nothing listens there.
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("failed to listen: %v", err)
	}
	port := ln.Addr().(*net.TCPAddr).Port
	ln.Close()

	if Probe(context.Background(), "127.0.0.1", port, time.Second) {
		t.Fatalf("expected closed port %d to be unreachable", port)
	}
}

func TestProbeTimeoutBound(t *testing.T) {
	timeout := 300 * time.Millisecond
	start := time.Now()

	// 203.0.113.0/24 is TEST-NET-3, guaranteed not to answer.
	reachable := Probe(context.Background(), "203.0.113.1", 5000, timeout)
	elapsed := time.Since(start)

	if reachable {
		t.Fatalf("expected TEST-NET address to be unreachable")
	}
	if elapsed > timeout+time.Second {
		t.Fatalf("probe took %v, expected to return close to the %v timeout", elapsed, timeout)
	}
}

func TestPrefixOf(t *testing.T) {
	prefix, err := PrefixOf("192.168.1.42")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if prefix != "192.168.1" {
		t.Fatalf("expected prefix 192.168.1, got %s", prefix)
	}

	if _, err := PrefixOf("not-an-ip"); err == nil {
		t.Fatalf("expected error for invalid address")
	}
	if _, err := PrefixOf("fe80::1"); err == nil {
		t.Fatalf("expected error for IPv6 address")
	}
}

func TestExpandPrefix(t *testing.T) {
	addresses := expandPrefix("10.0.0")
	if len(addresses) != 254 {
		t.Fatalf("expected 254 addresses, got %d", len(addresses))
	}
	if addresses[0] != "10.0.0.1" {
		t.Fatalf("expected first address 10.0.0.1, got %s", addresses[0])
	}
	if addresses[253] != "10.0.0.254" {
		t.Fatalf("expected last address 10.0.0.254, got %s", addresses[253])
	}
	for _, addr := range addresses {
		if addr == "10.0.0.0" || addr == "10.0.0.255" {
			t.Fatalf("network/broadcast address %s must be excluded", addr)
		}
	}
}

func TestNormaliseMAC(t *testing.T) {
	input := "8c-85-90-12-34-56"
	want := "8C:85:90:12:34:56"
	if got := normaliseMAC(input); got != want {
		t.Fatalf("expected %s, got %s", want, got)
	}
	if normaliseMAC("invalid") != "" {
		t.Fatalf("expected empty result for invalid mac")
	}
}
