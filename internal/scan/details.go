package scan

import (
	"context"
	"os"
	"os/exec"
	"regexp"
	"runtime"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/endobit/oui"
	ping "github.com/go-ping/ping"
	"github.com/grandcat/zeroconf"

	"nodemanager/internal/fleet"
)

var (
	macLinePattern    = regexp.MustCompile(`(?i)([0-9a-f]{2}[:-]){5}([0-9a-f]{2})`)
	whitespacePattern = regexp.MustCompile(`\s+`)
)

// Collect gathers passive metadata for a discovered node: ICMP latency
// and TTL, the MAC address with its vendor, and any mDNS names the host
// advertises. Every lookup is best-effort and bounded; missing data is
// left zero. None of this touches the node's control API.
func Collect(ctx context.Context, host string) fleet.Details {
	detailCtx, cancel := context.WithTimeout(ctx, 4*time.Second)
	defer cancel()

	var details fleet.Details
	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		details.LatencyMs, details.TTL = pingLatency(detailCtx, host)
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		mac := lookupMACAddress(detailCtx, host)
		details.MacAddress = mac
		if mac != "" {
			details.Manufacturer = oui.Vendor(strings.ToLower(mac))
		}
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		details.MDNSNames = lookupMDNS(detailCtx, host)
	}()

	wg.Wait()
	return details
}

func pingLatency(ctx context.Context, host string) (float64, int) {
	pinger, err := ping.NewPinger(host)
	if err != nil {
		return 0, 0
	}
	pinger.SetPrivileged(runtime.GOOS == "windows")
	pinger.Count = 1
	pinger.Timeout = 2 * time.Second

	var ttl int
	pinger.OnRecv = func(pkt *ping.Packet) {
		if pkt.Ttl > 0 {
			ttl = pkt.Ttl
		}
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- pinger.Run()
	}()

	select {
	case <-ctx.Done():
		pinger.Stop()
		return 0, 0
	case err := <-errCh:
		if err != nil {
			return 0, 0
		}
	}

	stats := pinger.Statistics()
	if stats == nil || stats.PacketsRecv == 0 {
		return 0, 0
	}
	return stats.AvgRtt.Seconds() * 1000, ttl
}

func lookupMDNS(ctx context.Context, host string) []string {
	resolver, err := zeroconf.NewResolver(nil)
	if err != nil {
		return nil
	}

	entries := make(chan *zeroconf.ServiceEntry)

	browseCtx, cancel := context.WithTimeout(ctx, 1500*time.Millisecond)
	defer cancel()

	var resultsMu sync.Mutex
	results := make(map[string]struct{})

	go func() {
		for entry := range entries {
			for _, ipv4 := range entry.AddrIPv4 {
				if ipv4.String() != host {
					continue
				}
				resultsMu.Lock()
				if entry.Instance != "" {
					results[entry.Instance] = struct{}{}
				}
				if entry.HostName != "" {
					results[entry.HostName] = struct{}{}
				}
				resultsMu.Unlock()
			}
		}
	}()

	if err := resolver.Browse(browseCtx, "_services._dns-sd._udp", "local.", entries); err != nil {
		return nil
	}
	<-browseCtx.Done()

	resultsMu.Lock()
	defer resultsMu.Unlock()
	if len(results) == 0 {
		return nil
	}
	out := make([]string, 0, len(results))
	for key := range results {
		out = append(out, strings.TrimSuffix(key, "."))
	}
	sort.Strings(out)
	return out
}

func lookupMACAddress(ctx context.Context, host string) string {
	if mac := lookupMACFromProc(host); mac != "" {
		return mac
	}
	return lookupMACViaARPCommand(ctx, host)
}

func lookupMACFromProc(host string) string {
	data, err := os.ReadFile("/proc/net/arp")
	if err != nil {
		return ""
	}
	lines := strings.Split(string(data), "\n")
	for _, line := range lines[1:] {
		fields := whitespacePattern.Split(strings.TrimSpace(line), -1)
		if len(fields) < 4 {
			continue
		}
		if fields[0] == host {
			if mac := normaliseMAC(fields[3]); mac != "" {
				return mac
			}
		}
	}
	return ""
}

func lookupMACViaARPCommand(ctx context.Context, host string) string {
	var cmd *exec.Cmd
	if runtime.GOOS == "windows" {
		cmd = exec.CommandContext(ctx, "arp", "-a", host)
	} else {
		cmd = exec.CommandContext(ctx, "arp", "-n", host)
	}
	output, err := cmd.Output()
	if err != nil {
		return ""
	}
	return normaliseMAC(macLinePattern.FindString(string(output)))
}

func normaliseMAC(raw string) string {
	if raw == "" {
		return ""
	}
	raw = strings.ToUpper(strings.ReplaceAll(strings.ReplaceAll(raw, "-", ":"), ".", ":"))
	match := macLinePattern.FindString(raw)
	if match == "" {
		return ""
	}
	parts := strings.Split(match, ":")
	if len(parts) != 6 {
		return ""
	}
	for i := range parts {
		if len(parts[i]) == 1 {
			parts[i] = "0" + parts[i]
		}
	}
	return strings.Join(parts, ":")
}
