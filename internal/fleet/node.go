// Package fleet tracks the set of nodes known to the manager. The
// registry is the single source of truth shared by discovery, the
// background name refresher and command dispatch.
package fleet

// DefaultName is the display name of a node before its first successful
// name refresh.
const DefaultName = "—"

// Node describes a discovered machine exposing the HTTP control API.
// A node is identified by its address; the port is fixed per deployment.
type Node struct {
	Address  string   `json:"address"`
	Port     int      `json:"port"`
	Name     string   `json:"name"`
	Selected bool     `json:"selected"`
	Details  *Details `json:"details,omitempty"`
}

// Details carries optional metadata gathered after discovery. None of it
// participates in node identity or control.
type Details struct {
	LatencyMs    float64  `json:"latencyMs,omitempty"`
	TTL          int      `json:"ttl,omitempty"`
	MacAddress   string   `json:"macAddress,omitempty"`
	Manufacturer string   `json:"manufacturer,omitempty"`
	MDNSNames    []string `json:"mdnsNames,omitempty"`
}
