// Package scan discovers nodes on the local network segment by probing a
// fixed control port across a /24-style address range.
package scan

import (
	"errors"
	"fmt"
	"net"
	"time"
)

// Defaults for a scan run. The worker cap keeps concurrent connection
// attempts from exhausting ephemeral ports or tripping host rate limits.
const (
	DefaultPort    = 5000
	DefaultTimeout = time.Second
	DefaultWorkers = 20
)

// Config describes the parameters of a scan run.
type Config struct {
	// Prefix is the first three octets of the range to scan, e.g.
	// "192.168.1". Empty means derive it from the local address.
	Prefix  string
	Port    int
	Timeout time.Duration
	Workers int
}

// Validate checks that the configuration is usable.
func (c Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("port %d out of range", c.Port)
	}
	if c.Timeout <= 0 {
		return errors.New("timeout must be positive")
	}
	if c.Workers <= 0 {
		return errors.New("workers must be greater than 0")
	}
	if c.Prefix != "" {
		if ip := net.ParseIP(c.Prefix + ".1"); ip == nil {
			return fmt.Errorf("invalid prefix %q", c.Prefix)
		}
	}
	return nil
}

// Target identifies a reachable node found by a scan.
type Target struct {
	Address string `json:"address"`
	Port    int    `json:"port"`
}
