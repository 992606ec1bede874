package scan

import (
	"context"
	"sync"
	"time"

	"nodemanager/internal/logger"
)

// ProbeFunc checks whether a single address accepts TCP connections on
// the given port.
type ProbeFunc func(ctx context.Context, address string, port int, timeout time.Duration) bool

// Scanner sweeps a /24 range for nodes with a bounded worker pool.
type Scanner struct {
	probe ProbeFunc
	log   logger.Logger
}

// New creates a scanner using the real TCP prober.
func New() *Scanner {
	return &Scanner{probe: Probe, log: logger.NewEnvLogger("[scan]")}
}

// Scan probes suffixes 1..254 of the configured prefix and returns the
// targets that accepted a connection. Results surface as probes finish,
// so the returned order carries no meaning. Scan returns only after
// every in-flight probe has completed or timed out; an empty result is
// not an error. When no prefix is configured the local /24 is derived
// from the machine's own address.
func (s *Scanner) Scan(ctx context.Context, cfg Config) ([]Target, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	prefix := cfg.Prefix
	if prefix == "" {
		local, err := LocalIP()
		if err != nil {
			return nil, err
		}
		prefix, err = PrefixOf(local)
		if err != nil {
			return nil, err
		}
	}

	addresses := expandPrefix(prefix)
	s.log.Debug("scanning %s.1-254 port %d with %d workers", prefix, cfg.Port, cfg.Workers)

	workers := cfg.Workers
	if workers > len(addresses) {
		workers = len(addresses)
	}

	jobs := make(chan string)
	results := make(chan Target)

	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			for address := range jobs {
				if s.probe(ctx, address, cfg.Port, cfg.Timeout) {
					results <- Target{Address: address, Port: cfg.Port}
				}
			}
		}()
	}

	go func() {
		defer close(jobs)
		for _, address := range addresses {
			select {
			case <-ctx.Done():
				return
			case jobs <- address:
			}
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	var found []Target
	for target := range results {
		found = append(found, target)
	}

	s.log.Debug("scan of %s finished, %d nodes found", prefix, len(found))
	return found, nil
}
