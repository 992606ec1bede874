package control

import (
	"context"
	"time"

	"nodemanager/internal/fleet"
	"nodemanager/internal/logger"
)

// DefaultRefreshInterval is how long the refresher waits between cycles.
const DefaultRefreshInterval = 60 * time.Second

// Refresher periodically polls every registered node for its display
// name and writes the result back to the registry. A node that fails to
// answer is skipped for the cycle and retried on the next one.
type Refresher struct {
	registry *fleet.Registry
	client   *Client
	interval time.Duration
	onName   func(address, name string)
	log      logger.Logger
}

// NewRefresher creates a refresher. onName is invoked after each
// successful name update and may be nil. A non-positive interval falls
// back to the default.
func NewRefresher(registry *fleet.Registry, client *Client, interval time.Duration, onName func(address, name string)) *Refresher {
	if interval <= 0 {
		interval = DefaultRefreshInterval
	}
	return &Refresher{
		registry: registry,
		client:   client,
		interval: interval,
		onName:   onName,
		log:      logger.NewEnvLogger("[refresh]"),
	}
}

// Run executes refresh cycles until the context is cancelled. The
// interval is measured from the end of one cycle to the start of the
// next, so a slow fleet does not make cycles pile up.
func (r *Refresher) Run(ctx context.Context) {
	timer := time.NewTimer(r.interval)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
		}

		r.RefreshOnce(ctx)
		timer.Reset(r.interval)
	}
}

// RefreshOnce performs a single refresh cycle over a snapshot of the
// registry. Network I/O happens outside any registry lock; only the
// final SetName takes it, briefly. Nodes removed mid-cycle are handled
// by SetName being a no-op for unknown addresses.
func (r *Refresher) RefreshOnce(ctx context.Context) {
	for _, node := range r.registry.Snapshot() {
		if ctx.Err() != nil {
			return
		}

		name, err := r.client.FetchName(ctx, node.Address, node.Port)
		if err != nil {
			r.log.Debug("name query for %s failed: %v", node.Address, err)
			continue
		}

		r.registry.SetName(node.Address, name)
		if r.onName != nil {
			r.onName(node.Address, name)
		}
	}
}
