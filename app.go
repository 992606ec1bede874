package main

import (
	"context"
	"encoding/json"
	"errors"
	"sync/atomic"

	"github.com/wailsapp/wails/v2/pkg/runtime"

	"nodemanager/internal/config"
	"nodemanager/internal/control"
	"nodemanager/internal/fleet"
	"nodemanager/internal/scan"
)

var (
	// ErrScanActive indicates a scan is already running.
	ErrScanActive = errors.New("scan already in progress")
	// ErrDispatchActive indicates a fleet command is already running.
	ErrDispatchActive = errors.New("command dispatch already in progress")
)

// App wires the registry, scanner, refresher and dispatcher together
// and exposes them to the frontend. Scan results and name updates reach
// the frontend as events; everything else is a direct method call.
type App struct {
	ctx context.Context
	cfg config.Config

	registry   *fleet.Registry
	scanner    *scan.Scanner
	refresher  *control.Refresher
	dispatcher *control.Dispatcher

	scanning    atomic.Bool
	dispatching atomic.Bool
	stopRefresh context.CancelFunc
}

// NewApp creates the application with its full wiring.
func NewApp(cfg config.Config) *App {
	registry := fleet.NewRegistry()
	client := control.NewClient(cfg.NameTimeout, cfg.CommandTimeout)

	a := &App{
		cfg:        cfg,
		registry:   registry,
		scanner:    scan.New(),
		dispatcher: control.NewDispatcher(registry, client),
	}
	a.refresher = control.NewRefresher(registry, client, cfg.RefreshInterval, a.emitNameUpdate)
	return a
}

// startup saves the runtime context and starts the background name
// refresher. Called by Wails when the app starts.
func (a *App) startup(ctx context.Context) {
	a.ctx = ctx

	refreshCtx, cancel := context.WithCancel(ctx)
	a.stopRefresh = cancel
	go a.refresher.Run(refreshCtx)
}

// shutdown stops the background refresher.
func (a *App) shutdown(ctx context.Context) {
	if a.stopRefresh != nil {
		a.stopRefresh()
	}
}

func (a *App) emitNameUpdate(address, name string) {
	runtime.EventsEmit(a.ctx, "node:name", map[string]string{
		"address": address,
		"name":    name,
	})
}

// StartScan sweeps the local segment in the background. New nodes are
// merged into the registry and announced via "scan:found"; a sweep that
// turns up nothing emits "scan:empty". A second call while a scan runs
// returns ErrScanActive.
func (a *App) StartScan() error {
	if !a.scanning.CompareAndSwap(false, true) {
		return ErrScanActive
	}
	runtime.EventsEmit(a.ctx, "scan:started")

	go func() {
		defer a.scanning.Store(false)

		found, err := a.scanner.Scan(a.ctx, scan.Config{
			Prefix:  a.cfg.Prefix,
			Port:    a.cfg.ScanPort,
			Timeout: a.cfg.ScanTimeout,
			Workers: a.cfg.ScanWorkers,
		})
		if err != nil {
			runtime.EventsEmit(a.ctx, "scan:error", err.Error())
			return
		}
		if len(found) == 0 {
			runtime.EventsEmit(a.ctx, "scan:empty")
			return
		}

		candidates := make([]fleet.Node, len(found))
		for i, target := range found {
			candidates[i] = fleet.Node{Address: target.Address, Port: target.Port}
		}
		added := a.registry.Merge(candidates)
		runtime.EventsEmit(a.ctx, "scan:found", added)

		if a.cfg.Enrich && len(added) > 0 {
			go a.enrich(added)
		}
	}()
	return nil
}

// enrich gathers passive details for freshly discovered nodes, one at a
// time so it never competes with a running scan for sockets.
func (a *App) enrich(nodes []fleet.Node) {
	for _, node := range nodes {
		if a.ctx.Err() != nil {
			return
		}
		a.registry.SetDetails(node.Address, scan.Collect(a.ctx, node.Address))
	}
	runtime.EventsEmit(a.ctx, "nodes:details")
}

// Nodes returns the registry snapshot in first-discovered order.
func (a *App) Nodes() []fleet.Node {
	return a.registry.Snapshot()
}

// SetSelected updates one node's selection checkbox state.
func (a *App) SetSelected(address string, selected bool) {
	a.registry.SetSelected(address, selected)
}

// SetAllSelected toggles selection on every node.
func (a *App) SetAllSelected(selected bool) {
	a.registry.SetAllSelected(selected)
}

// RemoveNode drops a node from the registry.
func (a *App) RemoveNode(address string) {
	a.registry.Remove(address)
	runtime.EventsEmit(a.ctx, "node:removed", address)
}

// ClearNodes empties the registry.
func (a *App) ClearNodes() {
	a.registry.Clear()
	runtime.EventsEmit(a.ctx, "nodes:cleared")
}

// RunCommand dispatches reboot/shutdown to all selected nodes and
// returns the per-node outcomes. The registry loses every node that
// accepted the command; the frontend re-reads Nodes afterwards.
// "fleet:busy" events bracket the dispatch so the frontend can disable
// its controls.
func (a *App) RunCommand(command string) ([]control.Outcome, error) {
	if !a.dispatching.CompareAndSwap(false, true) {
		return nil, ErrDispatchActive
	}
	defer a.dispatching.Store(false)

	runtime.EventsEmit(a.ctx, "fleet:busy", true)
	defer runtime.EventsEmit(a.ctx, "fleet:busy", false)

	outcomes, err := a.dispatcher.Dispatch(a.ctx, command)
	if err != nil {
		return nil, err
	}
	for _, outcome := range outcomes {
		if outcome.Removed {
			runtime.EventsEmit(a.ctx, "node:removed", outcome.Address)
		}
	}
	return outcomes, nil
}

// ExportNodes serialises the current registry snapshot to JSON.
func (a *App) ExportNodes() (string, error) {
	data, err := json.MarshalIndent(a.registry.Snapshot(), "", "  ")
	if err != nil {
		return "", err
	}
	return string(data), nil
}
