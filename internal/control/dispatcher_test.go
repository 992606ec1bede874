package control

import (
	"context"
	"net/http"
	"sync"
	"testing"
	"time"

	"nodemanager/internal/fleet"
	"nodemanager/internal/logger"
)

func newTestDispatcher(registry *fleet.Registry) *Dispatcher {
	d := NewDispatcher(registry, NewClient(time.Second, time.Second))
	d.log = logger.Noop()
	return d
}

func TestDispatchRemovesOnlySucceededSelectedNodes(t *testing.T) {
	var mu sync.Mutex
	var commanded []string
	okPort, _ := nodeServer(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		commanded = append(commanded, r.URL.Path)
		mu.Unlock()
	}))
	deadPort := closedPort(t)

	registry := fleet.NewRegistry()
	// A succeeds, B is unselected, C fails.
	registry.Merge([]fleet.Node{{Address: "127.0.0.1", Port: okPort}})
	registry.Merge([]fleet.Node{{Address: "127.0.0.2", Port: okPort}})
	registry.Merge([]fleet.Node{{Address: "127.0.0.3", Port: deadPort}})
	registry.SetSelected("127.0.0.1", true)
	registry.SetSelected("127.0.0.3", true)

	outcomes, err := newTestDispatcher(registry).Dispatch(context.Background(), CommandReboot)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(outcomes) != 2 {
		t.Fatalf("expected outcomes for the 2 selected nodes, got %d", len(outcomes))
	}
	byAddr := make(map[string]Outcome)
	for _, o := range outcomes {
		byAddr[o.Address] = o
	}
	if o := byAddr["127.0.0.1"]; !o.Removed || o.Err != nil {
		t.Fatalf("expected 127.0.0.1 to succeed and be removed, got %+v", o)
	}
	if o := byAddr["127.0.0.3"]; o.Removed || o.Err == nil {
		t.Fatalf("expected 127.0.0.3 to fail and be retained, got %+v", o)
	}

	if _, ok := registry.Get("127.0.0.1"); ok {
		t.Fatalf("expected succeeded node to be removed from registry")
	}
	node, ok := registry.Get("127.0.0.2")
	if !ok || node.Selected {
		t.Fatalf("expected unselected node untouched, got %+v ok=%v", node, ok)
	}
	node, ok = registry.Get("127.0.0.3")
	if !ok || !node.Selected {
		t.Fatalf("expected failed node retained and still selected, got %+v ok=%v", node, ok)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(commanded) != 1 || commanded[0] != "/machine-control" {
		t.Fatalf("expected exactly one control request, got %v", commanded)
	}
}

func TestDispatchEmptyRegistryIsNoop(t *testing.T) {
	outcomes, err := newTestDispatcher(fleet.NewRegistry()).Dispatch(context.Background(), CommandShutdown)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if outcomes != nil {
		t.Fatalf("expected no outcomes, got %v", outcomes)
	}
}

func TestDispatchNoSelectionIsNoop(t *testing.T) {
	okPort, _ := nodeServer(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("no request expected for unselected nodes")
	}))

	registry := fleet.NewRegistry()
	registry.Merge([]fleet.Node{{Address: "127.0.0.1", Port: okPort}})

	outcomes, err := newTestDispatcher(registry).Dispatch(context.Background(), CommandReboot)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(outcomes) != 0 {
		t.Fatalf("expected no outcomes, got %d", len(outcomes))
	}
	if registry.Len() != 1 {
		t.Fatalf("expected registry untouched")
	}
}

func TestDispatchRejectsUnknownCommand(t *testing.T) {
	registry := fleet.NewRegistry()
	registry.Merge([]fleet.Node{{Address: "127.0.0.1", Port: 5000}})
	registry.SetSelected("127.0.0.1", true)

	if _, err := newTestDispatcher(registry).Dispatch(context.Background(), "explode"); err != ErrUnknownCommand {
		t.Fatalf("expected ErrUnknownCommand, got %v", err)
	}
	if registry.Len() != 1 {
		t.Fatalf("invalid command must not touch the registry")
	}
}
