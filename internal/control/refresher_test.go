package control

import (
	"context"
	"io"
	"net/http"
	"sync"
	"testing"
	"time"

	"nodemanager/internal/fleet"
	"nodemanager/internal/logger"
)

func TestRefreshOnceIsolatesFailures(t *testing.T) {
	goodPort, _ := nodeServer(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `"server-1"`)
	}))
	deadPort := closedPort(t)

	registry := fleet.NewRegistry()
	registry.Merge([]fleet.Node{
		{Address: "127.0.0.1", Port: goodPort},
	})
	// A second loopback alias keeps the two nodes distinct by address;
	// its port has nothing listening, so its name query always fails.
	registry.Merge([]fleet.Node{
		{Address: "127.0.0.2", Port: deadPort},
	})

	var mu sync.Mutex
	var updates []string
	onName := func(address, name string) {
		mu.Lock()
		updates = append(updates, address+"="+name)
		mu.Unlock()
	}

	client := NewClient(50*time.Millisecond, 5*time.Second)
	refresher := NewRefresher(registry, client, time.Minute, onName)
	refresher.log = logger.Noop()

	refresher.RefreshOnce(context.Background())

	node, _ := registry.Get("127.0.0.1")
	if node.Name != "server-1" {
		t.Fatalf("expected refreshed name server-1, got %q", node.Name)
	}
	node, _ = registry.Get("127.0.0.2")
	if node.Name != fleet.DefaultName {
		t.Fatalf("expected unreachable node to keep its name, got %q", node.Name)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(updates) != 1 || updates[0] != "127.0.0.1=server-1" {
		t.Fatalf("expected a single name update for 127.0.0.1, got %v", updates)
	}
}

func TestRefreshOnceEmptyRegistry(t *testing.T) {
	client := NewClient(time.Second, 5*time.Second)
	refresher := NewRefresher(fleet.NewRegistry(), client, time.Minute, nil)
	refresher.log = logger.Noop()

	// Must be a no-op, not a panic or a hang.
	refresher.RefreshOnce(context.Background())
}

func TestRunStopsOnCancel(t *testing.T) {
	client := NewClient(time.Second, 5*time.Second)
	refresher := NewRefresher(fleet.NewRegistry(), client, 10*time.Millisecond, nil)
	refresher.log = logger.Noop()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		refresher.Run(ctx)
		close(done)
	}()

	// Let a few cycles pass, then stop.
	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("refresher did not stop after cancellation")
	}
}

func TestRefreshCyclesKeepRetrying(t *testing.T) {
	var mu sync.Mutex
	calls := 0
	port, _ := nodeServer(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		calls++
		failing := calls == 1
		mu.Unlock()
		if failing {
			time.Sleep(200 * time.Millisecond)
			return
		}
		io.WriteString(w, `"recovered"`)
	}))

	registry := fleet.NewRegistry()
	registry.Merge([]fleet.Node{{Address: "127.0.0.1", Port: port}})

	client := NewClient(50*time.Millisecond, 5*time.Second)
	refresher := NewRefresher(registry, client, time.Minute, nil)
	refresher.log = logger.Noop()

	refresher.RefreshOnce(context.Background())
	node, _ := registry.Get("127.0.0.1")
	if node.Name != fleet.DefaultName {
		t.Fatalf("expected first cycle to fail, name is %q", node.Name)
	}

	refresher.RefreshOnce(context.Background())
	node, _ = registry.Get("127.0.0.1")
	if node.Name != "recovered" {
		t.Fatalf("expected second cycle to recover, name is %q", node.Name)
	}
}
