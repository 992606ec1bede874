package fleet

import "sync"

// Registry is the authoritative in-memory set of known nodes. Nodes are
// keyed by address and kept in the order they were first merged. Every
// method is an individual critical section; callers must never hold
// results across a network operation and mutate them in place. Iteration
// always goes through Snapshot.
type Registry struct {
	mu    sync.Mutex
	nodes map[string]Node
	order []string
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{nodes: make(map[string]Node)}
}

// Merge inserts the given nodes, skipping addresses that are already
// present, and returns only the subset actually added. New nodes start
// unselected with the default display name unless one was provided.
func (r *Registry) Merge(found []Node) []Node {
	r.mu.Lock()
	defer r.mu.Unlock()

	var added []Node
	for _, node := range found {
		if _, exists := r.nodes[node.Address]; exists {
			continue
		}
		if node.Name == "" {
			node.Name = DefaultName
		}
		node.Selected = false
		r.nodes[node.Address] = node
		r.order = append(r.order, node.Address)
		added = append(added, node)
	}
	return added
}

// Remove deletes the node with the given address. Removing an absent
// address is a no-op.
func (r *Registry) Remove(address string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.nodes[address]; !exists {
		return
	}
	delete(r.nodes, address)
	for i, addr := range r.order {
		if addr == address {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
}

// Clear removes every node.
func (r *Registry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nodes = make(map[string]Node)
	r.order = nil
}

// Snapshot returns the nodes in first-discovered order. The returned
// slice is a copy and safe to iterate while the registry mutates.
func (r *Registry) Snapshot() []Node {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]Node, 0, len(r.order))
	for _, addr := range r.order {
		if node, ok := r.nodes[addr]; ok {
			out = append(out, node)
		}
	}
	return out
}

// Get returns the node with the given address, if present.
func (r *Registry) Get(address string) (Node, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	node, ok := r.nodes[address]
	return node, ok
}

// Len returns the number of known nodes.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.nodes)
}

// SetName updates a node's display name. It is a no-op if the node was
// removed in the meantime.
func (r *Registry) SetName(address, name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if node, ok := r.nodes[address]; ok {
		node.Name = name
		r.nodes[address] = node
	}
}

// SetSelected updates a node's selection flag. No-op for unknown nodes.
func (r *Registry) SetSelected(address string, selected bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if node, ok := r.nodes[address]; ok {
		node.Selected = selected
		r.nodes[address] = node
	}
}

// SetAllSelected sets the selection flag on every node.
func (r *Registry) SetAllSelected(selected bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for addr, node := range r.nodes {
		node.Selected = selected
		r.nodes[addr] = node
	}
}

// SetDetails attaches gathered metadata to a node. No-op if the node was
// removed before enrichment finished.
func (r *Registry) SetDetails(address string, details Details) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if node, ok := r.nodes[address]; ok {
		node.Details = &details
		r.nodes[address] = node
	}
}
