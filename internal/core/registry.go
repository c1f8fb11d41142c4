package core

import (
	"fmt"
	"sort"
	"sync"
)

// Failure records a recipient that could not be written to.
type Failure struct {
	Name string
	Peer *Peer
	Err  error
}

// Registry maps usernames to live peers. All mutations share one lock.
type Registry struct {
	mu    sync.Mutex
	peers map[string]*Peer
}

// NewRegistry constructs an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		peers: make(map[string]*Peer),
	}
}

// Register inserts name if it is not held by another peer.
func (r *Registry) Register(name string, p *Peer) error {
	if name == "" || p == nil {
		return ErrInvalidName
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.peers[name]; exists {
		return fmt.Errorf("register %q: %w", name, ErrNameTaken)
	}
	r.peers[name] = p
	return nil
}

// Remove deletes name. Removing an absent name is a no-op.
func (r *Registry) Remove(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.peers, name)
}

// Contains reports whether name is registered.
func (r *Registry) Contains(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.peers[name]
	return ok
}

// Len returns the number of registered peers.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.peers)
}

// Names returns registered usernames in sorted order.
func (r *Registry) Names() []string {
	r.mu.Lock()
	names := make([]string, 0, len(r.peers))
	for name := range r.peers {
		names = append(names, name)
	}
	r.mu.Unlock()

	sort.Strings(names)
	return names
}

// Broadcast writes line to every peer except the one named except.
// Handles are snapshotted under the lock and written after it is released,
// so a slow recipient never blocks Register or Remove.
// A failed write does not stop delivery to the remaining peers.
func (r *Registry) Broadcast(except, line string) (delivered int, failures []Failure) {
	type target struct {
		name string
		peer *Peer
	}

	r.mu.Lock()
	targets := make([]target, 0, len(r.peers))
	for name, p := range r.peers {
		if name == except {
			continue
		}
		targets = append(targets, target{name: name, peer: p})
	}
	r.mu.Unlock()

	for _, t := range targets {
		if err := t.peer.WriteLine(line); err != nil {
			failures = append(failures, Failure{Name: t.name, Peer: t.peer, Err: err})
			continue
		}
		delivered++
	}
	return delivered, failures
}
