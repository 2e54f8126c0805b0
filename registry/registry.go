package registry

import (
	"fmt"
	"sort"
	"sync"

	"github.com/NethermindEth/basesociety/agent"
	"github.com/NethermindEth/basesociety/core"
)

// Registry maps agent ids to running actors. Lookup, List and Len share a
// read lock; Register and Remove take the write lock.
type Registry struct {
	mu     sync.RWMutex
	agents map[string]*agent.Actor
}

// New creates an empty Registry.
func New() *Registry {
	return &Registry{
		agents: make(map[string]*agent.Actor),
	}
}

// Register adds an actor under id.
func (r *Registry) Register(id string, a *agent.Actor) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.agents[id]; exists {
		return fmt.Errorf("%w: %s", core.ErrDuplicateID, id)
	}
	r.agents[id] = a
	return nil
}

// Lookup returns the actor registered under id.
func (r *Registry) Lookup(id string) (*agent.Actor, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	a, exists := r.agents[id]
	if !exists {
		return nil, fmt.Errorf("%w: %s", core.ErrNotFound, id)
	}
	return a, nil
}

// List returns a point-in-time snapshot of all actors, sorted by id.
func (r *Registry) List() []*agent.Actor {
	r.mu.RLock()
	defer r.mu.RUnlock()

	actors := make([]*agent.Actor, 0, len(r.agents))
	for _, a := range r.agents {
		actors = append(actors, a)
	}
	sort.Slice(actors, func(i, j int) bool {
		return actors[i].ID() < actors[j].ID()
	})
	return actors
}

// Remove deletes id and returns the actor that was registered. The actor
// keeps running; stopping it is the caller's job.
func (r *Registry) Remove(id string) (*agent.Actor, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	a, exists := r.agents[id]
	if !exists {
		return nil, fmt.Errorf("%w: %s", core.ErrNotFound, id)
	}
	delete(r.agents, id)
	return a, nil
}

// Len returns the number of registered actors.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.agents)
}
