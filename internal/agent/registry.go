package agent

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

// ErrNotFound is returned by Resolve for an unregistered agent type.
var ErrNotFound = errors.New("agent type not registered")

// Registry holds registered agents keyed by their open string type tag. New
// agent kinds register at startup; dispatch resolves them by tag instead of
// branch-selecting inline.
type Registry struct {
	mu     sync.RWMutex
	agents map[string]Agent
}

// NewRegistry creates an empty agent registry.
func NewRegistry() *Registry {
	return &Registry{
		agents: make(map[string]Agent),
	}
}

// Register adds an agent to the registry under the given type tag.
func (r *Registry) Register(agentType string, a Agent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.agents[agentType] = a
}

// Resolve returns the agent registered under the given type tag. The error
// wraps ErrNotFound so callers can classify the failure as a dispatch error.
func (r *Registry) Resolve(agentType string) (Agent, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	a, ok := r.agents[agentType]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrNotFound, agentType)
	}
	return a, nil
}

// List returns information about all registered agents, sorted by type tag
// for a stable API response.
func (r *Registry) List() []Info {
	r.mu.RLock()
	defer r.mu.RUnlock()

	infos := make([]Info, 0, len(r.agents))
	for _, a := range r.agents {
		infos = append(infos, a.Info())
	}
	sort.Slice(infos, func(i, j int) bool {
		return infos[i].Type < infos[j].Type
	})
	return infos
}
