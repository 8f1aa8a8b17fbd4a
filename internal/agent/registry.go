package agent

import (
	"fmt"
	"sort"
	"sync"

	"github.com/longform-ai/longform/internal/core"
	"github.com/longform-ai/longform/internal/logging"
)

// Registry resolves agents by specialization. It implements
// core.AgentRegistry.
type Registry struct {
	mu     sync.RWMutex
	agents map[core.AgentKind]core.Agent
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{agents: make(map[core.AgentKind]core.Agent)}
}

// NewDefaultRegistry creates a registry with every built-in specialization
// wired to the given backend. The runner may be nil when sandboxed script
// execution is disabled.
func NewDefaultRegistry(backend core.TextBackend, runner core.ScriptRunner, cfg Config, logger *logging.Logger) *Registry {
	r := NewRegistry()
	_ = r.Register(NewWriter(backend, cfg, logger))
	_ = r.Register(NewResearch(backend, cfg, logger))
	_ = r.Register(NewAnalysis(backend, runner, cfg, logger))
	_ = r.Register(NewMethodology(backend, cfg, logger))
	_ = r.Register(NewDiscussion(backend, cfg, logger))
	return r
}

// Register adds an agent, replacing any prior agent of the same kind.
func (r *Registry) Register(agent core.Agent) error {
	if agent == nil {
		return core.ErrSection(core.CodeAgentUnavailable, "cannot register nil agent")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.agents[agent.Kind()] = agent
	return nil
}

// Get retrieves an agent by kind.
func (r *Registry) Get(kind core.AgentKind) (core.Agent, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	agent, ok := r.agents[kind]
	if !ok {
		return nil, core.ErrSection(core.CodeAgentUnavailable,
			fmt.Sprintf("no agent registered for kind %s", kind))
	}
	return agent, nil
}

// Kinds returns the registered agent kinds in sorted order.
func (r *Registry) Kinds() []core.AgentKind {
	r.mu.RLock()
	defer r.mu.RUnlock()
	kinds := make([]core.AgentKind, 0, len(r.agents))
	for k := range r.agents {
		kinds = append(kinds, k)
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })
	return kinds
}
