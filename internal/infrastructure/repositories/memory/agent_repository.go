package memory

import (
	"context"
	"fmt"
	"sync"

	"agentmart/internal/core/access"
	"agentmart/internal/core/domain"
	"agentmart/internal/core/ports"
)

type MemoryAgentRepository struct {
	agents map[domain.AgentID]*domain.Agent
	mu     sync.RWMutex
}

func NewMemoryAgentRepository() ports.AgentRepository {
	return &MemoryAgentRepository{
		agents: make(map[domain.AgentID]*domain.Agent),
	}
}

func (r *MemoryAgentRepository) Create(ctx context.Context, agent *domain.Agent) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.agents[agent.ID]; exists {
		return fmt.Errorf("agent already exists: %s", agent.ID)
	}

	cp := *agent
	r.agents[agent.ID] = &cp
	return nil
}

func (r *MemoryAgentRepository) GetByID(ctx context.Context, id domain.AgentID) (*domain.Agent, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	agent, exists := r.agents[id]
	if !exists {
		return nil, domain.ErrAgentNotFound
	}
	cp := *agent
	return &cp, nil
}

func (r *MemoryAgentRepository) Find(ctx context.Context, id domain.AgentID, filter access.Filter) (*domain.Agent, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	agent, exists := r.agents[id]
	if !exists || !filter.Matches(agent) {
		return nil, domain.ErrAgentNotFound
	}
	cp := *agent
	return &cp, nil
}

func (r *MemoryAgentRepository) matching(filter access.Filter, criteria domain.AgentCriteria) []*domain.Agent {
	var result []*domain.Agent
	for _, agent := range r.agents {
		if filter.Matches(agent) && criteria.Narrows(agent) {
			cp := *agent
			result = append(result, &cp)
		}
	}
	return result
}

func (r *MemoryAgentRepository) List(ctx context.Context, filter access.Filter, query domain.AgentQuery) ([]*domain.Agent, error) {
	r.mu.RLock()
	result := r.matching(filter, query.Criteria)
	r.mu.RUnlock()

	domain.SortNewestFirst(result)
	return domain.Paginate(result, query.Page), nil
}

func (r *MemoryAgentRepository) Count(ctx context.Context, filter access.Filter, criteria domain.AgentCriteria) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.matching(filter, criteria)), nil
}

func (r *MemoryAgentRepository) Update(ctx context.Context, agent *domain.Agent, filter access.Filter) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	current, exists := r.agents[agent.ID]
	if !exists || !filter.Matches(current) {
		return domain.ErrAgentNotFound
	}

	cp := *agent
	r.agents[agent.ID] = &cp
	return nil
}

func (r *MemoryAgentRepository) Delete(ctx context.Context, id domain.AgentID, filter access.Filter) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	current, exists := r.agents[id]
	if !exists || !filter.Matches(current) {
		return domain.ErrAgentNotFound
	}

	delete(r.agents, id)
	return nil
}
