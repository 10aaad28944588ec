package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"agentmart/internal/core/access"
	"agentmart/internal/core/domain"
	"agentmart/internal/core/ports"
	"agentmart/pkg/utils"
	"agentmart/pkg/validation"
)

type agentService struct {
	agents   ports.AgentRepository
	metrics  ports.AccessMetrics
	onChange []func()
	now      func() time.Time
}

// NewAgentService builds the agent service. onChange hooks run after every
// successful mutation, e.g. to drop cached aggregates.
func NewAgentService(agents ports.AgentRepository, metrics ports.AccessMetrics, onChange ...func()) ports.AgentService {
	if metrics == nil {
		metrics = noopMetrics{}
	}
	return &agentService{agents: agents, metrics: metrics, onChange: onChange, now: time.Now}
}

func (s *agentService) mutated(op string) {
	s.metrics.RecordAgentMutation(op)
	for _, fn := range s.onChange {
		fn()
	}
}

func (s *agentService) deny(op string, err error) error {
	s.metrics.RecordAccessDenied(op)
	return err
}

func (s *agentService) List(ctx context.Context, caller *domain.Identity, query domain.AgentQuery) (*ports.AgentPage, error) {
	filter := access.For(caller)
	query.Page = query.Page.Normalize()

	agents, err := s.agents.List(ctx, filter, query)
	if err != nil {
		return nil, backing(err)
	}
	total, err := s.agents.Count(ctx, filter, query.Criteria)
	if err != nil {
		return nil, backing(err)
	}
	return &ports.AgentPage{
		Agents:   agents,
		Total:    total,
		Page:     query.Page.Number,
		PageSize: query.Page.Size,
	}, nil
}

// Get returns ErrAgentNotFound for rows outside the caller's filter, so
// hidden agents are indistinguishable from missing ones.
func (s *agentService) Get(ctx context.Context, caller *domain.Identity, id domain.AgentID) (*domain.Agent, error) {
	agent, err := s.agents.Find(ctx, id, access.For(caller))
	if err != nil {
		return nil, backing(err)
	}
	return agent, nil
}

func (s *agentService) Create(ctx context.Context, caller *domain.Identity, draft domain.AgentDraft) (*domain.Agent, error) {
	owner, err := access.OwnerFor(caller, draft)
	if err != nil {
		return nil, s.deny("create", err)
	}
	draft.Name = utils.SanitizeString(draft.Name)
	draft.Category = strings.ToLower(strings.TrimSpace(draft.Category))
	if err := validateDraft(draft); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	agent := &domain.Agent{
		ID:          domain.AgentID(utils.NewAgentID()),
		CreatorID:   owner,
		Name:        draft.Name,
		Description: draft.Description,
		Category:    draft.Category,
		IsPublic:    draft.IsPublic,
		Status:      domain.AgentStatusDraft,
		PriceCents:  draft.PriceCents,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.agents.Create(ctx, agent); err != nil {
		return nil, backing(err)
	}
	s.mutated("create")
	return agent, nil
}

// Update probes the row, checks ownership and then writes with the caller's
// filter in the update predicate, so a row that changed owner in between is
// left alone.
func (s *agentService) Update(ctx context.Context, caller *domain.Identity, id domain.AgentID, patch domain.AgentPatch) (*domain.Agent, error) {
	if err := access.CheckPatch(caller, patch); err != nil {
		return nil, s.deny("update", err)
	}

	current, err := s.agents.GetByID(ctx, id)
	if err != nil {
		return nil, backing(err)
	}
	if err := access.CanMutate(caller, current); err != nil {
		return nil, s.deny("update", err)
	}
	if err := validatePatch(patch); err != nil {
		return nil, err
	}

	updated := *current
	patch.Apply(&updated)
	updated.UpdatedAt = s.now().UTC()

	if err := s.agents.Update(ctx, &updated, access.For(caller)); err != nil {
		return nil, backing(err)
	}
	s.mutated("update")
	return &updated, nil
}

func (s *agentService) Delete(ctx context.Context, caller *domain.Identity, id domain.AgentID) error {
	if err := access.RequireWriter(caller); err != nil {
		return s.deny("delete", err)
	}
	current, err := s.agents.GetByID(ctx, id)
	if err != nil {
		return backing(err)
	}
	if err := access.CanMutate(caller, current); err != nil {
		return s.deny("delete", err)
	}
	if err := s.agents.Delete(ctx, id, access.For(caller)); err != nil {
		return backing(err)
	}
	s.mutated("delete")
	return nil
}

func (s *agentService) Counts(ctx context.Context, caller *domain.Identity) (*domain.AgentCounts, error) {
	return countAgents(ctx, s.agents, access.For(caller))
}

func countAgents(ctx context.Context, repo ports.AgentRepository, filter access.Filter) (*domain.AgentCounts, error) {
	yes := true
	var counts domain.AgentCounts
	targets := []struct {
		dst      *int
		criteria domain.AgentCriteria
	}{
		{&counts.Total, domain.AgentCriteria{}},
		{&counts.Public, domain.AgentCriteria{Public: &yes}},
		{&counts.Published, domain.AgentCriteria{Status: domain.AgentStatusPublished}},
		{&counts.Pending, domain.AgentCriteria{Status: domain.AgentStatusPending}},
		{&counts.Draft, domain.AgentCriteria{Status: domain.AgentStatusDraft}},
		{&counts.Featured, domain.AgentCriteria{Featured: &yes}},
	}
	for _, t := range targets {
		n, err := repo.Count(ctx, filter, t.criteria)
		if err != nil {
			return nil, backing(err)
		}
		*t.dst = n
	}
	return &counts, nil
}

func invalid(err error) error {
	return fmt.Errorf("%w: %v", domain.ErrInvalidAgent, err)
}

func validateDraft(d domain.AgentDraft) error {
	if err := validation.ValidateAgentName(d.Name); err != nil {
		return invalid(err)
	}
	if err := validation.ValidateAgentDescription(d.Description); err != nil {
		return invalid(err)
	}
	if err := validation.ValidateCategory(d.Category); err != nil {
		return invalid(err)
	}
	if err := validation.ValidatePrice(d.PriceCents); err != nil {
		return invalid(err)
	}
	return nil
}

func validatePatch(p domain.AgentPatch) error {
	if p.Name != nil {
		if err := validation.ValidateAgentName(*p.Name); err != nil {
			return invalid(err)
		}
	}
	if p.Description != nil {
		if err := validation.ValidateAgentDescription(*p.Description); err != nil {
			return invalid(err)
		}
	}
	if p.Category != nil {
		if err := validation.ValidateCategory(*p.Category); err != nil {
			return invalid(err)
		}
	}
	if p.Status != nil {
		if _, err := domain.ParseAgentStatus(string(*p.Status)); err != nil {
			return err
		}
	}
	if p.PriceCents != nil {
		if err := validation.ValidatePrice(*p.PriceCents); err != nil {
			return invalid(err)
		}
	}
	return nil
}
