package repositories

import (
	"context"
	"errors"
	"time"

	"agentmart/internal/core/access"
	"agentmart/internal/core/domain"
	"agentmart/internal/core/ports"
	"agentmart/pkg/tracing"

	"go.opentelemetry.io/otel/trace"
)

// tracedAgentRepository opens a client span around every repository call,
// tagged with the backend and the access scope the call ran under.
type tracedAgentRepository struct {
	backend string
	next    ports.AgentRepository
}

func newTracedAgentRepository(backend string, next ports.AgentRepository) ports.AgentRepository {
	return &tracedAgentRepository{backend: backend, next: next}
}

func (r *tracedAgentRepository) start(ctx context.Context, op, scope string) (context.Context, trace.Span, time.Time) {
	ctx, span := tracing.TraceStorageOperation(ctx, r.backend, op, scope)
	return ctx, span, time.Now()
}

func (r *tracedAgentRepository) finish(ctx context.Context, span trace.Span, start time.Time, err error) {
	tracing.MeasureDuration(ctx, start)
	// Not-found is an access outcome, not a storage failure.
	if err != nil && !errors.Is(err, domain.ErrAgentNotFound) {
		tracing.RecordError(ctx, err)
	}
	span.End()
}

func (r *tracedAgentRepository) Create(ctx context.Context, agent *domain.Agent) error {
	ctx, span, start := r.start(ctx, "create_agent", "writer")
	span.SetAttributes(tracing.AgentIDKey.String(string(agent.ID)))
	err := r.next.Create(ctx, agent)
	r.finish(ctx, span, start, err)
	return err
}

func (r *tracedAgentRepository) GetByID(ctx context.Context, id domain.AgentID) (*domain.Agent, error) {
	ctx, span, start := r.start(ctx, "get_agent", "unscoped")
	span.SetAttributes(tracing.AgentIDKey.String(string(id)))
	agent, err := r.next.GetByID(ctx, id)
	r.finish(ctx, span, start, err)
	return agent, err
}

func (r *tracedAgentRepository) Find(ctx context.Context, id domain.AgentID, filter access.Filter) (*domain.Agent, error) {
	ctx, span, start := r.start(ctx, "find_agent", filter.Describe())
	span.SetAttributes(tracing.AgentIDKey.String(string(id)))
	agent, err := r.next.Find(ctx, id, filter)
	r.finish(ctx, span, start, err)
	return agent, err
}

func (r *tracedAgentRepository) List(ctx context.Context, filter access.Filter, query domain.AgentQuery) ([]*domain.Agent, error) {
	ctx, span, start := r.start(ctx, "list_agents", filter.Describe())
	agents, err := r.next.List(ctx, filter, query)
	r.finish(ctx, span, start, err)
	return agents, err
}

func (r *tracedAgentRepository) Count(ctx context.Context, filter access.Filter, criteria domain.AgentCriteria) (int, error) {
	ctx, span, start := r.start(ctx, "count_agents", filter.Describe())
	n, err := r.next.Count(ctx, filter, criteria)
	r.finish(ctx, span, start, err)
	return n, err
}

func (r *tracedAgentRepository) Update(ctx context.Context, agent *domain.Agent, filter access.Filter) error {
	ctx, span, start := r.start(ctx, "update_agent", filter.Describe())
	span.SetAttributes(tracing.AgentIDKey.String(string(agent.ID)))
	err := r.next.Update(ctx, agent, filter)
	r.finish(ctx, span, start, err)
	return err
}

func (r *tracedAgentRepository) Delete(ctx context.Context, id domain.AgentID, filter access.Filter) error {
	ctx, span, start := r.start(ctx, "delete_agent", filter.Describe())
	span.SetAttributes(tracing.AgentIDKey.String(string(id)))
	err := r.next.Delete(ctx, id, filter)
	r.finish(ctx, span, start, err)
	return err
}
