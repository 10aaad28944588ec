package repositories

import (
	"context"
	"testing"

	"agentmart/internal/core/access"
	"agentmart/internal/core/domain"
	"agentmart/pkg/config"
	"agentmart/pkg/tracing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	tracesdk "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.uber.org/zap"
)

func recordSpans(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()
	prev := otel.GetTracerProvider()
	rec := tracetest.NewSpanRecorder()
	tp := tracesdk.NewTracerProvider(tracesdk.WithSpanProcessor(rec))
	otel.SetTracerProvider(tp)
	t.Cleanup(func() {
		_ = tp.Shutdown(context.Background())
		otel.SetTracerProvider(prev)
	})
	return rec
}

func spanAttrs(span tracesdk.ReadOnlySpan) map[attribute.Key]string {
	out := map[attribute.Key]string{}
	for _, kv := range span.Attributes() {
		out[kv.Key] = kv.Value.Emit()
	}
	return out
}

func TestTracedAgentRepository_SpansCarryScope(t *testing.T) {
	rec := recordSpans(t)
	ctx := context.Background()

	f, err := NewRepositoryFactory(ctx, config.DefaultConfig(), zap.NewNop().Sugar())
	require.NoError(t, err)
	defer f.Close()

	repo := f.AgentRepository()
	require.NoError(t, repo.Create(ctx, &domain.Agent{ID: "a1", CreatorID: "u1", Name: "Helper", IsPublic: false}))

	owner := access.For(&domain.Identity{UserID: "u1", Role: domain.RoleCreator})
	_, err = repo.List(ctx, owner, domain.AgentQuery{})
	require.NoError(t, err)

	_, err = repo.Find(ctx, "a1", access.For(nil))
	require.ErrorIs(t, err, domain.ErrAgentNotFound)

	ended := rec.Ended()
	require.Len(t, ended, 3)

	assert.Equal(t, "db.create_agent", ended[0].Name())

	list := ended[1]
	assert.Equal(t, "db.list_agents", list.Name())
	got := spanAttrs(list)
	assert.Equal(t, "owner:u1", got[tracing.AccessScopeKey])
	assert.Equal(t, BackendMemory, got["db.system"])
	assert.Contains(t, got, tracing.DurationKey)

	find := ended[2]
	assert.Equal(t, "db.find_agent", find.Name())
	assert.Equal(t, "public", spanAttrs(find)[tracing.AccessScopeKey])
	assert.NotEqual(t, codes.Error, find.Status().Code)
}
