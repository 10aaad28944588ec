package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"agentmart/internal/core/access"
	"agentmart/internal/core/domain"
	"agentmart/internal/core/ports"

	"github.com/redis/go-redis/v9"
)

// RedisAgentRepository keeps each agent as a JSON blob with three index
// sets: all agents, agents per creator, and public agents. Index sets only
// narrow the candidate ids; the access filter is re-checked on every blob.
type RedisAgentRepository struct {
	client *redis.Client
	prefix string
}

func NewRedisAgentRepository(client *redis.Client) ports.AgentRepository {
	return &RedisAgentRepository{
		client: client,
		prefix: keyPrefix + "agent:",
	}
}

func (r *RedisAgentRepository) agentKey(id domain.AgentID) string {
	return r.prefix + string(id)
}

func (r *RedisAgentRepository) allKey() string { return r.prefix + "all" }

func (r *RedisAgentRepository) publicKey() string { return r.prefix + "public" }

func (r *RedisAgentRepository) creatorKey(id domain.UserID) string {
	return r.prefix + "creator:" + string(id)
}

func (r *RedisAgentRepository) index(ctx context.Context, pipe redis.Pipeliner, agent *domain.Agent) {
	id := string(agent.ID)
	pipe.SAdd(ctx, r.allKey(), id)
	pipe.SAdd(ctx, r.creatorKey(agent.CreatorID), id)
	if agent.IsPublic {
		pipe.SAdd(ctx, r.publicKey(), id)
	} else {
		pipe.SRem(ctx, r.publicKey(), id)
	}
}

func (r *RedisAgentRepository) Create(ctx context.Context, agent *domain.Agent) error {
	data, err := json.Marshal(agent)
	if err != nil {
		return fmt.Errorf("failed to marshal agent: %w", err)
	}

	created, err := r.client.SetNX(ctx, r.agentKey(agent.ID), data, 0).Result()
	if err != nil {
		return fmt.Errorf("failed to set agent in Redis: %w", err)
	}
	if !created {
		return fmt.Errorf("agent already exists: %s", agent.ID)
	}

	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		r.index(ctx, pipe, agent)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to index agent: %w", err)
	}
	return nil
}

func decodeAgent(data string) (*domain.Agent, error) {
	var agent domain.Agent
	if err := json.Unmarshal([]byte(data), &agent); err != nil {
		return nil, fmt.Errorf("failed to unmarshal agent: %w", err)
	}
	return &agent, nil
}

// getter is satisfied by both *redis.Client and *redis.Tx.
type getter interface {
	Get(ctx context.Context, key string) *redis.StringCmd
}

func (r *RedisAgentRepository) load(ctx context.Context, g getter, id domain.AgentID) (*domain.Agent, error) {
	data, err := g.Get(ctx, r.agentKey(id)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, domain.ErrAgentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get agent from Redis: %w", err)
	}
	return decodeAgent(data)
}

func (r *RedisAgentRepository) GetByID(ctx context.Context, id domain.AgentID) (*domain.Agent, error) {
	return r.load(ctx, r.client, id)
}

func (r *RedisAgentRepository) Find(ctx context.Context, id domain.AgentID, filter access.Filter) (*domain.Agent, error) {
	agent, err := r.load(ctx, r.client, id)
	if err != nil {
		return nil, err
	}
	if !filter.Matches(agent) {
		return nil, domain.ErrAgentNotFound
	}
	return agent, nil
}

// candidates returns the ids of the index set that covers the filter scope.
func (r *RedisAgentRepository) candidates(ctx context.Context, filter access.Filter) ([]string, error) {
	var key string
	switch filter.Scope {
	case access.ScopePublic:
		key = r.publicKey()
	case access.ScopeOwner:
		if filter.CreatorID == "" {
			return nil, nil
		}
		key = r.creatorKey(filter.CreatorID)
	case access.ScopeAll:
		key = r.allKey()
	default:
		return nil, nil
	}
	ids, err := r.client.SMembers(ctx, key).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read agent index: %w", err)
	}
	return ids, nil
}

func (r *RedisAgentRepository) matching(ctx context.Context, filter access.Filter, criteria domain.AgentCriteria) ([]*domain.Agent, error) {
	ids, err := r.candidates(ctx, filter)
	if err != nil || len(ids) == 0 {
		return []*domain.Agent{}, err
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = r.agentKey(domain.AgentID(id))
	}
	values, err := r.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to load agents from Redis: %w", err)
	}

	result := make([]*domain.Agent, 0, len(values))
	for _, v := range values {
		data, ok := v.(string)
		if !ok {
			// index entry without a blob
			continue
		}
		agent, err := decodeAgent(data)
		if err != nil {
			return nil, err
		}
		if filter.Matches(agent) && criteria.Narrows(agent) {
			result = append(result, agent)
		}
	}
	return result, nil
}

func (r *RedisAgentRepository) List(ctx context.Context, filter access.Filter, query domain.AgentQuery) ([]*domain.Agent, error) {
	agents, err := r.matching(ctx, filter, query.Criteria)
	if err != nil {
		return nil, err
	}
	domain.SortNewestFirst(agents)
	return domain.Paginate(agents, query.Page), nil
}

func (r *RedisAgentRepository) Count(ctx context.Context, filter access.Filter, criteria domain.AgentCriteria) (int, error) {
	agents, err := r.matching(ctx, filter, criteria)
	if err != nil {
		return 0, err
	}
	return len(agents), nil
}

// Update re-checks the filter against the stored blob inside a WATCH
// transaction, so the write is dropped if the row moved out of scope.
func (r *RedisAgentRepository) Update(ctx context.Context, agent *domain.Agent, filter access.Filter) error {
	data, err := json.Marshal(agent)
	if err != nil {
		return fmt.Errorf("failed to marshal agent: %w", err)
	}
	key := r.agentKey(agent.ID)

	err = r.client.Watch(ctx, func(tx *redis.Tx) error {
		current, err := r.load(ctx, tx, agent.ID)
		if err != nil {
			return err
		}
		if !filter.Matches(current) {
			return domain.ErrAgentNotFound
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, data, 0)
			if current.CreatorID != agent.CreatorID {
				pipe.SRem(ctx, r.creatorKey(current.CreatorID), string(agent.ID))
			}
			r.index(ctx, pipe, agent)
			return nil
		})
		return err
	}, key)
	return r.txError("update", err)
}

func (r *RedisAgentRepository) Delete(ctx context.Context, id domain.AgentID, filter access.Filter) error {
	key := r.agentKey(id)

	err := r.client.Watch(ctx, func(tx *redis.Tx) error {
		current, err := r.load(ctx, tx, id)
		if err != nil {
			return err
		}
		if !filter.Matches(current) {
			return domain.ErrAgentNotFound
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Del(ctx, key)
			pipe.SRem(ctx, r.allKey(), string(id))
			pipe.SRem(ctx, r.publicKey(), string(id))
			pipe.SRem(ctx, r.creatorKey(current.CreatorID), string(id))
			return nil
		})
		return err
	}, key)
	return r.txError("delete", err)
}

func (r *RedisAgentRepository) txError(op string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, domain.ErrAgentNotFound):
		return err
	case errors.Is(err, redis.TxFailedErr):
		return fmt.Errorf("agent %s aborted by concurrent write: %w", op, err)
	default:
		return fmt.Errorf("failed to %s agent in Redis: %w", op, err)
	}
}
