package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"agentmart/internal/core/domain"
	"agentmart/internal/core/ports"

	"github.com/redis/go-redis/v9"
)

type RedisUserRepository struct {
	client *redis.Client
	prefix string
}

func NewRedisUserRepository(client *redis.Client) ports.UserRepository {
	return &RedisUserRepository{
		client: client,
		prefix: keyPrefix + "user:",
	}
}

func (r *RedisUserRepository) userKey(id domain.UserID) string { return r.prefix + string(id) }

func (r *RedisUserRepository) emailKey(email string) string { return r.prefix + "email:" + email }

func (r *RedisUserRepository) allKey() string { return r.prefix + "all" }

// Create claims the email index entry first so two sign-ups with the same
// email cannot both succeed.
func (r *RedisUserRepository) Create(ctx context.Context, user *domain.User) error {
	data, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("failed to marshal user: %w", err)
	}

	claimed, err := r.client.SetNX(ctx, r.emailKey(user.Email), string(user.ID), 0).Result()
	if err != nil {
		return fmt.Errorf("failed to reserve email in Redis: %w", err)
	}
	if !claimed {
		return domain.ErrEmailTaken
	}

	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, r.userKey(user.ID), data, 0)
		pipe.SAdd(ctx, r.allKey(), string(user.ID))
		return nil
	})
	if err != nil {
		r.client.Del(ctx, r.emailKey(user.Email))
		return fmt.Errorf("failed to store user in Redis: %w", err)
	}
	return nil
}

func (r *RedisUserRepository) GetByID(ctx context.Context, id domain.UserID) (*domain.User, error) {
	data, err := r.client.Get(ctx, r.userKey(id)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, domain.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user from Redis: %w", err)
	}
	var user domain.User
	if err := json.Unmarshal([]byte(data), &user); err != nil {
		return nil, fmt.Errorf("failed to unmarshal user: %w", err)
	}
	return &user, nil
}

func (r *RedisUserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	id, err := r.client.Get(ctx, r.emailKey(email)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, domain.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get email index from Redis: %w", err)
	}
	return r.GetByID(ctx, domain.UserID(id))
}

func (r *RedisUserRepository) all(ctx context.Context) ([]*domain.User, error) {
	ids, err := r.client.SMembers(ctx, r.allKey()).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read user index: %w", err)
	}
	if len(ids) == 0 {
		return nil, nil
	}
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = r.userKey(domain.UserID(id))
	}
	values, err := r.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to load users from Redis: %w", err)
	}
	users := make([]*domain.User, 0, len(values))
	for _, v := range values {
		data, ok := v.(string)
		if !ok {
			continue
		}
		var user domain.User
		if err := json.Unmarshal([]byte(data), &user); err != nil {
			return nil, fmt.Errorf("failed to unmarshal user: %w", err)
		}
		users = append(users, &user)
	}
	return users, nil
}

func (r *RedisUserRepository) List(ctx context.Context, query domain.UserQuery) ([]*domain.User, error) {
	users, err := r.all(ctx)
	if err != nil {
		return nil, err
	}

	search := strings.ToLower(strings.TrimSpace(query.Search))
	result := make([]*domain.User, 0, len(users))
	for _, u := range users {
		if query.Role != "" && u.Role != query.Role {
			continue
		}
		if search != "" && !strings.Contains(strings.ToLower(u.Email), search) &&
			!strings.Contains(strings.ToLower(u.Name), search) {
			continue
		}
		result = append(result, u)
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].CreatedAt.After(result[j].CreatedAt)
		}
		return result[i].ID < result[j].ID
	})
	return domain.Paginate(result, domain.Page{Number: query.Page, Size: query.PageSize}), nil
}

func (r *RedisUserRepository) CountByRole(ctx context.Context) (map[domain.Role]int, error) {
	users, err := r.all(ctx)
	if err != nil {
		return nil, err
	}
	counts := make(map[domain.Role]int, len(domain.Roles))
	for _, role := range domain.Roles {
		counts[role] = 0
	}
	for _, u := range users {
		counts[u.Role]++
	}
	return counts, nil
}
