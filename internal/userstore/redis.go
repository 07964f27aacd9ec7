package userstore

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"
)

// Redis keeps the directory in two structures per tenant: a set of user ids
// and one hash of claim values per user.
type Redis struct {
	client redis.UniversalClient
	prefix string
}

type RedisOption func(*Redis)

// WithKeyPrefix namespaces all keys. A blank prefix keeps the default.
func WithKeyPrefix(prefix string) RedisOption {
	return func(r *Redis) {
		if prefix != "" {
			r.prefix = prefix
		}
	}
}

func NewRedis(client redis.UniversalClient, opts ...RedisOption) *Redis {
	r := &Redis{client: client, prefix: "idv"}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Redis) usersKey(tenantID int) string {
	return r.prefix + ":users:" + strconv.Itoa(tenantID)
}

func (r *Redis) claimsKey(tenantID int, userID string) string {
	return r.prefix + ":user:" + strconv.Itoa(tenantID) + ":" + userID
}

func (r *Redis) UserExists(ctx context.Context, tenantID int, userID string) (bool, error) {
	ok, err := r.client.SIsMember(ctx, r.usersKey(tenantID), userID).Result()
	if err != nil {
		return false, fmt.Errorf("check user %s: %w", userID, err)
	}
	return ok, nil
}

func (r *Redis) ClaimValues(ctx context.Context, tenantID int, userID string, claimURIs []string) (map[string]string, error) {
	exists, err := r.UserExists(ctx, tenantID, userID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, ErrUserNotFound
	}
	out := make(map[string]string, len(claimURIs))
	if len(claimURIs) == 0 {
		return out, nil
	}
	values, err := r.client.HMGet(ctx, r.claimsKey(tenantID, userID), claimURIs...).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("read claims of user %s: %w", userID, err)
	}
	for i, v := range values {
		if s, ok := v.(string); ok {
			out[claimURIs[i]] = s
		}
	}
	return out, nil
}

func (r *Redis) Upsert(ctx context.Context, tenantID int, userID string, claims map[string]string) error {
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.SAdd(ctx, r.usersKey(tenantID), userID)
		if len(claims) > 0 {
			fields := make([]any, 0, len(claims)*2)
			for uri, v := range claims {
				fields = append(fields, uri, v)
			}
			pipe.HSet(ctx, r.claimsKey(tenantID, userID), fields...)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("upsert user %s: %w", userID, err)
	}
	return nil
}

func (r *Redis) DeleteClaims(ctx context.Context, tenantID int, userID string, claimURIs []string) error {
	if len(claimURIs) == 0 {
		return nil
	}
	if err := r.client.HDel(ctx, r.claimsKey(tenantID, userID), claimURIs...).Err(); err != nil {
		return fmt.Errorf("delete claims of user %s: %w", userID, err)
	}
	return nil
}

func (r *Redis) Delete(ctx context.Context, tenantID int, userID string) error {
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.SRem(ctx, r.usersKey(tenantID), userID)
		pipe.Del(ctx, r.claimsKey(tenantID, userID))
		return nil
	})
	if err != nil {
		return fmt.Errorf("delete user %s: %w", userID, err)
	}
	return nil
}
