//go:build integration

package userstore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/suite"

	"idvmgt/pkg/testutil/containers"
)

type RedisSuite struct {
	suite.Suite
	redis *containers.RedisContainer
	store *Redis
}

func TestRedisSuite(t *testing.T) {
	suite.Run(t, new(RedisSuite))
}

func (s *RedisSuite) SetupSuite() {
	s.redis = containers.GetManager().Redis(s.T())
	s.store = NewRedis(s.redis.Client, WithKeyPrefix("test"))
}

func (s *RedisSuite) SetupTest() {
	s.Require().NoError(s.redis.FlushAll(context.Background()))
}

func (s *RedisSuite) TestUserLifecycle() {
	ctx := context.Background()

	s.Require().NoError(s.store.Upsert(ctx, 1, "u1", nil))
	exists, err := s.store.UserExists(ctx, 1, "u1")
	s.Require().NoError(err)
	s.True(exists, "a user without claims still exists")

	s.Require().NoError(s.store.Upsert(ctx, 1, "u1", map[string]string{"c1": "v1", "c2": "v2"}))
	values, err := s.store.ClaimValues(ctx, 1, "u1", []string{"c1", "c3"})
	s.Require().NoError(err)
	s.Equal(map[string]string{"c1": "v1"}, values)

	s.Require().NoError(s.store.DeleteClaims(ctx, 1, "u1", []string{"c1"}))
	values, err = s.store.ClaimValues(ctx, 1, "u1", []string{"c1", "c2"})
	s.Require().NoError(err)
	s.Equal(map[string]string{"c2": "v2"}, values)

	s.Require().NoError(s.store.Delete(ctx, 1, "u1"))
	exists, err = s.store.UserExists(ctx, 1, "u1")
	s.Require().NoError(err)
	s.False(exists)

	_, err = s.store.ClaimValues(ctx, 1, "u1", []string{"c2"})
	s.ErrorIs(err, ErrUserNotFound)
}

func (s *RedisSuite) TestTenantIsolation() {
	ctx := context.Background()
	s.Require().NoError(s.store.Upsert(ctx, 1, "u1", map[string]string{"c1": "v1"}))

	exists, err := s.store.UserExists(ctx, 2, "u1")
	s.Require().NoError(err)
	s.False(exists)
}
