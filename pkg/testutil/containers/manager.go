//go:build integration

package containers

import (
	"sync"
	"testing"
)

// Manager hands out one container of each kind per test binary.
type Manager struct {
	pgOnce    sync.Once
	redisOnce sync.Once
	mongoOnce sync.Once
	kafkaOnce sync.Once

	postgres *PostgresContainer
	redis    *RedisContainer
	mongo    *MongoContainer
	kafka    *KafkaContainer
}

var shared Manager

// GetManager returns the process-wide container manager.
func GetManager() *Manager {
	return &shared
}

func (m *Manager) Postgres(t *testing.T) *PostgresContainer {
	t.Helper()
	m.pgOnce.Do(func() { m.postgres = NewPostgresContainer(t) })
	return m.postgres
}

func (m *Manager) Redis(t *testing.T) *RedisContainer {
	t.Helper()
	m.redisOnce.Do(func() { m.redis = NewRedisContainer(t) })
	return m.redis
}

func (m *Manager) Mongo(t *testing.T) *MongoContainer {
	t.Helper()
	m.mongoOnce.Do(func() { m.mongo = NewMongoContainer(t) })
	return m.mongo
}

func (m *Manager) Kafka(t *testing.T) *KafkaContainer {
	t.Helper()
	m.kafkaOnce.Do(func() { m.kafka = NewKafkaContainer(t) })
	return m.kafka
}
