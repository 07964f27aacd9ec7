package cache

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"idvmgt/internal/platform/config"
	"idvmgt/internal/platform/metrics"
)

type CacheSuite struct {
	suite.Suite
	cache   *Cache[string]
	metrics *metrics.CacheMetrics
}

func TestCacheSuite(t *testing.T) {
	suite.Run(t, new(CacheSuite))
}

func (s *CacheSuite) SetupTest() {
	s.metrics = metrics.NewWithRegisterer(prometheus.NewRegistry())
	c, err := New[string]("test", config.Cache{MaxEntries: 100}, s.metrics)
	s.Require().NoError(err)
	s.cache = c
}

func (s *CacheSuite) TearDownTest() {
	s.cache.Close()
}

func (s *CacheSuite) TestKeyIsTenantScoped() {
	s.NotEqual(Key(1, "id", "abc"), Key(2, "id", "abc"))
	s.NotEqual(Key(1, "id", "abc"), Key(1, "name", "abc"))
}

func (s *CacheSuite) TestSetGetDelete() {
	key := Key(1, "id", "abc")
	s.cache.Set(key, "value")

	v, ok := s.cache.Get(key)
	s.Require().True(ok)
	s.Equal("value", v)

	s.cache.Delete(key)
	_, ok = s.cache.Get(key)
	s.False(ok)

	s.Equal(1.0, testutil.ToFloat64(s.metrics.Hits.WithLabelValues("test")))
	s.Equal(1.0, testutil.ToFloat64(s.metrics.Misses.WithLabelValues("test")))
	s.Equal(1.0, testutil.ToFloat64(s.metrics.Invalidations.WithLabelValues("test")))
}

func (s *CacheSuite) TestGetOrLoad() {
	key := Key(1, "id", "abc")
	calls := 0
	loader := func() (string, error) {
		calls++
		return "loaded", nil
	}

	v, hit, err := s.cache.GetOrLoad(key, loader)
	s.Require().NoError(err)
	s.False(hit)
	s.Equal("loaded", v)

	v, hit, err = s.cache.GetOrLoad(key, loader)
	s.Require().NoError(err)
	s.True(hit)
	s.Equal("loaded", v)
	s.Equal(1, calls)
}

func (s *CacheSuite) TestGetOrLoadErrorIsNotCached() {
	key := Key(1, "id", "abc")
	_, _, err := s.cache.GetOrLoad(key, func() (string, error) {
		return "", errors.New("db down")
	})
	s.Require().Error(err)

	_, ok := s.cache.Get(key)
	s.False(ok)
}

func (s *CacheSuite) TestInvalidationDuringLoadDropsStaleValue() {
	key := Key(1, "id", "abc")
	_, _, err := s.cache.GetOrLoad(key, func() (string, error) {
		s.cache.Delete(key)
		return "stale", nil
	})
	s.Require().NoError(err)

	_, ok := s.cache.Get(key)
	s.False(ok)
}

func (s *CacheSuite) TestGetOrLoadAliasedStoresEveryKey() {
	idKey, nameKey := Key(1, "id", "abc"), Key(1, "name", "Onfido")
	v, hit, err := s.cache.GetOrLoadAliased(idKey, func() (string, error) {
		return "provider", nil
	}, func(string) []string {
		return []string{nameKey}
	})
	s.Require().NoError(err)
	s.False(hit)
	s.Equal("provider", v)

	got, ok := s.cache.Get(nameKey)
	s.Require().True(ok)
	s.Equal("provider", got)
}

func (s *CacheSuite) TestInvalidationDuringLoadDropsAliases() {
	idKey, nameKey := Key(1, "id", "abc"), Key(1, "name", "Onfido")
	_, _, err := s.cache.GetOrLoadAliased(idKey, func() (string, error) {
		s.cache.Delete(idKey, nameKey)
		return "stale", nil
	}, func(string) []string {
		return []string{nameKey}
	})
	s.Require().NoError(err)

	_, ok := s.cache.Get(idKey)
	s.False(ok)
	_, ok = s.cache.Get(nameKey)
	s.False(ok)
}

func TestGetOrLoadCollapsesConcurrentMisses(t *testing.T) {
	c, err := New[int]("concurrent", config.Cache{MaxEntries: 10}, nil)
	require.NoError(t, err)
	defer c.Close()

	var calls atomic.Int32
	release := make(chan struct{})
	loader := func() (int, error) {
		calls.Add(1)
		<-release
		return 42, nil
	}

	var wg sync.WaitGroup
	results := make([]int, 8)
	for i := range results {
		wg.Add(1)
		go func() {
			defer wg.Done()
			v, _, err := c.GetOrLoad(Key(1, "id", "x"), loader)
			assert.NoError(t, err)
			results[i] = v
		}()
	}
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), calls.Load())
	for _, v := range results {
		assert.Equal(t, 42, v)
	}
}
