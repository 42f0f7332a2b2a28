package store_test

import (
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"comicforge-backend/internal/store"
)

func newRedisBackend(t *testing.T) *store.RedisBackend {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return store.NewRedisBackendWithClient(client)
}

func TestRedisBackend_EmptyLoad(t *testing.T) {
	backend := newRedisBackend(t)

	data, err := backend.Load()
	require.NoError(t, err)
	assert.Nil(t, data)
}

func TestRedisBackend_SaveLoadRoundTrip(t *testing.T) {
	backend := newRedisBackend(t)

	require.NoError(t, backend.Save([]byte(`{"credits":42}`)))

	data, err := backend.Load()
	require.NoError(t, err)
	assert.JSONEq(t, `{"credits":42}`, string(data))
}

func TestRedisBackend_StoreIntegration(t *testing.T) {
	backend := newRedisBackend(t)

	s, err := store.New(backend, 100)
	require.NoError(t, err)
	p := s.CreateProject("T", "S.", "funny", "manga", "English")
	s.UseCredits(5)

	reloaded, err := store.New(backend, 0)
	require.NoError(t, err)
	assert.Equal(t, 95, reloaded.Credits())
	_, ok := reloaded.GetProject(p.ID)
	assert.True(t, ok)
}
