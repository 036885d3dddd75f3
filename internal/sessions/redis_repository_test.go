package sessions

import (
	"context"
	"testing"
	"time"

	mr "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func newRedisRepo(t *testing.T) (*RedisRepository, *mr.Miniredis) {
	t.Helper()
	m, err := mr.Run()
	require.NoError(t, err)
	t.Cleanup(m.Close)
	return NewRedisRepository(redis.NewClient(&redis.Options{Addr: m.Addr()}), "test:session:"), m
}

func TestRedisRepository_CreateGetDelete(t *testing.T) {
	repo, m := newRedisRepo(t)
	ctx := context.Background()
	s := &Session{
		RefreshToken: "r1",
		Sub:          "u-1",
		CreatedAt:    time.Now().UTC(),
		ExpiresAt:    time.Now().UTC().Add(5 * time.Second),
	}

	require.NoError(t, repo.Create(ctx, s))
	members, err := m.Members("test:session:user:u-1")
	require.NoError(t, err)
	require.Equal(t, []string{"r1"}, members)

	got, err := repo.GetByRefresh(ctx, "r1")
	require.NoError(t, err)
	require.NotNil(t, got)
	require.Equal(t, s.Sub, got.Sub)

	require.NoError(t, repo.DeleteByRefresh(ctx, "r1"))
	got2, err := repo.GetByRefresh(ctx, "r1")
	require.NoError(t, err)
	require.Nil(t, got2)

	// deleting twice is fine
	require.NoError(t, repo.DeleteByRefresh(ctx, "r1"))
}

func TestRedisRepository_TTLExpiry(t *testing.T) {
	repo, m := newRedisRepo(t)
	ctx := context.Background()
	s := &Session{
		RefreshToken: "r2",
		Sub:          "u-2",
		CreatedAt:    time.Now().UTC(),
		ExpiresAt:    time.Now().UTC().Add(1 * time.Second),
	}

	require.NoError(t, repo.Create(ctx, s))

	got, err := repo.GetByRefresh(ctx, "r2")
	require.NoError(t, err)
	require.NotNil(t, got)

	// advance miniredis clock past TTL
	m.FastForward(2 * time.Second)

	got2, err := repo.GetByRefresh(ctx, "r2")
	require.NoError(t, err)
	require.Nil(t, got2)
}

func TestRedisRepository_DeleteBySub(t *testing.T) {
	repo, _ := newRedisRepo(t)
	ctx := context.Background()
	exp := time.Now().UTC().Add(time.Minute)
	for _, tok := range []string{"a", "b"} {
		require.NoError(t, repo.Create(ctx, &Session{RefreshToken: tok, Sub: "u-3", ExpiresAt: exp}))
	}
	require.NoError(t, repo.Create(ctx, &Session{RefreshToken: "other", Sub: "u-4", ExpiresAt: exp}))

	require.NoError(t, repo.DeleteBySub(ctx, "u-3"))

	for _, tok := range []string{"a", "b"} {
		got, err := repo.GetByRefresh(ctx, tok)
		require.NoError(t, err)
		require.Nil(t, got)
	}
	got, err := repo.GetByRefresh(ctx, "other")
	require.NoError(t, err)
	require.NotNil(t, got)
}
