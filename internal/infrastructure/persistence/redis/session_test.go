package redis

import (
	"context"
	"strconv"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/xiebiao/booksdb/internal/domain/library"
	"github.com/xiebiao/booksdb/internal/infrastructure/config"
	apperrors "github.com/xiebiao/booksdb/pkg/errors"
)

func newStore(t *testing.T) (*SessionStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewSessionStore(client), mr
}

func TestSessionStore_Session(t *testing.T) {
	store, mr := newStore(t)
	ctx := context.Background()
	loginAt := time.Date(2026, 10, 16, 9, 30, 0, 0, time.UTC)
	store.now = func() time.Time { return loginAt }

	require.NoError(t, store.SaveSession(ctx, library.NewUser(1, "admin"), time.Hour))

	sess, err := store.GetSession(ctx, 1)
	require.NoError(t, err)
	assert.True(t, sess.LoggedIn())
	assert.Equal(t, "admin", sess.User.Username)
	assert.Equal(t, time.Hour, mr.TTL("session:1"))

	assert.Equal(t, "2026-10-16T09:30:00Z", mr.HGet("session:1", "login_at"))

	t.Run("过期后视为未登录", func(t *testing.T) {
		mr.FastForward(2 * time.Hour)
		_, err := store.GetSession(ctx, 1)
		assert.Same(t, apperrors.ErrUnauthorized, err)
	})

	t.Run("登出", func(t *testing.T) {
		require.NoError(t, store.SaveSession(ctx, library.NewUser(2, "rowling"), time.Hour))
		require.NoError(t, store.DeleteSession(ctx, 2))
		_, err := store.GetSession(ctx, 2)
		assert.Same(t, apperrors.ErrUnauthorized, err)
		assert.False(t, mr.Exists("session:2"))
	})
}

func TestSessionStore_Blacklist(t *testing.T) {
	store, mr := newStore(t)
	ctx := context.Background()

	require.NoError(t, store.AddToBlacklist(ctx, "jti-1", time.Minute))
	revoked, err := store.IsInBlacklist(ctx, "jti-1")
	require.NoError(t, err)
	assert.True(t, revoked)

	revoked, err = store.IsInBlacklist(ctx, "jti-2")
	require.NoError(t, err)
	assert.False(t, revoked)

	require.NoError(t, store.AddToBlacklist(ctx, "jti-3", 0))
	assert.False(t, mr.Exists("blacklist:jti-3"), "已过期的Token不需要记录")

	mr.FastForward(2 * time.Minute)
	revoked, err = store.IsInBlacklist(ctx, "jti-1")
	require.NoError(t, err)
	assert.False(t, revoked)
}

func TestSessionStore_RedisDown(t *testing.T) {
	store, mr := newStore(t)
	mr.Close()

	_, err := store.IsInBlacklist(context.Background(), "jti")
	assert.Equal(t, apperrors.ErrCodeRedisError, apperrors.CodeOf(err))
}

func TestNewClient(t *testing.T) {
	mr := miniredis.RunT(t)
	port, err := strconv.Atoi(mr.Port())
	require.NoError(t, err)
	cfg := config.RedisConfig{Host: mr.Host(), Port: port}

	client, err := NewClient(context.Background(), cfg, zap.NewNop())
	require.NoError(t, err)
	defer client.Close()

	mr.Close()
	_, err = NewClient(context.Background(), cfg, zap.NewNop())
	assert.Error(t, err)
}

