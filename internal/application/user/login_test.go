package user

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"go.uber.org/zap"

	"github.com/xiebiao/booksdb/internal/domain/library"
	"github.com/xiebiao/booksdb/internal/domain/library/mocks"
	"github.com/xiebiao/booksdb/internal/infrastructure/persistence/redis"
	apperrors "github.com/xiebiao/booksdb/pkg/errors"
	"github.com/xiebiao/booksdb/pkg/jwt"
)

type fixture struct {
	repo     *mocks.MockRepository
	mr       *miniredis.Miniredis
	jwt      *jwt.Manager
	sessions *redis.SessionStore
	login    *LoginUseCase
	logout   *LogoutUseCase
	refresh  *RefreshUseCase
}

func setup(t *testing.T) *fixture {
	t.Helper()
	ctrl := gomock.NewController(t)
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	f := &fixture{
		repo:     mocks.NewMockRepository(ctrl),
		mr:       mr,
		jwt:      jwt.NewManager("test-secret", 15*time.Minute, 24*time.Hour),
		sessions: redis.NewSessionStore(client),
	}
	svc := library.NewService(f.repo)
	f.login = NewLoginUseCase(svc, f.jwt, f.sessions, 24*time.Hour, zap.NewNop())
	f.logout = NewLogoutUseCase(f.jwt, f.sessions)
	f.refresh = NewRefreshUseCase(f.jwt, f.sessions)
	return f
}

func TestLoginUseCase(t *testing.T) {
	ctx := context.Background()

	t.Run("登录成功", func(t *testing.T) {
		f := setup(t)
		f.repo.EXPECT().Login(gomock.Any(), "admin", "secret").Return(library.NewUser(7, "admin"), nil)

		resp, err := f.login.Execute(ctx, LoginRequest{Username: " admin ", Password: "secret"})
		require.NoError(t, err)
		assert.Equal(t, UserInfo{ID: 7, Username: "admin"}, resp.User)
		assert.EqualValues(t, 15*60, resp.ExpiresIn)

		claims, err := f.jwt.ParseToken(resp.AccessToken, jwt.TypeAccess)
		require.NoError(t, err)
		assert.Equal(t, 7, claims.UserID)

		sess, err := f.sessions.GetSession(ctx, 7)
		require.NoError(t, err)
		assert.Equal(t, "admin", sess.User.Username)
		assert.Equal(t, 24*time.Hour, f.mr.TTL("session:7"))
	})

	t.Run("凭据错误", func(t *testing.T) {
		f := setup(t)
		f.repo.EXPECT().Login(gomock.Any(), "admin", "bad").Return(nil, nil)

		_, err := f.login.Execute(ctx, LoginRequest{Username: "admin", Password: "bad"})
		assert.ErrorIs(t, err, library.ErrInvalidCredentials)
		assert.False(t, f.mr.Exists("session:7"))
	})

	t.Run("Redis不可用时登录失败", func(t *testing.T) {
		f := setup(t)
		f.repo.EXPECT().Login(gomock.Any(), "admin", "secret").Return(library.NewUser(7, "admin"), nil)
		f.mr.Close()

		_, err := f.login.Execute(ctx, LoginRequest{Username: "admin", Password: "secret"})
		assert.Equal(t, apperrors.ErrCodeRedisError, apperrors.CodeOf(err))
	})
}

func TestLogoutAndRefresh(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	f.repo.EXPECT().Login(gomock.Any(), "admin", "secret").Return(library.NewUser(7, "admin"), nil)

	resp, err := f.login.Execute(ctx, LoginRequest{Username: "admin", Password: "secret"})
	require.NoError(t, err)

	t.Run("登录状态下可以刷新", func(t *testing.T) {
		token, err := f.refresh.Execute(ctx, resp.RefreshToken)
		require.NoError(t, err)
		_, err = f.jwt.ParseToken(token, jwt.TypeAccess)
		assert.NoError(t, err)
	})

	t.Run("Access Token不能用来刷新", func(t *testing.T) {
		_, err := f.refresh.Execute(ctx, resp.AccessToken)
		assert.ErrorIs(t, err, apperrors.ErrInvalidToken)
	})

	claims, err := f.jwt.ParseToken(resp.AccessToken, jwt.TypeAccess)
	require.NoError(t, err)
	require.NoError(t, f.logout.Execute(ctx, claims))

	t.Run("登出后会话删除且Token进入黑名单", func(t *testing.T) {
		_, err := f.sessions.GetSession(ctx, 7)
		assert.ErrorIs(t, err, apperrors.ErrUnauthorized)

		revoked, err := f.sessions.IsInBlacklist(ctx, claims.ID)
		require.NoError(t, err)
		assert.True(t, revoked)

		ttl := f.mr.TTL("blacklist:" + claims.ID)
		assert.Greater(t, ttl, time.Duration(0))
		assert.LessOrEqual(t, ttl, 15*time.Minute)
	})

	t.Run("登出后不能刷新", func(t *testing.T) {
		_, err := f.refresh.Execute(ctx, resp.RefreshToken)
		assert.ErrorIs(t, err, apperrors.ErrUnauthorized)
	})
}
