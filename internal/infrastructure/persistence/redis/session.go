package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/xiebiao/booksdb/internal/domain/library"
	apperrors "github.com/xiebiao/booksdb/pkg/errors"
)

// SessionStore 登录会话与Token黑名单
// Key设计:
//   - session:{user_id}  hash{username, login_at},过期时间与Refresh Token一致
//   - blacklist:{jti}    登出后的Token,过期时间为Token剩余有效期
type SessionStore struct {
	client redis.UniversalClient
	now    func() time.Time
}

// NewSessionStore 创建会话存储
func NewSessionStore(client redis.UniversalClient) *SessionStore {
	return &SessionStore{client: client, now: time.Now}
}

func sessionKey(userID int) string {
	return fmt.Sprintf("session:%d", userID)
}

func blacklistKey(jti string) string {
	return "blacklist:" + jti
}

// SaveSession 保存会话(一次往返写入字段和过期时间)
func (s *SessionStore) SaveSession(ctx context.Context, user *library.User, ttl time.Duration) error {
	key := sessionKey(user.ID)
	_, err := s.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.HSet(ctx, key,
			"username", user.Username,
			"login_at", s.now().Format(time.RFC3339),
		)
		p.Expire(ctx, key, ttl)
		return nil
	})
	if err != nil {
		return apperrors.WrapCode(apperrors.ErrCodeRedisError, err, "保存会话失败")
	}
	return nil
}

// GetSession 读取会话,不存在(已登出或过期)时返回ErrUnauthorized
func (s *SessionStore) GetSession(ctx context.Context, userID int) (library.Session, error) {
	fields, err := s.client.HGetAll(ctx, sessionKey(userID)).Result()
	if err != nil {
		return library.Session{}, apperrors.WrapCode(apperrors.ErrCodeRedisError, err, "获取会话失败")
	}
	username, ok := fields["username"]
	if !ok {
		return library.Session{}, apperrors.ErrUnauthorized
	}
	return library.NewSession(library.NewUser(userID, username)), nil
}

// DeleteSession 删除会话(登出)
func (s *SessionStore) DeleteSession(ctx context.Context, userID int) error {
	if err := s.client.Del(ctx, sessionKey(userID)).Err(); err != nil {
		return apperrors.WrapCode(apperrors.ErrCodeRedisError, err, "删除会话失败")
	}
	return nil
}

// AddToBlacklist 使Token失效,ttl<=0时不需要记录(Token已过期)
func (s *SessionStore) AddToBlacklist(ctx context.Context, jti string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	if err := s.client.Set(ctx, blacklistKey(jti), "revoked", ttl).Err(); err != nil {
		return apperrors.WrapCode(apperrors.ErrCodeRedisError, err, "添加Token到黑名单失败")
	}
	return nil
}

// IsInBlacklist Token是否已失效
func (s *SessionStore) IsInBlacklist(ctx context.Context, jti string) (bool, error) {
	n, err := s.client.Exists(ctx, blacklistKey(jti)).Result()
	if err != nil {
		return false, apperrors.WrapCode(apperrors.ErrCodeRedisError, err, "检查黑名单失败")
	}
	return n > 0, nil
}
