package user

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/xiebiao/booksdb/internal/domain/library"
	"github.com/xiebiao/booksdb/internal/infrastructure/persistence/redis"
	"github.com/xiebiao/booksdb/pkg/jwt"
)

// LoginUseCase 用户登录用例
// 设计说明：
// 1. 凭据校验交给领域服务(具体规则由存储适配器决定)
// 2. 生成JWT Token对
// 3. 保存会话到Redis,鉴权中间件据此还原library.Session
type LoginUseCase struct {
	svc          library.Service
	jwtManager   *jwt.Manager
	sessionStore *redis.SessionStore
	sessionTTL   time.Duration
	log          *zap.Logger
}

// NewLoginUseCase 创建登录用例,sessionTTL通常等于Refresh Token有效期
func NewLoginUseCase(
	svc library.Service,
	jwtManager *jwt.Manager,
	sessionStore *redis.SessionStore,
	sessionTTL time.Duration,
	log *zap.Logger,
) *LoginUseCase {
	return &LoginUseCase{
		svc:          svc,
		jwtManager:   jwtManager,
		sessionStore: sessionStore,
		sessionTTL:   sessionTTL,
		log:          log,
	}
}

// Execute 执行登录
func (uc *LoginUseCase) Execute(ctx context.Context, req LoginRequest) (*LoginResponse, error) {
	// 1. 校验凭据
	sess, err := uc.svc.Login(ctx, req.Username, req.Password)
	if err != nil {
		return nil, err
	}
	u := sess.User

	// 2. 生成JWT Token对
	tokenPair, err := uc.jwtManager.GenerateToken(u.ID, u.Username)
	if err != nil {
		return nil, err
	}

	// 3. 保存会话,没有会话的Token无法通过鉴权,所以这里失败即登录失败
	if err := uc.sessionStore.SaveSession(ctx, u, uc.sessionTTL); err != nil {
		return nil, err
	}

	uc.log.Info("用户登录", zap.Int("user_id", u.ID), zap.String("username", u.Username))

	return &LoginResponse{
		User:         UserInfo{ID: u.ID, Username: u.Username},
		AccessToken:  tokenPair.AccessToken,
		RefreshToken: tokenPair.RefreshToken,
		ExpiresIn:    tokenPair.ExpiresIn,
	}, nil
}

// LogoutUseCase 用户登出用例
type LogoutUseCase struct {
	jwtManager   *jwt.Manager
	sessionStore *redis.SessionStore
}

// NewLogoutUseCase 创建登出用例
func NewLogoutUseCase(jwtManager *jwt.Manager, sessionStore *redis.SessionStore) *LogoutUseCase {
	return &LogoutUseCase{jwtManager: jwtManager, sessionStore: sessionStore}
}

// Execute 执行登出
func (uc *LogoutUseCase) Execute(ctx context.Context, claims *jwt.Claims) error {
	// 1. 删除会话
	if err := uc.sessionStore.DeleteSession(ctx, claims.UserID); err != nil {
		return err
	}

	// 2. Access Token在剩余有效期内加入黑名单
	return uc.sessionStore.AddToBlacklist(ctx, claims.ID, uc.jwtManager.Remaining(claims))
}

// RefreshUseCase 刷新Access Token
// 会话已删除(登出)的用户不能刷新
type RefreshUseCase struct {
	jwtManager   *jwt.Manager
	sessionStore *redis.SessionStore
}

func NewRefreshUseCase(jwtManager *jwt.Manager, sessionStore *redis.SessionStore) *RefreshUseCase {
	return &RefreshUseCase{jwtManager: jwtManager, sessionStore: sessionStore}
}

func (uc *RefreshUseCase) Execute(ctx context.Context, refreshToken string) (string, error) {
	claims, err := uc.jwtManager.ParseToken(refreshToken, jwt.TypeRefresh)
	if err != nil {
		return "", err
	}
	if _, err := uc.sessionStore.GetSession(ctx, claims.UserID); err != nil {
		return "", err
	}
	return uc.jwtManager.RefreshAccessToken(refreshToken)
}

// =========================================
// 应用层DTO
// =========================================

// LoginRequest 登录请求
type LoginRequest struct {
	Username string
	Password string
}

// LoginResponse 登录响应
type LoginResponse struct {
	User         UserInfo `json:"user"`
	AccessToken  string   `json:"access_token"`
	RefreshToken string   `json:"refresh_token"`
	ExpiresIn    int64    `json:"expires_in"` // Access Token过期时间（秒）
}

// UserInfo 用户信息
type UserInfo struct {
	ID       int    `json:"id"`
	Username string `json:"username"`
}
