package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/xiebiao/booksdb/internal/domain/library"
	"github.com/xiebiao/booksdb/internal/infrastructure/persistence/redis"
	apperrors "github.com/xiebiao/booksdb/pkg/errors"
	"github.com/xiebiao/booksdb/pkg/jwt"
	"github.com/xiebiao/booksdb/pkg/response"
)

const (
	ctxClaims  = "claims"
	ctxSession = "session"
)

// AuthMiddleware JWT认证中间件
// 设计说明：
// 1. 从Header提取Access Token并校验签名、有效期、类型
// 2. 按jti检查黑名单(已登出的Token)
// 3. 从Redis会话还原library.Session注入Context,Handler直接传给用例
type AuthMiddleware struct {
	jwtManager   *jwt.Manager
	sessionStore *redis.SessionStore
}

// NewAuthMiddleware 创建认证中间件
func NewAuthMiddleware(jwtManager *jwt.Manager, sessionStore *redis.SessionStore) *AuthMiddleware {
	return &AuthMiddleware{
		jwtManager:   jwtManager,
		sessionStore: sessionStore,
	}
}

// RequireAuth 要求登录
func (m *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		// 格式：Authorization: Bearer <token>
		tokenString, ok := bearerToken(c)
		if !ok {
			response.Error(c, apperrors.ErrUnauthorized)
			return
		}

		if err := m.authenticate(c, tokenString); err != nil {
			response.Error(c, err)
			return
		}
		c.Next()
	}
}

// OptionalAuth 可选登录,Token无效时按匿名处理
func (m *AuthMiddleware) OptionalAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if tokenString, ok := bearerToken(c); ok {
			_ = m.authenticate(c, tokenString)
		}
		c.Next()
	}
}

func (m *AuthMiddleware) authenticate(c *gin.Context, tokenString string) error {
	ctx := c.Request.Context()

	claims, err := m.jwtManager.ParseToken(tokenString, jwt.TypeAccess)
	if err != nil {
		return err
	}

	revoked, err := m.sessionStore.IsInBlacklist(ctx, claims.ID)
	if err != nil {
		return err
	}
	if revoked {
		return apperrors.ErrTokenExpired
	}

	sess, err := m.sessionStore.GetSession(ctx, claims.UserID)
	if err != nil {
		return err
	}

	c.Set(ctxClaims, claims)
	c.Set(ctxSession, sess)
	return nil
}

func bearerToken(c *gin.Context) (string, bool) {
	parts := strings.SplitN(c.GetHeader("Authorization"), " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}

// =========================================
// Context辅助函数（供Handler使用）
// =========================================

// GetSession 当前会话,未登录时返回零值(LoggedIn()为false)
func GetSession(c *gin.Context) library.Session {
	if v, ok := c.Get(ctxSession); ok {
		if s, ok := v.(library.Session); ok {
			return s
		}
	}
	return library.Session{}
}

// GetClaims 当前Token的Claims,只在RequireAuth之后使用
func GetClaims(c *gin.Context) *jwt.Claims {
	if v, ok := c.Get(ctxClaims); ok {
		if claims, ok := v.(*jwt.Claims); ok {
			return claims
		}
	}
	return nil
}
