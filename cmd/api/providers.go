package main

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	applibrary "github.com/xiebiao/booksdb/internal/application/library"
	appuser "github.com/xiebiao/booksdb/internal/application/user"
	"github.com/xiebiao/booksdb/internal/domain/library"
	"github.com/xiebiao/booksdb/internal/infrastructure/config"
	"github.com/xiebiao/booksdb/internal/infrastructure/persistence"
	"github.com/xiebiao/booksdb/internal/infrastructure/persistence/redis"
	"github.com/xiebiao/booksdb/internal/interface/http/router"
	"github.com/xiebiao/booksdb/pkg/jwt"
	"github.com/xiebiao/booksdb/pkg/mq"
)

// Provider函数:main.go手动注入和wire.go共用
// 返回cleanup的Provider按创建的逆序释放资源

const closeTimeout = 5 * time.Second

// provideRepository 打开配置的存储后端(带指标、追踪、熔断)
func provideRepository(ctx context.Context, cfg *config.Config, log *zap.Logger) (library.Repository, func(), error) {
	repo, err := persistence.Open(ctx, cfg, log)
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() {
		ctx, cancel := context.WithTimeout(context.Background(), closeTimeout)
		defer cancel()
		if err := repo.Disconnect(ctx); err != nil {
			log.Warn("断开存储失败", zap.Error(err))
		}
	}
	return repo, cleanup, nil
}

func provideRedis(ctx context.Context, cfg *config.Config, log *zap.Logger) (*goredis.Client, func(), error) {
	client, err := redis.NewClient(ctx, cfg.Redis, log)
	if err != nil {
		return nil, nil, err
	}
	return client, func() { _ = client.Close() }, nil
}

func provideSessionStore(client *goredis.Client) *redis.SessionStore {
	return redis.NewSessionStore(client)
}

func provideJWTManager(cfg *config.Config) *jwt.Manager {
	return jwt.NewManager(cfg.JWT.Secret, cfg.JWT.AccessTokenExpire, cfg.JWT.RefreshTokenExpire)
}

// provideEventPublisher 未配置mq.url时不发布事件
func provideEventPublisher(cfg *config.Config, log *zap.Logger) (applibrary.EventPublisher, func(), error) {
	if !cfg.MQ.Enabled() {
		log.Info("未配置消息队列,领域事件不发布")
		return applibrary.NopPublisher{}, func() {}, nil
	}
	pub, err := mq.NewPublisher(cfg.MQ.URL, cfg.MQ.Exchange, log)
	if err != nil {
		return nil, nil, err
	}
	return pub, func() { _ = pub.Close() }, nil
}

// provideLoginUseCase 会话有效期与Refresh Token一致
func provideLoginUseCase(
	svc library.Service,
	jwtManager *jwt.Manager,
	sessions *redis.SessionStore,
	cfg *config.Config,
	log *zap.Logger,
) *appuser.LoginUseCase {
	return appuser.NewLoginUseCase(svc, jwtManager, sessions, cfg.JWT.RefreshTokenExpire, log)
}

func provideEngine(cfg *config.Config, h router.Handlers, log *zap.Logger) *gin.Engine {
	return router.New(cfg.Server, h, log)
}
