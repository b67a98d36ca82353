//go:build wireinject
// +build wireinject

// Wire依赖注入配置
// 运行 `wire gen ./cmd/api` 生成wire_gen.go,生成的InitializeApp与main.go中的buildEngine等价

package main

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/wire"
	"go.uber.org/zap"

	applibrary "github.com/xiebiao/booksdb/internal/application/library"
	appuser "github.com/xiebiao/booksdb/internal/application/user"
	"github.com/xiebiao/booksdb/internal/domain/library"
	"github.com/xiebiao/booksdb/internal/infrastructure/config"
	"github.com/xiebiao/booksdb/internal/interface/http/handler"
	"github.com/xiebiao/booksdb/internal/interface/http/middleware"
	"github.com/xiebiao/booksdb/internal/interface/http/router"
)

// infrastructureSet 存储、Redis、消息队列、JWT
var infrastructureSet = wire.NewSet(
	provideRepository,
	provideRedis,
	provideSessionStore,
	provideJWTManager,
	provideEventPublisher,
)

// domainSet 领域服务
var domainSet = wire.NewSet(
	library.NewService,
)

// applicationSet 用例
var applicationSet = wire.NewSet(
	provideLoginUseCase,
	appuser.NewLogoutUseCase,
	appuser.NewRefreshUseCase,
	applibrary.NewSearchBooksUseCase,
	applibrary.NewAddBookUseCase,
	applibrary.NewRemoveBookUseCase,
	applibrary.NewAddReviewUseCase,
	applibrary.NewListAuthorsUseCase,
	applibrary.NewAddAuthorUseCase,
	applibrary.NewListGenresUseCase,
	applibrary.NewAddGenreUseCase,
)

// interfaceSet 处理器、中间件、路由
var interfaceSet = wire.NewSet(
	handler.NewUserHandler,
	handler.NewBookHandler,
	handler.NewCatalogHandler,
	middleware.NewAuthMiddleware,
	wire.Struct(new(router.Handlers), "*"),
	provideEngine,
)

// InitializeApp 初始化Gin引擎,cleanup按创建的逆序释放存储、Redis和消息队列连接
func InitializeApp(ctx context.Context, cfg *config.Config, log *zap.Logger) (*gin.Engine, func(), error) {
	wire.Build(
		infrastructureSet,
		domainSet,
		applicationSet,
		interfaceSet,
	)
	return nil, nil, nil
}
