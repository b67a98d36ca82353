package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	applibrary "github.com/xiebiao/booksdb/internal/application/library"
	appuser "github.com/xiebiao/booksdb/internal/application/user"
	"github.com/xiebiao/booksdb/internal/domain/library"
	"github.com/xiebiao/booksdb/internal/infrastructure/config"
	"github.com/xiebiao/booksdb/internal/interface/http/handler"
	"github.com/xiebiao/booksdb/internal/interface/http/middleware"
	"github.com/xiebiao/booksdb/internal/interface/http/router"
	"github.com/xiebiao/booksdb/pkg/logger"
	"github.com/xiebiao/booksdb/pkg/tracing"
)

// main 图书目录HTTP服务
// 依赖注入链:Repository ← Service ← UseCase ← Handler ← Router
func main() {
	// 1. 加载配置
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("加载配置失败: %v", err)
	}

	// 2. 日志
	zl, err := logger.New(logger.Config{
		Level:        cfg.Log.Level,
		Format:       cfg.Log.Format,
		Output:       cfg.Log.Output,
		EnableCaller: cfg.Log.EnableCaller,
	})
	if err != nil {
		log.Fatalf("初始化日志失败: %v", err)
	}
	defer func() { _ = zl.Sync() }()

	if err := run(cfg, zl); err != nil {
		zl.Fatal("服务异常退出", zap.Error(err))
	}
}

func run(cfg *config.Config, zl *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 3. 链路追踪
	shutdownTracing, err := tracing.Init(ctx, tracing.Config{
		Enabled:     cfg.Tracing.Enabled,
		Endpoint:    cfg.Tracing.Endpoint,
		ServiceName: cfg.Tracing.ServiceName,
		SampleRate:  cfg.Tracing.SampleRate,
	})
	if err != nil {
		return fmt.Errorf("初始化链路追踪失败: %w", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), closeTimeout)
		defer cancel()
		_ = shutdownTracing(ctx)
	}()

	// 4. 组装依赖
	engine, cleanup, err := buildEngine(ctx, cfg, zl)
	if err != nil {
		return err
	}
	defer cleanup()

	// 5. 启动服务
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      engine,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		zl.Info("HTTP服务启动",
			zap.String("addr", srv.Addr),
			zap.String("backend", cfg.Store.Backend),
			zap.Bool("events", cfg.MQ.Enabled()),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	// 6. 优雅关闭
	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	zl.Info("正在关闭服务...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("服务器强制关闭: %w", err)
	}
	zl.Info("服务已关闭")
	return nil
}

// buildEngine 手动依赖注入,与wire.go中的InitializeApp等价
func buildEngine(ctx context.Context, cfg *config.Config, zl *zap.Logger) (*gin.Engine, func(), error) {
	var cleanups []func()
	cleanup := func() {
		for i := len(cleanups) - 1; i >= 0; i-- {
			cleanups[i]()
		}
	}

	// 基础设施层
	repo, closeRepo, err := provideRepository(ctx, cfg, zl)
	if err != nil {
		return nil, nil, err
	}
	cleanups = append(cleanups, closeRepo)

	redisClient, closeRedis, err := provideRedis(ctx, cfg, zl)
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	cleanups = append(cleanups, closeRedis)

	publisher, closePublisher, err := provideEventPublisher(cfg, zl)
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	cleanups = append(cleanups, closePublisher)

	sessions := provideSessionStore(redisClient)
	jwtManager := provideJWTManager(cfg)

	// 领域层
	svc := library.NewService(repo)

	// 应用层 + 接口层
	handlers := router.Handlers{
		User: handler.NewUserHandler(
			provideLoginUseCase(svc, jwtManager, sessions, cfg, zl),
			appuser.NewLogoutUseCase(jwtManager, sessions),
			appuser.NewRefreshUseCase(jwtManager, sessions),
		),
		Book: handler.NewBookHandler(
			applibrary.NewSearchBooksUseCase(svc),
			applibrary.NewAddBookUseCase(svc, publisher, zl),
			applibrary.NewRemoveBookUseCase(svc, publisher, zl),
			applibrary.NewAddReviewUseCase(svc, publisher, zl),
		),
		Catalog: handler.NewCatalogHandler(
			applibrary.NewListAuthorsUseCase(svc),
			applibrary.NewAddAuthorUseCase(svc),
			applibrary.NewListGenresUseCase(svc),
			applibrary.NewAddGenreUseCase(svc),
		),
		Auth: middleware.NewAuthMiddleware(jwtManager, sessions),
	}

	return provideEngine(cfg, handlers, zl), cleanup, nil
}
