// Package persistence 选择图书目录的存储后端,并为其加上指标、追踪和熔断
package persistence

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/xiebiao/booksdb/internal/domain/library"
	"github.com/xiebiao/booksdb/internal/infrastructure/config"
	"github.com/xiebiao/booksdb/internal/infrastructure/persistence/memory"
	"github.com/xiebiao/booksdb/internal/infrastructure/persistence/mongo"
	"github.com/xiebiao/booksdb/internal/infrastructure/persistence/mysql"
)

// NewRepository 按store.backend创建未连接的仓储
// 返回的仓储还需要调用Connect(ctx, cfg.Locator())
func NewRepository(cfg *config.Config, log *zap.Logger) (library.Repository, error) {
	switch cfg.Store.Backend {
	case config.BackendMySQL:
		return mysql.NewRepository(cfg.MySQL.DSN(),
			mysql.WithPool(cfg.MySQL.MaxOpenConns, cfg.MySQL.MaxIdleConns, cfg.MySQL.ConnMaxLifetime),
			mysql.WithSQLLog(cfg.Log.Level == "debug"),
			mysql.WithLogger(log.Named("mysql")),
		), nil

	case config.BackendMongo:
		return mongo.NewRepository(cfg.Mongo.URI,
			mongo.WithDatabase(cfg.Mongo.Database),
			mongo.WithConnectTimeout(cfg.Mongo.ConnectTimeout),
			mongo.WithMaxPoolSize(cfg.Mongo.MaxPoolSize),
			mongo.WithLogger(log.Named("mongo")),
		), nil

	case config.BackendMemory:
		return memory.NewRepository(), nil

	default:
		return nil, fmt.Errorf("未知的存储后端: %q", cfg.Store.Backend)
	}
}

// Open 创建、包装并连接仓储,api和booksctl共用
func Open(ctx context.Context, cfg *config.Config, log *zap.Logger) (library.Repository, error) {
	repo, err := NewRepository(cfg, log)
	if err != nil {
		return nil, err
	}

	backend := cfg.Store.Backend
	repo = Instrument(repo, backend, NewBreaker(backend, cfg.Breaker, log))
	if err := repo.Connect(ctx, cfg.Locator()); err != nil {
		return nil, err
	}
	log.Info("存储已连接", zap.String("backend", backend))
	return repo, nil
}
