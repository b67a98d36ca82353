package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/xiebiao/booksdb/internal/domain/library"
	"github.com/xiebiao/booksdb/internal/infrastructure/config"
	"github.com/xiebiao/booksdb/internal/infrastructure/persistence"
	"github.com/xiebiao/booksdb/internal/interface/cli"
	"github.com/xiebiao/booksdb/pkg/logger"
	"github.com/xiebiao/booksdb/pkg/mq"
)

// main 图书目录终端客户端
// 存储后端与HTTP服务共用config.yaml,日志固定写stderr,stdout只输出结果
func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "加载配置失败: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(logger.Config{
		Level:        cfg.Log.Level,
		Format:       cfg.Log.Format,
		Output:       "stderr",
		EnableCaller: cfg.Log.EnableCaller,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "初始化日志失败: %v\n", err)
		os.Exit(1)
	}
	err = run(cfg, log)
	_ = log.Sync()
	if err != nil {
		fmt.Fprintln(os.Stderr, "错误:", err)
		os.Exit(1)
	}
}

// run 执行命令,返回前释放消息队列连接
func run(cfg *config.Config, log *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	deps := cli.Deps{
		Open: func(ctx context.Context) (library.Repository, error) {
			return persistence.Open(ctx, cfg, log)
		},
		In:  os.Stdin,
		Out: os.Stdout,
		Log: log,
	}
	if term.IsTerminal(int(os.Stdin.Fd())) {
		deps.ReadPassword = readPassword
	}
	if cfg.MQ.Enabled() {
		deps.Subscribe = subscriber(cfg.MQ, log)
		pub, err := mq.NewPublisher(cfg.MQ.URL, cfg.MQ.Exchange, log)
		if err != nil {
			// 发布只是通知,连不上消息队列时照常使用
			log.Warn("创建事件发布者失败,写操作不发布事件", zap.Error(err))
		} else {
			defer func() { _ = pub.Close() }()
			deps.Publisher = pub
		}
	}

	return cli.NewRootCommand(deps).ExecuteContext(ctx)
}

// readPassword 终端上不回显
func readPassword(prompt string) (string, error) {
	fmt.Fprint(os.Stdout, prompt)
	b, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(os.Stdout)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// subscriber 为每次订阅创建独占临时队列,绑定所有领域事件
func subscriber(cfg config.MQConfig, log *zap.Logger) func(context.Context, func(context.Context, mq.Envelope) error) error {
	return func(ctx context.Context, handle func(context.Context, mq.Envelope) error) error {
		consumer, err := mq.NewConsumer(cfg.URL, cfg.Exchange, "", []string{"#"}, log)
		if err != nil {
			return err
		}
		defer func() { _ = consumer.Close() }()
		return consumer.Consume(ctx, handle)
	}
}
