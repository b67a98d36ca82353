// Package cli booksctl终端客户端
//
// 一次性命令(search、authors、genres)直接调用用例;shell是交互式会话,
// 每次存储调用都通过async在后台执行,结果由单个投递循环输出并更新会话状态。
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	applibrary "github.com/xiebiao/booksdb/internal/application/library"
	"github.com/xiebiao/booksdb/internal/domain/library"
	"github.com/xiebiao/booksdb/pkg/mq"
)

// Deps 命令依赖
type Deps struct {
	// Open 返回已连接的仓储,命令结束时由cli负责断开
	Open func(ctx context.Context) (library.Repository, error)

	In  io.Reader
	Out io.Writer

	// ReadPassword 不回显地读取密码
	ReadPassword func(prompt string) (string, error)

	// Publisher shell写操作成功后发布领域事件,为nil时不发布
	Publisher applibrary.EventPublisher

	// Subscribe 订阅领域事件直到ctx取消,未配置消息队列时为nil
	Subscribe func(ctx context.Context, handle func(context.Context, mq.Envelope) error) error

	Log *zap.Logger
}

// 不需要存储的命令在Annotations里标记store=none
const annotationStore = "store"

// app 单次命令执行期间的状态
type app struct {
	deps Deps
	repo library.Repository
	svc  library.Service
}

// NewRootCommand 创建booksctl根命令
func NewRootCommand(deps Deps) *cobra.Command {
	if deps.Log == nil {
		deps.Log = zap.NewNop()
	}
	if deps.Publisher == nil {
		deps.Publisher = applibrary.NopPublisher{}
	}
	a := &app{deps: deps}

	root := &cobra.Command{
		Use:           "booksctl",
		Short:         "图书目录终端客户端",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Annotations[annotationStore] == "none" {
				return nil
			}
			repo, err := deps.Open(cmd.Context())
			if err != nil {
				return err
			}
			a.repo = repo
			a.svc = library.NewService(repo)
			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, _ []string) error {
			return a.close(cmd.Context())
		},
	}
	root.SetIn(deps.In)
	root.SetOut(deps.Out)
	root.SetErr(deps.Out)

	root.AddCommand(
		a.searchCommand(),
		a.authorsCommand(),
		a.genresCommand(),
		a.shellCommand(),
		a.eventsCommand(),
	)
	return root
}

func (a *app) close(ctx context.Context) error {
	if a.repo == nil {
		return nil
	}
	err := a.repo.Disconnect(ctx)
	a.repo = nil
	return err
}

func (a *app) searchCommand() *cobra.Command {
	var mode string
	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "搜索图书",
		Example: `  booksctl search databases
  booksctl search --mode author ishiguro
  booksctl search --mode rating 4`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			books, err := applibrary.NewSearchBooksUseCase(a.svc).Execute(cmd.Context(), applibrary.SearchRequest{
				Mode:  mode,
				Query: strings.Join(args, " "),
			})
			if err != nil {
				return err
			}
			printBooks(cmd.OutOrStdout(), books)
			return nil
		},
	}
	cmd.Flags().StringVarP(&mode, "mode", "m", string(library.SearchByTitle),
		fmt.Sprintf("搜索方式: %s", joinModes()))
	return cmd
}

func (a *app) authorsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "authors",
		Short: "列出所有作者",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			authors, err := applibrary.NewListAuthorsUseCase(a.svc).Execute(cmd.Context())
			if err != nil {
				return err
			}
			printAuthors(cmd.OutOrStdout(), authors)
			return nil
		},
	}
}

func (a *app) genresCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "genres",
		Short: "列出所有类型",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			genres, err := applibrary.NewListGenresUseCase(a.svc).Execute(cmd.Context())
			if err != nil {
				return err
			}
			printGenres(cmd.OutOrStdout(), genres)
			return nil
		},
	}
}

func (a *app) eventsCommand() *cobra.Command {
	return &cobra.Command{
		Use:         "events",
		Short:       "实时输出领域事件(book.added、book.removed、review.added)",
		Args:        cobra.NoArgs,
		Annotations: map[string]string{annotationStore: "none"},
		RunE: func(cmd *cobra.Command, _ []string) error {
			if a.deps.Subscribe == nil {
				return errors.New("未配置消息队列(mq.url)")
			}
			out := cmd.OutOrStdout()
			return a.deps.Subscribe(cmd.Context(), func(_ context.Context, env mq.Envelope) error {
				fmt.Fprintf(out, "%s  %-14s %s\n", env.OccurredAt.Format(time.DateTime), env.Type, env.Payload)
				return nil
			})
		},
	}
}

func joinModes() string {
	modes := make([]string, len(library.SearchModes))
	for i, m := range library.SearchModes {
		modes[i] = string(m)
	}
	return strings.Join(modes, "|")
}
