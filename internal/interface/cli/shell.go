package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/xiebiao/booksdb/internal/application/async"
	applibrary "github.com/xiebiao/booksdb/internal/application/library"
	"github.com/xiebiao/booksdb/internal/domain/library"
	apperrors "github.com/xiebiao/booksdb/pkg/errors"
)

const shellHelp = `命令:
  login <用户名>                 登录(密码不回显)
  logout                         登出
  search <方式> <内容>           方式: title|isbn|author|genre|rating
  authors | genres               列出作者/类型
  add-book                       添加图书(需要登录)
  add-author                     添加作者(需要登录)
  add-genre <名称>               添加类型
  rate <图书ID> <1-5> [评论]     评分(需要登录)
  remove <图书ID>                删除图书(需要登录)
  help | exit`

// shell 交互式会话
// 存储调用在后台goroutine执行,结果回调和session都只在loop上访问
type shell struct {
	deps    Deps
	svc     library.Service
	in      *bufio.Scanner
	out     io.Writer
	loop    *async.Loop
	session library.Session
	log     *zap.Logger
}

func (a *app) shellCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "shell",
		Short: "交互式会话",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			sh := &shell{
				deps: a.deps,
				svc:  a.svc,
				in:   bufio.NewScanner(cmd.InOrStdin()),
				out:  cmd.OutOrStdout(),
				loop: async.NewLoop(16),
				log:  a.deps.Log,
			}
			defer sh.loop.Close()
			return sh.run(cmd.Context())
		},
	}
}

func (sh *shell) run(ctx context.Context) error {
	fmt.Fprintln(sh.out, "图书目录,输入help查看命令")
	for {
		fmt.Fprint(sh.out, "> ")
		if !sh.in.Scan() {
			return sh.in.Err()
		}
		fields := strings.Fields(sh.in.Text())
		if len(fields) == 0 {
			continue
		}
		cmd, args := strings.ToLower(fields[0]), fields[1:]

		switch cmd {
		case "exit", "quit":
			fmt.Fprintln(sh.out, "再见")
			return nil
		case "help":
			fmt.Fprintln(sh.out, shellHelp)
		case "login":
			sh.login(ctx, args)
		case "logout":
			sh.logout()
		case "search":
			sh.search(ctx, args)
		case "authors":
			sh.authors(ctx)
		case "genres":
			sh.genres(ctx)
		case "add-book":
			sh.addBook(ctx)
		case "add-author":
			sh.addAuthor(ctx)
		case "add-genre":
			sh.addGenre(ctx, args)
		case "rate":
			sh.rate(ctx, args)
		case "remove":
			sh.remove(ctx, args)
		default:
			fmt.Fprintf(sh.out, "未知命令: %s\n", cmd)
		}
	}
}

// deliver 后台执行call,在loop上处理结果,返回前等待回调完成
func deliver[T any](ctx context.Context, sh *shell, call func(context.Context) (T, error), onResult func(T)) {
	f := async.Run(ctx, call)
	<-async.Then(sh.loop, f, func(v T, err error) {
		if err != nil {
			sh.fail(err)
			return
		}
		onResult(v)
	})
}

// currentSession 从loop上读取会话
func (sh *shell) currentSession() library.Session {
	ch := make(chan library.Session, 1)
	if err := sh.loop.Post(func() { ch <- sh.session }); err != nil {
		return library.Session{}
	}
	return <-ch
}

func (sh *shell) requireLogin() (library.Session, bool) {
	sess := sh.currentSession()
	if !sess.LoggedIn() {
		fmt.Fprintln(sh.out, "请先登录")
	}
	return sess, sess.LoggedIn()
}

func (sh *shell) fail(err error) {
	sh.log.Debug("命令失败", zap.Error(err))
	msg := apperrors.GetAppError(err).Message
	if cause := apperrors.ClientCause(err); cause != nil && cause.Message != msg {
		msg += ": " + cause.Message
	}
	fmt.Fprintln(sh.out, "错误:", msg)
}

func (sh *shell) prompt(label string) (string, bool) {
	fmt.Fprint(sh.out, label)
	if !sh.in.Scan() {
		return "", false
	}
	return strings.TrimSpace(sh.in.Text()), true
}

// readPassword 未提供ReadPassword(输入不是终端)时按普通行读取
func (sh *shell) readPassword(label string) (string, error) {
	if sh.deps.ReadPassword != nil {
		return sh.deps.ReadPassword(label)
	}
	password, ok := sh.prompt(label)
	if !ok {
		return "", io.ErrUnexpectedEOF
	}
	return password, nil
}

func (sh *shell) login(ctx context.Context, args []string) {
	if len(args) != 1 {
		fmt.Fprintln(sh.out, "用法: login <用户名>")
		return
	}
	password, err := sh.readPassword("密码: ")
	if err != nil {
		fmt.Fprintln(sh.out, "读取密码失败:", err)
		return
	}

	deliver(ctx, sh, func(ctx context.Context) (library.Session, error) {
		return sh.svc.Login(ctx, args[0], password)
	}, func(sess library.Session) {
		sh.session = sess
		fmt.Fprintf(sh.out, "欢迎, %s\n", sess.User.Username)
	})
}

func (sh *shell) logout() {
	done := make(chan struct{})
	_ = sh.loop.Post(func() {
		defer close(done)
		if !sh.session.LoggedIn() {
			fmt.Fprintln(sh.out, "尚未登录")
			return
		}
		sh.session = library.Session{}
		fmt.Fprintln(sh.out, "已登出")
	})
	<-done
}

func (sh *shell) search(ctx context.Context, args []string) {
	if len(args) < 2 {
		fmt.Fprintln(sh.out, "用法: search <方式> <内容>")
		return
	}
	uc := applibrary.NewSearchBooksUseCase(sh.svc)
	req := applibrary.SearchRequest{Mode: args[0], Query: strings.Join(args[1:], " ")}

	deliver(ctx, sh, func(ctx context.Context) ([]applibrary.BookDTO, error) {
		return uc.Execute(ctx, req)
	}, func(books []applibrary.BookDTO) {
		printBooks(sh.out, books)
	})
}

func (sh *shell) authors(ctx context.Context) {
	uc := applibrary.NewListAuthorsUseCase(sh.svc)
	deliver(ctx, sh, uc.Execute, func(authors []applibrary.AuthorDTO) {
		printAuthors(sh.out, authors)
	})
}

func (sh *shell) genres(ctx context.Context) {
	uc := applibrary.NewListGenresUseCase(sh.svc)
	deliver(ctx, sh, uc.Execute, func(genres []applibrary.GenreDTO) {
		printGenres(sh.out, genres)
	})
}

func (sh *shell) addBook(ctx context.Context) {
	sess, ok := sh.requireLogin()
	if !ok {
		return
	}

	var req applibrary.AddBookRequest
	var authorIDs, genreIDs string
	for _, p := range []struct {
		label string
		dst   *string
	}{
		{"ISBN: ", &req.ISBN},
		{"书名: ", &req.Title},
		{"出版社: ", &req.Publisher},
		{"作者ID(逗号分隔): ", &authorIDs},
		{"类型ID(逗号分隔): ", &genreIDs},
	} {
		v, ok := sh.prompt(p.label)
		if !ok {
			return
		}
		*p.dst = v
	}

	var err error
	if req.AuthorIDs, err = parseIDs(authorIDs); err != nil {
		fmt.Fprintln(sh.out, "作者ID无效:", err)
		return
	}
	if req.GenreIDs, err = parseIDs(genreIDs); err != nil {
		fmt.Fprintln(sh.out, "类型ID无效:", err)
		return
	}

	uc := applibrary.NewAddBookUseCase(sh.svc, sh.deps.Publisher, sh.log)
	deliver(ctx, sh, func(ctx context.Context) (*applibrary.BookDTO, error) {
		return uc.Execute(ctx, sess, req)
	}, func(book *applibrary.BookDTO) {
		fmt.Fprintf(sh.out, "已添加图书 %d: %s\n", book.ID, book.Title)
	})
}

func (sh *shell) addAuthor(ctx context.Context) {
	sess, ok := sh.requireLogin()
	if !ok {
		return
	}
	name, ok := sh.prompt("姓名: ")
	if !ok {
		return
	}
	birthdate, ok := sh.prompt("出生日期(yyyy-MM-dd,可留空): ")
	if !ok {
		return
	}

	uc := applibrary.NewAddAuthorUseCase(sh.svc)
	deliver(ctx, sh, func(ctx context.Context) (*applibrary.AuthorDTO, error) {
		return uc.Execute(ctx, sess, applibrary.AddAuthorRequest{Name: name, Birthdate: birthdate})
	}, func(author *applibrary.AuthorDTO) {
		fmt.Fprintf(sh.out, "已添加作者 %d: %s\n", author.ID, author.Name)
	})
}

func (sh *shell) addGenre(ctx context.Context, args []string) {
	if len(args) == 0 {
		fmt.Fprintln(sh.out, "用法: add-genre <名称>")
		return
	}
	uc := applibrary.NewAddGenreUseCase(sh.svc)
	name := strings.Join(args, " ")
	deliver(ctx, sh, func(ctx context.Context) (*applibrary.GenreDTO, error) {
		return uc.Execute(ctx, name)
	}, func(genre *applibrary.GenreDTO) {
		fmt.Fprintf(sh.out, "已添加类型 %d: %s\n", genre.ID, genre.Name)
	})
}

func (sh *shell) rate(ctx context.Context, args []string) {
	if len(args) < 2 {
		fmt.Fprintln(sh.out, "用法: rate <图书ID> <1-5> [评论]")
		return
	}
	sess, ok := sh.requireLogin()
	if !ok {
		return
	}
	id, err1 := strconv.Atoi(args[0])
	rating, err2 := strconv.Atoi(args[1])
	if err := errors.Join(err1, err2); err != nil {
		fmt.Fprintln(sh.out, "图书ID和评分必须是数字")
		return
	}

	uc := applibrary.NewAddReviewUseCase(sh.svc, sh.deps.Publisher, sh.log)
	req := applibrary.AddReviewRequest{BookID: id, Rating: rating, Text: strings.Join(args[2:], " ")}
	deliver(ctx, sh, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, uc.Execute(ctx, sess, req)
	}, func(struct{}) {
		fmt.Fprintln(sh.out, "评分已添加")
	})
}

func (sh *shell) remove(ctx context.Context, args []string) {
	if len(args) != 1 {
		fmt.Fprintln(sh.out, "用法: remove <图书ID>")
		return
	}
	sess, ok := sh.requireLogin()
	if !ok {
		return
	}
	id, err := strconv.Atoi(args[0])
	if err != nil {
		fmt.Fprintln(sh.out, "图书ID必须是数字")
		return
	}

	uc := applibrary.NewRemoveBookUseCase(sh.svc, sh.deps.Publisher, sh.log)
	deliver(ctx, sh, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, uc.Execute(ctx, sess, id)
	}, func(struct{}) {
		fmt.Fprintf(sh.out, "已删除图书 %d\n", id)
	})
}

// parseIDs 解析逗号分隔的ID,空串返回nil
func parseIDs(s string) ([]int, error) {
	parts := lo.Compact(lo.Map(strings.Split(s, ","), func(p string, _ int) string { return strings.TrimSpace(p) }))
	ids := make([]int, 0, len(parts))
	for _, p := range parts {
		id, err := strconv.Atoi(p)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	if len(ids) == 0 {
		return nil, nil
	}
	return ids, nil
}
