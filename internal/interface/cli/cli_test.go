package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	applibrary "github.com/xiebiao/booksdb/internal/application/library"
	"github.com/xiebiao/booksdb/internal/domain/library"
	"github.com/xiebiao/booksdb/internal/infrastructure/persistence/memory"
	"github.com/xiebiao/booksdb/pkg/mq"
)

// run 以内存存储执行一次booksctl命令
func run(t *testing.T, input string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	repo := memory.NewRepository()
	root := NewRootCommand(Deps{
		Open: func(ctx context.Context) (library.Repository, error) {
			return repo, repo.Connect(ctx, "")
		},
		In:           strings.NewReader(input),
		Out:          &out,
		ReadPassword: func(string) (string, error) { return "secret", nil },
	})
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestSearchCommand(t *testing.T) {
	t.Run("默认按书名", func(t *testing.T) {
		out, err := run(t, "", "search", "databases")
		require.NoError(t, err)
		assert.Contains(t, out, "Databases Illuminated")
		assert.Contains(t, out, "Dark Databases")
	})

	t.Run("按作者", func(t *testing.T) {
		out, err := run(t, "", "search", "--mode", "author", "tolkien")
		require.NoError(t, err)
		assert.Contains(t, out, "Dark Databases")
		assert.NotContains(t, out, "Microserfs")
	})

	t.Run("无结果", func(t *testing.T) {
		out, err := run(t, "", "search", "-m", "isbn", "000")
		require.NoError(t, err)
		assert.Contains(t, out, "没有找到图书")
	})

	t.Run("评分输入非数字", func(t *testing.T) {
		_, err := run(t, "", "search", "-m", "rating", "high")
		assert.ErrorIs(t, err, library.ErrInvalidRatingQuery)
	})

	t.Run("缺少参数", func(t *testing.T) {
		_, err := run(t, "", "search")
		assert.Error(t, err)
	})
}

func TestListCommands(t *testing.T) {
	out, err := run(t, "", "authors")
	require.NoError(t, err)
	assert.Contains(t, out, "J.R.R. Tolkien")

	out, err = run(t, "", "genres")
	require.NoError(t, err)
	assert.Contains(t, out, "Fantasy")
}

func TestOpenFailure(t *testing.T) {
	root := NewRootCommand(Deps{
		Open: func(context.Context) (library.Repository, error) { return nil, errors.New("connection refused") },
		Out:  &bytes.Buffer{},
	})
	root.SetArgs([]string{"genres"})
	assert.EqualError(t, root.Execute(), "connection refused")
}

func TestShell(t *testing.T) {
	t.Run("未登录不能写入", func(t *testing.T) {
		out, err := run(t, "remove 1\nexit\n", "shell")
		require.NoError(t, err)
		assert.Contains(t, out, "请先登录")
	})

	t.Run("登录后评分并按评分搜索", func(t *testing.T) {
		input := strings.Join([]string{
			"login admin",
			"rate 9 5 great",
			"rate 9 7",
			"search rating 5",
			"logout",
			"rate 9 5",
			"exit",
		}, "\n") + "\n"
		out, err := run(t, input, "shell")
		require.NoError(t, err)

		assert.Contains(t, out, "欢迎, admin")
		assert.Contains(t, out, "评分已添加")
		assert.Contains(t, out, "评分必须在1到5之间")
		assert.Contains(t, out, "Microserfs")
		assert.Contains(t, out, "5.0")
		assert.Contains(t, out, "已登出")
		assert.Contains(t, out, "请先登录")
	})

	t.Run("添加图书", func(t *testing.T) {
		input := strings.Join([]string{
			"login admin",
			"add-book",
			"9780000000002",
			"Klara and the Sun",
			"Faber",
			"3",
			"3, 1",
			"search isbn 9780000000002",
			"add-book",
			"1",
			"x",
			"",
			"99",
			"",
			"exit",
		}, "\n") + "\n"
		out, err := run(t, input, "shell")
		require.NoError(t, err)

		assert.Contains(t, out, "已添加图书")
		assert.Contains(t, out, "Klara and the Sun")
		assert.Contains(t, out, "Drama, Fantasy")
		assert.Contains(t, out, "作者不存在")
	})

	t.Run("删除不存在的图书", func(t *testing.T) {
		out, err := run(t, "login admin\nremove 999\nquit\n", "shell")
		require.NoError(t, err)
		assert.Contains(t, out, "删除图书失败: id=999: 图书不存在")
	})

	t.Run("输入结束时退出", func(t *testing.T) {
		_, err := run(t, "help\n", "shell")
		assert.NoError(t, err)
	})
}

func TestParseIDs(t *testing.T) {
	ids, err := parseIDs(" 1, 2,,3 ")
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 3}, ids)

	ids, err = parseIDs("")
	require.NoError(t, err)
	assert.Nil(t, ids)

	_, err = parseIDs("1,a")
	assert.Error(t, err)
}

func TestEventsCommand(t *testing.T) {
	t.Run("未配置消息队列", func(t *testing.T) {
		_, err := run(t, "", "events")
		assert.Error(t, err)
	})

	t.Run("输出事件且不打开存储", func(t *testing.T) {
		var out bytes.Buffer
		root := NewRootCommand(Deps{
			Open: func(context.Context) (library.Repository, error) {
				t.Error("events不应打开存储")
				return nil, errors.New("unexpected")
			},
			Out: &out,
			Subscribe: func(ctx context.Context, handle func(context.Context, mq.Envelope) error) error {
				return handle(ctx, mq.Envelope{
					ID:         "1",
					Type:       "book.added",
					OccurredAt: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
					Payload:    json.RawMessage(`{"book_id":10}`),
				})
			},
		})
		root.SetArgs([]string{"events"})
		require.NoError(t, root.Execute())
		assert.Contains(t, out.String(), "2024-05-01 12:00:00")
		assert.Contains(t, out.String(), `book.added`)
		assert.Contains(t, out.String(), `{"book_id":10}`)
	})
}

func TestShellPasswordFromInput(t *testing.T) {
	var out bytes.Buffer
	repo := memory.NewRepository()
	root := NewRootCommand(Deps{
		Open: func(ctx context.Context) (library.Repository, error) {
			return repo, repo.Connect(ctx, "")
		},
		In:  strings.NewReader("login admin\nsecret\nlogout\nexit\n"),
		Out: &out,
	})
	root.SetArgs([]string{"shell"})
	require.NoError(t, root.Execute())
	assert.Contains(t, out.String(), "密码: ")
	assert.Contains(t, out.String(), "欢迎, admin")
	assert.Contains(t, out.String(), "已登出")
}

// recordingPublisher 记录发布的事件类型
type recordingPublisher struct {
	mu   sync.Mutex
	keys []string
}

func (p *recordingPublisher) Publish(_ context.Context, routingKey string, _ interface{}) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.keys = append(p.keys, routingKey)
	return nil
}

func TestShellPublishesEvents(t *testing.T) {
	pub := &recordingPublisher{}
	repo := memory.NewRepository()
	var out bytes.Buffer
	root := NewRootCommand(Deps{
		Open: func(ctx context.Context) (library.Repository, error) {
			return repo, repo.Connect(ctx, "")
		},
		In: strings.NewReader(strings.Join([]string{
			"login admin",
			"add-book",
			"9780000000003",
			"Never Let Me Go",
			"Faber",
			"3",
			"",
			"rate 9 5",
			"rate 9 9",
			"remove 9",
			"remove 999",
			"exit",
		}, "\n") + "\n"),
		Out:          &out,
		ReadPassword: func(string) (string, error) { return "secret", nil },
		Publisher:    pub,
	})
	root.SetArgs([]string{"shell"})
	require.NoError(t, root.ExecuteContext(context.Background()))

	assert.Contains(t, out.String(), "已删除图书 9")
	// 失败的写操作不发布
	assert.Equal(t, []string{
		applibrary.EventBookAdded,
		applibrary.EventReviewAdded,
		applibrary.EventBookRemoved,
	}, pub.keys)
}
