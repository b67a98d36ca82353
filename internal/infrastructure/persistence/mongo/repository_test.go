package mongo

import (
	"context"
	"testing"
	"time"

	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"

	"github.com/xiebiao/booksdb/internal/domain/library"
	apperrors "github.com/xiebiao/booksdb/pkg/errors"
)

const testDB = "library_db"

func ns(coll string) string {
	return testDB + "." + coll
}

// newMockRepository 基于mtest的mock部署,所有命令的响应由测试预先排好
func newMockRepository(mt *mtest.T) *Repository {
	repo := NewRepository("", WithClient(mt.Client), WithDatabase(testDB))
	require.NoError(mt, repo.Connect(context.Background(), ""))
	return repo
}

func cursor(coll string, docs ...bson.D) bson.D {
	return mtest.CreateCursorResponse(0, ns(coll), mtest.FirstBatch, docs...)
}

func counter(name string, seq int) bson.D {
	return mtest.CreateSuccessResponse(bson.E{Key: "value", Value: bson.D{
		{Key: "_id", Value: name + "_id"},
		{Key: "seq", Value: seq},
	}})
}

func TestRepository_NotConnected(t *testing.T) {
	repo := NewRepository("mongodb://localhost:1")
	_, err := repo.FindBooksByTitle(context.Background(), "x")
	assert.Equal(t, apperrors.ErrCodeConnection, apperrors.CodeOf(err))
	assert.ErrorIs(t, err, library.ErrNotConnected)
	assert.NoError(t, repo.Disconnect(context.Background()), "未连接时断开是空操作")
}

func TestCounterSequence(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("自增并返回新值", func(mt *mtest.T) {
		mt.AddMockResponses(counter("books", 7))

		seq := newCounterSequence(mt.Client.Database(testDB))
		id, err := seq.Next(context.Background(), "books")
		require.NoError(mt, err)
		assert.Equal(mt, 7, id)

		// 单次findAndModify:$inc + upsert + 返回更新后的文档
		evt := mt.GetStartedEvent()
		require.NotNil(mt, evt)
		assert.Equal(mt, "findAndModify", evt.CommandName)
		assert.Equal(mt, "counters", evt.Command.Lookup("findAndModify").StringValue())
		assert.Equal(mt, "books_id", evt.Command.Lookup("query", "_id").StringValue())
		assert.EqualValues(mt, 1, evt.Command.Lookup("update", "$inc", "seq").AsInt64())
		assert.True(mt, evt.Command.Lookup("upsert").Boolean())
		assert.True(mt, evt.Command.Lookup("new").Boolean())
	})
}

func TestRepository_AddBook(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("分配ID并回写", func(mt *mtest.T) {
		repo := newMockRepository(mt)
		mt.AddMockResponses(counter("books", 10), mtest.CreateSuccessResponse())

		book := library.NewBook("123", "Klara and the Sun", "Faber", library.NewUser(1, "admin"))
		book.AddAuthor(&library.Author{ID: 2, Name: "Kazuo Ishiguro"})
		book.AddGenre(&library.Genre{ID: 3, Name: "Drama"})
		require.NoError(mt, repo.AddBook(context.Background(), book))
		assert.Equal(mt, 10, book.ID)

		mt.GetStartedEvent() // findAndModify
		insert := mt.GetStartedEvent()
		require.NotNil(mt, insert)
		assert.Equal(mt, "insert", insert.CommandName)
		doc := insert.Command.Lookup("documents").Array().Index(0).Value().Document()
		assert.EqualValues(mt, 10, doc.Lookup("_id").AsInt64())
		assert.EqualValues(mt, 2, doc.Lookup("author_ids").Array().Index(0).Value().AsInt64())
		assert.EqualValues(mt, 1, doc.Lookup("added_by").AsInt64())

		reviews, err := doc.Lookup("reviews").Array().Values()
		require.NoError(mt, err)
		assert.Empty(mt, reviews, "书评必须是空数组而不是null")
	})

	mt.Run("重复键", func(mt *mtest.T) {
		repo := newMockRepository(mt)
		mt.AddMockResponses(counter("books", 11), mtest.CreateWriteErrorsResponse(mtest.WriteError{
			Index:   0,
			Code:    11000,
			Message: "E11000 duplicate key error",
		}))

		book := library.NewBook("123", "t", "p", nil)
		err := repo.AddBook(context.Background(), book)
		assert.Equal(mt, apperrors.ErrCodeInsert, apperrors.CodeOf(err))
		assert.ErrorIs(mt, err, library.ErrDuplicate)
		assert.Equal(mt, library.UnsavedID, book.ID)
	})

	mt.Run("引用未保存的作者", func(mt *mtest.T) {
		repo := newMockRepository(mt)
		book := library.NewBook("123", "t", "p", nil)
		book.AddAuthor(library.NewAuthor("nobody", nil, nil))

		err := repo.AddBook(context.Background(), book)
		assert.ErrorIs(mt, err, library.ErrUnsavedReference)
	})
}

func TestRepository_FindBooksByTitle_Hydrates(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("装配作者类型和书评", func(mt *mtest.T) {
		repo := newMockRepository(mt)
		today := library.Today().UTC()

		mt.AddMockResponses(
			cursor(collBooks, bson.D{
				{Key: "_id", Value: 1},
				{Key: "isbn", Value: "123"},
				{Key: "title", Value: "C++ Primer"},
				{Key: "publisher", Value: "Addison"},
				{Key: "added_by", Value: 1},
				{Key: "author_ids", Value: bson.A{2, 1}},
				{Key: "genre_ids", Value: bson.A{3}},
				{Key: "reviews", Value: bson.A{
					bson.D{{Key: "rating", Value: 3}, {Key: "date", Value: today}, {Key: "user_id", Value: 1}},
					bson.D{{Key: "rating", Value: 5}, {Key: "text", Value: "great"}, {Key: "date", Value: today}, {Key: "user_id", Value: 9}},
				}},
			}),
			cursor(collAuthors,
				bson.D{{Key: "_id", Value: 1}, {Key: "name", Value: "Stanley Lippman"}},
				bson.D{{Key: "_id", Value: 2}, {Key: "name", Value: "Josee Lajoie"}, {Key: "added_by", Value: 1}},
			),
			cursor(collGenres, bson.D{{Key: "_id", Value: 3}, {Key: "name", Value: "Programming"}}),
			cursor(collUsers, bson.D{{Key: "_id", Value: 1}, {Key: "username", Value: "admin"}}),
		)

		books, err := repo.FindBooksByTitle(context.Background(), " c++ ")
		require.NoError(mt, err)
		require.Len(mt, books, 1)

		b := books[0]
		assert.Equal(mt, "admin", b.AddedBy.Username)
		names := lo.Map(b.Authors, func(a *library.Author, _ int) string { return a.Name })
		assert.Equal(mt, []string{"Josee Lajoie", "Stanley Lippman"}, names, "作者按引用顺序")
		assert.Equal(mt, "admin", b.Authors[0].AddedBy.Username)
		assert.Nil(mt, b.Authors[1].AddedBy)
		require.Len(mt, b.Genres, 1)
		assert.Equal(mt, "Programming", b.Genres[0].Name)
		require.Len(mt, b.Reviews, 2)
		assert.Equal(mt, "admin", b.Reviews[0].User.Username)
		assert.Equal(mt, "Unknown", b.Reviews[1].User.Username, "不存在的用户显示为Unknown")
		assert.Equal(mt, "great", b.Reviews[1].Text)
		assert.Equal(mt, 4.0, b.Rating())

		// 书名先做正则转义
		find := mt.GetStartedEvent()
		require.NotNil(mt, find)
		pattern, opts := find.Command.Lookup("filter", "title").Regex()
		assert.Equal(mt, `c\+\+`, pattern)
		assert.Equal(mt, "i", opts)
	})
}

func TestRepository_FindBooksByIsbn_Anchored(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("整串匹配", func(mt *mtest.T) {
		repo := newMockRepository(mt)
		mt.AddMockResponses(cursor(collBooks))

		books, err := repo.FindBooksByIsbn(context.Background(), "978-0")
		require.NoError(mt, err)
		assert.NotNil(mt, books)
		assert.Empty(mt, books)

		pattern, opts := mt.GetStartedEvent().Command.Lookup("filter", "isbn").Regex()
		assert.Equal(mt, `^978-0$`, pattern)
		assert.Equal(mt, "i", opts)
	})
}

func TestRepository_FindBooksByAuthor(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("没有匹配的作者时不查图书", func(mt *mtest.T) {
		repo := newMockRepository(mt)
		mt.AddMockResponses(cursor(collAuthors))

		books, err := repo.FindBooksByAuthor(context.Background(), "nobody")
		require.NoError(mt, err)
		assert.Empty(mt, books)

		mt.GetStartedEvent()
		assert.Nil(mt, mt.GetStartedEvent(), "只应发出一条命令")
	})

	mt.Run("按作者ID查询图书", func(mt *mtest.T) {
		repo := newMockRepository(mt)
		mt.AddMockResponses(
			cursor(collAuthors, bson.D{{Key: "_id", Value: 3}}),
			cursor(collBooks, bson.D{
				{Key: "_id", Value: 5},
				{Key: "title", Value: "The remains of the day"},
				{Key: "author_ids", Value: bson.A{3}},
				{Key: "genre_ids", Value: bson.A{}},
				{Key: "reviews", Value: bson.A{}},
			}),
			cursor(collAuthors, bson.D{{Key: "_id", Value: 3}, {Key: "name", Value: "Kazuo Ishiguro"}}),
		)

		books, err := repo.FindBooksByAuthor(context.Background(), "ishiguro")
		require.NoError(mt, err)
		require.Len(mt, books, 1)
		assert.Equal(mt, "Kazuo Ishiguro", books[0].Authors[0].Name)
		assert.Empty(mt, books[0].Genres)

		mt.GetStartedEvent()
		find := mt.GetStartedEvent()
		assert.EqualValues(mt, 3, find.Command.Lookup("filter", "author_ids", "$in").Array().Index(0).Value().AsInt64())
	})
}

func TestRepository_FindBooksByRating(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("内存过滤派生评分", func(mt *mtest.T) {
		repo := newMockRepository(mt)
		now := time.Now().UTC()
		review := func(r int) bson.D {
			return bson.D{{Key: "rating", Value: r}, {Key: "date", Value: now}, {Key: "user_id", Value: 1}}
		}

		mt.AddMockResponses(
			cursor(collBooks,
				bson.D{{Key: "_id", Value: 1}, {Key: "title", Value: "High"}, {Key: "reviews", Value: bson.A{review(4), review(4)}}},
				bson.D{{Key: "_id", Value: 2}, {Key: "title", Value: "Low"}, {Key: "reviews", Value: bson.A{review(2)}}},
				bson.D{{Key: "_id", Value: 3}, {Key: "title", Value: "None"}, {Key: "reviews", Value: bson.A{}}},
			),
			cursor(collUsers, bson.D{{Key: "_id", Value: 1}, {Key: "username", Value: "admin"}}),
		)

		books, err := repo.FindBooksByRating(context.Background(), 4)
		require.NoError(mt, err)
		require.Len(mt, books, 1, "评分等于阈值时包含,没有书评的不包含")
		assert.Equal(mt, "High", books[0].Title)
	})
}

func TestRepository_AddReview(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	admin := library.NewUser(1, "admin")

	mt.Run("评分超出范围", func(mt *mtest.T) {
		repo := newMockRepository(mt)
		err := repo.AddReview(context.Background(), &library.Book{ID: 1}, admin, 6, "")
		assert.Equal(mt, apperrors.ErrCodeInsert, apperrors.CodeOf(err))
		assert.ErrorIs(mt, err, library.ErrInvalidRating)
	})

	mt.Run("图书不存在", func(mt *mtest.T) {
		repo := newMockRepository(mt)
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 0}, bson.E{Key: "nModified", Value: 0}))

		err := repo.AddReview(context.Background(), &library.Book{ID: 404}, admin, 3, "")
		assert.Equal(mt, apperrors.ErrCodeInsert, apperrors.CodeOf(err))
		assert.ErrorIs(mt, err, library.ErrBookNotFound)
	})

	mt.Run("$push书评", func(mt *mtest.T) {
		repo := newMockRepository(mt)
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}, bson.E{Key: "nModified", Value: 1}))

		require.NoError(mt, repo.AddReview(context.Background(), &library.Book{ID: 4}, admin, 5, "good"))

		evt := mt.GetStartedEvent()
		update := evt.Command.Lookup("updates").Array().Index(0).Value().Document()
		pushed := update.Lookup("u", "$push", "reviews").Document()
		assert.EqualValues(mt, 5, pushed.Lookup("rating").AsInt64())
		assert.Equal(mt, "good", pushed.Lookup("text").StringValue())
		assert.EqualValues(mt, 1, pushed.Lookup("user_id").AsInt64())
	})
}

func TestRepository_RemoveBook(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("删除成功", func(mt *mtest.T) {
		repo := newMockRepository(mt)
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}))
		assert.NoError(mt, repo.RemoveBook(context.Background(), &library.Book{ID: 1}))
	})

	mt.Run("图书不存在", func(mt *mtest.T) {
		repo := newMockRepository(mt)
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 0}))

		err := repo.RemoveBook(context.Background(), &library.Book{ID: 404})
		assert.Equal(mt, apperrors.ErrCodeDelete, apperrors.CodeOf(err))
		assert.ErrorIs(mt, err, library.ErrBookNotFound)
	})
}

func TestRepository_Login(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("凭据匹配", func(mt *mtest.T) {
		repo := newMockRepository(mt)
		mt.AddMockResponses(cursor(collUsers, bson.D{{Key: "_id", Value: 1}, {Key: "username", Value: "admin"}}))

		u, err := repo.Login(context.Background(), "admin", "secret")
		require.NoError(mt, err)
		require.NotNil(mt, u)
		assert.Equal(mt, 1, u.ID)
	})

	mt.Run("凭据不匹配", func(mt *mtest.T) {
		repo := newMockRepository(mt)
		mt.AddMockResponses(cursor(collUsers))

		u, err := repo.Login(context.Background(), "admin", "wrong")
		require.NoError(mt, err)
		assert.Nil(mt, u)
	})
}

func TestRepository_GetAll(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("类型按名称排序", func(mt *mtest.T) {
		repo := newMockRepository(mt)
		mt.AddMockResponses(cursor(collGenres,
			bson.D{{Key: "_id", Value: 2}, {Key: "name", Value: "Adventure"}},
			bson.D{{Key: "_id", Value: 1}, {Key: "name", Value: "Fantasy"}},
		))

		genres, err := repo.GetAllGenres(context.Background())
		require.NoError(mt, err)
		assert.Equal(mt, []string{"Adventure", "Fantasy"}, lo.Map(genres, func(g *library.Genre, _ int) string { return g.Name }))

		sort := mt.GetStartedEvent().Command.Lookup("sort")
		assert.EqualValues(mt, 1, sort.Document().Lookup("name").AsInt64())
	})

	mt.Run("作者及添加者", func(mt *mtest.T) {
		repo := newMockRepository(mt)
		mt.AddMockResponses(
			cursor(collAuthors,
				bson.D{{Key: "_id", Value: 1}, {Key: "name", Value: "J.K. Rowling"}, {Key: "added_by", Value: 1}},
				bson.D{{Key: "_id", Value: 2}, {Key: "name", Value: "J.R.R. Tolkien"}},
			),
			cursor(collUsers, bson.D{{Key: "_id", Value: 1}, {Key: "username", Value: "admin"}}),
		)

		authors, err := repo.GetAllAuthors(context.Background())
		require.NoError(mt, err)
		require.Len(mt, authors, 2)
		assert.Equal(mt, "admin", authors[0].AddedBy.Username)
		assert.Nil(mt, authors[1].AddedBy)
	})
}

func TestEnsureIndexes(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("用户名和类型名唯一索引", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse(), mtest.CreateSuccessResponse())
		require.NoError(mt, ensureIndexes(context.Background(), mt.Client.Database(testDB)))

		evt := mt.GetStartedEvent()
		assert.Equal(mt, "createIndexes", evt.CommandName)
		assert.Equal(mt, collUsers, evt.Command.Lookup("createIndexes").StringValue())
		idx := evt.Command.Lookup("indexes").Array().Index(0).Value().Document()
		assert.True(mt, idx.Lookup("unique").Boolean())
	})
}
