package library_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/xiebiao/booksdb/internal/domain/library"
	"github.com/xiebiao/booksdb/internal/domain/library/mocks"
)

func newService(t *testing.T) (library.Service, *mocks.MockRepository) {
	ctrl := gomock.NewController(t)
	repo := mocks.NewMockRepository(ctrl)
	return library.NewService(repo), repo
}

func TestService_Search_Dispatch(t *testing.T) {
	ctx := context.Background()
	svc, repo := newService(t)
	want := []*library.Book{{ID: 1, Title: "Databases Illuminated"}}

	repo.EXPECT().FindBooksByTitle(ctx, "data").Return(want, nil)
	repo.EXPECT().FindBooksByIsbn(ctx, "123456789").Return(want, nil)
	repo.EXPECT().FindBooksByAuthor(ctx, "ricardo").Return(want, nil)
	repo.EXPECT().FindBooksByGenre(ctx, "Fantasy").Return(want, nil)
	repo.EXPECT().FindBooksByRating(ctx, 4.0).Return(want, nil)

	cases := map[library.SearchMode]string{
		library.SearchByTitle:  "  data ",
		library.SearchByIsbn:   "123456789",
		library.SearchByAuthor: "ricardo",
		library.SearchByGenre:  "Fantasy",
		library.SearchByRating: "4",
	}
	for mode, q := range cases {
		got, err := svc.Search(ctx, mode, q)
		require.NoError(t, err, "搜索方式 %s", mode)
		assert.Equal(t, want, got)
	}
}

func TestService_Search_InvalidInput(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t)

	t.Run("空搜索字符串", func(t *testing.T) {
		_, err := svc.Search(ctx, library.SearchByTitle, "   ")
		assert.ErrorIs(t, err, library.ErrEmptyQuery)
	})

	t.Run("评分不是数字", func(t *testing.T) {
		_, err := svc.Search(ctx, library.SearchByRating, "four")
		assert.ErrorIs(t, err, library.ErrInvalidRatingQuery)
	})

	t.Run("未知搜索方式", func(t *testing.T) {
		_, err := svc.Search(ctx, library.SearchMode("publisher"), "x")
		assert.ErrorIs(t, err, library.ErrInvalidSearchMode)
	})
}

func TestService_RequiresLogin(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t)
	anon := library.Session{}
	book := library.NewBook("1", "t", "p", nil)

	assert.ErrorIs(t, svc.AddBook(ctx, anon, book), library.ErrNotLoggedIn)
	assert.ErrorIs(t, svc.AddAuthor(ctx, anon, library.NewAuthor("a", nil, nil)), library.ErrNotLoggedIn)
	assert.ErrorIs(t, svc.AddReview(ctx, anon, book, 5, ""), library.ErrNotLoggedIn)
	assert.ErrorIs(t, svc.RemoveBook(ctx, anon, book), library.ErrNotLoggedIn)
}

func TestService_AddBook_StampsAddedBy(t *testing.T) {
	ctx := context.Background()
	svc, repo := newService(t)
	admin := library.NewUser(1, "admin")
	book := library.NewBook("1", "Shuggie Bain", "Picador", nil)

	repo.EXPECT().AddBook(ctx, book).DoAndReturn(func(_ context.Context, b *library.Book) error {
		b.ID = 10
		return nil
	})

	require.NoError(t, svc.AddBook(ctx, library.NewSession(admin), book))
	assert.Equal(t, admin, book.AddedBy)
	assert.Equal(t, 10, book.ID)
}

func TestService_AddBook_TitleRequired(t *testing.T) {
	svc, _ := newService(t)
	book := library.NewBook("1", " ", "p", nil)
	err := svc.AddBook(context.Background(), library.NewSession(library.NewUser(1, "admin")), book)
	assert.ErrorIs(t, err, library.ErrTitleRequired)
}

func TestService_AddReview_UsesSessionUser(t *testing.T) {
	ctx := context.Background()
	svc, repo := newService(t)
	admin := library.NewUser(1, "admin")
	book := &library.Book{ID: 3}

	repo.EXPECT().AddReview(ctx, book, admin, 4, "good").Return(nil)
	assert.NoError(t, svc.AddReview(ctx, library.NewSession(admin), book, 4, "good"))
}

func TestService_AddReview_RejectsRatingBeforeStore(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t)
	sess := library.NewSession(library.NewUser(1, "admin"))

	// mock没有设置期望,访问存储会导致测试失败
	for _, rating := range []int{0, 6, -1} {
		err := svc.AddReview(ctx, sess, &library.Book{ID: 3}, rating, "")
		assert.ErrorIs(t, err, library.ErrInvalidRating)
	}
}

func TestService_Login(t *testing.T) {
	ctx := context.Background()
	svc, repo := newService(t)

	t.Run("登录成功", func(t *testing.T) {
		repo.EXPECT().Login(ctx, "admin", "pw").Return(library.NewUser(1, "admin"), nil)
		sess, err := svc.Login(ctx, " admin ", "pw")
		require.NoError(t, err)
		assert.True(t, sess.LoggedIn())
		assert.Equal(t, "admin", sess.User.Username)
	})

	t.Run("凭据不匹配", func(t *testing.T) {
		repo.EXPECT().Login(ctx, "nobody", "pw").Return(nil, nil)
		sess, err := svc.Login(ctx, "nobody", "pw")
		assert.ErrorIs(t, err, library.ErrInvalidCredentials)
		assert.False(t, sess.LoggedIn())
	})
}
