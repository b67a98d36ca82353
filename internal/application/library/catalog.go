// Package library 图书目录用例
// 用例负责DTO转换、引用解析和事件发布,业务规则由领域服务负责
package library

import (
	"context"
	"fmt"

	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/xiebiao/booksdb/internal/domain/library"
	apperrors "github.com/xiebiao/booksdb/pkg/errors"
)

var (
	ErrAuthorNotFound = apperrors.New(apperrors.ErrCodeNotFound, "作者不存在")
	ErrGenreNotFound  = apperrors.New(apperrors.ErrCodeNotFound, "类型不存在")
)

// =========================================
// 查询
// =========================================

// SearchRequest 搜索请求,Mode为空时按书名搜索
type SearchRequest struct {
	Mode  string
	Query string
}

// SearchBooksUseCase 搜索图书
type SearchBooksUseCase struct {
	svc library.Service
}

func NewSearchBooksUseCase(svc library.Service) *SearchBooksUseCase {
	return &SearchBooksUseCase{svc: svc}
}

func (uc *SearchBooksUseCase) Execute(ctx context.Context, req SearchRequest) ([]BookDTO, error) {
	mode, err := library.ParseSearchMode(req.Mode)
	if err != nil {
		return nil, err
	}
	books, err := uc.svc.Search(ctx, mode, req.Query)
	if err != nil {
		return nil, err
	}
	return ToBookDTOs(books), nil
}

// ListAuthorsUseCase 作者列表
type ListAuthorsUseCase struct {
	svc library.Service
}

func NewListAuthorsUseCase(svc library.Service) *ListAuthorsUseCase {
	return &ListAuthorsUseCase{svc: svc}
}

func (uc *ListAuthorsUseCase) Execute(ctx context.Context) ([]AuthorDTO, error) {
	authors, err := uc.svc.Authors(ctx)
	if err != nil {
		return nil, err
	}
	return lo.Map(authors, func(a *library.Author, _ int) AuthorDTO { return ToAuthorDTO(a) }), nil
}

// ListGenresUseCase 类型列表
type ListGenresUseCase struct {
	svc library.Service
}

func NewListGenresUseCase(svc library.Service) *ListGenresUseCase {
	return &ListGenresUseCase{svc: svc}
}

func (uc *ListGenresUseCase) Execute(ctx context.Context) ([]GenreDTO, error) {
	genres, err := uc.svc.Genres(ctx)
	if err != nil {
		return nil, err
	}
	return lo.Map(genres, func(g *library.Genre, _ int) GenreDTO { return ToGenreDTO(g) }), nil
}

// =========================================
// 写入
// =========================================

// AddBookRequest 作者和类型以ID引用,必须是已保存的记录
type AddBookRequest struct {
	ISBN      string
	Title     string
	Publisher string
	AuthorIDs []int
	GenreIDs  []int
}

// AddBookUseCase 添加图书
// 流程:解析作者/类型引用 → 领域服务添加(登录检查、AddedBy) → 发布book.added
type AddBookUseCase struct {
	svc    library.Service
	events events
}

func NewAddBookUseCase(svc library.Service, pub EventPublisher, log *zap.Logger) *AddBookUseCase {
	return &AddBookUseCase{svc: svc, events: events{pub: pub, log: log}}
}

func (uc *AddBookUseCase) Execute(ctx context.Context, sess library.Session, req AddBookRequest) (*BookDTO, error) {
	if !sess.LoggedIn() {
		return nil, library.ErrNotLoggedIn
	}

	book := library.NewBook(req.ISBN, req.Title, req.Publisher, nil)

	if len(req.AuthorIDs) > 0 {
		authors, err := uc.svc.Authors(ctx)
		if err != nil {
			return nil, err
		}
		for _, id := range lo.Uniq(req.AuthorIDs) {
			a, ok := lo.Find(authors, func(a *library.Author) bool { return a.ID == id })
			if !ok {
				return nil, apperrors.WrapCode(apperrors.ErrCodeNotFound, ErrAuthorNotFound, fmt.Sprintf("作者不存在: id=%d", id))
			}
			book.AddAuthor(a)
		}
	}

	if len(req.GenreIDs) > 0 {
		genres, err := uc.svc.Genres(ctx)
		if err != nil {
			return nil, err
		}
		for _, id := range lo.Uniq(req.GenreIDs) {
			g, ok := lo.Find(genres, func(g *library.Genre) bool { return g.ID == id })
			if !ok {
				return nil, apperrors.WrapCode(apperrors.ErrCodeNotFound, ErrGenreNotFound, fmt.Sprintf("类型不存在: id=%d", id))
			}
			book.AddGenre(g)
		}
	}

	if err := uc.svc.AddBook(ctx, sess, book); err != nil {
		return nil, err
	}

	uc.events.publish(ctx, EventBookAdded, BookAddedEvent{
		BookID:  book.ID,
		ISBN:    book.ISBN,
		Title:   book.Title,
		AddedBy: sess.User.Username,
	})

	dto := ToBookDTO(book)
	return &dto, nil
}

// RemoveBookUseCase 删除图书
type RemoveBookUseCase struct {
	svc    library.Service
	events events
}

func NewRemoveBookUseCase(svc library.Service, pub EventPublisher, log *zap.Logger) *RemoveBookUseCase {
	return &RemoveBookUseCase{svc: svc, events: events{pub: pub, log: log}}
}

func (uc *RemoveBookUseCase) Execute(ctx context.Context, sess library.Session, bookID int) error {
	if err := uc.svc.RemoveBook(ctx, sess, &library.Book{ID: bookID}); err != nil {
		return err
	}
	uc.events.publish(ctx, EventBookRemoved, BookRemovedEvent{BookID: bookID, RemovedBy: sess.User.Username})
	return nil
}

// AddReviewRequest 评分请求
type AddReviewRequest struct {
	BookID int
	Rating int
	Text   string
}

// AddReviewUseCase 评分
type AddReviewUseCase struct {
	svc    library.Service
	events events
}

func NewAddReviewUseCase(svc library.Service, pub EventPublisher, log *zap.Logger) *AddReviewUseCase {
	return &AddReviewUseCase{svc: svc, events: events{pub: pub, log: log}}
}

func (uc *AddReviewUseCase) Execute(ctx context.Context, sess library.Session, req AddReviewRequest) error {
	if err := uc.svc.AddReview(ctx, sess, &library.Book{ID: req.BookID}, req.Rating, req.Text); err != nil {
		return err
	}
	uc.events.publish(ctx, EventReviewAdded, ReviewAddedEvent{
		BookID:   req.BookID,
		Username: sess.User.Username,
		Rating:   req.Rating,
	})
	return nil
}

// AddAuthorRequest Birthdate格式yyyy-MM-dd,可为空
type AddAuthorRequest struct {
	Name      string
	Birthdate string
}

// AddAuthorUseCase 添加作者
type AddAuthorUseCase struct {
	svc library.Service
}

func NewAddAuthorUseCase(svc library.Service) *AddAuthorUseCase {
	return &AddAuthorUseCase{svc: svc}
}

func (uc *AddAuthorUseCase) Execute(ctx context.Context, sess library.Session, req AddAuthorRequest) (*AuthorDTO, error) {
	birthdate, err := ParseDate(req.Birthdate)
	if err != nil {
		return nil, apperrors.WrapCode(apperrors.ErrCodeInvalidParams, err, "出生日期格式应为yyyy-MM-dd")
	}

	author := library.NewAuthor(req.Name, birthdate, nil)
	if err := uc.svc.AddAuthor(ctx, sess, author); err != nil {
		return nil, err
	}
	dto := ToAuthorDTO(author)
	return &dto, nil
}

// AddGenreUseCase 添加类型
type AddGenreUseCase struct {
	svc library.Service
}

func NewAddGenreUseCase(svc library.Service) *AddGenreUseCase {
	return &AddGenreUseCase{svc: svc}
}

func (uc *AddGenreUseCase) Execute(ctx context.Context, name string) (*GenreDTO, error) {
	genre := library.NewGenre(name)
	if err := uc.svc.AddGenre(ctx, genre); err != nil {
		return nil, err
	}
	dto := ToGenreDTO(genre)
	return &dto, nil
}
