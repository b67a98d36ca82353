package library

import (
	"context"
	"strings"
)

// Service 图书目录领域服务
// 设计说明:
// 1. 封装表现层共用的业务规则:搜索输入校验、登录检查、添加者归属
// 2. 只依赖Repository接口,不关心具体存储
// 3. 会话以参数传入,不保存任何调用方状态,可并发使用
type Service interface {
	// Search 按搜索方式查询图书
	// 业务规则:
	// - 查询字符串去除首尾空白后不能为空
	// - 按评分搜索时必须是整数
	Search(ctx context.Context, mode SearchMode, query string) ([]*Book, error)

	// AddBook 添加图书,需要登录,AddedBy取会话用户
	AddBook(ctx context.Context, s Session, book *Book) error

	// AddAuthor 添加作者,需要登录,AddedBy取会话用户
	AddAuthor(ctx context.Context, s Session, author *Author) error

	// AddGenre 添加类型
	AddGenre(ctx context.Context, genre *Genre) error

	// AddReview 为图书评分,需要登录
	AddReview(ctx context.Context, s Session, book *Book, rating int, text string) error

	// RemoveBook 删除图书,需要登录
	RemoveBook(ctx context.Context, s Session, book *Book) error

	// Authors 所有作者
	Authors(ctx context.Context) ([]*Author, error)

	// Genres 所有类型
	Genres(ctx context.Context) ([]*Genre, error)

	// Login 登录,凭据不匹配时返回ErrInvalidCredentials
	Login(ctx context.Context, username, password string) (Session, error)
}

type service struct {
	repo Repository
}

// NewService 创建领域服务
func NewService(repo Repository) Service {
	return &service{repo: repo}
}

// Search 按搜索方式分派到对应的仓储查询
func (s *service) Search(ctx context.Context, mode SearchMode, query string) ([]*Book, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, ErrEmptyQuery
	}

	switch mode {
	case SearchByTitle:
		return s.repo.FindBooksByTitle(ctx, query)
	case SearchByIsbn:
		return s.repo.FindBooksByIsbn(ctx, query)
	case SearchByAuthor:
		return s.repo.FindBooksByAuthor(ctx, query)
	case SearchByGenre:
		return s.repo.FindBooksByGenre(ctx, query)
	case SearchByRating:
		min, err := parseRatingQuery(query)
		if err != nil {
			return nil, err
		}
		return s.repo.FindBooksByRating(ctx, min)
	default:
		return nil, ErrInvalidSearchMode
	}
}

// AddBook 添加图书
func (s *service) AddBook(ctx context.Context, sess Session, book *Book) error {
	if !sess.LoggedIn() {
		return ErrNotLoggedIn
	}
	if strings.TrimSpace(book.Title) == "" {
		return ErrTitleRequired
	}
	book.AddedBy = sess.User
	return s.repo.AddBook(ctx, book)
}

// AddAuthor 添加作者
func (s *service) AddAuthor(ctx context.Context, sess Session, author *Author) error {
	if !sess.LoggedIn() {
		return ErrNotLoggedIn
	}
	if strings.TrimSpace(author.Name) == "" {
		return ErrNameRequired
	}
	author.AddedBy = sess.User
	return s.repo.AddAuthor(ctx, author)
}

// AddGenre 添加类型
func (s *service) AddGenre(ctx context.Context, genre *Genre) error {
	if strings.TrimSpace(genre.Name) == "" {
		return ErrNameRequired
	}
	return s.repo.AddGenre(ctx, genre)
}

// AddReview 评分
// 评分范围在这里先检查一次,不合法的请求不访问存储;各仓储实现仍各自校验
func (s *service) AddReview(ctx context.Context, sess Session, book *Book, rating int, text string) error {
	if !sess.LoggedIn() {
		return ErrNotLoggedIn
	}
	if !ValidRating(rating) {
		return ErrInvalidRating
	}
	return s.repo.AddReview(ctx, book, sess.User, rating, text)
}

// RemoveBook 删除图书
func (s *service) RemoveBook(ctx context.Context, sess Session, book *Book) error {
	if !sess.LoggedIn() {
		return ErrNotLoggedIn
	}
	return s.repo.RemoveBook(ctx, book)
}

func (s *service) Authors(ctx context.Context) ([]*Author, error) {
	return s.repo.GetAllAuthors(ctx)
}

func (s *service) Genres(ctx context.Context) ([]*Genre, error) {
	return s.repo.GetAllGenres(ctx)
}

// Login 登录
func (s *service) Login(ctx context.Context, username, password string) (Session, error) {
	u, err := s.repo.Login(ctx, strings.TrimSpace(username), password)
	if err != nil {
		return Session{}, err
	}
	if u == nil {
		return Session{}, ErrInvalidCredentials
	}
	return NewSession(u), nil
}
