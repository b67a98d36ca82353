// Package memory 内存版图书目录存储
// 预置固定的演示数据,不需要任何外部服务,用于演示和测试表现层
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/samber/lo"

	"github.com/xiebiao/booksdb/internal/domain/library"
	apperrors "github.com/xiebiao/booksdb/pkg/errors"
)

// sequence 自增ID生成器
type sequence struct {
	last atomic.Int64
}

func newSequence(start int) *sequence {
	s := &sequence{}
	s.last.Store(int64(start))
	return s
}

// Next 返回下一个ID,并发调用不会重复
func (s *sequence) Next() int {
	return int(s.last.Add(1))
}

// Repository 内存存储
// 设计说明:
// 1. 读写锁保护全部状态,可被多个goroutine并发调用
// 2. 入参和返回值都是深拷贝,调用方修改实体不会影响存储内部状态
// 3. Login对预置用户接受任意密码(仅限演示,真实存储不这样做)
type Repository struct {
	mu        sync.RWMutex
	connected bool

	books   []*library.Book // 按ID升序
	authors []*library.Author
	genres  []*library.Genre
	users   []*library.User

	bookSeq   *sequence
	authorSeq *sequence
	genreSeq  *sequence
}

// NewRepository 创建预置演示数据的内存存储
func NewRepository() *Repository {
	r := &Repository{}
	r.seed()
	return r
}

func (r *Repository) seed() {
	admin := library.NewUser(1, "admin")
	r.users = []*library.User{admin}

	rowling := &library.Author{ID: 1, Name: "J.K. Rowling"}
	tolkien := &library.Author{ID: 2, Name: "J.R.R. Tolkien"}
	martin := &library.Author{ID: 3, Name: "George R.R. Martin"}
	r.authors = []*library.Author{rowling, tolkien, martin}

	fantasy := &library.Genre{ID: 1, Name: "Fantasy"}
	adventure := &library.Genre{ID: 2, Name: "Adventure"}
	drama := &library.Genre{ID: 3, Name: "Drama"}
	r.genres = []*library.Genre{fantasy, adventure, drama}

	data := []struct {
		isbn, title, publisher string
	}{
		{"123456789", "Databases Illuminated", "Cathy Ricardo"},
		{"234567891", "Dark Databases", "Someone"},
		{"456789012", "The buried giant", "Kazuo Ishiguro"},
		{"567890123", "Never let me go", "Kazuo Ishiguro"},
		{"678901234", "The remains of the day", "Kazuo Ishiguro"},
		{"234567890", "Alias Grace", "Margaret Atwood"},
		{"345678911", "The handmaids tale", "Margaret Atwood"},
		{"345678901", "Shuggie Bain", "Douglas Stuart"},
		{"345678912", "Microserfs", "Douglas Coupland"},
	}
	for i, d := range data {
		b := library.NewBook(d.isbn, d.title, d.publisher, nil)
		b.ID = i + 1
		switch i {
		case 0:
			b.AddAuthor(rowling.Clone())
			b.AddGenre(fantasy.Clone())
		case 1:
			b.AddAuthor(tolkien.Clone())
			b.AddGenre(adventure.Clone())
		default:
			b.AddAuthor(martin.Clone())
			b.AddGenre(drama.Clone())
		}
		r.books = append(r.books, b)
	}

	r.bookSeq = newSequence(len(r.books))
	r.authorSeq = newSequence(len(r.authors))
	r.genreSeq = newSequence(len(r.genres))
}

// =========================================
// 连接管理
// =========================================

// Connect 内存存储无需连接,只记录状态
func (r *Repository) Connect(_ context.Context, _ string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.connected = true
	return nil
}

// Disconnect 断开
func (r *Repository) Disconnect(_ context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.connected = false
	return nil
}

// ready 检查上下文和连接状态,调用方必须持有锁
func (r *Repository) ready(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !r.connected {
		return library.ErrNotConnected
	}
	return nil
}

// =========================================
// 查询
// =========================================

// Login 预置用户名匹配(不区分大小写)即登录成功,不校验密码
func (r *Repository) Login(ctx context.Context, username, _ string) (*library.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if err := r.ready(ctx); err != nil {
		return nil, apperrors.Connectionf(err, "登录失败: %s", username)
	}

	u, ok := lo.Find(r.users, func(u *library.User) bool {
		return strings.EqualFold(u.Username, strings.TrimSpace(username))
	})
	if !ok {
		return nil, nil
	}
	return u.Clone(), nil
}

// FindBooksByTitle 书名包含子串
func (r *Repository) FindBooksByTitle(ctx context.Context, title string) ([]*library.Book, error) {
	needle := strings.ToLower(strings.TrimSpace(title))
	return r.filter(ctx, "按书名查询图书失败: "+title, func(b *library.Book) bool {
		return strings.Contains(strings.ToLower(b.Title), needle)
	})
}

// FindBooksByIsbn ISBN精确匹配
func (r *Repository) FindBooksByIsbn(ctx context.Context, isbn string) ([]*library.Book, error) {
	needle := strings.TrimSpace(isbn)
	return r.filter(ctx, "按ISBN查询图书失败: "+isbn, func(b *library.Book) bool {
		return strings.EqualFold(b.ISBN, needle)
	})
}

// FindBooksByAuthor 任一作者姓名包含子串
func (r *Repository) FindBooksByAuthor(ctx context.Context, name string) ([]*library.Book, error) {
	needle := strings.ToLower(strings.TrimSpace(name))
	return r.filter(ctx, "按作者查询图书失败: "+name, func(b *library.Book) bool {
		return lo.ContainsBy(b.Authors, func(a *library.Author) bool {
			return strings.Contains(strings.ToLower(a.Name), needle)
		})
	})
}

// FindBooksByGenre 任一类型名称精确匹配
func (r *Repository) FindBooksByGenre(ctx context.Context, genre string) ([]*library.Book, error) {
	needle := strings.TrimSpace(genre)
	return r.filter(ctx, "按类型查询图书失败: "+genre, func(b *library.Book) bool {
		return lo.ContainsBy(b.Genres, func(g *library.Genre) bool {
			return strings.EqualFold(g.Name, needle)
		})
	})
}

// FindBooksByRating 派生评分 >= min
func (r *Repository) FindBooksByRating(ctx context.Context, min float64) ([]*library.Book, error) {
	return r.filter(ctx, "按评分查询图书失败", func(b *library.Book) bool {
		return b.Rating() >= min
	})
}

func (r *Repository) filter(ctx context.Context, op string, match func(*library.Book) bool) ([]*library.Book, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if err := r.ready(ctx); err != nil {
		return nil, apperrors.Connection(err, op)
	}

	result := make([]*library.Book, 0)
	for _, b := range r.books {
		if match(b) {
			result = append(result, b.Clone())
		}
	}
	return result, nil
}

// GetAllAuthors 所有作者,按姓名升序
func (r *Repository) GetAllAuthors(ctx context.Context) ([]*library.Author, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if err := r.ready(ctx); err != nil {
		return nil, apperrors.Connection(err, "查询作者列表失败")
	}

	result := lo.Map(r.authors, func(a *library.Author, _ int) *library.Author { return a.Clone() })
	sort.SliceStable(result, func(i, j int) bool { return byName(result[i].Name, result[j].Name) })
	return result, nil
}

// byName 名称排序不区分大小写,与MySQL默认排序规则一致
func byName(a, b string) bool {
	return strings.ToLower(a) < strings.ToLower(b)
}

// GetAllGenres 所有类型,按名称升序
func (r *Repository) GetAllGenres(ctx context.Context) ([]*library.Genre, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if err := r.ready(ctx); err != nil {
		return nil, apperrors.Connection(err, "查询类型列表失败")
	}

	result := lo.Map(r.genres, func(g *library.Genre, _ int) *library.Genre { return g.Clone() })
	sort.SliceStable(result, func(i, j int) bool { return byName(result[i].Name, result[j].Name) })
	return result, nil
}

// =========================================
// 写入
// =========================================

// AddBook 保存图书副本并回写新ID
func (r *Repository) AddBook(ctx context.Context, book *library.Book) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.ready(ctx); err != nil {
		return apperrors.Connectionf(err, "添加图书失败: %s", book.Title)
	}
	if book.HasUnsavedRefs() {
		return apperrors.Insertf(library.ErrUnsavedReference, "添加图书失败: %s", book.Title)
	}

	// 作者、类型、添加者按ID取存储中的记录,不存在的引用丢弃,与关系型存储JOIN装配的结果一致
	stored := library.NewBook(book.ISBN, book.Title, book.Publisher, r.userByID(book.AddedBy))
	for _, a := range book.Authors {
		if found, ok := lo.Find(r.authors, func(x *library.Author) bool { return x.ID == a.ID }); ok {
			stored.AddAuthor(found.Clone())
		}
	}
	for _, g := range book.Genres {
		if found, ok := lo.Find(r.genres, func(x *library.Genre) bool { return x.ID == g.ID }); ok {
			stored.AddGenre(found.Clone())
		}
	}
	stored.ID = r.bookSeq.Next()
	r.books = append(r.books, stored)

	book.ID = stored.ID
	return nil
}

// userByID 存储中的用户副本,未知用户返回nil
func (r *Repository) userByID(u *library.User) *library.User {
	if u == nil {
		return nil
	}
	found, ok := lo.Find(r.users, func(x *library.User) bool { return x.ID == u.ID })
	if !ok {
		return nil
	}
	return found.Clone()
}

// AddAuthor 保存作者副本并回写新ID
func (r *Repository) AddAuthor(ctx context.Context, author *library.Author) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.ready(ctx); err != nil {
		return apperrors.Connectionf(err, "添加作者失败: %s", author.Name)
	}

	stored := author.Clone()
	stored.ID = r.authorSeq.Next()
	r.authors = append(r.authors, stored)

	author.ID = stored.ID
	return nil
}

// AddGenre 保存类型副本并回写新ID
// 类型名称唯一(不区分大小写),与关系型存储的唯一索引保持一致
func (r *Repository) AddGenre(ctx context.Context, genre *library.Genre) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.ready(ctx); err != nil {
		return apperrors.Connectionf(err, "添加类型失败: %s", genre.Name)
	}

	if lo.ContainsBy(r.genres, func(g *library.Genre) bool { return strings.EqualFold(g.Name, genre.Name) }) {
		return apperrors.Insertf(library.ErrDuplicate, "添加类型失败: %s", genre.Name)
	}

	stored := genre.Clone()
	stored.ID = r.genreSeq.Next()
	r.genres = append(r.genres, stored)

	genre.ID = stored.ID
	return nil
}

// AddReview 添加书评(当前日期)
func (r *Repository) AddReview(ctx context.Context, book *library.Book, user *library.User, rating int, text string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.ready(ctx); err != nil {
		return apperrors.Connectionf(err, "添加书评失败: book=%d", book.ID)
	}
	if !library.ValidRating(rating) {
		return apperrors.Insertf(library.ErrInvalidRating, "添加书评失败: rating=%d", rating)
	}
	if user == nil {
		return apperrors.Insertf(library.ErrNotLoggedIn, "添加书评失败: book=%d", book.ID)
	}

	stored, ok := lo.Find(r.books, func(b *library.Book) bool { return b.ID == book.ID })
	if !ok {
		return apperrors.Insertf(library.ErrBookNotFound, "添加书评失败: book=%d", book.ID)
	}

	stored.Reviews = append(stored.Reviews, &library.Review{
		BookID: stored.ID,
		User:   user.Clone(),
		Rating: rating,
		Text:   text,
		Date:   library.Today(),
	})
	return nil
}

// =========================================
// 删除
// =========================================

// RemoveBook 按ID删除
func (r *Repository) RemoveBook(ctx context.Context, book *library.Book) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.ready(ctx); err != nil {
		return apperrors.Connectionf(err, "删除图书失败: id=%d", book.ID)
	}

	_, idx, ok := lo.FindIndexOf(r.books, func(b *library.Book) bool { return b.ID == book.ID })
	if !ok {
		return apperrors.Deletef(library.ErrBookNotFound, "删除图书失败: id=%d", book.ID)
	}
	r.books = append(r.books[:idx], r.books[idx+1:]...)
	return nil
}
