package mysql

import (
	"context"
	"sync"
	"time"

	sq "github.com/Masterminds/squirrel"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/xiebiao/booksdb/internal/domain/library"
	apperrors "github.com/xiebiao/booksdb/pkg/errors"
)

// Option 仓储选项
type Option func(*options)

type options struct {
	defaultDSN      string
	dialector       func(dsn string) (gorm.Dialector, error)
	maxOpenConns    int
	maxIdleConns    int
	connMaxLifetime time.Duration
	sqlLog          bool
	log             *zap.Logger
}

// WithDialector 替换数据库方言(测试中使用sqlite.Open)
func WithDialector(open func(dsn string) gorm.Dialector) Option {
	return func(o *options) {
		o.dialector = func(dsn string) (gorm.Dialector, error) { return open(dsn), nil }
	}
}

// WithPool 连接池参数,0表示使用database/sql默认值
func WithPool(maxOpen, maxIdle int, maxLifetime time.Duration) Option {
	return func(o *options) {
		o.maxOpenConns = maxOpen
		o.maxIdleConns = maxIdle
		o.connMaxLifetime = maxLifetime
	}
}

// WithSQLLog 打印SQL(开发环境)
func WithSQLLog(on bool) Option {
	return func(o *options) { o.sqlLog = on }
}

// WithLogger 设置日志
func WithLogger(l *zap.Logger) Option {
	return func(o *options) { o.log = l }
}

// Repository 图书目录仓储实现(MySQL)
// 设计说明:
// 1. 实现domain/library/repository.go定义的契约
// 2. 负责领域实体与GORM模型之间的转换,搜索结果逐本装配作者、类型和书评
//    (每本书3次额外查询,结果集很大时成本线性增长)
// 3. 数据库错误统一转换为连接/查询/写入/删除四类错误
// 4. 连接由连接池管理,Repository可被多个goroutine并发使用
type Repository struct {
	mu   sync.RWMutex
	db   *gorm.DB
	tx   *TxManager
	opts options
}

// NewRepository 创建仓储,defaultDSN在Connect的locator为空时使用
func NewRepository(defaultDSN string, opts ...Option) *Repository {
	o := options{
		defaultDSN: defaultDSN,
		dialector:  mysqlDialector,
		log:        zap.NewNop(),
	}
	for _, opt := range opts {
		opt(&o)
	}
	return &Repository{opts: o}
}

// =========================================
// 连接管理
// =========================================

// Connect 连接数据库并迁移表结构,已连接时直接返回
func (r *Repository) Connect(ctx context.Context, locator string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.db != nil {
		return nil
	}

	dsn := locator
	if dsn == "" {
		dsn = r.opts.defaultDSN
	}

	dialector, err := r.opts.dialector(dsn)
	if err != nil {
		return apperrors.Connection(err, "连接数据库失败")
	}

	db, err := openDB(ctx, dialector, r.opts)
	if err != nil {
		return apperrors.Connection(err, "连接数据库失败")
	}

	r.db = db
	r.tx = NewTxManager(db)
	r.opts.log.Info("数据库连接成功", zap.String("dialect", dialector.Name()))
	return nil
}

// Disconnect 关闭连接池,未连接时直接返回
func (r *Repository) Disconnect(_ context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.db == nil {
		return nil
	}

	sqlDB, err := r.db.DB()
	r.db, r.tx = nil, nil
	if err != nil {
		return apperrors.Connection(err, "断开数据库失败")
	}
	if err := sqlDB.Close(); err != nil {
		return apperrors.Connection(err, "断开数据库失败")
	}

	r.opts.log.Info("数据库连接已关闭")
	return nil
}

// session 返回事务管理器,未连接时返回ErrNotConnected
func (r *Repository) session() (*TxManager, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.tx == nil {
		return nil, library.ErrNotConnected
	}
	return r.tx, nil
}

// =========================================
// 查询
// =========================================

// Login 用户名和密码都匹配时返回用户,否则返回nil
func (r *Repository) Login(ctx context.Context, username, password string) (*library.User, error) {
	tm, err := r.session()
	if err != nil {
		return nil, apperrors.Connectionf(err, "登录失败: %s", username)
	}

	var model UserModel
	res := tm.DB(ctx).
		Where("username = ? AND password = ?", username, password).
		Limit(1).
		Find(&model)
	if res.Error != nil {
		return nil, apperrors.Selectf(res.Error, "登录失败: %s", username)
	}
	if res.RowsAffected == 0 {
		return nil, nil
	}
	return library.NewUser(model.ID, model.Username), nil
}

// FindBooksByTitle 书名包含子串
func (r *Repository) FindBooksByTitle(ctx context.Context, title string) ([]*library.Book, error) {
	return r.findBooks(ctx, "按书名查询图书失败: "+title, titleLike(trim(title)))
}

// FindBooksByIsbn ISBN精确匹配
func (r *Repository) FindBooksByIsbn(ctx context.Context, isbn string) ([]*library.Book, error) {
	return r.findBooks(ctx, "按ISBN查询图书失败: "+isbn, isbnEquals(trim(isbn)))
}

// FindBooksByAuthor 任一作者姓名包含子串
func (r *Repository) FindBooksByAuthor(ctx context.Context, name string) ([]*library.Book, error) {
	return r.findBooks(ctx, "按作者查询图书失败: "+name, authorLike(trim(name)))
}

// FindBooksByGenre 任一类型名称精确匹配
func (r *Repository) FindBooksByGenre(ctx context.Context, genre string) ([]*library.Book, error) {
	return r.findBooks(ctx, "按类型查询图书失败: "+genre, genreEquals(trim(genre)))
}

// FindBooksByRating 平均评分 >= min
func (r *Repository) FindBooksByRating(ctx context.Context, min float64) ([]*library.Book, error) {
	return r.findBooks(ctx, "按评分查询图书失败", ratingAtLeast(min))
}

// findBooks 执行基础查询 + 谓词,然后逐本装配
func (r *Repository) findBooks(ctx context.Context, op string, pred sq.Sqlizer) ([]*library.Book, error) {
	tm, err := r.session()
	if err != nil {
		return nil, apperrors.Connection(err, op)
	}
	db := tm.DB(ctx)

	var rows []bookRow
	if err := scan(db, bookQuery().Where(pred), &rows); err != nil {
		return nil, apperrors.Select(err, op)
	}

	books := make([]*library.Book, 0, len(rows))
	for _, row := range rows {
		b, err := hydrate(db, row)
		if err != nil {
			return nil, apperrors.Select(err, op)
		}
		books = append(books, b)
	}
	return books, nil
}

// GetAllAuthors 全部作者,按姓名升序
func (r *Repository) GetAllAuthors(ctx context.Context) ([]*library.Author, error) {
	const op = "查询作者列表失败"
	tm, err := r.session()
	if err != nil {
		return nil, apperrors.Connection(err, op)
	}

	var rows []authorRow
	if err := scan(tm.DB(ctx), allAuthors(), &rows); err != nil {
		return nil, apperrors.Select(err, op)
	}
	return toAuthors(rows), nil
}

// GetAllGenres 全部类型,按名称升序
func (r *Repository) GetAllGenres(ctx context.Context) ([]*library.Genre, error) {
	const op = "查询类型列表失败"
	tm, err := r.session()
	if err != nil {
		return nil, apperrors.Connection(err, op)
	}

	var models []GenreModel
	if err := tm.DB(ctx).Order("name").Order("id").Find(&models).Error; err != nil {
		return nil, apperrors.Select(err, op)
	}

	genres := make([]*library.Genre, 0, len(models))
	for _, m := range models {
		genres = append(genres, &library.Genre{ID: m.ID, Name: m.Name})
	}
	return genres, nil
}

// =========================================
// 写入
// =========================================

// AddBook 在一个事务中写入图书和作者/类型关联
// 任一步失败整体回滚,调用方实体的ID保持不变
func (r *Repository) AddBook(ctx context.Context, book *library.Book) error {
	tm, err := r.session()
	if err != nil {
		return apperrors.Connectionf(err, "添加图书失败: %s", book.Title)
	}
	if book.HasUnsavedRefs() {
		return apperrors.Insertf(library.ErrUnsavedReference, "添加图书失败: %s", book.Title)
	}

	var id int
	err = tm.Transaction(ctx, func(ctx context.Context) error {
		db := tm.DB(ctx)

		// 1. 图书
		model := BookModel{
			ISBN:      book.ISBN,
			Title:     book.Title,
			Publisher: book.Publisher,
			AddedBy:   userID(book.AddedBy),
		}
		if err := db.Create(&model).Error; err != nil {
			return err
		}

		// 2. 作者关联(保持顺序)
		if len(book.Authors) > 0 {
			links := make([]BookAuthorModel, 0, len(book.Authors))
			for i, a := range book.Authors {
				links = append(links, BookAuthorModel{BookID: model.ID, AuthorID: a.ID, Position: i})
			}
			if err := db.Create(&links).Error; err != nil {
				return err
			}
		}

		// 3. 类型关联
		if len(book.Genres) > 0 {
			links := make([]BookGenreModel, 0, len(book.Genres))
			for i, g := range book.Genres {
				links = append(links, BookGenreModel{BookID: model.ID, GenreID: g.ID, Position: i})
			}
			if err := db.Create(&links).Error; err != nil {
				return err
			}
		}

		id = model.ID
		return nil
	})
	if err != nil {
		if isDuplicateError(err) {
			return apperrors.Insertf(library.ErrDuplicate, "添加图书失败: %s", book.Title)
		}
		return apperrors.Insertf(err, "添加图书失败: %s", book.Title)
	}

	// 回填自增ID
	book.ID = id
	return nil
}

// AddAuthor 写入作者并回填ID
func (r *Repository) AddAuthor(ctx context.Context, author *library.Author) error {
	tm, err := r.session()
	if err != nil {
		return apperrors.Connectionf(err, "添加作者失败: %s", author.Name)
	}

	model := AuthorModel{
		Name:      author.Name,
		Birthdate: author.Birthdate,
		AddedBy:   userID(author.AddedBy),
	}
	if err := tm.DB(ctx).Create(&model).Error; err != nil {
		if isDuplicateError(err) {
			return apperrors.Insertf(library.ErrDuplicate, "添加作者失败: %s", author.Name)
		}
		return apperrors.Insertf(err, "添加作者失败: %s", author.Name)
	}

	author.ID = model.ID
	return nil
}

// AddGenre 写入类型并回填ID,名称重复时返回ErrDuplicate
func (r *Repository) AddGenre(ctx context.Context, genre *library.Genre) error {
	tm, err := r.session()
	if err != nil {
		return apperrors.Connectionf(err, "添加类型失败: %s", genre.Name)
	}

	model := GenreModel{Name: genre.Name}
	if err := tm.DB(ctx).Create(&model).Error; err != nil {
		if isDuplicateError(err) {
			return apperrors.Insertf(library.ErrDuplicate, "添加类型失败: %s", genre.Name)
		}
		return apperrors.Insertf(err, "添加类型失败: %s", genre.Name)
	}

	genre.ID = model.ID
	return nil
}

// AddReview 以当前日期写入书评
func (r *Repository) AddReview(ctx context.Context, book *library.Book, user *library.User, rating int, text string) error {
	tm, err := r.session()
	if err != nil {
		return apperrors.Connectionf(err, "添加书评失败: book=%d", book.ID)
	}
	if !library.ValidRating(rating) {
		return apperrors.Insertf(library.ErrInvalidRating, "添加书评失败: rating=%d", rating)
	}
	if user == nil {
		return apperrors.Insertf(library.ErrNotLoggedIn, "添加书评失败: book=%d", book.ID)
	}

	db := tm.DB(ctx)

	var count int64
	if err := db.Model(&BookModel{}).Where("id = ?", book.ID).Count(&count).Error; err != nil {
		return apperrors.Insertf(err, "添加书评失败: book=%d", book.ID)
	}
	if count == 0 {
		return apperrors.Insertf(library.ErrBookNotFound, "添加书评失败: book=%d", book.ID)
	}

	model := ReviewModel{
		BookID:     book.ID,
		UserID:     user.ID,
		Rating:     rating,
		ReviewText: nullableText(text),
		ReviewDate: library.Today(),
	}
	if err := db.Create(&model).Error; err != nil {
		return apperrors.Insertf(err, "添加书评失败: book=%d", book.ID)
	}
	return nil
}

// =========================================
// 删除
// =========================================

// RemoveBook 在一个事务中删除关联、书评和图书
// 图书不存在时回滚并返回包装ErrBookNotFound的删除错误
func (r *Repository) RemoveBook(ctx context.Context, book *library.Book) error {
	tm, err := r.session()
	if err != nil {
		return apperrors.Connectionf(err, "删除图书失败: id=%d", book.ID)
	}

	err = tm.Transaction(ctx, func(ctx context.Context) error {
		db := tm.DB(ctx)

		if err := db.Where("book_id = ?", book.ID).Delete(&BookAuthorModel{}).Error; err != nil {
			return err
		}
		if err := db.Where("book_id = ?", book.ID).Delete(&BookGenreModel{}).Error; err != nil {
			return err
		}
		if err := db.Where("book_id = ?", book.ID).Delete(&ReviewModel{}).Error; err != nil {
			return err
		}

		res := db.Delete(&BookModel{}, book.ID)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return library.ErrBookNotFound
		}
		return nil
	})
	if err != nil {
		return apperrors.Deletef(err, "删除图书失败: id=%d", book.ID)
	}
	return nil
}
