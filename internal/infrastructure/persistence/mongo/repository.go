// Package mongo 图书目录的MongoDB实现
package mongo

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/samber/lo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"

	"github.com/xiebiao/booksdb/internal/domain/library"
	apperrors "github.com/xiebiao/booksdb/pkg/errors"
)

// DefaultDatabase 默认数据库名
const DefaultDatabase = "library_db"

// Option 仓储选项
type Option func(*config)

type config struct {
	defaultURI     string
	database       string
	connectTimeout time.Duration
	maxPoolSize    uint64
	client         *mongo.Client
	log            *zap.Logger
}

// WithDatabase 数据库名
func WithDatabase(name string) Option {
	return func(c *config) { c.database = name }
}

// WithConnectTimeout 连接超时
func WithConnectTimeout(d time.Duration) Option {
	return func(c *config) { c.connectTimeout = d }
}

// WithMaxPoolSize 连接池大小
func WithMaxPoolSize(n uint64) Option {
	return func(c *config) { c.maxPoolSize = n }
}

// WithClient 使用已有的客户端(不再拨号,也不负责断开)
func WithClient(client *mongo.Client) Option {
	return func(c *config) { c.client = client }
}

// WithLogger 设置日志
func WithLogger(l *zap.Logger) Option {
	return func(c *config) { c.log = l }
}

// Repository 图书目录仓储实现(MongoDB)
// 设计说明:
// 1. 集合:books / authors / genres / users / counters
// 2. ID是整数,由counters集合的原子自增生成,与关系型实现保持一致
// 3. 每本书装配时按引用批量查询作者、类型和用户,并按引用顺序重排
// 4. 按评分搜索在内存中过滤(需要读取全部图书),数据量大时成本线性增长
type Repository struct {
	mu     sync.RWMutex
	client *mongo.Client
	db     *mongo.Database
	seq    counterSequence
	owned  bool // client由Connect创建,Disconnect时需要断开
	cfg    config
}

// NewRepository 创建仓储,defaultURI在Connect的locator为空时使用
func NewRepository(defaultURI string, opts ...Option) *Repository {
	c := config{
		defaultURI:     defaultURI,
		database:       DefaultDatabase,
		connectTimeout: 10 * time.Second,
		log:            zap.NewNop(),
	}
	for _, opt := range opts {
		opt(&c)
	}
	return &Repository{cfg: c}
}

// =========================================
// 连接管理
// =========================================

// Connect 连接MongoDB,已连接时直接返回
func (r *Repository) Connect(ctx context.Context, locator string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.db != nil {
		return nil
	}

	if r.cfg.client != nil {
		r.attach(r.cfg.client, false)
		return nil
	}

	uri := locator
	if uri == "" {
		uri = r.cfg.defaultURI
	}

	clientOpts := options.Client().
		ApplyURI(uri).
		SetConnectTimeout(r.cfg.connectTimeout)
	if r.cfg.maxPoolSize > 0 {
		clientOpts.SetMaxPoolSize(r.cfg.maxPoolSize)
	}

	client, err := mongo.Connect(ctx, clientOpts)
	if err != nil {
		return apperrors.Connection(err, "连接MongoDB失败")
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return apperrors.Connection(err, "连接MongoDB失败")
	}

	r.attach(client, true)
	if err := ensureIndexes(ctx, r.db); err != nil {
		r.cfg.log.Warn("创建索引失败", zap.Error(err))
	}

	r.cfg.log.Info("MongoDB连接成功", zap.String("database", r.cfg.database))
	return nil
}

func (r *Repository) attach(client *mongo.Client, owned bool) {
	r.client = client
	r.db = client.Database(r.cfg.database)
	r.seq = newCounterSequence(r.db)
	r.owned = owned
}

// Disconnect 断开连接,未连接时直接返回
func (r *Repository) Disconnect(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.db == nil {
		return nil
	}

	client, owned := r.client, r.owned
	r.client, r.db, r.owned = nil, nil, false
	if !owned {
		return nil
	}
	if err := client.Disconnect(ctx); err != nil {
		return apperrors.Connection(err, "断开MongoDB失败")
	}
	r.cfg.log.Info("MongoDB连接已关闭")
	return nil
}

// database 返回当前数据库,未连接时返回ErrNotConnected
func (r *Repository) database() (*mongo.Database, counterSequence, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.db == nil {
		return nil, counterSequence{}, library.ErrNotConnected
	}
	return r.db, r.seq, nil
}

// ensureIndexes 用户名和类型名唯一
func ensureIndexes(ctx context.Context, db *mongo.Database) error {
	unique := options.Index().SetUnique(true)
	if _, err := db.Collection(collUsers).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "username", Value: 1}}, Options: unique,
	}); err != nil {
		return err
	}
	_, err := db.Collection(collGenres).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "name", Value: 1}}, Options: unique,
	})
	return err
}

// fail 把驱动错误归类:网络错误和服务端超时属于连接错误,其余属于操作本身的类别
// 调用方ctx取消或到期不算连接错误
func fail(kind func(error, string) *apperrors.AppError, err error, format string, args ...interface{}) error {
	msg := fmt.Sprintf(format, args...)
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return kind(err, msg)
	}
	if mongo.IsNetworkError(err) || mongo.IsTimeout(err) {
		return apperrors.Connection(err, msg)
	}
	return kind(err, msg)
}

// =========================================
// 查询
// =========================================

// Login 用户名和密码都匹配时返回用户,否则返回nil
func (r *Repository) Login(ctx context.Context, username, password string) (*library.User, error) {
	db, _, err := r.database()
	if err != nil {
		return nil, apperrors.Connectionf(err, "登录失败: %s", username)
	}

	var u userDoc
	err = db.Collection(collUsers).
		FindOne(ctx, bson.M{"username": username, "password": password}).
		Decode(&u)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fail(apperrors.Select, err, "登录失败: %s", username)
	}
	return library.NewUser(u.ID, u.Username), nil
}

// FindBooksByTitle 书名包含子串(正则转义后不区分大小写匹配)
func (r *Repository) FindBooksByTitle(ctx context.Context, title string) ([]*library.Book, error) {
	op := "按书名查询图书失败: " + title
	db, _, err := r.database()
	if err != nil {
		return nil, apperrors.Connection(err, op)
	}
	return r.findBooks(ctx, db, op, bson.M{"title": contains(title)})
}

// FindBooksByIsbn ISBN精确匹配(不区分大小写)
func (r *Repository) FindBooksByIsbn(ctx context.Context, isbn string) ([]*library.Book, error) {
	op := "按ISBN查询图书失败: " + isbn
	db, _, err := r.database()
	if err != nil {
		return nil, apperrors.Connection(err, op)
	}
	return r.findBooks(ctx, db, op, bson.M{"isbn": equalsFold(isbn)})
}

// FindBooksByAuthor 先查匹配的作者ID,再查引用了这些作者的图书
func (r *Repository) FindBooksByAuthor(ctx context.Context, name string) ([]*library.Book, error) {
	op := "按作者查询图书失败: " + name
	db, _, err := r.database()
	if err != nil {
		return nil, apperrors.Connection(err, op)
	}

	ids, err := matchingIDs(ctx, db.Collection(collAuthors), bson.M{"name": contains(name)})
	if err != nil {
		return nil, fail(apperrors.Select, err, "%s", op)
	}
	if len(ids) == 0 {
		return []*library.Book{}, nil
	}
	return r.findBooks(ctx, db, op, bson.M{"author_ids": bson.M{"$in": ids}})
}

// FindBooksByGenre 先查名称匹配的类型ID,再查引用了这些类型的图书
func (r *Repository) FindBooksByGenre(ctx context.Context, genre string) ([]*library.Book, error) {
	op := "按类型查询图书失败: " + genre
	db, _, err := r.database()
	if err != nil {
		return nil, apperrors.Connection(err, op)
	}

	ids, err := matchingIDs(ctx, db.Collection(collGenres), bson.M{"name": equalsFold(genre)})
	if err != nil {
		return nil, fail(apperrors.Select, err, "%s", op)
	}
	if len(ids) == 0 {
		return []*library.Book{}, nil
	}
	return r.findBooks(ctx, db, op, bson.M{"genre_ids": bson.M{"$in": ids}})
}

// FindBooksByRating 读取全部图书,在内存中按派生评分过滤
func (r *Repository) FindBooksByRating(ctx context.Context, min float64) ([]*library.Book, error) {
	const op = "按评分查询图书失败"
	db, _, err := r.database()
	if err != nil {
		return nil, apperrors.Connection(err, op)
	}

	docs, err := findBookDocs(ctx, db, bson.M{})
	if err != nil {
		return nil, fail(apperrors.Select, err, op)
	}
	docs = lo.Filter(docs, func(d bookDoc, _ int) bool { return d.rating() >= min })
	return r.hydrateAll(ctx, db, op, docs)
}

func (r *Repository) findBooks(ctx context.Context, db *mongo.Database, op string, filter bson.M) ([]*library.Book, error) {
	docs, err := findBookDocs(ctx, db, filter)
	if err != nil {
		return nil, fail(apperrors.Select, err, "%s", op)
	}
	return r.hydrateAll(ctx, db, op, docs)
}

func (r *Repository) hydrateAll(ctx context.Context, db *mongo.Database, op string, docs []bookDoc) ([]*library.Book, error) {
	books := make([]*library.Book, 0, len(docs))
	for _, d := range docs {
		b, err := hydrate(ctx, db, d)
		if err != nil {
			return nil, fail(apperrors.Select, err, "%s", op)
		}
		books = append(books, b)
	}
	return books, nil
}

// GetAllAuthors 全部作者,按姓名升序
func (r *Repository) GetAllAuthors(ctx context.Context) ([]*library.Author, error) {
	const op = "查询作者列表失败"
	db, _, err := r.database()
	if err != nil {
		return nil, apperrors.Connection(err, op)
	}

	var docs []authorDoc
	if err := findAll(ctx, db.Collection(collAuthors), bson.M{}, byName(), &docs); err != nil {
		return nil, fail(apperrors.Select, err, op)
	}

	userIDs := lo.FilterMap(docs, func(d authorDoc, _ int) (int, bool) {
		if d.AddedBy == nil {
			return 0, false
		}
		return *d.AddedBy, true
	})
	users, err := lookupUsers(ctx, db, userIDs)
	if err != nil {
		return nil, fail(apperrors.Select, err, op)
	}

	return lo.Map(docs, func(d authorDoc, _ int) *library.Author { return toAuthor(d, users) }), nil
}

// GetAllGenres 全部类型,按名称升序
func (r *Repository) GetAllGenres(ctx context.Context) ([]*library.Genre, error) {
	const op = "查询类型列表失败"
	db, _, err := r.database()
	if err != nil {
		return nil, apperrors.Connection(err, op)
	}

	var docs []genreDoc
	if err := findAll(ctx, db.Collection(collGenres), bson.M{}, byName(), &docs); err != nil {
		return nil, fail(apperrors.Select, err, op)
	}
	return lo.Map(docs, func(d genreDoc, _ int) *library.Genre {
		return &library.Genre{ID: d.ID, Name: d.Name}
	}), nil
}

// =========================================
// 写入
// =========================================

// AddBook 分配ID后写入一个文档(单文档写入是原子的),成功后回写ID
func (r *Repository) AddBook(ctx context.Context, book *library.Book) error {
	db, seq, err := r.database()
	if err != nil {
		return apperrors.Connectionf(err, "添加图书失败: %s", book.Title)
	}
	if book.HasUnsavedRefs() {
		return apperrors.Insertf(library.ErrUnsavedReference, "添加图书失败: %s", book.Title)
	}

	id, err := seq.Next(ctx, collBooks)
	if err != nil {
		return fail(apperrors.Insert, err, "添加图书失败: %s", book.Title)
	}

	if _, err := db.Collection(collBooks).InsertOne(ctx, newBookDoc(id, book)); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return apperrors.Insertf(library.ErrDuplicate, "添加图书失败: %s", book.Title)
		}
		return fail(apperrors.Insert, err, "添加图书失败: %s", book.Title)
	}

	book.ID = id
	return nil
}

// AddAuthor 分配ID后写入作者
func (r *Repository) AddAuthor(ctx context.Context, author *library.Author) error {
	db, seq, err := r.database()
	if err != nil {
		return apperrors.Connectionf(err, "添加作者失败: %s", author.Name)
	}

	id, err := seq.Next(ctx, collAuthors)
	if err != nil {
		return fail(apperrors.Insert, err, "添加作者失败: %s", author.Name)
	}

	doc := authorDoc{ID: id, Name: author.Name, Birthdate: author.Birthdate, AddedBy: userID(author.AddedBy)}
	if _, err := db.Collection(collAuthors).InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return apperrors.Insertf(library.ErrDuplicate, "添加作者失败: %s", author.Name)
		}
		return fail(apperrors.Insert, err, "添加作者失败: %s", author.Name)
	}

	author.ID = id
	return nil
}

// AddGenre 分配ID后写入类型,名称重复时返回ErrDuplicate
func (r *Repository) AddGenre(ctx context.Context, genre *library.Genre) error {
	db, seq, err := r.database()
	if err != nil {
		return apperrors.Connectionf(err, "添加类型失败: %s", genre.Name)
	}

	id, err := seq.Next(ctx, collGenres)
	if err != nil {
		return fail(apperrors.Insert, err, "添加类型失败: %s", genre.Name)
	}

	if _, err := db.Collection(collGenres).InsertOne(ctx, genreDoc{ID: id, Name: genre.Name}); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return apperrors.Insertf(library.ErrDuplicate, "添加类型失败: %s", genre.Name)
		}
		return fail(apperrors.Insert, err, "添加类型失败: %s", genre.Name)
	}

	genre.ID = id
	return nil
}

// AddReview 以当前日期$push一条书评
func (r *Repository) AddReview(ctx context.Context, book *library.Book, user *library.User, rating int, text string) error {
	db, _, err := r.database()
	if err != nil {
		return apperrors.Connectionf(err, "添加书评失败: book=%d", book.ID)
	}
	if !library.ValidRating(rating) {
		return apperrors.Insertf(library.ErrInvalidRating, "添加书评失败: rating=%d", rating)
	}
	if user == nil {
		return apperrors.Insertf(library.ErrNotLoggedIn, "添加书评失败: book=%d", book.ID)
	}

	review := reviewDoc{Rating: rating, Text: text, Date: library.Today(), UserID: user.ID}
	res, err := db.Collection(collBooks).UpdateOne(ctx,
		bson.M{"_id": book.ID},
		bson.M{"$push": bson.M{"reviews": review}},
	)
	if err != nil {
		return fail(apperrors.Insert, err, "添加书评失败: book=%d", book.ID)
	}
	if res.MatchedCount == 0 {
		return apperrors.Insertf(library.ErrBookNotFound, "添加书评失败: book=%d", book.ID)
	}
	return nil
}

// =========================================
// 删除
// =========================================

// RemoveBook 按ID删除图书文档(书评随文档一起删除)
func (r *Repository) RemoveBook(ctx context.Context, book *library.Book) error {
	db, _, err := r.database()
	if err != nil {
		return apperrors.Connectionf(err, "删除图书失败: id=%d", book.ID)
	}

	res, err := db.Collection(collBooks).DeleteOne(ctx, bson.M{"_id": book.ID})
	if err != nil {
		return fail(apperrors.Delete, err, "删除图书失败: id=%d", book.ID)
	}
	if res.DeletedCount == 0 {
		return apperrors.Deletef(library.ErrBookNotFound, "删除图书失败: id=%d", book.ID)
	}
	return nil
}

// =========================================
// 辅助函数
// =========================================

// contains 子串匹配(不区分大小写),输入先做正则转义
func contains(s string) primitive.Regex {
	return primitive.Regex{Pattern: regexp.QuoteMeta(strings.TrimSpace(s)), Options: "i"}
}

// equalsFold 整串匹配(不区分大小写)
func equalsFold(s string) primitive.Regex {
	return primitive.Regex{Pattern: "^" + regexp.QuoteMeta(strings.TrimSpace(s)) + "$", Options: "i"}
}

func byID() *options.FindOptions {
	return options.Find().SetSort(bson.D{{Key: "_id", Value: 1}})
}

func byName() *options.FindOptions {
	return options.Find().SetSort(bson.D{{Key: "name", Value: 1}, {Key: "_id", Value: 1}})
}

// findAll 查询并解码全部结果
func findAll(ctx context.Context, coll *mongo.Collection, filter interface{}, opts *options.FindOptions, dest interface{}) error {
	cur, err := coll.Find(ctx, filter, opts)
	if err != nil {
		return err
	}
	return cur.All(ctx, dest)
}

// findBookDocs 按ID升序查询图书文档
func findBookDocs(ctx context.Context, db *mongo.Database, filter bson.M) ([]bookDoc, error) {
	docs := []bookDoc{}
	if err := findAll(ctx, db.Collection(collBooks), filter, byID(), &docs); err != nil {
		return nil, err
	}
	return docs, nil
}

// matchingIDs 返回匹配文档的_id
func matchingIDs(ctx context.Context, coll *mongo.Collection, filter bson.M) ([]int, error) {
	opts := byID().SetProjection(bson.M{"_id": 1})
	var docs []idDoc
	if err := findAll(ctx, coll, filter, opts, &docs); err != nil {
		return nil, err
	}
	return lo.Map(docs, func(d idDoc, _ int) int { return d.ID }), nil
}
