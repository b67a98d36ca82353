package mysql

import (
	"context"
	"fmt"
	"time"

	drivermysql "github.com/go-sql-driver/mysql"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// openDB 打开数据库连接
// 设计说明：
// 1. 使用GORM v2作为ORM框架，Dialector可替换（测试中使用SQLite内存库）
// 2. 配置连接池参数（MaxOpenConns、MaxIdleConns、ConnMaxLifetime）
// 3. 开启SQL日志时打印每条SQL（开发环境）
// 4. TranslateError把驱动的唯一键冲突统一翻译为gorm.ErrDuplicatedKey
// 5. 自动迁移表结构（AutoMigrate）
func openDB(ctx context.Context, dialector gorm.Dialector, o options) (*gorm.DB, error) {
	logLevel := logger.Silent
	if o.sqlLog {
		logLevel = logger.Info
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:         logger.Default.LogMode(logLevel),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("连接数据库失败: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("获取SQL DB失败: %w", err)
	}

	// 连接池：多个goroutine可以同时使用同一个Repository
	if o.maxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(o.maxOpenConns)
	}
	if o.maxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(o.maxIdleConns)
	}
	if o.connMaxLifetime > 0 {
		sqlDB.SetConnMaxLifetime(o.connMaxLifetime)
	}

	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("数据库连接测试失败: %w", err)
	}

	if err := autoMigrate(db.WithContext(ctx)); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("数据库迁移失败: %w", err)
	}

	return db, nil
}

// mysqlDialector 默认Dialector
// 强制parseTime=true，否则DATE列无法扫描到time.Time
func mysqlDialector(dsn string) (gorm.Dialector, error) {
	cfg, err := drivermysql.ParseDSN(dsn)
	if err != nil {
		return nil, fmt.Errorf("无效的DSN: %w", err)
	}
	cfg.ParseTime = true
	return mysql.Open(cfg.FormatDSN()), nil
}

// autoMigrate 自动迁移表结构
// 注意：生产环境应使用版本化的迁移脚本，不要依赖AutoMigrate
func autoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&UserModel{},
		&BookModel{},
		&AuthorModel{},
		&GenreModel{},
		&BookAuthorModel{},
		&BookGenreModel{},
		&ReviewModel{},
	)
}

// UserModel GORM用户模型
// 设计说明：
// 1. 这是infrastructure层的数据模型，包含GORM tag
// 2. domain/library/entity.go是领域实体，不依赖GORM
// 3. 密码只在登录查询中比较，不映射到领域实体
type UserModel struct {
	ID       int    `gorm:"primaryKey"`
	Username string `gorm:"uniqueIndex;size:50;not null;comment:用户名"`
	Password string `gorm:"size:255;not null;comment:密码"`
}

// TableName 指定表名
func (UserModel) TableName() string {
	return "users"
}

// BookModel GORM图书模型
// ISBN不唯一，只建普通索引
type BookModel struct {
	ID        int    `gorm:"primaryKey"`
	ISBN      string `gorm:"index;size:20;not null;comment:ISBN号"`
	Title     string `gorm:"index;size:255;not null;comment:书名"`
	Publisher string `gorm:"size:255;comment:出版社"`
	AddedBy   *int   `gorm:"index;comment:添加者用户ID"`
}

// TableName 指定表名
func (BookModel) TableName() string {
	return "books"
}

// AuthorModel GORM作者模型
type AuthorModel struct {
	ID        int        `gorm:"primaryKey"`
	Name      string     `gorm:"index;size:255;not null;comment:姓名"`
	Birthdate *time.Time `gorm:"type:date;comment:出生日期"`
	AddedBy   *int       `gorm:"index;comment:添加者用户ID"`
}

// TableName 指定表名
func (AuthorModel) TableName() string {
	return "authors"
}

// GenreModel GORM类型模型
type GenreModel struct {
	ID   int    `gorm:"primaryKey"`
	Name string `gorm:"uniqueIndex;size:100;not null;comment:类型名称"`
}

// TableName 指定表名
func (GenreModel) TableName() string {
	return "genres"
}

// BookAuthorModel 图书-作者关联
// Position记录作者在图书中的顺序
type BookAuthorModel struct {
	BookID   int `gorm:"primaryKey;autoIncrement:false"`
	AuthorID int `gorm:"primaryKey;autoIncrement:false;index"`
	Position int `gorm:"not null;default:0"`
}

// TableName 指定表名
func (BookAuthorModel) TableName() string {
	return "book_authors"
}

// BookGenreModel 图书-类型关联
type BookGenreModel struct {
	BookID   int `gorm:"primaryKey;autoIncrement:false"`
	GenreID  int `gorm:"primaryKey;autoIncrement:false;index"`
	Position int `gorm:"not null;default:0"`
}

// TableName 指定表名
func (BookGenreModel) TableName() string {
	return "book_genres"
}

// ReviewModel GORM书评模型
// ReviewText为NULL表示没有评论文字
type ReviewModel struct {
	ID         int       `gorm:"primaryKey"`
	BookID     int       `gorm:"index;not null;comment:图书ID"`
	UserID     int       `gorm:"index;not null;comment:评论用户ID"`
	Rating     int       `gorm:"not null;comment:评分(1-5)"`
	ReviewText *string   `gorm:"type:text;comment:评论内容"`
	ReviewDate time.Time `gorm:"type:date;not null;comment:评论日期"`
}

// TableName 指定表名
func (ReviewModel) TableName() string {
	return "reviews"
}
